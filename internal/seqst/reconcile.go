package seqst

import (
	"context"
	"errors"
	"sync"
)

// StructureSearcher finds experimental structure entries by accession.
type StructureSearcher interface {
	SearchByAccession(ctx context.Context, accession string) ([]string, error)
}

// ModelFetcher finds a predicted model locator by accession.
type ModelFetcher interface {
	Prediction(ctx context.Context, accession string) (locator string, found bool, err error)
}

// Reconciler completes each descriptor's structure evidence from its
// accessions. Experimental PDB entries found by accession join the ones
// the hit list already supplied, a predicted model is only stored for
// descriptors that end up with no experimental entry at all.
type Reconciler struct {
	// Structures searches PDB entries by accession
	Structures StructureSearcher

	// Models looks up predicted models by accession
	Models ModelFetcher

	// Workers caps the descriptor lookups running at once
	Workers int
}

// Reconcile runs both lookup passes for every descriptor that has
// accessions. Descriptors are independent, their lookups fan out across
// the worker pool while all registry writes stay behind the registry's
// lock. The first lookup error aborts the run.
func (rec *Reconciler) Reconcile(ctx context.Context, reg *Registry) error {
	var descriptors []string
	for _, d := range reg.Descriptors() {
		if len(reg.Accessions(d)) > 0 {
			descriptors = append(descriptors, d)
		}
	}
	if len(descriptors) == 0 {
		return nil
	}

	workers := rec.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(descriptors) {
		workers = len(descriptors)
	}

	jobs := make(chan string)
	errs := make(chan error, len(descriptors))
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for d := range jobs {
				errs <- rec.reconcile(ctx, reg, d)
			}
		}()
	}

	for _, d := range descriptors {
		jobs <- d
	}
	close(jobs)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// reconcile runs the experimental pass and then the predicted fallback
// for one descriptor.
func (rec *Reconciler) reconcile(ctx context.Context, reg *Registry, descriptor string) error {
	if err := rec.searchStructures(ctx, reg, descriptor); err != nil {
		return err
	}
	return rec.fallbackModel(ctx, reg, descriptor)
}

// searchStructures merges accession found PDB entries into whatever hit
// evidence the descriptor already carries. Accessions without any entry
// are skipped, the remaining accessions are still tried.
func (rec *Reconciler) searchStructures(ctx context.Context, reg *Registry, descriptor string) error {
	pdbs := []string{}
	if stored, ok := reg.Structures(descriptor); ok && stored.Source == SourcePDB {
		pdbs = stored.Refs
	}

	for _, accession := range reg.Accessions(descriptor) {
		ids, err := rec.Structures.SearchByAccession(ctx, accession)
		if err != nil {
			if errors.Is(err, ErrNoResults) {
				continue
			}
			return err
		}
		pdbs = appendUnique(pdbs, ids...)
	}

	reg.SetStructures(descriptor, Structures{Source: SourcePDB, Refs: pdbs})
	return nil
}

// fallbackModel stores one predicted model for a descriptor without
// structures. Models map one to one with accessions, so the first
// accession with a model settles the descriptor and the rest are never
// queried.
func (rec *Reconciler) fallbackModel(ctx context.Context, reg *Registry, descriptor string) error {
	if _, ok := reg.Structures(descriptor); ok {
		return nil
	}

	for _, accession := range reg.Accessions(descriptor) {
		locator, found, err := rec.Models.Prediction(ctx, accession)
		if err != nil {
			return err
		}
		if found {
			reg.SetStructures(descriptor, Structures{Source: SourceAlphaFold, Refs: []string{locator}})
			return nil
		}
	}
	return nil
}
