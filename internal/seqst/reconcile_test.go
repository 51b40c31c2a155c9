package seqst

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
)

// fakeSources serves canned structure and model lookups and records the
// accessions queried against each.
type fakeSources struct {
	mu sync.Mutex

	// entries maps accessions to PDB ids, a nil entry answers ErrNoResults
	entries map[string][]string

	// models maps accessions to a model locator
	models map[string]string

	searched []string
	fetched  []string

	searchErr error
	modelErr  error
}

func (f *fakeSources) SearchByAccession(ctx context.Context, accession string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.searched = append(f.searched, accession)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	ids, ok := f.entries[accession]
	if !ok {
		return nil, ErrNoResults
	}
	return ids, nil
}

func (f *fakeSources) Prediction(ctx context.Context, accession string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.fetched = append(f.fetched, accession)
	if f.modelErr != nil {
		return "", false, f.modelErr
	}
	locator, ok := f.models[accession]
	return locator, ok, nil
}

func Test_Reconcile(t *testing.T) {
	t.Run("accession entries join hit evidence", func(t *testing.T) {
		reg := NewRegistry()
		reg.AddSequence("q", "AAAA")
		reg.SetAccessions("q", []string{"P12345", "Q99999"})
		reg.SetStructures("q", Structures{Source: SourcePDB, Refs: []string{"1ABC"}})

		sources := &fakeSources{entries: map[string][]string{
			"P12345": {"1ABC", "2XYZ"},
			"Q99999": {"6GOV"},
		}}
		rec := &Reconciler{Structures: sources, Models: sources}

		if err := rec.Reconcile(context.Background(), reg); err != nil {
			t.Fatalf("Reconcile() = %v, want nil", err)
		}

		got, _ := reg.Structures("q")
		want := Structures{Source: SourcePDB, Refs: []string{"1ABC", "2XYZ", "6GOV"}}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Structures(q) = %v, want %v", got, want)
		}
		if len(sources.fetched) != 0 {
			t.Errorf("model lookups ran for a descriptor with entries: %v", sources.fetched)
		}
	})

	t.Run("empty searches leave hit evidence alone", func(t *testing.T) {
		reg := NewRegistry()
		reg.AddSequence("q", "AAAA")
		reg.SetAccessions("q", []string{"P12345", "Q99999"})
		reg.SetStructures("q", Structures{Source: SourcePDB, Refs: []string{"1ABC"}})

		sources := &fakeSources{}
		rec := &Reconciler{Structures: sources, Models: sources}

		if err := rec.Reconcile(context.Background(), reg); err != nil {
			t.Fatalf("Reconcile() = %v, want nil", err)
		}

		// both accessions tried despite the first answering no results
		if want := []string{"P12345", "Q99999"}; !reflect.DeepEqual(sources.searched, want) {
			t.Errorf("searched %v, want %v", sources.searched, want)
		}
		got, _ := reg.Structures("q")
		if want := (Structures{Source: SourcePDB, Refs: []string{"1ABC"}}); !reflect.DeepEqual(got, want) {
			t.Errorf("Structures(q) = %v, want %v", got, want)
		}
	})

	t.Run("the first modeled accession settles the fallback", func(t *testing.T) {
		reg := NewRegistry()
		reg.AddSequence("q", "AAAA")
		reg.SetAccessions("q", []string{"A0A001", "P12345", "Q99999"})

		sources := &fakeSources{models: map[string]string{
			"P12345": "https://example.org/AF-P12345-F1.cif",
			"Q99999": "https://example.org/AF-Q99999-F1.cif",
		}}
		rec := &Reconciler{Structures: sources, Models: sources}

		if err := rec.Reconcile(context.Background(), reg); err != nil {
			t.Fatalf("Reconcile() = %v, want nil", err)
		}

		got, _ := reg.Structures("q")
		want := Structures{Source: SourceAlphaFold, Refs: []string{"https://example.org/AF-P12345-F1.cif"}}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Structures(q) = %v, want %v", got, want)
		}
		// the unmodeled accession was tried, the one after the match was not
		if want := []string{"A0A001", "P12345"}; !reflect.DeepEqual(sources.fetched, want) {
			t.Errorf("fetched %v, want %v", sources.fetched, want)
		}
	})

	t.Run("descriptors without accessions are untouched", func(t *testing.T) {
		reg := NewRegistry()
		reg.AddSequence("q", "AAAA")

		sources := &fakeSources{}
		rec := &Reconciler{Structures: sources, Models: sources}

		if err := rec.Reconcile(context.Background(), reg); err != nil {
			t.Fatalf("Reconcile() = %v, want nil", err)
		}
		if len(sources.searched) != 0 || len(sources.fetched) != 0 {
			t.Error("lookups ran for a descriptor without accessions")
		}
	})

	t.Run("search errors abort the run", func(t *testing.T) {
		reg := NewRegistry()
		reg.AddSequence("q", "AAAA")
		reg.SetAccessions("q", []string{"P12345"})

		searchErr := errors.New("search api down")
		sources := &fakeSources{searchErr: searchErr}
		rec := &Reconciler{Structures: sources, Models: sources}

		if err := rec.Reconcile(context.Background(), reg); !errors.Is(err, searchErr) {
			t.Errorf("Reconcile() = %v, want %v", err, searchErr)
		}
	})

	t.Run("model errors abort the run", func(t *testing.T) {
		reg := NewRegistry()
		reg.AddSequence("q", "AAAA")
		reg.SetAccessions("q", []string{"P12345"})

		modelErr := errors.New("prediction api down")
		sources := &fakeSources{modelErr: modelErr}
		rec := &Reconciler{Structures: sources, Models: sources}

		if err := rec.Reconcile(context.Background(), reg); !errors.Is(err, modelErr) {
			t.Errorf("Reconcile() = %v, want %v", err, modelErr)
		}
	})
}

func Test_Reconcile_manyDescriptors(t *testing.T) {
	reg := NewRegistry()
	entries := map[string][]string{}
	models := map[string]string{}

	// even descriptors get a PDB entry, odd ones fall back to a model
	aminoAcids := "ACDEFGHIKLMNPQRSTWVY"
	for i := 0; i < 20; i++ {
		d := fmt.Sprintf("q%02d", i)
		accession := fmt.Sprintf("P%05d", i)
		reg.AddSequence(d, "MKTAYIAKQR"+string(aminoAcids[i]))
		reg.SetAccessions(d, []string{accession})
		if i%2 == 0 {
			entries[accession] = []string{fmt.Sprintf("%04d", i)}
		} else {
			models[accession] = fmt.Sprintf("https://example.org/AF-%s.cif", accession)
		}
	}

	sources := &fakeSources{entries: entries, models: models}
	rec := &Reconciler{Structures: sources, Models: sources, Workers: 4}

	if err := rec.Reconcile(context.Background(), reg); err != nil {
		t.Fatalf("Reconcile() = %v, want nil", err)
	}

	for i, d := range reg.Descriptors() {
		s, ok := reg.Structures(d)
		if !ok {
			t.Fatalf("Structures(%s) missing", d)
		}
		wantSource := SourcePDB
		if i%2 != 0 {
			wantSource = SourceAlphaFold
		}
		if s.Source != wantSource || len(s.Refs) != 1 {
			t.Errorf("Structures(%s) = %v, want one %s reference", d, s, wantSource)
		}
	}
}
