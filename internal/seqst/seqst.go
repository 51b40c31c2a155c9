package seqst

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/cmheckmann/PySeqSt/config"
	"github.com/spf13/cobra"
)

// SearchCmd runs the full pipeline: ingest sequences, search them with
// BLAST, reconcile structure evidence against the PDB and AlphaFold
// databases, and save what was found.
func SearchCmd(cmd *cobra.Command, args []string) {
	flags, conf := parseCmdFlags(cmd, args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := Run(ctx, flags, conf); err != nil {
		stderr.Fatalln(err)
	}
}

// BlastCmd runs the search alone, stopping once the report is saved.
func BlastCmd(cmd *cobra.Command, args []string) {
	flags, conf := parseCmdFlags(cmd, args)
	flags.onlyBlast = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := Run(ctx, flags, conf); err != nil {
		stderr.Fatalln(err)
	}
}

// ExtractCmd prints the sequences recoverable from a saved report as
// FASTA.
func ExtractCmd(cmd *cobra.Command, args []string) {
	flags, _ := parseCmdFlags(cmd, args)

	report, err := LoadSnapshot(flags.snapshot)
	if err != nil {
		stderr.Fatalln(err)
	}
	reg, err := ExtractSequences(report)
	if err != nil {
		stderr.Fatalln(err)
	}
	fmt.Println(reg.FASTA())
}

// Run drives one end to end invocation against the configured services.
func Run(ctx context.Context, flags *Flags, conf *config.Config) error {
	p := inputParser{}

	reg, err := p.registry(flags)
	if err != nil {
		return err
	}

	var report *Report
	var outputs *Outputs
	if flags.snapshot != "" {
		if report, err = LoadSnapshot(flags.snapshot); err != nil {
			return err
		}
		if reg == nil {
			if reg, err = ExtractSequences(report); err != nil {
				return err
			}
			fmt.Printf("Loaded %d sequences from %s\n", reg.Len(), flags.snapshot)
		}

		// stay in the saved report's folder unless told otherwise
		dir := flags.out
		if dir == "" {
			dir = filepath.Dir(flags.snapshot)
		}
		if outputs, err = openOutputs(dir); err != nil {
			return err
		}
	} else {
		if outputs, err = makeOutputs(flags.out, conf.Out); err != nil {
			return err
		}

		if report, err = Blast(ctx, reg, NewBlastClient(conf), conf); err != nil {
			return err
		}
		outputs.SaveSnapshot(report)
	}

	if flags.onlyBlast {
		fmt.Println("Finished.")
		return nil
	}

	fmt.Println("Processing the BLAST report...")
	skipped, err := processReport(ctx, report, reg, NewMappingClient(conf), conf)
	if err != nil {
		return err
	}
	if skipped > 0 {
		stderr.Printf("WARNING: %d BLAST queries did not verify against the provided sequences and were skipped.", skipped)
	}

	structures := NewStructureClient(conf)
	models := NewModelClient(conf)

	fmt.Println("Completing the structure evidence from the PDB and AlphaFold databases...")
	rec := &Reconciler{Structures: structures, Models: models, Workers: conf.Workers}
	if err := rec.Reconcile(ctx, reg); err != nil {
		return err
	}

	fmt.Println("Saving structures...")
	if err := outputs.SaveStructures(ctx, reg, structures, models, conf.Verbose); err != nil {
		return err
	}

	summary(reg, os.Stdout)
	fmt.Println("Finished.")
	return nil
}

// makeOutputs picks the run's output directory. An explicit directory is
// reused after a warning when it already exists, otherwise a fresh
// default directory is created next to the working directory.
func makeOutputs(out, fallback string) (*Outputs, error) {
	if out == "" {
		return newRunDir(fallback)
	}

	if _, err := os.Stat(out); err == nil {
		stderr.Printf("WARNING: the output folder %s already exists, its files may be overwritten.", out)
		if err := confirm("Continue?"); err != nil {
			return nil, err
		}
	}
	return openOutputs(out)
}
