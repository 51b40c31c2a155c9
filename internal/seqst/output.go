package seqst

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	pb "gopkg.in/cheggaaa/pb.v1"
)

// Outputs manages the run's output directory and the files saved into
// it.
type Outputs struct {
	// Dir all files of the run are written beneath
	Dir string
}

// openOutputs readies an explicit output directory, creating it and any
// parents when missing. Existing contents are left for the caller to
// worry about.
func openOutputs(dir string) (*Outputs, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create the output folder %s: %v", dir, err)
	}
	return &Outputs{Dir: dir}, nil
}

// newRunDir creates a fresh output directory, dir itself when free or
// the closest _<n> suffixed sibling otherwise, so runs never collide.
func newRunDir(dir string) (*Outputs, error) {
	dir = filepath.Clean(dir)
	for {
		err := os.Mkdir(dir, 0755)
		if err == nil {
			return &Outputs{Dir: dir}, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("failed to create the output folder %s: %v", dir, err)
		}

		base, n := splitSuffix(dir)
		if n < 2 {
			n = 2
		} else {
			n++
		}
		dir = base + "_" + strconv.Itoa(n)
	}
}

// snapshotName is the report file every run writes into its output
// directory.
const snapshotName = "BLAST.json"

// SaveSnapshot writes the search report as indented JSON next to the
// structures it led to. A failed save only warns, the run itself can
// still finish.
func (o *Outputs) SaveSnapshot(report *Report) {
	out := filepath.Join(o.Dir, snapshotName)

	dat, err := json.MarshalIndent(report, "", "  ")
	if err == nil {
		err = os.WriteFile(out, dat, 0644)
	}
	if err != nil {
		stderr.Printf("WARNING: the BLAST report could not be saved to %s: %v", out, err)
		return
	}
	fmt.Printf("BLAST report saved to %s\n", out)
}

// LoadSnapshot reads a report saved by an earlier run.
func LoadSnapshot(path string) (*Report, error) {
	dat, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %v", path, err)
	}

	var report Report
	if err := json.Unmarshal(dat, &report); err != nil {
		return nil, fmt.Errorf("failed to read %s: %v", path, err)
	}
	return &report, nil
}

// SaveStructures downloads every stored structure reference into a
// subfolder named after its descriptor. Already saved files are simply
// overwritten, re-running against the same folder refreshes it.
func (o *Outputs) SaveStructures(ctx context.Context, reg *Registry, structures *StructureClient, models *ModelClient, verbose bool) error {
	total := 0
	for _, d := range reg.Descriptors() {
		if s, ok := reg.Structures(d); ok {
			total += len(s.Refs)
		}
	}
	if total == 0 {
		fmt.Println("No structures were found to save.")
		return nil
	}

	bar := pb.StartNew(total)
	defer bar.Finish()

	for _, d := range reg.Descriptors() {
		s, ok := reg.Structures(d)
		if !ok {
			continue
		}

		dir := filepath.Join(o.Dir, d)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %v", dir, err)
		}

		bar.Prefix(d)
		for _, ref := range s.Refs {
			var name string
			var dat []byte
			var err error
			switch s.Source {
			case SourcePDB:
				name = ref + ".cif"
				dat, err = structures.Download(ctx, ref)
			case SourceAlphaFold:
				name = path.Base(ref)
				dat, err = models.Download(ctx, ref)
			}
			if err != nil {
				return err
			}

			if err := os.WriteFile(filepath.Join(dir, name), dat, 0644); err != nil {
				return fmt.Errorf("failed to save %s: %v", name, err)
			}
			if verbose {
				fmt.Printf("Saved %s for %q\n", name, d)
			}
			bar.Increment()
		}
	}

	return nil
}

// summary writes a per descriptor table of the structure evidence.
func summary(reg *Registry, w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 4, 3, ' ', 0)
	fmt.Fprintf(tw, "descriptor\tsource\tstructures\t\n")
	for _, d := range reg.Descriptors() {
		s, ok := reg.Structures(d)
		if !ok {
			fmt.Fprintf(tw, "%s\t-\t\t\n", d)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t\n", d, s.Source, strings.Join(s.Refs, " "))
	}
	tw.Flush()
}
