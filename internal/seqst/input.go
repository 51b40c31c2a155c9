package seqst

import (
	"bufio"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/cmheckmann/PySeqSt/config"
	"github.com/spf13/cobra"
)

// stderr is for logging to the stderr of the terminal
var stderr = log.New(os.Stderr, "", 0)

// errInvalidSeq rejects input that is not a usable protein sequence.
var errInvalidSeq = errors.New(
	"please provide a valid protein sequence of single-letter canonical (20) amino acids.\n" +
		"To run several sequences at once, provide a FASTA file with -f")

// Flags contains parsed cobra flags shared by the seqst commands.
type Flags struct {
	// seq is a single protein sequence passed as the command argument
	seq string

	// file is a FASTA file of input sequences
	file string

	// snapshot is a saved BLAST report to reuse instead of searching
	snapshot string

	// out is the directory results are written to
	out string

	// onlyBlast stops the run once the search report is saved
	onlyBlast bool
}

// NewFlags returns the flags the seqst commands parse, for testing.
func NewFlags(seq, file, snapshot, out string, onlyBlast bool) (*Flags, *config.Config) {
	return &Flags{
		seq:       seq,
		file:      file,
		snapshot:  snapshot,
		out:       out,
		onlyBlast: onlyBlast,
	}, config.New()
}

// inputParser contains methods for turning the input flags into a
// sequence registry.
type inputParser struct{}

// parseCmdFlags gathers the input and output arguments off a cobra cmd.
func parseCmdFlags(cmd *cobra.Command, args []string) (*Flags, *config.Config) {
	fs := &Flags{}

	if len(args) > 0 {
		fs.seq = strings.TrimSpace(args[0])
	}
	fs.file, _ = cmd.Flags().GetString("file")
	fs.snapshot, _ = cmd.Flags().GetString("blast")
	fs.out, _ = cmd.Flags().GetString("out")

	if fs.seq != "" && fs.file != "" {
		stderr.Fatalln("a sequence argument and a FASTA file cannot both be given")
	}
	if fs.file != "" && !hasExtension(fs.file, ".fasta", ".fa") {
		stderr.Fatalf("%s is not a FASTA file (expected a .fasta or .fa extension)\n", fs.file)
	}
	if fs.snapshot != "" && !hasExtension(fs.snapshot, ".json") {
		stderr.Fatalf("%s is not a saved BLAST report (expected a .json extension)\n", fs.snapshot)
	}

	return fs, config.New()
}

// hasExtension reports whether the path ends in one of the extensions,
// case insensitively.
func hasExtension(path string, extensions ...string) bool {
	path = strings.ToLower(path)
	for _, ext := range extensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// registry builds the input registry. A literal sequence argument wins,
// then a FASTA file, then an interactive prompt. Returns nil when the
// sequences should instead be recovered from a saved report.
func (p *inputParser) registry(fs *Flags) (*Registry, error) {
	switch {
	case fs.seq != "":
		reg := NewRegistry()
		if reg.AddSequence("", fs.seq) != Added {
			return nil, errInvalidSeq
		}
		return reg, nil

	case fs.file != "":
		reg, invalid, err := readFasta(fs.file)
		if err != nil {
			return nil, err
		}
		if reg.Len() == 0 {
			return nil, fmt.Errorf("no usable sequences in %s", fs.file)
		}
		if invalid > 0 {
			if err := confirm(fmt.Sprintf("%d invalid sequences were skipped. Continue without them?", invalid)); err != nil {
				return nil, err
			}
		}
		return reg, nil

	case fs.snapshot != "":
		return nil, nil
	}

	reg := NewRegistry()
	if reg.AddSequence("", promptSequence()) != Added {
		return nil, errInvalidSeq
	}
	return reg, nil
}

// readFasta parses a protein FASTA file into a fresh registry. Invalid
// records are reported and counted, duplicates only reported. Lines
// before the first header form an unnamed record, matching what loose
// sequence pastes look like.
func readFasta(path string) (*Registry, int, error) {
	dat, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read %s: %v", path, err)
	}

	reg := NewRegistry()
	invalid := 0
	descriptor := ""
	var seq strings.Builder

	flush := func() {
		if seq.Len() == 0 {
			return
		}
		s := seq.String()
		seq.Reset()

		switch reg.AddSequence(descriptor, s) {
		case Invalid:
			stderr.Printf("sequence %q is not a valid protein sequence and was skipped.", descriptor)
			invalid++
		case Duplicate:
			stderr.Printf("sequence %q duplicates an earlier sequence and was skipped.", descriptor)
		}
	}

	for _, line := range strings.Split(string(dat), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, ">") {
			flush()
			descriptor = strings.TrimSpace(strings.TrimPrefix(line, ">"))
			continue
		}
		seq.WriteString(line)
	}
	flush()

	return reg, invalid, nil
}

// confirm prints the prompt and aborts when the answer starts with n.
// Anything else, a bare return included, continues.
func confirm(prompt string) error {
	fmt.Print(prompt + " [Y/n] ")

	answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(answer)), "n") {
		return errors.New("aborted")
	}
	return nil
}

// promptSequence asks for a single sequence interactively.
func promptSequence() string {
	fmt.Print("Protein sequence: ")

	seq, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	return strings.TrimSpace(seq)
}
