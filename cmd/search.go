package cmd

import (
	"github.com/cmheckmann/PySeqSt/internal/seqst"
	"github.com/spf13/cobra"
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search [SEQ]",
	Short: "Find structures for protein sequences",
	Long: `Given a protein sequence, a FASTA file of sequences, or the report of an
earlier BLAST run, find PDB entries or EBI AlphaFold models for every sequence.

The sequences are submitted as one BLAST search. Hits that are the query
sequence itself (point mutations and a purification tag are tolerated)
contribute PDB entries directly. The hits' accession numbers are converted
to UniProt and used to find entries the hit list missed. Sequences without
any PDB entry fall back to a predicted AlphaFold model.

Every structure is saved beneath the output folder, one subfolder per
sequence, next to a BLAST.json report that later runs can resume from
with -b.`,
	Run:     seqst.SearchCmd,
	Aliases: []string{"find"},

	SuggestionsMinimumDistance: 2,
}

// set flags
func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringP("file", "f", "", "Input file of protein sequences <FASTA>")
	searchCmd.Flags().StringP("blast", "b", "", "Saved report of an earlier run to resume from <JSON>")
	searchCmd.Flags().StringP("out", "o", "", "Output folder for structures and the report (files may be overwritten)")
}
