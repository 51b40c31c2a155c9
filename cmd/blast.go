package cmd

import (
	"github.com/cmheckmann/PySeqSt/internal/seqst"
	"github.com/spf13/cobra"
)

// blastCmd represents the blast command
var blastCmd = &cobra.Command{
	Use:   "blast [SEQ]",
	Short: "Run the BLAST search alone and save its report",
	Long: `Submit the input sequences to NCBI BLAST, wait for the search to finish,
and save the report to BLAST.json in the output folder without looking up
any structures.

'seqst search -b <folder>/BLAST.json' picks up where this left off.`,
	Run: seqst.BlastCmd,

	SuggestionsMinimumDistance: 2,
}

// set flags
func init() {
	rootCmd.AddCommand(blastCmd)

	blastCmd.Flags().StringP("file", "f", "", "Input file of protein sequences <FASTA>")
	blastCmd.Flags().StringP("out", "o", "", "Output folder for the report (files may be overwritten)")
}
