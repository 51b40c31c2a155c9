package cmd

import (
	"github.com/cmheckmann/PySeqSt/internal/seqst"
	"github.com/spf13/cobra"
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Print the sequences stored in a saved BLAST report as FASTA",
	Run:   seqst.ExtractCmd,

	SuggestionsMinimumDistance: 2,
}

// set flags
func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringP("blast", "b", "", "Saved report to read the sequences out of <JSON>")
	extractCmd.MarkFlagRequired("blast")
}
