// Package cmd is for command line interactions with the seqst application
package cmd

import (
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use: "seqst",
	Short: `Find experimentally determined 3D structures, or predicted models, for protein sequences.
Sequences are matched against the PDB via BLAST and UniProt accession numbers`,
	Version: "0.1.0",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("%v", err)
	}
}

// set flags
func init() {
	rootCmd.PersistentFlags().StringP("settings", "s", "", "Settings file with API and matching overrides <YAML>")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log each saved structure file")

	viper.BindPFlag("settings", rootCmd.PersistentFlags().Lookup("settings"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}
