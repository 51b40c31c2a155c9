// Package config is for app wide settings that are unmarshalled
// from Viper (see: /cmd)
package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// MatchConfig tunes when a BLAST hit counts as the query sequence
// itself rather than a homolog.
type MatchConfig struct {
	// the minimum (identity+gaps)/alignment-length fraction of a hit
	Identity float64 `mapstructure:"identity"`

	// the query-length fraction the alignment length must exceed
	Coverage float64 `mapstructure:"coverage"`

	// the maximum number of contiguous gap runs per alignment side
	GapRuns int `mapstructure:"gap-runs"`
}

// BlastConfig is settings for the NCBI BLAST URL API.
type BlastConfig struct {
	// the Blast.cgi endpoint
	URL string `mapstructure:"url"`

	// the search program, eg blastp
	Program string `mapstructure:"program"`

	// the database searched, eg nr
	Database string `mapstructure:"database"`

	// the delay before the first status poll, added to the remote's
	// own completion estimate
	PollDelay time.Duration `mapstructure:"poll-delay"`

	// the increment added to the delay after every unfinished poll
	PollIncrement time.Duration `mapstructure:"poll-increment"`
}

// MappingConfig is settings for the UniProt id mapping API.
type MappingConfig struct {
	// the id mapping API root
	URL string `mapstructure:"url"`

	// the source databases accessions are mapped from
	From []string `mapstructure:"from"`

	// the database accessions are mapped to
	To string `mapstructure:"to"`

	// the delay before the first status poll
	PollDelay time.Duration `mapstructure:"poll-delay"`

	// the increment added to the delay after every unfinished poll
	PollIncrement time.Duration `mapstructure:"poll-increment"`
}

// StructureConfig is settings for the RCSB PDB APIs.
type StructureConfig struct {
	// the search API query endpoint
	SearchURL string `mapstructure:"search-url"`

	// the file download service entries are fetched from
	DownloadURL string `mapstructure:"download-url"`
}

// ModelConfig is settings for the EBI AlphaFold prediction API.
type ModelConfig struct {
	// the prediction API root
	URL string `mapstructure:"url"`
}

// Config is the root level settings struct, a mix of settings file
// values and command line arguments.
type Config struct {
	// Match decides which similarity hits are the query itself
	Match MatchConfig `mapstructure:"match"`

	// Blast is the similarity search service
	Blast BlastConfig `mapstructure:"blast"`

	// Mapping is the accession conversion service
	Mapping MappingConfig `mapstructure:"mapping"`

	// Structure is the experimental structure service
	Structure StructureConfig `mapstructure:"structure"`

	// Model is the predicted model service
	Model ModelConfig `mapstructure:"model"`

	// Timeout of every single remote request
	Timeout time.Duration `mapstructure:"timeout"`

	// Workers caps the structure lookups running at once
	Workers int `mapstructure:"workers"`

	// Out is the default output folder for fresh runs
	Out string `mapstructure:"out"`

	// Verbose turns on per file progress logging
	Verbose bool `mapstructure:"verbose"`
}

// New returns a Config built from the defaults, the settings file bound
// by the root command when one was given, and any flag overrides.
func New() *Config {
	setDefaults()

	if settings := viper.GetString("settings"); settings != "" {
		viper.SetConfigFile(settings)
		if err := viper.ReadInConfig(); err != nil {
			log.Fatalf("failed to read the settings file %s: %v", settings, err)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		log.Fatalln("unable to decode settings into the config struct,", err)
	}
	return config
}

// setDefaults registers every setting's fallback value with viper.
func setDefaults() {
	viper.SetDefault("match.identity", 1.0)
	viper.SetDefault("match.coverage", 0.9)
	viper.SetDefault("match.gap-runs", 1)

	viper.SetDefault("blast.url", "https://blast.ncbi.nlm.nih.gov/blast/Blast.cgi")
	viper.SetDefault("blast.program", "blastp")
	viper.SetDefault("blast.database", "nr")
	viper.SetDefault("blast.poll-delay", 10*time.Second)
	viper.SetDefault("blast.poll-increment", 10*time.Second)

	viper.SetDefault("mapping.url", "https://rest.uniprot.org/idmapping/")
	viper.SetDefault("mapping.from", []string{"EMBL-GenBank-DDBJ_CDS", "RefSeq_Protein"})
	viper.SetDefault("mapping.to", "UniProtKB")
	viper.SetDefault("mapping.poll-delay", time.Duration(0))
	viper.SetDefault("mapping.poll-increment", 15*time.Second)

	viper.SetDefault("structure.search-url", "https://search.rcsb.org/rcsbsearch/v2/query")
	viper.SetDefault("structure.download-url", "https://files.rcsb.org/download/")

	viper.SetDefault("model.url", "https://alphafold.ebi.ac.uk/api/prediction/")

	viper.SetDefault("timeout", 30*time.Second)
	viper.SetDefault("workers", 4)
	viper.SetDefault("out", "./out")
}
