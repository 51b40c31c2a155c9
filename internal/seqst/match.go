package seqst

import (
	"strings"

	"github.com/cmheckmann/PySeqSt/config"
)

// MatchThresholds tune when a similarity hit counts as the query
// sequence itself rather than a mere homolog.
type MatchThresholds struct {
	// Identity is the minimum (identity+gaps)/alignment-length fraction
	Identity float64

	// Coverage is the query-length fraction the alignment must exceed
	Coverage float64

	// GapRuns is the maximum number of contiguous gap stretches
	// tolerated on each side of the alignment
	GapRuns int
}

// thresholds pulls the matcher settings out of the app config.
func thresholds(c *config.Config) MatchThresholds {
	return MatchThresholds{
		Identity: c.Match.Identity,
		Coverage: c.Match.Coverage,
		GapRuns:  c.Match.GapRuns,
	}
}

// isMatch decides whether a hit's best alignment is the query sequence
// itself. Point mutations are forgiven by Identity, truncations by
// Coverage, and gaps only if they form few enough contiguous runs on
// both sides, so a tag reads as a match but scattered indels do not.
// A hit without alignments never matches.
func isMatch(hit Hit, queryLen int, t MatchThresholds) bool {
	if len(hit.HSPs) == 0 {
		return false
	}
	hsp := hit.HSPs[0]

	if float64(hsp.Identity+hsp.Gaps) < float64(hsp.AlignLen)*t.Identity {
		return false
	}
	if float64(hsp.AlignLen) <= float64(queryLen)*t.Coverage {
		return false
	}
	if hsp.Gaps == 0 {
		return true
	}
	return gapRuns(hsp.HitSeq) <= t.GapRuns && gapRuns(hsp.QuerySeq) <= t.GapRuns
}

// gapRuns counts the maximal stretches of "-" in an aligned sequence.
func gapRuns(aligned string) int {
	runs := 0
	inRun := false
	for i := 0; i < len(aligned); i++ {
		if aligned[i] == '-' {
			if !inRun {
				runs++
			}
			inRun = true
		} else {
			inRun = false
		}
	}
	return runs
}

// extractEvidence scans a matching hit's description records. Every
// structure database record contributes its entry code, with any chain
// suffix stripped and duplicates dropped. The first record from any
// other database contributes the hit's one accession candidate, "" when
// the hit only has structure records.
func extractEvidence(hit Hit) (pdbs []string, accession string) {
	for _, d := range hit.Descriptions {
		if strings.HasPrefix(d.ID, "pdb|") {
			pdbs = appendUnique(pdbs, strings.SplitN(d.Accession, "_", 2)[0])
		} else if accession == "" {
			accession = d.Accession
		}
	}
	return pdbs, accession
}
