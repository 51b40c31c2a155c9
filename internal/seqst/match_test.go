package seqst

import (
	"reflect"
	"testing"
)

// hitWith builds a single alignment hit for threshold tests.
func hitWith(identity, gaps, alignLen int, qseq, hseq string) Hit {
	return Hit{
		HSPs: []HSP{{
			Identity: identity,
			Gaps:     gaps,
			AlignLen: alignLen,
			QuerySeq: qseq,
			HitSeq:   hseq,
		}},
	}
}

func Test_isMatch(t *testing.T) {
	strict := MatchThresholds{Identity: 1.0, Coverage: 0.9, GapRuns: 1}

	tests := []struct {
		name     string
		hit      Hit
		queryLen int
		want     bool
	}{
		{
			"identical full length",
			hitWith(100, 0, 100, "", ""),
			100,
			true,
		},
		{
			"point mutation fails perfect identity",
			hitWith(99, 0, 100, "", ""),
			100,
			false,
		},
		{
			"gaps count toward identity",
			hitWith(94, 6, 100, "MKTAYIAKQR------DLVPR", "MKTAYIAKQRGGSGGSDLVPR"),
			94,
			true,
		},
		{
			"alignment barely too short",
			hitWith(90, 0, 90, "", ""),
			100,
			false,
		},
		{
			"alignment well short of coverage",
			hitWith(80, 0, 80, "", ""),
			100,
			false,
		},
		{
			"alignment just long enough",
			hitWith(91, 0, 91, "", ""),
			100,
			true,
		},
		{
			"scattered gaps on the hit side",
			hitWith(94, 6, 100, "MKTAYIAKQRDLVPRGSHMKT", "MKT--IAKQRDLV--GSHM-T"),
			94,
			false,
		},
		{
			"scattered gaps on the query side",
			hitWith(94, 6, 100, "MKT--IAKQRDLV--GSHM-T", "MKTAYIAKQRDLVPRGSHMKT"),
			94,
			false,
		},
		{
			"one gap run on each side",
			hitWith(94, 6, 100, "MKTAYI---QRDLVPRGSHMK", "MKTAYIAKQRDLV---GSHMK"),
			94,
			true,
		},
		{
			"contiguous tag gap at partial coverage",
			hitWith(90, 10, 100, "MGSSHHHHHHSQDLVPRGSHM", "MGSS----------DLVPRGS"),
			95,
			true,
		},
		{
			"two gap runs on one side",
			hitWith(94, 6, 100, "MKTAYIAKQRDLVPRGSHMKT", "MKT---AKQRDLV---GSHMK"),
			94,
			false,
		},
		{
			"no alignments",
			Hit{},
			100,
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isMatch(tt.hit, tt.queryLen, strict); got != tt.want {
				t.Errorf("isMatch() = %t, want %t", got, tt.want)
			}
		})
	}
}

func Test_isMatch_usesBestAlignmentOnly(t *testing.T) {
	hit := Hit{
		HSPs: []HSP{
			{Identity: 50, Gaps: 0, AlignLen: 100}, // best alignment is a poor one
			{Identity: 100, Gaps: 0, AlignLen: 100},
		},
	}
	if isMatch(hit, 100, MatchThresholds{Identity: 1.0, Coverage: 0.9, GapRuns: 1}) {
		t.Error("isMatch() = true from a secondary alignment")
	}
}

func Test_isMatch_relaxedThresholds(t *testing.T) {
	// a homolog at 80% identity passes once the thresholds allow it
	hit := hitWith(80, 0, 100, "", "")
	relaxed := MatchThresholds{Identity: 0.8, Coverage: 0.5, GapRuns: 1}

	if !isMatch(hit, 100, relaxed) {
		t.Error("isMatch() = false under relaxed thresholds")
	}
	if isMatch(hit, 100, MatchThresholds{Identity: 1.0, Coverage: 0.9, GapRuns: 1}) {
		t.Error("isMatch() = true under strict thresholds")
	}
}

func Test_gapRuns(t *testing.T) {
	tests := []struct {
		name    string
		aligned string
		want    int
	}{
		{"no gaps", "MKTAYIAKQR", 0},
		{"one run", "MKT---AYIA", 1},
		{"two runs", "M-KTAY--IA", 2},
		{"leading and trailing", "-MKTAYIAK-", 2},
		{"all gaps", "-----", 1},
		{"empty", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := gapRuns(tt.aligned); got != tt.want {
				t.Errorf("gapRuns(%q) = %d, want %d", tt.aligned, got, tt.want)
			}
		})
	}
}

func Test_extractEvidence(t *testing.T) {
	tests := []struct {
		name string
		hit  Hit

		wantPDBs      []string
		wantAccession string
	}{
		{
			"chain suffixes are stripped and deduplicated",
			Hit{Descriptions: []Description{
				{ID: "pdb|1ABC|A", Accession: "1ABC_A"},
				{ID: "pdb|1ABC|B", Accession: "1ABC_B"},
				{ID: "pdb|2XYZ|A", Accession: "2XYZ_A"},
			}},
			[]string{"1ABC", "2XYZ"},
			"",
		},
		{
			"first non structure record wins",
			Hit{Descriptions: []Description{
				{ID: "gb|AAA12345.1|", Accession: "AAA12345"},
				{ID: "ref|NP_000001.1|", Accession: "NP_000001"},
			}},
			nil,
			"AAA12345",
		},
		{
			"mixed records",
			Hit{Descriptions: []Description{
				{ID: "pdb|6GOV|A", Accession: "6GOV_A"},
				{ID: "gb|AAA12345.1|", Accession: "AAA12345"},
				{ID: "pdb|7KGB|C", Accession: "7KGB_C"},
				{ID: "gb|BBB99999.1|", Accession: "BBB99999"},
			}},
			[]string{"6GOV", "7KGB"},
			"AAA12345",
		},
		{
			"no records",
			Hit{},
			nil,
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pdbs, accession := extractEvidence(tt.hit)
			if !reflect.DeepEqual(pdbs, tt.wantPDBs) {
				t.Errorf("extractEvidence() pdbs = %v, want %v", pdbs, tt.wantPDBs)
			}
			if accession != tt.wantAccession {
				t.Errorf("extractEvidence() accession = %q, want %q", accession, tt.wantAccession)
			}
		})
	}
}
