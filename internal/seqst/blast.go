package seqst

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/cmheckmann/PySeqSt/config"
)

// Report is the JSON2 output of one BLAST search, one entry per query.
// Only the fields the pipeline reads are modeled, everything else in the
// server's report is dropped on decode.
type Report struct {
	Outputs []QueryResult `json:"BlastOutput2"`
}

// QueryResult wraps one query's search report.
type QueryResult struct {
	Report ReportBody `json:"report"`
}

// ReportBody nests the results of one query.
type ReportBody struct {
	Results Results `json:"results"`
}

// Results nests one query's search.
type Results struct {
	Search Search `json:"search"`
}

// Search holds one query and its ranked hits.
type Search struct {
	// QueryTitle is the descriptor the query was submitted under
	QueryTitle string `json:"query_title"`

	// QueryLen is the length of the query sequence
	QueryLen int `json:"query_len"`

	// QuerySeq is injected after the search so saved reports are
	// self contained
	QuerySeq string `json:"query_seq,omitempty"`

	// Hits in ranking order
	Hits []Hit `json:"hits"`
}

// Hit is one candidate subject sequence matched by a query.
type Hit struct {
	// Descriptions identify the subject's source database records
	Descriptions []Description `json:"description"`

	// HSPs are the hit's scored alignments, best first
	HSPs []HSP `json:"hsps"`
}

// Description identifies one database record a hit sequence appears in.
type Description struct {
	// ID is the tagged identifier, eg pdb|6GOV|A or gb|AAA12345.1|
	ID string `json:"id"`

	// Accession of the record in its source database
	Accession string `json:"accession"`
}

// HSP is one scored alignment between query and hit.
type HSP struct {
	// Identity is the count of identical aligned positions
	Identity int `json:"identity"`

	// Gaps is the count of gap positions
	Gaps int `json:"gaps"`

	// AlignLen is the alignment length
	AlignLen int `json:"align_len"`

	// QuerySeq is the aligned query string
	QuerySeq string `json:"qseq"`

	// HitSeq is the aligned hit string
	HitSeq string `json:"hseq"`
}

// errBadReport means a BLAST report did not have the structure this tool
// writes and reads.
var errBadReport = errors.New(
	"BLAST report has an unexpected structure, verify it was produced by this tool and has not been modified")

var (
	ridPattern    = regexp.MustCompile(`RID = (\S+)`)
	rtoePattern   = regexp.MustCompile(`RTOE = (\d+)`)
	statusPattern = regexp.MustCompile(`Status=(\S+)`)
)

// BlastClient submits protein searches to the NCBI BLAST URL API and
// retrieves their results. One CGI endpoint serves submission, polling
// and retrieval, switched by the CMD parameter.
type BlastClient struct {
	// URL of the Blast.cgi endpoint
	URL string

	// Program run by every search, eg blastp
	Program string

	// Database searched, eg nr
	Database string

	http *http.Client
}

// NewBlastClient returns a BLAST client configured from the app config.
func NewBlastClient(c *config.Config) *BlastClient {
	return &BlastClient{
		URL:      c.Blast.URL,
		Program:  c.Blast.Program,
		Database: c.Blast.Database,
		http:     &http.Client{Timeout: c.Timeout},
	}
}

// Submit posts the FASTA formatted queries as one search. It returns the
// request id and the remote's estimated time to completion.
func (b *BlastClient) Submit(ctx context.Context, fasta string) (rid string, rtoe time.Duration, err error) {
	body, err := b.get(ctx, url.Values{
		"CMD":      {"Put"},
		"PROGRAM":  {b.Program},
		"DATABASE": {b.Database},
		"QUERY":    {fasta},
	})
	if err != nil {
		return "", 0, err
	}

	m := ridPattern.FindSubmatch(body)
	if m == nil {
		return "", 0, errors.New("no request id in the BLAST submission response")
	}
	rid = string(m[1])

	t := rtoePattern.FindSubmatch(body)
	if t == nil {
		return "", 0, errors.New("no time estimate in the BLAST submission response")
	}
	seconds, err := strconv.Atoi(string(t[1]))
	if err != nil {
		return "", 0, fmt.Errorf("failed to parse the BLAST time estimate: %v", err)
	}

	return rid, time.Duration(seconds) * time.Second, nil
}

// Poll fetches and classifies the search's current status.
func (b *BlastClient) Poll(ctx context.Context, rid string) (JobState, error) {
	body, err := b.get(ctx, url.Values{"CMD": {"Get"}, "RID": {rid}})
	if err != nil {
		return Unknown, err
	}
	return classifyBlast(body), nil
}

// classifyBlast maps the Status line of a poll response to a job state.
// The server answers Status=UNKNOWN for a request id it no longer
// recognizes, which means the search expired.
func classifyBlast(body []byte) JobState {
	m := statusPattern.FindSubmatch(body)
	if m == nil {
		return Unknown
	}
	switch string(m[1]) {
	case "WAITING":
		return Waiting
	case "READY":
		return Ready
	case "FAILED":
		return Failed
	case "UNKNOWN":
		return Expired
	}
	return Unknown
}

// Fetch downloads the finished search's report.
func (b *BlastClient) Fetch(ctx context.Context, rid string) (*Report, error) {
	body, err := b.get(ctx, url.Values{
		"CMD":         {"Get"},
		"RID":         {rid},
		"FORMAT_TYPE": {"JSON2_S"},
	})
	if err != nil {
		return nil, err
	}

	var report Report
	if err := json.Unmarshal(body, &report); err != nil {
		return nil, fmt.Errorf("failed to decode the BLAST report: %v", err)
	}
	if len(report.Outputs) == 0 {
		return nil, errors.New("no query results in the BLAST report")
	}
	return &report, nil
}

// get runs one Blast.cgi request and reads the whole response.
func (b *BlastClient) get(ctx context.Context, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.URL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := b.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach the BLAST server: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("BLAST server answered %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// Blast submits the registry's sequences as one BLAST search, waits for
// it to finish, and returns the report with each query's sequence
// injected under its descriptor.
func Blast(ctx context.Context, reg *Registry, client *BlastClient, c *config.Config) (*Report, error) {
	fasta := reg.FASTA()
	if fasta == "" {
		return nil, errors.New("no sequences to search with")
	}

	rid, rtoe, err := client.Submit(ctx, fasta)
	if err != nil {
		return nil, err
	}
	fmt.Printf("BLAST (ID: %s) is running, checking for results in %.0fs...\n",
		rid, (rtoe + c.Blast.PollDelay).Seconds())

	poller := &Poller{
		Poll:      client.Poll,
		Initial:   c.Blast.PollDelay,
		Increment: c.Blast.PollIncrement,
		OnWait: func(job Job) {
			fmt.Printf("Job not finished yet, checking again in %.0fs...\n", job.Delay.Seconds())
		},
	}
	if err := poller.Wait(ctx, rid, rtoe); err != nil {
		return nil, fmt.Errorf("BLAST search: %w", err)
	}
	fmt.Printf("BLAST (ID: %s) finished.\n", rid)

	report, err := client.Fetch(ctx, rid)
	if err != nil {
		return nil, err
	}

	// inject the query sequences so the saved report can stand alone
	for i := range report.Outputs {
		search := &report.Outputs[i].Report.Results.Search
		search.QuerySeq = reg.Seq(search.QueryTitle)
	}

	return report, nil
}

// AccessionMapper converts source database accessions to canonical ones.
type AccessionMapper interface {
	Map(ctx context.Context, accessions []string) ([]string, error)
}

// processReport walks every query in the report, decides which hits are
// the query sequence itself, and attaches the accession and structure
// evidence to the registry. Queries that no longer verify against the
// registry are skipped, their count is returned so the caller can warn.
func processReport(ctx context.Context, report *Report, reg *Registry, mapper AccessionMapper, c *config.Config) (skipped int, err error) {
	if len(report.Outputs) == 0 {
		return 0, errBadReport
	}
	t := thresholds(c)

	for _, out := range report.Outputs {
		search := out.Report.Results.Search
		if search.QueryTitle == "" {
			return skipped, errBadReport
		}

		if !reg.HasSequence(search.QuerySeq) {
			fmt.Printf("BLAST query %q: the query sequence is not among the provided sequences.\n", search.QueryTitle)
			skipped++
			continue
		}

		pdbs := []string{}
		var accessions []string
		for _, hit := range search.Hits {
			if !isMatch(hit, search.QueryLen, t) {
				continue
			}
			hitPDBs, accession := extractEvidence(hit)
			pdbs = appendUnique(pdbs, hitPDBs...)
			if accession != "" {
				accessions = appendUnique(accessions, accession)
			}
		}

		if len(accessions) > 0 {
			fmt.Printf("Converting accession numbers for BLAST query %q to UniProt...\n", search.QueryTitle)
			if accessions, err = mapper.Map(ctx, accessions); err != nil {
				return skipped, err
			}
		}

		if !reg.AddAccessions(search.QueryTitle, search.QuerySeq, accessions) {
			fmt.Printf("BLAST query %q does not verify against any provided descriptor and sequence.\n", search.QueryTitle)
			skipped++
			continue
		}
		reg.AddStructures(search.QueryTitle, search.QuerySeq, Structures{Source: SourcePDB, Refs: pdbs})
	}

	return skipped, nil
}

// ExtractSequences rebuilds a registry from the query records of a saved
// report.
func ExtractSequences(report *Report) (*Registry, error) {
	if len(report.Outputs) == 0 {
		return nil, errBadReport
	}

	reg := NewRegistry()
	for _, out := range report.Outputs {
		search := out.Report.Results.Search
		if search.QueryTitle == "" && search.QuerySeq == "" {
			return nil, errBadReport
		}
		if outcome := reg.AddSequence(search.QueryTitle, search.QuerySeq); outcome != Added {
			return nil, fmt.Errorf("query %q: %s sequence; %w", search.QueryTitle, outcome, errBadReport)
		}
	}
	return reg, nil
}
