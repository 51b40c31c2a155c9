package seqst

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cmheckmann/PySeqSt/config"
)

// MappingClient runs batch id mapping jobs against the UniProt REST API.
// Hit accessions come from whichever database each hit was deposited in,
// mapping them to one canonical namespace lets the structure lookups key
// off a single identifier per protein.
type MappingClient struct {
	// URL is the id mapping API root
	URL string

	// From are the source databases tried for every batch
	From []string

	// To is the target database
	To string

	// PollDelay before the first status check
	PollDelay time.Duration

	// PollIncrement added to the delay after every unfinished check
	PollIncrement time.Duration

	http *http.Client
}

// NewMappingClient returns an id mapping client configured from the app
// config.
func NewMappingClient(c *config.Config) *MappingClient {
	return &MappingClient{
		URL:           c.Mapping.URL,
		From:          c.Mapping.From,
		To:            c.Mapping.To,
		PollDelay:     c.Mapping.PollDelay,
		PollIncrement: c.Mapping.PollIncrement,
		http:          &http.Client{Timeout: c.Timeout},
	}
}

// Map submits one mapping job per source database, waits for all of them
// to finish, and collects the unique target accessions. Ids the remote
// maps to a record without a primary accession are dropped with a
// warning.
func (m *MappingClient) Map(ctx context.Context, accessions []string) ([]string, error) {
	var jobs []string
	for _, from := range m.From {
		id, err := m.submit(ctx, from, accessions)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, id)
	}

	poller := &Poller{
		Poll:      m.poll,
		Initial:   m.PollDelay,
		Increment: m.PollIncrement,
		OnWait: func(job Job) {
			fmt.Println("Running...")
		},
	}
	for _, id := range jobs {
		if err := poller.Wait(ctx, id, 0); err != nil {
			return nil, fmt.Errorf("UniProt id mapping: %w", err)
		}
	}

	var mapped []string
	dropped := 0
	for _, id := range jobs {
		results, skipped, err := m.fetch(ctx, id)
		if err != nil {
			return nil, err
		}
		mapped = appendUnique(mapped, results...)
		dropped += skipped
	}
	if dropped > 0 {
		stderr.Printf("WARNING: %d mapped ids had no primary accession and were dropped.", dropped)
	}

	return mapped, nil
}

// submit starts one mapping job and returns its id.
func (m *MappingClient) submit(ctx context.Context, from string, accessions []string) (string, error) {
	form := url.Values{
		"from": {from},
		"to":   {m.To},
		"ids":  {strings.Join(accessions, ",")},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.URL+"run", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var job struct {
		JobID string `json:"jobId"`
	}
	if err := m.do(req, &job); err != nil {
		return "", err
	}
	if job.JobID == "" {
		return "", fmt.Errorf("no job id in the UniProt response for %s", from)
	}
	return job.JobID, nil
}

// poll classifies one mapping job's status. A finished job's status
// answer has no jobStatus field at all, that is the ready signal.
func (m *MappingClient) poll(ctx context.Context, id string) (JobState, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.URL+"status/"+id, nil)
	if err != nil {
		return Unknown, err
	}

	var status struct {
		JobStatus string `json:"jobStatus"`
	}
	if err := m.do(req, &status); err != nil {
		return Unknown, err
	}

	switch status.JobStatus {
	case "NEW", "RUNNING":
		return Waiting, nil
	case "":
		return Ready, nil
	}
	stderr.Printf("UniProt reported job status %q.", status.JobStatus)
	return Unknown, nil
}

// fetch streams one finished job's results. Entries without a primary
// accession are counted, not returned.
func (m *MappingClient) fetch(ctx context.Context, id string) (accessions []string, dropped int, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.URL+"uniprotkb/results/stream/"+id, nil)
	if err != nil {
		return nil, 0, err
	}

	var mapping struct {
		Results []struct {
			To struct {
				PrimaryAccession string `json:"primaryAccession"`
			} `json:"to"`
		} `json:"results"`
	}
	if err := m.do(req, &mapping); err != nil {
		return nil, 0, err
	}

	for _, r := range mapping.Results {
		if r.To.PrimaryAccession == "" {
			dropped++
			continue
		}
		accessions = append(accessions, r.To.PrimaryAccession)
	}
	return accessions, dropped, nil
}

// do runs a request and decodes the JSON answer into out.
func (m *MappingClient) do(req *http.Request, out interface{}) error {
	resp, err := m.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach UniProt: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("UniProt answered %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode the UniProt response: %v", err)
	}
	return nil
}
