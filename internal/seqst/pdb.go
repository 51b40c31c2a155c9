package seqst

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/cmheckmann/PySeqSt/config"
)

// ErrNoResults marks a structure search that came back empty. The RCSB
// search API answers 204 with no body instead of an empty result set.
var ErrNoResults = errors.New("no results")

// StructureClient queries the RCSB PDB search API and download service.
type StructureClient struct {
	// SearchURL of the search API query endpoint
	SearchURL string

	// DownloadURL of the file download service
	DownloadURL string

	http *http.Client
}

// NewStructureClient returns a PDB client configured from the app
// config.
func NewStructureClient(c *config.Config) *StructureClient {
	return &StructureClient{
		SearchURL:   c.Structure.SearchURL,
		DownloadURL: c.Structure.DownloadURL,
		http:        &http.Client{Timeout: c.Timeout},
	}
}

// The search API takes a JSON query document. Entries are matched on
// their polymer entities' reference sequence identifiers, both the
// accession value and the database it belongs to.
type pdbQuery struct {
	Query      pdbGroup `json:"query"`
	ReturnType string   `json:"return_type"`
}

type pdbGroup struct {
	Type            string    `json:"type"`
	LogicalOperator string    `json:"logical_operator"`
	Nodes           []pdbNode `json:"nodes"`
}

type pdbNode struct {
	Type       string        `json:"type"`
	Service    string        `json:"service"`
	Parameters pdbParameters `json:"parameters"`
}

type pdbParameters struct {
	Operator  string `json:"operator"`
	Value     string `json:"value"`
	Attribute string `json:"attribute"`
}

// accessionQuery builds the two node group query matching entries that
// reference accession in the named sequence database.
func accessionQuery(accession, database string) pdbQuery {
	const identifiers = "rcsb_polymer_entity_container_identifiers.reference_sequence_identifiers"

	return pdbQuery{
		Query: pdbGroup{
			Type:            "group",
			LogicalOperator: "and",
			Nodes: []pdbNode{
				{
					Type:    "terminal",
					Service: "text",
					Parameters: pdbParameters{
						Operator:  "exact_match",
						Value:     accession,
						Attribute: identifiers + ".database_accession",
					},
				},
				{
					Type:    "terminal",
					Service: "text",
					Parameters: pdbParameters{
						Operator:  "exact_match",
						Value:     database,
						Attribute: identifiers + ".database_name",
					},
				},
			},
		},
		ReturnType: "entry",
	}
}

// SearchByAccession returns the PDB entries whose polymer entities
// reference the UniProt accession. Chain suffixes are stripped from the
// returned identifiers and duplicates dropped. An empty search returns
// ErrNoResults.
func (s *StructureClient) SearchByAccession(ctx context.Context, accession string) ([]string, error) {
	query, err := json.Marshal(accessionQuery(accession, "UniProt"))
	if err != nil {
		return nil, fmt.Errorf("failed to encode the PDB query: %v", err)
	}

	params := url.Values{"json": {string(query)}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.SearchURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach the PDB search API: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil, ErrNoResults
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("PDB search API answered %s", resp.Status)
	}

	var result struct {
		ResultSet []struct {
			Identifier string `json:"identifier"`
		} `json:"result_set"`
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode the PDB search response: %v", err)
	}

	var ids []string
	for _, r := range result.ResultSet {
		ids = appendUnique(ids, strings.SplitN(r.Identifier, "_", 2)[0])
	}
	return ids, nil
}

// Download fetches the PDBx/mmCIF file of one PDB entry.
func (s *StructureClient) Download(ctx context.Context, id string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.DownloadURL+id+".cif", nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %v", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("PDB download of %s answered %s", id, resp.Status)
	}
	return io.ReadAll(resp.Body)
}
