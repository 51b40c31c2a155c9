package seqst

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/cmheckmann/PySeqSt/config"
)

// ModelClient looks up predicted models in the EBI AlphaFold database.
// Models are keyed by UniProt accession, one model per accession.
type ModelClient struct {
	// URL of the prediction API
	URL string

	http *http.Client
}

// NewModelClient returns an AlphaFold client configured from the app
// config.
func NewModelClient(c *config.Config) *ModelClient {
	return &ModelClient{
		URL:  c.Model.URL,
		http: &http.Client{Timeout: c.Timeout},
	}
}

// Prediction returns the model file locator for an accession. The API
// answers 404 for accessions without a model, that is the not found
// case rather than an error.
func (m *ModelClient) Prediction(ctx context.Context, accession string) (locator string, found bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.URL+accession, nil)
	if err != nil {
		return "", false, err
	}

	resp, err := m.http.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("failed to reach the AlphaFold API: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("AlphaFold API answered %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", false, err
	}

	var models []struct {
		CifURL string `json:"cifUrl"`
	}
	if err := json.Unmarshal(body, &models); err != nil {
		return "", false, fmt.Errorf("failed to decode the AlphaFold response: %v", err)
	}
	if len(models) == 0 || models[0].CifURL == "" {
		return "", false, fmt.Errorf("no model location in the AlphaFold response for %s", accession)
	}

	return models[0].CifURL, true, nil
}

// Download fetches the model file at a locator returned by Prediction.
func (m *ModelClient) Download(ctx context.Context, locator string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, err
	}

	resp, err := m.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %v", locator, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("model download of %s answered %s", locator, resp.Status)
	}
	return io.ReadAll(resp.Body)
}
