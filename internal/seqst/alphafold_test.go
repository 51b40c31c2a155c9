package seqst

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func Test_ModelClientPrediction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/prediction/P12345":
			fmt.Fprint(w, `[{
				"entryId": "AF-P12345-F1",
				"cifUrl": "https://alphafold.ebi.ac.uk/files/AF-P12345-F1-model_v4.cif",
				"pdbUrl": "https://alphafold.ebi.ac.uk/files/AF-P12345-F1-model_v4.pdb"
			}]`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	m := &ModelClient{URL: srv.URL + "/api/prediction/", http: &http.Client{}}

	locator, found, err := m.Prediction(context.Background(), "P12345")
	if err != nil {
		t.Fatalf("Prediction() = %v, want nil", err)
	}
	if !found {
		t.Fatal("Prediction() found = false for a modeled accession")
	}
	if want := "https://alphafold.ebi.ac.uk/files/AF-P12345-F1-model_v4.cif"; locator != want {
		t.Errorf("Prediction() = %q, want %q", locator, want)
	}

	locator, found, err = m.Prediction(context.Background(), "A0A000")
	if err != nil {
		t.Fatalf("Prediction() = %v for an unmodeled accession, want nil", err)
	}
	if found || locator != "" {
		t.Errorf("Prediction() = %q, %t for an unmodeled accession, want \"\", false", locator, found)
	}
}

func Test_ModelClientPrediction_emptyAnswer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	m := &ModelClient{URL: srv.URL + "/", http: &http.Client{}}
	if _, _, err := m.Prediction(context.Background(), "P12345"); err == nil {
		t.Error("Prediction() = nil error for an answer without a model location")
	}
}

func Test_ModelClientDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/files/AF-P12345-F1-model_v4.cif" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, "data_AF-P12345-F1\n#\n")
	}))
	defer srv.Close()

	m := &ModelClient{http: &http.Client{}}
	got, err := m.Download(context.Background(), srv.URL+"/files/AF-P12345-F1-model_v4.cif")
	if err != nil {
		t.Fatalf("Download() = %v, want nil", err)
	}
	if string(got) != "data_AF-P12345-F1\n#\n" {
		t.Errorf("Download() = %q", got)
	}
}
