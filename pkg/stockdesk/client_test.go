package stockdesk

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewClient(t *testing.T) {
	baseURL := "http://localhost:8080/"
	c := NewClient(baseURL)

	if c == nil {
		t.Fatal("expected non-nil client")
	}
	if c.baseURL != "http://localhost:8080" {
		t.Errorf("expected trailing slash trimmed, got %q", c.baseURL)
	}
	if c.httpClient == nil {
		t.Fatal("expected non-nil httpClient")
	}
	if c.BaseURL() != "http://localhost:8080" {
		t.Errorf("BaseURL() = %q", c.BaseURL())
	}
}

// countingTransport records requests before handing them to the default
// transport.
type countingTransport struct {
	paths []string
}

func (ct *countingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	ct.paths = append(ct.paths, r.URL.EscapedPath())
	return http.DefaultTransport.RoundTrip(r)
}

func TestWithHTTPClientIsUsed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	ct := &countingTransport{}
	c := NewClient(srv.URL, WithHTTPClient(&http.Client{Transport: ct}))
	if _, err := c.GetNews(context.Background()); err != nil {
		t.Fatalf("GetNews: %v", err)
	}
	if len(ct.paths) != 1 || ct.paths[0] != "/api/news" {
		t.Errorf("custom client saw %v, want [/api/news]", ct.paths)
	}
}

func TestUploadModel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/csv/upload" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			http.Error(w, "bad", http.StatusBadRequest)
			return
		}
		defer f.Close()
		body, _ := io.ReadAll(f)
		if hdr.Filename != "prices.csv" || string(body) != "a,b\n1,2\n" {
			t.Errorf("got file %q with %q", hdr.Filename, body)
		}
		io.WriteString(w, `{"fileName":"prices.csv","metadata":{"columns":"2","rows":1},
			"modelType":"Linear Regression","accuracy":0.875,
			"predictions":{"up":0.6,"down":0.3,"flat":0.1}}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	m, err := c.UploadModel(context.Background(), "prices.csv", strings.NewReader("a,b\n1,2\n"))
	if err != nil {
		t.Fatalf("UploadModel: %v", err)
	}
	if m.FileName != "prices.csv" || m.Metadata.Columns != 2 || m.Metadata.Rows != 1 {
		t.Errorf("unexpected model %+v", m)
	}
	wantLabels := []string{"up", "down", "flat"}
	if len(m.Predictions) != len(wantLabels) {
		t.Fatalf("got %d predictions, want %d", len(m.Predictions), len(wantLabels))
	}
	for i, l := range wantLabels {
		if m.Predictions[i].Label != l {
			t.Errorf("Predictions[%d].Label = %q, want %q", i, m.Predictions[i].Label, l)
		}
	}
}

func TestUploadFile(t *testing.T) {
	var gotName string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hdr, err := r.FormFile("file")
		if err == nil {
			gotName = hdr.Filename
		}
		json.NewEncoder(w).Encode(Model{FileName: gotName, Accuracy: 0.5})
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "sales.csv")
	if err := os.WriteFile(path, []byte("x\n1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := NewClient(srv.URL).UploadFile(context.Background(), path)
	if err != nil {
		t.Fatalf("UploadFile: %v", err)
	}
	if gotName != "sales.csv" || m.FileName != "sales.csv" {
		t.Errorf("uploaded as %q, model %q", gotName, m.FileName)
	}
}

func TestGetModelEscapesFileName(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		json.NewEncoder(w).Encode(Model{FileName: "q1 report/v2.csv"})
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL).GetModel(context.Background(), "q1 report/v2.csv"); err != nil {
		t.Fatalf("GetModel: %v", err)
	}
	want := "/api/csv/models/q1%20report%2Fv2.csv"
	if gotPath != want {
		t.Errorf("path = %q, want %q", gotPath, want)
	}
}

func TestStatusErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/missing.csv") {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()
	c := NewClient(srv.URL)

	_, err := c.GetModel(context.Background(), "missing.csv")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetModel error = %v, want ErrNotFound", err)
	}

	err = c.DeleteModel(context.Background(), "other.csv")
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusInternalServerError {
		t.Errorf("DeleteModel error = %v, want 500 StatusError", err)
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("500 should not match ErrNotFound")
	}
}

func TestGetQuoteRejectsNegativePrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"symbol":"AAPL","price":-1,"change":0.5,"volume":10}`)
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL).GetQuote(context.Background(), "AAPL"); err == nil {
		t.Error("expected validation error for negative price")
	}
}

func TestGetNewsPreservesOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{"title":"b","summary":"s","publishedAt":2},{"title":"a","summary":"s","publishedAt":1}]`)
	}))
	defer srv.Close()

	items, err := NewClient(srv.URL).GetNews(context.Background())
	if err != nil {
		t.Fatalf("GetNews: %v", err)
	}
	if len(items) != 2 || items[0].Title != "b" || items[1].Title != "a" {
		t.Errorf("unexpected news order %+v", items)
	}
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	if _, err := NewClient(url).ListModels(context.Background()); err == nil {
		t.Error("expected error from closed server")
	}
}
