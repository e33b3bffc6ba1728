package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/flightscope/flightscope/internal/geo"
	"github.com/flightscope/flightscope/internal/provider/resilience"
)

// maxDocumentBytes bounds the coordinate document read from a URL.
const maxDocumentBytes = 32 << 20

// JSONFile reads the coordinate document from a local file.
type JSONFile struct {
	Path string
}

// Load implements Source.
func (s JSONFile) Load(_ context.Context) (*geo.Table, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, wrapLoad("file", err)
	}
	table, err := ParseDocument(data)
	if err != nil {
		return nil, wrapLoad("file", err)
	}
	return table, nil
}

// Doer executes HTTP requests. *resilience.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// JSONURL fetches the coordinate document over HTTP.
type JSONURL struct {
	URL    string
	Client Doer
}

// NewJSONURL creates a URL source that fetches through a resilient client.
func NewJSONURL(url string, client *resilience.Client) JSONURL {
	if client == nil {
		return JSONURL{URL: url}
	}
	return JSONURL{URL: url, Client: client}
}

// Load implements Source.
func (s JSONURL) Load(ctx context.Context) (*geo.Table, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, http.NoBody)
	if err != nil {
		return nil, wrapLoad("url", err)
	}
	req.Header.Set("Accept", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, wrapLoad("url", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, wrapLoad("url", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, wrapLoad("url", err)
	}
	table, err := ParseDocument(data)
	if err != nil {
		return nil, wrapLoad("url", err)
	}
	return table, nil
}
