package status

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/OFFIS-RIT/logicflow/internal/storage"
)

// Fetcher returns the current analysis document of a report.
type Fetcher interface {
	Fetch(ctx context.Context, reportID string) ([]byte, error)
}

// HTTPFetcher reads GET {BaseURL}/reports/{id}/analysis.
type HTTPFetcher struct {
	BaseURL string
	Client  *http.Client
	// Header is added to every request, e.g. an API token.
	Header http.Header
}

func NewHTTPFetcher(baseURL string) *HTTPFetcher {
	return &HTTPFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, reportID string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/reports/%s/analysis", strings.TrimRight(f.BaseURL, "/"), url.PathEscape(reportID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, values := range f.Header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch analysis for report %s: %w", reportID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read analysis body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("analysis endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

// S3Fetcher reads {Prefix}/{id}.json from a bucket.
type S3Fetcher struct {
	Client storage.ObjectAPI
	Bucket string
	Prefix string
}

func (f *S3Fetcher) Fetch(ctx context.Context, reportID string) ([]byte, error) {
	return storage.GetFile(ctx, f.Client, f.Bucket, storage.AnalysisKey(f.Prefix, reportID))
}
