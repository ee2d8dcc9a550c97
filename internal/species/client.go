// Package species fetches the externally hosted species catalog that animal
// listings are expected (but not required) to reference. The catalog lives
// behind a plain JSON endpoint; there is no referential integrity between it
// and the animals collection, so lookups tolerate misses.
package species

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/text/cases"

	"github.com/pettyapp/go-petty-backend/internal/domain"
)

// DefaultBaseURL is the public catalog endpoint used when none is configured.
const DefaultBaseURL = "https://www.freetestapi.com/api/v1/animals"

// Client fetches the species catalog. The zero value is not usable; use New.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// New builds a catalog client. An empty baseURL selects DefaultBaseURL; a nil
// httpc selects a client with a modest timeout.
func New(baseURL string, httpc *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpc == nil {
		httpc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: baseURL, httpc: httpc}
}

// Fetch retrieves the full catalog.
func (c *Client) Fetch(ctx context.Context) ([]domain.Species, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("species catalog: unexpected status %d", resp.StatusCode)
	}
	var out []domain.Species
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// Match finds the catalog entry for a free-form species name using Unicode
// case folding, so "Dog", "dog", and "DOG" all resolve the same entry.
// Returns false when the catalog has no such species; callers treat that as
// a tolerated mismatch, not an error.
func Match(catalog []domain.Species, name string) (domain.Species, bool) {
	folder := cases.Fold()
	want := folder.String(name)
	for _, sp := range catalog {
		if folder.String(sp.Species) == want {
			return sp, true
		}
	}
	return domain.Species{}, false
}
