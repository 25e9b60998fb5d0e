// Package fetcher provides the abstract page-fetch capability used by the
// source adapters. The pipeline never talks HTTP directly; adapters receive
// a Fetcher and deployments without one (no network egress, no renderer)
// get the Unavailable sentinel so failures stay honest.
package fetcher

import (
	"context"

	"github.com/rotisserie/eris"
)

// Page is a fetched document.
type Page struct {
	// Body is the decoded document text.
	Body string
	// FinalURL is the URL after redirects.
	FinalURL string
	// StatusCode is the terminal HTTP status.
	StatusCode int
}

// Fetcher retrieves a remote page for price extraction.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Page, error)
}

// ErrCapabilityUnavailable indicates the deployment has no page-fetch
// capability at all. Adapters translate it into a failed extraction with
// a distinct error code rather than fabricating a price.
var ErrCapabilityUnavailable = eris.New("page fetch capability unavailable")

// Unavailable is a Fetcher for deployments without fetch capability.
type Unavailable struct{}

// Fetch always fails with ErrCapabilityUnavailable.
func (Unavailable) Fetch(context.Context, string) (*Page, error) {
	return nil, ErrCapabilityUnavailable
}
