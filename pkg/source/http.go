package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/goccy/go-json"

	"github.com/mwoudstra/winnow/pkg/debug"
	"github.com/mwoudstra/winnow/pkg/model"
)

// Retry policy for transport-level failures. Application-level failures
// (non-2xx) are terminal and never retried.
const (
	retryInitialDelay = 250 * time.Millisecond
	retryMaxTries     = 4
)

// HTTPSource queries a remote paginated report endpoint:
// GET <base>?limit=&offset=&search=&from=&until=&resolved=&category=&region=
// returning {"data": [...], "metadata": {"total": N}}.
type HTTPSource struct {
	base   string
	client *http.Client
}

// NewHTTP returns a source for the given endpoint URL.
func NewHTTP(base string) *HTTPSource {
	return &HTTPSource{
		base: base,
		// No request timeout: a hung request is superseded by the next
		// epoch bump and its response discarded on arrival.
		client: &http.Client{},
	}
}

// WithClient overrides the HTTP client, for tests.
func (s *HTTPSource) WithClient(c *http.Client) *HTTPSource {
	s.client = c
	return s
}

// FetchPage issues the page request. Transport failures are retried with
// bounded exponential backoff; a rejected query (non-2xx) surfaces
// immediately.
func (s *HTTPSource) FetchPage(ctx context.Context, q model.Query) (model.Page, error) {
	reqURL, err := s.buildURL(q)
	if err != nil {
		return model.Page{}, err
	}

	op := func() (model.Page, error) {
		return s.fetchOnce(ctx, reqURL)
	}
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = retryInitialDelay
	page, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(retryMaxTries))
	if err != nil {
		return model.Page{}, err
	}
	return page, nil
}

func (s *HTTPSource) fetchOnce(ctx context.Context, reqURL string) (model.Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return model.Page{}, backoff.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		debug.Log("source: transport error, will retry: %v", err)
		return model.Page{}, err // retryable
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return model.Page{}, backoff.Permanent(
			fmt.Errorf("feed returned %s", resp.Status))
	}

	var page model.Page
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return model.Page{}, backoff.Permanent(
			fmt.Errorf("decoding feed response: %w", err))
	}
	return page, nil
}

func (s *HTTPSource) buildURL(q model.Query) (string, error) {
	u, err := url.Parse(s.base)
	if err != nil {
		return "", fmt.Errorf("parsing feed URL: %w", err)
	}
	vals := u.Query()
	vals.Set("limit", strconv.Itoa(q.Limit))
	vals.Set("offset", strconv.Itoa(q.Offset))
	f := q.Filters
	if f.Search != "" {
		vals.Set("search", f.Search)
	}
	if f.DateFrom != "" {
		vals.Set("from", f.DateFrom)
	}
	if f.DateUntil != "" {
		vals.Set("until", f.DateUntil)
	}
	if f.Resolved != nil {
		vals.Set("resolved", strconv.FormatBool(*f.Resolved))
	}
	for _, c := range f.SortedCategories() {
		vals.Add("category", c)
	}
	for _, r := range f.SortedRegions() {
		vals.Add("region", r)
	}
	u.RawQuery = vals.Encode()
	return u.String(), nil
}
