package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/s0up4200/dexbrowse/httpclient"
)

const (
	DefaultBaseURL         = "https://pokeapi.co/api/v2"
	DefaultDetailBatchSize = 5
	DefaultNamesLimit      = 10000

	// namesFetchTimeout bounds the shared name index fetch, which no caller can cancel
	namesFetchTimeout = 2 * time.Minute
)

// ErrEmptyIdentifier is returned when a detail lookup is given a blank id or name
var ErrEmptyIdentifier = errors.New("empty item identifier")

// Fetcher performs one logical GET and decodes the JSON body into out.
// *httpclient.Client implements it.
type Fetcher interface {
	Get(ctx context.Context, url string, out any) error
}

// Cache is the expiring store consulted before every fetch.
// *cache.Store implements it.
type Cache interface {
	Get(key string, dst any) bool
	GetStale(key string, dst any) bool
	Set(key string, value any)
}

// Client is the cache-first data access layer over the catalog API
type Client struct {
	baseURL         string
	fetcher         Fetcher
	cache           Cache
	logger          zerolog.Logger
	detailBatchSize int
	namesLimit      int
	names           singleflight.Group
}

// Option configures a Client
type Option func(*Client)

// WithDetailBatchSize sets how many details are fetched concurrently per batch
func WithDetailBatchSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.detailBatchSize = n
		}
	}
}

// WithNamesLimit sets the page size used to fetch the full name index
func WithNamesLimit(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.namesLimit = n
		}
	}
}

// NewClient creates a new catalog client
func NewClient(baseURL string, fetcher Fetcher, cache Cache, logger zerolog.Logger, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("base URL must be absolute: %s", baseURL)
	}
	if fetcher == nil {
		return nil, errors.New("fetcher is required")
	}
	if cache == nil {
		return nil, errors.New("cache is required")
	}

	c := &Client{
		baseURL:         strings.TrimRight(baseURL, "/"),
		fetcher:         fetcher,
		cache:           cache,
		logger:          logger,
		detailBatchSize: DefaultDetailBatchSize,
		namesLimit:      DefaultNamesLimit,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// GetPage returns one page of refs from the list endpoint
func (c *Client) GetPage(ctx context.Context, limit, offset int) ([]ItemRef, error) {
	endpoint := fmt.Sprintf("%s/pokemon?limit=%d&offset=%d", c.baseURL, limit, offset)

	var cached refIndex
	if c.cache.Get(endpoint, &cached) {
		return cached.Results, nil
	}

	var page listResponse
	if err := c.fetcher.Get(ctx, endpoint, &page); err != nil {
		return nil, err
	}

	refs := page.Results
	if refs == nil {
		refs = []ItemRef{}
	}
	c.cache.Set(endpoint, refIndex{Results: refs})
	return refs, nil
}

// GetDetail returns the normalized record for a numeric id or a name
func (c *Client) GetDetail(ctx context.Context, idOrName string) (ItemDetail, error) {
	key := strings.ToLower(strings.TrimSpace(idOrName))
	if key == "" {
		return ItemDetail{}, ErrEmptyIdentifier
	}
	endpoint := c.detailURL(key)

	var detail ItemDetail
	if c.cache.Get(endpoint, &detail) {
		return detail, nil
	}

	var wire detailResponse
	if err := c.fetcher.Get(ctx, endpoint, &wire); err != nil {
		return ItemDetail{}, err
	}

	detail = wire.normalize()
	c.cache.Set(endpoint, detail)

	// Warm the other spelling so an id lookup after a name lookup is a hit
	for _, alt := range []string{fmt.Sprint(detail.ID), detail.Name} {
		if alt != "" && alt != "0" && alt != key {
			c.cache.Set(c.detailURL(alt), detail)
		}
	}

	return detail, nil
}

// GetByCategory returns every ref tagged with category
func (c *Client) GetByCategory(ctx context.Context, category string) ([]ItemRef, error) {
	name := strings.ToLower(strings.TrimSpace(category))
	if name == "" {
		return nil, errors.New("empty category")
	}
	endpoint := c.baseURL + "/type/" + url.PathEscape(name)

	var cached refIndex
	if c.cache.Get(endpoint, &cached) {
		return cached.Results, nil
	}

	var wire categoryResponse
	if err := c.fetcher.Get(ctx, endpoint, &wire); err != nil {
		return nil, err
	}

	refs := wire.flatten()
	c.cache.Set(endpoint, refIndex{Results: refs})
	return refs, nil
}

// GetVariants returns the alternate forms of a base entry, default form first
func (c *Client) GetVariants(ctx context.Context, name string) ([]ItemRef, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, ErrEmptyIdentifier
	}
	endpoint := c.baseURL + "/pokemon-species/" + url.PathEscape(key)

	var cached refIndex
	if c.cache.Get(endpoint, &cached) {
		return cached.Results, nil
	}

	var wire speciesResponse
	if err := c.fetcher.Get(ctx, endpoint, &wire); err != nil {
		return nil, err
	}

	refs := wire.refs()
	c.cache.Set(endpoint, refIndex{Results: refs})
	return refs, nil
}

// GetAllNames returns the full name index. A cached copy is used regardless
// of age, and concurrent callers share one fetch. The shared fetch outlives
// any single caller, so one caller giving up never fails the others.
func (c *Client) GetAllNames(ctx context.Context) ([]ItemRef, error) {
	endpoint := fmt.Sprintf("%s/pokemon?limit=%d", c.baseURL, c.namesLimit)

	var cached refIndex
	if c.cache.GetStale(endpoint, &cached) {
		return cached.Results, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, &httpclient.Error{Kind: httpclient.KindCancelled, URL: endpoint, Err: err}
	}

	ch := c.names.DoChan(endpoint, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), namesFetchTimeout)
		defer cancel()

		var page listResponse
		if err := c.fetcher.Get(fetchCtx, endpoint, &page); err != nil {
			return nil, err
		}
		c.cache.Set(endpoint, refIndex{Results: page.Results})
		return page.Results, nil
	})

	select {
	case <-ctx.Done():
		return nil, &httpclient.Error{Kind: httpclient.KindCancelled, URL: endpoint, Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			c.logger.Debug().Msg("Shared in-flight name index fetch")
		}
		return res.Val.([]ItemRef), nil
	}
}

// GetManyDetails fetches details for refs in sequential batches, running each
// batch concurrently. Failed items are logged and reported in the result but
// never abort the remaining work.
func (c *Client) GetManyDetails(ctx context.Context, refs []ItemRef) DetailBatch {
	result := DetailBatch{
		Requested: len(refs),
	}

	if len(refs) == 0 {
		return result
	}

	for start := 0; start < len(refs); start += c.detailBatchSize {
		end := min(start+c.detailBatchSize, len(refs))
		batch := refs[start:end]

		details := make([]*ItemDetail, len(batch))
		var (
			mu     sync.Mutex
			failed []DetailError
		)

		var g errgroup.Group
		g.SetLimit(c.detailBatchSize)

		for i, ref := range batch {
			g.Go(func() error {
				detail, err := c.GetDetail(ctx, ref.Name)
				if err != nil {
					if !httpclient.IsCancelled(err) {
						c.logger.Warn().
							Err(err).
							Str("item", ref.Name).
							Msg("Failed to get item details")
					}
					mu.Lock()
					failed = append(failed, DetailError{Ref: ref, Err: err})
					mu.Unlock()
					// Continue with the rest of the batch
					return nil
				}
				details[i] = &detail
				return nil
			})
		}

		_ = g.Wait()

		for _, d := range details {
			if d != nil {
				result.Items = append(result.Items, *d)
			}
		}
		result.Failed = append(result.Failed, failed...)

		if ctx.Err() != nil {
			for _, ref := range refs[end:] {
				result.Failed = append(result.Failed, DetailError{
					Ref: ref,
					Err: &httpclient.Error{Kind: httpclient.KindCancelled, Err: ctx.Err()},
				})
			}
			break
		}
	}

	return result
}

func (c *Client) detailURL(key string) string {
	return c.baseURL + "/pokemon/" + url.PathEscape(key)
}

// DetailBatch is the outcome of GetManyDetails
type DetailBatch struct {
	Requested int
	Items     []ItemDetail
	Failed    []DetailError
}

// DetailError records one item that could not be fetched
type DetailError struct {
	Ref ItemRef
	Err error
}

func (e DetailError) Error() string {
	return fmt.Sprintf("%s: %v", e.Ref.Name, e.Err)
}

func (e DetailError) Unwrap() error {
	return e.Err
}

// FailureKind returns the kind shared by every failure, or KindUnknown when
// nothing failed or the failures disagree.
func (b DetailBatch) FailureKind() httpclient.Kind {
	if len(b.Failed) == 0 {
		return httpclient.KindUnknown
	}
	kind := httpclient.KindOf(b.Failed[0].Err)
	for _, f := range b.Failed[1:] {
		if httpclient.KindOf(f.Err) != kind {
			return httpclient.KindUnknown
		}
	}
	return kind
}

// HasFailure reports whether any item failed with kind
func (b DetailBatch) HasFailure(kind httpclient.Kind) bool {
	for _, f := range b.Failed {
		if httpclient.KindOf(f.Err) == kind {
			return true
		}
	}
	return false
}

// FirstError returns the first failure, or nil
func (b DetailBatch) FirstError() error {
	if len(b.Failed) == 0 {
		return nil
	}
	return b.Failed[0].Err
}
