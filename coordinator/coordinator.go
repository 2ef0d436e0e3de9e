package coordinator

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/s0up4200/dexbrowse/catalog"
	"github.com/s0up4200/dexbrowse/connectivity"
	"github.com/s0up4200/dexbrowse/httpclient"
)

const (
	DefaultBatchSize           = 20
	DefaultDebounce            = 600 * time.Millisecond
	DefaultSuggestionLimit     = 5
	DefaultSuggestionMinLength = 2
)

// Catalog is the data access the coordinator needs.
// *catalog.Client implements it.
type Catalog interface {
	GetPage(ctx context.Context, limit, offset int) ([]catalog.ItemRef, error)
	GetDetail(ctx context.Context, idOrName string) (catalog.ItemDetail, error)
	GetByCategory(ctx context.Context, category string) ([]catalog.ItemRef, error)
	GetVariants(ctx context.Context, name string) ([]catalog.ItemRef, error)
	GetAllNames(ctx context.Context) ([]catalog.ItemRef, error)
	GetManyDetails(ctx context.Context, refs []catalog.ItemRef) catalog.DetailBatch
}

// Coordinator owns the incrementally loaded item list.
//
// Every mode change starts a new generation. Work captures the generation it
// started in and drops its result if the generation has moved on; the
// generation context also cancels any request still in flight.
type Coordinator struct {
	catalog Catalog
	oracle  connectivity.Oracle
	logger  zerolog.Logger
	aliases catalog.Aliases

	batchSize        int
	debounce         time.Duration
	suggestionLimit  int
	suggestionMinLen int
	onChange         func(State)

	mu          sync.Mutex
	gen         uint64
	genCtx      context.Context
	genCancel   context.CancelFunc
	timer       *time.Timer
	unsubscribe func()
	closed      bool

	items       []catalog.ItemDetail
	seen        map[int]struct{}
	mode        Mode
	category    string
	query       string
	offset      int
	queue       []catalog.ItemRef
	loading     bool
	offline     bool
	lastErr     *DisplayError
	exhausted   bool
	softStopped bool
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithBatchSize sets how many items one LoadMore adds
func WithBatchSize(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// WithDebounce sets the quiet period before a typed search runs
func WithDebounce(d time.Duration) Option {
	return func(c *Coordinator) {
		if d >= 0 {
			c.debounce = d
		}
	}
}

// WithAliases replaces the alias table used by search and suggestions
func WithAliases(a catalog.Aliases) Option {
	return func(c *Coordinator) {
		if a != nil {
			c.aliases = a
		}
	}
}

// WithSuggestions sets the suggestion limit and the minimum query length in runes
func WithSuggestions(limit, minLength int) Option {
	return func(c *Coordinator) {
		if limit > 0 {
			c.suggestionLimit = limit
		}
		if minLength >= 0 {
			c.suggestionMinLen = minLength
		}
	}
}

// WithOnChange registers fn to receive a snapshot after every state change.
// fn runs on the goroutine that made the change and must not block.
func WithOnChange(fn func(State)) Option {
	return func(c *Coordinator) {
		c.onChange = fn
	}
}

// New creates a Coordinator in browse mode with an empty list
func New(dal Catalog, oracle connectivity.Oracle, logger zerolog.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		catalog:          dal,
		oracle:           oracle,
		logger:           logger,
		aliases:          catalog.DefaultAliases(),
		batchSize:        DefaultBatchSize,
		debounce:         DefaultDebounce,
		suggestionLimit:  DefaultSuggestionLimit,
		suggestionMinLen: DefaultSuggestionMinLength,
		seen:             make(map[int]struct{}),
		mode:             ModeBrowse,
		gen:              1,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.genCtx, c.genCancel = context.WithCancel(context.Background())
	c.offline = c.oracleOffline()

	if n, ok := oracle.(connectivity.Notifier); ok {
		c.unsubscribe = n.Subscribe(c.setOffline)
	}

	return c
}

// State returns a snapshot of the current state
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Coordinator) snapshotLocked() State {
	s := State{
		Items:     slices.Clone(c.items),
		Mode:      c.mode,
		Category:  c.category,
		Query:     c.query,
		Offset:    c.offset,
		QueueLen:  len(c.queue),
		IsLoading: c.loading,
		IsOffline: c.offline,
		Exhausted: c.exhausted,
	}
	if c.lastErr != nil {
		e := *c.lastErr
		s.Error = &e
	}
	return s
}

// LoadMore appends the next batch. It does nothing while a load is in flight
// or once the list is exhausted. The returned error is the one surfaced in
// State.Error; soft stops and cancellations return nil.
func (c *Coordinator) LoadMore(ctx context.Context) error {
	c.mu.Lock()
	if c.closed || c.loading || c.exhausted {
		c.mu.Unlock()
		return nil
	}
	c.offline = c.oracleOffline()
	plan, ok := c.beginLoadLocked()
	c.mu.Unlock()
	c.notify()

	if !ok {
		return nil
	}
	return c.runLoad(ctx, plan)
}

// Reset returns to browse mode and loads the first page
func (c *Coordinator) Reset(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.beginGenerationLocked(ModeBrowse)
	plan, ok := c.beginLoadLocked()
	c.mu.Unlock()
	c.notify()

	if !ok {
		return nil
	}
	return c.runLoad(ctx, plan)
}

// Search enters search mode and runs the search after the debounce period.
// Each call restarts the timer, so only the last text of a burst is searched.
// Empty text returns to browse mode. ctx bounds the eventual search.
func (c *Coordinator) Search(ctx context.Context, text string) {
	term := strings.TrimSpace(text)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	if term == "" {
		if c.mode == ModeBrowse {
			c.mu.Unlock()
			return
		}
		c.beginGenerationLocked(ModeBrowse)
		plan, ok := c.beginLoadLocked()
		c.mu.Unlock()
		c.notify()
		if ok {
			go func() { _ = c.runLoad(ctx, plan) }()
		}
		return
	}

	// Retyping the active query is ignored unless its last run failed
	if c.mode == ModeSearch && c.query == term && c.lastErr == nil {
		c.mu.Unlock()
		return
	}

	c.beginGenerationLocked(ModeSearch)
	c.query = term
	c.loading = true
	gen := c.gen
	c.timer = time.AfterFunc(c.debounce, func() {
		_ = c.runSearch(ctx, gen, term)
	})
	c.mu.Unlock()
	c.notify()
}

// SearchNow is Search without the debounce timer
func (c *Coordinator) SearchNow(ctx context.Context, text string) error {
	term := strings.TrimSpace(text)
	if term == "" {
		return c.Reset(ctx)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.beginGenerationLocked(ModeSearch)
	c.query = term
	c.loading = true
	gen := c.gen
	c.mu.Unlock()
	c.notify()

	return c.runSearch(ctx, gen, term)
}

// FilterByCategory shows only items tagged with category and loads the first
// batch before returning. Selecting the active category again returns to
// browse mode.
func (c *Coordinator) FilterByCategory(ctx context.Context, category string) error {
	name := strings.ToLower(strings.TrimSpace(category))
	if name == "" {
		return c.Reset(ctx)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	if c.mode == ModeCategory && c.category == name {
		c.mu.Unlock()
		return c.Reset(ctx)
	}
	c.beginGenerationLocked(ModeCategory)
	c.category = name
	c.loading = true
	gen := c.gen
	c.mu.Unlock()
	c.notify()

	opCtx, done, ok := c.bind(ctx, gen)
	if !ok {
		return nil
	}
	defer done()

	refs, err := c.catalog.GetByCategory(opCtx, name)
	if err != nil {
		return c.fail(loadPlan{gen: gen, mode: ModeCategory}, err)
	}

	return c.enqueue(ctx, gen, refs)
}

// FetchSuggestions returns up to the suggestion limit of canonical names
// containing the alias-resolved text, prefix matches first.
func (c *Coordinator) FetchSuggestions(ctx context.Context, text string) []string {
	term := c.aliases.Resolve(text)
	if term == "" || utf8.RuneCountInString(term) < c.suggestionMinLen {
		return nil
	}

	names, err := c.catalog.GetAllNames(ctx)
	if err != nil {
		c.logger.Debug().Err(err).Str("query", term).Msg("Name index unavailable for suggestions")
		return nil
	}

	out := make([]string, 0, c.suggestionLimit)
	for _, ref := range names {
		if len(out) == c.suggestionLimit {
			return out
		}
		if strings.HasPrefix(ref.Name, term) {
			out = append(out, ref.Name)
		}
	}
	for _, ref := range names {
		if len(out) == c.suggestionLimit {
			break
		}
		if !strings.HasPrefix(ref.Name, term) && strings.Contains(ref.Name, term) {
			out = append(out, ref.Name)
		}
	}
	return out
}

// Close cancels pending work and stops listening for connectivity changes
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.gen++
	c.genCancel()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
}

// runSearch resolves term to a ref list and loads the first batch
func (c *Coordinator) runSearch(ctx context.Context, gen uint64, term string) error {
	opCtx, done, ok := c.bind(ctx, gen)
	if !ok {
		return nil
	}
	defer done()

	refs, err := c.resolve(opCtx, term)
	if err != nil {
		return c.fail(loadPlan{gen: gen, mode: ModeSearch}, err)
	}

	return c.enqueue(ctx, gen, refs)
}

// resolve turns search text into refs: alias table, then an exact name with
// its variants, then substring matches, then one direct lookup.
func (c *Coordinator) resolve(ctx context.Context, term string) ([]catalog.ItemRef, error) {
	canonical := c.aliases.Resolve(term)

	names, err := c.catalog.GetAllNames(ctx)
	if err != nil {
		if httpclient.IsCancelled(err) {
			return nil, err
		}
		c.logger.Debug().Err(err).Msg("Name index unavailable, falling back to direct lookup")
	}

	for _, ref := range names {
		if ref.Name != canonical {
			continue
		}
		variants, err := c.catalog.GetVariants(ctx, canonical)
		switch {
		case err == nil && len(variants) > 0:
			return variants, nil
		case httpclient.IsCancelled(err):
			return nil, err
		case err != nil:
			c.logger.Debug().Err(err).Str("name", canonical).Msg("No variant index, using exact match")
		}
		return []catalog.ItemRef{ref}, nil
	}

	var matches []catalog.ItemRef
	for _, ref := range names {
		if strings.Contains(ref.Name, canonical) {
			matches = append(matches, ref)
		}
	}
	if len(matches) > 0 {
		return matches, nil
	}

	detail, err := c.catalog.GetDetail(ctx, canonical)
	if err != nil {
		return nil, err
	}
	return []catalog.ItemRef{{Name: detail.Name}}, nil
}

// enqueue replaces the queue with refs and loads the first batch
func (c *Coordinator) enqueue(ctx context.Context, gen uint64, refs []catalog.ItemRef) error {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		c.logger.Debug().Uint64("generation", gen).Msg("Discarding stale result")
		return nil
	}
	c.queue = refs
	c.loading = false
	plan, ok := c.beginLoadLocked()
	c.mu.Unlock()
	c.notify()

	if !ok {
		return nil
	}
	return c.runLoad(ctx, plan)
}

// runLoad fetches the batch described by plan and applies it
func (c *Coordinator) runLoad(ctx context.Context, plan loadPlan) error {
	opCtx, done, ok := c.bind(ctx, plan.gen)
	if !ok {
		return nil
	}
	defer done()

	if plan.mode == ModeBrowse {
		refs, err := c.catalog.GetPage(opCtx, c.batchSize, plan.offset)
		if err != nil {
			return c.fail(plan, err)
		}
		if len(refs) == 0 {
			c.mu.Lock()
			if plan.gen == c.gen {
				c.loading = false
				c.exhausted = true
			}
			c.mu.Unlock()
			c.notify()
			return nil
		}
		plan.refs = refs
	}

	batch := c.catalog.GetManyDetails(opCtx, plan.refs)
	return c.apply(plan, batch)
}

// apply merges a fetched batch into the list
func (c *Coordinator) apply(plan loadPlan, batch catalog.DetailBatch) error {
	if len(batch.Items) == 0 && len(batch.Failed) > 0 {
		return c.fail(plan, batchError(batch))
	}

	c.mu.Lock()
	if plan.gen != c.gen {
		c.mu.Unlock()
		c.logger.Debug().Uint64("generation", plan.gen).Msg("Discarding stale batch")
		return nil
	}

	c.loading = false
	c.appendLocked(batch.Items)

	offlineLoss := batch.HasFailure(httpclient.KindOffline)
	interrupted := offlineLoss || batch.HasFailure(httpclient.KindCancelled)

	switch {
	case interrupted:
		// Keep unfetched refs for the next attempt. Refs that failed on their
		// own (4xx, 5xx, timeout) were already retried and are dropped.
		if plan.mode != ModeBrowse {
			retry := make([]catalog.ItemRef, 0, len(batch.Failed))
			for _, f := range batch.Failed {
				if k := httpclient.KindOf(f.Err); k == httpclient.KindOffline || k == httpclient.KindCancelled {
					retry = append(retry, f.Ref)
				}
			}
			c.queue = append(retry, c.queue...)
		}
		if offlineLoss {
			c.offline = true
			c.exhausted = true
			c.softStopped = true
		}
	case plan.mode == ModeBrowse:
		c.offset = plan.offset + c.batchSize
	case len(c.queue) == 0:
		c.exhausted = true
	}
	c.mu.Unlock()

	if len(batch.Failed) > 0 {
		c.logger.Debug().
			Int("requested", batch.Requested).
			Int("loaded", len(batch.Items)).
			Int("failed", len(batch.Failed)).
			Msg("Partial batch")
	}

	c.notify()
	return nil
}

// batchError picks the error for a batch where nothing loaded. When the
// failures disagree, an offline failure wins so the list soft-stops.
func batchError(batch catalog.DetailBatch) error {
	if batch.FailureKind() != httpclient.KindUnknown || !batch.HasFailure(httpclient.KindOffline) {
		return batch.FirstError()
	}
	for _, f := range batch.Failed {
		if httpclient.IsOffline(f.Err) {
			return f.Err
		}
	}
	return batch.FirstError()
}

// fail records a failed operation. Loaded items are never discarded.
func (c *Coordinator) fail(plan loadPlan, err error) error {
	kind := httpclient.KindOf(err)

	c.mu.Lock()
	if plan.gen != c.gen {
		c.mu.Unlock()
		c.logger.Debug().Err(err).Uint64("generation", plan.gen).Msg("Discarding stale failure")
		return nil
	}

	c.loading = false
	// Refs that may succeed later go back on the queue; 4xx refs are dropped
	if len(plan.refs) > 0 && plan.mode != ModeBrowse && (kind.Retryable() || kind == httpclient.KindOffline || kind == httpclient.KindCancelled) {
		c.queue = append(slices.Clone(plan.refs), c.queue...)
	}

	var surfaced error
	switch {
	case kind == httpclient.KindCancelled:
	case kind == httpclient.KindOffline && len(c.items) > 0:
		c.offline = true
		c.exhausted = true
		c.softStopped = true
	default:
		if kind == httpclient.KindOffline {
			c.offline = true
		}
		if d, ok := Describe(kind); ok {
			c.lastErr = &d
		}
		surfaced = err
	}
	c.mu.Unlock()

	if surfaced != nil {
		c.logger.Warn().Err(err).Str("kind", kind.String()).Msg("Load failed")
	}

	c.notify()
	return surfaced
}

// beginGenerationLocked switches mode and forgets everything from the
// previous generation.
func (c *Coordinator) beginGenerationLocked(mode Mode) {
	c.gen++
	c.genCancel()
	c.genCtx, c.genCancel = context.WithCancel(context.Background())
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}

	c.mode = mode
	c.category = ""
	c.query = ""
	c.items = nil
	c.seen = make(map[int]struct{})
	c.offset = 0
	c.queue = nil
	c.loading = false
	c.lastErr = nil
	c.exhausted = false
	c.softStopped = false
	c.offline = c.oracleOffline()
}

// beginLoadLocked marks a load in flight and captures its inputs.
// It reports false when the queue is already drained.
func (c *Coordinator) beginLoadLocked() (loadPlan, bool) {
	plan := loadPlan{gen: c.gen, mode: c.mode, offset: c.offset}

	if c.mode != ModeBrowse {
		if len(c.queue) == 0 {
			c.exhausted = true
			return plan, false
		}
		n := min(c.batchSize, len(c.queue))
		plan.refs = slices.Clone(c.queue[:n])
		c.queue = c.queue[n:]
	}

	c.loading = true
	c.lastErr = nil
	return plan, true
}

// appendLocked adds items whose id is not already listed
func (c *Coordinator) appendLocked(items []catalog.ItemDetail) {
	for _, item := range items {
		if _, dup := c.seen[item.ID]; dup {
			continue
		}
		c.seen[item.ID] = struct{}{}
		c.items = append(c.items, item)
	}
}

// bind derives a context that is cancelled with either ctx or generation gen.
// It reports false when gen is no longer current.
func (c *Coordinator) bind(ctx context.Context, gen uint64) (context.Context, func(), bool) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return nil, nil, false
	}
	genCtx := c.genCtx
	c.mu.Unlock()

	opCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(genCtx, cancel)
	return opCtx, func() {
		stop()
		cancel()
	}, true
}

// setOffline receives connectivity pushes. Coming back online lifts a soft
// stop so loading can resume.
func (c *Coordinator) setOffline(offline bool) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.offline = offline
	if !offline && c.softStopped {
		c.softStopped = false
		c.exhausted = false
	}
	c.mu.Unlock()
	c.notify()
}

func (c *Coordinator) oracleOffline() bool {
	return c.oracle != nil && c.oracle.IsOffline()
}

func (c *Coordinator) notify() {
	if c.onChange == nil {
		return
	}
	c.onChange(c.State())
}
