package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/angelmondragon/storefront-catalog/internal/storeapi"
	"github.com/angelmondragon/storefront-catalog/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-catalog/pkg/errors"
	"github.com/angelmondragon/storefront-catalog/pkg/i18n"
	"github.com/angelmondragon/storefront-catalog/pkg/logger"
	"github.com/angelmondragon/storefront-catalog/pkg/metrics"
)

// ErrSuperseded is returned to callers whose response arrived after a newer
// request was issued; the response was discarded.
var ErrSuperseded = pkgerrors.New(pkgerrors.CodeSuperseded, "catalog query superseded")

// Searcher performs one product search for a canonical query string.
type Searcher interface {
	SearchProducts(ctx context.Context, query string) (*storeapi.SearchResponse, error)
}

// Result is one successful search.
type Result struct {
	Items      []storeapi.ProductSummary `json:"items"`
	Pagination storeapi.Pagination       `json:"pagination"`
}

// ListingState is what the listing renders.
type ListingState struct {
	Phase      enums.ListingPhase        `json:"phase"`
	Query      string                    `json:"query"`
	Items      []storeapi.ProductSummary `json:"items"`
	Pagination storeapi.Pagination       `json:"pagination"`
	Message    string                    `json:"message,omitempty"`
	Retryable  bool                      `json:"retryable,omitempty"`
}

// Loading reports whether a request is in flight.
func (s ListingState) Loading() bool {
	return s.Phase == enums.ListingLoading
}

// Executor runs catalog searches for one listing and applies responses in
// issue order: only the response to the latest request lands.
type Executor struct {
	searcher Searcher
	messages *i18n.Catalog
	logg     *logger.Logger
	metrics  *metrics.StorefrontMetrics

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
	state  ListingState
	closed bool
}

// ExecutorParams wires an Executor.
type ExecutorParams struct {
	Searcher Searcher
	Messages *i18n.Catalog
	Logger   *logger.Logger
	Metrics  *metrics.StorefrontMetrics
}

// NewExecutor builds an idle executor.
func NewExecutor(p ExecutorParams) *Executor {
	if p.Messages == nil {
		p.Messages = i18n.For("")
	}
	if p.Logger == nil {
		p.Logger = logger.Nop()
	}
	return &Executor{
		searcher: p.Searcher,
		messages: p.Messages,
		logg:     p.Logger,
		metrics:  p.Metrics,
		state:    ListingState{Phase: enums.ListingIdle, Items: []storeapi.ProductSummary{}},
	}
}

// State returns a copy of the current listing state.
func (e *Executor) State() ListingState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Pending is a search that has been issued but not awaited.
type Pending struct {
	ticket uint64
	query  string
	ctx    context.Context
	ok     bool
}

// Run issues a search for query and blocks until it resolves. Issuing a new
// request cancels the previous one; a response whose request is no longer the
// latest is discarded and ErrSuperseded is returned.
func (e *Executor) Run(ctx context.Context, query string) (ListingState, error) {
	return e.Await(ctx, e.Issue(ctx, query))
}

// Issue takes the sequence tag for query and cancels the previous request
// without waiting for the search. Callers that order requests under their own
// lock call Issue while holding it.
func (e *Executor) Issue(ctx context.Context, query string) Pending {
	ticket, reqCtx, ok := e.begin(ctx, query)
	return Pending{ticket: ticket, query: query, ctx: reqCtx, ok: ok}
}

// Await performs the issued search and applies its response when p is still
// the latest request.
func (e *Executor) Await(ctx context.Context, p Pending) (ListingState, error) {
	if !p.ok {
		return e.State(), ErrSuperseded
	}
	start := time.Now()
	resp, err := e.searcher.SearchProducts(p.ctx, p.query)
	return e.finish(ctx, p.ticket, p.query, resp, err, time.Since(start))
}

// Close invalidates every pending request; nothing lands after it returns.
func (e *Executor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	e.seq++
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
}

func (e *Executor) begin(ctx context.Context, query string) (uint64, context.Context, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return 0, nil, false
	}
	if e.cancel != nil {
		e.cancel()
	}
	reqCtx, cancel := context.WithCancel(ctx)
	e.seq++
	e.cancel = cancel
	e.state.Phase = enums.ListingLoading
	e.state.Query = query
	e.state.Message = ""
	return e.seq, reqCtx, true
}

func (e *Executor) finish(ctx context.Context, ticket uint64, query string, resp *storeapi.SearchResponse, err error, took time.Duration) (ListingState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if ticket != e.seq {
		e.metrics.ObserveQuery(metrics.OutcomeSuperseded, took)
		e.logg.Debug(e.logg.WithField(ctx, "query", query), "catalog.query.superseded")
		return e.snapshotLocked(), ErrSuperseded
	}
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}

	if err != nil {
		e.metrics.ObserveQuery(metrics.OutcomeFailure, took)
		e.logg.Error(e.logg.WithField(ctx, "query", query), "catalog.query.failed", err)
		e.state = ListingState{
			Phase:     enums.ListingError,
			Query:     query,
			Items:     []storeapi.ProductSummary{},
			Message:   e.messages.Text(i18n.CatalogLoadFailed),
			Retryable: pkgerrors.Retryable(err),
		}
		return e.snapshotLocked(), err
	}

	items := resp.Data
	if items == nil {
		items = []storeapi.ProductSummary{}
	}
	var pagination storeapi.Pagination
	if resp.Pagination != nil {
		pagination = *resp.Pagination
	}
	phase := enums.ListingReady
	outcome := metrics.OutcomeSuccess
	if len(items) == 0 {
		phase = enums.ListingEmpty
		outcome = metrics.OutcomeEmpty
	}
	e.metrics.ObserveQuery(outcome, took)
	e.state = ListingState{
		Phase:      phase,
		Query:      query,
		Items:      items,
		Pagination: pagination,
	}
	return e.snapshotLocked(), nil
}

func (e *Executor) snapshotLocked() ListingState {
	out := e.state
	out.Items = append([]storeapi.ProductSummary(nil), e.state.Items...)
	if out.Items == nil {
		out.Items = []storeapi.ProductSummary{}
	}
	return out
}

// Result returns the last successful result, or false when the listing is not
// showing one.
func (s ListingState) Result() (Result, bool) {
	if s.Phase != enums.ListingReady && s.Phase != enums.ListingEmpty {
		return Result{}, false
	}
	return Result{Items: s.Items, Pagination: s.Pagination}, true
}
