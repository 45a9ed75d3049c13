package routes

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-catalog/api/controllers"
	"github.com/angelmondragon/storefront-catalog/internal/storeapi"
	"github.com/angelmondragon/storefront-catalog/internal/views"
	"github.com/angelmondragon/storefront-catalog/pkg/config"
	"github.com/angelmondragon/storefront-catalog/pkg/i18n"
	"github.com/angelmondragon/storefront-catalog/pkg/metrics"
	"github.com/angelmondragon/storefront-catalog/pkg/notify"
	"github.com/angelmondragon/storefront-catalog/pkg/redis"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

type stubUpstream struct {
	mu      sync.Mutex
	queries []string
	carts   []storeapi.AddToCartRequest
}

func (s *stubUpstream) SearchProducts(_ context.Context, query string) (*storeapi.SearchResponse, error) {
	s.mu.Lock()
	s.queries = append(s.queries, query)
	s.mu.Unlock()
	return &storeapi.SearchResponse{
		Data:       []storeapi.ProductSummary{{ID: "1", Name: "Mug"}},
		Pagination: &storeapi.Pagination{Total: 20, TotalPages: 3},
	}, nil
}

func (s *stubUpstream) GetProduct(_ context.Context, id string) (*storeapi.ProductDetail, error) {
	if id == "missing" {
		return nil, errors.New("upstream 404")
	}
	return &storeapi.ProductDetail{
		ProductSummary: storeapi.ProductSummary{ID: storeapi.ID(id), Name: "Mug"},
		SKUs:           []storeapi.Sku{{ID: "sku-1", Price: decimal.NewFromInt(50000), StockQuantity: 3}},
		Galleries:      []string{"front.jpg", "back.jpg"},
	}, nil
}

func (s *stubUpstream) AddToCart(_ context.Context, req storeapi.AddToCartRequest) (*storeapi.AddToCartResponse, error) {
	s.mu.Lock()
	s.carts = append(s.carts, req)
	s.mu.Unlock()
	return &storeapi.AddToCartResponse{Success: true, Cart: json.RawMessage(`{"items":1}`)}, nil
}

type countingStore struct {
	mu     sync.Mutex
	counts map[string]int64
}

func (c *countingStore) Allow(_ context.Context, scope string, limit int64, window time.Duration) (redis.Decision, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[scope]++
	return redis.Decision{
		Allowed: c.counts[scope] <= limit,
		Count:   c.counts[scope],
		Limit:   limit,
		ResetAt: time.Now().Add(window),
	}, nil
}

type harness struct {
	handler  http.Handler
	upstream *stubUpstream
	bus      *notify.MemoryBus
	registry *views.Registry
}

func newHarness(t *testing.T, pingers map[string]controllers.Pinger) *harness {
	t.Helper()
	cfg := &config.Config{
		App:       config.AppConfig{Env: "test"},
		CartLimit: config.CartRateLimitConfig{Window: time.Minute, IPLimit: 100, ViewLimit: 2},
	}
	reg := prometheus.NewRegistry()
	upstream := &stubUpstream{}
	bus := notify.NewMemoryBus()
	m := metrics.NewStorefrontMetrics(reg)
	registry := views.NewRegistry(views.RegistryParams{
		Builder: views.Builder{
			Upstream:    upstream,
			Bus:         bus,
			Messages:    i18n.For("vi"),
			Metrics:     m,
			ListingPath: "/products",
		},
		Metrics: m,
	})
	t.Cleanup(func() { _ = registry.Shutdown() })

	handler := NewRouter(cfg, nil, Deps{
		Registry:    registry,
		RateLimiter: &countingStore{counts: map[string]int64{}},
		Pingers:     pingers,
		Gatherer:    reg,
		Events:      bus,
	})
	return &harness{handler: handler, upstream: upstream, bus: bus, registry: registry}
}

func (h *harness) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func (h *harness) createView(t *testing.T) string {
	t.Helper()
	rec := h.do(t, http.MethodPost, "/api/v1/views", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	var envelope struct {
		Data struct {
			ViewID string `json:"viewId"`
		} `json:"data"`
	}
	decode(t, rec, &envelope)
	if envelope.Data.ViewID == "" {
		t.Fatal("expected a view id")
	}
	return envelope.Data.ViewID
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(dest); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHealthLive(t *testing.T) {
	h := newHarness(t, nil)
	rec := h.do(t, http.MethodGet, "/health/live", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if rec.Header().Get("X-Storefront-Env") != "test" {
		t.Fatalf("missing env header")
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("missing request id")
	}
}

func TestHealthReadyReportsFailingDependency(t *testing.T) {
	h := newHarness(t, map[string]controllers.Pinger{
		"redis":  stubPinger{},
		"pubsub": stubPinger{err: errors.New("topic missing")},
	})
	rec := h.do(t, http.MethodGet, "/health/ready", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", rec.Code)
	}
}

func TestFacetsAndMetrics(t *testing.T) {
	h := newHarness(t, nil)
	rec := h.do(t, http.MethodGet, "/api/v1/facets", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var envelope struct {
		Data struct {
			Colors []json.RawMessage `json:"colors"`
			Sizes  []json.RawMessage `json:"sizes"`
		} `json:"data"`
	}
	decode(t, rec, &envelope)
	if len(envelope.Data.Colors) != 10 || len(envelope.Data.Sizes) != 5 {
		t.Fatalf("unexpected facets %d colors %d sizes", len(envelope.Data.Colors), len(envelope.Data.Sizes))
	}

	h.createView(t)
	rec = h.do(t, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("storefront_active_views")) {
		t.Fatalf("expected storefront metrics, got %s", rec.Body.String())
	}
}

func TestListingFlow(t *testing.T) {
	h := newHarness(t, nil)
	id := h.createView(t)
	base := "/api/v1/views/" + id + "/listing"

	rec := h.do(t, http.MethodPost, base+"/hydrate", map[string]string{"query": "categories=2,1&page=2"})
	if rec.Code != http.StatusOK {
		t.Fatalf("hydrate: expected 200 got %d: %s", rec.Code, rec.Body.String())
	}

	rec = h.do(t, http.MethodPost, base+"/sort", map[string]string{"sort": "price_asc"})
	if rec.Code != http.StatusOK {
		t.Fatalf("sort: expected 200 got %d", rec.Code)
	}

	rec = h.do(t, http.MethodGet, base, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: expected 200 got %d", rec.Code)
	}
	var envelope struct {
		Data struct {
			Location string `json:"location"`
			Page     int    `json:"page"`
			Phase    string `json:"phase"`
		} `json:"data"`
	}
	decode(t, rec, &envelope)
	want := "/products?page=1&limit=9&sort=price_asc&categories=1%2C2"
	if envelope.Data.Location != want {
		t.Fatalf("expected location %q got %q", want, envelope.Data.Location)
	}
	if envelope.Data.Page != 1 {
		t.Fatalf("sort change should reset the page, got %d", envelope.Data.Page)
	}
	if len(h.upstream.queries) != 2 {
		t.Fatalf("expected two searches, got %v", h.upstream.queries)
	}
}

func TestListingRejectsInvalidInput(t *testing.T) {
	h := newHarness(t, nil)
	id := h.createView(t)
	base := "/api/v1/views/" + id + "/listing"

	if rec := h.do(t, http.MethodPost, base+"/sort", map[string]string{"sort": "popular"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown sort got %d", rec.Code)
	}
	if rec := h.do(t, http.MethodPost, base+"/categories", map[string]string{"id": "1,2"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for comma id got %d", rec.Code)
	}
	if rec := h.do(t, http.MethodPost, base+"/page", map[string]any{"page": 2, "direction": "next"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for ambiguous page got %d", rec.Code)
	}
	if rec := h.do(t, http.MethodPost, base+"/clear", nil); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 before hydration got %d", rec.Code)
	}
}

func TestListingAcceptsLongPriceInput(t *testing.T) {
	h := newHarness(t, nil)
	id := h.createView(t)
	base := "/api/v1/views/" + id + "/listing"
	if rec := h.do(t, http.MethodPost, base+"/hydrate", map[string]string{"query": ""}); rec.Code != http.StatusOK {
		t.Fatalf("hydrate: expected 200 got %d", rec.Code)
	}

	long := "1234567890123456"
	rec := h.do(t, http.MethodPost, base+"/price", map[string]string{"field": "minPrice", "value": long})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for a 16 digit price got %d: %s", rec.Code, rec.Body.String())
	}
	var envelope struct {
		Data struct {
			Location string `json:"location"`
		} `json:"data"`
	}
	decode(t, rec, &envelope)
	if !strings.Contains(envelope.Data.Location, "minPrice="+long) {
		t.Fatalf("expected the typed bound in the location, got %q", envelope.Data.Location)
	}

	rec = h.do(t, http.MethodPost, base+"/price", map[string]string{"field": "minPrice", "value": long + "x"})
	if rec.Code != http.StatusOK {
		t.Fatalf("non digit input should be ignored, got %d", rec.Code)
	}
}

func TestUnknownViewIsNotFound(t *testing.T) {
	h := newHarness(t, nil)
	rec := h.do(t, http.MethodGet, "/api/v1/views/nope/listing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}

func TestDeleteViewClosesIt(t *testing.T) {
	h := newHarness(t, nil)
	id := h.createView(t)

	if rec := h.do(t, http.MethodDelete, "/api/v1/views/"+id, nil); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := h.do(t, http.MethodGet, "/api/v1/views/"+id+"/detail", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after close got %d", rec.Code)
	}
}

func TestDetailAddToCartPublishesAndIsRateLimited(t *testing.T) {
	h := newHarness(t, nil)
	id := h.createView(t)
	base := "/api/v1/views/" + id + "/detail"

	events, cancel := h.bus.Subscribe(id)
	defer cancel()

	rec := h.do(t, http.MethodPost, base, map[string]string{"productId": "42"})
	if rec.Code != http.StatusOK {
		t.Fatalf("open: expected 200 got %d: %s", rec.Code, rec.Body.String())
	}

	rec = h.do(t, http.MethodPost, base+"/cart", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("cart: expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	var envelope struct {
		Data struct {
			Feedback struct {
				Phase string `json:"phase"`
			} `json:"feedback"`
			Cart          json.RawMessage `json:"cart"`
			Notifications []notify.Event  `json:"notifications"`
		} `json:"data"`
	}
	decode(t, rec, &envelope)
	if envelope.Data.Feedback.Phase != "success" {
		t.Fatalf("expected success feedback got %q", envelope.Data.Feedback.Phase)
	}
	if string(envelope.Data.Cart) != `{"items":1}` {
		t.Fatalf("expected the cart snapshot in the response, got %s", envelope.Data.Cart)
	}
	if n := envelope.Data.Notifications; len(n) != 2 || n[0].Type.String() != "cart.updated" || n[1].Type.String() != "cart.opened" {
		t.Fatalf("expected both notifications in the response, got %+v", n)
	}
	if len(h.upstream.carts) != 1 || h.upstream.carts[0].SkuID != "sku-1" || h.upstream.carts[0].Quantity != 1 {
		t.Fatalf("unexpected cart calls %+v", h.upstream.carts)
	}
	first := <-events
	second := <-events
	if first.Type.String() != "cart.updated" || second.Type.String() != "cart.opened" {
		t.Fatalf("unexpected event order %s, %s", first.Type, second.Type)
	}

	h.do(t, http.MethodPost, base+"/cart", nil)
	rec = h.do(t, http.MethodPost, base+"/cart", nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on the third attempt got %d", rec.Code)
	}
}

func TestDetailSelectImageFromGallery(t *testing.T) {
	h := newHarness(t, nil)
	id := h.createView(t)
	base := "/api/v1/views/" + id + "/detail"
	if rec := h.do(t, http.MethodPost, base, map[string]string{"productId": "42"}); rec.Code != http.StatusOK {
		t.Fatalf("open: expected 200 got %d", rec.Code)
	}

	type selection struct {
		Data struct {
			ActiveImage string `json:"activeImage"`
			Changed     bool   `json:"changed"`
		} `json:"data"`
	}
	rec := h.do(t, http.MethodPost, base+"/image", map[string]string{"url": "back.jpg"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	var picked selection
	decode(t, rec, &picked)
	if !picked.Data.Changed || picked.Data.ActiveImage != "back.jpg" {
		t.Fatalf("expected back.jpg to become active, got %+v", picked.Data)
	}

	rec = h.do(t, http.MethodPost, base+"/image", map[string]string{"url": "https://elsewhere/x.jpg"})
	var foreign selection
	decode(t, rec, &foreign)
	if foreign.Data.Changed || foreign.Data.ActiveImage != "back.jpg" {
		t.Fatalf("foreign image must be ignored, got %+v", foreign.Data)
	}

	if rec := h.do(t, http.MethodPost, base+"/image", map[string]string{}); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a missing url got %d", rec.Code)
	}
}

func TestDetailLoadFailureShowsToast(t *testing.T) {
	h := newHarness(t, nil)
	id := h.createView(t)
	base := "/api/v1/views/" + id + "/detail"

	rec := h.do(t, http.MethodPost, base, map[string]string{"productId": "missing"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected toast to render with 200 got %d", rec.Code)
	}
	var envelope struct {
		Data struct {
			Error string `json:"error"`
		} `json:"data"`
	}
	decode(t, rec, &envelope)
	if envelope.Data.Error == "" {
		t.Fatal("expected an error toast")
	}

	rec = h.do(t, http.MethodPost, base+"/error/dismiss", nil)
	envelope.Data.Error = ""
	decode(t, rec, &envelope)
	if envelope.Data.Error != "" {
		t.Fatalf("expected toast dismissed, got %q", envelope.Data.Error)
	}
}

func TestDetailSelectionWithoutProduct(t *testing.T) {
	h := newHarness(t, nil)
	id := h.createView(t)
	rec := h.do(t, http.MethodPost, "/api/v1/views/"+id+"/detail/color", map[string]int{"colorId": 1})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", rec.Code)
	}
}

func TestViewEventsStreamsCartNotifications(t *testing.T) {
	h := newHarness(t, nil)
	id := h.createView(t)
	srv := httptest.NewServer(h.handler)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/views/"+id+"/events", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "text/event-stream" {
		t.Fatalf("unexpected stream response %d %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}

	base := "/api/v1/views/" + id + "/detail"
	if rec := h.do(t, http.MethodPost, base, map[string]string{"productId": "42"}); rec.Code != http.StatusOK {
		t.Fatalf("open: expected 200 got %d", rec.Code)
	}
	if rec := h.do(t, http.MethodPost, base+"/cart", nil); rec.Code != http.StatusOK {
		t.Fatalf("cart: expected 200 got %d", rec.Code)
	}

	var names []string
	var firstData notify.Event
	scanner := bufio.NewScanner(resp.Body)
	for len(names) < 2 && scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			names = append(names, strings.TrimPrefix(line, "event: "))
		case strings.HasPrefix(line, "data: ") && len(names) == 1:
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &firstData); err != nil {
				t.Fatalf("decode event data: %v", err)
			}
		}
	}
	if len(names) != 2 || names[0] != "cart.updated" || names[1] != "cart.opened" {
		t.Fatalf("unexpected stream events %v (scan err %v)", names, scanner.Err())
	}
	if firstData.ViewID != id || string(firstData.Data) != `{"items":1}` {
		t.Fatalf("unexpected cart.updated payload %+v", firstData)
	}
}

func TestViewEventsWithoutSubscriber(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}
	registry := views.NewRegistry(views.RegistryParams{
		Builder: views.Builder{Upstream: &stubUpstream{}, ListingPath: "/products"},
	})
	t.Cleanup(func() { _ = registry.Shutdown() })
	handler := NewRouter(cfg, nil, Deps{Registry: registry, Gatherer: prometheus.NewRegistry()})
	view, err := registry.Create()
	if err != nil {
		t.Fatalf("create view: %v", err)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/views/"+view.ID+"/events", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", rec.Code)
	}
}
