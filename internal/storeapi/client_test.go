package storeapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/angelmondragon/storefront-catalog/pkg/errors"
)

func TestSearchProductsForwardsQuery(t *testing.T) {
	var gotURI string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURI = r.URL.RequestURI()
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"data":[{"id":7,"name":"Linen shirt","priceRange":{"min":"200000","max":450000},"thumbnailUrl":"t.jpg","categories":[{"id":3,"name":"Shirts","slug":"shirts"},{"id":4,"name":"Linen"}]}],"pagination":{"total":1,"totalPages":1}}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client())
	resp, err := client.SearchProducts(context.Background(), "page=1&limit=9&sort=newest")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotURI != "/api/products?page=1&limit=9&sort=newest" {
		t.Fatalf("unexpected request uri %q", gotURI)
	}
	if len(resp.Data) != 1 || resp.Data[0].ID != "7" {
		t.Fatalf("unexpected items %+v", resp.Data)
	}
	if cats := resp.Data[0].Categories; len(cats) != 2 || cats[0].Slug != "shirts" || cats[0].ID != "3" || cats[1].Slug != "" {
		t.Fatalf("unexpected categories %+v", cats)
	}
	if resp.Data[0].PriceRange.Max.IntPart() != 450000 {
		t.Fatalf("unexpected max price %s", resp.Data[0].PriceRange.Max)
	}
	if resp.Pagination.TotalPages != 1 {
		t.Fatalf("unexpected pagination %+v", resp.Pagination)
	}
}

func TestSearchProductsWithoutQueryHitsBareEndpoint(t *testing.T) {
	var gotURI string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURI = r.URL.RequestURI()
		io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL+"/", srv.Client()).SearchProducts(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotURI != "/api/products" {
		t.Fatalf("unexpected request uri %q", gotURI)
	}
	if resp.Data == nil || resp.Pagination == nil {
		t.Fatalf("expected defaults for missing fields")
	}
}

func TestSearchProductsMapsUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, srv.Client()).SearchProducts(context.Background(), "")
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if dump := pkgerrors.Dump(err); dump.UpstreamStatus != http.StatusBadGateway {
		t.Fatalf("expected upstream status in dump, got %+v", dump)
	}
}

func TestGetProductDefaultsMissingBlocks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/products/42" {
			http.NotFound(w, r)
			return
		}
		io.WriteString(w, `{"data":{"id":42,"name":"Tote","skus":[{"id":"a","color":{"id":2},"price":"99000","stockQuantity":3}],"attributes":{"colors":[{"id":2,"label":"Đen"}],"sizes":[]}}}`)
	}))
	defer srv.Close()

	detail, err := NewClient(srv.URL, srv.Client()).GetProduct(context.Background(), "42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if detail.ID != "42" || len(detail.SKUs) != 1 || detail.SKUs[0].ColorID() != 2 {
		t.Fatalf("unexpected detail %+v", detail)
	}
	if detail.Recommendations == nil || len(detail.Recommendations) != 0 {
		t.Fatalf("expected empty recommendations")
	}
	if len(detail.Reviews.Summary.Distribution) != 5 {
		t.Fatalf("expected review template distribution, got %+v", detail.Reviews.Summary)
	}
}

func TestGetProductRejectsMissingData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"recommendations":[]}`)
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL, srv.Client()).GetProduct(context.Background(), "1"); !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestGetProductNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	if _, err := NewClient(srv.URL, srv.Client()).GetProduct(context.Background(), "1"); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestAddToCartPostsSku(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/cart/add" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}
		json.NewDecoder(r.Body).Decode(&got)
		io.WriteString(w, `{"success":true,"cart":{"items":1}}`)
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL, srv.Client()).AddToCart(context.Background(), AddToCartRequest{SkuID: "15"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Success || !resp.HasCart() {
		t.Fatalf("unexpected response %+v", resp)
	}
	if got["skuId"] != float64(15) || got["quantity"] != float64(1) {
		t.Fatalf("unexpected request body %v", got)
	}
}

func TestIDAcceptsNumbersAndStrings(t *testing.T) {
	var payload struct {
		A ID `json:"a"`
		B ID `json:"b"`
		C ID `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a":12,"b":" sku-9 ","c":null}`), &payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.A != "12" || payload.B != "sku-9" || payload.C != "" {
		t.Fatalf("unexpected ids %+v", payload)
	}
	out, _ := json.Marshal(struct {
		A ID `json:"a"`
		B ID `json:"b"`
	}{A: "12", B: "sku-9"})
	if string(out) != `{"a":12,"b":"sku-9"}` {
		t.Fatalf("unexpected encoding %s", out)
	}
}
