package storeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/storefront-catalog/pkg/errors"
)

const (
	defaultTimeout = 8 * time.Second
	maxErrorBody   = 512
)

// Client talks to the storefront's product search, product detail and cart endpoints.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client rooted at baseURL. A nil httpClient gets a default timeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    httpClient,
	}
}

// SearchProducts issues GET /api/products with the given canonical query string.
// An empty query means the upstream defaults.
func (c *Client) SearchProducts(ctx context.Context, query string) (*SearchResponse, error) {
	endpoint, err := url.JoinPath(c.baseURL, "api", "products")
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build search url")
	}
	if q := strings.TrimPrefix(strings.TrimSpace(query), "?"); q != "" {
		endpoint += "?" + q
	}

	var payload SearchResponse
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &payload); err != nil {
		return nil, err
	}
	if payload.Data == nil {
		payload.Data = []ProductSummary{}
	}
	if payload.Pagination == nil {
		payload.Pagination = &Pagination{}
	}
	return &payload, nil
}

// GetProduct issues GET /api/products/{id} and folds recommendations and reviews
// into the returned detail, defaulting both when upstream omits them.
func (c *Client) GetProduct(ctx context.Context, productID string) (*ProductDetail, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	endpoint, err := url.JoinPath(c.baseURL, "api", "products", productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build product url")
	}

	var payload detailResponse
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &payload); err != nil {
		return nil, err
	}
	if payload.Data == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "invalid product response")
	}

	detail := payload.Data
	detail.Recommendations = payload.Recommendations
	if detail.Recommendations == nil {
		detail.Recommendations = []ProductSummary{}
	}
	if payload.Reviews != nil {
		detail.Reviews = *payload.Reviews
		if detail.Reviews.Summary.Distribution == nil {
			detail.Reviews.Summary.Distribution = ReviewTemplate().Summary.Distribution
		}
		if detail.Reviews.Items == nil {
			detail.Reviews.Items = []Review{}
		}
	} else {
		detail.Reviews = ReviewTemplate()
	}
	return detail, nil
}

// AddToCart issues POST /cart/add. A response with success=false is returned
// without error; callers decide what an unacknowledged add means.
func (c *Client) AddToCart(ctx context.Context, req AddToCartRequest) (*AddToCartResponse, error) {
	if req.SkuID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku id is required")
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}
	endpoint, err := url.JoinPath(c.baseURL, "cart", "add")
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build cart url")
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart request")
	}

	var payload AddToCartResponse
	if err := c.do(ctx, http.MethodPost, endpoint, body, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte, dest any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build request")
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("%s %s", method, endpoint))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &pkgerrors.HTTPStatusError{
			Method: method,
			URL:    endpoint,
			Status: resp.StatusCode,
			Body:   drainError(resp.Body),
		}
		code := pkgerrors.CodeDependency
		if resp.StatusCode == http.StatusNotFound {
			code = pkgerrors.CodeNotFound
		}
		return pkgerrors.Wrap(code, statusErr, "upstream rejected request")
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode upstream response")
	}
	return nil
}

func drainError(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
