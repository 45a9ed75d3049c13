package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-catalog/api/responses"
	pkgerrors "github.com/angelmondragon/storefront-catalog/pkg/errors"
	"github.com/angelmondragon/storefront-catalog/pkg/logger"
	"github.com/angelmondragon/storefront-catalog/pkg/redis"
)

// RateLimitStore counts hits per scope inside a fixed window.
type RateLimitStore interface {
	Allow(ctx context.Context, scope string, limit int64, window time.Duration) (redis.Decision, error)
}

// CartRateLimitPolicy bounds add-to-cart attempts per client ip and per view.
type CartRateLimitPolicy struct {
	window    time.Duration
	ipLimit   int
	viewLimit int
}

// NewCartRateLimitPolicy builds a policy with the supplied window and limits.
func NewCartRateLimitPolicy(window time.Duration, ipLimit, viewLimit int) CartRateLimitPolicy {
	return CartRateLimitPolicy{
		window:    window,
		ipLimit:   ipLimit,
		viewLimit: viewLimit,
	}
}

func (p CartRateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.viewLimit > 0)
}

// CartRateLimit rejects add-to-cart calls over budget with 429. It must run
// after ViewContext so the view scope is known.
func CartRateLimit(policy CartRateLimitPolicy, store RateLimitStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if ip := clientIP(r); ip != "" && policy.ipLimit > 0 {
				if !check(ctx, w, logg, store, policy, "ip", ip, policy.ipLimit) {
					return
				}
			}
			if view := ViewFromContext(ctx); view != nil && policy.viewLimit > 0 {
				if !check(ctx, w, logg, store, policy, "view", view.ID, policy.viewLimit) {
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func check(ctx context.Context, w http.ResponseWriter, logg *logger.Logger, store RateLimitStore, policy CartRateLimitPolicy, scope, value string, limit int) bool {
	decision, err := store.Allow(ctx, "cart:"+scope+":"+value, int64(limit), policy.window)
	if err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
		return false
	}
	w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(decision.Limit, 10))
	w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(decision.Remaining(), 10))
	if !decision.Allowed {
		respondRateLimited(ctx, logg, w, scope, value, decision)
		return false
	}
	return true
}

func respondRateLimited(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, scope, value string, decision redis.Decision) {
	retryAfter := decision.RetryAfter(time.Now())
	if retryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter/time.Second)))
	}
	if logg != nil {
		logCtx := logg.WithFields(ctx, map[string]any{
			"scope":       scope,
			"subject":     value,
			"attempts":    decision.Count,
			"limit":       decision.Limit,
			"retry_after": retryAfter.String(),
		})
		logg.Warn(logCtx, "cart.rate_limit.blocked")
	}
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many add-to-cart attempts"))
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
