package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cakemap/catalog/internal/config"
	"cakemap/catalog/internal/domain"
	"cakemap/catalog/internal/metrics"

	log "github.com/sirupsen/logrus"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/ratelimit"
	"resty.dev/v3"
)

type CatalogClient interface {
	FetchShops(ctx context.Context, regions []domain.Region, page int) ([]domain.Shop, error)
	FetchShopsInBounds(ctx context.Context, box domain.BoundingBox, page int) ([]domain.Shop, error)
	FetchShop(ctx context.Context, id int64) (domain.Shop, error)
	FetchFeed(ctx context.Context, page int) ([]domain.FeedEntry, error)
}

const (
	endpointShops  = "stores"
	endpointBounds = "stores_bounds"
	endpointShop   = "store"
	endpointFeed   = "feeds"
)

// HTTPClient talks to the upstream cake shop REST API.
type HTTPClient struct {
	rl         ratelimit.Limiter
	config     config.UpstreamConfig
	baseURL    string
	timeout    time.Duration
	httpClient *resty.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
}

func NewCatalogClient(cfg config.UpstreamConfig) *HTTPClient {
	client := resty.New().
		SetTimeout(cfg.TimeoutDuration()).
		SetRetryCount(0). // retry policy belongs to the caller
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "application/json")

	rl := ratelimit.NewUnlimited()
	if cfg.MaxRequestsPerSecond > 0 {
		rl = ratelimit.New(cfg.MaxRequestsPerSecond)
	}

	return &HTTPClient{
		rl:         rl,
		config:     cfg,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		timeout:    cfg.TimeoutDuration(),
		httpClient: client,
		breaker:    newBreaker("upstream-catalog", cfg),
	}
}

func newBreaker(name string, cfg config.UpstreamConfig) *gobreaker.CircuitBreaker[[]byte] {
	maxFailures := cfg.BreakerMaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     time.Duration(cfg.BreakerCooldown) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, domain.ErrNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warnf("🔌 Circuit breaker %s: %s -> %s", name, from, to)
			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
		},
	})
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

func (c *HTTPClient) FetchShops(ctx context.Context, regions []domain.Region, page int) ([]domain.Shop, error) {
	names := make([]string, len(regions))
	for i, r := range regions {
		names[i] = r.String()
	}

	body, err := c.get(ctx, endpointShops, c.baseURL+"/stores", map[string]string{
		"districts": strings.Join(names, ","),
		"page":      strconv.Itoa(page),
	})
	if err != nil {
		return nil, err
	}

	shops, err := decodeShops(body)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(endpointShops, "decode").Inc()
		return nil, domain.NewDecodeError("fetch shops", err)
	}

	log.Debugf("Fetched %d shops for %v page %d", len(shops), names, page)
	return shops, nil
}

func (c *HTTPClient) FetchShopsInBounds(ctx context.Context, box domain.BoundingBox, page int) ([]domain.Shop, error) {
	body, err := c.get(ctx, endpointBounds, c.baseURL+"/stores/bounds", map[string]string{
		"south": formatCoord(box.South),
		"north": formatCoord(box.North),
		"west":  formatCoord(box.West),
		"east":  formatCoord(box.East),
		"page":  strconv.Itoa(page),
	})
	if err != nil {
		return nil, err
	}

	shops, err := decodeShops(body)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(endpointBounds, "decode").Inc()
		return nil, domain.NewDecodeError("fetch shops in bounds", err)
	}

	log.Debugf("Fetched %d shops inside %+v page %d", len(shops), box, page)
	return shops, nil
}

func (c *HTTPClient) FetchShop(ctx context.Context, id int64) (domain.Shop, error) {
	body, err := c.get(ctx, endpointShop, fmt.Sprintf("%s/stores/%d", c.baseURL, id), nil)
	if err != nil {
		return domain.Shop{}, err
	}

	shop, err := decodeShop(body)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(endpointShop, "decode").Inc()
		return domain.Shop{}, domain.NewDecodeError("fetch shop", err)
	}
	return shop, nil
}

func (c *HTTPClient) FetchFeed(ctx context.Context, page int) ([]domain.FeedEntry, error) {
	body, err := c.get(ctx, endpointFeed, c.baseURL+"/feeds", map[string]string{
		"page": strconv.Itoa(page),
	})
	if err != nil {
		return nil, err
	}

	entries, err := decodeFeed(body)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(endpointFeed, "decode").Inc()
		return nil, domain.NewDecodeError("fetch feed", err)
	}
	return entries, nil
}

// Close releases idle connections held by the HTTP client.
func (c *HTTPClient) Close() error {
	return c.httpClient.Close()
}

// get performs a GET through the rate limiter and circuit breaker and returns the raw body.
// Every failure is either a *domain.FetchError or wraps domain.ErrNotFound.
func (c *HTTPClient) get(ctx context.Context, endpoint, url string, params map[string]string) ([]byte, error) {
	op := "GET " + endpoint
	start := time.Now()
	defer func() {
		metrics.UpstreamLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.do(ctx, op, url, params)
	})
	if err != nil {
		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			metrics.UpstreamRequests.WithLabelValues(endpoint, "rejected").Inc()
			log.Debugf("🚫 Request to %s rejected by circuit breaker", endpoint)
			return nil, domain.NewTransientError(op, err)
		case errors.Is(err, domain.ErrNotFound):
			metrics.UpstreamRequests.WithLabelValues(endpoint, "not_found").Inc()
		default:
			metrics.UpstreamRequests.WithLabelValues(endpoint, "transient").Inc()
		}
		return nil, err
	}

	metrics.UpstreamRequests.WithLabelValues(endpoint, "success").Inc()
	return body, nil
}

func (c *HTTPClient) do(ctx context.Context, op, url string, params map[string]string) ([]byte, error) {
	c.rl.Take()

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := c.httpClient.R().SetContext(reqCtx)
	if len(params) > 0 {
		req.SetQueryParams(params)
	}

	resp, err := req.Get(url)
	if err != nil {
		if ctx.Err() != nil {
			return nil, domain.NewTransientError(op, fmt.Errorf("request cancelled: %w", ctx.Err()))
		}
		return nil, domain.NewTransientError(op, fmt.Errorf("failed to fetch URL: %w", err))
	}

	switch status := resp.StatusCode(); {
	case status == http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	case resp.IsError():
		return nil, domain.NewTransientError(op, fmt.Errorf("HTTP error: %d %s", status, resp.Status()))
	}

	return []byte(resp.String()), nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
