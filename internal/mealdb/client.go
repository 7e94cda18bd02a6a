package mealdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	perrors "github.com/Aman-CERP/pantry/internal/errors"
	"github.com/Aman-CERP/pantry/internal/recipe"
)

// Default client settings.
const (
	DefaultBaseURL            = "https://www.themealdb.com/api/json/v1/1"
	DefaultTimeout            = 10 * time.Second
	DefaultPoolSize           = 8
	DefaultCircuitMaxFailures = 5
	DefaultCircuitReset       = 30 * time.Second

	// maxErrorBody caps how much of a failed response is kept for diagnostics.
	maxErrorBody = 512
)

// Config configures the HTTP client.
type Config struct {
	BaseURL            string
	Timeout            time.Duration
	PoolSize           int
	Retry              perrors.RetryConfig
	CircuitMaxFailures int
	CircuitReset       time.Duration
	Logger             *slog.Logger
}

// Client talks to a TheMealDB-compatible recipe catalogue over HTTP.
type Client struct {
	baseURL   string
	client    *http.Client
	transport *http.Transport
	retry     perrors.RetryConfig
	breaker   *perrors.Breaker
	log       *slog.Logger
}

var _ recipe.Catalog = (*Client)(nil)

// New creates a client. Zero-valued config fields take defaults.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = DefaultPoolSize
	}
	if cfg.CircuitMaxFailures <= 0 {
		cfg.CircuitMaxFailures = DefaultCircuitMaxFailures
	}
	if cfg.CircuitReset <= 0 {
		cfg.CircuitReset = DefaultCircuitReset
	}
	if cfg.Retry.Multiplier == 0 {
		cfg.Retry = perrors.DefaultRetryConfig()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	transport := &http.Transport{
		MaxIdleConns:        cfg.PoolSize,
		MaxIdleConnsPerHost: cfg.PoolSize,
		IdleConnTimeout:     30 * time.Second,
	}

	return &Client{
		baseURL:   cfg.BaseURL,
		client:    &http.Client{Transport: transport, Timeout: cfg.Timeout},
		transport: transport,
		retry:     cfg.Retry,
		breaker: perrors.NewBreaker(
			perrors.WithThreshold(cfg.CircuitMaxFailures),
			perrors.WithCooldown(cfg.CircuitReset),
			perrors.WithFailureFilter(upstreamFault),
		),
		log: cfg.Logger.With("adapter", "mealdb"),
	}
}

// FilterByIngredient implements recipe.Index.
func (c *Client) FilterByIngredient(ctx context.Context, term string) ([]recipe.Summary, error) {
	meals, err := c.meals(ctx, "filter.php", url.Values{"i": {term}})
	if err != nil {
		return nil, err
	}
	return summaries(meals), nil
}

// LookupByID implements recipe.Index. Returns nil, nil for an unknown id.
func (c *Client) LookupByID(ctx context.Context, id string) (*recipe.Detail, error) {
	meals, err := c.meals(ctx, "lookup.php", url.Values{"i": {id}})
	if err != nil {
		return nil, err
	}
	return first(meals), nil
}

// Random implements recipe.Index.
func (c *Client) Random(ctx context.Context) (*recipe.Detail, error) {
	meals, err := c.meals(ctx, "random.php", nil)
	if err != nil {
		return nil, err
	}
	return first(meals), nil
}

// SearchByName implements recipe.Catalog.
func (c *Client) SearchByName(ctx context.Context, name string) ([]*recipe.Detail, error) {
	meals, err := c.meals(ctx, "search.php", url.Values{"s": {name}})
	if err != nil {
		return nil, err
	}
	out := make([]*recipe.Detail, 0, len(meals))
	for _, m := range meals {
		out = append(out, m.detail())
	}
	return out, nil
}

// FilterByCategory implements recipe.Catalog.
func (c *Client) FilterByCategory(ctx context.Context, category string) ([]recipe.Summary, error) {
	meals, err := c.meals(ctx, "filter.php", url.Values{"c": {category}})
	if err != nil {
		return nil, err
	}
	return summaries(meals), nil
}

// Categories implements recipe.Catalog.
func (c *Client) Categories(ctx context.Context) ([]recipe.Category, error) {
	var resp categoriesResponse
	if err := c.get(ctx, "categories.php", nil, &resp); err != nil {
		return nil, err
	}
	out := make([]recipe.Category, 0, len(resp.Categories))
	for _, rc := range resp.Categories {
		out = append(out, rc.category())
	}
	return out, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.transport.CloseIdleConnections()
	return nil
}

// BreakerState reports the circuit breaker state, for diagnostics.
func (c *Client) BreakerState() perrors.State {
	return c.breaker.State()
}

func (c *Client) meals(ctx context.Context, endpoint string, query url.Values) ([]rawMeal, error) {
	var resp mealsResponse
	if err := c.get(ctx, endpoint, query, &resp); err != nil {
		return nil, err
	}
	return resp.Meals, nil
}

// get performs one logical request, retried on transport failures. Each
// attempt passes through the breaker, which only counts upstreamFault errors.
func (c *Client) get(ctx context.Context, endpoint string, query url.Values, out any) error {
	reqURL := c.baseURL + "/" + endpoint
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	start := time.Now()
	body, err := perrors.RetryWithResult(ctx, c.retry, func() ([]byte, error) {
		return perrors.Guard(ctx, c.breaker, func(ctx context.Context) ([]byte, error) {
			return c.do(ctx, reqURL)
		})
	})
	if err != nil {
		c.log.WarnContext(ctx, "mealdb_request_failed",
			slog.String("endpoint", endpoint),
			slog.String("query", query.Encode()),
			slog.String("error", err.Error()))
		if perrors.GetCode(err) == "" {
			// context cancellation and similar
			return perrors.TransportError(fmt.Sprintf("%s request failed", endpoint), err)
		}
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return perrors.New(perrors.ErrCodeDecodeFailed,
			fmt.Sprintf("decode %s response", endpoint), err)
	}

	c.log.DebugContext(ctx, "mealdb_request",
		slog.String("endpoint", endpoint),
		slog.String("query", query.Encode()),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}

func (c *Client) do(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, perrors.New(perrors.ErrCodeInternal, "create request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, perrors.TransportError("recipe index unreachable", err).
			WithSuggestion("Check your connection or set index.base_url")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, perrors.StatusError(resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, perrors.TransportError("read response body", err)
	}
	return body, nil
}

// upstreamFault reports whether err says the index itself is unhealthy:
// unreachable, 5xx or throttling. A 4xx or an undecodable body is about
// this one request and must not stop unrelated searches.
func upstreamFault(err error) bool {
	return perrors.IsRetryable(err)
}

func summaries(meals []rawMeal) []recipe.Summary {
	out := make([]recipe.Summary, 0, len(meals))
	for _, m := range meals {
		out = append(out, m.summary())
	}
	return out
}

func first(meals []rawMeal) *recipe.Detail {
	if len(meals) == 0 {
		return nil
	}
	return meals[0].detail()
}
