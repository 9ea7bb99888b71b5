package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang-stock-scorer/internal/config"
	"golang-stock-scorer/internal/dto"
	"golang-stock-scorer/pkg/logger"
	"golang-stock-scorer/pkg/retry"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

const browserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:142.0) Gecko/20100101 Firefox/142.0"

// ScreenerRepository fetches the per-stock financial detail payload.
type ScreenerRepository interface {
	GetStockDetail(ctx context.Context, code string) (*dto.StockDetail, error)
}

type screenerRepository struct {
	cfg            *config.Config
	log            *logger.Logger
	httpClient     *http.Client
	redisClient    *redis.Client
	requestLimiter *rate.Limiter
	policy         retry.Policy
}

// NewScreenerRepository creates a rate-limited ScreenerRepository. The Redis
// client is optional; when present, raw payloads are cached for the
// configured TTL so repeated refreshes within the freshness window do not
// rehit the remote.
func NewScreenerRepository(cfg *config.Config, log *logger.Logger, redisClient *redis.Client) ScreenerRepository {
	secondsPerRequest := time.Minute / time.Duration(cfg.Screener.MaxRequestPerMinute)
	return &screenerRepository{
		cfg: cfg,
		log: log,
		httpClient: &http.Client{
			Timeout: cfg.Screener.Timeout,
		},
		redisClient:    redisClient,
		requestLimiter: rate.NewLimiter(rate.Every(secondsPerRequest), 1),
		policy: retry.Policy{
			MaxAttempts:     cfg.Screener.MaxRetries,
			InitialInterval: cfg.Screener.RetryInterval,
		},
	}
}

// GetStockDetail fetches the detail payload for one code with retry.
// Connection failures, non-2xx statuses and malformed bodies are retried;
// a 403 means the source refuses automated access and is terminal.
func (r *screenerRepository) GetStockDetail(ctx context.Context, code string) (*dto.StockDetail, error) {
	if cached := r.cacheGet(ctx, code); cached != nil {
		return cached, nil
	}

	var body []byte
	err := r.policy.Do(ctx, func(ctx context.Context) error {
		var fetchErr error
		body, fetchErr = r.fetch(ctx, code)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}

	var detail dto.StockDetail
	if err := json.Unmarshal(body, &detail); err != nil {
		return nil, &dto.ParseError{Err: err}
	}

	r.cacheSet(ctx, code, body)
	return &detail, nil
}

func (r *screenerRepository) fetch(ctx context.Context, code string) ([]byte, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, retry.Permanent(err)
	}

	url := fmt.Sprintf("%s/v2/stocks/view/%s/all.json", r.cfg.Screener.BaseURL, code)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, retry.Permanent(err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("detail request for %s failed: %w", code, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return nil, retry.Permanent(dto.ErrBlocked)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &dto.HTTPStatusError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read detail response for %s: %w", code, err)
	}

	// Validate the body inside the retry loop so a truncated or HTML error
	// page gets another attempt.
	if !json.Valid(body) {
		return nil, &dto.ParseError{Err: fmt.Errorf("invalid json body for %s", code)}
	}
	return body, nil
}

func (r *screenerRepository) cacheKey(code string) string {
	return "screener:detail:" + code
}

func (r *screenerRepository) cacheGet(ctx context.Context, code string) *dto.StockDetail {
	if r.redisClient == nil {
		return nil
	}
	raw, err := r.redisClient.Get(ctx, r.cacheKey(code)).Bytes()
	if err != nil {
		return nil
	}
	var detail dto.StockDetail
	if err := json.Unmarshal(raw, &detail); err != nil {
		return nil
	}
	return &detail
}

func (r *screenerRepository) cacheSet(ctx context.Context, code string, body []byte) {
	if r.redisClient == nil {
		return
	}
	if err := r.redisClient.Set(ctx, r.cacheKey(code), body, r.cfg.Screener.CacheTTL).Err(); err != nil {
		r.log.Warn("Failed to cache detail payload", logger.StringField("code", code), logger.ErrorField(err))
	}
}
