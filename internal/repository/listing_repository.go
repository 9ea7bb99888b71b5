package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang-stock-scorer/internal/config"
	"golang-stock-scorer/internal/dto"
	"golang-stock-scorer/pkg/logger"
	"golang-stock-scorer/pkg/retry"

	"github.com/PuerkitoBio/goquery"
	"github.com/patrickmn/go-cache"
)

// ListingRepository discovers the universe of tradable codes.
type ListingRepository interface {
	GetAllCodes(ctx context.Context) ([]dto.ListedStock, error)
}

const directoryCacheKey = "listing:directory"

// Suffixes that mark warrant-like tickers rather than common equity.
var warrantSuffixes = []string{"WA", "WB", "WC", "WD", "WE", "WR", "LA", "LB", "CW"}

type listingRepository struct {
	cfg        *config.Config
	log        *logger.Logger
	httpClient *http.Client
	memCache   *cache.Cache
	policy     retry.Policy
}

// NewListingRepository creates a ListingRepository backed by the datatables
// listing endpoint, with an in-memory cache over the full directory.
func NewListingRepository(cfg *config.Config, log *logger.Logger) ListingRepository {
	return &listingRepository{
		cfg: cfg,
		log: log,
		httpClient: &http.Client{
			Timeout: cfg.Listing.Timeout,
		},
		memCache: cache.New(cfg.Listing.DirectoryTTL, 2*cfg.Listing.DirectoryTTL),
		policy: retry.Policy{
			MaxAttempts:     cfg.Listing.MaxRetries,
			InitialInterval: cfg.Listing.RetryInterval,
		},
	}
}

// GetAllCodes pages through the listing source and returns the deduplicated
// set of (code, name) pairs. A page that fails all its attempts terminates
// pagination; whatever was collected so far is returned rather than discarded.
func (r *listingRepository) GetAllCodes(ctx context.Context) ([]dto.ListedStock, error) {
	if cached, found := r.memCache.Get(directoryCacheKey); found {
		return cached.([]dto.ListedStock), nil
	}

	seen := make(map[dto.ListedStock]struct{})
	var result []dto.ListedStock

	page := 0
	start := 0
	fetched := 0
	for {
		var resp dto.ListingResponse
		err := r.policy.Do(ctx, func(ctx context.Context) error {
			return r.fetchPage(ctx, page, start, &resp)
		})
		if err != nil {
			r.log.Error("Listing page failed, returning partial directory",
				logger.IntField("page", page), logger.ErrorField(err))
			break
		}

		if len(resp.Data) == 0 {
			break
		}

		for _, raw := range resp.Data {
			stock, ok := r.parseRow(raw)
			if !ok {
				continue
			}
			if r.cfg.Listing.ExcludeWarrants && isWarrantCode(stock.Code) {
				continue
			}
			if _, dup := seen[stock]; dup {
				continue
			}
			seen[stock] = struct{}{}
			result = append(result, stock)
		}

		fetched += len(resp.Data)
		if resp.RecordsTotal > 0 && fetched >= resp.RecordsTotal {
			break
		}
		page++
		start += r.cfg.Listing.PageSize
	}

	if len(result) > 0 {
		r.memCache.Set(directoryCacheKey, result, cache.DefaultExpiration)
	}

	r.log.Info("Stock directory fetched",
		logger.IntField("codes", len(result)), logger.IntField("pages", page+1))
	return result, nil
}

func (r *listingRepository) fetchPage(ctx context.Context, page, start int, out *dto.ListingResponse) error {
	body := dto.ListingRequest{
		DtDraw:        7,
		Start:         start,
		Order:         []dto.ListingOrder{{Column: 1, Dir: "asc"}},
		Page:          page,
		Size:          r.cfg.Listing.PageSize,
		MarketList:    r.cfg.Listing.Markets,
		SectorList:    []string{},
		SubsectorList: []string{},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return retry.Permanent(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.Listing.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return retry.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("listing request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return retry.Permanent(dto.ErrBlocked)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &dto.HTTPStatusError{StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read listing response: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &dto.ParseError{Err: err}
	}
	return nil
}

// parseRow extracts (code, name) from one datatables row. Rows are loosely
// typed arrays; anything malformed is skipped without failing the page.
func (r *listingRepository) parseRow(raw json.RawMessage) (dto.ListedStock, bool) {
	var cells []interface{}
	if err := json.Unmarshal(raw, &cells); err != nil || len(cells) < 2 {
		return dto.ListedStock{}, false
	}

	nameHTML, ok := cells[1].(string)
	if !ok || nameHTML == "" {
		return dto.ListedStock{}, false
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(nameHTML))
	if err != nil {
		return dto.ListedStock{}, false
	}

	anchor := doc.Find("a").First()
	if anchor.Length() == 0 {
		return dto.ListedStock{}, false
	}

	href, _ := anchor.Attr("href")
	parts := strings.Split(href, "/")
	code := strings.TrimSpace(parts[len(parts)-1])
	shortName := strings.TrimSpace(anchor.Text())
	if code == "" || shortName == "" {
		return dto.ListedStock{}, false
	}

	fullName := strings.TrimSpace(strings.Replace(doc.Text(), shortName, "", 1))
	name := shortName
	if fullName != "" {
		name = shortName + " - " + fullName
	}

	return dto.ListedStock{Code: code, Name: name}, true
}

func isWarrantCode(code string) bool {
	if len(code) <= 4 {
		return false
	}
	for _, suffix := range warrantSuffixes {
		if strings.HasSuffix(code, suffix) {
			return true
		}
	}
	return false
}
