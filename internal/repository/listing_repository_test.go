package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang-stock-scorer/internal/config"
	"golang-stock-scorer/internal/dto"
	"golang-stock-scorer/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("error", "console")
	require.NoError(t, err)
	return log
}

func listingConfig(baseURL string) *config.Config {
	return &config.Config{
		Listing: config.Listing{
			BaseURL:         baseURL,
			PageSize:        500,
			Markets:         []string{"ACE", "ETF", "MAIN"},
			Timeout:         5 * time.Second,
			MaxRetries:      3,
			RetryInterval:   time.Millisecond,
			DirectoryTTL:    time.Minute,
			ExcludeWarrants: true,
		},
	}
}

func nameCell(code, short, long string) string {
	return fmt.Sprintf(`<a href="/web/stock/overview/%s">%s</a> <span>%s</span>`, code, short, long)
}

func listingRow(code, short, long string) []string {
	return []string{code, nameCell(code, short, long)}
}

func writeListingPage(w http.ResponseWriter, rows [][]string, total int) {
	raw := make([]json.RawMessage, 0, len(rows))
	for _, row := range rows {
		b, _ := json.Marshal(row)
		raw = append(raw, b)
	}
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"data":         raw,
		"recordsTotal": total,
	})
}

func decodePage(r *http.Request) int {
	var req dto.ListingRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	return req.Page
}

func TestGetAllCodesPaginates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := decodePage(r)
		var rows [][]string
		if page < 2 {
			for i := 0; i < 500; i++ {
				code := fmt.Sprintf("%04d", page*500+i)
				rows = append(rows, listingRow(code, "S"+code, "COMPANY "+code+" BHD"))
			}
		}
		writeListingPage(w, rows, 1500)
	}))
	defer server.Close()

	repo := NewListingRepository(listingConfig(server.URL), testLogger(t))
	codes, err := repo.GetAllCodes(context.Background())

	require.NoError(t, err)
	assert.Len(t, codes, 1000)

	seen := map[string]struct{}{}
	for _, c := range codes {
		seen[c.Code] = struct{}{}
	}
	assert.Len(t, seen, 1000, "codes must be unique")
}

func TestGetAllCodesStopsAtRecordsTotal(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		page := decodePage(r)
		var rows [][]string
		for i := 0; i < 500; i++ {
			code := fmt.Sprintf("%04d", page*500+i)
			rows = append(rows, listingRow(code, "S"+code, "COMPANY BHD"))
		}
		writeListingPage(w, rows, 1000)
	}))
	defer server.Close()

	repo := NewListingRepository(listingConfig(server.URL), testLogger(t))
	codes, err := repo.GetAllCodes(context.Background())

	require.NoError(t, err)
	assert.Len(t, codes, 1000)
	assert.Equal(t, 2, requests, "pagination must stop once the reported total is reached")
}

func TestGetAllCodesParsesNames(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if decodePage(r) > 0 {
			writeListingPage(w, nil, 1)
			return
		}
		writeListingPage(w, [][]string{listingRow("1155", "MAYBANK", "MALAYAN BANKING BHD")}, 1)
	}))
	defer server.Close()

	repo := NewListingRepository(listingConfig(server.URL), testLogger(t))
	codes, err := repo.GetAllCodes(context.Background())

	require.NoError(t, err)
	require.Len(t, codes, 1)
	assert.Equal(t, "1155", codes[0].Code)
	assert.Equal(t, "MAYBANK - MALAYAN BANKING BHD", codes[0].Name)
}

func TestGetAllCodesSkipsMalformedRowsAndWarrants(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if decodePage(r) > 0 {
			writeListingPage(w, nil, 10)
			return
		}
		rows := []json.RawMessage{
			json.RawMessage(`["only-one-cell"]`),
			json.RawMessage(`["0001", 42]`),
			json.RawMessage(`["0002", "plain text without anchor"]`),
			json.RawMessage(`"not an array at all"`),
		}
		good, _ := json.Marshal(listingRow("0003", "GOOD", "GOOD BHD"))
		warrant, _ := json.Marshal(listingRow("0003WA", "GOOD-WA", "GOOD BHD WARRANT"))
		dup, _ := json.Marshal(listingRow("0003", "GOOD", "GOOD BHD"))
		rows = append(rows, good, warrant, dup)

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data":         rows,
			"recordsTotal": 10,
		})
	}))
	defer server.Close()

	repo := NewListingRepository(listingConfig(server.URL), testLogger(t))
	codes, err := repo.GetAllCodes(context.Background())

	require.NoError(t, err)
	require.Len(t, codes, 1)
	assert.Equal(t, "0003", codes[0].Code)
}

func TestGetAllCodesRetriesTransientFailures(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if decodePage(r) > 0 {
			writeListingPage(w, nil, 1)
			return
		}
		writeListingPage(w, [][]string{listingRow("7100", "UCHITEC", "UCHI TECHNOLOGIES BHD")}, 1)
	}))
	defer server.Close()

	repo := NewListingRepository(listingConfig(server.URL), testLogger(t))
	codes, err := repo.GetAllCodes(context.Background())

	require.NoError(t, err)
	assert.Len(t, codes, 1)
	assert.GreaterOrEqual(t, attempts, 2)
}

func TestGetAllCodesReturnsPartialOnPageFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if decodePage(r) == 0 {
			writeListingPage(w, [][]string{listingRow("0010", "FIRST", "FIRST BHD")}, 600)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := listingConfig(server.URL)
	cfg.Listing.PageSize = 1
	repo := NewListingRepository(cfg, testLogger(t))
	codes, err := repo.GetAllCodes(context.Background())

	require.NoError(t, err)
	assert.Len(t, codes, 1, "results collected before the failing page are kept")
}

func TestGetAllCodesCachesDirectory(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if decodePage(r) > 0 {
			writeListingPage(w, nil, 1)
			return
		}
		writeListingPage(w, [][]string{listingRow("5200", "UOADEV", "UOA DEVELOPMENT BHD")}, 1)
	}))
	defer server.Close()

	repo := NewListingRepository(listingConfig(server.URL), testLogger(t))

	first, err := repo.GetAllCodes(context.Background())
	require.NoError(t, err)
	fetched := requests

	second, err := repo.GetAllCodes(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, fetched, requests, "second call must be served from cache")
}

func TestIsWarrantCode(t *testing.T) {
	assert.True(t, isWarrantCode("0123WA"))
	assert.True(t, isWarrantCode("5200WB"))
	assert.True(t, isWarrantCode("7100CW"))
	assert.False(t, isWarrantCode("0123"))
	assert.False(t, isWarrantCode("WA"))
	assert.False(t, isWarrantCode("MAYBANK"))
}
