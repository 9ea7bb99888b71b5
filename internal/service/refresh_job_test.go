package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"golang-stock-scorer/internal/dto"
	"golang-stock-scorer/internal/entity"
	"golang-stock-scorer/internal/scoring"
	"golang-stock-scorer/pkg/logger"
	"golang-stock-scorer/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("error", "console")
	require.NoError(t, err)
	return log
}

type fakeListingRepo struct {
	codes []dto.ListedStock
	err   error
	fn    func(ctx context.Context) ([]dto.ListedStock, error)
}

func (f *fakeListingRepo) GetAllCodes(ctx context.Context) ([]dto.ListedStock, error) {
	if f.fn != nil {
		return f.fn(ctx)
	}
	return f.codes, f.err
}

type fakeScreenerRepo struct {
	mu      sync.Mutex
	details map[string]*dto.StockDetail
	errs    map[string]error
	calls   []string
	hook    func(code string)
}

func (f *fakeScreenerRepo) GetStockDetail(ctx context.Context, code string) (*dto.StockDetail, error) {
	f.mu.Lock()
	f.calls = append(f.calls, code)
	f.mu.Unlock()

	if f.hook != nil {
		f.hook(code)
	}
	if err, ok := f.errs[code]; ok {
		return nil, err
	}
	if detail, ok := f.details[code]; ok {
		return detail, nil
	}
	return &dto.StockDetail{}, nil
}

func (f *fakeScreenerRepo) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type appliedRefresh struct {
	code  string
	score int
}

type fakeStockRepo struct {
	mu       sync.Mutex
	stocks   map[string]*entity.Stock
	applied  []appliedRefresh
	attempts []string
	applyErr error
}

func newFakeStockRepo() *fakeStockRepo {
	return &fakeStockRepo{stocks: map[string]*entity.Stock{}}
}

func (f *fakeStockRepo) GetByCode(ctx context.Context, code string) (*entity.Stock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stock, ok := f.stocks[code]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return stock, nil
}

func (f *fakeStockRepo) GetOrCreate(ctx context.Context, code, name string) (*entity.Stock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if stock, ok := f.stocks[code]; ok {
		return stock, nil
	}
	stock := &entity.Stock{ID: uint(len(f.stocks) + 1), Code: code, Name: name}
	f.stocks[code] = stock
	return stock, nil
}

func (f *fakeStockRepo) ApplyRefresh(ctx context.Context, stock *entity.Stock, values scoring.Values, score int, breakdown scoring.Breakdown) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.applyErr != nil {
		return f.applyErr
	}
	now := utils.TimeNowUTC()
	stock.CurrentScore = score
	stock.LastUpdated = &now
	stock.LastRefreshed = &now
	f.applied = append(f.applied, appliedRefresh{code: stock.Code, score: score})
	return nil
}

func (f *fakeStockRepo) MarkRefreshAttempt(ctx context.Context, stock *entity.Stock) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := utils.TimeNowUTC()
	stock.LastRefreshed = &now
	f.attempts = append(f.attempts, stock.Code)
	return nil
}

func (f *fakeStockRepo) List(ctx context.Context, page, pageSize int) ([]entity.Stock, int64, error) {
	return nil, 0, nil
}

func (f *fakeStockRepo) ToggleFavorite(ctx context.Context, code string) (*entity.Stock, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeStockRepo) FindFailed(ctx context.Context) ([]entity.Stock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var failed []entity.Stock
	for _, stock := range f.stocks {
		if stock.CurrentScore == 0 {
			failed = append(failed, *stock)
		}
	}
	return failed, nil
}

func (f *fakeStockRepo) ListHistory(ctx context.Context, code string) ([]entity.ScoreHistory, error) {
	return nil, nil
}

func (f *fakeStockRepo) DeleteByCode(ctx context.Context, code string) error { return nil }
func (f *fakeStockRepo) DeleteAll(ctx context.Context) error                 { return nil }

func (f *fakeStockRepo) appliedCodes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	codes := make([]string, 0, len(f.applied))
	for _, a := range f.applied {
		codes = append(codes, a.code)
	}
	return codes
}

type fakeRunRepo struct {
	mu        sync.Mutex
	createErr error
	runs      []*entity.RefreshRun
}

func (f *fakeRunRepo) Create(ctx context.Context, run *entity.RefreshRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	run.ID = uint(len(f.runs) + 1)
	f.runs = append(f.runs, run)
	return nil
}

func (f *fakeRunRepo) Update(ctx context.Context, run *entity.RefreshRun) error {
	return nil
}

func (f *fakeRunRepo) FindRecent(ctx context.Context, limit int) ([]entity.RefreshRun, error) {
	return nil, nil
}

func (f *fakeRunRepo) lastRun() *entity.RefreshRun {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.runs) == 0 {
		return nil
	}
	return f.runs[len(f.runs)-1]
}

func goodDetail() *dto.StockDetail {
	return &dto.StockDetail{
		Stock: map[string]interface{}{"DY": 3.5, "PE": 8.0, "ROE": 18.0},
		StockIndicator: map[string]interface{}{
			"cagr_5y": 16.0,
		},
		FinancialReports: []map[string]interface{}{
			{"quarter_date_end": "2023-12-31", "profit_loss": 20.0, "revenue": 100.0, "operating_cf": 5.0},
		},
		BalanceSheet: map[string]interface{}{"total_cash": 100.0, "total_debt": 10.0, "total_equity": 400.0},
	}
}

func newTestJob(listing *fakeListingRepo, screener *fakeScreenerRepo, stocks *fakeStockRepo, runs *fakeRunRepo, t *testing.T) *RefreshJob {
	return NewRefreshJob(listing, screener, stocks, runs, testLogger(t))
}

func TestRunAllNoCodes(t *testing.T) {
	runs := &fakeRunRepo{}
	job := newTestJob(&fakeListingRepo{}, &fakeScreenerRepo{}, newFakeStockRepo(), runs, t)

	rep, err := job.RunAll(context.Background())

	require.NoError(t, err)
	assert.True(t, rep.NoCodes)
	assert.Equal(t, 0, rep.Processed)
	assert.Equal(t, "No stock codes found. Nothing to refresh.", rep.OutcomeMessage())
	assert.Equal(t, entity.RunStatusCompleted, runs.lastRun().Status)
}

func TestRunAllProcessesEveryCode(t *testing.T) {
	listing := &fakeListingRepo{codes: []dto.ListedStock{
		{Code: "1155", Name: "MAYBANK"},
		{Code: "7100", Name: "UCHITEC"},
	}}
	screener := &fakeScreenerRepo{details: map[string]*dto.StockDetail{
		"1155": goodDetail(),
		"7100": goodDetail(),
	}}
	stocks := newFakeStockRepo()
	runs := &fakeRunRepo{}

	rep, err := newTestJob(listing, screener, stocks, runs, t).RunAll(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, rep.Processed)
	assert.Equal(t, 2, rep.Updated)
	assert.Equal(t, 0, rep.Failed)
	assert.ElementsMatch(t, []string{"1155", "7100"}, stocks.appliedCodes())
	assert.Equal(t, "Refresh complete! Updated 2 stocks.", rep.OutcomeMessage())

	run := runs.lastRun()
	assert.Equal(t, entity.RunStatusCompleted, run.Status)
	assert.Equal(t, 2, run.UpdatedCount)
}

func TestRunAllSkipsStocksRefreshedToday(t *testing.T) {
	listing := &fakeListingRepo{codes: []dto.ListedStock{{Code: "1155", Name: "MAYBANK"}}}
	screener := &fakeScreenerRepo{}
	stocks := newFakeStockRepo()
	now := utils.TimeNowUTC()
	stocks.stocks["1155"] = &entity.Stock{ID: 1, Code: "1155", Name: "MAYBANK", LastRefreshed: &now}

	rep, err := newTestJob(listing, screener, stocks, &fakeRunRepo{}, t).RunAll(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, rep.Skipped)
	assert.Equal(t, 0, rep.Updated)
	assert.Zero(t, screener.callCount(), "a fresh stock must not be fetched again")
}

func TestRunAllRefreshesStaleStocks(t *testing.T) {
	listing := &fakeListingRepo{codes: []dto.ListedStock{{Code: "1155", Name: "MAYBANK"}}}
	screener := &fakeScreenerRepo{details: map[string]*dto.StockDetail{"1155": goodDetail()}}
	stocks := newFakeStockRepo()
	yesterday := utils.TimeNowUTC().AddDate(0, 0, -1)
	stocks.stocks["1155"] = &entity.Stock{ID: 1, Code: "1155", Name: "MAYBANK", LastRefreshed: &yesterday}

	rep, err := newTestJob(listing, screener, stocks, &fakeRunRepo{}, t).RunAll(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, rep.Updated)
}

func TestRunAllOneFailureDoesNotAbortBatch(t *testing.T) {
	listing := &fakeListingRepo{codes: []dto.ListedStock{
		{Code: "1155", Name: "MAYBANK"},
		{Code: "0001", Name: "BROKEN"},
		{Code: "7100", Name: "UCHITEC"},
	}}
	screener := &fakeScreenerRepo{
		details: map[string]*dto.StockDetail{"1155": goodDetail(), "7100": goodDetail()},
		errs:    map[string]error{"0001": &dto.HTTPStatusError{StatusCode: 500}},
	}
	stocks := newFakeStockRepo()

	rep, err := newTestJob(listing, screener, stocks, &fakeRunRepo{}, t).RunAll(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, rep.Processed)
	assert.Equal(t, 2, rep.Updated)
	assert.Equal(t, 1, rep.Failed)
	require.Len(t, rep.Messages, 1)
	assert.Equal(t, "Failed to fetch 0001 (HTTP 500)", rep.Messages[0])
	assert.Equal(t, []string{"0001"}, stocks.attempts, "a failed fetch still counts as a refresh attempt")
}

func TestRunAllStopsBetweenCodes(t *testing.T) {
	listing := &fakeListingRepo{codes: []dto.ListedStock{
		{Code: "1155", Name: "MAYBANK"},
		{Code: "7100", Name: "UCHITEC"},
	}}
	ctx, cancel := context.WithCancel(context.Background())
	screener := &fakeScreenerRepo{
		details: map[string]*dto.StockDetail{"1155": goodDetail(), "7100": goodDetail()},
		hook:    func(string) { cancel() },
	}
	stocks := newFakeStockRepo()
	runs := &fakeRunRepo{}

	rep, err := newTestJob(listing, screener, stocks, runs, t).RunAll(ctx)

	require.NoError(t, err)
	assert.True(t, rep.Stopped)
	assert.Equal(t, 1, rep.Processed, "the second code must not start after a stop")
	assert.Equal(t, 1, screener.callCount())
	assert.Contains(t, rep.OutcomeMessage(), "Refresh stopped")
	assert.Equal(t, entity.RunStatusStopped, runs.lastRun().Status)
}

func TestRunCodesForceBypassesFreshness(t *testing.T) {
	screener := &fakeScreenerRepo{details: map[string]*dto.StockDetail{"1155": goodDetail()}}
	stocks := newFakeStockRepo()
	now := utils.TimeNowUTC()
	stocks.stocks["1155"] = &entity.Stock{ID: 1, Code: "1155", Name: "MAYBANK", LastRefreshed: &now}

	job := newTestJob(&fakeListingRepo{}, screener, stocks, &fakeRunRepo{}, t)
	rep, err := job.RunCodes(context.Background(), []dto.ListedStock{{Code: "1155", Name: "MAYBANK"}}, true)

	require.NoError(t, err)
	assert.Equal(t, 1, rep.Updated)
	assert.Equal(t, 0, rep.Skipped)
}

func TestRunAllFailsWhenRunCannotBeRecorded(t *testing.T) {
	runs := &fakeRunRepo{createErr: errors.New("db down")}
	job := newTestJob(&fakeListingRepo{}, &fakeScreenerRepo{}, newFakeStockRepo(), runs, t)

	_, err := job.RunAll(context.Background())
	assert.Error(t, err)
}

func TestFormatFetchError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"blocked", dto.ErrBlocked, "Blocked while fetching 1155: source refused automated access"},
		{"http status", &dto.HTTPStatusError{StatusCode: 502}, "Failed to fetch 1155 (HTTP 502)"},
		{"parse", &dto.ParseError{Err: errors.New("unexpected token")}, "Invalid response for 1155: unexpected token"},
		{"network", fmt.Errorf("dial tcp: %w", errors.New("timeout")), "Error on 1155: dial tcp: timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatFetchError("1155", tt.err))
		})
	}
}

func TestRunReportOutcomeMessage(t *testing.T) {
	assert.Equal(t, "Refresh complete! Updated 7 stocks.", (&RunReport{Updated: 7}).OutcomeMessage())
	assert.Equal(t, "Refresh stopped. Updated 2 stocks before stopping.", (&RunReport{Updated: 2, Stopped: true}).OutcomeMessage())
}

// Guard against clock-dependent flakiness around midnight: the freshness
// check compares calendar days, so "one second ago" is always fresh.
func TestFreshnessUsesCalendarDay(t *testing.T) {
	recent := utils.TimeNowUTC().Add(-time.Second)
	assert.True(t, utils.SameUTCDay(recent, utils.TimeNowUTC()))
}
