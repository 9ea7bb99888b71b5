package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"golang-stock-scorer/internal/dto"
	"golang-stock-scorer/internal/entity"
	"golang-stock-scorer/internal/repository"
	"golang-stock-scorer/internal/scoring"
	"golang-stock-scorer/pkg/logger"
	"golang-stock-scorer/pkg/utils"
)

// RunReport accumulates the outcome of one refresh run. It lives only for
// the duration of the run; the persistent record is the RefreshRun row.
type RunReport struct {
	Processed int
	Updated   int
	Skipped   int
	Failed    int
	Stopped   bool
	NoCodes   bool
	Messages  []string
}

// OutcomeMessage renders the user-facing summary for the run.
func (r *RunReport) OutcomeMessage() string {
	switch {
	case r.NoCodes:
		return "No stock codes found. Nothing to refresh."
	case r.Stopped:
		return fmt.Sprintf("Refresh stopped. Updated %d stocks before stopping.", r.Updated)
	default:
		return fmt.Sprintf("Refresh complete! Updated %d stocks.", r.Updated)
	}
}

// RefreshJob runs the fetch/extract/score/persist pipeline over a set of
// codes, one code at a time. A single code's failure never aborts the batch.
type RefreshJob struct {
	listingRepo  repository.ListingRepository
	screenerRepo repository.ScreenerRepository
	stockRepo    repository.StockRepository
	runRepo      repository.RefreshRunRepository
	log          *logger.Logger
}

// NewRefreshJob creates a RefreshJob.
func NewRefreshJob(
	listingRepo repository.ListingRepository,
	screenerRepo repository.ScreenerRepository,
	stockRepo repository.StockRepository,
	runRepo repository.RefreshRunRepository,
	log *logger.Logger,
) *RefreshJob {
	return &RefreshJob{
		listingRepo:  listingRepo,
		screenerRepo: screenerRepo,
		stockRepo:    stockRepo,
		runRepo:      runRepo,
		log:          log,
	}
}

// RunAll discovers the full code directory and refreshes every code that is
// not fresh for the current UTC day.
func (j *RefreshJob) RunAll(ctx context.Context) (*RunReport, error) {
	return j.execute(ctx, false, func(ctx context.Context) ([]dto.ListedStock, error) {
		return j.listingRepo.GetAllCodes(ctx)
	})
}

// RunCodes refreshes just the given codes. With force set the freshness
// window is bypassed; used by retry-failed and manual single-code refresh.
func (j *RefreshJob) RunCodes(ctx context.Context, codes []dto.ListedStock, force bool) (*RunReport, error) {
	return j.execute(ctx, force, func(context.Context) ([]dto.ListedStock, error) {
		return codes, nil
	})
}

// execute wraps the per-code loop in a persistent RefreshRun record.
func (j *RefreshJob) execute(ctx context.Context, force bool, fetchCodes func(context.Context) ([]dto.ListedStock, error)) (*RunReport, error) {
	run := &entity.RefreshRun{
		Status:    entity.RunStatusRunning,
		StartedAt: utils.TimeNowUTC(),
	}
	if err := j.runRepo.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to record refresh run: %w", err)
	}

	rep := &RunReport{}

	codes, err := fetchCodes(ctx)
	if err != nil {
		j.finalize(run, rep, err)
		return rep, err
	}
	if len(codes) == 0 {
		rep.NoCodes = true
		j.finalize(run, rep, nil)
		return rep, nil
	}

	j.log.Info("Refresh run started", logger.IntField("codes", len(codes)))

	for _, listed := range codes {
		// The stop signal is only honoured between codes, never mid-fetch.
		select {
		case <-ctx.Done():
			rep.Stopped = true
		default:
		}
		if rep.Stopped {
			break
		}

		j.processCode(ctx, listed, force, rep)
	}

	j.finalize(run, rep, nil)
	j.log.Info("Refresh run finished",
		logger.IntField("processed", rep.Processed),
		logger.IntField("updated", rep.Updated),
		logger.IntField("skipped", rep.Skipped),
		logger.IntField("failed", rep.Failed),
		logger.Field("stopped", rep.Stopped))
	return rep, nil
}

func (j *RefreshJob) processCode(ctx context.Context, listed dto.ListedStock, force bool, rep *RunReport) {
	rep.Processed++

	stock, err := j.stockRepo.GetOrCreate(ctx, listed.Code, listed.Name)
	if err != nil {
		rep.Failed++
		rep.Messages = append(rep.Messages, fmt.Sprintf("Database error on %s: %v", listed.Code, err))
		return
	}

	if !force && stock.LastRefreshed != nil && utils.SameUTCDay(*stock.LastRefreshed, utils.TimeNowUTC()) {
		rep.Skipped++
		return
	}

	detail, err := j.screenerRepo.GetStockDetail(ctx, stock.Code)
	if err != nil {
		rep.Failed++
		rep.Messages = append(rep.Messages, formatFetchError(stock.Code, err))
		if markErr := j.stockRepo.MarkRefreshAttempt(ctx, stock); markErr != nil {
			j.log.Error("Failed to mark refresh attempt", logger.StringField("code", stock.Code), logger.ErrorField(markErr))
		}
		return
	}

	values := scoring.Extract(detail)
	score, breakdown := scoring.Compute(values)

	if industry := stringField(detail.Stock, "category"); industry != "" {
		stock.Industry = industry
	}
	if market := stringField(detail.Stock, "market"); market != "" {
		stock.Market = market
	}

	if err := j.stockRepo.ApplyRefresh(ctx, stock, values, score, breakdown); err != nil {
		rep.Failed++
		rep.Messages = append(rep.Messages, fmt.Sprintf("Database error on %s: %v", stock.Code, err))
		return
	}

	rep.Updated++
}

func (j *RefreshJob) finalize(run *entity.RefreshRun, rep *RunReport, jobErr error) {
	run.ProcessedCount = rep.Processed
	run.UpdatedCount = rep.Updated
	run.SkippedCount = rep.Skipped
	run.FailedCount = rep.Failed
	run.Messages = append(rep.Messages[:len(rep.Messages):len(rep.Messages)], rep.OutcomeMessage())
	run.CompletedAt = sql.NullTime{Time: utils.TimeNowUTC(), Valid: true}

	switch {
	case jobErr != nil:
		run.Status = entity.RunStatusFailed
		run.ErrorMessage = sql.NullString{String: jobErr.Error(), Valid: true}
	case rep.Stopped:
		run.Status = entity.RunStatusStopped
	default:
		run.Status = entity.RunStatusCompleted
	}

	// The run record is best effort; losing it must not fail the refresh.
	if err := j.runRepo.Update(context.Background(), run); err != nil {
		j.log.Error("Failed to update refresh run record", logger.ErrorField(err))
	}
}

// formatFetchError converts a classified fetch failure into the
// human-readable message surfaced to the caller.
func formatFetchError(code string, err error) string {
	var httpErr *dto.HTTPStatusError
	var parseErr *dto.ParseError
	switch {
	case errors.Is(err, dto.ErrBlocked):
		return fmt.Sprintf("Blocked while fetching %s: source refused automated access", code)
	case errors.As(err, &httpErr):
		return fmt.Sprintf("Failed to fetch %s (HTTP %d)", code, httpErr.StatusCode)
	case errors.As(err, &parseErr):
		return fmt.Sprintf("Invalid response for %s: %v", code, parseErr.Err)
	default:
		return fmt.Sprintf("Error on %s: %v", code, err)
	}
}

func stringField(m map[string]interface{}, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}
