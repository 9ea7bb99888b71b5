package service

import (
	"context"
	"encoding/json"
	"fmt"

	"golang-stock-scorer/internal/dto"
	"golang-stock-scorer/internal/entity"
	"golang-stock-scorer/internal/repository"
	"golang-stock-scorer/pkg/logger"

	"gorm.io/gorm"
)

// StockService exposes the caller-facing stock operations.
type StockService interface {
	ListStocks(ctx context.Context, page, pageSize int) (*dto.StockListResponse, error)
	GetStock(ctx context.Context, code string) (*dto.StockResponse, error)
	GetHistory(ctx context.Context, code string) ([]dto.ScoreHistoryResponse, error)
	ToggleFavorite(ctx context.Context, code string) (*dto.StockResponse, error)
	RefreshOne(ctx context.Context, code string) error
	RetryFailed(ctx context.Context) (int, error)
	ClearStock(ctx context.Context, code string) error
	ClearAll(ctx context.Context) error
}

// NewStockService creates a StockService.
func NewStockService(stockRepo repository.StockRepository, coordinator *RefreshCoordinator, log *logger.Logger) StockService {
	return &stockService{
		stockRepo:   stockRepo,
		coordinator: coordinator,
		logger:      log,
	}
}

type stockService struct {
	stockRepo   repository.StockRepository
	coordinator *RefreshCoordinator
	logger      *logger.Logger
}

// ListStocks returns one page of stocks, favorites first, then by score
// descending.
func (s *stockService) ListStocks(ctx context.Context, page, pageSize int) (*dto.StockListResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 50
	}

	stocks, total, err := s.stockRepo.List(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}

	resp := &dto.StockListResponse{
		Stocks:   make([]dto.StockResponse, 0, len(stocks)),
		Page:     page,
		PageSize: pageSize,
		Total:    total,
	}
	for _, stock := range stocks {
		resp.Stocks = append(resp.Stocks, mapToStockResponse(&stock))
	}
	return resp, nil
}

func (s *stockService) GetStock(ctx context.Context, code string) (*dto.StockResponse, error) {
	stock, err := s.stockRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	resp := mapToStockResponse(stock)
	return &resp, nil
}

func (s *stockService) GetHistory(ctx context.Context, code string) ([]dto.ScoreHistoryResponse, error) {
	histories, err := s.stockRepo.ListHistory(ctx, code)
	if err != nil {
		return nil, err
	}

	resp := make([]dto.ScoreHistoryResponse, 0, len(histories))
	for _, h := range histories {
		resp = append(resp, dto.ScoreHistoryResponse{
			RecordedAt: h.RecordedAt,
			Score:      h.Score,
			Breakdown:  json.RawMessage(h.Breakdown),
			Growth:     h.Growth,
			DivYield:   h.DivYield,
			PERatio:    h.PERatio,
			ROE:        h.ROE,
		})
	}
	return resp, nil
}

func (s *stockService) ToggleFavorite(ctx context.Context, code string) (*dto.StockResponse, error) {
	stock, err := s.stockRepo.ToggleFavorite(ctx, code)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Favorite toggled",
		logger.StringField("code", stock.Code), logger.Field("is_favorite", stock.IsFavorite))
	resp := mapToStockResponse(stock)
	return &resp, nil
}

// RefreshOne runs the refresh pipeline for a single code in the background,
// bypassing the freshness window. It shares the coordinator slot with full
// runs, so it fails while a full refresh is active.
func (s *stockService) RefreshOne(ctx context.Context, code string) error {
	name := code
	if stock, err := s.stockRepo.GetByCode(ctx, code); err == nil {
		name = stock.Name
	} else if err != gorm.ErrRecordNotFound {
		return err
	}

	return s.coordinator.StartCodes([]dto.ListedStock{{Code: code, Name: name}}, true)
}

// RetryFailed re-runs the pipeline over every stock whose last refresh never
// produced a score. Returns the number of codes queued.
func (s *stockService) RetryFailed(ctx context.Context) (int, error) {
	failed, err := s.stockRepo.FindFailed(ctx)
	if err != nil {
		return 0, err
	}
	if len(failed) == 0 {
		return 0, nil
	}

	codes := make([]dto.ListedStock, 0, len(failed))
	for _, stock := range failed {
		codes = append(codes, dto.ListedStock{Code: stock.Code, Name: stock.Name})
	}

	if err := s.coordinator.StartCodes(codes, true); err != nil {
		return 0, err
	}
	return len(codes), nil
}

func (s *stockService) ClearStock(ctx context.Context, code string) error {
	if err := s.stockRepo.DeleteByCode(ctx, code); err != nil {
		return fmt.Errorf("failed to clear stock %s: %w", code, err)
	}
	s.logger.Info("Stock cleared", logger.StringField("code", code))
	return nil
}

func (s *stockService) ClearAll(ctx context.Context) error {
	if err := s.stockRepo.DeleteAll(ctx); err != nil {
		return fmt.Errorf("failed to clear stocks: %w", err)
	}
	s.logger.Info("All stock data cleared")
	return nil
}

func mapToStockResponse(stock *entity.Stock) dto.StockResponse {
	return dto.StockResponse{
		Code:          stock.Code,
		Name:          stock.Name,
		Industry:      stock.Industry,
		Market:        stock.Market,
		IsFavorite:    stock.IsFavorite,
		CurrentScore:  stock.CurrentScore,
		Breakdown:     json.RawMessage(stock.Breakdown),
		Growth:        stock.Growth,
		DivYield:      stock.DivYield,
		PERatio:       stock.PERatio,
		ROE:           stock.ROE,
		Margin:        stock.Margin,
		Profit:        stock.Profit,
		CashPositive:  stock.CashPositive,
		CashRatio:     stock.CashRatio,
		LastUpdated:   stock.LastUpdated,
		LastRefreshed: stock.LastRefreshed,
	}
}
