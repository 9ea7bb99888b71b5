package repository

import (
	"context"
	"encoding/json"

	"golang-stock-scorer/internal/entity"
	"golang-stock-scorer/internal/scoring"
	"golang-stock-scorer/pkg/utils"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// StockRepository owns the scored state of all stocks and their history.
type StockRepository interface {
	GetByCode(ctx context.Context, code string) (*entity.Stock, error)
	GetOrCreate(ctx context.Context, code, name string) (*entity.Stock, error)
	ApplyRefresh(ctx context.Context, stock *entity.Stock, values scoring.Values, score int, breakdown scoring.Breakdown) error
	MarkRefreshAttempt(ctx context.Context, stock *entity.Stock) error
	List(ctx context.Context, page, pageSize int) ([]entity.Stock, int64, error)
	ToggleFavorite(ctx context.Context, code string) (*entity.Stock, error)
	FindFailed(ctx context.Context) ([]entity.Stock, error)
	ListHistory(ctx context.Context, code string) ([]entity.ScoreHistory, error)
	DeleteByCode(ctx context.Context, code string) error
	DeleteAll(ctx context.Context) error
}

type stockRepository struct {
	db *gorm.DB
}

// NewStockRepository creates a gorm-backed StockRepository.
func NewStockRepository(db *gorm.DB) StockRepository {
	return &stockRepository{db: db}
}

func (r *stockRepository) GetByCode(ctx context.Context, code string) (*entity.Stock, error) {
	var stock entity.Stock
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&stock).Error; err != nil {
		return nil, err
	}
	return &stock, nil
}

// GetOrCreate returns the stock for code, inserting a zero-scored row first
// if none exists. The insert is committed immediately so concurrent callers
// observe a stable row.
func (r *stockRepository) GetOrCreate(ctx context.Context, code, name string) (*entity.Stock, error) {
	var stock entity.Stock
	err := r.db.WithContext(ctx).
		Where(entity.Stock{Code: code}).
		Attrs(entity.Stock{
			Name:      name,
			Industry:  "Unknown",
			Market:    "Unknown",
			PERatio:   scoring.UnknownPER,
			Breakdown: datatypes.JSON("{}"),
		}).
		FirstOrCreate(&stock).Error
	if err != nil {
		return nil, err
	}
	return &stock, nil
}

// shouldSnapshot reports whether a score transition must be historized.
// The first successful score (0 -> X) is never recorded; any later change,
// including a fall back to 0, is.
func shouldSnapshot(previous, next int) bool {
	return previous != next && previous != 0
}

// ApplyRefresh overwrites the stock's scored state inside one transaction,
// appending a snapshot of the pre-update state when the score changed away
// from a previously real value.
func (r *stockRepository) ApplyRefresh(ctx context.Context, stock *entity.Stock, values scoring.Values, score int, breakdown scoring.Breakdown) error {
	breakdownJSON, err := json.Marshal(breakdown)
	if err != nil {
		return err
	}
	now := utils.TimeNowUTC()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if shouldSnapshot(stock.CurrentScore, score) {
			history := entity.ScoreHistory{
				StockID:      stock.ID,
				Score:        stock.CurrentScore,
				Breakdown:    stock.Breakdown,
				Growth:       stock.Growth,
				DivYield:     stock.DivYield,
				PERatio:      stock.PERatio,
				ROE:          stock.ROE,
				Margin:       stock.Margin,
				Profit:       stock.Profit,
				CashPositive: stock.CashPositive,
				CashRatio:    stock.CashRatio,
			}
			if err := tx.Create(&history).Error; err != nil {
				return err
			}
		}

		stock.CurrentScore = score
		stock.Breakdown = datatypes.JSON(breakdownJSON)
		stock.Growth = values.Growth
		stock.DivYield = values.DivYield
		stock.PERatio = values.PER
		stock.ROE = values.ROE
		stock.Margin = values.Margin
		stock.Profit = values.Profit
		stock.CashPositive = values.CashPositive
		stock.CashRatio = values.CashRatio
		stock.LastUpdated = &now
		stock.LastRefreshed = &now

		return tx.Save(stock).Error
	})
}

// MarkRefreshAttempt advances last_refreshed without touching the scored
// state. Used when a fetch failed so freshness gating still applies.
func (r *stockRepository) MarkRefreshAttempt(ctx context.Context, stock *entity.Stock) error {
	now := utils.TimeNowUTC()
	stock.LastRefreshed = &now
	return r.db.WithContext(ctx).Model(stock).Update("last_refreshed", now).Error
}

func (r *stockRepository) List(ctx context.Context, page, pageSize int) ([]entity.Stock, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 50
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&entity.Stock{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var stocks []entity.Stock
	err := r.db.WithContext(ctx).
		Order("is_favorite DESC").
		Order("current_score DESC").
		Order("code ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&stocks).Error
	if err != nil {
		return nil, 0, err
	}
	return stocks, total, nil
}

func (r *stockRepository) ToggleFavorite(ctx context.Context, code string) (*entity.Stock, error) {
	var stock entity.Stock
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("code = ?", code).First(&stock).Error; err != nil {
			return err
		}
		stock.IsFavorite = !stock.IsFavorite
		return tx.Model(&stock).Update("is_favorite", stock.IsFavorite).Error
	})
	if err != nil {
		return nil, err
	}
	return &stock, nil
}

// FindFailed returns stocks whose last refresh never produced a score:
// score 0 with an empty breakdown.
func (r *stockRepository) FindFailed(ctx context.Context) ([]entity.Stock, error) {
	var stocks []entity.Stock
	err := r.db.WithContext(ctx).
		Where("current_score = 0").
		Where("(breakdown IS NULL OR breakdown::text IN ('{}', 'null'))").
		Find(&stocks).Error
	if err != nil {
		return nil, err
	}
	return stocks, nil
}

func (r *stockRepository) ListHistory(ctx context.Context, code string) ([]entity.ScoreHistory, error) {
	stock, err := r.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	var histories []entity.ScoreHistory
	err = r.db.WithContext(ctx).
		Where("stock_id = ?", stock.ID).
		Order("recorded_at DESC").
		Find(&histories).Error
	if err != nil {
		return nil, err
	}
	return histories, nil
}

// DeleteByCode removes one stock; its history rows cascade.
func (r *stockRepository) DeleteByCode(ctx context.Context, code string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stock entity.Stock
		if err := tx.Where("code = ?", code).First(&stock).Error; err != nil {
			return err
		}
		if err := tx.Where("stock_id = ?", stock.ID).Delete(&entity.ScoreHistory{}).Error; err != nil {
			return err
		}
		return tx.Delete(&stock).Error
	})
}

func (r *stockRepository) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		if err := session.Delete(&entity.ScoreHistory{}).Error; err != nil {
			return err
		}
		return session.Delete(&entity.Stock{}).Error
	})
}
