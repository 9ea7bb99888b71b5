package entity

import (
	"time"

	"gorm.io/datatypes"
)

// Stock holds the latest scored state for one listed equity. There is exactly
// one row per code and the code never changes once the row exists.
type Stock struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	Code       string `gorm:"uniqueIndex;type:varchar(10);not null" json:"code"`
	Name       string `gorm:"type:varchar(200);not null" json:"name"`
	Industry   string `gorm:"type:varchar(100);default:Unknown" json:"industry"`
	Market     string `gorm:"type:varchar(50);default:Unknown" json:"market"`
	IsFavorite bool   `gorm:"not null;default:false" json:"is_favorite"`

	CurrentScore int            `gorm:"not null;default:0" json:"current_score"`
	Breakdown    datatypes.JSON `json:"breakdown"`

	Growth       float64 `gorm:"not null;default:0" json:"growth"`
	DivYield     float64 `gorm:"not null;default:0" json:"div_yield"`
	PERatio      float64 `gorm:"not null;default:999" json:"pe_ratio"`
	ROE          float64 `gorm:"not null;default:0" json:"roe"`
	Margin       float64 `gorm:"not null;default:0" json:"margin"`
	Profit       float64 `gorm:"not null;default:0" json:"profit"`
	CashPositive bool    `gorm:"not null;default:false" json:"cash_positive"`
	CashRatio    float64 `gorm:"not null;default:0" json:"cash_ratio"`

	LastUpdated   *time.Time `json:"last_updated,omitempty"`
	LastRefreshed *time.Time `json:"last_refreshed,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Histories []ScoreHistory `gorm:"foreignKey:StockID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for the Stock model.
func (Stock) TableName() string {
	return "stocks"
}

// ScoreHistory is an append-only snapshot of a stock's state taken just
// before a score change overwrote it. Rows are deleted only together with
// their owning stock.
type ScoreHistory struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	StockID    uint      `gorm:"index;not null" json:"stock_id"`
	RecordedAt time.Time `gorm:"autoCreateTime" json:"recorded_at"`

	Score     int            `gorm:"not null" json:"score"`
	Breakdown datatypes.JSON `json:"breakdown"`

	Growth       float64 `gorm:"not null;default:0" json:"growth"`
	DivYield     float64 `gorm:"not null;default:0" json:"div_yield"`
	PERatio      float64 `gorm:"not null;default:999" json:"pe_ratio"`
	ROE          float64 `gorm:"not null;default:0" json:"roe"`
	Margin       float64 `gorm:"not null;default:0" json:"margin"`
	Profit       float64 `gorm:"not null;default:0" json:"profit"`
	CashPositive bool    `gorm:"not null;default:false" json:"cash_positive"`
	CashRatio    float64 `gorm:"not null;default:0" json:"cash_ratio"`
}

// TableName specifies the table name for the ScoreHistory model.
func (ScoreHistory) TableName() string {
	return "score_histories"
}
