package dto

import (
	"encoding/json"
	"time"
)

// StockResponse is the API representation of a scored stock.
type StockResponse struct {
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Industry      string          `json:"industry"`
	Market        string          `json:"market"`
	IsFavorite    bool            `json:"is_favorite"`
	CurrentScore  int             `json:"current_score"`
	Breakdown     json.RawMessage `json:"breakdown" swaggertype:"object"`
	Growth        float64         `json:"growth"`
	DivYield      float64         `json:"div_yield"`
	PERatio       float64         `json:"pe_ratio"`
	ROE           float64         `json:"roe"`
	Margin        float64         `json:"margin"`
	Profit        float64         `json:"profit"`
	CashPositive  bool            `json:"cash_positive"`
	CashRatio     float64         `json:"cash_ratio"`
	LastUpdated   *time.Time      `json:"last_updated,omitempty"`
	LastRefreshed *time.Time      `json:"last_refreshed,omitempty"`
}

// StockListResponse is a paginated list of stocks.
type StockListResponse struct {
	Stocks   []StockResponse `json:"stocks"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
	Total    int64           `json:"total"`
}

// ScoreHistoryResponse is one historical snapshot of a stock's score.
type ScoreHistoryResponse struct {
	RecordedAt time.Time       `json:"recorded_at"`
	Score      int             `json:"score"`
	Breakdown  json.RawMessage `json:"breakdown" swaggertype:"object"`
	Growth     float64         `json:"growth"`
	DivYield   float64         `json:"div_yield"`
	PERatio    float64         `json:"pe_ratio"`
	ROE        float64         `json:"roe"`
}

// RefreshStatusResponse reports whether a refresh is running.
type RefreshStatusResponse struct {
	Running bool `json:"running"`
}

// MessagesResponse carries the messages drained from the coordinator.
type MessagesResponse struct {
	Messages []string `json:"messages"`
}

// MessageResponse is a single outcome message.
type MessageResponse struct {
	Message string `json:"message"`
}
