package dto

import "encoding/json"

// ListingRequest is the datatables query body sent to the listing source.
type ListingRequest struct {
	DtDraw        int            `json:"dtDraw"`
	Start         int            `json:"start"`
	Order         []ListingOrder `json:"order"`
	Page          int            `json:"page"`
	Size          int            `json:"size"`
	MarketList    []string       `json:"marketList"`
	SectorList    []string       `json:"sectorList"`
	SubsectorList []string       `json:"subsectorList"`
	Type          string         `json:"type"`
	StockType     string         `json:"stockType"`
}

// ListingOrder is one ordering clause of a datatables query.
type ListingOrder struct {
	Column int    `json:"column"`
	Dir    string `json:"dir"`
}

// ListingResponse is the datatables page returned by the listing source.
// Each row is an array of loosely typed cells; only the name cell matters.
type ListingResponse struct {
	Data         []json.RawMessage `json:"data"`
	RecordsTotal int               `json:"recordsTotal"`
}

// ListedStock is one (code, name) pair discovered from the listing source.
type ListedStock struct {
	Code string `json:"code"`
	Name string `json:"name"`
}
