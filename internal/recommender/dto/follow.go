package dto

// CompanyResponse is the DTO for a company in API responses.
type CompanyResponse struct {
	ID             uint    `json:"id"`
	Name           string  `json:"name"`
	Sentiment      float64 `json:"sentiment"`
	SentimentLabel string  `json:"sentiment_label"`
	MarketCap      int64   `json:"market_cap"`
}

// FollowResponse reports the outcome of a follow or unfollow.
type FollowResponse struct {
	UserID    uint   `json:"user_id"`
	CompanyID uint   `json:"company_id"`
	State     string `json:"state,omitempty"`
	Created   bool   `json:"created"`
	Counted   bool   `json:"counted"`
}

// CandidateResponse is a non-followed ledger entry.
type CandidateResponse struct {
	CompanyID uint   `json:"company_id"`
	Name      string `json:"name"`
	State     string `json:"state"`
	Distance  uint32 `json:"distance"`
}

// SectorResponse is the DTO for a sector.
type SectorResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}
