package dto

// RecommendationSource tells which tier produced a recommendation list.
type RecommendationSource string

const (
	SourcePersonalized RecommendationSource = "personalized"
	SourceSector       RecommendationSource = "sector"
)

// RecommendedCompany is one ranked company. Score is set for personalized
// results, Distance for sector results.
type RecommendedCompany struct {
	CompanyID      uint     `json:"company_id"`
	Name           string   `json:"name"`
	Sentiment      float64  `json:"sentiment"`
	SentimentLabel string   `json:"sentiment_label"`
	Score          *float64 `json:"score,omitempty"`
	Distance       *uint32  `json:"distance,omitempty"`
	Unfollowed     bool     `json:"unfollowed,omitempty"`
}

// RecommendationResponse is the DTO for a recommendation request.
type RecommendationResponse struct {
	UserID uint                 `json:"user_id"`
	Source RecommendationSource `json:"source"`
	Items  []RecommendedCompany `json:"items"`
}
