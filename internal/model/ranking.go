package model

// RankingType selects how the backend orders ranking entries.
type RankingType string

const (
	RankingPostCount      RankingType = "post_count"
	RankingRecentActivity RankingType = "recent_activity"
)

// RankingParams are the optional ranking query filters.
// Nil pointers and empty strings are not sent.
type RankingParams struct {
	ID          string
	MainText    string
	NameAndTrip string
	Oekaki      *bool
	Since       string
	Until       string
	RankingType RankingType
	MinPosts    *int
}

// RankingEntry is the aggregate activity of one poster ID.
// Rank is dense and 1-based.
type RankingEntry struct {
	Rank               int    `json:"rank"`
	ID                 string `json:"id"`
	PostCount          int    `json:"post_count"`
	LatestPostNo       int    `json:"latest_post_no"`
	LatestPostDatetime string `json:"latest_post_datetime"`
	FirstPostNo        int    `json:"first_post_no"`
	FirstPostDatetime  string `json:"first_post_datetime"`
}

// SearchConditions echoes back the filters the backend applied.
type SearchConditions struct {
	ID          *string `json:"id,omitempty"`
	MainText    *string `json:"main_text,omitempty"`
	NameAndTrip *string `json:"name_and_trip,omitempty"`
	Oekaki      *bool   `json:"oekaki,omitempty"`
	Since       *string `json:"since,omitempty"`
	Until       *string `json:"until,omitempty"`
}

// RankingResult is the ranking endpoint response. Replaced wholesale on every query.
type RankingResult struct {
	Ranking          []RankingEntry   `json:"ranking"`
	TotalUniqueIDs   int              `json:"total_unique_ids"`
	TotalResCount    int              `json:"total_res_count"`
	SearchConditions SearchConditions `json:"search_conditions"`
}
