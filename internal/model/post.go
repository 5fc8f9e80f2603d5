package model

// Row is one indexed forum post as returned by the search endpoint.
// The backend orders rows globally by No.
type Row struct {
	No                  int    `json:"no"`
	NameAndTrip         string `json:"name_and_trip"`
	Datetime            string `json:"datetime"`
	DatetimeText        string `json:"datetime_text"`
	ID                  string `json:"id"`
	MainText            string `json:"main_text"`
	MainTextHTML        string `json:"main_text_html"`
	OekakiID            int    `json:"oekaki_id,omitempty"`
	OekakiTitle         string `json:"oekaki_title,omitempty"`
	OriginalOekakiResNo int    `json:"original_oekaki_res_no,omitempty"`
}

// HasOekaki reports whether the row carries an image attachment.
func (r Row) HasOekaki() bool {
	return r.OekakiID > 0
}

// Count is the search/count response.
type Count struct {
	TotalResCount int `json:"total_res_count"`
	UniqueIDCount int `json:"unique_id_count"`
}

// Filters are the search form fields. Since and Until are YYYY-MM-DD or empty.
type Filters struct {
	ID          string `json:"id"`
	MainText    string `json:"main_text"`
	NameAndTrip string `json:"name_and_trip"`
	Ascending   bool   `json:"ascending"`
	Since       string `json:"since"`
	Until       string `json:"until"`
}

// IsZero reports whether no filter field is set.
func (f Filters) IsZero() bool {
	return f == Filters{}
}
