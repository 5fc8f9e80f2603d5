package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// DateLayout is the form date format accepted by the backend.
const DateLayout = "2006-01-02"

// dateRule accepts an empty string or a YYYY-MM-DD date.
var dateRule = validation.By(func(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := time.Parse(DateLayout, s); err != nil {
		return validation.NewError("validation_date", "must be a date in YYYY-MM-DD format")
	}
	return nil
})

// minPostsRule rejects a set min_posts below one. Zero is not treated as
// empty here, unlike validation.Min.
var minPostsRule = validation.By(func(value interface{}) error {
	n, _ := value.(*int)
	if n != nil && *n < 1 {
		return validation.NewError("validation_min_posts", "must be at least 1")
	}
	return nil
})

// Validate checks the search filters before a request is issued.
func (f Filters) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Since, dateRule),
		validation.Field(&f.Until, dateRule),
	)
}

// Validate checks the ranking params before a request is issued.
func (p RankingParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Since, dateRule),
		validation.Field(&p.Until, dateRule),
		validation.Field(&p.RankingType, validation.In(RankingPostCount, RankingRecentActivity)),
		validation.Field(&p.MinPosts, minPostsRule),
	)
}
