package model

import (
	"net/url"
	"strconv"
	"strings"
)

// Values mirrors the filters into a query string for shareable links.
// Empty fields are omitted; ascending is always present.
func (f Filters) Values() url.Values {
	v := url.Values{}
	setNonEmpty(v, "id", f.ID)
	setNonEmpty(v, "main_text", f.MainText)
	setNonEmpty(v, "name_and_trip", f.NameAndTrip)
	v.Set("ascending", strconv.FormatBool(f.Ascending))
	setNonEmpty(v, "since", f.Since)
	setNonEmpty(v, "until", f.Until)
	return v
}

// FiltersFromValues is the inverse of Filters.Values. Only the literal
// "true" turns ascending on.
func FiltersFromValues(v url.Values) Filters {
	return Filters{
		ID:          v.Get("id"),
		MainText:    v.Get("main_text"),
		NameAndTrip: v.Get("name_and_trip"),
		Ascending:   v.Get("ascending") == "true",
		Since:       v.Get("since"),
		Until:       v.Get("until"),
	}
}

// Values renders the ranking params as they are sent to the backend:
// only set fields appear.
func (p RankingParams) Values() url.Values {
	v := url.Values{}
	setNonEmpty(v, "id", p.ID)
	setNonEmpty(v, "main_text", p.MainText)
	setNonEmpty(v, "name_and_trip", p.NameAndTrip)
	if p.Oekaki != nil {
		v.Set("oekaki", strconv.FormatBool(*p.Oekaki))
	}
	setNonEmpty(v, "since", p.Since)
	setNonEmpty(v, "until", p.Until)
	setNonEmpty(v, "ranking_type", string(p.RankingType))
	if p.MinPosts != nil {
		v.Set("min_posts", strconv.Itoa(*p.MinPosts))
	}
	return v
}

// RankingParamsFromValues parses a mirrored ranking query string.
// Unparseable oekaki or min_posts values are dropped.
func RankingParamsFromValues(v url.Values) RankingParams {
	p := RankingParams{
		ID:          v.Get("id"),
		MainText:    v.Get("main_text"),
		NameAndTrip: v.Get("name_and_trip"),
		Since:       v.Get("since"),
		Until:       v.Get("until"),
		RankingType: RankingType(v.Get("ranking_type")),
	}
	if s := v.Get("oekaki"); s != "" {
		if b, err := strconv.ParseBool(s); err == nil {
			p.Oekaki = &b
		}
	}
	if s := v.Get("min_posts"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			p.MinPosts = &n
		}
	}
	return p
}

// RankingParamsFromFilters carries the shared form fields over to a ranking query.
func RankingParamsFromFilters(f Filters) RankingParams {
	return RankingParams{
		ID:          f.ID,
		MainText:    f.MainText,
		NameAndTrip: f.NameAndTrip,
		Since:       f.Since,
		Until:       f.Until,
	}
}

// ShareURL joins a web front-end base, a page path and mirrored values into
// a bookmarkable link, e.g. ShareURL("https://bbs.example", "/ranking", v).
func ShareURL(webBase, page string, v url.Values) string {
	u := strings.TrimRight(webBase, "/") + "/" + strings.TrimLeft(page, "/")
	if q := v.Encode(); q != "" {
		u += "?" + q
	}
	return u
}

func setNonEmpty(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}
