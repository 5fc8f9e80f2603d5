package model

import (
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFiltersValuesOmitsEmpty(t *testing.T) {
	f := Filters{ID: "abc", Ascending: false}
	v := f.Values()

	if got := v.Get("id"); got != "abc" {
		t.Errorf("id = %q, want abc", got)
	}
	if got := v.Get("ascending"); got != "false" {
		t.Errorf("ascending = %q, want false", got)
	}
	for _, key := range []string{"main_text", "name_and_trip", "since", "until"} {
		if _, ok := v[key]; ok {
			t.Errorf("%s should be omitted when empty", key)
		}
	}
}

func TestFiltersRoundTrip(t *testing.T) {
	want := Filters{
		ID:          "xYz",
		MainText:    "お絵かき",
		NameAndTrip: "名無し◆trip",
		Ascending:   true,
		Since:       "2024-01-01",
		Until:       "2024-02-01",
	}
	got := FiltersFromValues(want.Values())
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestFiltersFromValuesAscendingLiteral(t *testing.T) {
	for _, s := range []string{"", "1", "TRUE", "yes"} {
		if FiltersFromValues(url.Values{"ascending": {s}}).Ascending {
			t.Errorf("ascending=%q should not enable ascending", s)
		}
	}
}

func TestRankingParamsValues(t *testing.T) {
	oekaki := true
	min := 3
	p := RankingParams{
		MainText:    "hello",
		Oekaki:      &oekaki,
		RankingType: RankingRecentActivity,
		MinPosts:    &min,
	}
	v := p.Values()

	want := url.Values{
		"main_text":    {"hello"},
		"oekaki":       {"true"},
		"ranking_type": {"recent_activity"},
		"min_posts":    {"3"},
	}
	if diff := cmp.Diff(want, v); diff != "" {
		t.Errorf("Values() mismatch (-want +got):\n%s", diff)
	}

	back := RankingParamsFromValues(v)
	if diff := cmp.Diff(p, back); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRankingParamsEmpty(t *testing.T) {
	if got := (RankingParams{}).Values().Encode(); got != "" {
		t.Errorf("empty params encoded to %q, want empty", got)
	}
}

func TestShareURL(t *testing.T) {
	v := url.Values{"id": {"abc"}}
	tests := []struct {
		base, page, want string
	}{
		{"https://bbs.example", "/ranking", "https://bbs.example/ranking?id=abc"},
		{"https://bbs.example/", "oekaki", "https://bbs.example/oekaki?id=abc"},
	}
	for _, tt := range tests {
		if got := ShareURL(tt.base, tt.page, v); got != tt.want {
			t.Errorf("ShareURL(%q, %q) = %q, want %q", tt.base, tt.page, got, tt.want)
		}
	}
	if got := ShareURL("https://bbs.example", "/", nil); got != "https://bbs.example/" {
		t.Errorf("ShareURL without values = %q", got)
	}
}
