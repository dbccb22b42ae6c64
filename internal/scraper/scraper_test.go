package scraper

import (
	"testing"
	"time"
)

func TestFullHistoryWindow(t *testing.T) {
	w := FullHistory()

	if w.Start.Year() != 2000 {
		t.Errorf("full-history start year = %d, want 2000", w.Start.Year())
	}
	if !w.End.After(time.Now().UTC()) {
		t.Error("full-history end should extend past now for clock skew")
	}
	if w.End.After(time.Now().UTC().Add(25 * time.Hour)) {
		t.Error("full-history forward slack should be about one day")
	}
}

func TestTrailingWindow(t *testing.T) {
	w := TrailingWindow(365)
	now := time.Now().UTC()

	if w.Start.After(now.AddDate(0, 0, -364)) {
		t.Error("trailing window start should be about 365 days back")
	}
	if !w.Contains(now) {
		t.Error("trailing window should contain now")
	}
	if w.Contains(now.AddDate(-2, 0, 0)) {
		t.Error("trailing window should exclude uploads two years old")
	}
}

func TestDateRangeContainsZeroTime(t *testing.T) {
	w := TrailingWindow(30)
	if !w.Contains(time.Time{}) {
		t.Error("zero upload date should be treated as inside the window")
	}
}

func TestPickTrack(t *testing.T) {
	testCases := []struct {
		name   string
		tracks []captionTrack
		want   string
	}{
		{
			name: "prefers manual english over asr",
			tracks: []captionTrack{
				{LanguageCode: "en", Kind: "asr", BaseURL: "asr"},
				{LanguageCode: "en", BaseURL: "manual"},
			},
			want: "manual",
		},
		{
			name: "falls back to english variant",
			tracks: []captionTrack{
				{LanguageCode: "de", BaseURL: "de"},
				{LanguageCode: "en-GB", Kind: "asr", BaseURL: "en-gb"},
			},
			want: "en-gb",
		},
		{
			name: "falls back to first track",
			tracks: []captionTrack{
				{LanguageCode: "ja", BaseURL: "ja"},
				{LanguageCode: "ko", BaseURL: "ko"},
			},
			want: "ja",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := pickTrack(tc.tracks)
			if got.BaseURL != tc.want {
				t.Errorf("pickTrack selected %q, want %q", got.BaseURL, tc.want)
			}
		})
	}
}
