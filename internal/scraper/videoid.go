package scraper

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	videoIDPattern = regexp.MustCompile(`^[0-9A-Za-z_-]{11}$`)

	// URL forms that embed an 11-character video ID: watch?v=, youtu.be/,
	// /embed/, /shorts/, /v/, /vi/.
	urlIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`[?&]v=([0-9A-Za-z_-]{11})`),
		regexp.MustCompile(`youtu\.be/([0-9A-Za-z_-]{11})`),
		regexp.MustCompile(`/(?:embed|shorts|v|vi)/([0-9A-Za-z_-]{11})`),
	}
)

// ExtractVideoID accepts either a bare 11-character video ID or a full
// YouTube URL and returns the video ID.
func ExtractVideoID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty video id")
	}

	if videoIDPattern.MatchString(raw) {
		return raw, nil
	}

	if strings.Contains(raw, "youtube.com") || strings.Contains(raw, "youtu.be") {
		for _, p := range urlIDPatterns {
			if m := p.FindStringSubmatch(raw); m != nil {
				return m[1], nil
			}
		}
		return "", fmt.Errorf("could not extract a video id from url %q", raw)
	}

	return "", fmt.Errorf("invalid video id %q: expected 11-character YouTube video ID", raw)
}

// ValidChannelID performs the basic shape check used before admitting a
// channel job.
func ValidChannelID(id string) bool {
	return len(strings.TrimSpace(id)) >= 10
}

// WatchURL returns the canonical watch URL for a video ID.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}
