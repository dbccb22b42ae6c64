package scraper

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/timmy/tubescribe/internal/logger"
)

const (
	playerEndpoint  = "https://www.youtube.com/youtubei/v1/player"
	channelFeedURL  = "https://www.youtube.com/feeds/videos.xml?channel_id=%s"
	innertubeClient = "ANDROID"
	innertubeVer    = "20.10.38"
)

// Config holds configuration for the YouTube client.
type Config struct {
	Timeout    time.Duration
	RetryCount int
}

// Client scrapes transcripts through YouTube's innertube player API and
// the per-track timedtext endpoint. Channel listings come from the
// public uploads feed.
type Client struct {
	http   *resty.Client
	logger *logger.Logger
}

// NewClient creates a new YouTube scraper client.
func NewClient(cfg *Config, log *logger.Logger) *Client {
	client := resty.New()
	client.SetHeader("Content-Type", "application/json")
	client.SetHeader("User-Agent", "com.google.android.youtube/"+innertubeVer)
	// Timeout and retries guard against hanging transcript fetches
	client.SetTimeout(cfg.Timeout)
	client.SetRetryCount(cfg.RetryCount)
	client.SetRetryWaitTime(2 * time.Second)

	return &Client{
		http:   client,
		logger: log,
	}
}

type playerRequest struct {
	Context playerContext `json:"context"`
	VideoID string        `json:"videoId"`
}

type playerContext struct {
	Client playerClient `json:"client"`
}

type playerClient struct {
	ClientName    string `json:"clientName"`
	ClientVersion string `json:"clientVersion"`
}

type playerResponse struct {
	PlayabilityStatus struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	VideoDetails struct {
		VideoID       string `json:"videoId"`
		Title         string `json:"title"`
		Author        string `json:"author"`
		ChannelID     string `json:"channelId"`
		LengthSeconds string `json:"lengthSeconds"`
	} `json:"videoDetails"`
	Microformat struct {
		PlayerMicroformatRenderer struct {
			PublishDate string `json:"publishDate"`
		} `json:"playerMicroformatRenderer"`
	} `json:"microformat"`
	Captions struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
}

type timedTextResponse struct {
	Events []struct {
		StartMs    int64 `json:"tStartMs"`
		DurationMs int64 `json:"dDurationMs"`
		Segs       []struct {
			UTF8 string `json:"utf8"`
		} `json:"segs"`
	} `json:"events"`
}

// ScrapeVideo fetches metadata and the transcript for one video.
func (c *Client) ScrapeVideo(ctx context.Context, videoID string, window DateRange) ([]Record, error) {
	player, err := c.fetchPlayer(ctx, videoID)
	if err != nil {
		return nil, err
	}

	rec := Record{
		VideoID:     videoID,
		Title:       player.VideoDetails.Title,
		ChannelName: player.VideoDetails.Author,
		ChannelID:   player.VideoDetails.ChannelID,
		UploadDate:  player.Microformat.PlayerMicroformatRenderer.PublishDate,
		URL:         WatchURL(videoID),
	}
	if n, err := strconv.Atoi(player.VideoDetails.LengthSeconds); err == nil {
		rec.DurationSeconds = n
	}

	if upload, err := time.Parse("2006-01-02", rec.UploadDate); err == nil && !window.Contains(upload) {
		c.logger.WithFields(logger.Fields{
			"video_id":    videoID,
			"upload_date": rec.UploadDate,
		}).Debug("Video outside query window, skipping")
		return nil, nil
	}

	tracks := player.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	if len(tracks) == 0 {
		return nil, fmt.Errorf("video %s: %w", videoID, ErrTranscriptsDisabled)
	}

	track := pickTrack(tracks)
	rec.Language = track.LanguageCode

	chunks, err := c.fetchTranscript(ctx, track.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("video %s: %w", videoID, err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("video %s: %w", videoID, ErrNoTranscript)
	}
	rec.Transcript = chunks

	c.logger.WithFields(logger.Fields{
		"video_id": videoID,
		"chunks":   len(chunks),
		"language": rec.Language,
	}).Info("Scraped video transcript")

	return []Record{rec}, nil
}

// ScrapeChannel lists recent uploads from the channel feed and scrapes
// each video inside the window, up to max. Per-video failures are
// logged and skipped so one bad upload does not sink the batch.
func (c *Client) ScrapeChannel(ctx context.Context, channelID string, max int, window DateRange) ([]Record, error) {
	ids, err := c.listUploads(ctx, channelID, max, window)
	if err != nil {
		return nil, err
	}

	var records []Record
	for _, id := range ids {
		recs, err := c.ScrapeVideo(ctx, id, window)
		if err != nil {
			c.logger.WithFields(logger.Fields{
				"channel_id": channelID,
				"video_id":   id,
			}).WithError(err).Warn("Skipping channel video")
			continue
		}
		records = append(records, recs...)
	}

	return records, nil
}

func (c *Client) fetchPlayer(ctx context.Context, videoID string) (*playerResponse, error) {
	var player playerResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(&playerRequest{
			Context: playerContext{Client: playerClient{
				ClientName:    innertubeClient,
				ClientVersion: innertubeVer,
			}},
			VideoID: videoID,
		}).
		SetResult(&player).
		Post(playerEndpoint)
	if err != nil {
		return nil, fmt.Errorf("player request for %s: %w", videoID, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("player request for %s: unexpected status %d", videoID, resp.StatusCode())
	}

	switch player.PlayabilityStatus.Status {
	case "", "OK":
		return &player, nil
	case "ERROR", "UNPLAYABLE", "LOGIN_REQUIRED":
		return nil, fmt.Errorf("video %s: %s: %w",
			videoID, player.PlayabilityStatus.Reason, ErrVideoUnplayable)
	default:
		return nil, fmt.Errorf("video %s: playability status %s (%s)",
			videoID, player.PlayabilityStatus.Status, player.PlayabilityStatus.Reason)
	}
}

func (c *Client) fetchTranscript(ctx context.Context, baseURL string) ([]TranscriptChunk, error) {
	var timed timedTextResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&timed).
		SetQueryParam("fmt", "json3").
		ForceContentType("application/json").
		Get(baseURL)
	if err != nil {
		return nil, fmt.Errorf("timedtext request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("timedtext request: unexpected status %d", resp.StatusCode())
	}

	var chunks []TranscriptChunk
	for _, ev := range timed.Events {
		var b strings.Builder
		for _, seg := range ev.Segs {
			b.WriteString(seg.UTF8)
		}
		text := strings.TrimSpace(b.String())
		if text == "" {
			continue
		}
		chunks = append(chunks, TranscriptChunk{
			Text:     text,
			Start:    float64(ev.StartMs) / 1000,
			Duration: float64(ev.DurationMs) / 1000,
		})
	}
	return chunks, nil
}

type channelFeed struct {
	Entries []struct {
		VideoID   string `xml:"videoId"`
		Published string `xml:"published"`
	} `xml:"entry"`
}

func (c *Client) listUploads(ctx context.Context, channelID string, max int, window DateRange) ([]string, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get(fmt.Sprintf(channelFeedURL, channelID))
	if err != nil {
		return nil, fmt.Errorf("channel feed for %s: %w", channelID, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, fmt.Errorf("channel %s not found", channelID)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("channel feed for %s: unexpected status %d", channelID, resp.StatusCode())
	}

	var feed channelFeed
	if err := xml.Unmarshal(resp.Body(), &feed); err != nil {
		return nil, fmt.Errorf("channel feed for %s: %w", channelID, err)
	}

	var ids []string
	for _, entry := range feed.Entries {
		if len(ids) >= max {
			break
		}
		if published, err := time.Parse(time.RFC3339, entry.Published); err == nil && !window.Contains(published) {
			continue
		}
		ids = append(ids, entry.VideoID)
	}

	c.logger.WithFields(logger.Fields{
		"channel_id": channelID,
		"count":      len(ids),
	}).Info("Listed channel uploads")

	return ids, nil
}

// pickTrack prefers an English manually-created track, then any English
// track, then the first available.
func pickTrack(tracks []captionTrack) captionTrack {
	for _, t := range tracks {
		if t.LanguageCode == "en" && t.Kind != "asr" {
			return t
		}
	}
	for _, t := range tracks {
		if strings.HasPrefix(t.LanguageCode, "en") {
			return t
		}
	}
	return tracks[0]
}
