package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/timmy/tubescribe/internal/config"
	"github.com/timmy/tubescribe/internal/domain"
	"github.com/timmy/tubescribe/internal/export"
	"github.com/timmy/tubescribe/internal/logger"
	"github.com/timmy/tubescribe/internal/scraper"
	"github.com/timmy/tubescribe/internal/service"
)

type stubScraper struct {
	video   func(videoID string, window scraper.DateRange) ([]scraper.Record, error)
	channel func(channelID string, max int, window scraper.DateRange) ([]scraper.Record, error)
}

func (s *stubScraper) ScrapeVideo(_ context.Context, videoID string, window scraper.DateRange) ([]scraper.Record, error) {
	return s.video(videoID, window)
}

func (s *stubScraper) ScrapeChannel(_ context.Context, channelID string, max int, window scraper.DateRange) ([]scraper.Record, error) {
	return s.channel(channelID, max, window)
}

func setup(t *testing.T, sc scraper.Scraper, apiKey string) (http.Handler, *service.JobStateStore) {
	t.Helper()

	cfg := &config.Config{}
	cfg.Server.Mode = "test"
	cfg.Auth.APIKey = apiKey

	store := service.NewJobStateStore()
	exporter := export.NewExporter(t.TempDir(), logger.GetDefault())
	runner := service.NewRunner(store, sc, exporter, logger.GetDefault(), nil)
	runner.Start()
	t.Cleanup(runner.Stop)

	return SetupRouter(store, runner, exporter, cfg, logger.GetDefault()), store
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decoding response %q: %v", w.Body.String(), err)
	}
	return out
}

// waitForIdle polls the status endpoint until no job is in flight.
func waitForIdle(t *testing.T, h http.Handler) map[string]any {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		w := doJSON(t, h, http.MethodGet, "/api/scrape/status", nil, nil)
		body := decode(t, w)
		if body["status"] != string(domain.JobStatusRunning) && body["current_job"] == nil {
			return body
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("job did not finish in time")
	return nil
}

func sampleRecord(id string) scraper.Record {
	return scraper.Record{
		VideoID:         id,
		Title:           "Test Video",
		ChannelName:     "Test Channel",
		ChannelID:       "UCtestchannel",
		UploadDate:      "2025-01-15",
		URL:             scraper.WatchURL(id),
		Language:        "en",
		DurationSeconds: 120,
		Transcript: []scraper.TranscriptChunk{
			{Text: "hello", Start: 0, Duration: 1},
			{Text: "world", Start: 1, Duration: 1},
		},
	}
}

func TestScrapeVideoValidation(t *testing.T) {
	h, _ := setup(t, &stubScraper{}, "")

	testCases := []struct {
		name string
		body any
	}{
		{name: "missing body", body: nil},
		{name: "missing video_id", body: map[string]string{}},
		{name: "malformed id", body: map[string]string{"video_id": "nope"}},
		{name: "url without id", body: map[string]string{"video_id": "https://www.youtube.com/feed/library"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(t, h, http.MethodPost, "/api/scrape/video", tc.body, nil)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestScrapeChannelValidation(t *testing.T) {
	h, _ := setup(t, &stubScraper{}, "")

	w := doJSON(t, h, http.MethodPost, "/api/scrape/channel", map[string]any{"channel_id": "short"}, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestScrapeConflictWhileJobRunning(t *testing.T) {
	h, store := setup(t, &stubScraper{}, "")

	// Simulate an in-flight job without involving the runner.
	if !store.TryAdmit(domain.JobDescriptor{Kind: domain.JobKindVideo, Target: "dQw4w9WgXcQ"}) {
		t.Fatal("admission should succeed")
	}

	w := doJSON(t, h, http.MethodPost, "/api/scrape/video",
		map[string]string{"video_id": "aBcDeFgHiJk"}, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
	body := decode(t, w)
	if body["message"] != "Another job is already running" {
		t.Errorf("conflict message = %v", body["message"])
	}
	if body["current_job"] == nil {
		t.Error("conflict response should include the current job")
	}
}

func TestScrapeChannelClampsMaxVideos(t *testing.T) {
	gotMax := make(chan int, 1)
	sc := &stubScraper{
		channel: func(_ string, max int, _ scraper.DateRange) ([]scraper.Record, error) {
			gotMax <- max
			return nil, nil
		},
	}
	h, _ := setup(t, sc, "")

	w := doJSON(t, h, http.MethodPost, "/api/scrape/channel",
		map[string]any{"channel_id": "UCtestchannel", "max_videos": 15}, nil)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202, body %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if body["max_videos"] != float64(10) {
		t.Errorf("response max_videos = %v, want 10", body["max_videos"])
	}

	select {
	case max := <-gotMax:
		if max != 10 {
			t.Errorf("scraper received max = %d, want clamped 10", max)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("scraper was never invoked")
	}
	waitForIdle(t, h)
}

func TestAPIKeyAuth(t *testing.T) {
	h, _ := setup(t, &stubScraper{}, "sekret")

	if w := doJSON(t, h, http.MethodGet, "/api/scrape/status", nil, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("missing key: status = %d, want 401", w.Code)
	}
	if w := doJSON(t, h, http.MethodGet, "/api/scrape/status", nil, map[string]string{"X-API-KEY": "wrong"}); w.Code != http.StatusUnauthorized {
		t.Errorf("wrong key: status = %d, want 401", w.Code)
	}
	if w := doJSON(t, h, http.MethodGet, "/api/scrape/status", nil, map[string]string{"X-API-KEY": "sekret"}); w.Code != http.StatusOK {
		t.Errorf("correct key: status = %d, want 200", w.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	h, _ := setup(t, &stubScraper{}, "sekret")

	req := httptest.NewRequest(http.MethodOptions, "/api/scrape/video", nil)
	req.Header.Set("Origin", "https://example.com")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	// Preflight passes without the API key.
	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
	if !strings.Contains(w.Header().Get("Access-Control-Allow-Headers"), "X-API-KEY") {
		t.Error("preflight should allow the X-API-KEY header")
	}
}

func TestResultBeforeAnyJob(t *testing.T) {
	h, _ := setup(t, &stubScraper{}, "")

	w := doJSON(t, h, http.MethodGet, "/api/scrape/result", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := decode(t, w)
	if body["message"] != "No results available yet" {
		t.Errorf("message = %v", body["message"])
	}
}

func TestDownloadUnknownVideo(t *testing.T) {
	h, store := setup(t, &stubScraper{}, "")

	store.Complete(&domain.JobOutcome{
		Status: domain.JobStatusCompleted,
		Kind:   domain.JobKindVideo,
		Target: "dQw4w9WgXcQ",
		Items:  []domain.RecordView{{VideoID: "dQw4w9WgXcQ", Title: "T"}},
	})

	w := doJSON(t, h, http.MethodGet, "/api/download/text/unknownvid1", nil, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestDownloadSynthesizesMissingArtifact(t *testing.T) {
	h, store := setup(t, &stubScraper{}, "")

	// Item exists in the outcome but was never exported.
	store.Complete(&domain.JobOutcome{
		Status: domain.JobStatusCompleted,
		Kind:   domain.JobKindVideo,
		Target: "dQw4w9WgXcQ",
		Items: []domain.RecordView{{
			VideoID:        "dQw4w9WgXcQ",
			Title:          "Synth Me",
			TranscriptText: "some words",
		}},
	})

	w := doJSON(t, h, http.MethodGet, "/api/download/text/dQw4w9WgXcQ", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Errorf("Content-Disposition = %q, want attachment", cd)
	}
	if !strings.Contains(w.Body.String(), "some words") {
		t.Error("synthesized artifact should contain the transcript")
	}

	// The stored outcome is not retroactively updated.
	if got := store.Result().Items[0].TextPath; got != "" {
		t.Errorf("stored TextPath = %q, want empty after on-demand synthesis", got)
	}
}

func TestDownloadDeletedArtifactIs404(t *testing.T) {
	h, store := setup(t, &stubScraper{}, "")

	// Recorded path whose file no longer exists: not found, no re-synthesis.
	store.Complete(&domain.JobOutcome{
		Status: domain.JobStatusCompleted,
		Kind:   domain.JobKindVideo,
		Target: "dQw4w9WgXcQ",
		Items: []domain.RecordView{{
			VideoID:  "dQw4w9WgXcQ",
			Title:    "Gone",
			TextPath: "/nonexistent/path/Gone-20250101_000000-dQw4w9WgXcQ.txt",
		}},
	})

	w := doJSON(t, h, http.MethodGet, "/api/download/text/dQw4w9WgXcQ", nil, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestVideoScrapeScenario(t *testing.T) {
	const videoID = "dQw4w9WgXcQ"
	sc := &stubScraper{
		video: func(id string, _ scraper.DateRange) ([]scraper.Record, error) {
			return []scraper.Record{sampleRecord(id)}, nil
		},
	}
	h, _ := setup(t, sc, "")

	// Submit
	w := doJSON(t, h, http.MethodPost, "/api/scrape/video",
		map[string]string{"video_id": videoID}, nil)
	if w.Code != http.StatusAccepted {
		t.Fatalf("submit status = %d, want 202, body %s", w.Code, w.Body.String())
	}
	started := decode(t, w)
	if started["status"] != "started" || started["video_id"] != videoID {
		t.Errorf("submit body = %v", started)
	}

	// Poll until done
	final := waitForIdle(t, h)
	if final["status"] != string(domain.JobStatusCompleted) {
		t.Fatalf("final status = %v, want completed", final["status"])
	}

	// Fetch result
	w = doJSON(t, h, http.MethodGet, "/api/scrape/result", nil, nil)
	body := decode(t, w)
	result, ok := body["result"].(map[string]any)
	if !ok {
		t.Fatalf("result missing: %v", body)
	}
	items, ok := result["data"].([]any)
	if !ok || len(items) != 1 {
		t.Fatalf("data = %v, want one item", result["data"])
	}
	item := items[0].(map[string]any)
	if item["video_id"] != videoID {
		t.Errorf("item video_id = %v", item["video_id"])
	}
	wantText := fmt.Sprintf("/api/download/text/%s", videoID)
	wantPDF := fmt.Sprintf("/api/download/pdf/%s", videoID)
	if item["text_download_url"] != wantText || item["pdf_download_url"] != wantPDF {
		t.Errorf("download urls = %v / %v, want %s / %s",
			item["text_download_url"], item["pdf_download_url"], wantText, wantPDF)
	}

	// Download both artifacts through the recorded paths.
	for _, path := range []string{wantText, wantPDF} {
		w := doJSON(t, h, http.MethodGet, path, nil, nil)
		if w.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, w.Code)
		}
	}
}
