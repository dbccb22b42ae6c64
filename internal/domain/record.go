package domain

// RecordView is the normalized, externally-shareable view of one
// scraped video. Artifact paths are filled in by the runner before the
// owning outcome is published; they stay empty when export failed.
type RecordView struct {
	VideoID          string `json:"video_id"`
	Title            string `json:"title"`
	ChannelName      string `json:"channel_name"`
	ChannelID        string `json:"channel_id"`
	UploadDate       string `json:"upload_date"`
	URL              string `json:"url"`
	Language         string `json:"language"`
	DurationSeconds  int    `json:"duration_seconds"`
	TranscriptText   string `json:"transcript_text"`
	TranscriptChunks int    `json:"transcript_chunks"`

	// Set when the underlying video is an unavailable placeholder.
	Error string `json:"error,omitempty"`

	TextPath string `json:"transcript_file,omitempty"`
	PDFPath  string `json:"transcript_pdf_file,omitempty"`

	// Download URLs, filled in by the result handler on read.
	TextDownloadURL string `json:"text_download_url,omitempty"`
	PDFDownloadURL  string `json:"pdf_download_url,omitempty"`
}
