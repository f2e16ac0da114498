package types

import "time"

// ProductInfo holds everything scraped from a product listing page.
// It is produced once by the scrape stage and read-only afterward.
type ProductInfo struct {
	Title         string   `json:"title"`
	Price         string   `json:"price"`
	OriginalPrice string   `json:"original_price"`
	Rating        string   `json:"rating"`
	ReviewCount   string   `json:"review_count"`
	Description   string   `json:"description"`
	ImageURLs     []string `json:"image_urls"`
	SourceURL     string   `json:"source_url"`
}

// Scene is one shot in the generated video script
type Scene struct {
	Index       int     `json:"index"`
	Description string  `json:"description"`
	DurationSec float64 `json:"duration_sec"`
}

// Script is the full structured script for one product video.
// Scene durations target the total video length but are not forced to
// sum exactly; composition reconciles real durations later.
type Script struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Narration   string   `json:"narration"`
	Hashtags    []string `json:"hashtags"`
	Scenes      []Scene  `json:"scenes"`
	Fallback    bool     `json:"fallback"`
}

// AudioArtifact is a synthesized narration file with its measured
// duration. Duration is probed rather than assumed, since synthesis
// length is not predictable from script length.
type AudioArtifact struct {
	Path        string  `json:"path"`
	DurationSec float64 `json:"duration_sec"`
}

// VideoArtifact is a generated clip (or final concatenation of clips)
type VideoArtifact struct {
	Path        string  `json:"path"`
	DurationSec float64 `json:"duration_sec"`
}

// SubtitleArtifact is a timed-text (SRT) file aligned to an audio artifact
type SubtitleArtifact struct {
	Path string `json:"path"`
}

// CompositionResult is the final merged video file
type CompositionResult struct {
	Path string `json:"path"`
}

// UploadOutcome records one publish target's result
type UploadOutcome struct {
	Target  string `json:"target"`
	Success bool   `json:"success"`
	MediaID string `json:"media_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// PipelineResult is the terminal result of one pipeline run.
// Exactly one shape is populated: the success payload, or Error.
type PipelineResult struct {
	Success    bool                     `json:"success"`
	Product    *ProductInfo             `json:"product,omitempty"`
	Script     *Script                  `json:"script,omitempty"`
	VideoPath  string                   `json:"video_path,omitempty"`
	Uploads    map[string]UploadOutcome `json:"uploads,omitempty"`
	Error      string                   `json:"error,omitempty"`
	FinishedAt time.Time                `json:"finished_at"`
}
