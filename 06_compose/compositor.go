package compose

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"product-reel-pipeline/config"
	"product-reel-pipeline/types"
)

// Compositor merges the video, audio and optional subtitle artifacts
// into the final deliverable file
type Compositor struct {
	cfg *config.Config
}

// New creates a new Compositor
func New(cfg *config.Config) *Compositor {
	return &Compositor{cfg: cfg}
}

// Compose binds the audio track onto the video track after reconciling
// their durations, burns subtitles when the SRT file exists, and encodes
// the final file at the configured frame rate. Intermediate inputs are
// the caller's to release; a failed compose leaves no partial output
// behind.
func (c *Compositor) Compose(ctx context.Context, video *types.VideoArtifact, audio *types.AudioArtifact, subs *types.SubtitleArtifact, outputDir string) (*types.CompositionResult, error) {
	log.Println("[compose] Merging video + audio...")

	trim := Reconcile(video.DurationSec, audio.DurationSec)
	switch {
	case trim.TrimAudio:
		log.Printf("[compose] Audio %.2fs > video %.2fs, trimming audio to %.2fs", audio.DurationSec, video.DurationSec, trim.DurationSec)
	case trim.TrimVideo:
		log.Printf("[compose] Video %.2fs > audio %.2fs, trimming video to %.2fs", video.DurationSec, audio.DurationSec, trim.DurationSec)
	}

	srtPath := ""
	if subs != nil && subs.Path != "" {
		if _, err := os.Stat(subs.Path); err == nil {
			srtPath = subs.Path
		} else {
			// Missing subtitle file is not a failure; compose without it
			log.Printf("[compose] Subtitle file absent, skipping burn: %s", subs.Path)
		}
	}

	outFile := filepath.Join(outputDir, "final_video.mp4")
	args := c.buildArgs(video.Path, audio.Path, srtPath, outFile, trim)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		_ = os.Remove(outFile)
		return nil, fmt.Errorf("ffmpeg compose: %w", err)
	}

	log.Printf("[compose] ✅ Final video ready: %s (%.2fs)", outFile, trim.DurationSec)
	return &types.CompositionResult{Path: outFile}, nil
}

// buildArgs assembles the full ffmpeg argument list. Split out so the
// exact invocation is testable without running ffmpeg.
func (c *Compositor) buildArgs(videoPath, audioPath, srtPath, outFile string, trim Trim) []string {
	dur := trim.DurationSec
	if dur <= 0 {
		// Zero-duration reconciliation still yields a playable file:
		// clamp to a single frame
		dur = 1.0 / float64(c.cfg.Compose.FPS)
	}

	args := []string{"-y",
		"-i", videoPath,
		"-i", audioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
	}

	if srtPath != "" {
		args = append(args, "-vf", subtitleFilter(srtPath, c.cfg.Subtitles.FontSize, c.cfg.Subtitles.MarginBottom))
	}

	args = append(args,
		"-t", fmt.Sprintf("%.3f", dur),
		"-c:v", c.cfg.Compose.VideoCodec,
		"-preset", "fast",
		"-r", fmt.Sprintf("%d", c.cfg.Compose.FPS),
		"-pix_fmt", "yuv420p",
		"-c:a", c.cfg.Compose.AudioCodec,
		"-b:a", c.cfg.Compose.AudioBitrate,
		"-movflags", "+faststart",
		outFile,
	)
	return args
}

func subtitleFilter(srtPath string, fontSize, marginBottom int) string {
	return fmt.Sprintf(
		"subtitles=%s:force_style='FontSize=%d,PrimaryColour=&H00FFFFFF,OutlineColour=&H00000000,Alignment=2,MarginV=%d'",
		escapeSubtitlePath(srtPath), fontSize, marginBottom,
	)
}

// escapeSubtitlePath escapes colons and backslashes for the ffmpeg
// subtitles filter
func escapeSubtitlePath(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	path = strings.ReplaceAll(path, ":", "\\:")
	return path
}
