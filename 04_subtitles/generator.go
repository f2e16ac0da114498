// Package subtitles builds a timed-text (SRT) file from the narration
// script, aligned to the measured audio duration.
package subtitles

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"product-reel-pipeline/config"
	"product-reel-pipeline/types"
)

// Generator builds SRT subtitle artifacts
type Generator struct {
	cfg *config.Config
}

// New creates a new Generator
func New(cfg *config.Config) *Generator {
	return &Generator{cfg: cfg}
}

// Cue is one subtitle block
type Cue struct {
	StartSec float64
	EndSec   float64
	Text     string
}

// Generate writes an SRT file whose cues span exactly audioDurationSec.
// Cue lengths are proportional to word count, so longer sentences stay
// on screen longer.
func (g *Generator) Generate(ctx context.Context, text string, audioDurationSec float64, outputDir string) (*types.SubtitleArtifact, error) {
	log.Println("[subtitles] Building SRT from script...")

	cues := BuildCues(text, audioDurationSec, g.maxChars())
	if len(cues) == 0 {
		return nil, fmt.Errorf("no subtitle cues could be built from script text")
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, err
	}

	outFile := filepath.Join(outputDir, fmt.Sprintf("subtitles_%d.srt", time.Now().UnixNano()))
	if err := os.WriteFile(outFile, []byte(FormatSRT(cues)), 0644); err != nil {
		return nil, fmt.Errorf("write srt: %w", err)
	}

	log.Printf("[subtitles] ✅ SRT generated: %s (%d cues)", outFile, len(cues))
	return &types.SubtitleArtifact{Path: outFile}, nil
}

func (g *Generator) maxChars() int {
	if g.cfg.Subtitles.MaxCharsPerCue > 0 {
		return g.cfg.Subtitles.MaxCharsPerCue
	}
	return 42
}

// BuildCues splits text into sentence-sized chunks and distributes the
// total duration across them proportionally to word count. The last cue
// always ends exactly at totalSec.
func BuildCues(text string, totalSec float64, maxChars int) []Cue {
	chunks := splitChunks(text, maxChars)
	if len(chunks) == 0 || totalSec <= 0 {
		return nil
	}

	totalWords := 0
	for _, c := range chunks {
		totalWords += len(strings.Fields(c))
	}
	if totalWords == 0 {
		return nil
	}

	var cues []Cue
	elapsed := 0.0
	for i, c := range chunks {
		share := float64(len(strings.Fields(c))) / float64(totalWords)
		end := elapsed + totalSec*share
		if i == len(chunks)-1 {
			end = totalSec // absorb rounding drift
		}
		cues = append(cues, Cue{StartSec: elapsed, EndSec: end, Text: c})
		elapsed = end
	}
	return cues
}

// splitChunks breaks the narration on sentence boundaries, then wraps
// any sentence longer than maxChars at word boundaries
func splitChunks(text string, maxChars int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var sentences []string
	var current strings.Builder
	for _, r := range text {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	var chunks []string
	for _, s := range sentences {
		chunks = append(chunks, wrap(s, maxChars)...)
	}
	return chunks
}

func wrap(s string, maxChars int) []string {
	if len([]rune(s)) <= maxChars {
		return []string{s}
	}
	var out []string
	var line strings.Builder
	for _, word := range strings.Fields(s) {
		if line.Len() > 0 && line.Len()+1+len(word) > maxChars {
			out = append(out, line.String())
			line.Reset()
		}
		if line.Len() > 0 {
			line.WriteByte(' ')
		}
		line.WriteString(word)
	}
	if line.Len() > 0 {
		out = append(out, line.String())
	}
	return out
}

// FormatSRT renders cues in SubRip format
func FormatSRT(cues []Cue) string {
	var sb strings.Builder
	for i, c := range cues {
		sb.WriteString(fmt.Sprintf("%d\n", i+1))
		sb.WriteString(fmt.Sprintf("%s --> %s\n", srtTimestamp(c.StartSec), srtTimestamp(c.EndSec)))
		sb.WriteString(c.Text)
		sb.WriteString("\n\n")
	}
	return sb.String()
}

func srtTimestamp(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	ms := int(sec*1000 + 0.5)
	h := ms / 3600000
	ms -= h * 3600000
	m := ms / 60000
	ms -= m * 60000
	s := ms / 1000
	ms -= s * 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}
