// Package speech synthesizes narration audio via the OpenAI TTS API.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"product-reel-pipeline/config"
	"product-reel-pipeline/types"
)

const ttsEndpoint = "https://api.openai.com/v1/audio/speech"

// Generator turns script text into an audio artifact
type Generator struct {
	cfg        *config.Config
	httpClient *http.Client
	endpoint   string
}

// New creates a new Generator
func New(cfg *config.Config) *Generator {
	return &Generator{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.Speech.TimeoutSec) * time.Second},
		endpoint:   ttsEndpoint,
	}
}

type ttsRequest struct {
	Model          string `json:"model"`
	Voice          string `json:"voice"`
	Input          string `json:"input"`
	ResponseFormat string `json:"response_format"`
}

// Synthesize converts text to speech and returns the saved artifact
// with its measured duration. The request is retried with backoff on
// transient failures.
func (g *Generator) Synthesize(ctx context.Context, text, voice string, outputDir string) (*types.AudioArtifact, error) {
	log.Println("[speech] Synthesizing narration audio...")

	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty narration text")
	}
	if voice == "" {
		voice = g.cfg.Speech.Voice
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("create audio dir: %w", err)
	}

	outFile := filepath.Join(outputDir, fmt.Sprintf("speech_%d.%s", time.Now().UnixNano(), g.format()))

	op := func() error {
		return g.requestSpeech(ctx, text, voice, outFile)
	}
	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(g.cfg.Speech.MaxRetries))
	if err := backoff.Retry(op, backoff.WithContext(policy, ctx)); err != nil {
		return nil, fmt.Errorf("tts request: %w", err)
	}

	// Duration is measured, never estimated from text length
	dur, err := AudioDuration(outFile)
	if err != nil {
		return nil, fmt.Errorf("measure audio duration: %w", err)
	}

	log.Printf("[speech] ✅ Audio ready: %s (%.2fs)", outFile, dur)
	return &types.AudioArtifact{Path: outFile, DurationSec: dur}, nil
}

func (g *Generator) requestSpeech(ctx context.Context, text, voice, outFile string) error {
	body, err := json.Marshal(ttsRequest{
		Model:          g.cfg.Speech.Model,
		Voice:          voice,
		Input:          text,
		ResponseFormat: g.format(),
	})
	if err != nil {
		return backoff.Permanent(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("Authorization", "Bearer "+g.cfg.Secrets.OpenAIAPIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusBadRequest {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return backoff.Permanent(fmt.Errorf("tts HTTP %d: %s", resp.StatusCode, detail))
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tts HTTP %d", resp.StatusCode)
	}

	f, err := os.Create(outFile)
	if err != nil {
		return backoff.Permanent(err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return err
	}
	return nil
}

func (g *Generator) format() string {
	if g.cfg.Speech.Format != "" {
		return g.cfg.Speech.Format
	}
	return "mp3"
}

// AudioDuration reads the accurate duration in seconds via ffprobe
func AudioDuration(path string) (float64, error) {
	out, err := exec.Command("ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	).Output()
	if err != nil {
		return 0, err
	}
	var dur float64
	_, err = fmt.Sscanf(strings.TrimSpace(string(out)), "%f", &dur)
	return dur, err
}
