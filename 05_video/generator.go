// Package video produces the scene clips for a script, preferring a
// remote generation API and falling back to locally drawn placeholder
// clips, then concatenates them into one video artifact.
package video

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
	"product-reel-pipeline/poll"
	"product-reel-pipeline/types"
)

// Generator builds per-scene clips and the final concatenation
type Generator struct {
	cfg        *config.Config
	httpClient *http.Client
}

// New creates a new Generator
func New(cfg *config.Config) *Generator {
	return &Generator{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Generate renders one clip per scene and joins them in order. Remote
// generation failures degrade to placeholder clips per scene; only a
// script with no scenes, or a failed concatenation, fails the stage.
func (g *Generator) Generate(ctx context.Context, script *types.Script, imageURLs []string, outputDir string) (*types.VideoArtifact, error) {
	log.Printf("[video] Generating %d scene clip(s)...", len(script.Scenes))

	if len(script.Scenes) == 0 {
		return nil, fmt.Errorf("script has no scenes")
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("create video dir: %w", err)
	}

	var clips []string
	for i, scene := range script.Scenes {
		prompt := scenePrompt(scene, script.Title)

		var imageURL string
		if i < len(imageURLs) {
			imageURL = imageURLs[i]
		}

		clip, err := g.generateScene(ctx, prompt, imageURL, scene, outputDir)
		if err != nil {
			log.Printf("[video] Scene %d remote generation failed: %v, using placeholder clip", scene.Index, err)
			clip, err = g.placeholderClip(ctx, scene, outputDir)
			if err != nil {
				return nil, fmt.Errorf("scene %d placeholder clip: %w", scene.Index, err)
			}
		}
		clips = append(clips, clip)
		log.Printf("[video] ✅ Scene %d clip ready: %s", scene.Index, clip)
	}

	final, err := g.concatenate(ctx, clips, outputDir)
	if err != nil {
		return nil, fmt.Errorf("concatenate clips: %w", err)
	}

	dur, err := videoDuration(final)
	if err != nil {
		return nil, fmt.Errorf("measure video duration: %w", err)
	}

	log.Printf("[video] ✅ Final video assembled: %s (%.2fs)", final, dur)
	return &types.VideoArtifact{Path: final, DurationSec: dur}, nil
}

// generateScene submits one remote generation job and waits for it.
// Image-to-video when a product image is available for this scene,
// text-to-video otherwise.
func (g *Generator) generateScene(ctx context.Context, prompt, imageURL string, scene types.Scene, outputDir string) (string, error) {
	if g.cfg.Secrets.RunwayAPIKey == "" {
		return "", fmt.Errorf("no video API key configured")
	}

	taskID, err := g.submitTask(ctx, prompt, imageURL, scene.DurationSec)
	if err != nil {
		return "", fmt.Errorf("submit generation task: %w", err)
	}

	res := poll.UntilDone(ctx, fmt.Sprintf("video task %s", taskID),
		g.taskStatus(taskID),
		time.Duration(g.cfg.Poll.MaxWaitSec)*time.Second,
		time.Duration(g.cfg.Poll.IntervalSec)*time.Second,
	)
	switch res.State {
	case poll.Failed:
		return "", fmt.Errorf("generation task failed: %s", res.Payload)
	case poll.TimedOut:
		return "", fmt.Errorf("generation task timed out")
	}

	outFile := filepath.Join(outputDir, fmt.Sprintf("scene_%03d.mp4", scene.Index))
	if err := g.download(ctx, res.Payload, outFile); err != nil {
		return "", fmt.Errorf("download generated clip: %w", err)
	}
	return outFile, nil
}

type generateRequest struct {
	Prompt      string  `json:"prompt"`
	ImageURL    string  `json:"image_url,omitempty"`
	Duration    float64 `json:"duration"`
	AspectRatio string  `json:"aspect_ratio"`
}

type taskResponse struct {
	TaskID   string `json:"task_id"`
	Status   string `json:"status"`
	VideoURL string `json:"video_url"`
	Error    string `json:"error"`
}

func (g *Generator) submitTask(ctx context.Context, prompt, imageURL string, durationSec float64) (string, error) {
	body, err := json.Marshal(generateRequest{
		Prompt:      prompt,
		ImageURL:    imageURL,
		Duration:    durationSec,
		AspectRatio: g.aspectRatio(),
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.Video.APIBaseURL+"/generate/video", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+g.cfg.Secrets.RunwayAPIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("video API HTTP %d", resp.StatusCode)
	}

	var task taskResponse
	if err := json.NewDecoder(resp.Body).Decode(&task); err != nil {
		return "", err
	}
	if task.TaskID == "" {
		return "", fmt.Errorf("video API returned no task id")
	}
	return task.TaskID, nil
}

// taskStatus builds the poller check for one generation task
func (g *Generator) taskStatus(taskID string) poll.CheckFunc {
	return func(ctx context.Context) (poll.Status, string, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.cfg.Video.APIBaseURL+"/tasks/"+taskID, nil)
		if err != nil {
			return poll.StatusPending, "", err
		}
		req.Header.Set("Authorization", "Bearer "+g.cfg.Secrets.RunwayAPIKey)

		resp, err := g.httpClient.Do(req)
		if err != nil {
			return poll.StatusPending, "", err
		}
		defer resp.Body.Close()

		var task taskResponse
		if err := json.NewDecoder(resp.Body).Decode(&task); err != nil {
			return poll.StatusPending, "", err
		}

		switch task.Status {
		case "completed":
			return poll.StatusFinished, task.VideoURL, nil
		case "failed", "error":
			return poll.StatusFailed, task.Error, nil
		default:
			return poll.StatusPending, "", nil
		}
	}
}

// download fetches the generated clip, retrying transient failures
func (g *Generator) download(ctx context.Context, videoURL, outFile string) error {
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, videoURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := g.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("download HTTP %d", resp.StatusCode)
		}

		f, err := os.Create(outFile)
		if err != nil {
			return backoff.Permanent(err)
		}
		defer f.Close()
		_, err = io.Copy(f, resp.Body)
		return err
	}
	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(g.downloadRetries()))
	return backoff.Retry(op, backoff.WithContext(policy, ctx))
}

// placeholderClip draws a plain clip of the scene's duration so a
// remote outage never kills the whole run
func (g *Generator) placeholderClip(ctx context.Context, scene types.Scene, outputDir string) (string, error) {
	outFile := filepath.Join(outputDir, fmt.Sprintf("placeholder_%03d.mp4", scene.Index))

	dur := scene.DurationSec
	if dur <= 0 {
		dur = 5.0
	}

	label := escapeDrawtext(scene.Description)
	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-f", "lavfi",
		"-i", fmt.Sprintf("color=c=0x1a3a6b:s=%dx%d:d=%.3f", g.width(), g.height(), dur),
		"-vf", fmt.Sprintf("drawtext=text='%s':fontcolor=white:fontsize=48:x=(w-text_w)/2:y=(h-text_h)/2", label),
		"-c:v", "libx264",
		"-preset", "fast",
		"-pix_fmt", "yuv420p",
		"-an",
		outFile,
	)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ffmpeg placeholder: %w", err)
	}
	return outFile, nil
}

// concatenate joins scene clips in order with the ffmpeg concat demuxer
func (g *Generator) concatenate(ctx context.Context, clips []string, outputDir string) (string, error) {
	if len(clips) == 1 {
		return clips[0], nil
	}

	listFile := filepath.Join(outputDir, "scenes_concat.txt")
	var lines []string
	for _, clip := range clips {
		lines = append(lines, fmt.Sprintf("file '%s'", clip))
	}
	if err := os.WriteFile(listFile, []byte(strings.Join(lines, "\n")), 0644); err != nil {
		return "", err
	}

	outFile := filepath.Join(outputDir, "scenes_joined.mp4")
	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "22",
		"-vf", fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1", g.width(), g.height(), g.width(), g.height()),
		"-pix_fmt", "yuv420p",
		"-an",
		outFile,
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ffmpeg concat: %w", err)
	}
	return outFile, nil
}

// scenePrompt enriches the scene description with product context
func scenePrompt(scene types.Scene, productTitle string) string {
	return fmt.Sprintf("%s, product showcase, commercial video, %s, high quality, professional lighting, 4K resolution",
		scene.Description, productTitle)
}

func (g *Generator) aspectRatio() string {
	if g.cfg.Video.AspectRatio != "" {
		return g.cfg.Video.AspectRatio
	}
	return "16:9"
}

func (g *Generator) width() int {
	if g.cfg.Video.Width > 0 {
		return g.cfg.Video.Width
	}
	return 1920
}

func (g *Generator) height() int {
	if g.cfg.Video.Height > 0 {
		return g.cfg.Video.Height
	}
	return 1080
}

func (g *Generator) downloadRetries() int {
	if g.cfg.Video.DownloadRetry > 0 {
		return g.cfg.Video.DownloadRetry
	}
	return 3
}

func escapeDrawtext(s string) string {
	s = strings.ReplaceAll(s, "'", "\\'")
	s = strings.ReplaceAll(s, ":", "\\:")
	return s
}

func videoDuration(path string) (float64, error) {
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
