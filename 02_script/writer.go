// Package script turns a scraped product record into a structured video
// script via Gemini.
package script

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"product-reel-pipeline/config"
	"product-reel-pipeline/types"
)

// Writer generates scripts with the Gemini API
type Writer struct {
	cfg    *config.Config
	client *genai.Client
	model  *genai.GenerativeModel
}

// New creates a Writer and its Gemini client
func New(ctx context.Context, cfg *config.Config) (*Writer, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.Secrets.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	model := client.GenerativeModel(cfg.Script.GeminiModel)
	model.SetTemperature(float32(cfg.Script.Temperature))

	return &Writer{cfg: cfg, client: client, model: model}, nil
}

// Close releases the Gemini client
func (w *Writer) Close() {
	if w.client != nil {
		w.client.Close()
	}
}

// scriptJSON is the raw JSON contract the model is asked to fill
type scriptJSON struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Script      string      `json:"script"`
	Hashtags    []string    `json:"hashtags"`
	VideoScenes []sceneJSON `json:"video_scenes"`
}

type sceneJSON struct {
	Scene       int     `json:"scene"`
	Description string  `json:"description"`
	Duration    float64 `json:"duration"`
}

// Write generates the full script for a product. A malformed model
// response does not fail the stage: a fallback script is constructed
// from the raw text and marked as such.
func (w *Writer) Write(ctx context.Context, product *types.ProductInfo) (*types.Script, error) {
	log.Println("[script] Generating video script via Gemini...")

	resp, err := w.model.GenerateContent(ctx, genai.Text(w.buildPrompt(product)))
	if err != nil {
		return nil, fmt.Errorf("gemini request: %w", err)
	}

	content, err := extractText(resp)
	if err != nil {
		return nil, err
	}

	script := ParseScript(content)
	if script.Fallback {
		log.Printf("[script] ⚠️  Response was not well-formed JSON, using fallback script")
	}

	log.Printf("[script] ✅ Script ready: %q, %d scenes", script.Title, len(script.Scenes))
	return script, nil
}

func (w *Writer) buildPrompt(product *types.ProductInfo) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Write a %d-second promotional video script for the following product listing.\n\n", w.cfg.Script.TargetDurationSec))
	sb.WriteString(fmt.Sprintf("PRODUCT: %s\n", product.Title))
	sb.WriteString(fmt.Sprintf("PRICE: %s", product.Price))
	if product.OriginalPrice != "" {
		sb.WriteString(fmt.Sprintf(" (was %s)", product.OriginalPrice))
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("RATING: %s/5.0 over %s reviews\n", product.Rating, product.ReviewCount))
	sb.WriteString(fmt.Sprintf("DESCRIPTION: %s\n\n", product.Description))

	sb.WriteString("Respond with ONLY valid JSON in exactly this shape, no markdown, no preamble:\n")
	sb.WriteString(`{
  "title": "catchy video title",
  "description": "SEO-friendly video description",
  "script": "natural narration script for the full video",
  "hashtags": ["tag1", "tag2", "tag3", "tag4", "tag5"],
  "video_scenes": [
    {"scene": 1, "description": "opening shot", "duration": 5},
    {"scene": 2, "description": "feature highlights", "duration": 15},
    {"scene": 3, "description": "price and call to action", "duration": 10}
  ]
}`)
	sb.WriteString("\n\nThe narration should open with a hook, cover the key features, stress the price, and end with a call to action. Keep the tone friendly and natural.")
	return sb.String()
}

// ParseScript converts a raw model response into a Script. Responses
// that cannot be parsed as the JSON contract yield a fallback script
// with Fallback set, never an error.
func ParseScript(raw string) *types.Script {
	content := cleanJSON(raw)

	var parsed scriptJSON
	if err := json.Unmarshal([]byte(extractJSONObject(content)), &parsed); err != nil || parsed.Script == "" {
		return fallbackScript(raw)
	}

	script := &types.Script{
		Title:       parsed.Title,
		Description: parsed.Description,
		Narration:   parsed.Script,
		Hashtags:    parsed.Hashtags,
	}
	for i, s := range parsed.VideoScenes {
		script.Scenes = append(script.Scenes, types.Scene{
			Index:       i,
			Description: s.Description,
			DurationSec: s.Duration,
		})
	}
	return script
}

// fallbackScript builds a minimal usable script from free-form text.
// The first 500 characters become the narration; the result is marked
// so no downstream consumer mistakes it for a well-formed response.
func fallbackScript(raw string) *types.Script {
	narration := strings.TrimSpace(raw)
	if r := []rune(narration); len(r) > 500 {
		narration = string(r[:500])
	}
	return &types.Script{
		Title:       "상품 소개",
		Description: "AI가 생성한 상품 소개 영상입니다.",
		Narration:   narration,
		Hashtags:    []string{"상품추천", "쇼핑", "리뷰", "AI"},
		Scenes: []types.Scene{
			{Index: 0, Description: "상품 소개", DurationSec: 30},
		},
		Fallback: true,
	}
}

// cleanJSON strips markdown fences if the model wraps the response in
// ```json ... ```
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// extractJSONObject cuts the substring between the outermost braces so
// stray prose around the JSON does not break parsing
func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return s
	}
	return s[start : end+1]
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini returned no candidates")
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("gemini response contained no text parts")
	}
	return sb.String(), nil
}
