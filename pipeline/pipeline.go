// Package pipeline sequences the full product-to-video run: scrape,
// script, speech, subtitles, video, composition, publish.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"product-reel-pipeline/config"
	"product-reel-pipeline/types"

	publish "product-reel-pipeline/07_publish"
)

// Collaborator contracts. The orchestrator owns sequencing and failure
// isolation; everything external lives behind one of these.
type (
	Extractor interface {
		Extract(ctx context.Context, url string) (*types.ProductInfo, error)
	}
	ScriptWriter interface {
		Write(ctx context.Context, product *types.ProductInfo) (*types.Script, error)
	}
	SpeechSynthesizer interface {
		Synthesize(ctx context.Context, text, voice, outputDir string) (*types.AudioArtifact, error)
	}
	SubtitleGenerator interface {
		Generate(ctx context.Context, text string, audioDurationSec float64, outputDir string) (*types.SubtitleArtifact, error)
	}
	VideoGenerator interface {
		Generate(ctx context.Context, script *types.Script, imageURLs []string, outputDir string) (*types.VideoArtifact, error)
	}
	Compositor interface {
		Compose(ctx context.Context, video *types.VideoArtifact, audio *types.AudioArtifact, subs *types.SubtitleArtifact, outputDir string) (*types.CompositionResult, error)
	}
	Publisher interface {
		Publish(ctx context.Context, videoPath string, meta publish.Metadata) publish.Result
	}
)

// Runner drives one pipeline run over its collaborators
type Runner struct {
	cfg        *config.Config
	runDir     string
	extractor  Extractor
	writer     ScriptWriter
	speech     SpeechSynthesizer
	subtitles  SubtitleGenerator
	video      VideoGenerator
	compositor Compositor
	publisher  Publisher
}

// New wires a Runner from its collaborators. runDir is this run's
// private output directory; every intermediate artifact lands under it.
func New(cfg *config.Config, runDir string, extractor Extractor, writer ScriptWriter, speech SpeechSynthesizer, subtitles SubtitleGenerator, video VideoGenerator, compositor Compositor, publisher Publisher) *Runner {
	return &Runner{
		cfg:        cfg,
		runDir:     runDir,
		extractor:  extractor,
		writer:     writer,
		speech:     speech,
		subtitles:  subtitles,
		video:      video,
		compositor: compositor,
		publisher:  publisher,
	}
}

// Run executes every stage in fixed order against sourceURL. Any stage
// failure short-circuits the rest and yields a failure result naming
// the stage; Run itself never returns an error or lets a panic escape.
func (r *Runner) Run(ctx context.Context, sourceURL string) (result types.PipelineResult) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[pipeline] ❌ Unexpected error: %v", rec)
			result = r.fail(fmt.Sprintf("unexpected error: %v", rec))
		}
		r.saveResult(result)
	}()

	if sourceURL == "" {
		return r.fail("extract stage: empty source URL")
	}

	log.Printf("[pipeline] Processing product link: %s", sourceURL)

	// ─── Stage 1: Extract ───
	log.Println("[pipeline] ━━━ Stage 1: Product extraction ━━━")
	product, err := r.extractor.Extract(ctx, sourceURL)
	if err = stageErr(product == nil, err); err != nil {
		log.Printf("[pipeline] ❌ Extraction failed: %v", err)
		return r.fail(fmt.Sprintf("extract stage: %v", err))
	}

	// ─── Stage 2: Script ───
	log.Println("[pipeline] ━━━ Stage 2: Script generation ━━━")
	script, err := r.writer.Write(ctx, product)
	if err = stageErr(script == nil, err); err != nil {
		log.Printf("[pipeline] ❌ Script generation failed: %v", err)
		return r.fail(fmt.Sprintf("script stage: %v", err))
	}

	// ─── Stage 3: Speech ───
	log.Println("[pipeline] ━━━ Stage 3: Speech synthesis ━━━")
	audio, err := r.speech.Synthesize(ctx, script.Narration, r.cfg.Speech.Voice, filepath.Join(r.runDir, "audio"))
	if err = stageErr(audio == nil, err); err != nil {
		log.Printf("[pipeline] ❌ Speech synthesis failed: %v", err)
		return r.fail(fmt.Sprintf("speech stage: %v", err))
	}

	// ─── Stage 4: Subtitles (non-fatal) ───
	log.Println("[pipeline] ━━━ Stage 4: Subtitles ━━━")
	subs, err := r.subtitles.Generate(ctx, script.Narration, audio.DurationSec, filepath.Join(r.runDir, "subtitles"))
	if err != nil {
		log.Printf("[pipeline] ⚠️  Subtitle generation failed: %v, continuing without subtitles", err)
		subs = nil
	}

	// ─── Stage 5: Video ───
	log.Println("[pipeline] ━━━ Stage 5: Video generation ━━━")
	video, err := r.video.Generate(ctx, script, product.ImageURLs, filepath.Join(r.runDir, "video"))
	if err = stageErr(video == nil, err); err != nil {
		log.Printf("[pipeline] ❌ Video generation failed: %v", err)
		return r.fail(fmt.Sprintf("video stage: %v", err))
	}

	// ─── Stage 6: Composition ───
	log.Println("[pipeline] ━━━ Stage 6: Composition ━━━")
	// Intermediate artifacts are released once composition is done,
	// success or not; only the final file outlives the run.
	defer r.releaseIntermediates()
	final, err := r.compositor.Compose(ctx, video, audio, subs, r.runDir)
	if err = stageErr(final == nil, err); err != nil {
		log.Printf("[pipeline] ❌ Composition failed: %v", err)
		return r.fail(fmt.Sprintf("compose stage: %v", err))
	}

	// ─── Stage 7: Publish (per-target failures are non-fatal) ───
	log.Println("[pipeline] ━━━ Stage 7: Publish ━━━")
	pub := r.publisher.Publish(ctx, final.Path, publish.Metadata{
		Title:       script.Title,
		Description: script.Description,
		Hashtags:    script.Hashtags,
	})
	if pub.Err != "" {
		log.Printf("[pipeline] ⚠️  Publish diagnostics: %s", pub.Err)
	}

	log.Println("[pipeline] ✅ All stages complete")
	return types.PipelineResult{
		Success:    true,
		Product:    product,
		Script:     script,
		VideoPath:  final.Path,
		Uploads:    pub.Outcomes,
		FinishedAt: time.Now().UTC(),
	}
}

func (r *Runner) fail(msg string) types.PipelineResult {
	return types.PipelineResult{
		Success:    false,
		Error:      msg,
		FinishedAt: time.Now().UTC(),
	}
}

// stageErr folds the two collaborator failure shapes (an error, or a
// nil result without one) into a single error
func stageErr(isNil bool, err error) error {
	if err != nil {
		return err
	}
	if isNil {
		return fmt.Errorf("collaborator returned no result")
	}
	return nil
}

// releaseIntermediates discards the per-stage artifact directories,
// leaving only the final video in the run dir
func (r *Runner) releaseIntermediates() {
	for _, sub := range []string{"audio", "video", "subtitles"} {
		dir := filepath.Join(r.runDir, sub)
		if err := os.RemoveAll(dir); err != nil {
			log.Printf("[pipeline] Warning: could not release %s: %v", dir, err)
		}
	}
}

// saveResult snapshots the run's terminal result next to its outputs
func (r *Runner) saveResult(result types.PipelineResult) {
	if r.runDir == "" {
		return
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Printf("[pipeline] Warning: could not marshal result: %v", err)
		return
	}
	path := filepath.Join(r.runDir, "pipeline_result.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		log.Printf("[pipeline] Warning: could not save %s: %v", path, err)
	}
}
