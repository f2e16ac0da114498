package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	scrape "product-reel-pipeline/01_scrape"
	script "product-reel-pipeline/02_script"
	speech "product-reel-pipeline/03_speech"
	subtitles "product-reel-pipeline/04_subtitles"
	video "product-reel-pipeline/05_video"
	compose "product-reel-pipeline/06_compose"
	publish "product-reel-pipeline/07_publish"
	"product-reel-pipeline/config"
	"product-reel-pipeline/pipeline"
)

func main() {
	// Load .env (local dev only, CI uses injected secrets)
	_ = godotenv.Load()

	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Missing credentials: %v", err)
	}

	if len(os.Args) < 2 || os.Args[1] == "" {
		fmt.Println("Usage: product-reel-pipeline <product-url>")
		os.Exit(2)
	}
	sourceURL := os.Args[1]

	for _, dir := range []string{cfg.Paths.Output, cfg.Paths.Logs} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create dir %s: %v", dir, err)
		}
	}

	// Per-run output dir keeps artifact names unique across concurrent runs
	runID := uuid.NewString()[:8]
	runDir := filepath.Join(cfg.Paths.Output, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		log.Fatalf("Failed to create run dir: %v", err)
	}

	log.Printf("🎬 Product reel pipeline starting | Run ID: %s", runID)
	log.Printf("📁 Output dir: %s", runDir)

	ctx := context.Background()

	writer, err := script.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to init script writer: %v", err)
	}
	defer writer.Close()

	var targets []publish.Target
	if cfg.Publish.Instagram.Enabled {
		targets = append(targets, publish.NewInstagram(cfg))
	}
	if cfg.Publish.YouTube.Enabled {
		targets = append(targets, publish.NewYouTube(cfg))
	}

	runner := pipeline.New(cfg, runDir,
		scrape.New(cfg),
		writer,
		speech.New(cfg),
		subtitles.New(cfg),
		video.New(cfg),
		compose.New(cfg),
		publish.New(targets...),
	)

	result := runner.Run(ctx, sourceURL)

	if !result.Success {
		fmt.Printf("\n❌ Pipeline failed: %s\n", result.Error)
		os.Exit(1)
	}

	fmt.Println("\n✅ Pipeline complete!")
	fmt.Printf("🎬 Final video: %s\n", result.VideoPath)
	for name, outcome := range result.Uploads {
		if outcome.Success {
			fmt.Printf("📤 %s: uploaded (id: %s)\n", name, outcome.MediaID)
		} else {
			fmt.Printf("📤 %s: failed: %s\n", name, outcome.Error)
		}
	}
}
