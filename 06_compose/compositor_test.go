package compose

import (
	"strings"
	"testing"

	"product-reel-pipeline/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Compose: config.ComposeConfig{
			FPS:          24,
			VideoCodec:   "libx264",
			AudioCodec:   "aac",
			AudioBitrate: "192k",
		},
		Subtitles: config.SubtitlesConfig{FontSize: 24, MarginBottom: 40},
	}
}

func argValue(args []string, flag string) (string, bool) {
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1], true
		}
	}
	return "", false
}

func TestBuildArgsEncodingSettings(t *testing.T) {
	c := New(testConfig())
	args := c.buildArgs("in.mp4", "in.mp3", "", "out.mp4", Trim{DurationSec: 28, TrimVideo: true})

	if v, ok := argValue(args, "-r"); !ok || v != "24" {
		t.Errorf("frame rate = %q, want 24", v)
	}
	if v, ok := argValue(args, "-c:v"); !ok || v != "libx264" {
		t.Errorf("video codec = %q, want libx264", v)
	}
	if v, ok := argValue(args, "-c:a"); !ok || v != "aac" {
		t.Errorf("audio codec = %q, want aac", v)
	}
	if v, ok := argValue(args, "-t"); !ok || v != "28.000" {
		t.Errorf("output duration = %q, want 28.000", v)
	}
	if args[len(args)-1] != "out.mp4" {
		t.Errorf("last arg = %q, want output path", args[len(args)-1])
	}
}

func TestBuildArgsMapsVideoFromFirstAudioFromSecond(t *testing.T) {
	c := New(testConfig())
	args := c.buildArgs("v.mp4", "a.mp3", "", "out.mp4", Trim{DurationSec: 10})

	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-map 0:v:0") || !strings.Contains(joined, "-map 1:a:0") {
		t.Errorf("stream mapping missing: %s", joined)
	}
}

func TestBuildArgsSubtitleFilterOnlyWhenPresent(t *testing.T) {
	c := New(testConfig())

	without := strings.Join(c.buildArgs("v.mp4", "a.mp3", "", "out.mp4", Trim{DurationSec: 10}), " ")
	if strings.Contains(without, "subtitles=") {
		t.Error("subtitle filter present without an SRT file")
	}

	with := strings.Join(c.buildArgs("v.mp4", "a.mp3", "subs.srt", "out.mp4", Trim{DurationSec: 10}), " ")
	if !strings.Contains(with, "subtitles=subs.srt") {
		t.Errorf("subtitle filter missing: %s", with)
	}
}

func TestBuildArgsZeroDurationClampsToOneFrame(t *testing.T) {
	c := New(testConfig())
	args := c.buildArgs("v.mp4", "a.mp3", "", "out.mp4", Trim{DurationSec: 0})

	v, ok := argValue(args, "-t")
	if !ok {
		t.Fatal("no -t flag")
	}
	// one frame at 24fps
	if v != "0.042" {
		t.Errorf("clamped duration = %q, want 0.042", v)
	}
}

func TestEscapeSubtitlePath(t *testing.T) {
	got := escapeSubtitlePath(`C:\out\subs.srt`)
	if got != `C\:/out/subs.srt` {
		t.Errorf("escaped = %q", got)
	}
}
