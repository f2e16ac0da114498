package speech

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"

	"product-reel-pipeline/config"
)

// retryLike applies the same retry policy Synthesize uses, with a fast
// initial interval so failure cases do not slow the suite down
func retryLike(g *Generator, op func() error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = time.Millisecond
	return backoff.Retry(op, backoff.WithMaxRetries(policy, uint64(g.cfg.Speech.MaxRetries)))
}

func speechConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Speech.Model = "tts-1-hd"
	cfg.Speech.Voice = "alloy"
	cfg.Speech.Format = "mp3"
	cfg.Speech.MaxRetries = 2
	cfg.Speech.TimeoutSec = 5
	cfg.Secrets.OpenAIAPIKey = "sk-test"
	return cfg
}

func TestRequestSpeechWritesAudio(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("auth header = %q", got)
		}
		var req ttsRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "tts-1-hd" || req.Voice != "nova" || req.Input != "안녕하세요" {
			t.Errorf("request = %+v", req)
		}
		w.Write([]byte("mp3 bytes"))
	}))
	defer srv.Close()

	g := New(speechConfig())
	g.endpoint = srv.URL
	outFile := filepath.Join(t.TempDir(), "out.mp3")

	if err := g.requestSpeech(context.Background(), "안녕하세요", "nova", outFile); err != nil {
		t.Fatalf("requestSpeech: %v", err)
	}
	data, err := os.ReadFile(outFile)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != "mp3 bytes" {
		t.Errorf("audio content = %q", data)
	}
}

func TestRequestSpeechUnauthorizedIsPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":"invalid api key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	cfg := speechConfig()
	g := New(cfg)
	g.endpoint = srv.URL
	outFile := filepath.Join(t.TempDir(), "out.mp3")

	op := func() error { return g.requestSpeech(context.Background(), "text", "alloy", outFile) }
	err := retryLike(g, op)
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Fatalf("err = %v, want HTTP 401", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1 (401 must not be retried)", calls.Load())
	}
}

func TestRequestSpeechServerErrorIsRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 2 {
			http.Error(w, "upstream busy", http.StatusInternalServerError)
			return
		}
		w.Write([]byte("mp3 bytes"))
	}))
	defer srv.Close()

	g := New(speechConfig())
	g.endpoint = srv.URL
	outFile := filepath.Join(t.TempDir(), "out.mp3")

	op := func() error { return g.requestSpeech(context.Background(), "text", "alloy", outFile) }
	if err := retryLike(g, op); err != nil {
		t.Fatalf("err = %v, want recovery on second attempt", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestSynthesizeEmptyText(t *testing.T) {
	g := New(speechConfig())
	if _, err := g.Synthesize(context.Background(), "   ", "", t.TempDir()); err == nil {
		t.Fatal("expected error for empty text")
	}
}

func TestFormatDefault(t *testing.T) {
	cfg := speechConfig()
	cfg.Speech.Format = ""
	if got := New(cfg).format(); got != "mp3" {
		t.Errorf("format = %q, want mp3", got)
	}
}
