package publish

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
)

type fakeTarget struct {
	name   string
	id     string
	err    error
	panics bool
	calls  atomic.Int32
}

func (f *fakeTarget) Name() string { return f.name }

func (f *fakeTarget) Upload(ctx context.Context, videoPath string, meta Metadata) (string, error) {
	f.calls.Add(1)
	if f.panics {
		panic("target blew up")
	}
	if f.err != nil {
		return "", f.err
	}
	return f.id, nil
}

func TestPublishOneFailureDoesNotStopSiblings(t *testing.T) {
	a := &fakeTarget{name: "instagram", err: fmt.Errorf("container processing failed")}
	b := &fakeTarget{name: "youtube", id: "yt-123"}

	res := New(a, b).Publish(context.Background(), "final.mp4", Metadata{Title: "t"})

	if a.calls.Load() != 1 || b.calls.Load() != 1 {
		t.Fatalf("calls = %d/%d, want both targets attempted", a.calls.Load(), b.calls.Load())
	}

	outA := res.Outcomes["instagram"]
	if outA.Success || outA.Error == "" || outA.MediaID != "" {
		t.Errorf("instagram outcome = %+v, want failure with message and no id", outA)
	}

	outB := res.Outcomes["youtube"]
	if !outB.Success || outB.MediaID != "yt-123" {
		t.Errorf("youtube outcome = %+v, want success with id", outB)
	}

	// Aggregate error is auxiliary diagnostics, not a fatal signal
	if res.Err == "" {
		t.Error("expected diagnostic aggregate error when a target fails")
	}
}

func TestPublishAllSucceed(t *testing.T) {
	a := &fakeTarget{name: "instagram", id: "ig-1"}
	b := &fakeTarget{name: "youtube", id: "yt-1"}

	res := New(a, b).Publish(context.Background(), "final.mp4", Metadata{})

	if len(res.Outcomes) != 2 {
		t.Fatalf("outcomes = %d, want 2", len(res.Outcomes))
	}
	for name, o := range res.Outcomes {
		if !o.Success || o.MediaID == "" {
			t.Errorf("%s outcome = %+v, want success", name, o)
		}
	}
	if res.Err != "" {
		t.Errorf("aggregate err = %q, want empty", res.Err)
	}
}

func TestPublishPanicInTargetIsIsolated(t *testing.T) {
	a := &fakeTarget{name: "instagram", panics: true}
	b := &fakeTarget{name: "youtube", id: "yt-9"}

	res := New(a, b).Publish(context.Background(), "final.mp4", Metadata{})

	outA := res.Outcomes["instagram"]
	if outA.Success || !strings.Contains(outA.Error, "panic") {
		t.Errorf("instagram outcome = %+v, want panic converted to failure entry", outA)
	}
	if !res.Outcomes["youtube"].Success {
		t.Error("sibling target should still succeed")
	}
}

func TestPublishNoTargets(t *testing.T) {
	res := New().Publish(context.Background(), "final.mp4", Metadata{})
	if len(res.Outcomes) != 0 || res.Err != "" {
		t.Errorf("empty publisher result = %+v", res)
	}
}

func TestBuildCaption(t *testing.T) {
	got := buildCaption(Metadata{
		Description: "Great product.",
		Hashtags:    []string{"deal", "#shopping"},
	})
	want := "Great product.\n\n#deal #shopping"
	if got != want {
		t.Errorf("caption = %q, want %q", got, want)
	}

	if got := buildCaption(Metadata{Description: "No tags."}); got != "No tags." {
		t.Errorf("caption without hashtags = %q", got)
	}
}
