// Package publish uploads the finished video to every configured
// platform target and aggregates the per-target outcomes.
package publish

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"product-reel-pipeline/types"
)

// Metadata is what every target receives alongside the video file
type Metadata struct {
	Title       string
	Description string
	Hashtags    []string
}

// Target is one upload destination
type Target interface {
	Name() string
	Upload(ctx context.Context, videoPath string, meta Metadata) (string, error)
}

// Result aggregates every target's outcome. Err is auxiliary
// diagnostics only; the per-target map is authoritative.
type Result struct {
	Outcomes map[string]types.UploadOutcome
	Err      string
}

// Publisher fans uploads out to all configured targets
type Publisher struct {
	targets []Target
}

// New creates a Publisher over the given targets
func New(targets ...Target) *Publisher {
	return &Publisher{targets: targets}
}

// Publish uploads to every target concurrently. One target failing never
// prevents the others from being attempted; each failure becomes a
// failure entry for that target only. Each goroutine writes a single
// result slot, merged after all complete.
func (p *Publisher) Publish(ctx context.Context, videoPath string, meta Metadata) Result {
	outcomes := make([]types.UploadOutcome, len(p.targets))

	g, gctx := errgroup.WithContext(ctx)
	for i, t := range p.targets {
		i, t := i, t
		g.Go(func() error {
			outcomes[i] = p.uploadOne(gctx, t, videoPath, meta)
			return nil
		})
	}
	_ = g.Wait()

	res := Result{Outcomes: make(map[string]types.UploadOutcome, len(outcomes))}
	for _, o := range outcomes {
		res.Outcomes[o.Target] = o
		if !o.Success && res.Err == "" {
			res.Err = fmt.Sprintf("%s: %s", o.Target, o.Error)
		}
	}
	return res
}

// uploadOne runs a single target, converting any error or panic into a
// failure outcome for that target alone
func (p *Publisher) uploadOne(ctx context.Context, t Target, videoPath string, meta Metadata) (out types.UploadOutcome) {
	out = types.UploadOutcome{Target: t.Name()}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("[publish] %s: panic during upload: %v", t.Name(), r)
			out.Success = false
			out.MediaID = ""
			out.Error = fmt.Sprintf("panic: %v", r)
		}
	}()

	log.Printf("[publish] %s: uploading...", t.Name())
	id, err := t.Upload(ctx, videoPath, meta)
	if err != nil {
		log.Printf("[publish] %s: upload failed: %v", t.Name(), err)
		out.Error = err.Error()
		return out
	}

	log.Printf("[publish] %s: ✅ uploaded, id=%s", t.Name(), id)
	out.Success = true
	out.MediaID = id
	return out
}
