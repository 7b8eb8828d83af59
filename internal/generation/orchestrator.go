package generation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"fashionStudio/internal/garment"
	"fashionStudio/internal/imagery"
	"fashionStudio/internal/prompts"
	"fashionStudio/internal/vision"
)

// Status is the lifecycle state of one preview.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// ErrEmptyBatch is returned when a batch requests no shots.
var ErrEmptyBatch = errors.New("generation: batch requests no shots")

// PreviewResult is one generated shot.
type PreviewResult struct {
	ID          string        `json:"id"`
	Label       string        `json:"label"`
	Purpose     Purpose       `json:"purpose"`
	View        ECView        `json:"view,omitempty"`
	URL         string        `json:"url,omitempty"`
	AspectRatio string        `json:"aspectRatio"`
	Status      Status        `json:"status"`
	Error       string        `json:"error,omitempty"`
	Image       imagery.Image `json:"-"`
}

// ProgressFunc is called after each finished shot. Calls never overlap.
type ProgressFunc func(current, total int, result PreviewResult)

// Batch describes one generation request.
type Batch struct {
	Analysis     *garment.Analysis
	Images       imagery.Set
	Lighting     prompts.Lighting
	Mannequin    prompts.Mannequin
	Scene        prompts.Scene
	Measurements prompts.Measurements
	Views        []ECView
	Purposes     []Purpose
}

// Options tunes the parallel branch.
type Options struct {
	Parallelism  int
	RateInterval time.Duration
}

// Orchestrator sequences analysis and rendering for a batch.
type Orchestrator struct {
	analyzer    vision.Analyzer
	renderer    vision.Renderer
	parallelism int
	limiter     *rate.Limiter
}

// New builds an orchestrator. A zero RateInterval disables pacing.
func New(analyzer vision.Analyzer, renderer vision.Renderer, opts Options) *Orchestrator {
	o := &Orchestrator{analyzer: analyzer, renderer: renderer, parallelism: opts.Parallelism}
	if o.parallelism <= 0 {
		o.parallelism = 3
	}
	if opts.RateInterval > 0 {
		o.limiter = rate.NewLimiter(rate.Every(opts.RateInterval), 2)
	}
	return o
}

// Analyze runs the garment analysis for the uploaded images.
func (o *Orchestrator) Analyze(ctx context.Context, images imagery.Set) (garment.Analysis, error) {
	if o.analyzer == nil {
		return garment.Analysis{}, fmt.Errorf("generation: analyzer not configured")
	}
	analysis, err := o.analyzer.AnalyzeGarments(ctx, images)
	if err != nil {
		return garment.Analysis{}, fmt.Errorf("generation: analyze: %w", err)
	}
	return analysis, nil
}

// Run generates every shot of the batch. The front view is rendered first and
// becomes the anchor for the remaining e-commerce views and for the other
// purposes. The returned slice always holds one entry per planned shot, also
// when an error is returned.
func (o *Orchestrator) Run(ctx context.Context, b Batch, progress ProgressFunc) ([]PreviewResult, error) {
	if o.renderer == nil {
		return nil, fmt.Errorf("generation: renderer not configured")
	}

	views := planEC(b.Views)
	purposes := planPurposes(b.Purposes)
	if len(views) == 0 && len(purposes) == 0 {
		return nil, ErrEmptyBatch
	}

	if b.Analysis == nil {
		analysis, err := o.Analyze(ctx, b.Images)
		if err != nil {
			return nil, err
		}
		b.Analysis = &analysis
	}

	r := newRun(b, views, purposes, progress)

	var anchor *imagery.Image
	if len(views) > 0 {
		img, err := o.renderShot(ctx, r, r.shots[0], nil)
		if err != nil {
			return r.snapshot(), err
		}
		anchor = &img
	}

	var (
		wg       sync.WaitGroup
		chainErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		chainErr = o.runChain(ctx, r, anchor)
	}()

	var eg errgroup.Group
	eg.SetLimit(o.parallelism)
	for _, s := range r.shots[len(views):] {
		s := s
		eg.Go(func() error {
			_, err := o.renderShot(ctx, r, s, anchor)
			return err
		})
	}
	parallelErr := eg.Wait()
	wg.Wait()

	if err := r.firstErr(); err != nil {
		return r.snapshot(), err
	}
	if chainErr != nil {
		return r.snapshot(), chainErr
	}
	return r.snapshot(), parallelErr
}

// runChain renders the dependent e-commerce views one after another. The
// bust-up view is cropped from the anchor without a renderer call.
func (o *Orchestrator) runChain(ctx context.Context, r *run, anchor *imagery.Image) error {
	for _, s := range r.shots {
		if s.purpose != PurposeEC || s.view == ViewFront {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.view == ViewBustUp {
			img, err := imagery.BustUp(*anchor)
			if err != nil {
				r.fail(s, err)
				return err
			}
			r.complete(s, img)
			continue
		}
		if _, err := o.renderShot(ctx, r, s, anchor); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) renderShot(ctx context.Context, r *run, s shot, anchor *imagery.Image) (imagery.Image, error) {
	if o.limiter != nil {
		if err := o.limiter.Wait(ctx); err != nil {
			r.fail(s, err)
			return imagery.Image{}, err
		}
	}

	refs := withAnchor(r.batch.Images, anchor)
	mannequin, scene := shotConfig(r.batch, s)
	prompt := prompts.CompilePrompt(*r.batch.Analysis, r.batch.Lighting, mannequin, scene, refs, r.batch.Measurements)

	img, err := o.renderer.Render(ctx, vision.RenderRequest{
		Prompt:      prompt,
		References:  refs,
		AspectRatio: s.purpose.AspectRatio(),
	})
	if err != nil {
		err = fmt.Errorf("generation: %s: %w", r.results[s.index].Label, err)
		r.fail(s, err)
		return imagery.Image{}, err
	}
	r.complete(s, img)
	return img, nil
}

// run holds the mutable state of one Run call.
type run struct {
	batch    Batch
	shots    []shot
	progress ProgressFunc

	// reportMu serializes progress callbacks; mu guards the result state and
	// is never held while a callback runs.
	reportMu sync.Mutex
	mu       sync.Mutex
	results []PreviewResult
	done    int
	err     error
}

func newRun(b Batch, views []ECView, purposes []Purpose, progress ProgressFunc) *run {
	r := &run{batch: b, progress: progress}
	for _, v := range views {
		r.add(shot{purpose: PurposeEC, view: v}, PurposeEC.label()+" "+v.label())
	}
	for _, p := range purposes {
		r.add(shot{purpose: p}, p.label())
	}
	return r
}

func (r *run) add(s shot, label string) {
	s.index = len(r.shots)
	r.shots = append(r.shots, s)
	r.results = append(r.results, PreviewResult{
		ID:          uuid.NewString(),
		Label:       label,
		Purpose:     s.purpose,
		View:        s.view,
		AspectRatio: s.purpose.AspectRatio(),
		Status:      StatusPending,
	})
}

func (r *run) complete(s shot, img imagery.Image) {
	r.finish(s, func(res *PreviewResult) {
		res.Status = StatusCompleted
		res.Image = img
	})
}

func (r *run) fail(s shot, err error) {
	log.Printf("generation: %s failed: %v", r.results[s.index].Label, err)
	r.finish(s, func(res *PreviewResult) {
		res.Status = StatusFailed
		res.Error = err.Error()
	})
	r.mu.Lock()
	if r.err == nil {
		r.err = err
	}
	r.mu.Unlock()
}

// finish updates a result and reports it. Callbacks run one at a time with
// monotonic counts, outside the state lock.
func (r *run) finish(s shot, update func(*PreviewResult)) {
	r.reportMu.Lock()
	defer r.reportMu.Unlock()

	r.mu.Lock()
	update(&r.results[s.index])
	r.done++
	done, total, result := r.done, len(r.results), r.results[s.index]
	r.mu.Unlock()

	if r.progress != nil {
		r.progress(done, total, result)
	}
}

func (r *run) firstErr() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *run) snapshot() []PreviewResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]PreviewResult, len(r.results))
	copy(out, r.results)
	return out
}
