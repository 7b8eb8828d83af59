package studio

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"

	"fashionStudio/internal/events"
	"fashionStudio/internal/garment"
	"fashionStudio/internal/generation"
	"fashionStudio/internal/imagery"
	"fashionStudio/internal/media"
	"fashionStudio/internal/refine"
	"fashionStudio/internal/storage"
)

const defaultRunTimeout = 10 * time.Minute

var (
	// ErrNoGarments is returned when a session is created without garment images.
	ErrNoGarments = errors.New("studio: at least one garment image is required")
	// ErrDuplicateSlot is returned when two uploads claim the same garment slot.
	ErrDuplicateSlot = errors.New("studio: garment slot uploaded twice")
	// ErrInvalidUpload is returned for uploads with an unknown role or slot,
	// empty data or more than one model reference.
	ErrInvalidUpload = errors.New("studio: invalid upload")
	// ErrNoShots is returned when generation settings request nothing.
	ErrNoShots = errors.New("studio: no views or purposes requested")
)

// Service runs the studio workflow on top of a session store.
type Service struct {
	store        storage.Store
	uploader     media.Uploader
	orchestrator *generation.Orchestrator
	pending      refine.Pending
	events       events.Publisher
	runTimeout   time.Duration

	wg sync.WaitGroup
}

// Deps bundles the collaborators of a Service.
type Deps struct {
	Store        storage.Store
	Uploader     media.Uploader
	Orchestrator *generation.Orchestrator
	Pending      refine.Pending
	Events       events.Publisher
	RunTimeout   time.Duration
}

// NewService wires a Service. Missing optional collaborators fall back to
// disabled uploads, in-process pending storage and no events.
func NewService(d Deps) *Service {
	s := &Service{
		store:        d.Store,
		uploader:     d.Uploader,
		orchestrator: d.Orchestrator,
		pending:      d.Pending,
		events:       d.Events,
		runTimeout:   d.RunTimeout,
	}
	if s.uploader == nil {
		s.uploader = media.Disabled()
	}
	if s.pending == nil {
		s.pending = refine.NewMemoryPending(refine.DefaultPendingTTL)
	}
	if s.runTimeout <= 0 {
		s.runTimeout = defaultRunTimeout
	}
	return s
}

// Generation describes a started generation run.
type Generation struct {
	SessionID string `json:"sessionId"`
	Epoch     int64  `json:"epoch"`
	Total     int    `json:"total"`
}

// PendingRefinement is an interpretation waiting for confirmation.
type PendingRefinement struct {
	Token          string                `json:"token"`
	Interpretation refine.Interpretation `json:"interpretation"`
}

// Confirmation is the outcome of a confirmed refinement.
type Confirmation struct {
	Session    storage.Session `json:"session"`
	Generation *Generation     `json:"generation,omitempty"`
}

// CreateSession analyzes the uploads and stores them as a new session.
func (s *Service) CreateSession(ctx context.Context, images imagery.Set) (storage.Session, error) {
	if err := checkUploads(images); err != nil {
		return storage.Session{}, err
	}

	analysis, err := s.orchestrator.Analyze(ctx, images)
	if err != nil {
		return storage.Session{}, fmt.Errorf("studio: %w", err)
	}

	id := uuid.NewString()
	assets := make([]storage.Asset, 0, len(images))
	for _, img := range images {
		asset := storage.Asset{Role: img.Role, Slot: img.Slot, MIME: img.MIME, Data: img.Data}
		res, err := media.UploadImage(ctx, s.uploader, id+"/uploads/"+img.Label(), img)
		switch {
		case errors.Is(err, media.ErrUploaderDisabled):
		case err != nil:
			return storage.Session{}, fmt.Errorf("studio: upload %s: %w", img.Label(), err)
		default:
			asset.URL, asset.Key = res.URL, res.Key
		}
		assets = append(assets, asset)
	}

	sess, err := s.store.CreateSession(ctx, storage.Session{
		ID:       id,
		Images:   assets,
		Analysis: analysis,
	})
	if err != nil {
		return storage.Session{}, fmt.Errorf("studio: create session: %w", err)
	}
	log.Printf("studio: session %s created with %d images", sess.ID, len(assets))
	return sess, nil
}

func checkUploads(images imagery.Set) error {
	seen := map[garment.Slot]bool{}
	models := 0
	for _, img := range images {
		switch img.Role {
		case imagery.RoleGarment:
			if !img.Slot.Valid() {
				return fmt.Errorf("%w: unknown garment slot %q", ErrInvalidUpload, img.Slot)
			}
			if seen[img.Slot] {
				return fmt.Errorf("%w: %s", ErrDuplicateSlot, img.Slot)
			}
			seen[img.Slot] = true
		case imagery.RoleModel:
			models++
		default:
			return fmt.Errorf("%w: unsupported image role %q", ErrInvalidUpload, img.Role)
		}
		if len(img.Data) == 0 {
			return fmt.Errorf("%w: empty %s image", ErrInvalidUpload, img.Label())
		}
	}
	if len(seen) == 0 {
		return ErrNoGarments
	}
	if models > 1 {
		return fmt.Errorf("%w: only one model image is supported", ErrInvalidUpload)
	}
	return nil
}

// ListSessions returns stored sessions, newest first.
func (s *Service) ListSessions(ctx context.Context) ([]storage.Session, error) {
	return s.store.ListSessions(ctx)
}

// GetSession returns one session.
func (s *Service) GetSession(ctx context.Context, id string) (storage.Session, error) {
	return s.store.GetSession(ctx, id)
}

// DeleteSession removes a session. Running generations for it fail to
// commit and are dropped.
func (s *Service) DeleteSession(ctx context.Context, id string) error {
	return s.store.DeleteSession(ctx, id)
}

// Generate starts an asynchronous generation with settings. Any generation
// still running for the session is superseded: its results are discarded.
func (s *Service) Generate(ctx context.Context, id string, settings storage.Settings) (Generation, error) {
	total := generation.ShotCount(settings.Views, settings.Purposes)
	if total == 0 {
		return Generation{}, ErrNoShots
	}

	sess, err := s.store.GetSession(ctx, id)
	if err != nil {
		return Generation{}, err
	}
	epoch, err := s.store.BeginGeneration(ctx, id, settings)
	if err != nil {
		return Generation{}, err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runGeneration(context.WithoutCancel(ctx), sess, settings, epoch)
	}()

	return Generation{SessionID: id, Epoch: epoch, Total: total}, nil
}

// Wait blocks until every background generation has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) runGeneration(ctx context.Context, sess storage.Session, settings storage.Settings, epoch int64) {
	ctx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	analysis := sess.Analysis.Clone()
	batch := generation.Batch{
		Analysis:     &analysis,
		Images:       sess.ImageSet(),
		Lighting:     settings.Lighting,
		Mannequin:    settings.Mannequin,
		Scene:        settings.Scene,
		Measurements: settings.Measurements,
		Views:        settings.Views,
		Purposes:     settings.Purposes,
	}

	urls := map[string]media.UploadResult{}
	progress := func(current, total int, result generation.PreviewResult) {
		if !s.isCurrent(ctx, sess.ID, epoch) {
			return
		}
		if result.Status == generation.StatusCompleted {
			if res, ok := s.uploadResult(ctx, sess.ID, epoch, result); ok {
				urls[result.ID] = res
				result.URL = res.URL
			}
		}
		s.publish(events.Event{SessionID: sess.ID, Epoch: epoch, Current: current, Total: total, Result: &result})
	}

	results, runErr := s.orchestrator.Run(ctx, batch, progress)
	if runErr != nil {
		log.Printf("studio: generation %s/%d: %v", sess.ID, epoch, runErr)
		sentry.CaptureException(fmt.Errorf("generation %s/%d: %w", sess.ID, epoch, runErr))
	}

	for i := range results {
		if res, ok := urls[results[i].ID]; ok {
			results[i].URL = res.URL
			results[i].Image.Data = nil
		}
	}

	err := s.store.CommitResults(ctx, sess.ID, epoch, results)
	switch {
	case errors.Is(err, storage.ErrStaleEpoch):
		log.Printf("studio: generation %s/%d superseded, dropping %d results", sess.ID, epoch, len(results))
		return
	case errors.Is(err, storage.ErrNotFound):
		log.Printf("studio: session %s deleted during generation", sess.ID)
		return
	case err != nil:
		log.Printf("studio: commit %s/%d: %v", sess.ID, epoch, err)
		sentry.CaptureException(err)
		return
	}

	done := events.Event{SessionID: sess.ID, Epoch: epoch, Current: len(results), Total: len(results), Done: true}
	if runErr != nil {
		done.Error = runErr.Error()
	}
	s.publish(done)
}

func (s *Service) uploadResult(ctx context.Context, sessionID string, epoch int64, result generation.PreviewResult) (media.UploadResult, bool) {
	if len(result.Image.Data) == 0 {
		return media.UploadResult{}, false
	}
	name := fmt.Sprintf("%s/results/%d-%s", sessionID, epoch, result.ID)
	res, err := media.UploadImage(ctx, s.uploader, name, result.Image)
	if err != nil {
		if !errors.Is(err, media.ErrUploaderDisabled) {
			log.Printf("studio: upload result %s: %v", result.ID, err)
			sentry.CaptureException(err)
		}
		return media.UploadResult{}, false
	}
	return res, true
}

func (s *Service) isCurrent(ctx context.Context, id string, epoch int64) bool {
	sess, err := s.store.GetSession(ctx, id)
	return err == nil && sess.Epoch == epoch
}

func (s *Service) publish(evt events.Event) {
	if s.events != nil {
		s.events.Publish(evt)
	}
}

// Refine interprets req against the current analysis and parks the result
// until it is confirmed or cancelled.
func (s *Service) Refine(ctx context.Context, id string, req refine.Request) (PendingRefinement, error) {
	sess, err := s.store.GetSession(ctx, id)
	if err != nil {
		return PendingRefinement{}, err
	}
	interp, err := refine.Interpret(req, sess.Analysis)
	if err != nil {
		return PendingRefinement{}, err
	}
	token, err := s.pending.Put(ctx, id, interp)
	if err != nil {
		return PendingRefinement{}, fmt.Errorf("studio: %w", err)
	}
	return PendingRefinement{Token: token, Interpretation: interp}, nil
}

// Confirm applies a pending refinement to the stored analysis and, when the
// session was generated before, regenerates with the same settings. The
// refinement stays pending when the analysis could not be updated.
func (s *Service) Confirm(ctx context.Context, id, token string) (Confirmation, error) {
	interp, err := s.pending.Take(ctx, id, token)
	if err != nil {
		return Confirmation{}, err
	}

	updated, err := s.store.UpdateAnalysis(ctx, id, func(current garment.Analysis) garment.Analysis {
		return refine.ApplyDirect(current, interp.Request)
	})
	if err != nil {
		if restoreErr := s.pending.Restore(ctx, id, token, interp); restoreErr != nil {
			log.Printf("studio: restore refinement %s: %v", token, restoreErr)
		}
		return Confirmation{}, err
	}
	out := Confirmation{Session: updated}

	if generation.ShotCount(updated.Settings.Views, updated.Settings.Purposes) == 0 {
		return out, nil
	}
	gen, err := s.Generate(ctx, id, updated.Settings)
	if err != nil {
		return out, err
	}
	out.Generation = &gen
	return out, nil
}

// Cancel discards a pending refinement.
func (s *Service) Cancel(ctx context.Context, id, token string) error {
	return s.pending.Discard(ctx, id, token)
}
