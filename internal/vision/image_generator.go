package vision

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"google.golang.org/genai"

	"fashionStudio/internal/imagery"
)

// Renderer produces one image from a prompt and labeled references.
type Renderer interface {
	Render(ctx context.Context, req RenderRequest) (imagery.Image, error)
}

// RenderRequest is everything a renderer receives. Scene, lighting and
// mannequin settings are already compiled into Prompt.
type RenderRequest struct {
	Prompt      string
	References  imagery.Set
	AspectRatio string
}

const (
	defaultImageModel = "gemini-2.5-flash-image"
	renderAttempts    = 3
	renderBackoff     = 2 * time.Second
)

// GeminiRenderer renders shots via Gemini image outputs.
type GeminiRenderer struct {
	client   *genai.Client
	model    string
	timeout  time.Duration
	attempts int
	backoff  time.Duration
}

// NewGeminiRenderer constructs a renderer able to request inline images.
func NewGeminiRenderer(ctx context.Context, apiKey, model string, timeout time.Duration) (*GeminiRenderer, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("vision: gemini api key required")
	}
	model = strings.TrimPrefix(strings.TrimSpace(model), "models/")
	if model == "" {
		model = defaultImageModel
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("vision: create genai client: %w", err)
	}
	return &GeminiRenderer{
		client:   client,
		model:    model,
		timeout:  timeout,
		attempts: renderAttempts,
		backoff:  renderBackoff,
	}, nil
}

// Render requests a photorealistic image, retrying rate-limited calls.
func (g *GeminiRenderer) Render(ctx context.Context, req RenderRequest) (imagery.Image, error) {
	if g == nil || g.client == nil {
		return imagery.Image{}, fmt.Errorf("vision: renderer unavailable")
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return imagery.Image{}, fmt.Errorf("vision: empty render prompt")
	}

	content := &genai.Content{Role: "user", Parts: renderParts(req)}
	config := &genai.GenerateContentConfig{
		Temperature: float32Ptr(0.4),
	}
	if ar := strings.TrimSpace(req.AspectRatio); ar != "" {
		config.ImageConfig = &genai.ImageConfig{AspectRatio: ar}
	}

	var out imagery.Image
	err := withRetry(ctx, g.attempts, g.backoff, func() error {
		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()

		resp, err := g.client.Models.GenerateContent(callCtx, g.model, []*genai.Content{content}, config)
		if err != nil {
			return fmt.Errorf("vision: render failed: %w", err)
		}
		img, err := firstInlineImage(resp)
		if err != nil {
			return err
		}
		out = img
		return nil
	})
	return out, err
}

// renderParts lays out each reference as a label followed by its bytes, then
// the prompt itself.
func renderParts(req RenderRequest) []*genai.Part {
	parts := make([]*genai.Part, 0, len(req.References)*2+1)
	for _, ref := range req.References {
		if len(ref.Data) == 0 {
			continue
		}
		parts = append(parts,
			genai.NewPartFromText("Reference image "+ref.Label()+":"),
			&genai.Part{InlineData: &genai.Blob{MIMEType: ref.MIME, Data: ref.Data}},
		)
	}
	return append(parts, genai.NewPartFromText(req.Prompt))
}

func firstInlineImage(resp *genai.GenerateContentResponse) (imagery.Image, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return imagery.Image{}, fmt.Errorf("vision: render returned no candidates")
	}
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			data := part.InlineData.Data
			return imagery.Image{MIME: imagery.DetectMIME(data, part.InlineData.MIMEType), Data: data}, nil
		}
	}
	return imagery.Image{}, fmt.Errorf("vision: render returned no image data")
}

// withRetry runs fn up to attempts times while it fails with a rate-limit
// error, sleeping backoff between tries.
func withRetry(ctx context.Context, attempts int, backoff time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if !IsRateLimited(err) || attempt == attempts {
			return err
		}
		log.Printf("vision: rate limited (attempt %d/%d): %v", attempt, attempts, err)
		select {
		case <-ctx.Done():
			return errors.Join(err, ctx.Err())
		case <-time.After(backoff):
		}
	}
	return err
}

// IsRateLimited reports whether err looks like a quota or 429 response.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "resource_exhausted") ||
		strings.Contains(msg, "quota")
}

func float32Ptr(v float32) *float32 { return &v }
