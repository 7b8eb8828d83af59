package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"fashionStudio/internal/garment"
	"fashionStudio/internal/imagery"
)

// Analyzer turns uploaded garment photos into a structured analysis.
type Analyzer interface {
	AnalyzeGarments(ctx context.Context, images []imagery.Image) (garment.Analysis, error)
}

const (
	MaxVisionImageBytes = 7 * 1024 * 1024
	defaultVisionModel  = "gemini-2.5-flash"
	defaultEndpoint     = "https://generativelanguage.googleapis.com/v1beta"
	generativeScope     = "https://www.googleapis.com/auth/generative-language"
)

const analysisPrompt = `You are a senior fashion stylist. Each image below is labeled with its role.
Describe every garment_<slot> image in the slot named by its label. Only use the slots tops, outer, inner, pants and shoes.
Answer ONLY with JSON using this structure:
{
  "tops": {"description": "...", "fabric": "...", "style": "...", "colorHex": "#RRGGBB"},
  "outer": {...},
  "inner": {...},
  "pants": {...},
  "shoes": {...},
  "overallStyle": "one sentence about the combined look",
  "keywords": ["short", "style", "keywords"]
}
Leave out every slot that has no garment image.`

// GeminiAnalyzer implements Analyzer using the Generative Language REST API.
// It authenticates with an API key or, when one is configured, an OAuth2
// token source built from service-account credentials.
type GeminiAnalyzer struct {
	apiKey   string
	model    string
	endpoint string
	tokens   oauth2.TokenSource
	client   *http.Client
}

// GeminiAnalyzerConfig describes how to reach Gemini.
type GeminiAnalyzerConfig struct {
	APIKey          string
	CredentialsJSON []byte
	Model           string
	Endpoint        string
	Timeout         time.Duration
}

// NewGeminiAnalyzer constructs a Gemini-powered garment analyzer.
func NewGeminiAnalyzer(ctx context.Context, cfg GeminiAnalyzerConfig) (*GeminiAnalyzer, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	endpoint := strings.TrimSuffix(strings.TrimSpace(cfg.Endpoint), "/")
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	g := &GeminiAnalyzer{
		apiKey:   strings.TrimSpace(cfg.APIKey),
		model:    normalizeVisionModel(cfg.Model),
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
	if len(cfg.CredentialsJSON) > 0 {
		creds, err := google.CredentialsFromJSON(ctx, cfg.CredentialsJSON, generativeScope)
		if err != nil {
			return nil, fmt.Errorf("vision: load credentials: %w", err)
		}
		g.tokens = creds.TokenSource
	}
	if g.apiKey == "" && g.tokens == nil {
		return nil, fmt.Errorf("vision: api key or credentials required")
	}
	return g, nil
}

// AnalyzeGarments sends every garment image in one request and returns an
// analysis that holds exactly the slots that were uploaded.
func (g *GeminiAnalyzer) AnalyzeGarments(ctx context.Context, images []imagery.Image) (garment.Analysis, error) {
	set := imagery.Set(images)
	slots := set.Slots()
	if len(slots) == 0 {
		return garment.Analysis{}, fmt.Errorf("vision: no garment images")
	}

	parts := []map[string]any{{"text": analysisPrompt}}
	for _, img := range set.Garments() {
		if len(img.Data) > MaxVisionImageBytes {
			return garment.Analysis{}, fmt.Errorf("vision: %s exceeds %d bytes", img.Label(), MaxVisionImageBytes)
		}
		parts = append(parts,
			map[string]any{"text": "Image " + img.Label() + ":"},
			map[string]any{"inline_data": map[string]string{
				"mime_type": img.MIME,
				"data":      img.Base64(),
			}},
		)
	}

	payload := map[string]any{
		"contents": []map[string]any{{"role": "user", "parts": parts}},
		"generationConfig": map[string]any{
			"temperature":      0.2,
			"responseMimeType": "application/json",
		},
	}
	text, err := g.generate(ctx, payload)
	if err != nil {
		return garment.Analysis{}, err
	}

	analysis, err := parseAnalysisJSON(text)
	if err != nil {
		return garment.Analysis{}, err
	}
	return AlignToSlots(analysis, slots), nil
}

func (g *GeminiAnalyzer) generate(ctx context.Context, payload map[string]any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("vision: marshal payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", g.endpoint, g.model)
	if g.tokens == nil {
		endpoint += "?key=" + g.apiKey
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("vision: request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.tokens != nil {
		token, err := g.tokens.Token()
		if err != nil {
			return "", fmt.Errorf("vision: token: %w", err)
		}
		token.SetAuthHeader(req)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("vision: perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var failure struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&failure)
		return "", fmt.Errorf("vision: status %d: %s", resp.StatusCode, failure.Error.Message)
	}

	var completion struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", fmt.Errorf("vision: decode response: %w", err)
	}
	if len(completion.Candidates) == 0 || len(completion.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("vision: empty response")
	}

	var b strings.Builder
	for _, part := range completion.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	return strings.TrimSpace(b.String()), nil
}

func parseAnalysisJSON(text string) (garment.Analysis, error) {
	var analysis garment.Analysis
	if err := json.Unmarshal([]byte(text), &analysis); err != nil {
		start := strings.Index(text, "{")
		end := strings.LastIndex(text, "}")
		if start < 0 || end <= start {
			return garment.Analysis{}, fmt.Errorf("vision: parse response: %w", err)
		}
		if err := json.Unmarshal([]byte(text[start:end+1]), &analysis); err != nil {
			return garment.Analysis{}, fmt.Errorf("vision: parse response: %w", err)
		}
	}
	return analysis, nil
}

// AlignToSlots drops slots that were not uploaded and fills uploaded slots
// the model skipped, so the result is present exactly for slots.
func AlignToSlots(analysis garment.Analysis, slots []garment.Slot) garment.Analysis {
	uploaded := make(map[garment.Slot]bool, len(slots))
	for _, slot := range slots {
		uploaded[slot] = true
	}

	out := analysis.Clone()
	for _, slot := range garment.Slots {
		if !uploaded[slot] {
			out = out.Without(slot)
			continue
		}
		item, ok := out.Item(slot)
		if !ok {
			item = garment.Item{}
		}
		item.ColorHex = normalizeHex(item.ColorHex)
		if strings.TrimSpace(item.Description) == "" {
			item.Description = strings.ToLower(slot.Label()) + " as shown in the garment_" + string(slot) + " image"
		}
		out = out.WithItem(slot, item)
	}
	return out
}

func normalizeHex(value string) string {
	v := strings.ToUpper(strings.TrimSpace(value))
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "#") {
		v = "#" + v
	}
	if len(v) != 4 && len(v) != 7 {
		return ""
	}
	for _, r := range v[1:] {
		if !strings.ContainsRune("0123456789ABCDEF", r) {
			return ""
		}
	}
	return v
}

func normalizeVisionModel(model string) string {
	clean := strings.TrimSpace(model)
	clean = strings.TrimPrefix(clean, "models/")
	clean = strings.ToLower(clean)
	clean = strings.TrimSuffix(clean, "-latest")
	if clean == "" {
		return defaultVisionModel
	}
	return clean
}
