package vision

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	aiplatform "cloud.google.com/go/aiplatform/apiv1"
	"cloud.google.com/go/aiplatform/apiv1/aiplatformpb"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/types/known/structpb"

	"fashionStudio/internal/imagery"
)

// VertexImagen implements Renderer through an Imagen edit request. The base
// image is the anchor when one exists, else the model reference, else the
// first garment.
type VertexImagen struct {
	projectID          string
	location           string
	model              string
	apiKey             string
	serviceAccount     string
	serviceAccountJSON string
}

// VertexImagenConfig describes how to connect to Imagen.
type VertexImagenConfig struct {
	ProjectID          string
	Location           string
	Model              string
	APIKey             string
	ServiceAccount     string
	ServiceAccountJSON string
}

// NewVertexImagen wires a VertexImagen client.
func NewVertexImagen(cfg VertexImagenConfig) *VertexImagen {
	return &VertexImagen{
		projectID:          strings.TrimSpace(cfg.ProjectID),
		location:           strings.TrimSpace(cfg.Location),
		model:              strings.TrimSpace(cfg.Model),
		apiKey:             strings.TrimSpace(cfg.APIKey),
		serviceAccount:     strings.TrimSpace(cfg.ServiceAccount),
		serviceAccountJSON: strings.TrimSpace(cfg.ServiceAccountJSON),
	}
}

// Render implements Renderer.
func (v *VertexImagen) Render(ctx context.Context, req RenderRequest) (imagery.Image, error) {
	if v == nil {
		return imagery.Image{}, fmt.Errorf("imagen: client not configured")
	}
	if v.projectID == "" || v.location == "" || v.model == "" {
		return imagery.Image{}, fmt.Errorf("imagen: missing project/location/model")
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return imagery.Image{}, fmt.Errorf("imagen: prompt is required")
	}
	base, ok := baseImage(req.References)
	if !ok {
		return imagery.Image{}, fmt.Errorf("imagen: reference image is required")
	}

	instance, err := structpb.NewValue(map[string]any{
		"prompt": req.Prompt,
		"image": map[string]any{
			"bytesBase64Encoded": base.Base64(),
		},
	})
	if err != nil {
		return imagery.Image{}, fmt.Errorf("imagen: instance: %w", err)
	}

	params := map[string]any{
		"sampleCount": 1,
		"editMode":    "inpainting-free-form",
	}
	if ar := strings.TrimSpace(req.AspectRatio); ar != "" {
		params["aspectRatio"] = ar
	}
	parameters, err := structpb.NewValue(params)
	if err != nil {
		return imagery.Image{}, fmt.Errorf("imagen: parameters: %w", err)
	}

	client, err := aiplatform.NewPredictionClient(ctx, v.clientOptions()...)
	if err != nil {
		return imagery.Image{}, fmt.Errorf("imagen: prediction client: %w", err)
	}
	defer client.Close()

	resp, err := client.Predict(ctx, &aiplatformpb.PredictRequest{
		Endpoint:   v.endpoint(),
		Instances:  []*structpb.Value{instance},
		Parameters: parameters,
	})
	if err != nil {
		return imagery.Image{}, fmt.Errorf("imagen: predict: %w", err)
	}
	return decodePrediction(resp.GetPredictions())
}

func (v *VertexImagen) endpoint() string {
	return fmt.Sprintf("projects/%s/locations/%s/publishers/google/models/%s", v.projectID, v.location, v.model)
}

func (v *VertexImagen) clientOptions() []option.ClientOption {
	options := []option.ClientOption{option.WithEndpoint(fmt.Sprintf("%s-aiplatform.googleapis.com:443", v.location))}
	switch {
	case v.serviceAccountJSON != "":
		options = append(options, option.WithCredentialsJSON([]byte(v.serviceAccountJSON)))
	case v.serviceAccount != "":
		options = append(options, option.WithCredentialsFile(v.serviceAccount))
	case v.apiKey != "":
		options = append(options, option.WithAPIKey(v.apiKey))
	}
	return options
}

func baseImage(refs imagery.Set) (imagery.Image, bool) {
	for _, role := range []imagery.Role{imagery.RoleAnchor, imagery.RoleModel} {
		for _, img := range refs {
			if img.Role == role && len(img.Data) > 0 {
				return img, true
			}
		}
	}
	for _, img := range refs.Garments() {
		if len(img.Data) > 0 {
			return img, true
		}
	}
	return imagery.Image{}, false
}

func decodePrediction(predictions []*structpb.Value) (imagery.Image, error) {
	if len(predictions) == 0 {
		return imagery.Image{}, fmt.Errorf("imagen: empty prediction response")
	}
	fields := predictions[0].GetStructValue().GetFields()
	field := fields["bytesBase64Encoded"]
	if field == nil {
		return imagery.Image{}, fmt.Errorf("imagen: prediction missing bytes")
	}
	data, err := base64.StdEncoding.DecodeString(field.GetStringValue())
	if err != nil {
		return imagery.Image{}, fmt.Errorf("imagen: decode result: %w", err)
	}
	mime := ""
	if m := fields["mimeType"]; m != nil {
		mime = m.GetStringValue()
	}
	return imagery.Image{MIME: imagery.DetectMIME(data, mime), Data: data}, nil
}
