package image

import (
	"context"
	"errors"
	"strings"
	"time"

	"google.golang.org/genai"
)

const defaultImagenModel = "imagen-4.0-generate-001"

// ImagenGenerator renders images with Google Imagen and stores the bytes.
type ImagenGenerator struct {
	client *genai.Client
	model  string
	saver  ImageSaver
	now    func() time.Time
}

func NewImagenGenerator(client *genai.Client, model string, saver ImageSaver) (*ImagenGenerator, error) {
	if client == nil {
		return nil, errors.New("imagen: genai client is required")
	}
	if saver == nil {
		return nil, errors.New("imagen: image store is required")
	}
	if strings.TrimSpace(model) == "" {
		model = defaultImagenModel
	}
	return &ImagenGenerator{client: client, model: model, saver: saver, now: time.Now}, nil
}

func (g *ImagenGenerator) Name() string { return ProviderImagen }

func (g *ImagenGenerator) Generate(ctx context.Context, req Request) (*Result, error) {
	req = normalizeRequest(req)
	if req.Prompt == "" {
		return nil, &Error{Provider: ProviderImagen, Reason: "empty prompt"}
	}
	started := g.now()
	resp, err := g.client.Models.GenerateImages(ctx, g.model, req.Prompt, &genai.GenerateImagesConfig{
		NegativePrompt: req.NegativePrompt,
		NumberOfImages: 1,
		AspectRatio:    AspectRatio(req.Size),
		OutputMIMEType: "image/png",
	})
	if err != nil {
		return nil, &Error{Provider: ProviderImagen, Reason: "request failed", Err: err}
	}
	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil || len(resp.GeneratedImages[0].Image.ImageBytes) == 0 {
		reason := "no image returned"
		if len(resp.GeneratedImages) > 0 && resp.GeneratedImages[0].RAIFilteredReason != "" {
			reason = "filtered: " + resp.GeneratedImages[0].RAIFilteredReason
		}
		return nil, &Error{Provider: ProviderImagen, Reason: reason}
	}
	img := resp.GeneratedImages[0]
	url, err := g.saver.SaveImage(ctx, req.KeyPrefix, img.Image.ImageBytes, img.Image.MIMEType)
	if err != nil {
		return nil, &Error{Provider: ProviderImagen, Reason: "store image", Err: err}
	}
	return &Result{
		URL:           url,
		RevisedPrompt: img.EnhancedPrompt,
		Size:          req.Size,
		Quality:       req.Quality,
		Cost:          Cost(ProviderImagen, g.model, req.Size, req.Quality),
		Latency:       g.now().Sub(started),
	}, nil
}

var _ Generator = (*ImagenGenerator)(nil)
