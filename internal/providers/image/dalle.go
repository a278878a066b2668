package image

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DalleOptions configures the DALL-E generator.
type DalleOptions struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Saver      ImageSaver
}

// DalleGenerator renders images with OpenAI DALL-E 3.
type DalleGenerator struct {
	client openai.Client
	saver  ImageSaver
	now    func() time.Time
}

func NewDalleGenerator(opts DalleOptions) (*DalleGenerator, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("dalle: openai api key is required")
	}
	reqOpts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(opts.APIKey)),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}
	return &DalleGenerator{client: openai.NewClient(reqOpts...), saver: opts.Saver, now: time.Now}, nil
}

func (g *DalleGenerator) Name() string { return ProviderDalle }

func (g *DalleGenerator) Generate(ctx context.Context, req Request) (*Result, error) {
	req = normalizeRequest(req)
	if req.Prompt == "" {
		return nil, &Error{Provider: ProviderDalle, Reason: "empty prompt"}
	}
	prompt := req.Prompt
	if req.NegativePrompt != "" {
		prompt += "\nAvoid: " + req.NegativePrompt
	}
	started := g.now()
	resp, err := g.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt:  prompt,
		Model:   openai.ImageModelDallE3,
		N:       openai.Int(1),
		Size:    openai.ImageGenerateParamsSize(req.Size),
		Quality: openai.ImageGenerateParamsQuality(req.Quality),
		Style:   dalleStyle(req.Style),
	})
	if err != nil {
		return nil, &Error{Provider: ProviderDalle, Reason: "request failed", Err: err}
	}
	if len(resp.Data) == 0 {
		return nil, &Error{Provider: ProviderDalle, Reason: "no image returned"}
	}
	img := resp.Data[0]
	url := img.URL
	if url == "" && img.B64JSON != "" {
		if g.saver == nil {
			return nil, &Error{Provider: ProviderDalle, Reason: "b64 image without store"}
		}
		data, err := base64.StdEncoding.DecodeString(img.B64JSON)
		if err != nil {
			return nil, &Error{Provider: ProviderDalle, Reason: "decode image", Err: err}
		}
		if url, err = g.saver.SaveImage(ctx, req.KeyPrefix, data, "image/png"); err != nil {
			return nil, &Error{Provider: ProviderDalle, Reason: "store image", Err: err}
		}
	}
	if url == "" {
		return nil, &Error{Provider: ProviderDalle, Reason: "empty image url"}
	}
	return &Result{
		URL:           url,
		RevisedPrompt: img.RevisedPrompt,
		Size:          req.Size,
		Quality:       req.Quality,
		Cost:          Cost(ProviderDalle, string(openai.ImageModelDallE3), req.Size, req.Quality),
		Latency:       g.now().Sub(started),
	}, nil
}

func dalleStyle(style string) openai.ImageGenerateParamsStyle {
	if strings.EqualFold(style, "vivid") {
		return openai.ImageGenerateParamsStyleVivid
	}
	return openai.ImageGenerateParamsStyleNatural
}

var _ Generator = (*DalleGenerator)(nil)
