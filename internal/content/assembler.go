package content

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"carekorea/internal/domain"
	"carekorea/internal/providers/image"
)

// ImageDefaults are applied to every image request of one document.
type ImageDefaults struct {
	Size    string
	Quality string
	Style   string
	// NegativePrompt is appended to every request when set.
	NegativePrompt string
}

// AssemblerOptions configures an Assembler.
type AssemblerOptions struct {
	Generator   image.Generator
	Defaults    ImageDefaults
	Concurrency int
	// Timeout bounds each image call.
	Timeout time.Duration
	Logger  zerolog.Logger
}

// Assembler turns image plans into generated images.
type Assembler struct {
	gen         image.Generator
	defaults    ImageDefaults
	concurrency int
	timeout     time.Duration
	logger      zerolog.Logger
}

// ImageBatch is the outcome of generating one document's images.
type ImageBatch struct {
	Images    []domain.GeneratedImage
	TotalCost float64
	Errors    []domain.ImageFailure
}

func NewAssembler(opts AssemblerOptions) (*Assembler, error) {
	if opts.Generator == nil {
		return nil, errors.New("assembler: image generator is required")
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 3
	}
	return &Assembler{
		gen:         opts.Generator,
		defaults:    opts.Defaults,
		concurrency: opts.Concurrency,
		timeout:     opts.Timeout,
		logger:      opts.Logger,
	}, nil
}

// GenerateImages fans out one request per plan. Failures are collected per
// placeholder and never abort the others. Order of Images follows plans.
func (a *Assembler) GenerateImages(ctx context.Context, plans []domain.ImagePlan, keyPrefix string) ImageBatch {
	results := make([]*domain.GeneratedImage, len(plans))
	failures := make([]error, len(plans))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, plan := range plans {
		g.Go(func() error {
			img, err := a.generateOne(gctx, plan, keyPrefix)
			if err != nil {
				failures[i] = err
				return nil
			}
			results[i] = img
			return nil
		})
	}
	_ = g.Wait()

	var out ImageBatch
	for i, plan := range plans {
		if err := failures[i]; err != nil {
			a.logger.Warn().Err(err).Str("placeholder", plan.Placeholder).Str("provider", a.gen.Name()).Msg("image generation failed")
			out.Errors = append(out.Errors, domain.ImageFailure{Placeholder: plan.Placeholder, Error: domain.TruncateDiagnostic(err.Error())})
			continue
		}
		out.Images = append(out.Images, *results[i])
		out.TotalCost += results[i].Cost
	}
	return out
}

func (a *Assembler) generateOne(ctx context.Context, plan domain.ImagePlan, keyPrefix string) (*domain.GeneratedImage, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	res, err := a.gen.Generate(ctx, image.Request{
		Prompt:         plan.Prompt,
		NegativePrompt: a.defaults.NegativePrompt,
		Size:           a.defaults.Size,
		Quality:        a.defaults.Quality,
		Style:          a.defaults.Style,
		KeyPrefix:      keyPrefix,
	})
	if err != nil {
		return nil, err
	}
	if res == nil || res.URL == "" {
		return nil, fmt.Errorf("%s: empty result", a.gen.Name())
	}
	return &domain.GeneratedImage{
		ImagePlan:     plan,
		URL:           res.URL,
		RevisedPrompt: res.RevisedPrompt,
		SizeClass:     res.Size,
		QualityClass:  res.Quality,
		Cost:          res.Cost,
		LatencyMS:     res.Latency.Milliseconds(),
	}, nil
}
