// Package pipeline drives one keyword from pending to a persisted post.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"carekorea/internal/content"
	"carekorea/internal/domain"
	"carekorea/internal/providers/llm"
	"carekorea/internal/providers/prompt"
	"carekorea/internal/providers/retrieval"
)

// ImageAssembler generates the images planned for one document.
type ImageAssembler interface {
	GenerateImages(ctx context.Context, plans []domain.ImagePlan, keyPrefix string) content.ImageBatch
}

// Options wires an Orchestrator.
type Options struct {
	Keywords  domain.KeywordRepository
	Posts     domain.PostRepository
	Personas  *prompt.PersonaSelector
	Retrieval retrieval.Provider
	LLM       llm.Client
	Images    ImageAssembler

	LLMTimeout       time.Duration
	RetrievalTimeout time.Duration
	MaxOutputTokens  int
	Temperature      float64
	RetrievalTopK    int
	// MaxFailures sends a keyword to error instead of pending once reached; 0 never does.
	MaxFailures int

	Logger zerolog.Logger
	Now    func() time.Time
}

// Orchestrator runs the generation pipeline for single keywords.
type Orchestrator struct {
	opts     Options
	validate *validator.Validate
}

func NewOrchestrator(opts Options) (*Orchestrator, error) {
	if opts.Keywords == nil || opts.Posts == nil || opts.LLM == nil {
		return nil, errors.New("pipeline: keyword repo, post repo and llm client are required")
	}
	if opts.Retrieval == nil {
		opts.Retrieval = retrieval.Disabled{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RetrievalTimeout <= 0 {
		opts.RetrievalTimeout = 20 * time.Second
	}
	return &Orchestrator{opts: opts, validate: validator.New()}, nil
}

// Run generates content for keywordID. It returns AlreadyInProgress without side
// effects when another run holds the keyword, and never leaves the keyword in
// generating after a fatal error.
func (o *Orchestrator) Run(ctx context.Context, keywordID string, opts domain.RunOptions) *Result {
	started := o.opts.Now()
	keywordID = strings.TrimSpace(keywordID)
	logger := o.opts.Logger.With().Str("keyword_id", keywordID).Logger()

	res := o.run(ctx, keywordID, opts, logger)
	res.DurationMS = o.opts.Now().Sub(started).Milliseconds()
	if res.Success {
		logger.Info().
			Str("blog_post_id", res.BlogPostID).
			Int("images", res.ImagesGenerated).
			Float64("cost", res.TotalCost).
			Int64("duration_ms", res.DurationMS).
			Msg("keyword generated")
	}
	return res
}

func (o *Orchestrator) run(ctx context.Context, keywordID string, opts domain.RunOptions, logger zerolog.Logger) *Result {
	if err := o.validateInput(keywordID, opts); err != nil {
		return failure(keywordID, err)
	}
	kw, err := o.opts.Keywords.Get(ctx, keywordID)
	if err != nil {
		return failure(keywordID, err)
	}
	if err := kw.Validate(); err != nil {
		return failure(keywordID, err)
	}
	if kw.Status == domain.KeywordStatusGenerating {
		logger.Info().Msg("keyword already generating, skipping")
		return alreadyInProgress(keywordID)
	}

	kw, err = o.opts.Keywords.BeginGeneration(ctx, keywordID)
	if errors.Is(err, domain.ErrAlreadyInProgress) {
		logger.Info().Msg("keyword claimed by another run, skipping")
		return alreadyInProgress(keywordID)
	}
	if err != nil {
		return failure(keywordID, err)
	}

	res, err := o.generate(ctx, kw, opts, logger)
	if err != nil {
		return o.rollback(ctx, kw, err, logger)
	}
	return res
}

func (o *Orchestrator) validateInput(keywordID string, opts domain.RunOptions) error {
	var problems []string
	if keywordID == "" {
		problems = append(problems, "keyword id is required")
	}
	if err := o.validate.Struct(opts); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				problems = append(problems, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			}
		} else {
			problems = append(problems, err.Error())
		}
	}
	return domain.NewValidationError(problems...)
}

func (o *Orchestrator) generate(ctx context.Context, kw *domain.Keyword, opts domain.RunOptions, logger zerolog.Logger) (*Result, error) {
	wantImages := opts.IncludeImages && opts.ImageCount > 0 && o.opts.Images != nil

	snippets := o.fetchContext(ctx, kw, opts, logger)
	persona := o.opts.Personas.Select(ctx, kw.Locale, kw.Category)

	imageCount := 0
	if wantImages {
		imageCount = opts.ImageCount
	}
	p := prompt.Build(prompt.Input{
		Persona:    persona,
		Keyword:    kw.Text,
		Locale:     kw.Locale,
		Category:   kw.Category,
		Context:    snippets,
		ImageCount: imageCount,
	})

	llmCtx, cancel := withTimeout(ctx, o.opts.LLMTimeout)
	resp, err := o.opts.LLM.Complete(llmCtx, llm.Request{
		SystemPrompt:    p.System,
		UserPrompt:      p.User,
		MaxOutputTokens: o.opts.MaxOutputTokens,
		Temperature:     o.opts.Temperature,
	})
	cancel()
	if err != nil {
		return nil, fmt.Errorf("llm %s: %w", o.opts.LLM.Name(), asGeneration(err))
	}
	logger.Debug().Str("model", resp.Model).Int64("input_tokens", resp.InputTokens).Int64("output_tokens", resp.OutputTokens).Float64("cost", resp.Cost).Msg("llm completed")

	doc, err := content.Parse(resp.Text, wantImages)
	if err != nil {
		return nil, err
	}
	body, err := content.NormalizeBody(doc.BodyHTML)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrContentParse, err)
	}
	doc.BodyHTML = content.SanitizeBody(body)

	var imageFailures []domain.ImageFailure
	imageCost := 0.0
	if wantImages {
		doc.Images = trimPlans(doc, opts.ImageCount)
		batch := o.opts.Images.GenerateImages(ctx, doc.Images, "posts/"+kw.ID)
		imageFailures = append(batch.Errors, content.UnmatchedImages(doc.BodyHTML, batch.Images)...)
		doc.Generated = batch.Images
		doc.BodyHTML = content.InjectImagesIntoHTML(doc.BodyHTML, batch.Images)
		imageCost = batch.TotalCost
		if len(imageFailures) > 0 {
			logger.Warn().Err(domain.ErrImagePartialFailure).Int("failed", len(imageFailures)).Int("succeeded", len(batch.Images)).Msg("continuing with partial images")
		}
	} else {
		doc.Images = nil
		doc.BodyHTML = stripPlaceholders(doc.BodyHTML)
	}
	doc.EstimatedCost = resp.Cost + imageCost

	score := content.QualityScore(content.QualityInput{Content: doc, Locale: kw.Locale, ImagesExpected: wantImages})

	status := domain.PostStatusDraft
	kwStatus := domain.KeywordStatusGenerated
	var publishedAt *time.Time
	if opts.AutoPublish {
		status = domain.PostStatusPublished
		kwStatus = domain.KeywordStatusPublished
		now := o.opts.Now().UTC()
		publishedAt = &now
	}
	var personaID *string
	if !persona.IsDefault() {
		personaID = &persona.ID
	}
	post, err := o.opts.Posts.Insert(ctx, &domain.Post{
		Slug:            content.Slugify(kw.Text, kw.Locale),
		Locale:          kw.Locale,
		Category:        kw.Category,
		KeywordID:       kw.ID,
		AuthorPersonaID: personaID,
		Title:           doc.Title,
		Excerpt:         doc.Excerpt,
		ContentHTML:     doc.BodyHTML,
		MetaTitle:       doc.MetaTitle,
		MetaDescription: doc.MetaDescription,
		Tags:            doc.Tags,
		FAQ:             doc.FAQEntries,
		Images:          doc.Generated,
		Status:          status,
		GenerationCost:  doc.EstimatedCost,
		QualityScore:    &score,
		PublishedAt:     publishedAt,
	})
	if err != nil {
		return nil, asPersistence("insert post", err)
	}
	if err := o.opts.Keywords.MarkGenerated(ctx, kw.ID, post.ID, kwStatus); err != nil {
		// The keyword goes back to pending, so the post would be orphaned.
		if delErr := o.opts.Posts.Delete(context.WithoutCancel(ctx), post.ID); delErr != nil {
			logger.Error().Err(delErr).Str("blog_post_id", post.ID).Msg("delete unlinked post")
		}
		return nil, asPersistence("mark keyword generated", err)
	}
	o.opts.Personas.RecordUsage(ctx, persona)

	return &Result{
		Success:         true,
		KeywordID:       kw.ID,
		KeywordStatus:   kwStatus,
		BlogPostID:      post.ID,
		Slug:            post.Slug,
		Title:           doc.Title,
		ImagesGenerated: len(doc.Generated),
		TotalCost:       doc.EstimatedCost,
		QualityScore:    &score,
		Errors:          imageFailures,
	}, nil
}

func (o *Orchestrator) fetchContext(ctx context.Context, kw *domain.Keyword, opts domain.RunOptions, logger zerolog.Logger) []domain.Snippet {
	if !opts.IncludeRetrievalContext {
		return nil
	}
	rctx, cancel := withTimeout(ctx, o.opts.RetrievalTimeout)
	defer cancel()
	snippets, err := o.opts.Retrieval.Fetch(rctx, retrieval.Query{
		KeywordText: kw.Text,
		Locale:      kw.Locale,
		Category:    kw.Category,
		TopK:        o.opts.RetrievalTopK,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("retrieval context unavailable, continuing without it")
		return nil
	}
	return snippets
}

// rollback releases the keyword after a fatal error. The write uses a context
// detached from cancellation so a dropped client cannot leave it generating.
func (o *Orchestrator) rollback(ctx context.Context, kw *domain.Keyword, cause error, logger zerolog.Logger) *Result {
	res := failure(kw.ID, cause)
	logger.Error().Err(cause).Str("category", string(res.ErrorCategory)).Msg("generation failed, rolling back keyword")

	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	status, err := o.opts.Keywords.Rollback(rctx, kw.ID, res.Error, o.opts.MaxFailures)
	if err != nil {
		logger.Error().Err(err).Msg("keyword rollback failed")
		return res
	}
	res.KeywordStatus = status
	return res
}

// trimPlans keeps at most n plans and removes the tokens of the rest from the body.
func trimPlans(doc *domain.GeneratedContent, n int) []domain.ImagePlan {
	if len(doc.Images) <= n {
		return doc.Images
	}
	for _, extra := range doc.Images[n:] {
		doc.BodyHTML = strings.Replace(doc.BodyHTML, extra.Placeholder, "", 1)
	}
	return doc.Images[:n]
}

func stripPlaceholders(body string) string {
	return strings.ReplaceAll(content.StripPlaceholders(body), "<p></p>", "")
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func asGeneration(err error) error {
	if errors.Is(err, domain.ErrGeneration) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrGeneration, err)
}

func asPersistence(op string, err error) error {
	if errors.Is(err, domain.ErrPersistence) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrPersistence, err)
}
