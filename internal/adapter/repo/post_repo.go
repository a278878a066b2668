package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"carekorea/internal/domain"
	"carekorea/internal/infra"
	"carekorea/internal/sqlinline"
)

// PostRepositoryPG implements domain.PostRepository backed by PostgreSQL.
type PostRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewPostRepository creates a new PostRepositoryPG.
func NewPostRepository(sql infra.SQLExecutor) *PostRepositoryPG {
	return &PostRepositoryPG{sql: sql}
}

// Insert writes the post into the columns of its locale. A slug collision is
// retried once with a short id suffix.
func (r *PostRepositoryPG) Insert(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	if !post.Locale.Valid() {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid locale %q", post.Locale))
	}
	out := *post
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	if out.Slug == "" {
		out.Slug = out.ID
	}

	faq, err := json.Marshal(nonNilFAQ(out.FAQ))
	if err != nil {
		return nil, fmt.Errorf("encode faq: %w", err)
	}
	images, err := json.Marshal(nonNilImages(out.Images))
	if err != nil {
		return nil, fmt.Errorf("encode images: %w", err)
	}
	query := localizedQuery(sqlinline.QInsertPost, out.Locale)

	insert := func() error {
		return r.sql.QueryRow(ctx, query,
			out.ID,
			out.Slug,
			string(out.Locale),
			out.Category,
			nullable(out.KeywordID),
			out.AuthorPersonaID,
			out.Title,
			out.Excerpt,
			out.ContentHTML,
			out.MetaTitle,
			out.MetaDescription,
			nonNilStrings(out.Tags),
			faq,
			images,
			string(out.Status),
			out.GenerationCost,
			out.QualityScore,
			out.PublishedAt,
		).Scan(&out.CreatedAt)
	}

	err = insert()
	if infra.IsUniqueViolation(err) {
		out.Slug = out.Slug + "-" + out.ID[:8]
		err = insert()
	}
	if err != nil {
		return nil, wrapErr("insert post", err)
	}
	return &out, nil
}

// FindBySlug fetches a post and reads the columns of its own locale.
func (r *PostRepositoryPG) FindBySlug(ctx context.Context, slug string) (*domain.Post, error) {
	var (
		post              domain.Post
		locale, status    string
		keywordID         *string
		faqRaw, imagesRaw []byte
		rowRaw            []byte
	)
	err := r.sql.QueryRow(ctx, sqlinline.QSelectPostBySlug, slug).Scan(
		&post.ID,
		&post.Slug,
		&locale,
		&post.Category,
		&keywordID,
		&post.AuthorPersonaID,
		&status,
		&post.GenerationCost,
		&post.QualityScore,
		&post.PublishedAt,
		&post.CreatedAt,
		&post.Tags,
		&faqRaw,
		&imagesRaw,
		&rowRaw,
	)
	if err != nil {
		return nil, wrapErr("find post", err)
	}
	post.Locale = domain.Locale(locale)
	post.Status = domain.PostStatus(status)
	if keywordID != nil {
		post.KeywordID = *keywordID
	}
	if err := json.Unmarshal(faqRaw, &post.FAQ); err != nil {
		return nil, fmt.Errorf("decode faq: %w", err)
	}
	if err := json.Unmarshal(imagesRaw, &post.Images); err != nil {
		return nil, fmt.Errorf("decode images: %w", err)
	}

	var row map[string]any
	if err := json.Unmarshal(rowRaw, &row); err != nil {
		return nil, fmt.Errorf("decode post row: %w", err)
	}
	suffix := post.Locale.ColumnSuffix()
	post.Title = stringField(row, "title_"+suffix)
	post.Excerpt = stringField(row, "excerpt_"+suffix)
	post.ContentHTML = stringField(row, "content_"+suffix)
	post.MetaTitle = stringField(row, "meta_title_"+suffix)
	post.MetaDescription = stringField(row, "meta_description_"+suffix)
	return &post, nil
}

// Delete removes the post with id. A missing post is not an error.
func (r *PostRepositoryPG) Delete(ctx context.Context, id string) error {
	if _, err := r.sql.Exec(ctx, sqlinline.QDeletePost, id); err != nil {
		return wrapErr("delete post", err)
	}
	return nil
}

// localizedQuery substitutes the locale column suffix. Locales come from a
// fixed set so the result is never caller controlled.
func localizedQuery(query string, locale domain.Locale) string {
	return strings.ReplaceAll(query, sqlinline.LocaleSuffix, locale.ColumnSuffix())
}

func stringField(row map[string]any, key string) string {
	if v, ok := row[key].(string); ok {
		return v
	}
	return ""
}

func nonNilStrings(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func nonNilFAQ(v []domain.FAQEntry) []domain.FAQEntry {
	if v == nil {
		return []domain.FAQEntry{}
	}
	return v
}

func nonNilImages(v []domain.GeneratedImage) []domain.GeneratedImage {
	if v == nil {
		return []domain.GeneratedImage{}
	}
	return v
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

var _ domain.PostRepository = (*PostRepositoryPG)(nil)
