package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const defaultEmbeddingModel = "gemini-embedding-001"

// EmbeddingDimensions matches the content_snippets.embedding column.
const EmbeddingDimensions = 768

// GeminiEmbedder embeds queries with the Gemini embeddings API.
type GeminiEmbedder struct {
	client *genai.Client
	model  string
}

func NewGeminiEmbedder(client *genai.Client, model string) (*GeminiEmbedder, error) {
	if client == nil {
		return nil, errors.New("embedder: genai client is required")
	}
	if strings.TrimSpace(model) == "" {
		model = defaultEmbeddingModel
	}
	return &GeminiEmbedder{client: client, model: model}, nil
}

func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("embedder: empty text")
	}
	resp, err := e.client.Models.EmbedContent(ctx, e.model,
		[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)},
		&genai.EmbedContentConfig{
			TaskType:             "RETRIEVAL_QUERY",
			OutputDimensionality: genai.Ptr(int32(EmbeddingDimensions)),
		})
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, errors.New("embedder: empty embedding")
	}
	return resp.Embeddings[0].Values, nil
}

var _ Embedder = (*GeminiEmbedder)(nil)
