package rag

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/cloudwego/eino/components/embedding"
	"google.golang.org/genai"
)

const (
	EmbedderGemini = "gemini"
	EmbedderHash   = "hash"

	DefaultGeminiEmbeddingModel = "text-embedding-004"
	DefaultHashDimensions       = 256

	// Gemini task types for the two sides of retrieval.
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"

	// geminiBatchSize is the maximum number of contents per EmbedContent call.
	geminiBatchSize = 100
)

// NewEmbedder builds the embedder named by kind. client is only required for
// the Gemini embedder; the hash embedder runs offline.
func NewEmbedder(kind string, client *genai.Client, modelName, taskType string) (embedding.Embedder, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case EmbedderGemini, "":
		emb, err := NewGeminiEmbedder(GeminiEmbedderConfig{Client: client, Model: modelName, TaskType: taskType})
		if err != nil {
			return nil, err
		}
		return emb, nil
	case EmbedderHash:
		return NewHashEmbedder(DefaultHashDimensions), nil
	default:
		return nil, fmt.Errorf("unknown embedder %q (want %s or %s)", kind, EmbedderGemini, EmbedderHash)
	}
}

// GeminiEmbedder implements embedding.Embedder on top of the Gemini API.
type GeminiEmbedder struct {
	client   *genai.Client
	model    string
	taskType string
}

type GeminiEmbedderConfig struct {
	Client *genai.Client
	Model  string
	// TaskType is forwarded to the API, e.g. RETRIEVAL_DOCUMENT or RETRIEVAL_QUERY.
	TaskType string
}

func NewGeminiEmbedder(cfg GeminiEmbedderConfig) (*GeminiEmbedder, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("gemini embedder: client is nil")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiEmbeddingModel
	}
	return &GeminiEmbedder{client: cfg.Client, model: cfg.Model, taskType: cfg.TaskType}, nil
}

func (e *GeminiEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	options := embedding.GetCommonOptions(&embedding.Options{Model: &e.model}, opts...)
	modelName := e.model
	if options.Model != nil && *options.Model != "" {
		modelName = *options.Model
	}

	out := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += geminiBatchSize {
		end := min(start+geminiBatchSize, len(texts))
		contents := make([]*genai.Content, 0, end-start)
		for _, t := range texts[start:end] {
			contents = append(contents, genai.NewContentFromText(t, genai.RoleUser))
		}

		resp, err := e.client.Models.EmbedContent(ctx, modelName, contents, &genai.EmbedContentConfig{TaskType: e.taskType})
		if err != nil {
			return nil, fmt.Errorf("gemini embed content: %w", err)
		}
		if len(resp.Embeddings) != len(contents) {
			return nil, fmt.Errorf("gemini embed content: got %d embeddings for %d texts", len(resp.Embeddings), len(contents))
		}
		for _, emb := range resp.Embeddings {
			out = append(out, toFloat64(emb.Values))
		}
	}
	return out, nil
}

func (e *GeminiEmbedder) GetType() string {
	return "Gemini"
}

// HashEmbedder is a deterministic bag-of-words embedder. Each lowercased
// token is hashed into a fixed number of signed buckets and the vector is
// L2-normalised. It needs no network access, which makes it suitable for
// offline runs and tests.
type HashEmbedder struct {
	dimensions int
}

func NewHashEmbedder(dimensions int) *HashEmbedder {
	if dimensions <= 0 {
		dimensions = DefaultHashDimensions
	}
	return &HashEmbedder{dimensions: dimensions}
}

func (e *HashEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = e.embed(text)
	}
	return out, nil
}

func (e *HashEmbedder) GetType() string {
	return "Hash"
}

func (e *HashEmbedder) embed(text string) []float64 {
	vec := make([]float64, e.dimensions)
	for _, token := range tokenize(text) {
		h := fnv.New64a()
		_, _ = h.Write([]byte(token))
		sum := h.Sum64()
		idx := int(sum % uint64(e.dimensions))
		if sum>>63 == 1 {
			vec[idx] -= 1
		} else {
			vec[idx] += 1
		}
	}
	normalize(vec)
	return vec
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func normalize(vec []float64) {
	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] /= norm
	}
}

func toFloat64(values []float32) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}

var (
	_ embedding.Embedder = (*GeminiEmbedder)(nil)
	_ embedding.Embedder = (*HashEmbedder)(nil)
)
