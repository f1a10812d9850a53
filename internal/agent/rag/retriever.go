package rag

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"

	"github.com/agentic-hr-assistant/server/internal/agent/keywords"
	logx "github.com/agentic-hr-assistant/server/pkg/logger"
)

const DefaultTopK = 3

// Searcher is the query side of a policy index.
type Searcher interface {
	Search(query []float64, k int, country string) ([]*schema.Document, error)
}

// PolicyRetriever returns the passages closest to a question. When the
// question names a country, only passages tagged with that country qualify.
type PolicyRetriever struct {
	index    Searcher
	embedder embedding.Embedder
	topK     int
}

type PolicyRetrieverConfig struct {
	Index    Searcher
	Embedder embedding.Embedder
	TopK     int
}

func NewPolicyRetriever(cfg PolicyRetrieverConfig) (*PolicyRetriever, error) {
	if cfg.Index == nil {
		return nil, fmt.Errorf("policy retriever: index is nil")
	}
	if cfg.Embedder == nil {
		return nil, fmt.Errorf("policy retriever: embedder is nil")
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	return &PolicyRetriever{index: cfg.Index, embedder: cfg.Embedder, topK: cfg.TopK}, nil
}

func (r *PolicyRetriever) Retrieve(ctx context.Context, query string, opts ...retriever.Option) (docs []*schema.Document, err error) {
	options := retriever.GetCommonOptions(&retriever.Options{TopK: &r.topK, Embedding: r.embedder}, opts...)
	topK := r.topK
	if options.TopK != nil {
		topK = *options.TopK
	}
	emb := r.embedder
	if options.Embedding != nil {
		emb = options.Embedding
	}

	country := keywords.DetectCountry(query)

	ctx = callbacks.OnStart(ctx, &retriever.CallbackInput{
		Query:  query,
		TopK:   topK,
		Filter: country,
	})
	defer func() {
		if err != nil {
			callbacks.OnError(ctx, err)
			return
		}
		callbacks.OnEnd(ctx, &retriever.CallbackOutput{Docs: docs})
	}()

	vectors, err := emb.EmbedStrings(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embed question: got %d vectors", len(vectors))
	}

	docs, err = r.index.Search(vectors[0], topK, country)
	if err != nil {
		return nil, err
	}

	logx.Debug().
		Str("country_filter", country).
		Int("top_k", topK).
		Int("passages", len(docs)).
		Msg("Policy passages retrieved")
	return docs, nil
}

func (r *PolicyRetriever) GetType() string {
	return "PolicyRetriever"
}

func (r *PolicyRetriever) IsCallbacksEnabled() bool {
	return true
}

var _ retriever.Retriever = (*PolicyRetriever)(nil)
