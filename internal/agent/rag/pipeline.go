package rag

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/document"
	"github.com/cloudwego/eino/schema"

	logx "github.com/agentic-hr-assistant/server/pkg/logger"
)

// BuildConfig wires the index build pipeline: load → split → store.
type BuildConfig struct {
	Manifest    *Manifest
	Loader      document.Loader
	Transformer document.Transformer
	Index       *BoltIndex
}

// BuildReport summarises a finished build.
type BuildReport struct {
	Documents int
	Chunks    int
	IDs       []string
}

// BuildIndex rebuilds the policy index from the manifest. Existing passages
// are removed first so the index always mirrors the manifest.
func BuildIndex(ctx context.Context, cfg BuildConfig) (*BuildReport, error) {
	if cfg.Manifest == nil || cfg.Index == nil {
		return nil, fmt.Errorf("build index: manifest and index are required")
	}
	if cfg.Loader == nil {
		loader, err := NewPolicyLoader(ctx)
		if err != nil {
			return nil, err
		}
		cfg.Loader = loader
	}
	if cfg.Transformer == nil {
		splitter, err := NewPolicySplitter(ctx, DefaultChunkSize, DefaultChunkOverlap)
		if err != nil {
			return nil, err
		}
		cfg.Transformer = splitter
	}

	var docs []*schema.Document
	for _, entry := range cfg.Manifest.Documents {
		loaded, err := cfg.Loader.Load(ctx, document.Source{URI: entry.Path})
		if err != nil {
			return nil, fmt.Errorf("build index: %w", err)
		}
		for _, d := range loaded {
			if d.MetaData == nil {
				d.MetaData = map[string]any{}
			}
			d.MetaData[MetaCountry] = entry.Country
			d.MetaData[MetaPolicyType] = entry.PolicyType
			d.MetaData[MetaSource] = entry.Path
		}
		docs = append(docs, loaded...)
	}

	var chunks []*schema.Document
	for _, d := range docs {
		split, err := cfg.Transformer.Transform(ctx, []*schema.Document{d})
		if err != nil {
			return nil, fmt.Errorf("build index: split %s: %w", d.ID, err)
		}
		chunks = append(chunks, labelChunks(d, split)...)
	}

	if err := cfg.Index.Reset(); err != nil {
		return nil, err
	}
	ids, err := cfg.Index.Store(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}

	logx.Info().
		Int("documents", len(docs)).
		Int("chunks", len(chunks)).
		Msg("HR documents indexed and stored")

	return &BuildReport{Documents: len(docs), Chunks: len(chunks), IDs: ids}, nil
}

// labelChunks numbers the chunks of src and carries its labels onto them.
// Each chunk gets its own metadata map.
func labelChunks(src *schema.Document, chunks []*schema.Document) []*schema.Document {
	for i, c := range chunks {
		meta := cloneMeta(src.MetaData)
		for k, v := range c.MetaData {
			meta[k] = v
		}
		meta[MetaChunkIndex] = i
		c.MetaData = meta
		if c.ID == "" {
			c.ID = chunkID(context.Background(), src.ID, i)
		}
	}
	return chunks
}
