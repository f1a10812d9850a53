package rag

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/document/transformer/splitter/recursive"
	"github.com/cloudwego/eino/components/document"
)

const (
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 50
)

// DefaultSeparators are tried in order, from paragraphs down to words.
var DefaultSeparators = []string{"\n\n", "\n", " "}

// NewPolicySplitter returns a recursive splitter producing chunks of at most
// chunkSize characters with chunkOverlap characters shared between neighbours.
// Chunk ids have the form <document id>#<chunk index>.
func NewPolicySplitter(ctx context.Context, chunkSize, chunkOverlap int) (document.Transformer, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 {
		return nil, fmt.Errorf("chunk overlap must not be negative, got %d", chunkOverlap)
	}
	if chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap %d must be smaller than chunk size %d", chunkOverlap, chunkSize)
	}

	splitter, err := recursive.NewSplitter(ctx, &recursive.Config{
		ChunkSize:   chunkSize,
		OverlapSize: chunkOverlap,
		Separators:  DefaultSeparators,
		IDGenerator: chunkID,
	})
	if err != nil {
		return nil, fmt.Errorf("create recursive splitter: %w", err)
	}
	return splitter, nil
}

func chunkID(ctx context.Context, originalID string, splitIndex int) string {
	return fmt.Sprintf("%s#%d", originalID, splitIndex)
}
