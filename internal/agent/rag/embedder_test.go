package rag

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashEmbedder_DeterministicAndNormalised(t *testing.T) {
	e := NewHashEmbedder(64)
	ctx := context.Background()

	a, err := e.EmbedStrings(ctx, []string{"Annual leave in India", "annual LEAVE, in india!"})
	require.NoError(t, err)
	require.Len(t, a, 2)
	assert.Len(t, a[0], 64)
	assert.Equal(t, a[0], a[1])

	var norm float64
	for _, v := range a[0] {
		norm += v * v
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-9)
}

func TestHashEmbedder_SimilarTextScoresHigher(t *testing.T) {
	e := NewHashEmbedder(DefaultHashDimensions)
	vecs, err := e.EmbedStrings(context.Background(), []string{
		"sick leave policy",
		"employees get sick leave under the policy",
		"office parking rules for visitors",
	})
	require.NoError(t, err)

	near, err := cosineSimilarity(vecs[0], vecs[1])
	require.NoError(t, err)
	far, err := cosineSimilarity(vecs[0], vecs[2])
	require.NoError(t, err)
	assert.Greater(t, near, far)
}

func TestHashEmbedder_EmptyText(t *testing.T) {
	vecs, err := NewHashEmbedder(8).EmbedStrings(context.Background(), []string{""})
	require.NoError(t, err)
	assert.Equal(t, make([]float64, 8), vecs[0])
}

func TestHashEmbedder_HonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewHashEmbedder(8).EmbedStrings(ctx, []string{"x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewGeminiEmbedder_RequiresClient(t *testing.T) {
	_, err := NewGeminiEmbedder(GeminiEmbedderConfig{})
	assert.Error(t, err)
}

func TestCosineSimilarity(t *testing.T) {
	s, err := cosineSimilarity([]float64{1, 0}, []float64{1, 0})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, s, 1e-12)

	s, err = cosineSimilarity([]float64{0, 0}, []float64{1, 0})
	require.NoError(t, err)
	assert.Zero(t, s)

	_, err = cosineSimilarity([]float64{1}, []float64{1, 2})
	assert.Error(t, err)
	_, err = cosineSimilarity(nil, []float64{1})
	assert.Error(t, err)
}

func TestNewEmbedder(t *testing.T) {
	emb, err := NewEmbedder("HASH", nil, "", "")
	require.NoError(t, err)
	assert.IsType(t, &HashEmbedder{}, emb)

	_, err = NewEmbedder(EmbedderGemini, nil, "", TaskRetrievalQuery)
	assert.Error(t, err, "gemini embedder needs a client")

	_, err = NewEmbedder("word2vec", nil, "", "")
	assert.Error(t, err)
}
