package rag

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPolicySplitter_Validation(t *testing.T) {
	ctx := context.Background()
	_, err := NewPolicySplitter(ctx, 100, 100)
	assert.Error(t, err)
	_, err = NewPolicySplitter(ctx, 100, -1)
	assert.Error(t, err)

	s, err := NewPolicySplitter(ctx, 0, 10)
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestPolicySplitter_ChunkIDs(t *testing.T) {
	s, err := NewPolicySplitter(context.Background(), 30, 0)
	require.NoError(t, err)

	src := []*schema.Document{{
		ID:       "india.txt",
		Content:  "First paragraph here.\n\nSecond paragraph here.",
		MetaData: map[string]any{MetaCountry: "India"},
	}}
	out, err := s.Transform(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, "india.txt#0", out[0].ID)
	assert.Equal(t, "india.txt#1", out[1].ID)
	assert.Contains(t, out[0].Content, "First paragraph")
	assert.Contains(t, out[1].Content, "Second paragraph")
}

func TestLabelChunks(t *testing.T) {
	src := &schema.Document{
		ID:       "india.txt",
		MetaData: map[string]any{MetaCountry: "India", MetaPolicyType: "leave"},
	}
	shared := map[string]any{"_file_name": "india.txt"}
	chunks := []*schema.Document{
		{ID: "india.txt#0", Content: "a", MetaData: shared},
		{Content: "b", MetaData: shared},
	}

	out := labelChunks(src, chunks)
	require.Len(t, out, 2)
	assert.Equal(t, 0, out[0].MetaData[MetaChunkIndex])
	assert.Equal(t, 1, out[1].MetaData[MetaChunkIndex])
	assert.Equal(t, "India", out[1].MetaData[MetaCountry])
	assert.Equal(t, "india.txt", out[1].MetaData["_file_name"])
	assert.Equal(t, "india.txt#1", out[1].ID)
	assert.NotContains(t, src.MetaData, MetaChunkIndex)
	assert.NotContains(t, shared, MetaChunkIndex)
}
