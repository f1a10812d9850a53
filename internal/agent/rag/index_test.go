package rag

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func policyDocs() []*schema.Document {
	return []*schema.Document{
		{ID: "in-annual", Content: "Employees in India receive 18 days of annual leave per year.", MetaData: map[string]any{MetaCountry: "India", MetaPolicyType: "leave"}},
		{ID: "in-sick", Content: "Indian employees receive 12 days of paid sick leave.", MetaData: map[string]any{MetaCountry: "India", MetaPolicyType: "leave"}},
		{ID: "nl-annual", Content: "Employees in the Netherlands receive 25 days of annual leave.", MetaData: map[string]any{MetaCountry: "Netherlands", MetaPolicyType: "leave"}},
		{ID: "gen-conduct", Content: "All employees must follow the code of conduct.", MetaData: map[string]any{MetaCountry: "General", MetaPolicyType: "general"}},
	}
}

func openTestIndex(t *testing.T) (*BoltIndex, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index", "policy.db")
	idx, err := OpenBoltIndex(path, NewHashEmbedder(DefaultHashDimensions))
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx, path
}

func TestBoltIndex_StoreAndSearch(t *testing.T) {
	ctx := context.Background()
	idx, _ := openTestIndex(t)

	ids, err := idx.Store(ctx, policyDocs())
	require.NoError(t, err)
	assert.Equal(t, []string{"in-annual", "in-sick", "nl-annual", "gen-conduct"}, ids)
	assert.Equal(t, 4, idx.Len())

	q, err := NewHashEmbedder(DefaultHashDimensions).EmbedStrings(ctx, []string{"annual leave netherlands"})
	require.NoError(t, err)

	docs, err := idx.Search(q[0], 2, "")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "nl-annual", docs[0].ID)
	assert.GreaterOrEqual(t, docs[0].Score(), docs[1].Score())
}

func TestBoltIndex_SearchFiltersByCountry(t *testing.T) {
	ctx := context.Background()
	idx, _ := openTestIndex(t)
	_, err := idx.Store(ctx, policyDocs())
	require.NoError(t, err)

	q, err := NewHashEmbedder(DefaultHashDimensions).EmbedStrings(ctx, []string{"annual leave"})
	require.NoError(t, err)

	docs, err := idx.Search(q[0], 10, "India")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	for _, d := range docs {
		assert.Equal(t, "India", d.MetaData[MetaCountry])
	}

	docs, err = idx.Search(q[0], 10, "France")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestBoltIndex_SearchReturnsCopies(t *testing.T) {
	ctx := context.Background()
	idx, _ := openTestIndex(t)
	_, err := idx.Store(ctx, policyDocs())
	require.NoError(t, err)

	q, _ := NewHashEmbedder(DefaultHashDimensions).EmbedStrings(ctx, []string{"annual"})
	docs, err := idx.Search(q[0], 1, "India")
	require.NoError(t, err)
	docs[0].MetaData[MetaCountry] = "mutated"

	again, err := idx.Search(q[0], 1, "India")
	require.NoError(t, err)
	assert.Equal(t, "India", again[0].MetaData[MetaCountry])
}

func TestBoltIndex_PersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	idx, path := openTestIndex(t)
	_, err := idx.Store(ctx, policyDocs())
	require.NoError(t, err)
	require.NoError(t, idx.Close())

	reopened, err := OpenBoltIndex(path, nil)
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, 4, reopened.Len())

	_, err = reopened.Store(ctx, policyDocs())
	assert.Error(t, err, "store without an embedder must fail")
}

func TestBoltIndex_ResetAndDimensionChecks(t *testing.T) {
	ctx := context.Background()
	idx, _ := openTestIndex(t)
	_, err := idx.Store(ctx, policyDocs())
	require.NoError(t, err)

	_, err = idx.Search([]float64{1, 2, 3}, 3, "")
	assert.Error(t, err)

	require.NoError(t, idx.Reset())
	assert.Zero(t, idx.Len())

	docs, err := idx.Search([]float64{1, 2, 3}, 3, "")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestBoltIndex_GeneratesMissingIDs(t *testing.T) {
	idx, _ := openTestIndex(t)
	ids, err := idx.Store(context.Background(), []*schema.Document{{Content: "no id"}})
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.NotEmpty(t, ids[0])
}
