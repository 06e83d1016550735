package index

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizrag/internal/llm"
	"github.com/abhisek/quizrag/internal/mcq"
)

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{1, 2}, []float32{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, Cosine([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Equal(t, 0.0, Cosine([]float32{0, 0}, []float32{1, 1}))
	assert.Equal(t, 0.0, Cosine([]float32{1}, []float32{1, 1}))
}

func TestMemoryStore_SearchRanksAndLimits(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Add("east", []float32{1, 0}))
	require.NoError(t, s.Add("north", []float32{0, 1}))
	require.NoError(t, s.Add("north-east", []float32{1, 1}))

	got, err := s.Search([]float32{1, 0.1}, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "east", got[0].Text)
	assert.Equal(t, "north-east", got[1].Text)
	assert.Equal(t, 2, got[1].Position)

	all, err := s.Search([]float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestMemoryStore_TiesKeepInsertionOrder(t *testing.T) {
	s := NewMemoryStore()
	for i := range 4 {
		require.NoError(t, s.Add(fmt.Sprintf("c%d", i), []float32{1, 1}))
	}

	got, err := s.Search([]float32{1, 1}, 4)
	require.NoError(t, err)
	for i, m := range got {
		assert.Equal(t, fmt.Sprintf("c%d", i), m.Text)
	}
}

func TestMemoryStore_DimensionMismatch(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Add("a", []float32{1, 0, 0}))

	err := s.Add("b", []float32{1, 0})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = s.Search([]float32{1}, 1)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	assert.Equal(t, 1, s.Len())
}

func TestIndexer_BuildAndRetrieve(t *testing.T) {
	emb := llm.NewMockEmbedder()
	emb.Vectors = map[string][]float32{
		"chlorophyll absorbs light":   {1, 0, 0},
		"glucose stores energy":       {0, 1, 0},
		"stomata regulate gas intake": {0, 0, 1},
		"query":                       {0.2, 1, 0},
	}
	ix := New(emb, WithConcurrency(2))

	store, err := ix.Build(context.Background(), []string{
		"chlorophyll absorbs light",
		"glucose stores energy",
		"stomata regulate gas intake",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, store.Len())

	got, err := ix.Retrieve(context.Background(), store, "query", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"glucose stores energy", "chlorophyll absorbs light"}, got)
}

func TestIndexer_RetrieveFewerThanK(t *testing.T) {
	ix := New(llm.NewMockEmbedder())
	store, err := ix.Build(context.Background(), []string{"only chunk"})
	require.NoError(t, err)

	got, err := ix.Retrieve(context.Background(), store, DefaultQuery, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"only chunk"}, got)
}

func TestIndexer_BuildErrors(t *testing.T) {
	t.Run("no chunks", func(t *testing.T) {
		_, err := New(llm.NewMockEmbedder()).Build(context.Background(), nil)
		require.Error(t, err)
		assert.True(t, mcq.IsKind(err, mcq.KindIndexBuild))
		assert.Equal(t, "Text splitting resulted in empty chunks.", err.Error())
	})

	t.Run("embedding failure", func(t *testing.T) {
		emb := llm.NewMockEmbedder()
		emb.FailOn = "poison"
		emb.Err = errors.New("401 unauthorized")

		_, err := New(emb).Build(context.Background(), []string{"fine", "poison pill", "also fine"})
		require.Error(t, err)
		assert.True(t, mcq.IsKind(err, mcq.KindIndexBuild))
		assert.Contains(t, err.Error(), "Failed to create vector store")
		assert.Contains(t, err.Error(), "401 unauthorized")
	})
}

func TestIndexer_RetrieveErrors(t *testing.T) {
	emb := llm.NewMockEmbedder()
	ix := New(emb)
	store, err := ix.Build(context.Background(), []string{"a chunk"})
	require.NoError(t, err)

	emb.FailOn = DefaultQuery
	_, err = ix.Retrieve(context.Background(), store, DefaultQuery, 5)
	require.Error(t, err)
	assert.True(t, mcq.IsKind(err, mcq.KindIndexQuery))

	_, err = ix.Retrieve(context.Background(), nil, "x", 5)
	assert.True(t, mcq.IsKind(err, mcq.KindIndexQuery))
}

type purposeEmbedder struct {
	*llm.MockEmbedder
	purposes chan string
}

func (p purposeEmbedder) Embed(ctx context.Context, text string) (*llm.Embedding, error) {
	p.purposes <- llm.PurposeFrom(ctx)
	return p.MockEmbedder.Embed(ctx, text)
}

func TestIndexer_TagsPurpose(t *testing.T) {
	pe := purposeEmbedder{MockEmbedder: llm.NewMockEmbedder(), purposes: make(chan string, 4)}
	ix := New(pe)

	store, err := ix.Build(context.Background(), []string{"one"})
	require.NoError(t, err)
	assert.Equal(t, llm.PurposeIndexEmbed, <-pe.purposes)

	_, err = ix.Retrieve(context.Background(), store, "q", 1)
	require.NoError(t, err)
	assert.Equal(t, llm.PurposeQueryEmbed, <-pe.purposes)
}
