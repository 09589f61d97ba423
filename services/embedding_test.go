package services

import (
	"testing"

	"closetapi/models"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func embeddedItem(id uint, name string, embedding []float64) models.WardrobeItem {
	item := models.WardrobeItem{Name: name, Category: models.CategoryTops, Embedding: embedding}
	item.ID = id
	return item
}

func TestCosineSimilarity(t *testing.T) {
	a := pq.Float64Array{1, 0, 0}
	b := pq.Float64Array{1, 0, 0}
	c := pq.Float64Array{0, 1, 0}

	same, err := CosineSimilarity(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, same, 1e-9)

	orthogonal, err := CosineSimilarity(a, c)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, orthogonal, 1e-9)
}

func TestCosineSimilarityErrors(t *testing.T) {
	_, err := CosineSimilarity(nil, pq.Float64Array{1})
	assert.Error(t, err)

	_, err = CosineSimilarity(pq.Float64Array{1, 2}, pq.Float64Array{1})
	assert.Error(t, err)

	_, err = CosineSimilarity(pq.Float64Array{0, 0}, pq.Float64Array{1, 1})
	assert.Error(t, err)
}

func TestNormalizeEmbedding(t *testing.T) {
	normalized := NormalizeEmbedding([]float64{3, 4})
	assert.InDelta(t, 0.6, normalized[0], 1e-9)
	assert.InDelta(t, 0.8, normalized[1], 1e-9)

	zero := NormalizeEmbedding([]float64{0, 0})
	assert.Equal(t, pq.Float64Array{0, 0}, zero)
}

func TestFindSimilarItemsOrdering(t *testing.T) {
	target := embeddedItem(1, "Blue shirt", []float64{1, 0, 0})
	closest := embeddedItem(2, "Navy shirt", []float64{0.9, 0.1, 0})
	farther := embeddedItem(3, "Red dress", []float64{0, 1, 0})
	unprocessed := embeddedItem(4, "New item", nil)

	results := FindSimilarItems([]models.WardrobeItem{target, farther, closest, unprocessed}, target, 10)
	require.Len(t, results, 2)
	assert.Equal(t, "Navy shirt", results[0].Item.Name)
	assert.Equal(t, "Red dress", results[1].Item.Name)
	assert.Greater(t, results[0].Similarity, results[1].Similarity)
}

func TestFindSimilarItemsLimit(t *testing.T) {
	target := embeddedItem(1, "Target", []float64{1, 0})
	candidates := []models.WardrobeItem{
		target,
		embeddedItem(2, "A", []float64{1, 0.1}),
		embeddedItem(3, "B", []float64{1, 0.2}),
		embeddedItem(4, "C", []float64{1, 0.3}),
	}
	assert.Len(t, FindSimilarItems(candidates, target, 2), 2)
}

func TestFindSimilarItemsUnembeddedTarget(t *testing.T) {
	target := embeddedItem(1, "Fresh upload", nil)
	other := embeddedItem(2, "A", []float64{1, 0})
	assert.Empty(t, FindSimilarItems([]models.WardrobeItem{target, other}, target, 5))
}
