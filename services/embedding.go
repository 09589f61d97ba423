package services

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"closetapi/models"

	"github.com/lib/pq"
)

// EmbeddingDim is the expected item embedding dimension, configurable to
// follow the embedding model in use.
func EmbeddingDim() int {
	dim, err := strconv.Atoi(GetEnv("EMBEDDING_DIM", "768"))
	if err != nil || dim <= 0 {
		return 768
	}
	return dim
}

func CosineSimilarity(a, b pq.Float64Array) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, fmt.Errorf("empty embedding")
	}
	if len(a) != len(b) {
		return 0, fmt.Errorf("embedding dimension mismatch: %d vs %d", len(a), len(b))
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0, fmt.Errorf("zero-norm embedding")
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// NormalizeEmbedding scales the vector to unit length. Zero vectors come
// back unchanged.
func NormalizeEmbedding(vector []float64) pq.Float64Array {
	var norm float64
	for _, v := range vector {
		norm += v * v
	}
	if norm == 0 {
		return pq.Float64Array(vector)
	}
	norm = math.Sqrt(norm)
	normalized := make(pq.Float64Array, len(vector))
	for i, v := range vector {
		normalized[i] = v / norm
	}
	return normalized
}

type SimilarItem struct {
	Item       models.WardrobeItem `json:"item"`
	Similarity float64             `json:"similarity"`
}

// FindSimilarItems ranks candidates by cosine similarity to the target.
// Items without an embedding are unprocessed and silently skipped, the
// target itself too.
func FindSimilarItems(candidates []models.WardrobeItem, target models.WardrobeItem, limit int) []SimilarItem {
	if len(target.Embedding) == 0 {
		return []SimilarItem{}
	}
	results := []SimilarItem{}
	for _, candidate := range candidates {
		if candidate.ID == target.ID || len(candidate.Embedding) == 0 {
			continue
		}
		similarity, err := CosineSimilarity(target.Embedding, candidate.Embedding)
		if err != nil {
			continue
		}
		results = append(results, SimilarItem{Item: candidate, Similarity: similarity})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}
