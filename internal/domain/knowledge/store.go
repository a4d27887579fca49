package knowledge

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// Searcher performs KNN retrieval over the breed document index.
type Searcher interface {
	Search(ctx context.Context, vector []float32, k int) ([]Chunk, error)
}

type redisSearcher struct {
	client *redis.Client
	index  string
}

// NewRedisSearcher builds a searcher over a RediSearch vector index. The
// index is expected to hold breed document chunks with content, source and
// section text fields plus an embedding vector field.
func NewRedisSearcher(client *redis.Client, index string) Searcher {
	return &redisSearcher{
		client: client,
		index:  index,
	}
}

func (s *redisSearcher) Search(ctx context.Context, vector []float32, k int) ([]Chunk, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("empty query vector")
	}
	if k <= 0 {
		k = 4
	}

	query := fmt.Sprintf("*=>[KNN %d @embedding $vec AS vector_score]", k)
	result, err := s.client.FTSearchWithArgs(ctx, s.index, query, &redis.FTSearchOptions{
		Params: map[string]interface{}{
			"vec": encodeVector(vector),
		},
		SortBy: []redis.FTSearchSortBy{
			{FieldName: "vector_score", Asc: true},
		},
		DialectVersion: 2,
		LimitOffset:    0,
		Limit:          k,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	chunks := make([]Chunk, 0, len(result.Docs))
	for _, doc := range result.Docs {
		chunk := Chunk{
			Content: doc.Fields["content"],
			Source:  doc.Fields["source"],
			Section: doc.Fields["section"],
		}
		if raw, ok := doc.Fields["vector_score"]; ok {
			if score, err := strconv.ParseFloat(raw, 64); err == nil {
				chunk.Score = score
			}
		}
		if chunk.Content != "" {
			chunks = append(chunks, chunk)
		}
	}
	return chunks, nil
}

// encodeVector packs float32 values little-endian, the layout RediSearch
// expects for FLOAT32 vector fields.
func encodeVector(vector []float32) []byte {
	buf := make([]byte, 4*len(vector))
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}
