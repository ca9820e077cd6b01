package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"

	"course-assistant/internal/catalog"
	"course-assistant/internal/embedding"
)

type CourseMatch struct {
	Course catalog.Course
	Score  float64
}

type InstructorMatch struct {
	Instructor catalog.Instructor
	Score      float64
}

type Results struct {
	Courses     []CourseMatch
	Instructors []InstructorMatch
}

// Index holds the catalog records and their precomputed embedding vectors.
// Vectors are computed once at startup; the index is immutable afterwards
// and safe for concurrent searches.
type Index struct {
	enc  embedding.Encoder
	topK int

	courses           []catalog.Course
	courseVectors     [][]float32
	instructors       []catalog.Instructor
	instructorVectors [][]float32
}

func BuildIndex(ctx context.Context, enc embedding.Encoder, cat *catalog.Catalog, topK int) (*Index, error) {
	idx := &Index{enc: enc, topK: topK, courses: cat.Courses, instructors: cat.Instructors}

	courseTexts := make([]string, len(cat.Courses))
	for i, c := range cat.Courses {
		courseTexts[i] = c.EmbeddingText()
	}
	vectors, err := enc.EmbedBatch(ctx, courseTexts)
	if err != nil {
		return nil, fmt.Errorf("embed courses: %w", err)
	}
	idx.courseVectors = vectors

	instructorTexts := make([]string, len(cat.Instructors))
	for i, ins := range cat.Instructors {
		instructorTexts[i] = ins.EmbeddingText()
	}
	vectors, err = enc.EmbedBatch(ctx, instructorTexts)
	if err != nil {
		return nil, fmt.Errorf("embed instructors: %w", err)
	}
	idx.instructorVectors = vectors

	return idx, nil
}

// Search embeds the query and returns the topK courses and instructors by
// cosine similarity. Every record is scored (brute-force scan); ties keep
// dataset order. There is no minimum-similarity cutoff.
func (idx *Index) Search(ctx context.Context, query string) (Results, error) {
	queryVec, err := idx.enc.Embed(ctx, query)
	if err != nil {
		return Results{}, fmt.Errorf("embed query: %w", err)
	}

	var res Results
	for _, i := range topIndexes(queryVec, idx.courseVectors, idx.topK) {
		res.Courses = append(res.Courses, CourseMatch{
			Course: idx.courses[i],
			Score:  cosineSimilarity(queryVec, idx.courseVectors[i]),
		})
	}
	for _, i := range topIndexes(queryVec, idx.instructorVectors, idx.topK) {
		res.Instructors = append(res.Instructors, InstructorMatch{
			Instructor: idx.instructors[i],
			Score:      cosineSimilarity(queryVec, idx.instructorVectors[i]),
		})
	}
	return res, nil
}

func (idx *Index) Sizes() (courses, instructors int) {
	return len(idx.courses), len(idx.instructors)
}

func topIndexes(query []float32, vectors [][]float32, topK int) []int {
	idxs := make([]int, len(vectors))
	scores := make([]float64, len(vectors))
	for i, v := range vectors {
		idxs[i] = i
		scores[i] = cosineSimilarity(query, v)
	}
	sort.SliceStable(idxs, func(a, b int) bool {
		return scores[idxs[a]] > scores[idxs[b]]
	})
	if topK > len(idxs) {
		topK = len(idxs)
	}
	return idxs[:topK]
}

func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
