package keyword

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/astrabio/astrabio/pkg/types"
)

// TFIDFIndex is an in-process full-text index over article titles and
// abstracts. Unlike the Redis tier it produces true relevance scores: each
// document becomes an L2-normalized TF-IDF vector and queries are scored by
// cosine similarity.
type TFIDFIndex struct {
	mu           sync.RWMutex
	vocabulary   map[string]int
	idf          []float64
	docs         []tfidfDoc
	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}
}

type tfidfDoc struct {
	id     string
	vector map[int]float64
}

// NewTFIDFIndex builds the index over the given corpus. The vocabulary and
// IDF table are fixed at construction; rebuild the index to pick up new
// articles.
func NewTFIDFIndex(records []*types.ArticleRecord) *TFIDFIndex {
	idx := &TFIDFIndex{
		vocabulary:   make(map[string]int),
		tokenPattern: regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`),
		stopwords:    defaultStopwords(),
	}
	idx.build(records)
	return idx
}

func (idx *TFIDFIndex) build(records []*types.ArticleRecord) {
	df := make(map[string]int)
	tokenized := make([][]string, 0, len(records))
	ids := make([]string, 0, len(records))

	for _, rec := range records {
		if rec.ExperimentID == "" {
			continue
		}
		tokens := idx.tokenize(rec.PrimaryText())
		seen := make(map[string]struct{})
		for _, tok := range tokens {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
		tokenized = append(tokenized, tokens)
		ids = append(ids, rec.ExperimentID)
	}

	// Stable vocabulary ordering so builds are reproducible.
	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	idx.vocabulary = make(map[string]int, len(terms))
	idx.idf = make([]float64, len(terms))
	n := float64(len(ids))
	for i, term := range terms {
		idx.vocabulary[term] = i
		idx.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0
	}

	idx.docs = make([]tfidfDoc, 0, len(ids))
	for i, id := range ids {
		idx.docs = append(idx.docs, tfidfDoc{id: id, vector: idx.vectorize(tokenized[i])})
	}
}

// Search implements Index.
func (idx *TFIDFIndex) Search(_ context.Context, query string, topK int) ([]Hit, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if topK <= 0 || len(idx.docs) == 0 {
		return nil, nil
	}

	qvec := idx.vectorize(idx.tokenize(query))
	if len(qvec) == 0 {
		return nil, nil
	}

	hits := make([]Hit, 0, len(idx.docs))
	for _, doc := range idx.docs {
		score := sparseDot(qvec, doc.vector)
		if score <= 0 {
			continue
		}
		hits = append(hits, Hit{ID: doc.id, Score: score})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// Len reports the number of indexed documents.
func (idx *TFIDFIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.docs)
}

// vectorize turns tokens into an L2-normalized sparse TF-IDF vector over the
// index vocabulary. Unknown terms are dropped.
func (idx *TFIDFIndex) vectorize(tokens []string) map[int]float64 {
	tf := make(map[int]int)
	total := 0
	for _, tok := range tokens {
		if pos, ok := idx.vocabulary[tok]; ok {
			tf[pos]++
			total++
		}
	}
	if total == 0 {
		return nil
	}

	vec := make(map[int]float64, len(tf))
	norm := 0.0
	for pos, count := range tf {
		v := float64(count) / float64(total) * idx.idf[pos]
		vec[pos] = v
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for pos := range vec {
			vec[pos] /= norm
		}
	}
	return vec
}

func (idx *TFIDFIndex) tokenize(text string) []string {
	raw := idx.tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, tok := range raw {
		if _, isStop := idx.stopwords[tok]; isStop {
			continue
		}
		out = append(out, tok)
	}
	return out
}

func sparseDot(a, b map[int]float64) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	sum := 0.0
	for pos, v := range a {
		sum += v * b[pos]
	}
	return sum
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for",
		"to", "of", "in", "on", "at", "by", "with", "as", "is", "are",
		"was", "were", "be", "been", "being", "it", "this", "that",
		"these", "those", "from", "up", "down", "over", "under", "again",
		"further", "than", "so", "such", "into", "about", "between",
		"through", "during", "before", "after", "above", "below", "out",
		"off", "own", "same", "too", "very", "can", "will", "just",
		"should", "now", "what", "which", "how", "does", "do", "did",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
