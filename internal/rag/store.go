// Package rag retrieves knowledge-base snippets for question-intent chat
// turns. Scoring is plain keyword overlap so the server works without any
// remote embedding service; the scorer is a function field so an
// embedding-backed implementation can be swapped in.
package rag

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/kayz/tomo/internal/api"
)

//go:embed corpus.json
var defaultCorpus []byte

// Document is one retrievable chunk.
type Document struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Results below this score are dropped.
const scoreCutoff = 0.3

// Store holds the corpus and answers top-k searches over it.
type Store struct {
	docs  []Document
	score func(queryTokens []string, doc Document) float64
}

// NewStore builds a store over the given documents.
func NewStore(docs []Document) *Store {
	return &Store{docs: docs, score: overlapScore}
}

// NewDefaultStore loads the embedded corpus.
func NewDefaultStore() (*Store, error) {
	var docs []Document
	if err := json.Unmarshal(defaultCorpus, &docs); err != nil {
		return nil, fmt.Errorf("parse embedded corpus: %w", err)
	}
	return NewStore(docs), nil
}

// Search returns up to topK sources scoring at least the cutoff, best
// first. Ties keep corpus order.
func (s *Store) Search(query string, topK int) []api.Source {
	tokens := tokenize(query)
	if len(tokens) == 0 || len(s.docs) == 0 {
		return nil
	}

	type scored struct {
		idx   int
		score float64
	}
	var hits []scored
	for i, doc := range s.docs {
		if sc := s.score(tokens, doc); sc >= scoreCutoff {
			hits = append(hits, scored{idx: i, score: sc})
		}
	}

	sort.SliceStable(hits, func(a, b int) bool { return hits[a].score > hits[b].score })
	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}

	out := make([]api.Source, len(hits))
	for i, h := range hits {
		doc := s.docs[h.idx]
		out[i] = api.Source{
			Title:   doc.Title,
			Content: doc.Content,
			Score:   math.Round(h.score*1000) / 1000,
		}
	}
	return out
}

// overlapScore is the fraction of query tokens found in the document's
// title or content.
func overlapScore(queryTokens []string, doc Document) float64 {
	haystack := strings.ToLower(doc.Title + " " + doc.Content)
	matched := 0
	for _, tok := range queryTokens {
		if strings.Contains(haystack, tok) {
			matched++
		}
	}
	return float64(matched) / float64(len(queryTokens))
}

var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "can": true,
	"do": true, "does": true, "for": true, "how": true, "i": true,
	"is": true, "it": true, "me": true, "my": true, "of": true,
	"or": true, "tell": true, "the": true, "to": true, "what": true,
	"whats": true, "which": true, "you": true,
}

// tokenize lowercases, strips punctuation and drops stopwords so scores
// reflect content words only.
func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})
	var out []string
	for _, f := range fields {
		if len(f) < 2 || stopwords[f] {
			continue
		}
		out = append(out, f)
	}
	return out
}
