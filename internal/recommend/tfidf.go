// ReelMatch - Content Similarity Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package recommend

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"
)

// tokenPattern matches runs of two or more word characters.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Vectorizer turns a catalog into one feature vector per movie, in catalog order.
type Vectorizer interface {
	Vectorize(ctx context.Context, cat *Catalog) (*FeatureMatrix, error)
}

// FeatureVector is a sparse weighted-term vector. Terms are vocabulary
// indices in ascending order.
type FeatureVector struct {
	Terms   []int
	Weights []float64
}

// Norm returns the Euclidean length of the vector.
func (v *FeatureVector) Norm() float64 {
	var sum float64
	for _, w := range v.Weights {
		sum += w * w
	}
	return math.Sqrt(sum)
}

// Dot returns the dot product with another vector over the same vocabulary.
func (v *FeatureVector) Dot(o *FeatureVector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(v.Terms) && j < len(o.Terms) {
		switch {
		case v.Terms[i] == o.Terms[j]:
			sum += v.Weights[i] * o.Weights[j]
			i++
			j++
		case v.Terms[i] < o.Terms[j]:
			i++
		default:
			j++
		}
	}
	return sum
}

// FeatureMatrix is the document-term matrix for one catalog snapshot.
type FeatureMatrix struct {
	// Rows holds one vector per catalog position.
	Rows []FeatureVector

	// Vocabulary maps vocabulary index to term.
	Vocabulary []string

	// Identity is set when the corpus had no usable terms and the
	// one-hot fallback was used.
	Identity bool
}

// TFIDF weights terms by raw count times smoothed inverse document frequency,
// idf(t) = ln((1+n)/(1+df(t))) + 1, and L2-normalizes each row.
type TFIDF struct {
	// KeepStopWords disables stop-word removal.
	KeepStopWords bool
}

// Tokenize lowercases text and returns its terms with stop words removed.
func (t TFIDF) Tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	tokens := raw[:0]
	for _, tok := range raw {
		if !t.KeepStopWords && isStopWord(tok) {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// Vectorize builds the TF-IDF matrix for the catalog. A corpus with no terms
// at all yields an identity matrix so every movie is only similar to itself.
func (t TFIDF) Vectorize(ctx context.Context, cat *Catalog) (*FeatureMatrix, error) {
	n := cat.Len()
	counts := make([]map[string]int, n)
	docFreq := make(map[string]int)

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m := cat.At(i)
		tf := make(map[string]int)
		for _, tok := range t.Tokenize(m.Text()) {
			tf[tok]++
		}
		for term := range tf {
			docFreq[term]++
		}
		counts[i] = tf
	}

	if len(docFreq) == 0 {
		return identityFeatures(n), nil
	}

	vocab := make([]string, 0, len(docFreq))
	for term := range docFreq {
		vocab = append(vocab, term)
	}
	sort.Strings(vocab)

	termIndex := make(map[string]int, len(vocab))
	idf := make([]float64, len(vocab))
	for i, term := range vocab {
		termIndex[term] = i
		idf[i] = math.Log(float64(1+n)/float64(1+docFreq[term])) + 1
	}

	rows := make([]FeatureVector, n)
	for i, tf := range counts {
		vec := FeatureVector{
			Terms:   make([]int, 0, len(tf)),
			Weights: make([]float64, 0, len(tf)),
		}
		for term := range tf {
			vec.Terms = append(vec.Terms, termIndex[term])
		}
		sort.Ints(vec.Terms)
		for _, idx := range vec.Terms {
			vec.Weights = append(vec.Weights, float64(tf[vocab[idx]])*idf[idx])
		}
		if norm := vec.Norm(); norm > 0 {
			for k := range vec.Weights {
				vec.Weights[k] /= norm
			}
		}
		rows[i] = vec
	}

	return &FeatureMatrix{Rows: rows, Vocabulary: vocab}, nil
}

// identityFeatures gives every row its own unit feature.
func identityFeatures(n int) *FeatureMatrix {
	rows := make([]FeatureVector, n)
	for i := range rows {
		rows[i] = FeatureVector{Terms: []int{i}, Weights: []float64{1}}
	}
	return &FeatureMatrix{Rows: rows, Identity: true}
}
