// Package textvec builds term-weighted (TF-IDF) representations of short
// product texts. A Model is fitted once over the full catalog corpus and
// then transforms individual texts into sparse vectors in a fixed
// vocabulary, capped at the most frequent terms and term pairs.
package textvec

import (
	"math"
	"sort"
)

// Options controls vocabulary construction.
type Options struct {
	// MaxFeatures caps the vocabulary at the N terms with the highest
	// total occurrence count across the corpus. 0 means unlimited.
	MaxFeatures int

	// NGramMin and NGramMax bound the n-gram range. (1, 2) fits
	// unigrams and bigrams.
	NGramMin int
	NGramMax int
}

// DefaultOptions matches the production catalog fit: up to 5000 features
// over unigrams and bigrams.
func DefaultOptions() Options {
	return Options{MaxFeatures: 5000, NGramMin: 1, NGramMax: 2}
}

// Model is a fitted vocabulary with per-term inverse document frequency
// weights. Models are immutable after Fit and safe for concurrent use.
type Model struct {
	opts  Options
	vocab map[string]int // term -> column index
	terms []string       // column index -> term
	idf   []float64      // column index -> idf weight
	docs  int
}

// Fit builds a Model over the corpus. Vocabulary selection keeps the
// MaxFeatures most frequent terms (ties broken alphabetically) and assigns
// column indices in alphabetical term order, so a given corpus always
// produces the same model.
func Fit(corpus []string, opts Options) *Model {
	if opts.NGramMin < 1 {
		opts.NGramMin = 1
	}
	if opts.NGramMax < opts.NGramMin {
		opts.NGramMax = opts.NGramMin
	}

	counts := make(map[string]int)   // total occurrences
	docFreq := make(map[string]int)  // documents containing the term
	seen := make(map[string]bool, 64)

	for _, text := range corpus {
		grams := NGrams(Tokenize(text), opts.NGramMin, opts.NGramMax)
		clear(seen)
		for _, g := range grams {
			counts[g]++
			if !seen[g] {
				docFreq[g]++
				seen[g] = true
			}
		}
	}

	terms := make([]string, 0, len(counts))
	for t := range counts {
		terms = append(terms, t)
	}

	if opts.MaxFeatures > 0 && len(terms) > opts.MaxFeatures {
		sort.Slice(terms, func(i, j int) bool {
			if counts[terms[i]] != counts[terms[j]] {
				return counts[terms[i]] > counts[terms[j]]
			}
			return terms[i] < terms[j]
		})
		terms = terms[:opts.MaxFeatures]
	}
	sort.Strings(terms)

	m := &Model{
		opts:  opts,
		vocab: make(map[string]int, len(terms)),
		terms: terms,
		idf:   make([]float64, len(terms)),
		docs:  len(corpus),
	}
	for i, t := range terms {
		m.vocab[t] = i
		// Smoothed IDF: every term behaves as if seen in one extra
		// document, so no weight is ever zero or infinite.
		m.idf[i] = math.Log(float64(1+m.docs)/float64(1+docFreq[t])) + 1
	}
	return m
}

// Transform converts a text into a sparse, L2-normalized TF-IDF vector in
// the fitted vocabulary. Terms outside the vocabulary are ignored. Texts
// with no known terms yield a nil (zero) vector.
func (m *Model) Transform(text string) Vector {
	if len(m.terms) == 0 {
		return nil
	}

	tf := make(map[int]float64)
	for _, g := range NGrams(Tokenize(text), m.opts.NGramMin, m.opts.NGramMax) {
		if col, ok := m.vocab[g]; ok {
			tf[col]++
		}
	}
	if len(tf) == 0 {
		return nil
	}

	v := make(Vector, 0, len(tf))
	for col, count := range tf {
		v = append(v, Term{Index: col, Weight: count * m.idf[col]})
	}
	sort.Slice(v, func(i, j int) bool { return v[i].Index < v[j].Index })
	v.Normalize()
	return v
}

// Dims returns the vocabulary size (the vector-space dimensionality).
func (m *Model) Dims() int {
	return len(m.terms)
}

// Docs returns the number of documents the model was fitted on.
func (m *Model) Docs() int {
	return m.docs
}

// Term returns the vocabulary entry for a column index.
func (m *Model) Term(col int) string {
	return m.terms[col]
}

// IDF returns the inverse document frequency weight for a column index.
func (m *Model) IDF(col int) float64 {
	return m.idf[col]
}
