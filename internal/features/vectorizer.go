// Package features turns normalized text into TF-IDF vectors.
package features

import (
	"math"
	"sort"

	"github.com/mikey/mailguard/internal/core"
	"github.com/mikey/mailguard/internal/textproc"
)

// Config controls vocabulary pruning and term weighting
type Config struct {
	MaxFeatures int     // keep at most this many terms, 0 keeps all
	MaxDF       float64 // drop terms in more than this fraction of documents
	MinDF       int     // drop terms in fewer documents than this
	SublinearTF bool    // weight counts as 1 + ln(count)
}

// DefaultConfig returns the pruning and weighting used for mail
func DefaultConfig() Config {
	return Config{
		MaxFeatures: 5000,
		MaxDF:       0.8,
		MinDF:       1,
		SublinearTF: true,
	}
}

// Vectorizer learns a vocabulary with IDF weights and projects text onto it
type Vectorizer struct {
	analyzer *textproc.Analyzer
	cfg      Config
	vocab    *Vocabulary
}

// NewVectorizer creates an unfitted vectorizer
func NewVectorizer(analyzer *textproc.Analyzer, cfg Config) *Vectorizer {
	if analyzer == nil {
		analyzer = textproc.DefaultAnalyzer()
	}
	return &Vectorizer{analyzer: analyzer, cfg: cfg}
}

// Vocabulary returns the fitted vocabulary, or nil before Fit
func (v *Vectorizer) Vocabulary() *Vocabulary {
	return v.vocab
}

// Fit builds the vocabulary from normalized documents
func (v *Vectorizer) Fit(docs []string) (*Vocabulary, error) {
	n := len(docs)
	if n == 0 {
		return nil, core.InsufficientData("no documents to fit the vectorizer")
	}

	df := make(map[string]int)
	total := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]bool)
		for _, term := range v.analyzer.Terms(doc) {
			total[term]++
			if !seen[term] {
				seen[term] = true
				df[term]++
			}
		}
	}

	maxDocs := float64(n)
	if v.cfg.MaxDF > 0 && v.cfg.MaxDF < 1 {
		maxDocs = v.cfg.MaxDF * float64(n)
	}
	minDocs := v.cfg.MinDF
	if minDocs < 1 {
		minDocs = 1
	}

	kept := make([]string, 0, len(df))
	for term, count := range df {
		if count < minDocs || float64(count) > maxDocs {
			continue
		}
		kept = append(kept, term)
	}
	if len(kept) == 0 {
		return nil, core.InsufficientData("no terms remain after pruning %d documents", n)
	}

	if v.cfg.MaxFeatures > 0 && len(kept) > v.cfg.MaxFeatures {
		sort.Slice(kept, func(i, j int) bool {
			if total[kept[i]] != total[kept[j]] {
				return total[kept[i]] > total[kept[j]]
			}
			return kept[i] < kept[j]
		})
		kept = kept[:v.cfg.MaxFeatures]
	}
	sort.Strings(kept)

	idf := make([]float64, len(kept))
	for i, term := range kept {
		idf[i] = math.Log(float64(1+n)/float64(1+df[term])) + 1
	}

	v.vocab = newVocabulary(kept, idf)
	return v.vocab, nil
}

// Transform maps normalized text to an L2-normalized TF-IDF vector with one
// entry per vocabulary term. Unknown terms are ignored.
func (v *Vectorizer) Transform(text string) ([]float64, error) {
	if v.vocab == nil {
		return nil, core.NotTrained("vectorizer is not fitted")
	}

	vec := make([]float64, v.vocab.Size())
	counts := make(map[int]int)
	for _, term := range v.analyzer.Terms(text) {
		if i, ok := v.vocab.Index(term); ok {
			counts[i]++
		}
	}
	if len(counts) == 0 {
		return vec, nil
	}

	// Fixed summation order keeps repeated transforms bit-identical.
	indices := make([]int, 0, len(counts))
	for i := range counts {
		indices = append(indices, i)
	}
	sort.Ints(indices)

	var norm float64
	for _, i := range indices {
		tf := float64(counts[i])
		if v.cfg.SublinearTF {
			tf = 1 + math.Log(tf)
		}
		w := tf * v.vocab.IDF(i)
		vec[i] = w
		norm += w * w
	}
	norm = math.Sqrt(norm)
	for _, i := range indices {
		vec[i] /= norm
	}
	return vec, nil
}

// TransformAll transforms each document
func (v *Vectorizer) TransformAll(docs []string) ([][]float64, error) {
	out := make([][]float64, len(docs))
	for i, doc := range docs {
		vec, err := v.Transform(doc)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}
