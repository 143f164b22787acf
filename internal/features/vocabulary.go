package features

// Vocabulary maps terms to feature indices and their IDF weights.
// It is read-only once built.
type Vocabulary struct {
	terms []string
	index map[string]int
	idf   []float64
}

func newVocabulary(terms []string, idf []float64) *Vocabulary {
	index := make(map[string]int, len(terms))
	for i, t := range terms {
		index[t] = i
	}
	return &Vocabulary{terms: terms, index: index, idf: idf}
}

// Size returns the number of features
func (v *Vocabulary) Size() int {
	return len(v.terms)
}

// Index returns the feature index of a term
func (v *Vocabulary) Index(term string) (int, bool) {
	i, ok := v.index[term]
	return i, ok
}

// Term returns the term at feature index i
func (v *Vocabulary) Term(i int) string {
	return v.terms[i]
}

// IDF returns the inverse document frequency of feature i
func (v *Vocabulary) IDF(i int) float64 {
	return v.idf[i]
}

// Terms returns a copy of all terms in index order
func (v *Vocabulary) Terms() []string {
	out := make([]string, len(v.terms))
	copy(out, v.terms)
	return out
}
