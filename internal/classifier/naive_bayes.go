// Package classifier implements a multinomial Naive Bayes model over
// weighted feature vectors.
package classifier

import (
	"fmt"
	"math"

	"github.com/mikey/mailguard/internal/core"
)

// DefaultAlpha is the additive smoothing constant
const DefaultAlpha = 0.1

// Distribution holds class probabilities in core.Labels order
type Distribution []float64

// Of returns the probability of a label
func (d Distribution) Of(label core.Label) float64 {
	for i, l := range core.Labels {
		if l == label {
			return d[i]
		}
	}
	return 0
}

// MultinomialNB is an additive-smoothed multinomial Naive Bayes model
type MultinomialNB struct {
	alpha       float64
	classes     []core.Label
	classCount  []float64
	logPrior    []float64
	featureLogP [][]float64 // [class][feature]
	nFeatures   int
}

// NewMultinomialNB creates an unfitted model
func NewMultinomialNB(alpha float64) *MultinomialNB {
	if alpha <= 0 {
		alpha = DefaultAlpha
	}
	return &MultinomialNB{alpha: alpha, classes: core.Labels}
}

// Fitted reports whether Fit has succeeded
func (m *MultinomialNB) Fitted() bool {
	return m.featureLogP != nil
}

// Features returns the vector length the model expects
func (m *MultinomialNB) Features() int {
	return m.nFeatures
}

func (m *MultinomialNB) classIndex(label core.Label) (int, bool) {
	for i, c := range m.classes {
		if c == label {
			return i, true
		}
	}
	return 0, false
}

// Fit estimates class priors and smoothed feature log likelihoods
func (m *MultinomialNB) Fit(vectors [][]float64, labels []core.Label) error {
	if len(vectors) == 0 {
		return core.InsufficientData("no training vectors")
	}
	if len(vectors) != len(labels) {
		return fmt.Errorf("got %d vectors and %d labels", len(vectors), len(labels))
	}

	nFeatures := len(vectors[0])
	nClasses := len(m.classes)
	classCount := make([]float64, nClasses)
	featureCount := make([][]float64, nClasses)
	for c := range featureCount {
		featureCount[c] = make([]float64, nFeatures)
	}

	for i, vec := range vectors {
		if len(vec) != nFeatures {
			return fmt.Errorf("vector %d has %d features, expected %d", i, len(vec), nFeatures)
		}
		c, ok := m.classIndex(labels[i])
		if !ok {
			return fmt.Errorf("unknown label %q", labels[i])
		}
		classCount[c]++
		for f, w := range vec {
			featureCount[c][f] += w
		}
	}

	total := float64(len(vectors))
	logPrior := make([]float64, nClasses)
	featureLogP := make([][]float64, nClasses)
	for c := 0; c < nClasses; c++ {
		if classCount[c] == 0 {
			return core.InsufficientData("no training samples labeled %s", m.classes[c])
		}
		logPrior[c] = math.Log(classCount[c] / total)

		var sum float64
		for _, w := range featureCount[c] {
			sum += w
		}
		denom := math.Log(sum + m.alpha*float64(nFeatures))
		featureLogP[c] = make([]float64, nFeatures)
		for f, w := range featureCount[c] {
			featureLogP[c][f] = math.Log(w+m.alpha) - denom
		}
	}

	m.classCount = classCount
	m.logPrior = logPrior
	m.featureLogP = featureLogP
	m.nFeatures = nFeatures
	return nil
}

// JointLogLikelihood returns log P(c) + sum_f x_f log P(f|c) per class
func (m *MultinomialNB) JointLogLikelihood(vec []float64) ([]float64, error) {
	if !m.Fitted() {
		return nil, core.NotTrained("classifier is not fitted")
	}
	if len(vec) != m.nFeatures {
		return nil, fmt.Errorf("vector has %d features, expected %d", len(vec), m.nFeatures)
	}

	jll := make([]float64, len(m.classes))
	for c := range m.classes {
		score := m.logPrior[c]
		for f, x := range vec {
			if x != 0 {
				score += x * m.featureLogP[c][f]
			}
		}
		jll[c] = score
	}
	return jll, nil
}

// PredictProba returns the posterior distribution over classes
func (m *MultinomialNB) PredictProba(vec []float64) (Distribution, error) {
	jll, err := m.JointLogLikelihood(vec)
	if err != nil {
		return nil, err
	}

	maxLL := jll[0]
	for _, v := range jll[1:] {
		if v > maxLL {
			maxLL = v
		}
	}
	var sum float64
	for _, v := range jll {
		sum += math.Exp(v - maxLL)
	}
	logNorm := maxLL + math.Log(sum)

	dist := make(Distribution, len(jll))
	for i, v := range jll {
		dist[i] = math.Exp(v - logNorm)
	}
	return dist, nil
}

// Predict returns the most probable label; ties go to the first class
func (m *MultinomialNB) Predict(vec []float64) (core.Label, error) {
	dist, err := m.PredictProba(vec)
	if err != nil {
		return "", err
	}
	best := 0
	for i := 1; i < len(dist); i++ {
		if dist[i] > dist[best] {
			best = i
		}
	}
	return m.classes[best], nil
}
