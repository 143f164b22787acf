package features

import (
	"errors"
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikey/mailguard/internal/core"
	"github.com/mikey/mailguard/internal/textproc"
)

var corpus = []string{
	"free money click",
	"free prize claim",
	"meeting scheduled tomorrow",
	"project status update",
}

func fitted(t *testing.T) *Vectorizer {
	t.Helper()
	v := NewVectorizer(nil, DefaultConfig())
	_, err := v.Fit(corpus)
	require.NoError(t, err)
	return v
}

func l2(vec []float64) float64 {
	var s float64
	for _, x := range vec {
		s += x * x
	}
	return math.Sqrt(s)
}

func TestTransformBeforeFit(t *testing.T) {
	v := NewVectorizer(nil, DefaultConfig())
	_, err := v.Transform("free money")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrNotTrained))
}

func TestFitVocabulary(t *testing.T) {
	v := fitted(t)
	vocab := v.Vocabulary()
	require.NotNil(t, vocab)

	terms := vocab.Terms()
	assert.True(t, sort.StringsAreSorted(terms), "indices follow alphabetical order")
	assert.Contains(t, terms, "free")
	assert.Contains(t, terms, "free money")
	assert.Contains(t, terms, "meeting scheduled")

	i, ok := vocab.Index("free")
	require.True(t, ok)
	assert.Equal(t, "free", vocab.Term(i))
	assert.InDelta(t, math.Log(5.0/3.0)+1, vocab.IDF(i), 1e-12)
}

func TestTransformDimensionAndNorm(t *testing.T) {
	v := fitted(t)
	size := v.Vocabulary().Size()

	for _, text := range []string{"", "free money", "completely unknown words", "meeting free NUMBER"} {
		vec, err := v.Transform(text)
		require.NoError(t, err)
		assert.Len(t, vec, size, "text %q", text)
	}

	vec, err := v.Transform("free money click")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, l2(vec), 1e-9)

	empty, err := v.Transform("nothing known here")
	require.NoError(t, err)
	assert.Equal(t, 0.0, l2(empty))
}

func TestTransformDeterministic(t *testing.T) {
	v := fitted(t)
	a, err := v.Transform("free free money meeting update")
	require.NoError(t, err)
	b, err := v.Transform("free free money meeting update")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestTransformSublinearTF(t *testing.T) {
	analyzer := &textproc.Analyzer{MinTokenLen: 2, MinN: 1, MaxN: 1}
	v := NewVectorizer(analyzer, Config{MaxDF: 1, MinDF: 1, SublinearTF: true})
	_, err := v.Fit([]string{"free money", "free prize", "meeting"})
	require.NoError(t, err)

	vec, err := v.Transform("free free money")
	require.NoError(t, err)

	vocab := v.Vocabulary()
	fi, _ := vocab.Index("free")
	mi, _ := vocab.Index("money")
	want := (1 + math.Log(2)) * vocab.IDF(fi) / vocab.IDF(mi)
	assert.InDelta(t, want, vec[fi]/vec[mi], 1e-9)
}

func TestFitMaxDFDropsCommonTerms(t *testing.T) {
	v := NewVectorizer(nil, DefaultConfig())
	_, err := v.Fit([]string{"common alpha", "common beta", "common gamma", "common delta"})
	require.NoError(t, err)

	_, ok := v.Vocabulary().Index("common")
	assert.False(t, ok)
	_, ok = v.Vocabulary().Index("alpha")
	assert.True(t, ok)

	_, err = v.Fit([]string{"common alpha", "common beta", "common gamma", "common delta", "epsilon"})
	require.NoError(t, err)
	_, ok = v.Vocabulary().Index("common")
	assert.True(t, ok, "a term in exactly 80% of documents is kept")
}

func TestFitMaxFeatures(t *testing.T) {
	analyzer := &textproc.Analyzer{MinTokenLen: 2, MinN: 1, MaxN: 1}
	v := NewVectorizer(analyzer, Config{MaxFeatures: 2, MaxDF: 1, MinDF: 1})
	_, err := v.Fit([]string{"alpha alpha beta", "alpha gamma"})
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, v.Vocabulary().Terms())
}

func TestFitInsufficientData(t *testing.T) {
	v := NewVectorizer(nil, DefaultConfig())

	_, err := v.Fit(nil)
	assert.True(t, errors.Is(err, core.ErrInsufficientData))

	_, err = v.Fit([]string{"the of and", "a to"})
	assert.True(t, errors.Is(err, core.ErrInsufficientData))
	assert.Nil(t, v.Vocabulary())
}
