package textproc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestAnalyzerTerms(t *testing.T) {
	a := DefaultAnalyzer()

	terms := a.Terms("free money now click to claim")
	assert.Equal(t, []string{
		"free", "money", "click", "claim",
		"free money", "money click", "click claim",
	}, terms)
}

func TestAnalyzerDropsShortTokensAndStopWords(t *testing.T) {
	a := DefaultAnalyzer()

	assert.Equal(t, []string{"meeting", "NUMBER", "pm"}, a.Tokens("meeting at NUMBER pm x"))
	assert.Empty(t, a.Terms("the a of to"))
	assert.Empty(t, a.Terms(""))
}

func TestAnalyzerUnigramsOnly(t *testing.T) {
	a := &Analyzer{MinTokenLen: 1, MinN: 1, MaxN: 1}
	assert.Equal(t, []string{"a", "b", "c"}, a.Terms("a b c"))
}

func TestProcessorPrepare(t *testing.T) {
	p := NewProcessor(zap.NewNop(), 5)

	assert.Equal(t, "hello", p.Prepare("hello world"))
	assert.Equal(t, "héll", p.Prepare("héllo"), "must not split a multi-byte rune")
	assert.Equal(t, "ab", p.Prepare("a\xffb"))

	unlimited := NewProcessor(zap.NewNop(), 0)
	assert.Equal(t, "hello world", unlimited.Prepare("hello world"))
}
