package pos

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"text2phenotype.com/postagger/perceptron"
	"text2phenotype.com/postagger/types"
)

func newTestTagger(t *testing.T, weights map[string]map[string]float64, classes []string, exceptions map[string]string) *Tagger {
	t.Helper()
	model, err := perceptron.NewModel(weights, classes)
	require.NoError(t, err)
	return New(model, exceptions)
}

// A tiny English-like model: determiners, nouns, verbs and adjectives.
func englishTagger(t *testing.T, exceptions map[string]string) *Tagger {
	return newTestTagger(t, map[string]map[string]float64{
		"bias":              {"NN": 0.5, "VB": 0.1, "DT": 0.0, "JJ": 0.0},
		"i word the":        {"DT": 5.0},
		"i word a":          {"DT": 5.0},
		"i suffix ood":      {"JJ": 1.2, "NN": 0.3},
		"i-1 tag DT":        {"NN": 1.5, "JJ": 0.6},
		"i-1 tag VB":        {"JJ": 2.0, "NN": -0.5},
		"i-1 tag NN":        {"VB": 1.0},
		"i+1 word boy":      {"JJ": 0.9},
		"i word was":        {"VB": 0.2},
		"i-2 tag -START-":   {"NN": 0.1},
		"i word !DIGITS":    {"CD": 4.0},
		"i word !YEAR":      {"CD": 4.0},
		"i-1 word -START2-": {"NN": 0.05},
	}, []string{"NN", "VB", "DT", "JJ", "CD"}, exceptions)
}

func TestTagSingleTokenBias(t *testing.T) {
	tagger := newTestTagger(t, map[string]map[string]float64{
		"bias": {"NN": 1.0, "VB": 0.5},
	}, []string{"NN", "VB"}, map[string]string{})

	res := tagger.Tag("x")
	require.Len(t, res, 1)
	assert.Equal(t, "x", res[0].Word)
	assert.Equal(t, "NN", res[0].Tag)

	expected := math.Exp(1.0) / (math.Exp(1.0) + math.Exp(0.5))
	assert.InDelta(t, expected, res[0].Confidence, 1e-12)
}

func TestTagExceptionIsContextForNextToken(t *testing.T) {
	tagger := newTestTagger(t, map[string]map[string]float64{
		"bias":       {"NN": 1.0},
		"i-1 tag VB": {"JJ": 3.0},
	}, []string{"NN", "VB", "JJ"}, map[string]string{"was": "VB"})

	res := tagger.Tag("shubham was good")
	require.Len(t, res, 3)

	assert.Equal(t, types.TaggedToken{Word: "was", Tag: "VB", Confidence: 1.0}, res[1])
	assert.Equal(t, "JJ", res[2].Tag)
	assert.Equal(t, "NN", res[0].Tag)

	// Without the forced tag the model never predicts VB, so "good" stays NN.
	plain := newTestTagger(t, map[string]map[string]float64{
		"bias":       {"NN": 1.0},
		"i-1 tag VB": {"JJ": 3.0},
	}, []string{"NN", "VB", "JJ"}, nil)
	assert.Equal(t, []string{"NN", "NN", "NN"}, types.Tags(plain.Tag("shubham was good")))
}

func TestTagExceptionsOverrideModel(t *testing.T) {
	exceptions := map[string]string{"the": "XX", "Boy": "NNP", "1999": "YEAR"}
	tagger := englishTagger(t, exceptions)

	res := tagger.Tag("the Boy saw the boy in 1999")
	require.Len(t, res, 7)
	for _, token := range res {
		if tag, ok := exceptions[token.Word]; ok {
			assert.Equal(t, tag, token.Tag)
			assert.Equal(t, 1.0, token.Confidence)
		}
	}
	// Lookup is on the literal token, so "boy" is predicted by the model.
	assert.NotEqual(t, "NNP", res[4].Tag)
	assert.Less(t, res[4].Confidence, 1.0)
}

func TestTagEnglishSentence(t *testing.T) {
	tagger := englishTagger(t, nil)

	res := tagger.Tag("The dog was good in 1999")
	assert.Equal(t, []string{"DT", "NN", "VB", "JJ", "NN", "CD"}, types.Tags(res))
	assert.Equal(t, []string{"The", "dog", "was", "good", "in", "1999"}, types.Words(res))
}

func TestTagEmptySentence(t *testing.T) {
	tagger := englishTagger(t, nil)

	for _, sentence := range []string{"", "   ", "\t\n"} {
		res := tagger.Tag(sentence)
		assert.NotNil(t, res)
		assert.Empty(t, res)
	}
	assert.Empty(t, tagger.TagTokens(nil))
}

func TestTagPreservesTokens(t *testing.T) {
	tagger := englishTagger(t, nil)

	sentence := "  The   QUICK brown-fox\tjumped over 12 lazy dogs , naïvely  "
	tokens := strings.Fields(sentence)
	res := tagger.Tag(sentence)

	require.Len(t, res, len(tokens))
	assert.Equal(t, tokens, types.Words(res))
}

func TestTagIsDeterministic(t *testing.T) {
	tagger := englishTagger(t, map[string]string{"saw": "VBD"})

	sentence := "the good boy saw a dog in 2020 and 3 cats"
	first := tagger.Tag(sentence)
	for i := 0; i < 20; i++ {
		next := tagger.Tag(sentence)
		require.Len(t, next, len(first))
		for j := range first {
			assert.Equal(t, first[j].Tag, next[j].Tag)
			assert.Equal(t, math.Float64bits(first[j].Confidence), math.Float64bits(next[j].Confidence))
		}
	}
}

func TestTagConfidenceBounds(t *testing.T) {
	tagger := englishTagger(t, map[string]string{"was": "VB"})

	for _, sentence := range []string{
		"the dog was good",
		"a boy",
		"unknown words only here",
		"1999 12 well-known -x",
	} {
		for _, token := range tagger.Tag(sentence) {
			assert.Greater(t, token.Confidence, 0.0, token.Word)
			assert.LessOrEqual(t, token.Confidence, 1.0, token.Word)
		}
	}
}

func TestTagLeftToRight(t *testing.T) {
	tagger := englishTagger(t, nil)

	base := strings.Fields("the dog was good and the boy was a good boy")
	baseTags := tagger.TagTokens(base)

	for i := range base {
		changed := make([]string, len(base))
		copy(changed, base)
		changed[i] = "zzz"
		res := tagger.TagTokens(changed)

		// Token j looks ahead at most two context words, so only j >= i-2 may change.
		for j := 0; j < i-2; j++ {
			assert.Equal(t, baseTags[j], res[j], "changing token %d altered token %d", i, j)
		}
	}
}

func TestTaggerConcurrentUse(t *testing.T) {
	tagger := englishTagger(t, map[string]string{"was": "VB"})
	expected := tagger.Tag("the dog was good")

	done := make(chan []types.TaggedToken)
	for i := 0; i < 8; i++ {
		go func() {
			done <- tagger.Tag("the dog was good")
		}()
	}
	for i := 0; i < 8; i++ {
		assert.Equal(t, expected, <-done)
	}
}

func TestNewCopiesExceptions(t *testing.T) {
	exceptions := map[string]string{"was": "VB"}
	tagger := englishTagger(t, exceptions)
	exceptions["dog"] = "VB"

	assert.Equal(t, 1, tagger.ExceptionsLen())
	assert.Equal(t, []string{"NN", "VB", "DT", "JJ", "CD"}, tagger.Classes())
	assert.NotEqual(t, "VB", tagger.Tag("the dog")[1].Tag)
}

func TestParseExceptions(t *testing.T) {
	exceptions, err := ParseExceptions([]byte(`{"was": "VBD", "the": "DT"}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"was": "VBD", "the": "DT"}, exceptions)

	_, err = ParseExceptions([]byte(`{"was": `))
	assert.True(t, errors.Is(err, perceptron.ErrResource))

	_, err = ParseExceptions([]byte(`["was"]`))
	assert.True(t, errors.Is(err, perceptron.ErrMalformedModel))

	_, err = ParseExceptions([]byte(`{"was": 1}`))
	assert.True(t, errors.Is(err, perceptron.ErrMalformedModel))

	_, err = ParseExceptions([]byte(`{"was": ""}`))
	assert.True(t, errors.Is(err, perceptron.ErrMalformedModel))
}
