package pos

import (
	"strings"

	"text2phenotype.com/postagger/perceptron"
	"text2phenotype.com/postagger/types"
)

const exceptionConfidence = 1.0

// Tagger is a greedy left-to-right averaged-perceptron tagger.
// It holds no mutable state, so one Tagger may serve concurrent callers.
type Tagger struct {
	model      *perceptron.Model
	exceptions map[string]string
}

func New(model *perceptron.Model, exceptions map[string]string) *Tagger {
	exc := make(map[string]string, len(exceptions))
	for word, tag := range exceptions {
		exc[word] = tag
	}
	return &Tagger{
		model:      model,
		exceptions: exc,
	}
}

// Tag splits the sentence on whitespace and tags every token.
func (tagger *Tagger) Tag(sentence string) []types.TaggedToken {
	return tagger.TagTokens(strings.Fields(sentence))
}

func (tagger *Tagger) TagTokens(tokens []string) []types.TaggedToken {
	output := make([]types.TaggedToken, 0, len(tokens))
	if len(tokens) == 0 {
		return output
	}

	context := newContext(tokens)
	prev, prev2 := startTag, start2Tag

	for i, token := range tokens {
		tag, ok := tagger.exceptions[token]
		conf := exceptionConfidence
		if !ok {
			features := getFeatures(i+contextOffset, token, context, prev, prev2)
			tag, conf = tagger.model.Predict(features)
		}

		output = append(output, types.TaggedToken{
			Word:       token,
			Tag:        tag,
			Confidence: conf,
		})
		prev2 = prev
		prev = tag
	}

	return output
}

func (tagger *Tagger) Classes() []string {
	return tagger.model.Classes()
}

func (tagger *Tagger) ExceptionsLen() int {
	return len(tagger.exceptions)
}
