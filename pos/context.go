package pos

import (
	"strings"

	"text2phenotype.com/postagger/perceptron"
)

const (
	startTag  = "-START-"
	start2Tag = "-START2-"
	endWord   = "-END-"
	end2Word  = "-END2-"

	// Two sentinels precede the first token in the context array.
	contextOffset = 2
	suffixLength  = 3
)

// newContext pads the normalized tokens with sentinels:
// [-START-, -START2-, norm(t0) ... norm(tn-1), -END-, -END2-].
func newContext(tokens []string) []string {
	context := make([]string, 0, len(tokens)+2*contextOffset)
	context = append(context, startTag, start2Tag)
	for _, token := range tokens {
		context = append(context, Normalize(token))
	}
	return append(context, endWord, end2Word)
}

type featureSet struct {
	values []perceptron.FeatureValue
	seen   map[string]struct{}
}

func newFeatureSet(capacity int) *featureSet {
	return &featureSet{
		values: make([]perceptron.FeatureValue, 0, capacity),
		seen:   make(map[string]struct{}, capacity),
	}
}

// add joins the template name and its values with spaces. A repeated key keeps count 1.
func (fs *featureSet) add(parts ...string) {
	name := strings.Join(parts, " ")
	if _, ok := fs.seen[name]; ok {
		return
	}
	fs.seen[name] = struct{}{}
	fs.values = append(fs.values, perceptron.FeatureValue{Name: name, Value: 1})
}

func (fs *featureSet) Values() []perceptron.FeatureValue {
	return fs.values
}

func (fs *featureSet) Names() []string {
	names := make([]string, len(fs.values))
	for i, v := range fs.values {
		names[i] = v.Name
	}
	return names
}

// getFeatures builds the feature set of the token at context index i.
func getFeatures(i int, word string, context []string, prev string, prev2 string) *featureSet {
	fs := newFeatureSet(14)

	fs.add("bias")
	fs.add("i suffix", suffix(word))
	if second, ok := secondChar(word); ok {
		fs.add("i pref1", second)
	}
	fs.add("i-1 tag", prev)
	fs.add("i-2 tag", prev2)
	fs.add("i tag+i-2 tag", prev, prev2)
	fs.add("i word", context[i])
	fs.add("i-1 tag+i word", prev, context[i])
	fs.add("i-1 word", context[i-1])
	fs.add("i-2 word", context[i-2])
	fs.add("i+1 word", context[i+1])
	fs.add("i+2 word", context[i+2])
	fs.add("i+1 suffix", suffix(context[i+1]))
	fs.add("i-1 suffix", suffix(context[i-1]))

	return fs
}

// suffix returns the last three characters, or the whole word when it is shorter.
func suffix(word string) string {
	runes := []rune(word)
	if len(runes) <= suffixLength {
		return word
	}
	return string(runes[len(runes)-suffixLength:])
}

func secondChar(word string) (string, bool) {
	runes := []rune(word)
	if len(runes) < 2 {
		return "", false
	}
	return string(runes[1]), true
}
