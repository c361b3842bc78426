package types

// TaggedToken is one tagged input token. Word is the token as it appeared in the input.
type TaggedToken struct {
	Word       string  `json:"word"`
	Tag        string  `json:"tag"`
	Confidence float64 `json:"conf"`
}

func Words(tokens []TaggedToken) []string {
	words := make([]string, len(tokens))
	for i, token := range tokens {
		words[i] = token.Word
	}
	return words
}

func Tags(tokens []TaggedToken) []string {
	tags := make([]string, len(tokens))
	for i, token := range tokens {
		tags[i] = token.Tag
	}
	return tags
}
