package types

type Sentence struct {
	Span
	Index  int
	Tokens []TaggedToken
}

func (sent *Sentence) GetSpan() *Span {
	return &sent.Span
}
