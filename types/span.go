package types

type HasSpan interface {
	GetSpan() *Span
}

// Span offsets are in runes.
type Span struct {
	Begin int32
	End   int32
	Text  string
}

type Spans []HasSpan

func (spans Spans) Len() int {
	return len(spans)
}

func (spans Spans) Less(i int, j int) bool {
	spanI, spanJ := spans[i].GetSpan(), spans[j].GetSpan()

	if spanI.Begin == spanJ.Begin {
		return spanI.End < spanJ.End
	}
	return spanI.Begin < spanJ.Begin
}

func (spans Spans) Swap(i int, j int) {
	spans[i], spans[j] = spans[j], spans[i]
}
