package pipeline

import (
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"text2phenotype.com/postagger/types"
)

type SentenceDetector func(in <-chan string) <-chan types.Sentence

// NewLineSentenceDetector emits one sentence per non-blank line.
// Span offsets are rune offsets into the received text.
func NewLineSentenceDetector() SentenceDetector {
	return func(in <-chan string) <-chan types.Sentence {
		out := make(chan types.Sentence)
		go func() {
			defer close(out)
			for text := range in {
				for _, sent := range SplitLines(text) {
					out <- sent
				}
			}
		}()
		return out
	}
}

func SplitLines(text string) []types.Sentence {
	var sentences []types.Sentence
	var offset int32
	for _, line := range strings.Split(text, "\n") {
		lineLen := int32(utf8.RuneCountInString(line))

		trimmedLeft := strings.TrimLeftFunc(line, unicode.IsSpace)
		trimmed := strings.TrimRightFunc(trimmedLeft, unicode.IsSpace)
		if len(trimmed) > 0 {
			begin := offset + lineLen - int32(utf8.RuneCountInString(trimmedLeft))
			sentences = append(sentences, types.Sentence{
				Span: types.Span{
					Begin: begin,
					End:   begin + int32(utf8.RuneCountInString(trimmed)),
					Text:  trimmed,
				},
				Index: len(sentences),
			})
		}
		// +1 for the newline
		offset += lineLen + 1
	}
	return sentences
}

func NewSentenceChannelSplitter(n int) func(in <-chan types.Sentence) []chan types.Sentence {
	return func(in <-chan types.Sentence) []chan types.Sentence {
		outs := make([]chan types.Sentence, n)
		for i := 0; i < n; i++ {
			outs[i] = make(chan types.Sentence)
		}

		go func() {
			defer closeAllChannels(outs)
			var wg sync.WaitGroup

			for sent := range in {
				wg.Add(1)
				go func(sent types.Sentence) {
					defer wg.Done()
					for _, out := range outs {
						out <- sent
					}
				}(sent)
			}

			wg.Wait()
		}()
		return outs
	}
}

func closeAllChannels(outs []chan types.Sentence) {
	for _, out := range outs {
		close(out)
	}
}
