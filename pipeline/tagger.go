package pipeline

import (
	"sync"

	"text2phenotype.com/postagger/pos"
	"text2phenotype.com/postagger/types"
)

type Tagger func(in <-chan types.Sentence) <-chan types.Sentence

// NewPOSTagger tags every received sentence in its own goroutine, so the output
// order is not the input order.
func NewPOSTagger(tagger *pos.Tagger) Tagger {
	return func(in <-chan types.Sentence) <-chan types.Sentence {
		out := make(chan types.Sentence)
		go func() {
			defer close(out)
			var wg sync.WaitGroup
			for sent := range in {
				wg.Add(1)
				go func(sent types.Sentence) {
					defer wg.Done()
					sent.Tokens = tagger.Tag(sent.Text)
					out <- sent
				}(sent)
			}

			wg.Wait()
		}()
		return out
	}
}
