package pipeline

import (
	"sort"

	"text2phenotype.com/postagger/types"
)

type Result struct {
	ConfigName string
	Data       interface{}
}

type ResultBuilder func(in <-chan types.Sentence, cfgName string, request Request) <-chan Result

func NewTaggingResult() ResultBuilder {
	return func(in <-chan types.Sentence, cfgName string, request Request) <-chan Result {
		out := make(chan Result)
		go func() {
			defer close(out)

			var sentences []types.Sentence
			for sent := range in {
				sentences = append(sentences, sent)
			}
			out <- Result{
				ConfigName: cfgName,
				Data:       BuildResponse(sentences, cfgName, request.Tid),
			}
		}()
		return out
	}
}

// BuildResponse restores the document order of the sentences.
func BuildResponse(sentences []types.Sentence, cfgName string, docId string) types.TaggingResponse {
	spans := make(types.Spans, len(sentences))
	for i := range sentences {
		spans[i] = &sentences[i]
	}
	sort.Sort(spans)

	response := types.TaggingResponse{
		DocId:     docId,
		Config:    cfgName,
		Sentences: make([]types.SentenceSection, len(spans)),
	}
	for i, span := range spans {
		sent := span.(*types.Sentence)
		tokens := sent.Tokens
		if tokens == nil {
			tokens = []types.TaggedToken{}
		}
		response.Sentences[i] = types.SentenceSection{
			Id:       sent.Index,
			Sentence: []int32{sent.Begin, sent.End},
			Text:     sent.Text,
			Tokens:   tokens,
		}
	}
	return response
}
