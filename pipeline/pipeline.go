package pipeline

import (
	"encoding/json"
	"fmt"

	"text2phenotype.com/postagger/logger"
	"text2phenotype.com/postagger/pos"
	"text2phenotype.com/postagger/types"
)

// Pipeline returns the JSON map of configuration name to tagging response.
type Pipeline func(request Request) <-chan string

func New(configs []types.Configuration, taggers map[string]*pos.Tagger) (Pipeline, error) {
	posLogger := logger.NewLogger("Tagging pipeline")

	stages := make([]Tagger, len(configs))
	for i, cfg := range configs {
		tagger, ok := taggers[cfg.Name]
		if !ok {
			err := fmt.Errorf("no tagger loaded for configuration %q", cfg.Name)
			posLogger.Err(err).Caller().Msg("Failed to create tagging pipeline")
			return nil, err
		}
		stages[i] = NewPOSTagger(tagger)
	}

	sentenceDetector := NewLineSentenceDetector()
	splitter := NewSentenceChannelSplitter(len(configs))
	taggingResult := NewTaggingResult()

	return func(request Request) <-chan string {
		responseChan := make(chan string)
		pplnLog := posLogger.With().Str("tid", request.Tid).Logger()
		pplnLog.Info().Msg("Started tagging pipeline")

		go func() {
			in := make(chan string)
			split := splitter(sentenceDetector(in))

			resultChannel := make(chan Result)
			for i, cfg := range configs {
				connect(taggingResult(stages[i](split[i]), cfg.Name, request), resultChannel)
			}

			in <- request.Text
			close(in)

			response := make(map[string]interface{}, len(configs))
			for i := 0; i < len(configs); i++ {
				res := <-resultChannel
				pplnLog.Info().
					Str("config_name", res.ConfigName).
					Msg("Finished pipeline for configuration")
				response[res.ConfigName] = res.Data
			}

			buf, err := json.Marshal(response)
			if err != nil {
				pplnLog.Err(err).Caller().Msg("Failed to marshall response")
			}
			pplnLog.Info().Msg("Finished tagging pipeline")
			responseChan <- string(buf)
		}()

		return responseChan
	}, nil
}

func connect(from <-chan Result, to chan<- Result) {
	go func() {
		for v := range from {
			to <- v
		}
	}()
}
