package pos

import (
	"encoding/json"

	"github.com/pkg/errors"
	"text2phenotype.com/postagger/perceptron"
)

// ParseExceptions reads a JSON object mapping a literal word to its forced tag.
func ParseExceptions(data []byte) (map[string]string, error) {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrapf(perceptron.ErrResource, "could not parse exceptions: %v", err)
	}

	words, ok := raw.(map[string]interface{})
	if !ok {
		return nil, errors.Wrap(perceptron.ErrMalformedModel, "exceptions must be a JSON object")
	}

	exceptions := make(map[string]string, len(words))
	for word, value := range words {
		tag, ok := value.(string)
		if !ok || len(tag) == 0 {
			return nil, errors.Wrapf(perceptron.ErrMalformedModel, "tag of word %q must be a non-empty string", word)
		}
		exceptions[word] = tag
	}
	return exceptions, nil
}
