package perceptron

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrResource means a model resource could not be read or parsed.
	ErrResource = errors.New("model resource error")
	// ErrMalformedModel means a resource was parsed but has the wrong shape.
	ErrMalformedModel = errors.New("malformed model")
)

// ParseWeights reads a JSON object of the form {"feature": {"tag": weight}}.
func ParseWeights(data []byte) (map[string]map[string]float64, error) {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrapf(ErrResource, "could not parse weights: %v", err)
	}

	features, ok := raw.(map[string]interface{})
	if !ok {
		return nil, errors.Wrap(ErrMalformedModel, "weights must be a JSON object")
	}

	result := make(map[string]map[string]float64, len(features))
	for feature, value := range features {
		tags, ok := value.(map[string]interface{})
		if !ok {
			return nil, errors.Wrapf(ErrMalformedModel, "weights of feature %q must be a JSON object", feature)
		}
		weights := make(map[string]float64, len(tags))
		for tag, w := range tags {
			weight, ok := w.(float64)
			if !ok {
				return nil, errors.Wrapf(ErrMalformedModel, "weight of feature %q for tag %q is not a number", feature, tag)
			}
			weights[tag] = weight
		}
		result[feature] = weights
	}

	return result, nil
}

// ParseClasses reads one tag per line. Blank lines are skipped.
func ParseClasses(data []byte) ([]string, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))

	var classes []string
	seen := make(map[string]bool)
	for scanner.Scan() {
		class := strings.TrimSpace(scanner.Text())
		if class == "" {
			continue
		}
		if seen[class] {
			return nil, errors.Wrapf(ErrMalformedModel, "duplicate class %q", class)
		}
		seen[class] = true
		classes = append(classes, class)
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(ErrResource, "could not read classes: %v", err)
	}

	if len(classes) == 0 {
		return nil, errors.Wrap(ErrMalformedModel, "class list is empty")
	}

	return classes, nil
}

// LoadModel parses both model resources and builds the Model.
func LoadModel(weightsData []byte, classesData []byte) (*Model, error) {
	weights, err := ParseWeights(weightsData)
	if err != nil {
		return nil, err
	}
	classes, err := ParseClasses(classesData)
	if err != nil {
		return nil, err
	}
	return NewModel(weights, classes)
}
