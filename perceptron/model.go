package perceptron

import (
	"math"
	"sort"

	"github.com/pkg/errors"
)

type FeatureValue struct {
	Name  string
	Value int
}

// Features lists feature strings in a fixed order. Scores are summed in that order,
// so the same Features always produce bit-identical predictions.
type Features interface {
	Values() []FeatureValue
}

type classWeight struct {
	class  int
	weight float64
}

// Model is an averaged-perceptron classifier. It is read-only after NewModel
// and may be shared between goroutines.
type Model struct {
	classes []string
	weights map[string][]classWeight
}

// NewModel indexes classes by load order. That order is the tie-break order of Predict.
func NewModel(featureWeights map[string]map[string]float64, classes []string) (*Model, error) {
	if len(classes) == 0 {
		return nil, errors.Wrap(ErrMalformedModel, "class list is empty")
	}

	classIndex := make(map[string]int, len(classes))
	for i, class := range classes {
		if _, ok := classIndex[class]; ok {
			return nil, errors.Wrapf(ErrMalformedModel, "duplicate class %q", class)
		}
		classIndex[class] = i
	}

	weights := make(map[string][]classWeight, len(featureWeights))
	for feature, tagWeights := range featureWeights {
		row := make([]classWeight, 0, len(tagWeights))
		for tag, weight := range tagWeights {
			idx, ok := classIndex[tag]
			if !ok {
				return nil, errors.Wrapf(ErrMalformedModel, "feature %q has weight for unknown class %q", feature, tag)
			}
			if math.IsNaN(weight) || math.IsInf(weight, 0) {
				return nil, errors.Wrapf(ErrMalformedModel, "feature %q has non-finite weight for class %q", feature, tag)
			}
			row = append(row, classWeight{class: idx, weight: weight})
		}
		sort.Slice(row, func(i, j int) bool {
			return row[i].class < row[j].class
		})
		weights[feature] = row
	}

	cls := make([]string, len(classes))
	copy(cls, classes)

	return &Model{
		classes: cls,
		weights: weights,
	}, nil
}

// Predict returns the best scoring class and the peak softmax value over the classes
// that received a weight from at least one known feature.
func (model *Model) Predict(x Features) (string, float64) {
	scores := make([]float64, len(model.classes))
	touched := make([]bool, len(model.classes))

	for _, featValue := range x.Values() {
		if featValue.Value == 0 {
			continue
		}
		row, ok := model.weights[featValue.Name]
		if !ok {
			continue
		}
		value := float64(featValue.Value)
		for _, cw := range row {
			scores[cw.class] += cw.weight * value
			touched[cw.class] = true
		}
	}

	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}

	return model.classes[best], softmaxPeak(scores, touched)
}

// softmaxPeak is max(exp(s)) / sum(exp(s)) over touched scores, computed as
// 1 / sum(exp(s - max)) so large scores do not overflow.
// With nothing touched every class scores zero and the distribution is uniform.
func softmaxPeak(scores []float64, touched []bool) float64 {
	maxScore := math.Inf(-1)
	n := 0
	for i, s := range scores {
		if !touched[i] {
			continue
		}
		n++
		if s > maxScore {
			maxScore = s
		}
	}

	if n == 0 {
		return 1 / float64(len(scores))
	}

	var normal float64
	for i, s := range scores {
		if touched[i] {
			normal += math.Exp(s - maxScore)
		}
	}
	return 1 / normal
}

func (model *Model) Classes() []string {
	res := make([]string, len(model.classes))
	copy(res, model.classes)
	return res
}

func (model *Model) FeaturesLen() int {
	return len(model.weights)
}

func (model *Model) Weight(feature string, class string) float64 {
	for _, cw := range model.weights[feature] {
		if model.classes[cw.class] == class {
			return cw.weight
		}
	}
	return 0
}
