// Package binding keeps the taggers created through the foreign-function
// boundary. Hosts only ever see opaque handles.
package binding

import (
	"encoding/json"
	"errors"
	"sync"

	"text2phenotype.com/postagger/pos"
	"text2phenotype.com/postagger/resources"
	"text2phenotype.com/postagger/types"
)

// Handle is never 0, so 0 can signal a failed Create to C callers.
type Handle uint64

var ErrInvalidHandle = errors.New("invalid tagger handle")

type Registry struct {
	fetcher resources.Fetcher

	mu      sync.RWMutex
	last    Handle
	taggers map[Handle]*pos.Tagger
}

func NewRegistry(fetcher resources.Fetcher) *Registry {
	return &Registry{
		fetcher: fetcher,
		taggers: make(map[Handle]*pos.Tagger),
	}
}

var (
	defaultRegistryOnce sync.Once
	defaultRegistry     *Registry
)

// Default is the registry used by the package level functions.
func Default() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry(resources.NewFetcherWithS3())
	})
	return defaultRegistry
}

func Create(weights, classes, exceptions string) (Handle, error) {
	return Default().Create(weights, classes, exceptions)
}

func Annotate(h Handle, sentence string) ([]types.TaggedToken, error) {
	return Default().Annotate(h, sentence)
}

func AnnotateJSON(h Handle, sentence string) (string, error) {
	return Default().AnnotateJSON(h, sentence)
}

func Release(h Handle) error {
	return Default().Release(h)
}

// Create loads a tagger. Nothing is registered when loading fails.
func (r *Registry) Create(weights, classes, exceptions string) (Handle, error) {
	tagger, err := resources.Load(types.TaggerConfig{
		Weights:    weights,
		Classes:    classes,
		Exceptions: exceptions,
	}, r.fetcher)
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.last++
	r.taggers[r.last] = tagger
	return r.last, nil
}

func (r *Registry) Annotate(h Handle, sentence string) ([]types.TaggedToken, error) {
	tagger, err := r.get(h)
	if err != nil {
		return nil, err
	}
	return tagger.Tag(sentence), nil
}

// AnnotateJSON returns [{"word","tag","conf"}, ...].
func (r *Registry) AnnotateJSON(h Handle, sentence string) (string, error) {
	tokens, err := r.Annotate(h, sentence)
	if err != nil {
		return "", err
	}
	buf, err := json.Marshal(tokens)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

// Release drops the tagger. Releasing a handle twice is an error.
func (r *Registry) Release(h Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.taggers[h]; !ok {
		return ErrInvalidHandle
	}
	delete(r.taggers, h)
	return nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.taggers)
}

func (r *Registry) get(h Handle) (*pos.Tagger, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tagger, ok := r.taggers[h]
	if !ok {
		return nil, ErrInvalidHandle
	}
	return tagger, nil
}
