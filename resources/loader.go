package resources

import (
	"sync"

	"github.com/pkg/errors"
	"text2phenotype.com/postagger/logger"
	"text2phenotype.com/postagger/perceptron"
	"text2phenotype.com/postagger/pos"
	"text2phenotype.com/postagger/types"
)

var loaderLogger = logger.NewLogger("Resources")

// Load builds a tagger from its three resources. Any failure is fatal for the tagger:
// no partial model is returned.
func Load(cfg types.TaggerConfig, fetcher Fetcher) (*pos.Tagger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(perceptron.ErrResource, err.Error())
	}

	weightsData, err := fetcher.Fetch(cfg.Weights)
	if err != nil {
		return nil, err
	}
	classesData, err := fetcher.Fetch(cfg.Classes)
	if err != nil {
		return nil, err
	}
	exceptionsData, err := fetcher.Fetch(cfg.Exceptions)
	if err != nil {
		return nil, err
	}

	model, err := perceptron.LoadModel(weightsData, classesData)
	if err != nil {
		return nil, errors.WithMessagef(err, "model %q, %q", cfg.Weights, cfg.Classes)
	}
	exceptions, err := pos.ParseExceptions(exceptionsData)
	if err != nil {
		return nil, errors.WithMessagef(err, "exceptions %q", cfg.Exceptions)
	}

	loaderLogger.Debug().
		Str("weights", cfg.Weights).
		Int("features", model.FeaturesLen()).
		Int("classes", len(model.Classes())).
		Int("exceptions", len(exceptions)).
		Msg("Loaded tagger resources")
	return pos.New(model, exceptions), nil
}

// Cache loads every distinct set of resources once.
type Cache struct {
	fetcher Fetcher

	mu      sync.Mutex
	taggers map[uint64]*pos.Tagger
}

func NewCache(fetcher Fetcher) *Cache {
	return &Cache{
		fetcher: fetcher,
		taggers: make(map[uint64]*pos.Tagger),
	}
}

func (cache *Cache) Get(cfg types.TaggerConfig) (*pos.Tagger, error) {
	key := cfg.GetHashCode()

	cache.mu.Lock()
	defer cache.mu.Unlock()

	if tagger, ok := cache.taggers[key]; ok {
		return tagger, nil
	}
	tagger, err := Load(cfg, cache.fetcher)
	if err != nil {
		return nil, err
	}
	cache.taggers[key] = tagger
	return tagger, nil
}

func (cache *Cache) Len() int {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	return len(cache.taggers)
}

// LoadTaggers returns a tagger per configuration name.
func LoadTaggers(configs []types.Configuration, cache *Cache) (map[string]*pos.Tagger, error) {
	posLogger := logger.NewLogger("LoadTaggers")

	taggers := make(map[string]*pos.Tagger, len(configs))
	for _, cfg := range configs {
		cfgLogger := posLogger.With().Str("config_name", cfg.Name).Logger()

		tagger, err := cache.Get(cfg.Tagger)
		if err != nil {
			cfgLogger.Err(err).Caller().
				Interface("tagger", cfg.Tagger).
				Msg("Could not load tagger")
			return nil, err
		}
		cfgLogger.Info().
			Int("classes", len(tagger.Classes())).
			Int("exceptions", tagger.ExceptionsLen()).
			Msg("Tagger loaded")
		taggers[cfg.Name] = tagger
	}
	return taggers, nil
}
