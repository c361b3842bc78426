package types

import (
	"errors"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
	"text2phenotype.com/postagger/logger"
	"text2phenotype.com/postagger/utils"
)

// TaggerConfig holds the three resource locations of a tagger.
// A location is a file path or "s3://<key>".
type TaggerConfig struct {
	Weights    string `yaml:"weights" json:"weights"`
	Classes    string `yaml:"classes" json:"classes"`
	Exceptions string `yaml:"exceptions" json:"exceptions"`
}

func (cfg TaggerConfig) Validate() error {
	switch {
	case len(cfg.Weights) == 0:
		return errors.New("weights location is empty")
	case len(cfg.Classes) == 0:
		return errors.New("classes location is empty")
	case len(cfg.Exceptions) == 0:
		return errors.New("exceptions location is empty")
	}
	return nil
}

var _ Hashable = TaggerConfig{}

// GetHashCode identifies the resources, taggers with equal codes can be shared.
func (cfg TaggerConfig) GetHashCode() uint64 {
	return utils.HashString(strings.Join([]string{cfg.Weights, cfg.Classes, cfg.Exceptions}, "|"))
}

type Configuration struct {
	Name     string       `json:"name"`
	FilePath string       `json:"file_path"`
	Tagger   TaggerConfig `yaml:"tagger" json:"tagger"`
	Default  bool         `yaml:"default" json:"default"`
}

// LoadConfigurations reads every *.yaml file of dirPath. Invalid files are logged and skipped.
// The result is sorted by name.
func LoadConfigurations(dirPath string) ([]Configuration, error) {
	posLogger := logger.NewLogger("LoadConfigurations")

	files, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, err
	}

	var wg sync.WaitGroup
	configChan := make(chan Configuration, len(files))
	for _, f := range files {
		// Skip dirs and non-yaml files
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".yaml") {
			continue
		}

		wg.Add(1)
		go func(fileName string) {
			defer wg.Done()
			cfg := Configuration{
				Name:     strings.TrimSuffix(fileName, ".yaml"),
				FilePath: path.Join(dirPath, fileName),
			}
			cfgLogger := posLogger.With().Str("file_path", cfg.FilePath).Logger()

			buf, err := os.ReadFile(cfg.FilePath)
			if err != nil {
				cfgLogger.Err(err).Msg("Could not read configuration")
				return
			}
			if err := yaml.Unmarshal(buf, &cfg); err != nil {
				cfgLogger.Err(err).Msg("Could not parse configuration")
				return
			}
			if err := cfg.Tagger.Validate(); err != nil {
				cfgLogger.Err(err).Msg("Wrong tagger configuration")
				return
			}

			configChan <- cfg
		}(f.Name())
	}

	go func() {
		wg.Wait()
		close(configChan)
	}()

	configs := make([]Configuration, 0, len(configChan))
	for cfg := range configChan {
		configs = append(configs, cfg)
	}
	sort.Slice(configs, func(i, j int) bool {
		return configs[i].Name < configs[j].Name
	})

	if len(configs) == 0 {
		return nil, errors.New("no tagger configurations found")
	}
	return configs, nil
}

// DefaultConfiguration returns the first configuration marked as default,
// or the first one when none is marked.
func DefaultConfiguration(configs []Configuration) (Configuration, bool) {
	if len(configs) == 0 {
		return Configuration{}, false
	}
	for _, cfg := range configs {
		if cfg.Default {
			return cfg, true
		}
	}
	return configs[0], true
}

func FindConfiguration(configs []Configuration, name string) (Configuration, bool) {
	if len(name) == 0 {
		return DefaultConfiguration(configs)
	}
	for _, cfg := range configs {
		if cfg.Name == name {
			return cfg, true
		}
	}
	return Configuration{}, false
}
