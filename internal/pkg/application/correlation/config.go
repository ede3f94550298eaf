package correlation

import (
	"io"

	"gopkg.in/yaml.v2"

	"github.com/diwise/alarm-correlation/pkg/types"
)

const DefaultMaxDepth int = 10

type Config struct {
	// MaxDepth bounds the number of parent link hops followed from the seed.
	MaxDepth int `yaml:"maxDepth"`
	// Concurrency is the number of children queries that may be in flight at once.
	Concurrency int `yaml:"concurrency"`
}

type Labels struct {
	Severity map[int]string `yaml:"severity"`
	State    map[int]string `yaml:"state"`
}

type Configuration struct {
	Correlation Config `yaml:"correlation"`
	Labels      Labels `yaml:"labels"`
}

func DefaultConfig() Config {
	return Config{
		MaxDepth:    DefaultMaxDepth,
		Concurrency: 1,
	}
}

func (c Config) withDefaults() Config {
	if c.MaxDepth <= 0 {
		c.MaxDepth = DefaultMaxDepth
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 1
	}
	return c
}

func LoadConfiguration(data io.Reader) (*Configuration, error) {
	buf, err := io.ReadAll(data)
	if err != nil {
		return nil, err
	}

	cfg := Configuration{}
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return nil, err
	}

	cfg.Correlation = cfg.Correlation.withDefaults()

	return &cfg, nil
}

// Formatter turns the opaque severity and state enumerations into display labels.
type Formatter struct {
	Severity func(types.Severity) string
	State    func(types.State) string
}

func DefaultFormatter() Formatter {
	return Formatter{
		Severity: types.Severity.String,
		State:    types.State.String,
	}
}

// NewFormatter prefers configured labels and falls back to the enumeration names.
func NewFormatter(labels Labels) Formatter {
	return Formatter{
		Severity: func(s types.Severity) string {
			if l, ok := labels.Severity[int(s)]; ok {
				return l
			}
			return s.String()
		},
		State: func(s types.State) string {
			if l, ok := labels.State[int(s)]; ok {
				return l
			}
			return s.String()
		},
	}
}
