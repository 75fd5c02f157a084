package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// FeedsFile is the on-disk form of FEEDS_FILE:
//
//	pipelines:
//	  news:
//	    - Hacker News=https://hnrss.org/frontpage
//	    - https://www.theverge.com/rss/index.xml
type FeedsFile struct {
	Pipelines map[string][]string `yaml:"pipelines"`
}

// LoadFeedsFile reads a feeds file. A missing file yields an empty result.
func LoadFeedsFile(path string) (FeedsFile, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return FeedsFile{}, nil
	}
	if err != nil {
		return FeedsFile{}, fmt.Errorf("read feeds file: %w", err)
	}
	var f FeedsFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return FeedsFile{}, fmt.Errorf("parse feeds file %s: %w", path, err)
	}
	normalized := make(map[string][]string, len(f.Pipelines))
	for name, sources := range f.Pipelines {
		normalized[strings.ToLower(strings.TrimSpace(name))] = sources
	}
	f.Pipelines = normalized
	return f, nil
}

// SourcesFor returns the source override for a pipeline. FEEDS_<NAME> wins
// over FEEDS_FILE; nil means the pipeline keeps its built-in sources.
func (c Config) SourcesFor(pipeline string) ([]string, error) {
	pipeline = strings.ToLower(strings.TrimSpace(pipeline))
	if sources := c.Feeds[pipeline]; len(sources) > 0 {
		return sources, nil
	}
	if c.FeedsFile == "" {
		return nil, nil
	}
	f, err := LoadFeedsFile(c.FeedsFile)
	if err != nil {
		return nil, err
	}
	return f.Pipelines[pipeline], nil
}
