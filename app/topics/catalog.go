package topics

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Topic is one entry of the curated topic catalog shown in the topic picker.
// The catalog is advisory: weight mappings may use keys outside it.
type Topic struct {
	Key  string `yaml:"key" json:"key"`
	Name string `yaml:"name" json:"name"`
}

type catalogFile struct {
	Topics []Topic `yaml:"topics"`
}

type Catalog struct {
	topics []Topic
}

var titleCaser = cases.Title(language.English)

// LoadCatalog reads the topic catalog file. A missing file yields an empty
// catalog rather than an error.
func LoadCatalog(path string) (*Catalog, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &Catalog{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read topic catalog: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse topic catalog: %w", err)
	}

	seen := make(map[string]bool, len(file.Topics))
	topics := make([]Topic, 0, len(file.Topics))
	for _, topic := range file.Topics {
		if topic.Key == "" {
			return nil, fmt.Errorf("invalid catalog %s: topic key is required", path)
		}
		if seen[topic.Key] {
			return nil, fmt.Errorf("invalid catalog %s: duplicate topic key %q", path, topic.Key)
		}
		seen[topic.Key] = true

		if topic.Name == "" {
			topic.Name = displayName(topic.Key)
		}
		topics = append(topics, topic)
	}

	return &Catalog{topics: topics}, nil
}

func (c *Catalog) Topics() []Topic {
	return c.topics
}

func (c *Catalog) Count() int {
	return len(c.topics)
}

// displayName derives a human-readable name from a dashed key, e.g.
// "machine-learning" becomes "Machine Learning".
func displayName(key string) string {
	return titleCaser.String(strings.ReplaceAll(key, "-", " "))
}
