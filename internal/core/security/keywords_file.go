package security

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type keywordFile struct {
	Keywords []string `yaml:"keywords"`
}

// LoadKeywordFile reads a YAML document of the form
//
//	keywords:
//	  - diskpart
//	  - killall
func LoadKeywordFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading keywords file %s: %w", path, err)
	}
	return ParseKeywords(data)
}

// ParseKeywords parses the keyword YAML document.
func ParseKeywords(data []byte) ([]string, error) {
	var f keywordFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing keywords: %w", err)
	}
	return f.Keywords, nil
}
