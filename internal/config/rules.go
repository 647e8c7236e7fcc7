package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mfortin/tax-intake/internal/core/checklist"
	"github.com/mfortin/tax-intake/internal/core/classify"
)

// Rules is the immutable intake configuration: which documents each client
// complexity tier owes, and how raw text maps to document kinds. Loaded once
// at startup and injected into the checklist engine and classifier.
type Rules struct {
	Checklists checklist.Templates `yaml:"checklists"`
	Keywords   classify.Keywords   `yaml:"keywords"`
}

func DefaultRules() Rules {
	return Rules{
		Checklists: checklist.DefaultTemplates(),
		Keywords:   classify.DefaultKeywords(),
	}
}

// LoadRules reads rules from a YAML file, falling back to the defaults for
// anything the file leaves out. An empty path returns the defaults.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read rules file: %w", err)
	}

	var fileRules Rules
	if err := yaml.Unmarshal(raw, &fileRules); err != nil {
		return Rules{}, fmt.Errorf("parse rules file: %w", err)
	}

	if len(fileRules.Checklists) > 0 {
		rules.Checklists = fileRules.Checklists
	}
	if len(fileRules.Keywords.Receipt) > 0 {
		rules.Keywords.Receipt = fileRules.Keywords.Receipt
	}
	if len(fileRules.Keywords.T4) > 0 {
		rules.Keywords.T4 = fileRules.Keywords.T4
	}
	if len(fileRules.Keywords.ID) > 0 {
		rules.Keywords.ID = fileRules.Keywords.ID
	}

	if err := rules.Checklists.Validate(); err != nil {
		return Rules{}, err
	}
	return rules, nil
}
