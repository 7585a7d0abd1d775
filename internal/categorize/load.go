package categorize

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrInvalidRules = errors.New("invalid category rules")

// LoadRules reads a YAML rules document of the form
//
//	income:
//	  - pattern: ACME LTD
//	    category: Salary
//	expenditure:
//	  - pattern: TESCO
//	    category: Groceries
//
// Order is preserved. Rules with an empty pattern or category are rejected.
func LoadRules(r io.Reader) (RuleSet, error) {
	var set RuleSet
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&set); err != nil && !errors.Is(err, io.EOF) {
		return RuleSet{}, fmt.Errorf("%w: %w", ErrInvalidRules, err)
	}
	if err := set.Validate(); err != nil {
		return RuleSet{}, err
	}
	return set, nil
}

// LoadRulesFile is LoadRules over a file on disk.
func LoadRulesFile(path string) (RuleSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return RuleSet{}, fmt.Errorf("open rules file: %w", err)
	}
	defer f.Close()
	return LoadRules(f)
}

func (s RuleSet) Validate() error {
	var problems []string
	check := func(kind string, rules []Rule) {
		for i, r := range rules {
			if strings.TrimSpace(r.Pattern) == "" {
				problems = append(problems, fmt.Sprintf("%s rule %d has an empty pattern", kind, i+1))
			}
			if strings.TrimSpace(r.Category) == "" {
				problems = append(problems, fmt.Sprintf("%s rule %d has an empty category", kind, i+1))
			}
		}
	}
	check("income", s.Income)
	check("expenditure", s.Expenditure)
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidRules, strings.Join(problems, "; "))
	}
	return nil
}
