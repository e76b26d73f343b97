// Package rules is the L1 layer: a compiled regex rule corpus that turns
// raw text into Detection values. Rules are authored externally in YAML;
// this package only compiles and runs them.
package rules

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/raxe-ai/raxe-ce-sub006/internal/schema"
)

// Rule is one corpus entry. Confidence defaults to 1.0 when the rule
// carries no calibration.
type Rule struct {
	ID          string  `yaml:"id"`
	Family      string  `yaml:"family"`
	Severity    string  `yaml:"severity"`
	Confidence  float64 `yaml:"confidence"`
	Pattern     string  `yaml:"pattern"`
	Description string  `yaml:"description"`
}

type corpusFile struct {
	Version string `yaml:"version"`
	Rules   []Rule `yaml:"rules"`
}

type compiledRule struct {
	rule Rule
	re   *regexp.Regexp
}

// Engine matches a compiled corpus against scan text. Compiled once, then
// read-only; safe for concurrent scans.
type Engine struct {
	id      string
	version string
	rules   []compiledRule
}

// Status describes the loaded corpus.
type Status struct {
	BundleID      string `json:"bundle_id"`
	BundleVersion string `json:"bundle_version"`
	RuleCount     int    `json:"rule_count"`
}

// NewEngine compiles a rule set. Compile failures name the offending rule.
func NewEngine(version string, ruleSet []Rule) (*Engine, error) {
	if len(ruleSet) == 0 {
		return nil, fmt.Errorf("rule corpus is empty")
	}
	if version == "" {
		version = "0.0.0"
	}

	seen := make(map[string]struct{}, len(ruleSet))
	compiled := make([]compiledRule, 0, len(ruleSet))
	for _, r := range ruleSet {
		if strings.TrimSpace(r.ID) == "" {
			return nil, fmt.Errorf("rule with pattern %q missing id", r.Pattern)
		}
		if _, dup := seen[r.ID]; dup {
			return nil, fmt.Errorf("duplicate rule id %q", r.ID)
		}
		seen[r.ID] = struct{}{}
		if schema.Severity(r.Severity).Rank() < 0 {
			return nil, fmt.Errorf("rule %s has unknown severity %q", r.ID, r.Severity)
		}
		if r.Confidence == 0 {
			r.Confidence = 1.0
		}
		if r.Confidence < 0 || r.Confidence > 1 {
			return nil, fmt.Errorf("rule %s confidence %v out of [0,1]", r.ID, r.Confidence)
		}
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %s pattern: %w", r.ID, err)
		}
		compiled = append(compiled, compiledRule{rule: r, re: re})
	}
	return &Engine{
		id:      "raxe-rules",
		version: version,
		rules:   compiled,
	}, nil
}

// Load reads a YAML corpus from disk and compiles it.
func Load(path string) (*Engine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule corpus: %w", err)
	}
	var file corpusFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode rule corpus: %w", err)
	}
	return NewEngine(file.Version, file.Rules)
}

// Default compiles the built-in corpus so the engine is useful without an
// external rule file.
func Default() *Engine {
	eng, err := NewEngine(defaultCorpusVersion, defaultRules())
	if err != nil {
		// The built-in corpus is covered by tests; a compile failure
		// here is a programming error.
		panic(fmt.Sprintf("default rule corpus: %v", err))
	}
	return eng
}

// Status reports the corpus identity.
func (e *Engine) Status() Status {
	return Status{
		BundleID:      e.id,
		BundleVersion: e.version,
		RuleCount:     len(e.rules),
	}
}

// Scan runs every rule against the text. Detections carry rule metadata
// only: no matched substrings, no patterns. Results are ordered by corpus
// position so repeated scans are byte-identical.
func (e *Engine) Scan(ctx context.Context, text string) ([]schema.Detection, error) {
	var detections []schema.Detection
	for _, cr := range e.rules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !cr.re.MatchString(text) {
			continue
		}
		detections = append(detections, schema.Detection{
			RuleID:     cr.rule.ID,
			Family:     schema.Family(cr.rule.Family),
			Severity:   schema.Severity(cr.rule.Severity),
			Confidence: cr.rule.Confidence,
			Message:    cr.rule.Description,
		})
	}
	return detections, nil
}
