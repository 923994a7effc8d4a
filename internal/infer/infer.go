// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package infer fills disease fields the classifier could not settle,
// by matching a curated pattern library against the record's free
// text. Everything written here carries the inferred tag, one step
// below confirmed, so a later authoritative source can still replace
// it. See docs/ARCHITECTURE § Inference Engine.
package infer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mxwei/hlameta/internal/classify"
	"github.com/mxwei/hlameta/pkg/types"
)

// Stage is the provenance label for conclusions written here.
const Stage = "infer"

// Methodological datasets study the measurement, not a disease.
const (
	MethodDisease  = "method_development"
	MethodCategory = "methodological"
)

// Engine matches the disease pattern library against record text.
type Engine struct {
	cfg        types.InferenceRules
	categories *classify.Engine

	diseases []diseasePatterns
	healthy  []*regexp.Regexp
	methods  []*regexp.Regexp
}

type diseasePatterns struct {
	value string
	res   []*regexp.Regexp
}

// Stats counts what one inference pass did, by text source. Reported
// after a run so curators know where the remaining gaps are.
type Stats struct {
	Examined        int `json:"examined" yaml:"examined"`
	FromTitle       int `json:"from_title" yaml:"from_title"`
	FromDescription int `json:"from_description" yaml:"from_description"`
	FromTissue      int `json:"from_tissue" yaml:"from_tissue"`
	Methodological  int `json:"methodological" yaml:"methodological"`
	Healthy         int `json:"healthy" yaml:"healthy"`
	Unresolved      int `json:"unresolved" yaml:"unresolved"`
}

// Resolved is the number of records this pass settled.
func (s Stats) Resolved() int {
	return s.Examined - s.Unresolved
}

// New compiles the pattern library. Every pattern is wrapped in a
// case-insensitive word boundary, so `MS` matches the abbreviation but
// not `MS/MS` fragments inside longer tokens.
func New(cfg types.RulesConfig) (*Engine, error) {
	cat, err := classify.New(cfg)
	if err != nil {
		return nil, err
	}
	e := &Engine{cfg: cfg.Inference, categories: cat}
	for _, entry := range cfg.Inference.Diseases {
		dp := diseasePatterns{value: entry.Value}
		for _, p := range entry.Patterns {
			re, err := compilePattern(p)
			if err != nil {
				return nil, fmt.Errorf("disease %q: %w", entry.Value, err)
			}
			dp.res = append(dp.res, re)
		}
		e.diseases = append(e.diseases, dp)
	}
	if e.healthy, err = compileAll(cfg.Inference.HealthyPatterns); err != nil {
		return nil, err
	}
	if e.methods, err = compileAll(cfg.Inference.MethodPatterns); err != nil {
		return nil, err
	}
	return e, nil
}

func compilePattern(p string) (*regexp.Regexp, error) {
	return regexp.Compile(`(?i)\b(?:` + p + `)\b`)
}

func compileAll(pats []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(pats))
	for _, p := range pats {
		re, err := compilePattern(p)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// Run applies inference to every record whose disease is still
// unknown, returning a new snapshot and the pass statistics.
func (e *Engine) Run(snap types.Snapshot) (types.Snapshot, Stats) {
	out := snap.Clone()
	var stats Stats
	for i := range out.Records {
		e.Infer(&out.Records[i], &stats)
	}
	return out, stats
}

// Infer fills one record's disease from its text, trying the title,
// then the description, then the tissue annotations. Records whose
// disease the classifier already settled are skipped untouched.
func (e *Engine) Infer(rec *types.DatasetRecord, stats *Stats) {
	if rec.Derived(types.FieldDisease).Confidence != types.ConfidenceUnknown {
		return
	}
	stats.Examined++

	sources := []struct {
		name    string
		text    string
		counter *int
	}{
		{"title", rec.Text.Title, &stats.FromTitle},
		{"description", rec.Text.Description, &stats.FromDescription},
		{"tissue", tissueText(rec), &stats.FromTissue},
	}
	for _, src := range sources {
		if strings.TrimSpace(src.text) == "" {
			continue
		}
		if e.inferFromText(rec, src.name, src.text, stats) {
			*src.counter++
			return
		}
	}
	stats.Unresolved++
}

// inferFromText matches one text source in precedence order: healthy
// phrasing, then method-study phrasing, then the disease library.
func (e *Engine) inferFromText(rec *types.DatasetRecord, source, text string, stats *Stats) bool {
	if matchesAny(text, e.healthy) {
		rec.SetDerived(types.FieldDisease, classify.HealthyDisease, types.ConfidenceInferred, Stage, source+"-healthy")
		rec.SetDerived(types.FieldDiseaseCategory, classify.HealthyCategory, types.ConfidenceInferred, Stage, source+"-healthy")
		stats.Healthy++
		return true
	}
	if countMatches(text, e.methods) >= e.cfg.MethodMinMatches {
		rec.SetDerived(types.FieldDisease, MethodDisease, types.ConfidenceInferred, Stage, source+"-method")
		rec.SetDerived(types.FieldDiseaseCategory, MethodCategory, types.ConfidenceInferred, Stage, source+"-method")
		stats.Methodological++
		return true
	}
	for _, dp := range e.diseases {
		if matchesAny(text, dp.res) {
			rec.SetDerived(types.FieldDisease, dp.value, types.ConfidenceInferred, Stage, source+"-pattern")
			rec.SetDerived(types.FieldDiseaseCategory, e.categories.CategoryFor(dp.value), types.ConfidenceInferred, Stage, source+"-pattern")
			return true
		}
	}
	return false
}

func tissueText(rec *types.DatasetRecord) string {
	parts := append([]string(nil), rec.Structured.Tissues...)
	for _, k := range []string{"disease", "organism part", "cell type"} {
		if v, ok := rec.Structured.SampleDetails[k]; ok {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

func matchesAny(text string, res []*regexp.Regexp) bool {
	for _, re := range res {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func countMatches(text string, res []*regexp.Regexp) int {
	n := 0
	for _, re := range res {
		if re.MatchString(text) {
			n++
		}
	}
	return n
}
