// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classify derives hla_class, sample_origin, disease, and
// disease_category from a record's own text and structured fields.
// Conclusions pass through the record's confidence gate, so a rerun
// or a later stage can only ever raise what this stage wrote. See
// docs/ARCHITECTURE § Classification Engine.
package classify

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mxwei/hlameta/pkg/types"
)

// Stage is the provenance label for conclusions written here.
const Stage = "classify"

// Engine is the keyword classifier. Name-extraction patterns are
// compiled once at construction.
type Engine struct {
	cfg types.RulesConfig

	classI  []namedPattern
	classII []namedPattern

	cellLines []namedPattern
	organs    []namedPattern
	subtypes  []namedPattern
}

type namedPattern struct {
	name string
	re   *regexp.Regexp
}

// New builds an engine from a validated rule set.
func New(cfg types.RulesConfig) (*Engine, error) {
	e := &Engine{cfg: cfg}
	var err error
	if e.classI, err = compileNames(cfg.HLA.ClassIKeywords); err != nil {
		return nil, fmt.Errorf("class I keywords: %w", err)
	}
	if e.classII, err = compileNames(cfg.HLA.ClassIIKeywords); err != nil {
		return nil, fmt.Errorf("class II keywords: %w", err)
	}
	if e.cellLines, err = compileNames(cfg.Sample.CellLineNames); err != nil {
		return nil, fmt.Errorf("cell line names: %w", err)
	}
	if e.organs, err = compileNames(cfg.Sample.OrganNames); err != nil {
		return nil, fmt.Errorf("organ names: %w", err)
	}
	if e.subtypes, err = compileNames(cfg.Sample.BloodSubtypes); err != nil {
		return nil, fmt.Errorf("blood subtypes: %w", err)
	}
	return e, nil
}

func compileNames(names []string) ([]namedPattern, error) {
	out := make([]namedPattern, 0, len(names))
	for _, n := range names {
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(n) + `\b`)
		if err != nil {
			return nil, fmt.Errorf("name %q: %w", n, err)
		}
		out = append(out, namedPattern{name: n, re: re})
	}
	return out, nil
}

// Run classifies every record of a snapshot, returning a new snapshot.
// The identifier set is unchanged; the input is not mutated.
func (e *Engine) Run(snap types.Snapshot) types.Snapshot {
	out := snap.Clone()
	for i := range out.Records {
		e.Classify(&out.Records[i])
	}
	return out
}

// Classify derives all four fields for one record. Records that carry
// no text at all are left untouched: the absence of keywords in an
// empty string is not evidence of anything.
func (e *Engine) Classify(rec *types.DatasetRecord) {
	text := searchText(rec)
	if strings.TrimSpace(text) != "" {
		e.classifyHLA(rec, text)
		e.classifySample(rec, text)
	} else if len(rec.Structured.Tissues) > 0 {
		e.classifySample(rec, "")
	}
	e.classifyDisease(rec, text)
}

// searchText is the haystack for keyword matching: every free-text
// field plus the structured sample annotations.
func searchText(rec *types.DatasetRecord) string {
	parts := []string{rec.Text.Combined(), rec.Text.SampleProtocol}
	parts = append(parts, rec.Structured.Tissues...)
	parts = append(parts, rec.Structured.CellTypes...)
	return strings.Join(parts, " ")
}

func containsAny(text string, keywords []string) bool {
	return matchKeyword(text, keywords) != ""
}

// matchKeyword returns the first keyword contained in text,
// case-insensitively, or the empty string.
func matchKeyword(text string, keywords []string) string {
	lower := strings.ToLower(text)
	for _, k := range keywords {
		if strings.Contains(lower, strings.ToLower(k)) {
			return k
		}
	}
	return ""
}
