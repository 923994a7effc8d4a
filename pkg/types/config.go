// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// HLARules configures the HLA-class classifier. The class I and
// class II keyword sets must be disjoint; overlap is a configuration
// error that aborts pipeline construction. Class keywords are matched
// word-bounded, so "class I" does not fire inside "class II"; the
// general set matches by plain substring to allow stems like
// "immunopeptid".
type HLARules struct {
	// ClassIKeywords mark HLA/MHC class I studies (e.g. "HLA-A", "MHC I").
	ClassIKeywords []string `json:"class_i_keywords" yaml:"class_i_keywords"`

	// ClassIIKeywords mark HLA/MHC class II studies (e.g. "HLA-DR").
	ClassIIKeywords []string `json:"class_ii_keywords" yaml:"class_ii_keywords"`

	// GeneralKeywords mark immunopeptidomics relevance without naming a
	// class (e.g. "antigen presentation"). A general-only hit yields a
	// needs-review classification.
	GeneralKeywords []string `json:"general_keywords" yaml:"general_keywords"`
}

// SampleRules configures the sample-origin classifier. Rule groups are
// evaluated in fixed priority order: cell line, then blood derivative,
// then solid tissue. A cell-line mention is the most specific signal
// and must not be shadowed by a co-occurring tissue word.
type SampleRules struct {
	// CellLineKeywords mark cultured-cell studies.
	CellLineKeywords []string `json:"cell_line_keywords" yaml:"cell_line_keywords"`

	// CellLineNames are the specific line names worth extracting
	// (e.g. "HeLa", "THP-1"). Matching is word-bounded, case-insensitive.
	CellLineNames []string `json:"cell_line_names" yaml:"cell_line_names"`

	// BloodKeywords mark blood-derived samples.
	BloodKeywords []string `json:"blood_keywords" yaml:"blood_keywords"`

	// BloodSubtypes are the extractable blood derivatives, checked in
	// order (e.g. "pbmc", "plasma", "serum").
	BloodSubtypes []string `json:"blood_subtypes" yaml:"blood_subtypes"`

	// TissueKeywords mark solid-tissue samples.
	TissueKeywords []string `json:"tissue_keywords" yaml:"tissue_keywords"`

	// OrganNames are the extractable organ or tumor qualifiers.
	OrganNames []string `json:"organ_names" yaml:"organ_names"`
}

// CategoryRule maps one disease category to its keyword set. Rules are
// checked in list order; the first hit wins.
type CategoryRule struct {
	Name     string   `json:"name" yaml:"name"`
	Keywords []string `json:"keywords" yaml:"keywords"`
}

// DiseaseRules configures the health-status classifier and the disease
// category keyword sets.
type DiseaseRules struct {
	// HealthyKeywords short-circuit classification to the healthy
	// category regardless of other signals.
	HealthyKeywords []string `json:"healthy_keywords" yaml:"healthy_keywords"`

	// Categories is the ordered category keyword table.
	Categories []CategoryRule `json:"categories" yaml:"categories"`
}

// PatternEntry maps one canonical value to the text patterns that
// imply it. Patterns are regular expressions, compiled case-insensitive
// and word-boundary-anchored so a pattern for "MS" cannot match inside
// "disease".
type PatternEntry struct {
	Value    string   `json:"value" yaml:"value"`
	Patterns []string `json:"patterns" yaml:"patterns"`
}

// InferenceRules configures the pattern-library inference engine.
type InferenceRules struct {
	// Diseases is the ordered pattern library for disease inference.
	Diseases []PatternEntry `json:"diseases" yaml:"diseases"`

	// HealthyPatterns recognize explicit healthy/control language.
	HealthyPatterns []string `json:"healthy_patterns" yaml:"healthy_patterns"`

	// MethodPatterns recognize methodological-study language. A record
	// matching at least MethodMinMatches distinct patterns is assigned
	// the methodological category instead of a disease.
	MethodPatterns []string `json:"method_patterns" yaml:"method_patterns"`

	// MethodMinMatches is the distinct-pattern threshold for the
	// methodological rule (default 2).
	MethodMinMatches int `json:"method_min_matches" yaml:"method_min_matches"`
}

// NormalizeRules configures the source normalizer.
type NormalizeRules struct {
	// CardinalityCutoff is the distinct-value threshold above which a
	// sample-table column is summarized by count instead of enumerated
	// (default 10).
	CardinalityCutoff int `json:"cardinality_cutoff" yaml:"cardinality_cutoff"`

	// Separator joins multi-valued fields in normalized records
	// (default "; ").
	Separator string `json:"separator" yaml:"separator"`
}

// QualityRules configures the quality scorer. Thresholds vary by
// deployment, so none of this is hardcoded in the engine.
type QualityRules struct {
	// CoreFields lists the record fields that each contribute one point
	// when non-empty. Unknown names are a configuration error.
	CoreFields []string `json:"core_fields" yaml:"core_fields"`

	// SampleTableBonus is added when detailed sample-relationship data
	// is present.
	SampleTableBonus int `json:"sample_table_bonus" yaml:"sample_table_bonus"`

	// PublicationBonus is added when a publication identifier is present.
	PublicationBonus int `json:"publication_bonus" yaml:"publication_bonus"`

	// HighThreshold and MediumThreshold bound the tiers:
	// score >= HighThreshold is High, score >= MediumThreshold is
	// Medium, anything below is Low.
	HighThreshold   int `json:"high_threshold" yaml:"high_threshold"`
	MediumThreshold int `json:"medium_threshold" yaml:"medium_threshold"`
}

// RulesConfig groups every externally supplied rule table consumed by
// the pipeline. Engines receive the parsed config at construction and
// hold no other state, which keeps them pure and testable in isolation.
type RulesConfig struct {
	HLA       HLARules       `json:"hla" yaml:"hla"`
	Sample    SampleRules    `json:"sample" yaml:"sample"`
	Disease   DiseaseRules   `json:"disease" yaml:"disease"`
	Inference InferenceRules `json:"inference" yaml:"inference"`
	Normalize NormalizeRules `json:"normalize" yaml:"normalize"`
	Quality   QualityRules   `json:"quality" yaml:"quality"`
}
