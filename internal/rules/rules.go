// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rules loads and validates the externally supplied rule
// tables: keyword sets, the inference pattern library, and quality
// thresholds. A broken rule set aborts pipeline construction before
// any record is processed. See docs/ARCHITECTURE § Configuration.
package rules

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/mxwei/hlameta/pkg/types"
)

// Default returns the built-in rule set. It covers the HLA
// immunopeptidomics domain the pipeline was built for; deployments
// extend or replace it through a rules file without touching the
// engines.
func Default() types.RulesConfig {
	return types.RulesConfig{
		HLA: types.HLARules{
			ClassIKeywords: []string{
				"HLA I", "HLA-I", "HLA class I", "HLA-class I",
				"MHC I", "MHC-I", "MHC class I", "MHC-class I",
				"HLA-A", "HLA-B", "HLA-C",
				"class I MHC", "class I HLA", "class I",
			},
			ClassIIKeywords: []string{
				"HLA II", "HLA-II", "HLA class II", "HLA-class II",
				"MHC II", "MHC-II", "MHC class II", "MHC-class II",
				"HLA-DR", "HLA-DQ", "HLA-DP",
				"class II MHC", "class II HLA", "class II",
			},
			GeneralKeywords: []string{
				"HLA", "MHC", "immunopeptid", "immuno-peptid",
				"antigen presentation", "antigen presenting",
				"peptide presentation", "immunoaffinity",
				"immunoprecipitation",
			},
		},
		Sample: types.SampleRules{
			CellLineKeywords: []string{
				"cell line", "cell-line", "cellline",
				"cultured cell", "culture", "in vitro",
			},
			CellLineNames: []string{
				"HeLa", "HEK293", "Jurkat", "K562", "MCF-7", "MCF7",
				"A549", "U2OS", "THP-1", "C1R", "JY",
			},
			BloodKeywords: []string{
				"blood", "serum", "plasma", "pbmc", "peripheral blood",
				"leukocyte", "lymphocyte", "monocyte",
			},
			BloodSubtypes: []string{"pbmc", "plasma", "serum", "whole blood"},
			TissueKeywords: []string{
				"tissue", "biopsy", "tumor", "tumour", "cancer",
				"carcinoma", "adenocarcinoma", "melanoma",
				"liver", "kidney", "lung", "brain", "heart",
				"breast", "ovary", "prostate", "colon",
				"muscle", "skin", "bone", "spleen",
			},
			OrganNames: []string{
				"tumor", "tumour", "liver", "kidney", "lung", "brain",
				"heart", "breast", "ovary", "prostate", "colon",
				"spleen", "skin", "melanoma",
			},
		},
		Disease: types.DiseaseRules{
			HealthyKeywords: []string{
				"healthy", "normal", "control", "disease-free", "disease free",
				"non-disease", "wild type", "wild-type",
			},
			Categories: []types.CategoryRule{
				{Name: "cancer", Keywords: []string{
					"melanoma", "leukemia", "leukaemia", "lymphoma", "sarcoma",
					"glioblastoma", "neuroblastoma", "adenocarcinoma",
					"carcinoma", "cancer", "tumor", "tumour", "malignant",
					"neoplasm", "oncology",
				}},
				{Name: "neurodegenerative", Keywords: []string{
					"alzheimer", "parkinson", "dementia", "neurodegenerative",
					"multiple sclerosis", "huntington",
				}},
				{Name: "infectious", Keywords: []string{
					"covid", "sars", "influenza", "hiv", "virus", "viral",
					"bacterial", "infection", "pathogen", "tuberculosis",
					"hepatitis",
				}},
				{Name: "autoimmune", Keywords: []string{
					"rheumatoid", "lupus", "arthritis", "spondylitis",
					"autoimmune", "behcet",
				}},
				{Name: "metabolic", Keywords: []string{
					"diabetes", "fibrosis", "metabolic",
				}},
			},
		},
		Inference: types.InferenceRules{
			Diseases: []types.PatternEntry{
				{Value: "melanoma", Patterns: []string{`melanoma`, `melanomat\w*`}},
				{Value: "breast cancer", Patterns: []string{`breast cancer`, `breast carcinoma`, `breast tumor`}},
				{Value: "lung cancer", Patterns: []string{`lung cancer`, `lung carcinoma`, `lung tumor`, `NSCLC`, `SCLC`}},
				{Value: "colorectal cancer", Patterns: []string{`colon cancer`, `colorectal`, `colon carcinoma`}},
				{Value: "ovarian cancer", Patterns: []string{`ovarian cancer`, `ovarian carcinoma`, `ovary cancer`}},
				{Value: "prostate cancer", Patterns: []string{`prostate cancer`, `prostate carcinoma`}},
				{Value: "pancreatic cancer", Patterns: []string{`pancreatic cancer`, `pancreatic carcinoma`}},
				{Value: "glioblastoma", Patterns: []string{`glioblastoma`, `GBM`, `brain tumor`}},
				{Value: "leukemia", Patterns: []string{`leukemia`, `leukaemia`, `AML`, `CML`, `CLL`}},
				{Value: "lymphoma", Patterns: []string{`lymphoma`}},
				{Value: "hepatocellular carcinoma", Patterns: []string{`hepatocellular carcinoma`, `HCC`, `liver cancer`}},
				{Value: "covid-19", Patterns: []string{`COVID`, `SARS-CoV-2`, `coronavirus`}},
				{Value: "influenza", Patterns: []string{`influenza`, `flu`}},
				{Value: "tuberculosis", Patterns: []string{`tuberculosis`, `TB`, `BCG`, `Mycobacterium tuberculosis`}},
				{Value: "hiv", Patterns: []string{`HIV`, `human immunodeficiency virus`, `AIDS`}},
				{Value: "hepatitis", Patterns: []string{`hepatitis`, `HBV`, `HCV`}},
				{Value: "alzheimer disease", Patterns: []string{`Alzheimer`}},
				{Value: "parkinson disease", Patterns: []string{`Parkinson`}},
				{Value: "multiple sclerosis", Patterns: []string{`multiple sclerosis`}},
				{Value: "rheumatoid arthritis", Patterns: []string{`rheumatoid arthritis`, `RA`}},
				{Value: "lupus", Patterns: []string{`lupus`, `SLE`}},
				{Value: "diabetes", Patterns: []string{`diabetes`, `T1D`, `T2D`}},
				{Value: "behcet disease", Patterns: []string{`Behçet`, `Behcet`}},
				{Value: "ankylosing spondylitis", Patterns: []string{`ankylosing spondylitis`}},
				{Value: "sarcoidosis", Patterns: []string{`sarcoidosis`}},
			},
			HealthyPatterns: []string{
				`healthy`, `normal`, `control`, `healthy control`,
				`healthy donor`, `non-disease`, `disease-free`,
			},
			MethodPatterns: []string{
				`methodology`, `method development`, `pipeline`,
				`algorithm`, `computational`, `in silico`,
				`prediction`, `benchmark`, `validation`,
			},
			MethodMinMatches: 2,
		},
		Normalize: types.NormalizeRules{
			CardinalityCutoff: 10,
			Separator:         "; ",
		},
		Quality: types.QualityRules{
			CoreFields: []string{
				"title", "description", "diseases", "tissues",
				"organisms", "instruments", "publication_date",
			},
			SampleTableBonus: 2,
			PublicationBonus: 1,
			HighThreshold:    8,
			MediumThreshold:  5,
		},
	}
}

// Load reads a rules file in YAML form. Sections left empty in the
// file fall back to the built-in defaults, so a deployment can override
// just the tables it cares about. The result is validated.
func Load(path string) (types.RulesConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.RulesConfig{}, fmt.Errorf("reading rules file %s: %w", path, err)
	}

	var cfg types.RulesConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return types.RulesConfig{}, fmt.Errorf("parsing rules file %s: %w", path, err)
	}

	cfg = withDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return types.RulesConfig{}, fmt.Errorf("rules file %s: %w", path, err)
	}
	return cfg, nil
}

// withDefaults fills empty sections from the built-in rule set.
func withDefaults(cfg types.RulesConfig) types.RulesConfig {
	def := Default()
	if len(cfg.HLA.ClassIKeywords) == 0 && len(cfg.HLA.ClassIIKeywords) == 0 && len(cfg.HLA.GeneralKeywords) == 0 {
		cfg.HLA = def.HLA
	}
	if len(cfg.Sample.CellLineKeywords) == 0 && len(cfg.Sample.BloodKeywords) == 0 && len(cfg.Sample.TissueKeywords) == 0 {
		cfg.Sample = def.Sample
	}
	if len(cfg.Disease.HealthyKeywords) == 0 && len(cfg.Disease.Categories) == 0 {
		cfg.Disease = def.Disease
	}
	if len(cfg.Inference.Diseases) == 0 && len(cfg.Inference.MethodPatterns) == 0 {
		cfg.Inference = def.Inference
	}
	if cfg.Inference.MethodMinMatches == 0 {
		cfg.Inference.MethodMinMatches = def.Inference.MethodMinMatches
	}
	if cfg.Normalize.CardinalityCutoff == 0 {
		cfg.Normalize.CardinalityCutoff = def.Normalize.CardinalityCutoff
	}
	if cfg.Normalize.Separator == "" {
		cfg.Normalize.Separator = def.Normalize.Separator
	}
	if len(cfg.Quality.CoreFields) == 0 {
		cfg.Quality = def.Quality
	}
	return cfg
}

// Validate checks a rule configuration for the errors that indicate a
// broken rule set rather than a data issue: overlapping HLA keyword
// sets, invalid pattern syntax, unknown core fields, and inverted
// thresholds. Any of these is fatal at startup.
func Validate(cfg types.RulesConfig) error {
	if overlap := keywordOverlap(cfg.HLA.ClassIKeywords, cfg.HLA.ClassIIKeywords); len(overlap) > 0 {
		return fmt.Errorf("hla class I and class II keyword sets overlap: %s", strings.Join(overlap, ", "))
	}

	for _, entry := range cfg.Inference.Diseases {
		if entry.Value == "" {
			return fmt.Errorf("inference pattern entry with empty canonical value")
		}
		for _, p := range entry.Patterns {
			if _, err := regexp.Compile(`(?i)\b(?:` + p + `)\b`); err != nil {
				return fmt.Errorf("pattern %q for %q: %w", p, entry.Value, err)
			}
		}
	}
	for _, p := range cfg.Inference.HealthyPatterns {
		if _, err := regexp.Compile(`(?i)\b(?:` + p + `)\b`); err != nil {
			return fmt.Errorf("healthy pattern %q: %w", p, err)
		}
	}
	for _, p := range cfg.Inference.MethodPatterns {
		if _, err := regexp.Compile(`(?i)\b(?:` + p + `)\b`); err != nil {
			return fmt.Errorf("method pattern %q: %w", p, err)
		}
	}
	if cfg.Inference.MethodMinMatches < 1 {
		return fmt.Errorf("method_min_matches must be at least 1, got %d", cfg.Inference.MethodMinMatches)
	}

	if cfg.Normalize.CardinalityCutoff < 1 {
		return fmt.Errorf("cardinality_cutoff must be positive, got %d", cfg.Normalize.CardinalityCutoff)
	}

	for _, f := range cfg.Quality.CoreFields {
		if !knownCoreField(f) {
			return fmt.Errorf("unknown quality core field %q", f)
		}
	}
	if cfg.Quality.HighThreshold <= cfg.Quality.MediumThreshold {
		return fmt.Errorf("high_threshold (%d) must exceed medium_threshold (%d)",
			cfg.Quality.HighThreshold, cfg.Quality.MediumThreshold)
	}
	if cfg.Quality.MediumThreshold < 1 {
		return fmt.Errorf("medium_threshold must be positive, got %d", cfg.Quality.MediumThreshold)
	}

	return nil
}

// coreFieldNames is the set of record fields the quality scorer can
// count. Kept here so a typo in a rules file fails at startup, not at
// scoring time.
var coreFieldNames = map[string]bool{
	"title":            true,
	"description":      true,
	"keywords":         true,
	"organisms":        true,
	"tissues":          true,
	"cell_types":       true,
	"diseases":         true,
	"instruments":      true,
	"modifications":    true,
	"publication_date": true,
	"sample_protocol":  true,
}

func knownCoreField(name string) bool {
	return coreFieldNames[name]
}

// keywordOverlap returns the case-insensitive intersection of two
// keyword lists.
func keywordOverlap(a, b []string) []string {
	seen := make(map[string]bool, len(a))
	for _, k := range a {
		seen[strings.ToLower(k)] = true
	}
	var overlap []string
	for _, k := range b {
		if seen[strings.ToLower(k)] {
			overlap = append(overlap, k)
		}
	}
	return overlap
}
