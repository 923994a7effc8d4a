// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rules

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mxwei/hlameta/pkg/types"
)

func TestDefaultValidates(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("built-in rules failed validation: %v", err)
	}
}

func TestValidateRejectsKeywordOverlap(t *testing.T) {
	cfg := Default()
	cfg.HLA.ClassIIKeywords = append(cfg.HLA.ClassIIKeywords, "hla-a")

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected error for overlapping class keyword sets")
	}
	if !strings.Contains(err.Error(), "overlap") {
		t.Errorf("error %q does not mention overlap", err)
	}
}

func TestValidateRejectsBadPattern(t *testing.T) {
	cfg := Default()
	cfg.Inference.Diseases = append(cfg.Inference.Diseases, types.PatternEntry{
		Value:    "broken",
		Patterns: []string{`melanoma(`},
	})

	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for unparseable pattern")
	}
}

func TestValidateRejectsUnknownCoreField(t *testing.T) {
	cfg := Default()
	cfg.Quality.CoreFields = append(cfg.Quality.CoreFields, "shoe_size")

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected error for unknown core field")
	}
	if !strings.Contains(err.Error(), "shoe_size") {
		t.Errorf("error %q does not name the bad field", err)
	}
}

func TestValidateRejectsInvertedThresholds(t *testing.T) {
	cfg := Default()
	cfg.Quality.HighThreshold = 4
	cfg.Quality.MediumThreshold = 6

	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for high threshold below medium")
	}
}

func TestValidateRejectsZeroCutoff(t *testing.T) {
	cfg := Default()
	cfg.Normalize.CardinalityCutoff = 0

	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for non-positive cardinality cutoff")
	}
}

func TestLoadPartialFileFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	content := `quality:
  core_fields: [title, diseases]
  sample_table_bonus: 1
  publication_bonus: 1
  high_threshold: 3
  medium_threshold: 2
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(cfg.Quality.CoreFields) != 2 {
		t.Errorf("core fields = %v, want the two from the file", cfg.Quality.CoreFields)
	}
	if cfg.Quality.HighThreshold != 3 {
		t.Errorf("high threshold = %d, want 3", cfg.Quality.HighThreshold)
	}
	if len(cfg.HLA.ClassIKeywords) == 0 {
		t.Error("hla rules not filled from defaults")
	}
	if cfg.Normalize.CardinalityCutoff != 10 {
		t.Errorf("cardinality cutoff = %d, want default 10", cfg.Normalize.CardinalityCutoff)
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	content := `quality:
  core_fields: [title, nonsense_field]
  high_threshold: 8
  medium_threshold: 5
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for unknown core field")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing rules file")
	}
}
