// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report aggregates a snapshot into the coverage summary
// curators read after a run: how many datasets, how settled each
// derived field is, and where the review backlog sits. See
// docs/ARCHITECTURE § Reporting.
package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"go.yaml.in/yaml/v3"

	"github.com/mxwei/hlameta/pkg/types"
)

// FieldCoverage counts one derived field's confidence tags across a
// snapshot.
type FieldCoverage struct {
	Unknown     int `json:"unknown" yaml:"unknown"`
	NeedsReview int `json:"needs_review" yaml:"needs_review"`
	Inferred    int `json:"inferred" yaml:"inferred"`
	Confirmed   int `json:"confirmed" yaml:"confirmed"`
}

// Resolved is the number of records with a usable value.
func (c FieldCoverage) Resolved() int {
	return c.Inferred + c.Confirmed
}

// Summary is the aggregate view of one snapshot.
type Summary struct {
	Total      int                           `json:"total" yaml:"total"`
	BySource   map[string]int                `json:"by_source" yaml:"by_source"`
	ByTier     map[string]int                `json:"by_tier" yaml:"by_tier"`
	ByFlag     map[string]int                `json:"by_flag,omitempty" yaml:"by_flag,omitempty"`
	Coverage   map[types.Field]FieldCoverage `json:"coverage" yaml:"coverage"`
	ByClass    map[string]int                `json:"by_hla_class,omitempty" yaml:"by_hla_class,omitempty"`
	ByCategory map[string]int                `json:"by_disease_category,omitempty" yaml:"by_disease_category,omitempty"`
}

// Build aggregates a snapshot.
func Build(snap types.Snapshot) Summary {
	s := Summary{
		Total:      len(snap.Records),
		BySource:   make(map[string]int),
		ByTier:     make(map[string]int),
		ByFlag:     make(map[string]int),
		Coverage:   make(map[types.Field]FieldCoverage),
		ByClass:    make(map[string]int),
		ByCategory: make(map[string]int),
	}
	for _, rec := range snap.Records {
		s.BySource[string(rec.Source)]++
		if rec.Quality.Tier != "" {
			s.ByTier[string(rec.Quality.Tier)]++
		}
		for _, f := range rec.Flags {
			s.ByFlag[string(f)]++
		}
		for _, f := range types.DerivedFieldOrder {
			v := rec.Derived(f)
			cov := s.Coverage[f]
			switch v.Confidence {
			case types.ConfidenceNeedsReview:
				cov.NeedsReview++
			case types.ConfidenceInferred:
				cov.Inferred++
			case types.ConfidenceConfirmed:
				cov.Confirmed++
			default:
				cov.Unknown++
			}
			s.Coverage[f] = cov
		}
		if v := rec.Derived(types.FieldHLAClass); v.Resolved() {
			s.ByClass[v.Value]++
		}
		if v := rec.Derived(types.FieldDiseaseCategory); v.Resolved() {
			s.ByCategory[v.Value]++
		}
	}
	return s
}

// Render writes the summary as tables for terminal output.
func Render(w io.Writer, s Summary) {
	fmt.Fprintf(w, "datasets: %d\n\n", s.Total)

	fmt.Fprintln(w, renderCounts("source", s.BySource))
	fmt.Fprintln(w, renderCoverage(s.Coverage))
	if len(s.ByTier) > 0 {
		fmt.Fprintln(w, renderCounts("quality tier", s.ByTier))
	}
	if len(s.ByClass) > 0 {
		fmt.Fprintln(w, renderCounts("hla class", s.ByClass))
	}
	if len(s.ByCategory) > 0 {
		fmt.Fprintln(w, renderCounts("disease category", s.ByCategory))
	}
	if len(s.ByFlag) > 0 {
		fmt.Fprintln(w, renderCounts("flag", s.ByFlag))
	}
}

// WriteYAML writes the summary in machine-readable form.
func WriteYAML(w io.Writer, s Summary) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return enc.Close()
}

func renderCounts(label string, counts map[string]int) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{label, "count"})

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		tw.AppendRow(table.Row{k, counts[k]})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

func renderCoverage(cov map[types.Field]FieldCoverage) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"field", "confirmed", "inferred", "needs review", "unknown"})

	for _, f := range types.DerivedFieldOrder {
		c := cov[f]
		tw.AppendRow(table.Row{string(f), c.Confirmed, c.Inferred, c.NeedsReview, c.Unknown})
	}
	configs := make([]table.ColumnConfig, 0, 4)
	for i := 2; i <= 5; i++ {
		configs = append(configs, table.ColumnConfig{
			Number: i, Align: text.AlignRight, AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}
