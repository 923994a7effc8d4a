// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package reconcile merges a secondary authority's annotations into
// the primary snapshot. The merge is conservative: agreement is
// recorded, gaps are filled at inferred confidence, and disagreement
// with a resolved primary value is flagged rather than resolved. See
// docs/ARCHITECTURE § Cross-Source Reconciler.
package reconcile

import (
	"fmt"
	"strings"

	"github.com/mxwei/hlameta/internal/classify"
	"github.com/mxwei/hlameta/pkg/types"
)

// Stage is the provenance label for conclusions written here.
const Stage = "reconcile"

// SecondaryRecord is one dataset's annotations from the secondary
// authority, already keyed by the shared dataset identifier.
type SecondaryRecord struct {
	ID         string                 `json:"id" yaml:"id"`
	Fields     map[types.Field]string `json:"fields" yaml:"fields"`
	HLAAlleles []string               `json:"hla_alleles,omitempty" yaml:"hla_alleles,omitempty"`
}

// Conflict is one disagreement between a resolved primary value and
// the secondary authority.
type Conflict struct {
	ID        string      `json:"id" yaml:"id"`
	Field     types.Field `json:"field" yaml:"field"`
	Primary   string      `json:"primary" yaml:"primary"`
	Secondary string      `json:"secondary" yaml:"secondary"`
}

// Report summarizes one reconciliation pass.
type Report struct {
	Matched         int                 `json:"matched" yaml:"matched"`
	Agreements      int                 `json:"agreements" yaml:"agreements"`
	Conflicts       int                 `json:"conflicts" yaml:"conflicts"`
	Upgraded        int                 `json:"upgraded" yaml:"upgraded"`
	UpgradedByField map[types.Field]int `json:"upgraded_by_field" yaml:"upgraded_by_field"`
	ConflictDetails []Conflict          `json:"conflict_details,omitempty" yaml:"conflict_details,omitempty"`
}

// Engine applies secondary annotations to primary records.
type Engine struct {
	categories *classify.Engine
}

// New builds a reconciler. The rule set is needed to re-derive the
// disease category when the secondary authority supplies a disease.
func New(cfg types.RulesConfig) (*Engine, error) {
	cat, err := classify.New(cfg)
	if err != nil {
		return nil, err
	}
	return &Engine{categories: cat}, nil
}

// Run reconciles a snapshot against the secondary records, returning a
// new snapshot and the pass report. Records without a secondary match
// pass through untouched, and the identifier set never changes.
func (e *Engine) Run(snap types.Snapshot, secondary []SecondaryRecord) (types.Snapshot, Report) {
	byID := make(map[string]SecondaryRecord, len(secondary))
	for _, s := range secondary {
		byID[s.ID] = s
	}

	out := snap.Clone()
	report := Report{UpgradedByField: make(map[types.Field]int)}
	for i := range out.Records {
		sec, ok := byID[out.Records[i].ID]
		if !ok {
			continue
		}
		report.Matched++
		e.reconcileRecord(&out.Records[i], sec, &report)
	}
	return out, report
}

func (e *Engine) reconcileRecord(rec *types.DatasetRecord, sec SecondaryRecord, report *Report) {
	for _, f := range types.DerivedFieldOrder {
		secVal, ok := sec.Fields[f]
		if !ok || strings.TrimSpace(secVal) == "" {
			continue
		}
		cur := rec.Derived(f)
		switch {
		case cur.Resolved() && equalValues(cur.Value, secVal):
			report.Agreements++
		case cur.Resolved():
			// Keep the primary value. Disagreement is for a curator.
			report.Conflicts++
			report.ConflictDetails = append(report.ConflictDetails, Conflict{
				ID: rec.ID, Field: f, Primary: cur.Value, Secondary: secVal,
			})
			rec.Flags.Add(types.FlagConflict)
		default:
			if rec.SetDerived(f, secVal, types.ConfidenceInferred, Stage, "secondary-fill") {
				report.Upgraded++
				report.UpgradedByField[f]++
				rec.Flags.Add(types.FlagCrossValidated)
				if f == types.FieldDisease {
					e.fillCategory(rec, secVal, report)
				}
			}
		}
	}

	e.applyAlleles(rec, sec, report)
}

// fillCategory re-derives disease_category for a disease the secondary
// authority supplied, unless the category is already resolved.
func (e *Engine) fillCategory(rec *types.DatasetRecord, disease string, report *Report) {
	if rec.Derived(types.FieldDiseaseCategory).Resolved() {
		return
	}
	cat := e.categories.CategoryFor(disease)
	if rec.SetDerived(types.FieldDiseaseCategory, cat, types.ConfidenceInferred, Stage, "secondary-fill") {
		report.Upgraded++
		report.UpgradedByField[types.FieldDiseaseCategory]++
	}
}

// applyAlleles copies the secondary allele list into a record that has
// none, and derives the HLA class from the typed loci when the class
// is still unsettled.
func (e *Engine) applyAlleles(rec *types.DatasetRecord, sec SecondaryRecord, report *Report) {
	if len(sec.HLAAlleles) == 0 {
		return
	}
	if len(rec.Structured.HLAAlleles) == 0 {
		rec.Structured.HLAAlleles = append([]string(nil), sec.HLAAlleles...)
	}
	class := classify.ClassFromAlleles(sec.HLAAlleles)
	if class == "" {
		return
	}
	cur := rec.Derived(types.FieldHLAClass)
	if cur.Resolved() {
		if !equalValues(cur.Value, class) {
			report.Conflicts++
			report.ConflictDetails = append(report.ConflictDetails, Conflict{
				ID: rec.ID, Field: types.FieldHLAClass, Primary: cur.Value, Secondary: class,
			})
			rec.Flags.Add(types.FlagConflict)
		}
		return
	}
	if rec.SetDerived(types.FieldHLAClass, class, types.ConfidenceInferred, Stage, "secondary-alleles") {
		report.Upgraded++
		report.UpgradedByField[types.FieldHLAClass]++
		rec.Flags.Add(types.FlagCrossValidated)
	}
}

func equalValues(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// Summary renders the report as one line for progress output.
func (r Report) Summary() string {
	return fmt.Sprintf("matched %d, agreed %d, filled %d, conflicts %d",
		r.Matched, r.Agreements, r.Upgraded, r.Conflicts)
}
