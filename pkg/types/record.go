// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the canonical dataset record, its field-level
// provenance, and the shared rule configuration for the enrichment
// pipeline. See docs/ARCHITECTURE § Record Model.
package types

import (
	"slices"
	"sort"
	"strings"
)

// Confidence tags a derived field with how it was established. Tags are
// ordered: a field only ever moves up the order, never back down.
type Confidence string

const (
	ConfidenceUnknown     Confidence = "unknown"
	ConfidenceNeedsReview Confidence = "needs_review"
	ConfidenceInferred    Confidence = "inferred"
	ConfidenceConfirmed   Confidence = "confirmed"
)

// Rank returns the position of the tag in the upgrade order. Higher
// ranks may never be replaced by lower ones.
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceNeedsReview:
		return 1
	case ConfidenceInferred:
		return 2
	case ConfidenceConfirmed:
		return 3
	default:
		return 0
	}
}

// SourceRepository identifies the external system a record came from.
// It selects the normalizer variant applied to the raw payload.
type SourceRepository string

const (
	SourcePRIDE        SourceRepository = "pride"
	SourceMassIVE      SourceRepository = "massive"
	SourceJPOST        SourceRepository = "jpost"
	SourcePeptideAtlas SourceRepository = "peptideatlas"
	SourceManual       SourceRepository = "manual"
)

// SourceForID maps a dataset identifier prefix to its home repository.
// Identifiers without a recognized prefix are treated as manually
// transcribed records.
func SourceForID(id string) SourceRepository {
	switch {
	case strings.HasPrefix(id, "PXD"):
		return SourcePRIDE
	case strings.HasPrefix(id, "MSV"):
		return SourceMassIVE
	case strings.HasPrefix(id, "JPST"):
		return SourceJPOST
	case strings.HasPrefix(id, "PASS"):
		return SourcePeptideAtlas
	default:
		return SourceManual
	}
}

// Field names the derived fields the classification and inference
// engines write. The reconciler merges at this granularity.
type Field string

const (
	FieldHLAClass        Field = "hla_class"
	FieldSampleOrigin    Field = "sample_origin"
	FieldDisease         Field = "disease"
	FieldDiseaseCategory Field = "disease_category"
)

// DerivedFieldOrder is the deterministic iteration order for derived
// fields, used wherever per-field processing must be reproducible.
var DerivedFieldOrder = []Field{
	FieldHLAClass,
	FieldSampleOrigin,
	FieldDisease,
	FieldDiseaseCategory,
}

// Flag marks a per-record condition raised by a pipeline stage.
type Flag string

const (
	FlagParseError        Flag = "parse_error"
	FlagNeedsManualReview Flag = "needs_manual_review"
	FlagCrossValidated    Flag = "cross_validated"
	FlagConflict          Flag = "conflict"
	FlagSampleTable       Flag = "has_sample_table"
)

// FlagSet is a sorted, duplicate-free set of flags. The sorted form
// keeps snapshots byte-stable across repeated stage runs.
type FlagSet []Flag

// Add inserts f, keeping the set sorted and duplicate-free.
func (s *FlagSet) Add(f Flag) {
	if s.Has(f) {
		return
	}
	*s = append(*s, f)
	slices.Sort(*s)
}

// Has reports whether f is in the set.
func (s FlagSet) Has(f Flag) bool {
	return slices.Contains(s, f)
}

// Clone returns an independent copy of the set.
func (s FlagSet) Clone() FlagSet {
	if s == nil {
		return nil
	}
	return slices.Clone(s)
}

// Strings returns the flags as plain strings for delimited output.
func (s FlagSet) Strings() []string {
	out := make([]string, len(s))
	for i, f := range s {
		out[i] = string(f)
	}
	return out
}

// DerivedValue is a derived field's value together with the confidence
// tag governing whether later stages may replace it.
type DerivedValue struct {
	Value      string     `json:"value" yaml:"value"`
	Confidence Confidence `json:"confidence" yaml:"confidence"`
}

// Resolved reports whether the field carries a usable value.
func (d DerivedValue) Resolved() bool {
	return d.Confidence == ConfidenceInferred || d.Confidence == ConfidenceConfirmed
}

// Provenance records which stage last set a derived field and by what
// rule, so later stages can refuse to downgrade it.
type Provenance struct {
	Stage string `json:"stage" yaml:"stage"`
	Rule  string `json:"rule" yaml:"rule"`
}

// TextFields holds the free-text portions of a record. These are the
// only inputs the classification and inference engines read.
type TextFields struct {
	Title          string   `json:"title" yaml:"title"`
	Description    string   `json:"description" yaml:"description"`
	Keywords       []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	ProjectTags    []string `json:"project_tags,omitempty" yaml:"project_tags,omitempty"`
	SampleProtocol string   `json:"sample_protocol,omitempty" yaml:"sample_protocol,omitempty"`
	DataProtocol   string   `json:"data_protocol,omitempty" yaml:"data_protocol,omitempty"`
}

// Combined concatenates title, description, and keywords for
// keyword-set classification.
func (t TextFields) Combined() string {
	parts := []string{t.Title, t.Description}
	parts = append(parts, t.Keywords...)
	parts = append(parts, t.ProjectTags...)
	return strings.Join(parts, " ")
}

// StructuredFields holds values the source provided in structured form.
// Empty when the source offered only free text.
type StructuredFields struct {
	Organisms       []string          `json:"organisms,omitempty" yaml:"organisms,omitempty"`
	Tissues         []string          `json:"tissues,omitempty" yaml:"tissues,omitempty"`
	CellTypes       []string          `json:"cell_types,omitempty" yaml:"cell_types,omitempty"`
	Diseases        []string          `json:"diseases,omitempty" yaml:"diseases,omitempty"`
	Instruments     []string          `json:"instruments,omitempty" yaml:"instruments,omitempty"`
	Modifications   []string          `json:"modifications,omitempty" yaml:"modifications,omitempty"`
	HLAAlleles      []string          `json:"hla_alleles,omitempty" yaml:"hla_alleles,omitempty"`
	PubMedIDs       []string          `json:"pubmed_ids,omitempty" yaml:"pubmed_ids,omitempty"`
	DOIs            []string          `json:"dois,omitempty" yaml:"dois,omitempty"`
	PublicationDate string            `json:"publication_date,omitempty" yaml:"publication_date,omitempty"`
	SampleCount     int               `json:"sample_count,omitempty" yaml:"sample_count,omitempty"`
	SampleDetails   map[string]string `json:"sample_details,omitempty" yaml:"sample_details,omitempty"`
}

// Tier buckets a quality score.
type Tier string

const (
	TierHigh   Tier = "High"
	TierMedium Tier = "Medium"
	TierLow    Tier = "Low"
)

// Quality is the completeness score and tier computed by the scorer.
type Quality struct {
	Score int  `json:"score" yaml:"score"`
	Tier  Tier `json:"tier,omitempty" yaml:"tier,omitempty"`
}

// DatasetRecord is one row of the metadata table: a dataset identifier
// with its text, structured, and derived fields, plus quality and
// per-field provenance. Records are created once by the normalizer and
// only ever enriched afterwards.
type DatasetRecord struct {
	ID            string                 `json:"id" yaml:"id"`
	Source        SourceRepository       `json:"source_repository" yaml:"source_repository"`
	Text          TextFields             `json:"text_fields" yaml:"text_fields"`
	Structured    StructuredFields       `json:"structured_fields" yaml:"structured_fields"`
	DerivedFields map[Field]DerivedValue `json:"derived_fields" yaml:"derived_fields"`
	Quality       Quality                `json:"quality" yaml:"quality"`
	Flags         FlagSet                `json:"flags,omitempty" yaml:"flags,omitempty"`
	Provenance    map[Field]Provenance   `json:"provenance,omitempty" yaml:"provenance,omitempty"`
}

// NewRecord returns a record with every derived field initialized to
// unknown, the state the normalizer hands to the classification engine.
func NewRecord(id string, source SourceRepository) DatasetRecord {
	derived := make(map[Field]DerivedValue, len(DerivedFieldOrder))
	for _, f := range DerivedFieldOrder {
		derived[f] = DerivedValue{Confidence: ConfidenceUnknown}
	}
	return DatasetRecord{
		ID:            id,
		Source:        source,
		DerivedFields: derived,
		Provenance:    make(map[Field]Provenance),
	}
}

// Derived returns the named derived field, defaulting to unknown for
// records that predate the field.
func (r *DatasetRecord) Derived(f Field) DerivedValue {
	if v, ok := r.DerivedFields[f]; ok {
		return v
	}
	return DerivedValue{Confidence: ConfidenceUnknown}
}

// SetDerived writes a derived field through the monotonicity gate: a
// value is applied only if it raises the confidence rank, and a
// confirmed field is never replaced. Writing the identical value and
// tag is a no-op, which is what makes stages idempotent. Reports
// whether the write was applied.
func (r *DatasetRecord) SetDerived(f Field, value string, conf Confidence, stage, rule string) bool {
	cur := r.Derived(f)
	if cur.Value == value && cur.Confidence == conf {
		return false
	}
	if cur.Confidence == ConfidenceConfirmed {
		return false
	}
	if conf.Rank() <= cur.Confidence.Rank() {
		return false
	}
	if r.DerivedFields == nil {
		r.DerivedFields = make(map[Field]DerivedValue)
	}
	r.DerivedFields[f] = DerivedValue{Value: value, Confidence: conf}
	if conf != ConfidenceUnknown {
		if r.Provenance == nil {
			r.Provenance = make(map[Field]Provenance)
		}
		r.Provenance[f] = Provenance{Stage: stage, Rule: rule}
	}
	return true
}

// Clone returns a deep copy of the record.
func (r DatasetRecord) Clone() DatasetRecord {
	out := r
	out.Text.Keywords = slices.Clone(r.Text.Keywords)
	out.Text.ProjectTags = slices.Clone(r.Text.ProjectTags)
	out.Structured.Organisms = slices.Clone(r.Structured.Organisms)
	out.Structured.Tissues = slices.Clone(r.Structured.Tissues)
	out.Structured.CellTypes = slices.Clone(r.Structured.CellTypes)
	out.Structured.Diseases = slices.Clone(r.Structured.Diseases)
	out.Structured.Instruments = slices.Clone(r.Structured.Instruments)
	out.Structured.Modifications = slices.Clone(r.Structured.Modifications)
	out.Structured.HLAAlleles = slices.Clone(r.Structured.HLAAlleles)
	out.Structured.PubMedIDs = slices.Clone(r.Structured.PubMedIDs)
	out.Structured.DOIs = slices.Clone(r.Structured.DOIs)
	if r.Structured.SampleDetails != nil {
		out.Structured.SampleDetails = make(map[string]string, len(r.Structured.SampleDetails))
		for k, v := range r.Structured.SampleDetails {
			out.Structured.SampleDetails[k] = v
		}
	}
	if r.DerivedFields != nil {
		out.DerivedFields = make(map[Field]DerivedValue, len(r.DerivedFields))
		for k, v := range r.DerivedFields {
			out.DerivedFields[k] = v
		}
	}
	if r.Provenance != nil {
		out.Provenance = make(map[Field]Provenance, len(r.Provenance))
		for k, v := range r.Provenance {
			out.Provenance[k] = v
		}
	}
	out.Flags = r.Flags.Clone()
	return out
}

// Snapshot is the complete tabular state between two pipeline stages:
// one record per dataset identifier. Stages read a snapshot and emit a
// new one; they never mutate their input.
type Snapshot struct {
	Records []DatasetRecord `json:"records" yaml:"records"`
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{Records: make([]DatasetRecord, len(s.Records))}
	for i, r := range s.Records {
		out.Records[i] = r.Clone()
	}
	return out
}

// IDs returns the sorted identifiers present in the snapshot.
func (s Snapshot) IDs() []string {
	ids := make([]string, len(s.Records))
	for i, r := range s.Records {
		ids[i] = r.ID
	}
	sort.Strings(ids)
	return ids
}

// SameIDs reports whether both snapshots contain exactly the same set
// of identifiers. Every stage must preserve this.
func (s Snapshot) SameIDs(other Snapshot) bool {
	return slices.Equal(s.IDs(), other.IDs())
}

// Find returns a pointer to the record with the given id, or nil.
func (s *Snapshot) Find(id string) *DatasetRecord {
	for i := range s.Records {
		if s.Records[i].ID == id {
			return &s.Records[i]
		}
	}
	return nil
}
