// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize turns raw repository payloads into canonical
// dataset records. Each source repository publishes metadata in its own
// shape; the normalizer recognizes the shape, maps it onto the shared
// record model, and initializes every derived field to unknown. See
// docs/ARCHITECTURE § Source Normalizer.
package normalize

import (
	"sort"
	"strings"

	"github.com/mxwei/hlameta/pkg/types"
)

// Raw is one unparsed payload handed to the normalizer: the dataset
// identifier, the repository it came from, and the bytes as fetched.
type Raw struct {
	ID     string
	Source types.SourceRepository
	Data   []byte
}

// Normalizer maps raw payloads onto canonical records.
type Normalizer struct {
	cfg types.NormalizeRules
}

// New returns a normalizer using the given shaping rules.
func New(cfg types.NormalizeRules) *Normalizer {
	return &Normalizer{cfg: cfg}
}

// Normalize parses one payload into a canonical record. The decoder
// preferred by the record's source repository is tried first, then the
// remaining decoders in a fixed order. A payload no decoder accepts
// still yields a record, carrying only the identifier and a parse_error
// flag, so the dataset stays visible downstream.
func (n *Normalizer) Normalize(id string, source types.SourceRepository, data []byte) types.DatasetRecord {
	for _, dec := range n.decoderOrder(source) {
		if rec, ok := dec(id, source, data); ok {
			return rec
		}
	}
	rec := types.NewRecord(id, source)
	rec.Flags.Add(types.FlagParseError)
	return rec
}

// Batch normalizes a set of payloads into the pipeline's initial
// snapshot, ordered by identifier. Duplicate identifiers keep the
// first payload seen.
func (n *Normalizer) Batch(inputs []Raw) types.Snapshot {
	seen := make(map[string]bool, len(inputs))
	var snap types.Snapshot
	for _, in := range inputs {
		if seen[in.ID] {
			continue
		}
		seen[in.ID] = true
		snap.Records = append(snap.Records, n.Normalize(in.ID, in.Source, in.Data))
	}
	sort.Slice(snap.Records, func(i, j int) bool {
		return snap.Records[i].ID < snap.Records[j].ID
	})
	return snap
}

type decoder func(id string, source types.SourceRepository, data []byte) (types.DatasetRecord, bool)

func (n *Normalizer) decoderOrder(source types.SourceRepository) []decoder {
	if source == types.SourceManual {
		return []decoder{n.decodeManual, n.decodeAPI, n.decodeSampleTable}
	}
	return []decoder{n.decodeAPI, n.decodeSampleTable, n.decodeManual}
}

// cleanValues trims a string list, drops empties and values that are
// only placeholder noise, and deduplicates while preserving order.
func cleanValues(vals []string) []string {
	var out []string
	seen := make(map[string]bool, len(vals))
	for _, v := range vals {
		v = strings.TrimSpace(v)
		if v == "" || placeholderValue(v) {
			continue
		}
		key := strings.ToLower(v)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}

// placeholderValue reports whether a value is a repository placeholder
// rather than information.
func placeholderValue(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "not available", "not applicable", "n/a", "na", "none", "unknown", "-":
		return true
	}
	return false
}

// cleanDiseaseNames drops the bare ontology root "disease", which some
// submitters attach to every dataset, and rewrites "disease free" to
// the healthy-control form the classifier recognizes.
func cleanDiseaseNames(vals []string) []string {
	var out []string
	for _, v := range cleanValues(vals) {
		switch strings.ToLower(v) {
		case "disease":
			continue
		case "disease free", "disease-free":
			v = "healthy control"
		}
		out = append(out, v)
	}
	return out
}
