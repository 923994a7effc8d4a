// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"bufio"
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/mxwei/hlameta/pkg/types"
)

// roleColumn matches the annotated column headers of a sample table:
// characteristics[organism part], comment[instrument], factor
// value[disease], and so on. The inner name is the attribute.
var roleColumn = regexp.MustCompile(`(?i)^(characteristics|comment|factor value)\s*\[(.+)\]$`)

// sampleTable is a parsed per-sample annotation table.
type sampleTable struct {
	rows    int
	columns []tableColumn
}

type tableColumn struct {
	role string // characteristics, comment, factor value
	name string
	vals []string
}

// parseSampleTable reads a tab-separated sample annotation table. The
// header must carry at least one role-annotated column; otherwise the
// bytes are not this shape.
func parseSampleTable(data []byte) (*sampleTable, bool) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	if !sc.Scan() {
		return nil, false
	}
	header := strings.Split(sc.Text(), "\t")

	tbl := &sampleTable{columns: make([]tableColumn, 0, len(header))}
	indexed := make(map[int]*tableColumn)
	for i, h := range header {
		m := roleColumn.FindStringSubmatch(strings.TrimSpace(h))
		if m == nil {
			continue
		}
		tbl.columns = append(tbl.columns, tableColumn{
			role: strings.ToLower(m[1]),
			name: strings.ToLower(strings.TrimSpace(m[2])),
		})
		indexed[i] = &tbl.columns[len(tbl.columns)-1]
	}
	if len(tbl.columns) == 0 {
		return nil, false
	}

	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		cells := strings.Split(line, "\t")
		tbl.rows++
		for i, col := range indexed {
			if i < len(cells) {
				col.vals = append(col.vals, strings.TrimSpace(cells[i]))
			}
		}
	}
	return tbl, true
}

// distinct returns a column's unique non-placeholder values in order of
// first appearance.
func (c tableColumn) distinct() []string {
	return cleanValues(c.vals)
}

// summarize collapses a column to one cell: the distinct values joined,
// or a count once the column's cardinality exceeds the cutoff. A
// per-sample column with forty distinct values tells a reader nothing
// when inlined.
func (n *Normalizer) summarize(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	if len(vals) > n.cfg.CardinalityCutoff {
		return fmt.Sprintf("%d unique values", len(vals))
	}
	return strings.Join(vals, n.cfg.Separator)
}

// decodeSampleTable accepts a bare sample annotation table as the whole
// payload, for datasets where the table is the only metadata published.
func (n *Normalizer) decodeSampleTable(id string, source types.SourceRepository, data []byte) (types.DatasetRecord, bool) {
	tbl, ok := parseSampleTable(data)
	if !ok {
		return types.DatasetRecord{}, false
	}
	rec := types.NewRecord(id, source)
	n.applySampleTable(&rec, tbl, false)
	return rec, true
}

// AttachSampleTable merges a sample annotation table into an existing
// record. Structured fields already populated by the source are kept;
// the table only fills gaps. Free text is never touched.
func (n *Normalizer) AttachSampleTable(rec *types.DatasetRecord, data []byte) error {
	tbl, ok := parseSampleTable(data)
	if !ok {
		return fmt.Errorf("attaching sample table to %s: no annotated columns found", rec.ID)
	}
	n.applySampleTable(rec, tbl, true)
	return nil
}

func (n *Normalizer) applySampleTable(rec *types.DatasetRecord, tbl *sampleTable, fillOnly bool) {
	if rec.Structured.SampleCount == 0 {
		rec.Structured.SampleCount = tbl.rows
	}
	if rec.Structured.SampleDetails == nil {
		rec.Structured.SampleDetails = make(map[string]string)
	}

	for _, col := range tbl.columns {
		vals := col.distinct()
		if len(vals) == 0 {
			continue
		}
		if _, exists := rec.Structured.SampleDetails[col.name]; !exists {
			rec.Structured.SampleDetails[col.name] = n.summarize(vals)
		}

		switch col.name {
		case "organism":
			fillList(&rec.Structured.Organisms, vals, fillOnly)
		case "organism part", "tissue":
			fillList(&rec.Structured.Tissues, vals, fillOnly)
		case "cell type", "cell line":
			fillList(&rec.Structured.CellTypes, vals, fillOnly)
		case "disease":
			fillList(&rec.Structured.Diseases, cleanDiseaseNames(vals), fillOnly)
		case "instrument":
			fillList(&rec.Structured.Instruments, vals, fillOnly)
		}
	}
	rec.Flags.Add(types.FlagSampleTable)
}

// fillList replaces dst with vals, unless fillOnly is set and dst
// already has values.
func fillList(dst *[]string, vals []string, fillOnly bool) {
	if fillOnly && len(*dst) > 0 {
		return
	}
	*dst = vals
}
