// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"regexp"

	"github.com/mxwei/hlameta/pkg/types"
)

// HLA class values. The umbrella value marks datasets that mention the
// field generally without committing to a class.
const (
	ClassI        = "HLA-I"
	ClassII       = "HLA-II"
	ClassBoth     = "HLA-I/II"
	ClassUmbrella = "HLA"
	ClassNone     = "non-HLA"
)

var (
	classILocus  = regexp.MustCompile(`(?i)^HLA-[ABC]`)
	classIILocus = regexp.MustCompile(`(?i)^HLA-D[RQPM]`)
)

// classifyHLA applies the class decision table. Class-specific
// keywords beat the general umbrella set; typed alleles beat both,
// because an allele names its locus and the locus names its class.
func (e *Engine) classifyHLA(rec *types.DatasetRecord, text string) {
	if class := ClassFromAlleles(rec.Structured.HLAAlleles); class != "" {
		rec.SetDerived(types.FieldHLAClass, class, types.ConfidenceConfirmed, Stage, "allele-typing")
		return
	}

	// Class keywords are matched word bounded so that a bare
	// "class I" never fires inside "class II".
	hasI := matchNamed(text, e.classI) != ""
	hasII := matchNamed(text, e.classII) != ""
	switch {
	case hasI && hasII:
		rec.SetDerived(types.FieldHLAClass, ClassBoth, types.ConfidenceConfirmed, Stage, "class-keywords")
	case hasI:
		rec.SetDerived(types.FieldHLAClass, ClassI, types.ConfidenceConfirmed, Stage, "class-keywords")
	case hasII:
		rec.SetDerived(types.FieldHLAClass, ClassII, types.ConfidenceConfirmed, Stage, "class-keywords")
	case containsAny(text, e.cfg.HLA.GeneralKeywords):
		rec.SetDerived(types.FieldHLAClass, ClassUmbrella, types.ConfidenceNeedsReview, Stage, "general-keyword")
	default:
		rec.SetDerived(types.FieldHLAClass, ClassNone, types.ConfidenceConfirmed, Stage, "no-keywords")
	}
}

// ClassFromAlleles derives the class from typed allele loci. Returns
// the empty string when the alleles name no recognized locus.
func ClassFromAlleles(alleles []string) string {
	var hasI, hasII bool
	for _, a := range alleles {
		switch {
		case classILocus.MatchString(a):
			hasI = true
		case classIILocus.MatchString(a):
			hasII = true
		}
	}
	switch {
	case hasI && hasII:
		return ClassBoth
	case hasI:
		return ClassI
	case hasII:
		return ClassII
	}
	return ""
}
