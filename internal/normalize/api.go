// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/mxwei/hlameta/pkg/types"
)

// cvName is a value that repositories serialize either as a bare string
// or as a controlled-vocabulary object with a name field. Only the name
// is kept.
type cvName string

func (c *cvName) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = cvName(s)
		return nil
	}
	var obj struct {
		Name     string `json:"name"`
		Value    string `json:"value"`
		CvParams []struct {
			Name string `json:"name"`
		} `json:"cvParams"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	switch {
	case obj.Name != "":
		*c = cvName(obj.Name)
	case len(obj.CvParams) > 0:
		*c = cvName(obj.CvParams[0].Name)
	default:
		*c = cvName(obj.Value)
	}
	return nil
}

func cvNames(vals []cvName) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = string(v)
	}
	return out
}

// apiPayload covers the project-metadata JSON the proteomics archives
// serve. Field names follow the PRIDE archive API; the other archives
// emit subsets of the same shape.
type apiPayload struct {
	Accession          string   `json:"accession"`
	Title              string   `json:"title"`
	ProjectDescription string   `json:"projectDescription"`
	Description        string   `json:"description"`
	Keywords           []cvName `json:"keywords"`
	ProjectTags        []string `json:"projectTags"`
	SampleProtocol     string   `json:"sampleProcessingProtocol"`
	DataProtocol       string   `json:"dataProcessingProtocol"`
	Organisms          []cvName `json:"organisms"`
	OrganismParts      []cvName `json:"organismParts"`
	CellTypes          []cvName `json:"cellTypes"`
	Diseases           []cvName `json:"diseases"`
	Instruments        []cvName `json:"instruments"`
	PTMs               []cvName `json:"identifiedPTMStrings"`
	PublicationDate    string   `json:"publicationDate"`
	SubmissionDate     string   `json:"submissionDate"`
	References         []struct {
		PubmedID json.Number `json:"pubmedId"`
		DOI      string      `json:"doi"`
	} `json:"references"`
}

// decodeAPI accepts archive project JSON. The payload must be a JSON
// object carrying at least a title or description to count as this
// shape; anything else falls through to the next decoder.
func (n *Normalizer) decodeAPI(id string, source types.SourceRepository, data []byte) (types.DatasetRecord, bool) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return types.DatasetRecord{}, false
	}
	var p apiPayload
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return types.DatasetRecord{}, false
	}
	if p.Title == "" && p.ProjectDescription == "" && p.Description == "" {
		return types.DatasetRecord{}, false
	}

	rec := types.NewRecord(id, source)
	rec.Text.Title = strings.TrimSpace(p.Title)
	rec.Text.Description = strings.TrimSpace(firstNonEmpty(p.ProjectDescription, p.Description))
	rec.Text.Keywords = cleanValues(cvNames(p.Keywords))
	rec.Text.ProjectTags = cleanValues(p.ProjectTags)
	rec.Text.SampleProtocol = strings.TrimSpace(p.SampleProtocol)
	rec.Text.DataProtocol = strings.TrimSpace(p.DataProtocol)

	rec.Structured.Organisms = cleanValues(cvNames(p.Organisms))
	rec.Structured.Tissues = cleanValues(cvNames(p.OrganismParts))
	rec.Structured.CellTypes = cleanValues(cvNames(p.CellTypes))
	rec.Structured.Diseases = cleanDiseaseNames(cvNames(p.Diseases))
	rec.Structured.Instruments = cleanValues(cvNames(p.Instruments))
	rec.Structured.Modifications = cleanValues(cvNames(p.PTMs))
	rec.Structured.PublicationDate = firstNonEmpty(p.PublicationDate, p.SubmissionDate)
	rec.Structured.HLAAlleles = harvestAlleles(rec.Text.Combined() + " " + rec.Text.SampleProtocol)

	for _, ref := range p.References {
		if s := ref.PubmedID.String(); s != "" && s != "0" {
			if _, err := strconv.Atoi(s); err == nil {
				rec.Structured.PubMedIDs = append(rec.Structured.PubMedIDs, s)
			}
		}
		if ref.DOI != "" {
			rec.Structured.DOIs = append(rec.Structured.DOIs, strings.TrimSpace(ref.DOI))
		}
	}
	rec.Structured.PubMedIDs = cleanValues(rec.Structured.PubMedIDs)
	rec.Structured.DOIs = cleanValues(rec.Structured.DOIs)

	return rec, true
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
