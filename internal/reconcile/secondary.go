// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reconcile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"
)

// LoadSecondary reads the secondary authority's records from a YAML or
// JSON file, selected by extension. Entries without an identifier are
// rejected; an unmatched identifier later is fine, an empty one is a
// broken export.
func LoadSecondary(path string) ([]SecondaryRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading secondary records %s: %w", path, err)
	}

	var recs []SecondaryRecord
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, &recs)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &recs)
	default:
		return nil, fmt.Errorf("secondary records %s: unsupported extension %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing secondary records %s: %w", path, err)
	}

	for i, r := range recs {
		if strings.TrimSpace(r.ID) == "" {
			return nil, fmt.Errorf("secondary records %s: entry %d has no id", path, i)
		}
	}
	return recs, nil
}
