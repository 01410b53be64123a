// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// outputExt is the extension of converted files.
const outputExt = ".ndjson"

// SpecPlan pairs a spec file with the data files it applies to.
type SpecPlan struct {
	Spec      string
	DataFiles []string
}

// Discover lists the non-directory entries in dir with extension ext, sorted by name.
func Discover(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if filepath.Ext(e.Name()) == ext {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// DataPrefix returns the part of a data file name before the first
// underscore. The second result is false when there is no underscore.
func DataPrefix(name string) (string, bool) {
	prefix, _, found := strings.Cut(name, "_")
	return prefix, found
}

// Plan matches data files to spec files. A data file belongs to a spec when
// its prefix equals the spec name without specExt. Every spec appears in the
// result, in input order, even when nothing matches it.
func Plan(specFiles, dataFiles []string, specExt string) []SpecPlan {
	plans := make([]SpecPlan, 0, len(specFiles))
	for _, s := range specFiles {
		name := strings.TrimSuffix(s, specExt)
		p := SpecPlan{Spec: s}
		for _, d := range dataFiles {
			if prefix, ok := DataPrefix(d); ok && prefix == name {
				p.DataFiles = append(p.DataFiles, d)
			}
		}
		plans = append(plans, p)
	}
	return plans
}

// OutputName returns the converted file name for a data file.
func OutputName(dataFile, dataExt string) string {
	return strings.TrimSuffix(dataFile, dataExt) + outputExt
}
