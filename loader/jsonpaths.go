package loader

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// A JSONPaths file lists one expression per staging column, in column order:
// {"jsonpaths": ["$['artist']", "$.auth", ...]}
type jsonPathsFile struct {
	JsonPaths []string `json:"jsonpaths"`
}

var (
	reBracketPath = regexp.MustCompile(`^\$\[\s*['"](.+)['"]\s*\]$`) // $['field']
	reDotPath     = regexp.MustCompile(`^\$\.([^.\[\]]+)$`)          // $.field
)

// ParseJSONPaths returns the top level field name of each expression.
// Nested paths are not supported by the local loader.
func ParseJSONPaths(data []byte) ([]string, error) {
	f := jsonPathsFile{}
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("error parsing JSONPaths file: %w", err)
	}
	if len(f.JsonPaths) == 0 {
		return nil, fmt.Errorf("JSONPaths file has no jsonpaths")
	}
	retval := make([]string, len(f.JsonPaths))
	for idx, p := range f.JsonPaths {
		p = strings.TrimSpace(p)
		if m := reBracketPath.FindStringSubmatch(p); m != nil {
			retval[idx] = m[1]
		} else if m := reDotPath.FindStringSubmatch(p); m != nil {
			retval[idx] = m[1]
		} else {
			return nil, fmt.Errorf("unsupported JSONPath expression %q at position %v", p, idx+1)
		}
	}
	return retval, nil
}
