package sourcing

import (
	"strings"

	"github.com/vaxsource/immunize-cli/internal/model"
	"github.com/vaxsource/immunize-cli/internal/portal"
)

// Mapper renames one dataset's source field names to canonical names. It is
// built from the dataset's fields_map (canonical -> source) by inverting it;
// entries with a blank source name are excluded, so those raw keys pass
// through unchanged.
type Mapper struct {
	inverse map[string]string
}

// NewMapper builds a Mapper from a dataset's field translation table.
func NewMapper(fm model.FieldsMap) *Mapper {
	inverse := make(map[string]string, len(fm))
	for canonical, source := range fm {
		if strings.TrimSpace(source) == "" {
			continue
		}
		inverse[source] = canonical
	}
	return &Mapper{inverse: inverse}
}

// Apply normalizes one raw entry: keys with blank values are dropped before
// mapping, mapped keys are renamed to their canonical form, and unmapped keys
// are kept as-is.
func (m *Mapper) Apply(entry portal.Entry) portal.Entry {
	out := make(portal.Entry, len(entry))
	for k, v := range entry {
		if isBlank(v) {
			continue
		}
		if canonical, ok := m.inverse[k]; ok {
			k = canonical
		}
		out[k] = v
	}
	return out
}

// isBlank reports whether a raw value counts as missing. Numeric zero is a
// real observation and is kept.
func isBlank(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}
