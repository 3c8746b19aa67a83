// Package ordering is the comparator shared by the folder tree and the
// sequence flattener. Files and folders are compared through the same
// Entity view so a folder sorts by its index document's metadata.
package ordering

import (
	"cmp"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Entity is anything that can be placed in a navigation listing.
type Entity interface {
	// DerivedName is the fallback title: a file stem or a folder segment.
	DerivedName() string
	// Filename is the last path segment.
	Filename() string
	// Meta is the raw frontmatter, possibly nil.
	Meta() map[string]any
	// Timestamps reports creation and modification times. ok is false for
	// entities without timestamps (folders).
	Timestamps() (created, modified int64, ok bool)
}

// ResolveField returns the sortable string value of a field. The boolean is
// false when the entity has no value for it.
func ResolveField(e Entity, name string) (string, bool) {
	switch name {
	case FieldTitle:
		if v, ok := scalar(e.Meta()[FieldTitle]); ok && strings.TrimSpace(v) != "" {
			return v, true
		}
		return e.DerivedName(), true
	case FieldFilename:
		return e.Filename(), true
	case FieldCreated, FieldModified:
		created, modified, ok := e.Timestamps()
		if !ok {
			return "", false
		}
		if name == FieldCreated {
			return strconv.FormatInt(created, 10), true
		}
		return strconv.FormatInt(modified, 10), true
	}
	meta := e.Meta()
	if meta == nil {
		return "", false
	}
	raw, exists := meta[name]
	if !exists {
		return "", false
	}
	return scalar(raw)
}

// scalar converts a decoded frontmatter value into its sortable string form.
func scalar(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, true
	case bool:
		if x {
			return "1", true
		}
		return "0", true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case uint64:
		return strconv.FormatUint(x, 10), true
	case float64:
		return formatFloat(x), true
	case float32:
		return formatFloat(float64(x)), true
	case time.Time:
		return x.UTC().Format(time.RFC3339), true
	case []any:
		parts := make([]string, 0, len(x))
		for _, item := range x {
			if s, ok := scalar(item); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ","), true
	case []string:
		return strings.Join(x, ","), true
	default:
		return "", false
	}
}

func formatFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Compare orders a and b by a single field. Entities missing the field sort
// after entities that have it, whatever the direction.
func Compare(a, b Entity, spec FieldSpec) int {
	va, okA := ResolveField(a, spec.Field)
	vb, okB := ResolveField(b, spec.Field)
	switch {
	case !okA && !okB:
		return 0
	case !okA:
		return 1
	case !okB:
		return -1
	}

	var c int
	if spec.Compare == Numeric {
		c = cmp.Compare(parseNumber(va), parseNumber(vb))
	} else {
		c = strings.Compare(strings.ToLower(va), strings.ToLower(vb))
	}
	if spec.Direction == Desc {
		c = -c
	}
	return c
}

func parseNumber(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) {
		return 0
	}
	return f
}

// CompareAll applies each step of cfg in order and returns the first
// non-zero result.
func CompareAll(a, b Entity, cfg Config) int {
	return compareSteps(a, b, cfg.Normalized())
}

func compareSteps(a, b Entity, steps Config) int {
	for _, spec := range steps {
		if c := Compare(a, b, spec); c != 0 {
			return c
		}
	}
	return 0
}

// Sort stably sorts items in place. Entities equal under cfg keep their
// relative order, so repeated sorts never reorder them.
func Sort[E Entity](items []E, cfg Config) {
	cfg = cfg.Normalized()
	slices.SortStableFunc(items, func(a, b E) int {
		return compareSteps(a, b, cfg)
	})
}

// Sorted returns a sorted copy of items.
func Sorted[E Entity](items []E, cfg Config) []E {
	out := slices.Clone(items)
	Sort(out, cfg)
	return out
}
