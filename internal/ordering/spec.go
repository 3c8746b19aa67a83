package ordering

import (
	"fmt"
	"strings"
)

// Direction is the sort direction of a single field.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// CompareKind selects how two present values are compared.
type CompareKind string

const (
	Lexicographic CompareKind = "lexicographic"
	Numeric       CompareKind = "numeric"
)

// Reserved field names. Any other name is looked up in frontmatter.
const (
	FieldTitle    = "title"
	FieldFilename = "filename"
	FieldCreated  = "created"
	FieldModified = "modified"
)

// FieldSpec is one step of a sort configuration.
type FieldSpec struct {
	Field     string      `json:"field" yaml:"field" koanf:"field"`
	Direction Direction   `json:"direction" yaml:"direction" koanf:"direction"`
	Compare   CompareKind `json:"compare" yaml:"compare" koanf:"compare"`
}

// Config is an ordered list of field specs. Earlier steps take precedence.
type Config []FieldSpec

// DefaultConfig sorts by title, ascending, case-insensitively.
func DefaultConfig() Config {
	return Config{{Field: FieldTitle, Direction: Asc, Compare: Lexicographic}}
}

// Normalized fills in default direction and comparison for blank values and
// falls back to DefaultConfig for an empty config.
func (c Config) Normalized() Config {
	if len(c) == 0 {
		return DefaultConfig()
	}
	out := make(Config, len(c))
	for i, s := range c {
		if s.Direction == "" {
			s.Direction = Asc
		}
		if s.Compare == "" {
			s.Compare = Lexicographic
		}
		s.Direction = Direction(strings.ToLower(string(s.Direction)))
		s.Compare = CompareKind(strings.ToLower(string(s.Compare)))
		out[i] = s
	}
	return out
}

// Validate reports the first malformed step.
func (c Config) Validate() error {
	for i, s := range c.Normalized() {
		if strings.TrimSpace(s.Field) == "" {
			return fmt.Errorf("sort[%d]: field is required", i)
		}
		if s.Direction != Asc && s.Direction != Desc {
			return fmt.Errorf("sort[%d]: invalid direction %q: must be asc or desc", i, s.Direction)
		}
		if s.Compare != Lexicographic && s.Compare != Numeric {
			return fmt.Errorf("sort[%d]: invalid compare %q: must be lexicographic or numeric", i, s.Compare)
		}
	}
	return nil
}

// String renders the config in the textual form accepted by ParseConfig.
func (c Config) String() string {
	parts := make([]string, len(c))
	for i, s := range c {
		parts[i] = s.String()
	}
	return strings.Join(parts, ",")
}

func (s FieldSpec) String() string {
	return fmt.Sprintf("%s:%s:%s", s.Field, s.Direction, s.Compare)
}

// ParseFieldSpec parses "field[:asc|desc[:lexicographic|numeric]]".
// "lex" and "num" are accepted as shorthands.
func ParseFieldSpec(s string) (FieldSpec, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	spec := FieldSpec{Field: strings.TrimSpace(parts[0]), Direction: Asc, Compare: Lexicographic}
	if spec.Field == "" {
		return FieldSpec{}, fmt.Errorf("parsing sort field %q: field is required", s)
	}
	if len(parts) > 3 {
		return FieldSpec{}, fmt.Errorf("parsing sort field %q: too many segments", s)
	}
	if len(parts) > 1 && parts[1] != "" {
		spec.Direction = Direction(strings.ToLower(parts[1]))
	}
	if len(parts) > 2 && parts[2] != "" {
		switch strings.ToLower(parts[2]) {
		case "lex", string(Lexicographic):
			spec.Compare = Lexicographic
		case "num", string(Numeric):
			spec.Compare = Numeric
		default:
			spec.Compare = CompareKind(parts[2])
		}
	}
	if err := (Config{spec}).Validate(); err != nil {
		return FieldSpec{}, fmt.Errorf("parsing sort field %q: %w", s, err)
	}
	return spec, nil
}

// ParseConfig parses a comma-separated list of field specs.
func ParseConfig(s string) (Config, error) {
	if strings.TrimSpace(s) == "" {
		return DefaultConfig(), nil
	}
	var cfg Config
	for _, part := range strings.Split(s, ",") {
		spec, err := ParseFieldSpec(part)
		if err != nil {
			return nil, err
		}
		cfg = append(cfg, spec)
	}
	return cfg, nil
}
