package config

import (
	"strconv"
	"strings"
)

// Line is one physical line of an option value.
type Line struct {
	Number int
	Text   string
}

// Section is a named block of options. Option names are case-insensitive;
// values may span several lines.
type Section struct {
	name string
	line int

	options map[string][]Line
	order   []string
}

// newSection creates a new Section.
func newSection(name string, line int) *Section {
	return &Section{
		name:    name,
		line:    line,
		options: make(map[string][]Line),
	}
}

// GetName returns the section name.
func (s *Section) GetName() string {
	return s.name
}

// Line returns the line number of the section header.
func (s *Section) Line() int {
	return s.line
}

// Kind returns the first word of the header, e.g. "gcode_macro" for
// [gcode_macro PRINT_START].
func (s *Section) Kind() string {
	kind, _, _ := strings.Cut(s.name, " ")
	return kind
}

// Instance returns the header after the kind, e.g. "PRINT_START".
func (s *Section) Instance() string {
	_, inst, _ := strings.Cut(s.name, " ")
	return strings.TrimSpace(inst)
}

func (s *Section) setOption(option string, line int, value string) {
	if _, ok := s.options[option]; !ok {
		s.order = append(s.order, option)
	}
	var lines []Line
	if value != "" {
		lines = []Line{{Number: line, Text: value}}
	}
	s.options[option] = lines
}

func (s *Section) appendLine(option string, line int, text string) {
	s.options[option] = append(s.options[option], Line{Number: line, Text: text})
}

// Options returns the option names in document order.
func (s *Section) Options() []string {
	result := make([]string, len(s.order))
	copy(result, s.order)
	return result
}

// HasOption checks if an option exists in this section.
func (s *Section) HasOption(option string) bool {
	_, ok := s.options[strings.ToLower(option)]
	return ok
}

// Lines returns the physical lines of an option value. A value that starts
// on the line after the option name has no line for the name itself.
func (s *Section) Lines(option string) []Line {
	lines := s.options[strings.ToLower(option)]
	result := make([]Line, len(lines))
	copy(result, lines)
	return result
}

// Get returns a string option value; multi-line values are joined with "\n".
// If a fallback is provided and the option doesn't exist, returns the fallback.
func (s *Section) Get(option string, fallback ...string) (string, error) {
	if lines, ok := s.options[strings.ToLower(option)]; ok {
		parts := make([]string, len(lines))
		for i, l := range lines {
			parts[i] = l.Text
		}
		return strings.Join(parts, "\n"), nil
	}
	if len(fallback) > 0 {
		return fallback[0], nil
	}
	return "", ErrMissingOption(s.name, option)
}

// GetInt returns an integer option value.
func (s *Section) GetInt(option string, fallback ...int) (int, error) {
	if !s.HasOption(option) {
		if len(fallback) > 0 {
			return fallback[0], nil
		}
		return 0, ErrMissingOption(s.name, option)
	}
	v, _ := s.Get(option)
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, ErrInvalidValue(s.name, option, v, "integer")
	}
	return i, nil
}

// GetFloat returns a float64 option value.
func (s *Section) GetFloat(option string, fallback ...float64) (float64, error) {
	if !s.HasOption(option) {
		if len(fallback) > 0 {
			return fallback[0], nil
		}
		return 0, ErrMissingOption(s.name, option)
	}
	v, _ := s.Get(option)
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, ErrInvalidValue(s.name, option, v, "float")
	}
	return f, nil
}

// GetFloatMin returns a float64 option value that must be at least minVal.
func (s *Section) GetFloatMin(option string, minVal float64, fallback ...float64) (float64, error) {
	v, err := s.GetFloat(option, fallback...)
	if err != nil {
		return 0, err
	}
	if v < minVal {
		return 0, ErrOutOfRange(s.name, option, v, "must have minimum of "+strconv.FormatFloat(minVal, 'f', -1, 64))
	}
	return v, nil
}

// GetBool returns a boolean option value.
// Accepts: 1, true, yes, on (true) and 0, false, no, off (false).
func (s *Section) GetBool(option string, fallback ...bool) (bool, error) {
	if !s.HasOption(option) {
		if len(fallback) > 0 {
			return fallback[0], nil
		}
		return false, ErrMissingOption(s.name, option)
	}
	v, _ := s.Get(option)
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, ErrInvalidValue(s.name, option, v, "boolean (true/false/yes/no/on/off/1/0)")
	}
}

// GetPrefixOptions returns the option names that start with the given
// prefix, in document order.
func (s *Section) GetPrefixOptions(prefix string) []string {
	prefix = strings.ToLower(prefix)
	var result []string
	for _, opt := range s.order {
		if strings.HasPrefix(opt, prefix) {
			result = append(result, opt)
		}
	}
	return result
}
