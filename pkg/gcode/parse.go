// Package gcode tokenizes Klipper G-code command lines. Parameters may carry
// template expressions ({...}) that contain spaces, quotes and operators;
// those stay inside the parameter they belong to.
package gcode

import (
	"fmt"
	"regexp"
	"strings"
)

// Param is one command parameter.
type Param struct {
	Key   string
	Value string
}

// Command is a parsed G-code line.
type Command struct {
	Name    string
	Params  []Param
	Comment string
	Raw     string
}

var traditional = regexp.MustCompile(`^[GMT][0-9]+$`)

// Traditional reports whether the command uses letter-value parameters
// (G1 X10) rather than KEY=VALUE parameters.
func (c *Command) Traditional() bool {
	return traditional.MatchString(c.Name)
}

// Arg returns the value of the named parameter.
func (c *Command) Arg(key string) (string, bool) {
	key = strings.ToUpper(key)
	for _, p := range c.Params {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// IsCommandName reports whether s reads as a G-code command word.
func IsCommandName(s string) bool {
	if traditional.MatchString(strings.ToUpper(s)) {
		return true
	}
	if s == "" || strings.ToUpper(s) != s {
		return false
	}
	for _, r := range s {
		if !(r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_') {
			return false
		}
	}
	return true
}

// ParseLine parses one line. Blank and comment-only lines return nil.
func ParseLine(line string) (*Command, error) {
	body, comment := split(line)
	fields, err := fieldsOutsideBraces(body)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}

	cmd := &Command{
		Name:    strings.ToUpper(fields[0]),
		Comment: comment,
		Raw:     line,
	}
	for _, f := range fields[1:] {
		p, err := cmd.param(f)
		if err != nil {
			return nil, err
		}
		cmd.Params = append(cmd.Params, p)
	}
	return cmd, nil
}

func (c *Command) param(f string) (Param, error) {
	eq := indexOutsideBraces(f, '=')
	if c.Traditional() {
		if eq >= 0 {
			return Param{}, fmt.Errorf("%s: parameter %q must be a letter and value", c.Name, f)
		}
		if f[0] == '{' {
			return Param{}, fmt.Errorf("%s: parameter %q has no letter", c.Name, f)
		}
		return Param{Key: strings.ToUpper(f[:1]), Value: f[1:]}, nil
	}
	if eq <= 0 {
		return Param{}, fmt.Errorf("%s: parameter %q is not KEY=VALUE", c.Name, f)
	}
	return Param{Key: strings.ToUpper(f[:eq]), Value: f[eq+1:]}, nil
}

// split separates the command from a trailing ';' comment. A ';' inside a
// template expression is not a comment marker.
func split(line string) (string, string) {
	idx := indexOutsideBraces(line, ';')
	if idx < 0 {
		return strings.TrimSpace(line), ""
	}
	return strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+1:])
}

// indexOutsideBraces returns the first index of ch at brace depth zero.
func indexOutsideBraces(s string, ch byte) int {
	depth := 0
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case depth > 0 && (c == '"' || c == '\''):
			quote = c
		case c == '{':
			depth++
		case c == '}':
			if depth > 0 {
				depth--
			}
		case depth == 0 && c == ch:
			return i
		}
	}
	return -1
}

// fieldsOutsideBraces splits s on whitespace at brace depth zero.
func fieldsOutsideBraces(s string) ([]string, error) {
	var fields []string
	var cur strings.Builder
	depth := 0
	var quote byte

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case depth > 0 && (c == '"' || c == '\''):
			quote = c
		case c == '{':
			depth++
		case c == '}':
			if depth == 0 {
				return nil, fmt.Errorf("unbalanced '}' in %q", s)
			}
			depth--
		case depth == 0 && (c == ' ' || c == '\t'):
			if cur.Len() > 0 {
				fields = append(fields, cur.String())
				cur.Reset()
			}
			continue
		}
		cur.WriteByte(c)
	}
	if depth > 0 || quote != 0 {
		return nil, fmt.Errorf("unterminated expression in %q", s)
	}
	if cur.Len() > 0 {
		fields = append(fields, cur.String())
	}
	return fields, nil
}
