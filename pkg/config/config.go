package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/Kanrog/kanrog.github.io/pkg/errors"
)

// Config is a parsed Klipper configuration document.
type Config struct {
	mu       sync.RWMutex
	sections map[string]*Section
	order    []string // Maintains section order

	// duplicates lists headers that appeared more than once
	duplicates []Duplicate
}

// Duplicate records a section header seen again after its first definition.
type Duplicate struct {
	Name  string
	First int
	Line  int
}

// New creates a new empty Config.
func New() *Config {
	return &Config{
		sections: make(map[string]*Section),
	}
}

// Load reads a configuration file and returns a Config.
// Supports [include path] directives for including other config files.
func Load(path string) (*Config, error) {
	c := New()
	visited := make(map[string]bool)
	if err := c.parseFile(path, visited); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadString parses a configuration from a string. Include directives are
// rejected since there is no directory to resolve them against.
func LoadString(data string) (*Config, error) {
	c := New()
	p := &parser{cfg: c}
	if err := p.parse(strings.NewReader(data)); err != nil {
		return nil, err
	}
	return c, nil
}

// parseFile parses a config file and handles include directives.
func (c *Config) parseFile(path string, visited map[string]bool) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.ConfigParseError(0, fmt.Sprintf("invalid path %s: %v", path, err)).SetFile(path)
	}

	// Check for recursive includes
	if visited[abs] {
		return errors.ConfigParseError(0, "recursive include").SetFile(path)
	}
	visited[abs] = true
	defer func() { visited[abs] = false }()

	f, err := os.Open(abs)
	if err != nil {
		return errors.Wrap(err, errors.ErrConfigParse, fmt.Sprintf("unable to open %s", path)).SetFile(path)
	}
	defer f.Close()

	dir := filepath.Dir(abs)
	p := &parser{
		cfg:  c,
		file: path,
		include: func(spec string) error {
			glob := filepath.Join(dir, spec)
			matches, err := filepath.Glob(glob)
			if err != nil {
				return fmt.Errorf("invalid include pattern %q: %w", spec, err)
			}
			sort.Strings(matches)
			if len(matches) == 0 && !hasGlobMeta(glob) {
				return fmt.Errorf("include file does not exist: %s", glob)
			}
			for _, m := range matches {
				if err := c.parseFile(m, visited); err != nil {
					return err
				}
			}
			return nil
		},
	}
	return p.parse(f)
}

// hasGlobMeta returns true if the path contains glob metacharacters.
func hasGlobMeta(path string) bool {
	return strings.ContainsAny(path, "*?[")
}

// parser holds the state of one document being read.
type parser struct {
	cfg     *Config
	file    string
	include func(spec string) error

	section *Section
	option  string
}

func (p *parser) fail(line int, format string, args ...interface{}) error {
	return errors.ConfigParseError(line, fmt.Sprintf(format, args...)).SetFile(p.file)
}

func (p *parser) parse(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		raw := strings.TrimRight(scanner.Text(), " \t\r")
		line := strings.TrimSpace(raw)

		// Skip empty lines
		if line == "" {
			continue
		}

		// SAVE_CONFIG writes its block behind "#*#"; the content parses as
		// regular config.
		if strings.HasPrefix(line, "#*#") {
			line = strings.TrimSpace(line[3:])
			if line == "" {
				continue
			}
			raw = line
		} else if line[0] == '#' || line[0] == ';' {
			// Full-line comments, also inside multi-line values
			continue
		}

		// Indented lines continue the previous option's value.
		if raw[0] == ' ' || raw[0] == '\t' {
			if p.section == nil || p.option == "" {
				return p.fail(lineNum, "indented line outside of an option: %q", line)
			}
			p.section.appendLine(p.option, lineNum, stripInlineComment(line))
			continue
		}

		line = stripInlineComment(line)

		// Section header
		if strings.HasPrefix(line, "[") {
			if !strings.HasSuffix(line, "]") {
				return p.fail(lineNum, "unterminated section header %q", line)
			}
			header := strings.TrimSpace(line[1 : len(line)-1])
			if header == "" {
				return p.fail(lineNum, "empty section header")
			}
			p.option = ""

			// Handle include directive
			if strings.HasPrefix(header, "include ") {
				spec := strings.TrimSpace(header[8:])
				if spec == "" {
					return p.fail(lineNum, "empty include")
				}
				if p.include == nil {
					return p.fail(lineNum, "include not supported here: %s", spec)
				}
				if err := p.include(spec); err != nil {
					if _, ok := err.(*errors.HostError); ok {
						return err
					}
					return p.fail(lineNum, "%v", err)
				}
				p.section = nil
				continue
			}

			p.section = p.cfg.addSection(header, lineNum)
			continue
		}

		if p.section == nil {
			return p.fail(lineNum, "option outside of a section: %q", line)
		}

		// Parse key: value or key = value
		sep := strings.IndexAny(line, ":=")
		if sep < 0 {
			return p.fail(lineNum, "expected 'option: value' in [%s], got %q", p.section.name, line)
		}
		key := strings.TrimSpace(line[:sep])
		value := strings.TrimSpace(line[sep+1:])
		if key == "" {
			return p.fail(lineNum, "missing option name in [%s]", p.section.name)
		}
		p.option = strings.ToLower(key)
		p.section.setOption(p.option, lineNum, value)
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, errors.ErrConfigParse, "read failed").SetFile(p.file)
	}
	return nil
}

// stripInlineComment removes a trailing "#" or ";" comment. Like Klipper,
// the marker must follow whitespace so values such as "#ff0000" survive.
func stripInlineComment(line string) string {
	for i := 1; i < len(line); i++ {
		if (line[i] == '#' || line[i] == ';') && (line[i-1] == ' ' || line[i-1] == '\t') {
			return strings.TrimSpace(line[:i])
		}
	}
	return line
}

// addSection returns the section with the given header, creating it if
// needed. A repeated header merges into the first definition and is recorded.
func (c *Config) addSection(name string, line int) *Section {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.sections[name]; ok {
		c.duplicates = append(c.duplicates, Duplicate{Name: name, First: existing.line, Line: line})
		return existing
	}

	sec := newSection(name, line)
	c.sections[name] = sec
	c.order = append(c.order, name)
	return sec
}

// GetSection returns a Section by name, or error if not found.
func (c *Config) GetSection(name string) (*Section, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	sec, ok := c.sections[name]
	if !ok {
		return nil, ErrMissingSection(name)
	}
	return sec, nil
}

// HasSection checks if a section exists.
func (c *Config) HasSection(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.sections[name]
	return ok
}

// GetSections returns all sections in document order.
func (c *Config) GetSections() []*Section {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]*Section, 0, len(c.sections))
	for _, name := range c.order {
		result = append(result, c.sections[name])
	}
	return result
}

// GetSectionNames returns all section names in order.
func (c *Config) GetSectionNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]string, len(c.order))
	copy(result, c.order)
	return result
}

// GetPrefixSections returns all sections that start with the given prefix.
func (c *Config) GetPrefixSections(prefix string) []*Section {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var result []*Section
	for _, name := range c.order {
		if strings.HasPrefix(name, prefix) {
			result = append(result, c.sections[name])
		}
	}
	return result
}

// Duplicates returns the repeated section headers in the order they appeared.
func (c *Config) Duplicates() []Duplicate {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]Duplicate, len(c.duplicates))
	copy(result, c.duplicates)
	return result
}
