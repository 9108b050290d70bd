package macro

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Kanrog/kanrog.github.io/pkg/config"
	"github.com/Kanrog/kanrog.github.io/pkg/errors"
	"github.com/Kanrog/kanrog.github.io/pkg/gcode"
)

// Issue is a problem found in a macro document.
type Issue struct {
	Line    int    `json:"line"`
	Section string `json:"section,omitempty"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	if i.Section == "" {
		return fmt.Sprintf("line %d: %s", i.Line, i.Message)
	}
	return fmt.Sprintf("line %d [%s]: %s", i.Line, i.Section, i.Message)
}

// firmwareCommands are the Klipper commands the generated macros call.
var firmwareCommands = map[string]string{
	"G0": "", "G1": "", "G4": "", "G28": "", "G90": "", "G91": "", "G92": "",
	"M83": "", "M84": "", "M104": "", "M106": "", "M107": "", "M109": "",
	"M140": "", "M190": "",
	"SET_LED":                 "",
	"STEPPER_BUZZ":            "",
	"PID_CALIBRATE":           "",
	"SAVE_CONFIG":             "",
	"ENDSTOP_PHASE_CALIBRATE": "",
	"DELTA_CALIBRATE":         "",
	"PROBE_ACCURACY":          "",
	"PROBE_CALIBRATE":         "",
	"BED_MESH_CALIBRATE":      "",
	"BED_MESH_PROFILE":        "",
	"BED_SCREWS_ADJUST":       "",
	"Z_TILT_ADJUST":           "",
	"TEMPERATURE_WAIT":        "",
	"TURN_OFF_HEATERS":        "",
	"SAVE_GCODE_STATE":        "",
	"RESTORE_GCODE_STATE":     "",
	"EXCLUDE_OBJECT":          "exclude_object",
	"PAUSE":                   "pause_resume",
	"RESUME":                  "pause_resume",
}

var (
	userVarRef = regexp.MustCompile(`printer\["gcode_macro ` + UserVarsMacro + `"\]\.([A-Za-z0-9_]+)`)
	statement  = regexp.MustCompile(`^\{%-?\s*(\w+)`)
)

// Lint parses doc and checks that it is a usable macro configuration: every
// macro has a gcode body, template blocks balance, variable references name
// declared variables and every command is a firmware command or a macro
// defined in the document.
func Lint(doc string) []Issue {
	cfg, err := config.LoadString(doc)
	if err != nil {
		line := 0
		if herr, ok := err.(*errors.HostError); ok {
			line = herr.Line
		}
		return []Issue{{Line: line, Message: err.Error()}}
	}

	var issues []Issue
	for _, d := range cfg.Duplicates() {
		issues = append(issues, Issue{
			Line:    d.Line,
			Section: d.Name,
			Message: fmt.Sprintf("section already defined on line %d", d.First),
		})
	}

	macros := make(map[string]bool)
	for _, sec := range cfg.GetPrefixSections("gcode_macro ") {
		macros[strings.ToUpper(sec.Instance())] = true
	}

	declared := make(map[string]bool)
	if vars, err := cfg.GetSection("gcode_macro " + UserVarsMacro); err == nil {
		for _, opt := range vars.GetPrefixOptions("variable_") {
			declared[strings.TrimPrefix(opt, "variable_")] = true
			v, _ := vars.Get(opt)
			if !isPyLiteral(v) {
				issues = append(issues, Issue{
					Line:    vars.Line(),
					Section: vars.GetName(),
					Message: fmt.Sprintf("%s: %q is not a literal", opt, v),
				})
			}
		}
	}

	for _, sec := range cfg.GetSections() {
		kind := sec.Kind()
		if kind != "gcode_macro" && kind != "delayed_gcode" {
			continue
		}
		if !sec.HasOption("gcode") {
			issues = append(issues, Issue{Line: sec.Line(), Section: sec.GetName(), Message: "missing gcode option"})
			continue
		}
		if kind == "delayed_gcode" {
			if _, err := sec.GetFloatMin("initial_duration", 0, 0); err != nil {
				issues = append(issues, Issue{Line: sec.Line(), Section: sec.GetName(), Message: err.Error()})
			}
		}
		issues = append(issues, lintBody(cfg, sec, macros, declared)...)
	}

	sort.SliceStable(issues, func(i, j int) bool { return issues[i].Line < issues[j].Line })
	return issues
}

func lintBody(cfg *config.Config, sec *config.Section, macros, declared map[string]bool) []Issue {
	var issues []Issue
	report := func(line int, format string, args ...interface{}) {
		issues = append(issues, Issue{Line: line, Section: sec.GetName(), Message: fmt.Sprintf(format, args...)})
	}

	var open []string
	var openLines []int
	for _, l := range sec.Lines("gcode") {
		for _, m := range userVarRef.FindAllStringSubmatch(l.Text, -1) {
			if !declared[m[1]] {
				report(l.Number, "undeclared variable %s", m[1])
			}
		}

		if strings.HasPrefix(l.Text, "{%") {
			m := statement.FindStringSubmatch(l.Text)
			if m == nil {
				report(l.Number, "malformed template statement")
				continue
			}
			switch kw := m[1]; kw {
			case "if", "for":
				open = append(open, kw)
				openLines = append(openLines, l.Number)
			case "elif", "else":
				if len(open) == 0 || open[len(open)-1] != "if" {
					report(l.Number, "%s outside of an if block", kw)
				}
			case "endif", "endfor":
				want := strings.TrimPrefix(kw, "end")
				if len(open) == 0 || open[len(open)-1] != want {
					report(l.Number, "unexpected %s", kw)
					continue
				}
				open = open[:len(open)-1]
				openLines = openLines[:len(openLines)-1]
			}
			continue
		}
		if strings.HasPrefix(l.Text, "{") {
			// Bare expression lines render to their own output.
			continue
		}

		cmd, err := gcode.ParseLine(l.Text)
		if err != nil {
			report(l.Number, "%v", err)
			continue
		}
		if cmd == nil {
			continue
		}
		if first := strings.Fields(cmd.Comment); len(first) > 0 && gcode.IsCommandName(first[0]) {
			report(l.Number, "%s after ';' is a comment and never runs", first[0])
		}
		if needs, ok := firmwareCommands[cmd.Name]; ok {
			if needs != "" && !cfg.HasSection(needs) {
				report(l.Number, "%s needs a [%s] section", cmd.Name, needs)
			}
			continue
		}
		if !macros[cmd.Name] {
			report(l.Number, "unknown command %s", cmd.Name)
		}
	}
	for i := range open {
		report(openLines[i], "unclosed %s block", open[i])
	}
	return issues
}

// isPyLiteral reports whether v reads as a Python literal the way Klipper
// evaluates variable_ options: a number, a quoted string, True, False or None.
func isPyLiteral(v string) bool {
	v = strings.TrimSpace(v)
	switch v {
	case "True", "False", "None":
		return true
	}
	if _, err := strconv.ParseFloat(v, 64); err == nil {
		return true
	}
	if len(v) >= 2 && (v[0] == '\'' || v[0] == '"') && v[len(v)-1] == v[0] {
		return true
	}
	return false
}

// LintError summarizes issues as an error, or returns nil when there are none.
func LintError(issues []Issue) error {
	if len(issues) == 0 {
		return nil
	}
	first := issues[0]
	return errors.LintError(first.Section, len(issues), first.String()).SetLine(first.Line)
}
