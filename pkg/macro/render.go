package macro

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Kanrog/kanrog.github.io/pkg/kinematics"
)

// indent is the continuation indent Klipper expects under "gcode:".
const indent = "    "

// UserVarsMacro is the macro that carries the machine constants.
const UserVarsMacro = "_USER_VARS"

const bannerRule = "#==================================#"

// num formats v in its shortest decimal form: 117.5, 240, -80.
func num(v float64) string {
	if v == 0 {
		v = 0 // drop the sign of -0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// userVar references a _USER_VARS variable from a template.
func userVar(name string) string {
	return fmt.Sprintf(`printer["gcode_macro %s"].%s`, UserVarsMacro, name)
}

// expr wraps a template expression for inline substitution.
func expr(s string) string {
	return "{" + s + "}"
}

// pyString quotes s as a Python string literal, which is how Klipper reads
// variable_ values.
func pyString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(s) + "'"
}

// xy renders the X and Y words of a move.
func xy(p kinematics.Point) string {
	return "X" + num(p.X) + " Y" + num(p.Y)
}

// body accumulates the lines of a gcode option.
type body struct {
	lines []string
	depth int
}

func (b *body) line(s string) {
	b.lines = append(b.lines, strings.Repeat(indent, b.depth)+s)
}

// cmd appends one G-code command.
func (b *body) cmd(format string, args ...interface{}) {
	b.line(fmt.Sprintf(format, args...))
}

// when appends cmd only if cond holds.
func (b *body) when(cond bool, format string, args ...interface{}) {
	if cond {
		b.cmd(format, args...)
	}
}

// comment appends a "#" comment line.
func (b *body) comment(text string) {
	b.line("# " + text)
}

// set appends a Jinja assignment.
func (b *body) set(name, value string) {
	b.line(fmt.Sprintf("{%% set %s = %s %%}", name, value))
}

// homeGuard homes only when some axis is not homed yet.
func (b *body) homeGuard() {
	b.ifBlock(`"xyz" not in printer.toolhead.homed_axes`, func() {
		b.cmd("G28")
	})
}

func (b *body) ifBlock(cond string, fn func()) {
	b.line(fmt.Sprintf("{%% if %s %%}", cond))
	b.depth++
	fn()
	b.depth--
	b.line("{% endif %}")
}

// repeat emits fn's lines inside a Jinja for-loop of n iterations.
func (b *body) repeat(n int, fn func()) {
	b.line(fmt.Sprintf("{%% for i in range(%d) %%}", n))
	b.depth++
	fn()
	b.depth--
	b.line("{% endfor %}")
}

// liftZ sets lift_z to the current Z plus dz, capped at z_park and never
// below the current height.
func (b *body) liftZ(dz float64) {
	b.set("z", "printer.toolhead.position.z")
	b.set("lift_z", fmt.Sprintf("[[z + %s, %s]|min, z]|max", num(dz), userVar("z_park")))
}

// option is a single-line "key: value" pair.
type option struct {
	key   string
	value string
}

// section is one bracketed config section.
type section struct {
	header string
	opts   []option
	gcode  *body
}

func (s section) render(w *strings.Builder) {
	fmt.Fprintf(w, "[%s]\n", s.header)
	for _, o := range s.opts {
		fmt.Fprintf(w, "%s: %s\n", o.key, o.value)
	}
	if s.gcode != nil {
		w.WriteString("gcode:\n")
		for _, l := range s.gcode.lines {
			w.WriteString(indent)
			w.WriteString(l)
			w.WriteByte('\n')
		}
	}
	w.WriteByte('\n')
}

// writer builds the text of one document block.
type writer struct {
	strings.Builder
}

func (w *writer) banner(title string) {
	fmt.Fprintf(w, "%s\n# %s\n%s\n", bannerRule, title, bannerRule)
}

func (w *writer) section(s section) {
	s.render(&w.Builder)
}

// macro writes a [gcode_macro] section. fill may be nil for a macro with
// an empty body.
func (w *writer) macro(name, description string, fill func(b *body)) {
	b := &body{}
	if fill != nil {
		fill(b)
	}
	var opts []option
	if description != "" {
		opts = append(opts, option{"description", description})
	}
	w.section(section{header: "gcode_macro " + name, opts: opts, gcode: b})
}

// bare writes a section with no options, such as [pause_resume].
func (w *writer) bare(header string) {
	w.section(section{header: header})
}
