package preview

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// DotRadius is the radius of Dot markers.
const DotRadius = 5.0

// MediaType is the content type of SVG output.
const MediaType = "image/svg+xml"

// SVG is a Canvas that records shapes as SVG elements.
type SVG struct {
	width  float64
	height float64
	elems  []string
}

// NewSVG creates an empty SVG canvas of the given size.
func NewSVG(width, height float64) *SVG {
	return &SVG{width: width, height: height}
}

func f(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (s Style) attrs() string {
	var sb strings.Builder
	fill := s.Fill
	if fill == "" {
		fill = "none"
	}
	fmt.Fprintf(&sb, ` fill="%s"`, fill)
	if s.Stroke != "" {
		width := s.Width
		if width == 0 {
			width = 1
		}
		fmt.Fprintf(&sb, ` stroke="%s" stroke-width="%s"`, s.Stroke, f(width))
	}
	if len(s.Dash) > 0 {
		parts := make([]string, len(s.Dash))
		for i, d := range s.Dash {
			parts[i] = f(d)
		}
		fmt.Fprintf(&sb, ` stroke-dasharray="%s"`, strings.Join(parts, " "))
	}
	return sb.String()
}

func (c *SVG) Rect(x, y, w, h float64, s Style) {
	c.elems = append(c.elems, fmt.Sprintf(`<rect x="%s" y="%s" width="%s" height="%s"%s/>`,
		f(x), f(y), f(w), f(h), s.attrs()))
}

func (c *SVG) Circle(cx, cy, r float64, s Style) {
	c.elems = append(c.elems, fmt.Sprintf(`<circle cx="%s" cy="%s" r="%s"%s/>`,
		f(cx), f(cy), f(r), s.attrs()))
}

func (c *SVG) Line(x1, y1, x2, y2 float64, s Style) {
	c.elems = append(c.elems, fmt.Sprintf(`<line x1="%s" y1="%s" x2="%s" y2="%s"%s/>`,
		f(x1), f(y1), f(x2), f(y2), s.attrs()))
}

func (c *SVG) Dot(x, y float64, s Style) {
	c.Circle(x, y, DotRadius, s)
}

// Bytes returns the complete SVG document.
func (c *SVG) Bytes() []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s">`+"\n",
		f(c.width), f(c.height), f(c.width), f(c.height))
	for _, e := range c.elems {
		buf.WriteString("  ")
		buf.WriteString(e)
		buf.WriteByte('\n')
	}
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

// WriteTo implements io.WriterTo.
func (c *SVG) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(c.Bytes())
	return int64(n), err
}
