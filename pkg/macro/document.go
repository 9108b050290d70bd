// Package macro assembles the Klipper macro configuration for a machine
// profile. The document is built from named blocks in a fixed order; every
// piece of firmware syntax lives in render.go.
package macro

import (
	"strings"

	"github.com/Kanrog/kanrog.github.io/pkg/errors"
	"github.com/Kanrog/kanrog.github.io/pkg/profile"
	"github.com/Kanrog/kanrog.github.io/pkg/resolve"
)

// Filename is the name the document is offered for download under.
const Filename = "macros.cfg"

// MediaType is the content type of the document.
const MediaType = "text/plain; charset=utf-8"

// Block is one named part of the document.
type Block struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// Document is an assembled macro configuration.
type Document struct {
	Blocks []Block `json:"blocks"`
}

// String concatenates the blocks.
func (d Document) String() string {
	var sb strings.Builder
	for _, b := range d.Blocks {
		sb.WriteString(b.Text)
	}
	return sb.String()
}

// Names returns the block names in order.
func (d Document) Names() []string {
	names := make([]string, len(d.Blocks))
	for i, b := range d.Blocks {
		names[i] = b.Name
	}
	return names
}

// Block returns the named block.
func (d Document) Block(name string) (Block, bool) {
	for _, b := range d.Blocks {
		if b.Name == name {
			return b, true
		}
	}
	return Block{}, false
}

// Assemble renders the document for p with resolved parameters r. The same
// inputs always produce the same text.
func Assemble(p profile.Profile, r resolve.Params) Document {
	c := ctx{p: p, r: r}
	blocks := []Block{
		{BlockHeader, header(c)},
		{BlockVariables, variables(c)},
	}
	if p.UseLED {
		blocks = append(blocks, Block{BlockLighting, lighting(c)})
	}
	blocks = append(blocks,
		Block{BlockDiagnostics, diagnostics(c)},
		Block{BlockStress, stress(c)},
		Block{BlockCore, core(c)},
		Block{BlockUtility, utility(c)},
	)
	return Document{Blocks: blocks}
}

// Generate validates p and, when nothing blocks, resolves and assembles it.
// The validation result is returned in both cases so advisories can be
// shown next to the document.
func Generate(p profile.Profile) (Document, resolve.Result, error) {
	res := resolve.Validate(p)
	if blocking := res.Blocking(); len(blocking) > 0 {
		return Document{}, res, errors.ValidationBlockedError(len(blocking), blocking[0].String())
	}
	return Assemble(p, resolve.Resolve(p)), res, nil
}
