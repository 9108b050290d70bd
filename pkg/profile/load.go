package profile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Kanrog/kanrog.github.io/pkg/errors"
)

// Format is the encoding of a profile document.
type Format int

const (
	FormatYAML Format = iota
	FormatJSON
)

// FormatForPath picks the format from a file extension; anything that is not
// .json is read as YAML.
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// thermal captures whether a document set the material or temperatures, so
// presets and manual temperatures combine the same way they do in the form.
type thermal struct {
	Material  *Material `json:"material" yaml:"material"`
	PrintTemp *float64  `json:"print_temp" yaml:"print_temp"`
	BedTemp   *float64  `json:"bed_temp" yaml:"bed_temp"`
}

// Load reads a profile file.
func Load(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, errors.ProfileParseError(path, err)
	}
	p, err := Parse(data, FormatForPath(path))
	if err != nil {
		if herr, ok := err.(*errors.HostError); ok {
			herr.SetFile(path)
		}
		return Profile{}, err
	}
	return p, nil
}

// Decode reads a YAML profile from r.
func Decode(r io.Reader) (Profile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Profile{}, errors.ProfileParseError("", err)
	}
	return Parse(data, FormatYAML)
}

// Parse decodes a profile document over Default(). Fields the document
// leaves out keep their defaults; unknown fields are rejected.
//
// A material selects its preset temperatures. An explicit temperature that
// differs from the preset switches the material to Custom.
func Parse(data []byte, format Format) (Profile, error) {
	p := Default()
	var th thermal

	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&p); err != nil && err != io.EOF {
			return Profile{}, errors.ProfileParseError("", err)
		}
		if len(bytes.TrimSpace(data)) > 0 {
			if err := json.Unmarshal(data, &th); err != nil {
				return Profile{}, errors.ProfileParseError("", err)
			}
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&p); err != nil && err != io.EOF {
			return Profile{}, errors.ProfileParseError("", err)
		}
		if err := yaml.Unmarshal(data, &th); err != nil {
			return Profile{}, errors.ProfileParseError("", err)
		}
	}

	p.applyThermal(th)
	if err := p.fillDefaults(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

func (p *Profile) applyThermal(th thermal) {
	if th.Material != nil {
		p.ApplyMaterial(*th.Material)
	}
	if th.PrintTemp != nil && *th.PrintTemp != p.PrintTemp {
		p.SetPrintTemp(*th.PrintTemp)
	}
	if th.BedTemp != nil && *th.BedTemp != p.BedTemp {
		p.SetBedTemp(*th.BedTemp)
	}
}

// fillDefaults restores defaults for fields a document explicitly blanked.
func (p *Profile) fillDefaults() error {
	if p.LED.Name == "" {
		p.LED.Name = DefaultLEDName
	}
	if err := CheckLEDName(p.LED.Name); err != nil {
		return err
	}
	if p.LED.IdleColor == "" {
		p.LED.IdleColor = White
	}
	if p.LED.PrintColor == "" {
		p.LED.PrintColor = Green
	}
	if p.Probe == "" {
		p.Probe = ProbeNone
	}
	return nil
}

// CheckLEDName rejects names that cannot be a Klipper object name.
func CheckLEDName(name string) error {
	if name == "" || strings.ContainsAny(name, " \t\n[]") {
		return errors.ProfileFieldError("led.name", name, "must be a single word")
	}
	return nil
}

// Marshal encodes the profile as YAML.
func (p Profile) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return nil, fmt.Errorf("profile: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("profile: encode: %w", err)
	}
	return buf.Bytes(), nil
}
