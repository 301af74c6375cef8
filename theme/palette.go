package theme

import (
	"bufio"
	_ "embed"
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

//go:embed palettes/plasma.gpl
var plasmaGPL string

var ErrInvalidColor = errors.New("invalid color")

type RGB [3]uint8

// ParseHex parses "#rrggbb" (the leading # is optional)
func ParseHex(s string) (RGB, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return RGB{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return RGB{uint8(v >> 16), uint8(v >> 8), uint8(v)}, nil
}

// Hex formats the color as #rrggbb
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}

// RGBA converts to an opaque image color
func (c RGB) RGBA() color.RGBA {
	return color.RGBA{c[0], c[1], c[2], 0xff}
}

// Darker scales every component by f (0-1)
func (c RGB) Darker(f float64) RGB {
	return RGB{uint8(float64(c[0]) * f), uint8(float64(c[1]) * f), uint8(float64(c[2]) * f)}
}

type Palette struct {
	Name   string
	Colors []RGB
}

// ParseGPL reads a GIMP palette. Rows are "R G B [name]", a row with a value
// outside 0-255 is an error.
func ParseGPL(r io.Reader) (*Palette, error) {
	p := &Palette{}
	scanner := bufio.NewScanner(r)

	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "", line[0] == '#', line == "GIMP Palette", strings.HasPrefix(line, "Columns:"):
			continue
		case strings.HasPrefix(line, "Name:"):
			p.Name = strings.TrimSpace(line[len("Name:"):])
			continue
		}

		c, ok, err := parseGPLRow(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		if ok {
			p.Colors = append(p.Colors, c)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if len(p.Colors) == 0 {
		return nil, errors.New("no colors found in palette")
	}
	return p, nil
}

// parseGPLRow reports ok=false for rows that are not color rows at all
func parseGPLRow(line string) (c RGB, ok bool, err error) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return c, false, nil
	}
	for i := range c {
		v, err := strconv.Atoi(fields[i])
		if err != nil {
			return c, false, nil
		}
		if v < 0 || v > 255 {
			return c, false, fmt.Errorf("%w: component %d out of range", ErrInvalidColor, v)
		}
		c[i] = uint8(v)
	}
	return c, true, nil
}

func LoadGPL(path string) (*Palette, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p, err := ParseGPL(f)
	if err != nil {
		return nil, fmt.Errorf("palette %s: %w", path, err)
	}
	return p, nil
}

// DefaultPalette returns the built-in plasma palette
func DefaultPalette() *Palette {
	p, err := ParseGPL(strings.NewReader(plasmaGPL))
	if err != nil {
		panic(fmt.Sprintf("embedded palette: %v", err))
	}
	return p
}

// Lookup blends linearly between neighbouring palette entries, norm is
// clamped to 0-1
func (p *Palette) Lookup(norm float64) RGB {
	last := len(p.Colors) - 1
	pos := math.Max(0, math.Min(1, norm)) * float64(last)
	i := int(pos)
	if i >= last {
		return p.Colors[last]
	}

	a, b := p.Colors[i], p.Colors[i+1]
	frac := pos - float64(i)
	var out RGB
	for k := range out {
		out[k] = uint8(math.Round(float64(a[k]) + (float64(b[k])-float64(a[k]))*frac))
	}
	return out
}
