// Package pointfile reads and writes landmark correspondence files: one
// "x y" pair per line, whitespace separated. Blank lines and lines starting
// with '#' are ignored.
package pointfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"image-morpher/internal/geom"
)

// DefaultPath returns the point file conventionally stored next to an image.
func DefaultPath(imagePath string) string {
	return imagePath + ".txt"
}

// Load reads the point file at path.
func Load(path string) (geom.PointSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("pointfile: open %s: %w", path, err)
	}
	defer f.Close()

	ps, err := Parse(f, path)
	if err != nil {
		return nil, fmt.Errorf("pointfile: parse %s: %w", path, err)
	}
	return ps, nil
}

// Parse reads points from r. name identifies the input in errors.
func Parse(r io.Reader, name string) (geom.PointSet, error) {
	var ps geom.PointSet
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 2 {
			return nil, &geom.ValidationError{
				Input:  name,
				Reason: fmt.Sprintf("line %d: expected 2 coordinates, got %d", line, len(fields)),
			}
		}
		x, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, &geom.ValidationError{Input: name, Reason: fmt.Sprintf("line %d: x: %v", line, err)}
		}
		y, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, &geom.ValidationError{Input: name, Reason: fmt.Sprintf("line %d: y: %v", line, err)}
		}
		ps = append(ps, geom.Point{X: x, Y: y})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if err := ps.Validate(name); err != nil {
		return nil, err
	}
	return ps, nil
}

// Write stores ps at path in the format Parse reads.
func Write(path string, ps geom.PointSet) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("pointfile: create %s: %w", path, err)
	}
	if err := Encode(f, ps); err != nil {
		f.Close()
		return fmt.Errorf("pointfile: write %s: %w", path, err)
	}
	return f.Close()
}

// Encode writes ps to w, one point per line.
func Encode(w io.Writer, ps geom.PointSet) error {
	bw := bufio.NewWriter(w)
	for _, p := range ps {
		bw.WriteString(strconv.FormatFloat(p.X, 'f', -1, 64))
		bw.WriteByte(' ')
		bw.WriteString(strconv.FormatFloat(p.Y, 'f', -1, 64))
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// WithCorners returns ps followed by the four corners of a width×height
// image, skipping corners already present. Anchoring the corners keeps the
// whole frame inside the triangulated hull.
func WithCorners(ps geom.PointSet, width, height int) geom.PointSet {
	maxX, maxY := float64(width-1), float64(height-1)
	corners := []geom.Point{{X: 0, Y: 0}, {X: maxX, Y: 0}, {X: maxX, Y: maxY}, {X: 0, Y: maxY}}

	out := ps.Clone()
	for _, c := range corners {
		if !contains(out, c) {
			out = append(out, c)
		}
	}
	return out
}

func contains(ps geom.PointSet, p geom.Point) bool {
	for _, q := range ps {
		if q.Eq(p, 0) {
			return true
		}
	}
	return false
}
