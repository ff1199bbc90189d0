package geom

import "fmt"

// MinPoints is the smallest landmark count that can be triangulated.
const MinPoints = 3

// ValidationError reports malformed input: wrong counts, mismatched
// dimensions, out-of-range parameters. It is raised eagerly, before any
// pixel work starts.
type ValidationError struct {
	Input  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Input, e.Reason)
}

// DegenerateGeometryError reports a triangle whose corners are collinear or
// coincident, so no affine map can be solved for it.
type DegenerateGeometryError struct {
	Input    string
	Triangle *Triangle // nil when raised outside a triangulation
	Points   [3]Point
	Err      error
}

func (e *DegenerateGeometryError) Error() string {
	where := e.Input
	if e.Triangle != nil {
		where = fmt.Sprintf("%s triangle %v", e.Input, *e.Triangle)
	}
	msg := fmt.Sprintf("degenerate geometry in %s %v %v %v", where, e.Points[0], e.Points[1], e.Points[2])
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DegenerateGeometryError) Unwrap() error { return e.Err }

// InsufficientPointsError reports a point set too small to triangulate.
type InsufficientPointsError struct {
	Input string
	Got   int
}

func (e *InsufficientPointsError) Error() string {
	return fmt.Sprintf("%s: need at least %d points, got %d", e.Input, MinPoints, e.Got)
}
