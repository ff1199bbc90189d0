package mathutil

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"image-morpher/internal/geom"
)

// collinearEps bounds the source triangle area below which the affine
// system is treated as singular even if LU happens to succeed.
const collinearEps = 1e-10

// SolveAffine returns the unique affine map taking src[i] to dst[i].
//
// Each correspondence contributes two rows to a 6×6 system
//
//	| sx sy 1  0  0 0 | |a|   |dx|
//	|  0  0 0 sx sy 1 | |b| = |dy|
//
// whose solution (a..f) fills the top two rows of the result.
// Collinear or coincident source points yield a *geom.DegenerateGeometryError.
func SolveAffine(src, dst [3]geom.Point) (Mat3, error) {
	if math.Abs(geom.SignedArea(src[0], src[1], src[2])) < collinearEps {
		return Mat3{}, &geom.DegenerateGeometryError{
			Input:  "source triangle",
			Points: src,
			Err:    errors.New("points are collinear"),
		}
	}

	a := mat.NewDense(6, 6, nil)
	b := mat.NewVecDense(6, nil)
	for i, s := range src {
		a.SetRow(2*i, []float64{s.X, s.Y, 1, 0, 0, 0})
		a.SetRow(2*i+1, []float64{0, 0, 0, s.X, s.Y, 1})
		b.SetVec(2*i, dst[i].X)
		b.SetVec(2*i+1, dst[i].Y)
	}

	var h mat.VecDense
	if err := h.SolveVec(a, b); err != nil {
		return Mat3{}, &geom.DegenerateGeometryError{
			Input:  "source triangle",
			Points: src,
			Err:    errors.Wrapf(err, "solve affine %v -> %v", src, dst),
		}
	}

	return Mat3{
		h.AtVec(0), h.AtVec(1), h.AtVec(2),
		h.AtVec(3), h.AtVec(4), h.AtVec(5),
		0, 0, 1,
	}, nil
}
