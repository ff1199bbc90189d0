package postprocess

import (
	"image"
	"image/color"
	"strconv"

	"github.com/fogleman/gg"

	"image-morpher/internal/geom"
	"image-morpher/internal/raster"
)

// MeshStyle controls DrawMesh.
type MeshStyle struct {
	LineWidth   float64
	LineColor   color.Color
	PointRadius float64 // zero hides the landmarks
	PointColor  color.Color
	Labels      bool
}

// DefaultMeshStyle draws thin green edges and red landmarks.
func DefaultMeshStyle() MeshStyle {
	return MeshStyle{
		LineWidth:   1,
		LineColor:   color.RGBA{R: 0, G: 220, B: 0, A: 255},
		PointRadius: 2.5,
		PointColor:  color.RGBA{R: 230, G: 0, B: 0, A: 255},
	}
}

// DrawMesh renders r with the triangulation tris over pts drawn on top.
func DrawMesh(r *raster.Raster, pts geom.PointSet, tris []geom.Triangle, style MeshStyle) (image.Image, error) {
	ctx := gg.NewContext(r.Width, r.Height)
	ctx.DrawImage(r.ToImage(), 0, 0)

	ctx.SetStrokeStyle(gg.NewSolidPattern(style.LineColor))
	ctx.SetLineWidth(style.LineWidth)
	for _, t := range tris {
		v, err := t.Vertices(pts)
		if err != nil {
			return nil, err
		}
		ctx.MoveTo(v[0].X, v[0].Y)
		ctx.LineTo(v[1].X, v[1].Y)
		ctx.LineTo(v[2].X, v[2].Y)
		ctx.ClosePath()
		ctx.Stroke()
	}

	if style.PointRadius > 0 {
		ctx.SetFillStyle(gg.NewSolidPattern(style.PointColor))
		for i, p := range pts {
			ctx.DrawCircle(p.X, p.Y, style.PointRadius)
			ctx.Fill()
			if style.Labels {
				ctx.DrawStringAnchored(strconv.Itoa(i), p.X+style.PointRadius+1, p.Y, 0, 0.5)
			}
		}
	}
	return ctx.Image(), nil
}
