package paginate

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Crop paints rows s of src onto a fresh white canvas of the slice's size.
func Crop(src image.Image, s Slice) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), s.Height()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, image.Pt(b.Min.X, b.Min.Y+s.Top), draw.Over)
	return dst
}
