package tessellate_test

import (
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

func sdfTranslate(x, y, z float64) sdf.M44 {
	return sdf.Translate3d(v3.Vec{X: x, Y: y, Z: z})
}
