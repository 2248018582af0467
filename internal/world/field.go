package world

import (
	opensimplex "github.com/ojrac/opensimplex-go"
)

// Field is a smooth spatio-temporal scalar field in [-1, 1] built from simplex noise.
// Informed agents feel it as an activation drive and the greedy policy climbs it.
type Field struct {
	noise     opensimplex.Noise
	scale     float64 // spatial frequency
	timeScale float64 // temporal frequency
}

// NewField creates a field from a seed. Identical seeds give identical fields.
func NewField(seed int64, scale, timeScale float64) *Field {
	return &Field{
		noise:     opensimplex.NewNormalized(seed),
		scale:     scale,
		timeScale: timeScale,
	}
}

// At samples the field at a position and step. Dimensions beyond the third are ignored.
func (f *Field) At(pos []float64, step int) float64 {
	t := float64(step) * f.timeScale
	var v float64
	switch len(pos) {
	case 0:
		v = f.noise.Eval2(0, t)
	case 1:
		v = f.noise.Eval2(pos[0]*f.scale, t)
	case 2:
		v = f.noise.Eval3(pos[0]*f.scale, pos[1]*f.scale, t)
	default:
		v = f.noise.Eval4(pos[0]*f.scale, pos[1]*f.scale, pos[2]*f.scale, t)
	}
	return 2*v - 1
}

// Gradient estimates the spatial gradient at a position by central differences.
func (f *Field) Gradient(pos []float64, step int) []float64 {
	h := 0.1 / f.scale
	grad := make([]float64, len(pos))
	probe := append([]float64(nil), pos...)
	for i := range pos {
		if i >= 3 {
			break
		}
		probe[i] = pos[i] + h
		hi := f.At(probe, step)
		probe[i] = pos[i] - h
		lo := f.At(probe, step)
		probe[i] = pos[i]
		grad[i] = (hi - lo) / (2 * h)
	}
	return grad
}
