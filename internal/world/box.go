// Package world provides the spatial substrate of a swarm run: the bounded box agents live
// in, the neighbour graph derived from their positions, and the environmental field.
package world

import (
	"math"
	"math/rand/v2"

	"github.com/talgya/swarmsim/internal/config"
)

// Box is a D-dimensional axis-aligned region with a boundary mode.
type Box struct {
	Min  []float64
	Max  []float64
	Mode config.Boundary
}

// NewBox validates the bounds and copies them into a Box.
func NewBox(b config.Bounds, mode config.Boundary) (Box, error) {
	if err := b.Validate(); err != nil {
		return Box{}, err
	}
	return Box{
		Min:  append([]float64(nil), b.Min...),
		Max:  append([]float64(nil), b.Max...),
		Mode: mode,
	}, nil
}

// Dim returns the spatial dimension.
func (b Box) Dim() int {
	return len(b.Min)
}

// Extent returns the edge length along axis i.
func (b Box) Extent(i int) float64 {
	return b.Max[i] - b.Min[i]
}

// Volume returns the product of all edge lengths.
func (b Box) Volume() float64 {
	v := 1.0
	for i := range b.Min {
		v *= b.Extent(i)
	}
	return v
}

// Sample draws a position uniformly inside the box.
func (b Box) Sample(rng *rand.Rand) []float64 {
	p := make([]float64, b.Dim())
	for i := range p {
		p[i] = b.Min[i] + rng.Float64()*b.Extent(i)
	}
	return p
}

// Confine brings a position back inside the box and returns the adjusted position and
// velocity. Reflection mirrors the coordinate and flips the matching velocity component;
// wrapping treats the box as a torus. The inputs are not modified.
func (b Box) Confine(pos, vel []float64) ([]float64, []float64) {
	p := append([]float64(nil), pos...)
	v := append([]float64(nil), vel...)
	for i := range p {
		l := b.Extent(i)
		switch b.Mode {
		case config.BoundaryWrap:
			t := math.Mod(p[i]-b.Min[i], l)
			if t < 0 {
				t += l
			}
			if t >= l {
				t = 0
			}
			p[i] = b.Min[i] + t
		default:
			if p[i] >= b.Min[i] && p[i] <= b.Max[i] {
				continue
			}
			// Fold onto a period of 2l: an odd number of wall hits mirrors the
			// coordinate and reverses the velocity.
			off := p[i] - b.Min[i]
			k := math.Floor(off / l)
			t := off - k*l
			if int64(k)%2 != 0 {
				t = l - t
				if i < len(v) {
					v[i] = -v[i]
				}
			}
			p[i] = b.Min[i] + t
		}
	}
	return p, v
}

// Delta returns the displacement from a to c. On a torus each component takes the
// shortest way around.
func (b Box) Delta(a, c []float64) []float64 {
	d := make([]float64, len(a))
	for i := range a {
		d[i] = c[i] - a[i]
		if b.Mode == config.BoundaryWrap {
			l := b.Extent(i)
			if d[i] > l/2 {
				d[i] -= l
			} else if d[i] < -l/2 {
				d[i] += l
			}
		}
	}
	return d
}

// Distance2 returns the squared distance between a and c under the boundary mode.
func (b Box) Distance2(a, c []float64) float64 {
	sum := 0.0
	for i := range a {
		d := c[i] - a[i]
		if b.Mode == config.BoundaryWrap {
			l := b.Extent(i)
			if d > l/2 {
				d -= l
			} else if d < -l/2 {
				d += l
			}
		}
		sum += d * d
	}
	return sum
}
