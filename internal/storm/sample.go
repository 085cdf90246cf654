package storm

import (
	"math"
	"math/rand"
)

// sampleDisk draws n points independently and uniformly over the disk of
// the given radius centred on the origin. The radial coordinate takes a
// square-root transform; drawing it uniformly instead would pile points
// toward the centre rather than spread them evenly by area.
func sampleDisk(rng *rand.Rand, n int, radius float64) []Point {
	points := make([]Point, n)
	for i := range points {
		theta := rng.Float64() * 2 * math.Pi
		r := math.Sqrt(rng.Float64()) * radius
		points[i] = Point{X: r * math.Cos(theta), Y: r * math.Sin(theta)}
	}
	return points
}
