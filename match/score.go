package match

import (
	"gonum.org/v1/gonum/floats"

	"github.com/7blacky7/imagematch/embedding"
)

// Score maps the cosine similarity of two unit vectors from [-1, 1] to [0, 1].
// Vectors of different length score 0.
func Score(a, b embedding.Vector) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	cos := floats.Dot(a, b)
	return min(max((cos+1)/2, 0), 1)
}
