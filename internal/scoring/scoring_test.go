package scoring

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHot(t *testing.T) {
	epoch := time.Unix(Epoch, 0)

	// At the epoch the time term vanishes and hot is the signed log of the
	// vote margin.
	assert.InDelta(t, math.Log10(5), Hot(10, 5, epoch), 1e-12)
	assert.InDelta(t, -math.Log10(5), Hot(5, 10, epoch), 1e-12)

	// A zero margin clamps the log argument to 1.
	assert.InDelta(t, 0, Hot(7, 7, epoch), 1e-12)

	// 45000 seconds past the epoch adds exactly 1.
	assert.InDelta(t, 1, Hot(0, 0, epoch.Add(45000*time.Second)), 1e-12)
}

func TestControversial(t *testing.T) {
	assert.Equal(t, 0.0, Controversial(0, 0))

	// One-sided votes raise the total to the 0th power.
	assert.InDelta(t, 1, Controversial(10, 0), 1e-12)
	assert.InDelta(t, 1, Controversial(0, 10), 1e-12)

	// An even split is the full total.
	assert.InDelta(t, 4, Controversial(2, 2), 1e-12)

	// min/max ordering doesn't matter.
	assert.InDelta(t, Controversial(3, 9), Controversial(9, 3), 1e-12)
	assert.InDelta(t, math.Pow(12, 3.0/9.0), Controversial(3, 9), 1e-12)
}

func TestConfidence(t *testing.T) {
	assert.Equal(t, 0.0, Confidence(0, 0))

	// A single upvote: phat=1, n=1 collapses to 1/(1+z^2).
	z := 1.2815515655446004
	assert.InDelta(t, 1/(1+z*z), Confidence(1, 1), 1e-12)

	// The lower bound is strictly below the raw fraction for finite n.
	assert.Less(t, Confidence(9, 10), 0.9)

	// More votes at the same fraction raise confidence.
	assert.Greater(t, Confidence(90, 100), Confidence(9, 10))
}

func TestBest(t *testing.T) {
	assert.Equal(t, 0.0, Best(0, 0))

	// s=0.5 is a fixed point.
	assert.InDelta(t, 0.5, Best(5, 10), 1e-12)

	// Small totals get pulled hard toward 0.5.
	assert.InDelta(t, 0.75-0.25*math.Pow(2, -math.Log10(5)), Best(3, 4), 1e-12)

	// Larger totals converge toward the raw fraction.
	assert.Greater(t, Best(750, 1000), Best(3, 4))
	assert.Less(t, Best(750, 1000), 0.75)
}

func TestPurity(t *testing.T) {
	created := time.Unix(Epoch+98765, 0)

	for i := 0; i < 3; i++ {
		assert.Equal(t, Hot(12, 4, created), Hot(12, 4, created))
		assert.Equal(t, Best(12, 16), Best(12, 16))
		assert.Equal(t, Confidence(12, 16), Confidence(12, 16))
		assert.Equal(t, Controversial(12, 4), Controversial(12, 4))
	}
}
