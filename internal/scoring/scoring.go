// Package scoring holds the pure ranking math for post scores.
//
// resources:
//
//	https://github.com/reddit-archive/reddit/blob/master/r2/r2/lib/db/_sorts.pyx
//	https://steamdb.info/blog/steamdb-rating
//	https://www.evanmiller.org/how-not-to-sort-by-average-rating.html
//	https://redditblog.com/2009/10/15/reddits-new-comment-sorting-system
package scoring

import (
	"math"
	"time"
)

// Epoch is the service epoch used by Hot, in unix seconds.
const Epoch = 1576242000

// zScore08 is the z-score of a two-sided 80% confidence interval (the
// one-sided 90% bound), norm.ppf(1 - (1 - 0.8) / 2).
const zScore08 = 1.2815515655446004

func sign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

// Hot ranks by vote margin with time decay anchored at the service epoch.
func Hot(up, down int, created time.Time) float64 {
	s := up - down
	abs := s
	if abs < 0 {
		abs = -abs
	}
	return float64(sign(s))*math.Log10(math.Max(float64(abs), 1)) + (float64(created.Unix())-Epoch)/45000
}

// Controversial is highest when votes are plentiful and evenly split.
func Controversial(up, down int) float64 {
	if up == 0 && down == 0 {
		return 0
	}
	lo, hi := up, down
	if lo > hi {
		lo, hi = hi, lo
	}
	return math.Pow(float64(up+down), float64(lo)/float64(hi))
}

// Confidence is the Wilson score lower bound on the upvote fraction.
func Confidence(up, total int) float64 {
	if total == 0 {
		return 0
	}
	n := float64(total)
	phat := float64(up) / n
	z := zScore08
	return (phat + z*z/(2*n) - z*math.Sqrt((phat*(1-phat)+z*z/(4*n))/n)) / (1 + z*z/n)
}

// Best pulls the raw upvote fraction toward 0.5, less so as totals grow.
func Best(up, total int) float64 {
	if total == 0 {
		return 0
	}
	s := float64(up) / float64(total)
	return s - (s-0.5)*math.Pow(2, -math.Log10(float64(total)+1))
}
