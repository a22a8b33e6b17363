// Package replacement provides the replacement policies that decide which way
// of a set should be evicted.
package replacement

import "log"

func mustBeValidShape(numSets, numWays int) {
	if numSets <= 0 {
		log.Panicf("number of sets must be positive, got %d", numSets)
	}

	if numWays <= 0 {
		log.Panicf("number of ways must be positive, got %d", numWays)
	}
}

func mustBeInRange(what string, v, n int) {
	if v < 0 || v >= n {
		log.Panicf("%s %d out of range [0, %d)", what, v, n)
	}
}
