/*
DESCRIPTION
  match.go provides brute force Hamming matching of binary descriptors.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package register

import "sort"

const defaultGoodMatchPercent = 0.15

// Match pairs a query descriptor with its nearest train descriptor.
type Match struct {
	Query, Train int
	Distance     int
}

// MatchFeatures finds the nearest train descriptor for every query
// descriptor by Hamming distance and returns the best fraction good of the
// matches, ordered by ascending distance.
func MatchFeatures(query, train Features, good float64) []Match {
	if len(query.Descriptors) == 0 || len(train.Descriptors) == 0 {
		return nil
	}

	matches := make([]Match, 0, len(query.Descriptors))
	for qi, q := range query.Descriptors {
		best, bestDist := -1, 257
		for ti, t := range train.Descriptors {
			if d := q.Distance(t); d < bestDist {
				best, bestDist = ti, d
			}
		}
		matches = append(matches, Match{Query: qi, Train: best, Distance: bestDist})
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Distance < matches[j].Distance })
	n := int(float64(len(matches)) * good)
	return matches[:n]
}
