package decision

// Confidence returns winner votes / total decoded attempts, in [0,1].
// It is a pure function of the vote distribution, fully reproducible
// from logged results.
func Confidence(dist VoteDistribution, winner Value, totalDecoded int) float64 {
	if totalDecoded <= 0 {
		return 0
	}
	c := float64(dist[winner.Key()]) / float64(totalDecoded)
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
