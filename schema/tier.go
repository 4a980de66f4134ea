package schema

// Rank returns the position of t in TierOrder, or -1 for the sentinel and unknown values.
func (t Tier) Rank() int {
	for i, tier := range TierOrder {
		if tier == t {
			return i
		}
	}
	return -1
}

// Valid reports whether t is one of the four real tiers.
func (t Tier) Valid() bool {
	return t.Rank() >= 0
}

// TierAt returns the tier for a rank, clamped to the ends of TierOrder.
func TierAt(rank int) Tier {
	rank = min(max(rank, 0), len(TierOrder)-1)
	return TierOrder[rank]
}

// TierFromScore maps a 0-10 composite score onto a tier.
func TierFromScore(score float64) Tier {
	switch {
	case score >= 8.0:
		return ExcellentTier
	case score >= 7.0:
		return GoodTier
	case score >= 5.0:
		return AverageTier
	default:
		return WeakTier
	}
}
