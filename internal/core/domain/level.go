package domain

import "math"

// levelXPCoef scales the profile level curve: XP_req(L) = 100 * (L-1)^1.5.
const levelXPCoef = 100.0

// XPRequiredForLevel returns the total XP needed to reach the given level.
// Level 1 requires 0 XP.
func XPRequiredForLevel(level int) int {
	if level <= 1 {
		return 0
	}
	req := levelXPCoef * math.Pow(float64(level-1), 1.5)
	return int(math.Ceil(req))
}

// LevelForTotalXP returns the highest level L such that totalXP >= XPRequiredForLevel(L).
func LevelForTotalXP(totalXP int) int {
	if totalXP <= 0 {
		return 1
	}

	low, high := 1, 2
	for XPRequiredForLevel(high) <= totalXP {
		low = high
		high *= 2
		if high > 1_000_000 {
			break
		}
	}

	for low+1 < high {
		mid := low + (high-low)/2
		if XPRequiredForLevel(mid) <= totalXP {
			low = mid
		} else {
			high = mid
		}
	}
	return low
}
