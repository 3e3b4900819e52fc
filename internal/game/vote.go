package game

// VoteTally is the outcome of a day vote.
type VoteTally struct {
	Counts map[string]int
	Skips  int
	Max    int
	Leader string // empty on a tie or when nobody was voted
}

// Eliminated returns who dies, or "" when skips win or the vote is tied.
func (t VoteTally) Eliminated() string {
	if t.Skips > 0 && t.Skips >= t.Max {
		return ""
	}
	return t.Leader
}

// tallyVotes counts votes per target. Once the maximum is tied the leader
// stays empty until a strictly higher count shows up.
func tallyVotes(votes map[string]string, skips map[string]struct{}) VoteTally {
	t := VoteTally{Counts: make(map[string]int), Skips: len(skips)}
	for _, target := range votes {
		t.Counts[target]++
	}

	for target, n := range t.Counts {
		switch {
		case n > t.Max:
			t.Max = n
			t.Leader = target
		case n == t.Max:
			t.Leader = ""
		}
	}
	return t
}

// resolveVote kills the vote winner, if any, and returns the deaths.
func resolveVote(roster map[string]*Player, votes map[string]string, skips map[string]struct{}) []string {
	target := tallyVotes(votes, skips).Eliminated()
	if target == "" {
		return nil
	}
	return kill(roster, target)
}
