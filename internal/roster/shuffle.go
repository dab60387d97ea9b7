package roster

import (
	"math/rand/v2"
)

// Shuffle pools every player (unassigned first, then rosters in selection
// order), permutes them uniformly and deals them out to the selected teams
// in contiguous chunks. The pool ends up empty.
func (s *State) Shuffle(rng *rand.Rand) bool {
	if len(s.Teams) == 0 {
		return false
	}
	pool := s.allPlayers()
	if len(pool) == 0 {
		return false
	}

	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	s.assign(deal(pool, s.Selected(), s.Config.ShuffleMode))
	return true
}

func (s State) allPlayers() []string {
	pool := make([]string, 0, s.Total())
	pool = append(pool, s.Unassigned...)
	for _, t := range s.Teams {
		pool = append(pool, t.Players...)
	}
	return pool
}

// deal splits players across teams. Balanced sizes differ by at most one,
// larger chunks first; chunked cuts ceil(N/K) pieces and may starve the tail.
func deal(players []string, teams []TeamID, mode ShuffleMode) map[TeamID][]string {
	n, k := len(players), len(teams)
	out := make(map[TeamID][]string, k)

	start := 0
	for i, id := range teams {
		size := chunkSize(n, k, i, mode)
		end := min(start+size, n)
		chunk := make([]string, end-start)
		copy(chunk, players[start:end])
		out[id] = chunk
		start = end
	}
	return out
}

func chunkSize(n, k, i int, mode ShuffleMode) int {
	if mode == ShuffleChunked {
		return (n + k - 1) / k
	}
	size := n / k
	if i < n%k {
		size++
	}
	return size
}

// assign replaces every selected roster with its entry in a and clears the
// pool. Teams missing from a end up empty.
func (s *State) assign(a map[TeamID][]string) {
	s.Unassigned = []string{}
	for i := range s.Teams {
		players := a[s.Teams[i].ID]
		if players == nil {
			players = []string{}
		}
		s.Teams[i].Players = append([]string{}, players...)
	}
}

// NewRand returns a PCG generator seeded from seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
