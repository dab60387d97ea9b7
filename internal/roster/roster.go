package roster

import (
	"errors"
	"slices"
)

var ErrUnknownTeam = errors.New("unknown team")

type TeamID string

const (
	TeamRed    TeamID = "red"
	TeamOcean  TeamID = "ocean"
	TeamForest TeamID = "forest"
	TeamSun    TeamID = "sun"
	TeamViolet TeamID = "violet"
	TeamStone  TeamID = "stone"
)

// TeamInfo is one entry of the configured team catalog.
type TeamInfo struct {
	ID   TeamID `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

type ShuffleMode string

const (
	// ShuffleBalanced gives every team floor(N/K) or ceil(N/K) players.
	ShuffleBalanced ShuffleMode = "balanced"
	// ShuffleChunked cuts ceil(N/K)-sized chunks; trailing teams may get fewer or none.
	ShuffleChunked ShuffleMode = "chunked"
)

type Config struct {
	Teams         []TeamInfo
	ActivePlayers int
	MaxNameLength int
	ShuffleMode   ShuffleMode
}

const (
	DefaultActivePlayers = 30
	DefaultMaxNameLength = 12
)

func DefaultCatalog() []TeamInfo {
	return []TeamInfo{
		{ID: TeamRed, Name: "Red"},
		{ID: TeamOcean, Name: "Ocean"},
		{ID: TeamForest, Name: "Forest"},
		{ID: TeamSun, Name: "Sun"},
		{ID: TeamViolet, Name: "Violet"},
		{ID: TeamStone, Name: "Stone"},
	}
}

func DefaultConfig() Config {
	return Config{
		Teams:         DefaultCatalog(),
		ActivePlayers: DefaultActivePlayers,
		MaxNameLength: DefaultMaxNameLength,
		ShuffleMode:   ShuffleBalanced,
	}
}

// Lookup returns the catalog entry for id.
func (c Config) Lookup(id TeamID) (TeamInfo, bool) {
	for _, t := range c.Teams {
		if t.ID == id {
			return t, true
		}
	}
	return TeamInfo{}, false
}

type Team struct {
	ID      TeamID   `json:"id"`
	Name    string   `json:"name"`
	Players []string `json:"players"`
}

// State is the canonical roster. Teams holds exactly the selected teams, in
// selection order; a team id is selected iff it appears in Teams.
type State struct {
	Unassigned []string `json:"unassigned"`
	Teams      []Team   `json:"teams"`
	Config     Config   `json:"-"`
}

// NewState returns an empty roster with the given teams selected. Unknown
// and repeated ids are skipped.
func NewState(cfg Config, selected ...TeamID) State {
	s := State{
		Unassigned: []string{},
		Teams:      []Team{},
		Config:     cfg,
	}
	for _, id := range selected {
		if s.IsSelected(id) {
			continue
		}
		if info, ok := cfg.Lookup(id); ok {
			s.Teams = append(s.Teams, Team{ID: info.ID, Name: info.Name, Players: []string{}})
		}
	}
	return s
}

// Clone returns a deep copy; Apply relies on it to leave the input untouched.
func (s State) Clone() State {
	out := State{
		Unassigned: slices.Clone(s.Unassigned),
		Teams:      make([]Team, len(s.Teams)),
		Config:     s.Config,
	}
	if out.Unassigned == nil {
		out.Unassigned = []string{}
	}
	for i, t := range s.Teams {
		t.Players = slices.Clone(t.Players)
		if t.Players == nil {
			t.Players = []string{}
		}
		out.Teams[i] = t
	}
	return out
}

func (s State) Selected() []TeamID {
	ids := make([]TeamID, len(s.Teams))
	for i, t := range s.Teams {
		ids[i] = t.ID
	}
	return ids
}

func (s State) IsSelected(id TeamID) bool {
	return s.teamIndex(id) >= 0
}

// Team returns the selected team with the given id.
func (s State) Team(id TeamID) (Team, bool) {
	if i := s.teamIndex(id); i >= 0 {
		return s.Teams[i], true
	}
	return Team{}, false
}

func (s State) Total() int {
	n := len(s.Unassigned)
	for _, t := range s.Teams {
		n += len(t.Players)
	}
	return n
}

// Contains reports whether name is in the pool or on any roster.
func (s State) Contains(name string) bool {
	if slices.Contains(s.Unassigned, name) {
		return true
	}
	return s.teamOf(name) >= 0
}

func (s State) teamIndex(id TeamID) int {
	return slices.IndexFunc(s.Teams, func(t Team) bool { return t.ID == id })
}

func (s State) teamOf(name string) int {
	return slices.IndexFunc(s.Teams, func(t Team) bool { return slices.Contains(t.Players, name) })
}

// Equal compares rosters and selection, ignoring config.
func (s State) Equal(o State) bool {
	if !slices.Equal(s.Unassigned, o.Unassigned) || len(s.Teams) != len(o.Teams) {
		return false
	}
	for i := range s.Teams {
		a, b := s.Teams[i], o.Teams[i]
		if a.ID != b.ID || a.Name != b.Name || !slices.Equal(a.Players, b.Players) {
			return false
		}
	}
	return true
}

func removeName(list []string, name string) ([]string, bool) {
	i := slices.Index(list, name)
	if i < 0 {
		return list, false
	}
	return slices.Delete(list, i, i+1), true
}
