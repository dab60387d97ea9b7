package roster

import (
	"fmt"
	"slices"
)

// Rejection is why a registration was refused.
type Rejection string

const (
	RejectEmpty     Rejection = "empty"
	RejectDuplicate Rejection = "duplicate"
	RejectCapacity  Rejection = "capacity-exceeded"
)

// RejectionError is returned by Apply when AddPlayer refuses a name.
type RejectionError struct {
	Reason Rejection
	Name   string
}

func (e *RejectionError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("player rejected: %s", e.Reason)
	}
	return fmt.Sprintf("player %q rejected: %s", e.Name, e.Reason)
}

type Registration struct {
	Name      string         `json:"name"`
	Rejection Rejection      `json:"rejection,omitempty"`
	Report    SanitizeReport `json:"report"`
}

func (r Registration) OK() bool { return r.Rejection == "" }

// AddPlayer sanitizes raw and appends it to the unassigned pool.
// Checks run in order: empty, duplicate, capacity.
func (s *State) AddPlayer(raw string) Registration {
	name, rep := SanitizeName(raw, s.Config.MaxNameLength)
	reg := Registration{Name: name, Report: rep}

	switch {
	case name == "":
		reg.Rejection = RejectEmpty
	case s.Contains(name):
		reg.Rejection = RejectDuplicate
	case s.Config.ActivePlayers > 0 && s.Total() >= s.Config.ActivePlayers:
		reg.Rejection = RejectCapacity
	default:
		s.Unassigned = append(s.Unassigned, name)
	}
	return reg
}

// RemovePlayer deletes name from the unassigned pool.
func (s *State) RemovePlayer(name string) bool {
	var ok bool
	s.Unassigned, ok = removeName(s.Unassigned, name)
	return ok
}

// RemoveFromTeam sends name from its roster back to the pool.
func (s *State) RemoveFromTeam(name string) bool {
	i := s.teamOf(name)
	if i < 0 {
		return false
	}
	s.Teams[i].Players, _ = removeName(s.Teams[i].Players, name)
	s.Unassigned = append(s.Unassigned, name)
	return true
}

// MovePlayer transfers name from src to the end of target's roster.
func (s *State) MovePlayer(name string, src Source, target TeamID) bool {
	ti := s.teamIndex(target)
	if ti < 0 {
		return false
	}

	switch src.Kind {
	case SourceUnassigned:
		var ok bool
		if s.Unassigned, ok = removeName(s.Unassigned, name); !ok {
			return false
		}
	case SourceTeam:
		if src.TeamID == target {
			return false
		}
		si := s.teamIndex(src.TeamID)
		if si < 0 {
			return false
		}
		var ok bool
		if s.Teams[si].Players, ok = removeName(s.Teams[si].Players, name); !ok {
			return false
		}
	default:
		return false
	}

	s.Teams[ti].Players = append(s.Teams[ti].Players, name)
	return true
}

// MoveTeamRoster appends src's roster to target's and empties src.
func (s *State) MoveTeamRoster(src, target TeamID) bool {
	if src == target {
		return false
	}
	si, ti := s.teamIndex(src), s.teamIndex(target)
	if si < 0 || ti < 0 || len(s.Teams[si].Players) == 0 {
		return false
	}
	s.Teams[ti].Players = append(s.Teams[ti].Players, s.Teams[si].Players...)
	s.Teams[si].Players = []string{}
	return true
}

// AddAllUnassignedToTeam moves the whole pool, in order, onto target.
func (s *State) AddAllUnassignedToTeam(target TeamID) bool {
	ti := s.teamIndex(target)
	if ti < 0 || len(s.Unassigned) == 0 {
		return false
	}
	s.Teams[ti].Players = append(s.Teams[ti].Players, s.Unassigned...)
	s.Unassigned = []string{}
	return true
}

// ToggleTeamSelection selects id with an empty roster, or flushes its
// roster into the pool and deselects it.
func (s *State) ToggleTeamSelection(id TeamID) (selected bool, err error) {
	if i := s.teamIndex(id); i >= 0 {
		s.Unassigned = append(s.Unassigned, s.Teams[i].Players...)
		s.Teams = slices.Delete(s.Teams, i, i+1)
		return false, nil
	}
	info, ok := s.Config.Lookup(id)
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownTeam, id)
	}
	s.Teams = append(s.Teams, Team{ID: info.ID, Name: info.Name, Players: []string{}})
	return true, nil
}

// Reset empties the pool and every selected roster. Selection is kept.
func (s *State) Reset() bool {
	changed := len(s.Unassigned) > 0
	s.Unassigned = []string{}
	for i := range s.Teams {
		if len(s.Teams[i].Players) > 0 {
			changed = true
		}
		s.Teams[i].Players = []string{}
	}
	return changed
}
