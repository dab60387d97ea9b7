package roster

import (
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
)

var ErrNoChange = errors.New("command changed nothing")
var ErrUnsupportedCommand = errors.New("unsupported command")
var ErrInvalidCommand = errors.New("invalid command")

type CommandType string

const (
	CmdAddPlayer        CommandType = "AddPlayer"
	CmdRemovePlayer     CommandType = "RemovePlayer"
	CmdRemoveFromTeam   CommandType = "RemoveFromTeam"
	CmdMovePlayer       CommandType = "MovePlayer"
	CmdMoveTeam         CommandType = "MoveTeam"
	CmdAssignUnassigned CommandType = "AssignUnassigned"
	CmdToggleTeam       CommandType = "ToggleTeam"
	CmdShuffle          CommandType = "Shuffle"
	CmdReset            CommandType = "Reset"
)

/*
	CmdAddPlayer        -> EvtPlayerAdded
	CmdRemovePlayer     -> EvtPlayerRemoved
	CmdRemoveFromTeam   -> EvtPlayerReleased
	CmdMovePlayer       -> EvtPlayerMoved
	CmdMoveTeam         -> EvtRosterMoved
	CmdAssignUnassigned -> EvtPoolAssigned
	CmdToggleTeam       -> EvtTeamSelected | EvtTeamDeselected
	CmdShuffle          -> EvtTeamsShuffled (carries the dealt rosters so Reduce needs no rng)
	CmdReset            -> EvtRosterReset
*/

type Command struct {
	Type   CommandType
	Player string
	Source Source
	Team   TeamID // MoveTeam source, ToggleTeam subject
	Target TeamID
	Seed   uint64 // Shuffle only; zero draws a fresh seed
}

type EventType string

const (
	EvtPlayerAdded    EventType = "PlayerAdded"
	EvtPlayerRemoved  EventType = "PlayerRemoved"
	EvtPlayerReleased EventType = "PlayerReleased"
	EvtPlayerMoved    EventType = "PlayerMoved"
	EvtRosterMoved    EventType = "RosterMoved"
	EvtPoolAssigned   EventType = "PoolAssigned"
	EvtTeamSelected   EventType = "TeamSelected"
	EvtTeamDeselected EventType = "TeamDeselected"
	EvtTeamsShuffled  EventType = "TeamsShuffled"
	EvtRosterReset    EventType = "RosterReset"
)

type Event struct {
	Type       EventType           `json:"type"`
	Player     string              `json:"player,omitempty"`
	Source     *Source             `json:"source,omitempty"`
	Team       TeamID              `json:"team,omitempty"`
	Target     TeamID              `json:"target,omitempty"`
	Assignment map[TeamID][]string `json:"assignment,omitempty"`
}

// newSeed is swapped out by tests that need a fixed shuffle.
var newSeed = func() uint64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		panic(fmt.Sprintf("read random seed: %v", err))
	}
	return binary.LittleEndian.Uint64(b[:])
}

// Apply runs cmd against a copy of s. On success it returns the emitted
// events and the new state; otherwise s is returned unchanged together with
// ErrNoChange, a *RejectionError, or a validation error.
func Apply(s State, cmd Command) ([]Event, State, error) {
	next := s.Clone()

	switch cmd.Type {
	case CmdAddPlayer:
		reg := next.AddPlayer(cmd.Player)
		if !reg.OK() {
			return nil, s, &RejectionError{Reason: reg.Rejection, Name: reg.Name}
		}
		return []Event{{Type: EvtPlayerAdded, Player: reg.Name}}, next, nil

	case CmdRemovePlayer:
		if !next.RemovePlayer(cmd.Player) {
			return nil, s, ErrNoChange
		}
		return []Event{{Type: EvtPlayerRemoved, Player: cmd.Player}}, next, nil

	case CmdRemoveFromTeam:
		team := teamOfPlayer(next, cmd.Player)
		if !next.RemoveFromTeam(cmd.Player) {
			return nil, s, ErrNoChange
		}
		return []Event{{Type: EvtPlayerReleased, Player: cmd.Player, Team: team}}, next, nil

	case CmdMovePlayer:
		if !cmd.Source.Valid() {
			return nil, s, fmt.Errorf("%w: bad source %+v", ErrInvalidCommand, cmd.Source)
		}
		if !next.MovePlayer(cmd.Player, cmd.Source, cmd.Target) {
			return nil, s, ErrNoChange
		}
		src := cmd.Source
		return []Event{{Type: EvtPlayerMoved, Player: cmd.Player, Source: &src, Target: cmd.Target}}, next, nil

	case CmdMoveTeam:
		if !next.MoveTeamRoster(cmd.Team, cmd.Target) {
			return nil, s, ErrNoChange
		}
		return []Event{{Type: EvtRosterMoved, Team: cmd.Team, Target: cmd.Target}}, next, nil

	case CmdAssignUnassigned:
		if !next.AddAllUnassignedToTeam(cmd.Target) {
			return nil, s, ErrNoChange
		}
		return []Event{{Type: EvtPoolAssigned, Target: cmd.Target}}, next, nil

	case CmdToggleTeam:
		selected, err := next.ToggleTeamSelection(cmd.Team)
		if err != nil {
			return nil, s, err
		}
		if selected {
			return []Event{{Type: EvtTeamSelected, Team: cmd.Team}}, next, nil
		}
		return []Event{{Type: EvtTeamDeselected, Team: cmd.Team}}, next, nil

	case CmdShuffle:
		seed := cmd.Seed
		if seed == 0 {
			seed = newSeed()
		}
		if !next.Shuffle(NewRand(seed)) {
			return nil, s, ErrNoChange
		}
		return []Event{{Type: EvtTeamsShuffled, Assignment: assignment(next)}}, next, nil

	case CmdReset:
		if !next.Reset() {
			return nil, s, ErrNoChange
		}
		return []Event{{Type: EvtRosterReset}}, next, nil

	default:
		return nil, s, ErrUnsupportedCommand
	}
}

// Reduce rebuilds a roster from an event log, starting from initial.
func Reduce(initial State, events []Event) State {
	s := initial.Clone()
	for _, event := range events {
		switch event.Type {
		case EvtPlayerAdded:
			s.Unassigned = append(s.Unassigned, event.Player)
		case EvtPlayerRemoved:
			s.RemovePlayer(event.Player)
		case EvtPlayerReleased:
			s.RemoveFromTeam(event.Player)
		case EvtPlayerMoved:
			if event.Source != nil {
				s.MovePlayer(event.Player, *event.Source, event.Target)
			}
		case EvtRosterMoved:
			s.MoveTeamRoster(event.Team, event.Target)
		case EvtPoolAssigned:
			s.AddAllUnassignedToTeam(event.Target)
		case EvtTeamSelected, EvtTeamDeselected:
			if s.IsSelected(event.Team) == (event.Type == EvtTeamDeselected) {
				_, _ = s.ToggleTeamSelection(event.Team)
			}
		case EvtTeamsShuffled:
			s.assign(event.Assignment)
		case EvtRosterReset:
			s.Reset()
		}
	}
	return s
}

func assignment(s State) map[TeamID][]string {
	out := make(map[TeamID][]string, len(s.Teams))
	for _, t := range s.Teams {
		out[t.ID] = append([]string{}, t.Players...)
	}
	return out
}

func teamOfPlayer(s State, player string) TeamID {
	if i := s.teamOf(player); i >= 0 {
		return s.Teams[i].ID
	}
	return ""
}
