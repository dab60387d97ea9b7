package types

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/text/language"

	"github.com/DoyleJ11/team-shuffler-backend/internal/lobby"
	"github.com/DoyleJ11/team-shuffler-backend/internal/notice"
	"github.com/DoyleJ11/team-shuffler-backend/internal/roster"
)

const (
	TypeStateSnapshot = "StateSnapshot"
	TypeError         = "Error"
)

var ErrUnknownType = errors.New("unknown message type")

type ClientMessage struct {
	Type   string         `json:"type"`
	Player string         `json:"player,omitempty"`
	Source *roster.Source `json:"source,omitempty"`
	Team   string         `json:"team,omitempty"`
	Target string         `json:"target,omitempty"`
}

type Notice struct {
	Kind      notice.Kind `json:"kind"`
	Text      string      `json:"text"`
	ExpiresAt time.Time   `json:"expires_at"`
}

type ServerMessage struct {
	Type    string        `json:"type"` // "StateSnapshot" | "Error"
	Version int           `json:"version,omitempty"`
	State   *roster.State `json:"state,omitempty"`
	Notice  *Notice       `json:"notice,omitempty"`
	Error   string        `json:"error,omitempty"`
	Reason  string        `json:"reason,omitempty"`
}

// Command maps the wire message onto a roster command. Shuffle seeds are
// never taken from clients; the roster draws a fresh one.
func (m ClientMessage) Command() (roster.Command, error) {
	cmd := roster.Command{
		Type:   roster.CommandType(m.Type),
		Player: m.Player,
		Team:   roster.TeamID(m.Team),
		Target: roster.TeamID(m.Target),
	}

	switch cmd.Type {
	case roster.CmdAddPlayer, roster.CmdRemovePlayer, roster.CmdRemoveFromTeam,
		roster.CmdAssignUnassigned, roster.CmdToggleTeam, roster.CmdShuffle, roster.CmdReset:
	case roster.CmdMoveTeam:
		if cmd.Team == "" {
			return roster.Command{}, fmt.Errorf("%w: MoveTeam needs team", roster.ErrInvalidCommand)
		}
	case roster.CmdMovePlayer:
		if m.Source == nil {
			return roster.Command{}, fmt.Errorf("%w: MovePlayer needs source", roster.ErrInvalidCommand)
		}
		cmd.Source = *m.Source
	default:
		return roster.Command{}, fmt.Errorf("%w: %q", ErrUnknownType, m.Type)
	}
	return cmd, nil
}

func NewNotice(v *lobby.NoticeView, tag language.Tag) *Notice {
	if v == nil {
		return nil
	}
	return &Notice{Kind: v.Kind, Text: v.Notice.Text(tag), ExpiresAt: v.ExpiresAt}
}

func Snapshot(snap lobby.Snapshot, tag language.Tag) ServerMessage {
	return ServerMessage{
		Type:    TypeStateSnapshot,
		Version: snap.Version,
		State:   &snap.State,
		Notice:  NewNotice(snap.Notice, tag),
	}
}

// Rejection renders a refused command for the client that sent it.
func Rejection(err error, tag language.Tag) ServerMessage {
	msg := ServerMessage{Type: TypeError, Error: err.Error()}
	var rej *roster.RejectionError
	if errors.As(err, &rej) {
		msg.Reason = string(rej.Reason)
		msg.Error = notice.FromRejection(rej.Reason).Text(tag)
	}
	return msg
}
