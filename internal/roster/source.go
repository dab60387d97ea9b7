package roster

type SourceKind string

const (
	SourceUnassigned SourceKind = "unassigned"
	SourceTeam       SourceKind = "team"
)

// Source says where a dragged player comes from: the unassigned pool, or
// the roster of TeamID.
type Source struct {
	Kind   SourceKind `json:"kind"`
	TeamID TeamID     `json:"team_id,omitempty"`
}

func FromUnassigned() Source { return Source{Kind: SourceUnassigned} }

func FromTeam(id TeamID) Source { return Source{Kind: SourceTeam, TeamID: id} }

func (s Source) Valid() bool {
	switch s.Kind {
	case SourceUnassigned:
		return s.TeamID == ""
	case SourceTeam:
		return s.TeamID != ""
	}
	return false
}
