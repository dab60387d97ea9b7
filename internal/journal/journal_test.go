package journal

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DoyleJ11/team-shuffler-backend/internal/roster"
)

func sampleEntries(lobby string) []Entry {
	src := roster.FromUnassigned()
	return []Entry{
		{Lobby: lobby, Version: 1, Events: []roster.Event{{Type: roster.EvtPlayerAdded, Player: "Anna"}}},
		{Lobby: lobby, Version: 2, Events: []roster.Event{{Type: roster.EvtPlayerMoved, Player: "Anna", Source: &src, Target: roster.TeamRed}}},
		{Lobby: lobby, Version: 3, Events: []roster.Event{{Type: roster.EvtTeamsShuffled, Assignment: map[roster.TeamID][]string{roster.TeamRed: {}, roster.TeamOcean: {"Anna"}}}}},
	}
}

func TestMemory_RecordAndEntries(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	for _, e := range sampleEntries("ABC123") {
		require.NoError(t, m.Record(ctx, e))
	}
	require.NoError(t, m.Record(ctx, Entry{Lobby: "OTHER1", Version: 1}))

	got, err := m.Entries(ctx, "ABC123")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 3, got[2].Version)

	none, err := m.Entries(ctx, "NOPE00")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestEvents_ReplaysIntoRoster(t *testing.T) {
	entries := sampleEntries("ABC123")
	entries[0], entries[2] = entries[2], entries[0]

	events := Events(entries)
	require.Len(t, events, 3)
	assert.Equal(t, roster.EvtPlayerAdded, events[0].Type)

	s := roster.Reduce(roster.NewState(roster.DefaultConfig(), roster.TeamRed, roster.TeamOcean), events)
	ocean, _ := s.Team(roster.TeamOcean)
	assert.Equal(t, []string{"Anna"}, ocean.Players)
}

func TestNop(t *testing.T) {
	var j Journal = Nop{}
	assert.NoError(t, j.Record(context.Background(), Entry{Lobby: "X"}))
	got, err := j.Entries(context.Background(), "X")
	assert.NoError(t, err)
	assert.Empty(t, got)
}

// Runs against a real database when ROSTER_TEST_DATABASE_URL is set.
func TestPostgres_RoundTrip(t *testing.T) {
	dsn := os.Getenv("ROSTER_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("ROSTER_TEST_DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	p, err := OpenPostgres(dsn, zap.NewNop())
	require.NoError(t, err)
	defer p.Close()

	lobby := "T" + time.Now().Format("150405")
	for _, e := range sampleEntries(lobby) {
		e.At = time.Now()
		require.NoError(t, p.Record(ctx, e))
	}

	got, err := p.Entries(ctx, lobby)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, roster.EvtPlayerMoved, got[1].Events[0].Type)
	require.NotNil(t, got[1].Events[0].Source)
	assert.Equal(t, roster.SourceUnassigned, got[1].Events[0].Source.Kind)
	assert.Equal(t, []string{"Anna"}, got[2].Events[0].Assignment[roster.TeamOcean])
}
