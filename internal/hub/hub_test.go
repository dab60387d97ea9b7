package hub

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/DoyleJ11/team-shuffler-backend/internal/lobby"
	"github.com/DoyleJ11/team-shuffler-backend/internal/roster"
)

func newState() roster.State {
	return roster.NewState(roster.DefaultConfig(), roster.TeamRed, roster.TeamOcean)
}

func TestHub_Create_Get_SamePointer(t *testing.T) {
	ctx := context.Background()
	h := NewHub(ctx, lobby.Options{})
	reply := make(chan *lobby.Lobby, 1)

	h.Inbox() <- CreateLobby{Code: "ZED123", State: newState(), Reply: reply}
	lb1 := <-reply

	h.Inbox() <- GetLobby{Code: "ZED123", Reply: reply}
	lb2 := <-reply

	if lb1 == nil || lb2 == nil || lb1 != lb2 {
		t.Fatalf("expected same lobby pointer")
	}
	if lb1.Code() != "ZED123" {
		t.Fatalf("want code ZED123, got %s", lb1.Code())
	}
}

func TestHub_EnsureKeepsExistingState(t *testing.T) {
	ctx := context.Background()
	h := NewHub(ctx, lobby.Options{})

	lb := h.Ensure(ctx, "ABC123", newState())
	if _, err := lb.Do(ctx, "c1", roster.Command{Type: roster.CmdAddPlayer, Player: "Anna"}); err != nil {
		t.Fatalf("add: %v", err)
	}

	again := h.Ensure(ctx, "ABC123", roster.NewState(roster.DefaultConfig()))
	if again != lb {
		t.Fatalf("ensure must return the existing lobby")
	}
	view, err := again.View(ctx)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if view.State.Total() != 1 || len(view.State.Teams) != 2 {
		t.Fatalf("ensure replaced state: %+v", view.State)
	}
}

func TestHub_RemoveStopsLobby(t *testing.T) {
	ctx := context.Background()
	h := NewHub(ctx, lobby.Options{})

	lb := h.Ensure(ctx, "GONE01", newState())
	if !h.Remove(ctx, "GONE01") {
		t.Fatalf("remove should report an existing lobby")
	}
	if h.Remove(ctx, "GONE01") {
		t.Fatalf("second remove should report nothing removed")
	}
	if h.Get(ctx, "GONE01") != nil {
		t.Fatalf("lobby still registered")
	}

	select {
	case <-lb.Done():
	case <-time.After(time.Second):
		t.Fatalf("removed lobby kept running")
	}
}

func TestHub_ListSorted(t *testing.T) {
	ctx := context.Background()
	h := NewHub(ctx, lobby.Options{})
	for _, code := range []string{"CCC333", "AAA111", "BBB222"} {
		h.Ensure(ctx, code, newState())
	}

	got := h.List(ctx)
	if !slices.Equal(got, []string{"AAA111", "BBB222", "CCC333"}) {
		t.Fatalf("unexpected list %v", got)
	}
}

func TestHub_ShutdownStopsLobbies(t *testing.T) {
	ctx := context.Background()
	h := NewHub(ctx, lobby.Options{})
	lb := h.Ensure(ctx, "STOP01", newState())

	h.Shutdown(ctx)

	select {
	case <-lb.Done():
	case <-time.After(time.Second):
		t.Fatalf("lobby survived hub shutdown")
	}
	if h.Get(ctx, "STOP01") != nil {
		t.Fatalf("stopped hub should not hand out lobbies")
	}
}

func TestHub_ShutdownAfterContextCancelReturns(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub(ctx, lobby.Options{})
	lb := h.Ensure(ctx, "CTX001", newState())
	cancel()

	select {
	case <-lb.Done():
	case <-time.After(time.Second):
		t.Fatalf("lobby survived context cancel")
	}

	done := make(chan struct{})
	go func() {
		h.Shutdown(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Shutdown blocked on a stopped hub")
	}
}
