package lobby

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/team-shuffler-backend/internal/journal"
	"github.com/DoyleJ11/team-shuffler-backend/internal/notice"
	"github.com/DoyleJ11/team-shuffler-backend/internal/roster"
)

var ErrClosed = errors.New("lobby closed")

const DefaultNoticeTTL = 5 * time.Second

type Msg interface{ isLobbyMsg() }

// FromClient carries one roster command. Reply, if set, must have room for
// one Result.
type FromClient struct {
	ClientID string
	Cmd      roster.Command
	Reply    chan Result
}

func (FromClient) isLobbyMsg() {}

type Join struct {
	ClientID string
	Outbox   chan Snapshot // where this client wants to receive snapshots
}

func (Join) isLobbyMsg() {}

type Leave struct{ ClientID string }

func (Leave) isLobbyMsg() {}

type Shutdown struct{}

func (Shutdown) isLobbyMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isLobbyMsg() {}

// noticeExpired is posted by the notice timer; gen identifies which notice it
// was armed for.
type noticeExpired struct{ gen int }

func (noticeExpired) isLobbyMsg() {}

type Result struct {
	Version int
	Events  []roster.Event
	Err     error
}

type NoticeView struct {
	notice.Notice
	ExpiresAt time.Time `json:"expires_at"`
}

type Snapshot struct {
	Version int
	State   roster.State
	Notice  *NoticeView
}

type View struct {
	Version    int
	NumClients int
	State      roster.State
	Notice     *NoticeView
}

type Options struct {
	NoticeTTL time.Duration
	Journal   journal.Journal
	Logger    *zap.Logger
	Now       func() time.Time
}

func (o Options) withDefaults() Options {
	if o.NoticeTTL <= 0 {
		o.NoticeTTL = DefaultNoticeTTL
	}
	if o.Journal == nil {
		o.Journal = journal.Nop{}
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

type Lobby struct {
	code    string
	inbox   chan Msg
	state   roster.State
	version int
	clients map[string]chan Snapshot

	notice      notice.Expiring[notice.Notice]
	noticeGen   int
	noticeTimer *time.Timer

	opts   Options
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func NewLobby(parent context.Context, code string, initial roster.State, opts Options) *Lobby {
	ctx, cancel := context.WithCancel(parent)
	opts = opts.withDefaults()

	l := &Lobby{
		code:    code,
		inbox:   make(chan Msg, 64), // Small buffer
		state:   initial,
		version: 0,
		clients: make(map[string]chan Snapshot),
		opts:    opts,
		log:     opts.Logger.With(zap.String("lobby", code)),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	go l.loop()
	return l
}

func (l *Lobby) loop() {
	defer close(l.done)
	for {
		select {
		case <-l.ctx.Done():
			l.shutdown()
			return

		case m := <-l.inbox:
			switch msg := m.(type) {
			case Join:
				// Register client + send current snapshot immediately
				l.clients[msg.ClientID] = msg.Outbox
				l.deliver(msg.ClientID, msg.Outbox, l.snapshot())
				l.log.Debug("client joined", zap.String("client", msg.ClientID), zap.Int("clients", len(l.clients)))

			case Leave:
				delete(l.clients, msg.ClientID)

			case FromClient:
				res := l.handle(msg)
				if msg.Reply != nil {
					select {
					case msg.Reply <- res:
					default:
						l.log.Warn("dropping result, reply channel full", zap.String("client", msg.ClientID))
					}
				}

			case noticeExpired:
				if msg.gen != l.noticeGen || !l.notice.Active() {
					break // superseded
				}
				l.notice.Clear()
				l.bump()

			case GetState:
				msg.Reply <- View{
					Version:    l.version,
					NumClients: len(l.clients),
					State:      l.state,
					Notice:     l.noticeView(),
				}

			case Shutdown:
				l.shutdown()
				return
			}
		}
	}
}

func (l *Lobby) handle(msg FromClient) Result {
	events, next, err := roster.Apply(l.state, msg.Cmd)

	var rej *roster.RejectionError
	switch {
	case errors.As(err, &rej):
		l.raiseNotice(notice.FromRejection(rej.Reason))
		l.bump()
		return Result{Version: l.version, Err: err}
	case err != nil:
		return Result{Version: l.version, Err: err}
	}

	if msg.Cmd.Type == roster.CmdAddPlayer {
		l.dropNotice()
	}
	l.state = next
	l.bump()
	l.record(events)
	return Result{Version: l.version, Events: events}
}

func (l *Lobby) bump() {
	l.version++
	l.broadcast(l.snapshot())
}

func (l *Lobby) record(events []roster.Event) {
	ctx, cancel := context.WithTimeout(l.ctx, 2*time.Second)
	defer cancel()
	entry := journal.Entry{Lobby: l.code, Version: l.version, Events: events, At: l.opts.Now()}
	if err := l.opts.Journal.Record(ctx, entry); err != nil {
		l.log.Error("journal record failed", zap.Int("version", l.version), zap.Error(err))
	}
}

// raiseNotice replaces the current notice and arms a timer for it. Fires from
// earlier timers carry an older gen and are ignored.
func (l *Lobby) raiseNotice(n notice.Notice) {
	l.stopNoticeTimer()
	l.noticeGen++
	l.notice.Set(n, l.opts.Now(), l.opts.NoticeTTL)

	gen := l.noticeGen
	l.noticeTimer = time.AfterFunc(l.opts.NoticeTTL, func() {
		select {
		case l.inbox <- noticeExpired{gen: gen}:
		case <-l.ctx.Done():
		}
	})
}

func (l *Lobby) dropNotice() {
	if !l.notice.Active() {
		return
	}
	l.stopNoticeTimer()
	l.noticeGen++
	l.notice.Clear()
}

func (l *Lobby) stopNoticeTimer() {
	if l.noticeTimer != nil {
		l.noticeTimer.Stop()
		l.noticeTimer = nil
	}
}

// noticeView hides a notice whose deadline passed even if its expiry message
// is still queued.
func (l *Lobby) noticeView() *NoticeView {
	n, ok := l.notice.Get(l.opts.Now())
	if !ok {
		return nil
	}
	return &NoticeView{Notice: n, ExpiresAt: l.notice.Deadline()}
}

func (l *Lobby) snapshot() Snapshot {
	return Snapshot{Version: l.version, State: l.state, Notice: l.noticeView()}
}

func (l *Lobby) shutdown() {
	l.stopNoticeTimer()
	for id, ch := range l.clients {
		close(ch) // Tell client no more snapshots
		delete(l.clients, id)
	}
	l.cancel()
}

func (l *Lobby) broadcast(snap Snapshot) {
	for id, ch := range l.clients {
		l.deliver(id, ch, snap)
	}
}

// deliver never blocks the loop: a client with a full outbox is dropped.
func (l *Lobby) deliver(id string, ch chan Snapshot, snap Snapshot) {
	select {
	case ch <- snap:
	default:
		close(ch)
		delete(l.clients, id)
		l.log.Info("dropped slow client", zap.String("client", id))
	}
}

// Expose the inbox so tests or WS layer can send messages.
func (l *Lobby) Inbox() chan<- Msg { return l.inbox }

// Send posts m unless the lobby has stopped or ctx ends first.
func (l *Lobby) Send(ctx context.Context, m Msg) error {
	select {
	case l.inbox <- m:
		return nil
	case <-l.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do applies cmd and waits for its result.
func (l *Lobby) Do(ctx context.Context, clientID string, cmd roster.Command) (Result, error) {
	reply := make(chan Result, 1)
	if err := l.Send(ctx, FromClient{ClientID: clientID, Cmd: cmd, Reply: reply}); err != nil {
		return Result{}, err
	}
	select {
	case res := <-reply:
		return res, nil
	case <-l.done:
		return Result{}, ErrClosed
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// View returns the current state without racing the loop.
func (l *Lobby) View(ctx context.Context) (View, error) {
	reply := make(chan View, 1)
	if err := l.Send(ctx, GetState{Reply: reply}); err != nil {
		return View{}, err
	}
	select {
	case v := <-reply:
		return v, nil
	case <-l.done:
		return View{}, ErrClosed
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
}

func (l *Lobby) Code() string { return l.code }

// Done is closed once the loop has exited.
func (l *Lobby) Done() <-chan struct{} { return l.done }
