package relay

import (
	"context"
	"log/slog"

	"github.com/mlg-games/duelrelay/internal/model"
	"github.com/mlg-games/duelrelay/internal/protocol"
	"github.com/mlg-games/duelrelay/internal/services/registry"
	"github.com/mlg-games/duelrelay/internal/services/room"
)

// Conn is the subset of a transport connection the relay needs. Send must
// not block; it reports whether the frame was accepted for delivery.
type Conn interface {
	Send(frame []byte) bool
	Close(reason string)
}

// Session holds the live participant connections for one room and relays
// frames between them. All mutations flow through a single goroutine, so a
// third connection can never slip past the two-participant cap and the
// start handshake cannot double-fire under concurrent requests.
type Session struct {
	roomID model.RoomID
	tanked bool

	rooms    *room.Controller
	registry *registry.Service
	logger   *slog.Logger

	inbox chan command
	done  chan struct{}

	// Owned by the run goroutine
	members map[model.ConnectionID]Conn
	started bool
	closing bool
	onEmpty func()
}

type command interface{ isCommand() }

type joinCmd struct {
	ctx   context.Context
	conn  Conn
	reply chan joinReply
}

type joinReply struct {
	participant *model.Participant
	err         error
}

type relayCmd struct {
	ctx    context.Context
	sender model.ConnectionID
	frame  []byte
	reply  chan error
}

type startCmd struct {
	ctx    context.Context
	sender model.ConnectionID
	reply  chan error
}

type leaveCmd struct {
	connID model.ConnectionID
}

func (joinCmd) isCommand()  {}
func (relayCmd) isCommand() {}
func (startCmd) isCommand() {}
func (leaveCmd) isCommand() {}

const inboxSize = 64

func newSession(
	roomID model.RoomID,
	tanked bool,
	rooms *room.Controller,
	registry *registry.Service,
	logger *slog.Logger,
) *Session {
	return &Session{
		roomID:   roomID,
		tanked:   tanked,
		rooms:    rooms,
		registry: registry,
		logger:   logger.With(slog.String("room", string(roomID))),
		inbox:    make(chan command, inboxSize),
		done:     make(chan struct{}),
		members:  make(map[model.ConnectionID]Conn),
	}
}

// RoomID returns the room this session serves
func (s *Session) RoomID() model.RoomID {
	return s.roomID
}

// Done is closed when the session has shut down
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Join attaches a connection to the room, creating it on first contact.
// On success the session has already queued the room-created/room-joined
// acknowledgment on the connection, and the ready-to-start signal on the
// host when this join filled the room.
func (s *Session) Join(ctx context.Context, conn Conn) (*model.Participant, error) {
	cmd := joinCmd{ctx: ctx, conn: conn, reply: make(chan joinReply, 1)}
	if err := s.submit(ctx, cmd); err != nil {
		return nil, err
	}
	select {
	case r := <-cmd.reply:
		return r.participant, r.err
	case <-s.done:
		return nil, model.ErrRoomClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Relay forwards a raw frame, verbatim, to the sender's peer. While the
// peer has not joined the frame is dropped, not buffered; delivery is
// best-effort and a disconnected peer simply never receives it.
func (s *Session) Relay(ctx context.Context, sender model.ConnectionID, frame []byte) error {
	cmd := relayCmd{ctx: ctx, sender: sender, frame: frame, reply: make(chan error, 1)}
	if err := s.submit(ctx, cmd); err != nil {
		return err
	}
	return s.await(ctx, cmd.reply)
}

// Start runs the start-game handshake on behalf of a connection. Only the
// host of a full room may start; a repeat call after a successful start is
// a no-op.
func (s *Session) Start(ctx context.Context, sender model.ConnectionID) error {
	cmd := startCmd{ctx: ctx, sender: sender, reply: make(chan error, 1)}
	if err := s.submit(ctx, cmd); err != nil {
		return err
	}
	return s.await(ctx, cmd.reply)
}

// Disconnect removes a participant. It is asynchronous and idempotent:
// simultaneous close and error events on the same connection collapse to
// one departure. The remaining peer is told its opponent left; when the
// last participant is gone the room is destroyed and the session stops.
func (s *Session) Disconnect(connID model.ConnectionID) {
	select {
	case s.inbox <- leaveCmd{connID: connID}:
	case <-s.done:
	}
}

func (s *Session) submit(ctx context.Context, cmd command) error {
	select {
	case s.inbox <- cmd:
		return nil
	case <-s.done:
		return model.ErrRoomClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) await(ctx context.Context, reply chan error) error {
	select {
	case err := <-reply:
		return err
	case <-s.done:
		return model.ErrRoomClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) run() {
	for {
		cmd := <-s.inbox
		switch c := cmd.(type) {
		case joinCmd:
			c.reply <- s.handleJoin(c)
		case relayCmd:
			c.reply <- s.handleRelay(c)
		case startCmd:
			c.reply <- s.handleStart(c)
		case leaveCmd:
			s.handleLeave(c.connID)
		}
		if s.closing {
			return
		}
	}
}

func (s *Session) handleJoin(c joinCmd) joinReply {
	room, participant, err := s.rooms.Attach(c.ctx, s.roomID, s.tanked)
	if err != nil {
		// A session whose only join attempt failed has nobody left to
		// trigger cleanup, so it shuts down immediately.
		if len(s.members) == 0 {
			s.shutdown()
		}
		return joinReply{err: err}
	}

	s.members[participant.ConnectionID] = c.conn

	if participant.IsHost {
		c.conn.Send(protocol.RoomCreated(string(participant.ConnectionID)))
		if err := s.registry.Publish(c.ctx, room); err != nil {
			s.logger.Error("failed to publish room", slog.Any("error", err))
		}
		s.logger.Info("room created", slog.String("host", string(participant.ConnectionID)))
		return joinReply{participant: participant}
	}

	c.conn.Send(protocol.RoomJoined(string(participant.ConnectionID)))
	if err := s.registry.Unpublish(c.ctx, s.roomID); err != nil {
		s.logger.Error("failed to unpublish room", slog.Any("error", err))
	}

	if host := room.Host(); host != nil {
		if hostConn, ok := s.members[host.ConnectionID]; ok {
			hostConn.Send(protocol.ReadyToStart())
		}
	}

	s.logger.Info("participant joined", slog.String("conn", string(participant.ConnectionID)))
	return joinReply{participant: participant}
}

func (s *Session) handleRelay(c relayCmd) error {
	if _, ok := s.members[c.sender]; !ok {
		return model.ErrNotInRoom
	}

	for id, conn := range s.members {
		if id == c.sender {
			continue
		}
		if !conn.Send(c.frame) {
			s.logger.Warn("relay frame dropped, peer buffer full",
				slog.String("peer", string(id)))
		}
		return nil
	}

	// Peer has not joined yet; frames are dropped, not buffered
	return nil
}

func (s *Session) handleStart(c startCmd) error {
	if _, ok := s.members[c.sender]; !ok {
		return model.ErrNotInRoom
	}
	if s.started {
		return nil
	}

	if _, err := s.rooms.Start(c.ctx, s.roomID, c.sender); err != nil {
		return err
	}
	s.started = true

	frame := protocol.Start()
	for _, conn := range s.members {
		conn.Send(frame)
	}
	s.logger.Info("room started")
	return nil
}

func (s *Session) handleLeave(connID model.ConnectionID) {
	if _, ok := s.members[connID]; !ok {
		return
	}
	delete(s.members, connID)

	ctx := context.Background()
	room, err := s.rooms.Detach(ctx, s.roomID, connID)
	if err != nil {
		s.logger.Error("failed to detach participant",
			slog.String("conn", string(connID)), slog.Any("error", err))
	}

	if len(s.members) == 0 {
		if err := s.registry.Unpublish(ctx, s.roomID); err != nil {
			s.logger.Error("failed to unpublish room", slog.Any("error", err))
		}
		s.logger.Info("room destroyed")
		s.shutdown()
		return
	}

	for _, conn := range s.members {
		conn.Send(protocol.OpponentLeft())
	}

	// A not-yet-started room with one participant left becomes
	// discoverable again
	if room != nil && room.IsOpen() {
		if err := s.registry.Publish(ctx, room); err != nil {
			s.logger.Error("failed to republish room", slog.Any("error", err))
		}
	}

	s.logger.Info("participant left", slog.String("conn", string(connID)))
}

func (s *Session) shutdown() {
	if s.closing {
		return
	}
	s.closing = true
	close(s.done)
	if s.onEmpty != nil {
		s.onEmpty()
	}
}
