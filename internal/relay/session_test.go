package relay

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mlg-games/duelrelay/internal/dependencies/mocks"
	"github.com/mlg-games/duelrelay/internal/model"
	"github.com/mlg-games/duelrelay/internal/services/registry"
	"github.com/mlg-games/duelrelay/internal/services/room"
	"github.com/mlg-games/duelrelay/internal/storage/memory"
	"github.com/mlg-games/duelrelay/internal/testutil"
)

// fakeConn records every frame the session sends to it
type fakeConn struct {
	mu     sync.Mutex
	frames [][]byte
	closed bool
	reason string
	full   bool
}

func (c *fakeConn) Send(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.full {
		return false
	}
	c.frames = append(c.frames, frame)
	return true
}

func (c *fakeConn) Close(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.reason = reason
}

func (c *fakeConn) sent() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.frames))
	copy(out, c.frames)
	return out
}

func (c *fakeConn) types() []string {
	var out []string
	for _, frame := range c.sent() {
		var env struct {
			Type string `json:"type"`
		}
		_ = json.Unmarshal(frame, &env)
		out = append(out, env.Type)
	}
	return out
}

type SessionTestSuite struct {
	suite.Suite
	storage *memory.Storage
	manager *Manager
	ctx     context.Context
}

func TestSessionTestSuite(t *testing.T) {
	suite.Run(t, new(SessionTestSuite))
}

func (s *SessionTestSuite) SetupTest() {
	s.storage = memory.New()
	logger := testutil.NopLogger()
	clock := mocks.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	rooms := room.NewController(s.storage, clock, mocks.NewMockIdent(), logger)
	reg := registry.New(s.storage, logger)
	s.manager = NewManager(rooms, reg, logger)
	s.ctx = context.Background()
}

func (s *SessionTestSuite) TestFirstJoinCreatesRoomAsHost() {
	conn := &fakeConn{}
	sess, participant, err := s.manager.Join(s.ctx, "alpha", false, conn)
	s.Require().NoError(err)
	s.Require().NotNil(sess)
	s.True(participant.IsHost)

	s.Require().Equal([]string{"room-created"}, conn.types())
	var ack struct {
		ClientID string `json:"clientId"`
		IsHost   bool   `json:"isHost"`
	}
	s.Require().NoError(json.Unmarshal(conn.sent()[0], &ack))
	s.Equal(string(participant.ConnectionID), ack.ClientID)
	s.True(ack.IsHost)
}

func (s *SessionTestSuite) TestSecondJoinSignalsReadyToHostOnly() {
	host := &fakeConn{}
	joiner := &fakeConn{}
	sess, _, err := s.manager.Join(s.ctx, "alpha", false, host)
	s.Require().NoError(err)
	_, joined, err := s.manager.Join(s.ctx, "alpha", false, joiner)
	s.Require().NoError(err)
	s.False(joined.IsHost)

	s.Equal([]string{"room-created", "ready-to-start"}, host.types())
	s.Equal([]string{"room-joined"}, joiner.types())
	s.Equal(1, s.manager.Count())
	s.Same(sess, mustGet(s.T(), s.manager, "alpha"))
}

func (s *SessionTestSuite) TestThirdJoinRejected() {
	_, _, err := s.manager.Join(s.ctx, "alpha", false, &fakeConn{})
	s.Require().NoError(err)
	_, _, err = s.manager.Join(s.ctx, "alpha", false, &fakeConn{})
	s.Require().NoError(err)

	third := &fakeConn{}
	_, _, err = s.manager.Join(s.ctx, "alpha", false, third)
	s.Require().ErrorIs(err, model.ErrRoomFull)
	s.Empty(third.types())
}

func (s *SessionTestSuite) TestJoinStartedRoomRejected() {
	host := &fakeConn{}
	sess, hostP, err := s.manager.Join(s.ctx, "alpha", false, host)
	s.Require().NoError(err)
	_, joinedP, err := s.manager.Join(s.ctx, "alpha", false, &fakeConn{})
	s.Require().NoError(err)
	s.Require().NoError(sess.Start(s.ctx, hostP.ConnectionID))

	// Free a slot, then try to join the in-progress room
	sess.Disconnect(joinedP.ConnectionID)
	s.Eventually(func() bool {
		r, err := s.storage.GetRoom(s.ctx, "alpha")
		return err == nil && len(r.Participants) == 1
	}, time.Second, 5*time.Millisecond)

	_, _, err = s.manager.Join(s.ctx, "alpha", false, &fakeConn{})
	s.Require().ErrorIs(err, model.ErrRoomInProgress)
}

func (s *SessionTestSuite) TestStartBroadcastsToBoth() {
	host := &fakeConn{}
	joiner := &fakeConn{}
	sess, hostP, err := s.manager.Join(s.ctx, "alpha", false, host)
	s.Require().NoError(err)
	_, _, err = s.manager.Join(s.ctx, "alpha", false, joiner)
	s.Require().NoError(err)

	s.Require().NoError(sess.Start(s.ctx, hostP.ConnectionID))

	s.Equal([]string{"room-created", "ready-to-start", "start"}, host.types())
	s.Equal([]string{"room-joined", "start"}, joiner.types())
}

func (s *SessionTestSuite) TestStartByJoinerRejected() {
	sess, _, err := s.manager.Join(s.ctx, "alpha", false, &fakeConn{})
	s.Require().NoError(err)
	_, joinedP, err := s.manager.Join(s.ctx, "alpha", false, &fakeConn{})
	s.Require().NoError(err)

	s.Require().ErrorIs(sess.Start(s.ctx, joinedP.ConnectionID), model.ErrNotHost)
}

func (s *SessionTestSuite) TestStartBeforeFullRejected() {
	sess, hostP, err := s.manager.Join(s.ctx, "alpha", false, &fakeConn{})
	s.Require().NoError(err)

	s.Require().ErrorIs(sess.Start(s.ctx, hostP.ConnectionID), model.ErrPeerNotJoined)
}

func (s *SessionTestSuite) TestDuplicateStartIsNoOp() {
	host := &fakeConn{}
	joiner := &fakeConn{}
	sess, hostP, err := s.manager.Join(s.ctx, "alpha", false, host)
	s.Require().NoError(err)
	_, _, err = s.manager.Join(s.ctx, "alpha", false, joiner)
	s.Require().NoError(err)

	s.Require().NoError(sess.Start(s.ctx, hostP.ConnectionID))
	s.Require().NoError(sess.Start(s.ctx, hostP.ConnectionID))

	s.Equal([]string{"room-joined", "start"}, joiner.types())
}

func (s *SessionTestSuite) TestRelayForwardsVerbatim() {
	host := &fakeConn{}
	joiner := &fakeConn{}
	sess, hostP, err := s.manager.Join(s.ctx, "alpha", false, host)
	s.Require().NoError(err)
	_, joinedP, err := s.manager.Join(s.ctx, "alpha", false, joiner)
	s.Require().NoError(err)

	frame := []byte(`{"type":"update","pos":{"x":3.5,"y":0},"frame":812}`)
	s.Require().NoError(sess.Relay(s.ctx, hostP.ConnectionID, frame))

	frames := joiner.sent()
	s.Require().Len(frames, 2)
	s.Equal(frame, frames[1])
	s.Equal([]string{"room-created", "ready-to-start"}, host.types())

	reply := []byte(`{"type":"update","pos":{"x":-1,"y":2}}`)
	s.Require().NoError(sess.Relay(s.ctx, joinedP.ConnectionID, reply))
	s.Equal(reply, host.sent()[2])
}

func (s *SessionTestSuite) TestRelayPreservesSendOrder() {
	joiner := &fakeConn{}
	sess, hostP, err := s.manager.Join(s.ctx, "alpha", false, &fakeConn{})
	s.Require().NoError(err)
	_, _, err = s.manager.Join(s.ctx, "alpha", false, joiner)
	s.Require().NoError(err)

	var want [][]byte
	for i := 0; i < 20; i++ {
		frame, err := json.Marshal(map[string]any{"type": "update", "seq": i})
		s.Require().NoError(err)
		want = append(want, frame)
		s.Require().NoError(sess.Relay(s.ctx, hostP.ConnectionID, frame))
	}

	s.Equal(want, joiner.sent()[1:])
}

func (s *SessionTestSuite) TestRelayWithoutPeerDropsFrame() {
	sess, hostP, err := s.manager.Join(s.ctx, "alpha", false, &fakeConn{})
	s.Require().NoError(err)

	s.Require().NoError(sess.Relay(s.ctx, hostP.ConnectionID, []byte(`{"type":"update"}`)))

	// Frame must not be delivered late to a peer who joins afterwards
	joiner := &fakeConn{}
	_, _, err = s.manager.Join(s.ctx, "alpha", false, joiner)
	s.Require().NoError(err)
	s.Equal([]string{"room-joined"}, joiner.types())
}

func (s *SessionTestSuite) TestRelayFromStrangerRejected() {
	sess, _, err := s.manager.Join(s.ctx, "alpha", false, &fakeConn{})
	s.Require().NoError(err)

	err = sess.Relay(s.ctx, "intruder", []byte(`{"type":"update"}`))
	s.Require().ErrorIs(err, model.ErrNotInRoom)
}

func (s *SessionTestSuite) TestDisconnectNotifiesPeerOnce() {
	host := &fakeConn{}
	joiner := &fakeConn{}
	sess, hostP, err := s.manager.Join(s.ctx, "alpha", false, host)
	s.Require().NoError(err)
	_, _, err = s.manager.Join(s.ctx, "alpha", false, joiner)
	s.Require().NoError(err)

	// Close and error paths both report the departure
	sess.Disconnect(hostP.ConnectionID)
	sess.Disconnect(hostP.ConnectionID)

	s.Eventually(func() bool {
		types := joiner.types()
		return len(types) == 2 && types[1] == "opponent-left"
	}, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	s.Equal([]string{"room-joined", "opponent-left"}, joiner.types())
}

func (s *SessionTestSuite) TestHostLeavingReopensLobby() {
	host := &fakeConn{}
	sess, hostP, err := s.manager.Join(s.ctx, "alpha", true, host)
	s.Require().NoError(err)
	_, joinedP, err := s.manager.Join(s.ctx, "alpha", true, &fakeConn{})
	s.Require().NoError(err)

	entries, err := s.storage.ListLobbyEntries(s.ctx)
	s.Require().NoError(err)
	s.Empty(entries)

	sess.Disconnect(hostP.ConnectionID)

	s.Eventually(func() bool {
		entries, err := s.storage.ListLobbyEntries(s.ctx)
		return err == nil && len(entries) == 1
	}, time.Second, 5*time.Millisecond)

	entries, err = s.storage.ListLobbyEntries(s.ctx)
	s.Require().NoError(err)
	s.Equal(model.RoomID("alpha"), entries[0].Room)
	s.True(entries[0].Tanked)
	s.Equal(1, entries[0].Players)

	// Remaining participant inherits the host role
	r, err := s.storage.GetRoom(s.ctx, "alpha")
	s.Require().NoError(err)
	s.Equal(joinedP.ConnectionID, r.HostID)
}

func (s *SessionTestSuite) TestLastDisconnectDestroysRoom() {
	sess, hostP, err := s.manager.Join(s.ctx, "alpha", false, &fakeConn{})
	s.Require().NoError(err)
	_, joinedP, err := s.manager.Join(s.ctx, "alpha", false, &fakeConn{})
	s.Require().NoError(err)

	sess.Disconnect(hostP.ConnectionID)
	sess.Disconnect(joinedP.ConnectionID)

	select {
	case <-sess.Done():
	case <-time.After(time.Second):
		s.FailNow("session did not shut down")
	}

	_, err = s.storage.GetRoom(s.ctx, "alpha")
	s.Require().ErrorIs(err, model.ErrRoomNotFound)
	entries, err := s.storage.ListLobbyEntries(s.ctx)
	s.Require().NoError(err)
	s.Empty(entries)
	s.Eventually(func() bool { return s.manager.Count() == 0 },
		time.Second, 5*time.Millisecond)
}

func (s *SessionTestSuite) TestRoomIDReusableAfterTeardown() {
	sess, hostP, err := s.manager.Join(s.ctx, "alpha", false, &fakeConn{})
	s.Require().NoError(err)
	sess.Disconnect(hostP.ConnectionID)
	<-sess.Done()

	conn := &fakeConn{}
	sess2, participant, err := s.manager.Join(s.ctx, "alpha", false, conn)
	s.Require().NoError(err)
	s.NotSame(sess, sess2)
	s.True(participant.IsHost)
	s.Equal([]string{"room-created"}, conn.types())
}

func (s *SessionTestSuite) TestCallsAfterShutdownFail() {
	sess, hostP, err := s.manager.Join(s.ctx, "alpha", false, &fakeConn{})
	s.Require().NoError(err)
	sess.Disconnect(hostP.ConnectionID)
	<-sess.Done()

	s.Require().ErrorIs(sess.Relay(s.ctx, hostP.ConnectionID, []byte(`{}`)), model.ErrRoomClosed)
	s.Require().ErrorIs(sess.Start(s.ctx, hostP.ConnectionID), model.ErrRoomClosed)
	sess.Disconnect(hostP.ConnectionID) // must not panic
}

func (s *SessionTestSuite) TestFullPeerBufferDoesNotFailRelay() {
	sess, hostP, err := s.manager.Join(s.ctx, "alpha", false, &fakeConn{})
	s.Require().NoError(err)
	joiner := &fakeConn{full: true}
	_, _, err = s.manager.Join(s.ctx, "alpha", false, joiner)
	s.Require().NoError(err)

	s.Require().NoError(sess.Relay(s.ctx, hostP.ConnectionID, []byte(`{"type":"update"}`)))
	s.Empty(joiner.sent())
}

func mustGet(t *testing.T, m *Manager, id model.RoomID) *Session {
	t.Helper()
	sess, ok := m.Get(id)
	if !ok {
		t.Fatalf("no session for room %s", id)
	}
	return sess
}
