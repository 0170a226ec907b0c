package factory

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mlg-games/duelrelay/internal/model"
)

type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx = context.Background()
}

// recordingConn collects everything the relay sends to a participant
type recordingConn struct {
	mu     sync.Mutex
	frames [][]byte
}

func (c *recordingConn) Send(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, frame)
	return true
}

func (c *recordingConn) Close(string) {}

func (c *recordingConn) types() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, frame := range c.frames {
		var env struct {
			Type string `json:"type"`
		}
		_ = json.Unmarshal(frame, &env)
		out = append(out, env.Type)
	}
	return out
}

// Test: complete lifecycle from room creation through start to teardown
func (s *IntegrationSuite) TestCompleteMatchFlow() {
	s.app.MockIdent.Queue("host-conn", "joiner-conn")

	host := &recordingConn{}
	joiner := &recordingConn{}

	// Host connects, creating the room
	sess, hostP, err := s.app.RelayManager.Join(s.ctx, "dojo", true, host)
	s.Require().NoError(err)
	s.True(hostP.IsHost)
	s.Equal(model.ConnectionID("host-conn"), hostP.ConnectionID)

	// Room is listed while waiting for an opponent
	entries, err := s.app.RegistryService.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(model.RoomID("dojo"), entries[0].Room)
	s.True(entries[0].Tanked)
	s.Equal(1, entries[0].Players)

	// Opponent joins; listing empties and host is told it can start
	_, joinerP, err := s.app.RelayManager.Join(s.ctx, "dojo", true, joiner)
	s.Require().NoError(err)
	s.False(joinerP.IsHost)

	entries, err = s.app.RegistryService.List(s.ctx)
	s.Require().NoError(err)
	s.Empty(entries)
	s.Equal([]string{"room-created", "ready-to-start"}, host.types())

	// Host starts; both sides get the start frame
	s.Require().NoError(sess.Start(s.ctx, hostP.ConnectionID))
	room, err := s.app.RoomController.Get(s.ctx, "dojo")
	s.Require().NoError(err)
	s.True(room.Started)

	// Gameplay frames pass through untouched
	frame := []byte(`{"type":"update","input":"hadouken","frame":42}`)
	s.Require().NoError(sess.Relay(s.ctx, hostP.ConnectionID, frame))
	s.Equal([]string{"room-joined", "start", "update"}, joiner.types())

	// Both leave; room and session are gone
	sess.Disconnect(hostP.ConnectionID)
	sess.Disconnect(joinerP.ConnectionID)
	select {
	case <-sess.Done():
	case <-time.After(time.Second):
		s.FailNow("session did not shut down")
	}

	_, err = s.app.RoomController.Get(s.ctx, "dojo")
	s.Require().ErrorIs(err, model.ErrRoomNotFound)
	s.Eventually(func() bool { return s.app.RelayManager.Count() == 0 },
		time.Second, 5*time.Millisecond)
}

// Test: two rooms run independently
func (s *IntegrationSuite) TestRoomsAreIsolated() {
	hostA := &recordingConn{}
	hostB := &recordingConn{}
	joinerA := &recordingConn{}

	sessA, hostAP, err := s.app.RelayManager.Join(s.ctx, "alpha", false, hostA)
	s.Require().NoError(err)
	_, _, err = s.app.RelayManager.Join(s.ctx, "beta", false, hostB)
	s.Require().NoError(err)
	_, _, err = s.app.RelayManager.Join(s.ctx, "alpha", false, joinerA)
	s.Require().NoError(err)

	s.Require().NoError(sessA.Relay(s.ctx, hostAP.ConnectionID, []byte(`{"type":"update"}`)))

	s.Equal([]string{"room-joined", "update"}, joinerA.types())
	s.Equal([]string{"room-created"}, hostB.types())

	// beta is still waiting for an opponent and stays listed
	entries, err := s.app.RegistryService.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(model.RoomID("beta"), entries[0].Room)
}
