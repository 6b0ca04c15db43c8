package hub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/map-veto-backend/internal/engine"
	"github.com/DoyleJ11/map-veto-backend/internal/lobby"
)

func testConfig() engine.Config {
	return engine.Config{
		Maps:    []string{"Ascent", "Bind", "Haven"},
		Program: engine.NewRuleProgram(engine.StepBan, engine.StepBan, engine.StepPick),
		PartyA:  engine.Party{ID: "u-alpha", Name: "Alpha"},
		PartyB:  engine.Party{ID: "u-bravo", Name: "Bravo"},
	}
}

func TestHub_Create_Get_SamePointer(t *testing.T) {
	ctx := context.Background()
	h := NewHub(ctx, lobby.Options{})
	defer h.Shutdown()

	reply := make(chan CreateResult, 1)
	h.Inbox() <- CreateLobby{Code: "ZED123", Config: testConfig(), Reply: reply}
	res := <-reply
	require.NoError(t, res.Err)

	get := make(chan *lobby.Lobby, 1)
	h.Inbox() <- GetLobby{Code: "ZED123", Reply: get}
	lb2 := <-get

	if res.Lobby == nil || lb2 == nil || res.Lobby != lb2 {
		t.Fatalf("expected same lobby pointer")
	}
}

func TestHub_Create_RejectsDuplicateAndInvalid(t *testing.T) {
	ctx := context.Background()
	h := NewHub(ctx, lobby.Options{})
	defer h.Shutdown()

	_, err := h.Create(ctx, "ZED123", testConfig())
	require.NoError(t, err)

	_, err = h.Create(ctx, "ZED123", testConfig())
	assert.ErrorIs(t, err, ErrSessionExists)

	bad := testConfig()
	bad.Maps = bad.Maps[:2]
	_, err = h.Create(ctx, "ABC999", bad)
	assert.ErrorIs(t, err, engine.ErrPoolMismatch)

	codes, err := h.Codes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ZED123"}, codes)
}

func TestHub_Remove_ShutsLobbyDown(t *testing.T) {
	ctx := context.Background()
	h := NewHub(ctx, lobby.Options{})
	defer h.Shutdown()

	lb, err := h.Create(ctx, "ZED123", testConfig())
	require.NoError(t, err)

	require.NoError(t, h.Remove(ctx, "ZED123"))

	select {
	case <-lb.Done():
	case <-time.After(time.Second):
		t.Fatalf("removed lobby still running")
	}
	_, err = h.Get(ctx, "ZED123")
	assert.ErrorIs(t, err, ErrLobbyNotFound)
}

func TestHub_EvictsFinishedLobby(t *testing.T) {
	ctx := context.Background()
	evicted := make(chan string, 1)
	h := NewHub(ctx, lobby.Options{OnDone: func(lb *lobby.Lobby) { evicted <- lb.Code() }})
	defer h.Shutdown()

	lb, err := h.Create(ctx, "ZED123", testConfig())
	require.NoError(t, err)
	require.NoError(t, lb.Stop(ctx))

	select {
	case code := <-evicted:
		assert.Equal(t, "ZED123", code)
	case <-time.After(time.Second):
		t.Fatalf("finished lobby was never evicted")
	}

	_, err = h.Get(ctx, "ZED123")
	assert.ErrorIs(t, err, ErrLobbyNotFound)
}

func TestHub_Shutdown(t *testing.T) {
	ctx := context.Background()
	h := NewHub(ctx, lobby.Options{})

	lb, err := h.Create(ctx, "ZED123", testConfig())
	require.NoError(t, err)

	h.Shutdown()
	<-h.Done()
	<-lb.Done()

	_, err = h.Get(ctx, "ZED123")
	assert.ErrorIs(t, err, ErrHubClosed)
}
