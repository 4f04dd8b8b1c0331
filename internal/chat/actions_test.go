package chat

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youi/backend/internal/client"
	"github.com/youi/backend/internal/tools"
)

func sessionWithGrid(t *testing.T, backend *fakeBackend, state *fakeState) *Session {
	t.Helper()
	if backend.replies == nil {
		backend.replies = map[string]client.Reply{}
	}
	backend.replies[tools.ToolSearch] = client.Reply{Raw: json.RawMessage(searchPage)}
	s := NewSession(backend, state)
	s.Submit(context.Background(), "music")
	require.Len(t, s.Grid(), 2)
	backend.calls = nil
	return s
}

func TestLikeConfirmedSetsBadge(t *testing.T) {
	backend := &fakeBackend{replies: map[string]client.Reply{
		tools.ToolLikeVideo: {Raw: json.RawMessage(`{"success":true}`)},
	}}
	state := newFakeState()
	s := sessionWithGrid(t, backend, state)

	action, err := s.Like(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, ActionConfirmed, action.State)
	assert.Equal(t, ActionLike, action.Kind)
	assert.Equal(t, "v1", action.Target)

	require.Len(t, backend.calls, 1)
	assert.Equal(t, map[string]any{"videoId": "v1"}, backend.calls[0].input)
	assert.True(t, s.Grid()[0].Liked)
	assert.True(t, state.liked["v1"])
}

func TestLikeFailureLeavesStateUntouched(t *testing.T) {
	backend := &fakeBackend{replies: map[string]client.Reply{
		tools.ToolLikeVideo: {Text: "⚠️ Not authenticated. Please login first.", Failed: true},
	}}
	state := newFakeState()
	s := sessionWithGrid(t, backend, state)

	action, err := s.Like(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, ActionFailed, action.State)
	assert.Contains(t, action.Err, "Not authenticated")
	assert.False(t, s.Grid()[1].Liked)
	assert.Empty(t, state.liked)

	msgs := s.Messages()
	assert.Contains(t, msgs[len(msgs)-1].Text, "Could not like")
}

func TestSubscribeTransportFailure(t *testing.T) {
	backend := &fakeBackend{}
	state := newFakeState()
	s := sessionWithGrid(t, backend, state)
	backend.err = errors.New("backend down")

	action, err := s.Subscribe(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, ActionFailed, action.State)
	assert.Equal(t, "backend down", action.Err)
	assert.Empty(t, state.subscribed)
	assert.False(t, s.Grid()[0].Subscribed)
}

func TestSubscribeConfirmedMarksEveryCardOfChannel(t *testing.T) {
	backend := &fakeBackend{replies: map[string]client.Reply{
		tools.ToolSubscribe: {Raw: json.RawMessage(`{"kind":"youtube#subscription"}`)},
	}}
	state := newFakeState()
	s := sessionWithGrid(t, backend, state)

	action, err := s.Subscribe(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, ActionConfirmed, action.State)
	assert.Equal(t, map[string]any{"channelId": "c2"}, backend.calls[0].input)
	assert.True(t, state.subscribed["c2"])
	assert.True(t, s.Grid()[1].Subscribed)
	assert.False(t, s.Grid()[0].Subscribed)

	actions := s.Actions()
	require.Len(t, actions, 1)
	assert.Equal(t, ActionSubscribe, actions[0].Kind)
}

func TestActionsRejectBadIndex(t *testing.T) {
	s := sessionWithGrid(t, &fakeBackend{}, newFakeState())

	_, err := s.Like(context.Background(), 0)
	assert.ErrorIs(t, err, ErrNoSuchCard)
	_, err = s.Subscribe(context.Background(), 9)
	assert.ErrorIs(t, err, ErrNoSuchCard)
}
