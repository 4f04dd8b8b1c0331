package chat

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youi/backend/internal/client"
	"github.com/youi/backend/internal/models"
	"github.com/youi/backend/internal/tools"
)

type call struct {
	tool  string
	input map[string]any
}

type fakeBackend struct {
	calls   []call
	replies map[string]client.Reply
	err     error
}

func (f *fakeBackend) Call(_ context.Context, tool string, input map[string]any) (client.Reply, error) {
	f.calls = append(f.calls, call{tool: tool, input: input})
	if f.err != nil {
		return client.Reply{}, f.err
	}
	return f.replies[tool], nil
}

type fakeState struct {
	history    []models.WatchHistoryEntry
	liked      map[string]bool
	subscribed map[string]bool
}

func newFakeState() *fakeState {
	return &fakeState{liked: map[string]bool{}, subscribed: map[string]bool{}}
}

func (f *fakeState) RecordWatch(_ context.Context, entry models.WatchHistoryEntry) error {
	for i, h := range f.history {
		if h.VideoID == entry.VideoID {
			f.history = append(f.history[:i], f.history[i+1:]...)
			break
		}
	}
	f.history = append([]models.WatchHistoryEntry{entry}, f.history...)
	return nil
}

func (f *fakeState) History(context.Context) ([]models.WatchHistoryEntry, error) {
	return f.history, nil
}

func (f *fakeState) MarkLiked(_ context.Context, id string) error {
	f.liked[id] = true
	return nil
}

func (f *fakeState) MarkSubscribed(_ context.Context, id string) error {
	f.subscribed[id] = true
	return nil
}

func (f *fakeState) LikedIDs(context.Context) (map[string]bool, error) { return f.liked, nil }

func (f *fakeState) SubscribedIDs(context.Context) (map[string]bool, error) {
	return f.subscribed, nil
}

const searchPage = `{"items":[
	{"id":{"kind":"youtube#video","videoId":"v1"},"snippet":{"title":"First","channelId":"c1","channelTitle":"Chan One","thumbnails":{"high":{"url":"https://i.ytimg.com/v1.jpg"}}}},
	{"id":{"kind":"youtube#video","videoId":"v2"},"snippet":{"title":"Second","channelId":"c2","channelTitle":"Chan Two","thumbnails":{"default":{"url":"https://i.ytimg.com/v2.jpg"}}}}
]}`

func TestNewSessionStartsWithWelcome(t *testing.T) {
	s := NewSession(&fakeBackend{}, newFakeState())
	msgs := s.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, models.SenderAssistant, msgs[0].Sender)
	assert.Equal(t, Welcome, msgs[0].Text)
}

func TestSubmitGreetingAnsweredLocally(t *testing.T) {
	backend := &fakeBackend{}
	s := NewSession(backend, newFakeState())

	s.Submit(context.Background(), "hi")

	msgs := s.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "hi", msgs[1].Text)
	assert.Equal(t, "Hi! 👋 What would you like to watch today?", msgs[2].Text)
	assert.Empty(t, backend.calls)
}

func TestSubmitSearchBuildsGrid(t *testing.T) {
	backend := &fakeBackend{replies: map[string]client.Reply{
		tools.ToolSearch: {Raw: json.RawMessage(searchPage)},
	}}
	state := newFakeState()
	state.liked["v2"] = true
	state.subscribed["c1"] = true
	s := NewSession(backend, state)

	s.Submit(context.Background(), "5 lofi videos")

	require.Len(t, backend.calls, 1)
	assert.Equal(t, tools.ToolSearch, backend.calls[0].tool)
	assert.Equal(t, 5, backend.calls[0].input["maxResults"])

	msgs := s.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, MsgShowingBelow, msgs[2].Text)
	assert.Equal(t, 2, msgs[2].Items)

	grid := s.Grid()
	require.Len(t, grid, 2)
	assert.Equal(t, Card{
		VideoID:    "v1",
		Title:      "First",
		Channel:    "Chan One",
		ChannelID:  "c1",
		Thumbnail:  "https://i.ytimg.com/v1.jpg",
		Subscribed: true,
	}, grid[0])
	assert.True(t, grid[1].Liked)
	assert.False(t, grid[1].Subscribed)
}

func TestSubmitVideoListUsesPlainIDs(t *testing.T) {
	backend := &fakeBackend{replies: map[string]client.Reply{
		tools.ToolLikedVideos: {Raw: json.RawMessage(`{"items":[{"id":"abc","snippet":{"title":"Liked one","channelId":"c9"}}]}`)},
	}}
	s := NewSession(backend, newFakeState())

	s.Submit(context.Background(), "show my liked videos")

	grid := s.Grid()
	require.Len(t, grid, 1)
	assert.Equal(t, "abc", grid[0].VideoID)
	assert.Equal(t, "c9", grid[0].ChannelID)
}

func TestSubmitSubscriptionsBecomeChannelCards(t *testing.T) {
	backend := &fakeBackend{replies: map[string]client.Reply{
		tools.ToolSubscriptions: {Raw: json.RawMessage(`{"items":[{"id":"sub-1","snippet":{"title":"Fireship","resourceId":{"kind":"youtube#channel","channelId":"UCfire"}}}]}`)},
	}}
	s := NewSession(backend, newFakeState())

	s.Submit(context.Background(), "my subscriptions")

	grid := s.Grid()
	require.Len(t, grid, 1)
	assert.Empty(t, grid[0].VideoID)
	assert.Equal(t, "UCfire", grid[0].ChannelID)
	assert.Equal(t, "Fireship", grid[0].Channel)
}

func TestSubmitTextAndObjectReplies(t *testing.T) {
	backend := &fakeBackend{replies: map[string]client.Reply{
		tools.ToolRecommend: {Text: "Try some jazz."},
		tools.ToolLikeVideo: {Raw: json.RawMessage(`{"success":true}`)},
	}}
	s := NewSession(backend, newFakeState())

	s.Submit(context.Background(), "recommend something")
	s.Submit(context.Background(), "like abc")

	msgs := s.Messages()
	require.Len(t, msgs, 5)
	assert.Equal(t, "Try some jazz.", msgs[2].Text)
	assert.Equal(t, `{"success":true}`, msgs[4].Text)
	assert.Empty(t, s.Grid())
}

func TestSubmitReplacesPlaceholderOnFailure(t *testing.T) {
	backend := &fakeBackend{err: errors.New("connection refused")}
	s := NewSession(backend, newFakeState())

	s.Submit(context.Background(), "cats")

	msgs := s.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, MsgFetchFailed, msgs[2].Text)
}

type peekingBackend struct {
	session *Session
	seen    string
}

func (p *peekingBackend) Call(context.Context, string, map[string]any) (client.Reply, error) {
	msgs := p.session.Messages()
	p.seen = msgs[len(msgs)-1].Text
	return client.Reply{Text: "done"}, nil
}

func TestSubmitShowsPlaceholderWhileCalling(t *testing.T) {
	backend := &peekingBackend{}
	s := NewSession(backend, newFakeState())
	backend.session = s

	s.Submit(context.Background(), "  cats  ")

	assert.Equal(t, "Searching for \"cats\"…", backend.seen)
	msgs := s.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "done", msgs[2].Text)
}

func TestHistoryServedLocally(t *testing.T) {
	backend := &fakeBackend{}
	state := newFakeState()
	s := NewSession(backend, state)

	s.Submit(context.Background(), "history")
	msgs := s.Messages()
	assert.Equal(t, MsgNoHistory, msgs[len(msgs)-1].Text)

	state.history = []models.WatchHistoryEntry{{VideoID: "v1", Title: "First"}}
	s.Submit(context.Background(), "show history")

	assert.Empty(t, backend.calls)
	grid := s.Grid()
	require.Len(t, grid, 1)
	assert.Equal(t, "v1", grid[0].VideoID)
}

func TestOpenRecordsWatchAndDedupes(t *testing.T) {
	backend := &fakeBackend{replies: map[string]client.Reply{
		tools.ToolSearch: {Raw: json.RawMessage(searchPage)},
	}}
	state := newFakeState()
	s := NewSession(backend, state)
	ctx := context.Background()
	s.Submit(ctx, "music")

	url, err := s.Open(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "https://www.youtube.com/watch?v=v1", url)

	_, err = s.Open(ctx, 2)
	require.NoError(t, err)
	_, err = s.Open(ctx, 1)
	require.NoError(t, err)

	require.Len(t, state.history, 2)
	assert.Equal(t, "v1", state.history[0].VideoID)
	assert.Equal(t, "Chan One", state.history[0].Channel)

	_, err = s.Open(ctx, 3)
	assert.ErrorIs(t, err, ErrNoSuchCard)
}
