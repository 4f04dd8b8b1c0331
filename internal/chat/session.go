// Package chat holds the chat client's conversation: the transcript, the
// current video grid, badges, and like/subscribe actions.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/youi/backend/internal/client"
	"github.com/youi/backend/internal/intent"
	"github.com/youi/backend/internal/logging"
	"github.com/youi/backend/internal/models"
)

// Transcript strings.
const (
	Welcome         = "Hi, I’m YOUI 🤖. Search anything on YouTube!"
	MsgFetchFailed  = "❌ Unable to fetch videos right now."
	MsgShowingBelow = "(showing results below)"
	MsgNoHistory    = "No watch history yet. Open a video with /open N."
)

var (
	// ErrNoSuchCard is returned for a grid index outside the current grid.
	ErrNoSuchCard = errors.New("no such card")
	// ErrNoChannel is returned when subscribing from a card without a channel id.
	ErrNoChannel = errors.New("card has no channel")
)

// Backend executes tool calls.
type Backend interface {
	Call(ctx context.Context, tool string, input map[string]any) (client.Reply, error)
}

// State is the client-local store behind history and badges.
type State interface {
	RecordWatch(ctx context.Context, entry models.WatchHistoryEntry) error
	History(ctx context.Context) ([]models.WatchHistoryEntry, error)
	MarkLiked(ctx context.Context, videoID string) error
	MarkSubscribed(ctx context.Context, channelID string) error
	LikedIDs(ctx context.Context) (map[string]bool, error)
	SubscribedIDs(ctx context.Context) (map[string]bool, error)
}

// Session is one chat conversation. It is not safe for concurrent use.
type Session struct {
	backend Backend
	state   State

	messages []models.ChatMessage
	grid     []Card
	actions  []*Action
}

// NewSession starts a conversation with the welcome message.
func NewSession(backend Backend, state State) *Session {
	return &Session{
		backend:  backend,
		state:    state,
		messages: []models.ChatMessage{{Sender: models.SenderAssistant, Text: Welcome}},
	}
}

// Messages returns a copy of the transcript.
func (s *Session) Messages() []models.ChatMessage {
	return append([]models.ChatMessage(nil), s.messages...)
}

// Grid returns a copy of the current grid.
func (s *Session) Grid() []Card {
	return append([]Card(nil), s.grid...)
}

// Actions returns the like/subscribe actions issued so far.
func (s *Session) Actions() []Action {
	out := make([]Action, 0, len(s.actions))
	for _, a := range s.actions {
		out = append(out, *a)
	}
	return out
}

// Submit handles one line of user input.
func (s *Session) Submit(ctx context.Context, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	s.push(models.SenderUser, text)

	in := intent.Classify(text)
	switch in.Kind {
	case intent.KindReply:
		s.push(models.SenderAssistant, in.Reply)
	case intent.KindLocalHistory:
		s.showHistory(ctx)
	case intent.KindTool:
		placeholder := s.push(models.SenderAssistant, fmt.Sprintf("Searching for %q…", strings.TrimSpace(text)))
		reply, err := s.backend.Call(ctx, in.Request.Tool, in.Request.Input)
		if err != nil {
			logging.FromContext(ctx).Warn("backend call failed", slog.String("tool", in.Request.Tool), slog.Any("error", err))
			s.messages[placeholder].Text = MsgFetchFailed
			return
		}
		s.render(ctx, placeholder, reply)
	}
}

// Open records the card in watch history and returns its watch URL.
func (s *Session) Open(ctx context.Context, index int) (string, error) {
	card, err := s.card(index)
	if err != nil {
		return "", err
	}
	if card.VideoID == "" {
		return "", fmt.Errorf("card %d is not a video", index)
	}
	if err := s.state.RecordWatch(ctx, models.WatchHistoryEntry{
		VideoID:   card.VideoID,
		Title:     card.Title,
		Channel:   card.Channel,
		Thumbnail: card.Thumbnail,
	}); err != nil {
		return "", fmt.Errorf("record watch: %w", err)
	}
	return card.WatchURL(), nil
}

func (s *Session) render(ctx context.Context, at int, reply client.Reply) {
	if reply.IsText() {
		s.messages[at].Text = reply.Text
		return
	}

	items, ok := itemsOf(reply.Raw)
	if !ok {
		s.messages[at].Text = string(reply.Raw)
		return
	}

	grid := make([]Card, 0, len(items))
	for _, item := range items {
		grid = append(grid, cardFromItem(item))
	}
	s.grid = grid
	s.refreshBadges(ctx)

	s.messages[at].Text = MsgShowingBelow
	s.messages[at].Items = len(grid)
}

func (s *Session) showHistory(ctx context.Context) {
	history, err := s.state.History(ctx)
	if err != nil {
		logging.FromContext(ctx).Warn("load watch history failed", slog.Any("error", err))
		s.push(models.SenderAssistant, MsgFetchFailed)
		return
	}
	if len(history) == 0 {
		s.push(models.SenderAssistant, MsgNoHistory)
		return
	}

	grid := make([]Card, 0, len(history))
	for _, h := range history {
		grid = append(grid, Card{VideoID: h.VideoID, Title: h.Title, Channel: h.Channel, Thumbnail: h.Thumbnail})
	}
	s.grid = grid
	s.refreshBadges(ctx)

	at := s.push(models.SenderAssistant, MsgShowingBelow)
	s.messages[at].Items = len(grid)
}

func (s *Session) refreshBadges(ctx context.Context) {
	liked, err := s.state.LikedIDs(ctx)
	if err != nil {
		logging.FromContext(ctx).Warn("load liked ids failed", slog.Any("error", err))
	}
	subscribed, err := s.state.SubscribedIDs(ctx)
	if err != nil {
		logging.FromContext(ctx).Warn("load subscribed ids failed", slog.Any("error", err))
	}
	for i := range s.grid {
		s.grid[i].Liked = s.grid[i].VideoID != "" && liked[s.grid[i].VideoID]
		s.grid[i].Subscribed = s.grid[i].ChannelID != "" && subscribed[s.grid[i].ChannelID]
	}
}

func (s *Session) card(index int) (Card, error) {
	if index < 1 || index > len(s.grid) {
		return Card{}, fmt.Errorf("%w: %d", ErrNoSuchCard, index)
	}
	return s.grid[index-1], nil
}

func (s *Session) push(sender, text string) int {
	s.messages = append(s.messages, models.ChatMessage{Sender: sender, Text: text})
	return len(s.messages) - 1
}

