package chat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/youi/backend/internal/logging"
	"github.com/youi/backend/internal/models"
	"github.com/youi/backend/internal/tools"
)

// ActionKind is what a card action does.
type ActionKind string

// Action kinds.
const (
	ActionLike      ActionKind = "like"
	ActionSubscribe ActionKind = "subscribe"
)

// ActionState tracks an action from issue to outcome.
type ActionState string

// Action states. Badges change only on ActionConfirmed.
const (
	ActionPending   ActionState = "pending"
	ActionConfirmed ActionState = "confirmed"
	ActionFailed    ActionState = "failed"
)

// Action is one like or subscribe request issued from the grid.
type Action struct {
	Kind   ActionKind
	Target string
	State  ActionState
	Err    string
}

// Like rates the video on card index (1-based).
func (s *Session) Like(ctx context.Context, index int) (Action, error) {
	card, err := s.card(index)
	if err != nil {
		return Action{}, err
	}
	if card.VideoID == "" {
		return Action{}, fmt.Errorf("card %d is not a video", index)
	}

	action := s.issue(ctx, ActionLike, card.VideoID, tools.ToolLikeVideo, map[string]any{"videoId": card.VideoID})
	if action.State == ActionConfirmed {
		if err := s.state.MarkLiked(ctx, card.VideoID); err != nil {
			logging.FromContext(ctx).Warn("persist like failed", slog.Any("error", err))
		}
		for i := range s.grid {
			if s.grid[i].VideoID == card.VideoID {
				s.grid[i].Liked = true
			}
		}
		s.push(models.SenderAssistant, "👍 Liked "+quoteTitle(card))
	} else {
		s.push(models.SenderAssistant, "❌ Could not like "+quoteTitle(card)+": "+action.Err)
	}
	return *action, nil
}

// Subscribe subscribes to the channel of card index (1-based).
func (s *Session) Subscribe(ctx context.Context, index int) (Action, error) {
	card, err := s.card(index)
	if err != nil {
		return Action{}, err
	}
	if card.ChannelID == "" {
		return Action{}, fmt.Errorf("%w: %d", ErrNoChannel, index)
	}

	action := s.issue(ctx, ActionSubscribe, card.ChannelID, tools.ToolSubscribe, map[string]any{"channelId": card.ChannelID})
	if action.State == ActionConfirmed {
		if err := s.state.MarkSubscribed(ctx, card.ChannelID); err != nil {
			logging.FromContext(ctx).Warn("persist subscription failed", slog.Any("error", err))
		}
		for i := range s.grid {
			if s.grid[i].ChannelID == card.ChannelID {
				s.grid[i].Subscribed = true
			}
		}
		s.push(models.SenderAssistant, "🔔 Subscribed to "+channelName(card))
	} else {
		s.push(models.SenderAssistant, "❌ Could not subscribe to "+channelName(card)+": "+action.Err)
	}
	return *action, nil
}

// issue records a pending action, calls the backend and settles the action.
func (s *Session) issue(ctx context.Context, kind ActionKind, target, tool string, input map[string]any) *Action {
	action := &Action{Kind: kind, Target: target, State: ActionPending}
	s.actions = append(s.actions, action)

	reply, err := s.backend.Call(ctx, tool, input)
	switch {
	case err != nil:
		action.State = ActionFailed
		action.Err = err.Error()
	case reply.Failed:
		action.State = ActionFailed
		action.Err = reply.Text
	default:
		action.State = ActionConfirmed
	}
	return action
}

func quoteTitle(c Card) string {
	if c.Title == "" {
		return c.VideoID
	}
	return fmt.Sprintf("%q", c.Title)
}

func channelName(c Card) string {
	if c.Channel == "" {
		return c.ChannelID
	}
	return c.Channel
}
