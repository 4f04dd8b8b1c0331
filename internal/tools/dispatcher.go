// Package tools routes typed tool calls to the video platform or the
// completion model and shapes the answers sent back to the chat client.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/youi/backend/internal/logging"
	"github.com/youi/backend/internal/models"
	"github.com/youi/backend/internal/upstream"
	"github.com/youi/backend/internal/youtube"
)

// Tool names.
const (
	ToolSearch        = "youtube.search"
	ToolLikedVideos   = "youtube.getLikedVideos"
	ToolHistory       = "youtube.getHistory"
	ToolLikeVideo     = "youtube.likeVideo"
	ToolVideoInfo     = "youtube.videoInfo"
	ToolChannelVideos = "youtube.channelVideos"
	ToolSubscribe     = "youtube.subscribe"
	ToolSubscriptions = "youtube.getSubscriptions"
	ToolDescribeVideo = "youtube.describeVideo"
	ToolRecommend     = "youtube.recommend"
	ToolChat          = "youi.chat"
	ToolChatSmart     = "youi.chatSmart"
)

// Messages returned to the chat client.
const (
	MsgLoginRequired      = "Please login with YouTube first."
	MsgInvalidURL         = "Invalid YouTube URL."
	MsgChannelNotFound    = "Channel not found."
	MsgChannelUnavailable = "Unable to fetch channel videos."
	MsgNoLikedVideos      = "No liked videos found."
)

// TokenSource yields the bearer token for platform calls.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// VideoPlatform is the set of platform operations the dispatcher uses.
type VideoPlatform interface {
	Search(ctx context.Context, token, query string, maxResults int) (json.RawMessage, error)
	LikedVideos(ctx context.Context, token string) (json.RawMessage, error)
	Rate(ctx context.Context, token, videoID, rating string) (json.RawMessage, error)
	VideoInfo(ctx context.Context, token, videoID string) (json.RawMessage, error)
	ChannelVideos(ctx context.Context, token, channelName string) (json.RawMessage, error)
	Subscribe(ctx context.Context, token, channelID string) (json.RawMessage, error)
	Subscriptions(ctx context.Context, token string) (json.RawMessage, error)
}

// Completer answers a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// SubscribeResult is the payload of youtube.subscribe.
type SubscribeResult struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// DescribeResult is the payload of youtube.describeVideo.
type DescribeResult struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// Dispatcher executes tool calls.
type Dispatcher struct {
	Tokens    TokenSource
	Platform  VideoPlatform
	Completer Completer
}

// Names lists every tool in a stable order.
func Names() []string {
	return []string{
		ToolSearch, ToolLikedVideos, ToolHistory, ToolLikeVideo, ToolVideoInfo, ToolChannelVideos,
		ToolSubscribe, ToolSubscriptions, ToolDescribeVideo, ToolRecommend, ToolChat, ToolChatSmart,
	}
}

// RequiresLogin reports whether tool needs a platform token.
func RequiresLogin(tool string) bool {
	return tool != ToolChat && tool != ToolChatSmart
}

// Handle runs one tool call. It never panics on bad input and never returns a
// Go error: every failure is folded into the Result.
func (d *Dispatcher) Handle(ctx context.Context, req models.ToolRequest) Result {
	ctx, span := logging.StartSpan(ctx, "tool", slog.String("tool", req.Tool))

	res := d.handle(ctx, req)
	if res.Failed() {
		span.EndErr(fmt.Errorf("%s: %s", res.Kind, res.Message))
	} else {
		span.End()
	}
	return res
}

func (d *Dispatcher) handle(ctx context.Context, req models.ToolRequest) Result {
	var token string
	if RequiresLogin(req.Tool) {
		tok, err := d.Tokens.AccessToken(ctx)
		if err != nil || tok == "" {
			if err != nil {
				logging.FromContext(ctx).Debug("tool call rejected without token", slog.Any("error", err))
			}
			return Fail(KindUnauthenticated, MsgLoginRequired)
		}
		token = tok
	}

	switch req.Tool {
	case ToolSearch:
		in, err := DecodeInput[SearchInput](req.Input)
		if err == nil {
			err = required("query", in.Query)
		}
		if err != nil {
			return invalid(err)
		}
		return passthrough(d.Platform.Search(ctx, token, in.Query, in.MaxResults))

	case ToolLikedVideos, ToolHistory:
		return passthrough(d.Platform.LikedVideos(ctx, token))

	case ToolLikeVideo:
		in, err := DecodeInput[LikeVideoInput](req.Input)
		if err == nil {
			err = required("videoId", in.VideoID)
		}
		if err != nil {
			return invalid(err)
		}
		raw, err := d.Platform.Rate(ctx, token, in.VideoID, in.Rating)
		if errors.Is(err, youtube.ErrInvalidRating) {
			return invalid(err)
		}
		return passthrough(raw, err)

	case ToolVideoInfo:
		in, err := DecodeInput[VideoInfoInput](req.Input)
		if err == nil {
			err = required("videoId", in.VideoID)
		}
		if err != nil {
			return invalid(err)
		}
		return passthrough(d.Platform.VideoInfo(ctx, token, in.VideoID))

	case ToolChannelVideos:
		in, err := DecodeInput[ChannelVideosInput](req.Input)
		if err == nil {
			err = required("channel", in.Channel)
		}
		if err != nil {
			return invalid(err)
		}
		return d.channelVideos(ctx, token, in.Channel)

	case ToolSubscribe:
		in, err := DecodeInput[SubscribeInput](req.Input)
		if err == nil {
			err = required("channelId", in.ChannelID)
		}
		if err != nil {
			return invalid(err)
		}
		return d.subscribe(ctx, token, in.ChannelID)

	case ToolSubscriptions:
		raw, err := d.Platform.Subscriptions(ctx, token)
		if err != nil {
			logging.FromContext(ctx).Warn("list subscriptions failed", slog.Any("error", err))
			return OK(ErrorBody{Error: errorText(err)})
		}
		return OK(raw)

	case ToolDescribeVideo:
		in, err := DecodeInput[DescribeVideoInput](req.Input)
		if err != nil {
			return invalid(err)
		}
		return d.describe(ctx, token, in.URL)

	case ToolRecommend:
		return d.recommend(ctx, token)

	case ToolChat, ToolChatSmart:
		in, err := DecodeInput[ChatInput](req.Input)
		if err == nil {
			err = required("text", in.Text)
		}
		if err != nil {
			return invalid(err)
		}
		answer, err := d.Completer.Complete(ctx, in.Text)
		if err != nil {
			return upstreamFailure(err)
		}
		return OK(answer)

	default:
		return Fail(KindUnknownTool, "Unknown MCP tool: "+req.Tool)
	}
}

func (d *Dispatcher) channelVideos(ctx context.Context, token, channel string) Result {
	raw, err := d.Platform.ChannelVideos(ctx, token, channel)
	switch {
	case errors.Is(err, youtube.ErrChannelNotFound):
		return OK(ErrorBody{Error: MsgChannelNotFound})
	case err != nil:
		logging.FromContext(ctx).Warn("channel videos failed", slog.String("channel", channel), slog.Any("error", err))
		return OK(ErrorBody{Error: MsgChannelUnavailable})
	}
	return OK(raw)
}

func (d *Dispatcher) subscribe(ctx context.Context, token, channelID string) Result {
	raw, err := d.Platform.Subscribe(ctx, token, channelID)
	if err != nil {
		logging.FromContext(ctx).Warn("subscribe failed", slog.String("channel_id", channelID), slog.Any("error", err))
		return OK(SubscribeResult{Success: false, Error: errorText(err)})
	}
	return OK(SubscribeResult{
		Success: true,
		Message: "Subscribed to channel " + channelID,
		Data:    raw,
	})
}

func (d *Dispatcher) describe(ctx context.Context, token, link string) Result {
	videoID := youtube.ExtractVideoID(link)
	if videoID == "" {
		return Fail(KindInvalidInput, MsgInvalidURL)
	}

	raw, err := d.Platform.VideoInfo(ctx, token, videoID)
	if err != nil {
		return upstreamFailure(err)
	}
	info, err := youtube.Decode[youtube.VideoListResponse](raw)
	if err != nil {
		return upstreamFailure(err)
	}

	var snippet youtube.Snippet
	if len(info.Items) > 0 {
		snippet = info.Items[0].Snippet
	}

	prompt := fmt.Sprintf("Summarize this YouTube video:\n\nTitle: %s\nDescription:\n%s", snippet.Title, snippet.Description)
	summary, err := d.Completer.Complete(ctx, prompt)
	if err != nil {
		return upstreamFailure(err)
	}
	return OK(DescribeResult{Title: snippet.Title, Summary: summary})
}

func (d *Dispatcher) recommend(ctx context.Context, token string) Result {
	raw, err := d.Platform.LikedVideos(ctx, token)
	if err != nil {
		return upstreamFailure(err)
	}
	liked, err := youtube.Decode[youtube.VideoListResponse](raw)
	if err != nil {
		return upstreamFailure(err)
	}

	titles := make([]string, 0, len(liked.Items))
	for _, v := range liked.Items {
		titles = append(titles, v.Snippet.Title)
	}
	list := strings.Join(titles, "\n")
	if list == "" {
		list = MsgNoLikedVideos
	}

	answer, err := d.Completer.Complete(ctx, "Based on these liked videos:\n"+list+"\nRecommend 5 similar videos.")
	if err != nil {
		return upstreamFailure(err)
	}
	return OK(answer)
}

func passthrough(raw json.RawMessage, err error) Result {
	if err != nil {
		return upstreamFailure(err)
	}
	return OK(raw)
}

func invalid(err error) Result {
	return Fail(KindInvalidInput, err.Error())
}

func upstreamFailure(err error) Result {
	return Fail(KindUpstream, err.Error())
}

// errorText prefers the provider's own message over the wrapped error chain.
func errorText(err error) string {
	var upErr *upstream.Error
	if errors.As(err, &upErr) && upErr.Message != "" {
		return upErr.Message
	}
	return err.Error()
}
