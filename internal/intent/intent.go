// Package intent maps a free-text chat message onto a canned reply or a tool
// call. Rules are tried in a fixed order and the first match wins, so a message
// such as "channel 5 liked videos" is a channel lookup, not a liked list.
package intent

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/youi/backend/internal/models"
	"github.com/youi/backend/internal/tools"
	"github.com/youi/backend/internal/youtube"
)

// Kind says how the chat client should act on an Intent.
type Kind int

const (
	// KindNone is returned for blank input.
	KindNone Kind = iota
	// KindReply is answered locally with Intent.Reply.
	KindReply
	// KindTool is sent to the backend as Intent.Request.
	KindTool
	// KindLocalHistory is served from the client's own watch history.
	KindLocalHistory
)

// Canned replies.
const (
	MsgBadLink          = "❌ Could not extract video ID from link."
	MsgMissingChannelID = "Please provide a channel ID to subscribe to."
)

const (
	defaultMaxResults = 10
	maxMaxResults     = 50
)

// Intent is the classification of one chat message.
type Intent struct {
	Kind    Kind
	Reply   string
	Request models.ToolRequest
}

var greetings = map[string]string{
	"hi":           "Hi! 👋 What would you like to watch today?",
	"hii":          "Hi! 👋 What would you like to watch today?",
	"hello":        "Hello! 👋 Search anything on YouTube.",
	"hey":          "Hey! 👋 Try \"5 comedy videos\" or \"channel apna college\".",
	"good morning": "Good morning! ☀️ Want some fresh videos?",
	"good evening": "Good evening! 🌙 Time to relax with something good?",
	"thanks":       "You're welcome! 😊",
	"thank you":    "You're welcome! 😊",
	"bye":          "Bye! 👋 Come back soon.",
}

// Greeting returns the canned reply for a greeting, if text is one.
func Greeting(text string) (string, bool) {
	reply, ok := greetings[strings.ToLower(strings.TrimSpace(text))]
	return reply, ok
}

var firstNumber = regexp.MustCompile(`\b\d+\b`)

type message struct {
	trimmed string
	lower   string
	fields  []string
}

type rule struct {
	match func(m message) bool
	build func(m message) Intent
}

var rules = []rule{
	{
		match: func(m message) bool { _, ok := greetings[m.lower]; return ok },
		build: func(m message) Intent { return reply(greetings[m.lower]) },
	},
	{
		match: func(m message) bool { return strings.HasPrefix(m.lower, "channel ") },
		build: func(m message) Intent {
			name := strings.TrimSpace(m.trimmed[len("channel "):])
			return tool(tools.ToolChannelVideos, map[string]any{"channel": name})
		},
	},
	{
		match: func(m message) bool { return strings.Contains(m.lower, "liked") },
		build: func(message) Intent { return tool(tools.ToolLikedVideos, map[string]any{}) },
	},
	{
		match: func(m message) bool { return strings.Contains(m.lower, "history") },
		build: func(message) Intent {
			return Intent{Kind: KindLocalHistory, Request: models.ToolRequest{Tool: tools.ToolHistory, Input: map[string]any{}}}
		},
	},
	{
		match: func(m message) bool { return strings.HasPrefix(m.lower, "info ") },
		build: func(m message) Intent {
			return tool(tools.ToolVideoInfo, map[string]any{"videoId": m.field(1)})
		},
	},
	{
		match: func(m message) bool { return strings.HasPrefix(m.lower, "like ") },
		build: buildLike,
	},
	{
		match: func(m message) bool {
			return m.lower == "subscribe" ||
				strings.HasPrefix(m.lower, "subscribe ") ||
				strings.Contains(m.lower, "subscribe to") ||
				strings.Contains(m.lower, "subscribe channel")
		},
		build: buildSubscribe,
	},
	{
		match: func(m message) bool {
			return strings.Contains(m.lower, "subscriptions") ||
				strings.Contains(m.lower, "subscribed channels") ||
				strings.Contains(m.lower, "my subscriptions")
		},
		build: func(message) Intent { return tool(tools.ToolSubscriptions, map[string]any{}) },
	},
	{
		match: func(m message) bool { return strings.Contains(m.lower, "recommend") },
		build: func(message) Intent { return tool(tools.ToolRecommend, map[string]any{}) },
	},
}

// Classify maps raw chat input onto an Intent.
func Classify(raw string) Intent {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Intent{Kind: KindNone}
	}
	m := message{
		trimmed: trimmed,
		lower:   strings.ToLower(trimmed),
		fields:  strings.Fields(trimmed),
	}

	for _, r := range rules {
		if r.match(m) {
			return r.build(m)
		}
	}
	return tool(tools.ToolSearch, map[string]any{
		"query":      trimmed,
		"maxResults": resultLimit(m.lower),
	})
}

func buildLike(m message) Intent {
	target := m.field(1)
	lower := strings.ToLower(target)
	if strings.Contains(lower, "youtube.com") || strings.Contains(lower, "youtu.be") {
		id := youtube.ExtractVideoID(target)
		if id == "" {
			return reply(MsgBadLink)
		}
		target = id
	}
	return tool(tools.ToolLikeVideo, map[string]any{"videoId": target})
}

// buildSubscribe takes the first word after "subscribe", skipping the filler
// words "to" and "channel".
func buildSubscribe(m message) Intent {
	start := -1
	for i, f := range m.fields {
		if strings.ToLower(f) == "subscribe" {
			start = i + 1
			break
		}
	}
	if start >= 0 {
		for _, f := range m.fields[start:] {
			switch strings.ToLower(f) {
			case "to", "channel":
				continue
			}
			return tool(tools.ToolSubscribe, map[string]any{"channelId": f})
		}
	}
	return reply(MsgMissingChannelID)
}

// resultLimit reads the first standalone number as the result count, clamped
// to the 1..50 range the platform accepts for maxResults.
func resultLimit(lower string) int {
	match := firstNumber.FindString(lower)
	if match == "" {
		return defaultMaxResults
	}
	n, err := strconv.Atoi(match)
	if err != nil || n > maxMaxResults {
		return maxMaxResults
	}
	if n < 1 {
		return 1
	}
	return n
}

func (m message) field(i int) string {
	if i < len(m.fields) {
		return m.fields[i]
	}
	return ""
}

func reply(text string) Intent {
	return Intent{Kind: KindReply, Reply: text}
}

func tool(name string, input map[string]any) Intent {
	return Intent{Kind: KindTool, Request: models.ToolRequest{Tool: name, Input: input}}
}
