package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/youi/backend/internal/models"
	"github.com/youi/backend/internal/tools"
)

func TestGreetingsAreAnsweredLocally(t *testing.T) {
	for _, in := range []string{"hi", "  Hello ", "HEY", "hii", "Good Morning", "good evening", "thanks", "Thank you", "bye"} {
		t.Run(in, func(t *testing.T) {
			got := Classify(in)
			assert.Equal(t, KindReply, got.Kind)
			assert.NotEmpty(t, got.Reply)
			assert.Empty(t, got.Request.Tool)
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		tool  string
		input map[string]any
	}{
		{"channel", "channel apna college", tools.ToolChannelVideos, map[string]any{"channel": "apna college"}},
		{"channel keeps case", "Channel  Fireship", tools.ToolChannelVideos, map[string]any{"channel": "Fireship"}},
		{"channel beats liked", "channel 5 liked videos", tools.ToolChannelVideos, map[string]any{"channel": "5 liked videos"}},
		{"liked", "show my liked videos", tools.ToolLikedVideos, map[string]any{}},
		{"info", "info dQw4w9WgXcQ extra", tools.ToolVideoInfo, map[string]any{"videoId": "dQw4w9WgXcQ"}},
		{"like short link", "like https://youtu.be/abc123", tools.ToolLikeVideo, map[string]any{"videoId": "abc123"}},
		{"like watch link", "like https://www.youtube.com/watch?v=AbC_123&t=5", tools.ToolLikeVideo, map[string]any{"videoId": "AbC_123"}},
		{"like id", "like abc123", tools.ToolLikeVideo, map[string]any{"videoId": "abc123"}},
		{"like keeps case", "LIKE AbCdEf", tools.ToolLikeVideo, map[string]any{"videoId": "AbCdEf"}},
		{"subscribe id", "subscribe UCxyz", tools.ToolSubscribe, map[string]any{"channelId": "UCxyz"}},
		{"subscribe to", "please subscribe to UC_abc", tools.ToolSubscribe, map[string]any{"channelId": "UC_abc"}},
		{"subscribe channel", "subscribe channel UCq", tools.ToolSubscribe, map[string]any{"channelId": "UCq"}},
		{"subscriptions", "my subscriptions", tools.ToolSubscriptions, map[string]any{}},
		{"subscribed channels", "subscribed channels", tools.ToolSubscriptions, map[string]any{}},
		{"recommend", "Recommend me something", tools.ToolRecommend, map[string]any{}},
		{"search with count", "5 comedy videos", tools.ToolSearch, map[string]any{"query": "5 comedy videos", "maxResults": 5}},
		{"search default count", "lofi beats", tools.ToolSearch, map[string]any{"query": "lofi beats", "maxResults": 10}},
		{"search first number", "top 3 of 2024", tools.ToolSearch, map[string]any{"query": "top 3 of 2024", "maxResults": 3}},
		{"search clamps high", "500 songs", tools.ToolSearch, map[string]any{"query": "500 songs", "maxResults": 50}},
		{"search clamps zero", "0 songs", tools.ToolSearch, map[string]any{"query": "0 songs", "maxResults": 1}},
		{"search trims", "  Coke Studio  ", tools.ToolSearch, map[string]any{"query": "Coke Studio", "maxResults": 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.in)
			assert.Equal(t, KindTool, got.Kind)
			assert.Equal(t, models.ToolRequest{Tool: tt.tool, Input: tt.input}, got.Request)
		})
	}
}

func TestHistoryIsServedLocally(t *testing.T) {
	got := Classify("watch history")
	assert.Equal(t, KindLocalHistory, got.Kind)
	assert.Equal(t, tools.ToolHistory, got.Request.Tool)
}

func TestCannedFailures(t *testing.T) {
	assert.Equal(t, Intent{Kind: KindReply, Reply: MsgBadLink}, Classify("like https://www.youtube.com/shorts"))
	assert.Equal(t, Intent{Kind: KindReply, Reply: MsgMissingChannelID}, Classify("subscribe"))
	assert.Equal(t, Intent{Kind: KindReply, Reply: MsgMissingChannelID}, Classify("subscribe to"))
	// Unsubscribing is not supported; the word only matches the subscribe rule
	// and never yields a channel id.
	assert.Equal(t, Intent{Kind: KindReply, Reply: MsgMissingChannelID}, Classify("unsubscribe to UCxyz"))
	assert.Equal(t, Intent{Kind: KindReply, Reply: MsgMissingChannelID}, Classify("unsubscribe channel UCxyz"))
}

func TestBlankInput(t *testing.T) {
	assert.Equal(t, KindNone, Classify("   ").Kind)
}

func TestGreetingLookup(t *testing.T) {
	reply, ok := Greeting(" Thanks ")
	assert.True(t, ok)
	assert.Equal(t, "You're welcome! 😊", reply)

	_, ok = Greeting("hi there")
	assert.False(t, ok)
}
