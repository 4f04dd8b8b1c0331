// Package mcpserver exposes the tool dispatcher over the Model Context
// Protocol so desktop assistants can drive the same tools as the chat client.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/youi/backend/internal/models"
	"github.com/youi/backend/internal/tools"
)

// Handler runs one tool call.
type Handler interface {
	Handle(ctx context.Context, req models.ToolRequest) tools.Result
}

var descriptions = map[string]string{
	tools.ToolSearch:        "Search YouTube videos. maxResults defaults to 10 and is capped at 50.",
	tools.ToolLikedVideos:   "List the signed-in account's liked videos.",
	tools.ToolHistory:       "Alias of youtube.getLikedVideos; the platform exposes no watch history.",
	tools.ToolLikeVideo:     "Rate a video. rating is like, dislike or none and defaults to like.",
	tools.ToolVideoInfo:     "Fetch snippet, statistics and content details of one video.",
	tools.ToolChannelVideos: "Find a channel by name and list its latest videos.",
	tools.ToolSubscribe:     "Subscribe the signed-in account to a channel id.",
	tools.ToolSubscriptions: "List the signed-in account's subscriptions.",
	tools.ToolDescribeVideo: "Summarize a video from its link using its title and description.",
	tools.ToolRecommend:     "Ask the model for five videos similar to the recently liked titles.",
	tools.ToolChat:          "Send text to the completion model and return its answer.",
	tools.ToolChatSmart:     "Same as youi.chat.",
}

// New returns an MCP server with every dispatcher tool registered.
func New(handler Handler, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "youi",
		Version: version,
	}, nil)

	addTool[tools.SearchInput](server, handler, tools.ToolSearch)
	addTool[tools.NoInput](server, handler, tools.ToolLikedVideos)
	addTool[tools.NoInput](server, handler, tools.ToolHistory)
	addTool[tools.LikeVideoInput](server, handler, tools.ToolLikeVideo)
	addTool[tools.VideoInfoInput](server, handler, tools.ToolVideoInfo)
	addTool[tools.ChannelVideosInput](server, handler, tools.ToolChannelVideos)
	addTool[tools.SubscribeInput](server, handler, tools.ToolSubscribe)
	addTool[tools.NoInput](server, handler, tools.ToolSubscriptions)
	addTool[tools.DescribeVideoInput](server, handler, tools.ToolDescribeVideo)
	addTool[tools.NoInput](server, handler, tools.ToolRecommend)
	addTool[tools.ChatInput](server, handler, tools.ToolChat)
	addTool[tools.ChatInput](server, handler, tools.ToolChatSmart)
	return server
}

// Run serves MCP over stdin/stdout until ctx is done or the peer disconnects.
func Run(ctx context.Context, handler Handler, version string) error {
	return New(handler, version).Run(ctx, &mcp.StdioTransport{})
}

func addTool[In any](server *mcp.Server, handler Handler, name string) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        name,
		Description: descriptions[name],
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: readOnly(name)},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in In) (*mcp.CallToolResult, any, error) {
		input, err := tools.EncodeInput(in)
		if err != nil {
			return nil, nil, err
		}
		res := handler.Handle(ctx, models.ToolRequest{Tool: name, Input: input})
		return toResult(res)
	})
}

// toResult renders the wire body as text content. Failures are reported as tool
// errors so the calling model can see and react to them.
func toResult(res tools.Result) (*mcp.CallToolResult, any, error) {
	var text string
	if s, ok := res.Payload.(string); ok && !res.Failed() {
		text = s
	} else {
		body, err := json.Marshal(res.Body())
		if err != nil {
			return nil, nil, fmt.Errorf("encode %s result: %w", res.Kind, err)
		}
		text = string(body)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: res.Failed(),
	}, nil, nil
}

func readOnly(name string) bool {
	switch name {
	case tools.ToolLikeVideo, tools.ToolSubscribe:
		return false
	}
	return true
}
