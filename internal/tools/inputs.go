package tools

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// SearchInput is the input of youtube.search.
type SearchInput struct {
	Query      string `json:"query" mapstructure:"query"`
	MaxResults int    `json:"maxResults,omitempty" mapstructure:"maxResults"`
}

// LikeVideoInput is the input of youtube.likeVideo.
type LikeVideoInput struct {
	VideoID string `json:"videoId" mapstructure:"videoId"`
	Rating  string `json:"rating,omitempty" mapstructure:"rating"`
}

// VideoInfoInput is the input of youtube.videoInfo.
type VideoInfoInput struct {
	VideoID string `json:"videoId" mapstructure:"videoId"`
}

// ChannelVideosInput is the input of youtube.channelVideos.
type ChannelVideosInput struct {
	Channel string `json:"channel" mapstructure:"channel"`
}

// SubscribeInput is the input of youtube.subscribe.
type SubscribeInput struct {
	ChannelID string `json:"channelId" mapstructure:"channelId"`
}

// DescribeVideoInput is the input of youtube.describeVideo.
type DescribeVideoInput struct {
	URL string `json:"url" mapstructure:"url"`
}

// ChatInput is the input of youi.chat and youi.chatSmart.
type ChatInput struct {
	Text string `json:"text" mapstructure:"text"`
}

// NoInput is the input of tools that take no arguments.
type NoInput struct{}

// DecodeInput converts a loosely typed JSON object into T. Numbers sent as
// strings or floats are accepted.
func DecodeInput[T any](input map[string]any) (T, error) {
	var out T
	if len(input) == 0 {
		return out, nil
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
		Result:           &out,
	})
	if err != nil {
		return out, err
	}
	if err := decoder.Decode(input); err != nil {
		return out, fmt.Errorf("invalid input: %w", err)
	}
	return out, nil
}

// EncodeInput converts a typed input back into the generic map carried by a
// ToolRequest.
func EncodeInput(in any) (map[string]any, error) {
	out := map[string]any{}
	if err := mapstructure.Decode(in, &out); err != nil {
		return nil, fmt.Errorf("encode input: %w", err)
	}
	for k, v := range out {
		if s, ok := v.(string); ok && s == "" {
			delete(out, k)
		}
		if n, ok := v.(int); ok && n == 0 {
			delete(out, k)
		}
	}
	return out, nil
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", field)
	}
	return nil
}
