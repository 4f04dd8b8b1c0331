package youtube

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// Thumbnail is one rendition of a video or channel image.
type Thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// Snippet is the subset of the platform's snippet object the app reads.
type Snippet struct {
	Title        string               `json:"title"`
	Description  string               `json:"description"`
	ChannelID    string               `json:"channelId"`
	ChannelTitle string               `json:"channelTitle"`
	Thumbnails   map[string]Thumbnail `json:"thumbnails"`
}

// BestThumbnail returns the highest quality thumbnail URL available.
func (s Snippet) BestThumbnail() string {
	for _, size := range []string{"high", "medium", "default"} {
		if t, ok := s.Thumbnails[size]; ok && t.URL != "" {
			return t.URL
		}
	}
	return ""
}

// ResourceID identifies the resource a search result points at.
type ResourceID struct {
	Kind      string `json:"kind"`
	VideoID   string `json:"videoId,omitempty"`
	ChannelID string `json:"channelId,omitempty"`
}

// SearchResult is one item of a search.list response.
type SearchResult struct {
	ID      ResourceID `json:"id"`
	Snippet Snippet    `json:"snippet"`
}

// SearchListResponse is a search.list page.
type SearchListResponse struct {
	Items []SearchResult `json:"items"`
}

// Video is one item of a videos.list response.
type Video struct {
	ID      string  `json:"id"`
	Snippet Snippet `json:"snippet"`
}

// VideoListResponse is a videos.list page.
type VideoListResponse struct {
	Items []Video `json:"items"`
}

// Decode unmarshals a raw platform response into T.
func Decode[T any](raw json.RawMessage) (T, error) {
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode youtube response: %w", err)
	}
	return out, nil
}

var videoIDPattern = regexp.MustCompile(`(?:v=|youtu\.be/)([^&?\n]+)`)

// ExtractVideoID pulls the video id out of a watch or short link. It returns
// "" when the link carries none.
func ExtractVideoID(link string) string {
	m := videoIDPattern.FindStringSubmatch(link)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}
