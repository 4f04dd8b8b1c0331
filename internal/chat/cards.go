package chat

import (
	"encoding/json"

	"github.com/youi/backend/internal/youtube"
)

// Card is one entry of the video grid.
type Card struct {
	VideoID    string
	Title      string
	Channel    string
	ChannelID  string
	Thumbnail  string
	Liked      bool
	Subscribed bool
}

// WatchURL is where opening the card takes the user.
func (c Card) WatchURL() string {
	return "https://www.youtube.com/watch?v=" + c.VideoID
}

type itemSnippet struct {
	youtube.Snippet
	ResourceID youtube.ResourceID `json:"resourceId"`
}

type rawItem struct {
	ID      json.RawMessage `json:"id"`
	Snippet itemSnippet     `json:"snippet"`
}

// itemsOf returns the "items" array of a platform response and whether the
// response had one.
func itemsOf(raw json.RawMessage) ([]rawItem, bool) {
	var page struct {
		Items *[]rawItem `json:"items"`
	}
	if err := json.Unmarshal(raw, &page); err != nil || page.Items == nil {
		return nil, false
	}
	return *page.Items, true
}

// cardFromItem handles the id shapes of search results ({videoId}), video
// lists (a plain string) and subscriptions (snippet.resourceId).
func cardFromItem(item rawItem) Card {
	card := Card{
		Title:     item.Snippet.Title,
		Channel:   item.Snippet.ChannelTitle,
		ChannelID: item.Snippet.ChannelID,
		Thumbnail: item.Snippet.BestThumbnail(),
	}

	var plain string
	if err := json.Unmarshal(item.ID, &plain); err == nil {
		card.VideoID = plain
	} else {
		var id youtube.ResourceID
		if err := json.Unmarshal(item.ID, &id); err == nil {
			card.VideoID = id.VideoID
			if id.ChannelID != "" && card.ChannelID == "" {
				card.ChannelID = id.ChannelID
			}
		}
	}

	if item.Snippet.ResourceID.ChannelID != "" {
		card.ChannelID = item.Snippet.ResourceID.ChannelID
		card.Channel = item.Snippet.Title
		if item.Snippet.ResourceID.Kind == "youtube#channel" {
			card.VideoID = ""
		}
	}
	return card
}
