// Package youtube calls the YouTube Data API v3 on behalf of the signed-in
// user. Responses are returned as raw JSON so they can be passed through to
// callers unchanged.
package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/youi/backend/internal/upstream"
)

// DefaultBaseURL is the public Data API root.
const DefaultBaseURL = "https://www.googleapis.com/youtube/v3"

const (
	defaultSearchResults = 10
	maxSearchResults     = 50
	likedVideosPageSize  = 10
	channelVideosPage    = 10
	subscriptionsPage    = 25
)

var (
	// ErrChannelNotFound is returned when a channel lookup has no match.
	ErrChannelNotFound = errors.New("channel not found")
	// ErrInvalidRating is returned for a rating other than like, dislike or none.
	ErrInvalidRating = errors.New("rating must be like, dislike or none")
	// ErrMissingID is returned when a required video or channel id is empty.
	ErrMissingID = errors.New("id must be provided")
)

// Client performs Data API calls with a caller-supplied bearer token.
type Client struct {
	baseURL string
	caller  upstream.Caller
	cache   *InfoCache
}

// Option customises a Client.
type Option func(*Client)

// WithInfoCache caches VideoInfo responses for ttl. A non-positive ttl disables it.
func WithInfoCache(ttl time.Duration) Option {
	return func(c *Client) {
		if ttl > 0 {
			c.cache = NewInfoCache(c.fetchVideoInfo, ttl)
		}
	}
}

// NewClient builds a client against baseURL (DefaultBaseURL when empty).
func NewClient(baseURL string, httpClient upstream.Doer, policy upstream.Policy, opts ...Option) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		caller: upstream.Caller{
			Service: "youtube",
			Client:  httpClient,
			Policy:  policy,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search finds videos matching query. maxResults is clamped to the 1..50
// window the Data API accepts, with 10 for a non-positive value.
func (c *Client) Search(ctx context.Context, token, query string, maxResults int) (json.RawMessage, error) {
	if maxResults <= 0 {
		maxResults = defaultSearchResults
	}
	if maxResults > maxSearchResults {
		maxResults = maxSearchResults
	}
	return c.get(ctx, token, "search", "search", url.Values{
		"part":       {"snippet"},
		"q":          {query},
		"maxResults": {strconv.Itoa(maxResults)},
		"type":       {"video"},
	})
}

// LikedVideos lists the first page of videos the user rated "like".
func (c *Client) LikedVideos(ctx context.Context, token string) (json.RawMessage, error) {
	return c.get(ctx, token, "liked_videos", "videos", url.Values{
		"part":       {"snippet,contentDetails,statistics"},
		"myRating":   {"like"},
		"maxResults": {strconv.Itoa(likedVideosPageSize)},
	})
}

// Rate sets the user's rating on a video. An empty rating means "like".
func (c *Client) Rate(ctx context.Context, token, videoID, rating string) (json.RawMessage, error) {
	if videoID == "" {
		return nil, fmt.Errorf("rate video: %w", ErrMissingID)
	}
	if rating == "" {
		rating = "like"
	}
	switch rating {
	case "like", "dislike", "none":
	default:
		return nil, ErrInvalidRating
	}

	query := url.Values{"id": {videoID}, "rating": {rating}}
	_, err := c.caller.Do(ctx, "rate", func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("videos/rate", query), nil)
		if err != nil {
			return nil, err
		}
		setBearer(req, token)
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	return json.RawMessage(`{"success":true}`), nil
}

// VideoInfo returns snippet, statistics and content details for one video.
func (c *Client) VideoInfo(ctx context.Context, token, videoID string) (json.RawMessage, error) {
	if videoID == "" {
		return nil, fmt.Errorf("video info: %w", ErrMissingID)
	}
	if c.cache != nil {
		return c.cache.Lookup(ctx, token, videoID)
	}
	return c.fetchVideoInfo(ctx, token, videoID)
}

func (c *Client) fetchVideoInfo(ctx context.Context, token, videoID string) (json.RawMessage, error) {
	return c.get(ctx, token, "video_info", "videos", url.Values{
		"id":   {videoID},
		"part": {"snippet,statistics,contentDetails"},
	})
}

// ChannelVideos resolves channelName to the best matching channel and lists
// its most recent uploads.
func (c *Client) ChannelVideos(ctx context.Context, token, channelName string) (json.RawMessage, error) {
	raw, err := c.get(ctx, token, "channel_lookup", "search", url.Values{
		"part":       {"snippet"},
		"q":          {channelName},
		"type":       {"channel"},
		"maxResults": {"1"},
	})
	if err != nil {
		return nil, err
	}

	found, err := Decode[SearchListResponse](raw)
	if err != nil {
		return nil, err
	}
	if len(found.Items) == 0 || found.Items[0].ID.ChannelID == "" {
		return nil, ErrChannelNotFound
	}

	return c.get(ctx, token, "channel_videos", "search", url.Values{
		"part":       {"snippet"},
		"channelId":  {found.Items[0].ID.ChannelID},
		"order":      {"date"},
		"maxResults": {strconv.Itoa(channelVideosPage)},
	})
}

// Subscribe subscribes the user to channelID and returns the created resource.
func (c *Client) Subscribe(ctx context.Context, token, channelID string) (json.RawMessage, error) {
	if channelID == "" {
		return nil, fmt.Errorf("subscribe: %w", ErrMissingID)
	}

	body, err := json.Marshal(map[string]any{
		"snippet": map[string]any{
			"resourceId": map[string]string{
				"kind":      "youtube#channel",
				"channelId": channelID,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("encode subscription: %w", err)
	}

	query := url.Values{"part": {"snippet"}}
	resp, err := c.caller.Do(ctx, "subscribe", func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("subscriptions", query), bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		setBearer(req, token)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	return rawBody(resp.Body), nil
}

// Subscriptions lists the first page of the user's subscriptions.
func (c *Client) Subscriptions(ctx context.Context, token string) (json.RawMessage, error) {
	return c.get(ctx, token, "subscriptions", "subscriptions", url.Values{
		"part":       {"snippet"},
		"mine":       {"true"},
		"maxResults": {strconv.Itoa(subscriptionsPage)},
	})
}

func (c *Client) get(ctx context.Context, token, op, path string, query url.Values) (json.RawMessage, error) {
	resp, err := c.caller.Do(ctx, op, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path, query), nil)
		if err != nil {
			return nil, err
		}
		setBearer(req, token)
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	return rawBody(resp.Body), nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	return c.baseURL + "/" + path + "?" + query.Encode()
}

func setBearer(req *http.Request, token string) {
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
}

// rawBody returns body as JSON, substituting an empty object for an empty body.
func rawBody(body []byte) json.RawMessage {
	if len(bytes.TrimSpace(body)) == 0 {
		return json.RawMessage(`{}`)
	}
	return json.RawMessage(body)
}
