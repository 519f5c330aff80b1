package xapi

import "time"

// TweetObject is a single tweet from the recent-search endpoint.
type TweetObject struct {
	ID          string       `json:"id"`
	Text        string       `json:"text"`
	AuthorID    string       `json:"author_id"`
	CreatedAt   time.Time    `json:"created_at"`
	Attachments *Attachments `json:"attachments,omitempty"`
}

// Attachments lists the media keys attached to a tweet.
type Attachments struct {
	MediaKeys []string `json:"media_keys"`
}

// UserObject is an expanded author.
type UserObject struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// MediaObject is an expanded media attachment.
type MediaObject struct {
	MediaKey string `json:"media_key"`
	Type     string `json:"type"`
	URL      string `json:"url"`
}

// Includes carries the expanded objects requested alongside the tweets.
type Includes struct {
	Users []UserObject  `json:"users"`
	Media []MediaObject `json:"media"`
}

// SearchResponse is the recent-search envelope.
type SearchResponse struct {
	Data     []TweetObject `json:"data"`
	Includes *Includes     `json:"includes,omitempty"`
	Meta     struct {
		ResultCount int    `json:"result_count"`
		NewestID    string `json:"newest_id"`
	} `json:"meta"`
}

// UsersByID indexes the expanded users for author lookup.
func (r *SearchResponse) UsersByID() map[string]UserObject {
	if r.Includes == nil {
		return nil
	}
	out := make(map[string]UserObject, len(r.Includes.Users))
	for _, u := range r.Includes.Users {
		out[u.ID] = u
	}
	return out
}

// MediaByKey indexes the expanded media for attachment lookup.
func (r *SearchResponse) MediaByKey() map[string]MediaObject {
	if r.Includes == nil {
		return nil
	}
	out := make(map[string]MediaObject, len(r.Includes.Media))
	for _, m := range r.Includes.Media {
		out[m.MediaKey] = m
	}
	return out
}

// FirstMediaURL returns the URL of the tweet's first photo attachment,
// or "" when it has none.
func (t *TweetObject) FirstMediaURL(media map[string]MediaObject) string {
	if t.Attachments == nil {
		return ""
	}
	for _, key := range t.Attachments.MediaKeys {
		if m, ok := media[key]; ok && m.Type == "photo" && m.URL != "" {
			return m.URL
		}
	}
	return ""
}
