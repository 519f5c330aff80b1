package projects

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("project not found")

// Project is a tracked project: the tag posts are filed under and the
// recent-search query used to collect them.
type Project struct {
	Name        string    `json:"name"`
	Query       string    `json:"query"`
	Enabled     bool      `json:"enabled"`
	RequestedAt time.Time `json:"requested_at"`
}
