package github

import "fmt"

// Ticket is an open issue that tracks an unmatched artist.
type Ticket struct {
	ID         int64
	Number     int
	ArtistName string // lower-cased
}

// issue is an entry of the issues list response.
type issue struct {
	ID          int64           `json:"id"`
	Number      int             `json:"number"`
	Title       string          `json:"title"`
	State       string          `json:"state"`
	PullRequest *pullRequestRef `json:"pull_request,omitempty"`
}

type pullRequestRef struct {
	URL string `json:"url"`
}

type createIssueRequest struct {
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	Assignees []string `json:"assignees,omitempty"`
}

type updateIssueRequest struct {
	State       string `json:"state"`
	StateReason string `json:"state_reason"`
}

// ErrTicket indicates the issue tracker rejected a request.
type ErrTicket struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *ErrTicket) Error() string {
	return fmt.Sprintf("issue tracker %s returned status %d", e.Op, e.StatusCode)
}
