// Package store persists the team-social collections (kudos, bounties,
// calendar events, feedback) in a document database.
package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound means the referenced document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrInvalidStatus means a bounty status outside the allowed set.
	ErrInvalidStatus = errors.New("invalid bounty status")
)

// BountyStatuses is the allowed bounty lifecycle set.
var BountyStatuses = []string{"open", "claimed", "rewarded"}

// ValidBountyStatus reports membership in BountyStatuses.
func ValidBountyStatus(s string) bool {
	for _, v := range BountyStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// KudosQuery filters the kudos feed.
type KudosQuery struct {
	Limit    int
	Before   string // createdAt cursor, exclusive
	ToUserID string
}

// KudosPage is one page of the kudos feed.
type KudosPage struct {
	Kudos      []Kudos `json:"kudos"`
	HasMore    bool    `json:"hasMore"`
	NextCursor string  `json:"nextCursor,omitempty"`
}

// BountyQuery filters the bounty board.
type BountyQuery struct {
	Status string
	Limit  int
}

// EventQuery filters calendar events. StartDate/EndDate select events
// overlapping the range; UserId narrows to a single owner.
type EventQuery struct {
	StartDate string
	EndDate   string
	UserID    string
}

// FeedbackQuery filters the feedback list.
type FeedbackQuery struct {
	Page       int
	PageSize   int
	Username   string
	Categories []string
}

// FeedbackList is one page of feedback with pagination totals.
type FeedbackList struct {
	Feedbacks  []Feedback `json:"feedbacks"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	Total      int64      `json:"total"`
	TotalPages int64      `json:"total_pages"`
}

// Store defines the interface contract for all dashboard persistence.
type Store interface {
	ListKudos(ctx context.Context, q KudosQuery) (*KudosPage, error)
	CreateKudos(ctx context.Context, k Kudos) (string, error)

	ListBounties(ctx context.Context, q BountyQuery) ([]Bounty, error)
	CreateBounty(ctx context.Context, b Bounty) (string, error)
	UpdateBountyStatus(ctx context.Context, id, status string, claimant *UserStamp) error

	ListEvents(ctx context.Context, q EventQuery) ([]CalendarEvent, error)
	CreateEvent(ctx context.Context, e CalendarEvent) (string, error)
	UpdateEvent(ctx context.Context, id string, e CalendarEvent) error
	DeleteEvent(ctx context.Context, id string) error

	ListFeedback(ctx context.Context, q FeedbackQuery) (*FeedbackList, error)
	CreateFeedback(ctx context.Context, f Feedback) (string, error)
	SetFeedbackResolved(ctx context.Context, id string, resolved bool) error

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
