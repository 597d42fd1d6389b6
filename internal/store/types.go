package store

// Document IDs are ULIDs minted by this service, stored as the _id field.
// Timestamps are RFC 3339 strings for lexicographic-order cursors.

// UserStamp identifies the dashboard user attached to a document.
type UserStamp struct {
	UserID string `bson:"userId" json:"userId"`
	Name   string `bson:"name" json:"name"`
	Image  string `bson:"image,omitempty" json:"image,omitempty"`
}

// Kudos is one entry of the appreciation feed.
type Kudos struct {
	ID            string `bson:"_id" json:"_id"`
	FromUserID    string `bson:"fromUserId" json:"fromUserId"`
	FromUserName  string `bson:"fromUserName" json:"fromUserName"`
	FromUserImage string `bson:"fromUserImage,omitempty" json:"fromUserImage,omitempty"`
	ToUserID      string `bson:"toUserId" json:"toUserId"`
	ToUserName    string `bson:"toUserName" json:"toUserName"`
	ToUserImage   string `bson:"toUserImage,omitempty" json:"toUserImage,omitempty"`
	Message       string `bson:"message" json:"message"`
	CreatedAt     string `bson:"createdAt" json:"createdAt"`
}

// Bounty is a posted task with a reward.
type Bounty struct {
	ID          string     `bson:"_id" json:"_id"`
	Title       string     `bson:"title" json:"title"`
	Description string     `bson:"description" json:"description"`
	Reward      string     `bson:"reward" json:"reward"`
	JiraKey     string     `bson:"jiraKey,omitempty" json:"jiraKey,omitempty"`
	CreatedBy   UserStamp  `bson:"createdBy" json:"createdBy"`
	ClaimedBy   *UserStamp `bson:"claimedBy,omitempty" json:"claimedBy,omitempty"`
	Status      string     `bson:"status" json:"status"`
	CreatedAt   string     `bson:"createdAt" json:"createdAt"`
	UpdatedAt   string     `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// Participant is one attendee of a calendar event.
type Participant struct {
	UserID string `bson:"userId" json:"userId"`
	Name   string `bson:"name" json:"name"`
	Email  string `bson:"email" json:"email"`
}

// CalendarEvent is a team calendar entry. The single-owner fields mirror
// the first participant for queries filtering by one user.
type CalendarEvent struct {
	ID           string        `bson:"_id" json:"_id"`
	Title        string        `bson:"title" json:"title"`
	Type         string        `bson:"type" json:"type"`
	StartDate    string        `bson:"startDate" json:"startDate"`
	EndDate      string        `bson:"endDate" json:"endDate"`
	AllDay       bool          `bson:"allDay" json:"allDay"`
	Participants []Participant `bson:"participants,omitempty" json:"participants,omitempty"`
	UserID       string        `bson:"userId,omitempty" json:"userId,omitempty"`
	UserEmail    string        `bson:"userEmail,omitempty" json:"userEmail,omitempty"`
	UserName     string        `bson:"userName,omitempty" json:"userName,omitempty"`
	Description  string        `bson:"description,omitempty" json:"description,omitempty"`
	CreatedBy    string        `bson:"createdBy" json:"createdBy"`
	CreatedAt    string        `bson:"createdAt" json:"createdAt"`
}

// EventTypes is the allowed calendar event type set.
var EventTypes = []string{"time-off", "team-event", "meeting", "holiday"}

// ValidEventType reports membership in EventTypes.
func ValidEventType(s string) bool {
	for _, v := range EventTypes {
		if s == v {
			return true
		}
	}
	return false
}

// Feedback is one dashboard feedback entry.
type Feedback struct {
	ID         string   `bson:"_id" json:"id"`
	Username   string   `bson:"username" json:"username"`
	Comment    string   `bson:"comment" json:"comment"`
	AvatarURL  string   `bson:"avatarUrl,omitempty" json:"avatar_url,omitempty"`
	ImageURL   string   `bson:"imageUrl,omitempty" json:"image_url,omitempty"`
	Categories []string `bson:"categories,omitempty" json:"categories,omitempty"`
	Resolved   bool     `bson:"resolved" json:"resolved"`
	CreatedAt  string   `bson:"createdAt" json:"created_at"`
	UpdatedAt  string   `bson:"updatedAt" json:"updated_at"`
}

// FeedbackCategories is the allowed category set.
var FeedbackCategories = []string{"ui", "bug", "feature", "performance", "other"}

// ValidFeedbackCategory reports membership in FeedbackCategories.
func ValidFeedbackCategory(s string) bool {
	for _, v := range FeedbackCategories {
		if s == v {
			return true
		}
	}
	return false
}
