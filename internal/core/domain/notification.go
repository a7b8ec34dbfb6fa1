package domain

import "time"

// Severity classifies a notification.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notification is one entry of the user's feed.
type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
	Read      bool      `json:"read"`
	Link      string    `json:"link,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// NotificationPage is one page returned by the listing collaborator.
type NotificationPage struct {
	Items []Notification `json:"items"`
	Total int            `json:"total"`
}

// FeedState is the poller's view of the feed. UnreadCount is always
// derived from Items; see CountUnread.
type FeedState struct {
	Items          []Notification
	UnreadCount    int
	LastFetchError error
	FetchedAt      time.Time
}

// CountUnread counts items with Read == false.
func CountUnread(items []Notification) int {
	n := 0
	for i := range items {
		if !items[i].Read {
			n++
		}
	}
	return n
}

// Clone copies the item slice so snapshots are independent.
func (f FeedState) Clone() FeedState {
	if f.Items != nil {
		items := make([]Notification, len(f.Items))
		copy(items, f.Items)
		f.Items = items
	}
	return f
}
