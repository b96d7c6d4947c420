package models

import "time"

// SheetLink is a published timetable document discovered on the schedule page.
type SheetLink struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Date  string `json:"date"` // dd.mm as printed in the anchor title
}

// ScheduleRecord is one discovered timetable document: the published date
// with the page link it was found under and the resolved spreadsheet URL.
// The stored date set is what makes new-date detection survive restarts.
type ScheduleRecord struct {
	Date      string    `db:"date" json:"date"`
	LinkURL   string    `db:"link_url" json:"link_url"`
	GoogleURL string    `db:"google_url" json:"google_url"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// SheetHash is the last seen content hash of one tab of one document, with
// the tab title captured for change descriptors.
type SheetHash struct {
	DocID     string    `db:"doc_id" json:"doc_id"`
	Gid       string    `db:"gid" json:"gid"`
	Title     string    `db:"title" json:"title"`
	Hash      string    `db:"hash" json:"hash"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// UserPreference controls which notifications a user receives.
type UserPreference struct {
	UserID        int64     `db:"user_id" json:"user_id"`
	Class         string    `db:"class" json:"class"`
	NotifyNew     bool      `db:"notify_new" json:"notify_new"`
	NotifyChanges bool      `db:"notify_changes" json:"notify_changes"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// User is a known chat user.
type User struct {
	ID        int64     `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	FirstSeen time.Time `db:"first_seen" json:"first_seen"`
	LastSeen  time.Time `db:"last_seen" json:"last_seen"`
}

// Event is an audit record of a delivery or system occurrence.
type Event struct {
	ID        string    `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Kind      string    `db:"kind" json:"kind"`
	Payload   string    `db:"payload" json:"payload"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// CabinetEntry is one lesson occupying a physical room on a date.
type CabinetEntry struct {
	Cabinet string `json:"cabinet"`
	Class   string `json:"class"`
	Time    string `json:"time"`
	Subject string `json:"subject"`
}

// Event kinds written by the notifier.
const (
	EventNotifyNewSent     = "notify_new_sent"
	EventNotifyNewSkip     = "notify_new_skip_no_class"
	EventNotifyNewError    = "notify_new_error"
	EventNotifyChangeSent  = "notify_change_sent"
	EventNotifyChangeError = "notify_change_error"
	EventBroadcast         = "broadcast"
)
