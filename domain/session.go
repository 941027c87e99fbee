package domain

import "time"

// SessionStatus enumerates the lifecycle status of a session record.
// The only status ever written is SessionStatusActive: terminating a session
// deletes the record instead of transitioning it to a closed state.
type SessionStatus string

const (
	SessionStatusActive SessionStatus = "active"
)

// PlaceholderValue is stored in the location and IP fields of every session.
// Real geolocation/IP capture is not implemented; the fields exist so the
// sessions UI can render a stable shape.
const PlaceholderValue = "Unknown"

// Session represents one logged-in client instance of a user.
type Session struct {
	ID         string        `bson:"_id" json:"id"`
	UserID     string        `bson:"user_id" json:"userId"`
	Device     string        `bson:"device" json:"device"`
	Browser    string        `bson:"browser" json:"browser"`
	UserAgent  string        `bson:"user_agent" json:"userAgent"`
	Location   string        `bson:"location" json:"location"`
	IP         string        `bson:"ip" json:"ip"`
	StartDate  time.Time     `bson:"start_date" json:"startDate"`
	LastActive time.Time     `bson:"last_active" json:"lastActive"`
	Status     SessionStatus `bson:"status" json:"status"`
}

// IsActive reports whether the record may be resumed by a returning client.
func (s *Session) IsActive() bool {
	return s.Status == SessionStatusActive
}

// SessionView is the display form of a session returned to the UI layer.
// Exactly one view in a user's list carries IsCurrent=true: the one matching
// the client's locally persisted session pointer.
type SessionView struct {
	Session
	IsCurrent bool `json:"isCurrent"`
}
