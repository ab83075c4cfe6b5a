package models

import (
	"regexp"
	"time"
)

// Event categories. TOURNAMENT and CHAMPIONSHIP are multi-game: only they
// carry an ordered schedule of sub-games.
const (
	CategoryTraining      = "TRAINING"
	CategoryTournament    = "TOURNAMENT"
	CategoryChampionship  = "CHAMPIONSHIP"
	CategoryFriendlyMatch = "FRIENDLY_MATCH"
	CategoryMeeting       = "MEETING"
	CategoryMaintenance   = "MAINTENANCE"
	CategoryOther         = "OTHER"
)

var eventCategories = map[string]bool{
	CategoryTraining:      true,
	CategoryTournament:    true,
	CategoryChampionship:  true,
	CategoryFriendlyMatch: true,
	CategoryMeeting:       true,
	CategoryMaintenance:   true,
	CategoryOther:         true,
}

// ValidCategory reports whether c is one of the fixed event categories.
func ValidCategory(c string) bool {
	return eventCategories[c]
}

// MultiGame reports whether events of category c carry a sub-game schedule.
func MultiGame(c string) bool {
	return c == CategoryTournament || c == CategoryChampionship
}

// RSVP statuses. PENDING is implicit for any member without a record.
const (
	RSVPPending   = "PENDING"
	RSVPConfirmed = "CONFIRMED"
	RSVPDeclined  = "DECLINED"
)

// ValidRSVPStatus reports whether s is one of the three RSVP statuses.
func ValidRSVPStatus(s string) bool {
	return s == RSVPPending || s == RSVPConfirmed || s == RSVPDeclined
}

type Event struct {
	ID           string    `json:"id"`
	TeamID       string    `json:"team_id"`
	Category     string    `json:"category"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	StartAt      time.Time `json:"start_at"`
	Location     string    `json:"location,omitempty"`
	Cost         float64   `json:"cost,omitempty"`
	MaxAttendees int       `json:"max_attendees,omitempty"`
	CreatedSeq   int64     `json:"-"` // monotonic creation order, conflict tie-break
	CreatedBy    string    `json:"created_by,omitempty"`

	// Derived, always recomputed server-side.
	ConfirmedCount int  `json:"confirmed_count"`
	IsConflict     bool `json:"is_conflict"`

	// Caller-specific, filled on snapshot reads.
	RSVPStatus string `json:"rsvp_status,omitempty"`

	Schedule []ScheduleEntry `json:"schedule,omitempty"`
}

// ScheduleEntry is one sub-game of a multi-game event. Ordering key is
// TimeOfDay, compared lexicographically; valid because the encoding is
// fixed-width 24-hour HH:MM.
type ScheduleEntry struct {
	ID        string `json:"id"`
	EventID   string `json:"event_id"`
	TimeOfDay string `json:"time"`
	Opponent  string `json:"opponent"`
	Result    string `json:"result,omitempty"`
}

var timeOfDayRe = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// ValidTimeOfDay reports whether s is a fixed-width 24-hour HH:MM clock time.
func ValidTimeOfDay(s string) bool {
	return timeOfDayRe.MatchString(s)
}

type RSVPRecord struct {
	EventID  string `json:"event_id"`
	MemberID string `json:"member_id"`
	Status   string `json:"status"`
}

type CreateEventRequest struct {
	Category     string  `json:"category" binding:"required"`
	Title        string  `json:"title" binding:"required"`
	StartAt      string  `json:"start_at" binding:"required"` // ISO-8601 instant
	Description  string  `json:"description"`
	Location     string  `json:"location"`
	Cost         float64 `json:"cost"`
	MaxAttendees int     `json:"max_attendees"`
}

type SetRSVPRequest struct {
	Status string `json:"status" binding:"required"`
}

type SetRSVPResponse struct {
	ConfirmedCount int    `json:"confirmed_count"`
	Status         string `json:"status"`
}

type AppendScheduleRequest struct {
	TimeOfDay string `json:"time" binding:"required"`
	Opponent  string `json:"opponent" binding:"required"`
}

type ScheduleResponse struct {
	Schedule []ScheduleEntry `json:"schedule"`
}
