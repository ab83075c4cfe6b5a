package services

import (
	"context"
	"database/sql"
	"iter"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/headshot-gladiators/teamops-api/models"
	"github.com/headshot-gladiators/teamops-api/utils"
)

// EventService owns events and their sub-game schedules, and keeps the
// per-team conflict flags current. Derived fields (confirmed_count,
// is_conflict) are always recomputed inside the mutating transaction,
// never trusted from the caller.
type EventService struct {
	db       *sql.DB
	detector *ConflictDetector
}

func NewEventService(db *sql.DB, detector *ConflictDetector) *EventService {
	return &EventService{db: db, detector: detector}
}

// Create inserts the event, auto-confirms the creator and refreshes the
// team's conflict flags, all in one transaction. The returned event
// carries confirmed_count = 1 for the creator's implicit RSVP.
func (s *EventService) Create(ctx context.Context, actorID string, req models.CreateEventRequest) (*models.Event, error) {
	actor, err := s.memberByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdminTier() {
		return nil, &models.AuthorizationError{Msg: "only admins and captains can create events"}
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, models.NewValidationError("title is required")
	}
	if !models.ValidCategory(req.Category) {
		return nil, models.NewValidationError("unknown event category %q", req.Category)
	}
	startAt, err := time.Parse(time.RFC3339, req.StartAt)
	if err != nil {
		return nil, models.NewValidationError("start_at must be an ISO-8601 instant: %v", err)
	}

	event := &models.Event{
		TeamID:       actor.TeamID,
		Category:     req.Category,
		Title:        title,
		Description:  req.Description,
		StartAt:      startAt,
		Location:     req.Location,
		Cost:         req.Cost,
		MaxAttendees: req.MaxAttendees,
		CreatedBy:    actorID,
	}

	err = utils.WithTransaction(s.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO events (team_id, category, title, description, start_at, location, cost, max_attendees, created_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id, created_seq
		`, event.TeamID, event.Category, event.Title, event.Description, event.StartAt,
			event.Location, event.Cost, event.MaxAttendees, actorID).Scan(&event.ID, &event.CreatedSeq)
		if err != nil {
			return err
		}

		// Creator is implicitly attending.
		_, err = tx.ExecContext(ctx, `
			INSERT INTO rsvps (event_id, member_id, status)
			VALUES ($1, $2, $3)
		`, event.ID, actorID, models.RSVPConfirmed)
		if err != nil {
			return err
		}

		return s.refreshConflicts(ctx, tx, event.TeamID)
	})
	if err != nil {
		return nil, err
	}

	event.ConfirmedCount = 1
	event.RSVPStatus = models.RSVPConfirmed
	event.IsConflict, err = s.conflictFlag(ctx, event.ID)
	if err != nil {
		return nil, err
	}

	return event, nil
}

// Reschedule moves an event's start instant and refreshes the team's
// conflict flags in the same transaction.
func (s *EventService) Reschedule(ctx context.Context, actorID, eventID, startAt string) (*models.Event, error) {
	actor, err := s.memberByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdminTier() {
		return nil, &models.AuthorizationError{Msg: "only admins and captains can reschedule events"}
	}

	start, err := time.Parse(time.RFC3339, startAt)
	if err != nil {
		return nil, models.NewValidationError("start_at must be an ISO-8601 instant: %v", err)
	}

	var teamID string
	err = utils.WithTransaction(s.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			UPDATE events SET start_at = $1 WHERE id = $2
			RETURNING team_id
		`, start, eventID).Scan(&teamID)
		if err == sql.ErrNoRows {
			return &models.NotFoundError{Resource: "event", ID: eventID}
		}
		if err != nil {
			return err
		}
		return s.refreshConflicts(ctx, tx, teamID)
	})
	if err != nil {
		return nil, err
	}

	return s.eventByID(ctx, eventID, actorID)
}

// AppendScheduleEntry adds a sub-game to a multi-game event as a new
// child row. Concurrent appends never clobber each other because nothing
// rewrites the collection wholesale.
func (s *EventService) AppendScheduleEntry(ctx context.Context, actorID, eventID string, req models.AppendScheduleRequest) ([]models.ScheduleEntry, error) {
	actor, err := s.memberByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdminTier() {
		return nil, &models.AuthorizationError{Msg: "only admins and captains can extend the schedule"}
	}

	if !models.ValidTimeOfDay(req.TimeOfDay) {
		return nil, models.NewValidationError("time must be 24-hour HH:MM, got %q", req.TimeOfDay)
	}
	opponent := strings.TrimSpace(req.Opponent)
	if opponent == "" {
		return nil, models.NewValidationError("opponent is required")
	}

	err = utils.WithTransaction(s.db, func(tx *sql.Tx) error {
		var category string
		err := tx.QueryRowContext(ctx, `SELECT category FROM events WHERE id = $1`, eventID).Scan(&category)
		if err == sql.ErrNoRows {
			return &models.NotFoundError{Resource: "event", ID: eventID}
		}
		if err != nil {
			return err
		}
		if !models.MultiGame(category) {
			return &models.InvalidStateError{Msg: "only tournaments and championships carry a schedule"}
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO schedule_entries (event_id, time_of_day, opponent)
			VALUES ($1, $2, $3)
		`, eventID, req.TimeOfDay, opponent)
		return err
	})
	if err != nil {
		return nil, err
	}

	return s.Schedule(ctx, eventID)
}

// Schedule returns the event's sub-games ordered by time of day.
func (s *EventService) Schedule(ctx context.Context, eventID string) ([]models.ScheduleEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, event_id, time_of_day, opponent, COALESCE(result, '')
		FROM schedule_entries
		WHERE event_id = $1
		ORDER BY time_of_day, created_at
	`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.ScheduleEntry{}
	for rows.Next() {
		var e models.ScheduleEntry
		if err := rows.Scan(&e.ID, &e.EventID, &e.TimeOfDay, &e.Opponent, &e.Result); err != nil {
			return nil, err
		}
		e.TimeOfDay = strings.TrimSpace(e.TimeOfDay)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// List yields a team's events ordered by start ascending, optionally
// bounded to [from, to). The sequence is lazy and restartable: every
// range over it re-runs the query.
func (s *EventService) List(ctx context.Context, teamID string, from, to *time.Time) iter.Seq2[models.Event, error] {
	return func(yield func(models.Event, error) bool) {
		query := `
			SELECT id, team_id, category, title, COALESCE(description, ''), start_at,
			       COALESCE(location, ''), COALESCE(cost, 0), COALESCE(max_attendees, 0),
			       is_conflict, created_seq, COALESCE(created_by::text, ''),
			       (SELECT COUNT(*) FROM rsvps r WHERE r.event_id = events.id AND r.status = 'CONFIRMED')
			FROM events
			WHERE team_id = $1`
		args := []interface{}{teamID}
		if from != nil {
			args = append(args, *from)
			query += ` AND start_at >= $2`
		}
		if to != nil {
			args = append(args, *to)
			if from != nil {
				query += ` AND start_at < $3`
			} else {
				query += ` AND start_at < $2`
			}
		}
		query += ` ORDER BY start_at ASC`

		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			yield(models.Event{}, err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			var e models.Event
			err := rows.Scan(&e.ID, &e.TeamID, &e.Category, &e.Title, &e.Description, &e.StartAt,
				&e.Location, &e.Cost, &e.MaxAttendees, &e.IsConflict, &e.CreatedSeq, &e.CreatedBy,
				&e.ConfirmedCount)
			if !yield(e, err) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(models.Event{}, err)
		}
	}
}

// ListForMember collects the team's events with the member's own RSVP
// status and each event's schedule attached, snapshot style.
func (s *EventService) ListForMember(ctx context.Context, teamID, memberID string, from, to *time.Time) ([]models.Event, error) {
	events := []models.Event{}
	for e, err := range s.List(ctx, teamID, from, to) {
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}

	statuses, err := s.rsvpStatuses(ctx, memberID)
	if err != nil {
		return nil, err
	}

	for i := range events {
		if status, ok := statuses[events[i].ID]; ok {
			events[i].RSVPStatus = status
		} else {
			events[i].RSVPStatus = models.RSVPPending
		}
		if models.MultiGame(events[i].Category) {
			schedule, err := s.Schedule(ctx, events[i].ID)
			if err != nil {
				return nil, err
			}
			events[i].Schedule = schedule
		}
	}
	return events, nil
}

func (s *EventService) rsvpStatuses(ctx context.Context, memberID string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT event_id, status FROM rsvps WHERE member_id = $1`, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	statuses := make(map[string]string)
	for rows.Next() {
		var eventID, status string
		if err := rows.Scan(&eventID, &status); err != nil {
			return nil, err
		}
		statuses[eventID] = status
	}
	return statuses, rows.Err()
}

// refreshConflicts recomputes is_conflict for one team inside the
// caller's transaction.
func (s *EventService) refreshConflicts(ctx context.Context, tx *sql.Tx, teamID string) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, category, start_at, created_seq
		FROM events
		WHERE team_id = $1
	`, teamID)
	if err != nil {
		return err
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.Category, &e.StartAt, &e.CreatedSeq); err != nil {
			return err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	flagged := s.detector.Flag(events)
	ids := make([]string, 0, len(flagged))
	for id := range flagged {
		ids = append(ids, id)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE events SET is_conflict = FALSE WHERE team_id = $1 AND is_conflict`, teamID); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	_, err = tx.ExecContext(ctx, `UPDATE events SET is_conflict = TRUE WHERE id = ANY($1)`, pq.Array(ids))
	return err
}

func (s *EventService) conflictFlag(ctx context.Context, eventID string) (bool, error) {
	var flag bool
	err := s.db.QueryRowContext(ctx, `SELECT is_conflict FROM events WHERE id = $1`, eventID).Scan(&flag)
	if err == sql.ErrNoRows {
		return false, &models.NotFoundError{Resource: "event", ID: eventID}
	}
	return flag, err
}

func (s *EventService) eventByID(ctx context.Context, eventID, memberID string) (*models.Event, error) {
	var e models.Event
	err := s.db.QueryRowContext(ctx, `
		SELECT id, team_id, category, title, COALESCE(description, ''), start_at,
		       COALESCE(location, ''), COALESCE(cost, 0), COALESCE(max_attendees, 0),
		       is_conflict, created_seq, COALESCE(created_by::text, ''),
		       (SELECT COUNT(*) FROM rsvps r WHERE r.event_id = events.id AND r.status = 'CONFIRMED')
		FROM events
		WHERE id = $1
	`, eventID).Scan(&e.ID, &e.TeamID, &e.Category, &e.Title, &e.Description, &e.StartAt,
		&e.Location, &e.Cost, &e.MaxAttendees, &e.IsConflict, &e.CreatedSeq, &e.CreatedBy,
		&e.ConfirmedCount)
	if err == sql.ErrNoRows {
		return nil, &models.NotFoundError{Resource: "event", ID: eventID}
	}
	if err != nil {
		return nil, err
	}

	var status sql.NullString
	err = s.db.QueryRowContext(ctx, `
		SELECT status FROM rsvps WHERE event_id = $1 AND member_id = $2
	`, eventID, memberID).Scan(&status)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	if status.Valid {
		e.RSVPStatus = status.String
	} else {
		e.RSVPStatus = models.RSVPPending
	}

	return &e, nil
}

func (s *EventService) memberByID(ctx context.Context, memberID string) (*models.Member, error) {
	var m models.Member
	err := s.db.QueryRowContext(ctx, `
		SELECT id, team_id, name, nickname, COALESCE(avatar, ''), role, status, balance
		FROM members
		WHERE id = $1
	`, memberID).Scan(&m.ID, &m.TeamID, &m.Name, &m.Nickname, &m.Avatar, &m.Role, &m.Status, &m.Balance)
	if err == sql.ErrNoRows {
		return nil, &models.NotFoundError{Resource: "member", ID: memberID}
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}
