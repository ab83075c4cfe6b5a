package services

import (
	"context"
	"database/sql"

	"github.com/headshot-gladiators/teamops-api/models"
	"github.com/headshot-gladiators/teamops-api/utils"
)

// RSVPService owns per-(event, member) attendance records. A single row
// exists per pair; setting a status upserts it, and the event's confirmed
// count is always a full recount over the rows, never an incremental
// delta. Clients may predict a delta for responsiveness, but the value
// returned here is the truth that overwrites it.
type RSVPService struct {
	db *sql.DB
}

func NewRSVPService(db *sql.DB) *RSVPService {
	return &RSVPService{db: db}
}

// Set upserts the (event, member) record and returns the recomputed
// confirmed count. Concurrent calls for the same pair are last-write-wins;
// different members on the same event land on independent rows.
func (s *RSVPService) Set(ctx context.Context, eventID, memberID, status string) (*models.SetRSVPResponse, error) {
	if !models.ValidRSVPStatus(status) {
		return nil, models.NewValidationError("unknown RSVP status %q", status)
	}

	if err := s.checkExists(ctx, "event", "events", eventID); err != nil {
		return nil, err
	}
	if err := s.checkExists(ctx, "member", "members", memberID); err != nil {
		return nil, err
	}

	resp := &models.SetRSVPResponse{Status: status}
	err := utils.WithTransaction(s.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO rsvps (event_id, member_id, status)
			VALUES ($1, $2, $3)
			ON CONFLICT (event_id, member_id) DO UPDATE SET status = EXCLUDED.status, updated_at = NOW()
		`, eventID, memberID, status)
		if err != nil {
			return err
		}

		// Authoritative count: full recount in the same transaction.
		return tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM rsvps WHERE event_id = $1 AND status = $2
		`, eventID, models.RSVPConfirmed).Scan(&resp.ConfirmedCount)
	})
	if err != nil {
		return nil, err
	}

	return resp, nil
}

// ConfirmedCount recounts an event's confirmed attendees.
func (s *RSVPService) ConfirmedCount(ctx context.Context, eventID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM rsvps WHERE event_id = $1 AND status = $2
	`, eventID, models.RSVPConfirmed).Scan(&count)
	return count, err
}

func (s *RSVPService) checkExists(ctx context.Context, resource, table, id string) error {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM `+table+` WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return &models.NotFoundError{Resource: resource, ID: id}
	}
	return nil
}
