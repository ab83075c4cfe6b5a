package client

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/headshot-gladiators/teamops-api/models"
)

// Session holds a client's local view of the team state and runs the
// two-phase mutation contract: predict the effect locally with a narrow
// rule, call the store, then replace the prediction with the store's
// authoritative response. If the store call fails the prediction is
// rolled back to the captured pre-mutation state; no code path leaves a
// prediction standing unreconciled.
type Session struct {
	store      Store
	retryDelay time.Duration

	mu           sync.Mutex
	member       models.Member
	team         models.Team
	members      []models.Member
	events       []models.Event
	transactions []models.Transaction
}

func NewSession(store Store) *Session {
	return &Session{store: store, retryDelay: 200 * time.Millisecond}
}

// Start fetches the bulk snapshot and primes the local state.
func (s *Session) Start(ctx context.Context) error {
	snapshot, err := s.callInit(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.apply(snapshot)
	return nil
}

// Refresh re-fetches the snapshot. Used after an abandoned request: a
// call the client gave up on may still have committed server-side, and
// the next snapshot picks its effect up.
func (s *Session) Refresh(ctx context.Context) error {
	return s.Start(ctx)
}

func (s *Session) apply(snapshot *models.InitResponse) {
	s.member = snapshot.Member
	s.team = snapshot.Team
	s.members = snapshot.Members
	s.events = snapshot.Events
	s.transactions = snapshot.Transactions
}

// Member returns the acting member's local state.
func (s *Session) Member() models.Member {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.member
}

// Team returns the local team state.
func (s *Session) Team() models.Team {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.team
}

// Events returns a copy of the local event list.
func (s *Session) Events() []models.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := make([]models.Event, len(s.events))
	copy(events, s.events)
	return events
}

// Transactions returns a copy of the local ledger view.
func (s *Session) Transactions() []models.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	transactions := make([]models.Transaction, len(s.transactions))
	copy(transactions, s.transactions)
	return transactions
}

// Debtors derives the debt summary from the local roster balances, the
// same way the server derives it from the members table.
func (s *Session) Debtors() models.DebtorsResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.DeriveDebtors(s.members)
}

// Event returns the local state of one event.
func (s *Session) Event(eventID string) (models.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.events {
		if e.ID == eventID {
			return e, true
		}
	}
	return models.Event{}, false
}

// SetRSVP predicts the acting member's own transition (+1 when the new
// status is CONFIRMED, -1 when only the previous one was, else 0),
// displays it, then overwrites the count with the store's full recount.
// The delta is intentionally an approximation; the recount always
// supersedes it.
func (s *Session) SetRSVP(ctx context.Context, eventID, status string) error {
	s.mu.Lock()
	idx := s.eventIndex(eventID)
	if idx < 0 {
		s.mu.Unlock()
		return &models.NotFoundError{Resource: "event", ID: eventID}
	}

	before := s.events[idx]

	delta := 0
	if status == models.RSVPConfirmed && before.RSVPStatus != models.RSVPConfirmed {
		delta = 1
	} else if status != models.RSVPConfirmed && before.RSVPStatus == models.RSVPConfirmed {
		delta = -1
	}

	// Predict.
	s.events[idx].RSVPStatus = status
	s.events[idx].ConfirmedCount += delta
	s.mu.Unlock()

	resp, err := s.callSetRSVP(ctx, eventID, status)

	s.mu.Lock()
	defer s.mu.Unlock()
	idx = s.eventIndex(eventID)
	if idx < 0 {
		return err
	}
	if err != nil {
		// Roll back.
		s.events[idx] = before
		return err
	}

	// Reconcile: the recount wins over the predicted delta.
	s.events[idx].RSVPStatus = resp.Status
	s.events[idx].ConfirmedCount = resp.ConfirmedCount
	return nil
}

// CreateEvent inserts a provisional event locally (creator confirmed,
// count 1), then swaps it for the authoritative record.
func (s *Session) CreateEvent(ctx context.Context, req models.CreateEventRequest) (*models.Event, error) {
	startAt, err := time.Parse(time.RFC3339, req.StartAt)
	if err != nil {
		return nil, models.NewValidationError("start_at must be an ISO-8601 instant: %v", err)
	}

	s.mu.Lock()
	tempID := fmt.Sprintf("pending-%d", time.Now().UnixNano())
	predicted := models.Event{
		ID:             tempID,
		TeamID:         s.team.ID,
		Category:       req.Category,
		Title:          req.Title,
		Description:    req.Description,
		StartAt:        startAt,
		Location:       req.Location,
		Cost:           req.Cost,
		MaxAttendees:   req.MaxAttendees,
		ConfirmedCount: 1,
		RSVPStatus:     models.RSVPConfirmed,
	}
	s.events = append(s.events, predicted)
	s.sortEventsLocked()
	s.mu.Unlock()

	event, err := s.callCreateEvent(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeEventLocked(tempID)
	if err != nil {
		return nil, err
	}

	s.events = append(s.events, *event)
	s.sortEventsLocked()
	return event, nil
}

// RecordTransaction applies the ledger arithmetic locally (DEPOSIT and
// EXPENSE move the budget, FEE debits the member), then replaces the
// predicted values with the authoritative response.
func (s *Session) RecordTransaction(ctx context.Context, req models.RecordTransactionRequest) error {
	if err := models.ValidateTransaction(req.Kind, req.Amount, req.Title, req.MemberID); err != nil {
		return err
	}

	s.mu.Lock()
	budgetBefore := s.team.Budget
	balancesBefore := make(map[string]float64, len(s.members))
	for _, m := range s.members {
		balancesBefore[m.ID] = m.Balance
	}

	tempID := fmt.Sprintf("pending-%d", time.Now().UnixNano())
	predicted := models.Transaction{
		ID:        tempID,
		TeamID:    s.team.ID,
		Kind:      req.Kind,
		Amount:    req.Amount,
		Title:     req.Title,
		MemberID:  req.MemberID,
		CreatedAt: time.Now(),
	}
	s.transactions = append([]models.Transaction{predicted}, s.transactions...)

	switch req.Kind {
	case models.KindDeposit:
		s.team.Budget += req.Amount
	case models.KindExpense:
		s.team.Budget -= req.Amount
	case models.KindFee:
		s.adjustBalanceLocked(req.MemberID, -req.Amount)
	}
	s.mu.Unlock()

	resp, err := s.callRecordTransaction(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeTransactionLocked(tempID)
	if err != nil {
		// Roll back the arithmetic along with the provisional entry.
		s.team.Budget = budgetBefore
		for i := range s.members {
			s.members[i].Balance = balancesBefore[s.members[i].ID]
		}
		if s.member.ID != "" {
			s.member.Balance = balancesBefore[s.member.ID]
		}
		return err
	}

	s.transactions = append([]models.Transaction{resp.Transaction}, s.transactions...)
	if resp.Budget != nil {
		s.team.Budget = *resp.Budget
	}
	if resp.MemberBalance != nil {
		s.setBalanceLocked(req.MemberID, *resp.MemberBalance)
	}
	return nil
}

// AppendSchedule adds a sub-game locally in time order, then replaces the
// whole schedule with the store's ordered sequence. A ConflictError is
// retried once against fresh state before giving up.
func (s *Session) AppendSchedule(ctx context.Context, eventID string, req models.AppendScheduleRequest) error {
	s.mu.Lock()
	idx := s.eventIndex(eventID)
	if idx < 0 {
		s.mu.Unlock()
		return &models.NotFoundError{Resource: "event", ID: eventID}
	}
	if !models.MultiGame(s.events[idx].Category) {
		s.mu.Unlock()
		return &models.InvalidStateError{Msg: "only tournaments and championships carry a schedule"}
	}

	before := make([]models.ScheduleEntry, len(s.events[idx].Schedule))
	copy(before, s.events[idx].Schedule)

	predicted := append(before[:len(before):len(before)], models.ScheduleEntry{
		EventID:   eventID,
		TimeOfDay: req.TimeOfDay,
		Opponent:  req.Opponent,
	})
	sort.Slice(predicted, func(i, j int) bool {
		return predicted[i].TimeOfDay < predicted[j].TimeOfDay
	})
	s.events[idx].Schedule = predicted
	s.mu.Unlock()

	schedule, err := s.store.AppendSchedule(ctx, eventID, req)
	var conflict *models.ConflictError
	if errors.As(err, &conflict) {
		// A concurrent append invalidated our view; refresh and retry once.
		if refreshErr := s.Refresh(ctx); refreshErr == nil {
			schedule, err = s.store.AppendSchedule(ctx, eventID, req)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	idx = s.eventIndex(eventID)
	if idx < 0 {
		return err
	}
	if err != nil {
		s.events[idx].Schedule = before
		return err
	}

	s.events[idx].Schedule = schedule
	return nil
}

// --- store calls with one transient retry ---

func (s *Session) callInit(ctx context.Context) (*models.InitResponse, error) {
	snapshot, err := s.store.Init(ctx)
	if s.isTransient(err) {
		time.Sleep(s.retryDelay)
		snapshot, err = s.store.Init(ctx)
	}
	return snapshot, err
}

func (s *Session) callSetRSVP(ctx context.Context, eventID, status string) (*models.SetRSVPResponse, error) {
	resp, err := s.store.SetRSVP(ctx, eventID, status)
	if s.isTransient(err) {
		time.Sleep(s.retryDelay)
		resp, err = s.store.SetRSVP(ctx, eventID, status)
	}
	return resp, err
}

func (s *Session) callCreateEvent(ctx context.Context, req models.CreateEventRequest) (*models.Event, error) {
	event, err := s.store.CreateEvent(ctx, req)
	if s.isTransient(err) {
		time.Sleep(s.retryDelay)
		event, err = s.store.CreateEvent(ctx, req)
	}
	return event, err
}

func (s *Session) callRecordTransaction(ctx context.Context, req models.RecordTransactionRequest) (*models.RecordTransactionResponse, error) {
	resp, err := s.store.RecordTransaction(ctx, req)
	if s.isTransient(err) {
		time.Sleep(s.retryDelay)
		resp, err = s.store.RecordTransaction(ctx, req)
	}
	return resp, err
}

func (s *Session) isTransient(err error) bool {
	var transient *models.TransientNetworkError
	return errors.As(err, &transient)
}

// --- locked helpers ---

func (s *Session) eventIndex(eventID string) int {
	for i := range s.events {
		if s.events[i].ID == eventID {
			return i
		}
	}
	return -1
}

func (s *Session) sortEventsLocked() {
	sort.Slice(s.events, func(i, j int) bool {
		return s.events[i].StartAt.Before(s.events[j].StartAt)
	})
}

func (s *Session) removeEventLocked(eventID string) {
	for i := range s.events {
		if s.events[i].ID == eventID {
			s.events = append(s.events[:i], s.events[i+1:]...)
			return
		}
	}
}

func (s *Session) removeTransactionLocked(txID string) {
	for i := range s.transactions {
		if s.transactions[i].ID == txID {
			s.transactions = append(s.transactions[:i], s.transactions[i+1:]...)
			return
		}
	}
}

func (s *Session) adjustBalanceLocked(memberID string, delta float64) {
	for i := range s.members {
		if s.members[i].ID == memberID {
			s.members[i].Balance += delta
			break
		}
	}
	if s.member.ID == memberID {
		s.member.Balance += delta
	}
}

func (s *Session) setBalanceLocked(memberID string, balance float64) {
	for i := range s.members {
		if s.members[i].ID == memberID {
			s.members[i].Balance = balance
			break
		}
	}
	if s.member.ID == memberID {
		s.member.Balance = balance
	}
}
