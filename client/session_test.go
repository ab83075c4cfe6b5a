package client

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/headshot-gladiators/teamops-api/models"
)

// fakeStore mirrors the server's authoritative rules in memory: full
// recounts for RSVP, relative arithmetic for the ledger, ordered child
// rows for schedules. Failures are injected by queueing errors that are
// consumed one per mutating call.
type fakeStore struct {
	actor    string
	budget   float64
	balances map[string]float64
	rsvps    map[string]map[string]string
	events   map[string]models.Event
	ledger   []models.Transaction
	nextID   int

	failures []error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		actor:    "u1",
		budget:   45000,
		balances: map[string]float64{"u1": 0, "u2": 1500, "u3": 0},
		rsvps:    map[string]map[string]string{},
		events:   map[string]models.Event{},
	}
}

func (f *fakeStore) fail() error {
	if len(f.failures) == 0 {
		return nil
	}
	err := f.failures[0]
	f.failures = f.failures[1:]
	return err
}

func (f *fakeStore) confirmedCount(eventID string) int {
	count := 0
	for _, status := range f.rsvps[eventID] {
		if status == models.RSVPConfirmed {
			count++
		}
	}
	return count
}

func (f *fakeStore) Init(ctx context.Context) (*models.InitResponse, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}

	events := []models.Event{}
	for _, e := range f.events {
		e.ConfirmedCount = f.confirmedCount(e.ID)
		if status, ok := f.rsvps[e.ID][f.actor]; ok {
			e.RSVPStatus = status
		} else {
			e.RSVPStatus = models.RSVPPending
		}
		events = append(events, e)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].StartAt.Before(events[j].StartAt) })

	return &models.InitResponse{
		Member: models.Member{ID: "u1", TeamID: "t1", Balance: f.balances["u1"]},
		Team:   models.Team{ID: "t1", Name: "Headshot Gladiators", Budget: f.budget},
		Members: []models.Member{
			{ID: "u1", TeamID: "t1", Balance: f.balances["u1"]},
			{ID: "u2", TeamID: "t1", Balance: f.balances["u2"]},
			{ID: "u3", TeamID: "t1", Balance: f.balances["u3"]},
		},
		Events:       events,
		Transactions: append([]models.Transaction{}, f.ledger...),
	}, nil
}

func (f *fakeStore) CreateEvent(ctx context.Context, req models.CreateEventRequest) (*models.Event, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}

	f.nextID++
	startAt, _ := time.Parse(time.RFC3339, req.StartAt)
	event := models.Event{
		ID:             fmt.Sprintf("srv-%d", f.nextID),
		TeamID:         "t1",
		Category:       req.Category,
		Title:          req.Title,
		StartAt:        startAt,
		ConfirmedCount: 1,
		RSVPStatus:     models.RSVPConfirmed,
	}
	f.events[event.ID] = event
	f.rsvps[event.ID] = map[string]string{f.actor: models.RSVPConfirmed}
	return &event, nil
}

func (f *fakeStore) SetRSVP(ctx context.Context, eventID, status string) (*models.SetRSVPResponse, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}

	if f.rsvps[eventID] == nil {
		f.rsvps[eventID] = map[string]string{}
	}
	f.rsvps[eventID][f.actor] = status
	return &models.SetRSVPResponse{
		ConfirmedCount: f.confirmedCount(eventID),
		Status:         status,
	}, nil
}

func (f *fakeStore) RecordTransaction(ctx context.Context, req models.RecordTransactionRequest) (*models.RecordTransactionResponse, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}

	f.nextID++
	resp := &models.RecordTransactionResponse{
		Transaction: models.Transaction{
			ID:       fmt.Sprintf("srv-tx-%d", f.nextID),
			TeamID:   "t1",
			Kind:     req.Kind,
			Amount:   req.Amount,
			Title:    req.Title,
			MemberID: req.MemberID,
		},
	}

	switch req.Kind {
	case models.KindDeposit:
		f.budget += req.Amount
		budget := f.budget
		resp.Budget = &budget
	case models.KindExpense:
		f.budget -= req.Amount
		budget := f.budget
		resp.Budget = &budget
	case models.KindFee:
		f.balances[req.MemberID] -= req.Amount
		balance := f.balances[req.MemberID]
		resp.MemberBalance = &balance
	}

	f.ledger = append([]models.Transaction{resp.Transaction}, f.ledger...)
	return resp, nil
}

func (f *fakeStore) AppendSchedule(ctx context.Context, eventID string, req models.AppendScheduleRequest) ([]models.ScheduleEntry, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}

	event, ok := f.events[eventID]
	if !ok {
		return nil, &models.NotFoundError{Resource: "event", ID: eventID}
	}

	f.nextID++
	event.Schedule = append(event.Schedule, models.ScheduleEntry{
		ID:        fmt.Sprintf("srv-g-%d", f.nextID),
		EventID:   eventID,
		TimeOfDay: req.TimeOfDay,
		Opponent:  req.Opponent,
	})
	sort.Slice(event.Schedule, func(i, j int) bool {
		return event.Schedule[i].TimeOfDay < event.Schedule[j].TimeOfDay
	})
	f.events[eventID] = event
	return append([]models.ScheduleEntry{}, event.Schedule...), nil
}

func newTestSession(t *testing.T, store *fakeStore) *Session {
	t.Helper()
	sess := NewSession(store)
	sess.retryDelay = 0
	if err := sess.Start(context.Background()); err != nil {
		t.Fatalf("start session: %v", err)
	}
	return sess
}

func seedTraining(store *fakeStore, id string, confirmed ...string) {
	store.events[id] = models.Event{
		ID:       id,
		TeamID:   "t1",
		Category: models.CategoryTraining,
		Title:    "Evening drill",
		StartAt:  time.Date(2026, 9, 12, 18, 0, 0, 0, time.UTC),
	}
	store.rsvps[id] = map[string]string{}
	for _, m := range confirmed {
		store.rsvps[id][m] = models.RSVPConfirmed
	}
}

func TestSetRSVPAuthoritativeCountWins(t *testing.T) {
	store := newFakeStore()
	seedTraining(store, "e1", "u2")
	sess := newTestSession(t, store)

	// Another member confirms after our snapshot; the local count is stale.
	store.rsvps["e1"]["u3"] = models.RSVPConfirmed

	if err := sess.SetRSVP(context.Background(), "e1", models.RSVPConfirmed); err != nil {
		t.Fatalf("set rsvp: %v", err)
	}

	event, ok := sess.Event("e1")
	if !ok {
		t.Fatal("event missing from session")
	}
	// Predicted would be 2 (stale 1 + own delta); the recount says 3.
	if event.ConfirmedCount != 3 {
		t.Fatalf("expected authoritative count 3, got %d", event.ConfirmedCount)
	}
	if event.RSVPStatus != models.RSVPConfirmed {
		t.Fatalf("expected CONFIRMED, got %s", event.RSVPStatus)
	}
}

func TestSetRSVPIdempotent(t *testing.T) {
	store := newFakeStore()
	seedTraining(store, "e1", "u2")
	sess := newTestSession(t, store)

	if err := sess.SetRSVP(context.Background(), "e1", models.RSVPConfirmed); err != nil {
		t.Fatalf("first set: %v", err)
	}
	first, _ := sess.Event("e1")

	if err := sess.SetRSVP(context.Background(), "e1", models.RSVPConfirmed); err != nil {
		t.Fatalf("second set: %v", err)
	}
	second, _ := sess.Event("e1")

	if first.ConfirmedCount != second.ConfirmedCount {
		t.Fatalf("repeated confirm changed the count: %d then %d", first.ConfirmedCount, second.ConfirmedCount)
	}
	if second.ConfirmedCount != 2 {
		t.Fatalf("expected 2 confirmed, got %d", second.ConfirmedCount)
	}
}

func TestSetRSVPDeclineAfterConfirm(t *testing.T) {
	store := newFakeStore()
	seedTraining(store, "e1", "u1", "u2")
	sess := newTestSession(t, store)

	if err := sess.SetRSVP(context.Background(), "e1", models.RSVPDeclined); err != nil {
		t.Fatalf("decline: %v", err)
	}

	event, _ := sess.Event("e1")
	if event.ConfirmedCount != 1 {
		t.Fatalf("expected 1 confirmed after decline, got %d", event.ConfirmedCount)
	}
}

func TestSetRSVPRollbackOnFailure(t *testing.T) {
	store := newFakeStore()
	seedTraining(store, "e1", "u2")
	sess := newTestSession(t, store)

	before, _ := sess.Event("e1")
	store.failures = []error{&models.NotFoundError{Resource: "event", ID: "e1"}}

	err := sess.SetRSVP(context.Background(), "e1", models.RSVPConfirmed)
	var notFound *models.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}

	after, _ := sess.Event("e1")
	if after.ConfirmedCount != before.ConfirmedCount || after.RSVPStatus != before.RSVPStatus {
		t.Fatalf("prediction not rolled back: before %+v, after %+v", before, after)
	}
}

func TestSetRSVPTransientRetrySucceeds(t *testing.T) {
	store := newFakeStore()
	seedTraining(store, "e1", "u2")
	sess := newTestSession(t, store)

	store.failures = []error{&models.TransientNetworkError{Cause: errors.New("connection reset")}}

	if err := sess.SetRSVP(context.Background(), "e1", models.RSVPConfirmed); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}

	event, _ := sess.Event("e1")
	if event.ConfirmedCount != 2 {
		t.Fatalf("expected 2 confirmed, got %d", event.ConfirmedCount)
	}
}

func TestSetRSVPTransientRetryExhaustedRollsBack(t *testing.T) {
	store := newFakeStore()
	seedTraining(store, "e1", "u2")
	sess := newTestSession(t, store)

	before, _ := sess.Event("e1")
	store.failures = []error{
		&models.TransientNetworkError{Cause: errors.New("connection reset")},
		&models.TransientNetworkError{Cause: errors.New("connection reset")},
	}

	err := sess.SetRSVP(context.Background(), "e1", models.RSVPConfirmed)
	var transient *models.TransientNetworkError
	if !errors.As(err, &transient) {
		t.Fatalf("expected TransientNetworkError, got %v", err)
	}

	after, _ := sess.Event("e1")
	if after.ConfirmedCount != before.ConfirmedCount || after.RSVPStatus != before.RSVPStatus {
		t.Fatalf("prediction not rolled back after exhausted retries")
	}
}

func TestRecordTransactionScenario(t *testing.T) {
	store := newFakeStore()
	sess := newTestSession(t, store)
	ctx := context.Background()

	if err := sess.RecordTransaction(ctx, models.RecordTransactionRequest{
		Kind: models.KindExpense, Amount: 5000, Title: "balls",
	}); err != nil {
		t.Fatalf("expense: %v", err)
	}
	if got := sess.Team().Budget; got != 40000 {
		t.Fatalf("expected budget 40000 after expense, got %v", got)
	}

	if err := sess.RecordTransaction(ctx, models.RecordTransactionRequest{
		Kind: models.KindDeposit, Amount: 10000, Title: "sponsor",
	}); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if got := sess.Team().Budget; got != 50000 {
		t.Fatalf("expected budget 50000 after deposit, got %v", got)
	}

	if err := sess.RecordTransaction(ctx, models.RecordTransactionRequest{
		Kind: models.KindFee, Amount: 2000, Title: "field fee", MemberID: "u3",
	}); err != nil {
		t.Fatalf("fee: %v", err)
	}
	if got := sess.Team().Budget; got != 50000 {
		t.Fatalf("fee must not touch the budget, got %v", got)
	}
	if got := store.balances["u3"]; got != -2000 {
		t.Fatalf("expected member balance -2000, got %v", got)
	}

	debtors := sess.Debtors()
	if len(debtors.Debtors) != 1 {
		t.Fatalf("expected exactly one debtor after the fee, got %d", len(debtors.Debtors))
	}
	if debtors.Debtors[0].ID != "u3" || debtors.Debtors[0].Balance != -2000 {
		t.Fatalf("expected u3 with balance -2000 first, got %s with %v",
			debtors.Debtors[0].ID, debtors.Debtors[0].Balance)
	}
	if debtors.TotalDebt != 2000 {
		t.Fatalf("expected total debt 2000, got %v", debtors.TotalDebt)
	}

	if len(sess.Transactions()) != 3 {
		t.Fatalf("expected 3 ledger entries, got %d", len(sess.Transactions()))
	}
	for _, tx := range sess.Transactions() {
		if strings.HasPrefix(tx.ID, "pending-") {
			t.Fatalf("provisional transaction left behind: %s", tx.ID)
		}
	}
}

func TestRecordTransactionRollbackOnFailure(t *testing.T) {
	store := newFakeStore()
	sess := newTestSession(t, store)

	store.failures = []error{&models.AuthorizationError{Msg: "players cannot record transactions"}}

	err := sess.RecordTransaction(context.Background(), models.RecordTransactionRequest{
		Kind: models.KindExpense, Amount: 5000, Title: "balls",
	})
	var authz *models.AuthorizationError
	if !errors.As(err, &authz) {
		t.Fatalf("expected AuthorizationError, got %v", err)
	}

	if got := sess.Team().Budget; got != 45000 {
		t.Fatalf("budget prediction not rolled back, got %v", got)
	}
	if len(sess.Transactions()) != 0 {
		t.Fatalf("provisional ledger entry not rolled back")
	}
}

func TestRecordTransactionValidationIsLocal(t *testing.T) {
	store := newFakeStore()
	sess := newTestSession(t, store)

	err := sess.RecordTransaction(context.Background(), models.RecordTransactionRequest{
		Kind: models.KindFee, Amount: 2000, Title: "field fee",
	})
	var validation *models.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if got := sess.Team().Budget; got != 45000 {
		t.Fatalf("invalid request must not move the budget, got %v", got)
	}
}

func TestCreateEventReconciliation(t *testing.T) {
	store := newFakeStore()
	sess := newTestSession(t, store)

	event, err := sess.CreateEvent(context.Background(), models.CreateEventRequest{
		Category: models.CategoryTraining,
		Title:    "Night game",
		StartAt:  "2026-09-20T19:00:00Z",
	})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}

	if event.ConfirmedCount != 1 || event.RSVPStatus != models.RSVPConfirmed {
		t.Fatalf("creator must be auto-confirmed, got %+v", event)
	}

	for _, e := range sess.Events() {
		if strings.HasPrefix(e.ID, "pending-") {
			t.Fatalf("provisional event left behind: %s", e.ID)
		}
	}
	if _, ok := sess.Event(event.ID); !ok {
		t.Fatal("authoritative event missing from session")
	}
}

func TestCreateEventRollbackOnFailure(t *testing.T) {
	store := newFakeStore()
	sess := newTestSession(t, store)

	store.failures = []error{&models.ValidationError{Msg: "title is required"}}

	_, err := sess.CreateEvent(context.Background(), models.CreateEventRequest{
		Category: models.CategoryTraining,
		Title:    " ",
		StartAt:  "2026-09-20T19:00:00Z",
	})
	var validation *models.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	if got := len(sess.Events()); got != 0 {
		t.Fatalf("provisional event not rolled back, %d events left", got)
	}
}

func TestAppendScheduleConflictRetriesOnce(t *testing.T) {
	store := newFakeStore()
	store.events["cup"] = models.Event{
		ID:       "cup",
		TeamID:   "t1",
		Category: models.CategoryTournament,
		Title:    "Autumn Cup",
		StartAt:  time.Date(2026, 10, 3, 9, 0, 0, 0, time.UTC),
	}
	store.rsvps["cup"] = map[string]string{"u1": models.RSVPConfirmed}
	sess := newTestSession(t, store)

	store.failures = []error{&models.ConflictError{Msg: "schedule changed underneath"}}

	err := sess.AppendSchedule(context.Background(), "cup", models.AppendScheduleRequest{
		TimeOfDay: "10:30",
		Opponent:  "Red Foxes",
	})
	if err != nil {
		t.Fatalf("expected conflict retry to succeed, got %v", err)
	}

	event, _ := sess.Event("cup")
	if len(event.Schedule) != 1 || event.Schedule[0].Opponent != "Red Foxes" {
		t.Fatalf("schedule not reconciled: %+v", event.Schedule)
	}
	if strings.HasPrefix(event.Schedule[0].ID, "pending") || event.Schedule[0].ID == "" {
		t.Fatalf("schedule entry must carry the authoritative id, got %q", event.Schedule[0].ID)
	}
}

func TestAppendScheduleRejectsSingleGameLocally(t *testing.T) {
	store := newFakeStore()
	seedTraining(store, "e1", "u1")
	sess := newTestSession(t, store)

	err := sess.AppendSchedule(context.Background(), "e1", models.AppendScheduleRequest{
		TimeOfDay: "10:30",
		Opponent:  "Red Foxes",
	})
	var state *models.InvalidStateError
	if !errors.As(err, &state) {
		t.Fatalf("expected InvalidStateError, got %v", err)
	}
}

func TestAppendScheduleOrdersByTimeOfDay(t *testing.T) {
	store := newFakeStore()
	store.events["cup"] = models.Event{
		ID:       "cup",
		TeamID:   "t1",
		Category: models.CategoryChampionship,
		StartAt:  time.Date(2026, 10, 3, 9, 0, 0, 0, time.UTC),
	}
	store.rsvps["cup"] = map[string]string{"u1": models.RSVPConfirmed}
	sess := newTestSession(t, store)
	ctx := context.Background()

	for _, g := range []struct{ at, opp string }{
		{"14:00", "Wolves"},
		{"09:15", "Red Foxes"},
		{"11:45", "Hornets"},
	} {
		if err := sess.AppendSchedule(ctx, "cup", models.AppendScheduleRequest{TimeOfDay: g.at, Opponent: g.opp}); err != nil {
			t.Fatalf("append %s: %v", g.opp, err)
		}
	}

	event, _ := sess.Event("cup")
	var times []string
	for _, entry := range event.Schedule {
		times = append(times, entry.TimeOfDay)
	}
	if !sort.StringsAreSorted(times) {
		t.Fatalf("schedule not ordered by time of day: %v", times)
	}
}
