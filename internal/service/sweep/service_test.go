package sweep

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/NeriVermilion/departure-planner/internal/config"
	"github.com/NeriVermilion/departure-planner/internal/domain"
)

type mockStore struct {
	due []*domain.PendingDeparture

	findErr error
	markErr error

	// claimResults maps departure IDs to the claim outcome; IDs absent from
	// the map claim successfully.
	claimResults map[string]bool

	findCalls []time.Time
	markCalls []string
}

func (m *mockStore) FindDueUnsent(_ context.Context, now time.Time, _ time.Duration) ([]*domain.PendingDeparture, error) {
	m.findCalls = append(m.findCalls, now)
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.due, nil
}

func (m *mockStore) MarkSent(_ context.Context, id string) (bool, error) {
	m.markCalls = append(m.markCalls, id)
	if m.markErr != nil {
		return false, m.markErr
	}
	if claimed, ok := m.claimResults[id]; ok {
		return claimed, nil
	}
	return true, nil
}

type mockCredentials struct {
	token   string
	err     error
	refresh int
}

func (m *mockCredentials) Refresh(_ context.Context) (string, error) {
	m.refresh++
	if m.err != nil {
		return "", m.err
	}
	return m.token, nil
}

type mockChannel struct {
	err   error
	sends []domain.NotificationMessage
}

func (m *mockChannel) Send(_ context.Context, _ string, msg domain.NotificationMessage) error {
	m.sends = append(m.sends, msg)
	return m.err
}

func sweepConfig() *config.SweepConfig {
	return &config.SweepConfig{
		Interval:    time.Minute,
		GracePeriod: 15 * time.Minute,
		BatchLimit:  200,
	}
}

func dueDeparture(id string) *domain.PendingDeparture {
	now := time.Now()
	return &domain.PendingDeparture{
		ID:                id,
		UserID:            "user-1",
		StartLabel:        "Home",
		EndLabel:          "Office",
		Mode:              domain.ModeDriving,
		DesiredArrival:    now.Add(30 * time.Minute),
		ComputedDeparture: now.Add(-time.Minute),
		CreatedAt:         now.Add(-time.Hour),
	}
}

func TestRun_DeliversDueDeparture(t *testing.T) {
	store := &mockStore{due: []*domain.PendingDeparture{dueDeparture("dep-1")}}
	creds := &mockCredentials{token: "token-1"}
	channel := &mockChannel{}

	svc := NewService(store, creds, channel, nil, nil, sweepConfig(), "http://localhost:8080/results.html")
	result, err := svc.Run(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.DeliveredCount != 1 {
		t.Errorf("DeliveredCount = %d, want 1", result.DeliveredCount)
	}
	if len(channel.sends) != 1 {
		t.Fatalf("send attempts = %d, want exactly 1", len(channel.sends))
	}
	if len(store.markCalls) != 1 || store.markCalls[0] != "dep-1" {
		t.Errorf("mark calls = %v, want [dep-1]", store.markCalls)
	}

	msg := channel.sends[0]
	if msg.Title == "" || msg.Body == "" {
		t.Errorf("message missing title or body: %+v", msg)
	}
	if msg.DeepLinkURL == "" {
		t.Error("message missing deep link")
	}
}

func TestRun_AlreadyClaimedSkipsWithoutSideEffects(t *testing.T) {
	store := &mockStore{
		due:          []*domain.PendingDeparture{dueDeparture("dep-1")},
		claimResults: map[string]bool{"dep-1": false},
	}
	creds := &mockCredentials{token: "token-1"}
	channel := &mockChannel{}

	svc := NewService(store, creds, channel, nil, nil, sweepConfig(), "")
	result, err := svc.Run(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.SkippedCount != 1 {
		t.Errorf("SkippedCount = %d, want 1", result.SkippedCount)
	}
	if creds.refresh != 0 {
		t.Errorf("refresh calls = %d, want 0 after losing the claim", creds.refresh)
	}
	if len(channel.sends) != 0 {
		t.Errorf("send attempts = %d, want 0 after losing the claim", len(channel.sends))
	}
}

func TestRun_CredentialFailureIsTerminal(t *testing.T) {
	store := &mockStore{due: []*domain.PendingDeparture{dueDeparture("dep-1")}}
	creds := &mockCredentials{err: domain.ErrCredentialRefreshFailed}
	channel := &mockChannel{}

	svc := NewService(store, creds, channel, nil, nil, sweepConfig(), "")
	result, err := svc.Run(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("per-record failures must not propagate, got: %v", err)
	}

	if result.FailedCount != 1 {
		t.Errorf("FailedCount = %d, want 1", result.FailedCount)
	}
	if creds.refresh != 1 {
		t.Errorf("refresh calls = %d, want 1", creds.refresh)
	}
	if len(channel.sends) != 0 {
		t.Errorf("send attempts = %d, want 0 when the credential is dead", len(channel.sends))
	}
	// The record was claimed before the refresh, so it is done for good.
	if len(store.markCalls) != 1 {
		t.Errorf("mark calls = %d, want 1", len(store.markCalls))
	}
}

func TestRun_DeliveryFailureIsNotRetried(t *testing.T) {
	store := &mockStore{due: []*domain.PendingDeparture{dueDeparture("dep-1")}}
	creds := &mockCredentials{token: "token-1"}
	channel := &mockChannel{err: domain.ErrDeliveryFailed}

	svc := NewService(store, creds, channel, nil, nil, sweepConfig(), "")
	result, err := svc.Run(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("per-record failures must not propagate, got: %v", err)
	}

	if result.FailedCount != 1 {
		t.Errorf("FailedCount = %d, want 1", result.FailedCount)
	}
	if len(channel.sends) != 1 {
		t.Errorf("send attempts = %d, want exactly 1", len(channel.sends))
	}

	// A later tick sees the record already claimed and does nothing.
	store.due = []*domain.PendingDeparture{dueDeparture("dep-1")}
	store.claimResults = map[string]bool{"dep-1": false}
	result, err = svc.Run(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(channel.sends) != 1 {
		t.Errorf("send attempts after second tick = %d, want still 1", len(channel.sends))
	}
	if result.SkippedCount != 1 {
		t.Errorf("SkippedCount on second tick = %d, want 1", result.SkippedCount)
	}
}

func TestRun_PerRecordIsolation(t *testing.T) {
	store := &mockStore{
		due: []*domain.PendingDeparture{
			dueDeparture("dep-1"),
			dueDeparture("dep-2"),
		},
	}
	creds := &mockCredentials{token: "token-1"}

	sendErrs := map[int]error{0: errors.New("webhook down")}
	channel := &flakyChannel{errs: sendErrs}

	svc := NewService(store, creds, channel, nil, nil, sweepConfig(), "")
	result, err := svc.Run(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.FailedCount != 1 {
		t.Errorf("FailedCount = %d, want 1", result.FailedCount)
	}
	if result.DeliveredCount != 1 {
		t.Errorf("DeliveredCount = %d, want 1 (second record must still be processed)", result.DeliveredCount)
	}
}

func TestRun_QueryFailurePropagates(t *testing.T) {
	store := &mockStore{findErr: errors.New("connection refused")}
	svc := NewService(store, &mockCredentials{}, &mockChannel{}, nil, nil, sweepConfig(), "")

	if _, err := svc.Run(context.Background(), time.Now()); err == nil {
		t.Fatal("expected error when the due query fails")
	}
}

type flakyChannel struct {
	errs  map[int]error
	calls int
}

func (f *flakyChannel) Send(_ context.Context, _ string, _ domain.NotificationMessage) error {
	err := f.errs[f.calls]
	f.calls++
	return err
}
