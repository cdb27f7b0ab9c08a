package service

import (
	"context"
	"errors"
	"testing"
	"time"

	bookingserrors "sessly/internal/bookings/errors"
	"sessly/pkg/auth"
	"sessly/pkg/config"
	mongotx "sessly/pkg/db/mongo"
	apperrors "sessly/pkg/errors"
	"sessly/pkg/events"
	"sessly/pkg/kafka"
	"sessly/pkg/logger"
	"sessly/pkg/model"
)

const (
	ownerID   = "665f1f77bcf86cd799439011"
	bookingID = "665f1f77bcf86cd799439022"
)

type mockBookingRepository struct {
	findByIDFn          func(ctx context.Context, id string) (*model.Booking, error)
	updateStatusFn      func(ctx context.Context, id, status string) error
	findAllWithOwnersFn func(ctx context.Context, status string, limit, offset int) ([]*model.BookingWithOwner, error)
	countFn             func(ctx context.Context, status string) (int64, error)
	statusCountsFn      func(ctx context.Context) (map[string]int64, error)
	approvedRevenueFn   func(ctx context.Context) (float64, error)
}

func (m *mockBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	return nil
}

func (m *mockBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	return m.findByIDFn(ctx, id)
}

func (m *mockBookingRepository) FindByIDForOwner(ctx context.Context, id, owner string) (*model.Booking, error) {
	return nil, nil
}

func (m *mockBookingRepository) FindAllForOwner(ctx context.Context, owner string, limit, offset int) ([]*model.Booking, error) {
	return nil, nil
}

func (m *mockBookingRepository) CountForOwner(ctx context.Context, owner string) (int64, error) {
	return 0, nil
}

func (m *mockBookingRepository) FindAllWithOwners(ctx context.Context, status string, limit, offset int) ([]*model.BookingWithOwner, error) {
	return m.findAllWithOwnersFn(ctx, status, limit, offset)
}

func (m *mockBookingRepository) Count(ctx context.Context, status string) (int64, error) {
	return m.countFn(ctx, status)
}

func (m *mockBookingRepository) UpdateMutable(ctx context.Context, id, owner string, booking *model.Booking) error {
	return nil
}

func (m *mockBookingRepository) UpdateStatus(ctx context.Context, id, status string) error {
	return m.updateStatusFn(ctx, id, status)
}

func (m *mockBookingRepository) StatusCounts(ctx context.Context) (map[string]int64, error) {
	return m.statusCountsFn(ctx)
}

func (m *mockBookingRepository) ApprovedRevenue(ctx context.Context) (float64, error) {
	return m.approvedRevenueFn(ctx)
}

func (m *mockBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

type mockUserRepository struct {
	findByIDFn      func(ctx context.Context, id string) (*model.User, error)
	extendPremiumFn func(ctx context.Context, id string, plan string, expiry time.Time) error
	countCustomers  func(ctx context.Context) (int64, error)
}

func (m *mockUserRepository) EnsureIndexes(ctx context.Context) error {
	return nil
}

func (m *mockUserRepository) UpsertFromGoogle(ctx context.Context, identity *auth.ExternalIdentity) (*model.User, error) {
	return nil, nil
}

func (m *mockUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	return m.findByIDFn(ctx, id)
}

func (m *mockUserRepository) ExtendPremium(ctx context.Context, id string, plan string, expiry time.Time) error {
	return m.extendPremiumFn(ctx, id, plan, expiry)
}

func (m *mockUserRepository) CountCustomers(ctx context.Context) (int64, error) {
	return m.countCustomers(ctx)
}

type mockPublisher struct {
	published []kafka.Message
	err       error
}

func (m *mockPublisher) Publish(ctx context.Context, msg kafka.Message) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, msg)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{Level: logger.ERROR, Format: logger.TEXT}),
	}
}

func expectCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
	appErr, ok := err.(*apperrors.AppError)
	if !ok {
		t.Fatalf("expected AppError, got %T: %v", err, err)
	}
	if appErr.Code != code {
		t.Errorf("expected code %s, got %s", code, appErr.Code)
	}
}

func pendingBooking(plan string) *model.Booking {
	return &model.Booking{
		ID:            bookingID,
		UserID:        ownerID,
		Name:          "Alice",
		Age:           30,
		Sessions:      3,
		PaymentMethod: model.PaymentCard,
		PremiumPlan:   plan,
		Status:        model.StatusPending,
		TotalAmount:   2499,
	}
}

func customer() *model.User {
	return &model.User{
		ID:          ownerID,
		Name:        "Alice",
		Email:       "alice@example.com",
		Role:        model.RoleCustomer,
		PremiumPlan: model.PremiumNone,
	}
}

func TestTransitionStatus_InvalidTarget(t *testing.T) {
	svc := NewAdminService(&mockBookingRepository{}, &mockUserRepository{}, nil, testConfig())

	for _, status := range []string{"pending", "done", ""} {
		_, err := svc.TransitionStatus(context.Background(), bookingID, status)
		expectCode(t, err, apperrors.CodeInvalidInput)
	}
}

func TestTransitionStatus_NotFound(t *testing.T) {
	repo := &mockBookingRepository{
		findByIDFn: func(ctx context.Context, id string) (*model.Booking, error) {
			return nil, bookingserrors.ErrNotFound
		},
	}

	svc := NewAdminService(repo, &mockUserRepository{}, nil, testConfig())

	_, err := svc.TransitionStatus(context.Background(), bookingID, model.StatusApproved)
	expectCode(t, err, apperrors.CodeNotFound)
}

func TestTransitionStatus_TerminalStatesAreFinal(t *testing.T) {
	for _, current := range []string{model.StatusApproved, model.StatusCancelled} {
		for _, target := range []string{model.StatusApproved, model.StatusCancelled} {
			repo := &mockBookingRepository{
				findByIDFn: func(ctx context.Context, id string) (*model.Booking, error) {
					b := pendingBooking(model.PremiumNone)
					b.Status = current
					return b, nil
				},
			}

			svc := NewAdminService(repo, &mockUserRepository{}, nil, testConfig())

			_, err := svc.TransitionStatus(context.Background(), bookingID, target)
			expectCode(t, err, apperrors.CodeInvalidTransition)
		}
	}
}

func TestTransitionStatus_ConcurrentFlipLosesRace(t *testing.T) {
	// Both requests read the booking while it is still pending; the
	// status-filtered write lets only the first one through.
	stale := pendingBooking(model.PremiumGold)
	var stored string
	repo := &mockBookingRepository{
		findByIDFn: func(ctx context.Context, id string) (*model.Booking, error) {
			b := *stale
			return &b, nil
		},
		updateStatusFn: func(ctx context.Context, id, status string) error {
			if stored != "" {
				return bookingserrors.ErrNotPending
			}
			stored = status
			return nil
		},
	}
	users := &mockUserRepository{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return customer(), nil
		},
		extendPremiumFn: func(ctx context.Context, id string, plan string, expiry time.Time) error {
			t.Error("premium must not be extended after losing the race")
			return nil
		},
	}
	publisher := &mockPublisher{}

	svc := NewAdminService(repo, users, publisher, testConfig())

	if _, err := svc.TransitionStatus(context.Background(), bookingID, model.StatusCancelled); err != nil {
		t.Fatalf("unexpected error on first transition: %v", err)
	}

	_, err := svc.TransitionStatus(context.Background(), bookingID, model.StatusApproved)
	expectCode(t, err, apperrors.CodeInvalidTransition)

	if stored != model.StatusCancelled {
		t.Errorf("expected stored status cancelled, got %q", stored)
	}
	if len(publisher.published) != 1 {
		t.Errorf("expected one published event, got %d", len(publisher.published))
	}
}

func TestTransitionStatus_ApprovePublishesEvent(t *testing.T) {
	var statusWritten string
	repo := &mockBookingRepository{
		findByIDFn: func(ctx context.Context, id string) (*model.Booking, error) {
			return pendingBooking(model.PremiumNone), nil
		},
		updateStatusFn: func(ctx context.Context, id, status string) error {
			statusWritten = status
			return nil
		},
	}
	users := &mockUserRepository{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return customer(), nil
		},
	}
	publisher := &mockPublisher{}

	svc := NewAdminService(repo, users, publisher, testConfig())

	booking, err := svc.TransitionStatus(context.Background(), bookingID, model.StatusApproved)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if statusWritten != model.StatusApproved {
		t.Errorf("expected status approved written, got %s", statusWritten)
	}
	if booking.Status != model.StatusApproved {
		t.Errorf("expected returned status approved, got %s", booking.Status)
	}

	if len(publisher.published) != 1 {
		t.Fatalf("expected one published event, got %d", len(publisher.published))
	}

	var event events.BookingStatusChanged
	msg := publisher.published[0]
	if err := msg.DecodeValue(&event); err != nil {
		t.Fatalf("failed to decode event: %v", err)
	}
	if event.BookingID != bookingID || event.Status != model.StatusApproved {
		t.Errorf("unexpected event: %+v", event)
	}
	if event.OwnerEmail != "alice@example.com" {
		t.Errorf("expected denormalized owner email, got %q", event.OwnerEmail)
	}
	if msg.GetEventType() != events.TypeBookingStatusChanged {
		t.Errorf("unexpected event type header: %s", msg.GetEventType())
	}
}

func TestTransitionStatus_ApprovalExtendsPremium(t *testing.T) {
	var gotPlan string
	var gotExpiry time.Time
	repo := &mockBookingRepository{
		findByIDFn: func(ctx context.Context, id string) (*model.Booking, error) {
			return pendingBooking(model.PremiumGold), nil
		},
		updateStatusFn: func(ctx context.Context, id, status string) error {
			return nil
		},
	}
	users := &mockUserRepository{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return customer(), nil
		},
		extendPremiumFn: func(ctx context.Context, id string, plan string, expiry time.Time) error {
			gotPlan = plan
			gotExpiry = expiry
			return nil
		},
	}

	svc := NewAdminService(repo, users, nil, testConfig())

	before := time.Now().UTC()
	if _, err := svc.TransitionStatus(context.Background(), bookingID, model.StatusApproved); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPlan != model.PremiumGold {
		t.Errorf("expected gold extension, got %q", gotPlan)
	}

	want := before.Add(premiumExtension)
	if gotExpiry.Before(want.Add(-time.Minute)) || gotExpiry.After(want.Add(time.Minute)) {
		t.Errorf("expected expiry around %v, got %v", want, gotExpiry)
	}
}

func TestTransitionStatus_ExtensionStacksOnUnexpiredGrant(t *testing.T) {
	existingExpiry := time.Now().UTC().Add(10 * 24 * time.Hour)

	var gotExpiry time.Time
	repo := &mockBookingRepository{
		findByIDFn: func(ctx context.Context, id string) (*model.Booking, error) {
			return pendingBooking(model.PremiumPlatinum), nil
		},
		updateStatusFn: func(ctx context.Context, id, status string) error {
			return nil
		},
	}
	users := &mockUserRepository{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			u := customer()
			u.PremiumPlan = model.PremiumPlatinum
			u.PremiumExpiry = &existingExpiry
			return u, nil
		},
		extendPremiumFn: func(ctx context.Context, id string, plan string, expiry time.Time) error {
			gotExpiry = expiry
			return nil
		},
	}

	svc := NewAdminService(repo, users, nil, testConfig())

	if _, err := svc.TransitionStatus(context.Background(), bookingID, model.StatusApproved); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := existingExpiry.Add(premiumExtension)
	if !gotExpiry.Equal(want) {
		t.Errorf("expected expiry %v stacked on the existing grant, got %v", want, gotExpiry)
	}
}

func TestTransitionStatus_CancellationNeverExtendsPremium(t *testing.T) {
	repo := &mockBookingRepository{
		findByIDFn: func(ctx context.Context, id string) (*model.Booking, error) {
			return pendingBooking(model.PremiumGold), nil
		},
		updateStatusFn: func(ctx context.Context, id, status string) error {
			return nil
		},
	}
	users := &mockUserRepository{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return customer(), nil
		},
		extendPremiumFn: func(ctx context.Context, id string, plan string, expiry time.Time) error {
			t.Error("premium must not be extended on cancellation")
			return nil
		},
	}

	svc := NewAdminService(repo, users, nil, testConfig())

	if _, err := svc.TransitionStatus(context.Background(), bookingID, model.StatusCancelled); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTransitionStatus_PublishFailureDoesNotFailTransition(t *testing.T) {
	repo := &mockBookingRepository{
		findByIDFn: func(ctx context.Context, id string) (*model.Booking, error) {
			return pendingBooking(model.PremiumNone), nil
		},
		updateStatusFn: func(ctx context.Context, id, status string) error {
			return nil
		},
	}
	users := &mockUserRepository{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return customer(), nil
		},
	}
	publisher := &mockPublisher{err: errors.New("broker unreachable")}

	svc := NewAdminService(repo, users, publisher, testConfig())

	booking, err := svc.TransitionStatus(context.Background(), bookingID, model.StatusApproved)
	if err != nil {
		t.Fatalf("expected transition to succeed despite publish failure, got: %v", err)
	}
	if booking.Status != model.StatusApproved {
		t.Errorf("expected approved, got %s", booking.Status)
	}
}

func TestListBookings_InvalidStatusFilter(t *testing.T) {
	svc := NewAdminService(&mockBookingRepository{}, &mockUserRepository{}, nil, testConfig())

	_, _, err := svc.ListBookings(context.Background(), "done", 10, 0)
	expectCode(t, err, apperrors.CodeInvalidInput)
}

func TestStats(t *testing.T) {
	repo := &mockBookingRepository{
		statusCountsFn: func(ctx context.Context) (map[string]int64, error) {
			return map[string]int64{
				model.StatusPending:   4,
				model.StatusApproved:  10,
				model.StatusCancelled: 2,
			}, nil
		},
		approvedRevenueFn: func(ctx context.Context) (float64, error) {
			return 24990, nil
		},
	}
	users := &mockUserRepository{
		countCustomers: func(ctx context.Context) (int64, error) {
			return 12, nil
		},
	}

	svc := NewAdminService(repo, users, nil, testConfig())

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stats.TotalBookings != 16 {
		t.Errorf("expected 16 total bookings, got %d", stats.TotalBookings)
	}
	if stats.ApprovedRevenue != 24990 {
		t.Errorf("expected revenue 24990, got %v", stats.ApprovedRevenue)
	}
	if stats.TotalCustomers != 12 {
		t.Errorf("expected 12 customers, got %d", stats.TotalCustomers)
	}
}
