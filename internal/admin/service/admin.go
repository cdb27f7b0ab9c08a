package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	bookingserrors "sessly/internal/bookings/errors"
	bookingsrepo "sessly/internal/bookings/repository"
	identityrepo "sessly/internal/identity/repository"
	"sessly/pkg/config"
	apperrors "sessly/pkg/errors"
	"sessly/pkg/events"
	"sessly/pkg/kafka"
	"sessly/pkg/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

// premiumExtension is granted on every approval of a booking that carries a
// premium plan, stacking on top of an unexpired grant.
const premiumExtension = 30 * 24 * time.Hour

// EventPublisher decouples the service from the concrete Kafka producer.
type EventPublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type Stats struct {
	TotalBookings   int64            `json:"total_bookings"`
	StatusCounts    map[string]int64 `json:"status_counts"`
	ApprovedRevenue float64          `json:"approved_revenue"`
	TotalCustomers  int64            `json:"total_customers"`
}

type AdminService interface {
	ListBookings(ctx context.Context, status string, limit, offset int) ([]*model.BookingWithOwner, int64, error)
	TransitionStatus(ctx context.Context, bookingID, newStatus string) (*model.Booking, error)
	Stats(ctx context.Context) (*Stats, error)
}

type adminService struct {
	bookings  bookingsrepo.BookingRepository
	users     identityrepo.UserRepository
	publisher EventPublisher
	cfg       *config.Config
}

func NewAdminService(
	bookings bookingsrepo.BookingRepository,
	users identityrepo.UserRepository,
	publisher EventPublisher,
	cfg *config.Config,
) AdminService {
	return &adminService{
		bookings:  bookings,
		users:     users,
		publisher: publisher,
		cfg:       cfg,
	}
}

func (s *adminService) ListBookings(ctx context.Context, status string, limit, offset int) ([]*model.BookingWithOwner, int64, error) {
	switch status {
	case "", model.StatusPending, model.StatusApproved, model.StatusCancelled:
	default:
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("invalid status filter: %s", status))
	}

	var count int64
	var bookings []*model.BookingWithOwner
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.bookings.Count(ctx, status)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "status", status, "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.bookings.FindAllWithOwners(ctx, status, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", "status", status, "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

// TransitionStatus moves a pending booking to approved or cancelled. The
// status write and the premium extension commit in one transaction; the
// notification event is published only after the commit.
func (s *adminService) TransitionStatus(ctx context.Context, bookingID, newStatus string) (*model.Booking, error) {
	if newStatus != model.StatusApproved && newStatus != model.StatusCancelled {
		return nil, apperrors.InvalidInput("Status must be one of: approved, cancelled")
	}

	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", bookingID)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}

	if booking.IsTerminal() {
		return nil, apperrors.InvalidTransition(fmt.Sprintf("Booking is already %s", booking.Status))
	}

	owner, err := s.users.FindByID(ctx, booking.UserID)
	if err != nil {
		s.cfg.Log.Error("Failed to load booking owner", "booking_id", bookingID, "user_id", booking.UserID, "error", err)
		return nil, apperrors.Internal("Failed to load booking owner", err)
	}

	err = s.bookings.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.bookings.UpdateStatus(sessCtx, bookingID, newStatus); err != nil {
			// A concurrent transition won the race between our read and
			// this write; the booking is terminal now.
			if errors.Is(err, bookingserrors.ErrNotPending) {
				return apperrors.InvalidTransition("Booking is no longer pending")
			}
			return apperrors.Internal("Failed to update booking status", err)
		}

		if newStatus == model.StatusApproved && booking.PremiumPlan != model.PremiumNone {
			expiry := s.nextPremiumExpiry(owner)
			if err := s.users.ExtendPremium(sessCtx, owner.ID, booking.PremiumPlan, expiry); err != nil {
				return apperrors.Internal("Failed to extend premium plan", err)
			}
		}

		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to transition booking status",
			"booking_id", bookingID,
			"from", booking.Status,
			"to", newStatus,
			"error", err,
		)
		return nil, err
	}

	booking.Status = newStatus
	booking.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)

	s.publishStatusChanged(ctx, booking, owner)

	s.cfg.Log.Info("Booking status changed",
		"booking_id", bookingID,
		"status", newStatus,
		"user_id", owner.ID,
	)
	return booking, nil
}

// nextPremiumExpiry stacks the extension on an unexpired grant instead of
// resetting it.
func (s *adminService) nextPremiumExpiry(owner *model.User) time.Time {
	base := time.Now().UTC()
	if owner.PremiumExpiry != nil && owner.PremiumExpiry.After(base) {
		base = *owner.PremiumExpiry
	}
	return base.Add(premiumExtension)
}

// publishStatusChanged is best effort: a broker outage must not roll back a
// committed transition.
func (s *adminService) publishStatusChanged(ctx context.Context, booking *model.Booking, owner *model.User) {
	if s.publisher == nil {
		return
	}

	event := events.BookingStatusChanged{
		EventID:     uuid.NewString(),
		BookingID:   booking.ID,
		OwnerID:     owner.ID,
		OwnerName:   owner.Name,
		OwnerEmail:  owner.Email,
		Status:      booking.Status,
		PremiumPlan: booking.PremiumPlan,
		TotalAmount: booking.TotalAmount,
		OccurredAt:  time.Now().UTC(),
	}

	msg, err := kafka.NewMessage().
		WithKey(booking.ID).
		WithValue(event).
		WithEventType(events.TypeBookingStatusChanged).
		WithSource("sessly-api").
		Build()
	if err != nil {
		s.cfg.Log.Warn("Failed to build status change event", "booking_id", booking.ID, "error", err)
		return
	}

	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.cfg.Log.Warn("Failed to publish status change event", "booking_id", booking.ID, "error", err)
	}
}

func (s *adminService) Stats(ctx context.Context) (*Stats, error) {
	var statusCounts map[string]int64
	var revenue float64
	var customers int64
	var errCounts, errRevenue, errCustomers error
	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		statusCounts, errCounts = s.bookings.StatusCounts(ctx)
		if errCounts != nil {
			s.cfg.Log.Error("Failed to aggregate status counts", "error", errCounts)
			errCounts = apperrors.Internal("Failed to compute stats", errCounts)
		}
	}()

	go func() {
		defer wg.Done()
		revenue, errRevenue = s.bookings.ApprovedRevenue(ctx)
		if errRevenue != nil {
			s.cfg.Log.Error("Failed to aggregate revenue", "error", errRevenue)
			errRevenue = apperrors.Internal("Failed to compute stats", errRevenue)
		}
	}()

	go func() {
		defer wg.Done()
		customers, errCustomers = s.users.CountCustomers(ctx)
		if errCustomers != nil {
			s.cfg.Log.Error("Failed to count customers", "error", errCustomers)
			errCustomers = apperrors.Internal("Failed to compute stats", errCustomers)
		}
	}()

	wg.Wait()
	for _, err := range []error{errCounts, errRevenue, errCustomers} {
		if err != nil {
			return nil, err
		}
	}

	var total int64
	for _, c := range statusCounts {
		total += c
	}

	return &Stats{
		TotalBookings:   total,
		StatusCounts:    statusCounts,
		ApprovedRevenue: revenue,
		TotalCustomers:  customers,
	}, nil
}
