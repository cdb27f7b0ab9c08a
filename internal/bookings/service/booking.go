package service

import (
	"context"
	"errors"
	"sync"

	bookingserrors "sessly/internal/bookings/errors"
	"sessly/internal/bookings/repository"
	"sessly/internal/bookings/validator"
	plansservice "sessly/internal/plans/service"
	"sessly/pkg/config"
	apperrors "sessly/pkg/errors"
	"sessly/pkg/model"
	"sessly/pkg/pricing"
)

type BookingService interface {
	Create(ctx context.Context, ownerID string, booking *model.Booking) error
	GetByID(ctx context.Context, ownerID, id string) (*model.Booking, error)
	GetAllForOwner(ctx context.Context, ownerID string, limit, offset int) ([]*model.Booking, int64, error)
	Update(ctx context.Context, ownerID, id string, updates *model.BookingUpdate) (*model.Booking, error)
	Receipt(ctx context.Context, ownerID, id string) ([]byte, string, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	plans     plansservice.PlanService
	validator *validator.BookingValidator
	receipts  *ReceiptRenderer
	cfg       *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	plans plansservice.PlanService,
	validator *validator.BookingValidator,
	receipts *ReceiptRenderer,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		plans:     plans,
		validator: validator,
		receipts:  receipts,
		cfg:       cfg,
	}
}

// Create prices and stores a new pending booking. The total is always
// computed server-side from the current price table; any amount in the
// request body is discarded.
func (s *bookingService) Create(ctx context.Context, ownerID string, booking *model.Booking) error {
	if ownerID == "" {
		return apperrors.Unauthorized("Authentication required")
	}

	booking.ID = ""
	booking.UserID = ownerID
	booking.Status = model.StatusPending
	if booking.PremiumPlan == "" {
		booking.PremiumPlan = model.PremiumNone
	}

	total, err := s.price(ctx, booking.Sessions, booking.PremiumPlan)
	if err != nil {
		return err
	}
	booking.TotalAmount = total

	if err := s.validate(booking); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, booking); err != nil {
		s.cfg.Log.Error("Failed to create booking", "user_id", ownerID, "error", err)
		return apperrors.Internal("Failed to create booking", err)
	}

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"user_id", ownerID,
		"sessions", booking.Sessions,
		"premium_plan", booking.PremiumPlan,
		"total_amount", booking.TotalAmount,
	)
	return nil
}

func (s *bookingService) GetByID(ctx context.Context, ownerID, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByIDForOwner(ctx, id, ownerID)
	if err != nil {
		return nil, s.mapLookupError(err, id)
	}

	return booking, nil
}

func (s *bookingService) GetAllForOwner(ctx context.Context, ownerID string, limit, offset int) ([]*model.Booking, int64, error) {
	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.CountForOwner(ctx, ownerID)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "user_id", ownerID, "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindAllForOwner(ctx, ownerID, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", "user_id", ownerID, "error", errFind)
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

// Update edits the owner-mutable fields of a pending booking. A session
// count change reprices the booking against the current table.
func (s *bookingService) Update(ctx context.Context, ownerID, id string, updates *model.BookingUpdate) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Booking update validation failed", "id", id, "error", err)
		return nil, apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	existing, err := s.repo.FindByIDForOwner(ctx, id, ownerID)
	if err != nil {
		return nil, s.mapLookupError(err, id)
	}

	if existing.IsTerminal() {
		return nil, apperrors.Conflict("Only pending bookings can be modified")
	}

	merged := *existing
	if updates.PaymentMethod != "" {
		merged.PaymentMethod = updates.PaymentMethod
	}
	if updates.Sessions != nil && *updates.Sessions != existing.Sessions {
		merged.Sessions = *updates.Sessions

		total, err := s.price(ctx, merged.Sessions, merged.PremiumPlan)
		if err != nil {
			return nil, err
		}
		merged.TotalAmount = total
	}

	if err := s.validate(&merged); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateMutable(ctx, id, ownerID, &merged); err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			// It was pending a moment ago, so the status flipped concurrently.
			return nil, apperrors.Conflict("Booking is no longer pending")
		}
		s.cfg.Log.Error("Failed to update booking", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to update booking", err)
	}

	s.cfg.Log.Info("Booking updated successfully",
		"id", id,
		"sessions", merged.Sessions,
		"total_amount", merged.TotalAmount,
	)
	return &merged, nil
}

func (s *bookingService) Receipt(ctx context.Context, ownerID, id string) ([]byte, string, error) {
	booking, err := s.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, "", err
	}

	pdf, receiptNumber, err := s.receipts.Render(booking)
	if err != nil {
		s.cfg.Log.Error("Failed to render receipt", "id", id, "error", err)
		return nil, "", apperrors.Internal("Failed to generate receipt", err)
	}

	s.cfg.Log.Info("Receipt generated", "id", id, "receipt_number", receiptNumber)
	return pdf, receiptNumber, nil
}

// --- Helpers ---

func (s *bookingService) price(ctx context.Context, sessions int, premiumPlan string) (float64, error) {
	table, err := s.plans.ResolvePriceTable(ctx)
	if err != nil {
		return 0, err
	}

	total, err := pricing.Total(sessions, table.PerSession, premiumPlan, table.Premium)
	if err != nil {
		return 0, apperrors.InvalidInput(err.Error())
	}

	return total, nil
}

func (s *bookingService) validate(booking *model.Booking) error {
	if err := s.validator.Validate(booking); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}

func (s *bookingService) mapLookupError(err error, id string) error {
	if errors.Is(err, bookingserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Booking", id)
	}
	if errors.Is(err, bookingserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid booking ID format")
	}
	return apperrors.Internal("Failed to retrieve booking", err)
}
