package service

import (
	"context"
	"encoding/json"
	"errors"

	planserrors "sessly/internal/plans/errors"
	"sessly/internal/plans/repository"
	"sessly/pkg/config"
	apperrors "sessly/pkg/errors"
	"sessly/pkg/model"
	"sessly/pkg/pricing"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/mongo"
)

const priceTableCacheKey = "sessly:plans:price_table"

// PriceTable is the per-session price plus the premium surcharges, resolved
// once per booking creation.
type PriceTable struct {
	PerSession float64
	Premium    pricing.PlanPrices
}

type PlanService interface {
	List(ctx context.Context) ([]*model.Plan, error)
	GetByName(ctx context.Context, name string) (*model.Plan, error)
	CreateSessionPlan(ctx context.Context, plan *model.Plan) error
	UpdatePrice(ctx context.Context, name string, price float64) error
	ResolvePriceTable(ctx context.Context) (*PriceTable, error)
}

type planService struct {
	repo     repository.PlanRepository
	validate *validator.Validate
	cfg      *config.Config
}

func NewPlanService(repo repository.PlanRepository, cfg *config.Config) PlanService {
	return &planService{
		repo:     repo,
		validate: validator.New(),
		cfg:      cfg,
	}
}

func (s *planService) List(ctx context.Context) ([]*model.Plan, error) {
	plans, err := s.repo.FindAll(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to list plans", "error", err)
		return nil, apperrors.Internal("Failed to retrieve plans", err)
	}
	return plans, nil
}

func (s *planService) GetByName(ctx context.Context, name string) (*model.Plan, error) {
	plan, err := s.repo.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, planserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Plan", name)
		}
		return nil, apperrors.Internal("Failed to retrieve plan", err)
	}
	return plan, nil
}

// CreateSessionPlan registers the plain per-session plan. Only one can exist;
// the unique name index turns a repeat into a conflict.
func (s *planService) CreateSessionPlan(ctx context.Context, plan *model.Plan) error {
	plan.Name = model.PlanSession
	if err := s.validate.Struct(plan); err != nil {
		s.cfg.Log.Warn("Plan validation failed", "error", err)
		return apperrors.Validation("Invalid plan input", map[string]any{"error": err.Error()})
	}

	if err := s.repo.Create(ctx, plan); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.Conflict("Session plan already exists")
		}
		s.cfg.Log.Error("Failed to create session plan", "error", err)
		return apperrors.Internal("Failed to create plan", err)
	}

	s.invalidatePriceTable(ctx)
	s.cfg.Log.Info("Session plan created", "id", plan.ID, "price", plan.Price)
	return nil
}

func (s *planService) UpdatePrice(ctx context.Context, name string, price float64) error {
	if name != model.PlanSession && name != model.PremiumGold && name != model.PremiumPlatinum {
		return apperrors.InvalidInput("Plan name must be one of: session, gold, platinum")
	}
	if price <= 0 {
		return apperrors.InvalidInput("Plan price must be positive")
	}

	if err := s.repo.UpdatePrice(ctx, name, price); err != nil {
		if errors.Is(err, planserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Plan", name)
		}
		s.cfg.Log.Error("Failed to update plan price", "plan", name, "error", err)
		return apperrors.Internal("Failed to update plan price", err)
	}

	s.invalidatePriceTable(ctx)
	s.cfg.Log.Info("Plan price updated", "plan", name, "price", price)
	return nil
}

// ResolvePriceTable serves the price table from Redis when possible. Cache
// failures fall through to the store; a stale table can never outlive the
// TTL or a price update.
func (s *planService) ResolvePriceTable(ctx context.Context) (*PriceTable, error) {
	if table := s.cachedPriceTable(ctx); table != nil {
		return table, nil
	}

	plans, err := s.repo.FindAll(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to load plans for pricing", "error", err)
		return nil, apperrors.Internal("Failed to resolve pricing", err)
	}

	prices := make(map[string]float64, len(plans))
	for _, p := range plans {
		prices[p.Name] = p.Price
	}

	table, err := buildPriceTable(prices)
	if err != nil {
		return nil, err
	}

	s.storePriceTable(ctx, prices)
	return table, nil
}

func buildPriceTable(prices map[string]float64) (*PriceTable, error) {
	perSession, ok := prices[model.PlanSession]
	if !ok || perSession <= 0 {
		return nil, apperrors.Conflict("Session pricing is not configured")
	}

	premium := pricing.PlanPrices{}
	for name, price := range prices {
		if name != model.PlanSession {
			premium[name] = price
		}
	}

	return &PriceTable{PerSession: perSession, Premium: premium}, nil
}

func (s *planService) cachedPriceTable(ctx context.Context) *PriceTable {
	if s.cfg.Client == nil || s.cfg.Client.Redis == nil {
		return nil
	}

	raw, err := s.cfg.Client.Redis.Get(ctx, priceTableCacheKey).Bytes()
	if err != nil {
		return nil
	}

	var prices map[string]float64
	if err := json.Unmarshal(raw, &prices); err != nil {
		s.cfg.Log.Warn("Corrupt price table cache entry, ignoring", "error", err)
		return nil
	}

	table, err := buildPriceTable(prices)
	if err != nil {
		return nil
	}
	return table
}

func (s *planService) storePriceTable(ctx context.Context, prices map[string]float64) {
	if s.cfg.Client == nil || s.cfg.Client.Redis == nil {
		return
	}

	raw, err := json.Marshal(prices)
	if err != nil {
		return
	}

	if err := s.cfg.Client.Redis.Set(ctx, priceTableCacheKey, raw, s.cfg.PlanCacheTTL).Err(); err != nil {
		s.cfg.Log.Warn("Failed to cache price table", "error", err)
	}
}

func (s *planService) invalidatePriceTable(ctx context.Context) {
	if s.cfg.Client == nil || s.cfg.Client.Redis == nil {
		return
	}

	if err := s.cfg.Client.Redis.Del(ctx, priceTableCacheKey).Err(); err != nil {
		s.cfg.Log.Warn("Failed to invalidate price table cache", "error", err)
	}
}
