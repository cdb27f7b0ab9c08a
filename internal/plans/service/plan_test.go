package service

import (
	"context"
	"testing"

	planserrors "sessly/internal/plans/errors"
	"sessly/pkg/config"
	apperrors "sessly/pkg/errors"
	"sessly/pkg/logger"
	"sessly/pkg/model"
)

type mockPlanRepository struct {
	findAllFn     func(ctx context.Context) ([]*model.Plan, error)
	findByNameFn  func(ctx context.Context, name string) (*model.Plan, error)
	createFn      func(ctx context.Context, plan *model.Plan) error
	updatePriceFn func(ctx context.Context, name string, price float64) error
}

func (m *mockPlanRepository) EnsureIndexes(ctx context.Context) error {
	return nil
}

func (m *mockPlanRepository) FindAll(ctx context.Context) ([]*model.Plan, error) {
	return m.findAllFn(ctx)
}

func (m *mockPlanRepository) FindByName(ctx context.Context, name string) (*model.Plan, error) {
	return m.findByNameFn(ctx, name)
}

func (m *mockPlanRepository) Create(ctx context.Context, plan *model.Plan) error {
	return m.createFn(ctx, plan)
}

func (m *mockPlanRepository) UpdatePrice(ctx context.Context, name string, price float64) error {
	return m.updatePriceFn(ctx, name, price)
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

func TestUpdatePrice_Validation(t *testing.T) {
	svc := NewPlanService(&mockPlanRepository{}, testConfig())

	tests := []struct {
		name  string
		plan  string
		price float64
	}{
		{"unknown plan name", "diamond", 100},
		{"zero price", "gold", 0},
		{"negative price", "session", -5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.UpdatePrice(context.Background(), tt.plan, tt.price)
			expectCode(t, err, apperrors.CodeInvalidInput)
		})
	}
}

func TestUpdatePrice_UnknownPlanInStore(t *testing.T) {
	repo := &mockPlanRepository{
		updatePriceFn: func(ctx context.Context, name string, price float64) error {
			return planserrors.ErrNotFound
		},
	}

	svc := NewPlanService(repo, testConfig())
	err := svc.UpdatePrice(context.Background(), model.PremiumGold, 999)
	expectCode(t, err, apperrors.CodeNotFound)
}

func TestCreateSessionPlan_ForcesName(t *testing.T) {
	var created *model.Plan
	repo := &mockPlanRepository{
		createFn: func(ctx context.Context, plan *model.Plan) error {
			created = plan
			return nil
		},
	}

	svc := NewPlanService(repo, testConfig())
	err := svc.CreateSessionPlan(context.Background(), &model.Plan{
		Name:     "gold",
		Price:    500,
		Sessions: 1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.Name != model.PlanSession {
		t.Errorf("expected plan name forced to %s, got %s", model.PlanSession, created.Name)
	}
}

func TestResolvePriceTable(t *testing.T) {
	repo := &mockPlanRepository{
		findAllFn: func(ctx context.Context) ([]*model.Plan, error) {
			return []*model.Plan{
				{Name: model.PlanSession, Price: 500},
				{Name: model.PremiumGold, Price: 999},
				{Name: model.PremiumPlatinum, Price: 1999},
			}, nil
		},
	}

	svc := NewPlanService(repo, testConfig())
	table, err := svc.ResolvePriceTable(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if table.PerSession != 500 {
		t.Errorf("expected per-session price 500, got %v", table.PerSession)
	}
	if table.Premium[model.PremiumGold] != 999 || table.Premium[model.PremiumPlatinum] != 1999 {
		t.Errorf("unexpected premium prices: %+v", table.Premium)
	}
	if _, ok := table.Premium[model.PlanSession]; ok {
		t.Error("session plan must not appear among premium surcharges")
	}
}

func TestResolvePriceTable_MissingSessionPlan(t *testing.T) {
	repo := &mockPlanRepository{
		findAllFn: func(ctx context.Context) ([]*model.Plan, error) {
			return []*model.Plan{{Name: model.PremiumGold, Price: 999}}, nil
		},
	}

	svc := NewPlanService(repo, testConfig())
	_, err := svc.ResolvePriceTable(context.Background())
	expectCode(t, err, apperrors.CodeConflict)
}
