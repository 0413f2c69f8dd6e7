package handler

import (
	"context"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	payoutapp "github.com/payout/backend/internal/application/payout"
	"github.com/payout/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/mock"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := middleware.SetupValidator(); err != nil {
		panic(err)
	}
}

// MockPayoutService is a mock implementation of PayoutService
type MockPayoutService struct {
	mock.Mock
}

func (m *MockPayoutService) ListDues(ctx context.Context, q payoutapp.ListDuesQuery) (*payoutapp.DueListResponse, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payoutapp.DueListResponse), args.Error(1)
}

func (m *MockPayoutService) GetDue(ctx context.Context, id uuid.UUID) (*payoutapp.DueDetailResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payoutapp.DueDetailResponse), args.Error(1)
}

func (m *MockPayoutService) CreateDue(ctx context.Context, req payoutapp.CreateDueRequest) (*payoutapp.DueResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payoutapp.DueResponse), args.Error(1)
}

func (m *MockPayoutService) GetStats(ctx context.Context) *payoutapp.StatsResult {
	args := m.Called(ctx)
	return args.Get(0).(*payoutapp.StatsResult)
}

func (m *MockPayoutService) ApproveDue(ctx context.Context, id uuid.UUID, req payoutapp.ApproveDueRequest, by uuid.UUID) (*payoutapp.DecisionResult, error) {
	args := m.Called(ctx, id, req, by)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payoutapp.DecisionResult), args.Error(1)
}

func (m *MockPayoutService) RejectDue(ctx context.Context, id uuid.UUID, req payoutapp.RejectDueRequest, by uuid.UUID) (*payoutapp.DecisionResult, error) {
	args := m.Called(ctx, id, req, by)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payoutapp.DecisionResult), args.Error(1)
}

func (m *MockPayoutService) ExportDues(ctx context.Context, q payoutapp.ListDuesQuery, w io.Writer) (int, error) {
	args := m.Called(ctx, q, w)
	if fn, ok := args.Get(0).(func(io.Writer) int); ok {
		return fn(w), args.Error(1)
	}
	return args.Int(0), args.Error(1)
}

// MockTokenRevoker is a mock implementation of TokenRevoker
type MockTokenRevoker struct {
	mock.Mock
}

func (m *MockTokenRevoker) RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	args := m.Called(ctx, jti, ttl)
	return args.Error(0)
}

func (m *MockTokenRevoker) RevokeUser(ctx context.Context, userID string, ttl time.Duration) error {
	args := m.Called(ctx, userID, ttl)
	return args.Error(0)
}

// MockPinger is a mock implementation of Pinger
type MockPinger struct {
	mock.Mock
}

func (m *MockPinger) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// asUser simulates JWTAuthMiddleware for handler tests
func asUser(userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.JWTUserIDKey, userID.String())
		c.Next()
	}
}
