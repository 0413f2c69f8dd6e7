package payout

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/payout/backend/internal/domain/payout"
	"github.com/payout/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// ==================== Repository mocks ====================

type MockDueRepository struct {
	mock.Mock
}

func (m *MockDueRepository) FindByID(ctx context.Context, id uuid.UUID) (*payout.InvestmentDue, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payout.InvestmentDue), args.Error(1)
}

func (m *MockDueRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*payout.InvestmentDue, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payout.InvestmentDue), args.Error(1)
}

func (m *MockDueRepository) FindAll(ctx context.Context, filter payout.InvestmentDueFilter) ([]payout.InvestmentDue, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]payout.InvestmentDue), args.Error(1)
}

func (m *MockDueRepository) Count(ctx context.Context, filter payout.InvestmentDueFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDueRepository) ExistsForInvestor(ctx context.Context, userID, investmentID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, investmentID)
	return args.Bool(0), args.Error(1)
}

func (m *MockDueRepository) Create(ctx context.Context, due *payout.InvestmentDue) error {
	return m.Called(ctx, due).Error(0)
}

func (m *MockDueRepository) SaveWithLock(ctx context.Context, due *payout.InvestmentDue) error {
	return m.Called(ctx, due).Error(0)
}

func (m *MockDueRepository) StreamAll(ctx context.Context, batchSize int, fn func(batch []payout.InvestmentDue) error) error {
	args := m.Called(ctx, batchSize, fn)
	if batches, ok := args.Get(0).([][]payout.InvestmentDue); ok {
		for _, b := range batches {
			if err := fn(b); err != nil {
				return err
			}
		}
	}
	return args.Error(1)
}

type MockRecordRepository struct {
	mock.Mock
}

func (m *MockRecordRepository) Create(ctx context.Context, record *payout.PayoutRecord) error {
	return m.Called(ctx, record).Error(0)
}

func (m *MockRecordRepository) ExistsForPeriod(ctx context.Context, dueID uuid.UUID, period int) (bool, error) {
	args := m.Called(ctx, dueID, period)
	return args.Bool(0), args.Error(1)
}

func (m *MockRecordRepository) FindByDueID(ctx context.Context, dueID uuid.UUID) ([]payout.PayoutRecord, error) {
	args := m.Called(ctx, dueID)
	return args.Get(0).([]payout.PayoutRecord), args.Error(1)
}

type MockRejectionRepository struct {
	mock.Mock
}

func (m *MockRejectionRepository) Create(ctx context.Context, rejection *payout.PayoutRejection) error {
	return m.Called(ctx, rejection).Error(0)
}

func (m *MockRejectionRepository) FindByDueID(ctx context.Context, dueID uuid.UUID) ([]payout.PayoutRejection, error) {
	args := m.Called(ctx, dueID)
	return args.Get(0).([]payout.PayoutRejection), args.Error(1)
}

type MockInvestmentCatalog struct {
	mock.Mock
}

func (m *MockInvestmentCatalog) GetByID(ctx context.Context, id uuid.UUID) (*payout.Investment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payout.Investment), args.Error(1)
}

func (m *MockInvestmentCatalog) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*payout.Investment, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]*payout.Investment), args.Error(1)
}

type MockWallet struct {
	mock.Mock
}

func (m *MockWallet) Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, reference string) (*payout.WalletReceipt, error) {
	args := m.Called(ctx, userID, amount, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payout.WalletReceipt), args.Error(1)
}

// ==================== Transaction scope and lock fakes ====================

type fakeRepos struct {
	dues       *MockDueRepository
	records    *MockRecordRepository
	rejections *MockRejectionRepository
	catalog    *MockInvestmentCatalog
	wallet     *MockWallet
}

func (r *fakeRepos) DueRepo() payout.InvestmentDueRepository         { return r.dues }
func (r *fakeRepos) RecordRepo() payout.PayoutRecordRepository       { return r.records }
func (r *fakeRepos) RejectionRepo() payout.PayoutRejectionRepository { return r.rejections }
func (r *fakeRepos) Catalog() payout.InvestmentCatalog               { return r.catalog }
func (r *fakeRepos) Wallet() payout.Wallet                           { return r.wallet }

// fakeScope runs fn directly; rollback is not simulated
type fakeScope struct {
	repos *fakeRepos
	calls int
}

func (s *fakeScope) Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error {
	s.calls++
	return fn(s.repos)
}

type fakeLocker struct {
	mu       sync.Mutex
	held     map[string]string
	acquired []string
	released []string
	err      error
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: make(map[string]string)}
}

func (l *fakeLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return "", false, l.err
	}
	if _, ok := l.held[key]; ok {
		return "", false, nil
	}
	token := uuid.NewString()
	l.held[key] = token
	l.acquired = append(l.acquired, key)
	return token, true, nil
}

func (l *fakeLocker) Unlock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
	}
	l.released = append(l.released, key)
	return nil
}

// MockEventPublisher records published events
type MockEventPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return nil
}

func (m *MockEventPublisher) Types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.EventType())
	}
	return out
}

// ==================== Fixtures ====================

var (
	fixedNow = time.Date(2025, 2, 12, 9, 0, 0, 0, time.UTC)
	adminID  = uuid.MustParse("7d5c3f4e-9a51-4c0f-8d6a-0f1d2e3c4b5a")
)

type testEnv struct {
	svc       *DueService
	dues      *MockDueRepository
	records   *MockRecordRepository
	rejects   *MockRejectionRepository
	catalog   *MockInvestmentCatalog
	wallet    *MockWallet
	scope     *fakeScope
	locker    *fakeLocker
	publisher *MockEventPublisher
}

func newTestEnv() *testEnv {
	env := &testEnv{
		dues:      new(MockDueRepository),
		records:   new(MockRecordRepository),
		rejects:   new(MockRejectionRepository),
		catalog:   new(MockInvestmentCatalog),
		wallet:    new(MockWallet),
		locker:    newFakeLocker(),
		publisher: &MockEventPublisher{},
	}
	env.scope = &fakeScope{repos: &fakeRepos{
		dues:       env.dues,
		records:    env.records,
		rejections: env.rejects,
		catalog:    env.catalog,
		wallet:     env.wallet,
	}}
	env.svc = NewDueService(env.dues, env.records, env.rejects, env.catalog, env.scope, env.locker, DefaultServiceConfig())
	env.svc.SetClock(func() time.Time { return fixedNow })
	env.svc.SetEventPublisher(env.publisher)
	return env
}

func (e *testEnv) assertExpectations(t mock.TestingT) {
	e.dues.AssertExpectations(t)
	e.records.AssertExpectations(t)
	e.rejects.AssertExpectations(t)
	e.catalog.AssertExpectations(t)
	e.wallet.AssertExpectations(t)
}

// testInvestment is a 12 month monthly offering paying 12% over the term
func testInvestment(freq payout.PayoutFrequency) *payout.Investment {
	start := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	return &payout.Investment{
		ID:           uuid.New(),
		Title:        "Lekki Gardens Phase II",
		ReturnRate:   decimal.NewFromInt(12),
		PeriodMonths: 12,
		Frequency:    freq,
		StartDate:    start,
		EndDate:      start.AddDate(0, 12, 0),
		Status:       payout.InvestmentStatusActive,
	}
}

// newDue creates a due of 10,000 principal with its events cleared
func newDue(inv *payout.Investment) *payout.InvestmentDue {
	due, err := payout.NewInvestmentDue(payout.Investor{
		UserID: uuid.New(),
		Name:   "Adaeze Okafor",
		Email:  "adaeze@example.com",
	}, inv, decimal.NewFromInt(10000), decimal.Zero)
	if err != nil {
		panic(err)
	}
	due.ClearDomainEvents()
	return due
}

// copyDue returns an independent copy, standing in for a fresh database read
func copyDue(d *payout.InvestmentDue) *payout.InvestmentDue {
	c := *d
	c.ClearDomainEvents()
	return &c
}
