package payout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/payout/backend/internal/domain/payout"
	"github.com/payout/backend/internal/domain/shared"
	"github.com/payout/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ServiceConfig tunes DueService
type ServiceConfig struct {
	Policy          payout.ClassifierPolicy
	LockTTL         time.Duration
	DefaultPageSize int
	MaxPageSize     int
	StatsBatchSize  int
	// WalletAdapter labels wallet failure metrics ("ledger" or "http")
	WalletAdapter string
}

// DefaultServiceConfig returns the configuration used when none is given
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Policy:          payout.DefaultClassifierPolicy(),
		LockTTL:         30 * time.Second,
		DefaultPageSize: 20,
		MaxPageSize:     100,
		StatsBatchSize:  500,
		WalletAdapter:   "ledger",
	}
}

// DueService handles the investment payout workflow: listing, stats and
// admin decisions on payout occurrences.
type DueService struct {
	dueRepo        payout.InvestmentDueRepository
	recordRepo     payout.PayoutRecordRepository
	rejectionRepo  payout.PayoutRejectionRepository
	catalog        payout.InvestmentCatalog
	scope          TransactionScope
	locker         OccurrenceLocker
	cfg            ServiceConfig
	clock          Clock
	eventPublisher shared.EventPublisher
	metrics        *telemetry.PayoutMetrics
	logger         *zap.Logger
}

// NewDueService creates a new DueService
func NewDueService(
	dueRepo payout.InvestmentDueRepository,
	recordRepo payout.PayoutRecordRepository,
	rejectionRepo payout.PayoutRejectionRepository,
	catalog payout.InvestmentCatalog,
	scope TransactionScope,
	locker OccurrenceLocker,
	cfg ServiceConfig,
) *DueService {
	defaults := DefaultServiceConfig()
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = defaults.LockTTL
	}
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = defaults.DefaultPageSize
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = defaults.MaxPageSize
	}
	if cfg.StatsBatchSize <= 0 {
		cfg.StatsBatchSize = defaults.StatsBatchSize
	}
	if cfg.WalletAdapter == "" {
		cfg.WalletAdapter = defaults.WalletAdapter
	}
	return &DueService{
		dueRepo:       dueRepo,
		recordRepo:    recordRepo,
		rejectionRepo: rejectionRepo,
		catalog:       catalog,
		scope:         scope,
		locker:        locker,
		cfg:           cfg,
		clock:         func() time.Time { return time.Now().UTC() },
		logger:        zap.NewNop(),
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *DueService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the business metrics recorder
func (s *DueService) SetMetrics(m *telemetry.PayoutMetrics) {
	s.metrics = m
}

func (s *DueService) SetLogger(logger *zap.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

func (s *DueService) SetClock(clock Clock) {
	if clock != nil {
		s.clock = clock
	}
}

// Policy returns the classifier policy in use
func (s *DueService) Policy() payout.ClassifierPolicy {
	return s.cfg.Policy
}

// publishDomainEvents publishes and clears the due's pending events
func (s *DueService) publishDomainEvents(ctx context.Context, due *payout.InvestmentDue) {
	events := due.GetDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		due.ClearDomainEvents()
		return
	}
	// handler errors are logged by the bus
	_ = s.eventPublisher.Publish(ctx, events...)
	due.ClearDomainEvents()
}

// investmentStatus resolves the status of the due's investment. A missing
// investment yields an empty status, which blocks approval.
func investmentStatus(ctx context.Context, catalog payout.InvestmentCatalog, id uuid.UUID) (payout.InvestmentStatus, error) {
	inv, err := catalog.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, payout.ErrInvestmentNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to load investment: %w", err)
	}
	return inv.Status, nil
}

// ListDues returns one page of classified dues
func (s *DueService) ListDues(ctx context.Context, q ListDuesQuery) (result *DueListResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "investment_due", "list")
	defer span.End()
	defer func() {
		if err != nil {
			telemetry.RecordError(span, err)
		}
	}()

	now := s.clock()
	filter, err := s.buildFilter(q, now)
	if err != nil {
		return nil, err
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrPage, filter.Page,
		telemetry.SpanAttrPageSize, filter.PageSize,
	)

	telemetry.WithProfilingLabels(ctx, telemetry.PayoutOperationLabels(telemetry.OperationListDues, ""), func(c context.Context) {
		var total int64
		total, err = s.dueRepo.Count(c, filter)
		if err != nil {
			err = fmt.Errorf("failed to count dues: %w", err)
			return
		}

		var dues []payout.InvestmentDue
		dues, err = s.dueRepo.FindAll(c, filter)
		if err != nil {
			err = fmt.Errorf("failed to list dues: %w", err)
			return
		}

		var records []DueResponse
		records, err = s.classifyAll(c, dues, now)
		if err != nil {
			return
		}

		result = &DueListResponse{
			Records:    records,
			Total:      total,
			TotalPages: filter.TotalPages(total),
			Page:       filter.Page,
			Limit:      filter.PageSize,
		}
	})
	return result, err
}

// classifyAll enriches dues with investment statuses and classifications
func (s *DueService) classifyAll(ctx context.Context, dues []payout.InvestmentDue, now time.Time) ([]DueResponse, error) {
	ids := make([]uuid.UUID, 0, len(dues))
	seen := make(map[uuid.UUID]struct{}, len(dues))
	for i := range dues {
		if _, ok := seen[dues[i].InvestmentID]; !ok {
			seen[dues[i].InvestmentID] = struct{}{}
			ids = append(ids, dues[i].InvestmentID)
		}
	}

	investments := map[uuid.UUID]*payout.Investment{}
	if len(ids) > 0 {
		var err error
		investments, err = s.catalog.FindByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to load investments: %w", err)
		}
	}

	out := make([]DueResponse, 0, len(dues))
	for i := range dues {
		due := &dues[i]
		var status payout.InvestmentStatus
		if inv, ok := investments[due.InvestmentID]; ok {
			status = inv.Status
		}
		out = append(out, ToDueResponse(due, status, payout.Classify(due, status, now, s.cfg.Policy)))
	}
	return out, nil
}

// buildFilter validates query parameters and builds the repository filter
func (s *DueService) buildFilter(q ListDuesQuery, now time.Time) (payout.InvestmentDueFilter, error) {
	filter := payout.InvestmentDueFilter{
		Filter: shared.Filter{
			Page:     q.Page,
			PageSize: q.Limit,
			Search:   strings.TrimSpace(q.Search),
			OrderBy:  q.SortBy,
			OrderDir: q.SortOrder,
		},
		Bounds: s.cfg.Policy.Bounds(now),
	}
	if filter.Page == 0 {
		filter.Page = 1
	}
	if filter.PageSize == 0 {
		filter.PageSize = s.cfg.DefaultPageSize
	}
	if filter.Page < 1 {
		return filter, shared.NewDomainError(payout.CodeValidation, "page must be at least 1")
	}
	if filter.PageSize < 1 || filter.PageSize > s.cfg.MaxPageSize {
		return filter, shared.NewDomainError(payout.CodeValidation,
			fmt.Sprintf("limit must be between 1 and %d", s.cfg.MaxPageSize))
	}

	status, err := payout.ParseStatusFilter(q.Status)
	if err != nil {
		return filter, err
	}
	filter.Status = status

	if q.StartDate != "" {
		start, err := parseDate("startDate", q.StartDate)
		if err != nil {
			return filter, err
		}
		filter.StartDate = &start
	}
	if q.EndDate != "" {
		end, err := parseDate("endDate", q.EndDate)
		if err != nil {
			return filter, err
		}
		// inclusive through the end of the day
		end = end.Add(24*time.Hour - time.Nanosecond)
		filter.EndDate = &end
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.StartDate.After(*filter.EndDate) {
		return filter, shared.NewDomainError(payout.CodeValidation, "startDate must not be after endDate")
	}
	return filter, nil
}

func parseDate(name, value string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(value), time.UTC)
	if err != nil {
		return time.Time{}, shared.NewDomainError(payout.CodeValidation,
			fmt.Sprintf("%s must be a date in YYYY-MM-DD format", name))
	}
	return t, nil
}

// GetDue returns a due with its full schedule and decision history
func (s *DueService) GetDue(ctx context.Context, id uuid.UUID) (*DueDetailResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "investment_due", "get")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrDueID, id.String())

	due, err := s.dueRepo.FindByID(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	status, err := investmentStatus(ctx, s.catalog, due.InvestmentID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	schedule, err := due.Schedule()
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild schedule: %w", err)
	}
	records, err := s.recordRepo.FindByDueID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load payout records: %w", err)
	}
	rejections, err := s.rejectionRepo.FindByDueID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load rejections: %w", err)
	}

	occurrences := schedule.Occurrences()
	lines := make([]OccurrenceResponse, 0, len(occurrences))
	for _, o := range occurrences {
		state := OccurrenceUpcoming
		switch {
		case o.Period <= due.CompletedPayouts:
			state = OccurrencePaid
		case o.Period == due.CurrentPayoutPeriod:
			state = OccurrenceOutstanding
		}
		lines = append(lines, OccurrenceResponse{Period: o.Period, DueDate: o.DueDate, Amount: o.Amount, State: state})
	}

	return &DueDetailResponse{
		DueResponse: ToDueResponse(due, status, payout.Classify(due, status, s.clock(), s.cfg.Policy)),
		Schedule:    lines,
		Payouts:     records,
		Rejections:  rejections,
	}, nil
}

// CreateDue opens a due for a confirmed contribution
func (s *DueService) CreateDue(ctx context.Context, req CreateDueRequest) (*DueResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "investment_due", "create")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrInvestmentID, req.InvestmentID.String(),
		telemetry.SpanAttrUserID, req.UserID.String(),
		telemetry.SpanAttrAmount, req.Amount.String(),
	)

	inv, err := s.catalog.GetByID(ctx, req.InvestmentID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if inv.Status == payout.InvestmentStatusCompleted || inv.Status == payout.InvestmentStatusCancelled {
		return nil, shared.NewDomainError(payout.CodeStateConflict,
			fmt.Sprintf("Investment is %s and no longer accepts contributions", inv.Status))
	}

	exists, err := s.dueRepo.ExistsForInvestor(ctx, req.UserID, req.InvestmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing due: %w", err)
	}
	if exists {
		return nil, shared.NewDomainError(payout.CodeStateConflict, "Investor already holds a due for this investment")
	}

	expected := decimal.Zero
	if req.ExpectedReturn != nil {
		expected = *req.ExpectedReturn
	}
	due, err := payout.NewInvestmentDue(payout.Investor{
		UserID: req.UserID,
		Name:   strings.TrimSpace(req.InvestorName),
		Email:  strings.TrimSpace(req.InvestorEmail),
	}, inv, req.Amount, expected)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.dueRepo.Create(ctx, due); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.publishDomainEvents(ctx, due)

	s.logger.Info("investment due created",
		zap.String("due_id", due.ID.String()),
		zap.String("investment_id", inv.ID.String()),
		zap.Int("total_payouts", due.TotalPayouts),
	)
	resp := ToDueResponse(due, inv.Status, payout.Classify(due, inv.Status, s.clock(), s.cfg.Policy))
	return &resp, nil
}
