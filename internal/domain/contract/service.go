package contract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"lending-engine/internal/config"
	"lending-engine/internal/domain/client"
	"lending-engine/internal/domain/ledger"
	"lending-engine/internal/event"
	"lending-engine/internal/infrastructure/monitoring"
	"lending-engine/internal/pkg/apperrors"
)

// ContractSummary is the financial position of one contract at a point in
// time, as shown in the contract detail header.
type ContractSummary struct {
	ContractID    uuid.UUID
	Status        Status
	OpenPrincipal decimal.Decimal
	PendingFee    decimal.Decimal
	CycleInterest decimal.Decimal
	DaysLate      int
	LateFee       decimal.Decimal
	CycleTotal    decimal.Decimal
	TotalWithLate decimal.Decimal
	PayoffTotal   decimal.Decimal
	DueDate       time.Time
}

// PaymentWithBalance is one history entry annotated with the principal
// balance around it, newest first.
type PaymentWithBalance struct {
	Payment
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
}

type RecentContract struct {
	ContractID uuid.UUID
	ClientName string
	Principal  decimal.Decimal
	DueDate    time.Time
	Status     Status
}

type DashboardSummary struct {
	TotalToReceive          decimal.Decimal
	ActiveContracts         int
	MonthlyInterestForecast decimal.Decimal
	TotalAmountToReceive    decimal.Decimal
	RecentContracts         []RecentContract
}

// AccrualReport is what one run of the overdue batch job did.
type AccrualReport struct {
	ContractsChecked int
	MarkedOverdue    int
	FeesAccrued      int
	Errors           int
}

type ContractService interface {
	CreateContract(ctx context.Context, clientID uuid.UUID, principal, interestRatePercent decimal.Decimal, periodicity ledger.Periodicity, startDate time.Time, note string) (*Contract, error)

	GetContract(ctx context.Context, contractID uuid.UUID) (*Contract, error)

	ListContracts(ctx context.Context, from, to *time.Time) ([]*Contract, error)

	ListContractsByClient(ctx context.Context, clientID uuid.UUID) ([]*Contract, error)

	GetContractSummary(ctx context.Context, contractID uuid.UUID, now time.Time) (*ContractSummary, error)

	RecordPayment(ctx context.Context, contractID uuid.UUID, amount decimal.Decimal, kind PaymentKind, note string) (*Payment, error)

	PayInstallments(ctx context.Context, contractID uuid.UUID, installmentIDs []uuid.UUID) (*Payment, error)

	PayOff(ctx context.Context, contractID uuid.UUID) (*Payment, error)

	GetPaymentHistory(ctx context.Context, contractID uuid.UUID) ([]PaymentWithBalance, error)

	ListPaymentsInPeriod(ctx context.Context, from, to time.Time) ([]PaymentInPeriod, error)

	FinanceSummary(ctx context.Context, from, to time.Time) (*ledger.Summary, error)

	DashboardSummary(ctx context.Context, from, to time.Time) (*DashboardSummary, error)

	AccrueOverdue(ctx context.Context, now time.Time) (*AccrualReport, error)
}

type contractServiceImpl struct {
	repo          Repository
	clientService client.ClientService
	publisher     event.EventPublisher
	billing       config.BillingConfig
	logger        *slog.Logger
}

func NewContractService(r Repository, cs client.ClientService, pub event.EventPublisher, billing config.BillingConfig, logger *slog.Logger) ContractService {
	if r == nil || cs == nil || logger == nil {
		panic("contract service dependencies cannot be nil")
	}
	if pub == nil {
		pub = event.NoopPublisher{Logger: logger}
	}
	return &contractServiceImpl{
		repo:          r,
		clientService: cs,
		publisher:     pub,
		billing:       billing,
		logger:        logger.With(slog.String("component", "contractService")),
	}
}

func (s *contractServiceImpl) CreateContract(ctx context.Context, clientID uuid.UUID, principal, interestRatePercent decimal.Decimal, periodicity ledger.Periodicity, startDate time.Time, note string) (*Contract, error) {
	s.logger.InfoContext(ctx, "Creating new contract", "clientID", clientID)

	cl, err := s.clientService.GetClient(ctx, clientID)
	if err != nil {
		if errors.Is(err, client.ErrNotFound) || errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: client %s not found", apperrors.ErrValidation, clientID)
		}
		return nil, fmt.Errorf("failed to verify client: %w", err)
	}
	if !cl.Active {
		s.logger.WarnContext(ctx, "Attempted to create contract for inactive client", "clientID", clientID)
		return nil, fmt.Errorf("%w: client %s is not active", apperrors.ErrValidation, clientID)
	}

	c, err := NewContract(clientID, principal, interestRatePercent, periodicity, startDate, note)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.CreateContract(ctx, c)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to save contract", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to save contract: %v", apperrors.ErrInternalServer, err)
	}

	monitoring.RecordContractCreated()
	s.logger.InfoContext(ctx, "Contract created", "contractID", created.ID, "periodicity", created.Periodicity, "installments", len(created.Installments))
	return created, nil
}

func (s *contractServiceImpl) GetContract(ctx context.Context, contractID uuid.UUID) (*Contract, error) {
	c, err := s.repo.GetContractByID(ctx, contractID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: contract %s not found", apperrors.ErrNotFound, contractID)
		}
		s.logger.ErrorContext(ctx, "Failed to get contract", "contractID", contractID, slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to get contract %s: %v", apperrors.ErrInternalServer, contractID, err)
	}
	return c, nil
}

func (s *contractServiceImpl) ListContracts(ctx context.Context, from, to *time.Time) ([]*Contract, error) {
	contracts, err := s.repo.ListContracts(ctx, from, to)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list contracts", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to list contracts: %v", apperrors.ErrInternalServer, err)
	}
	return contracts, nil
}

func (s *contractServiceImpl) ListContractsByClient(ctx context.Context, clientID uuid.UUID) ([]*Contract, error) {
	contracts, err := s.repo.ListContractsByClient(ctx, clientID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list contracts by client", "clientID", clientID, slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to list contracts for client %s: %v", apperrors.ErrInternalServer, clientID, err)
	}
	return contracts, nil
}

func (s *contractServiceImpl) GetContractSummary(ctx context.Context, contractID uuid.UUID, now time.Time) (*ContractSummary, error) {
	c, err := s.GetContract(ctx, contractID)
	if err != nil {
		return nil, err
	}

	daysLate := daysPast(c.DueDate, now, s.billing.GraceDays)

	lateBase := c.InterestDue
	if c.IsInstallmentBased() {
		lateBase = decimal.Zero
		for _, inst := range c.PendingInstallments() {
			if inst.DueDate.Before(now) {
				lateBase = lateBase.Add(inst.Amount)
			}
		}
	}

	lateFee := decimal.Zero
	if c.Status != StatusSettled && daysLate > 0 {
		lateFee, err = ledger.LateFee(lateBase, s.penaltyRate(), daysLate)
		if err != nil {
			return nil, err
		}
	}

	cycleTotal := c.InterestDue.Add(c.AccruedFee)
	return &ContractSummary{
		ContractID:    c.ID,
		Status:        c.Status,
		OpenPrincipal: c.OpenPrincipal,
		PendingFee:    c.AccruedFee,
		CycleInterest: c.InterestDue,
		DaysLate:      daysLate,
		LateFee:       lateFee,
		CycleTotal:    cycleTotal,
		TotalWithLate: cycleTotal.Add(lateFee),
		PayoffTotal:   ledger.PayoffAmount(c.State()),
		DueDate:       c.DueDate,
	}, nil
}

func (s *contractServiceImpl) RecordPayment(ctx context.Context, contractID uuid.UUID, amount decimal.Decimal, kind PaymentKind, note string) (*Payment, error) {
	return s.applyPayment(ctx, contractID, kind, note, func(c *Contract) (decimal.Decimal, *ledger.Allocation, []uuid.UUID, error) {
		alloc, err := ledger.Allocate(amount, c.State())
		if err != nil {
			return decimal.Zero, nil, nil, err
		}
		return amount, &alloc, nil, nil
	})
}

// PayOff settles the whole position in one payment. The amount is the
// literal sum of the current balances, so the resulting state is exactly
// zero; anything else is an accounting bug.
func (s *contractServiceImpl) PayOff(ctx context.Context, contractID uuid.UUID) (*Payment, error) {
	return s.applyPayment(ctx, contractID, PaymentKindMixed, "full payoff", func(c *Contract) (decimal.Decimal, *ledger.Allocation, []uuid.UUID, error) {
		amount := ledger.PayoffAmount(c.State())
		alloc, err := ledger.Payoff(c.State())
		if err != nil {
			return decimal.Zero, nil, nil, err
		}
		pending := c.PendingInstallments()
		ids := make([]uuid.UUID, 0, len(pending))
		for _, inst := range pending {
			ids = append(ids, inst.ID)
		}
		return amount, &alloc, ids, nil
	})
}

// PayInstallments settles an arbitrary subset of pending installments in one
// payment. The tendered amount is the sum of the selected slices plus their
// accrued fees, and the allocation reflects exactly those slices: selection
// is free-form, amortization is not.
func (s *contractServiceImpl) PayInstallments(ctx context.Context, contractID uuid.UUID, installmentIDs []uuid.UUID) (*Payment, error) {
	if len(installmentIDs) == 0 {
		return nil, fmt.Errorf("%w: no installments selected", apperrors.ErrInvalidArgument)
	}

	return s.applyPayment(ctx, contractID, PaymentKindPrincipal, "installment payment", func(c *Contract) (decimal.Decimal, *ledger.Allocation, []uuid.UUID, error) {
		if !c.IsInstallmentBased() {
			return decimal.Zero, nil, nil, fmt.Errorf("%w: contract %s has no installment schedule", apperrors.ErrInvalidState, c.ID)
		}

		byID := make(map[uuid.UUID]*Installment, len(c.Installments))
		for i := range c.Installments {
			byID[c.Installments[i].ID] = &c.Installments[i]
		}

		// A duplicated ID would count its slice twice in the allocation while
		// the installment flips PAID only once, desyncing the open principal
		// from the pending schedule.
		seen := make(map[uuid.UUID]struct{}, len(installmentIDs))
		sumAmounts, sumFees := decimal.Zero, decimal.Zero
		for _, id := range installmentIDs {
			if _, dup := seen[id]; dup {
				return decimal.Zero, nil, nil, fmt.Errorf("%w: installment %s selected more than once", apperrors.ErrInvalidArgument, id)
			}
			seen[id] = struct{}{}
			inst, ok := byID[id]
			if !ok {
				return decimal.Zero, nil, nil, fmt.Errorf("%w: installment %s does not belong to contract %s", apperrors.ErrInvalidArgument, id, c.ID)
			}
			if inst.Status == ledger.InstallmentPaid {
				return decimal.Zero, nil, nil, fmt.Errorf("%w: installment %d is already paid", apperrors.ErrInvalidState, inst.SequenceNumber)
			}
			sumAmounts = sumAmounts.Add(inst.Amount)
			sumFees = sumFees.Add(inst.Fee)
		}

		// Allocate against the selected slices only, so the principal
		// reduction matches the selection to the cent regardless of what
		// other fees the contract carries.
		alloc, err := ledger.Payoff(ledger.State{OpenPrincipal: sumAmounts, AccruedFee: sumFees, InterestDue: decimal.Zero})
		if err != nil {
			return decimal.Zero, nil, nil, err
		}

		newPrincipal := c.OpenPrincipal.Sub(alloc.PrincipalPaid)
		newFee := c.AccruedFee.Sub(alloc.FeePaid)
		if newPrincipal.IsNegative() || newFee.IsNegative() {
			return decimal.Zero, nil, nil, fmt.Errorf("%w: installment batch exceeds contract balances", apperrors.ErrInvalidState)
		}
		alloc.NewState = ledger.State{OpenPrincipal: newPrincipal, AccruedFee: newFee, InterestDue: c.InterestDue}

		return sumAmounts.Add(sumFees), &alloc, installmentIDs, nil
	})
}

// prepare computes, inside the transaction and against the locked contract,
// the tendered amount, the allocation to apply, and the installments to mark
// paid.
type prepareFunc func(c *Contract) (decimal.Decimal, *ledger.Allocation, []uuid.UUID, error)

func (s *contractServiceImpl) applyPayment(ctx context.Context, contractID uuid.UUID, kind PaymentKind, note string, prepare prepareFunc) (payment *Payment, err error) {
	s.logger.InfoContext(ctx, "Applying payment", "contractID", contractID, "kind", kind)

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%w: could not begin transaction: %v", apperrors.ErrInternalServer, err)
	}

	defer func() {
		status := "failure_internal"
		switch {
		case err == nil:
			status = "success"
		case errors.Is(err, apperrors.ErrInvalidAmount):
			status = "failure_amount"
		case errors.Is(err, apperrors.ErrInvalidState):
			status = "failure_state"
		case errors.Is(err, apperrors.ErrContractSettled):
			status = "failure_settled"
		}
		monitoring.RecordPayment(status)
		if p := recover(); p != nil {
			s.logger.ErrorContext(ctx, "Panic during payment processing", "contractID", contractID, "panic", p)
			_ = s.repo.RollbackTx(ctx, tx)
			panic(p)
		} else if err != nil {
			s.logger.ErrorContext(ctx, "Rolling back payment transaction", slog.Any("error", err))
			_ = s.repo.RollbackTx(ctx, tx)
		}
	}()

	c, err := s.repo.GetContractForUpdate(ctx, tx, contractID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: contract %s not found", apperrors.ErrNotFound, contractID)
		}
		return nil, fmt.Errorf("%w: could not load contract for payment: %v", apperrors.ErrInternalServer, err)
	}

	if c.Status == StatusSettled {
		return nil, apperrors.ErrContractSettled
	}

	amount, alloc, markPaid, err := prepare(c)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	payment = &Payment{
		ID:                 uuid.New(),
		ContractID:         c.ID,
		Kind:               kind,
		AmountPaid:         amount,
		AllocatedFee:       alloc.FeePaid,
		AllocatedInterest:  alloc.InterestPaid,
		AllocatedPrincipal: alloc.PrincipalPaid,
		Note:               note,
		CreatedAt:          now,
	}

	c.Apply(*alloc, now)

	if len(markPaid) > 0 {
		if err = s.repo.MarkInstallmentsPaidInTx(ctx, tx, markPaid, now); err != nil {
			return nil, fmt.Errorf("%w: could not mark installments paid: %v", apperrors.ErrInternalServer, err)
		}
		markInstallmentsPaid(c, markPaid, now)
	}

	if c.Status != StatusSettled {
		if c.Periodicity == ledger.PeriodicityMonthly && c.InterestDue.IsZero() {
			// Interest cleared: the cycle renews and next month's interest
			// becomes due. Open principal is untouched.
			if err = c.RenewCycle(); err != nil {
				return nil, err
			}
		}
		if c.IsInstallmentBased() {
			advanceDueDate(c)
		}
	}

	if err = s.repo.InsertPaymentInTx(ctx, tx, payment); err != nil {
		return nil, fmt.Errorf("%w: could not insert payment: %v", apperrors.ErrInternalServer, err)
	}
	if err = s.repo.UpdateContractBalancesInTx(ctx, tx, c); err != nil {
		return nil, fmt.Errorf("%w: could not update contract balances: %v", apperrors.ErrInternalServer, err)
	}

	if err = s.repo.CommitTx(ctx, tx); err != nil {
		return nil, fmt.Errorf("%w: could not commit payment transaction: %v", apperrors.ErrInternalServer, err)
	}

	s.logger.InfoContext(ctx, "Payment recorded",
		"contractID", c.ID, "paymentID", payment.ID,
		"amount", payment.AmountPaid, "fee", payment.AllocatedFee,
		"interest", payment.AllocatedInterest, "principal", payment.AllocatedPrincipal)

	s.publishPaymentEvents(ctx, c, payment)
	return payment, nil
}

func (s *contractServiceImpl) publishPaymentEvents(ctx context.Context, c *Contract, p *Payment) {
	evt := event.PaymentRecordedEvent{
		PaymentID:          p.ID.String(),
		ContractID:         c.ID.String(),
		ClientID:           c.ClientID.String(),
		Kind:               string(p.Kind),
		AmountPaid:         ledger.FormatAmount(p.AmountPaid),
		AllocatedFee:       ledger.FormatAmount(p.AllocatedFee),
		AllocatedInterest:  ledger.FormatAmount(p.AllocatedInterest),
		AllocatedPrincipal: ledger.FormatAmount(p.AllocatedPrincipal),
		Timestamp:          p.CreatedAt,
	}
	if err := s.publisher.PublishPaymentRecorded(ctx, evt); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish payment event", slog.Any("error", err))
	}

	if c.Status == StatusSettled {
		monitoring.RecordContractSettled()
		settled := event.ContractSettledEvent{
			ContractID: c.ID.String(),
			ClientID:   c.ClientID.String(),
			Timestamp:  p.CreatedAt,
		}
		if err := s.publisher.PublishContractSettled(ctx, settled); err != nil {
			s.logger.WarnContext(ctx, "Failed to publish settlement event", slog.Any("error", err))
		}
	}
}

func (s *contractServiceImpl) GetPaymentHistory(ctx context.Context, contractID uuid.UUID) ([]PaymentWithBalance, error) {
	c, err := s.GetContract(ctx, contractID)
	if err != nil {
		return nil, err
	}

	payments, err := s.repo.GetPaymentsByContract(ctx, contractID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load payment history", "contractID", contractID, slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to load payments for contract %s: %v", apperrors.ErrInternalServer, contractID, err)
	}

	principalAsc := make([]decimal.Decimal, len(payments))
	for i, p := range payments {
		principalAsc[i] = p.AllocatedPrincipal
	}

	steps, err := ledger.ReconstructBalances(c.OpenPrincipal, principalAsc)
	if err != nil {
		s.logger.ErrorContext(ctx, "Balance reconstruction failed", "contractID", contractID, slog.Any("error", err))
		return nil, err
	}

	// Computed in time order, displayed newest first.
	history := make([]PaymentWithBalance, len(payments))
	for i := range payments {
		history[len(payments)-1-i] = PaymentWithBalance{
			Payment:       payments[i],
			BalanceBefore: steps[i].BalanceBefore,
			BalanceAfter:  steps[i].BalanceAfter,
		}
	}
	return history, nil
}

func (s *contractServiceImpl) ListPaymentsInPeriod(ctx context.Context, from, to time.Time) ([]PaymentInPeriod, error) {
	payments, err := s.repo.ListPaymentsInPeriod(ctx, from, to)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list payments in period", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to list payments: %v", apperrors.ErrInternalServer, err)
	}
	return payments, nil
}

func (s *contractServiceImpl) FinanceSummary(ctx context.Context, from, to time.Time) (*ledger.Summary, error) {
	contracts, err := s.repo.ListContracts(ctx, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load contracts for summary: %v", apperrors.ErrInternalServer, err)
	}
	payments, err := s.repo.ListPaymentsInPeriod(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load payments for summary: %v", apperrors.ErrInternalServer, err)
	}

	snapshots := make([]ledger.ContractSnapshot, len(contracts))
	for i, c := range contracts {
		snapshots[i] = c.Snapshot()
	}
	paymentSnaps := make([]ledger.PaymentSnapshot, len(payments))
	for i, p := range payments {
		paymentSnaps[i] = ledger.PaymentSnapshot{
			Periodicity:  p.ContractPeriodicity,
			AmountPaid:   p.AmountPaid,
			AllocatedFee: p.AllocatedFee,
			PaidAt:       p.CreatedAt,
		}
	}

	summary, err := ledger.Summarize(snapshots, paymentSnaps, ledger.DateRange{Start: from, End: to})
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

func (s *contractServiceImpl) DashboardSummary(ctx context.Context, from, to time.Time) (*DashboardSummary, error) {
	summary, err := s.FinanceSummary(ctx, from, to)
	if err != nil {
		return nil, err
	}

	active, err := s.repo.ListActiveContracts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to count active contracts: %v", apperrors.ErrInternalServer, err)
	}

	recent, err := s.repo.ListRecentContracts(ctx, 5)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to load recent contracts", slog.Any("error", err))
		recent = nil
	}

	return &DashboardSummary{
		TotalToReceive:          summary.TotalLent,
		ActiveContracts:         len(active),
		MonthlyInterestForecast: summary.InterestReceivable,
		TotalAmountToReceive:    summary.TotalLent.Add(summary.InterestAndFeesReceivable),
		RecentContracts:         recent,
	}, nil
}

// AccrueOverdue is the daily batch pass: contracts past due flip to OVERDUE
// and accrue one day's late fee onto their position. For installment
// contracts the fee lands on each overdue installment and is mirrored into
// the contract's accrued fee so the allocator sees it.
func (s *contractServiceImpl) AccrueOverdue(ctx context.Context, now time.Time) (*AccrualReport, error) {
	contracts, err := s.repo.ListActiveContracts(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot run accrual, failed to list active contracts: %w", err)
	}

	report := &AccrualReport{ContractsChecked: len(contracts)}
	for _, c := range contracts {
		if err := s.accrueContract(ctx, c.ID, now, report); err != nil {
			s.logger.ErrorContext(ctx, "Failed to accrue contract", "contractID", c.ID, slog.Any("error", err))
			report.Errors++
		}
	}

	s.logger.InfoContext(ctx, "Overdue accrual pass finished",
		"checked", report.ContractsChecked, "markedOverdue", report.MarkedOverdue,
		"feesAccrued", report.FeesAccrued, "errors", report.Errors)
	return report, nil
}

func (s *contractServiceImpl) accrueContract(ctx context.Context, contractID uuid.UUID, now time.Time, report *AccrualReport) (err error) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("could not begin accrual transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = s.repo.RollbackTx(ctx, tx)
		}
	}()

	c, err := s.repo.GetContractForUpdate(ctx, tx, contractID)
	if err != nil {
		return err
	}
	if c.Status == StatusSettled || c.Status == StatusPersonalCollection {
		return s.repo.RollbackTx(ctx, tx)
	}

	daysLate := daysPast(c.DueDate, now, s.billing.GraceDays)
	wasOverdue := c.Status == StatusOverdue
	accrued := false

	if c.IsInstallmentBased() {
		for i := range c.Installments {
			inst := &c.Installments[i]
			if inst.Status != ledger.InstallmentPending || daysPast(inst.DueDate, now, s.billing.GraceDays) == 0 {
				continue
			}
			dayFee, feeErr := ledger.LateFee(inst.Amount, s.penaltyRate(), 1)
			if feeErr != nil {
				return feeErr
			}
			if dayFee.IsZero() {
				continue
			}
			inst.Fee = inst.Fee.Add(dayFee)
			c.AccruedFee = c.AccruedFee.Add(dayFee)
			if err = s.repo.UpdateInstallmentFeeInTx(ctx, tx, inst.ID, inst.Fee); err != nil {
				return err
			}
			accrued = true
		}
		if accrued {
			c.Status = StatusOverdue
		}
	} else if daysLate > 0 {
		dayFee, feeErr := ledger.LateFee(c.InterestDue, s.penaltyRate(), 1)
		if feeErr != nil {
			return feeErr
		}
		c.AccruedFee = c.AccruedFee.Add(dayFee)
		c.Status = StatusOverdue
		accrued = !dayFee.IsZero()
	}

	if !accrued && c.Status != StatusOverdue {
		return s.repo.RollbackTx(ctx, tx)
	}

	c.UpdatedAt = now
	if err = s.repo.UpdateContractBalancesInTx(ctx, tx, c); err != nil {
		return err
	}
	if err = s.repo.CommitTx(ctx, tx); err != nil {
		return err
	}

	if accrued {
		monitoring.RecordLateFeeAccrual()
		report.FeesAccrued++
	}
	if !wasOverdue && c.Status == StatusOverdue {
		report.MarkedOverdue++
		evt := event.ContractOverdueEvent{
			ContractID: c.ID.String(),
			ClientID:   c.ClientID.String(),
			DueDate:    c.DueDate,
			DaysLate:   daysLate,
			AccruedFee: ledger.FormatAmount(c.AccruedFee),
			Timestamp:  now,
		}
		if pubErr := s.publisher.PublishContractOverdue(ctx, evt); pubErr != nil {
			s.logger.WarnContext(ctx, "Failed to publish overdue event", "contractID", c.ID, slog.Any("error", pubErr))
		}
	}
	return nil
}

func (s *contractServiceImpl) penaltyRate() decimal.Decimal {
	return decimal.NewFromFloat(s.billing.LatePenaltyPercent)
}

func daysPast(dueDate, now time.Time, graceDays int) int {
	days := int(now.Sub(dueDate).Hours() / 24)
	days -= graceDays
	if days < 0 {
		return 0
	}
	return days
}

func markInstallmentsPaid(c *Contract, ids []uuid.UUID, paidAt time.Time) {
	paid := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		paid[id] = true
	}
	for i := range c.Installments {
		if paid[c.Installments[i].ID] {
			c.Installments[i].Status = ledger.InstallmentPaid
			at := paidAt
			c.Installments[i].PaidAt = &at
			c.Installments[i].UpdatedAt = paidAt
		}
	}
}

// advanceDueDate keeps an installment contract's due date pointing at the
// earliest pending slice.
func advanceDueDate(c *Contract) {
	pending := c.PendingInstallments()
	if len(pending) == 0 {
		return
	}
	next := pending[0].DueDate
	for _, inst := range pending[1:] {
		if inst.DueDate.Before(next) {
			next = inst.DueDate
		}
	}
	c.DueDate = next
}
