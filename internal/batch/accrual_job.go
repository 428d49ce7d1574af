package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"lending-engine/internal/domain/contract"
)

// OverdueAccrualJob is the daily batch run that marks contracts past their
// due date as overdue and accrues one day of late fees on each.
type OverdueAccrualJob struct {
	contractService contract.ContractService
	logger          *slog.Logger
}

func NewOverdueAccrualJob(contractSvc contract.ContractService, logger *slog.Logger) *OverdueAccrualJob {
	if contractSvc == nil || logger == nil {
		panic("OverdueAccrualJob dependencies cannot be nil")
	}
	return &OverdueAccrualJob{
		contractService: contractSvc,
		logger:          logger.With("job", "OverdueAccrual"),
	}
}

func (j *OverdueAccrualJob) Run(ctx context.Context) error {
	startTime := time.Now()
	j.logger.InfoContext(ctx, "Starting daily overdue accrual job.")

	report, err := j.contractService.AccrueOverdue(ctx, startTime)
	if err != nil {
		j.logger.ErrorContext(ctx, "Overdue accrual job aborted.", slog.Any("error", err))
		return fmt.Errorf("cannot run accrual job: %w", err)
	}

	summaryLog := j.logger.With(
		slog.Duration("duration", time.Since(startTime)),
		slog.Int("contracts_checked", report.ContractsChecked),
		slog.Int("marked_overdue", report.MarkedOverdue),
		slog.Int("fees_accrued", report.FeesAccrued),
		slog.Int("errors_encountered", report.Errors),
	)
	if report.Errors > 0 {
		summaryLog.WarnContext(ctx, "Overdue accrual job finished with errors.")
		return fmt.Errorf("job completed with %d errors", report.Errors)
	}
	summaryLog.InfoContext(ctx, "Overdue accrual job finished successfully.")
	return nil
}
