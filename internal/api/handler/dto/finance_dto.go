package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"lending-engine/internal/domain/contract"
	"lending-engine/internal/domain/finance"
	"lending-engine/internal/domain/ledger"
)

type ExpenseRequest struct {
	Description       string `json:"description"`
	Kind              string `json:"kind"`
	Flow              string `json:"flow"`
	Category          string `json:"category,omitempty"`
	Amount            string `json:"amount"`
	StartDate         string `json:"startDate"`
	TotalInstallments *int   `json:"totalInstallments,omitempty"`
	DayOfMonth        *int   `json:"dayOfMonth,omitempty"`
}

func (r *ExpenseRequest) Validate() error {
	if strings.TrimSpace(r.Description) == "" {
		return fmt.Errorf("description is required")
	}
	if !finance.ExpenseKind(r.Kind).Valid() {
		return fmt.Errorf("kind must be FIXED, INSTALLMENT or VARIABLE")
	}
	if !finance.Flow(r.Flow).Valid() {
		return fmt.Errorf("flow must be IN or OUT")
	}
	if strings.TrimSpace(r.Amount) == "" {
		return fmt.Errorf("amount is required")
	}
	if r.StartDate != "" {
		if _, err := time.Parse("2006-01-02", r.StartDate); err != nil {
			return fmt.Errorf("startDate must be YYYY-MM-DD")
		}
	}
	return nil
}

// ToInput converts the request into the service input. Amount must have been
// validated as parseable before calling.
func (r *ExpenseRequest) ToInput() (finance.ExpenseInput, error) {
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return finance.ExpenseInput{}, fmt.Errorf("amount must be a decimal number")
	}
	var startDate time.Time
	if r.StartDate != "" {
		startDate, _ = time.Parse("2006-01-02", r.StartDate)
	}
	return finance.ExpenseInput{
		Description:       r.Description,
		Kind:              finance.ExpenseKind(r.Kind),
		Flow:              finance.Flow(r.Flow),
		Category:          r.Category,
		Amount:            amount,
		StartDate:         startDate,
		TotalInstallments: r.TotalInstallments,
		DayOfMonth:        r.DayOfMonth,
	}, nil
}

type UpdateExpenseStatusRequest struct {
	Status string `json:"status"`
}

func (r *UpdateExpenseStatusRequest) Validate() error {
	if !finance.TransactionStatus(r.Status).Valid() {
		return fmt.Errorf("status must be PENDING, COMPLETED or CANCELLED")
	}
	return nil
}

type ExpenseResponse struct {
	ID                 string `json:"id"`
	SeriesID           string `json:"seriesId,omitempty"`
	Description        string `json:"description"`
	Kind               string `json:"kind"`
	Flow               string `json:"flow"`
	Status             string `json:"status"`
	Category           string `json:"category,omitempty"`
	Amount             string `json:"amount"`
	StartDate          string `json:"startDate"`
	TotalInstallments  *int   `json:"totalInstallments,omitempty"`
	CurrentInstallment *int   `json:"currentInstallment,omitempty"`
	DayOfMonth         *int   `json:"dayOfMonth,omitempty"`
	CreatedAt          string `json:"createdAt"`
}

func NewExpenseResponse(e *finance.Expense) ExpenseResponse {
	resp := ExpenseResponse{
		ID:                 e.ID.String(),
		Description:        e.Description,
		Kind:               string(e.Kind),
		Flow:               string(e.Flow),
		Status:             string(e.Status),
		Category:           e.Category,
		Amount:             ledger.FormatAmount(e.Amount),
		StartDate:          e.StartDate.Format("2006-01-02"),
		TotalInstallments:  e.TotalInstallments,
		CurrentInstallment: e.CurrentInstallment,
		DayOfMonth:         e.DayOfMonth,
		CreatedAt:          e.CreatedAt.Format(time.RFC3339),
	}
	if e.SeriesID != nil {
		resp.SeriesID = e.SeriesID.String()
	}
	return resp
}

func NewExpenseListResponse(entries []*finance.Expense) []ExpenseResponse {
	out := make([]ExpenseResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, NewExpenseResponse(e))
	}
	return out
}

type ContractBreakdownResponse struct {
	Installments    string `json:"installments"`
	MonthlyInterest string `json:"monthlyInterest"`
	Fees            string `json:"fees"`
}

type CashFlowSummaryResponse struct {
	TotalIn           string                    `json:"totalIn"`
	TotalOut          string                    `json:"totalOut"`
	Balance           string                    `json:"balance"`
	CumulativeBalance string                    `json:"cumulativeBalance"`
	ManualIn          string                    `json:"manualIn"`
	ContractReceipts  string                    `json:"contractReceipts"`
	ContractDetail    ContractBreakdownResponse `json:"contractDetail"`
	TransactionCount  int                       `json:"transactionCount"`
}

func NewCashFlowSummaryResponse(s *finance.CashFlowSummary) CashFlowSummaryResponse {
	return CashFlowSummaryResponse{
		TotalIn:           ledger.FormatAmount(s.TotalIn),
		TotalOut:          ledger.FormatAmount(s.TotalOut),
		Balance:           ledger.FormatAmount(s.Balance),
		CumulativeBalance: ledger.FormatAmount(s.CumulativeBalance),
		ManualIn:          ledger.FormatAmount(s.ManualIn),
		ContractReceipts:  ledger.FormatAmount(s.ContractReceipts),
		ContractDetail: ContractBreakdownResponse{
			Installments:    ledger.FormatAmount(s.ContractDetail.Installments),
			MonthlyInterest: ledger.FormatAmount(s.ContractDetail.MonthlyInterest),
			Fees:            ledger.FormatAmount(s.ContractDetail.Fees),
		},
		TransactionCount: s.TransactionCount,
	}
}

type PaymentInPeriodResponse struct {
	PaymentResponse
	ContractPeriodicity string `json:"contractPeriodicity"`
	ClientName          string `json:"clientName"`
}

func NewPaymentInPeriodListResponse(payments []contract.PaymentInPeriod) []PaymentInPeriodResponse {
	out := make([]PaymentInPeriodResponse, 0, len(payments))
	for i := range payments {
		out = append(out, PaymentInPeriodResponse{
			PaymentResponse:     NewPaymentResponse(&payments[i].Payment),
			ContractPeriodicity: string(payments[i].ContractPeriodicity),
			ClientName:          payments[i].ClientName,
		})
	}
	return out
}
