package dto

import (
	"fmt"
	"strings"
	"time"

	"lending-engine/internal/domain/contract"
	"lending-engine/internal/domain/ledger"
)

type CreateContractRequest struct {
	ClientID            string `json:"clientId"`
	Principal           string `json:"principal"`
	InterestRatePercent string `json:"interestRatePercent"`
	Periodicity         string `json:"periodicity"`
	StartDate           string `json:"startDate,omitempty"`
	Note                string `json:"note,omitempty"`
}

func (r *CreateContractRequest) Validate() error {
	if strings.TrimSpace(r.ClientID) == "" {
		return fmt.Errorf("clientId is required")
	}
	if strings.TrimSpace(r.Principal) == "" {
		return fmt.Errorf("principal is required")
	}
	if strings.TrimSpace(r.InterestRatePercent) == "" {
		return fmt.Errorf("interestRatePercent is required")
	}
	if !ledger.Periodicity(r.Periodicity).Valid() {
		return fmt.Errorf("periodicity must be DAILY, WEEKLY or MONTHLY")
	}
	if r.StartDate != "" {
		if _, err := time.Parse("2006-01-02", r.StartDate); err != nil {
			return fmt.Errorf("startDate must be YYYY-MM-DD")
		}
	}
	return nil
}

type RecordPaymentRequest struct {
	Amount string `json:"amount"`
	Kind   string `json:"kind,omitempty"`
	Note   string `json:"note,omitempty"`
}

func (r *RecordPaymentRequest) Validate() error {
	if strings.TrimSpace(r.Amount) == "" {
		return fmt.Errorf("amount is required")
	}
	switch r.Kind {
	case "", string(contract.PaymentKindInterest), string(contract.PaymentKindPrincipal), string(contract.PaymentKindMixed):
		return nil
	}
	return fmt.Errorf("kind must be INTEREST, PRINCIPAL or MIXED")
}

type PayInstallmentsRequest struct {
	InstallmentIDs []string `json:"installmentIds"`
}

func (r *PayInstallmentsRequest) Validate() error {
	if len(r.InstallmentIDs) == 0 {
		return fmt.Errorf("installmentIds must not be empty")
	}
	return nil
}

type InstallmentResponse struct {
	ID             string `json:"id"`
	SequenceNumber int    `json:"sequenceNumber"`
	Amount         string `json:"amount"`
	Fee            string `json:"fee"`
	DueDate        string `json:"dueDate"`
	Status         string `json:"status"`
	PaidAt         string `json:"paidAt,omitempty"`
}

type ContractResponse struct {
	ID                  string                `json:"id"`
	ClientID            string                `json:"clientId"`
	Principal           string                `json:"principal"`
	OpenPrincipal       string                `json:"openPrincipal"`
	InterestRatePercent string                `json:"interestRatePercent"`
	AccruedFee          string                `json:"accruedFee"`
	InterestDue         string                `json:"interestDue"`
	Periodicity         string                `json:"periodicity"`
	DueDate             string                `json:"dueDate"`
	Status              string                `json:"status"`
	Note                string                `json:"note,omitempty"`
	CreatedAt           string                `json:"createdAt"`
	Installments        []InstallmentResponse `json:"installments,omitempty"`
}

func NewContractResponse(c *contract.Contract) ContractResponse {
	resp := ContractResponse{
		ID:                  c.ID.String(),
		ClientID:            c.ClientID.String(),
		Principal:           ledger.FormatAmount(c.Principal),
		OpenPrincipal:       ledger.FormatAmount(c.OpenPrincipal),
		InterestRatePercent: c.InterestRatePercent.String(),
		AccruedFee:          ledger.FormatAmount(c.AccruedFee),
		InterestDue:         ledger.FormatAmount(c.InterestDue),
		Periodicity:         string(c.Periodicity),
		DueDate:             c.DueDate.Format("2006-01-02"),
		Status:              string(c.Status),
		Note:                c.Note,
		CreatedAt:           c.CreatedAt.Format(time.RFC3339),
	}
	for _, inst := range c.Installments {
		ir := InstallmentResponse{
			ID:             inst.ID.String(),
			SequenceNumber: inst.SequenceNumber,
			Amount:         ledger.FormatAmount(inst.Amount),
			Fee:            ledger.FormatAmount(inst.Fee),
			DueDate:        inst.DueDate.Format("2006-01-02"),
			Status:         string(inst.Status),
		}
		if inst.PaidAt != nil {
			ir.PaidAt = inst.PaidAt.Format(time.RFC3339)
		}
		resp.Installments = append(resp.Installments, ir)
	}
	return resp
}

func NewContractListResponse(contracts []*contract.Contract) []ContractResponse {
	out := make([]ContractResponse, 0, len(contracts))
	for _, c := range contracts {
		out = append(out, NewContractResponse(c))
	}
	return out
}

type ContractSummaryResponse struct {
	ContractID    string `json:"contractId"`
	Status        string `json:"status"`
	OpenPrincipal string `json:"openPrincipal"`
	PendingFee    string `json:"pendingFee"`
	CycleInterest string `json:"cycleInterest"`
	DaysLate      int    `json:"daysLate"`
	LateFee       string `json:"lateFee"`
	CycleTotal    string `json:"cycleTotal"`
	TotalWithLate string `json:"totalWithLateFee"`
	PayoffTotal   string `json:"payoffTotal"`
	DueDate       string `json:"dueDate"`
}

func NewContractSummaryResponse(s *contract.ContractSummary) ContractSummaryResponse {
	return ContractSummaryResponse{
		ContractID:    s.ContractID.String(),
		Status:        string(s.Status),
		OpenPrincipal: ledger.FormatAmount(s.OpenPrincipal),
		PendingFee:    ledger.FormatAmount(s.PendingFee),
		CycleInterest: ledger.FormatAmount(s.CycleInterest),
		DaysLate:      s.DaysLate,
		LateFee:       ledger.FormatAmount(s.LateFee),
		CycleTotal:    ledger.FormatAmount(s.CycleTotal),
		TotalWithLate: ledger.FormatAmount(s.TotalWithLate),
		PayoffTotal:   ledger.FormatAmount(s.PayoffTotal),
		DueDate:       s.DueDate.Format("2006-01-02"),
	}
}

type PaymentResponse struct {
	ID                 string `json:"id"`
	ContractID         string `json:"contractId"`
	Kind               string `json:"kind"`
	AmountPaid         string `json:"amountPaid"`
	AllocatedFee       string `json:"allocatedFee"`
	AllocatedInterest  string `json:"allocatedInterest"`
	AllocatedPrincipal string `json:"allocatedPrincipal"`
	Note               string `json:"note,omitempty"`
	CreatedAt          string `json:"createdAt"`
}

func NewPaymentResponse(p *contract.Payment) PaymentResponse {
	return PaymentResponse{
		ID:                 p.ID.String(),
		ContractID:         p.ContractID.String(),
		Kind:               string(p.Kind),
		AmountPaid:         ledger.FormatAmount(p.AmountPaid),
		AllocatedFee:       ledger.FormatAmount(p.AllocatedFee),
		AllocatedInterest:  ledger.FormatAmount(p.AllocatedInterest),
		AllocatedPrincipal: ledger.FormatAmount(p.AllocatedPrincipal),
		Note:               p.Note,
		CreatedAt:          p.CreatedAt.Format(time.RFC3339),
	}
}

type PaymentWithBalanceResponse struct {
	PaymentResponse
	BalanceBefore string `json:"balanceBefore"`
	BalanceAfter  string `json:"balanceAfter"`
}

func NewPaymentHistoryResponse(history []contract.PaymentWithBalance) []PaymentWithBalanceResponse {
	out := make([]PaymentWithBalanceResponse, 0, len(history))
	for i := range history {
		out = append(out, PaymentWithBalanceResponse{
			PaymentResponse: NewPaymentResponse(&history[i].Payment),
			BalanceBefore:   ledger.FormatAmount(history[i].BalanceBefore),
			BalanceAfter:    ledger.FormatAmount(history[i].BalanceAfter),
		})
	}
	return out
}

type PeriodicityBucketsResponse struct {
	Daily   string `json:"daily"`
	Weekly  string `json:"weekly"`
	Monthly string `json:"monthly"`
}

func newBucketsResponse(b ledger.PeriodicityBuckets) PeriodicityBucketsResponse {
	return PeriodicityBucketsResponse{
		Daily:   ledger.FormatAmount(b.Daily),
		Weekly:  ledger.FormatAmount(b.Weekly),
		Monthly: ledger.FormatAmount(b.Monthly),
	}
}

type FinanceSummaryResponse struct {
	TotalLent                 string                     `json:"totalLent"`
	LentByPeriodicity         PeriodicityBucketsResponse `json:"lentByPeriodicity"`
	InterestAndFeesReceivable string                     `json:"interestAndFeesReceivable"`
	InterestReceivable        string                     `json:"interestReceivable"`
	FeesReceivable            string                     `json:"feesReceivable"`
	TotalExpected             string                     `json:"totalExpected"`
	ExpectedInstallments      string                     `json:"expectedInstallments"`
	ExpectedMonthly           string                     `json:"expectedMonthly"`
	TotalReceived             string                     `json:"totalReceived"`
	ReceivedViaInstallments   string                     `json:"receivedViaInstallments"`
	ReceivedViaMonthly        string                     `json:"receivedViaMonthly"`
	ReceivedViaFees           string                     `json:"receivedViaFees"`
}

func NewFinanceSummaryResponse(s *ledger.Summary) FinanceSummaryResponse {
	return FinanceSummaryResponse{
		TotalLent:                 ledger.FormatAmount(s.TotalLent),
		LentByPeriodicity:         newBucketsResponse(s.LentByPeriodicity),
		InterestAndFeesReceivable: ledger.FormatAmount(s.InterestAndFeesReceivable),
		InterestReceivable:        ledger.FormatAmount(s.InterestReceivable),
		FeesReceivable:            ledger.FormatAmount(s.FeesReceivable),
		TotalExpected:             ledger.FormatAmount(s.TotalExpected),
		ExpectedInstallments:      ledger.FormatAmount(s.ExpectedInstallments),
		ExpectedMonthly:           ledger.FormatAmount(s.ExpectedMonthly),
		TotalReceived:             ledger.FormatAmount(s.TotalReceived),
		ReceivedViaInstallments:   ledger.FormatAmount(s.ReceivedViaInstallments),
		ReceivedViaMonthly:        ledger.FormatAmount(s.ReceivedViaMonthly),
		ReceivedViaFees:           ledger.FormatAmount(s.ReceivedViaFees),
	}
}

type RecentContractResponse struct {
	ContractID string `json:"contractId"`
	ClientName string `json:"clientName"`
	Principal  string `json:"principal"`
	DueDate    string `json:"dueDate"`
	Status     string `json:"status"`
}

type DashboardSummaryResponse struct {
	TotalToReceive          string                   `json:"totalToReceive"`
	ActiveContracts         int                      `json:"activeContracts"`
	MonthlyInterestForecast string                   `json:"monthlyInterestForecast"`
	TotalAmountToReceive    string                   `json:"totalAmountToReceive"`
	RecentContracts         []RecentContractResponse `json:"recentContracts"`
}

func NewDashboardSummaryResponse(d *contract.DashboardSummary) DashboardSummaryResponse {
	resp := DashboardSummaryResponse{
		TotalToReceive:          ledger.FormatAmount(d.TotalToReceive),
		ActiveContracts:         d.ActiveContracts,
		MonthlyInterestForecast: ledger.FormatAmount(d.MonthlyInterestForecast),
		TotalAmountToReceive:    ledger.FormatAmount(d.TotalAmountToReceive),
		RecentContracts:         make([]RecentContractResponse, 0, len(d.RecentContracts)),
	}
	for _, rc := range d.RecentContracts {
		resp.RecentContracts = append(resp.RecentContracts, RecentContractResponse{
			ContractID: rc.ContractID.String(),
			ClientName: rc.ClientName,
			Principal:  ledger.FormatAmount(rc.Principal),
			DueDate:    rc.DueDate.Format("2006-01-02"),
			Status:     string(rc.Status),
		})
	}
	return resp
}
