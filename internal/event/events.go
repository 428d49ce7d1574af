package event

import "time"

// PaymentRecordedEvent is published after a payment and its allocation have
// been committed. Amounts are fixed-2-decimal strings.
type PaymentRecordedEvent struct {
	PaymentID          string    `json:"paymentId"`
	ContractID         string    `json:"contractId"`
	ClientID           string    `json:"clientId"`
	Kind               string    `json:"kind"`
	AmountPaid         string    `json:"amountPaid"`
	AllocatedFee       string    `json:"allocatedFee"`
	AllocatedInterest  string    `json:"allocatedInterest"`
	AllocatedPrincipal string    `json:"allocatedPrincipal"`
	Timestamp          time.Time `json:"timestamp"`
}

// ContractSettledEvent marks a contract reaching zero across all balances.
type ContractSettledEvent struct {
	ContractID string    `json:"contractId"`
	ClientID   string    `json:"clientId"`
	Timestamp  time.Time `json:"timestamp"`
}

// ContractOverdueEvent is published by the accrual job when a contract goes
// past due; downstream consumers dispatch client reminders from it.
type ContractOverdueEvent struct {
	ContractID string    `json:"contractId"`
	ClientID   string    `json:"clientId"`
	DueDate    time.Time `json:"dueDate"`
	DaysLate   int       `json:"daysLate"`
	AccruedFee string    `json:"accruedFee"`
	Timestamp  time.Time `json:"timestamp"`
}
