package domain

import "time"

// Donation is one entry in the community donation ledger.
type Donation struct {
	ID          uint      `json:"id"`
	DonorName   string    `json:"donorName"`
	AmountCents int64     `json:"amountCents"`
	Note        string    `json:"note,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}
