package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

type DonationRequest struct {
	DonorName   string `json:"donorName"`
	AmountCents int64  `json:"amountCents"`
	Note        string `json:"note"`
}

func (req *DonationRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.DonorName, validation.Required, validation.Length(1, 100)),
		validation.Field(&req.AmountCents, validation.Required, validation.Min(int64(1))),
		validation.Field(&req.Note, validation.Length(0, 500)),
	)
}

type CheckoutRequest struct {
	AmountCents int64  `json:"amountCents"`
	DonorName   string `json:"donorName"`
}

func (req *CheckoutRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.AmountCents, validation.Required, validation.Min(int64(1))),
		validation.Field(&req.DonorName, validation.Length(0, 100)),
	)
}
