package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

type RSVPRequest struct {
	EventID      string `json:"eventId"`
	Action       string `json:"action"`
	AttendeeName string `json:"attendeeName"`
}

func (req *RSVPRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.EventID, validation.Required),
		validation.Field(&req.Action, validation.Required, validation.In("add", "remove")),
		validation.Field(&req.AttendeeName, validation.Required, validation.Length(1, 100)),
	)
}
