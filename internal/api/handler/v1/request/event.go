package request

import (
	"encoding/json"
	"errors"
	"fmt"
)

var errMissingAttendanceLimit = errors.New("attendanceLimit is required")

// UpdateEventRequest carries the one event field an admin may change outside
// calendar sync. Any other field in the body is rejected, not ignored.
type UpdateEventRequest struct {
	AttendanceLimit *int `json:"attendanceLimit"`
}

func ParseUpdateEventRequest(body []byte) (*UpdateEventRequest, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}

	for name := range fields {
		if name != "attendanceLimit" {
			return nil, fmt.Errorf("unexpected field %q", name)
		}
	}
	if _, ok := fields["attendanceLimit"]; !ok {
		return nil, errMissingAttendanceLimit
	}

	var req UpdateEventRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, err
	}

	return &req, nil
}
