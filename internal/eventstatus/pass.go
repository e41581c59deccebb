package eventstatus

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/skip2/go-qrcode"

	"campusevents/internal/model"
)

// ErrNoPass is returned when the View does not allow a check-in pass.
var ErrNoPass = errors.New("check-in pass is only available for upcoming events you are registered for")

// CheckInPass is the payload a student shows at the door.
type CheckInPass struct {
	Type      string   `json:"type"`
	EventID   model.ID `json:"eventId"`
	Timestamp int64    `json:"timestamp"` // unix milliseconds
}

// PassFor issues a pass for v at now.
func PassFor(v View, now time.Time) (CheckInPass, error) {
	if !v.ShowCheckInPass() {
		return CheckInPass{}, ErrNoPass
	}
	return CheckInPass{Type: "attendance", EventID: v.Event.ID, Timestamp: now.UnixMilli()}, nil
}

// Payload is the JSON string encoded into the QR code.
func (p CheckInPass) Payload() (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// PNG renders the pass as a square QR code of size pixels.
func (p CheckInPass) PNG(size int) ([]byte, error) {
	payload, err := p.Payload()
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(payload, qrcode.Medium, size)
}
