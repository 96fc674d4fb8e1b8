package types

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidRequest = errors.New("invalid request")
	ErrConfig         = errors.New("payment provider is not configured")
	ErrSignature      = errors.New("webhook signature verification failed")
	ErrWrite          = errors.New("store write failed")
	ErrAuth           = errors.New("caller lacks the required role")
	ErrRefundFailed   = errors.New("refund was rejected by the payment provider")
)

// SeatConflictError carries the seats that are already taken so the client
// can tell the user exactly which ones to release.
type SeatConflictError struct {
	SeatIDs      []uuid.UUID
	SeatDisplays []string
}

func (e *SeatConflictError) Error() string {
	if len(e.SeatDisplays) > 0 {
		return fmt.Sprintf("seats no longer available: %s", strings.Join(e.SeatDisplays, ", "))
	}
	return fmt.Sprintf("%d of the requested seats are no longer available", len(e.SeatIDs))
}

func IsSeatConflict(err error) (*SeatConflictError, bool) {
	var conflict *SeatConflictError
	ok := errors.As(err, &conflict)
	return conflict, ok
}
