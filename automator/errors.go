package automator

import "errors"

var (
	// ErrInvalidAddress rejects the zero identity or a nil dependency.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrInvalidAmount rejects zero or negative amounts.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidInterval rejects intervals below MinInterval.
	ErrInvalidInterval = errors.New("interval below minimum")

	// ErrNotAuthorized rejects privileged calls from anyone but the owner.
	ErrNotAuthorized = errors.New("caller is not the owner")

	// ErrTooEarly rejects a swap attempted before the interval has
	// elapsed since the last execution.
	ErrTooEarly = errors.New("interval has not elapsed")

	// ErrInsufficientBalance rejects an operation the automator cannot
	// cover from its own custody.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrTransferFailed wraps a failed native-currency send.
	ErrTransferFailed = errors.New("native transfer failed")

	// ErrReentrantCall rejects a mutating call made while another
	// mutating call is still in flight.
	ErrReentrantCall = errors.New("reentrant call")
)
