package murl

import (
	"errors"
	"fmt"
)

// Status is the numeric result contract shared with non-Go callers.
type Status int

const (
	StatusOK          Status = 0
	StatusTimeout     Status = -1
	StatusOverflow    Status = -2
	StatusInvalidURL  Status = -3
	StatusTooManyURLs Status = -4
	StatusMulti       Status = -5
	StatusNull        Status = -6
)

var statusText = map[Status]string{
	StatusOK:          "ok",
	StatusTimeout:     "timeout",
	StatusOverflow:    "overflow",
	StatusInvalidURL:  "invalid url",
	StatusTooManyURLs: "too many urls",
	StatusMulti:       "timeout and overflow",
	StatusNull:        "null context",
}

func (s Status) String() string {
	if t, ok := statusText[s]; ok {
		return t
	}
	return fmt.Sprintf("status(%d)", int(s))
}

var (
	// ErrTimeout is returned when at least one transfer timed out and none
	// overflowed its buffer.
	ErrTimeout = errors.New("murl: transfer timed out")
	// ErrOverflow is returned when at least one response did not fit its
	// buffer and none timed out.
	ErrOverflow = errors.New("murl: response exceeds buffer capacity")
	// ErrMulti is returned when a pass saw both timeouts and overflows.
	ErrMulti = errors.New("murl: transfers timed out and overflowed")
	// ErrInvalidURL is returned when no occupied slot holds the URL.
	ErrInvalidURL = errors.New("murl: url not registered")
	// ErrTooManyURLs is returned by Register when every slot is occupied.
	ErrTooManyURLs = errors.New("murl: too many urls")
	// ErrNullContext is returned by every method of a nil or destroyed Context.
	ErrNullContext = errors.New("murl: null context")
	// ErrBufferTooSmall is returned for buffers that cannot hold the length header.
	ErrBufferTooSmall = errors.New("murl: buffer smaller than length header")
	// ErrInvalidCapacity is returned by NewContext for a non-positive capacity.
	ErrInvalidCapacity = errors.New("murl: capacity must be positive")
)

// Code maps err onto the numeric status contract. Errors that leave no
// usable context behind, such as a failed NewContext, map to StatusNull.
func Code(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, ErrMulti):
		return StatusMulti
	case errors.Is(err, ErrTimeout):
		return StatusTimeout
	case errors.Is(err, ErrOverflow), errors.Is(err, ErrBufferTooSmall):
		return StatusOverflow
	case errors.Is(err, ErrInvalidURL):
		return StatusInvalidURL
	case errors.Is(err, ErrTooManyURLs):
		return StatusTooManyURLs
	default:
		return StatusNull
	}
}

// SlotStatus is the state of one registered URL.
type SlotStatus int

const (
	SlotCompletedOK SlotStatus = 0
	SlotEmpty       SlotStatus = 1
	SlotPending     SlotStatus = 2
	SlotTimedOut    SlotStatus = -1
	SlotOverflowed  SlotStatus = -2
)

func (s SlotStatus) String() string {
	switch s {
	case SlotCompletedOK:
		return "completed"
	case SlotEmpty:
		return "empty"
	case SlotPending:
		return "pending"
	case SlotTimedOut:
		return "timed out"
	case SlotOverflowed:
		return "overflowed"
	}
	return fmt.Sprintf("slot(%d)", int(s))
}

// aggregate folds the terminal states seen during one pass into an error.
func aggregate(timedOut, overflowed bool) error {
	switch {
	case timedOut && overflowed:
		return ErrMulti
	case timedOut:
		return ErrTimeout
	case overflowed:
		return ErrOverflow
	}
	return nil
}
