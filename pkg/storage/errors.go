package storage

import (
	"errors"
	"fmt"
)

// ErrSink matches every error returned by a RecordSink.
var ErrSink = errors.New("record sink failure")

// SinkError reports a failed storage operation.
type SinkError struct {
	Op  string
	Err error
}

func (e *SinkError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *SinkError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is makes errors.Is(err, ErrSink) hold for any SinkError.
func (e *SinkError) Is(target error) bool {
	return target == ErrSink
}

func sinkError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &SinkError{Op: op, Err: err}
}
