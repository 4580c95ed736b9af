package stream

import "fmt"

// InputError is a request problem detected before any stream is opened.
type InputError struct {
	Message string
	Err     error
}

func (e *InputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *InputError) Unwrap() error { return e.Err }

// FaultError reports that the stream itself broke (sink failure or a
// recovered panic) after it was opened.
type FaultError struct {
	State State
	Err   error
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("stream fault while %s: %v", e.State, e.Err)
}

func (e *FaultError) Unwrap() error { return e.Err }
