package executor

import "fmt"

// QuoteError means the aggregator was unreachable or returned no route. It is
// terminal for the notification: quotes go stale, so there is no retry.
type QuoteError struct {
	Err error
}

func (e *QuoteError) Error() string {
	return fmt.Sprintf("quote failed: %v", e.Err)
}

func (e *QuoteError) Unwrap() error { return e.Err }

// BroadcastError means building, signing or sending the funding transaction
// failed. Also terminal for the notification.
type BroadcastError struct {
	Err error
}

func (e *BroadcastError) Error() string {
	return fmt.Sprintf("broadcast failed: %v", e.Err)
}

func (e *BroadcastError) Unwrap() error { return e.Err }
