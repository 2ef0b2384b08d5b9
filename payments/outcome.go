package payments

// Status is the terminal state of one payment check.
type Status int

const (
	// StatusPaid means the purchase was found in the ledger with a
	// successful payment status.
	StatusPaid Status = iota
	// StatusNotPaid means the whole ledger was scanned without a match.
	StatusNotPaid
	// StatusSessionExpired means the session could not be kept valid
	// during the scan. The store has already been signed out; the
	// caller is expected to route the user back to sign-in.
	StatusSessionExpired
	// StatusError means the check could not complete. Outcome.Err
	// carries the reason; the caller may re-check on demand.
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusPaid:
		return "paid"
	case StatusNotPaid:
		return "not paid"
	case StatusSessionExpired:
		return "session expired"
	case StatusError:
		return "error"
	}
	return "unknown"
}

// Outcome is the terminal result of one payment check. Expected failure
// paths are reported here as values, never as a returned error: Err is
// populated only when Status is StatusError.
type Outcome struct {
	Status Status
	Err    error
}
