package types

// Result is the outcome of a single upstream bill query. Exactly one of the
// concrete types below is returned per call; failures travel as values and
// never unwind past the facade that produced them.
type Result interface {
	// Success reports whether the upstream accepted and answered the query
	Success() bool
}

// Balance holds the amounts reported by a successful balance query.
// Amounts are kept as the upstream's decimal strings, never re-parsed.
type Balance struct {
	AvailableAmount string
	FreezeAmount    string
	TotalAmount     string
}

func (Balance) Success() bool { return true }

// AccountLog carries the raw upstream response body for a successful account
// log query. The body is opaque to the gateway: it is either the platform's
// JSON as received, or the literal string "null" when the query succeeded but
// returned no detail list.
type AccountLog struct {
	Body string
}

func (AccountLog) Success() bool { return true }

// Failure captures an upstream error envelope verbatim, or a transport/signing
// error mapped to Code "EXCEPTION" with the error text as Msg.
type Failure struct {
	Code    string
	Msg     string
	SubCode string
	SubMsg  string
}

func (Failure) Success() bool { return false }

// FailureCodeException marks failures produced by transport or signing errors
// rather than by an upstream error envelope
const FailureCodeException = "EXCEPTION"
