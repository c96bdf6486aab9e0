package types

// BalanceEnvelope is the JSON body returned for a successful balance query
type BalanceEnvelope struct {
	Success         bool   `json:"success"`
	AvailableAmount string `json:"availableAmount"`
	FreezeAmount    string `json:"freezeAmount"`
	TotalAmount     string `json:"totalAmount"`
}

// FailureEnvelope is the JSON body returned for any upstream failure. The
// HTTP status stays 200; Success is false and the upstream's own codes are
// passed through verbatim. Sub fields are omitted for transport errors,
// which carry only an EXCEPTION code and the error text.
type FailureEnvelope struct {
	Success      bool   `json:"success"`
	ErrorCode    string `json:"errorCode"`
	ErrorMsg     string `json:"errorMsg"`
	SubErrorCode string `json:"subErrorCode,omitempty"`
	SubErrorMsg  string `json:"subErrorMsg,omitempty"`
}

// SignEnvelope is the JSON body returned by a successful /sign request
type SignEnvelope struct {
	Timestamp int64  `json:"timestamp"`
	Sign      string `json:"sign"`
}

// ErrorEnvelope is the JSON body for gateway-level validation and internal
// errors, the only responses that use a non-200 status
type ErrorEnvelope struct {
	Error string `json:"error"`
}
