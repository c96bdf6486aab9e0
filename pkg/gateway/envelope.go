package gateway

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/billgate/alipay-bill-gateway/pkg/types"
)

// writeResult normalizes a query result into the gateway's JSON envelope.
// Upstream failures still answer 200; the error travels in the body.
func writeResult(w http.ResponseWriter, res types.Result) {
	switch v := res.(type) {
	case types.Balance:
		writeJSON(w, http.StatusOK, types.BalanceEnvelope{
			Success:         true,
			AvailableAmount: v.AvailableAmount,
			FreezeAmount:    v.FreezeAmount,
			TotalAmount:     v.TotalAmount,
		})
	case types.AccountLog:
		// opaque pass-through of the upstream body
		writeRaw(w, http.StatusOK, []byte(v.Body))
	case types.Failure:
		writeJSON(w, http.StatusOK, types.FailureEnvelope{
			Success:      false,
			ErrorCode:    v.Code,
			ErrorMsg:     v.Msg,
			SubErrorCode: v.SubCode,
			SubErrorMsg:  v.SubMsg,
		})
	default:
		writeJSON(w, http.StatusInternalServerError, types.ErrorEnvelope{Error: "unknown result type"})
	}
}

// writeJSON marshals v and writes it with the gateway's fixed headers.
// Marshalling handles escaping, so arbitrary upstream messages and secrets
// cannot break the JSON.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"error":"internal error"}`)
	}
	writeRaw(w, status, body)
}

// writeRaw writes body with an exact Content-Length over its UTF-8 bytes
func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
