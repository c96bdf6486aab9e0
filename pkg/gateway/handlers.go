package gateway

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/billgate/alipay-bill-gateway/pkg/billing"
	"github.com/billgate/alipay-bill-gateway/pkg/signer"
	"github.com/billgate/alipay-bill-gateway/pkg/types"
)

type handlers struct {
	billing billing.Querier
	signer  *signer.Signer
	logger  *zap.Logger
}

// handleBalance serves /balance: one upstream balance query, normalized.
// The facade never lets an error escape, so the status is always 200.
func (h *handlers) handleBalance(w http.ResponseWriter, r *http.Request) {
	writeResult(w, h.billing.QueryBalance(r.Context()))
}

// handleAccountLog serves /accountlog: the last 7 days of records, passed
// through raw on success
func (h *handlers) handleAccountLog(w http.ResponseWriter, r *http.Request) {
	writeResult(w, h.billing.QueryAccountLog(r.Context()))
}

// handleSign serves POST /sign with a form-encoded secret parameter
func (h *handlers) handleSign(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Sugar().Errorw("Sign handler panicked", "panic", rec)
			writeJSON(w, http.StatusInternalServerError, types.ErrorEnvelope{Error: fmt.Sprintf("signature generation failed: %v", rec)})
		}
	}()

	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, types.ErrorEnvelope{Error: "only POST is supported"})
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, types.ErrorEnvelope{Error: "signature generation failed: " + err.Error()})
		return
	}

	secret := parseFormData(string(body))["secret"]
	if secret == "" {
		writeJSON(w, http.StatusBadRequest, types.ErrorEnvelope{Error: "missing secret parameter"})
		return
	}

	sig, err := h.signer.Sign(secret)
	if err != nil {
		h.logger.Sugar().Errorw("Signature generation failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, types.ErrorEnvelope{Error: "signature generation failed: " + err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, types.SignEnvelope{Timestamp: sig.Timestamp, Sign: sig.Sign})
}

// parseFormData decodes a form-encoded body into a map, silently dropping
// pairs that are malformed or fail URL decoding
func parseFormData(formData string) map[string]string {
	params := make(map[string]string)
	if formData == "" {
		return params
	}
	for _, pair := range strings.Split(formData, "&") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			continue
		}
		key, err := url.QueryUnescape(kv[0])
		if err != nil {
			continue
		}
		value, err := url.QueryUnescape(kv[1])
		if err != nil {
			continue
		}
		params[key] = value
	}
	return params
}
