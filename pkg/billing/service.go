// Package billing is the upstream client facade: it turns local queries into
// Alipay OpenAPI calls and maps every outcome, including transport errors,
// into a Result value. Nothing propagates past this boundary.
package billing

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/billgate/alipay-bill-gateway/pkg/alipay"
	"github.com/billgate/alipay-bill-gateway/pkg/types"
)

const (
	methodBalanceQuery    = "alipay.data.bill.balance.query"
	methodAccountLogQuery = "alipay.data.bill.accountlog.query"
)

const timeLayout = "2006-01-02 15:04:05"

// accountLogLookback is the fixed query window ending at the current instant
const accountLogLookback = 7 * 24 * time.Hour

// Querier is the read-only surface the HTTP layer depends on, substitutable
// by a test double
type Querier interface {
	QueryBalance(ctx context.Context) types.Result
	QueryAccountLog(ctx context.Context) types.Result
}

// ServiceConfig holds the dependencies for the billing service
type ServiceConfig struct {
	Executor   alipay.Executor
	BillUserID string
	Logger     *zap.Logger
}

// Service queries the Alipay billing APIs on behalf of the gateway. Created
// once at startup; stateless thereafter.
type Service struct {
	executor   alipay.Executor
	billUserID string
	logger     *zap.Logger
	now        func() time.Time
}

var _ Querier = (*Service)(nil)

// NewService creates a billing service with dependency injection
func NewService(cfg *ServiceConfig) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.Executor == nil {
		return nil, errors.New("executor is required")
	}
	if cfg.BillUserID == "" {
		return nil, errors.New("bill user id is required")
	}
	if cfg.Logger == nil {
		return nil, errors.New("logger is required")
	}
	return &Service{
		executor:   cfg.Executor,
		billUserID: cfg.BillUserID,
		logger:     cfg.Logger,
		now:        time.Now,
	}, nil
}

// QueryBalance performs one balance query. Upstream failure envelopes pass
// through verbatim; transport and signing errors map to an EXCEPTION failure.
func (s *Service) QueryBalance(ctx context.Context) types.Result {
	biz, err := json.Marshal(struct {
		BillUserID string `json:"bill_user_id"`
		BizType    string `json:"biz_type"`
	}{
		BillUserID: s.billUserID,
		BizType:    "trade",
	})
	if err != nil {
		return s.exception("marshal balance request", err)
	}

	resp, err := s.executor.Execute(ctx, methodBalanceQuery, string(biz))
	if err != nil {
		return s.exception("balance query", err)
	}
	if !resp.IsSuccess() {
		s.logger.Sugar().Warnw("Balance query rejected", "code", resp.Code, "msg", resp.Msg, "sub_code", resp.SubCode)
		return types.Failure{Code: resp.Code, Msg: resp.Msg, SubCode: resp.SubCode, SubMsg: resp.SubMsg}
	}

	var amounts struct {
		AvailableAmount string `json:"available_amount"`
		FreezeAmount    string `json:"freeze_amount"`
		TotalAmount     string `json:"total_amount"`
	}
	if err := json.Unmarshal(resp.Node, &amounts); err != nil {
		return s.exception("decode balance response", err)
	}
	return types.Balance{
		AvailableAmount: amounts.AvailableAmount,
		FreezeAmount:    amounts.FreezeAmount,
		TotalAmount:     amounts.TotalAmount,
	}
}

// QueryAccountLog queries the last 7 days of account transaction records.
// On success the raw upstream body passes through untouched; a success
// without a detail list yields the literal string "null".
func (s *Service) QueryAccountLog(ctx context.Context) types.Result {
	end := s.now()
	start := end.Add(-accountLogLookback)

	biz, err := json.Marshal(struct {
		StartTime string `json:"start_time"`
		EndTime   string `json:"end_time"`
		PageNo    string `json:"page_no"`
		PageSize  string `json:"page_size"`
	}{
		StartTime: start.Format(timeLayout),
		EndTime:   end.Format(timeLayout),
		PageNo:    "1",
		PageSize:  "20",
	})
	if err != nil {
		return s.exception("marshal account log request", err)
	}

	resp, err := s.executor.Execute(ctx, methodAccountLogQuery, string(biz))
	if err != nil {
		return s.exception("account log query", err)
	}
	if !resp.IsSuccess() {
		s.logger.Sugar().Warnw("Account log query rejected", "code", resp.Code, "msg", resp.Msg, "sub_code", resp.SubCode)
		return types.Failure{Code: resp.Code, Msg: resp.Msg, SubCode: resp.SubCode, SubMsg: resp.SubMsg}
	}

	if !resp.HasField("detail_list") {
		return types.AccountLog{Body: "null"}
	}
	return types.AccountLog{Body: resp.Body}
}

func (s *Service) exception(op string, err error) types.Failure {
	s.logger.Sugar().Warnw("Upstream call failed", "op", op, "error", err)
	return types.Failure{Code: types.FailureCodeException, Msg: err.Error()}
}
