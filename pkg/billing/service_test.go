package billing

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/billgate/alipay-bill-gateway/pkg/alipay"
	"github.com/billgate/alipay-bill-gateway/pkg/types"
)

// stubExecutor records the last request and plays back a canned outcome
type stubExecutor struct {
	method     string
	bizContent string
	resp       *alipay.Response
	err        error
}

func (s *stubExecutor) Execute(_ context.Context, method, bizContent string) (*alipay.Response, error) {
	s.method = method
	s.bizContent = bizContent
	return s.resp, s.err
}

func newTestService(t *testing.T, exec alipay.Executor) *Service {
	t.Helper()
	svc, err := NewService(&ServiceConfig{
		Executor:   exec,
		BillUserID: "2088123456789012",
		Logger:     zap.NewNop(),
	})
	require.NoError(t, err)
	return svc
}

func successResponse(node string) *alipay.Response {
	resp := &alipay.Response{Body: node, Node: json.RawMessage(node)}
	_ = json.Unmarshal([]byte(node), resp)
	return resp
}

func TestNewService(t *testing.T) {
	_, err := NewService(nil)
	require.Error(t, err)

	_, err = NewService(&ServiceConfig{BillUserID: "2088", Logger: zap.NewNop()})
	require.Error(t, err)

	_, err = NewService(&ServiceConfig{Executor: &stubExecutor{}, Logger: zap.NewNop()})
	require.Error(t, err)
}

func TestQueryBalance(t *testing.T) {
	t.Run("Success mapping", func(t *testing.T) {
		exec := &stubExecutor{resp: successResponse(`{"code":"10000","msg":"Success","available_amount":"1024.50","freeze_amount":"10.00","total_amount":"1034.50"}`)}
		svc := newTestService(t, exec)

		res := svc.QueryBalance(context.Background())
		require.True(t, res.Success())
		balance, ok := res.(types.Balance)
		require.True(t, ok)
		require.Equal(t, "1024.50", balance.AvailableAmount)
		require.Equal(t, "10.00", balance.FreezeAmount)
		require.Equal(t, "1034.50", balance.TotalAmount)

		require.Equal(t, "alipay.data.bill.balance.query", exec.method)
		require.JSONEq(t, `{"bill_user_id":"2088123456789012","biz_type":"trade"}`, exec.bizContent)
	})

	t.Run("Upstream failure passes through verbatim", func(t *testing.T) {
		exec := &stubExecutor{resp: successResponse(`{"code":"40004","msg":"Insufficient Permissions","sub_code":"isv.insufficient-isv-permissions","sub_msg":"no permission"}`)}
		svc := newTestService(t, exec)

		res := svc.QueryBalance(context.Background())
		require.False(t, res.Success())
		failure, ok := res.(types.Failure)
		require.True(t, ok)
		require.Equal(t, "40004", failure.Code)
		require.Equal(t, "Insufficient Permissions", failure.Msg)
		require.Equal(t, "isv.insufficient-isv-permissions", failure.SubCode)
	})

	t.Run("Transport error maps to EXCEPTION", func(t *testing.T) {
		exec := &stubExecutor{err: errors.New("dial tcp: connection refused")}
		svc := newTestService(t, exec)

		res := svc.QueryBalance(context.Background())
		failure, ok := res.(types.Failure)
		require.True(t, ok)
		require.Equal(t, types.FailureCodeException, failure.Code)
		require.Contains(t, failure.Msg, "connection refused")
	})
}

func TestQueryAccountLog(t *testing.T) {
	t.Run("Raw body passes through when detail list present", func(t *testing.T) {
		const body = `{"alipay_data_bill_accountlog_query_response":{"code":"10000","msg":"Success","detail_list":[{"trans_amount":"5.00"}],"total_size":"1"},"sign":"x"}`
		resp := successResponse(`{"code":"10000","msg":"Success","detail_list":[{"trans_amount":"5.00"}],"total_size":"1"}`)
		resp.Body = body
		svc := newTestService(t, &stubExecutor{resp: resp})

		res := svc.QueryAccountLog(context.Background())
		log, ok := res.(types.AccountLog)
		require.True(t, ok)
		require.Equal(t, body, log.Body)
	})

	t.Run("Missing detail list yields null", func(t *testing.T) {
		svc := newTestService(t, &stubExecutor{resp: successResponse(`{"code":"10000","msg":"Success","total_size":"0"}`)})

		res := svc.QueryAccountLog(context.Background())
		log, ok := res.(types.AccountLog)
		require.True(t, ok)
		require.Equal(t, "null", log.Body)
	})

	t.Run("Requests a 7 day window ending now", func(t *testing.T) {
		exec := &stubExecutor{resp: successResponse(`{"code":"10000","msg":"Success"}`)}
		svc := newTestService(t, exec)
		fixed := time.Date(2026, 8, 28, 12, 30, 45, 0, time.UTC)
		svc.now = func() time.Time { return fixed }

		svc.QueryAccountLog(context.Background())
		require.Equal(t, "alipay.data.bill.accountlog.query", exec.method)

		var req struct {
			StartTime string `json:"start_time"`
			EndTime   string `json:"end_time"`
			PageNo    string `json:"page_no"`
			PageSize  string `json:"page_size"`
		}
		require.NoError(t, json.Unmarshal([]byte(exec.bizContent), &req))
		require.Equal(t, "2026-08-28 12:30:45", req.EndTime)
		require.Equal(t, "2026-08-21 12:30:45", req.StartTime)
		require.Equal(t, "1", req.PageNo)
		require.Equal(t, "20", req.PageSize)
	})

	t.Run("Upstream failure", func(t *testing.T) {
		svc := newTestService(t, &stubExecutor{resp: successResponse(`{"code":"40004","msg":"Insufficient Permissions","sub_code":"40004","sub_msg":"denied"}`)})

		res := svc.QueryAccountLog(context.Background())
		failure, ok := res.(types.Failure)
		require.True(t, ok)
		require.Equal(t, "40004", failure.Code)
	})

	t.Run("Transport error maps to EXCEPTION", func(t *testing.T) {
		svc := newTestService(t, &stubExecutor{err: errors.New("request timed out")})

		res := svc.QueryAccountLog(context.Background())
		failure, ok := res.(types.Failure)
		require.True(t, ok)
		require.Equal(t, types.FailureCodeException, failure.Code)
	})
}
