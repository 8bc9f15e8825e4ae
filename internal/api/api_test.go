package api

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"stakeVault/internal/audit"
	"stakeVault/internal/host"
	"stakeVault/internal/model"
	"stakeVault/internal/storage/memory"
)

const start = int64(1_700_000_000)

var (
	authority = common.HexToAddress("0xa000000000000000000000000000000000000001")
	token     = common.HexToAddress("0xb000000000000000000000000000000000000002")
)

type testServer struct {
	exec   *host.Executor
	router http.Handler
	key    *ecdsa.PrivateKey
	caller common.Address
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	reg := prometheus.NewRegistry()
	exec, err := host.NewExecutor(memory.NewStore(), host.Options{
		Metrics: host.NewMetrics(reg),
		Clock:   func() int64 { return start },
	}, zap.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	tok := token
	_, err = exec.Execute(ctx, authority, host.Instruction{Op: host.OpInitialize, Token: &tok})
	require.NoError(t, err)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	caller := crypto.PubkeyToAddress(key.PublicKey)
	_, err = exec.Credit(ctx, caller, 50_000)
	require.NoError(t, err)

	return &testServer{
		exec:   exec,
		router: NewController(exec, reg, zap.NewNop()).NewRouter(),
		key:    key,
		caller: caller,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) submit(t *testing.T, nonce uint64, ins host.Instruction) *httptest.ResponseRecorder {
	t.Helper()
	env, err := host.Sign(s.key, nonce, ins)
	require.NoError(t, err)
	body, err := json.Marshal(env)
	require.NoError(t, err)
	return s.do(t, http.MethodPost, "/v1/instructions", body)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func TestSubmitStakeAndQuery(t *testing.T) {
	s := newTestServer(t)

	rec := s.submit(t, 1, host.Instruction{Op: host.OpStake, Amount: 10_000, LockDays: 90})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var receipt host.Receipt
	decode(t, rec, &receipt)
	assert.Equal(t, uint64(1), receipt.PositionID)
	assert.Equal(t, s.caller, receipt.Caller)

	rec = s.do(t, http.MethodGet, "/v1/positions/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var info model.StakeInfo
	decode(t, rec, &info)
	assert.Equal(t, uint64(493), info.ProjectedReward)
	assert.Equal(t, s.caller, info.Position.Owner)

	rec = s.do(t, http.MethodGet, "/v1/owners/"+s.caller.Hex()+"/positions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var positions []model.Position
	decode(t, rec, &positions)
	assert.Len(t, positions, 1)

	rec = s.do(t, http.MethodGet, "/v1/pool", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var pool poolResponse
	decode(t, rec, &pool)
	assert.Equal(t, uint64(10_000), pool.Pool.TotalStaked)
	assert.Equal(t, uint64(0), pool.RewardReserve)

	rec = s.do(t, http.MethodGet, "/v1/access/"+s.caller.Hex(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var view host.AccessView
	decode(t, rec, &view)
	assert.Equal(t, uint64(40_000), view.Balance)
	assert.Equal(t, model.TierElite, view.Tier)
	assert.Nil(t, view.Record)
	assert.Nil(t, view.Meets)

	rec = s.do(t, http.MethodGet, "/v1/access/"+s.caller.Hex()+"?min=elite", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view = host.AccessView{}
	decode(t, rec, &view)
	require.NotNil(t, view.Meets)
	assert.True(t, *view.Meets)
	assert.Equal(t, model.TierElite, *view.Required)

	rec = s.do(t, http.MethodGet, "/v1/access/0x00000000000000000000000000000000000000c3?min=basic", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view = host.AccessView{}
	decode(t, rec, &view)
	require.NotNil(t, view.Meets)
	assert.False(t, *view.Meets)
	assert.Equal(t, model.TierNone, view.Tier)

	rec = s.do(t, http.MethodGet, "/v1/audit", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var report audit.Report
	decode(t, rec, &report)
	assert.True(t, report.Healthy())

	rec = s.do(t, http.MethodGet, "/v1/events?after=1&limit=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var events []model.EventRecord
	decode(t, rec, &events)
	require.Len(t, events, 1)
	assert.Equal(t, model.EventStaked, events[0].Kind)
}

func TestSubmitErrorStatuses(t *testing.T) {
	s := newTestServer(t)

	rec := s.submit(t, 1, host.Instruction{Op: host.OpStake, Amount: 10, LockDays: 30})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.submit(t, 1, host.Instruction{Op: host.OpStake, Amount: 10, LockDays: 30})
	assert.Equal(t, http.StatusConflict, rec.Code)
	var body errorResponse
	decode(t, rec, &body)
	assert.Equal(t, "StaleNonce", body.Kind)

	rec = s.submit(t, 2, host.Instruction{Op: host.OpStake, Amount: 10, LockDays: 45})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	decode(t, rec, &body)
	assert.Equal(t, "InvalidLockPeriod", body.Kind)

	rec = s.submit(t, 3, host.Instruction{Op: host.OpUnstake, PositionID: 1})
	assert.Equal(t, http.StatusConflict, rec.Code)
	decode(t, rec, &body)
	assert.Equal(t, "LockNotExpired", body.Kind)

	rec = s.submit(t, 4, host.Instruction{Op: host.OpSetPaused, Paused: new(bool)})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	env, err := host.Sign(s.key, 5, host.Instruction{Op: host.OpStake, Amount: 10, LockDays: 30})
	require.NoError(t, err)
	env.Payload = json.RawMessage(strings.Replace(string(env.Payload), `"amount":10`, `"amount":99`, 1))
	raw, err := json.Marshal(env)
	require.NoError(t, err)
	rec = s.do(t, http.MethodPost, "/v1/instructions", raw)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBadRequests(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/v1/instructions", []byte(`{"payload":{},"signature":"0x01"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/v1/instructions", []byte(`not json`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/v1/positions/42", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/v1/access/not-an-address", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/v1/access/0x00000000000000000000000000000000000000c3?min=gold", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/v1/events?limit=0", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)
	s.submit(t, 1, host.Instruction{Op: host.OpStake, Amount: 10, LockDays: 30})

	rec := s.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `stakevault_instructions_total{op="stake",result="ok"} 1`)
}

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		model.ErrInvalidAmount:             http.StatusBadRequest,
		model.ErrPositionNotFound:          http.StatusNotFound,
		model.ErrPoolNotInitialized:        http.StatusNotFound,
		model.ErrInsufficientRewardReserve: http.StatusConflict,
		model.ErrUnauthorized:              http.StatusForbidden,
		model.ErrInvalidSignature:          http.StatusUnauthorized,
		model.ErrArithmeticOverflow:        http.StatusUnprocessableEntity,
		context.Canceled:                   http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, statusFor(err), err.Error())
	}
}
