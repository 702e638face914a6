package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/maib-ecomm/maib-gateway/internal/clock"
	"github.com/maib-ecomm/maib-gateway/internal/config"
	"github.com/maib-ecomm/maib-gateway/internal/nonce"
	orderdomain "github.com/maib-ecomm/maib-gateway/internal/order/domain"
	orderrepo "github.com/maib-ecomm/maib-gateway/internal/order/repository"
	"github.com/maib-ecomm/maib-gateway/internal/payment/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSignatureKey = "server-test-key"

type stubPayments struct {
	initiate       func(ctx context.Context, orderID snowflake.ID, clientIP string) (*domain.InitiateResult, error)
	handleCallback func(ctx context.Context, body []byte) domain.Ack
	handleReturn   func(ctx context.Context, orderID, payID, outcome string) domain.Redirect
	refund         func(ctx context.Context, orderID snowflake.ID, amount float64) error
	complete       func(ctx context.Context, orderID snowflake.ID) error
}

func (s *stubPayments) Initiate(ctx context.Context, orderID snowflake.ID, clientIP string) (*domain.InitiateResult, error) {
	return s.initiate(ctx, orderID, clientIP)
}

func (s *stubPayments) HandleCallback(ctx context.Context, body []byte) domain.Ack {
	return s.handleCallback(ctx, body)
}

func (s *stubPayments) HandleReturn(ctx context.Context, orderID, payID, outcome string) domain.Redirect {
	return s.handleReturn(ctx, orderID, payID, outcome)
}

func (s *stubPayments) Refund(ctx context.Context, orderID snowflake.ID, amount float64) error {
	return s.refund(ctx, orderID, amount)
}

func (s *stubPayments) CompleteTwoStep(ctx context.Context, orderID snowflake.ID) error {
	return s.complete(ctx, orderID)
}

func newTestServer(t *testing.T, payments *stubPayments) (*Server, *gorm.DB) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&orderdomain.Order{}, &orderdomain.OrderNote{}, &orderdomain.PaymentEvent{},
	))

	node, err := snowflake.NewNode(3)
	require.NoError(t, err)

	cfg := config.Config{
		Maib: config.MaibConfig{SignatureKey: testSignatureKey},
		Store: config.StoreConfig{
			BaseURL: "https://store.example.com",
			CartURL: "/cart",
		},
	}
	srv := New(Params{
		Cfg:      cfg,
		Payments: payments,
		Orders:   orderrepo.NewRepository(conn),
		DB:       conn,
		Node:     node,
		Clock:    clock.SystemClock{},
		Registry: prometheus.NewRegistry(),
		Log:      zap.NewNop(),
	})
	return srv, conn
}

func doRequest(srv *Server, method, target string, body []byte) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestCallbackRespondsWithLiteralAck(t *testing.T) {
	var gotBody []byte
	payments := &stubPayments{
		handleCallback: func(ctx context.Context, body []byte) domain.Ack {
			gotBody = body
			return domain.AckOK
		},
	}
	srv, _ := newTestServer(t, payments)

	rec := doRequest(srv, http.MethodPost, "/maib/callback", []byte(`{"result":{},"signature":"x"}`))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	assert.JSONEq(t, `{"result":{},"signature":"x"}`, string(gotBody))
}

func TestCallbackErrorAck(t *testing.T) {
	payments := &stubPayments{
		handleCallback: func(ctx context.Context, body []byte) domain.Ack { return domain.AckError },
	}
	srv, _ := newTestServer(t, payments)

	rec := doRequest(srv, http.MethodPost, "/maib/callback", []byte(`{}`))

	assert.Equal(t, "ERROR", rec.Body.String())
}

func TestCallbackBrowserAccessRedirects(t *testing.T) {
	srv, _ := newTestServer(t, &stubPayments{})

	rec := doRequest(srv, http.MethodGet, "/maib/callback", nil)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "https://store.example.com/cart")
}

func TestReturnRejectsInvalidNonce(t *testing.T) {
	called := false
	payments := &stubPayments{
		handleReturn: func(ctx context.Context, orderID, payID, outcome string) domain.Redirect {
			called = true
			return domain.Redirect{}
		},
	}
	srv, _ := newTestServer(t, payments)

	rec := doRequest(srv, http.MethodGet, "/maib/return/ok?orderId=123&payId=p1&nonce=forged", nil)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "/cart")
	assert.False(t, called, "service must not run for a forged return link")
}

func TestReturnPassesVerifiedParams(t *testing.T) {
	var gotOrderID, gotPayID, gotOutcome string
	payments := &stubPayments{
		handleReturn: func(ctx context.Context, orderID, payID, outcome string) domain.Redirect {
			gotOrderID, gotPayID, gotOutcome = orderID, payID, outcome
			return domain.Redirect{URL: "https://store.example.com/receipt", Notice: ""}
		},
	}
	srv, _ := newTestServer(t, payments)

	n := nonce.New(testSignatureKey, "return:123")
	rec := doRequest(srv, http.MethodGet, "/maib/return/fail?orderId=123&payId=p1&nonce="+n, nil)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://store.example.com/receipt", rec.Header().Get("Location"))
	assert.Equal(t, "123", gotOrderID)
	assert.Equal(t, "p1", gotPayID)
	assert.Equal(t, "fail", gotOutcome)
}

func TestCreateAndGetOrder(t *testing.T) {
	srv, _ := newTestServer(t, &stubPayments{})

	rec := doRequest(srv, http.MethodPost, "/api/v1/orders", []byte(`{
		"currency": "MDL",
		"amount": 100.50,
		"client_name": "John Doe",
		"email": "john@example.com",
		"items": [{"id":"sku-1","name":"Widget","price":50.25,"quantity":2}]
	}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var created struct {
		Data struct {
			ID     snowflake.ID `json:"id"`
			Status string       `json:"status"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "pending", created.Data.Status)

	rec = doRequest(srv, http.MethodGet, "/api/v1/orders/"+created.Data.ID.String(), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "John Doe")
}

func TestCreateOrderValidation(t *testing.T) {
	srv, _ := newTestServer(t, &stubPayments{})

	rec := doRequest(srv, http.MethodPost, "/api/v1/orders", []byte(`{"currency":"MDL"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code, "amount is required")
}

func TestGetOrderNotFound(t *testing.T) {
	srv, _ := newTestServer(t, &stubPayments{})

	rec := doRequest(srv, http.MethodGet, "/api/v1/orders/999999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCheckout(t *testing.T) {
	payments := &stubPayments{
		initiate: func(ctx context.Context, orderID snowflake.ID, clientIP string) (*domain.InitiateResult, error) {
			return &domain.InitiateResult{PayID: "p1", RedirectURL: "https://maib.example/pay/p1"}, nil
		},
	}
	srv, _ := newTestServer(t, payments)

	rec := doRequest(srv, http.MethodPost, "/api/v1/checkout/123", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "https://maib.example/pay/p1")
}

func TestCheckoutInitiationFailure(t *testing.T) {
	payments := &stubPayments{
		initiate: func(ctx context.Context, orderID snowflake.ID, clientIP string) (*domain.InitiateResult, error) {
			return nil, domain.ErrInitiationFailed
		},
	}
	srv, _ := newTestServer(t, payments)

	rec := doRequest(srv, http.MethodPost, "/api/v1/checkout/123", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRefundDefaultsToFullAmount(t *testing.T) {
	var gotAmount float64
	payments := &stubPayments{
		refund: func(ctx context.Context, orderID snowflake.ID, amount float64) error {
			gotAmount = amount
			return nil
		},
	}
	srv, conn := newTestServer(t, payments)

	order := &orderdomain.Order{
		ID: snowflake.ID(555), Status: orderdomain.StatusProcessing,
		Currency: "MDL", Amount: 250,
	}
	require.NoError(t, conn.Create(order).Error)

	rec := doRequest(srv, http.MethodPost, "/api/v1/orders/555/refund", nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 250.0, gotAmount)
}

func TestRefundAlreadyRefundedConflict(t *testing.T) {
	payments := &stubPayments{
		refund: func(ctx context.Context, orderID snowflake.ID, amount float64) error {
			return domain.ErrAlreadyRefunded
		},
	}
	srv, _ := newTestServer(t, payments)

	rec := doRequest(srv, http.MethodPost, "/api/v1/orders/555/refund", []byte(`{"amount":10}`))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCompleteOrder(t *testing.T) {
	var gotID snowflake.ID
	payments := &stubPayments{
		complete: func(ctx context.Context, orderID snowflake.ID) error {
			gotID = orderID
			return nil
		},
	}
	srv, _ := newTestServer(t, payments)

	rec := doRequest(srv, http.MethodPost, "/api/v1/orders/321/complete", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, snowflake.ID(321), gotID)
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t, &stubPayments{})

	rec := doRequest(srv, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsExposed(t *testing.T) {
	srv, _ := newTestServer(t, &stubPayments{})

	rec := doRequest(srv, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
