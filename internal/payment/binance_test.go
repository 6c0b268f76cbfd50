package payment

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func binanceServer(t *testing.T, body string, status int) (*httptest.Server, *http.Request) {
	t.Helper()
	var captured http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = *r
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &captured
}

func TestBinance_CheckPayment_Match(t *testing.T) {
	body := `{"data":[
		{"transactionId":"tx-1","amount":"3.5","currency":"USDT","note":"OTHER"},
		{"transactionId":"tx-2","amount":"0.5","currency":"USDT","note":"AB12CD34"}
	]}`
	srv, req := binanceServer(t, body, http.StatusOK)

	gw := NewBinanceGateway("key", "secret", "12345")
	gw.SetBaseURL(srv.URL)

	m := gw.CheckPayment(context.Background(), "AB12CD34", 0.5)
	require.NotNil(t, m)
	assert.Equal(t, "tx-2", m.Reference)
	assert.Equal(t, 0.5, m.Amount)
	assert.Equal(t, "USDT", m.Currency)

	assert.Equal(t, "key", req.Header.Get("X-MBX-APIKEY"))
	assert.Equal(t, "/sapi/v1/pay/transactions", req.URL.Path)
	assert.NotEmpty(t, req.URL.Query().Get("signature"))
	assert.NotEmpty(t, req.URL.Query().Get("timestamp"))
}

func TestBinance_CheckPayment_NoMatch(t *testing.T) {
	tests := []struct {
		name string
		tx   string
	}{
		{"другая заметка", `{"transactionId":"t","amount":"0.5","currency":"USDT","note":"XXXX"}`},
		{"другая сумма", `{"transactionId":"t","amount":"0.49","currency":"USDT","note":"AB12CD34"}`},
		{"не USDT", `{"transactionId":"t","amount":"0.5","currency":"BUSD","note":"AB12CD34"}`},
		{"нулевая сумма", `{"transactionId":"t","amount":"0","currency":"USDT","note":"AB12CD34"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := binanceServer(t, `{"data":[`+tt.tx+`]}`, http.StatusOK)
			gw := NewBinanceGateway("key", "secret", "")
			gw.SetBaseURL(srv.URL)
			assert.Nil(t, gw.CheckPayment(context.Background(), "AB12CD34", 0.5))
		})
	}
}

func TestBinance_CheckPayment_ProviderErrorMeansNoMatch(t *testing.T) {
	srv, _ := binanceServer(t, `{"code":-1021,"msg":"Timestamp out of recvWindow"}`, http.StatusBadRequest)
	gw := NewBinanceGateway("key", "secret", "")
	gw.SetBaseURL(srv.URL)
	assert.Nil(t, gw.CheckPayment(context.Background(), "AB12CD34", 0.5))

	srv2, _ := binanceServer(t, `не json`, http.StatusOK)
	gw.SetBaseURL(srv2.URL)
	assert.Nil(t, gw.CheckPayment(context.Background(), "AB12CD34", 0.5))
}

func TestBinance_IsConfigured(t *testing.T) {
	assert.False(t, NewBinanceGateway("", "", "").IsConfigured())
	assert.False(t, NewBinanceGateway("key", "", "").IsConfigured())
	assert.True(t, NewBinanceGateway("key", "secret", "").IsConfigured())
}

func TestBinance_Instructions(t *testing.T) {
	gw := NewBinanceGateway("key", "secret", "637582190")
	ins := gw.Instructions(2.5, "AB12CD34")
	assert.Equal(t, MethodBinance, ins.Method)
	assert.Equal(t, 2.5, ins.Amount)
	assert.Equal(t, "USDT", ins.Currency)
	assert.Equal(t, "AB12CD34", ins.Code)
	assert.Equal(t, "637582190", ins.BinanceID)
}
