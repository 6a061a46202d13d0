package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreateOrder_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/orders", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "key_id", user)
		assert.Equal(t, "key_secret", pass)

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(25000), body["amount"])
		assert.Equal(t, "INR", body["currency"])
		assert.Equal(t, "bk-test", body["receipt"])

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "order_123"})
	}))
	defer srv.Close()

	g := NewGateway(srv.URL, "key_id", "key_secret")
	id, err := g.CreateOrder(context.Background(), 25000, "bk-test")
	assert.NoError(t, err)
	assert.Equal(t, "order_123", id)
}

func TestCreateOrder_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	g := NewGateway(srv.URL, "k", "s")
	_, err := g.CreateOrder(context.Background(), 100, "r")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestCreateOrder_MissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer srv.Close()

	g := NewGateway(srv.URL, "k", "s")
	_, err := g.CreateOrder(context.Background(), 100, "r")
	assert.Error(t, err)
}
