package main

import (
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	core "chainforge/core"
)

type mockService struct{}

func (m *mockService) LatestBlocks(chain string, count int) ([]map[string]interface{}, error) {
	if chain != "root" {
		return nil, fmt.Errorf("unknown chain %q", chain)
	}
	return []map[string]interface{}{{"height": uint64(1), "hash": "abc", "txs": 0}}, nil
}

func (m *mockService) BlockByHeight(chain string, h uint64) (*core.Block, error) {
	if chain != "root" || h != 1 {
		return nil, fmt.Errorf("not found")
	}
	return &core.Block{Height: h}, nil
}

func (m *mockService) TxByHash(chain, hashHex string) (*core.Transaction, error) {
	if hashHex != "abc" {
		return nil, fmt.Errorf("tx not found")
	}
	return &core.Transaction{}, nil
}

func (m *mockService) Balance(chain, token, addr string) (*big.Int, error) {
	if addr != "good" {
		return nil, fmt.Errorf("bad address")
	}
	return big.NewInt(42), nil
}

func (m *mockService) Info() map[string]interface{} {
	return map[string]interface{}{"rootHeight": int64(1)}
}

func newTestServer() *Server {
	return NewServer(":0", &mockService{})
}

func TestHandleBlocksInvalidCount(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/api/chains/root/blocks?count=abc", nil)
	rr := httptest.NewRecorder()
	srv.router.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestHandleBlocksCountTooLarge(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/api/chains/root/blocks?count=200", nil)
	rr := httptest.NewRecorder()
	srv.router.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestHandleBlockUnknownChain(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/api/chains/nope/blocks/1", nil)
	rr := httptest.NewRecorder()
	srv.router.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestHandleBalanceError(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/api/chains/root/balance/SOUL/bad", nil)
	rr := httptest.NewRecorder()
	srv.router.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestHandleBalanceSuccess(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/api/chains/root/balance/SOUL/good", nil)
	rr := httptest.NewRecorder()
	srv.router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var res map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if res["balance"] != "42" {
		t.Fatalf("unexpected balance: %v", res)
	}
}

func TestHandleBlocksSuccess(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/api/chains/root/blocks", nil)
	rr := httptest.NewRecorder()
	srv.router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var res []map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(res) != 1 || res[0]["height"].(float64) != 1 {
		t.Fatalf("unexpected response: %v", res)
	}
}

func TestHandleBlockSuccess(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/api/chains/root/blocks/1", nil)
	rr := httptest.NewRecorder()
	srv.router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestHandleTxNotFound(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/api/chains/root/tx/unknown", nil)
	rr := httptest.NewRecorder()
	srv.router.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestHandleTxSuccess(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/api/chains/root/tx/abc", nil)
	rr := httptest.NewRecorder()
	srv.router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestHandleInfo(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/api/info", nil)
	rr := httptest.NewRecorder()
	srv.router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}
