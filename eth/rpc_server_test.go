package eth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcHandlerFn func(params []json.RawMessage) (interface{}, *rpcError)

// testRPCServer is a minimal json-rpc node answering only the registered methods
type testRPCServer struct {
	server   *httptest.Server
	handlers map[string]rpcHandlerFn
	calls    map[string][][]json.RawMessage
	lock     sync.Mutex
}

func newTestRPCServer(t *testing.T) *testRPCServer {
	t.Helper()

	s := &testRPCServer{
		handlers: map[string]rpcHandlerFn{},
		calls:    map[string][][]json.RawMessage{},
	}

	s.server = httptest.NewServer(http.HandlerFunc(s.serveHTTP))
	t.Cleanup(s.server.Close)

	return s
}

func (s *testRPCServer) URL() string {
	return s.server.URL
}

func (s *testRPCServer) Handle(method string, handler rpcHandlerFn) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.handlers[method] = handler
}

func (s *testRPCServer) Calls(method string) [][]json.RawMessage {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.calls[method]
}

func (s *testRPCServer) serveHTTP(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)

		return
	}

	s.lock.Lock()
	s.calls[req.Method] = append(s.calls[req.Method], req.Params)
	handler, exists := s.handlers[req.Method]
	s.lock.Unlock()

	response := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      req.ID,
	}

	if !exists {
		response["error"] = &rpcError{Code: -32601, Message: "method not found: " + req.Method}
	} else if result, rpcErr := handler(req.Params); rpcErr != nil {
		response["error"] = rpcErr
	} else {
		response["result"] = result
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response)
}
