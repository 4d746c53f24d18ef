package api

import (
	"encoding/json"
	"net"
	"net/http"
	"testing"
	"time"
)

func serveRPC(t *testing.T, addr string, handler http.HandlerFunc) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rpc", handler)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	srv := &http.Server{Handler: mux}
	go srv.Serve(ln)
	t.Cleanup(func() { srv.Close() })
}

func TestClientCall(t *testing.T) {
	addr := "127.0.0.1:45510"

	serveRPC(t, addr, func(w http.ResponseWriter, r *http.Request) {
		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("err: %v", err)
		}

		if req.Method != "peer_list" {
			t.Errorf("method should be peer_list, not %s", req.Method)
		}

		if len(req.Params) != 1 || req.Params[0] != "deadbeef" {
			t.Errorf("params should be [deadbeef], not %v", req.Params)
		}

		json.NewEncoder(w).Encode(Response{
			Result: json.RawMessage(`["127.0.0.1:4401","127.0.0.1:4402"]`),
		})
	})

	client := NewClient(addr, time.Second)

	raw, err := client.Call("peer_list", []string{"deadbeef"})
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	var peers []string
	if err := json.Unmarshal(raw, &peers); err != nil {
		t.Fatalf("err: %v", err)
	}

	if len(peers) != 2 || peers[0] != "127.0.0.1:4401" {
		t.Fatalf("unexpected peers: %v", peers)
	}
}

func TestClientMethodError(t *testing.T) {
	addr := "127.0.0.1:45511"

	serveRPC(t, addr, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Response{
			Error: &Error{
				Code:    -32601,
				Message: "unknown method \"bogus\"",
			},
		})
	})

	client := NewClient(addr, time.Second)

	_, err := client.Call("bogus", nil)
	if err == nil {
		t.Fatalf("call should fail")
	}

	apiErr, ok := err.(*Error)
	if !ok {
		t.Fatalf("error should be *api.Error, not %T", err)
	}

	if apiErr.Code != -32601 {
		t.Fatalf("code should be -32601, not %d", apiErr.Code)
	}
}

func TestClientConnectionRefused(t *testing.T) {
	client := NewClient("127.0.0.1:45512", time.Second)

	if _, err := client.Call("status", nil); err == nil {
		t.Fatalf("call to a dead node should fail")
	}
}

func TestClientTimeout(t *testing.T) {
	addr := "127.0.0.1:45513"

	serveRPC(t, addr, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	})

	client := NewClient(addr, 100*time.Millisecond)

	start := time.Now()
	_, err := client.Call("status", nil)
	if err == nil {
		t.Fatalf("call should time out")
	}

	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("call should be bounded by the timeout, took %v", elapsed)
	}
}
