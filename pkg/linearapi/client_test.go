package linearapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return NewClientWithEndpoint(srv.URL, "test-token"), srv
}

func TestDispatchSuccess(t *testing.T) {
	var gotBody map[string]any
	var gotAuth string
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": {"viewer": {"id": "u1", "name": "Ada"}}}`))
	})
	defer srv.Close()

	res := client.Dispatch(context.Background(), "query { viewer { id name } }", nil)
	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Error)
	}
	data, ok := res.Data.(map[string]any)
	if !ok {
		t.Fatalf("expected object data, got %T", res.Data)
	}
	if _, ok := data["viewer"]; !ok {
		t.Error("expected viewer in data")
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("Authorization = %q, want bearer token", gotAuth)
	}
	if _, has := gotBody["variables"]; has {
		t.Error("empty variables should be omitted from the request body")
	}
}

func TestDispatchSendsVariables(t *testing.T) {
	var gotBody map[string]any
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"data": null}`))
	})
	defer srv.Close()

	res := client.Dispatch(context.Background(), "query($id: String!) { issue(id: $id) { id } }",
		map[string]any{"id": "ISS-1"})
	if !res.Success {
		t.Fatalf("expected success, got %q", res.Error)
	}
	vars, ok := gotBody["variables"].(map[string]any)
	if !ok || vars["id"] != "ISS-1" {
		t.Errorf("variables = %v, want id=ISS-1", gotBody["variables"])
	}
	if res.Data != nil {
		t.Errorf("null data should surface as nil, got %v", res.Data)
	}
}

func TestDispatchGraphQLErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			"first error message wins",
			`{"errors": [{"message": "Issue not found"}, {"message": "second"}], "data": null}`,
			"Issue not found",
		},
		{
			"missing message falls back",
			`{"errors": [{"extensions": {"code": "X"}}]}`,
			"GraphQL error",
		},
		{
			"non-object error entry falls back",
			`{"errors": ["boom"]}`,
			"GraphQL error",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})
			defer srv.Close()

			res := client.Dispatch(context.Background(), "query { x }", nil)
			if res.Success {
				t.Fatal("expected failure for errors payload")
			}
			if res.Error != tt.wantErr {
				t.Errorf("Error = %q, want %q", res.Error, tt.wantErr)
			}
			if res.Data != nil {
				t.Errorf("failed dispatch should carry no data, got %v", res.Data)
			}
		})
	}
}

func TestDispatchEmptyErrorsListIsSuccess(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errors": [], "data": {"ok": true}}`))
	})
	defer srv.Close()

	res := client.Dispatch(context.Background(), "query { x }", nil)
	if !res.Success {
		t.Fatalf("empty errors list must not fail, got %q", res.Error)
	}
}

func TestDispatchNonObjectBody(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[1, 2, 3]`))
	})
	defer srv.Close()

	res := client.Dispatch(context.Background(), "query { x }", nil)
	if !res.Success {
		t.Fatalf("non-object body is still success, got %q", res.Error)
	}
	if _, ok := res.Data.([]any); !ok {
		t.Errorf("expected raw body passthrough, got %T", res.Data)
	}
}

func TestDispatchTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on
	client := NewClientWithEndpoint(srv.URL, "tok")

	res := client.Dispatch(context.Background(), "query { x }", nil)
	if res.Success {
		t.Fatal("expected transport failure")
	}
	if res.Error == "" {
		t.Error("transport failure must carry a message")
	}
}

func TestDispatchNon2xxStatus(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	})
	defer srv.Close()

	res := client.Dispatch(context.Background(), "query { x }", nil)
	if res.Success {
		t.Fatal("expected failure for 502")
	}
	if res.Error != "Request failed: status 502" {
		t.Errorf("Error = %q", res.Error)
	}
}

func TestDispatchSignedURLHeader(t *testing.T) {
	var gotTTL string
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		gotTTL = r.Header.Get("public-file-urls-expire-in")
		w.Write([]byte(`{"data": {}}`))
	})
	defer srv.Close()

	client.Dispatch(context.Background(), "query { x }", nil, WithSignedURLTTL(3600))
	if gotTTL != "3600" {
		t.Errorf("public-file-urls-expire-in = %q, want 3600", gotTTL)
	}

	client.Dispatch(context.Background(), "query { x }", nil)
	if gotTTL != "" {
		t.Errorf("header should be absent without the option, got %q", gotTTL)
	}
}

func TestFailureFallbackMessage(t *testing.T) {
	if got := failure(""); got.Error != "Request failed" {
		t.Errorf("failure(\"\") = %q, want Request failed", got.Error)
	}
}
