package supabase_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"ratemycompany/pkg/supabase"
	"testing"
)

func TestNewInvalid(t *testing.T) {
	cases := []struct{ url, key string }{
		{"", "key"},
		{"https://example.supabase.co", ""},
		{"ftp://example.supabase.co", "key"},
		{"://", "key"},
	}

	for _, v := range cases {
		if _, err := supabase.New(v.url, v.key); err == nil {
			t.Errorf("expected an error for %q/%q", v.url, v.key)
		}
	}
}

func TestRPC(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/rest/v1/rpc/record_matchup" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("apikey") != "service-key" {
			t.Errorf("missing apikey header")
		}
		if r.Header.Get("Authorization") != "Bearer service-key" {
			t.Errorf("missing Authorization header")
		}

		var params map[string]string
		if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
			t.Error(err)
			return
		}
		if params["company_a"] != "x" || params["result"] != "draw" {
			t.Errorf("unexpected params: %v", params)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"company_id":"x","rating":1516}]`))
	}))
	defer server.Close()

	api, err := supabase.New(server.URL, "service-key")
	if err != nil {
		t.Fatal(err)
	}

	var rows []struct {
		CompanyID string  `json:"company_id"`
		Rating    float64 `json:"rating"`
	}
	params := map[string]string{"company_a": "x", "company_b": "y", "result": "draw"}
	if err := api.RPC(context.Background(), "record_matchup", params, &rows); err != nil {
		t.Fatal(err)
	}

	if len(rows) != 1 || rows[0].CompanyID != "x" || rows[0].Rating != 1516 {
		t.Errorf("unexpected rows: %+v", rows)
	}
}

func TestRPCError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"P0001","message":"company not found"}`))
	}))
	defer server.Close()

	api, err := supabase.New(server.URL, "service-key")
	if err != nil {
		t.Fatal(err)
	}

	err = api.RPC(context.Background(), "record_matchup", nil, nil)
	var apiErr *supabase.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected a *supabase.Error, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest || apiErr.Code != "P0001" {
		t.Errorf("unexpected error: %+v", apiErr)
	}
}
