package geoip

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/linktrail/linktrail/internal/app/model"
)

func newTestResolver(t *testing.T, handler http.HandlerFunc) (*Resolver, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return NewResolver(Config{Endpoint: srv.URL, Timeout: time.Second}, nil), &calls
}

func TestResolve(t *testing.T) {
	r, calls := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/8.8.8.8/json/" {
			t.Errorf("unexpected path %q", req.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"country_name":"United States","city":"Mountain View","region":"California","org":"Google LLC"}`))
	})

	loc := r.Resolve(context.Background(), "8.8.8.8")
	want := Location{Country: "United States", City: "Mountain View", Region: "California", ISP: "Google LLC"}
	if loc != want {
		t.Fatalf("Resolve = %+v, want %+v", loc, want)
	}
	if n := atomic.LoadInt32(calls); n != 1 {
		t.Fatalf("expected 1 lookup, got %d", n)
	}
}

func TestResolve_InternalAddressesSkipLookup(t *testing.T) {
	r, calls := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
		t.Error("internal address reached the geolocation service")
	})

	for _, ip := range []string{
		"",
		"127.0.0.1",
		"::1",
		"0.0.0.0",
		"10.0.0.5",
		"192.168.1.20",
		"169.254.1.1",
		"172.16.0.1",
		"172.99.0.1", // outside RFC1918 but still treated as internal
	} {
		if loc := r.Resolve(context.Background(), ip); loc != unknownLocation() {
			t.Errorf("Resolve(%q) = %+v, want unknowns", ip, loc)
		}
	}
	if n := atomic.LoadInt32(calls); n != 0 {
		t.Fatalf("expected 0 lookups, got %d", n)
	}
}

func TestResolve_FailuresCollapseToUnknown(t *testing.T) {
	t.Run("non-OK status", func(t *testing.T) {
		r, _ := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})
		if loc := r.Resolve(context.Background(), "8.8.8.8"); loc != unknownLocation() {
			t.Fatalf("Resolve = %+v, want unknowns", loc)
		}
	})

	t.Run("malformed payload", func(t *testing.T) {
		r, _ := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
			_, _ = w.Write([]byte("not json"))
		})
		if loc := r.Resolve(context.Background(), "8.8.8.8"); loc != unknownLocation() {
			t.Fatalf("Resolve = %+v, want unknowns", loc)
		}
	})

	t.Run("unreachable endpoint", func(t *testing.T) {
		r := NewResolver(Config{Endpoint: "http://127.0.0.1:1", Timeout: 100 * time.Millisecond}, nil)
		if loc := r.Resolve(context.Background(), "8.8.8.8"); loc != unknownLocation() {
			t.Fatalf("Resolve = %+v, want unknowns", loc)
		}
	})

	t.Run("empty fields keep sentinels", func(t *testing.T) {
		r, _ := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
			_, _ = w.Write([]byte(`{"country_name":"Germany"}`))
		})
		loc := r.Resolve(context.Background(), "8.8.8.8")
		if loc.Country != "Germany" || loc.City != model.Unknown || loc.ISP != model.Unknown {
			t.Fatalf("Resolve = %+v, want Germany with unknown fallbacks", loc)
		}
	})
}
