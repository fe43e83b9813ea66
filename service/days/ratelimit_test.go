package days

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"days-api/service/days/domain"
	"days-api/service/days/infra"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func serve(h http.Handler, method, target, remote string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, target, nil)
	r.RemoteAddr = remote
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

type denialSink struct {
	seen []domain.Denial
}

func (d *denialSink) ObserveDenial(_ context.Context, den domain.Denial) error {
	d.seen = append(d.seen, den)
	return nil
}

func TestRateLimit_AllowsThenRejectsSameKey(t *testing.T) {
	calls := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	})
	sink := &denialSink{}

	h := RateLimit(RateLimitOptions{
		Store:               infra.NewLimiterStore(0.02, 1),
		RetryAfter:          1 * time.Second,
		AddRateLimitHeaders: true,
		Denials:             []domain.DenialObserver{sink},
	})(next)

	// 1) primeira passa
	w1 := serve(h, http.MethodPost, "http://example/between", "10.0.0.1:1234")
	if w1.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w1.Code)
	}
	if got := w1.Header().Get("X-RateLimit-Key"); got != "10.0.0.1" {
		t.Fatalf("expected X-RateLimit-Key=10.0.0.1, got %q", got)
	}
	if got := w1.Header().Get("X-RateLimit-RPS"); got != "0.02" {
		t.Fatalf("expected X-RateLimit-RPS=0.02, got %q", got)
	}
	if got := w1.Header().Get("X-RateLimit-Burst"); got != "1" {
		t.Fatalf("expected X-RateLimit-Burst=1, got %q", got)
	}

	// 2) segunda bloqueia, mesmo em outra rota (bucket comum do cliente)
	w2 := serve(h, http.MethodPost, "http://example/weekday", "10.0.0.1:1234")
	if w2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w2.Code)
	}
	if got := w2.Header().Get("Retry-After"); got != "1" {
		t.Fatalf("expected Retry-After=1, got %q", got)
	}
	if !strings.Contains(w2.Body.String(), msgTooManyRequests) {
		t.Fatalf("expected JSON error body, got %q", w2.Body.String())
	}

	if calls != 1 {
		t.Fatalf("expected next handler to be called once, got %d", calls)
	}
	want := domain.Denial{Reason: domain.DenyRateLimited, Client: "10.0.0.1", Method: http.MethodPost, Route: domain.RouteWeekday}
	if len(sink.seen) != 1 || sink.seen[0] != want {
		t.Fatalf("expected denial %+v, got %+v", want, sink.seen)
	}
}

func TestRateLimit_UnrecordedRoutesAreExempt(t *testing.T) {
	h := RateLimit(RateLimitOptions{Store: infra.NewLimiterStore(0.02, 1)})(okHandler())

	for _, target := range []string{"/", "/healthz", "/stats", "/nope"} {
		for i := 0; i < 3; i++ {
			if w := serve(h, http.MethodGet, "http://example"+target, "10.0.0.1:1234"); w.Code != http.StatusOK {
				t.Fatalf("expected %s to bypass rate limit, got %d", target, w.Code)
			}
		}
	}

	// o bucket continua cheio para a primeira chamada do histórico
	if w := serve(h, http.MethodPost, "http://example/between", "10.0.0.1:1234"); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestRateLimit_ClearHistoryHasOwnLimit(t *testing.T) {
	store := infra.NewLimiterStore(10, 5, infra.WithRouteLimits(domain.RouteDeleteHistory, 0.02, 1))
	h := RateLimit(RateLimitOptions{Store: store, AddRateLimitHeaders: true})(okHandler())

	w := serve(h, http.MethodDelete, "http://example/history", "10.0.0.1:1")
	if w.Code != http.StatusOK || w.Header().Get("X-RateLimit-Burst") != "1" {
		t.Fatalf("expected 200 with burst=1 header, got %d %q", w.Code, w.Header().Get("X-RateLimit-Burst"))
	}
	if w := serve(h, http.MethodDelete, "http://example/history", "10.0.0.1:1"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second clear to be limited, got %d", w.Code)
	}
	if w := serve(h, http.MethodGet, "http://example/history", "10.0.0.1:1"); w.Code != http.StatusOK {
		t.Fatalf("expected reads to use the shared bucket, got %d", w.Code)
	}
}

func TestRateLimit_KeyByHeader(t *testing.T) {
	h := RateLimit(RateLimitOptions{Store: infra.NewLimiterStore(0.02, 1), KeyHeader: "X-Api-Key"})(okHandler())

	// chaves diferentes => cada uma com seu próprio limiter
	for _, k := range []string{"k1", "k2"} {
		r := httptest.NewRequest(http.MethodPost, "http://example/between", nil)
		r.Header.Set("X-Api-Key", k)
		r.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200 for key %s, got %d", k, w.Code)
		}
	}
}

func TestRateLimit_RetryAfterRoundsUp(t *testing.T) {
	cases := map[time.Duration]string{
		2500 * time.Millisecond: "3",
		500 * time.Millisecond:  "1",
		2 * time.Second:         "2",
	}
	for retry, want := range cases {
		h := RateLimit(RateLimitOptions{Store: infra.NewLimiterStore(0.02, 1), RetryAfter: retry})(okHandler())

		serve(h, http.MethodPost, "http://example/between", "10.0.0.1:1234")
		w := serve(h, http.MethodPost, "http://example/between", "10.0.0.1:1234")
		if w.Code != http.StatusTooManyRequests {
			t.Fatalf("expected 429, got %d", w.Code)
		}
		if got := w.Header().Get("Retry-After"); got != want {
			t.Fatalf("RetryAfter=%s: expected Retry-After=%s, got %q", retry, want, got)
		}
	}
}

func TestRateLimit_NilStorePassesThrough(t *testing.T) {
	h := RateLimit(RateLimitOptions{})(okHandler())

	for i := 0; i < 5; i++ {
		if w := serve(h, http.MethodPost, "http://example/between", "10.0.0.1:1"); w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	}
}

func TestNewHandler_RateLimitDenialsReachStats(t *testing.T) {
	stats := infra.NewMemoryStats()
	h := NewHandler(Options{
		Stats:     stats,
		RateLimit: RateLimitOptions{Store: infra.NewLimiterStore(0.02, 1)},
	})

	var codes []int
	for i := 0; i < 2; i++ {
		r := httptest.NewRequest(http.MethodPost, "/weekday", strings.NewReader(`{"date": "01.01.2024"}`))
		r.RemoteAddr = "10.0.0.7:999"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("expected [200 429], got %v", codes)
	}

	w := serve(h, http.MethodGet, "/stats", "10.0.0.7:999")
	if w.Code != http.StatusOK {
		t.Fatalf("expected /stats to bypass the limit, got %d", w.Code)
	}
	var body struct {
		Total  int64            `json:"total"`
		Denied map[string]int64 `json:"denied"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if body.Total != 1 || body.Denied["rate_limited"] != 1 {
		t.Fatalf("expected total=1 denied.rate_limited=1, got %+v", body)
	}
}

func TestDefaultKeyFunc_PrefersHeaderWhenSet(t *testing.T) {
	fn := DefaultKeyFunc("X-Client", false)

	r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	r.Header.Set("X-Client", " client-123 ")

	if got := fn(r); got != "client-123" {
		t.Fatalf("expected header key, got %q", got)
	}
}

func TestDefaultKeyFunc_TrustXForwardedForUsesFirstIP(t *testing.T) {
	fn := DefaultKeyFunc("", true)

	r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
	r.RemoteAddr = "10.0.0.9:5555"
	r.Header.Set("X-Forwarded-For", "1.2.3.4, 5.6.7.8")

	if got := fn(r); got != "1.2.3.4" {
		t.Fatalf("expected first XFF ip, got %q", got)
	}
}

func TestDefaultKeyFunc_IgnoresXForwardedForWhenUntrusted(t *testing.T) {
	fn := DefaultKeyFunc("", false)

	r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
	r.RemoteAddr = "10.0.0.9:5555"
	r.Header.Set("X-Forwarded-For", "1.2.3.4")

	if got := fn(r); got != "10.0.0.9" {
		t.Fatalf("expected remote host, got %q", got)
	}
}
