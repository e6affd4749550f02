package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"atscore/internal/ai"
	"atscore/internal/analyzer"
	"atscore/internal/common"
	"atscore/internal/config"
	"atscore/internal/types"
)

const testResume = `Jane Doe
jane.doe@example.com | (555) 123-4567 | San Francisco, CA

SUMMARY
Backend engineer with 6 years of experience building distributed systems.

EXPERIENCE
Senior Software Engineer | Acme Corp | 2020 - Present
- Led migration of 12 services to Kubernetes, cutting deploy time by 40%
- Built a Go ingestion pipeline processing 2M events per day

SKILLS
Go, Python, PostgreSQL, Kubernetes, Docker

EDUCATION
B.S. Computer Science, State University, 2017
`

type fakeComponent struct {
	available bool
}

func (f fakeComponent) GetModelInfo(context.Context) *ai.ModelInfo {
	return &ai.ModelInfo{Name: "fake-model", Available: f.available}
}

func (f fakeComponent) GetCircuitBreakerStats() map[string]any {
	return map[string]any{"state": "closed"}
}

func newTestServer(t *testing.T, mutate func(*ServerConfig)) *Server {
	t.Helper()
	a, err := analyzer.New()
	if err != nil {
		t.Fatalf("analyzer.New() error = %v", err)
	}
	cfg := ServerConfig{Host: "127.0.0.1", Port: "0", Version: "test", MaxRequestSize: 1 << 20}
	if mutate != nil {
		mutate(&cfg)
	}
	s, err := NewServer(cfg, &common.Pipeline{Analyzer: a}, nil, nil)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	t.Cleanup(s.cleanupRateLimiter)
	return s
}

func postJSON(t *testing.T, h http.Handler, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAnalyzeEndpoint(t *testing.T) {
	h := newTestServer(t, nil).Handler()
	job := "Looking for a Go engineer with Kubernetes and PostgreSQL."

	tests := []struct {
		name       string
		body       any
		wantStatus int
	}{
		{"success", map[string]any{"resume_text": testResume, "job_description": job}, http.StatusOK},
		{"no job description", map[string]any{"resume_text": testResume}, http.StatusOK},
		{"too short", map[string]any{"resume_text": "Jane Doe"}, http.StatusUnprocessableEntity},
		{"missing resume", map[string]any{"job_description": job}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, h, "/analyze", tt.body, nil)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus == http.StatusBadRequest {
				var errResp ErrorResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil || errResp.Error == "" {
					t.Errorf("error body = %s", rec.Body.String())
				}
				return
			}

			var result types.UnifiedResult
			if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if result.IsError() != (tt.wantStatus == http.StatusUnprocessableEntity) {
				t.Errorf("metadata.error = %v", result.Metadata.Error)
			}
			if result.ATSScore < 0 || result.ATSScore > 100 {
				t.Errorf("ats_score = %v", result.ATSScore)
			}
		})
	}
}

func TestAnalyzeRejectsWrongContentType(t *testing.T) {
	h := newTestServer(t, nil).Handler()
	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(`{"resume_text":"x"}`))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestServer(t, nil).Handler()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/analyze", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d", rec.Code)
	}
}

func multipartBody(t *testing.T, filename, content string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("resume", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func TestAnalyzeFileEndpoint(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	t.Run("text upload", func(t *testing.T) {
		body, contentType := multipartBody(t, "resume.txt", testResume,
			map[string]string{"job_description": "Go and Kubernetes"})
		req := httptest.NewRequest(http.MethodPost, "/analyze/file", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		var result types.UnifiedResult
		if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
			t.Fatal(err)
		}
		if !result.Metadata.HasJobDescription {
			t.Error("job description form field should be used")
		}
	})

	t.Run("unsupported type", func(t *testing.T) {
		body, contentType := multipartBody(t, "resume.odt", testResume, nil)
		req := httptest.NewRequest(http.MethodPost, "/analyze/file", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/analyze/file", strings.NewReader("x"))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d", rec.Code)
		}
	})
}

func TestStructureEndpoint(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	rec := postJSON(t, h, "/structure", map[string]string{"resume_text": testResume}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resume types.StructuredResume
	if err := json.Unmarshal(rec.Body.Bytes(), &resume); err != nil {
		t.Fatal(err)
	}
	if resume.Contact.Email != "jane.doe@example.com" {
		t.Errorf("email = %q", resume.Contact.Email)
	}

	if rec := postJSON(t, h, "/structure", map[string]string{}, nil); rec.Code != http.StatusBadRequest {
		t.Errorf("empty request status = %d", rec.Code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	h := newTestServer(t, func(c *ServerConfig) { c.APIKeys = []string{"secret-key-123"} }).Handler()
	body := map[string]any{"resume_text": testResume}

	tests := []struct {
		name       string
		headers    map[string]string
		wantStatus int
	}{
		{"missing key", nil, http.StatusUnauthorized},
		{"wrong key", map[string]string{"X-API-Key": "nope"}, http.StatusUnauthorized},
		{"header key", map[string]string{"X-API-Key": "secret-key-123"}, http.StatusOK},
		{"bearer token", map[string]string{"Authorization": "Bearer secret-key-123"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := postJSON(t, h, "/analyze", body, tt.headers); rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}

	t.Run("health is public", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d", rec.Code)
		}
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	h := newTestServer(t, func(c *ServerConfig) {
		c.RateLimit = &config.RateLimitConfig{Enabled: true, RequestsPerMin: 1, BurstCapacity: 1, ByIP: true}
	}).Handler()
	body := map[string]any{"resume_text": testResume}

	if rec := postJSON(t, h, "/analyze", body, nil); rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d", rec.Code)
	}
	rec := postJSON(t, h, "/analyze", body, nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d", rec.Code)
	}

	// A different client has its own bucket
	if rec := postJSON(t, h, "/analyze", body, map[string]string{"X-Forwarded-For": "10.1.2.3"}); rec.Code != http.StatusOK {
		t.Errorf("other client status = %d", rec.Code)
	}
}

func TestRequestSizeLimit(t *testing.T) {
	h := newTestServer(t, func(c *ServerConfig) { c.MaxRequestSize = 64 }).Handler()

	rec := postJSON(t, h, "/analyze", map[string]any{"resume_text": testResume}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "too large") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestHealthEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		components map[string]common.AIComponent
		wantStatus int
		wantState  string
	}{
		{"no models", nil, http.StatusOK, "healthy"},
		{"model available", map[string]common.AIComponent{"suggest": fakeComponent{available: true}}, http.StatusOK, "healthy"},
		{"model down", map[string]common.AIComponent{"similarity": fakeComponent{}}, http.StatusServiceUnavailable, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, nil)
			s.AIComponents = tt.components

			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d", rec.Code)
			}
			var body map[string]any
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body["status"] != tt.wantState {
				t.Errorf("status field = %v", body["status"])
			}
		})
	}
}

func TestStatsEndpoint(t *testing.T) {
	s := newTestServer(t, func(c *ServerConfig) {
		c.RateLimit = &config.RateLimitConfig{Enabled: true, RequestsPerMin: 60, BurstCapacity: 5, ByAPIKey: true}
	})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body struct {
		Analyzer struct {
			CacheBackend string             `json:"cache_backend"`
			Weights      map[string]float64 `json:"weights"`
		} `json:"analyzer"`
		RateLimiting map[string]any `json:"rate_limiting"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Analyzer.Weights) != 4 {
		t.Errorf("weights = %v", body.Analyzer.Weights)
	}
	if body.Analyzer.CacheBackend != "none" {
		t.Errorf("cache backend = %q", body.Analyzer.CacheBackend)
	}
	if body.RateLimiting["enabled"] != true || body.RateLimiting["by_api_key"] != true {
		t.Errorf("rate limiting = %v", body.RateLimiting)
	}
}

func TestGetRateLimitKey(t *testing.T) {
	tests := []struct {
		name     string
		headers  map[string]string
		byAPIKey bool
		byIP     bool
		want     bucketKey
		wantOK   bool
	}{
		{"api key preferred", map[string]string{"X-API-Key": "k1"}, true, true, bucketKey{limitByAPIKey, keyFingerprint("k1")}, true},
		{"bearer", map[string]string{"Authorization": "Bearer k2"}, true, false, bucketKey{limitByAPIKey, keyFingerprint("k2")}, true},
		{"falls back to ip", nil, true, true, bucketKey{limitByIP, "192.0.2.1"}, true},
		{"forwarded ip", map[string]string{"X-Forwarded-For": "bad, 203.0.113.7"}, false, true, bucketKey{limitByIP, "203.0.113.7"}, true},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.2"}, false, true, bucketKey{limitByIP, "198.51.100.2"}, true},
		{"ipv6 remote", nil, false, true, bucketKey{limitByIP, "2001:db8::1"}, true},
		{"disabled", nil, false, false, bucketKey{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.name == "ipv6 remote" {
				req.RemoteAddr = "[2001:db8::1]:443"
			}
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			got, ok := getRateLimitKey(req, tt.byAPIKey, tt.byIP)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("getRateLimitKey() = %+v, %v; want %+v, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestKeyFingerprintHidesAPIKey(t *testing.T) {
	fp := keyFingerprint("secret-api-key-123")
	if strings.Contains(fp, "secret") || len(fp) != 16 {
		t.Errorf("fingerprint = %q", fp)
	}
	if fp == keyFingerprint("secret-api-key-124") {
		t.Error("different keys must not share a bucket")
	}
}

func TestRateLimitRetryAfter(t *testing.T) {
	h := newTestServer(t, func(c *ServerConfig) {
		c.RateLimit = &config.RateLimitConfig{Enabled: true, RequestsPerMin: 2, BurstCapacity: 1, ByAPIKey: true}
	}).Handler()
	body := map[string]any{"resume_text": testResume}
	headers := map[string]string{"X-API-Key": "client-a"}

	if rec := postJSON(t, h, "/analyze", body, headers); rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d", rec.Code)
	}
	rec := postJSON(t, h, "/analyze", body, headers)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d", rec.Code)
	}
	retry, err := strconv.Atoi(rec.Header().Get("Retry-After"))
	if err != nil || retry < 1 || retry > 30 {
		t.Errorf("Retry-After = %q, want 1..30 seconds", rec.Header().Get("Retry-After"))
	}

	// Another key is limited separately
	if rec := postJSON(t, h, "/analyze", body, map[string]string{"X-API-Key": "client-b"}); rec.Code != http.StatusOK {
		t.Errorf("other key status = %d", rec.Code)
	}
}

func TestRateLimiterWithoutRefill(t *testing.T) {
	rl := NewRateLimiter(0, 2, 0, nil)
	defer rl.Close()
	key := bucketKey{limitByIP, "192.0.2.9"}

	for i := range 2 {
		if ok, _ := rl.reserve(key); !ok {
			t.Fatalf("request %d should use the burst", i+1)
		}
	}
	ok, wait := rl.reserve(key)
	if ok || wait != 0 {
		t.Errorf("reserve() = %v, %v; want rejected with no retry hint", ok, wait)
	}
	if rl.evictIdle() != 0 {
		t.Error("buckets that never refill must not be evicted")
	}
}

func TestRateLimiterEvictsIdleBuckets(t *testing.T) {
	rl := NewRateLimiter(60, 5, time.Second, nil)
	defer rl.Close()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	rl.mu.Lock()
	rl.now = func() time.Time { return now }
	rl.mu.Unlock()

	rl.reserve(bucketKey{limitByIP, "192.0.2.1"})
	rl.reserve(bucketKey{limitByAPIKey, keyFingerprint("k")})

	stats := rl.Stats()
	if stats["active_buckets"] != 2 {
		t.Fatalf("stats = %v", stats)
	}
	if byKind := stats["active_by_kind"].(map[string]int); byKind[limitByIP] != 1 || byKind[limitByAPIKey] != 1 {
		t.Errorf("active_by_kind = %v", byKind)
	}
	// 5 tokens at 1/s take 5s to refill, longer than the configured second
	if stats["idle_timeout_secs"] != 5.0 {
		t.Errorf("idle timeout = %v, want refill time", stats["idle_timeout_secs"])
	}

	now = now.Add(4 * time.Second)
	if n := rl.evictIdle(); n != 0 {
		t.Errorf("evicted %d buckets before they refilled", n)
	}
	now = now.Add(2 * time.Second)
	if n := rl.evictIdle(); n != 2 {
		t.Errorf("evicted %d, want 2", n)
	}
}

func TestMaskAPIKey(t *testing.T) {
	if got := maskAPIKey("short"); got != "****" {
		t.Errorf("maskAPIKey(short) = %q", got)
	}
	if got := maskAPIKey("abcdefgh12345"); got != "abcdefgh****" {
		t.Errorf("maskAPIKey(long) = %q", got)
	}
}

func TestConfigureTLS(t *testing.T) {
	tests := []struct {
		name    string
		tls     config.TLSConfig
		wantErr bool
		wantTLS bool
	}{
		{"disabled", config.TLSConfig{Mode: "disabled"}, false, false},
		{"server without cert", config.TLSConfig{Mode: "server"}, true, false},
		{"unknown mode", config.TLSConfig{Mode: "sometimes"}, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, func(c *ServerConfig) { c.TLSConfig = tt.tls })
			httpServer := &http.Server{Addr: "127.0.0.1:0"}
			err := s.configureTLS(httpServer)
			if (err != nil) != tt.wantErr {
				t.Fatalf("configureTLS() error = %v, wantErr %v", err, tt.wantErr)
			}
			if (httpServer.TLSConfig != nil) != tt.wantTLS {
				t.Errorf("TLSConfig set = %v", httpServer.TLSConfig != nil)
			}
		})
	}
}

func TestStartStopsOnContextCancel(t *testing.T) {
	s := newTestServer(t, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()
	cancel()

	if err := <-done; err != nil {
		t.Errorf("Start() error = %v", err)
	}
}
