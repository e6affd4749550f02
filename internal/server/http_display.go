package server

import (
	"fmt"
	"io"
)

// displayServerInfo prints the server configuration at startup
func (s *Server) displayServerInfo(w io.Writer) {
	s.displayEndpoints(w)
	s.displayAuthInfo(w)
	s.displayRequestLimitInfo(w)
	s.displayRateLimitInfo(w)
}

func (s *Server) displayEndpoints(w io.Writer) {
	scheme := "http"
	if s.TLSConfig.Mode == "server" || s.TLSConfig.Mode == "mutual" {
		scheme = "https"
	}
	fmt.Fprintf(w, "atscore %s listening on %s://%s:%s\n", s.Version, scheme, s.Host, s.Port)
	fmt.Fprintln(w, "Available endpoints:")
	fmt.Fprintln(w, "  GET  /health        - Health check")
	fmt.Fprintln(w, "  GET  /stats         - Server statistics")
	fmt.Fprintln(w, "  POST /analyze       - Score resume text")
	fmt.Fprintln(w, "  POST /analyze/file  - Score an uploaded resume (multipart)")
	fmt.Fprintln(w, "  POST /structure     - Structure resume text")
}

func (s *Server) displayAuthInfo(w io.Writer) {
	if len(s.APIKeys) > 0 {
		fmt.Fprintf(w, "API authentication: ENABLED (%d keys configured)\n", len(s.APIKeys))
		return
	}
	fmt.Fprintln(w, "API authentication: DISABLED (no API keys configured)")
	fmt.Fprintln(w, "WARNING: API endpoints are publicly accessible!")
}

func (s *Server) displayRequestLimitInfo(w io.Writer) {
	if s.MaxRequestSize > 0 {
		fmt.Fprintf(w, "Request size limit: %d bytes (%.1f MB)\n", s.MaxRequestSize, float64(s.MaxRequestSize)/(1024*1024))
		return
	}
	fmt.Fprintln(w, "Request size limit: DISABLED")
}

func (s *Server) displayRateLimitInfo(w io.Writer) {
	if s.RateLimiter == nil {
		fmt.Fprintln(w, "Rate limiting: DISABLED")
		return
	}
	fmt.Fprintf(w, "Rate limiting: ENABLED (%d requests/min, burst: %d)\n",
		s.RateLimit.RequestsPerMin, s.RateLimit.BurstCapacity)
	if s.RateLimit.ByAPIKey {
		fmt.Fprintln(w, "  - Per API key rate limiting enabled")
	}
	if s.RateLimit.ByIP {
		fmt.Fprintln(w, "  - Per IP address rate limiting enabled")
	}
	if s.RateLimiter.idleTimeout > 0 {
		fmt.Fprintf(w, "  - Idle client buckets evicted after %s\n", s.RateLimiter.idleTimeout)
	}
}
