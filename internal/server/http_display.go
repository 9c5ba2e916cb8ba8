package server

import "fmt"

// displayServerInfo shows server configuration information
func (s *Server) displayServerInfo() {
	scheme := "http"
	if s.TLSConfig.Mode == "server" {
		scheme = "https"
	}
	fmt.Printf("DreamForge API listening on %s://%s:%s\n", scheme, s.Host, s.Port)
	s.displayEndpoints()
	s.displayRequestLimitInfo()
	s.displayRateLimitInfo()
}

// displayEndpoints shows available API endpoints
func (s *Server) displayEndpoints() {
	fmt.Println("Available endpoints:")
	fmt.Println("  GET  /health                  - Health check")
	fmt.Println("  GET  /stats                   - Server statistics")
	fmt.Println("  POST /api/auth/register       - Create an account")
	fmt.Println("  POST /api/auth/signin         - Sign in, returns a session token")
	fmt.Println("  GET  /api/me                  - Profile and skills (session)")
	fmt.Println("  POST /api/onboarding          - Onboarding answers (session)")
	fmt.Println("  POST /api/resume              - Analyze resume text (session)")
	fmt.Println("  POST /api/resume/upload       - Analyze an uploaded resume file (session)")
	fmt.Println("  POST /api/checkin             - Daily check-in (session)")
	fmt.Println("  GET  /api/jobs?q=             - Matched job postings (session)")
	fmt.Println("  POST /api/interview/feedback  - Interview answer feedback (session)")
	fmt.Println("  POST /api/chat                - Career assistant chat (session)")
	fmt.Println("  POST /api/gap                 - Skill gap analysis (session)")
	fmt.Println("  GET  /api/lab/projection      - What-if career projection (session)")
}

// displayRequestLimitInfo shows request size limit configuration
func (s *Server) displayRequestLimitInfo() {
	if s.MaxRequestSize > 0 {
		fmt.Printf("Request size limit: %d bytes (%.1f MB), uploads %d bytes\n",
			s.MaxRequestSize, float64(s.MaxRequestSize)/(1024*1024), s.uploadLimit())
	} else {
		fmt.Println("Request size limit: DISABLED")
		fmt.Println("WARNING: No request size limits configured!")
	}
}

// displayRateLimitInfo shows rate limiting configuration
func (s *Server) displayRateLimitInfo() {
	if s.RateLimit != nil && s.RateLimit.Enabled {
		fmt.Printf("Rate limiting: ENABLED (%d requests/min, burst: %d)\n",
			s.RateLimit.RequestsPerMin, s.RateLimit.BurstCapacity)
		if s.RateLimit.ByUser {
			fmt.Println("  - Per session rate limiting enabled")
		}
		if s.RateLimit.ByIP {
			fmt.Println("  - Per IP address rate limiting enabled")
		}
	} else {
		fmt.Println("Rate limiting: DISABLED")
		fmt.Println("WARNING: No rate limiting configured!")
	}
}
