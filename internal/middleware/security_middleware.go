// Package middleware provides HTTP middleware components.
package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"

	"github.com/argusia/argus/internal/constants"
	"github.com/argusia/argus/internal/utils"
)

// RateLimit limits every client IP to limit requests per window.
// Counters live in an in-memory cache and reset when the window expires.
func RateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	counters := cache.New(window, 2*window)
	retryAfter := strconv.Itoa(int(window.Seconds()))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isExemptedPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			clientIP := getClientIP(r)

			count := 1
			if err := counters.Add(clientIP, 1, cache.DefaultExpiration); err != nil {
				n, err := counters.IncrementInt(clientIP, 1)
				if err != nil {
					// The entry expired between Add and IncrementInt.
					counters.Set(clientIP, 1, cache.DefaultExpiration)
					n = 1
				}
				count = n
			}

			if count > limit {
				log.Warn().
					Str("client_ip", clientIP).
					Str("path", r.URL.Path).
					Str("method", r.Method).
					Int("requests", count).
					Msg("Rate limit exceeded")

				w.Header().Set(constants.HeaderRetryAfter, retryAfter)
				utils.Error(w, constants.StatusTooManyRequests, constants.CodeTooManyRequests, constants.MsgRateLimited, nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// SecurityHeaders adds security-related HTTP headers to responses
func SecurityHeaders() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(constants.HeaderXContentTypeOptions, constants.ContentTypeOptionsNoSniff)
			w.Header().Set(constants.HeaderXFrameOptions, constants.FrameOptionsDeny)
			w.Header().Set(constants.HeaderXXSSProtection, constants.XSSProtectionModeBlock)
			w.Header().Set(constants.HeaderReferrerPolicy, constants.ReferrerPolicyStrictOrigin)
			w.Header().Set(constants.HeaderContentSecurityPolicy, constants.CSPDefaultSrc)

			next.ServeHTTP(w, r)
		})
	}
}

// NoStore marks responses as not cacheable. Analysis results describe
// minors and must not end up in shared caches.
func NoStore() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(constants.HeaderCacheControl, constants.CacheControlNoStore)
			w.Header().Set(constants.HeaderPragma, constants.PragmaNoCache)
			w.Header().Set(constants.HeaderExpires, constants.ExpiresZero)

			next.ServeHTTP(w, r)
		})
	}
}

// getClientIP extracts the client IP address from the request,
// taking into account common proxy headers.
func getClientIP(r *http.Request) string {
	if xForwardedFor := r.Header.Get(constants.HeaderXForwardedFor); xForwardedFor != "" {
		ips := strings.Split(xForwardedFor, ",")
		return strings.TrimSpace(ips[0])
	}

	if xRealIP := r.Header.Get("X-Real-IP"); xRealIP != "" {
		return xRealIP
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// isExemptedPath returns true if the path is not rate limited.
func isExemptedPath(path string) bool {
	exemptPrefixes := []string{
		constants.HealthPath,
		constants.VersionPath,
		constants.MetricsPath,
	}

	for _, prefix := range exemptPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}

	return false
}
