package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/fakhrymubarak/weather-widget/internal/model"
	"golang.org/x/time/rate"
)

// noParam is the bucket used when a request carries no key.
const noParam = "__none__"

// KeyFunc extracts the per-request key (a city, a session id) limited on top of the per-IP budget.
type KeyFunc func(r *http.Request) string

// QueryKey limits per value of a query parameter.
func QueryKey(name string) KeyFunc {
	return func(r *http.Request) string {
		return strings.ToLower(strings.TrimSpace(r.URL.Query().Get(name)))
	}
}

// Limit is a budget in requests per minute with an instant burst.
type Limit struct {
	PerMinute float64
	Burst     int
}

func (l Limit) limiter() *rate.Limiter {
	return rate.NewLimiter(rate.Limit(l.PerMinute/60.0), l.Burst)
}

// visitor holds the rate limiter and last seen time for one bucket.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter enforces a global budget per client IP and a smaller one per IP and key.
type RateLimiter struct {
	global  Limit
	param   Limit
	keyFunc KeyFunc
	idle    time.Duration

	muGlobal       sync.Mutex
	globalVisitors map[string]*visitor // ip
	muParam        sync.Mutex
	paramVisitors  map[string]map[string]*visitor // ip -> key
}

// NewRateLimiter creates a limiter; idle is how long an unused bucket is kept.
func NewRateLimiter(global, param Limit, idle time.Duration, keyFunc KeyFunc) *RateLimiter {
	return &RateLimiter{
		global:         global,
		param:          param,
		keyFunc:        keyFunc,
		idle:           idle,
		globalVisitors: make(map[string]*visitor),
		paramVisitors:  make(map[string]map[string]*visitor),
	}
}

func (rl *RateLimiter) getGlobalLimiter(ip string) *rate.Limiter {
	rl.muGlobal.Lock()
	defer rl.muGlobal.Unlock()
	v, exists := rl.globalVisitors[ip]
	if !exists {
		v = &visitor{limiter: rl.global.limiter()}
		rl.globalVisitors[ip] = v
	}
	v.lastSeen = time.Now()
	return v.limiter
}

func (rl *RateLimiter) getParamLimiter(ip, key string) *rate.Limiter {
	rl.muParam.Lock()
	defer rl.muParam.Unlock()
	if _, ok := rl.paramVisitors[ip]; !ok {
		rl.paramVisitors[ip] = make(map[string]*visitor)
	}
	v, exists := rl.paramVisitors[ip][key]
	if !exists {
		v = &visitor{limiter: rl.param.limiter()}
		rl.paramVisitors[ip][key] = v
	}
	v.lastSeen = time.Now()
	return v.limiter
}

// Cleanup drops buckets not seen for longer than the idle timeout.
func (rl *RateLimiter) Cleanup() {
	rl.muGlobal.Lock()
	for ip, v := range rl.globalVisitors {
		if time.Since(v.lastSeen) > rl.idle {
			delete(rl.globalVisitors, ip)
		}
	}
	rl.muGlobal.Unlock()

	rl.muParam.Lock()
	for ip, keys := range rl.paramVisitors {
		for key, v := range keys {
			if time.Since(v.lastSeen) > rl.idle {
				delete(keys, key)
			}
		}
		if len(keys) == 0 {
			delete(rl.paramVisitors, ip)
		}
	}
	rl.muParam.Unlock()
}

// Run calls Cleanup every interval until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Cleanup()
		}
	}
}

// Reset clears all buckets.
func (rl *RateLimiter) Reset() {
	rl.muGlobal.Lock()
	clear(rl.globalVisitors)
	rl.muGlobal.Unlock()
	rl.muParam.Lock()
	clear(rl.paramVisitors)
	rl.muParam.Unlock()
}

// getIP extracts the client's IP address from the HTTP request, considering X-Forwarded-For headers.
func getIP(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr // fallback
	}
	return ip
}

// Middleware rejects requests over budget with 429 and a JSON error.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := getIP(r)
		key := noParam
		if rl.keyFunc != nil {
			if k := rl.keyFunc(r); k != "" {
				key = k
			}
		}

		if !rl.getGlobalLimiter(ip).Allow() {
			tooManyRequests(w, fmt.Sprintf("Rate limit exceeded: max %g requests per minute per user/IP", rl.global.PerMinute), "Too Many Requests (global limit)")
			return
		}
		if !rl.getParamLimiter(ip, key).Allow() {
			tooManyRequests(w, fmt.Sprintf("Rate limit exceeded: max %g requests per minute for the same query per user/IP", rl.param.PerMinute), "Too Many Requests (per-param limit)")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func tooManyRequests(w http.ResponseWriter, errMsg, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	resp := model.Failure(errMsg)
	resp.Message = message
	_ = json.NewEncoder(w).Encode(resp)
}
