package server

import (
	"net"

	"golang.org/x/time/rate"
)

// admission intercepts new connections from IPs that connect too often.
// Whitelisted IPs are never limited. A nil admission allows everything.
type admission struct {
	limiter   *ipRateLimiter
	whiteList map[string]struct{}
}

func newAdmission(cfg *LimiterConfig) *admission {
	if cfg == nil {
		return nil
	}
	a := &admission{
		limiter:   newIPRateLimiter(rate.Limit(cfg.Rate), cfg.Burst),
		whiteList: make(map[string]struct{}, len(cfg.WhiteList)),
	}
	for _, ip := range cfg.WhiteList {
		a.whiteList[ip] = struct{}{}
	}
	return a
}

func (a *admission) allow(addr net.Addr) bool {
	if a == nil {
		return true
	}

	ip := addr.String()
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	if _, ok := a.whiteList[ip]; ok {
		return true
	}
	return a.limiter.getLimiter(ip).Allow()
}
