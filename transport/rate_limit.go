package transport

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	HeaderRateLimitLimit     = "x-rate-limit-limit"
	HeaderRateLimitRemaining = "x-rate-limit-remaining"
	HeaderRateLimitReset     = "x-rate-limit-reset"
)

// RateLimit mirrors the x-rate-limit-* response headers. Reset is in epoch
// seconds. Missing or invalid headers read as zero.
type RateLimit struct {
	Limit     int
	Remaining int
	Reset     int64
}

func ParseRateLimit(headers http.Header) RateLimit {
	if headers == nil {
		return RateLimit{}
	}
	return RateLimit{
		Limit:     int(parseHeaderInt(headers, HeaderRateLimitLimit)),
		Remaining: int(parseHeaderInt(headers, HeaderRateLimitRemaining)),
		Reset:     parseHeaderInt(headers, HeaderRateLimitReset),
	}
}

func (r RateLimit) ResetAt() time.Time {
	if r.Reset <= 0 {
		return time.Time{}
	}
	return time.Unix(r.Reset, 0).UTC()
}

func parseHeaderInt(headers http.Header, key string) int64 {
	value, err := strconv.ParseInt(strings.TrimSpace(headers.Get(key)), 10, 64)
	if err != nil {
		return 0
	}
	return value
}
