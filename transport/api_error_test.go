package transport

import (
	"net/http"
	"runtime"
	"testing"
)

func TestParseAPIError(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		ok      bool
		code    int
		message string
	}{
		{name: "single error", body: `{"errors":[{"message":"Sorry, that page does not exist","code":34}]}`, ok: true, code: 34, message: "Sorry, that page does not exist"},
		{name: "first of many", body: `{"errors":[{"message":"first","code":1},{"message":"second","code":2}]}`, ok: true, code: 1, message: "first"},
		{name: "missing code", body: `{"errors":[{"message":"no code"}]}`, ok: true, code: 0, message: "no code"},
		{name: "empty errors", body: `{"errors":[]}`},
		{name: "no errors key", body: `{"id":1}`},
		{name: "not json", body: `<html>fail</html>`},
		{name: "empty", body: ``},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			apiErr, ok := ParseAPIError([]byte(tc.body))
			if ok != tc.ok {
				t.Fatalf("expected ok=%v, got %v", tc.ok, ok)
			}
			if ok && (apiErr.Code != tc.code || apiErr.Message != tc.message) {
				t.Fatalf("unexpected api error %+v", apiErr)
			}
		})
	}
}

func TestParseRateLimit(t *testing.T) {
	headers := http.Header{}
	headers.Set(HeaderRateLimitLimit, "15")
	headers.Set(HeaderRateLimitRemaining, "3")
	headers.Set(HeaderRateLimitReset, "1422014401")

	limit := ParseRateLimit(headers)
	if limit.Limit != 15 || limit.Remaining != 3 || limit.Reset != 1422014401 {
		t.Fatalf("unexpected rate limit %+v", limit)
	}
	if limit.ResetAt().Unix() != 1422014401 {
		t.Fatalf("unexpected reset time %s", limit.ResetAt())
	}

	headers.Set(HeaderRateLimitRemaining, "lots")
	headers.Del(HeaderRateLimitReset)
	limit = ParseRateLimit(headers)
	if limit.Remaining != 0 || limit.Reset != 0 {
		t.Fatalf("expected invalid and missing values to read as zero, got %+v", limit)
	}
	if !limit.ResetAt().IsZero() {
		t.Fatalf("expected zero reset time")
	}
	if (ParseRateLimit(nil) != RateLimit{}) {
		t.Fatalf("expected zero rate limit for nil headers")
	}
}

func TestBuildUserAgent(t *testing.T) {
	got := BuildUserAgent("TwitterKitGo", "3.3.0")
	want := "TwitterKitGo/3.3.0 (" + runtime.GOOS + "; " + runtime.GOARCH + ")"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if got := BuildUserAgent("Kit☃", "1.0"); got != "Kit/1.0 ("+runtime.GOOS+"; "+runtime.GOARCH+")" {
		t.Fatalf("expected non-ascii runes removed, got %q", got)
	}
}
