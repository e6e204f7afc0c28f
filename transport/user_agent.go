package transport

import (
	"fmt"
	"runtime"
	"strings"
)

const HeaderUserAgent = "User-Agent"

// BuildUserAgent formats client/version (GOOS; GOARCH) with non-ASCII runes
// removed.
func BuildUserAgent(client string, version string) string {
	return asciiOnly(fmt.Sprintf("%s/%s (%s; %s)",
		strings.TrimSpace(client),
		strings.TrimSpace(version),
		runtime.GOOS,
		runtime.GOARCH,
	))
}

func asciiOnly(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if r > 0x1F && r < 0x7F {
			b.WriteRune(r)
		}
	}
	return b.String()
}
