package cmd

import (
	"strings"

	"github.com/warpdl/murl/common"
)

// userAgents maps the short names accepted by --user-agent to full strings.
var userAgents = map[string]string{
	"murl":    common.DefaultUserAgent,
	"firefox": "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0",
	"chrome":  "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
}

func getUserAgent(s string) string {
	if ua, ok := userAgents[strings.ToLower(s)]; ok {
		return ua
	}
	return s
}
