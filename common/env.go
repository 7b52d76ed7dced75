// Package common holds defaults and types shared by the murl command and
// its supporting packages.
package common

// Environment variable names for configuration.
const (
	// UserAgentEnv overrides the User-Agent sent with every transfer.
	UserAgentEnv = "MURL_USER_AGENT"

	// ProxyEnv routes transfers through an http, https or socks5 proxy.
	ProxyEnv = "MURL_PROXY"

	// HistoryDBEnv is the path of the run history database.
	HistoryDBEnv = "MURL_HISTORY_DB"

	// LogFileEnv is a file that receives a copy of the log output.
	LogFileEnv = "MURL_LOG_FILE"

	// DebugEnv enables debug logging.
	DebugEnv = "MURL_DEBUG"
)
