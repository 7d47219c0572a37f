package config

import "time"

// Default values for configuration
const (
	DefaultAllowedUserIDs = Wildcard
	DefaultPollTimeout    = 10 * time.Second

	DefaultAIProvider           = "gemini"
	DefaultAIModel              = "gemini-2.0-flash"
	DefaultAITemperature        = 1.0
	DefaultAITimeout            = 2 * time.Minute
	DefaultAIMaxHistoryMessages = 40
	DefaultAIMaxRetries         = 2
	DefaultAIRetryDelay         = 2 * time.Second

	DefaultCurrencySearchBaseURL = "https://www.google.com"
	DefaultCurrencyUserAgent     = "" // Go default; search engines serve it the plain HTML page
	DefaultCurrencyTimeout       = 10 * time.Second
	DefaultCurrencyWorkers       = 4
	DefaultBreakerFailures       = 5
	DefaultBreakerCooldown       = time.Minute

	DefaultDBPath           = "storage.db"
	DefaultHistoryRetention = 30 * 24 * time.Hour

	DefaultLogLevel = "info"

	DefaultMetricsAddr = ":9090"
	DefaultMetricsPath = "/metrics"
)

// Default bot messages
const (
	DefaultMsgHelp = "/reset - Reset conversation\n" +
		"/help - Help menu\n\n"
	DefaultMsgNotAllowed  = "Sorry, you are not allowed to use this bot."
	DefaultMsgResetDone   = "Done!"
	DefaultMsgInlineTitle = "Ask ChatGPT"
)

// Default scheduled tasks
var defaultTasks = map[string]any{
	"sql_maintenance": map[string]any{"enabled": true, "schedule": "0 0 4 * * 0"},
	"history_cleanup": map[string]any{"enabled": true, "schedule": "0 30 3 * * *"},
}

var defaults = map[string]any{
	"telegram.allowed_user_ids": DefaultAllowedUserIDs,
	"telegram.poll_timeout":     DefaultPollTimeout,
	"telegram.proxy":            "",

	"ai.provider":             DefaultAIProvider,
	"ai.model":                DefaultAIModel,
	"ai.base_url":             "",
	"ai.temperature":          DefaultAITemperature,
	"ai.system_instruction":   "",
	"ai.timeout":              DefaultAITimeout,
	"ai.max_history_messages": DefaultAIMaxHistoryMessages,
	"ai.max_retries":          DefaultAIMaxRetries,
	"ai.retry_delay":          DefaultAIRetryDelay,

	"currency.search_base_url":  DefaultCurrencySearchBaseURL,
	"currency.user_agent":       DefaultCurrencyUserAgent,
	"currency.timeout":          DefaultCurrencyTimeout,
	"currency.workers":          DefaultCurrencyWorkers,
	"currency.breaker_failures": DefaultBreakerFailures,
	"currency.breaker_cooldown": DefaultBreakerCooldown,

	"database.path":              DefaultDBPath,
	"database.history_retention": DefaultHistoryRetention,

	"scheduler.tasks": defaultTasks,

	"logger.level": DefaultLogLevel,
	"logger.json":  false,

	"metrics.enabled": false,
	"metrics.addr":    DefaultMetricsAddr,
	"metrics.path":    DefaultMetricsPath,

	"messages.help":                 DefaultMsgHelp,
	"messages.not_allowed":          DefaultMsgNotAllowed,
	"messages.reset_done":           DefaultMsgResetDone,
	"messages.inline_title":         DefaultMsgInlineTitle,
	"messages.inline_thumbnail_url": "",
}
