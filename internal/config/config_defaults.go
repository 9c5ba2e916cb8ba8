package config

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// AI Configuration - Global defaults
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.model", "gemini-2.0-flash")
	v.SetDefault("ai.timeout", 60*time.Second)
	v.SetDefault("ai.apiKey", "")
	v.SetDefault("ai.maxRetries", 3)
	v.SetDefault("ai.temperature", 0.7)
	v.SetDefault("ai.maxOutputTokens", 2048)
	v.SetDefault("ai.useSystemPrompts", true)

	// Resume analysis wants stable, structured output
	v.SetDefault("ai.ingest.timeout", 90*time.Second)
	v.SetDefault("ai.ingest.maxRetries", 2)
	v.SetDefault("ai.ingest.temperature", 0.2)

	v.SetDefault("ai.interview.timeout", 60*time.Second)
	v.SetDefault("ai.interview.temperature", 0.3)

	v.SetDefault("ai.chat.timeout", 45*time.Second)
	v.SetDefault("ai.chat.temperature", 0.7)
	v.SetDefault("ai.chat.maxOutputTokens", 1024)
	v.SetDefault("ai.chat.maxRetries", 1)

	v.SetDefault("ai.gap.timeout", 60*time.Second)
	v.SetDefault("ai.gap.temperature", 0.3)

	for _, op := range []string{"ingest", "interview", "chat", "gap"} {
		prefix := "ai." + op + ".circuitBreaker."
		v.SetDefault(prefix+"enabled", true)
		v.SetDefault(prefix+"maxRequests", 3)
		v.SetDefault(prefix+"interval", 60*time.Second)
		v.SetDefault(prefix+"timeout", 60*time.Second)
		v.SetDefault(prefix+"minRequests", 3)
		v.SetDefault(prefix+"failureThreshold", 0.6)
	}

	// Server Configuration
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 120*time.Second) // AI calls can be slow
	v.SetDefault("server.idleTimeout", 120*time.Second)
	v.SetDefault("server.maxRequestSize", 1024*1024)
	v.SetDefault("server.maxUploadSize", 10*1024*1024)
	v.SetDefault("server.tls.mode", "disabled")
	v.SetDefault("server.tls.certFile", "")
	v.SetDefault("server.tls.keyFile", "")
	v.SetDefault("server.tls.minVersion", "1.2")
	v.SetDefault("server.rateLimit.enabled", false)
	v.SetDefault("server.rateLimit.requestsPerMin", 60)
	v.SetDefault("server.rateLimit.burstCapacity", 10)
	v.SetDefault("server.rateLimit.byIP", true)
	v.SetDefault("server.rateLimit.byUser", false)
	v.SetDefault("server.rateLimit.window", time.Minute)

	// Database Configuration
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.maxOpenConns", 20)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.connMaxLifetime", 30*time.Minute)
	v.SetDefault("database.autoMigrate", true)
	v.SetDefault("database.logQueries", false)

	// Auth Configuration
	v.SetDefault("auth.jwtSecret", "")
	v.SetDefault("auth.tokenTTL", 7*24*time.Hour)
	v.SetDefault("auth.issuer", "dreamforge")
	v.SetDefault("auth.bcryptCost", 10)

	// Career pipeline
	v.SetDefault("career.maxResumeChars", 4000)
	v.SetDefault("career.transactionalIngest", true)

	// Gamification
	v.SetDefault("gamification.checkInXP", 100)
	v.SetDefault("gamification.xpPerLevel", 1000)
	v.SetDefault("gamification.oncePerDay", false)

	// Job feeds
	v.SetDefault("jobs.feeds", []string{"adzuna", "remoteok"})
	v.SetDefault("jobs.timeout", 15*time.Second)
	v.SetDefault("jobs.maxRetries", 2)
	v.SetDefault("jobs.defaultQuery", "Software Engineer")
	v.SetDefault("jobs.defaultLocation", "India")
	v.SetDefault("jobs.resultsPerPage", 30)
	v.SetDefault("jobs.rulesFile", "")
	v.SetDefault("jobs.cache.enabled", true)
	v.SetDefault("jobs.cache.ttl", 15*time.Minute)
	v.SetDefault("jobs.cache.redisURL", "")
	v.SetDefault("jobs.cache.maxEntries", 500)
	v.SetDefault("jobs.warmup.enabled", false)
	v.SetDefault("jobs.warmup.schedule", "@every 30m")
	v.SetDefault("jobs.warmup.queries", []string{"Software Engineer"})
	v.SetDefault("jobs.adzuna.appId", "")
	v.SetDefault("jobs.adzuna.appKey", "")
	v.SetDefault("jobs.adzuna.country", "in")
	v.SetDefault("jobs.adzuna.baseURL", "https://api.adzuna.com/v1/api/jobs")
	v.SetDefault("jobs.adzuna.currencySymbol", "₹")
	v.SetDefault("jobs.adzuna.requestsPerSecond", 2.0)
	v.SetDefault("jobs.remoteok.baseURL", "https://remoteok.com/api")
	v.SetDefault("jobs.remoteok.userAgent", "dreamforge/1.0 (+https://dreamforge.dev)")
	v.SetDefault("jobs.circuitBreaker.enabled", true)
	v.SetDefault("jobs.circuitBreaker.maxRequests", 2)
	v.SetDefault("jobs.circuitBreaker.interval", 60*time.Second)
	v.SetDefault("jobs.circuitBreaker.timeout", 30*time.Second)
	v.SetDefault("jobs.circuitBreaker.minRequests", 3)
	v.SetDefault("jobs.circuitBreaker.failureThreshold", 0.6)

	// Storage
	v.SetDefault("storage.s3.enabled", false)
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.prefix", "resumes")

	// App Configuration
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "json")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown"})
	v.SetDefault("app.maxFileSize", 10*1024*1024)

	// Vault Configuration
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.secrets.geminiKey", "")
	v.SetDefault("vault.secrets.jwtSecret", "")
	v.SetDefault("vault.secrets.adzuna", "")
	v.SetDefault("vault.secrets.database", "")

	// Observability Configuration
	v.SetDefault("observability.enabled", true)
	v.SetDefault("observability.serviceName", "dreamforge")
	v.SetDefault("observability.serviceVersion", "")
	v.SetDefault("observability.serviceInstance", "")
	v.SetDefault("observability.consoleOutput", false)
	v.SetDefault("observability.sampleRate", 1.0)
	v.SetDefault("observability.tracing.enabled", true)
	v.SetDefault("observability.tracing.sampleRate", 1.0)
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)
	v.SetDefault("observability.customMetrics.aiOperations.enabled", true)
	v.SetDefault("observability.customMetrics.aiOperations.trackDuration", true)
	v.SetDefault("observability.customMetrics.aiOperations.trackTokenUsage", true)
	v.SetDefault("observability.customMetrics.aiOperations.trackModelInfo", true)
	v.SetDefault("observability.customMetrics.businessMetrics.enabled", true)
	v.SetDefault("observability.customMetrics.businessMetrics.trackSuccessRates", true)
	v.SetDefault("observability.customMetrics.businessMetrics.trackContentSizes", true)
	v.SetDefault("observability.customMetrics.infrastructure.enabled", true)
	v.SetDefault("observability.customMetrics.infrastructure.trackRateLimits", true)
	v.SetDefault("observability.customMetrics.infrastructure.trackJobFeeds", true)
	v.SetDefault("observability.console.enabled", false)
	v.SetDefault("observability.console.prettyPrint", true)
	v.SetDefault("observability.prometheus.enabled", true)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "9090")
	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})
	v.SetDefault("observability.healthCheck.timeout", 15*time.Second)
	v.SetDefault("observability.healthCheck.aiModelCheckTimeout", 10*time.Second)
}
