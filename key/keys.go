// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// Resolver Configuration - these keys locate and select the resolver snapshot.
const (
	ResolversSource        = "resolvers.source"
	ResolversDefault       = "resolvers.default"
	ResolversCacheLifetime = "resolvers.cache_lifetime"
)

// Network Transport - these keys tune the HTTP client used against resolver endpoints.
const (
	NetworkTimeout        = "network.timeout"
	NetworkUserAgent      = "network.user_agent"
	NetworkTLSFingerprint = "network.tls_fingerprint"
)

// Browser Sniffing - these keys control the headless rendering backend.
const (
	SniffEnabled    = "sniff.enabled"
	SniffTimeout    = "sniff.timeout"
	SniffHeadless   = "sniff.headless"
	SniffBrowserBin = "sniff.browser_bin"
)

// Classification Rules - these keys extend the built-in rule tables.
const (
	RulesAds = "rules.ads"
)

// Resolution - these keys govern batch resolution from the command line.
const (
	ResolveConcurrency = "resolve.concurrency"
)

// Iconography - these keys manage the visual rendering of UI symbols.
const (
	IconsVariant = "icons.variant"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment - these flags and settings govern the non-interactive application behavior.
const (
	CliColored      = "cli.colored"
	CliVersionCheck = "cli.version_check"
)
