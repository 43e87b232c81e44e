package logging

import (
	"log/slog"
	"net/url"
	"regexp"
	"strings"
)

// Common log attribute keys for consistent naming across the codebase.
const (
	KeyProvider     = "provider"
	KeyCluster      = "cluster"
	KeyOperation    = "operation"
	KeyNamespace    = "namespace"
	KeyResourceType = "resource_type"
	KeyResourceName = "resource_name"
	KeyWatchID      = "watch_id"
	KeyError        = "error"
	KeyHost         = "host"
)

// ipv4Regex matches IPv4 addresses for sanitization.
var ipv4Regex = regexp.MustCompile(`\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}`)

// ipv6Regex matches IPv6 addresses for sanitization, including compressed
// and bracketed (URL) forms.
var ipv6Regex = regexp.MustCompile(`\[?([0-9a-fA-F]{0,4}:){2,7}[0-9a-fA-F]{0,4}\]?`)

// WithProvider returns a logger with the provider attribute set.
func WithProvider(logger *slog.Logger, provider string) *slog.Logger {
	return logger.With(slog.String(KeyProvider, provider))
}

// WithCluster returns a logger with the cluster attribute set.
func WithCluster(logger *slog.Logger, cluster string) *slog.Logger {
	return logger.With(slog.String(KeyCluster, cluster))
}

// Provider returns a slog attribute for the provider type.
func Provider(p string) slog.Attr {
	return slog.String(KeyProvider, p)
}

// Cluster returns a slog attribute for the cluster name.
func Cluster(name string) slog.Attr {
	return slog.String(KeyCluster, name)
}

// Operation returns a slog attribute for the operation name.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Namespace returns a slog attribute for the namespace.
func Namespace(ns string) slog.Attr {
	return slog.String(KeyNamespace, ns)
}

// ResourceType returns a slog attribute for the resource type.
func ResourceType(rt string) slog.Attr {
	return slog.String(KeyResourceType, rt)
}

// ResourceName returns a slog attribute for the resource name.
func ResourceName(name string) slog.Attr {
	return slog.String(KeyResourceName, name)
}

// WatchID returns a slog attribute for a watch stream identifier.
func WatchID(id string) slog.Attr {
	return slog.String(KeyWatchID, id)
}

// Err returns a slog attribute for an error.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

// SanitizedErr returns a slog attribute for an error with IP addresses
// redacted. Use it when logging errors that may contain cluster API server
// addresses, which could leak network topology information.
func SanitizedErr(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, SanitizeHost(err.Error()))
}

// Host returns a slog attribute for a host with IP addresses sanitized.
func Host(host string) slog.Attr {
	return slog.String(KeyHost, SanitizeHost(host))
}

// SanitizeHost returns a sanitized version of the host for logging purposes.
// IP addresses (IPv4 and IPv6) are redacted to keep cluster endpoints out of
// logs while preserving enough context for debugging.
//
// Examples:
//   - "https://192.168.1.100:6443" -> "https://<redacted-ip>:6443"
//   - "https://api.cluster.example.com:6443" -> unchanged
//   - "https://[2001:db8::1]:6443" -> "https://<redacted-ip>:6443"
//   - "" -> "<empty>"
func SanitizeHost(host string) string {
	if host == "" {
		return "<empty>"
	}

	redactIPs := func(s string) string {
		result := ipv4Regex.ReplaceAllString(s, "<redacted-ip>")
		result = ipv6Regex.ReplaceAllString(result, "<redacted-ip>")
		return result
	}

	if !strings.Contains(host, "://") {
		return redactIPs(host)
	}

	parsed, err := url.Parse(host)
	if err != nil {
		return redactIPs(host)
	}

	if ipv4Regex.MatchString(parsed.Host) || ipv6Regex.MatchString(parsed.Host) {
		parsed.Host = redactIPs(parsed.Host)
		return parsed.String()
	}

	return host
}
