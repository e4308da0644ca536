// Package timezone resolves the effective local timezone used to
// express query boundaries. Providers expect boundary timestamps in
// the operator's local offset even though all returned data is UTC, so
// every window boundary is converted before being sent.
package timezone

import (
	"log/slog"
	"os"
	"strings"
	"time"
)

// Fallback is used when neither the configured nor the system timezone
// can be resolved.
const Fallback = "America/New_York"

// zoneinfo path prefixes seen in /etc/localtime symlink targets.
var zoneinfoPrefixes = []string{
	"/var/db/timezone/zoneinfo/",
	"/usr/share/zoneinfo/",
}

// Resolve returns a usable *time.Location, trying the configured
// identifier, then the host's /etc/localtime symlink, then Fallback.
// It never fails; each failed step emits a warning.
func Resolve(configured string, log *slog.Logger) *time.Location {
	if configured != "" {
		if loc, err := time.LoadLocation(configured); err == nil {
			return loc
		}
	}
	log.Warn("missing or invalid timezone in config, trying system timezone", slog.String("configured", configured))

	if name := systemZone(); name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	log.Warn("could not read the system timezone, falling back", slog.String("fallback", Fallback))

	if loc, err := time.LoadLocation(Fallback); err == nil {
		return loc
	}
	// No tzdata at all; UTC is the only location guaranteed to exist.
	return time.UTC
}

// systemZone derives a zone name from the /etc/localtime symlink
// target, stripping the known zoneinfo path prefixes.
func systemZone() string {
	target, err := os.Readlink("/etc/localtime")
	if err != nil {
		return ""
	}
	for _, prefix := range zoneinfoPrefixes {
		if rest, ok := strings.CutPrefix(target, prefix); ok {
			return rest
		}
	}
	return ""
}
