// Package precheck validates privilege and platform before any other
// component touches state. It is pure predicate logic over values the
// caller supplies, so the checks are testable without root.
package precheck

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"wg-engarde/pkg/model"
)

// RequireRoot fails unless the effective UID is 0.
func RequireRoot(euid int) error {
	if euid != 0 {
		return fmt.Errorf("%w: re-run as root (euid=%d)", model.ErrPermission, euid)
	}
	return nil
}

// RequirePlatform checks the os-release ID/VERSION_ID pair against the
// configured minimum major version per distribution.
func RequirePlatform(osRelease map[string]string, floors map[string]int) error {
	id := strings.ToLower(strings.TrimSpace(osRelease["ID"]))
	if id == "" {
		return fmt.Errorf("%w: missing ID in os-release", model.ErrUnsupportedPlatform)
	}
	floor, ok := floors[id]
	if !ok {
		return fmt.Errorf("%w: %s", model.ErrUnsupportedPlatform, id)
	}
	major := majorVersion(osRelease["VERSION_ID"])
	if major < floor {
		return fmt.Errorf("%w: %s %s (minimum %d)", model.ErrUnsupportedPlatform, id, osRelease["VERSION_ID"], floor)
	}
	return nil
}

// Run performs both checks against the live host.
func Run(floors map[string]int) error {
	if err := RequireRoot(os.Geteuid()); err != nil {
		return err
	}
	raw, err := os.ReadFile("/etc/os-release")
	if err != nil {
		return fmt.Errorf("%w: cannot read /etc/os-release: %v", model.ErrUnsupportedPlatform, err)
	}
	return RequirePlatform(ParseOSRelease(string(raw)), floors)
}

// ParseOSRelease parses the key=value lines of /etc/os-release.
func ParseOSRelease(raw string) map[string]string {
	out := map[string]string{}
	for _, ln := range strings.Split(raw, "\n") {
		ln = strings.TrimSpace(ln)
		if ln == "" || strings.HasPrefix(ln, "#") {
			continue
		}
		k, v, ok := strings.Cut(ln, "=")
		if !ok {
			continue
		}
		out[strings.TrimSpace(k)] = strings.Trim(strings.TrimSpace(v), `"`)
	}
	return out
}

func majorVersion(versionID string) int {
	versionID = strings.Trim(strings.TrimSpace(versionID), `"`)
	if i := strings.Index(versionID, "."); i > 0 {
		versionID = versionID[:i]
	}
	n, err := strconv.Atoi(versionID)
	if err != nil {
		return 0
	}
	return n
}
