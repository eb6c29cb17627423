// Package version provides the library version and server version parsing.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Library is the version of this client library. It is reported by the
// CLI and used as the default client name sent to the server.
const Library = "1.0.0"

// ServerVersion represents a parsed "major.minor.patch" server version,
// as reported in the server_version field of an INFO reply.
type ServerVersion struct {
	Major uint16
	Minor uint16
	Patch uint16
}

// Parse parses a "major.minor.patch" version string. A missing patch
// component is treated as zero, since some servers report only two
// components.
func Parse(s string) (ServerVersion, error) {
	parts := strings.Split(s, ".")
	if len(parts) < 2 || len(parts) > 3 {
		return ServerVersion{}, fmt.Errorf("invalid version %q: expected major.minor[.patch]", s)
	}

	nums := make([]uint16, 3)
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 16)
		if err != nil || p == "" {
			return ServerVersion{}, fmt.Errorf("invalid version %q: bad component %q", s, p)
		}
		nums[i] = uint16(n)
	}

	return ServerVersion{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// String returns the version as "major.minor.patch".
func (v ServerVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// AtLeast reports whether v is the same as or newer than other.
func (v ServerVersion) AtLeast(other ServerVersion) bool {
	if v.Major != other.Major {
		return v.Major > other.Major
	}
	if v.Minor != other.Minor {
		return v.Minor > other.Minor
	}
	return v.Patch >= other.Patch
}

// FromInfo extracts the server version from the text of an INFO reply.
// It scans for a "redis_version:" or "server_version:" line.
func FromInfo(info string) (ServerVersion, error) {
	for _, line := range strings.Split(info, "\n") {
		line = strings.TrimRight(line, "\r")
		for _, key := range []string{"redis_version:", "server_version:"} {
			if v, ok := strings.CutPrefix(line, key); ok {
				return Parse(v)
			}
		}
	}
	return ServerVersion{}, fmt.Errorf("no version field in INFO reply")
}
