package clientinfo

import (
	"fmt"

	"golang.org/x/mod/semver"
)

// Error codes returned to the UI.
const (
	CodeClientRequired     = "client_header_required"
	CodeVersionUnsupported = "client_version_unsupported"
)

// VersionError is returned when the client build is older than the minimum.
type VersionError struct {
	Code          string
	Message       string
	ClientVersion string
	MinVersion    string
}

func (e *VersionError) Error() string {
	return e.Message
}

// CheckVersion rejects client versions below minVersion.
// An empty minVersion accepts everything. Once a minimum is set, a client
// that sends no version or a non-semver one is treated as too old.
func CheckVersion(minVersion, clientVersion string) error {
	if minVersion == "" {
		return nil
	}
	floor := normalizeVersion(minVersion)
	got := normalizeVersion(clientVersion)
	if !semver.IsValid(got) || semver.Compare(got, floor) < 0 {
		shown := clientVersion
		if shown == "" {
			shown = "(none)"
		}
		return &VersionError{
			Code:          CodeVersionUnsupported,
			Message:       fmt.Sprintf("client version %s is no longer supported, minimum is %s; reload the page", shown, minVersion),
			ClientVersion: clientVersion,
			MinVersion:    minVersion,
		}
	}
	return nil
}

// ValidVersion reports whether v parses as semver, with or without a "v" prefix.
func ValidVersion(v string) bool {
	return v != "" && semver.IsValid(normalizeVersion(v))
}

// normalizeVersion adds "v" prefix if needed for semver parsing.
func normalizeVersion(v string) string {
	if v == "" {
		return ""
	}
	if v[0] != 'v' {
		return "v" + v
	}
	return v
}
