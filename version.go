// Package tripwing provides the version information for tripwing.
package tripwing

// Version is the current version of tripwing.
const Version = "0.1.0"

// GetVersion returns the current version string.
func GetVersion() string {
	return Version
}
