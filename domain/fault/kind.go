// Package fault provides the error taxonomy and recovery model for the host.
package fault

// Kind classifies a fault into one of a closed set of categories.
// A fault's kind is assigned once at classification time and never changes.
type Kind string

const (
	KindNetwork    Kind = "network"
	KindAPI        Kind = "api"
	KindTimeout    Kind = "timeout"
	KindAuth       Kind = "auth"
	KindRateLimit  Kind = "ratelimit"
	KindValidation Kind = "validation"
	KindFile       Kind = "file"
	KindRemoteTool Kind = "remotetool"
	KindProvider   Kind = "provider"
	KindUnknown    Kind = "unknown"
)

// IsValid returns true if the kind is a recognized category.
func (k Kind) IsValid() bool {
	switch k {
	case KindNetwork, KindAPI, KindTimeout, KindAuth, KindRateLimit,
		KindValidation, KindFile, KindRemoteTool, KindProvider, KindUnknown:
		return true
	default:
		return false
	}
}

// String returns the string representation of the kind.
func (k Kind) String() string {
	return string(k)
}

// AllKinds returns every recognized fault kind.
func AllKinds() []Kind {
	return []Kind{
		KindNetwork,
		KindAPI,
		KindTimeout,
		KindAuth,
		KindRateLimit,
		KindValidation,
		KindFile,
		KindRemoteTool,
		KindProvider,
		KindUnknown,
	}
}
