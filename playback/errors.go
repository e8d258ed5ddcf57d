package playback

import (
	"errors"
	"fmt"
)

// Resolution failures. Test with errors.Is; concrete errors wrap one of these.
var (
	ErrNoResolverAvailable = errors.New("no resolver available")
	ErrInvalidURL          = errors.New("invalid url")
	ErrInvalidResponse     = errors.New("invalid resolver response")
	ErrNoURLInResponse     = errors.New("no url in resolver response")
	ErrNetwork             = errors.New("network error")
	ErrTimeout             = errors.New("sniff timed out")
	ErrAllResolversFailed  = errors.New("all resolvers failed")
	ErrMaxDepthExceeded    = errors.New("max resolution depth exceeded")
	ErrUnsupported         = errors.New("unsupported")
)

// NetworkError wraps a transport failure so it matches both ErrNetwork and the cause.
func NetworkError(cause error) error {
	return fmt.Errorf("%w: %w", ErrNetwork, cause)
}

// Hard reports whether err must surface to the top-level caller.
// Every other failure is recoverable by trying another resolver.
func Hard(err error) bool {
	return errors.Is(err, ErrNoResolverAvailable) || errors.Is(err, ErrAllResolversFailed)
}
