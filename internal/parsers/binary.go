package parsers

import (
	"errors"

	"github.com/quizforge/quizforge-core/internal/core/domain"
)

// BinarySupport reports whether binary document formats may be parsed.
// *domain.RuntimeConfig satisfies it.
type BinarySupport interface {
	BinaryFormatsAvailable() bool
}

var errBinaryDisabled = errors.New("binary document support is disabled")

// checkBinarySupport fails with ErrDependencyUnavailable when support is off.
// A nil BinarySupport means always available.
func checkBinarySupport(caps BinarySupport, format domain.Format, in domain.ParseInput) error {
	if caps == nil || caps.BinaryFormatsAvailable() {
		return nil
	}
	return withPath(domain.NewParseError(domain.ErrDependencyUnavailable, format, errBinaryDisabled), in)
}
