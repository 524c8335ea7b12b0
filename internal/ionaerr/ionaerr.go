// Package ionaerr holds the one error kind the Diagnostic Engine never
// recovers from: InternalCompilerError (spec §7). Everything else the
// compiler notices about a broken program becomes a diag.Diagnostic
// instead, because it can be continued past; an invariant breach inside the
// compiler itself cannot.
package ionaerr

import (
	"errors"
	"fmt"

	"github.com/BurntChromium/iona-lang/internal/source"
)

// internalError is an invariant breach inside the compiler, as opposed to a
// problem with the program it is compiling. Modeled on tqerrors'
// interpreterError split between a technical message and wrapped cause.
type internalError struct {
	msg   string
	trail []source.Span
	wrap  error
}

func (e *internalError) Error() string {
	return e.msg
}

// Trail returns the spans that were active (innermost last) when the
// invariant broke, for printing a stack-like trail alongside the panic.
func (e *internalError) Trail() []source.Span {
	return e.trail
}

func (e *internalError) Unwrap() error {
	return e.wrap
}

// Internal returns a new InternalCompilerError carrying trail, the spans
// active when the invariant broke, innermost last.
func Internal(msg string, trail ...source.Span) error {
	return &internalError{msg: msg, trail: trail}
}

// Internalf is Internal with Printf-style formatting.
func Internalf(trail []source.Span, format string, args ...any) error {
	return Internal(fmt.Sprintf(format, args...), trail...)
}

// WrapInternal wraps an existing error as an InternalCompilerError, keeping
// its trail for diagnosis.
func WrapInternal(cause error, msg string, trail ...source.Span) error {
	return &internalError{msg: msg, trail: trail, wrap: cause}
}

// Trail extracts the span trail from err if it is (or wraps) an
// InternalCompilerError produced by this package, or nil otherwise.
func Trail(err error) []source.Span {
	var ie *internalError
	if errors.As(err, &ie) {
		return ie.trail
	}
	return nil
}
