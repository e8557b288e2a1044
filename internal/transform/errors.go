package transform

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDepthExceeded is matched with errors.Is against any *DepthExceededError.
var ErrDepthExceeded = errors.New("document too deeply nested")

const (
	childrenSegment = ".children"

	// children levels kept on each side when a path is shortened
	shortPathKeep = 3
)

// DepthExceededError reports the first item found below the depth limit.
type DepthExceededError struct {
	Limit int
	Path  string
}

func (e *DepthExceededError) Error() string {
	return fmt.Sprintf("%s: %s is deeper than %d levels", ErrDepthExceeded, e.ShortPath(), e.Limit)
}

func (e *DepthExceededError) Unwrap() error {
	return ErrDepthExceeded
}

// ShortPath is Path with the middle children levels elided, for logs and
// responses. Path keeps the full location.
func (e *DepthExceededError) ShortPath() string {
	parts := strings.Split(e.Path, childrenSegment)
	if len(parts) <= 2*shortPathKeep+1 {
		return e.Path
	}

	head := strings.Join(parts[:shortPathKeep+1], childrenSegment)
	tail := childrenSegment + strings.Join(parts[len(parts)-shortPathKeep:], childrenSegment)
	skipped := len(parts) - 1 - 2*shortPathKeep
	return fmt.Sprintf("%s...(%d levels)...%s", head, skipped, tail)
}
