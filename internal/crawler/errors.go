package crawler

import "errors"

// ErrInvalidSeed is returned when a seed URL cannot be normalized into
// an absolute crawlable URL.
var ErrInvalidSeed = errors.New("crawler: invalid seed url")
