package document

import "errors"

// ErrParseHTML is returned when the page markup cannot be parsed
var ErrParseHTML = errors.New("failed to parse html document")
