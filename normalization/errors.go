package normalization

import "errors"

// ErrMalformedParts indicates normalization parts whose top-level shape is not
// exactly {base, fields}.
var ErrMalformedParts = errors.New("normalization: parts must have exactly base and fields")
