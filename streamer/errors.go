package streamer

import "errors"

var (
	// ErrMissingDictionary is returned when a class is not registered.
	ErrMissingDictionary = errors.New("streamer: missing dictionary")
	// ErrUnsupportedType is returned for types that cannot be streamed.
	ErrUnsupportedType = errors.New("streamer: unsupported type")
	// ErrTypeMismatch is returned when a stored layout differs from the registered type.
	ErrTypeMismatch = errors.New("streamer: type mismatch")
	// ErrMalformed is returned when encoded bytes do not match the type.
	ErrMalformed = errors.New("streamer: malformed data")
)
