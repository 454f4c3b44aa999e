package book

import "errors"

var (
	// ErrInvalidIdentifier is returned when the requested identifier fails both
	// ISBN-10 and ISBN-13 validation. No provider is contacted.
	ErrInvalidIdentifier = errors.New("invalid ISBN")

	// ErrProviderTimeout marks a provider that did not answer before the deadline.
	ErrProviderTimeout = errors.New("provider timed out")

	// ErrProviderEmpty marks a provider that answered without any matching record.
	ErrProviderEmpty = errors.New("provider returned no data")

	// ErrEditionMismatch marks a provider payload rejected because its
	// identifiers describe a different edition.
	ErrEditionMismatch = errors.New("provider returned a different edition")

	// ErrNoUsableRecord is reported when no provider produced usable data.
	ErrNoUsableRecord = errors.New("no usable record")
)
