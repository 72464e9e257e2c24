package config

import "errors"

var (
	// ErrConfigNotFound is returned when the policy file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")

	// ErrUnsupportedTag is returned for tag names other than img and iframe.
	ErrUnsupportedTag = errors.New("unsupported tag")

	// ErrInvalidValue is returned for malformed settings.
	ErrInvalidValue = errors.New("invalid value")
)
