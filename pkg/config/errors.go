package config

import "errors"

var (
	// ErrConfigInvalid is returned when the config file cannot be parsed or
	// breaks a constraint.
	ErrConfigInvalid = errors.New("invalid config")

	// ErrConfigNotFound is returned when the config file does not exist.
	ErrConfigNotFound = errors.New("config file not found")
)
