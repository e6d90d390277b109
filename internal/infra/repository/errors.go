package repository

import "errors"

var (
	ErrInvalidDepartureData = errors.New("invalid departure data")
)
