package domain

import "errors"

var (
	ErrProviderUnavailable     = errors.New("routing provider unavailable")
	ErrProviderDataMalformed   = errors.New("routing provider returned malformed data")
	ErrCredentialRefreshFailed = errors.New("credential refresh failed")
	ErrDeliveryFailed          = errors.New("notification delivery failed")
	ErrDepartureNotFound       = errors.New("pending departure not found")
	ErrInvalidTravelMode       = errors.New("invalid travel mode")
	ErrAddressNotFound         = errors.New("address could not be geocoded")
)
