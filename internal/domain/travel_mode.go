package domain

import "strings"

// TravelMode selects which routing provider serves a search.
type TravelMode string

const (
	ModeWalking TravelMode = "walking"
	ModeCycling TravelMode = "cycling"
	ModeDriving TravelMode = "driving"
	ModeTransit TravelMode = "transit"
)

func (m TravelMode) String() string {
	return string(m)
}

func ParseTravelMode(s string) (TravelMode, error) {
	switch TravelMode(strings.ToLower(s)) {
	case ModeWalking:
		return ModeWalking, nil
	case ModeCycling:
		return ModeCycling, nil
	case ModeDriving:
		return ModeDriving, nil
	case ModeTransit:
		return ModeTransit, nil
	default:
		return "", ErrInvalidTravelMode
	}
}
