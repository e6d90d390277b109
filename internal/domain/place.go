package domain

// GeocodeResult is one resolved address.
type GeocodeResult struct {
	Query       string
	RoadAddress string
	Coord       Coordinate
}

// Place is one local search hit.
type Place struct {
	Title       string
	Category    string
	Address     string
	RoadAddress string
	Coord       Coordinate
}
