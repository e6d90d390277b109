package config

import "os"

// ProviderConfig holds credentials and base URLs for the external mapping
// providers. Base URLs are overridable so tests can point at stub servers.
type ProviderConfig struct {
	TMapAppKey  string
	TMapBaseURL string

	ORSAPIKey  string
	ORSBaseURL string

	GoogleMapsAPIKey  string
	GoogleMapsBaseURL string

	NaverMapClientID     string
	NaverMapClientSecret string
	NaverMapBaseURL      string

	NaverSearchClientID     string
	NaverSearchClientSecret string
	NaverSearchBaseURL      string
}

func LoadProviderConfig() *ProviderConfig {
	return &ProviderConfig{
		TMapAppKey:  os.Getenv("TMAP_APP_KEY"),
		TMapBaseURL: getEnvOrDefault("TMAP_BASE_URL", "https://apis.openapi.sk.com"),

		ORSAPIKey:  os.Getenv("ORS_API_KEY"),
		ORSBaseURL: getEnvOrDefault("ORS_BASE_URL", "https://api.openrouteservice.org"),

		GoogleMapsAPIKey:  os.Getenv("GOOGLE_MAPS_API_KEY"),
		GoogleMapsBaseURL: getEnvOrDefault("GOOGLE_MAPS_BASE_URL", "https://maps.googleapis.com"),

		NaverMapClientID:     os.Getenv("NAVER_MAP_CLIENT_ID"),
		NaverMapClientSecret: os.Getenv("NAVER_MAP_CLIENT_SECRET"),
		NaverMapBaseURL:      getEnvOrDefault("NAVER_MAP_BASE_URL", "https://naveropenapi.apigw.ntruss.com"),

		NaverSearchClientID:     os.Getenv("NAVER_SEARCH_CLIENT_ID"),
		NaverSearchClientSecret: os.Getenv("NAVER_SEARCH_CLIENT_SECRET"),
		NaverSearchBaseURL:      getEnvOrDefault("NAVER_SEARCH_BASE_URL", "https://openapi.naver.com"),
	}
}
