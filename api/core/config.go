package core

// APIConfig configures the relayer status api, it runs only when enabled in the relayer config
type APIConfig struct {
	Port           uint32   `json:"port"`
	PathPrefix     string   `json:"pathPrefix"`
	AllowedHeaders []string `json:"allowedHeaders"`
	AllowedOrigins []string `json:"allowedOrigins"`
	AllowedMethods []string `json:"allowedMethods"`
	// header carrying one of APIKeys, required by every relayer state endpoint
	APIKeyHeader string   `json:"apiKeyHeader"`
	APIKeys      []string `json:"apiKeys"`
}
