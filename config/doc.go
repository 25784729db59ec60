// Package config loads service configuration for wskit programs.
//
// It uses Viper to read a YAML file and godotenv to load a .env file, then
// overlays environment variables onto the result before unmarshalling into the
// caller's struct.
//
// # Usage
//
//	var cfg AppConfig
//	err := config.LoadConfig("wsget", &cfg, config.WithEnvPrefix("WSGET"))
//
// With the WSGET prefix, WSGET_HTTP_TIMEOUT overrides http.timeout.
package config
