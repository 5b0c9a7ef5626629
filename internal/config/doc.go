// Package config handles configuration loading for suggest-gateway.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	provider:
//	  api_key: "${SUGGEST_API_KEY}"
//
// Syntax: ${VAR_NAME}
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	provider:
//	  timeout: "15s"
//
// Supported units: ns, us, ms, s, m, h
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: "0.0.0.0:8090"
//
// Database:
//
//	database:
//	  path: "/var/lib/travelist/suggest.db"  # empty = in-memory only
//
// Provider:
//
//	provider:
//	  endpoint: "https://api.example.com"
//	  api_key: "${SUGGEST_API_KEY}"
//	  model: "travel-suggest-1"
//	  timeout: "15s"
//
// Suggestion tuning:
//
//	suggest:
//	  min_places: 3
//	  max_suggestions: 5
//
// Authentication:
//
//	auth:
//	  jwt_secret: "${SUGGEST_JWT_SECRET}"  # empty disables auth
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
package config
