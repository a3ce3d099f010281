// Package config handles configuration loading for scribe-gateway.
//
// # Configuration File
//
// Location:
//
//  1. Path from SCRIBE_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/scribe/gateway.yaml (default ~/.config/scribe/gateway.yaml)
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	llm:
//	  api_key: "${SCRIBE_LLM_API_KEY}"
//
// # Configuration Sections
//
//	server:
//	  http_addr: "127.0.0.1:8080"
//
//	database:
//	  path: "/var/lib/scribe/gateway.db"
//
//	llm:
//	  provider: "openai"          # openai (any OpenAI-compatible endpoint) or mock
//	  base_url: "http://litellm:4000/v1"
//	  api_key: "${SCRIBE_LLM_API_KEY}"
//	  model: "anthropic.claude-3-sonnet"
//	  requests_per_second: 5
//	  classifier:
//	    max_output_tokens: 10
//	  generation:
//	    max_output_tokens: 1024
//	    temperature: 0
//	    top_p: 1
//	    top_k: 50
//	    stop_sequences: ["\n\nHuman"]
//	  extraction:
//	    max_output_tokens: 256
//
//	conversation:
//	  serialize_sessions: true
//	  turn_timeout: "2m"
//	  persist_timeout: "5s"
//	  dedupe_ttl: "10m"
//	  default_kind: "achievement"   # achievement or challenge
//
//	push:
//	  backend: "websocket"          # websocket or nats
//	  nats_url: "nats://127.0.0.1:4222"
//	  subject_prefix: "scribe.push"
//
//	auth:
//	  jwt_secret: "${SCRIBE_JWT_SECRET}"   # empty disables token checks
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// Unset model fields inherit llm.model and the deterministic sampling defaults.
package config
