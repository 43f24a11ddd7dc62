// File: utils/constants.go
package utils

import "time"

// ConversationMemoryTTL is how long recent turns are kept for draft prompts.
const ConversationMemoryTTL = 24 * time.Hour

// ConversationMemoryTurns caps the turns kept per conversation.
const ConversationMemoryTurns = 10

// HealthCheckInterval is the period of the dependency health monitor.
const HealthCheckInterval = 30 * time.Second

// ShutdownTimeout bounds graceful shutdown of the HTTP server.
const ShutdownTimeout = 10 * time.Second
