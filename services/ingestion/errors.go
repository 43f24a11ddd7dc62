package ingestion

import "fmt"

// MalformedKeyError means an event cannot be deduplicated because its key is incomplete.
type MalformedKeyError struct {
	Channel    string
	ExternalID string
}

func (e *MalformedKeyError) Error() string {
	return fmt.Sprintf("malformed dedup key: channel=%q external_id=%q", e.Channel, e.ExternalID)
}
