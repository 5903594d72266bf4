// Package tasks defines the structure for tasks that are sent to Kafka.
package tasks

import "time"

// RefreshTask represents an explicit request to reload both datasets.
type RefreshTask struct {
	ID          string    `json:"id"`
	RequestedBy string    `json:"requested_by"`
	RequestedAt time.Time `json:"requested_at"`
}
