package models

import "time"

// SyncRequest asks the worker to run one sync cycle. It travels as JSON on
// the sync topic.
type SyncRequest struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	RequestedAt time.Time `json:"requestedAt"`
}
