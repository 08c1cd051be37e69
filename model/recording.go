package model

import "time"

// Recording represents an uploaded audio clip. Recordings are immutable
// once created and live for a fixed TTL measured from CreatedAt; expired
// rows are excluded from listings and eventually reaped together with
// their stored object.
type Recording struct {
	ID         string    `json:"id"`   // opaque uuid
	UserID     int64     `json:"userId"`
	Name       string    `json:"name"`
	ObjectPath string    `json:"-"`    // MinIO object key, not exposed in API responses
	URL        string    `json:"url"`  // playable URL, derived, not stored
	CreatedAt  time.Time `json:"createdAt"`
}
