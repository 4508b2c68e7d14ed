package domain

import "time"

// Image is an uploaded event image served from /media/{id}.
type Image struct {
	ID          string
	ContentType string
	Data        []byte
	CreatedAt   time.Time
}
