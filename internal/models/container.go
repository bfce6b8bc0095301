package models

import "time"

const (
	ContainerTypeIndex = "index"
	ContainerTypeData  = "data"
)

// ContainerEntry maps a sanitized storage container name to the
// human-readable name users see.
type ContainerEntry struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Type              string    `json:"type"`
	HumanReadableName string    `json:"human_readable_name"`
	CreatedAt         time.Time `json:"created_at"`
}
