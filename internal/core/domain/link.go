package domain

import "time"

// Link is a short link stored in the partition of its project's domain.
type Link struct {
	Key           string    `json:"key"`
	ProjectDomain string    `json:"project_domain"`
	URL           string    `json:"url"`
	CreatedAt     time.Time `json:"created_at"`
}
