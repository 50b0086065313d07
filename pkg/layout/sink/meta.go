package sink

import "time"

// Meta is document metadata written into the output.
type Meta struct {
	Title     string    `json:"title"`
	Subject   string    `json:"subject,omitempty"`
	Author    string    `json:"author,omitempty"`
	Keywords  []string  `json:"keywords,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
