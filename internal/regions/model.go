package regions

import "time"

// Region is a geographic distribution hub holding its own stock counter,
// separate from the central warehouse pool.
type Region struct {
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}
