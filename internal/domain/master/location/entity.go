package location

import "time"

type Location struct {
	ID        string
	Code      string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DisplayName returns the name, or the code when the name was not loaded.
func (l Location) DisplayName() string {
	if l.Name != "" {
		return l.Name
	}
	return l.Code
}
