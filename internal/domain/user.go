package domain

// User is a registered chat participant. Users are immutable and live for the
// lifetime of the process.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
