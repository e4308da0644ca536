package domain

// Project represents a provider project in the domain layer. IDs are
// strings because Clockify uses opaque string IDs; the Toggl adapter
// formats its numeric IDs.
type Project struct {
	ID       string
	Name     string
	ClientID string // empty when the project has no client assigned
}

// Client represents a provider client (the billable party a project
// belongs to).
type Client struct {
	ID   string
	Name string
}
