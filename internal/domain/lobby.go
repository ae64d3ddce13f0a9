package domain

// LobbySummary is the list view of a lobby.
type LobbySummary struct {
	Code        string `json:"room"`
	MemberCount int    `json:"clients"`
}

// LobbySnapshot is a point-in-time copy of a lobby's members and message log.
type LobbySnapshot struct {
	Code     string    `json:"room"`
	Members  []User    `json:"members"`
	Messages []Message `json:"messages"`
}
