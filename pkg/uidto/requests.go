package uidto

type MoveRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type ThemesResponse struct {
	Themes []ThemeSummary `json:"themes"`
}

type Health struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}
