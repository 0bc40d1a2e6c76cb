package uidto

import "time"

// Square is one cell of the rendered board, a8 first.
type Square struct {
	Name        string `json:"name"`
	Piece       string `json:"piece,omitempty"` // piece code such as "wq"
	Glyph       string `json:"glyph,omitempty"`
	Light       bool   `json:"light"`
	Selected    bool   `json:"selected,omitempty"`
	Destination bool   `json:"destination,omitempty"`
	LastMove    bool   `json:"lastMove,omitempty"`
	Check       bool   `json:"check,omitempty"`
}

type LogEntry struct {
	Kind string    `json:"kind"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Captured lists taken pieces, most valuable first.
type Captured struct {
	ByWhite []string `json:"byWhite"`
	ByBlack []string `json:"byBlack"`
}

type Metrics struct {
	WinProbability int `json:"winProbability"`
	Resources      int `json:"resources"`
	LatencyMS      int `json:"latencyMs"`
	Moves          int `json:"moves"`
}

type LastMove struct {
	From string `json:"from"`
	To   string `json:"to"`
	SAN  string `json:"san"`
	Side string `json:"side"`
}

type State struct {
	SessionID   string     `json:"sessionId"`
	Generation  string     `json:"generation"`
	Theme       string     `json:"theme"`
	FEN         string     `json:"fen"`
	Board       []Square   `json:"board"`
	Selected    string     `json:"selected,omitempty"`
	Status      string     `json:"status"`
	StatusLabel string     `json:"statusLabel"`
	HumanToMove bool       `json:"humanToMove"`
	Outcome     string     `json:"outcome,omitempty"`
	Banner      string     `json:"banner,omitempty"`
	Check       bool       `json:"check,omitempty"`
	LastMove    *LastMove  `json:"lastMove,omitempty"`
	MoveCount   int        `json:"moveCount"`
	Captured    Captured   `json:"captured"`
	Metrics     Metrics    `json:"metrics"`
	Logs        []LogEntry `json:"logs"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type ThemeSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
	Active      bool   `json:"active,omitempty"`
}
