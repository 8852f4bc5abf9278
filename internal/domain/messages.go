package domain

// Wire payloads for server-to-client messages. Field names follow the
// protocol, not Go conventions, so they marshal as clients expect.

// ScoreEntry is one ranked leaderboard row.
type ScoreEntry struct {
	PlayerID    string  `json:"playerId"`
	DisplayName string  `json:"displayName"`
	Score       float64 `json:"score"`
}

type RoomCreated struct {
	RoomCode string `json:"roomCode"`
}

type RoomJoined struct {
	RoomCode string `json:"roomCode"`
}

// RoomRole reports the requester's relationship to a room plus derived state.
// CurrentPoints is only present for players.
type RoomRole struct {
	IsHost               bool     `json:"isHost"`
	IsPlayer             bool     `json:"isPlayer"`
	PlayerCount          int      `json:"playerCount"`
	GameStarted          bool     `json:"gameStarted"`
	GameEnded            bool     `json:"gameEnded"`
	CurrentQuestionIndex int      `json:"currentQuestionIndex"`
	CurrentPoints        *float64 `json:"currentPoints,omitempty"`
	MaxPossiblePoints    int      `json:"maxPossiblePoints"`
}

type QuestionStarted struct {
	QuestionIndex  int      `json:"questionIndex"`
	Question       Question `json:"question"`
	TotalQuestions int      `json:"totalQuestions"`
	StartTime      int64    `json:"startTime"`
}

type PlayerAnswered struct {
	PlayerID      string `json:"playerId"`
	DisplayName   string `json:"displayName"`
	AnsweredCount int    `json:"answeredCount"`
	TotalPlayers  int    `json:"totalPlayers"`
}

type AnswerReceived struct {
	Locked            bool    `json:"locked"`
	Correct           bool    `json:"correct"`
	Points            float64 `json:"points"`
	TotalPoints       float64 `json:"totalPoints"`
	MaxPossiblePoints int     `json:"maxPossiblePoints"`
	SelectedAnswer    string  `json:"selectedAnswer"`
}

type AnswerRevealed struct {
	CorrectAnswer string `json:"correctAnswer"`
	CorrectChoice string `json:"correctChoice"`
	Explanation   string `json:"explanation,omitempty"`
}

type LeaderboardUpdate struct {
	Scores            []ScoreEntry `json:"scores"`
	MaxPossiblePoints int          `json:"maxPossiblePoints"`
}

type PlayerJoined struct {
	PlayerID    string `json:"playerId"`
	DisplayName string `json:"displayName"`
	PlayerCount int    `json:"playerCount"`
}

type PlayerLeft struct {
	PlayerID    string `json:"playerId"`
	PlayerCount int    `json:"playerCount"`
}

type GameEnded struct {
	FinalScores []ScoreEntry `json:"finalScores"`
}

type ErrorMessage struct {
	Message string `json:"message"`
}
