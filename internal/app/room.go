package app

import (
	"math"
	"sort"
	"sync"
	"time"

	"quizroom-service/internal/domain"
)

// Room is a live quiz session owned by a single host connection. All state
// mutations happen under the room's mutex so that two submissions, or a
// submission racing a question advance, never interleave.
type Room struct {
	code   string
	hostID string
	testID string
	test   domain.Test
	now    func() time.Time

	mu            sync.Mutex
	questionIndex int // -1 before the game starts
	started       bool
	ended         bool
	playerOrder   []string          // join order, drives leaderboard tie stability
	players       map[string]string // connection id -> display name
	answers       map[string]domain.Answer
	scores        map[string]float64
	questionStart time.Time
	maxPoints     int // theoretical ceiling: every question correct at t=0
}

// NewRoom is exported for registry implementations that construct rooms.
func NewRoom(code, hostID, testID string, test domain.Test) *Room {
	return NewRoomWithClock(code, hostID, testID, test, time.Now)
}

// NewRoomWithClock allows deterministic timestamps in tests.
func NewRoomWithClock(code, hostID, testID string, test domain.Test, now func() time.Time) *Room {
	return &Room{
		code:          code,
		hostID:        hostID,
		testID:        testID,
		test:          test,
		now:           now,
		questionIndex: -1,
		players:       make(map[string]string),
		answers:       make(map[string]domain.Answer),
		scores:        make(map[string]float64),
	}
}

// Code returns the room's 4-digit code.
func (r *Room) Code() string { return r.code }

// HostID returns the connection id of the owning host.
func (r *Room) HostID() string { return r.hostID }

// TestID returns the id of the referenced test.
func (r *Room) TestID() string { return r.testID }

// PlayerCount reports the number of joined players.
func (r *Room) PlayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

// MaxPossiblePoints reports the ceiling computed at game start.
func (r *Room) MaxPossiblePoints() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.maxPoints
}

func (r *Room) join(connID, displayName string) (domain.PlayerJoined, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ended {
		return domain.PlayerJoined{}, domain.ErrGameEnded
	}
	for _, name := range r.players {
		if name == displayName {
			return domain.PlayerJoined{}, domain.ErrNameTaken
		}
	}

	r.players[connID] = displayName
	r.playerOrder = append(r.playerOrder, connID)
	return domain.PlayerJoined{
		PlayerID:    connID,
		DisplayName: displayName,
		PlayerCount: len(r.players),
	}, nil
}

// removePlayer deletes the player and any pending answer for the current
// question. The bool reports whether connID was a player at all.
func (r *Room) removePlayer(connID string) (domain.PlayerLeft, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.players[connID]; !ok {
		return domain.PlayerLeft{}, false
	}
	delete(r.players, connID)
	delete(r.answers, connID)
	for i, id := range r.playerOrder {
		if id == connID {
			r.playerOrder = append(r.playerOrder[:i], r.playerOrder[i+1:]...)
			break
		}
	}
	return domain.PlayerLeft{PlayerID: connID, PlayerCount: len(r.players)}, true
}

// memberIDs lists every connection joined to the room, host included.
func (r *Room) memberIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.playerOrder)+1)
	ids = append(ids, r.hostID)
	ids = append(ids, r.playerOrder...)
	return ids
}

func (r *Room) start(requester string) (domain.QuestionStarted, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if requester != r.hostID {
		return domain.QuestionStarted{}, domain.ErrUnauthorized
	}
	if r.ended {
		return domain.QuestionStarted{}, domain.ErrGameEnded
	}
	if r.started {
		return domain.QuestionStarted{}, domain.ErrGameAlreadyStarted
	}

	r.started = true
	r.questionIndex = 0
	r.answers = make(map[string]domain.Answer)
	r.scores = make(map[string]float64)
	for _, id := range r.playerOrder {
		r.scores[id] = 0
	}
	r.maxPoints = len(r.test.Questions) * 10
	r.questionStart = r.now()

	return r.questionStartedLocked(), nil
}

type advanceResult struct {
	gameOver bool
	ended    domain.GameEnded
	next     domain.QuestionStarted
	board    domain.LeaderboardUpdate
}

func (r *Room) advance(requester string) (advanceResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if requester != r.hostID {
		return advanceResult{}, domain.ErrUnauthorized
	}
	if r.ended {
		return advanceResult{}, domain.ErrGameEnded
	}
	if !r.started {
		return advanceResult{}, domain.ErrGameNotInProgress
	}

	// The host's score cap counts questions shown so far, before any move.
	res := advanceResult{
		board: domain.LeaderboardUpdate{
			Scores:            r.scoreboardLocked(),
			MaxPossiblePoints: (r.questionIndex + 1) * 10,
		},
	}

	if r.questionIndex >= len(r.test.Questions)-1 {
		r.ended = true
		res.gameOver = true
		res.ended = domain.GameEnded{FinalScores: r.scoreboardLocked()}
		return res, nil
	}

	r.questionIndex++
	r.answers = make(map[string]domain.Answer)
	r.questionStart = r.now()
	res.next = r.questionStartedLocked()
	return res, nil
}

func (r *Room) reveal(requester string) (domain.AnswerRevealed, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if requester != r.hostID {
		return domain.AnswerRevealed{}, domain.ErrUnauthorized
	}
	if !r.started || r.ended || r.questionIndex < 0 {
		return domain.AnswerRevealed{}, domain.ErrGameNotInProgress
	}

	q := r.test.Questions[r.questionIndex]
	return domain.AnswerRevealed{
		CorrectAnswer: q.Answer,
		CorrectChoice: q.Choices[q.Answer],
		Explanation:   q.Explanation,
	}, nil
}

// forceEnd transitions to Ended from any non-terminal state.
func (r *Room) forceEnd(requester string) (domain.GameEnded, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if requester != r.hostID {
		return domain.GameEnded{}, domain.ErrUnauthorized
	}
	if r.ended {
		return domain.GameEnded{}, domain.ErrGameEnded
	}
	r.ended = true
	return domain.GameEnded{FinalScores: r.scoreboardLocked()}, nil
}

type submitResult struct {
	receipt  domain.AnswerReceived
	hostNote domain.PlayerAnswered
	board    domain.LeaderboardUpdate
}

// submit scores a player's answer. Only the first submission per question
// counts; duplicates report ok=false with no error and no side effects.
func (r *Room) submit(connID, selected string) (submitResult, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	displayName, isPlayer := r.players[connID]
	if !isPlayer {
		return submitResult{}, false, domain.ErrUnauthorized
	}
	if r.questionIndex < 0 || !r.started || r.ended {
		return submitResult{}, false, domain.ErrGameNotInProgress
	}
	if _, dup := r.answers[connID]; dup {
		return submitResult{}, false, nil
	}

	elapsed := r.now().Sub(r.questionStart).Seconds()
	q := r.test.Questions[r.questionIndex]
	correct := selected == q.Answer
	points := answerPoints(correct, elapsed)

	// Round on every accumulation step, not just at read time.
	r.scores[connID] = round2(r.scores[connID] + points)
	r.answers[connID] = domain.Answer{
		Answer:  selected,
		Time:    elapsed,
		Correct: correct,
		Points:  points,
	}

	scoreCap := (r.questionIndex + 1) * 10
	return submitResult{
		receipt: domain.AnswerReceived{
			Locked:            true,
			Correct:           correct,
			Points:            points,
			TotalPoints:       r.scores[connID],
			MaxPossiblePoints: scoreCap,
			SelectedAnswer:    selected,
		},
		hostNote: domain.PlayerAnswered{
			PlayerID:      connID,
			DisplayName:   displayName,
			AnsweredCount: len(r.answers),
			TotalPlayers:  len(r.players),
		},
		board: domain.LeaderboardUpdate{
			Scores:            r.scoreboardLocked(),
			MaxPossiblePoints: scoreCap,
		},
	}, true, nil
}

func (r *Room) role(connID string) domain.RoomRole {
	r.mu.Lock()
	defer r.mu.Unlock()

	answered := 0
	if r.questionIndex >= 0 {
		answered = r.questionIndex + 1
	}
	_, isPlayer := r.players[connID]
	role := domain.RoomRole{
		IsHost:               connID == r.hostID,
		IsPlayer:             isPlayer,
		PlayerCount:          len(r.players),
		GameStarted:          r.started,
		GameEnded:            r.ended,
		CurrentQuestionIndex: r.questionIndex,
		MaxPossiblePoints:    answered * 10,
	}
	if isPlayer {
		points := r.scores[connID]
		role.CurrentPoints = &points
	}
	return role
}

func (r *Room) questionStartedLocked() domain.QuestionStarted {
	return domain.QuestionStarted{
		QuestionIndex:  r.questionIndex,
		Question:       r.test.Questions[r.questionIndex],
		TotalQuestions: len(r.test.Questions),
		StartTime:      r.questionStart.UnixMilli(),
	}
}

// scoreboardLocked ranks players by score descending. Equal scores keep join
// order: a stable sort with no secondary key.
func (r *Room) scoreboardLocked() []domain.ScoreEntry {
	entries := make([]domain.ScoreEntry, 0, len(r.playerOrder))
	for _, id := range r.playerOrder {
		entries = append(entries, domain.ScoreEntry{
			PlayerID:    id,
			DisplayName: r.players[id],
			Score:       r.scores[id],
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	return entries
}

// answerPoints applies the time-decayed scoring curve. Past 60 seconds every
// answer is worth exactly zero; inside the window correct answers decay from
// 10 and incorrect ones climb from -3 toward zero.
func answerPoints(correct bool, elapsedSeconds float64) float64 {
	if elapsedSeconds > 60 {
		return 0
	}
	if correct {
		return round2(10 - elapsedSeconds/6)
	}
	return round2(-3 + elapsedSeconds/20)
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
