package entities

import "time"

const (
	DefaultRating = 1200

	// HistoryLimit bounds the recent-form and match-history logs.
	HistoryLimit = 10
)

// GameType tags which stat block a result belongs to. Stat fields are
// explicit per type instead of looked up by name.
type GameType string

const (
	GameTypeGame      GameType = "game"
	GameTypeRapidFire GameType = "rapidfire"
	GameTypeContest   GameType = "contest"
)

// GameStats are cumulative play counters for one game type.
type GameStats struct {
	Played int `dynamodbav:"Played" json:"played"`
	Won    int `dynamodbav:"Won" json:"won"`
	Lost   int `dynamodbav:"Lost" json:"lost"`
	Tied   int `dynamodbav:"Tied" json:"tied"`
}

// FormEntry is one recent-form log entry: "W", "L" or "D".
type FormEntry struct {
	Outcome  string    `dynamodbav:"Outcome" json:"outcome"`
	PlayedAt time.Time `dynamodbav:"PlayedAt" json:"playedAt"`
}

// MatchHistoryEntry is one bounded match-history log entry.
type MatchHistoryEntry struct {
	MatchId      string    `dynamodbav:"MatchId" json:"matchId"`
	OpponentId   string    `dynamodbav:"OpponentId" json:"opponentId"`
	Outcome      string    `dynamodbav:"Outcome" json:"outcome"`
	Score        float64   `dynamodbav:"Score" json:"score"`
	RatingChange int       `dynamodbav:"RatingChange" json:"ratingChange"`
	PlayedAt     time.Time `dynamodbav:"PlayedAt" json:"playedAt"`
}

type UserProfile struct {
	UserId          string              `dynamodbav:"UserId" json:"userId"`
	Username        string              `dynamodbav:"Username" json:"username"`
	RapidFireRating int                 `dynamodbav:"RapidFireRating" json:"rapidFireRating"`
	GameStats       GameStats           `dynamodbav:"GameStats" json:"gameStats"`
	RapidFireStats  GameStats           `dynamodbav:"RapidFireStats" json:"rapidFireStats"`
	ContestStats    GameStats           `dynamodbav:"ContestStats" json:"contestStats"`
	RecentForm      []FormEntry         `dynamodbav:"RecentForm" json:"recentForm"`
	MatchHistory    []MatchHistoryEntry `dynamodbav:"MatchHistory" json:"matchHistory"`
	CreatedAt       time.Time           `dynamodbav:"CreatedAt" json:"createdAt"`
}

// NewUserProfile returns a profile with the default rating.
func NewUserProfile(userId string) UserProfile {
	return UserProfile{
		UserId:          userId,
		RapidFireRating: DefaultRating,
		CreatedAt:       time.Now(),
	}
}

// StatsFor selects the stat block for a game type.
func (p *UserProfile) StatsFor(gameType GameType) *GameStats {
	switch gameType {
	case GameTypeGame:
		return &p.GameStats
	case GameTypeContest:
		return &p.ContestStats
	default:
		return &p.RapidFireStats
	}
}

// RecordForm prepends a recent-form entry, evicting the oldest past the bound.
func (p *UserProfile) RecordForm(entry FormEntry) {
	p.RecentForm = append([]FormEntry{entry}, p.RecentForm...)
	if len(p.RecentForm) > HistoryLimit {
		p.RecentForm = p.RecentForm[:HistoryLimit]
	}
}

// RecordMatch prepends a match-history entry, evicting the oldest past the bound.
func (p *UserProfile) RecordMatch(entry MatchHistoryEntry) {
	p.MatchHistory = append([]MatchHistoryEntry{entry}, p.MatchHistory...)
	if len(p.MatchHistory) > HistoryLimit {
		p.MatchHistory = p.MatchHistory[:HistoryLimit]
	}
}
