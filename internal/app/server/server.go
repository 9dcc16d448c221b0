package server

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/codeclash-vn/rapidfire/internal/aws/auth"
	"github.com/codeclash-vn/rapidfire/internal/aws/storage"
	"github.com/codeclash-vn/rapidfire/internal/domains/entities"
	"github.com/codeclash-vn/rapidfire/internal/question"
	"github.com/codeclash-vn/rapidfire/pkg/logging"
)

// Storage is the persistence surface the match engine needs.
type Storage interface {
	GetMatch(ctx context.Context, matchId string) (entities.Match, error)
	PutMatch(ctx context.Context, match entities.Match) error
	GetOrCreateUserProfile(ctx context.Context, userId string) (entities.UserProfile, error)
	PutUserProfile(ctx context.Context, profile entities.UserProfile) error
}

type server struct {
	address  string
	upgrader websocket.Upgrader

	config   Config
	registry *matchRegistry
	mu       sync.Mutex

	cognitoPublicKeys map[string]*rsa.PublicKey
	issuer            string
	storage           Storage
	questionSource    QuestionSource
}

type payload struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type answerPayload struct {
	QuestionIndex  int `json:"questionIndex"`
	SelectedOption int `json:"selectedOption"`
}

type chatPayload struct {
	Message string `json:"message"`
}

func NewServer() *server {
	cfg := NewConfig()
	issuer := fmt.Sprintf(
		"https://cognito-idp.%s.amazonaws.com/%s",
		cfg.AwsRegion,
		cfg.CognitoUserPoolId,
	)
	cognitoPublicKeys, err := auth.LoadCognitoPublicKeys(issuer + "/.well-known/jwks.json")
	if err != nil {
		panic(err)
	}
	awsCfg, _ := awsconfig.LoadDefaultConfig(context.TODO())
	storageClient := storage.NewClient(
		dynamodb.NewFromConfig(awsCfg),
		storage.ConfigFromTableNames(
			cfg.MatchesTableName,
			cfg.ProfilesTableName,
			cfg.QuestionsTableName,
		),
	)

	var questionLoader question.Loader = storageClient
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		questionLoader = question.NewCache(redisClient, storageClient, cfg.QuestionCacheTTL)
	}

	srv := &server{
		address: "0.0.0.0:" + cfg.Port,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins
			},
		},
		config:            cfg,
		registry:          newMatchRegistry(),
		cognitoPublicKeys: cognitoPublicKeys,
		issuer:            issuer,
		storage:           storageClient,
		questionSource:    question.NewSelector(questionLoader),
	}
	return srv
}

// Start method    starts the rapid fire server
func (s *server) Start() error {
	http.HandleFunc("/rapidfire/{matchId}", func(w http.ResponseWriter, r *http.Request) {
		playerId, err := s.auth(r)
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(ErrStatusAuthenticationFailed))
			return
		}

		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			logging.Error(
				"failed to upgrade connection",
				zap.String("error", err.Error()),
			)
			return
		}
		defer conn.Close()

		matchId := r.PathValue("matchId")
		match, wsErr := s.loadMatch(matchId)
		if wsErr != nil {
			conn.WriteJSON(errorResponse{Type: "error", Code: wsErr.Code, Error: wsErr.Message})
			return
		}
		if _, exist := match.doc.PlayerWithId(playerId); !exist {
			conn.WriteJSON(errorResponse{
				Type:  "error",
				Code:  ErrStatusPlayerNotInMatch,
				Error: "not a participant of this match",
			})
			return
		}
		match.enqueue(command{kind: cmdJoin, playerId: playerId, conn: conn})

		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				match.enqueue(command{kind: cmdDisconnect, playerId: playerId})
				logging.Info(
					"connection closed",
					zap.String("remote_address", conn.RemoteAddr().String()),
					zap.Error(err),
				)
				break
			}

			payload := payload{}
			if err := json.Unmarshal(message, &payload); err != nil {
				match.rejectPlayer(playerId, newWsError(ErrStatusInvalidPayload, "malformed message"))
				continue
			}
			s.handleWebSocketMessage(playerId, match, payload)
		}
	})
	logging.Info("rapid fire server started", zap.String("port", s.config.Port))
	return http.ListenAndServe(s.address, nil)
}

// auth method    authenticates the connection and extracts the player id.
// The claimed identity, when supplied, must match the token subject.
func (s *server) auth(r *http.Request) (string, error) {
	token := r.Header.Get("Authorization")
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		return "", ErrAuthenticationFailed
	}
	validToken, err := auth.ValidateJwt(token, s.cognitoPublicKeys, s.issuer)
	if err != nil || !validToken.Valid {
		return "", fmt.Errorf("%w: invalid token", ErrAuthenticationFailed)
	}
	userId, err := auth.Subject(validToken)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrAuthenticationFailed, err)
	}
	if claimed := r.URL.Query().Get("playerId"); claimed != "" && claimed != userId {
		return "", fmt.Errorf("%w: identity mismatch", ErrAuthenticationFailed)
	}
	return userId, nil
}

/*
loadMatch method    loads the runtime for the match with corresponding
matchId, rebuilding it from the persisted document when this process does
not hold it yet (first join, or a reconnect after the runtime was rebuilt).
*/
func (s *server) loadMatch(matchId string) (*Match, *wsError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if match, loaded := s.registry.get(matchId); loaded {
		return match, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	doc, err := s.storage.GetMatch(ctx, matchId)
	if err != nil {
		if err == storage.ErrMatchNotFound {
			return nil, newWsError(ErrStatusMatchNotFound, "no such match")
		}
		logging.Error("failed to get match", zap.String("error", err.Error()))
		return nil, newWsError(ErrStatusMatchNotFound, "failed to load match")
	}
	if doc.Status == entities.MatchFinished {
		return nil, newWsError(ErrStatusMatchNotOngoing, "match already finished")
	}

	match := s.newMatch(doc)
	if doc.Status == entities.MatchOngoing {
		// Runtime lost (e.g. restart mid-match): resolve the persisted
		// question set and rearm the countdown with what's left.
		questions, err := s.questionSource.Resolve(ctx, doc.QuestionSet)
		if err != nil {
			logging.Error("failed to resolve question set",
				zap.String("match_id", matchId),
				zap.Error(err),
			)
			return nil, newWsError(ErrStatusPoolExhausted, "failed to restore match questions")
		}
		match.questions = questions
		remaining := time.Until(doc.Deadline())
		if remaining > 0 {
			match.setCountdown(remaining)
			match.startTicker()
			logging.Info("match resumed", zap.String("match_id", matchId))
		} else {
			match.enqueue(command{kind: cmdDeadline})
		}
	}
	s.registry.create(matchId, match)
	go match.start()
	return match, nil
}

func (s *server) newMatch(doc entities.Match) *Match {
	if doc.TimeLimit == 0 {
		doc.TimeLimit = int(s.config.MatchDuration.Seconds())
	}
	if doc.TotalQuestions == 0 {
		doc.TotalQuestions = s.config.TotalQuestions
	}
	players := make([]*player, 0, len(doc.Players))
	for _, matchPlayer := range doc.Players {
		players = append(players, newPlayer(nil, matchPlayer.PlayerId))
	}
	match := &Match{
		id:      doc.MatchId,
		doc:     doc,
		players: players,
		config: MatchConfig{
			TimeLimit:         time.Duration(doc.TimeLimit) * time.Second,
			TotalQuestions:    doc.TotalQuestions,
			BroadcastInterval: s.config.BroadcastInterval,
			DisconnectGrace:   s.config.DisconnectGrace,
			DomainQuotas:      s.config.DomainQuotas,
		},
		cmdCh:          make(chan command, 16),
		done:           make(chan struct{}),
		questionSource: s.questionSource,
		saveHandler:    s.handleSaveMatch,
		settleHandler:  s.handleSettlement,
		abortHandler:   s.handleAbort,
	}
	return match
}
