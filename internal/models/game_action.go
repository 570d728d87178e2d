package models

import "github.com/google/uuid"

// Action types recorded to the game history queue.
const (
	ActionGameCreated       = "game_created"
	ActionPlayerJoined      = "player_joined"
	ActionGameStarted       = "game_started"
	ActionTurnStarted       = "turn_started"
	ActionQuestionSubmitted = "question_submitted"
	ActionAnswerSubmitted   = "answer_submitted"
	ActionTurnCompleted     = "turn_completed"
	ActionGameFinished      = "game_finished"
)

// GameActionRecord holds the minimal info needed by the historian service.
type GameActionRecord struct {
	GameID        uuid.UUID              `json:"game_id"`
	ActionIndex   int                    `json:"action_index"`
	ActorPlayerID uuid.UUID              `json:"actor_player_id"`
	ActionType    string                 `json:"action_type"`
	ActionPayload map[string]interface{} `json:"action_payload"`
	Timestamp     int64                  `json:"timestamp"`
}
