package game

import (
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/wordherd/internal/models"
)

// ActionRecorder receives a record for every state change. Implementations
// must not block the caller; see cache.Publisher.
type ActionRecorder interface {
	RecordAction(rec models.GameActionRecord)
}

// stageAction assigns the game's next action index and builds the record.
// The index lives on the game, so the game has to be saved before the record
// is published.
func (e *Engine) stageAction(g *models.Game, actorID uuid.UUID, actionType string, payload map[string]interface{}) models.GameActionRecord {
	if payload == nil {
		payload = make(map[string]interface{})
	}
	g.ActionIndex++
	return models.GameActionRecord{
		GameID:        g.ID,
		ActionIndex:   g.ActionIndex,
		ActorPlayerID: actorID,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     e.now().UnixMilli(),
	}
}

// publish hands saved actions to the recorder, if any.
func (e *Engine) publish(recs ...models.GameActionRecord) {
	if e.recorder == nil {
		return
	}
	for _, rec := range recs {
		e.recorder.RecordAction(rec)
	}
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
