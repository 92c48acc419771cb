package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/db"
)

// Event types appended by the engine.
const (
	SubjectCreated    = "subject.created"
	SubjectUpdated    = "subject.updated"
	SubjectDeleted    = "subject.deleted"
	MilestoneCreated  = "milestone.created"
	MilestoneUpdated  = "milestone.updated"
	MilestoneDeleted  = "milestone.deleted"
	ActivityCreated   = "activity.created"
	ActivityUpdated   = "activity.updated"
	ActivityMoved     = "activity.moved"
	ActivityDeleted   = "activity.deleted"
	ActivityReordered = "activity.reordered"
	ActivityCompleted = "activity.completed"
	ActivityReopened  = "activity.reopened"
	OutcomesImported  = "outcomes.imported"
)

type Writer struct {
	Now func() time.Time
}

type Payload map[string]any

// Append records an event using tx so it commits or rolls back with the
// mutation it describes.
func (w Writer) Append(ctx context.Context, tx db.DBTX, evtType, entityKind, entityID, actorID string, payload Payload) error {
	now := w.Now
	if now == nil {
		now = time.Now
	}
	ts := now().UTC().Format(time.RFC3339)
	if payload == nil {
		payload = Payload{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO events(ts,type,entity_kind,entity_id,actor_id,payload_json) VALUES (?,?,?,?,?,?)`,
		ts, evtType, entityKind, nullable(entityID), actorID, string(data))
	return err
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
