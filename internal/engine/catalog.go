package engine

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/db"
	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/domain"
	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/events"
	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/repo"
)

type catalogFile struct {
	Outcomes []domain.Outcome `yaml:"outcomes"`
}

// ParseCatalog reads an outcome catalog document:
//
//	outcomes:
//	  - code: FL1.CO.1
//	    description: ...
//	    subject: FRA
//	    grade: 1
//	    domain: CO
//
// A missing id defaults to the code.
func ParseCatalog(data []byte) ([]domain.Outcome, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("invalid catalog yaml: %w", err)
	}
	for i := range f.Outcomes {
		o := &f.Outcomes[i]
		o.Code = strings.TrimSpace(o.Code)
		o.ID = strings.TrimSpace(o.ID)
		if o.ID == "" {
			o.ID = o.Code
		}
	}
	return f.Outcomes, nil
}

// ImportOutcomes upserts catalog rows by ID. Outcomes are never deleted, and
// a code stays with the ID that first claimed it.
func (e Engine) ImportOutcomes(ctx context.Context, outcomes []domain.Outcome, actorID string) (int, error) {
	seenID := map[string]bool{}
	seenCode := map[string]bool{}
	for i, o := range outcomes {
		switch {
		case o.Code == "":
			return 0, validationf(map[string]any{"index": i}, "outcome %d: code is required", i)
		case strings.TrimSpace(o.ID) == "":
			return 0, validationf(map[string]any{"code": o.Code}, "outcome %s: id is required", o.Code)
		case strings.TrimSpace(o.Subject) == "":
			return 0, validationf(map[string]any{"code": o.Code}, "outcome %s: subject is required", o.Code)
		case o.Grade < 0:
			return 0, validationf(map[string]any{"code": o.Code}, "outcome %s: grade must not be negative", o.Code)
		case seenID[o.ID] || seenCode[o.Code]:
			return 0, validationf(map[string]any{"code": o.Code}, "outcome %s listed twice", o.Code)
		}
		seenID[o.ID] = true
		seenCode[o.Code] = true
	}
	err := e.tx(ctx, func(ctx context.Context, tx db.DBTX, r repo.Repo) error {
		codes := make([]string, len(outcomes))
		for i, o := range outcomes {
			codes[i] = o.Code
		}
		owners, err := r.OutcomeIDsByCode(ctx, codes)
		if err != nil {
			return err
		}
		for _, o := range outcomes {
			if owner, ok := owners[o.Code]; ok && owner != o.ID {
				return validationf(map[string]any{"code": o.Code, "id": o.ID, "existingId": owner},
					"outcome code %s already belongs to %s", o.Code, owner)
			}
		}
		for _, o := range outcomes {
			if err := r.UpsertOutcome(ctx, o); err != nil {
				return fmt.Errorf("upsert outcome %s: %w", o.Code, err)
			}
		}
		return e.event(ctx, tx, events.OutcomesImported, "catalog", 0, actorID, events.Payload{"count": len(outcomes)})
	})
	if err != nil {
		return 0, err
	}
	e.Log.Info("outcome catalog imported", "count", len(outcomes))
	return len(outcomes), nil
}
