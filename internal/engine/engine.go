package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/config"
	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/db"
	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/events"
	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/logger"
	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/repo"
)

// ErrNotFound is returned, wrapped, when a referenced row does not exist.
var ErrNotFound = repo.ErrNotFound

type Engine struct {
	DB     *sql.DB
	UoW    db.UnitOfWork
	Repo   repo.Repo
	Config *config.Config
	Log    *logger.Logger
	Now    func() time.Time
}

func New(conn *sql.DB, cfg *config.Config, log *logger.Logger) Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = logger.NewNop()
	}
	uow := db.NewSQLiteUnitOfWork(conn)
	uow.OnRollback = func(err error) {
		log.Debug("transaction rolled back", "error", err)
	}
	return Engine{
		DB:     conn,
		UoW:    uow,
		Repo:   repo.New(conn),
		Config: cfg,
		Log:    log,
		Now:    time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now().UTC()
	}
	return time.Now().UTC()
}

// tx runs fn in a transaction with a repository bound to it.
func (e Engine) tx(ctx context.Context, fn func(ctx context.Context, tx db.DBTX, r repo.Repo) error) error {
	return e.UoW.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return fn(ctx, tx, repo.New(tx))
	})
}

func (e Engine) event(ctx context.Context, tx db.DBTX, evtType, entityKind string, entityID int64, actorID string, payload events.Payload) error {
	if actorID == "" {
		actorID = "local-user"
	}
	id := ""
	if entityID != 0 {
		id = strconv.FormatInt(entityID, 10)
	}
	w := events.Writer{Now: e.now}
	if err := w.Append(ctx, tx, evtType, entityKind, id, actorID, payload); err != nil {
		return fmt.Errorf("append %s event: %w", evtType, err)
	}
	return nil
}

// ValidationError reports a malformed request. It is surfaced to the caller
// and never retried.
type ValidationError struct {
	Message string
	Details map[string]any
}

func (e *ValidationError) Error() string { return e.Message }

func validationf(details map[string]any, format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...), Details: details}
}

// InvalidReferenceError reports a request that names rows which exist
// elsewhere or not at all, e.g. an activity outside the milestone being
// reordered.
type InvalidReferenceError struct {
	Message string
	Details map[string]any
}

func (e *InvalidReferenceError) Error() string { return e.Message }

func notFound(kind string, id any) error {
	return fmt.Errorf("%s %v: %w", kind, id, ErrNotFound)
}

func notFoundIf(err error, kind string, id any) error {
	if errors.Is(err, ErrNotFound) {
		return notFound(kind, id)
	}
	return err
}

func requireTitle(field, v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", validationf(map[string]any{"field": field}, "%s is required", field)
	}
	if len(v) > maxTitleLen {
		return "", validationf(map[string]any{"field": field, "max": maxTitleLen}, "%s exceeds %d characters", field, maxTitleLen)
	}
	return v, nil
}

const (
	maxTitleLen = 200
	maxNoteLen  = 2000
)
