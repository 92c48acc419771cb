package repo

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/db"
)

// Repo runs queries against either the pool or an open transaction.
type Repo struct {
	DB db.DBTX
}

var ErrNotFound = errors.New("not found")

func New(conn db.DBTX) Repo {
	return Repo{DB: conn}
}

const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(v string) (time.Time, error) {
	t, err := time.Parse(timeLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", v, err)
	}
	return t, nil
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// batchSize keeps IN lists well below SQLite's bound variable limit.
const batchSize = 500

func chunks[T any](items []T) [][]T {
	var out [][]T
	for len(items) > batchSize {
		out = append(out, items[:batchSize])
		items = items[batchSize:]
	}
	if len(items) > 0 {
		out = append(out, items)
	}
	return out
}

func anyArgs[T any](items []T) []any {
	args := make([]any, len(items))
	for i, v := range items {
		args[i] = v
	}
	return args
}
