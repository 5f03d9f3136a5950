// Package store persists workout definitions in SQLite as JSON values
// under string keys.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/sweeney/interval-timer/internal/workout"
)

// Keys used for workout storage.
const (
	workoutPrefix  = "workout:"
	LastWorkoutKey = "last_workout"
)

// ErrNotFound is returned when a workout does not exist.
var ErrNotFound = errors.New("not found")

const schema = `
CREATE TABLE IF NOT EXISTS kv (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);`

// Store is a key/value store backed by a single SQLite table.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path. Use ":memory:" for
// a throwaway store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// An in-memory database lives only as long as its connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get decodes the JSON value stored under key into v. It reports false if
// the key does not exist.
func (s *Store) Get(ctx context.Context, key string, v any) (bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %q: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, fmt.Errorf("decode %q: %w", key, err)
	}
	return true, nil
}

// Set stores v as JSON under key, replacing any previous value.
func (s *Store) Set(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, string(raw))
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// Keys returns all keys starting with prefix, sorted.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM kv WHERE substr(key, 1, ?) = ? ORDER BY key`, len(prefix), prefix)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// WorkoutKey returns the key a workout is stored under.
func WorkoutKey(id string) string {
	return workoutPrefix + id
}

// SaveWorkout validates and stores w under its ID.
func (s *Store) SaveWorkout(ctx context.Context, w workout.Workout) error {
	if w.ID == "" {
		return fmt.Errorf("save workout %q: missing id", w.Name)
	}
	if err := w.Validate(); err != nil {
		return fmt.Errorf("save workout %q: %w", w.Name, err)
	}
	return s.Set(ctx, WorkoutKey(w.ID), w)
}

// LoadWorkout returns the workout with the given ID.
func (s *Store) LoadWorkout(ctx context.Context, id string) (workout.Workout, error) {
	var w workout.Workout
	ok, err := s.Get(ctx, WorkoutKey(id), &w)
	if err != nil {
		return workout.Workout{}, err
	}
	if !ok {
		return workout.Workout{}, fmt.Errorf("workout %s: %w", id, ErrNotFound)
	}
	return w, nil
}

// ListWorkouts returns every stored workout, ordered by ID.
func (s *Store) ListWorkouts(ctx context.Context) ([]workout.Workout, error) {
	keys, err := s.Keys(ctx, workoutPrefix)
	if err != nil {
		return nil, err
	}
	workouts := make([]workout.Workout, 0, len(keys))
	for _, k := range keys {
		w, err := s.LoadWorkout(ctx, strings.TrimPrefix(k, workoutPrefix))
		if err != nil {
			return nil, err
		}
		workouts = append(workouts, w)
	}
	return workouts, nil
}

// FindWorkout returns the stored workout whose ID or name matches ref.
func (s *Store) FindWorkout(ctx context.Context, ref string) (workout.Workout, error) {
	w, err := s.LoadWorkout(ctx, ref)
	if err == nil || !errors.Is(err, ErrNotFound) {
		return w, err
	}
	all, err := s.ListWorkouts(ctx)
	if err != nil {
		return workout.Workout{}, err
	}
	for _, w := range all {
		if strings.EqualFold(w.Name, ref) {
			return w, nil
		}
	}
	return workout.Workout{}, fmt.Errorf("workout %q: %w", ref, ErrNotFound)
}

// SetLastWorkout records id as the most recently started workout.
func (s *Store) SetLastWorkout(ctx context.Context, id string) error {
	return s.Set(ctx, LastWorkoutKey, id)
}

// LastWorkout returns the most recently started workout.
func (s *Store) LastWorkout(ctx context.Context) (workout.Workout, error) {
	var id string
	ok, err := s.Get(ctx, LastWorkoutKey, &id)
	if err != nil {
		return workout.Workout{}, err
	}
	if !ok {
		return workout.Workout{}, fmt.Errorf("last workout: %w", ErrNotFound)
	}
	return s.LoadWorkout(ctx, id)
}
