package repositories

import (
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lib/pq"

	"art_studio_backend/internal/models"
)

func TestWrapError(t *testing.T) {
	if wrapError(nil, "op") != nil {
		t.Error("nil should stay nil")
	}
	if err := wrapError(sql.ErrNoRows, "op"); !errors.Is(err, ErrNotFound) {
		t.Errorf("no rows -> %v, want ErrNotFound", err)
	}

	dup := &pq.Error{Code: "23505", Message: "duplicate", Constraint: "users_email_key"}
	err := wrapError(dup, "op")
	if !errors.Is(err, ErrDuplicateKey) {
		t.Errorf("unique violation -> %v, want ErrDuplicateKey", err)
	}
	if !strings.Contains(err.Error(), "users_email_key") {
		t.Errorf("constraint name missing from %q", err)
	}

	if err := wrapError(errors.New("broken pipe"), "listing items"); !errors.Is(err, ErrDatabaseError) {
		t.Errorf("other -> %v, want ErrDatabaseError", err)
	}
}

func TestSessionLockKey(t *testing.T) {
	day := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	a := sessionLockKey(day, models.SessionOne)
	if a != sessionLockKey(day.Add(15*time.Hour), models.SessionOne) {
		t.Error("key must only depend on the calendar day")
	}
	if a == sessionLockKey(day, models.SessionTwo) {
		t.Error("slots must not share a key")
	}
	if a == sessionLockKey(day.AddDate(0, 0, 1), models.SessionOne) {
		t.Error("days must not share a key")
	}
}
