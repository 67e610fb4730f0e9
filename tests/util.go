package testutil

import (
	"context"
	"sync"
	"testing"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	"github.com/trezcool/solienlac/core"
	"github.com/trezcool/solienlac/core/evaluation"
	"github.com/trezcool/solienlac/storage/database"
)

// PrepareDB returns a migrated in-memory database, closed when the test ends.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()
	conf := &core.Config{Database: core.DatabaseConfig{Engine: database.SQLite, Name: ":memory:"}}
	db, err := database.Open(conf)
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(db, &Logger{}); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	return db
}

// NewValidator returns a validator with every custom validation registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	evaluation.InitValidators(validate, translator)
	return validate, translator
}

// LogEntry is a message captured by Logger.
type LogEntry struct {
	Level string
	Msg   string
	Args  []interface{}
}

// Logger is a core.Logger keeping messages in memory.
type Logger struct {
	mu      sync.Mutex
	Entries []LogEntry
}

var _ core.Logger = (*Logger)(nil)

func (l *Logger) log(level, msg string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Entries = append(l.Entries, LogEntry{Level: level, Msg: msg, Args: args})
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.log("debug", msg, args) }
func (l *Logger) Info(msg string, args ...interface{})  { l.log("info", msg, args) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.log("warn", msg, args) }
func (l *Logger) Error(msg string, args ...interface{}) { l.log("error", msg, args) }

// Fatal is recorded like any other level; it does not exit.
func (l *Logger) Fatal(msg string, args ...interface{}) { l.log("fatal", msg, args) }

// Count returns the number of messages logged at level.
func (l *Logger) Count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.Entries {
		if e.Level == level {
			n++
		}
	}
	return n
}

// Class describes the fixture created by SeedClass.
type Class struct {
	ID       string
	Subjects []evaluation.Subject
	Students []evaluation.StudentProfile
}

// DefaultClass is a small class with two subjects and three students.
var DefaultClass = Class{
	ID:       "1A",
	Subjects: []evaluation.Subject{{ID: "Toán", Name: "Toán"}, {ID: "Văn", Name: "Tiếng Việt"}},
	Students: []evaluation.StudentProfile{{ID: "S1", Name: "An"}, {ID: "S2", Name: "Bình"}, {ID: "S3", Name: "Chi"}},
}

// SeedClass creates the class, its subjects and its students.
func SeedClass(t *testing.T, store evaluation.Store, class Class) {
	t.Helper()
	ctx := context.Background()
	if err := store.CreateClass(ctx, class.ID, "Lớp "+class.ID); err != nil {
		t.Fatalf("SeedClass() failed: %v", err)
	}
	for _, subj := range class.Subjects {
		if err := store.CreateSubject(ctx, subj); err != nil {
			t.Fatalf("SeedClass() failed: %v", err)
		}
		if err := store.AddClassSubject(ctx, class.ID, subj.ID); err != nil {
			t.Fatalf("SeedClass() failed: %v", err)
		}
	}
	for _, st := range class.Students {
		if err := store.AddStudent(ctx, class.ID, st); err != nil {
			t.Fatalf("SeedClass() failed: %v", err)
		}
	}
}

func Float(f float64) *float64 { return &f }
