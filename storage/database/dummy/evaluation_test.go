package dummydb

import (
	"testing"

	"github.com/trezcool/solienlac/core/evaluation"
	testutil "github.com/trezcool/solienlac/tests"
)

func TestEvaluationRepository(t *testing.T) {
	testutil.RunStoreTests(t, func(t *testing.T) evaluation.Store {
		db, err := Open()
		if err != nil {
			t.Fatalf("Open() failed: %v", err)
		}
		return NewEvaluationRepository(db)
	})
}
