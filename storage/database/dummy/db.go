package dummydb

import (
	"sync"

	"github.com/trezcool/solienlac/core/evaluation"
)

type (
	DB struct {
		class      *classTable
		evaluation *evaluationTable
	}

	class struct {
		id       string
		name     string
		subjects []string
		students []string
	}

	classTable struct {
		sync.RWMutex
		classes  map[string]*class
		subjects map[string]evaluation.Subject
		students map[string]evaluation.StudentProfile
		finals   map[string][]evaluation.FinalTermRecord // by class
	}

	evaluationRecord struct {
		evaluation.Evaluation
		seq      int
		comments map[string]string
		ratings  map[string]evaluation.Rating
	}

	evaluationTable struct {
		sync.RWMutex
		pkCount int
		table   map[string]*evaluationRecord
	}
)

func Open() (*DB, error) {
	db := &DB{
		class: &classTable{
			classes:  make(map[string]*class),
			subjects: make(map[string]evaluation.Subject),
			students: make(map[string]evaluation.StudentProfile),
			finals:   make(map[string][]evaluation.FinalTermRecord),
		},
		evaluation: &evaluationTable{table: make(map[string]*evaluationRecord)},
	}
	return db, nil
}
