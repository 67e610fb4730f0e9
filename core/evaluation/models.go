package evaluation

import (
	"encoding/json"
	"fmt"
)

type Semester int

const (
	SemesterOne Semester = 1
	SemesterTwo Semester = 2
)

// Rating is the level given to a quality trait. The empty Rating means "not yet assessed".
type Rating string

const (
	RatingNone Rating = ""
	RatingA    Rating = "A"
	RatingB    Rating = "B"
	RatingC    Rating = "C"
	RatingD    Rating = "D"
)

var Ratings = []Rating{RatingA, RatingB, RatingC, RatingD}

func (r Rating) Valid() bool {
	if r == RatingNone {
		return true
	}
	for _, rating := range Ratings {
		if r == rating {
			return true
		}
	}
	return false
}

// Label is the final evaluation of a student. The empty Label means "not yet assessed".
type Label string

const (
	LabelNone         Label = ""
	LabelExcellent    Label = "Hoàn thành tốt"
	LabelCompleted    Label = "Hoàn thành"
	LabelNotCompleted Label = "Chưa hoàn thành"
)

var Labels = []Label{LabelExcellent, LabelCompleted, LabelNotCompleted}

func (l Label) Valid() bool {
	if l == LabelNone {
		return true
	}
	for _, label := range Labels {
		if l == label {
			return true
		}
	}
	return false
}

// Final score bounds (inclusive).
const (
	MinScore = 0
	MaxScore = 10
)

// Scope identifies a roster: one class for one semester of a school year.
type Scope struct {
	ClassID    string   `json:"class_id" validate:"notblank"`
	Semester   Semester `json:"semester" validate:"oneof=1 2"`
	SchoolYear string   `json:"school_year" validate:"schoolyear"`
}

func (s Scope) String() string {
	return fmt.Sprintf("%s/%d/%s", s.ClassID, s.Semester, s.SchoolYear)
}

type Subject struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type StudentProfile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Header holds the summary fields of an evaluation.
type Header struct {
	FinalScore      *float64 `json:"final_score" validate:"omitempty,gte=0,lte=10"`
	FinalEvaluation Label    `json:"final_evaluation" validate:"evallabel"`
	GeneralComment  string   `json:"general_comment"`
}

type SubjectComment struct {
	SubjectID string `json:"subject_id"`
	Comment   string `json:"comment"`
}

type QualityRating struct {
	TraitID string `json:"trait_id"`
	Rating  Rating `json:"rating"`
}

// Evaluation is a persisted header record along with its child records.
type Evaluation struct {
	ID         string   `json:"id"`
	StudentID  string   `json:"student_id"`
	ClassID    string   `json:"class_id"`
	Semester   Semester `json:"semester"`
	SchoolYear string   `json:"school_year"`
	Header

	SubjectComments []SubjectComment `json:"subject_comments"`
	QualityRatings  []QualityRating  `json:"quality_ratings"`
}

// NewEvaluation contains the information needed to create a header record.
type NewEvaluation struct {
	StudentID string `json:"student_id" validate:"notblank"`
	Scope
	Header
}

// FinalTermRecord holds the end of term results of a student for one subject.
type FinalTermRecord struct {
	StudentID  string   `json:"student_id"`
	SubjectID  string   `json:"subject_id"`
	Score      *float64 `json:"score"`
	Evaluation Label    `json:"evaluation"`
	Comment    string   `json:"comment"`
}

type SubjectScore struct {
	Score      *float64 `json:"score"`
	Evaluation Label    `json:"evaluation"`
}

// State tells whether the header record of a RosterEntry exists in the record store.
// It is either Unpersisted or Persisted.
type State interface {
	isState()
}

type Unpersisted struct{}

type Persisted struct {
	EvaluationID string
}

func (Unpersisted) isState() {}
func (Persisted) isState()   {}

// StateOf returns Persisted for a non-empty id, Unpersisted otherwise.
func StateOf(evaluationID string) State {
	if evaluationID == "" {
		return Unpersisted{}
	}
	return Persisted{EvaluationID: evaluationID}
}

// RosterEntry is the editable report card of one student.
type RosterEntry struct {
	StudentID   string `json:"student_id" validate:"notblank"`
	StudentName string `json:"student_name"`
	State       State  `json:"-" validate:"-"`
	Header      Header `json:"header"`

	QualityRatings  map[string]Rating       `json:"quality_ratings" validate:"dive,rating"`
	SubjectComments map[string]string       `json:"subject_comments" validate:"-"`
	SubjectScores   map[string]SubjectScore `json:"subject_scores" validate:"-"`
}

// EvaluationID returns the id of the persisted header record, if any.
func (e *RosterEntry) EvaluationID() (string, bool) {
	if p, ok := e.State.(Persisted); ok {
		return p.EvaluationID, true
	}
	return "", false
}

type rosterEntryJSON struct {
	StudentID    string  `json:"student_id"`
	StudentName  string  `json:"student_name"`
	EvaluationID *string `json:"evaluation_id"`
	Header

	QualityRatings  map[string]Rating       `json:"quality_ratings"`
	SubjectComments map[string]string       `json:"subject_comments"`
	SubjectScores   map[string]SubjectScore `json:"subject_scores,omitempty"`
}

func (e RosterEntry) MarshalJSON() ([]byte, error) {
	data := rosterEntryJSON{
		StudentID:       e.StudentID,
		StudentName:     e.StudentName,
		Header:          e.Header,
		QualityRatings:  e.QualityRatings,
		SubjectComments: e.SubjectComments,
		SubjectScores:   e.SubjectScores,
	}
	if id, ok := e.EvaluationID(); ok {
		data.EvaluationID = &id
	}
	return json.Marshal(data)
}

func (e *RosterEntry) UnmarshalJSON(b []byte) error {
	var data rosterEntryJSON
	if err := json.Unmarshal(b, &data); err != nil {
		return err
	}
	*e = RosterEntry{
		StudentID:       data.StudentID,
		StudentName:     data.StudentName,
		State:           Unpersisted{},
		Header:          data.Header,
		QualityRatings:  data.QualityRatings,
		SubjectComments: data.SubjectComments,
		SubjectScores:   data.SubjectScores,
	}
	if data.EvaluationID != nil {
		e.State = StateOf(*data.EvaluationID)
	}
	return nil
}

// Roster is the collection of report cards of a class being edited and saved together.
// Entries are owned by the caller; SaveAll only ever sets their State.
type Roster struct {
	Scope
	Subjects []Subject      `json:"subjects"`
	Traits   []string       `json:"traits"`
	Entries  []*RosterEntry `json:"entries"`
}

// Entry returns the entry of the given student, or nil.
func (r *Roster) Entry(studentID string) *RosterEntry {
	for _, e := range r.Entries {
		if e != nil && e.StudentID == studentID {
			return e
		}
	}
	return nil
}

// newEntry returns an entry with one empty value per known subject and trait.
func (r *Roster) newEntry(st StudentProfile) *RosterEntry {
	entry := &RosterEntry{
		StudentID:       st.ID,
		StudentName:     st.Name,
		State:           Unpersisted{},
		QualityRatings:  make(map[string]Rating, len(r.Traits)),
		SubjectComments: make(map[string]string, len(r.Subjects)),
		SubjectScores:   make(map[string]SubjectScore),
	}
	for _, subj := range r.Subjects {
		entry.SubjectComments[subj.ID] = ""
	}
	for _, trait := range r.Traits {
		entry.QualityRatings[trait] = RatingNone
	}
	return entry
}

// applyFinalRecords merges end of term results into the entry.
// Scores and evaluations are always taken; comments only fill empty slots.
func (e *RosterEntry) applyFinalRecords(records []FinalTermRecord) {
	for _, rec := range records {
		comment, known := e.SubjectComments[rec.SubjectID]
		if !known {
			continue
		}
		e.SubjectScores[rec.SubjectID] = SubjectScore{Score: rec.Score, Evaluation: rec.Evaluation}
		if comment == "" {
			e.SubjectComments[rec.SubjectID] = rec.Comment
		}
	}
}

// applyEvaluation merges a persisted evaluation into the entry.
// Child records of unknown subjects or traits are dropped.
func (e *RosterEntry) applyEvaluation(ev Evaluation) {
	e.State = StateOf(ev.ID)
	e.Header = ev.Header
	for _, sc := range ev.SubjectComments {
		if _, known := e.SubjectComments[sc.SubjectID]; known {
			e.SubjectComments[sc.SubjectID] = sc.Comment
		}
	}
	for _, qr := range ev.QualityRatings {
		if _, known := e.QualityRatings[qr.TraitID]; known {
			e.QualityRatings[qr.TraitID] = qr.Rating
		}
	}
}
