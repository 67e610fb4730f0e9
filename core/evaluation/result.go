package evaluation

import "fmt"

// Outcome is the terminal state of one student's save.
type Outcome int

const (
	// OutcomeSaved means the header and every child record were written.
	OutcomeSaved Outcome = iota
	// OutcomeInvalid means the entry was rejected locally and nothing was written.
	OutcomeInvalid
	// OutcomeHeaderFailed means the header write failed and no child write was issued.
	OutcomeHeaderFailed
	// OutcomeChildrenFailed means the header was written but one or more child writes failed.
	OutcomeChildrenFailed
)

var outcomeNames = map[Outcome]string{
	OutcomeSaved:          "saved",
	OutcomeInvalid:        "invalid",
	OutcomeHeaderFailed:   "header_failed",
	OutcomeChildrenFailed: "children_failed",
}

func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *Outcome) UnmarshalText(b []byte) error {
	for outcome, name := range outcomeNames {
		if name == string(b) {
			*o = outcome
			return nil
		}
	}
	return fmt.Errorf("unknown outcome %q", string(b))
}

type ChildKind string

const (
	ChildSubjectComment ChildKind = "subject_comment"
	ChildQualityRating  ChildKind = "quality_rating"
)

// ChildWrite records one subject comment or quality rating write.
type ChildWrite struct {
	Kind  ChildKind
	Key   string // subject id or trait id
	Value string
	Err   error
}

func (c ChildWrite) Failed() bool { return c.Err != nil }

type StudentResult struct {
	StudentID    string
	Outcome      Outcome
	Created      bool // the header was created (rather than updated) during this save
	EvaluationID string
	Err          error // set for OutcomeInvalid and OutcomeHeaderFailed
	Children     []ChildWrite
}

// HeaderSucceeded reports whether the header record was written.
func (r StudentResult) HeaderSucceeded() bool {
	return r.Outcome == OutcomeSaved || r.Outcome == OutcomeChildrenFailed
}

func (r StudentResult) FailedChildren() []ChildWrite {
	var failed []ChildWrite
	for _, c := range r.Children {
		if c.Failed() {
			failed = append(failed, c)
		}
	}
	return failed
}

// Result is the outcome of a batch save.
// Success is true only if every student's header was written; failed child writes do not count.
type Result struct {
	Students []StudentResult
	Success  bool
}

type Summary struct {
	Students          int `json:"students"`
	Saved             int `json:"saved"`
	Invalid           int `json:"invalid"`
	HeaderFailed      int `json:"header_failed"`
	ChildrenFailed    int `json:"children_failed"`
	Created           int `json:"created"`
	ChildWrites       int `json:"child_writes"`
	FailedChildWrites int `json:"failed_child_writes"`
}

// Aggregate turns per-student results into a batch Result.
func Aggregate(students []StudentResult) Result {
	res := Result{Students: students, Success: true}
	for _, sr := range students {
		if !sr.HeaderSucceeded() {
			res.Success = false
		}
	}
	return res
}

func (r Result) Summary() Summary {
	s := Summary{Students: len(r.Students)}
	for _, sr := range r.Students {
		switch sr.Outcome {
		case OutcomeSaved:
			s.Saved++
		case OutcomeInvalid:
			s.Invalid++
		case OutcomeHeaderFailed:
			s.HeaderFailed++
		case OutcomeChildrenFailed:
			s.ChildrenFailed++
		}
		if sr.Created {
			s.Created++
		}
		s.ChildWrites += len(sr.Children)
		s.FailedChildWrites += len(sr.FailedChildren())
	}
	return s
}

// Failures returns the results of students that were not fully saved.
func (r Result) Failures() []StudentResult {
	var failed []StudentResult
	for _, sr := range r.Students {
		if sr.Outcome != OutcomeSaved {
			failed = append(failed, sr)
		}
	}
	return failed
}

// Student returns the result of the given student.
func (r Result) Student(studentID string) (StudentResult, bool) {
	for _, sr := range r.Students {
		if sr.StudentID == studentID {
			return sr, true
		}
	}
	return StudentResult{}, false
}
