package evaluation

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/solienlac/core"
)

const (
	opCreate  = "create_evaluation"
	opUpdate  = "update_evaluation"
	opComment = "subject_comment"
	opRating  = "quality_rating"
)

type call struct {
	Op           string
	StudentID    string // header calls only
	EvaluationID string
	Key          string
	Value        string
}

// fakeRepo is an in-memory Repository recording every write it receives.
type fakeRepo struct {
	mu     sync.Mutex
	calls  []call
	nextID int

	students map[string][]StudentProfile // by class
	subjects map[string][]Subject        // by class
	finals   map[string][]FinalTermRecord
	evals    map[string][]Evaluation // by student; lookups only

	headers  map[string]NewEvaluation
	comments map[string]map[string]string
	ratings  map[string]map[string]Rating

	failCreate   map[string]error // by student
	failUpdate   map[string]error // by evaluation
	failChild    map[string]error // by subject or trait
	failLookup   map[string]error // by student
	failRoster   error
	failSubjects error
	failFinals   error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		students:   make(map[string][]StudentProfile),
		subjects:   make(map[string][]Subject),
		finals:     make(map[string][]FinalTermRecord),
		evals:      make(map[string][]Evaluation),
		headers:    make(map[string]NewEvaluation),
		comments:   make(map[string]map[string]string),
		ratings:    make(map[string]map[string]Rating),
		failCreate: make(map[string]error),
		failUpdate: make(map[string]error),
		failChild:  make(map[string]error),
		failLookup: make(map[string]error),
	}
}

func (r *fakeRepo) record(c call) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c)
}

func (r *fakeRepo) LookupEvaluations(_ context.Context, studentID string, semester Semester, schoolYear string) ([]Evaluation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failLookup[studentID]; err != nil {
		return nil, err
	}
	var out []Evaluation
	for _, ev := range r.evals[studentID] {
		if ev.Semester == semester && ev.SchoolYear == schoolYear {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (r *fakeRepo) CreateEvaluation(ctx context.Context, ne NewEvaluation) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r.record(call{Op: opCreate, StudentID: ne.StudentID})

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failCreate[ne.StudentID]; err != nil {
		return "", err
	}
	r.nextID++
	id := fmt.Sprintf("ev%d", r.nextID)
	r.headers[id] = ne
	return id, nil
}

func (r *fakeRepo) UpdateEvaluation(_ context.Context, id string, header Header) error {
	r.record(call{Op: opUpdate, EvaluationID: id})

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failUpdate[id]; err != nil {
		return err
	}
	ne := r.headers[id]
	ne.Header = header
	r.headers[id] = ne
	return nil
}

func (r *fakeRepo) CreateSubjectComment(_ context.Context, evaluationID, subjectID, comment string) error {
	r.record(call{Op: opComment, EvaluationID: evaluationID, Key: subjectID, Value: comment})

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failChild[subjectID]; err != nil {
		return err
	}
	if r.comments[evaluationID] == nil {
		r.comments[evaluationID] = make(map[string]string)
	}
	r.comments[evaluationID][subjectID] = comment
	return nil
}

func (r *fakeRepo) CreateQualityRating(_ context.Context, evaluationID, traitID string, rating Rating) error {
	r.record(call{Op: opRating, EvaluationID: evaluationID, Key: traitID, Value: string(rating)})

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failChild[traitID]; err != nil {
		return err
	}
	if r.ratings[evaluationID] == nil {
		r.ratings[evaluationID] = make(map[string]Rating)
	}
	r.ratings[evaluationID][traitID] = rating
	return nil
}

func (r *fakeRepo) LookupFinalTermRecords(_ context.Context, classID string) ([]FinalTermRecord, error) {
	if r.failFinals != nil {
		return nil, r.failFinals
	}
	return r.finals[classID], nil
}

func (r *fakeRepo) LookupClassSubjects(_ context.Context, classID string) ([]Subject, error) {
	if r.failSubjects != nil {
		return nil, r.failSubjects
	}
	return r.subjects[classID], nil
}

func (r *fakeRepo) LookupClassRoster(_ context.Context, classID string) ([]StudentProfile, error) {
	if r.failRoster != nil {
		return nil, r.failRoster
	}
	return r.students[classID], nil
}

func (r *fakeRepo) callsOf(ops ...string) []call {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []call
	for _, c := range r.calls {
		for _, op := range ops {
			if c.Op == op {
				out = append(out, c)
			}
		}
	}
	return out
}

func (r *fakeRepo) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

// logEntry is one message captured by recordingLogger.
type logEntry struct {
	Level string
	Msg   string
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) log(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{Level: level, Msg: msg})
}

func (l *recordingLogger) Debug(msg string, _ ...interface{}) { l.log("debug", msg) }
func (l *recordingLogger) Info(msg string, _ ...interface{})  { l.log("info", msg) }
func (l *recordingLogger) Warn(msg string, _ ...interface{})  { l.log("warn", msg) }
func (l *recordingLogger) Error(msg string, _ ...interface{}) { l.log("error", msg) }
func (l *recordingLogger) Fatal(msg string, _ ...interface{}) { l.log("fatal", msg) }

func (l *recordingLogger) count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.entries {
		if e.Level == level {
			n++
		}
	}
	return n
}

type mailMock struct {
	mu   sync.Mutex
	sent []*core.EmailMessage
}

func (m *mailMock) SendMessages(messages ...*core.EmailMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, messages...)
}

type observerMock struct {
	calls []Result
}

func (o *observerMock) ObserveSave(_ Scope, res Result, _ time.Duration) {
	o.calls = append(o.calls, res)
}

func newValidator() (*validator.Validate, ut.Translator) {
	v := validator.New()
	tr := core.NewTranslator()
	core.InitValidators(v, tr)
	InitValidators(v, tr)
	return v, tr
}

func setup(t *testing.T, repo Repository, opts ...func(*Deps)) (*Service, *recordingLogger) {
	t.Helper()
	logger := &recordingLogger{}
	validate, translator := newValidator()
	deps := Deps{
		Repo:       repo,
		Logger:     logger,
		Validate:   validate,
		Translator: translator,
		Conf: &core.Config{
			Evaluation: core.EvaluationConfig{SaveConcurrency: 4},
		},
	}
	for _, opt := range opts {
		opt(&deps)
	}
	return NewService(deps), logger
}

func fPtr(f float64) *float64 { return &f }

var testScope = Scope{ClassID: "1A", Semester: SemesterOne, SchoolYear: "2023-2024"}
