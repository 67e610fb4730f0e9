package evaluation

import (
	"fmt"
	"net/mail"
	"sync"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"

	"github.com/trezcool/solienlac/core"
)

const defaultConcurrency = 8

var nowFunc = time.Now // mockable

// Observer is notified after every batch save.
type Observer interface {
	ObserveSave(scope Scope, res Result, elapsed time.Duration)
}

type (
	Deps struct {
		Repo       Repository
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator
		Conf       *core.Config

		// optional
		MailSvc  core.EmailService
		Observer Observer
	}

	// Service loads and saves the report cards of a class.
	Service struct {
		repo       Repository
		logger     core.Logger
		validate   *validator.Validate
		translator ut.Translator
		mailSvc    core.EmailService
		observer   Observer

		traits      []string
		concurrency int
		reportTo    []mail.Address

		mu       sync.Mutex
		inFlight map[Scope]struct{}
	}
)

// NewService returns a Service. It panics if a required dependency is missing.
func NewService(deps Deps) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(deps.Repo, "Repo"),
		vala.IsNotNil(deps.Logger, "Logger"),
		vala.IsNotNil(deps.Validate, "Validate"),
		vala.IsNotNil(deps.Translator, "Translator"),
		vala.IsNotNil(deps.Conf, "Conf"),
	).CheckAndPanic()

	traits := deps.Conf.Evaluation.Traits
	if len(traits) == 0 {
		traits = core.DefaultTraits
	}
	concurrency := deps.Conf.Evaluation.SaveConcurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Service{
		repo:        deps.Repo,
		logger:      deps.Logger,
		validate:    deps.Validate,
		translator:  deps.Translator,
		mailSvc:     deps.MailSvc,
		observer:    deps.Observer,
		traits:      append([]string(nil), traits...),
		concurrency: concurrency,
		reportTo:    core.ParseAddressList(deps.Conf.Evaluation.FailureReportTo),
		inFlight:    make(map[Scope]struct{}),
	}
}

// Traits returns the quality traits rated on every report card.
func (svc *Service) Traits() []string {
	return append([]string(nil), svc.traits...)
}

// acquire marks a save of scope as in flight. It returns false if one already is.
func (svc *Service) acquire(scope Scope) bool {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if _, busy := svc.inFlight[scope]; busy {
		return false
	}
	svc.inFlight[scope] = struct{}{}
	return true
}

func (svc *Service) release(scope Scope) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	delete(svc.inFlight, scope)
}

func (svc *Service) logResult(scope Scope, res Result) {
	for _, sr := range res.Students {
		extras := map[string]interface{}{"scope": scope.String(), "student": sr.StudentID}
		switch sr.Outcome {
		case OutcomeInvalid:
			svc.logger.Warn(fmt.Sprintf("report card of student %s rejected: %v", sr.StudentID, sr.Err), extras)
		case OutcomeHeaderFailed:
			svc.logger.Error(fmt.Sprintf("saving evaluation of student %s: %v", sr.StudentID, sr.Err), sr.Err, extras)
		case OutcomeChildrenFailed:
			// child failures are reported but do not fail the batch
			for _, c := range sr.FailedChildren() {
				svc.logger.Warn(
					fmt.Sprintf("saving %s %q of student %s: %v", c.Kind, c.Key, sr.StudentID, c.Err),
					c.Err, extras,
				)
			}
		}
	}

	s := res.Summary()
	svc.logger.Info(fmt.Sprintf(
		"report cards %s saved: success=%t students=%d saved=%d invalid=%d header_failed=%d children_failed=%d",
		scope, res.Success, s.Students, s.Saved, s.Invalid, s.HeaderFailed, s.ChildrenFailed,
	))
}

// reportFailure e-mails the per-student breakdown of a failed batch, if recipients are configured.
func (svc *Service) reportFailure(scope Scope, res Result) {
	if svc.mailSvc == nil || len(svc.reportTo) == 0 {
		return
	}

	failures := res.Failures()
	lines := make([]string, 0, len(failures))
	for _, sr := range failures {
		switch sr.Outcome {
		case OutcomeInvalid, OutcomeHeaderFailed:
			lines = append(lines, fmt.Sprintf("- %s: %s (%v)", sr.StudentID, sr.Outcome, sr.Err))
		case OutcomeChildrenFailed:
			lines = append(lines, fmt.Sprintf("- %s: %s (%d failed writes)", sr.StudentID, sr.Outcome, len(sr.FailedChildren())))
		}
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      svc.reportTo,
		Subject: fmt.Sprintf("Report cards of class %s (semester %d, %s) were not saved", scope.ClassID, scope.Semester, scope.SchoolYear),
		BodyStr: fmt.Sprintf("%d of %d report cards could not be saved:", len(failures), len(res.Students)),
		Lines:   lines,
	})
}
