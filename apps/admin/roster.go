package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/solienlac/core/evaluation"
)

var (
	errSaveFailed   = errors.New("some report cards could not be saved")
	errVerifyFailed = errors.New("some report cards are incomplete")
)

// roster prints the report cards of a class as JSON.
func (cli *commandLine) roster(classID string, semester evaluation.Semester, schoolYear string) error {
	roster, err := cli.svc.LoadRoster(context.Background(), classID, semester, schoolYear)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cli.out)
	enc.SetIndent("", "  ")
	return enc.Encode(roster)
}

// resave loads the report cards of a class and saves them back, rewriting every child record.
func (cli *commandLine) resave(classID string, semester evaluation.Semester, schoolYear string) error {
	ctx := context.Background()
	roster, err := cli.svc.LoadRoster(ctx, classID, semester, schoolYear)
	if err != nil {
		return err
	}
	res, err := cli.svc.SaveAll(ctx, roster)
	if err != nil {
		return err
	}

	s := res.Summary()
	fmt.Fprintf(cli.out, "%d students: %d saved, %d invalid, %d header failures, %d with child failures (%d created)\n",
		s.Students, s.Saved, s.Invalid, s.HeaderFailed, s.ChildrenFailed, s.Created)
	for _, sr := range res.Failures() {
		fmt.Fprintf(cli.out, "  %s: %s", sr.StudentID, sr.Outcome)
		if sr.Err != nil {
			fmt.Fprintf(cli.out, ": %v", sr.Err)
		}
		fmt.Fprintln(cli.out)
		for _, c := range sr.FailedChildren() {
			fmt.Fprintf(cli.out, "    %s %s: %v\n", c.Kind, c.Key, c.Err)
		}
	}
	if !res.Success {
		return errSaveFailed
	}
	return nil
}

// verify checks that the persisted evaluation of every student holds one subject comment per
// class subject and one quality rating per trait, printing a diff for each incomplete one.
func (cli *commandLine) verify(classID string, semester evaluation.Semester, schoolYear string) error {
	ctx := context.Background()
	roster, err := cli.svc.LoadRoster(ctx, classID, semester, schoolYear)
	if err != nil {
		return err
	}

	want := make([]string, 0, len(roster.Subjects)+len(roster.Traits))
	for _, subj := range roster.Subjects {
		want = append(want, childKey(evaluation.ChildSubjectComment, subj.ID))
	}
	for _, trait := range roster.Traits {
		want = append(want, childKey(evaluation.ChildQualityRating, trait))
	}
	sort.Strings(want)

	var incomplete int
	for _, entry := range roster.Entries {
		id, ok := entry.EvaluationID()
		if !ok {
			fmt.Fprintf(cli.out, "%s: no evaluation\n", entry.StudentID)
			incomplete++
			continue
		}
		evals, err := cli.repo.LookupEvaluations(ctx, entry.StudentID, semester, schoolYear)
		if err != nil {
			return errors.Wrapf(err, "looking up evaluations of %s", entry.StudentID)
		}
		ev, found := findEvaluation(evals, id)
		if !found {
			return errors.Errorf("evaluation %s of %s disappeared", id, entry.StudentID)
		}

		diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        keyLines(want),
			B:        keyLines(persistedKeys(ev)),
			FromFile: "expected",
			ToFile:   "evaluation " + id,
			Context:  1,
		})
		if err != nil {
			return errors.Wrap(err, "diffing child records")
		}
		if diff != "" {
			fmt.Fprintf(cli.out, "%s:\n%s", entry.StudentID, diff)
			incomplete++
		}
	}

	fmt.Fprintf(cli.out, "%d of %d report cards complete\n", len(roster.Entries)-incomplete, len(roster.Entries))
	if incomplete > 0 {
		return errVerifyFailed
	}
	return nil
}

func childKey(kind evaluation.ChildKind, key string) string {
	return string(kind) + " " + key
}

func keyLines(keys []string) []string {
	lines := make([]string, len(keys))
	for i, k := range keys {
		lines[i] = k + "\n"
	}
	return lines
}

func persistedKeys(ev evaluation.Evaluation) []string {
	keys := make([]string, 0, len(ev.SubjectComments)+len(ev.QualityRatings))
	for _, sc := range ev.SubjectComments {
		keys = append(keys, childKey(evaluation.ChildSubjectComment, sc.SubjectID))
	}
	for _, qr := range ev.QualityRatings {
		keys = append(keys, childKey(evaluation.ChildQualityRating, qr.TraitID))
	}
	sort.Strings(keys)
	return keys
}

func findEvaluation(evals []evaluation.Evaluation, id string) (evaluation.Evaluation, bool) {
	for _, ev := range evals {
		if ev.ID == id {
			return ev, true
		}
	}
	return evaluation.Evaluation{}, false
}
