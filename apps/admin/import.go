package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/trezcool/solienlac/core/evaluation"
)

type (
	classImport struct {
		ID               string                       `json:"id"`
		Name             string                       `json:"name"`
		Subjects         []evaluation.Subject         `json:"subjects"`
		Students         []evaluation.StudentProfile  `json:"students"`
		FinalTermRecords []evaluation.FinalTermRecord `json:"final_term_records"`
	}

	importData struct {
		Classes []classImport `json:"classes"`
	}
)

func (cli *commandLine) importFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var data importData
	if err = json.NewDecoder(f).Decode(&data); err != nil {
		return errors.Wrapf(err, "decoding %s", path)
	}
	return cli.importClasses(context.Background(), data)
}

// importClasses creates the classes then adds their subjects, students and final term records.
// Subjects and students are created or updated.
func (cli *commandLine) importClasses(ctx context.Context, data importData) error {
	if cli.store == nil {
		return errNoDatabase
	}
	for _, class := range data.Classes {
		if err := cli.store.CreateClass(ctx, class.ID, class.Name); err != nil && !errors.Is(err, evaluation.ErrConflict) {
			return errors.Wrapf(err, "creating class %s", class.ID)
		}
		for _, subj := range class.Subjects {
			if err := cli.store.CreateSubject(ctx, subj); err != nil {
				return errors.Wrapf(err, "creating subject %s", subj.ID)
			}
			if err := cli.store.AddClassSubject(ctx, class.ID, subj.ID); err != nil {
				return errors.Wrapf(err, "adding subject %s to class %s", subj.ID, class.ID)
			}
		}
		for _, st := range class.Students {
			if err := cli.store.AddStudent(ctx, class.ID, st); err != nil {
				return errors.Wrapf(err, "adding student %s to class %s", st.ID, class.ID)
			}
		}
		for _, rec := range class.FinalTermRecords {
			if err := cli.store.SaveFinalTermRecord(ctx, class.ID, rec); err != nil {
				return errors.Wrapf(err, "saving final term record of %s in %s", rec.StudentID, rec.SubjectID)
			}
		}
		fmt.Fprintf(cli.out, "class %s: %d subjects, %d students, %d final term records\n",
			class.ID, len(class.Subjects), len(class.Students), len(class.FinalTermRecords))
	}
	return nil
}
