package docrepos

import (
	"context"
	"sort"

	"github.com/trezcool/edutrack/core/coursework"
	"github.com/trezcool/edutrack/storage/database/docstore"
)

type courseworkRepository struct {
	repo
}

var _ coursework.Repository = (*courseworkRepository)(nil)

func NewCourseworkRepository(store docstore.Store) coursework.Repository {
	return &courseworkRepository{repo{store: store}}
}

func submissionKeys(s coursework.Submission) []string {
	return keysOf("as", s.AssignmentID+"/"+s.StudentID)
}

func (r *courseworkRepository) CreateAssignment(ctx context.Context, a coursework.Assignment) (coursework.Assignment, error) {
	a.ID = newID()
	if err := r.insert(ctx, assignmentsColl, a.ID, nil, a); err != nil {
		return coursework.Assignment{}, err
	}
	return a, nil
}

func (r *courseworkRepository) GetAssignment(ctx context.Context, id string) (coursework.Assignment, error) {
	var a coursework.Assignment
	if err := r.get(ctx, assignmentsColl, id, &a); err != nil {
		return coursework.Assignment{}, notFound(err, coursework.ErrAssignmentNotFound)
	}
	return a, nil
}

func (r *courseworkRepository) QueryAssignments(ctx context.Context, courseID string) ([]coursework.Assignment, error) {
	assignments := make([]coursework.Assignment, 0)
	err := r.list(ctx, assignmentsColl,
		func() interface{} { return new(coursework.Assignment) },
		func(item interface{}) {
			if a := *item.(*coursework.Assignment); courseID == "" || a.CourseID == courseID {
				assignments = append(assignments, a)
			}
		},
	)
	sort.SliceStable(assignments, func(i, j int) bool { return assignments[i].DueDate.Before(assignments[j].DueDate) })
	return assignments, err
}

func (r *courseworkRepository) CreateSubmission(ctx context.Context, s coursework.Submission) (coursework.Submission, error) {
	s.ID = newID()
	if err := r.insert(ctx, submissionsColl, s.ID, submissionKeys(s), s); err != nil {
		return coursework.Submission{}, err
	}
	return s, nil
}

func (r *courseworkRepository) GetSubmission(ctx context.Context, filter coursework.SubmissionFilter) (coursework.Submission, error) {
	var s coursework.Submission
	var err error
	if filter.ID != "" {
		err = r.get(ctx, submissionsColl, filter.ID, &s)
	} else {
		err = r.getByKey(ctx, submissionsColl, "as:"+filter.AssignmentID+"/"+filter.StudentID, &s)
	}
	if err != nil {
		return coursework.Submission{}, notFound(err, coursework.ErrSubmissionNotFound)
	}
	return s, nil
}

func (r *courseworkRepository) QuerySubmissions(ctx context.Context, query *coursework.SubmissionQuery) ([]coursework.Submission, error) {
	submissions := make([]coursework.Submission, 0)
	err := r.list(ctx, submissionsColl,
		func() interface{} { return new(coursework.Submission) },
		func(item interface{}) {
			if s := *item.(*coursework.Submission); query.Match(s) {
				submissions = append(submissions, s)
			}
		},
	)
	return submissions, err
}

func (r *courseworkRepository) UpdateSubmission(ctx context.Context, s coursework.Submission) (coursework.Submission, error) {
	if err := r.update(ctx, submissionsColl, s.ID, submissionKeys(s), s); err != nil {
		return coursework.Submission{}, notFound(err, coursework.ErrSubmissionNotFound)
	}
	return s, nil
}
