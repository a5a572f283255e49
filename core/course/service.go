package course

import (
	"context"
	"errors"
	"time"
)

var (
	// errors
	ErrNotFound       = errors.New("course not found")
	ErrLessonNotFound = errors.New("lesson not found")
	ErrNotEnrolled    = errors.New("learner not enrolled in this course")
)

// IneligibleError is returned on an enrollment attempt with unmet
// prerequisites; it carries the blocking course list for the caller.
type IneligibleError struct {
	Blocking []BlockingCourse
}

func (err IneligibleError) Error() string { return "course prerequisites unmet" }

type (
	Repository interface {
		GetCourse(ctx context.Context, id string) (Course, error)
		QueryAllCourses(ctx context.Context) ([]Course, error)
		GetLesson(ctx context.Context, id string) (Lesson, error)
		EnrollmentExists(ctx context.Context, learnerID, courseID string) (bool, error)
		CreateEnrollment(ctx context.Context, enr Enrollment) error
	}

	// CompletionReader exposes the completion ledger counts this package
	// needs; implemented by the progress repository.
	CompletionReader interface {
		CountCompletedLessons(ctx context.Context, learnerID, courseID string) (int, error)
	}

	ServiceInterface interface {
		GetByID(ctx context.Context, id string) (Course, error)
		GetLesson(ctx context.Context, id string) (Lesson, error)
		IsEnrolled(ctx context.Context, learnerID, courseID string) (bool, error)
		CanEnroll(ctx context.Context, learnerID, courseID string) (Eligibility, error)
		Enroll(ctx context.Context, learnerID, courseID string) (Enrollment, error)
		Overview(ctx context.Context, learnerID string) ([]Overview, error)
	}

	Service struct {
		repo        Repository
		completions CompletionReader
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, completions CompletionReader) *Service {
	return &Service{repo: repo, completions: completions}
}

func (svc *Service) GetByID(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourse(ctx, id)
}

func (svc *Service) GetLesson(ctx context.Context, id string) (Lesson, error) {
	return svc.repo.GetLesson(ctx, id)
}

func (svc *Service) IsEnrolled(ctx context.Context, learnerID, courseID string) (bool, error) {
	return svc.repo.EnrollmentExists(ctx, learnerID, courseID)
}

// CanEnroll computes enrollment eligibility from the learner's completion of
// the course's direct prerequisites. A prerequisite is satisfied iff every
// one of its lessons is completed; a course with no lessons is vacuously
// satisfied. Transitive prerequisites are not checked.
func (svc *Service) CanEnroll(ctx context.Context, learnerID, courseID string) (Eligibility, error) {
	crs, err := svc.repo.GetCourse(ctx, courseID)
	if err != nil {
		return Eligibility{}, err
	}

	elig := Eligibility{Eligible: true, Blocking: []BlockingCourse{}}
	for _, preID := range crs.Prerequisites {
		pre, err := svc.repo.GetCourse(ctx, preID)
		if err != nil {
			return Eligibility{}, err
		}

		ok, err := svc.satisfied(ctx, learnerID, pre)
		if err != nil {
			return Eligibility{}, err
		}
		if ok {
			continue
		}

		enrolled, err := svc.repo.EnrollmentExists(ctx, learnerID, pre.ID)
		if err != nil {
			return Eligibility{}, err
		}
		elig.Eligible = false
		elig.Blocking = append(elig.Blocking, BlockingCourse{
			CourseRef: CourseRef{ID: pre.ID, Name: pre.Name},
			Enrolled:  enrolled,
		})
	}
	return elig, nil
}

// Enroll creates the (learner, course) enrollment after an eligibility
// check. Enrolling twice is a no-op.
func (svc *Service) Enroll(ctx context.Context, learnerID, courseID string) (Enrollment, error) {
	enr := Enrollment{LearnerID: learnerID, CourseID: courseID}

	exists, err := svc.repo.EnrollmentExists(ctx, learnerID, courseID)
	if err != nil {
		return Enrollment{}, err
	}
	if exists {
		return enr, nil
	}

	elig, err := svc.CanEnroll(ctx, learnerID, courseID)
	if err != nil {
		return Enrollment{}, err
	}
	if !elig.Eligible {
		return Enrollment{}, &IneligibleError{Blocking: elig.Blocking}
	}

	enr.CreatedAt = time.Now().UTC()
	if err := svc.repo.CreateEnrollment(ctx, enr); err != nil {
		return Enrollment{}, err
	}
	return enr, nil
}

// Overview lists all courses with the learner's completion standing;
// this feeds the dashboard course list.
func (svc *Service) Overview(ctx context.Context, learnerID string) ([]Overview, error) {
	courses, err := svc.repo.QueryAllCourses(ctx)
	if err != nil {
		return nil, err
	}

	overviews := make([]Overview, 0, len(courses))
	for _, crs := range courses {
		enrolled, err := svc.repo.EnrollmentExists(ctx, learnerID, crs.ID)
		if err != nil {
			return nil, err
		}
		completed, err := svc.completions.CountCompletedLessons(ctx, learnerID, crs.ID)
		if err != nil {
			return nil, err
		}

		ov := Overview{
			CourseRef:        CourseRef{ID: crs.ID, Name: crs.Name},
			Enrolled:         enrolled,
			LessonCount:      len(crs.Lessons),
			CompletedLessons: completed,
		}
		if ov.LessonCount > 0 {
			ov.CompletionPercent = 100 * completed / ov.LessonCount
		}
		overviews = append(overviews, ov)
	}
	return overviews, nil
}

func (svc *Service) satisfied(ctx context.Context, learnerID string, crs Course) (bool, error) {
	if len(crs.Lessons) == 0 {
		return true, nil
	}
	completed, err := svc.completions.CountCompletedLessons(ctx, learnerID, crs.ID)
	if err != nil {
		return false, err
	}
	return completed >= len(crs.Lessons), nil
}
