package inmemdb

import (
	"context"
	"sort"

	"github.com/lusembo/maendeleo/core/course"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *DB) *courseRepository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) GetCourse(ctx context.Context, id string) (course.Course, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	crs, ok := repo.db.courses[id]
	if !ok {
		return course.Course{}, course.ErrNotFound
	}
	return crs, nil
}

func (repo *courseRepository) QueryAllCourses(ctx context.Context) ([]course.Course, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	courses := make([]course.Course, 0, len(repo.db.courses))
	for _, crs := range repo.db.courses {
		courses = append(courses, crs)
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].CreatedAt.Before(courses[j].CreatedAt) })
	return courses, nil
}

func (repo *courseRepository) GetLesson(ctx context.Context, id string) (course.Lesson, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	lsn, ok := repo.db.lessons[id]
	if !ok {
		return course.Lesson{}, course.ErrLessonNotFound
	}
	return lsn, nil
}

func (repo *courseRepository) EnrollmentExists(ctx context.Context, learnerID, courseID string) (bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	_, ok := repo.db.enrollments[key(learnerID, courseID)]
	return ok, nil
}

func (repo *courseRepository) CreateEnrollment(ctx context.Context, enr course.Enrollment) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	k := key(enr.LearnerID, enr.CourseID)
	if _, ok := repo.db.enrollments[k]; ok {
		return nil
	}
	repo.db.enrollments[k] = enr
	return nil
}
