package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/lusembo/maendeleo/core/course"
)

type courseRow struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
}

type lessonRow struct {
	ID       string `db:"id"`
	CourseID string `db:"course_id"`
	Title    string `db:"title"`
	Position int    `db:"position"`
}

func (r lessonRow) toLesson() course.Lesson {
	return course.Lesson{ID: r.ID, CourseID: r.CourseID, Title: r.Title, Position: r.Position}
}

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *sqlx.DB) *courseRepository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) GetCourse(ctx context.Context, id string) (course.Course, error) {
	x := ext(ctx, repo.db)

	var row courseRow
	if err := sqlx.GetContext(ctx, x, &row, `SELECT * FROM courses WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, err
	}

	crs := course.Course{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		CreatedAt:   row.CreatedAt,
	}

	var lessons []lessonRow
	err := sqlx.SelectContext(ctx, x, &lessons,
		`SELECT * FROM lessons WHERE course_id = $1 ORDER BY position`, id)
	if err != nil {
		return course.Course{}, err
	}
	crs.Lessons = make([]course.Lesson, 0, len(lessons))
	for _, l := range lessons {
		crs.Lessons = append(crs.Lessons, l.toLesson())
	}

	var prereqs pq.StringArray
	err = sqlx.GetContext(ctx, x, &prereqs,
		`SELECT COALESCE(array_agg(prerequisite_id), '{}') FROM course_prerequisites WHERE course_id = $1`, id)
	if err != nil {
		return course.Course{}, err
	}
	crs.Prerequisites = prereqs
	return crs, nil
}

func (repo *courseRepository) QueryAllCourses(ctx context.Context) ([]course.Course, error) {
	x := ext(ctx, repo.db)

	var rows []courseRow
	if err := sqlx.SelectContext(ctx, x, &rows, `SELECT * FROM courses ORDER BY created_at`); err != nil {
		return nil, err
	}

	var lessons []lessonRow
	if err := sqlx.SelectContext(ctx, x, &lessons, `SELECT * FROM lessons ORDER BY position`); err != nil {
		return nil, err
	}
	lessonsByCourse := make(map[string][]course.Lesson)
	for _, l := range lessons {
		lessonsByCourse[l.CourseID] = append(lessonsByCourse[l.CourseID], l.toLesson())
	}

	type prereqRow struct {
		CourseID       string `db:"course_id"`
		PrerequisiteID string `db:"prerequisite_id"`
	}
	var prereqs []prereqRow
	if err := sqlx.SelectContext(ctx, x, &prereqs, `SELECT * FROM course_prerequisites`); err != nil {
		return nil, err
	}
	prereqsByCourse := make(map[string][]string)
	for _, p := range prereqs {
		prereqsByCourse[p.CourseID] = append(prereqsByCourse[p.CourseID], p.PrerequisiteID)
	}

	courses := make([]course.Course, 0, len(rows))
	for _, r := range rows {
		courses = append(courses, course.Course{
			ID:            r.ID,
			Name:          r.Name,
			Description:   r.Description,
			Lessons:       lessonsByCourse[r.ID],
			Prerequisites: prereqsByCourse[r.ID],
			CreatedAt:     r.CreatedAt,
		})
	}
	return courses, nil
}

func (repo *courseRepository) GetLesson(ctx context.Context, id string) (course.Lesson, error) {
	var row lessonRow
	if err := sqlx.GetContext(ctx, ext(ctx, repo.db), &row, `SELECT * FROM lessons WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return course.Lesson{}, course.ErrLessonNotFound
		}
		return course.Lesson{}, err
	}
	return row.toLesson(), nil
}

func (repo *courseRepository) EnrollmentExists(ctx context.Context, learnerID, courseID string) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, ext(ctx, repo.db), &exists,
		`SELECT EXISTS (SELECT 1 FROM enrollments WHERE user_id = $1 AND course_id = $2)`,
		learnerID, courseID)
	return exists, err
}

func (repo *courseRepository) CreateEnrollment(ctx context.Context, enr course.Enrollment) error {
	_, err := ext(ctx, repo.db).ExecContext(ctx,
		`INSERT INTO enrollments (user_id, course_id, created_at) VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, course_id) DO NOTHING`,
		enr.LearnerID, enr.CourseID, enr.CreatedAt)
	return err
}
