package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lusembo/maendeleo/core/course"
	"github.com/lusembo/maendeleo/core/quiz"
	"github.com/lusembo/maendeleo/core/user"
	inmemdb "github.com/lusembo/maendeleo/storage/database/inmem"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		ID:        uuid.New().String(),
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	usr.SetActive(isActive)
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// CreateCourse seeds a course with lessonCount lessons titled "<name> - Lesson N".
func CreateCourse(t *testing.T, db *inmemdb.DB, name string, lessonCount int, prereqIDs ...string) course.Course {
	t.Helper()

	crs := course.Course{
		ID:            uuid.New().String(),
		Name:          name,
		Prerequisites: prereqIDs,
		CreatedAt:     time.Now().UTC(),
	}
	for i := 0; i < lessonCount; i++ {
		crs.Lessons = append(crs.Lessons, course.Lesson{
			ID:       uuid.New().String(),
			CourseID: crs.ID,
			Title:    fmt.Sprintf("%s - Lesson %d", name, i+1),
			Position: i + 1,
		})
	}
	db.SetCourse(crs)
	return crs
}

func CreateQuiz(t *testing.T, db *inmemdb.DB, courseID, title string, passingScorePercent int, questions ...quiz.Question) quiz.Quiz {
	t.Helper()

	qz := quiz.Quiz{
		ID:                  uuid.New().String(),
		CourseID:            courseID,
		Title:               title,
		PassingScorePercent: passingScorePercent,
		CreatedAt:           time.Now().UTC(),
	}
	for i, q := range questions {
		q.ID = uuid.New().String()
		q.QuizID = qz.ID
		q.Position = i + 1
		qz.Questions = append(qz.Questions, q)
	}
	db.SetQuiz(qz)
	return qz
}

func Enroll(t *testing.T, repo course.Repository, learnerID, courseID string) {
	t.Helper()

	err := repo.CreateEnrollment(context.Background(), course.Enrollment{
		LearnerID: learnerID,
		CourseID:  courseID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Enroll() failed: %v", err)
	}
}
