package inmemdb

import (
	"context"
	"sort"

	"github.com/lusembo/maendeleo/core/quiz"
)

type quizRepository struct {
	db *DB
}

var _ quiz.Repository = (*quizRepository)(nil)

func NewQuizRepository(db *DB) *quizRepository {
	return &quizRepository{db: db}
}

func (repo *quizRepository) GetQuiz(ctx context.Context, id string) (quiz.Quiz, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	qz, ok := repo.db.quizzes[id]
	if !ok {
		return quiz.Quiz{}, quiz.ErrNotFound
	}
	return qz, nil
}

func (repo *quizRepository) CreateAttempt(ctx context.Context, att quiz.Attempt) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.attempts[att.ID]; ok {
		return quiz.ErrAlreadyGraded
	}
	repo.db.attempts[att.ID] = att
	return nil
}

func (repo *quizRepository) QueryAttempts(ctx context.Context, learnerID, quizID string) ([]quiz.Attempt, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var attempts []quiz.Attempt
	for _, att := range repo.db.attempts {
		if att.LearnerID == learnerID && att.QuizID == quizID {
			attempts = append(attempts, att)
		}
	}
	sort.Slice(attempts, func(i, j int) bool { return attempts[i].CreatedAt.After(attempts[j].CreatedAt) })
	return attempts, nil
}
