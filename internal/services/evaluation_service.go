package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/TonyCasey/public-prep-sub002/internal/cache"
	"github.com/TonyCasey/public-prep-sub002/internal/models"
	"github.com/TonyCasey/public-prep-sub002/internal/providers/llm"
	pgrepo "github.com/TonyCasey/public-prep-sub002/internal/repositories/postgres"
	"github.com/TonyCasey/public-prep-sub002/internal/utils"
)

const (
	ReasonAnswerTooShort        = "ANSWER_TOO_SHORT"
	ReasonEvaluationUnavailable = "EVALUATION_UNAVAILABLE"
)

type SubmitAnswerInput struct {
	QuestionID       string
	AnswerText       string
	TimeSpentSeconds int
}

// SubmissionResult carries the answer plus, when evaluation succeeded, the
// rating and the post-rating interview state. On EVALUATION_UNAVAILABLE the
// answer is still persisted and retryable by ID.
type SubmissionResult struct {
	Answer    *models.Answer    `json:"answer"`
	Rating    *models.Rating    `json:"rating,omitempty"`
	Interview *models.Interview `json:"interview,omitempty"`
}

type EvaluationService interface {
	Submit(ctx context.Context, ownerID, interviewID string, in SubmitAnswerInput) (*SubmissionResult, error)
	// Retry re-runs evaluation for an answer whose first evaluation failed.
	// An answer that already has a rating fails with CONFLICT.
	Retry(ctx context.Context, ownerID, answerID string) (*SubmissionResult, error)
}

type evaluationService struct {
	users         pgrepo.UserRepository
	interviews    pgrepo.InterviewRepository
	questions     pgrepo.QuestionRepository
	answers       pgrepo.AnswerRepository
	ratings       pgrepo.RatingRepository
	llm           llm.Provider
	cache         cache.Cache
	notifications NotificationService
	timeout       time.Duration
	minLength     int

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewEvaluationService(
	users pgrepo.UserRepository,
	interviews pgrepo.InterviewRepository,
	questions pgrepo.QuestionRepository,
	answers pgrepo.AnswerRepository,
	ratings pgrepo.RatingRepository,
	provider llm.Provider,
	c cache.Cache,
	notifications NotificationService,
	timeout time.Duration,
	minLength int,
) EvaluationService {
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	if minLength <= 0 {
		minLength = 100
	}
	return &evaluationService{
		users:         users,
		interviews:    interviews,
		questions:     questions,
		answers:       answers,
		ratings:       ratings,
		llm:           provider,
		cache:         c,
		notifications: notifications,
		timeout:       timeout,
		minLength:     minLength,
		inFlight:      make(map[string]struct{}),
	}
}

// acquire marks an (interview, question) pair as being evaluated. A second
// submission for the same pair while one is in flight is rejected rather
// than queued.
func (s *evaluationService) acquire(interviewID, questionID string) bool {
	key := interviewID + ":" + questionID
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[key]; busy {
		return false
	}
	s.inFlight[key] = struct{}{}
	return true
}

func (s *evaluationService) release(interviewID, questionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, interviewID+":"+questionID)
}

func (s *evaluationService) Submit(ctx context.Context, ownerID, interviewID string, in SubmitAnswerInput) (*SubmissionResult, error) {
	const op = "EvaluationService.Submit"

	text := strings.TrimSpace(in.AnswerText)
	if len(text) < s.minLength {
		return nil, utils.Reasoned(utils.CodeInvalidArgument, op, ReasonAnswerTooShort,
			"answer is too short to evaluate", nil)
	}

	iv, q, err := s.loadPair(ctx, op, ownerID, interviewID, in.QuestionID)
	if err != nil {
		return nil, err
	}
	if !iv.IsActive && iv.CompletedAt == nil {
		return nil, utils.E(utils.CodeConflict, op, "interview was abandoned", nil)
	}

	if !s.acquire(interviewID, q.ID) {
		return nil, utils.E(utils.CodeConflict, op, "an evaluation for this question is already in flight", nil)
	}
	defer s.release(interviewID, q.ID)

	// The answer is durable before the evaluator is consulted, so an
	// evaluator outage costs a retry, not a retype.
	answer := &models.Answer{
		ID:               uuid.NewString(),
		InterviewID:      interviewID,
		QuestionID:       q.ID,
		AnswerText:       text,
		TimeSpentSeconds: in.TimeSpentSeconds,
		AnsweredAt:       time.Now().UTC(),
	}
	if err := s.answers.Insert(ctx, answer); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to save answer", err)
	}

	return s.evaluate(ctx, op, iv, q, answer)
}

func (s *evaluationService) Retry(ctx context.Context, ownerID, answerID string) (*SubmissionResult, error) {
	const op = "EvaluationService.Retry"

	answer, err := s.answers.GetByID(ctx, answerID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "answer not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load answer", err)
	}

	iv, q, err := s.loadPair(ctx, op, ownerID, answer.InterviewID, answer.QuestionID)
	if err != nil {
		return nil, err
	}

	if _, err := s.ratings.GetByAnswer(ctx, answerID); err == nil {
		return nil, utils.E(utils.CodeConflict, op, "answer is already rated", nil)
	} else if !errors.Is(err, utils.ErrNotFound) {
		return nil, utils.E(utils.CodeInternal, op, "failed to check rating", err)
	}

	if !s.acquire(iv.ID, q.ID) {
		return nil, utils.E(utils.CodeConflict, op, "an evaluation for this question is already in flight", nil)
	}
	defer s.release(iv.ID, q.ID)

	return s.evaluate(ctx, op, iv, q, answer)
}

func (s *evaluationService) evaluate(ctx context.Context, op string, iv *models.Interview, q *models.Question, answer *models.Answer) (*SubmissionResult, error) {
	evalCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.llm.EvaluateAnswer(evalCtx, llm.EvaluationRequest{
		AnswerText:   answer.AnswerText,
		QuestionText: q.QuestionText,
		Competency:   q.Competency,
		Grade:        iv.Grade,
	})
	if err != nil {
		code := utils.CodeUnavailable
		if errors.Is(err, context.DeadlineExceeded) {
			code = utils.CodeTimeout
		}
		return nil, utils.Reasoned(code, op, ReasonEvaluationUnavailable,
			"evaluation is temporarily unavailable; the answer was saved", err)
	}

	rating, err := buildRating(answer.ID, result)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to encode rating", err)
	}

	updated, err := s.ratings.Record(ctx, rating, iv.ID, q.ID)
	if err != nil {
		if errors.Is(err, utils.ErrConflict) {
			return nil, utils.E(utils.CodeConflict, op, "answer is already rated", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to record rating", err)
	}

	if s.cache != nil {
		_ = s.cache.Del(ctx, reportCacheKey(iv.ID))
	}

	if updated.CompletedAt != nil && iv.CompletedAt == nil {
		s.notifyCompleted(ctx, updated)
	}

	return &SubmissionResult{Answer: answer, Rating: rating, Interview: updated}, nil
}

func (s *evaluationService) notifyCompleted(ctx context.Context, iv *models.Interview) {
	if s.notifications == nil {
		return
	}
	user, err := s.users.GetByID(ctx, iv.OwnerID)
	if err != nil {
		return
	}
	avg := 0.0
	if iv.AverageScore != nil {
		avg = *iv.AverageScore
	}
	s.notifications.InterviewCompleted(user.Email, iv.JobTitle, avg)
}

// loadPair resolves the interview and question and verifies ownership and
// that the question belongs to the interview.
func (s *evaluationService) loadPair(ctx context.Context, op, ownerID, interviewID, questionID string) (*models.Interview, *models.Question, error) {
	if ownerID == "" || interviewID == "" || questionID == "" {
		return nil, nil, utils.E(utils.CodeInvalidArgument, op, "owner_id, interview_id and question_id are required", nil)
	}

	iv, err := s.interviews.GetByID(ctx, interviewID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, nil, utils.E(utils.CodeNotFound, op, "interview not found", err)
		}
		return nil, nil, utils.E(utils.CodeInternal, op, "failed to load interview", err)
	}
	if iv.OwnerID != ownerID {
		return nil, nil, utils.E(utils.CodeForbidden, op, "forbidden", nil)
	}

	q, err := s.questions.GetByID(ctx, questionID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, nil, utils.E(utils.CodeNotFound, op, "question not found", err)
		}
		return nil, nil, utils.E(utils.CodeInternal, op, "failed to load question", err)
	}
	if q.InterviewID != interviewID {
		return nil, nil, utils.E(utils.CodeInvalidArgument, op, "question does not belong to this interview", nil)
	}
	return iv, q, nil
}

func buildRating(answerID string, result *llm.RatingResult) (*models.Rating, error) {
	competencyScores, err := json.Marshal(result.CompetencyScores)
	if err != nil {
		return nil, err
	}
	star, err := json.Marshal(result.Star)
	if err != nil {
		return nil, err
	}
	return &models.Rating{
		ID:               uuid.NewString(),
		AnswerID:         answerID,
		OverallScore:     result.OverallScore,
		CompetencyScores: competencyScores,
		StarAnalysis:     star,
		Feedback:         result.Feedback,
		Strengths:        result.Strengths,
		ImprovementAreas: result.ImprovementAreas,
		ImprovedAnswer:   result.ImprovedAnswer,
		RatedAt:          time.Now().UTC(),
	}, nil
}
