package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/TonyCasey/public-prep-sub002/internal/cache"
	"github.com/TonyCasey/public-prep-sub002/internal/framework"
	"github.com/TonyCasey/public-prep-sub002/internal/models"
	"github.com/TonyCasey/public-prep-sub002/internal/providers/llm"
	pgrepo "github.com/TonyCasey/public-prep-sub002/internal/repositories/postgres"
	"github.com/TonyCasey/public-prep-sub002/internal/utils"
)

type CreateInterviewInput struct {
	JobTitle  string
	Grade     string
	Framework string
}

type QuestionReport struct {
	Question models.Question `json:"question"`
	Answer   *models.Answer  `json:"answer,omitempty"`
	Rating   *models.Rating  `json:"rating,omitempty"`
}

type InterviewReport struct {
	Interview models.Interview `json:"interview"`
	Questions []QuestionReport `json:"questions"`
	// CompetencyAverages is the mean overall score of the rated questions,
	// grouped by the question's competency tag.
	CompetencyAverages map[string]float64 `json:"competency_averages"`
}

type InterviewService interface {
	Create(ctx context.Context, ownerID string, in CreateInterviewInput) (*models.Interview, []models.Question, error)
	Get(ctx context.Context, ownerID, interviewID string) (*models.Interview, []models.Question, error)
	List(ctx context.Context, ownerID string, limit int) ([]models.Interview, error)
	// Advance moves to the next question. The current question must have a
	// persisted rating; forward navigation is gated on "answered", not
	// merely "visited". At the last question Advance is a no-op.
	Advance(ctx context.Context, ownerID, interviewID string) (*models.Interview, error)
	GoBack(ctx context.Context, ownerID, interviewID string) (*models.Interview, error)
	Abandon(ctx context.Context, ownerID, interviewID string) error
	Report(ctx context.Context, ownerID, interviewID string) (*InterviewReport, error)
}

type interviewService struct {
	users      pgrepo.UserRepository
	interviews pgrepo.InterviewRepository
	questions  pgrepo.QuestionRepository
	answers    pgrepo.AnswerRepository
	ratings    pgrepo.RatingRepository
	documents  pgrepo.DocumentRepository
	llm           llm.Provider
	catalog       *framework.Catalog
	cache         cache.Cache
	notifications NotificationService
	genTimeout    time.Duration
}

func NewInterviewService(
	users pgrepo.UserRepository,
	interviews pgrepo.InterviewRepository,
	questions pgrepo.QuestionRepository,
	answers pgrepo.AnswerRepository,
	ratings pgrepo.RatingRepository,
	documents pgrepo.DocumentRepository,
	provider llm.Provider,
	catalog *framework.Catalog,
	c cache.Cache,
	notifications NotificationService,
	genTimeout time.Duration,
) InterviewService {
	if genTimeout <= 0 {
		genTimeout = 45 * time.Second
	}
	return &interviewService{
		users:         users,
		interviews:    interviews,
		questions:     questions,
		answers:       answers,
		ratings:       ratings,
		documents:     documents,
		llm:           provider,
		catalog:       catalog,
		cache:         c,
		notifications: notifications,
		genTimeout:    genTimeout,
	}
}

func (s *interviewService) Create(ctx context.Context, ownerID string, in CreateInterviewInput) (*models.Interview, []models.Question, error) {
	const op = "InterviewService.Create"

	if ownerID == "" || in.JobTitle == "" {
		return nil, nil, utils.E(utils.CodeInvalidArgument, op, "owner_id and job_title are required", nil)
	}

	fw, ok := s.catalog.Framework(in.Framework)
	if !ok {
		return nil, nil, utils.E(utils.CodeInvalidArgument, op, "unknown framework: "+in.Framework, nil)
	}
	grade, ok := s.catalog.Grade(in.Grade)
	if !ok {
		return nil, nil, utils.E(utils.CodeInvalidArgument, op, "unknown grade: "+in.Grade, nil)
	}

	user, err := s.users.GetByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, nil, utils.E(utils.CodeNotFound, op, "user not found", err)
		}
		return nil, nil, utils.E(utils.CodeInternal, op, "failed to load user", err)
	}

	count, err := s.interviews.CountByOwner(ctx, ownerID)
	if err != nil {
		return nil, nil, utils.E(utils.CodeInternal, op, "failed to count interviews", err)
	}

	decision := EvaluateGate(user, count, time.Now().UTC())
	if !decision.Allowed {
		return nil, nil, utils.Reasoned(utils.CodeLimitExceeded, op, decision.Reason, "interview limit reached", nil)
	}

	// The gate read above is advisory; the starter credit is spent with a
	// conditional atomic update so two concurrent creates can never both
	// pass.
	starterCredit := false
	if user.SubscriptionStatus == models.SubscriptionStarter {
		consumed, err := s.users.ConsumeStarterCredit(ctx, ownerID)
		if err != nil {
			return nil, nil, utils.E(utils.CodeInternal, op, "failed to consume starter credit", err)
		}
		if !consumed {
			return nil, nil, utils.Reasoned(utils.CodeLimitExceeded, op, ReasonStarterLimitReached, "interview limit reached", nil)
		}
		starterCredit = true
	}

	iv, qs, err := s.buildSession(ctx, ownerID, in, fw, grade)
	if err == nil {
		onlyIfFirst := user.SubscriptionStatus == models.SubscriptionFree || user.SubscriptionStatus == ""
		err = s.interviews.Create(ctx, iv, qs, onlyIfFirst)
		if errors.Is(err, utils.ErrLimitReached) {
			err = utils.Reasoned(utils.CodeLimitExceeded, op, ReasonFreeLimitReached, "interview limit reached", nil)
		} else if err != nil {
			err = utils.E(utils.CodeInternal, op, "failed to create interview", err)
		}
	}
	if err != nil {
		// A transient failure must not burn the single starter credit.
		if starterCredit {
			_ = s.users.RefundStarterCredit(ctx, ownerID)
		}
		return nil, nil, err
	}

	if count == 0 && s.notifications != nil {
		s.notifications.FirstInterview(user.Email)
	}

	return iv, qs, nil
}

func (s *interviewService) buildSession(ctx context.Context, ownerID string, in CreateInterviewInput, fw *framework.Framework, grade *framework.Grade) (*models.Interview, []models.Question, error) {
	const op = "InterviewService.Create"

	competencies := make([]string, len(fw.Competencies))
	for i, c := range fw.Competencies {
		competencies[i] = c.Name
	}

	spec := llm.QuestionSpec{
		JobTitle:     in.JobTitle,
		Grade:        grade.Name,
		Framework:    fw.Key,
		Difficulty:   grade.Difficulty,
		Competencies: competencies,
	}
	if summary := s.analysisSummary(ctx, ownerID); summary != "" {
		spec.AnalysisSummary = summary
	}

	genCtx, cancel := context.WithTimeout(ctx, s.genTimeout)
	defer cancel()

	generated, err := s.llm.GenerateQuestions(genCtx, spec)
	if err != nil {
		code := utils.CodeUnavailable
		if errors.Is(err, context.DeadlineExceeded) {
			code = utils.CodeTimeout
		}
		return nil, nil, utils.E(code, op, "question generation unavailable", err)
	}

	now := time.Now().UTC()
	iv := &models.Interview{
		ID:             uuid.NewString(),
		OwnerID:        ownerID,
		JobTitle:       in.JobTitle,
		Grade:          in.Grade,
		Framework:      in.Framework,
		TotalQuestions: len(generated),
		StartedAt:      now,
		IsActive:       true,
	}

	qs := make([]models.Question, len(generated))
	for i, g := range generated {
		qs[i] = models.Question{
			ID:           uuid.NewString(),
			InterviewID:  iv.ID,
			Competency:   g.Competency,
			QuestionText: g.Question,
			Difficulty:   g.Difficulty,
			Ordinal:      i,
		}
	}
	return iv, qs, nil
}

// analysisSummary returns the latest CV analysis summary, if any. Failures
// here only mean questions are generated without the bias.
func (s *interviewService) analysisSummary(ctx context.Context, ownerID string) string {
	doc, err := s.documents.LatestByOwnerAndKind(ctx, ownerID, models.DocumentCV)
	if err != nil || doc.AnalysisStatus != models.AnalysisDone || len(doc.Analysis) == 0 {
		return ""
	}
	var analysis llm.DocumentAnalysis
	if err := json.Unmarshal(doc.Analysis, &analysis); err != nil {
		return ""
	}
	return analysis.Summary
}

func (s *interviewService) owned(ctx context.Context, op, ownerID, interviewID string) (*models.Interview, error) {
	if ownerID == "" || interviewID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "owner_id and interview_id are required", nil)
	}
	iv, err := s.interviews.GetByID(ctx, interviewID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "interview not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load interview", err)
	}
	if iv.OwnerID != ownerID {
		return nil, utils.E(utils.CodeForbidden, op, "forbidden", nil)
	}
	return iv, nil
}

func (s *interviewService) Get(ctx context.Context, ownerID, interviewID string) (*models.Interview, []models.Question, error) {
	const op = "InterviewService.Get"

	iv, err := s.owned(ctx, op, ownerID, interviewID)
	if err != nil {
		return nil, nil, err
	}
	qs, err := s.questions.ListByInterview(ctx, interviewID)
	if err != nil {
		return nil, nil, utils.E(utils.CodeInternal, op, "failed to list questions", err)
	}
	return iv, qs, nil
}

func (s *interviewService) List(ctx context.Context, ownerID string, limit int) ([]models.Interview, error) {
	const op = "InterviewService.List"

	if ownerID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "owner_id is required", nil)
	}
	rows, err := s.interviews.ListByOwner(ctx, ownerID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list interviews", err)
	}
	return rows, nil
}

func (s *interviewService) Advance(ctx context.Context, ownerID, interviewID string) (*models.Interview, error) {
	const op = "InterviewService.Advance"

	iv, err := s.owned(ctx, op, ownerID, interviewID)
	if err != nil {
		return nil, err
	}
	if !iv.IsActive {
		return nil, utils.E(utils.CodeConflict, op, "interview is no longer active", nil)
	}

	qs, err := s.questions.ListByInterview(ctx, interviewID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list questions", err)
	}
	if iv.CurrentQuestionIndex >= len(qs) {
		return nil, utils.E(utils.CodeInternal, op, "question index out of range", nil)
	}

	current := qs[iv.CurrentQuestionIndex]
	rated, err := s.ratings.ExistsForQuestion(ctx, interviewID, current.ID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to check rating", err)
	}
	if !rated {
		return nil, utils.E(utils.CodeConflict, op, "current question has no rating yet", nil)
	}

	moved, err := s.interviews.Advance(ctx, interviewID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to advance", err)
	}
	if moved {
		iv.CurrentQuestionIndex++
	}
	return iv, nil
}

func (s *interviewService) GoBack(ctx context.Context, ownerID, interviewID string) (*models.Interview, error) {
	const op = "InterviewService.GoBack"

	iv, err := s.owned(ctx, op, ownerID, interviewID)
	if err != nil {
		return nil, err
	}

	moved, err := s.interviews.GoBack(ctx, interviewID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to go back", err)
	}
	if moved {
		iv.CurrentQuestionIndex--
	}
	return iv, nil
}

func (s *interviewService) Abandon(ctx context.Context, ownerID, interviewID string) error {
	const op = "InterviewService.Abandon"

	if _, err := s.owned(ctx, op, ownerID, interviewID); err != nil {
		return err
	}
	if _, err := s.interviews.Abandon(ctx, interviewID); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to abandon interview", err)
	}
	if s.cache != nil {
		_ = s.cache.Del(ctx, reportCacheKey(interviewID))
	}
	return nil
}

func reportCacheKey(interviewID string) string {
	return "interview:" + interviewID + ":report"
}

func (s *interviewService) Report(ctx context.Context, ownerID, interviewID string) (*InterviewReport, error) {
	const op = "InterviewService.Report"

	iv, err := s.owned(ctx, op, ownerID, interviewID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		var cached InterviewReport
		if hit, _ := s.cache.GetJSON(ctx, reportCacheKey(interviewID), &cached); hit {
			return &cached, nil
		}
	}

	qs, err := s.questions.ListByInterview(ctx, interviewID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list questions", err)
	}

	report := &InterviewReport{
		Interview:          *iv,
		Questions:          make([]QuestionReport, 0, len(qs)),
		CompetencyAverages: map[string]float64{},
	}
	counts := map[string]int{}
	for _, q := range qs {
		qr := QuestionReport{Question: q}
		if ans, err := s.answers.LatestForQuestion(ctx, interviewID, q.ID); err == nil {
			qr.Answer = ans
			if rating, err := s.ratings.GetByAnswer(ctx, ans.ID); err == nil {
				qr.Rating = rating
				report.CompetencyAverages[q.Competency] += float64(rating.OverallScore)
				counts[q.Competency]++
			}
		}
		report.Questions = append(report.Questions, qr)
	}
	for competency, n := range counts {
		report.CompetencyAverages[competency] /= float64(n)
	}

	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, reportCacheKey(interviewID), report, 10*time.Minute)
	}
	return report, nil
}
