package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"

	"github.com/TonyCasey/public-prep-sub002/internal/models"
	"github.com/TonyCasey/public-prep-sub002/internal/providers/llm"
	"github.com/TonyCasey/public-prep-sub002/internal/utils"
)

// In-memory repository fakes mirroring the Postgres semantics the services
// rely on: the conditional starter-credit update, the first-interview
// serialization and the first-rating-only completion counters.

type fakeUsers struct {
	mu sync.Mutex
	m  map[string]*models.User
}

func newFakeUsers() *fakeUsers { return &fakeUsers{m: map[string]*models.User{}} }

func (f *fakeUsers) Create(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ex := range f.m {
		if ex.Email == u.Email {
			return utils.ErrConflict
		}
	}
	cp := *u
	f.m[u.ID] = &cp
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.m[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.m {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, utils.ErrNotFound
}

func (f *fakeUsers) ConsumeStarterCredit(_ context.Context, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.m[userID]
	if !ok || u.SubscriptionStatus != models.SubscriptionStarter || u.StarterInterviewsUsed >= 1 {
		return false, nil
	}
	u.StarterInterviewsUsed++
	return true, nil
}

func (f *fakeUsers) RefundStarterCredit(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.m[userID]; ok && u.StarterInterviewsUsed > 0 {
		u.StarterInterviewsUsed--
	}
	return nil
}

type fakeInterviews struct {
	mu        sync.Mutex
	m         map[string]*models.Interview
	questions map[string][]models.Question
}

func newFakeInterviews() *fakeInterviews {
	return &fakeInterviews{
		m:         map[string]*models.Interview{},
		questions: map[string][]models.Question{},
	}
}

func (f *fakeInterviews) Create(_ context.Context, iv *models.Interview, questions []models.Question, onlyIfFirst bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if onlyIfFirst {
		for _, ex := range f.m {
			if ex.OwnerID == iv.OwnerID {
				return utils.ErrLimitReached
			}
		}
	}
	cp := *iv
	f.m[iv.ID] = &cp
	f.questions[iv.ID] = append([]models.Question(nil), questions...)
	return nil
}

func (f *fakeInterviews) GetByID(_ context.Context, id string) (*models.Interview, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	iv, ok := f.m[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := *iv
	return &cp, nil
}

func (f *fakeInterviews) ListByOwner(_ context.Context, ownerID string, limit int) ([]models.Interview, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Interview
	for _, iv := range f.m {
		if iv.OwnerID == ownerID {
			out = append(out, *iv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeInterviews) CountByOwner(_ context.Context, ownerID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, iv := range f.m {
		if iv.OwnerID == ownerID {
			n++
		}
	}
	return n, nil
}

func (f *fakeInterviews) Advance(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	iv, ok := f.m[id]
	if !ok || !iv.CanAdvance() {
		return false, nil
	}
	iv.CurrentQuestionIndex++
	return true, nil
}

func (f *fakeInterviews) GoBack(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	iv, ok := f.m[id]
	if !ok || !iv.CanGoBack() {
		return false, nil
	}
	iv.CurrentQuestionIndex--
	return true, nil
}

func (f *fakeInterviews) Abandon(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	iv, ok := f.m[id]
	if !ok || !iv.IsActive || iv.CompletedAt != nil {
		return false, nil
	}
	iv.IsActive = false
	return true, nil
}

type fakeQuestions struct {
	ivs *fakeInterviews
}

func (f *fakeQuestions) GetByID(_ context.Context, id string) (*models.Question, error) {
	f.ivs.mu.Lock()
	defer f.ivs.mu.Unlock()
	for _, qs := range f.ivs.questions {
		for i := range qs {
			if qs[i].ID == id {
				cp := qs[i]
				return &cp, nil
			}
		}
	}
	return nil, utils.ErrNotFound
}

func (f *fakeQuestions) ListByInterview(_ context.Context, interviewID string) ([]models.Question, error) {
	f.ivs.mu.Lock()
	defer f.ivs.mu.Unlock()
	out := append([]models.Question(nil), f.ivs.questions[interviewID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Ordinal < out[j].Ordinal })
	return out, nil
}

type fakeAnswers struct {
	mu sync.Mutex
	m  map[string]*models.Answer
}

func newFakeAnswers() *fakeAnswers { return &fakeAnswers{m: map[string]*models.Answer{}} }

func (f *fakeAnswers) Insert(_ context.Context, a *models.Answer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *a
	f.m[a.ID] = &cp
	return nil
}

func (f *fakeAnswers) GetByID(_ context.Context, id string) (*models.Answer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.m[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAnswers) LatestForQuestion(_ context.Context, interviewID, questionID string) (*models.Answer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *models.Answer
	for _, a := range f.m {
		if a.InterviewID != interviewID || a.QuestionID != questionID {
			continue
		}
		if latest == nil || a.AnsweredAt.After(latest.AnsweredAt) {
			latest = a
		}
	}
	if latest == nil {
		return nil, utils.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

type fakeRatings struct {
	mu       sync.Mutex
	byAnswer map[string]*models.Rating
	answers  *fakeAnswers
	ivs      *fakeInterviews
}

func newFakeRatings(answers *fakeAnswers, ivs *fakeInterviews) *fakeRatings {
	return &fakeRatings{byAnswer: map[string]*models.Rating{}, answers: answers, ivs: ivs}
}

func (f *fakeRatings) answerOf(answerID string) *models.Answer {
	f.answers.mu.Lock()
	defer f.answers.mu.Unlock()
	return f.answers.m[answerID]
}

func (f *fakeRatings) Record(_ context.Context, rating *models.Rating, interviewID, questionID string) (*models.Interview, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, dup := f.byAnswer[rating.AnswerID]; dup {
		return nil, utils.ErrConflict
	}

	prior := 0
	var scores []int
	for answerID, r := range f.byAnswer {
		a := f.answerOf(answerID)
		if a == nil || a.InterviewID != interviewID {
			continue
		}
		scores = append(scores, r.OverallScore)
		if a.QuestionID == questionID {
			prior++
		}
	}

	cp := *rating
	f.byAnswer[rating.AnswerID] = &cp
	scores = append(scores, rating.OverallScore)

	f.ivs.mu.Lock()
	defer f.ivs.mu.Unlock()
	iv, ok := f.ivs.m[interviewID]
	if !ok {
		return nil, utils.ErrNotFound
	}

	if prior == 0 {
		sum := 0
		for _, s := range scores {
			sum += s
		}
		iv.RecordCompletion(time.Now().UTC(), float64(sum)/float64(len(scores)))
	}
	out := *iv
	return &out, nil
}

func (f *fakeRatings) GetByAnswer(_ context.Context, answerID string) (*models.Rating, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.byAnswer[answerID]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRatings) ExistsForQuestion(_ context.Context, interviewID, questionID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for answerID := range f.byAnswer {
		a := f.answerOf(answerID)
		if a != nil && a.InterviewID == interviewID && a.QuestionID == questionID {
			return true, nil
		}
	}
	return false, nil
}

type fakeDocuments struct {
	mu sync.Mutex
	m  map[string]*models.Document
}

func newFakeDocuments() *fakeDocuments { return &fakeDocuments{m: map[string]*models.Document{}} }

func (f *fakeDocuments) Replace(_ context.Context, d *models.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, ex := range f.m {
		if ex.OwnerID == d.OwnerID && ex.Kind == d.Kind {
			delete(f.m, id)
		}
	}
	cp := *d
	f.m[d.ID] = &cp
	return nil
}

func (f *fakeDocuments) GetByID(_ context.Context, id string) (*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.m[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (f *fakeDocuments) LatestByOwnerAndKind(_ context.Context, ownerID string, kind models.DocumentKind) (*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.m {
		if d.OwnerID == ownerID && d.Kind == kind {
			cp := *d
			return &cp, nil
		}
	}
	return nil, utils.ErrNotFound
}

func (f *fakeDocuments) SetAnalysisStatus(_ context.Context, id, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d, ok := f.m[id]; ok {
		d.AnalysisStatus = status
	}
	return nil
}

func (f *fakeDocuments) SetAnalysis(_ context.Context, id string, analysis datatypes.JSON, strengths pgvector.Vector) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d, ok := f.m[id]; ok {
		d.Analysis = analysis
		d.StrengthVector = strengths
		d.AnalysisStatus = models.AnalysisDone
	}
	return nil
}

// fakeLLM scores every answer the same unless a hook overrides it.
type fakeLLM struct {
	mu            sync.Mutex
	generateErr   error
	evaluateErr   error
	overallScore  int
	evaluateCalls int

	// when set, EvaluateAnswer signals entry and parks until released,
	// letting tests hold an evaluation in flight
	evaluateEntered chan struct{}
	evaluateRelease chan struct{}
}

func newFakeLLM() *fakeLLM { return &fakeLLM{overallScore: 70} }

func (f *fakeLLM) GenerateQuestions(_ context.Context, spec llm.QuestionSpec) ([]llm.GeneratedQuestion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.generateErr != nil {
		return nil, f.generateErr
	}
	out := make([]llm.GeneratedQuestion, len(spec.Competencies))
	for i, c := range spec.Competencies {
		out[i] = llm.GeneratedQuestion{
			Competency: c,
			Question:   "Tell me about a time you demonstrated " + c + ".",
			Difficulty: spec.Difficulty,
		}
	}
	return out, nil
}

func (f *fakeLLM) EvaluateAnswer(_ context.Context, req llm.EvaluationRequest) (*llm.RatingResult, error) {
	f.mu.Lock()
	f.evaluateCalls++
	err := f.evaluateErr
	score := f.overallScore
	entered, release := f.evaluateEntered, f.evaluateRelease
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if release != nil {
		<-release
	}
	if err != nil {
		return nil, err
	}
	return &llm.RatingResult{
		OverallScore:     score,
		CompetencyScores: map[string]int{req.Competency: score},
		Star: llm.StarAnalysis{
			Situation: llm.StarComponent{Score: score, Comment: "clear"},
			Task:      llm.StarComponent{Score: score, Comment: "clear"},
			Action:    llm.StarComponent{Score: score, Comment: "clear"},
			Result:    llm.StarComponent{Score: score, Comment: "clear"},
		},
		Feedback:         "solid answer",
		Strengths:        []string{"structure"},
		ImprovementAreas: []string{"quantify the result"},
		ImprovedAnswer:   "improved answer",
	}, nil
}

func (f *fakeLLM) AnalyzeDocument(_ context.Context, _, _ string) (*llm.DocumentAnalysis, error) {
	return &llm.DocumentAnalysis{Summary: "experienced administrator"}, nil
}

func (f *fakeLLM) Close() error { return nil }

// fakeNotifications records milestone calls.
type fakeNotifications struct {
	mu        sync.Mutex
	events    []string
	completed int
}

func (f *fakeNotifications) UserRegistered(string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, "registered")
}

func (f *fakeNotifications) InterviewCompleted(string, string, float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, "completed")
	f.completed++
}

func (f *fakeNotifications) FirstInterview(string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, "first")
}
