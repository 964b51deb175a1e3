package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TonyCasey/public-prep-sub002/internal/models"
	"github.com/TonyCasey/public-prep-sub002/internal/utils"
)

func TestSubmit_ShortAnswerRejectedBeforePersisting(t *testing.T) {
	e := newTestEnv(t)
	e.addUser(t, "u1", models.SubscriptionPremium)
	ctx := context.Background()

	iv, questions, err := e.interviewSvc.Create(ctx, "u1", createInput)
	require.NoError(t, err)

	_, err = e.evaluationSvc.Submit(ctx, "u1", iv.ID, SubmitAnswerInput{
		QuestionID: questions[0].ID,
		AnswerText: "Too short.",
	})
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
	assert.True(t, utils.HasReason(err, ReasonAnswerTooShort))

	assert.Empty(t, e.answers.m, "a rejected answer must not be stored")
	assert.Zero(t, e.llm.evaluateCalls, "the evaluator must not be consulted")
}

func TestSubmit_EvaluatorFailureKeepsAnswerRetryable(t *testing.T) {
	e := newTestEnv(t)
	e.addUser(t, "u1", models.SubscriptionPremium)
	ctx := context.Background()

	iv, questions, err := e.interviewSvc.Create(ctx, "u1", createInput)
	require.NoError(t, err)

	e.llm.evaluateErr = errors.New("model overloaded")
	_, err = e.evaluationSvc.Submit(ctx, "u1", iv.ID, SubmitAnswerInput{
		QuestionID: questions[0].ID,
		AnswerText: longAnswer(),
	})
	assert.True(t, utils.IsCode(err, utils.CodeUnavailable))
	assert.True(t, utils.HasReason(err, ReasonEvaluationUnavailable))

	// answer survived the failure
	require.Len(t, e.answers.m, 1)
	var answerID string
	for id := range e.answers.m {
		answerID = id
	}

	// and is retryable once the evaluator recovers
	e.llm.evaluateErr = nil
	res, err := e.evaluationSvc.Retry(ctx, "u1", answerID)
	require.NoError(t, err)
	require.NotNil(t, res.Rating)
	assert.Equal(t, answerID, res.Rating.AnswerID)
	assert.Equal(t, 1, res.Interview.CompletedQuestions)
}

func TestRetry_AlreadyRatedConflicts(t *testing.T) {
	e := newTestEnv(t)
	e.addUser(t, "u1", models.SubscriptionPremium)
	ctx := context.Background()

	iv, questions, err := e.interviewSvc.Create(ctx, "u1", createInput)
	require.NoError(t, err)

	res, err := e.evaluationSvc.Submit(ctx, "u1", iv.ID, SubmitAnswerInput{
		QuestionID: questions[0].ID,
		AnswerText: longAnswer(),
	})
	require.NoError(t, err)

	_, err = e.evaluationSvc.Retry(ctx, "u1", res.Answer.ID)
	assert.True(t, utils.IsCode(err, utils.CodeConflict))
}

func TestSubmit_QuestionMustBelongToInterview(t *testing.T) {
	e := newTestEnv(t)
	e.addUser(t, "u1", models.SubscriptionPremium)
	ctx := context.Background()

	iv1, _, err := e.interviewSvc.Create(ctx, "u1", createInput)
	require.NoError(t, err)

	e.addUser(t, "u2", models.SubscriptionPremium)
	_, questions2, err := e.interviewSvc.Create(ctx, "u2", createInput)
	require.NoError(t, err)

	_, err = e.evaluationSvc.Submit(ctx, "u1", iv1.ID, SubmitAnswerInput{
		QuestionID: questions2[0].ID,
		AnswerText: longAnswer(),
	})
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
}

func TestSubmit_CompletesInterviewExactlyOnce(t *testing.T) {
	e := newTestEnv(t)
	e.addUser(t, "u1", models.SubscriptionPremium)
	ctx := context.Background()

	iv, questions, err := e.interviewSvc.Create(ctx, "u1", createInput)
	require.NoError(t, err)

	var last *SubmissionResult
	for _, q := range questions {
		last, err = e.evaluationSvc.Submit(ctx, "u1", iv.ID, SubmitAnswerInput{
			QuestionID: q.ID,
			AnswerText: longAnswer(),
		})
		require.NoError(t, err)
	}

	require.NotNil(t, last.Interview.CompletedAt)
	assert.False(t, last.Interview.IsActive)
	assert.Equal(t, len(questions), last.Interview.CompletedQuestions)
	require.NotNil(t, last.Interview.AverageScore)
	assert.InDelta(t, 70.0, *last.Interview.AverageScore, 0.001)

	// re-submitting an already-rated question keeps history but never
	// double-counts completion
	res, err := e.evaluationSvc.Submit(ctx, "u1", iv.ID, SubmitAnswerInput{
		QuestionID: questions[0].ID,
		AnswerText: longAnswer(),
	})
	require.NoError(t, err)
	assert.Equal(t, len(questions), res.Interview.CompletedQuestions)

	e.notifications.mu.Lock()
	defer e.notifications.mu.Unlock()
	assert.Equal(t, 1, e.notifications.completed, "completion milestone fires once")
}

func TestSubmit_LatestAnswerWinsForDisplay(t *testing.T) {
	e := newTestEnv(t)
	e.addUser(t, "u1", models.SubscriptionPremium)
	ctx := context.Background()

	iv, questions, err := e.interviewSvc.Create(ctx, "u1", createInput)
	require.NoError(t, err)

	first, err := e.evaluationSvc.Submit(ctx, "u1", iv.ID, SubmitAnswerInput{
		QuestionID: questions[0].ID,
		AnswerText: longAnswer(),
	})
	require.NoError(t, err)

	second, err := e.evaluationSvc.Submit(ctx, "u1", iv.ID, SubmitAnswerInput{
		QuestionID: questions[0].ID,
		AnswerText: longAnswer() + " And the outcome improved measurably.",
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.Answer.ID, second.Answer.ID, "re-submission appends, never overwrites")

	latest, err := e.answers.LatestForQuestion(ctx, iv.ID, questions[0].ID)
	require.NoError(t, err)
	assert.Equal(t, second.Answer.ID, latest.ID)
}

func TestSubmit_RejectsDuplicateWhileInFlight(t *testing.T) {
	e := newTestEnv(t)
	e.addUser(t, "u1", models.SubscriptionPremium)
	ctx := context.Background()

	iv, questions, err := e.interviewSvc.Create(ctx, "u1", createInput)
	require.NoError(t, err)

	e.llm.evaluateEntered = make(chan struct{}, 1)
	e.llm.evaluateRelease = make(chan struct{})

	type outcome struct {
		res *SubmissionResult
		err error
	}
	first := make(chan outcome, 1)
	go func() {
		res, err := e.evaluationSvc.Submit(ctx, "u1", iv.ID, SubmitAnswerInput{
			QuestionID: questions[0].ID,
			AnswerText: longAnswer(),
		})
		first <- outcome{res, err}
	}()

	// wait until the first submission is parked inside the evaluator
	<-e.llm.evaluateEntered

	_, err = e.evaluationSvc.Submit(ctx, "u1", iv.ID, SubmitAnswerInput{
		QuestionID: questions[0].ID,
		AnswerText: longAnswer(),
	})
	assert.True(t, utils.IsCode(err, utils.CodeConflict), "a second submission for the same question must be rejected while one is in flight")
	assert.Len(t, e.answers.m, 1, "the rejected submission must not persist an answer")

	close(e.llm.evaluateRelease)
	got := <-first
	require.NoError(t, got.err)
	require.NotNil(t, got.res.Rating)
}

func TestSubmit_AbandonedInterviewRejected(t *testing.T) {
	e := newTestEnv(t)
	e.addUser(t, "u1", models.SubscriptionPremium)
	ctx := context.Background()

	iv, questions, err := e.interviewSvc.Create(ctx, "u1", createInput)
	require.NoError(t, err)
	require.NoError(t, e.interviewSvc.Abandon(ctx, "u1", iv.ID))

	_, err = e.evaluationSvc.Submit(ctx, "u1", iv.ID, SubmitAnswerInput{
		QuestionID: questions[0].ID,
		AnswerText: longAnswer(),
	})
	assert.True(t, utils.IsCode(err, utils.CodeConflict))
}
