package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/TonyCasey/public-prep-sub002/internal/services"
	"github.com/TonyCasey/public-prep-sub002/internal/utils"
)

type InterviewHandler struct {
	interviews  services.InterviewService
	evaluations services.EvaluationService
}

func NewInterviewHandler(interviews services.InterviewService, evaluations services.EvaluationService) *InterviewHandler {
	return &InterviewHandler{interviews: interviews, evaluations: evaluations}
}

type CreateInterviewRequest struct {
	JobTitle  string `json:"job_title" binding:"required"`
	Grade     string `json:"grade" binding:"required"`
	Framework string `json:"framework" binding:"required"` // old|new
}

func (h *InterviewHandler) Create(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req CreateInterviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "InterviewHandler.Create", "invalid request body", err))
		return
	}

	iv, questions, err := h.interviews.Create(c.Request.Context(), userID, services.CreateInterviewInput{
		JobTitle:  req.JobTitle,
		Grade:     req.Grade,
		Framework: req.Framework,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"interview": iv, "questions": questions})
}

func (h *InterviewHandler) List(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	interviews, err := h.interviews.List(c.Request.Context(), userID, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"interviews": interviews})
}

func (h *InterviewHandler) Get(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	iv, questions, err := h.interviews.Get(c.Request.Context(), userID, c.Param("interview_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"interview": iv, "questions": questions})
}

func (h *InterviewHandler) Advance(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	iv, err := h.interviews.Advance(c.Request.Context(), userID, c.Param("interview_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, iv)
}

func (h *InterviewHandler) GoBack(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	iv, err := h.interviews.GoBack(c.Request.Context(), userID, c.Param("interview_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, iv)
}

func (h *InterviewHandler) Abandon(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	if err := h.interviews.Abandon(c.Request.Context(), userID, c.Param("interview_id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "abandoned"})
}

func (h *InterviewHandler) Report(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	report, err := h.interviews.Report(c.Request.Context(), userID, c.Param("interview_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

type SubmitAnswerRequest struct {
	QuestionID       string `json:"question_id" binding:"required"`
	AnswerText       string `json:"answer_text" binding:"required"`
	TimeSpentSeconds int    `json:"time_spent_seconds"`
}

func (h *InterviewHandler) SubmitAnswer(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "InterviewHandler.SubmitAnswer", "invalid request body", err))
		return
	}

	res, err := h.evaluations.Submit(c.Request.Context(), userID, c.Param("interview_id"), services.SubmitAnswerInput{
		QuestionID:       req.QuestionID,
		AnswerText:       req.AnswerText,
		TimeSpentSeconds: req.TimeSpentSeconds,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// RetryEvaluation re-runs evaluation for an answer that was saved but whose
// evaluation failed.
func (h *InterviewHandler) RetryEvaluation(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	res, err := h.evaluations.Retry(c.Request.Context(), userID, c.Param("answer_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
