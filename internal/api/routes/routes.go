package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/TonyCasey/public-prep-sub002/internal/api/handlers"
	"github.com/TonyCasey/public-prep-sub002/internal/api/middleware"
)

type Deps struct {
	JWTSecret string

	Auth      *handlers.AuthHandler
	Account   *handlers.AccountHandler
	Document  *handlers.DocumentHandler
	Interview *handlers.InterviewHandler
	WS        *handlers.WSHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Public
	r.POST("/auth/register", d.Auth.Register)
	r.POST("/auth/login", d.Auth.Login)

	// Protected routes (JWT)
	auth := r.Group("/")
	auth.Use(middleware.JWTAuth(d.JWTSecret))

	auth.GET("/account/me", d.Account.Me)

	auth.POST("/documents/:kind", d.Document.Upload)
	auth.GET("/documents/:kind", d.Document.Get)
	auth.GET("/documents/:kind/download-url", d.Document.DownloadURL)

	auth.POST("/interviews", d.Interview.Create)
	auth.GET("/interviews", d.Interview.List)
	auth.GET("/interviews/:interview_id", d.Interview.Get)
	auth.POST("/interviews/:interview_id/advance", d.Interview.Advance)
	auth.POST("/interviews/:interview_id/back", d.Interview.GoBack)
	auth.POST("/interviews/:interview_id/abandon", d.Interview.Abandon)
	auth.GET("/interviews/:interview_id/report", d.Interview.Report)

	auth.POST("/interviews/:interview_id/answers", d.Interview.SubmitAnswer)
	auth.POST("/answers/:answer_id/retry-evaluation", d.Interview.RetryEvaluation)

	// WebSocket: voice transcription
	auth.GET("/ws/interviews/:interview_id", d.WS.InterviewWS)
}
