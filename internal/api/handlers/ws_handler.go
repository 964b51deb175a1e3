package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/TonyCasey/public-prep-sub002/internal/services"
	"github.com/TonyCasey/public-prep-sub002/internal/transcript"
	"github.com/TonyCasey/public-prep-sub002/internal/utils"
	"github.com/TonyCasey/public-prep-sub002/internal/workers"
)

type WSHandler struct {
	interviews  services.InterviewService
	transcripts services.TranscriptService
	redis       *redis.Client
	upgrader    websocket.Upgrader
}

func NewWSHandler(interviews services.InterviewService, transcripts services.TranscriptService, rdb *redis.Client) *WSHandler {
	return &WSHandler{
		interviews:  interviews,
		transcripts: transcripts,
		redis:       rdb,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origin in prod
		},
	}
}

type wsClientMsg struct {
	Type        string `json:"type"` // audio_chunk|reset|ping
	QuestionID  string `json:"question_id"`
	ChunkIndex  int64  `json:"chunk_index"`
	AudioBase64 string `json:"audio_base64"`
	Language    string `json:"language"`
	IsFinal     bool   `json:"is_final"`
}

type wsServerMsg struct {
	Type       string  `json:"type"` // draft|transcript|error|pong
	QuestionID string  `json:"question_id,omitempty"`
	ChunkIndex int64   `json:"chunk_index,omitempty"`
	Text       string  `json:"text,omitempty"`
	Draft      string  `json:"draft,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	IsFinal    bool    `json:"is_final,omitempty"`
	Code       string  `json:"code,omitempty"`
	Message    string  `json:"message,omitempty"`
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeJSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.c.WriteMessage(websocket.TextMessage, b)
}

func (w *wsConn) writeErr(code utils.Code, msg string) {
	_ = w.writeJSON(wsServerMsg{Type: "error", Code: string(code), Message: msg})
}

// InterviewWS streams voice transcription for one interview. Each
// audio_chunk is transcribed synchronously; interim results update the
// display draft only, final results are persisted and appended. The draft
// is rebuilt from persisted segments when a question is first seen, so a
// reconnect resumes mid-answer. Background events for the user (ex. document
// analysis status) are forwarded from Redis pub/sub onto the same socket.
func (h *WSHandler) InterviewWS(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	interviewID := c.Param("interview_id")
	if interviewID == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, "WSHandler.InterviewWS", "missing interview_id", nil))
		return
	}

	// ownership check before the upgrade
	if _, _, err := h.interviews.Get(c.Request.Context(), userID, interviewID); err != nil {
		writeError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// one builder per question touched on this connection
	builders := map[string]*transcript.Builder{}

	builderFor := func(questionID string) *transcript.Builder {
		if b, ok := builders[questionID]; ok {
			return b
		}
		b := transcript.NewBuilder()
		if finals, err := h.transcripts.Segments(ctx, interviewID, questionID); err == nil {
			b.Seed(finals)
		}
		builders[questionID] = b
		return b
	}

	// background events (document analysis status) -> WS
	pubsub := h.redis.Subscribe(ctx, workers.UserEventChannel(userID))
	defer pubsub.Close()

	// reader: client messages. The request context of a hijacked connection
	// is never cancelled, so the reader tears the session down itself on
	// exit: closing the pub/sub unparks ReceiveMessage in the forward loop
	// below, which would otherwise linger until the next published event.
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		defer cancel()
		defer func() { _ = pubsub.Close() }()

		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		conn.SetPongHandler(func(string) error {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			return nil
		})

		for {
			_, data, rerr := conn.ReadMessage()
			if rerr != nil {
				return
			}
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))

			var msg wsClientMsg
			if err := json.Unmarshal(data, &msg); err != nil {
				wc.writeErr(utils.CodeInvalidArgument, "invalid json")
				continue
			}

			switch msg.Type {
			case "audio_chunk":
				h.handleAudioChunk(ctx, wc, interviewID, msg, builderFor)

			case "reset":
				if msg.QuestionID == "" {
					wc.writeErr(utils.CodeInvalidArgument, "question_id is required")
					continue
				}
				if err := h.transcripts.Discard(ctx, interviewID, msg.QuestionID); err != nil {
					wc.writeErr(utils.CodeInternal, "failed to reset draft")
					continue
				}
				delete(builders, msg.QuestionID)
				_ = wc.writeJSON(wsServerMsg{Type: "draft", QuestionID: msg.QuestionID})

			case "ping":
				_ = wc.writeJSON(wsServerMsg{Type: "pong"})

			default:
				wc.writeErr(utils.CodeInvalidArgument, "unknown message type")
			}
		}
	}()

	// writer: Redis pub/sub -> WS (payloads are JSON, forwarded as-is)
	for {
		select {
		case <-readDone:
			return
		case <-ctx.Done():
			return
		default:
			m, err := pubsub.ReceiveMessage(ctx)
			if err != nil {
				return
			}
			wc.mu.Lock()
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			werr := conn.WriteMessage(websocket.TextMessage, []byte(m.Payload))
			wc.mu.Unlock()
			if werr != nil {
				return
			}
		}
	}
}

func (h *WSHandler) handleAudioChunk(
	ctx context.Context,
	wc *wsConn,
	interviewID string,
	msg wsClientMsg,
	builderFor func(string) *transcript.Builder,
) {
	if msg.QuestionID == "" || msg.AudioBase64 == "" {
		wc.writeErr(utils.CodeInvalidArgument, "question_id and audio_base64 are required")
		return
	}

	raw := msg.AudioBase64
	if i := strings.Index(raw, ","); i >= 0 {
		raw = raw[i+1:] // strip data:...;base64,
	}
	audio, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		wc.writeErr(utils.CodeInvalidArgument, "invalid audio_base64")
		return
	}

	res, err := h.transcripts.TranscribeChunk(ctx, services.TranscribeChunkInput{
		InterviewID: interviewID,
		QuestionID:  msg.QuestionID,
		ChunkIndex:  msg.ChunkIndex,
		Audio:       audio,
		Language:    msg.Language,
		IsFinal:     msg.IsFinal,
	})
	if err != nil {
		wc.writeErr(utils.CodeUnavailable, "transcription failed")
		return
	}

	b := builderFor(msg.QuestionID)
	if res.IsFinal {
		b.Final(res.Text)
	} else {
		b.Interim(res.Text)
	}

	_ = wc.writeJSON(wsServerMsg{
		Type:       "transcript",
		QuestionID: msg.QuestionID,
		ChunkIndex: msg.ChunkIndex,
		Text:       res.Text,
		Draft:      b.Draft(),
		Confidence: res.Confidence,
		IsFinal:    res.IsFinal,
	})
}
