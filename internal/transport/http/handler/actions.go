package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"cmp-dialogue/internal/app"
	"cmp-dialogue/internal/logger"
	"cmp-dialogue/internal/transport/http/response"
)

type DialogueAPI interface {
	AskTeacher(ctx context.Context, question string) (string, error)
	MeetingWithTeacher(ctx context.Context, question string) (string, error)
	StudentAskTeacher(ctx context.Context, question string) (string, error)
	Summarize(ctx context.Context, text string) (string, error)
	ExtractQuestions(text string) []string
}

type SourceAPI interface {
	FindSources(ctx context.Context, query string, count, offset int) ([]string, error)
	FetchContent(ctx context.Context, url string) (string, error)
	FetchContents(ctx context.Context, urls []string) ([]string, error)
}

type ActionsHandler struct {
	dialogue DialogueAPI
	sources  SourceAPI
	log      logger.Logger
}

type QueryRequest struct {
	Query      string `json:"query" binding:"required"`
	StartNum   *int   `json:"start_num" binding:"omitempty,min=0"`
	NumResults *int   `json:"num_results" binding:"omitempty,min=1,max=50"`
}

type URLRequest struct {
	URL string `json:"url" binding:"required"`
}

type URLsRequest struct {
	URLs []string `json:"urls" binding:"required,min=1,dive,required"`
}

type TextRequest struct {
	Text string `json:"text" binding:"required"`
}

type QuestionRequest struct {
	Question string `json:"question" binding:"required"`
}

func NewActionsHandler(dialogue DialogueAPI, sources SourceAPI, log logger.Logger) *ActionsHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &ActionsHandler{dialogue: dialogue, sources: sources, log: log}
}

func (h *ActionsHandler) SearchGoogle(c *gin.Context) {
	var req QueryRequest
	if !h.bind(c, &req) {
		return
	}
	offset, count := 0, 5
	if req.StartNum != nil {
		offset = *req.StartNum
	}
	if req.NumResults != nil {
		count = *req.NumResults
	}

	links, err := h.sources.FindSources(c.Request.Context(), req.Query, count, offset)
	if err != nil {
		if errors.Is(err, app.ErrNoLinks) {
			response.Fail(c, http.StatusOK, response.MsgNoLinks)
			return
		}
		h.fail(c, "search_google", err)
		return
	}
	response.OK(c, links)
}

func (h *ActionsHandler) GetContentFromURL(c *gin.Context) {
	var req URLRequest
	if !h.bind(c, &req) {
		return
	}
	content, err := h.sources.FetchContent(c.Request.Context(), req.URL)
	if err != nil {
		if errors.Is(err, app.ErrNoContent) {
			response.Fail(c, http.StatusOK, response.MsgNoContent)
			return
		}
		h.fail(c, "get_content_from_url", err)
		return
	}
	response.OK(c, content)
}

func (h *ActionsHandler) GetContentFromURLs(c *gin.Context) {
	var req URLsRequest
	if !h.bind(c, &req) {
		return
	}
	contents, err := h.sources.FetchContents(c.Request.Context(), req.URLs)
	if err != nil {
		if errors.Is(err, app.ErrNoContent) {
			response.Fail(c, http.StatusOK, response.MsgNoContent)
			return
		}
		h.fail(c, "get_content_from_urls", err)
		return
	}
	response.OK(c, contents)
}

func (h *ActionsHandler) Summarize(c *gin.Context) {
	var req TextRequest
	if !h.bind(c, &req) {
		return
	}
	summary, err := h.dialogue.Summarize(c.Request.Context(), req.Text)
	if err != nil {
		h.fail(c, "summarize", err)
		return
	}
	response.OK(c, summary)
}

func (h *ActionsHandler) AskTeacher(c *gin.Context) {
	h.converse(c, "ask_teacher", h.dialogue.AskTeacher)
}

func (h *ActionsHandler) MeetingWithTeacher(c *gin.Context) {
	h.converse(c, "meeting_with_teacher", h.dialogue.MeetingWithTeacher)
}

func (h *ActionsHandler) StudentAskTeacher(c *gin.Context) {
	h.converse(c, "student_ask_teacher", h.dialogue.StudentAskTeacher)
}

func (h *ActionsHandler) ExtractQuestions(c *gin.Context) {
	var req TextRequest
	if !h.bind(c, &req) {
		return
	}
	response.OK(c, h.dialogue.ExtractQuestions(req.Text))
}

func (h *ActionsHandler) converse(c *gin.Context, action string, turn func(context.Context, string) (string, error)) {
	var req QuestionRequest
	if !h.bind(c, &req) {
		return
	}
	answer, err := turn(c.Request.Context(), req.Question)
	if err != nil {
		h.fail(c, action, err)
		return
	}
	response.OK(c, answer)
}

func (h *ActionsHandler) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.MsgInvalidPayload)
		return false
	}
	return true
}

func (h *ActionsHandler) fail(c *gin.Context, action string, err error) {
	h.log.Error("http", "action failed", map[string]interface{}{
		"action": action,
		"error":  err,
	})
	if errors.Is(err, app.ErrInvalidInput) {
		response.Fail(c, http.StatusBadRequest, "Error processing request: "+err.Error())
		return
	}
	response.Error(c, err)
}
