package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"memorahanzi/internal/app"
	"memorahanzi/internal/llm"
	"memorahanzi/internal/names"
	"memorahanzi/internal/speech"
)

type API struct {
	svc     *app.Service
	origins []string
}

// NewAPI accepts websocket upgrades from the hosts of allowedOrigins, or from
// any host when the list is empty.
func NewAPI(svc *app.Service, allowedOrigins []string) *API {
	return &API{svc: svc, origins: originPatterns(allowedOrigins)}
}

// registerRoutes guards the routes that reach a generative AI provider with
// limit.
func registerRoutes(r *gin.Engine, api *API, limit gin.HandlerFunc) {
	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/health", api.handleHealth)
		apiGroup.GET("/disclaimer", api.handleDisclaimer)

		apiGroup.GET("/names/current", api.handleCurrentName)
		apiGroup.GET("/names/events", api.handleNameEvents)
		apiGroup.POST("/names", limit, api.handleSubmitName)
		apiGroup.POST("/names/keywords", api.handleAddKeyword)
		apiGroup.DELETE("/names/keywords/:keyword", api.handleRemoveKeyword)
		apiGroup.POST("/names/image", limit, api.handleGenerateImage)
		apiGroup.POST("/names/image/export", api.handleExportImage)

		apiGroup.GET("/authors", api.handleListAuthors)
		apiGroup.POST("/authors", limit, api.handleClassifyAuthors)
		apiGroup.POST("/authors/:id/process", limit, api.handleProcessAuthor)

		apiGroup.POST("/speech", limit, api.handleSpeak)
		apiGroup.DELETE("/speech", api.handleStopSpeech)
		apiGroup.GET("/exports", api.handleListExports)
	}
}

func (a *API) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":         true,
		"textReady":  a.svc.TextReady(),
		"imageReady": a.svc.ImageReady(),
	})
}

func (a *API) handleDisclaimer(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"disclaimer": a.svc.Classifier().Disclaimer()})
}

func (a *API) handleCurrentName(c *gin.Context) {
	c.JSON(http.StatusOK, a.svc.Pipeline().Snapshot())
}

func (a *API) handleSubmitName(c *gin.Context) {
	var payload struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	snap, err := a.svc.Pipeline().Submit(c.Request.Context(), payload.Name)
	respondSnapshot(c, snap, err)
}

func (a *API) handleAddKeyword(c *gin.Context) {
	var payload struct {
		Keyword string `json:"keyword" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	snap, added, err := a.svc.Pipeline().AddKeyword(payload.Keyword)
	if err != nil {
		respondSnapshot(c, snap, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"changed": added, "snapshot": snap})
}

func (a *API) handleRemoveKeyword(c *gin.Context) {
	snap, removed, err := a.svc.Pipeline().RemoveKeyword(c.Param("keyword"))
	if err != nil {
		respondSnapshot(c, snap, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"changed": removed, "snapshot": snap})
}

func (a *API) handleGenerateImage(c *gin.Context) {
	snap, err := a.svc.Pipeline().GenerateImage(c.Request.Context())
	respondSnapshot(c, snap, err)
}

func (a *API) handleExportImage(c *gin.Context) {
	path, err := a.svc.ExportImage(c.Request.Context())
	if err != nil {
		respondError(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"path": path})
}

func (a *API) handleListAuthors(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"authors":    a.svc.Authors(),
		"disclaimer": a.svc.Classifier().Disclaimer(),
	})
}

func (a *API) handleClassifyAuthors(c *gin.Context) {
	var payload struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	result, err := a.svc.ClassifyAuthors(c.Request.Context(), payload.Text)
	if err != nil {
		respondError(c, statusFor(err), err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"authors":    result,
		"disclaimer": a.svc.Classifier().Disclaimer(),
	})
}

func (a *API) handleProcessAuthor(c *gin.Context) {
	snap, err := a.svc.ProcessAuthor(c.Request.Context(), c.Param("id"))
	respondSnapshot(c, snap, err)
}

func (a *API) handleSpeak(c *gin.Context) {
	var payload struct {
		Text string `json:"text"`
		Lang string `json:"lang"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	speaker := a.svc.Speaker()
	audio, err := speaker.Speak(c.Request.Context(), payload.Text, payload.Lang)
	if err != nil {
		respondError(c, statusFor(err), err)
		return
	}

	c.Data(http.StatusOK, speaker.ContentType(), audio)
}

func (a *API) handleStopSpeech(c *gin.Context) {
	a.svc.Speaker().Stop()
	c.Status(http.StatusNoContent)
}

func (a *API) handleListExports(c *gin.Context) {
	files, err := a.svc.Store().List(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	if files == nil {
		files = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"files": files})
}

// respondSnapshot always includes the snapshot so the client can render the
// record's error field.
func respondSnapshot(c *gin.Context, snap names.Snapshot, err error) {
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error(), "snapshot": snap})
		return
	}
	c.JSON(http.StatusOK, snap)
}

func statusFor(err error) int {
	var validation *names.ValidationError
	switch {
	case errors.As(err, &validation), errors.Is(err, speech.ErrEmptyText):
		return http.StatusBadRequest
	case errors.Is(err, app.ErrAuthorNotFound), errors.Is(err, app.ErrNoImage):
		return http.StatusNotFound
	case errors.Is(err, names.ErrBusy), errors.Is(err, names.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, names.ErrPinyinUnresolved):
		return http.StatusUnprocessableEntity
	case errors.Is(err, llm.ErrNotInitialized):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	}
	return http.StatusBadGateway
}

func respondError(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}

