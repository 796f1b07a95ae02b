package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ajharbinger/refibot/internal/auth"
	"github.com/ajharbinger/refibot/internal/errors"
	"github.com/ajharbinger/refibot/internal/services"
)

// SurveyHandler drives the intake form
type SurveyHandler struct {
	surveyService services.SurveyService
}

func NewSurveyHandler(surveyService services.SurveyService) *SurveyHandler {
	return &SurveyHandler{surveyService: surveyService}
}

// GetStatus returns the current step and draft
func (h *SurveyHandler) GetStatus(c *gin.Context) {
	sess, _ := auth.CurrentSession(c)
	status, err := h.surveyService.Status(c.Request.Context(), sess)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// SubmitStep stores one step; the body is the step record
func (h *SurveyHandler) SubmitStep(c *gin.Context) {
	step, err := strconv.Atoi(c.Param("step"))
	if err != nil {
		respondError(c, errors.InvalidInput("Invalid survey step", err))
		return
	}
	body, err := c.GetRawData()
	if err != nil {
		respondError(c, errors.InvalidInput("Invalid request body", err))
		return
	}

	sess, _ := auth.CurrentSession(c)
	status, err := h.surveyService.SubmitStep(c.Request.Context(), sess, step, body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// Previous goes back one step
func (h *SurveyHandler) Previous(c *gin.Context) {
	sess, _ := auth.CurrentSession(c)
	status, err := h.surveyService.Previous(c.Request.Context(), sess)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// Submit completes the survey with the financial details
func (h *SurveyHandler) Submit(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		respondError(c, errors.InvalidInput("Invalid request body", err))
		return
	}

	sess, _ := auth.CurrentSession(c)
	status, err := h.surveyService.Submit(c.Request.Context(), sess, body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Survey submitted successfully",
		"status":  status,
	})
}
