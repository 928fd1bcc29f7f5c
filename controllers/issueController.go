package controllers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"govconnect-be/middlewares"
	"govconnect-be/models"
	"govconnect-be/pkg/apperrors"
	"govconnect-be/repositories"
	"govconnect-be/services"
)

// IssueController is the HTTP surface over the triage service.
type IssueController struct {
	svc *services.TriageService
}

func NewIssueController(svc *services.TriageService) *IssueController {
	return &IssueController{svc: svc}
}

// respondError maps a taxonomy error to its status code. Anything internal
// is logged and answered opaquely.
func respondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		log.Println("internal error:", err)
		c.JSON(status, gin.H{"error": "Something went wrong"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// CreateIssue handles a citizen's multipart report submission
func (ic *IssueController) CreateIssue(c *gin.Context) {
	ident, ok := middlewares.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	input := services.IntakeInput{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Category:    c.PostForm("category"),
		State:       c.PostForm("state"),
		Location:    c.PostForm("location"),
	}

	fileHeader, err := c.FormFile("image")
	if err == nil {
		file, openErr := fileHeader.Open()
		if openErr != nil {
			respondError(c, &apperrors.StorageError{Op: "open upload", Err: openErr})
			return
		}
		defer file.Close()

		input.Image = &services.ImageUpload{
			Filename:    fileHeader.Filename,
			ContentType: fileHeader.Header.Get("Content-Type"),
			Size:        fileHeader.Size,
			Reader:      file,
		}
	}

	issue, err := ic.svc.Intake(c.Request.Context(), ident.ID, input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, issue)
}

// GetMyIssues returns the caller's own reports, newest first
func (ic *IssueController) GetMyIssues(c *gin.Context) {
	ident, ok := middlewares.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	issues, err := ic.svc.ListOwn(c.Request.Context(), ident)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, issues)
}

// GetAllIssues returns every issue, optionally filtered. Admin route.
func (ic *IssueController) GetAllIssues(c *gin.Context) {
	ident, ok := middlewares.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	filter := repositories.IssueFilter{
		Status:   c.Query("status"),
		Category: c.Query("category"),
		Search:   c.Query("search"),
	}

	issues, err := ic.svc.ListForCaller(c.Request.Context(), ident, filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, issues)
}

// UpdateIssueStatus advances an issue through the triage state machine. Admin route.
func (ic *IssueController) UpdateIssueStatus(c *gin.Context) {
	ident, ok := middlewares.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var input struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	requested, ok := models.ParseStatus(input.Status)
	if !ok {
		respondError(c, &apperrors.ValidationError{Field: "status", Reason: "is not a recognized status"})
		return
	}

	issue, err := ic.svc.Transition(c.Request.Context(), c.Param("id"), requested, ident.Role)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, issue)
}

// DeleteIssue permanently removes an issue. Admin route.
func (ic *IssueController) DeleteIssue(c *gin.Context) {
	ident, ok := middlewares.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	if err := ic.svc.Remove(c.Request.Context(), c.Param("id"), ident.Role); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Issue deleted successfully"})
}

// PublicFeed serves the unauthenticated read-only issue listing
func (ic *IssueController) PublicFeed(c *gin.Context) {
	feed, err := ic.svc.PublicFeed(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, feed)
}
