package controllers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"briddhi-be/models"
	"briddhi-be/realtime"
	"briddhi-be/stores"
)

// AdminController owns the administrative view of the issue collection and
// the status-transition side of the lifecycle.
type AdminController struct {
	Users  stores.UserStore
	Issues stores.IssueStore
	Hub    *realtime.Hub
}

// reporterSummary is the minimal owner contact enrichment on the admin list.
type reporterSummary struct {
	ID    primitive.ObjectID `json:"_id"`
	Name  string             `json:"name"`
	Email string             `json:"email"`
	Phone string             `json:"phone"`
}

type adminIssue struct {
	ID          primitive.ObjectID `json:"_id"`
	Title       string             `json:"title"`
	Type        models.IssueType   `json:"type"`
	Description string             `json:"description"`
	Images      []string           `json:"images"`
	Location    models.GeoPoint    `json:"location"`
	Address     string             `json:"address"`
	Status      models.IssueStatus `json:"status"`
	ReportedBy  reporterSummary    `json:"reportedBy"`
	CreatedAt   time.Time          `json:"createdAt"`
}

// GetAllIssues returns every issue, newest first, with the reporter's contact
// fields joined in. Enrichment failures degrade to empty contact fields
// rather than failing the list.
func (ac *AdminController) GetAllIssues(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	issues, err := ac.Issues.ListAll(ctx)
	if err != nil {
		log.Println("Error listing issues:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	formatted := make([]adminIssue, 0, len(issues))
	for _, issue := range issues {
		reporter := reporterSummary{ID: issue.ReportedBy}
		if user, err := ac.Users.GetByID(ctx, issue.ReportedBy); err == nil {
			reporter.Name = user.Name
			reporter.Email = user.Email
			reporter.Phone = user.Phone
		}

		formatted = append(formatted, adminIssue{
			ID:          issue.ID,
			Title:       issue.Title,
			Type:        issue.Type,
			Description: issue.Description,
			Images:      issue.Images,
			Location:    issue.Location,
			Address:     issue.Address,
			Status:      issue.Status,
			ReportedBy:  reporter,
			CreatedAt:   issue.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"issues":  formatted,
	})
}

// UpdateIssueStatus applies a lifecycle transition. The target must be one of
// in_progress or resolved, the lifecycle never moves backward, and the store
// is untouched when validation fails. Re-submitting the current status is
// idempotent.
func (ac *AdminController) UpdateIssueStatus(c *gin.Context) {
	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	var input struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	target := models.IssueStatus(input.Status)
	if !models.ValidTargetStatus(target) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	issue, err := ac.Issues.GetByID(ctx, issueID)
	if err != nil {
		if err == stores.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		}
		return
	}

	if !models.CanTransition(issue.Status, target) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status transition"})
		return
	}

	updated, err := ac.Issues.UpdateStatus(ctx, issueID, target)
	if err != nil {
		if err == stores.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		}
		return
	}

	ac.Hub.NotifyStatusUpdate(updated)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Issue marked as " + input.Status,
		"issue":   updated,
	})
}

// GetAnalytics returns live issue counts by type, by status, and per day for
// the last week.
func (ac *AdminController) GetAnalytics(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	byType, err := ac.Issues.CountsByType(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get type analytics"})
		return
	}

	byStatus, err := ac.Issues.CountsByStatus(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get status analytics"})
		return
	}

	var last7Days []gin.H
	for i := 6; i >= 0; i-- {
		date := time.Now().AddDate(0, 0, -i)
		date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
		nextDate := date.AddDate(0, 0, 1)

		count, err := ac.Issues.CountCreatedBetween(ctx, date, nextDate)
		if err != nil {
			count = 0
		}

		last7Days = append(last7Days, gin.H{
			"date":  date.Format("2006-01-02"),
			"count": count,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"issuesByType":   byType,
		"issuesByStatus": byStatus,
		"last7Days":      last7Days,
	})
}
