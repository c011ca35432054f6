package controllers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"briddhi-be/geocode"
	"briddhi-be/middlewares"
	"briddhi-be/models"
	"briddhi-be/realtime"
	"briddhi-be/storage"
	"briddhi-be/stores"
	authUtils "briddhi-be/utils"
)

// CitizenController owns registration, login and the citizen side of the
// issue lifecycle: submission and the owner-filtered list.
type CitizenController struct {
	Users    stores.UserStore
	Issues   stores.IssueStore
	Hub      *realtime.Hub
	Geocoder geocode.Geocoder
	Uploader storage.Uploader
}

// Register handles citizen account creation. Accounts always get the citizen
// role; admin accounts are provisioned out of band.
func (cc *CitizenController) Register(c *gin.Context) {
	var input struct {
		Name     string `json:"name" binding:"required,max=50"`
		Email    string `json:"email" binding:"omitempty,email"`
		Phone    string `json:"phone" binding:"omitempty,max=20"`
		Password string `json:"password" binding:"required,min=6"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Email == "" && input.Phone == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Either email or phone is required"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if input.Email != "" {
		if _, err := cc.Users.FindByEmail(ctx, input.Email); err == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email already registered"})
			return
		}
	}
	if input.Phone != "" {
		if _, err := cc.Users.FindByPhone(ctx, input.Phone); err == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Phone already registered"})
			return
		}
	}

	user := models.User{
		Name:     input.Name,
		Email:    input.Email,
		Phone:    input.Phone,
		Password: input.Password,
		Role:     models.RoleCitizen,
	}

	if err := user.HashPassword(); err != nil {
		log.Println("Error hashing password:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	created, err := cc.Users.Create(ctx, user)
	if err != nil {
		log.Println("Error inserting user:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	token, err := authUtils.GenerateToken(created.ID.Hex(), created.Role)
	if err != nil {
		log.Println("Error generating token:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    accountSummary(created),
		"token":   token,
	})
}

// Login handles login by email or phone
func (cc *CitizenController) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"omitempty,email"`
		Phone    string `json:"phone"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Email == "" && input.Phone == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email or phone and password are required"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	var user models.User
	var err error
	if input.Email != "" {
		user, err = cc.Users.FindByEmail(ctx, input.Email)
	} else {
		user, err = cc.Users.FindByPhone(ctx, input.Phone)
	}
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if !user.ComparePassword(input.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := authUtils.GenerateToken(user.ID.Hex(), user.Role)
	if err != nil {
		log.Println("Error generating token:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    accountSummary(user),
		"token":   token,
	})
}

// GetProfile returns the authenticated account's summary
func (cc *CitizenController) GetProfile(c *gin.Context) {
	accountID, ok := requestAccountID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	user, err := cc.Users.GetByID(ctx, accountID)
	if err != nil {
		if err == stores.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": accountSummary(user)})
}

// SubmitIssue creates an issue from a multipart submission. The photo bound
// is checked before anything is uploaded or persisted; geocoding failure is
// absorbed with a sentinel address.
func (cc *CitizenController) SubmitIssue(c *gin.Context) {
	accountID, ok := requestAccountID(c)
	if !ok {
		return
	}

	description := c.PostForm("description")
	if description == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Description and live location required"})
		return
	}

	locationRaw := c.PostForm("location")
	manualAddress := c.PostForm("address")
	if locationRaw == "" && manualAddress == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Description and live location required"})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid multipart form"})
		return
	}
	files := form.File["images"]
	if len(files) > models.MaxIssueImages {
		c.JSON(http.StatusBadRequest, gin.H{"error": "At most 5 images are allowed"})
		return
	}

	location := models.NewGeoPoint(0, 0)
	address := manualAddress
	if locationRaw != "" {
		var point models.GeoPoint
		if err := json.Unmarshal([]byte(locationRaw), &point); err != nil ||
			point.Type != "Point" || len(point.Coordinates) != 2 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid location"})
			return
		}
		location = models.NewGeoPoint(point.Coordinates[0], point.Coordinates[1])

		geoCtx, cancelGeo := context.WithTimeout(c.Request.Context(), 5*time.Second)
		resolved, err := cc.Geocoder.ReverseGeocode(geoCtx, point.Coordinates[1], point.Coordinates[0])
		cancelGeo()
		if err != nil {
			log.Println("Geocoding error:", err)
			resolved = models.UnknownAddress
		}
		address = resolved
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	images := []string{}
	for _, file := range files {
		url, err := cc.Uploader.Upload(ctx, file)
		if err != nil {
			log.Println("Error uploading image:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload image"})
			return
		}
		images = append(images, url)
	}

	issue := models.Issue{
		Title:       c.PostForm("title"),
		Type:        models.NormalizeType(c.PostForm("type")),
		Description: description,
		Images:      images,
		Location:    location,
		Address:     address,
		Status:      models.Pending,
		ReportedBy:  accountID,
	}

	created, err := cc.Issues.Create(ctx, issue)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	cc.Hub.NotifyNewIssue(created)

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Issue submitted",
		"issue":   created,
	})
}

// GetMyIssues lists the caller's issues, newest first
func (cc *CitizenController) GetMyIssues(c *gin.Context) {
	accountID, ok := requestAccountID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	issues, err := cc.Issues.ListByOwner(ctx, accountID)
	if err != nil {
		log.Println("Error listing issues:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"issues":  issues,
	})
}

// requestAccountID reads the authenticated account id set by the auth
// middleware. Writes the error response itself when the id is unusable.
func requestAccountID(c *gin.Context) (primitive.ObjectID, bool) {
	accountVal, exists := c.Get(middlewares.CtxAccountID)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return primitive.NilObjectID, false
	}

	objectID, err := primitive.ObjectIDFromHex(accountVal.(string))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return primitive.NilObjectID, false
	}
	return objectID, true
}

func accountSummary(user models.User) gin.H {
	return gin.H{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
		"phone": user.Phone,
		"role":  user.Role,
	}
}
