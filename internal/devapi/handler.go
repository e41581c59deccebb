package devapi

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"campusevents/internal/model"
)

// Handler serves the campus-events REST API from a Store.
type Handler struct {
	store  *Store
	tokens *Tokens
}

// NewHandler wires handlers to store and tokens.
func NewHandler(store *Store, tokens *Tokens) *Handler {
	return &Handler{store: store, tokens: tokens}
}

func detail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, model.ErrorBody{Detail: msg})
}

// fail writes err as a detail body. Anything that is not a Problem is a 500.
func fail(c *gin.Context, err error) {
	if p, ok := AsProblem(err); ok {
		detail(c, p.Status, p.Detail)
		return
	}
	log.Printf("devapi %s %s: %v", c.Request.Method, c.FullPath(), err)
	detail(c, http.StatusInternalServerError, "Internal server error")
}

// invalid mirrors the shape of a request validation failure: a list of
// issues under detail.
func invalid(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
		"detail": []gin.H{{"msg": err.Error(), "type": "value_error"}},
	})
}

func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type registerBody struct {
	Email     string    `json:"email" binding:"required,email"`
	Password  string    `json:"password" binding:"required,min=6"`
	FullName  string    `json:"full_name" binding:"required"`
	Role      string    `json:"role" binding:"omitempty,oneof=student admin"`
	CollegeID *model.ID `json:"college_id"`
}

func (h *Handler) Register(c *gin.Context) {
	var req registerBody
	if err := c.ShouldBindJSON(&req); err != nil {
		invalid(c, err)
		return
	}
	u, err := h.store.CreateUser(model.RegisterRequest{
		Email:     req.Email,
		Password:  req.Password,
		FullName:  req.FullName,
		Role:      model.Role(req.Role),
		CollegeID: req.CollegeID,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

type loginBody struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginBody
	if err := c.ShouldBindJSON(&req); err != nil {
		invalid(c, err)
		return
	}
	u, err := h.store.Authenticate(req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	token, _, err := h.tokens.Issue(u)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, model.TokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (h *Handler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}

func (h *Handler) Colleges(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Colleges())
}

func (h *Handler) Events(c *gin.Context) {
	skip, err := strconv.Atoi(c.DefaultQuery("skip", "0"))
	if err != nil || skip < 0 {
		detail(c, http.StatusBadRequest, "skip must be a non-negative integer")
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit < 1 {
		detail(c, http.StatusBadRequest, "limit must be a positive integer")
		return
	}
	c.JSON(http.StatusOK, h.store.Events(skip, limit))
}

func (h *Handler) Event(c *gin.Context) {
	e, err := h.store.Event(model.ID(c.Param("id")))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (h *Handler) MyRegistrations(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Registrations(currentUser(c).ID))
}

func (h *Handler) AllRegistrations(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Registrations(""))
}

type registrationBody struct {
	EventID model.ID `json:"event_id" binding:"required"`
}

func (h *Handler) CreateRegistration(c *gin.Context) {
	var req registrationBody
	if err := c.ShouldBindJSON(&req); err != nil {
		invalid(c, err)
		return
	}
	r, err := h.store.Register(currentUser(c).ID, req.EventID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

func (h *Handler) MyAttendance(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Attendance(currentUser(c).ID))
}

func (h *Handler) AllAttendance(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Attendance(""))
}

type attendanceBody struct {
	RegistrationID model.ID `json:"registration_id" binding:"required"`
	EventID        model.ID `json:"event_id" binding:"required"`
}

func (h *Handler) CreateAttendance(c *gin.Context) {
	var req attendanceBody
	if err := c.ShouldBindJSON(&req); err != nil {
		invalid(c, err)
		return
	}
	a, err := h.store.CreateAttendance(model.AttendanceCreate{RegistrationID: req.RegistrationID, EventID: req.EventID})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h *Handler) MyFeedback(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Feedback(currentUser(c).ID))
}

type feedbackBody struct {
	EventID model.ID `json:"event_id" binding:"required"`
	Rating  int      `json:"rating" binding:"required"`
	Comment string   `json:"comment"`
}

func (h *Handler) CreateFeedback(c *gin.Context) {
	var req feedbackBody
	if err := c.ShouldBindJSON(&req); err != nil {
		invalid(c, err)
		return
	}
	f, err := h.store.SubmitFeedback(currentUser(c).ID, model.FeedbackCreate{EventID: req.EventID, Rating: req.Rating, Comment: req.Comment})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, f)
}
