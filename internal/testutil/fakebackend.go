package testutil

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"todocal/internal/service"
)

// FakeBackend serves the calendar REST API over a FakeService.
type FakeBackend struct {
	Service *FakeService
	Server  *httptest.Server

	// RequireAuth rejects requests without a known bearer token (login and signup excepted).
	RequireAuth bool

	mu         sync.Mutex
	overrides  map[string]override
	requestIDs []string
	authHeader []string
}

type override struct {
	status int
	body   string
}

// NewFakeBackend starts a FakeBackend that is closed when the test ends.
func NewFakeBackend(t *testing.T, svc *FakeService) *FakeBackend {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fb := &FakeBackend{
		Service:   svc,
		overrides: make(map[string]override),
	}
	fb.Server = httptest.NewServer(fb.router())
	t.Cleanup(fb.Server.Close)
	return fb
}

// URL returns the base URL of the server.
func (fb *FakeBackend) URL() string {
	return fb.Server.URL
}

// Override makes "METHOD /path" answer with a fixed status and raw body.
func (fb *FakeBackend) Override(route string, status int, body string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.overrides[route] = override{status: status, body: body}
}

// RequestIDs returns the X-Request-ID headers seen so far.
func (fb *FakeBackend) RequestIDs() []string {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]string(nil), fb.requestIDs...)
}

// AuthHeaders returns the Authorization headers seen so far.
func (fb *FakeBackend) AuthHeaders() []string {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]string(nil), fb.authHeader...)
}

func (fb *FakeBackend) router() *gin.Engine {
	r := gin.New()
	r.Use(fb.intercept)

	api := r.Group("/api")
	api.POST("/login", fb.login)
	api.POST("/signup", fb.signup)

	authed := api.Group("")
	authed.Use(fb.auth)
	authed.POST("/shareTodo/list", fb.listShares)
	authed.POST("/shareTodo/accept", fb.respond(service.StatusAccepted))
	authed.POST("/shareTodo/reject", fb.respond(service.StatusRejected))
	authed.POST("/shareTodo/create", fb.createShare)
	authed.POST("/todos/batch", fb.batch)
	authed.POST("/todos", fb.ownTasks)
	authed.GET("/todos/:id", fb.getTask)
	authed.PUT("/todos/:id", fb.updateTask)
	authed.DELETE("/todos/:id", fb.deleteTask)
	authed.POST("/create", fb.createTask)
	authed.GET("/users/:id", fb.getUser)
	authed.GET("/users", fb.searchUsers)
	return r
}

func (fb *FakeBackend) intercept(c *gin.Context) {
	fb.mu.Lock()
	fb.requestIDs = append(fb.requestIDs, c.GetHeader("X-Request-ID"))
	fb.authHeader = append(fb.authHeader, c.GetHeader("Authorization"))
	ov, ok := fb.overrides[c.Request.Method+" "+c.Request.URL.Path]
	fb.mu.Unlock()

	if ok {
		c.Data(ov.status, "application/json", []byte(ov.body))
		c.Abort()
		return
	}
	c.Next()
}

func (fb *FakeBackend) auth(c *gin.Context) {
	if !fb.RequireAuth {
		c.Next()
		return
	}
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	id, err := strconv.ParseInt(strings.TrimPrefix(token, "token-"), 10, 64)
	if err != nil || token != TokenFor(id) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	c.Next()
}

func (fb *FakeBackend) fail(c *gin.Context, err error) {
	var rej *service.RejectionError
	if errors.As(err, &rej) {
		c.JSON(rej.StatusCode, gin.H{"error": rej.Message})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func (fb *FakeBackend) login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := fb.Service.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		fb.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": res.UserID, "token": res.Token, "message": res.Message})
}

func (fb *FakeBackend) signup(c *gin.Context) {
	var req struct {
		Username        string `json:"username"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := fb.Service.Signup(c.Request.Context(), req.Username, req.Password, req.ConfirmPassword); err != nil {
		fb.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User created successfully"})
}

func (fb *FakeBackend) listShares(c *gin.Context) {
	var req struct {
		UserID int64 `json:"user_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	shares, err := fb.Service.FetchShares(c.Request.Context(), req.UserID)
	if err != nil {
		fb.fail(c, err)
		return
	}
	out := make([]gin.H, 0, len(shares))
	for _, s := range shares {
		out = append(out, gin.H{
			"id":         s.ID,
			"taskId":     s.TaskID,
			"shareWith":  s.SharedWithID,
			"createdAt":  s.CreatedAt.Format(time.RFC3339),
			"isAccepted": string(s.Status),
		})
	}
	c.JSON(http.StatusOK, out)
}

func (fb *FakeBackend) respond(decision service.ShareStatus) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			ShareTodoID int64 `json:"share_todo_id"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := fb.Service.RespondToShare(c.Request.Context(), req.ShareTodoID, decision); err != nil {
			fb.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	}
}

func (fb *FakeBackend) createShare(c *gin.Context) {
	var req struct {
		TaskID    int64 `json:"task_id"`
		ShareWith int64 `json:"share_with"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := fb.Service.CreateShare(c.Request.Context(), req.TaskID, req.ShareWith); err != nil {
		fb.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "shared"})
}

func (fb *FakeBackend) batch(c *gin.Context) {
	var req struct {
		IDs []int64 `json:"ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tasks, err := fb.Service.FetchTasksByIDs(c.Request.Context(), req.IDs)
	if err != nil {
		fb.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tasksJSON(tasks))
}

func (fb *FakeBackend) ownTasks(c *gin.Context) {
	var req struct {
		UserID int64 `json:"user_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tasks, err := fb.Service.FetchOwnTasks(c.Request.Context(), req.UserID)
	if err != nil {
		fb.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tasksJSON(tasks))
}

func (fb *FakeBackend) getTask(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	task, err := fb.Service.FetchTask(c.Request.Context(), id)
	if err != nil {
		fb.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, taskJSON(task))
}

func (fb *FakeBackend) updateTask(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req struct {
		Title       string  `json:"title"`
		Description string  `json:"description"`
		IsDone      bool    `json:"is_done"`
		StartDate   string  `json:"start_date"`
		EndDate     string  `json:"end_date"`
		ImagePath   *string `json:"image_path"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	start, err1 := time.Parse(time.RFC3339, req.StartDate)
	end, err2 := time.Parse(time.RFC3339, req.EndDate)
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad date"})
		return
	}
	task := service.Task{ID: id, Title: req.Title, Description: req.Description, IsDone: req.IsDone, Start: start, End: end}
	if req.ImagePath != nil {
		task.ImagePath = *req.ImagePath
	}
	if err := fb.Service.UpdateTask(c.Request.Context(), task); err != nil {
		fb.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "updated"})
}

func (fb *FakeBackend) deleteTask(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := fb.Service.DeleteTask(c.Request.Context(), id); err != nil {
		fb.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (fb *FakeBackend) createTask(c *gin.Context) {
	var req struct {
		UserID      int64  `json:"userId"`
		Title       string `json:"title"`
		Description string `json:"description"`
		StartDate   string `json:"startDate"`
		EndDate     string `json:"endDate"`
		ImagePath   string `json:"imagePath"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	start, err1 := time.Parse(time.RFC3339, req.StartDate)
	end, err2 := time.Parse(time.RFC3339, req.EndDate)
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad date"})
		return
	}
	task, err := fb.Service.CreateTask(c.Request.Context(), req.UserID, service.TaskDraft{
		Title:       req.Title,
		Description: req.Description,
		Start:       start,
		End:         end,
		ImagePath:   req.ImagePath,
	})
	if err != nil {
		fb.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, taskJSON(task))
}

func (fb *FakeBackend) getUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	u, err := fb.Service.FetchUser(c.Request.Context(), id)
	if err != nil {
		fb.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": u.ID, "name": u.Username})
}

func (fb *FakeBackend) searchUsers(c *gin.Context) {
	users, err := fb.Service.SearchUsers(c.Request.Context(), c.Query("search"))
	if err != nil {
		fb.fail(c, err)
		return
	}
	out := make([]gin.H, 0, len(users))
	for _, u := range users {
		out = append(out, gin.H{"id": u.ID, "name": u.Username})
	}
	c.JSON(http.StatusOK, out)
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func taskJSON(t service.Task) gin.H {
	h := gin.H{
		"task_id":     t.ID,
		"user_id":     t.OwnerID,
		"title":       t.Title,
		"description": t.Description,
		"is_done":     t.IsDone,
		"start_date":  t.Start.Format(time.RFC3339),
		"end_date":    t.End.Format(time.RFC3339),
		"image_path":  nil,
	}
	if t.ImagePath != "" {
		h["image_path"] = t.ImagePath
	}
	return h
}

func tasksJSON(tasks []service.Task) []gin.H {
	out := make([]gin.H, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, taskJSON(t))
	}
	return out
}
