package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"taskhub/internal/models"
	"taskhub/internal/services"
)

type TaskHandler struct {
	service services.TaskService
}

func NewTaskHandler(service services.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

// GET /tasks?search=&status=&priority=
func (h *TaskHandler) List(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	log.Printf("[task][list] call by userID=%d q=%v", userID, c.Request.URL.RawQuery)

	var filter models.TaskFilter
	filter.Search = c.Query("search")
	if v, ok := c.GetQuery("status"); ok && v != "" {
		st := models.TaskStatus(v)
		filter.Status = &st
	}
	if v, ok := c.GetQuery("priority"); ok && v != "" {
		pr := models.TaskPriority(v)
		filter.Priority = &pr
	}

	tasks, err := h.service.List(c.Request.Context(), userID, filter)
	if err != nil {
		log.Printf("[task][list][err] userID=%d: %v", userID, err)
		writeError(c, err)
		return
	}
	log.Printf("[task][list][ok] userID=%d count=%d", userID, len(tasks))
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

// POST /tasks
func (h *TaskHandler) Create(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	var req struct {
		Title       string              `json:"title"`
		Description string              `json:"description"`
		Status      models.TaskStatus   `json:"status"`
		Priority    models.TaskPriority `json:"priority"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[task][create][bind][err] userID=%d: %v", userID, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task := &models.Task{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
	}
	created, err := h.service.Create(c.Request.Context(), userID, task)
	if err != nil {
		log.Printf("[task][create][err] userID=%d: %v", userID, err)
		writeError(c, err)
		return
	}

	log.Printf("[task][create][ok] userID=%d id=%d title=%q", userID, created.ID, created.Title)
	c.JSON(http.StatusCreated, gin.H{"task": created})
}

// PUT /tasks/:id
func (h *TaskHandler) Update(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		log.Printf("[task][update][err] invalid id: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req models.TaskUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[task][update][bind][err] userID=%d id=%d: %v", userID, id, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.service.Update(c.Request.Context(), userID, id, req)
	if err != nil {
		log.Printf("[task][update][err] userID=%d id=%d: %v", userID, id, err)
		writeError(c, err)
		return
	}

	log.Printf("[task][update][ok] userID=%d id=%d", userID, id)
	c.JSON(http.StatusOK, gin.H{"task": updated})
}

// DELETE /tasks/:id
func (h *TaskHandler) Delete(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		log.Printf("[task][delete][err] invalid id: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), userID, id); err != nil {
		log.Printf("[task][delete][err] userID=%d id=%d: %v", userID, id, err)
		writeError(c, err)
		return
	}

	log.Printf("[task][delete][ok] userID=%d id=%d", userID, id)
	c.Status(http.StatusNoContent)
}
