package api

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"teamtasks-backend/internal/apperr"
	"teamtasks-backend/internal/model"
	"teamtasks-backend/internal/mw"
	"teamtasks-backend/internal/parse"
)

type createTaskRequest struct {
	Title       string         `json:"title" binding:"required"`
	Description string         `json:"description"`
	DueDate     string         `json:"due_date" binding:"required"`
	Priority    model.Priority `json:"priority"`
	TeamID      int64          `json:"team_id" binding:"required"`
	AssigneeID  *int64         `json:"assignee_id"`
}

type assignTaskRequest struct {
	AssigneeID int64 `json:"assignee_id" binding:"required"`
}

type mentionRequest struct {
	Text string `json:"text" binding:"required"`
}

// requireMember fails with ErrForbidden unless userID belongs to teamID.
func (h *Handler) requireMember(ctx context.Context, userID, teamID int64) error {
	ok, err := h.store.IsTeamMember(ctx, userID, teamID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Forbidden("you are not a member of team %d", teamID)
	}
	return nil
}

func (h *Handler) requireAssignable(ctx context.Context, userID, teamID int64) error {
	ok, err := h.store.IsTeamMember(ctx, userID, teamID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Validation("assignee %d is not a member of team %d", userID, teamID)
	}
	return nil
}

// loadTask fetches the task in the path and checks the caller may see it.
func (h *Handler) loadTask(c *gin.Context) (model.Task, bool) {
	id, ok := pathID(c, "task")
	if !ok {
		return model.Task{}, false
	}
	task, err := h.store.GetTask(c.Request.Context(), id)
	if err == nil {
		err = h.requireMember(c.Request.Context(), mw.CurrentUser(c).UserID, task.TeamID)
	}
	if err != nil {
		writeError(c, err)
		return model.Task{}, false
	}
	return task, true
}

// ListTasks handles GET /api/tasks/.
func (h *Handler) ListTasks(c *gin.Context) {
	tasks, err := h.store.ListTasksForUser(c.Request.Context(), mw.CurrentUser(c).UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, toTask(t))
	}
	c.JSON(http.StatusOK, out)
}

// CreateTask handles POST /api/tasks/create/. An assignee is notified and
// @mentions in the description tag and notify team members.
func (h *Handler) CreateTask(c *gin.Context) {
	var req createTaskRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	caller := mw.CurrentUser(c)

	if req.Priority == "" {
		req.Priority = model.PriorityMedium
	}
	due, err := parse.DueDate(req.DueDate, h.loc)
	if err != nil {
		writeError(c, apperr.Validation("%v", err))
		return
	}
	if err := h.requireMember(ctx, caller.UserID, req.TeamID); err != nil {
		writeError(c, err)
		return
	}
	if req.AssigneeID != nil {
		if err := h.requireAssignable(ctx, *req.AssigneeID, req.TeamID); err != nil {
			writeError(c, err)
			return
		}
	}

	task := model.Task{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     due,
		Priority:    req.Priority,
		CreatorID:   caller.UserID,
		AssigneeID:  req.AssigneeID,
		TeamID:      req.TeamID,
	}
	if err := h.store.CreateTask(ctx, &task); err != nil {
		writeError(c, err)
		return
	}

	if err := h.producer.TaskAssigned(ctx, task); err != nil {
		log.Printf("failed to notify assignee of task %d: %v", task.ID, err)
	}
	if _, err := h.producer.TaskMentioned(ctx, task, task.Description); err != nil {
		log.Printf("failed to process mentions of task %d: %v", task.ID, err)
	}

	h.respondTask(c, http.StatusCreated, task.ID)
}

// GetTask handles GET /api/tasks/:id/.
func (h *Handler) GetTask(c *gin.Context) {
	task, ok := h.loadTask(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toTask(task))
}

// AssignTask handles POST /api/tasks/:id/assign/.
func (h *Handler) AssignTask(c *gin.Context) {
	var req assignTaskRequest
	if !bindJSON(c, &req) {
		return
	}
	task, ok := h.loadTask(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if err := h.requireAssignable(ctx, req.AssigneeID, task.TeamID); err != nil {
		writeError(c, err)
		return
	}
	if err := h.store.SetAssignee(ctx, task.ID, req.AssigneeID); err != nil {
		writeError(c, err)
		return
	}

	task.AssigneeID = &req.AssigneeID
	if err := h.producer.TaskAssigned(ctx, task); err != nil {
		log.Printf("failed to notify assignee of task %d: %v", task.ID, err)
	}
	h.respondTask(c, http.StatusOK, task.ID)
}

// MentionInTask handles POST /api/tasks/:id/mention/ and returns who was tagged.
func (h *Handler) MentionInTask(c *gin.Context) {
	var req mentionRequest
	if !bindJSON(c, &req) {
		return
	}
	task, ok := h.loadTask(c)
	if !ok {
		return
	}
	tagged, err := h.producer.TaskMentioned(c.Request.Context(), task, req.Text)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]userResponse, 0, len(tagged))
	for _, u := range tagged {
		out = append(out, toUser(u))
	}
	c.JSON(http.StatusOK, gin.H{"tagged": out})
}

func (h *Handler) respondTask(c *gin.Context, status int, id int64) {
	task, err := h.store.GetTask(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(status, toTask(task))
}
