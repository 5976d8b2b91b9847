package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"teamtasks-backend/internal/mw"
)

type createTeamRequest struct {
	Name      string  `json:"name" binding:"required"`
	MemberIDs []int64 `json:"member_ids"`
}

// ListTeams handles GET /api/teams/.
func (h *Handler) ListTeams(c *gin.Context) {
	teams, err := h.store.ListTeamsForUser(c.Request.Context(), mw.CurrentUser(c).UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]teamResponse, 0, len(teams))
	for _, t := range teams {
		out = append(out, toTeam(t))
	}
	c.JSON(http.StatusOK, out)
}

// CreateTeam handles POST /api/teams/create/. The caller always becomes a member.
func (h *Handler) CreateTeam(c *gin.Context) {
	var req createTeamRequest
	if !bindJSON(c, &req) {
		return
	}
	team, err := h.store.CreateTeam(c.Request.Context(), req.Name, mw.CurrentUser(c).UserID, req.MemberIDs)
	if err != nil {
		writeError(c, err)
		return
	}

	if h.cache != nil {
		ids := make([]int64, 0, len(team.Members))
		for _, m := range team.Members {
			ids = append(ids, m.ID)
		}
		mw.InvalidateUser(h.cache, ids...)
	}
	c.JSON(http.StatusCreated, toTeam(team))
}
