package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kode4food/remedy/pkg/api"
)

const formatText = "text"

func (s *Server) loadPlan(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		badRequest(c, ErrReadBody, err)
		return
	}

	plan, err := decodePlan(body, c.Query("format"))
	if err != nil {
		badRequest(c, ErrInvalidPlan, err)
		return
	}

	id, err := s.engine.LoadPlan(plan)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusCreated, api.PlanLoadedResponse{
		Plan:    s.engine.Plan(),
		Message: "Plan loaded",
		RunID:   id,
		Steps:   len(plan.Steps),
	})
}

func decodePlan(body []byte, format string) (*api.WorkflowPlan, error) {
	if format == formatText {
		return api.ParsePlan(body)
	}
	var plan api.WorkflowPlan
	if err := json.Unmarshal(body, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

func (s *Server) executeStep(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		badRequest(c, ErrInvalidIndex, err)
		return
	}

	if err := s.engine.StartStep(index); err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, api.ExecuteStepResponse{
		Message: "Step execution started",
		RunID:   s.engine.State().RunID,
		Index:   index,
	})
}

func (s *Server) executeAll(c *gin.Context) {
	if err := s.engine.ExecuteAll(); err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, api.MessageResponse{
		Message: "Auto execution started",
	})
}

func (s *Server) stop(c *gin.Context) {
	if err := s.engine.Stop(); err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{
		Message: "Auto execution stopped",
	})
}

func (s *Server) reset(c *gin.Context) {
	s.engine.Reset()
	c.JSON(http.StatusOK, api.MessageResponse{
		Message: "Workflow reset",
	})
}

func (s *Server) handleProgress(c *gin.Context) {
	st := s.engine.State()
	c.JSON(http.StatusOK, api.ProgressResponse{
		Status:   st.Status,
		Progress: st.Progress,
		Current:  st.Current,
	})
}

// handleLog returns the execution log. With ?since=N only entries whose id
// is greater than N are returned
func (s *Server) handleLog(c *gin.Context) {
	entries := s.engine.Log()

	if raw := c.Query("since"); raw != "" {
		since, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			badRequest(c, ErrInvalidSince, err)
			return
		}
		entries = entriesAfter(entries, since)
	}

	c.JSON(http.StatusOK, api.LogResponse{
		Entries: entries,
		Count:   len(entries),
	})
}

func entriesAfter(entries []api.LogEntry, id int64) []api.LogEntry {
	res := make([]api.LogEntry, 0, len(entries))
	for _, e := range entries {
		if e.ID > id {
			res = append(res, e)
		}
	}
	return res
}
