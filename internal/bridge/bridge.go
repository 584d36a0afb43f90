// Package bridge exposes the pipeline over HTTP for companion tooling. It is
// a thin shim: every mutation goes through the same Resolve path the
// interactive loop uses, so session state stays coherent across surfaces.
package bridge

// #region imports
import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kibbyd/reason-pilot/internal/pipeline"
	"github.com/kibbyd/reason-pilot/internal/store"
)

// #endregion

// #region request-response

type queryRequest struct {
	Input string `json:"input" binding:"required"`
}

type queryResponse struct {
	QueryID     string   `json:"query_id,omitempty"`
	SessionID   int64    `json:"session_id,omitempty"`
	Kind        string   `json:"kind,omitempty"`
	ProblemType string   `json:"problem_type,omitempty"`
	Answer      string   `json:"answer,omitempty"`
	Trace       []string `json:"trace,omitempty"`
	Confidence  float64  `json:"confidence,omitempty"`
	Source      string   `json:"source,omitempty"`
	State       string   `json:"state,omitempty"`
	Uncertain   bool     `json:"uncertain,omitempty"`
	Warning     string   `json:"warning,omitempty"`
	Output      string   `json:"output,omitempty"` // command output
}

type feedbackRequest struct {
	Correct bool   `json:"correct"`
	Note    string `json:"note"`
}

// #endregion

// #region router

// New builds the bridge router over a wired pipeline.
func New(p *pipeline.Pipeline, st *store.Store) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "degraded": st.Degraded()})
	})

	r.POST("/v1/query", handleQuery(p))
	r.POST("/v1/feedback", handleFeedback(p))
	r.GET("/v1/context", handleContext(p))
	r.GET("/v1/performance", handlePerformance(p))

	return r
}

// #endregion

// #region handlers

func handleQuery(p *pipeline.Pipeline) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req queryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "input is required"})
			return
		}

		res, err := p.Resolve(c.Request.Context(), req.Input)
		if err != nil {
			log.Printf("[BRIDGE] resolve failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		if res.IsCommand {
			c.JSON(http.StatusOK, queryResponse{Output: res.Output})
			return
		}

		out := queryResponse{
			QueryID:     res.QueryID,
			SessionID:   res.SessionID,
			Kind:        string(res.Kind),
			ProblemType: string(res.ProblemType),
			Answer:      res.Answer,
			Confidence:  res.Confidence,
			Source:      res.Source,
			State:       string(res.State),
			Uncertain:   res.Uncertain,
			Warning:     res.Warning,
		}
		for _, s := range res.Trace {
			out.Trace = append(out.Trace, s.Description)
		}
		c.JSON(http.StatusOK, out)
	}
}

func handleFeedback(p *pipeline.Pipeline) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req feedbackRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid feedback payload"})
			return
		}
		msg, err := p.RecordFeedback(req.Correct, req.Note)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": msg})
	}
}

func handleContext(p *pipeline.Pipeline) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries := p.ContextEntries()
		out := make([]gin.H, 0, len(entries))
		for _, e := range entries {
			out = append(out, gin.H{
				"session_id":   e.SessionID,
				"query":        e.Query,
				"answer":       e.Answer,
				"source":       e.Source,
				"problem_type": string(e.ProblemType),
				"is_retry":     e.IsRetry,
				"timestamp":    e.Timestamp,
			})
		}
		c.JSON(http.StatusOK, gin.H{"entries": out})
	}
}

func handlePerformance(p *pipeline.Pipeline) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, err := p.WeightSnapshot()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		out := make([]gin.H, 0, len(entries))
		for _, e := range entries {
			out = append(out, gin.H{"source": e.Source, "bucket": e.Bucket, "weight": e.Weight})
		}
		c.JSON(http.StatusOK, gin.H{"weights": out})
	}
}

// #endregion
