package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/postbridge/postbridge/internal/logging"
	"github.com/postbridge/postbridge/internal/posts"
	"github.com/postbridge/postbridge/internal/publish"
)

// PostsHandler serves post creation with fan-out publication, the owner's
// post listings, and the public feed.
type PostsHandler struct {
	Repo        *posts.Repository
	Broadcaster *publish.Broadcaster
	Log         logging.Logger
}

func (h *PostsHandler) Register(r *gin.Engine, authed *gin.RouterGroup) {
	authed.POST("/posts", h.create)
	authed.GET("/posts", h.list)
	authed.GET("/posts/:uuid", h.get)

	// The feed is deliberately public: it is the read side of everything
	// broadcast through this server.
	r.GET("/feed", h.feed)
}

type createPostRequest struct {
	Content  string   `json:"content"`
	Link     string   `json:"link"`
	Labels   []string `json:"labels"`
	Language string   `json:"language"`
	Images   []string `json:"images"`
	Thread   []string `json:"thread"`
	Targets  []string `json:"targets"`
}

type postResponse struct {
	UUID      string    `json:"uuid"`
	Content   string    `json:"content"`
	Link      string    `json:"link,omitempty"`
	Labels    []string  `json:"labels,omitempty"`
	Language  string    `json:"language,omitempty"`
	Images    []string  `json:"images,omitempty"`
	Thread    []string  `json:"thread,omitempty"`
	Targets   []string  `json:"targets,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// targetOutcome is one entry of the composite failure body: either the
// response a target returned or the error that made it fail.
type targetOutcome struct {
	OK    bool   `json:"ok"`
	ID    string `json:"id,omitempty"`
	URL   string `json:"url,omitempty"`
	Error string `json:"error,omitempty"`
}

func (h *PostsHandler) create(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content required"})
		return
	}

	results, err := h.Broadcaster.Broadcast(c.Request.Context(), publish.Request{
		OwnerID:  accountID(c),
		Content:  req.Content,
		Link:     req.Link,
		Labels:   req.Labels,
		Language: req.Language,
		Images:   req.Images,
		Thread:   req.Thread,
		Targets:  req.Targets,
	})
	if err != nil {
		var ve *publish.ValidationError
		if errors.As(err, &ve) {
			c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error(), "target": ve.Target})
			return
		}
		var be *publish.BroadcastError
		if errors.As(err, &be) {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error":   be.Error(),
				"results": outcomesOf(be.Results),
			})
			return
		}
		h.Log.Error(c.Request.Context(), "broadcast failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, results)
}

func (h *PostsHandler) list(c *gin.Context) {
	list, err := h.Repo.GetAllForOwner(c.Request.Context(), accountID(c))
	if err != nil {
		h.Log.Error(c.Request.Context(), "list posts failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, toPostResponses(list))
}

func (h *PostsHandler) get(c *gin.Context) {
	post, err := h.Repo.GetByUUID(c.Request.Context(), accountID(c), c.Param("uuid"))
	if err != nil {
		h.Log.Error(c.Request.Context(), "get post failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if post == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, toPostResponse(post))
}

func (h *PostsHandler) feed(c *gin.Context) {
	list, err := h.Repo.Feed(c.Request.Context())
	if err != nil {
		h.Log.Error(c.Request.Context(), "feed failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, toPostResponses(list))
}

func toPostResponse(p *posts.Post) postResponse {
	return postResponse{
		UUID:      p.UUID,
		Content:   p.Content,
		Link:      p.Link,
		Labels:    p.Labels,
		Language:  p.Language,
		Images:    p.Images,
		Thread:    p.Thread,
		Targets:   p.Targets,
		CreatedAt: p.CreatedAt,
	}
}

func toPostResponses(list []*posts.Post) []postResponse {
	out := make([]postResponse, 0, len(list))
	for _, p := range list {
		out = append(out, toPostResponse(p))
	}
	return out
}

func outcomesOf(results []publish.Result) map[string]targetOutcome {
	out := make(map[string]targetOutcome, len(results))
	for _, res := range results {
		o := targetOutcome{OK: !res.Failed(), ID: res.Response.ID, URL: res.Response.URL}
		if res.Err != nil {
			o.Error = res.Err.Error()
		}
		out[res.Target] = o
	}
	return out
}
