package api

import (
	"github.com/gin-gonic/gin"

	"github.com/postbridge/postbridge/internal/logging"
	"github.com/postbridge/postbridge/internal/posts"
	"github.com/postbridge/postbridge/internal/publish"
	"github.com/postbridge/postbridge/internal/server/accounts"
	"github.com/postbridge/postbridge/internal/server/media"
	"github.com/postbridge/postbridge/internal/store"
)

// Deps carries everything the HTTP surface needs. All fields are required
// except Media, which disables the upload route when nil.
type Deps struct {
	SecretKey   []byte
	Log         logging.Logger
	Store       *store.Manager
	Accounts    *accounts.Service
	Posts       *posts.Repository
	Broadcaster *publish.Broadcaster
	Media       *media.Service
}

// NewRouter assembles the gin engine: public auth routes, the public feed,
// probes, and the bearer-protected /api group.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(d.Log))

	authed := r.Group("/api")
	authed.Use(RequireAuth(d.SecretKey))

	(&HealthHandler{Mgr: d.Store}).Register(r)
	(&AuthHandler{Accounts: d.Accounts, Log: d.Log}).Register(r)
	(&PostsHandler{Repo: d.Posts, Broadcaster: d.Broadcaster, Log: d.Log}).Register(r, authed)
	if d.Media != nil {
		(&MediaHandler{Media: d.Media, Log: d.Log}).Register(authed)
	}

	return r
}
