// Package client implements the API transport of the command-line client.
// It keeps the token pair of the active session and refreshes it
// transparently when the server reports an expired access token.
package client

import (
	"context"

	"github.com/postbridge/postbridge/internal/client/models"
)

type Client interface {
	Register(ctx context.Context, username, password string) error
	Login(ctx context.Context, username, password string) error
	Logout()
	Ping(ctx context.Context) error
	CreatePost(ctx context.Context, draft models.Draft) (*models.PublishReport, error)
	ListPosts(ctx context.Context) ([]models.Post, error)
	GetPost(ctx context.Context, uuid string) (*models.Post, error)
	Feed(ctx context.Context) ([]models.Post, error)
	NewMediaUpload(ctx context.Context) (key string, uploadURL string, err error)
}
