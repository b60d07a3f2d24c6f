package cli

import (
	"context"
	"log"
	"strings"
	"time"
)

// List prints the logged-in user's posts, newest first.
func (a *App) List(ctx context.Context) error {
	posts, err := a.api.ListPosts(ctx)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}

	if len(posts) == 0 {
		printlnFn("No posts yet")
		return nil
	}

	for _, p := range posts {
		printlnFn(p.String())
	}
	return nil
}

// Feed prints the public feed across all authors, newest first.
func (a *App) Feed(ctx context.Context) error {
	posts, err := a.api.Feed(ctx)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}

	if len(posts) == 0 {
		printlnFn("The feed is empty")
		return nil
	}

	for _, p := range posts {
		printlnFn(p.String())
	}
	return nil
}

// Show fetches a single post by id and displays it in full.
func (a *App) Show(ctx context.Context, id string) error {
	p, err := a.api.GetPost(ctx, id)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}

	printlnFn(p.Content)
	if p.Link != "" {
		printlnFn("Link:", p.Link)
	}
	if p.Language != "" {
		printlnFn("Language:", p.Language)
	}
	if len(p.Labels) > 0 {
		printlnFn("Labels:", strings.Join(p.Labels, ", "))
	}
	for _, msg := range p.Thread {
		printlnFn("Thread:", msg)
	}
	for _, img := range p.Images {
		printlnFn("Attachment:", img)
	}
	if len(p.Targets) > 0 {
		printlnFn("Published to:", strings.Join(p.Targets, ", "))
	}
	printlnFn("Created:", p.CreatedAt.Format(time.RFC3339))
	return nil
}
