package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/vitalvas/rewriter/content"
	"github.com/vitalvas/rewriter/dispatch"
)

// latestPosts is the size of the posts list.
const latestPosts = 5

type postJSON struct {
	ID      int       `json:"id"`
	Title   string    `json:"title"`
	Slug    string    `json:"slug"`
	Excerpt string    `json:"excerpt"`
	Content string    `json:"content"`
	Author  string    `json:"author,omitempty"`
	Date    time.Time `json:"date"`
	URL     string    `json:"url"`
}

// Posts serves the latest posts and single post details.
type Posts struct {
	cfg Config
}

// NewPosts returns the posts family handler.
func NewPosts(cfg Config) *Posts {
	return &Posts{cfg: cfg}
}

// Kind implements dispatch.Handler.
func (h *Posts) Kind() dispatch.Kind {
	return dispatch.KindJSON
}

// Handle implements dispatch.Handler.
func (h *Posts) Handle(ctx context.Context, dc *dispatch.Context) (*dispatch.Response, error) {
	switch dc.Action {
	case "list":
		posts, err := h.cfg.Source.Posts(ctx, latestPosts)
		if err != nil {
			return nil, err
		}

		out := make([]postJSON, 0, len(posts))
		for _, p := range posts {
			out = append(out, h.post(p))
		}
		return dispatch.JSON(http.StatusOK, out)

	case "details":
		var p struct {
			ID int `param:"id"`
		}
		if err := decodeParams(dc.Params, &p); err != nil {
			return nil, err
		}
		if p.ID <= 0 {
			return nil, dispatch.BadRequest(reasonInvalidAction)
		}

		post, err := h.cfg.Source.PostByID(ctx, p.ID)
		if err != nil {
			return nil, notFound(err, "Post not found")
		}
		if !post.Published() {
			return nil, dispatch.NotFound("Post not found")
		}
		return dispatch.JSON(http.StatusOK, h.post(post))

	default:
		return nil, dispatch.BadRequest(reasonInvalidAction)
	}
}

func (h *Posts) post(p content.Post) postJSON {
	return postJSON{
		ID:      p.ID,
		Title:   p.Title,
		Slug:    p.Slug,
		Excerpt: p.Excerpt,
		Content: p.Content,
		Author:  p.Author,
		Date:    p.Date,
		URL:     h.cfg.Links.Post(p),
	}
}
