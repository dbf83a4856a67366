package publisher

import "context"

// Request carries everything an adapter needs to publish one post. Media
// references are already resolved to downloadable URLs by the scheduler.
type Request struct {
	PostID      int64    `json:"post_id"`
	WorkspaceID int64    `json:"workspace_id"`
	Content     string   `json:"content"`
	Platform    string   `json:"platform"`
	MediaURLs   []string `json:"media_urls"`
}

// Publisher implements the publish protocol for one social platform.
type Publisher interface {
	Publish(ctx context.Context, req *Request) error
}

// Registry is a static dispatch table keyed by platform. Platforms without a
// registered publisher are modeled but unsupported; the scheduler fails their
// posts instead of dispatching.
type Registry struct {
	publishers map[string]Publisher
}

func NewRegistry() *Registry {
	return &Registry{publishers: make(map[string]Publisher)}
}

func (r *Registry) Register(platform string, p Publisher) {
	r.publishers[platform] = p
}

func (r *Registry) Lookup(platform string) (Publisher, bool) {
	p, ok := r.publishers[platform]
	return p, ok
}

func (r *Registry) Supports(platform string) bool {
	_, ok := r.publishers[platform]
	return ok
}
