package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"trialfunnel/internal/core"
)

// Registry holds live agents keyed by session id.  Idle sessions expire
// after the TTL; the janitor purges them in the background.  The registry
// never shares an agent between ids, so per-session serialization is the
// caller's only concurrency obligation.
type Registry struct {
	cache    *cache.Cache
	newAgent func() *core.Agent
}

// NewRegistry creates a registry whose sessions expire after ttl.
func NewRegistry(ttl, cleanup time.Duration, newAgent func() *core.Agent) *Registry {
	return &Registry{
		cache:    cache.New(ttl, cleanup),
		newAgent: newAgent,
	}
}

// Create registers a fresh agent under a new id.
func (r *Registry) Create() (string, *core.Agent) {
	id := uuid.NewString()
	agent := r.newAgent()
	r.cache.Set(id, agent, cache.DefaultExpiration)
	return id, agent
}

// Get returns the agent for an id, if it exists and has not expired.
func (r *Registry) Get(id string) (*core.Agent, bool) {
	if x, found := r.cache.Get(id); found {
		return x.(*core.Agent), true
	}
	return nil, false
}

// Reset replaces the session under an existing id with a fresh one.  It
// reports false when the id is unknown.
func (r *Registry) Reset(id string) (*core.Agent, bool) {
	if _, found := r.cache.Get(id); !found {
		return nil, false
	}
	agent := r.newAgent()
	r.cache.Set(id, agent, cache.DefaultExpiration)
	return agent, true
}

// Delete removes a session.
func (r *Registry) Delete(id string) {
	r.cache.Delete(id)
}
