// Package feed reaches the container runtime. Enumerators list running
// containers; streamers deliver `docker stats` output one batch per refresh.
// Three sources exist: the local docker CLI, the docker CLI over SSH, and the
// Engine API for enumeration.
package feed

import (
	"context"
	"strings"

	"github.com/rileyhilliard/livecharts/internal/registry"
)

// Identity is one `docker ps --format '{{json .}}'` record.
type Identity struct {
	ID    string `json:"ID"`
	Names string `json:"Names"`
}

// Enumerator lists running containers.
type Enumerator interface {
	List(ctx context.Context) ([]Identity, error)
}

// Streamer opens a stats subscription.
type Streamer interface {
	Subscribe(ctx context.Context) (Subscription, error)
}

// Subscription delivers raw stats batches until closed. Transport failures
// arrive on Errors; both channels are closed when the subscription ends.
type Subscription interface {
	Batches() <-chan []byte
	Errors() <-chan error
	Close() error
}

// ToRegistry converts identities into registry identities.
func ToRegistry(ids []Identity) []registry.Identity {
	out := make([]registry.Identity, len(ids))
	for i, id := range ids {
		out[i] = registry.Identity{ID: id.ID, Name: id.Names}
	}
	return out
}

// Names returns the Names field of every identity.
func Names(ids []Identity) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.Names
	}
	return out
}

// joinNames formats Engine API names ("/web") the way the CLI prints them.
func joinNames(names []string) string {
	trimmed := make([]string, len(names))
	for i, n := range names {
		trimmed[i] = strings.TrimPrefix(n, "/")
	}
	return strings.Join(trimmed, ",")
}
