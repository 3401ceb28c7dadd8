package feed

import (
	"context"

	"github.com/docker/docker/api/types/container"
	dockerClient "github.com/docker/docker/client"

	"github.com/rileyhilliard/livecharts/internal/errors"
)

// containerLister is the part of the Engine API client Engine uses.
type containerLister interface {
	ContainerList(ctx context.Context, options container.ListOptions) ([]container.Summary, error)
}

// Engine enumerates containers through the Docker Engine API. Stats still
// come from a CLI streamer, whose text format the pipeline consumes.
type Engine struct {
	client containerLister
}

// NewEngine connects using DOCKER_HOST and friends from the environment.
func NewEngine() (*Engine, error) {
	cli, err := dockerClient.NewClientWithOpts(dockerClient.FromEnv, dockerClient.WithAPIVersionNegotiation())
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrFeed,
			"Couldn't create a Docker Engine client",
			"Check DOCKER_HOST or use source.enumerator: cli")
	}
	return &Engine{client: cli}, nil
}

// List returns running containers. Names are formatted as the CLI prints them.
func (e *Engine) List(ctx context.Context) ([]Identity, error) {
	summaries, err := e.client.ContainerList(ctx, container.ListOptions{})
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrFeed,
			"Couldn't list containers through the Engine API",
			"Is the docker daemon running?")
	}

	out := make([]Identity, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, Identity{ID: shortID(s.ID), Names: joinNames(s.Names)})
	}
	return out, nil
}

// shortID truncates an ID the way `docker ps` prints it.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
