package cron

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubJob struct {
	name string
}

func (s *stubJob) Name() string              { return s.name }
func (s *stubJob) Run(context.Context) error { return nil }

func TestRegistryKeepsRegistrationOrder(t *testing.T) {
	pull := &stubJob{name: "remote-pull"}
	stats := &stubJob{name: "outbox-stats"}
	registry := NewRegistry(pull, nil, stats)

	jobs := registry.Jobs()
	require.Len(t, jobs, 2)
	assert.Same(t, pull, jobs[0])
	assert.Same(t, stats, jobs[1])
	assert.Equal(t, []string{"remote-pull", "outbox-stats"}, registry.Names())

	jobs[0] = nil
	assert.NotNil(t, registry.Jobs()[0], "internal slice leaked")
}

func TestRegistryReplacesDuplicateNames(t *testing.T) {
	first := &stubJob{name: "outbox-retention"}
	second := &stubJob{name: "outbox-retention"}
	registry := NewRegistry(first, &stubJob{name: "remote-pull"})
	registry.Register(second)

	jobs := registry.Jobs()
	require.Len(t, jobs, 2)
	assert.Same(t, second, jobs[0])
}

func TestZeroRegistryAcceptsJobs(t *testing.T) {
	var registry Registry
	registry.Register(&stubJob{name: "remote-pull"})
	assert.Equal(t, []string{"remote-pull"}, registry.Names())
}
