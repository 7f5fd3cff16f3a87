package cron

import "context"

// Job is one scheduled task.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry holds jobs in registration order, one per name.
type Registry struct {
	jobs  []Job
	index map[string]int
}

// NewRegistry builds a registry preloaded with jobs. Nil jobs are skipped.
func NewRegistry(jobs ...Job) *Registry {
	registry := &Registry{index: map[string]int{}}
	for _, job := range jobs {
		registry.Register(job)
	}
	return registry
}

// Register adds job. A job reusing a registered name replaces the earlier
// one in place so a cycle never runs the same name twice.
func (r *Registry) Register(job Job) {
	if job == nil {
		return
	}
	if r.index == nil {
		r.index = map[string]int{}
	}
	if i, ok := r.index[job.Name()]; ok {
		r.jobs[i] = job
		return
	}
	r.index[job.Name()] = len(r.jobs)
	r.jobs = append(r.jobs, job)
}

// Jobs returns a copy of the registered jobs.
func (r *Registry) Jobs() []Job {
	jobs := make([]Job, len(r.jobs))
	copy(jobs, r.jobs)
	return jobs
}

// Names lists job names in run order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.jobs))
	for _, job := range r.jobs {
		names = append(names, job.Name())
	}
	return names
}
