package supervisor

import (
	"os/exec"
	"sort"
	"sync"
	"time"
)

// Key identifies one job slot: a script running in a particular UI tab. Two
// jobs with the same key are mutually exclusive at any instant.
type Key struct {
	TabID  string
	Script string
}

func (k Key) String() string {
	return k.TabID + ":" + k.Script
}

// Job is one running script invocation. The registry owns the entry from
// registration until removal; the process handle itself is shared with the
// monitor goroutine that spawned it.
type Job struct {
	Key       Key
	StartedAt time.Time

	cmd *exec.Cmd
}

// Registry is the single source of truth for running jobs. All methods hold
// the lock only for map access; signalling and waiting happen outside it.
type Registry struct {
	mu   sync.Mutex
	jobs map[Key]*Job
}

func NewRegistry() *Registry {
	return &Registry{jobs: make(map[Key]*Job)}
}

// TryRegister adds the job under its key. It reports false, registering
// nothing, when the key is already taken; the caller remains responsible for
// the process handle in that case.
func (r *Registry) TryRegister(job *Job) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.jobs[job.Key]; exists {
		return false
	}
	r.jobs[job.Key] = job
	return true
}

// Remove deletes and returns the job registered under key, if any.
func (r *Registry) Remove(key Key) (*Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[key]
	if ok {
		delete(r.jobs, key)
	}
	return job, ok
}

// removeJob deletes the entry for job's key only if it still refers to this
// exact registration. Monitors use it so that a manual stop followed by a
// fresh run under the same key is never evicted by a stale monitor.
func (r *Registry) removeJob(job *Job) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.jobs[job.Key]
	if !ok || current != job {
		return false
	}
	delete(r.jobs, job.Key)
	return true
}

func (r *Registry) Contains(key Key) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.jobs[key]
	return ok
}

// Keys returns the registered keys in stable order.
func (r *Registry) Keys() []Key {
	r.mu.Lock()
	keys := make([]Key, 0, len(r.jobs))
	for key := range r.jobs {
		keys = append(keys, key)
	}
	r.mu.Unlock()

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].TabID != keys[j].TabID {
			return keys[i].TabID < keys[j].TabID
		}
		return keys[i].Script < keys[j].Script
	})
	return keys
}

// Terminate removes the entry for key and force-kills its process. It
// reports false when the key is absent. The kill signal is sent after the
// lock is released.
func (r *Registry) Terminate(key Key) bool {
	job, ok := r.Remove(key)
	if !ok {
		return false
	}
	job.kill()
	return true
}
