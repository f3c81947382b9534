// Package memory is an in-process hosting platform. Writes become visible
// after a configurable propagation delay, and failures can be injected per
// field.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ralt/metasync/internal/models"
	"github.com/ralt/metasync/internal/remote"
	"github.com/sirupsen/logrus"
)

type pendingWrite struct {
	update    models.FieldUpdate
	visibleAt time.Time
}

type repository struct {
	state   models.RemoteMetadata
	pending []pendingWrite
}

type failure struct {
	err       error
	remaining int // negative means forever
}

// Platform implements remote.Platform in memory
type Platform struct {
	mu           sync.Mutex
	repos        map[string]*repository
	delay        time.Duration
	writeLatency time.Duration
	failures     map[models.Field]*failure
	fetchErr     *failure
	now          func() time.Time

	fetchCalls  int
	writeCalls  int
	inflight    int
	maxInflight int
}

var _ remote.Platform = (*Platform)(nil)

// New creates an empty platform
func New() *Platform {
	return &Platform{
		repos:    make(map[string]*repository),
		failures: make(map[models.Field]*failure),
		now:      time.Now,
	}
}

// Name implements remote.Platform
func (p *Platform) Name() string {
	return "memory"
}

// Seed adds or replaces a repository
func (p *Platform) Seed(meta models.RemoteMetadata) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if meta.Topics == nil {
		meta.Topics = models.NewTopicSet()
	}
	p.repos[meta.Identifier] = &repository{state: meta}
}

// SetPropagationDelay makes writes visible to FetchMetadata only after d
func (p *Platform) SetPropagationDelay(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.delay = d
}

// SetWriteLatency makes every UpdateField call take d
func (p *Platform) SetWriteLatency(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writeLatency = d
}

// FailField makes the next times writes of field fail with err. A negative
// times fails forever.
func (p *Platform) FailField(field models.Field, err error, times int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures[field] = &failure{err: err, remaining: times}
}

// FailFetch makes the next times fetches fail with err
func (p *Platform) FailFetch(err error, times int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fetchErr = &failure{err: err, remaining: times}
}

// FetchCalls returns the number of FetchMetadata calls
func (p *Platform) FetchCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fetchCalls
}

// WriteCalls returns the number of UpdateField calls
func (p *Platform) WriteCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writeCalls
}

// MaxConcurrentWrites returns the highest number of overlapping UpdateField calls
func (p *Platform) MaxConcurrentWrites() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.maxInflight
}

// Snapshot returns the state including writes that have not propagated yet
func (p *Platform) Snapshot(identifier string) (models.RemoteMetadata, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	repo, ok := p.repos[identifier]
	if !ok {
		return models.RemoteMetadata{}, false
	}
	state := copyState(repo.state)
	for _, w := range repo.pending {
		applyUpdate(&state, w.update)
	}
	return state, true
}

// FetchMetadata implements remote.Platform
func (p *Platform) FetchMetadata(ctx context.Context, identifier string) (*models.RemoteMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, models.NewError(models.ErrRemoteUnavailable, "", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.fetchCalls++

	if err := take(p.fetchErr); err != nil {
		return nil, err
	}

	repo, ok := p.repos[identifier]
	if !ok {
		return nil, models.Errorf(models.ErrRemoteNotFound, "repository %s not found", identifier)
	}
	p.propagate(repo)

	state := copyState(repo.state)
	return &state, nil
}

// UpdateField implements remote.Platform
func (p *Platform) UpdateField(ctx context.Context, identifier string, update models.FieldUpdate) error {
	p.mu.Lock()
	p.writeCalls++
	p.inflight++
	if p.inflight > p.maxInflight {
		p.maxInflight = p.inflight
	}
	latency := p.writeLatency
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.inflight--
		p.mu.Unlock()
	}()

	if latency > 0 {
		select {
		case <-time.After(latency):
		case <-ctx.Done():
			return models.NewError(models.ErrRemoteUnavailable, update.Field, ctx.Err())
		}
	}
	if err := ctx.Err(); err != nil {
		return models.NewError(models.ErrRemoteUnavailable, update.Field, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := take(p.failures[update.Field]); err != nil {
		return err
	}

	repo, ok := p.repos[identifier]
	if !ok {
		return models.Errorf(models.ErrRemoteNotFound, "repository %s not found", identifier)
	}

	logrus.WithFields(logrus.Fields{
		"repository": identifier,
		"field":      update.Field,
	}).Debug("Recording write")

	repo.pending = append(repo.pending, pendingWrite{
		update:    update,
		visibleAt: p.now().Add(p.delay),
	})
	p.propagate(repo)
	return nil
}

// propagate folds writes whose delay has elapsed into the visible state
func (p *Platform) propagate(repo *repository) {
	now := p.now()
	kept := repo.pending[:0]
	for _, w := range repo.pending {
		if now.Before(w.visibleAt) {
			kept = append(kept, w)
			continue
		}
		applyUpdate(&repo.state, w.update)
	}
	repo.pending = kept
}

func applyUpdate(state *models.RemoteMetadata, update models.FieldUpdate) {
	switch update.Field {
	case models.FieldHomepage:
		state.Homepage = update.Value
	case models.FieldDescription:
		state.Description = update.Value
	case models.FieldTopics:
		state.Topics.Add(update.AddTopics...)
	}
}

func copyState(s models.RemoteMetadata) models.RemoteMetadata {
	out := s
	out.Topics = models.NewTopicSet(s.Topics.Sorted()...)
	return out
}

func take(f *failure) error {
	if f == nil || f.remaining == 0 {
		return nil
	}
	if f.remaining > 0 {
		f.remaining--
	}
	if f.err == nil {
		return fmt.Errorf("injected failure")
	}
	return f.err
}
