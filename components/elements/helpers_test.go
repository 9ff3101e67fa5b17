package elements

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

type recordingRuntime struct {
	mu        sync.Mutex
	calls     []string
	tokens    []string
	created   int
	renderErr error
	createErr error
	last      *stubInstance
	portfolio []PortfolioQuery
}

func (r *recordingRuntime) SetAuthToken(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens = append(r.tokens, token)
	r.calls = append(r.calls, "token:"+token)
}

func (r *recordingRuntime) SingleImpact(impact ImpactType, portfolio PortfolioQuery, _ *WidgetOptions) (Instance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.created++
	inst := &stubInstance{runtime: r, id: fmt.Sprintf("i%d", r.created), renderErr: r.renderErr}
	r.calls = append(r.calls, "create:"+inst.id+":"+string(impact))
	r.portfolio = append(r.portfolio, portfolio)
	r.last = inst
	return inst, nil
}

func (r *recordingRuntime) record(call string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

func (r *recordingRuntime) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	copy(out, r.calls)
	return out
}

type stubInstance struct {
	runtime   *recordingRuntime
	id        string
	renderErr error
	destroys  int
}

func (i *stubInstance) ID() string { return i.id }

func (i *stubInstance) Render(c *Container) error {
	i.runtime.record("render:" + i.id + ":" + c.ID())
	return i.renderErr
}

func (i *stubInstance) Destroy() {
	i.destroys++
	i.runtime.record("destroy:" + i.id)
}

type stubSource struct {
	mu    sync.Mutex
	token string
	err   error
	calls int
	block chan struct{}
}

func (s *stubSource) UserToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	s.calls++
	block := s.block
	s.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
		}
	}
	return s.token, s.err
}

func (s *stubSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type recordingNotifier struct {
	mu    sync.Mutex
	notes []Notification
}

func (n *recordingNotifier) Notify(_ context.Context, note Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, note)
}

func (n *recordingNotifier) Notes() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Notification, len(n.notes))
	copy(out, n.notes)
	return out
}

type recordingHook struct {
	mu     sync.Mutex
	events []LifecycleEvent
	err    error
}

func (h *recordingHook) ElementChanged(_ context.Context, event LifecycleEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	return h.err
}

var errBoom = errors.New("boom")

func weightPtr(v float64) *float64 { return &v }
