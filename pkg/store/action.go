package store

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/vango-dev/depot/pkg/reactive"
)

// ActionContext describes one action invocation to OnAction listeners.
// Listeners run before the action and may register After and OnError
// callbacks for that invocation only.
type ActionContext struct {
	Name  string
	Store *Store
	Args  []any

	ctx context.Context

	mu      sync.Mutex
	after   []func(result any)
	onError []func(err error)
}

// After registers fn to run with the result when the action succeeds.
func (ac *ActionContext) After(fn func(result any)) {
	ac.mu.Lock()
	ac.after = append(ac.after, fn)
	ac.mu.Unlock()
}

// OnError registers fn to run with the error when the action fails. A panic
// is reported as a *PanicError.
func (ac *ActionContext) OnError(fn func(err error)) {
	ac.mu.Lock()
	ac.onError = append(ac.onError, fn)
	ac.mu.Unlock()
}

// Context returns the context the action will run with.
func (ac *ActionContext) Context() context.Context {
	return ac.ctx
}

// SetContext replaces the context the action runs with. Tracing listeners
// use it to hand a span context to the action.
func (ac *ActionContext) SetContext(ctx context.Context) {
	if ctx != nil {
		ac.ctx = ctx
	}
}

func (ac *ActionContext) succeed(result any) {
	ac.mu.Lock()
	callbacks := append([]func(any){}, ac.after...)
	ac.mu.Unlock()
	for _, fn := range callbacks {
		fn(result)
	}
}

func (ac *ActionContext) fail(err error) {
	ac.mu.Lock()
	callbacks := append([]func(error){}, ac.onError...)
	ac.mu.Unlock()
	for _, fn := range callbacks {
		fn(err)
	}
}

// ActionListener is called before every action of a store.
type ActionListener func(ac *ActionContext)

type actionListener struct {
	cb     ActionListener
	active atomic.Bool
}

// OnAction registers cb for every action invocation and returns a function
// that removes it. Pass true to keep it alive past the current owner scope,
// as with Detached.
func (s *Store) OnAction(cb ActionListener, detached ...bool) func() {
	l := &actionListener{cb: cb}
	l.active.Store(true)

	if s.disposed.Load() {
		return func() {}
	}

	s.listenersMu.Lock()
	s.actionListeners = append(s.actionListeners, l)
	s.listenersMu.Unlock()

	remove := func() {
		if !l.active.Swap(false) {
			return
		}
		s.listenersMu.Lock()
		defer s.listenersMu.Unlock()
		for i, other := range s.actionListeners {
			if other == l {
				s.actionListeners = append(s.actionListeners[:i], s.actionListeners[i+1:]...)
				return
			}
		}
	}

	if len(detached) == 0 || !detached[0] {
		if owner := reactive.CurrentOwner(); owner != nil {
			owner.OnCleanup(remove)
		}
	}
	return remove
}

// Call invokes the named action. Listeners registered with OnAction run
// first; the action's error, if any, is returned unchanged.
func (s *Store) Call(ctx context.Context, name string, args ...any) (any, error) {
	action, ok := s.actions[name]
	if !ok {
		if name == "$reset" && s.reset != nil {
			return nil, s.Reset()
		}
		return nil, unknownAction(s.id, name)
	}
	return s.invoke(ctx, name, action, args)
}

// invoke runs action with the listener lifecycle around it.
func (s *Store) invoke(ctx context.Context, name string, action Action, args []any) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	ac := &ActionContext{Name: name, Store: s, Args: args, ctx: ctx}
	for _, l := range s.snapshotActionListeners() {
		if l.active.Load() {
			l.cb(ac)
		}
	}

	result, err := func() (any, error) {
		defer func() {
			if rec := recover(); rec != nil {
				ac.fail(&PanicError{Action: name, Value: rec})
				panic(rec)
			}
		}()
		return action(ac.ctx, s, args...)
	}()
	if err != nil {
		ac.fail(err)
		return result, err
	}
	ac.succeed(result)
	return result, nil
}

func (s *Store) snapshotActionListeners() []*actionListener {
	if s.disposed.Load() {
		return nil
	}
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	listeners := make([]*actionListener, len(s.actionListeners))
	copy(listeners, s.actionListeners)
	return listeners
}
