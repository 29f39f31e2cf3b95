// Package editor decouples the session from the third-party rich-text widget
// the host embeds. The session only ever talks to an [Adapter] on its state
// transition edges; it never reaches into the widget's global state.
package editor

import (
	"fmt"
	"sync"
)

// Conventional surface identifiers. The body surface is active exactly while
// the session is in edit mode; the comment surface is toggled by the user
// independently of the mode.
const (
	BodyTarget    = "documentBody"
	CommentTarget = "timelineComment"
)

// Adapter mounts and unmounts editing surfaces. Mount binds onChange, which
// streams the edited text back on every change event. Unmount must be
// idempotent: the session calls it on teardown paths that may overlap.
type Adapter interface {
	Mount(targetID string, onChange func(text string)) error
	Unmount(targetID string) error
}

// Nop is the adapter used when the embedder supplies none. All operations
// succeed and do nothing.
type Nop struct{}

func (Nop) Mount(string, func(string)) error { return nil }
func (Nop) Unmount(string) error             { return nil }

// Registry is an Adapter tracking which surfaces are mounted and holding
// their change callbacks. Embedders bridge a real widget by observing mounts
// and pushing its change events through [Registry.Push]; tests use it to
// script keystrokes.
type Registry struct {
	lock    sync.Mutex
	mounted map[string]func(string)

	// Mounts and Unmounts record every call in order, for asserting that
	// teardown happens before the transition that triggered it completes.
	Mounts   []string
	Unmounts []string
}

func NewRegistry() *Registry {
	return &Registry{mounted: make(map[string]func(string))}
}

func (r *Registry) Mount(targetID string, onChange func(text string)) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.mounted[targetID]; ok {
		return fmt.Errorf("surface already mounted: %s", targetID)
	}
	r.mounted[targetID] = onChange
	r.Mounts = append(r.Mounts, targetID)

	return nil
}

func (r *Registry) Unmount(targetID string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	delete(r.mounted, targetID)
	r.Unmounts = append(r.Unmounts, targetID)

	return nil
}

// Mounted reports whether the surface is currently mounted.
func (r *Registry) Mounted(targetID string) bool {
	r.lock.Lock()
	defer r.lock.Unlock()

	_, ok := r.mounted[targetID]
	return ok
}

// Push delivers a change event to the surface's callback, as the underlying
// widget would on a keystroke. Events for unmounted surfaces are ignored.
func (r *Registry) Push(targetID, text string) {
	r.lock.Lock()
	onChange := r.mounted[targetID]
	r.lock.Unlock()

	if onChange != nil {
		onChange(text)
	}
}
