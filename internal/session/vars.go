// internal/session/vars.go
package session

import "sync"

// Vars is the variable bag shared by every sampler of one test thread.
// All access goes through one mutex; the connection slot reuses it.
type Vars struct {
	mu sync.Mutex
	m  map[string]any
}

func NewVars() *Vars {
	return &Vars{m: make(map[string]any)}
}

func (v *Vars) Get(key string) (any, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	val, ok := v.m[key]
	return val, ok
}

func (v *Vars) Put(key string, val any) {
	v.mu.Lock()
	v.m[key] = val
	v.mu.Unlock()
}

func (v *Vars) Remove(key string) {
	v.mu.Lock()
	delete(v.m, key)
	v.mu.Unlock()
}

// do runs f inside the bag's critical section.
func (v *Vars) do(f func(m map[string]any)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	f(v.m)
}
