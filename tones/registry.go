package tones

import "sync"

// Registry is the ordered set of live sounds of a Context. It never calls
// into a Sound while holding its lock.
type Registry struct {
	sync.Mutex
	sounds []*Sound
}

// Add appends s unless it is already present.
func (r *Registry) Add(s *Sound) bool {
	r.Lock()
	defer r.Unlock()

	for _, x := range r.sounds {
		if x == s {
			return false
		}
	}
	r.sounds = append(r.sounds, s)
	return true
}

// Remove takes s out, keeping the order of the rest.
func (r *Registry) Remove(s *Sound) bool {
	r.Lock()
	defer r.Unlock()

	for i, x := range r.sounds {
		if x == s {
			copy(r.sounds[i:], r.sounds[i+1:])
			r.sounds[len(r.sounds)-1] = nil
			r.sounds = r.sounds[:len(r.sounds)-1]
			return true
		}
	}
	return false
}

func (r *Registry) Contains(s *Sound) bool {
	r.Lock()
	defer r.Unlock()

	for _, x := range r.sounds {
		if x == s {
			return true
		}
	}
	return false
}

func (r *Registry) Len() int {
	r.Lock()
	defer r.Unlock()
	return len(r.sounds)
}

// Sounds returns a copy in insertion order.
func (r *Registry) Sounds() []*Sound {
	r.Lock()
	defer r.Unlock()

	out := make([]*Sound, len(r.sounds))
	copy(out, r.sounds)
	return out
}

// FindLast returns the most recently added sound matching pred, or nil.
func (r *Registry) FindLast(pred func(*Sound) bool) *Sound {
	sounds := r.Sounds()
	for i := len(sounds) - 1; i >= 0; i-- {
		if pred(sounds[i]) {
			return sounds[i]
		}
	}
	return nil
}

// StopAll stops every sound and returns how many were stopped.
func (r *Registry) StopAll() int {
	n := 0
	for _, s := range r.Sounds() {
		if s.Stop() != nil {
			n++
		}
	}
	return n
}

// FadeAll fades out every playing sound.
func (r *Registry) FadeAll() []<-chan struct{} {
	var done []<-chan struct{}
	for _, s := range r.Sounds() {
		if s.IsPlaying() {
			done = append(done, s.FadeOut())
		}
	}
	return done
}
