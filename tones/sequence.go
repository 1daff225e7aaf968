package tones

import "context"

// SequenceOptions configures PlaySequence.
type SequenceOptions struct {
	// Copy plays duplicates, leaving the given sounds untouched.
	Copy bool
	// Speed is handed to ModifySpeed on every played sound; 0 leaves them
	// alone.
	Speed float64
	// Sound overrides the options of copies and of sounds built by
	// PlayFrequenciesSequence.
	Sound []Option
	// Before, if set, is called with the index of each sound right before
	// it plays.
	Before func(i int)
}

// PlaySequence plays sounds one after the other: each one starts only when
// the previous one's Play channel has closed, which for a held sound is
// right away. Copies and speed changes are applied before it returns.
//
// The returned channel yields nil once the last sound has finished its
// audible part, or ctx.Err() if ctx ends first, and is then closed. Copies
// that never got to play are removed on cancellation.
func (c *Context) PlaySequence(ctx context.Context, sounds []*Sound, opts SequenceOptions) <-chan error {
	if opts.Copy {
		copies := make([]*Sound, len(sounds))
		for i, s := range sounds {
			copies[i] = s.Duplicate(opts.Sound...)
		}
		sounds = copies
	}
	return c.playSequence(ctx, sounds, opts, opts.Copy)
}

// playSequence plays sounds in order. Unless owned, sounds left unplayed
// by a cancellation stay registered.
func (c *Context) playSequence(ctx context.Context, sounds []*Sound, opts SequenceOptions, owned bool) <-chan error {
	if opts.Speed != 0 {
		for _, s := range sounds {
			s.ModifySpeed(opts.Speed)
		}
	}

	errc := make(chan error, 1)
	go func() {
		defer close(errc)

		cancel := func(rest []*Sound) {
			if owned {
				for _, s := range rest {
					s.Remove()
				}
			}
			errc <- ctx.Err()
		}
		for i, s := range sounds {
			select {
			case <-ctx.Done():
				cancel(sounds[i:])
				return
			default:
			}

			if opts.Before != nil {
				opts.Before(i)
			}
			select {
			case <-s.Play():
			case <-ctx.Done():
				cancel(sounds[i+1:])
				return
			}
		}
		errc <- nil
	}()
	return errc
}

// PlayFrequenciesSequence builds one sound per frequency and plays them
// with PlaySequence. Sounds that never got to play are removed on
// cancellation.
func (c *Context) PlayFrequenciesSequence(ctx context.Context, frequencies []float64, opts SequenceOptions) <-chan error {
	sounds := make([]*Sound, len(frequencies))
	for i, f := range frequencies {
		sounds[i] = c.CreateSound(f, opts.Sound...)
	}
	opts.Copy = false
	return c.playSequence(ctx, sounds, opts, true)
}
