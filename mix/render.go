package mix

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
)

var _ beep.Streamer = (*Graph)(nil)

// Stream renders stereo frames (both channels equal) and never ends, so the
// graph can be handed to any beep sink. Rendering stops at every timer so
// callbacks see the clock at the frame they were due.
func (g *Graph) Stream(samples [][2]float64) (n int, ok bool) {
	for n < len(samples) {
		g.mu.Lock()
		fs := g.due()
		if len(fs) == 0 {
			k := g.framesUntilTimer(len(samples) - n)
			g.renderLocked(samples[n : n+k])
			n += k
		}
		g.mu.Unlock()

		for _, f := range fs {
			f()
		}
	}
	return n, true
}

func (g *Graph) Err() error {
	return nil
}

// Process fills a mono portaudio buffer.
func (g *Graph) Process(out []float32) {
	if cap(g.scratch) < len(out) {
		g.scratch = make([][2]float64, len(out))
	}
	buf := g.scratch[:len(out)]
	g.Stream(buf)
	for i := range out {
		out[i] = float32(clamp(buf[i][0]))
	}
}

// Render renders frames and returns one channel.
func (g *Graph) Render(frames int) []float64 {
	buf := make([][2]float64, frames)
	g.Stream(buf)
	out := make([]float64, frames)
	for i := range buf {
		out[i] = buf[i][0]
	}
	return out
}

// Format is the 16 bit stereo format of exported files.
func (g *Graph) Format() beep.Format {
	return beep.Format{
		SampleRate:  beep.SampleRate(g.sampleRate),
		NumChannels: 2,
		Precision:   2,
	}
}

// RunSilent drives the clock in real time without an output device,
// rendering frames at a time and handing each buffer to tap if it is not
// nil. It returns ctx.Err() once ctx is done.
func (g *Graph) RunSilent(ctx context.Context, frames int, tap func([][2]float64)) error {
	if frames <= 0 {
		frames = 512
	}
	period := time.Duration(float64(frames) / g.sampleRate * float64(time.Second))
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	buf := make([][2]float64, frames)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			g.Stream(buf)
			if tap != nil {
				tap(buf)
			}
		}
	}
}

// clipped keeps encoded samples in range.
type clipped struct {
	s beep.Streamer
}

func (c clipped) Stream(samples [][2]float64) (int, bool) {
	n, ok := c.s.Stream(samples)
	for i := 0; i < n; i++ {
		samples[i][0] = clamp(samples[i][0])
		samples[i][1] = clamp(samples[i][1])
	}
	return n, ok
}

func (c clipped) Err() error {
	return c.s.Err()
}

// Recorder collects rendered buffers, for example from RunSilent, so they
// can be analysed or written out afterwards.
type Recorder struct {
	mu  sync.Mutex
	buf *beep.Buffer
}

func NewRecorder(format beep.Format) *Recorder {
	return &Recorder{buf: beep.NewBuffer(format)}
}

// Record appends a copy of samples.
func (r *Recorder) Record(samples [][2]float64) {
	f := make(frames, len(samples))
	copy(f, samples)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf.Append(clipped{&f})
}

// Len is the number of recorded frames.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.Len()
}

// Duration is the recorded length.
func (r *Recorder) Duration() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.Format().SampleRate.D(r.buf.Len())
}

// Mono returns the first channel of everything recorded.
func (r *Recorder) Mono() []float64 {
	r.mu.Lock()
	s := r.buf.Streamer(0, r.buf.Len())
	r.mu.Unlock()

	var out []float64
	buf := make([][2]float64, 512)
	for {
		n, ok := s.Stream(buf)
		for i := 0; i < n; i++ {
			out = append(out, buf[i][0])
		}
		if !ok || n == 0 {
			return out
		}
	}
}

// WriteWAV encodes everything recorded into w.
func (r *Recorder) WriteWAV(w io.WriteSeeker) error {
	r.mu.Lock()
	s := r.buf.Streamer(0, r.buf.Len())
	format := r.buf.Format()
	r.mu.Unlock()

	if err := wav.Encode(w, s, format); err != nil {
		return fmt.Errorf("can't encode wav: %w", err)
	}
	return nil
}

// frames streams a slice once.
type frames [][2]float64

func (f *frames) Stream(samples [][2]float64) (int, bool) {
	if len(*f) == 0 {
		return 0, false
	}
	n := copy(samples, *f)
	*f = (*f)[n:]
	return n, true
}

func (f *frames) Err() error {
	return nil
}
