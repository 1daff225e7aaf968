package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hako/durafmt"

	"git.disy.net/goetz/overtones/theory"
	"git.disy.net/goetz/overtones/tones"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrBadArgument    = errors.New("bad argument")
)

const (
	minFundamental = 20
	maxFundamental = 2000

	// grouped notes are otherwise played this far apart, in seconds
	noteGap = 0.25

	// key 0 is A2
	keyA2 = theory.MIDIA4 - 24
)

var shortUnits, _ = durafmt.DefaultUnitsCoder.Decode("y:yrs,wk:wks,d:d,h:h,m:m,s:s,ms:ms,us:us")

// recordedNote is an overtone played while recording, with the fundamental
// it was played over.
type recordedNote struct {
	overtone  int
	frequency float64
	base      float64
	opts      tones.SoundOptions
}

type trigger struct {
	regex   *regexp.Regexp
	command string
}

// player runs command lines against a tones context.
type player struct {
	tones *tones.Context

	outMu sync.Mutex
	out   io.Writer

	mu       sync.Mutex
	cfg      DynamicConfig
	triggers []trigger
	seqCtx   context.Context
	cancel   context.CancelFunc

	recording bool
	recorded  []recordedNote
	current   int
}

func newPlayer(tc *tones.Context, cfg DynamicConfig, out io.Writer) (*player, error) {
	p := &player{tones: tc, out: out}
	p.seqCtx, p.cancel = context.WithCancel(context.Background())
	if err := p.apply(cfg); err != nil {
		return nil, err
	}
	return p, nil
}

// apply switches to cfg. On error nothing is changed.
func (p *player) apply(cfg DynamicConfig) error {
	ts := make([]trigger, 0, len(cfg.Triggers))
	for _, t := range cfg.Triggers {
		r, err := regexp.Compile(t.Regex)
		if err != nil {
			return fmt.Errorf("can't compile trigger %q: %w", t.Regex, err)
		}
		ts = append(ts, trigger{r, t.Command})
	}

	p.mu.Lock()
	p.cfg = cfg
	p.triggers = ts
	p.mu.Unlock()

	p.tones.SetDefaults(cfg.Sound)
	p.tones.SetVolume(cfg.MasterVolume)
	return nil
}

func (p *player) config() DynamicConfig {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cfg
}

func (p *player) printf(format string, args ...interface{}) {
	p.outMu.Lock()
	defer p.outMu.Unlock()
	fmt.Fprintf(p.out, format+"\n", args...)
}

func (p *player) firstMatch(line string) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, t := range p.triggers {
		if t.regex.MatchString(line) {
			return t.command
		}
	}
	return ""
}

// handle runs line as a command. Other lines are echoed and run the
// command of the first trigger they match, if any.
func (p *player) handle(line string) error {
	err := p.exec(line)
	if !errors.Is(err, ErrUnknownCommand) {
		return err
	}
	p.printf("%s", line)
	cmd := p.firstMatch(line)
	if cmd == "" {
		return nil
	}
	return p.exec(cmd)
}

func (p *player) exec(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return fmt.Errorf("%w: empty line", ErrUnknownCommand)
	}
	name, args := fields[0], fields[1:]

	switch name {
	case "play", "hold":
		f, err := frequencyArgs(args, 1)
		if err != nil {
			return err
		}
		p.play(f[0], name == "hold")
	case "overtone":
		k, err := intArg(args)
		if err != nil {
			return err
		}
		p.overtone(k)
	case "spiral":
		k, err := intArg(args)
		if err != nil {
			return err
		}
		p.spiral(k)
	case "interval":
		f, err := frequencyArgs(args, 2)
		if err != nil {
			return err
		}
		p.interval(f[0], f[1])
	case "axis":
		k, err := intArg(args)
		if err != nil {
			return err
		}
		p.axis(k)
	case "seq":
		f, err := frequencyArgs(args, -1)
		if err != nil {
			return err
		}
		p.sequence(f)
	case "fade":
		p.printf("fading %d sounds", len(p.tones.FadeAll()))
	case "stop":
		p.stop()
	case "base":
		f, err := frequencyArgs(args, 1)
		if err != nil {
			return err
		}
		p.setBase(f[0], false)
	case "rebase":
		k, err := intArg(args)
		if err != nil {
			return err
		}
		p.rebase(k)
	case "key":
		return p.key(args)
	case "record":
		return p.record(args)
	case "step":
		if len(args) != 1 {
			return fmt.Errorf("%w: expected one step, got %d", ErrBadArgument, len(args))
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBadArgument, err)
		}
		return p.step(n)
	case "replay":
		p.mu.Lock()
		notes := append([]recordedNote(nil), p.recorded...)
		p.mu.Unlock()
		if len(notes) == 0 {
			p.printf("nothing recorded")
			return nil
		}
		p.replay(notes)
	case "volume":
		v, err := floatArgs(args, 1)
		if err != nil {
			return err
		}
		if v[0] < 0 || v[0] > 100 {
			return fmt.Errorf("%w: volume must be within 0-100, was: %v", ErrBadArgument, v[0])
		}
		p.tones.SetVolume(v[0] / 100)
		p.tones.PlayFrequency(p.config().Fundamental)
	case "note":
		f, err := frequencyArgs(args, 1)
		if err != nil {
			return err
		}
		p.note(f[0])
	case "list":
		p.list()
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	return nil
}

func floatArgs(args []string, n int) ([]float64, error) {
	if n >= 0 && len(args) != n || len(args) == 0 {
		return nil, fmt.Errorf("%w: wrong number of arguments: %d", ErrBadArgument, len(args))
	}
	out := make([]float64, len(args))
	for i, a := range args {
		f, err := strconv.ParseFloat(strings.TrimSuffix(a, ","), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadArgument, err)
		}
		out[i] = f
	}
	return out, nil
}

func frequencyArgs(args []string, n int) ([]float64, error) {
	fs, err := floatArgs(args, n)
	if err != nil {
		return nil, err
	}
	for _, f := range fs {
		if f <= 0 || math.IsInf(f, 0) || math.IsNaN(f) {
			return nil, fmt.Errorf("%w: frequency must be positive, was: %v", ErrBadArgument, f)
		}
	}
	return fs, nil
}

func intArg(args []string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("%w: expected one number, got %d", ErrBadArgument, len(args))
	}
	k, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBadArgument, err)
	}
	if k < 1 {
		return 0, fmt.Errorf("%w: overtone must be at least 1, was: %d", ErrBadArgument, k)
	}
	return k, nil
}

// describe names the equal tempered note closest to f.
func (p *player) describe(f float64) string {
	n, err := theory.NoteDetails(f, p.config().Tonic)
	if err != nil {
		// the tonic is checked when the config is read
		n, _ = theory.NoteDetails(f, "C")
	}
	return fmt.Sprintf("%.2fHz %s%d %+d cents", f, n.Name, n.Octave, n.CentsDifference)
}

func (p *player) noteName(f float64) string {
	n, err := theory.NoteDetails(f, p.config().Tonic)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%s%d", n.Name, n.Octave)
}

func (p *player) play(f float64, held bool) *tones.Sound {
	var opts []tones.Option
	if held {
		opts = append(opts, tones.Held())
	}
	s := p.tones.CreateSound(f, opts...)
	s.SetName(p.noteName(f))
	s.Play()
	p.printf("%s", p.describe(f))
	return s
}

// describeInterval reports the interval from a up to b, both moved into
// the same octave.
func (p *player) describeInterval(a theory.Pitched, b *tones.Sound) string {
	r := b.IntervalRatio(a, true).Improper()
	cents := b.IntervalInCents(a, true)
	if cents < 0 {
		cents = -cents
	}
	return fmt.Sprintf("%s %d/%d %d cents", theory.IntervalName(r), r.Numerator, r.Denominator, cents)
}

// overtone plays partial k of the fundamental. With sustain the partial is
// held, and playing a held partial again fades it out. While recording,
// every partial played is added to the recording.
func (p *player) overtone(k int) {
	cfg := p.config()
	f := float64(k) * cfg.Fundamental

	if cfg.Sustain {
		playing := p.tones.Registry().FindLast(func(s *tones.Sound) bool {
			return s.FromClick() && s.IsPlaying() && s.Envelope().Values().Held() && s.Name() == overtoneName(k)
		})
		if playing != nil {
			playing.FadeOut()
			p.printf("fading overtone %d", k)
			return
		}
	}

	last := p.tones.Registry().FindLast(func(s *tones.Sound) bool { return s.IsPlaying() })

	s := p.tones.CreateSound(f, tones.Weighed(true))
	s.SetFromClick(true)
	s.SetName(overtoneName(k))
	if cfg.OctaveReduction && f != cfg.Fundamental {
		s.ReduceToSameOctaveAs(theory.Hz(cfg.Fundamental), false)
	}
	p.mu.Lock()
	if p.recording {
		p.recorded = append(p.recorded, recordedNote{
			overtone:  k,
			frequency: s.Frequency(),
			base:      cfg.Fundamental,
			opts:      s.Options(),
		})
	}
	p.mu.Unlock()
	if cfg.Sustain {
		if _, err := s.Envelope().SetProperty(tones.Sustain, -1); err != nil {
			log.Printf("can't hold overtone %d: %v", k, err)
		}
	}
	s.Play()

	if cfg.Sustain && last != nil {
		p.printf("overtone %d: %s, %s", k, p.describe(s.Frequency()), p.describeInterval(last, s))
		return
	}
	p.printf("overtone %d: %s", k, p.describe(s.Frequency()))
}

func overtoneName(k int) string {
	return "overtone " + strconv.Itoa(k)
}

// interval plays a and b, together or one after the other, and reports
// the interval between them.
func (p *player) interval(a, b float64) {
	cfg := p.config()
	sa := p.tones.CreateSound(a)
	sb := p.tones.CreateSound(b)
	sa.SetName(p.noteName(a))
	sb.SetName(p.noteName(b))

	sa.Play()
	if cfg.GroupNotes {
		sb.Play()
	} else {
		p.tones.Graph().AfterFunc(noteGap, func() { sb.Play() })
	}
	p.printf("%s", p.describeInterval(sa, sb))
}

// spiral plays partials k and k+1 of the fundamental. With octave
// reduction partial k never lands on the octave above the fundamental.
func (p *player) spiral(k int) {
	cfg := p.config()
	base := theory.Hz(cfg.Fundamental)
	first := p.tones.CreateSound(float64(k)*cfg.Fundamental, tones.Weighed(true))
	second := p.tones.CreateSound(float64(k+1)*cfg.Fundamental, tones.Weighed(true))
	first.SetName(overtoneName(k))
	second.SetName(overtoneName(k + 1))
	if cfg.OctaveReduction {
		first.ReduceToSameOctaveAs(base, true)
		second.ReduceToSameOctaveAs(base, false)
	}

	first.Play()
	if cfg.GroupNotes {
		second.Play()
	} else {
		p.tones.Graph().AfterFunc(noteGap, func() { second.Play() })
	}
	p.printf("spiral %d: %s", k, p.describeInterval(first, second))
}

// axis plays the fundamental and then partial k moved into the
// fundamental's octave, or every octave of partial k among the overtones.
func (p *player) axis(k int) {
	cfg := p.config()
	base := theory.Hz(cfg.Fundamental)
	p.tones.PlayFrequency(cfg.Fundamental)

	tone := p.tones.CreateSound(float64(k) * cfg.Fundamental).ReduceToSameOctaveAs(base, false)
	p.printf("axis %d: %s", k, p.describeInterval(base, tone))

	if cfg.OctaveReduction {
		if cfg.GroupNotes {
			tone.Play()
		} else {
			p.tones.Graph().AfterFunc(noteGap, func() { tone.Play() })
		}
		return
	}
	tone.Remove()

	var partials []int
	for i := k; i <= cfg.Overtones; i *= 2 {
		partials = append(partials, i)
	}
	for i, n := range partials {
		f := float64(n) * cfg.Fundamental
		if cfg.GroupNotes {
			p.tones.PlayFrequency(f)
			continue
		}
		p.tones.Graph().AfterFunc(noteGap*float64(i+1), func() { p.tones.PlayFrequency(f) })
	}
}

// sequence plays fs one after another in the background until done or
// stopped.
func (p *player) sequence(fs []float64) <-chan error {
	ctx, opts := p.sequenceOptions()
	return p.report("sequence", p.tones.PlayFrequenciesSequence(ctx, fs, opts))
}

func (p *player) sequenceOptions() (context.Context, tones.SequenceOptions) {
	cfg := p.config()
	opts := tones.SequenceOptions{}
	if cfg.Speed != 1 {
		opts.Speed = cfg.Speed
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seqCtx, opts
}

// report prints how a background sequence ended and passes the result on.
func (p *player) report(what string, errc <-chan error) <-chan error {
	done := make(chan error, 1)
	go func() {
		err := <-errc
		switch {
		case err == nil:
			p.printf("%s done", what)
		case errors.Is(err, context.Canceled):
			p.printf("%s stopped", what)
		default:
			log.Printf("%s failed: %v", what, err)
		}
		done <- err
		close(done)
	}()
	return done
}

// record starts a new recording of played overtones, or ends it.
func (p *player) record(args []string) error {
	if len(args) != 1 || args[0] != "on" && args[0] != "off" {
		return fmt.Errorf("%w: expected on or off", ErrBadArgument)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if args[0] == "on" {
		p.recording = true
		p.recorded = nil
		p.current = 0
		p.printf("recording")
		return nil
	}
	p.recording = false
	p.printf("recorded %d notes", len(p.recorded))
	return nil
}

// step moves n notes through the recording and plays the note it lands on.
func (p *player) step(n int) error {
	p.mu.Lock()
	i := p.current + n
	if i < 0 || i >= len(p.recorded) {
		p.mu.Unlock()
		return fmt.Errorf("%w: no recorded note %d", ErrBadArgument, i+1)
	}
	p.current = i
	note := p.recorded[i]
	p.mu.Unlock()

	p.replay([]recordedNote{note})
	return nil
}

// replay plays recorded notes as a sequence, switching to each note's
// fundamental before it sounds.
func (p *player) replay(notes []recordedNote) <-chan error {
	ctx, opts := p.sequenceOptions()
	opts.Before = func(i int) {
		if b := notes[i].base; b != p.config().Fundamental {
			p.setBase(b, true)
		}
	}

	sounds := make([]*tones.Sound, len(notes))
	for i, n := range notes {
		sounds[i] = p.tones.CreateSound(n.frequency, tones.WithOptions(n.opts))
		sounds[i].SetName(overtoneName(n.overtone))
	}
	return p.report("replay", p.tones.PlaySequence(ctx, sounds, opts))
}

// stop cancels running sequences and silences every sound.
func (p *player) stop() {
	p.mu.Lock()
	p.cancel()
	p.seqCtx, p.cancel = context.WithCancel(context.Background())
	p.mu.Unlock()

	p.printf("stopped %d sounds", p.tones.StopAll())
}

// setBase fades what is playing and moves the fundamental to f, clamped.
// Unless muted, holding or recording, the new fundamental is played.
func (p *player) setBase(f float64, mute bool) {
	f = math.Max(minFundamental, math.Min(maxFundamental, f))
	p.tones.FadeAll()

	p.mu.Lock()
	p.cfg.Fundamental = f
	quiet := mute || p.cfg.Sustain || p.recording
	p.mu.Unlock()

	p.printf("base %s", p.describe(f))
	if !quiet {
		p.overtone(1)
	}
}

// rebase moves the fundamental to partial k reduced into its octave, or an
// octave down for k = 1.
func (p *player) rebase(k int) {
	base := p.config().Fundamental
	if k == 1 {
		p.setBase(base/2, false)
		return
	}
	p.setBase(theory.ReduceToSameOctave(theory.Hz(float64(k)*base), theory.Hz(base), false), false)
}

// key sets the fundamental n semitones above A2, an octave higher with
// "octave".
func (p *player) key(args []string) error {
	if len(args) < 1 || len(args) > 2 || len(args) == 2 && args[1] != "octave" {
		return fmt.Errorf("%w: expected a key and optionally octave", ErrBadArgument)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadArgument, err)
	}
	if n < 0 {
		return fmt.Errorf("%w: key must not be negative, was: %d", ErrBadArgument, n)
	}
	f := theory.FrequencyFromMIDI(float64(keyA2 + n))
	if len(args) == 2 {
		f *= 2
	}
	p.setBase(f, false)
	return nil
}

// note names f and the overtone of the fundamental closest to it.
func (p *player) note(f float64) {
	cfg := p.config()
	partials := make([]float64, cfg.Overtones)
	for i := range partials {
		partials[i] = float64(i+1) * cfg.Fundamental
	}
	near := theory.Nearest(f, partials)
	p.printf("%s, nearest overtone %d (%.2fHz)", p.describe(f), int(math.Round(near/cfg.Fundamental)), near)
}

func (p *player) list() {
	base := p.config().Fundamental
	sounds := p.tones.Registry().Sounds()
	if len(sounds) == 0 {
		p.printf("no sounds")
		return
	}
	for i, s := range sounds {
		length := "held"
		if !s.Envelope().Values().Held() {
			d := time.Duration(s.Duration() * float64(time.Second))
			length = durafmt.Parse(d).LimitFirstN(2).Format(shortUnits)
		}
		p.printf("%d. %.2fHz %s %s %s, %s × base", i+1, s.Frequency(), s.Name(), s.State(), length, ratioString(s.Frequency()/base))
	}
}

// ratioString prints x as a mixed fraction, 1.5 becomes "1 1/2".
func ratioString(x float64) string {
	r := theory.Fraction(x, theory.MaxDenominator).Mixed()
	if r.Numerator == 0 {
		return strconv.Itoa(r.Quotient)
	}
	return r.String()
}

// close cancels running sequences.
func (p *player) close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancel()
}
