package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/hako/durafmt"

	"git.disy.net/goetz/overtones/mix"
	"git.disy.net/goetz/overtones/spectrum"
	"git.disy.net/goetz/overtones/tones"
)

// silentFrames is the buffer size when running without an output device.
const silentFrames = 512

// reportPartials is how many partials of the strongest frequency -render
// prints.
const reportPartials = 8

// fadeTimeout bounds how long exiting waits for sounds to fade.
const fadeTimeout = 3 * time.Second

func newTones(g tones.Graph, c *Config) *tones.Context {
	tc := tones.NewContext(g,
		tones.WithLogger(log.Default()),
		tones.WithDefaults(c.Sound),
		tones.WithMaxSounds(c.MaxSounds),
	)
	tc.SetVolume(c.MasterVolume)
	return tc
}

// openOutput plays g on the default device, mono. The returned func stops
// the stream.
func openOutput(g *mix.Graph) (func(), error) {
	err := portaudio.Initialize()
	if err != nil {
		return nil, fmt.Errorf("can't init portaudio: %w", err)
	}
	stream, err := portaudio.OpenDefaultStream(0, 1, g.SampleRate(), portaudio.FramesPerBufferUnspecified, g.Process)
	if err != nil {
		// ignore Terminate error
		portaudio.Terminate()
		return nil, fmt.Errorf("can't open default stream: %w", err)
	}
	err = stream.Start()
	if err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("can't start stream: %w", err)
	}
	return func() {
		// ignore Stop, Close and Terminate errors
		stream.Stop()
		stream.Close()
		portaudio.Terminate()
	}, nil
}

func parseFrequencies(s string) ([]float64, error) {
	return frequencyArgs(strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' '
	}), -1)
}

// render plays the frequencies as a sequence without a device and writes
// what was heard to path.
func render(c *Config, path string, freqs []float64) error {
	if c.Sound.Sustain < 0 {
		return errors.New("can't render held sounds")
	}
	g := mix.New(c.SampleRate)
	tc := newTones(g, c)
	p, err := newPlayer(tc, c.DynamicConfig, os.Stdout)
	if err != nil {
		return err
	}
	defer p.close()

	rec := mix.NewRecorder(g.Format())
	ctx, cancel := context.WithCancel(context.Background())
	ran := make(chan error, 1)
	go func() { ran <- g.RunSilent(ctx, silentFrames, rec.Record) }()

	err = <-p.sequence(freqs)
	// let the last release ring out
	for err == nil && tc.Registry().Len() > 0 {
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	<-ran
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("can't create %s: %w", path, err)
	}
	defer f.Close()
	if err := rec.WriteWAV(f); err != nil {
		return err
	}

	s, err := spectrum.Analyze(rec.Mono(), c.SampleRate)
	if err != nil {
		return fmt.Errorf("can't analyse %s: %w", path, err)
	}
	length := durafmt.Parse(rec.Duration()).LimitFirstN(2).Format(shortUnits)
	peak := s.Peak()
	fmt.Printf("rendered %s to %s, strongest: %s\n", length, path, p.describe(peak))
	if peak > 0 {
		levels := make([]string, 0, reportPartials)
		for _, m := range s.Partials(peak, reportPartials) {
			levels = append(levels, strconv.FormatFloat(m, 'f', 4, 64))
		}
		fmt.Printf("partials of %.2fHz: %s\n", peak, strings.Join(levels, " "))
	}
	return nil
}

// fadeAll fades every playing sound and waits for the fades up to timeout.
func fadeAll(tc *tones.Context, timeout time.Duration) {
	deadline := time.After(timeout)
	for _, done := range tc.FadeAll() {
		select {
		case <-done:
		case <-deadline:
			return
		}
	}
}

func scanLines(lines chan<- string, errs chan<- error) {
	s := bufio.NewScanner(os.Stdin)
	for s.Scan() {
		lines <- s.Text()
	}
	errs <- s.Err()
}

func processLines(p *player, done <-chan struct{}, errs chan<- error) {
	lines := make(chan string, 1)
	scannerErrs := make(chan error, 1)
	go scanLines(lines, scannerErrs)
	for {
		select {
		case line := <-lines:
			if err := p.handle(line); err != nil {
				errs <- err
			}
		case <-done:
			return
		case <-scannerErrs:
			// stop on scanner error, ignore error
			return
		}
	}
}

func main() {
	configFile := flag.String("config", "", "Path to config, created with defaults if not found.")
	renderFile := flag.String("render", "", "Render the -seq frequencies to this WAV file and exit.")
	seq := flag.String("seq", "", "Comma separated frequencies to play as a sequence on start.")
	flag.Parse()
	if *configFile == "" {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		flag.PrintDefaults()
		return
	}
	config, err := ReadConfig(*configFile)
	if err != nil {
		log.Fatalf("can't read config: %v because: %v", *configFile, err)
	}
	var freqs []float64
	if *seq != "" {
		freqs, err = parseFrequencies(*seq)
		if err != nil {
			log.Fatalf("can't parse -seq: %v", err)
		}
	}

	if *renderFile != "" {
		if len(freqs) == 0 {
			log.Fatalf("-render needs -seq")
		}
		if err := render(config, *renderFile, freqs); err != nil {
			log.Fatalf("can't render: %v", err)
		}
		return
	}

	g := mix.New(config.SampleRate)
	tc := newTones(g, config)
	p, err := newPlayer(tc, config.DynamicConfig, os.Stdout)
	if err != nil {
		log.Fatalf("trigger config error: %v", err)
	}
	defer p.close()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	closeOutput, err := openOutput(g)
	if err != nil {
		log.Printf("no audio output, running silent: %v", err)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go g.RunSilent(ctx, silentFrames, nil)
	} else {
		defer closeOutput()
	}

	configs := make(chan *Config)
	done := make(chan struct{})
	defer close(done)
	errs := make(chan error)
	if config.WatchConfig {
		err := Watch(*configFile, configs, errs, done)
		if err != nil {
			log.Fatalf("can't start watcher: %v", err)
		}
	}

	// report errors to stderr
	go func() {
		for {
			select {
			case err := <-errs:
				log.Printf("error: %v", err)
			case <-done:
				return
			}
		}
	}()

	// scan lines, run commands and triggers
	go processLines(p, done, errs)

	if len(freqs) > 0 {
		p.sequence(freqs)
	}

	for {
		select {
		// handle config changes
		case c := <-configs:
			if err := p.apply(c.DynamicConfig); err != nil {
				log.Printf("can't apply config: %v", err)
				continue
			}
			tc.SetMaxSounds(c.MaxSounds)
		// block until SIGINT | SIGTERM
		case <-signals:
			fmt.Println("exiting")
			fadeAll(tc, fadeTimeout)
			return
		}
	}
}
