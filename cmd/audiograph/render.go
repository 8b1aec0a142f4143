package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"pipelined.dev/audiograph"
	"pipelined.dev/audiograph/composer"
	"pipelined.dev/audiograph/effect"
	"pipelined.dev/audiograph/log"
	"pipelined.dev/audiograph/session"
	"pipelined.dev/audiograph/source"
	"pipelined.dev/audiograph/wav"
)

type renderCommand struct {
	out        string
	duration   time.Duration
	sampleRate int
	bitDepth   int
	freq       float64
	gain       float64
	delay      float64
	lowpass    float64
}

func (cmd *renderCommand) Name() string {
	return "render"
}

func (cmd *renderCommand) Help() string {
	return "Render a tone through effects into wav file"
}

func (cmd *renderCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&cmd.out, "out", "", "output wav file (required)")
	fs.DurationVar(&cmd.duration, "duration", 3*time.Second, "rendered duration")
	fs.IntVar(&cmd.sampleRate, "rate", 48000, "sample rate")
	fs.IntVar(&cmd.bitDepth, "bits", 16, "bit depth of output file")
	fs.Float64Var(&cmd.freq, "freq", 440, "tone frequency in Hz")
	fs.Float64Var(&cmd.gain, "gain", 0.5, "output gain")
	fs.Float64Var(&cmd.delay, "delay", 0, "delay time in milliseconds, 0 disables delay")
	fs.Float64Var(&cmd.lowpass, "lowpass", 0, "lowpass cutoff in Hz, 0 disables filter")
}

func (cmd *renderCommand) Run() error {
	if cmd.out == "" {
		return errors.New("-out is required")
	}
	if cmd.duration <= 0 {
		return fmt.Errorf("invalid duration %v", cmd.duration)
	}
	logger := log.GetLogger()
	c, err := composer.New(cmd.sampleRate, composer.WithLogger(logger))
	if err != nil {
		return err
	}
	defer c.Release()
	sink, err := wav.Create(cmd.out, cmd.sampleRate, 2, cmd.bitDepth)
	if err != nil {
		return err
	}

	t := cmd.tone()
	for at := time.Duration(0); at < cmd.duration; at += c.Window() {
		fb, err := c.Compose(context.Background(), at, t)
		if err != nil {
			sink.Close()
			return err
		}
		if left := cmd.duration - at; left < c.Window() {
			fb.Data = fb.Data[:2*audiograph.SamplesOf(left, cmd.sampleRate)]
		}
		if err := sink.WriteFloat(fb); err != nil {
			sink.Close()
			return err
		}
	}
	if err := sink.Close(); err != nil {
		return err
	}
	logger.Info(fmt.Sprintf("rendered %v to %s", cmd.duration, cmd.out))
	return nil
}

func (cmd *renderCommand) tone() *tone {
	t := &tone{
		sine: &source.Sine{Frequency: cmd.freq, Amplitude: 1, NumChannels: 2},
		gain: cmd.gain,
	}
	if cmd.delay > 0 {
		t.delay = effect.NewDelay()
		t.delay.SetDelayTime(cmd.delay)
	}
	if cmd.lowpass > 0 {
		t.lowpass = effect.NewLowpass(cmd.lowpass)
	}
	return t
}

// tone is a sine followed by optional delay and lowpass.
type tone struct {
	sine    *source.Sine
	delay   *effect.Delay
	lowpass *effect.Lowpass
	gain    float64
}

func (t *tone) Compose(s *session.Session) (audiograph.Node, error) {
	src, err := s.CreateSourceNode(t.sine)
	if err != nil {
		return nil, err
	}
	var last audiograph.Node = src
	for _, e := range t.effects() {
		n, err := s.CreateEffectNode(e)
		if err != nil {
			return nil, err
		}
		if err := s.Connect(last, n); err != nil {
			return nil, err
		}
		last = n
	}
	g, err := s.CreateGainNode(t.gain)
	if err != nil {
		return nil, err
	}
	if err := s.Connect(last, g); err != nil {
		return nil, err
	}
	return g, nil
}

func (t *tone) effects() []audiograph.Effect {
	var effects []audiograph.Effect
	if t.delay != nil {
		effects = append(effects, t.delay)
	}
	if t.lowpass != nil {
		effects = append(effects, t.lowpass)
	}
	return effects
}
