// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"

	"ptt/internal/analysis"
	"ptt/internal/audio"
	"ptt/internal/config"
	"ptt/internal/graph"
	"ptt/internal/metrics"
	"ptt/internal/relay"
	"ptt/internal/sink"
	"ptt/internal/transcribe"
	"ptt/internal/transport"
)

// pipeline is a running graph plus the pieces the UI and the run loop need.
type pipeline struct {
	gate        *audio.Gate
	handle      *graph.Handle
	counter     *sink.CounterSink
	transcripts <-chan sink.Transcript
	subscriber  *relay.Subscriber
	mode        string
}

// assembly collects workers while the graph is built so they can be closed
// if building fails before the graph owns them.
type assembly struct {
	cfg     *config.Config
	met     *metrics.Metrics
	g       *graph.Graph
	workers []io.Closer
}

func (a *assembly) worker(c io.Closer) {
	a.workers = append(a.workers, c)
	a.g.Worker(c)
}

func (a *assembly) abort(err error) error {
	var result *multierror.Error
	result = multierror.Append(result, err)
	for _, w := range a.workers {
		if cerr := w.Close(); cerr != nil {
			result = multierror.Append(result, cerr)
		}
	}
	return result.ErrorOrNil()
}

func (a *assembly) sinkOptions() []sink.Option {
	return []sink.Option{
		sink.WithQueueSize(a.cfg.Sinks.QueueSize),
		sink.WithMetrics(a.met),
	}
}

// buildPipeline wires the configured sinks and playback mode onto backend
// and starts the streams. extra is applied after the configured options.
func buildPipeline(cfg *config.Config, backend audio.Backend, met *metrics.Metrics, extra ...graph.Option) (*pipeline, error) {
	p := &pipeline{
		gate:    audio.NewGate(),
		counter: sink.NewCounterSink(),
		mode:    cfg.PlaybackMode(),
	}

	opts := []graph.Option{
		graph.WithMetrics(met),
		graph.WithQueueSize(cfg.Sinks.QueueSize),
		graph.WithPlaybackChannels(cfg.Audio.OutputChannels),
		graph.WithPlayerOptions(audio.WithMaxBufferedSamples(cfg.Player.MaxBufferedSamples)),
	}
	a := &assembly{
		cfg: cfg,
		met: met,
		g:   graph.New(backend, append(opts, extra...)...).Record(p.gate).Sink(p.counter),
	}

	if err := a.addRecording(); err != nil {
		return nil, a.abort(err)
	}
	if err := a.addTranscription(p); err != nil {
		return nil, a.abort(err)
	}
	if err := a.addRelay(); err != nil {
		return nil, a.abort(err)
	}
	a.addPlayback(p)

	h, err := a.g.Run()
	if err != nil {
		return nil, a.abort(err)
	}
	p.handle = h
	return p, nil
}

func (a *assembly) addRecording() error {
	path := a.cfg.Sinks.Recording
	if path == "" {
		return nil
	}
	wav, err := sink.NewWavSink(path, a.sinkOptions()...)
	if err != nil {
		return err
	}
	a.g.Sink(wav)
	a.worker(wav)
	return nil
}

func (a *assembly) addTranscription(p *pipeline) error {
	tc := a.cfg.Sinks.Transcribe
	if tc.Model == "" {
		return nil
	}

	window, err := analysis.ParseWindowFunc(tc.Window)
	if err != nil {
		return err
	}
	detector, err := analysis.NewSpeechDetector(audio.FrameSize, audio.SampleRate, window, tc.MinRMS, tc.MinVoiceRatio)
	if err != nil {
		return err
	}

	whisper, err := transcribe.NewWhisper(tc.Model,
		transcribe.WithLanguage(tc.Language),
		transcribe.WithThreads(uint(tc.Threads)),
	)
	if err != nil {
		return fmt.Errorf("load transcription model: %w", err)
	}
	ts, err := sink.NewTranscribeSink(whisper, sink.TranscribeConfig{
		FlushEvery:  tc.FlushEvery,
		IdleTimeout: tc.IdleTimeout,
		Detector:    detector,
	}, a.sinkOptions()...)
	if err != nil {
		return multierror.Append(err, whisper.Close())
	}

	a.g.Sink(ts)
	// The sink stops recognizing before the model is freed.
	a.worker(ts)
	a.worker(whisper)
	p.transcripts = ts.Transcripts()
	return nil
}

func (a *assembly) addRelay() error {
	if addr := a.cfg.Sinks.Relay.Listen; addr != "" {
		wst := transport.NewWebSocketTransport()
		if err := wst.Listen(addr); err != nil {
			return fmt.Errorf("relay listen: %w", err)
		}
		if err := a.relayTo(wst); err != nil {
			return multierror.Append(err, wst.Close())
		}
	}

	if a.cfg.Debug {
		if err := a.relayTo(transport.NewLoggingTransport()); err != nil {
			return err
		}
	}
	return nil
}

// relayTo sends finished bursts through tr. The sink is closed before tr.
func (a *assembly) relayTo(tr transport.Transport) error {
	rs, err := sink.NewRelaySink(tr, a.sinkOptions()...)
	if err != nil {
		return err
	}
	a.g.Sink(rs)
	a.worker(rs)
	a.worker(tr)
	return nil
}

func (a *assembly) addPlayback(p *pipeline) {
	if p.mode == config.ModeOff {
		return
	}

	if url := a.cfg.Sinks.Relay.Subscribe; url != "" {
		p.subscriber = relay.NewSubscriber(url, a.cfg.Sinks.QueueSize, relay.WithSubscriberMetrics(a.met))
		a.g.PlayFrom(p.subscriber.Source())
		return
	}

	switch p.mode {
	case config.ModeLive:
		a.g.Play()
	case config.ModeBurst:
		ch := make(chan audio.Packet, a.cfg.Sinks.QueueSize)
		a.g.Sink(sink.NewBatchSink(ch, sink.WithMetrics(a.met))).PlayFrom(audio.ChanSource(ch))
	}
}
