// Package engine runs the station: a persistent ffmpeg encoder holds
// the Icecast source connection while per-track ffmpeg decoders feed it
// raw PCM, so track boundaries never drop the mount.
package engine

import (
	"context"
	"errors"
	"io"
	"log"
	"strconv"
	"time"

	"github.com/wvoid/wvoid-radio/internal/command"
	"github.com/wvoid/wvoid-radio/internal/config"
	"github.com/wvoid/wvoid-radio/internal/director"
	"github.com/wvoid/wvoid-radio/internal/history"
	"github.com/wvoid/wvoid-radio/internal/library"
	"github.com/wvoid/wvoid-radio/internal/metrics"
	"github.com/wvoid/wvoid-radio/internal/publisher"
)

// chunkSize is the PCM pump granularity. Commands are polled between
// chunks, so this also bounds skip latency.
const chunkSize = 8192

// Recorder is the slice of the history store the engine writes to.
type Recorder interface {
	Record(history.Play)
}

// Engine wires the director's decisions to the ffmpeg processes.
type Engine struct {
	cfg  *config.Config
	dir  *director.Director
	pub  *publisher.Publisher
	rec  Recorder
	mbox *command.Mailbox

	enc *encoder
}

// New builds an engine. rec may be nil to disable history.
func New(cfg *config.Config, dir *director.Director, pub *publisher.Publisher, rec Recorder, mbox *command.Mailbox) *Engine {
	return &Engine{cfg: cfg, dir: dir, pub: pub, rec: rec, mbox: mbox}
}

// Run streams until ctx is cancelled. The encoder is respawned on any
// failure; the loop only exits on shutdown.
func (e *Engine) Run(ctx context.Context) error {
	log.Printf("engine: streaming to %s:%d%s", e.cfg.IcecastHost, e.cfg.IcecastPort, e.cfg.IcecastMount)
	for ctx.Err() == nil {
		enc, err := spawnEncoder(ctx, e.cfg)
		if err != nil {
			log.Printf("engine: encoder failed to start: %v (retrying in 10s)", err)
			metrics.EncoderRestarts.Inc()
			sleepCtx(ctx, 10*time.Second)
			continue
		}
		e.enc = enc
		log.Printf("engine: encoder connected")

		e.streamLoop(ctx)

		e.enc.stop()
		e.enc = nil
		if ctx.Err() == nil {
			log.Printf("engine: encoder died, restarting in 2s")
			metrics.EncoderRestarts.Inc()
			sleepCtx(ctx, 2*time.Second)
		}
	}
	return ctx.Err()
}

// streamLoop plays items until the encoder breaks or ctx is done.
func (e *Engine) streamLoop(ctx context.Context) {
	for ctx.Err() == nil && e.enc.alive() {
		item, err := e.dir.Next(ctx)
		if err != nil {
			log.Printf("engine: nothing to play: %v (retrying in 30s)", err)
			sleepCtx(ctx, 30*time.Second)
			continue
		}
		res := e.pipe(ctx, item)
		if res.encoderBroken {
			return
		}
		if res.cancelled {
			// Shutdown mid-asset: listeners heard audio, so the history
			// row stays, but the play never completed. Single-use items
			// survive for the next run.
			if res.heard {
				e.record(item)
			}
			return
		}
		if res.aborted {
			metrics.TracksSkipped.Inc()
			continue
		}
		if res.played {
			metrics.TracksPlayed.WithLabelValues(string(item.Asset.Kind)).Inc()
			e.record(item)
			e.dir.Consumed(item)
		}
	}
}

func (e *Engine) publish(item director.Item) {
	np := publisher.NowPlaying{
		Track:      item.Name,
		Type:       string(item.Asset.Kind),
		ShowID:     item.Show.ID,
		ShowName:   item.Show.Name,
		TimePeriod: item.Period,
	}
	if item.Asset.Kind == library.KindMusic {
		np.Vibe = item.Mood.Vibe
	}
	e.pub.Publish(np)
	metrics.Listeners.Set(float64(e.pub.Current().Listeners))
}

func (e *Engine) record(item director.Item) {
	if e.rec == nil {
		return
	}
	play := history.Play{
		Filepath:   item.Asset.Path,
		TrackName:  item.Name,
		TimePeriod: item.Period,
		Listeners:  e.pub.Current().Listeners,
	}
	switch item.Asset.Kind {
	case library.KindMusic:
		play.Vibe = item.Mood.Vibe
	case library.KindPodcast:
		play.Vibe = "podcast"
	case library.KindSegment:
		play.Vibe = "segment"
	}
	e.rec.Record(play)
}

type pipeResult struct {
	played        bool
	aborted       bool
	cancelled     bool
	heard         bool
	encoderBroken bool
}

// pipe decodes one item and pumps its PCM into the encoder, draining
// the command mailbox between chunks. NowPlaying is published only once
// the decoder has produced audio, so a dead asset never replaces the
// state of the track still on air.
func (e *Engine) pipe(ctx context.Context, item director.Item) pipeResult {
	dec, err := spawnDecoder(ctx, item)
	if err != nil {
		log.Printf("engine: decode %s: %v", item.Asset.Path, err)
		return pipeResult{}
	}
	defer dec.stop()

	started := func() {
		e.publish(item)
		logItem(item)
	}
	poll := func() pumpAction {
		switch e.mbox.Poll() {
		case command.Skip:
			log.Printf("engine: skipping %s", item.Name)
			return pumpAbort
		case command.Segment:
			log.Printf("engine: segment queued")
			e.dir.ForceSegment()
		case command.Podcast:
			log.Printf("engine: podcast queued")
			e.dir.ForcePodcast()
		}
		return pumpContinue
	}

	res := pump(ctx, dec.out, e.enc.stdin, started, poll)
	if res.writeErr != nil {
		return pipeResult{encoderBroken: true}
	}
	if res.cancelled {
		return pipeResult{cancelled: true, heard: res.wrote}
	}
	if res.aborted {
		return pipeResult{aborted: true}
	}
	return pipeResult{played: res.wrote}
}

type pumpAction int

const (
	pumpContinue pumpAction = iota
	pumpAbort
)

type pumpResult struct {
	wrote     bool
	aborted   bool
	cancelled bool
	writeErr  error
}

// pump copies chunkSize blocks from r to w until EOF, abort, shutdown,
// or a write failure. started fires once, before the first write, so
// the caller can publish state only for assets that actually produce
// audio. A write failure means the encoder side is gone; a cancelled
// exit means the run context ended mid-copy.
func pump(ctx context.Context, r io.Reader, w io.Writer, started func(), poll func() pumpAction) pumpResult {
	buf := make([]byte, chunkSize)
	var res pumpResult
	for {
		if ctx.Err() != nil {
			res.cancelled = true
			return res
		}
		n, readErr := r.Read(buf)
		if n > 0 {
			if !res.wrote && started != nil {
				started()
			}
			if _, err := w.Write(buf[:n]); err != nil {
				res.writeErr = err
				return res
			}
			res.wrote = true
		}
		if readErr != nil {
			if ctx.Err() != nil {
				res.cancelled = true
			} else if !errors.Is(readErr, io.EOF) {
				log.Printf("engine: decoder read: %v", readErr)
			}
			return res
		}
		if poll != nil && poll() == pumpAbort {
			res.aborted = true
			return res
		}
	}
}

func logItem(item director.Item) {
	switch item.Asset.Kind {
	case library.KindPodcast:
		log.Printf("engine: podcast: %s", item.Name)
	case library.KindSegment:
		log.Printf("engine: segment: %s", item.Name)
	default:
		if item.Offset > 0 {
			log.Printf("engine: %s [%s, e:%.1f] (chunk @%d:%02d)",
				item.Name, item.Mood.Vibe, item.Mood.Energy,
				int(item.Offset)/60, int(item.Offset)%60)
		} else {
			log.Printf("engine: %s [%s, e:%.1f]", item.Name, item.Mood.Vibe, item.Mood.Energy)
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func formatSeconds(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
