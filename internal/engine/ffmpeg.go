package engine

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/wvoid/wvoid-radio/internal/config"
	"github.com/wvoid/wvoid-radio/internal/director"
)

// encoder is the persistent ffmpeg process holding the Icecast source
// connection. At most one exists at a time; Run spawns a new one only
// after stopping the old.
type encoder struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
	done  chan struct{}
}

// encoderArgs builds the encode command: raw PCM on stdin, 192k MP3 to
// the Icecast mount. -re paces the pipe at realtime.
func encoderArgs(cfg *config.Config) []string {
	return []string{
		"-v", "warning",
		"-re",
		"-f", "s16le",
		"-ar", "44100",
		"-ac", "2",
		"-i", "-",
		"-acodec", "libmp3lame",
		"-b:a", "192k",
		"-content_type", "audio/mpeg",
		"-ice_name", cfg.StationName,
		"-ice_description", cfg.StationDesc,
		"-ice_genre", cfg.StationGenre,
		"-f", "mp3",
		cfg.SourceURL(),
	}
}

// spawnEncoder starts ffmpeg and verifies it survives its first moment
// (a refused Icecast connection kills it instantly).
func spawnEncoder(ctx context.Context, cfg *config.Config) (*encoder, error) {
	cmd := exec.Command("ffmpeg", encoderArgs(cfg)...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start encoder: %w", err)
	}
	e := &encoder{cmd: cmd, stdin: stdin, done: make(chan struct{})}
	go func() {
		cmd.Wait()
		close(e.done)
	}()
	select {
	case <-ctx.Done():
		e.stop()
		return nil, ctx.Err()
	case <-e.done:
		return nil, fmt.Errorf("encoder exited immediately (icecast down or bad credentials?)")
	case <-time.After(500 * time.Millisecond):
	}
	return e, nil
}

func (e *encoder) alive() bool {
	select {
	case <-e.done:
		return false
	default:
		return true
	}
}

func (e *encoder) stop() {
	e.stdin.Close()
	if e.cmd.Process != nil {
		e.cmd.Process.Kill()
	}
	<-e.done
}

// decoder is the per-item ffmpeg producing normalized PCM on stdout.
type decoder struct {
	cmd *exec.Cmd
	out io.ReadCloser
}

// decoderArgs maps an item to the decode command. Music is normalized
// to -16 LUFS with 8 s fades; speech is louder (-14 LUFS, tighter
// range) and unfaded so voice starts crisp. -ss sits before -i for
// keyframe-fast seeking.
func decoderArgs(item director.Item) []string {
	args := []string{"-v", "warning"}
	if item.Offset > 0 {
		args = append(args, "-ss", formatSeconds(item.Offset))
	}
	args = append(args, "-i", item.Asset.Path)
	if item.Length > 0 {
		args = append(args, "-t", formatSeconds(item.Length))
	}

	var filters []string
	if item.Speech {
		filters = append(filters, "loudnorm=I=-14:TP=-1.5:LRA=7")
	} else {
		filters = append(filters, "loudnorm=I=-16:TP=-1.5:LRA=11")
		filters = append(filters, "afade=t=in:st=0:d=8")
		if item.Length > 16 {
			fadeOut := item.Length - 8
			filters = append(filters, "afade=t=out:st="+formatSeconds(fadeOut)+":d=8")
		}
	}
	filters = append(filters, "aresample=44100")

	args = append(args,
		"-vn",
		"-af", strings.Join(filters, ","),
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", "44100",
		"-ac", "2",
		"-",
	)
	return args
}

func spawnDecoder(ctx context.Context, item director.Item) (*decoder, error) {
	cmd := exec.CommandContext(ctx, "ffmpeg", decoderArgs(item)...)
	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start decoder: %w", err)
	}
	return &decoder{cmd: cmd, out: out}, nil
}

func (d *decoder) stop() {
	if d.cmd.Process != nil {
		d.cmd.Process.Kill()
	}
	d.cmd.Wait()
}
