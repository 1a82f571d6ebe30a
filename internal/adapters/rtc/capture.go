package rtc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
	"github.com/pion/webrtc/v4/pkg/media/oggreader"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"

	"github.com/dkeye/Voice/internal/client"
)

var ErrNoSource = errors.New("no capture source configured")

const (
	opusClockRate = 48000
	pageInterval  = 20 * time.Millisecond
)

// OggDevice plays an Ogg/Opus file in place of a microphone. The file is
// looped until the track is stopped.
type OggDevice struct {
	Path string
}

var _ client.CaptureDevice = OggDevice{}

func (d OggDevice) Open(ctx context.Context) (client.CaptureTrack, error) {
	if d.Path == "" {
		return nil, ErrNoSource
	}
	f, err := os.Open(d.Path)
	if err != nil {
		return nil, fmt.Errorf("open capture: %w", err)
	}
	reader, _, err := oggreader.NewWith(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("read ogg header: %w", err)
	}
	track, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus, ClockRate: opusClockRate, Channels: 2},
		"audio", "voice",
	)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	pumpCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	t := &OggTrack{track: track, file: f, reader: reader, cancel: cancel}
	t.wg.Go(func() { t.pump(pumpCtx) })
	return t, nil
}

// OggTrack is the capture track produced by OggDevice.
type OggTrack struct {
	track  *webrtc.TrackLocalStaticSample
	file   *os.File
	reader *oggreader.OggReader
	cancel context.CancelFunc
	wg     conc.WaitGroup

	level    atomic.Uint64
	muted    atomic.Bool
	stopOnce sync.Once
}

func (t *OggTrack) TrackLocal() webrtc.TrackLocal { return t.track }

func (t *OggTrack) Level() float64 {
	if t.muted.Load() {
		return 0
	}
	return math.Float64frombits(t.level.Load())
}

func (t *OggTrack) SetMuted(muted bool) { t.muted.Store(muted) }

// Stop ends playback and releases the file. Safe to call more than once.
func (t *OggTrack) Stop() {
	t.stopOnce.Do(func() {
		t.cancel()
		t.wg.Wait()
		_ = t.file.Close()
	})
}

func (t *OggTrack) pump(ctx context.Context) {
	ticker := time.NewTicker(pageInterval)
	defer ticker.Stop()

	var lastGranule uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		page, header, err := t.reader.ParseNextPage()
		if errors.Is(err, io.EOF) {
			if err := t.rewind(); err != nil {
				log.Error().Err(err).Str("module", "capture").Msg("rewind failed")
				return
			}
			lastGranule = 0
			continue
		}
		if err != nil {
			log.Error().Err(err).Str("module", "capture").Msg("ogg page")
			return
		}

		samples := header.GranulePosition - lastGranule
		lastGranule = header.GranulePosition
		duration := time.Duration(float64(samples) / opusClockRate * float64(time.Second))

		if t.muted.Load() {
			t.level.Store(0)
			continue
		}
		t.level.Store(math.Float64bits(levelFromSize(len(page))))
		if err := t.track.WriteSample(media.Sample{Data: page, Duration: duration}); err != nil {
			log.Debug().Err(err).Str("module", "capture").Msg("write sample")
		}
	}
}

func (t *OggTrack) rewind() error {
	if _, err := t.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	reader, _, err := oggreader.NewWith(t.file)
	if err != nil {
		return err
	}
	t.reader = reader
	return nil
}
