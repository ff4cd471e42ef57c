package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/llehouerou/alac"
	"github.com/llehouerou/go-faad2"
	"github.com/llehouerou/go-m4a"
)

var errUnsupportedM4ACodec = errors.New("m4a: unsupported codec")

// m4aDecoder streams AAC or ALAC samples out of an MP4 container.
type m4aDecoder struct {
	container *m4a.Reader
	closer    io.Closer
	codec     m4a.CodecType
	channels  int
	bits      int
	total     int
	next      int // index of the next container sample

	aac  *faad2.Decoder
	alac *alac.Alac

	frames [][2]float64
	frame  int
	err    error
}

func decodeM4A(rc io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, error) {
	container, err := m4a.Open(rc)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("open m4a container: %w", err)
	}

	rate := container.SampleRate()
	d := &m4aDecoder{
		container: container,
		closer:    rc,
		codec:     container.Codec(),
		channels:  int(container.Channels()),
		bits:      int(container.SampleSize()),
		total:     int(container.Duration().Seconds() * float64(rate)),
	}

	precision := 2
	switch d.codec {
	case m4a.CodecAAC:
		ctx := context.Background()
		dec, err := faad2.NewDecoder(ctx)
		if err != nil {
			return nil, beep.Format{}, fmt.Errorf("create aac decoder: %w", err)
		}
		if err := dec.Init(ctx, container.CodecConfig()); err != nil {
			dec.Close(ctx)
			return nil, beep.Format{}, fmt.Errorf("init aac decoder: %w", err)
		}
		d.aac = dec
	case m4a.CodecALAC:
		dec, err := alac.NewWithConfig(alac.Config{
			SampleRate:  int(rate),
			SampleSize:  d.bits,
			NumChannels: d.channels,
			FrameSize:   4096,
		})
		if err != nil {
			return nil, beep.Format{}, fmt.Errorf("create alac decoder: %w", err)
		}
		d.alac = dec
		if d.bits == 24 {
			precision = 3
		}
	default:
		return nil, beep.Format{}, errUnsupportedM4ACodec
	}

	format := beep.Format{SampleRate: beep.SampleRate(rate), NumChannels: 2, Precision: precision}
	return d, format, nil
}

func (d *m4aDecoder) Stream(samples [][2]float64) (n int, ok bool) {
	if d.err != nil {
		return 0, false
	}
	for n < len(samples) {
		if d.frame < len(d.frames) {
			c := copy(samples[n:], d.frames[d.frame:])
			n += c
			d.frame += c
			continue
		}
		if d.next >= d.container.SampleCount() {
			return n, n > 0
		}
		data, err := d.container.ReadSample(d.next)
		if err != nil {
			d.err = err
			return n, n > 0
		}
		d.next++

		if d.aac != nil {
			pcm, err := d.aac.Decode(context.Background(), data)
			if err != nil {
				d.err = err
				return n, n > 0
			}
			d.frames = int16Frames(pcm, d.channels)
		} else {
			d.frames = alacFrames(d.alac.Decode(data), d.channels, d.bits)
		}
		d.frame = 0
	}
	return n, true
}

// int16Frames converts interleaved 16-bit PCM to stereo frames; mono is
// duplicated to both sides.
func int16Frames(pcm []int16, channels int) [][2]float64 {
	channels = max(channels, 1)
	frames := make([][2]float64, len(pcm)/channels)
	for i := range frames {
		left := float64(pcm[i*channels]) / 32768
		right := left
		if channels > 1 {
			right = float64(pcm[i*channels+1]) / 32768
		}
		frames[i] = [2]float64{left, right}
	}
	return frames
}

// alacFrames converts little-endian 16 or 24-bit ALAC output to stereo frames.
func alacFrames(data []byte, channels, bits int) [][2]float64 {
	channels = max(channels, 1)
	width := 2
	scale := 32768.0
	if bits == 24 {
		width = 3
		scale = 8388608
	}
	sample := func(off int) float64 {
		if width == 2 {
			return float64(int16(data[off])|int16(data[off+1])<<8) / scale
		}
		v := int32(data[off]) | int32(data[off+1])<<8 | int32(data[off+2])<<16
		if v&0x800000 != 0 {
			v |= ^0xFFFFFF
		}
		return float64(v) / scale
	}

	stride := width * channels
	frames := make([][2]float64, len(data)/stride)
	for i := range frames {
		off := i * stride
		left := sample(off)
		right := left
		if channels > 1 {
			right = sample(off + width)
		}
		frames[i] = [2]float64{left, right}
	}
	return frames
}

func (d *m4aDecoder) Err() error { return d.err }
func (d *m4aDecoder) Len() int   { return d.total }

func (d *m4aDecoder) Position() int {
	at := d.container.SampleTime(d.next)
	return max(int(at.Seconds()*float64(d.container.SampleRate()))-(len(d.frames)-d.frame), 0)
}

func (d *m4aDecoder) Seek(p int) error {
	p = max(0, min(p, d.total))
	at := time.Duration(float64(p) / float64(d.container.SampleRate()) * float64(time.Second))
	d.next = d.container.SeekToTime(at)
	d.frames = nil
	d.frame = 0
	d.err = nil
	return nil
}

func (d *m4aDecoder) Close() error {
	if d.aac != nil {
		d.aac.Close(context.Background())
	}
	return d.closer.Close()
}
