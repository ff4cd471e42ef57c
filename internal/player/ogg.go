package player

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/gopxl/beep/v2"
	"github.com/jfreymuth/vorbis"
	"github.com/jj11hh/opus"
)

const (
	opusSampleRate = 48000
	// Largest Opus frame (120 ms at 48 kHz), per channel.
	opusMaxFrame = 5760

	oggFlagContinued = 0x01
)

var (
	errInvalidOggMagic     = errors.New("ogg: invalid capture pattern")
	errInvalidOggVersion   = errors.New("ogg: unsupported version")
	errNoOggPackets        = errors.New("ogg: no packets in first page")
	errUnknownOggCodec     = errors.New("ogg: unknown codec (not Opus or Vorbis)")
	errInvalidOpusHead     = errors.New("opus: invalid OpusHead")
	errInvalidVorbisHeader = errors.New("vorbis: invalid identification header")
	errVorbisNotReady      = errors.New("vorbis: headers incomplete")
)

type oggPageHeader struct {
	flags      byte
	granule    int64
	serial     uint32
	segments   []uint8
	bodyLength int64
}

func readOggPageHeader(r io.Reader) (*oggPageHeader, error) {
	var buf [27]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, err
	}
	if string(buf[0:4]) != "OggS" {
		return nil, errInvalidOggMagic
	}
	if buf[4] != 0 {
		return nil, errInvalidOggVersion
	}

	hdr := &oggPageHeader{
		flags:   buf[5],
		granule: int64(binary.LittleEndian.Uint64(buf[6:14])), //nolint:gosec // -1 marks pages without a completed packet
		serial:  binary.LittleEndian.Uint32(buf[14:18]),
	}
	if n := int(buf[26]); n > 0 {
		hdr.segments = make([]uint8, n)
		if _, err := io.ReadFull(r, hdr.segments); err != nil {
			return nil, err
		}
	}
	for _, s := range hdr.segments {
		hdr.bodyLength += int64(s)
	}
	return hdr, nil
}

// splitOggPackets cuts a page body into packets. A packet is terminated by
// a segment shorter than 255 bytes; bytes after the last terminator belong
// to a packet continued on the next page and are returned as rest.
func splitOggPackets(hdr *oggPageHeader, body []byte) (packets [][]byte, rest []byte) {
	start, off := 0, 0
	for _, s := range hdr.segments {
		off += int(s)
		if s < 255 {
			packets = append(packets, body[start:off])
			start = off
		}
	}
	if start < off {
		rest = body[start:off]
	}
	return packets, rest
}

// oggDemuxer reads the packets of a single logical Ogg stream.
type oggDemuxer struct {
	r     io.ReadSeeker
	carry []byte
	// dropContinued discards the tail of a packet whose head was skipped
	// by a seek.
	dropContinued bool
}

func (d *oggDemuxer) nextPackets() ([][]byte, int64, error) {
	hdr, err := readOggPageHeader(d.r)
	if err != nil {
		return nil, 0, err
	}
	body := make([]byte, hdr.bodyLength)
	if _, err := io.ReadFull(d.r, body); err != nil {
		return nil, 0, err
	}
	packets, rest := splitOggPackets(hdr, body)

	continued := hdr.flags&oggFlagContinued != 0
	switch {
	case continued && d.carry != nil:
		if len(packets) > 0 {
			packets[0] = append(d.carry, packets[0]...)
			d.carry = nil
		} else {
			rest = append(d.carry, rest...)
		}
	case continued && d.dropContinued && len(packets) > 0:
		packets = packets[1:]
	}
	d.dropContinued = false
	d.carry = rest
	return packets, hdr.granule, nil
}

func (d *oggDemuxer) reset(offset int64) error {
	d.carry = nil
	d.dropContinued = true
	_, err := d.r.Seek(offset, io.SeekStart)
	return err
}

type oggPageRef struct {
	offset  int64
	granule int64
}

// indexOggPages records the offset and granule of every page from the
// current position on, without reading page bodies.
func indexOggPages(r io.ReadSeeker) ([]oggPageRef, error) {
	var index []oggPageRef
	for {
		offset, err := r.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil, err
		}
		hdr, err := readOggPageHeader(r)
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return index, nil
		}
		if err != nil {
			return nil, err
		}
		index = append(index, oggPageRef{offset: offset, granule: hdr.granule})
		if _, err := r.Seek(hdr.bodyLength, io.SeekCurrent); err != nil {
			return nil, err
		}
	}
}

// oggCodec decodes the packets of one Ogg codec.
type oggCodec interface {
	SampleRate() int
	Channels() int
	// PreSkip is the number of decoded samples to drop at stream start.
	PreSkip() int
	// AddHeaderPacket feeds a header packet and reports when all headers
	// have been seen.
	AddHeaderPacket(packet []byte) (complete bool, err error)
	// Decode writes interleaved samples into pcm and returns the number of
	// samples per channel.
	Decode(packet []byte, pcm []float32) (int, error)
	// Reset clears inter-packet state after a seek.
	Reset()
	// MaxFrame is the largest number of samples per channel a packet decodes to.
	MaxFrame() int
}

func detectOggCodec(first []byte) (oggCodec, error) {
	if len(first) >= 8 && string(first[:8]) == "OpusHead" {
		return newOpusCodec(first)
	}
	if len(first) >= 7 && first[0] == 0x01 && string(first[1:7]) == "vorbis" {
		return newVorbisCodec(first)
	}
	return nil, errUnknownOggCodec
}

type opusCodec struct {
	decoder  *opus.Decoder
	channels int
	preSkip  int
	tagsSeen bool
}

func newOpusCodec(head []byte) (*opusCodec, error) {
	if len(head) < 19 || head[8] != 1 {
		return nil, errInvalidOpusHead
	}
	channels := int(head[9])
	if channels == 0 {
		return nil, errInvalidOpusHead
	}
	dec, err := opus.NewDecoder(opusSampleRate, channels)
	if err != nil {
		return nil, fmt.Errorf("create opus decoder: %w", err)
	}
	return &opusCodec{
		decoder:  dec,
		channels: channels,
		preSkip:  int(binary.LittleEndian.Uint16(head[10:12])),
	}, nil
}

func (c *opusCodec) SampleRate() int { return opusSampleRate }
func (c *opusCodec) Channels() int   { return c.channels }
func (c *opusCodec) PreSkip() int    { return c.preSkip }
func (c *opusCodec) MaxFrame() int   { return opusMaxFrame }
func (c *opusCodec) Reset()          {}

// AddHeaderPacket expects the OpusTags packet that follows OpusHead.
func (c *opusCodec) AddHeaderPacket(_ []byte) (bool, error) {
	c.tagsSeen = true
	return true, nil
}

func (c *opusCodec) Decode(packet []byte, pcm []float32) (int, error) {
	return c.decoder.DecodeFloat32(packet, pcm)
}

type vorbisCodec struct {
	decoder    *vorbis.Decoder
	channels   int
	sampleRate int
	headers    [][]byte
}

func newVorbisCodec(ident []byte) (*vorbisCodec, error) {
	// ident: type(1) "vorbis"(6) version(4) channels(1) rate(4) ...
	if len(ident) < 16 || binary.LittleEndian.Uint32(ident[7:11]) != 0 || ident[11] == 0 {
		return nil, errInvalidVorbisHeader
	}
	return &vorbisCodec{
		channels:   int(ident[11]),
		sampleRate: int(binary.LittleEndian.Uint32(ident[12:16])),
		headers:    [][]byte{slices.Clone(ident)},
	}, nil
}

func (c *vorbisCodec) SampleRate() int { return c.sampleRate }
func (c *vorbisCodec) Channels() int   { return c.channels }
func (c *vorbisCodec) PreSkip() int    { return 0 }
func (c *vorbisCodec) MaxFrame() int   { return 8192 }

// AddHeaderPacket collects the comment and setup headers, then initializes
// the decoder with all three.
func (c *vorbisCodec) AddHeaderPacket(packet []byte) (bool, error) {
	if c.decoder != nil {
		return true, nil
	}
	c.headers = append(c.headers, slices.Clone(packet))
	if len(c.headers) < 3 {
		return false, nil
	}
	dec := &vorbis.Decoder{}
	for _, h := range c.headers {
		if err := dec.ReadHeader(h); err != nil {
			return false, fmt.Errorf("read vorbis header: %w", err)
		}
	}
	c.decoder = dec
	c.headers = nil
	return true, nil
}

func (c *vorbisCodec) Decode(packet []byte, pcm []float32) (int, error) {
	if c.decoder == nil {
		return 0, errVorbisNotReady
	}
	out, err := c.decoder.Decode(packet)
	if err != nil {
		return 0, err
	}
	return copy(pcm, out) / c.channels, nil
}

func (c *vorbisCodec) Reset() {
	if c.decoder != nil {
		c.decoder.Clear()
	}
}

// oggDecoder implements beep.StreamSeekCloser over an Ogg Vorbis or Opus
// stream.
type oggDecoder struct {
	src   io.ReadSeekCloser
	demux *oggDemuxer
	codec oggCodec
	index []oggPageRef

	dataStart int64
	total     int // samples, pre-skip excluded
	pos       int
	skip      int

	queue  [][]byte
	pcm    []float32
	pcmPos int
	pcmLen int
	err    error
}

func decodeOgg(src io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, error) {
	demux := &oggDemuxer{r: src}

	packets, _, err := demux.nextPackets()
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("read ogg page: %w", err)
	}
	if len(packets) == 0 {
		return nil, beep.Format{}, errNoOggPackets
	}
	codec, err := detectOggCodec(packets[0])
	if err != nil {
		return nil, beep.Format{}, err
	}

	// Header packets may share pages with each other but audio always
	// starts on a fresh page.
	pending := packets[1:]
	for complete := false; !complete; {
		for len(pending) == 0 {
			if pending, _, err = demux.nextPackets(); err != nil {
				return nil, beep.Format{}, fmt.Errorf("read ogg headers: %w", err)
			}
		}
		complete, err = codec.AddHeaderPacket(pending[0])
		if err != nil {
			return nil, beep.Format{}, err
		}
		pending = pending[1:]
	}

	dataStart, err := src.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, beep.Format{}, err
	}
	index, err := indexOggPages(src)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("index ogg pages: %w", err)
	}
	if err := demux.reset(dataStart); err != nil {
		return nil, beep.Format{}, err
	}
	demux.dropContinued = false

	d := &oggDecoder{
		src:       src,
		demux:     demux,
		codec:     codec,
		index:     index,
		dataStart: dataStart,
		skip:      codec.PreSkip(),
		pcm:       make([]float32, codec.MaxFrame()*codec.Channels()),
	}
	for i := len(index) - 1; i >= 0; i-- {
		if index[i].granule >= 0 {
			d.total = max(int(index[i].granule)-codec.PreSkip(), 0)
			break
		}
	}

	format := beep.Format{
		SampleRate:  beep.SampleRate(codec.SampleRate()),
		NumChannels: min(codec.Channels(), 2),
		Precision:   2,
	}
	return d, format, nil
}

func (d *oggDecoder) Stream(samples [][2]float64) (n int, ok bool) {
	if d.err != nil {
		return 0, false
	}
	channels := d.codec.Channels()

	for n < len(samples) {
		if d.total > 0 && d.pos >= d.total {
			return n, n > 0
		}
		if d.pcmPos < d.pcmLen {
			left := float64(d.pcm[d.pcmPos])
			right := left
			if channels > 1 {
				right = float64(d.pcm[d.pcmPos+1])
			}
			d.pcmPos += channels
			if d.skip > 0 {
				d.skip--
				continue
			}
			samples[n] = [2]float64{left, right}
			n++
			d.pos++
			continue
		}

		if len(d.queue) == 0 {
			packets, _, err := d.demux.nextPackets()
			if err != nil {
				if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
					d.err = err
				}
				return n, n > 0
			}
			d.queue = packets
			continue
		}

		packet := d.queue[0]
		d.queue = d.queue[1:]
		got, err := d.codec.Decode(packet, d.pcm)
		if err != nil {
			// Corrupt packets are skipped.
			continue
		}
		d.pcmPos = 0
		d.pcmLen = got * channels
	}
	return n, true
}

func (d *oggDecoder) Err() error    { return d.err }
func (d *oggDecoder) Len() int      { return d.total }
func (d *oggDecoder) Position() int { return d.pos }

// Seek restarts decoding at the page preceding p and drops samples up to p.
func (d *oggDecoder) Seek(p int) error {
	p = max(0, min(p, d.total))
	preSkip := d.codec.PreSkip()
	target := int64(p + preSkip)

	offset := d.dataStart
	start := 0
	fresh := true
	for i := 0; i+1 < len(d.index); i++ {
		g := d.index[i].granule
		if g < 0 {
			continue
		}
		if g > target {
			break
		}
		offset = d.index[i+1].offset
		start = int(g) - preSkip
		fresh = false
	}

	if err := d.demux.reset(offset); err != nil {
		return err
	}
	if fresh {
		d.demux.dropContinued = false
		start = -preSkip
	}
	d.codec.Reset()
	d.queue = nil
	d.pcmPos, d.pcmLen = 0, 0
	d.skip = p - start
	d.pos = p
	d.err = nil
	return nil
}

func (d *oggDecoder) Close() error {
	return d.src.Close()
}
