package player

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"
)

// writeOggPage appends a page carrying the given packets. When open is set
// the last packet continues on the next page; its length must then be a
// multiple of 255.
func writeOggPage(w *bytes.Buffer, granule int64, flags byte, packets [][]byte, open bool) {
	var segments []byte
	var body []byte
	for i, pkt := range packets {
		remaining := len(pkt)
		for remaining >= 255 {
			segments = append(segments, 255)
			remaining -= 255
		}
		last := i == len(packets)-1
		if !(last && open) {
			segments = append(segments, byte(remaining))
		}
		body = append(body, pkt...)
	}

	w.WriteString("OggS")
	w.WriteByte(0)
	w.WriteByte(flags)
	_ = binary.Write(w, binary.LittleEndian, granule)
	_ = binary.Write(w, binary.LittleEndian, uint32(1))
	_ = binary.Write(w, binary.LittleEndian, uint32(0))
	_ = binary.Write(w, binary.LittleEndian, uint32(0))
	w.WriteByte(byte(len(segments)))
	w.Write(segments)
	w.Write(body)
}

func fill(n int, b byte) []byte {
	return bytes.Repeat([]byte{b}, n)
}

func TestReadOggPageHeader(t *testing.T) {
	var buf bytes.Buffer
	writeOggPage(&buf, 48000, 0, [][]byte{fill(100, 1), fill(50, 2)}, false)

	hdr, err := readOggPageHeader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if hdr.granule != 48000 || hdr.serial != 1 || hdr.bodyLength != 150 {
		t.Errorf("header = %+v", hdr)
	}

	bad := append([]byte("BadS"), make([]byte, 23)...)
	if _, err := readOggPageHeader(bytes.NewReader(bad)); !errors.Is(err, errInvalidOggMagic) {
		t.Errorf("bad magic error = %v", err)
	}
	badVersion := append([]byte("OggS"), make([]byte, 23)...)
	badVersion[4] = 1
	if _, err := readOggPageHeader(bytes.NewReader(badVersion)); !errors.Is(err, errInvalidOggVersion) {
		t.Errorf("bad version error = %v", err)
	}
}

func TestOggDemuxer_SplitsAndJoinsPackets(t *testing.T) {
	var buf bytes.Buffer
	writeOggPage(&buf, 0, 0, [][]byte{fill(10, 1), fill(255, 2)}, true)
	writeOggPage(&buf, 100, oggFlagContinued, [][]byte{fill(20, 2), fill(5, 3)}, false)

	d := &oggDemuxer{r: bytes.NewReader(buf.Bytes())}

	first, _, err := d.nextPackets()
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 1 || len(first[0]) != 10 {
		t.Fatalf("first page packets = %d, want one of 10 bytes", len(first))
	}

	second, granule, err := d.nextPackets()
	if err != nil {
		t.Fatal(err)
	}
	if granule != 100 {
		t.Errorf("granule = %d, want 100", granule)
	}
	if len(second) != 2 || len(second[0]) != 275 || len(second[1]) != 5 {
		t.Errorf("second page packet sizes = %v", packetSizes(second))
	}

	if _, _, err := d.nextPackets(); !errors.Is(err, io.EOF) {
		t.Errorf("error at end = %v, want EOF", err)
	}
}

func TestOggDemuxer_DropsContinuationAfterReset(t *testing.T) {
	var buf bytes.Buffer
	writeOggPage(&buf, 0, 0, [][]byte{fill(255, 1)}, true)
	second := int64(buf.Len())
	writeOggPage(&buf, 100, oggFlagContinued, [][]byte{fill(20, 1), fill(7, 2)}, false)

	d := &oggDemuxer{r: bytes.NewReader(buf.Bytes())}
	if err := d.reset(second); err != nil {
		t.Fatal(err)
	}
	packets, _, err := d.nextPackets()
	if err != nil {
		t.Fatal(err)
	}
	if len(packets) != 1 || len(packets[0]) != 7 {
		t.Errorf("packets after reset = %v, want [7]", packetSizes(packets))
	}
}

func TestIndexOggPages(t *testing.T) {
	var buf bytes.Buffer
	writeOggPage(&buf, 10, 0, [][]byte{fill(5, 0)}, false)
	writeOggPage(&buf, -1, 0, [][]byte{fill(255, 0)}, true)
	writeOggPage(&buf, 30, oggFlagContinued, [][]byte{fill(1, 0)}, false)

	index, err := indexOggPages(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if len(index) != 3 {
		t.Fatalf("indexed %d pages, want 3", len(index))
	}
	if index[0].offset != 0 || index[1].granule != -1 || index[2].granule != 30 {
		t.Errorf("index = %+v", index)
	}
}

func TestDetectOggCodec(t *testing.T) {
	opusHead := []byte{'O', 'p', 'u', 's', 'H', 'e', 'a', 'd', 1, 2, 0x38, 0x01, 0x80, 0xBB, 0, 0, 0, 0, 0}
	vorbisIdent := append([]byte{1, 'v', 'o', 'r', 'b', 'i', 's', 0, 0, 0, 0, 2, 0x44, 0xAC, 0, 0}, make([]byte, 14)...)

	tests := []struct {
		name     string
		packet   []byte
		wantErr  error
		rate     int
		channels int
		preSkip  int
	}{
		{"opus", opusHead, nil, 48000, 2, 312},
		{"vorbis", vorbisIdent, nil, 44100, 2, 0},
		{"opus truncated", opusHead[:12], errInvalidOpusHead, 0, 0, 0},
		{"vorbis truncated", vorbisIdent[:10], errInvalidVorbisHeader, 0, 0, 0},
		{"unknown", []byte("FLAC header"), errUnknownOggCodec, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := detectOggCodec(tt.packet)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if c.SampleRate() != tt.rate || c.Channels() != tt.channels || c.PreSkip() != tt.preSkip {
				t.Errorf("codec = %d Hz / %d ch / skip %d", c.SampleRate(), c.Channels(), c.PreSkip())
			}
		})
	}
}

func TestVorbisCodec_WaitsForThreeHeaders(t *testing.T) {
	ident := append([]byte{1, 'v', 'o', 'r', 'b', 'i', 's', 0, 0, 0, 0, 1, 0x40, 0x1F, 0, 0}, make([]byte, 14)...)
	c, err := newVorbisCodec(ident)
	if err != nil {
		t.Fatal(err)
	}

	complete, err := c.AddHeaderPacket([]byte{3, 'v', 'o', 'r', 'b', 'i', 's'})
	if err != nil || complete {
		t.Errorf("after comment header complete = %v, err = %v", complete, err)
	}
	if _, err := c.Decode([]byte{0}, make([]float32, 16)); !errors.Is(err, errVorbisNotReady) {
		t.Errorf("Decode before setup error = %v", err)
	}
}

func TestDecodeOgg_RejectsUnknownCodec(t *testing.T) {
	var buf bytes.Buffer
	writeOggPage(&buf, 0, 0x02, [][]byte{[]byte("Speex   ")}, false)

	_, _, err := decodeOgg(nopSeekCloser{bytes.NewReader(buf.Bytes())})
	if !errors.Is(err, errUnknownOggCodec) {
		t.Errorf("error = %v, want errUnknownOggCodec", err)
	}
}

func TestDecodeOgg_EmptyFirstPage(t *testing.T) {
	var buf bytes.Buffer
	writeOggPage(&buf, 0, 0x02, nil, false)

	_, _, err := decodeOgg(nopSeekCloser{bytes.NewReader(buf.Bytes())})
	if !errors.Is(err, errNoOggPackets) {
		t.Errorf("error = %v, want errNoOggPackets", err)
	}
}

func packetSizes(packets [][]byte) []int {
	sizes := make([]int, len(packets))
	for i, p := range packets {
		sizes[i] = len(p)
	}
	return sizes
}
