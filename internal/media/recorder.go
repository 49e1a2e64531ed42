// Package media implements chunked clip recording over capture streams.
// A recorder emits encoded chunks at a fixed interval while active; plain
// concatenation of the chunks in order yields one playable clip tagged
// with the negotiated encoding.
package media

import (
	"errors"
	"time"

	"capdeck/internal/device"
)

// Encodings understood by the built-in recorders, as MIME types.
const (
	EncodingWebMOpus = "audio/webm;codecs=opus"
	EncodingOggOpus  = "audio/ogg;codecs=opus"
	EncodingWAV      = "audio/wav"

	EncodingWebMVP9 = "video/webm;codecs=vp9"
	EncodingWebMVP8 = "video/webm;codecs=vp8"
	EncodingMP4     = "video/mp4"
)

// Preference lists tried in order during negotiation; the first entry the
// platform supports wins.
var (
	DefaultAudioEncodings = []string{EncodingWebMOpus, EncodingOggOpus, EncodingWAV}
	DefaultVideoEncodings = []string{EncodingWebMVP9, EncodingWebMVP8, EncodingMP4}
)

// DefaultChunkInterval is used when Start is given a non-positive interval.
const DefaultChunkInterval = time.Second

// ErrNoSupportedEncoding is returned when negotiation exhausts the
// preference list.
var ErrNoSupportedEncoding = errors.New("no supported encoding in preference list")

// Chunk is one fragment of encoded media delivered while recording.
type Chunk struct {
	Seq  int
	Time time.Time
	Data []byte
}

// Handlers receive recorder events. OnChunk is called once per chunk, in
// order; all chunks are delivered before Stop returns. OnError reports a
// runtime failure (such as the capture process dying mid-recording) and
// may arrive at any time while recording.
type Handlers struct {
	OnChunk func(Chunk)
	OnError func(error)
}

func (h Handlers) chunk(c Chunk) {
	if h.OnChunk != nil {
		h.OnChunk(c)
	}
}

func (h Handlers) fail(err error) {
	if h.OnError != nil {
		h.OnError(err)
	}
}

// Recorder produces encoded chunks from a capture stream.
type Recorder interface {
	// Encoding reports the negotiated encoding this recorder writes.
	Encoding() string

	// Start begins capture with the given chunk interval. A non-positive
	// interval selects DefaultChunkInterval.
	Start(interval time.Duration) error

	// Stop halts capture and blocks until every pending chunk has been
	// delivered through the handlers.
	Stop() error
}

// RecorderFactory builds recorders and answers encoding-support queries
// for negotiation.
type RecorderFactory interface {
	// Supports reports whether this factory can record the encoding.
	Supports(encoding string) bool

	// New builds a recorder for the stream with an already negotiated
	// encoding.
	New(stream device.Stream, encoding string, h Handlers) (Recorder, error)
}

// Negotiate returns the first preference entry the factory supports.
func Negotiate(f RecorderFactory, preferences []string) (string, error) {
	for _, enc := range preferences {
		if f.Supports(enc) {
			return enc, nil
		}
	}
	return "", ErrNoSupportedEncoding
}

// JoinChunks concatenates chunk payloads in delivery order into one clip.
func JoinChunks(chunks []Chunk) []byte {
	size := 0
	for _, c := range chunks {
		size += len(c.Data)
	}
	out := make([]byte, 0, size)
	for _, c := range chunks {
		out = append(out, c.Data...)
	}
	return out
}
