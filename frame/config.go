package frame

import "github.com/sirupsen/logrus"

// Config is the frame-level subset of the codec configuration: everything
// needed to shape the wire format, independent of byte-stream lifecycle
// concerns (leave_inner_open, direction) that the root package layers on
// top.
type Config struct {
	BlockMode BlockMode
	BlockSize BlockSize

	Checksum ChecksumFlags

	// HighCompression selects the slower/better-ratio block encoder. Has
	// no effect on Reader, which adapts to whatever the frame header
	// describes.
	HighCompression bool
	HCLevel         int

	// MaxBlocksPerFrame caps how many blocks accumulate in one frame
	// before Write implicitly closes it. Zero means unbounded.
	MaxBlocksPerFrame uint64

	// Logger receives Debug/Warn diagnostics. A nil Logger disables
	// logging entirely — no entry is allocated on the hot path.
	Logger *logrus.Entry

	// OnUserData, if set, is invoked synchronously by Reader each time it
	// passes over a skippable user-data frame. It has no effect on
	// Writer.
	OnUserData func(id int, data []byte)
}

// DefaultConfig returns sensible defaults: Linked blocks, 64 KiB block
// size, no checksums, unbounded frames, standard-speed encoder.
func DefaultConfig() Config {
	return Config{
		BlockMode: Linked,
		BlockSize: BlockSize64KB,
		Checksum:  ChecksumNone,
	}
}

func (c Config) logger() *logrus.Entry {
	if c.Logger != nil {
		return c.Logger
	}
	l := logrus.New()
	l.SetOutput(discardWriter{})
	return logrus.NewEntry(l)
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
