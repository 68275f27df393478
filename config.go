package lz4frame

import (
	"github.com/lz4kiwi/lz4frame/frame"
	"github.com/sirupsen/logrus"
)

// Config is the full codec configuration: the frame-shaping fields
// frame.Config owns, plus the byte-stream lifecycle concerns that only make
// sense at this package's level.
type Config struct {
	BlockMode frame.BlockMode
	BlockSize frame.BlockSize
	Checksum  frame.ChecksumFlags

	HighCompression bool
	HCLevel         int

	MaxBlocksPerFrame uint64

	// LeaveInnerOpen, when true, makes Close not close the wrapped
	// io.Writer/io.Reader if it also implements io.Closer.
	LeaveInnerOpen bool

	Logger *logrus.Entry

	OnUserData func(id int, data []byte)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BlockMode: frame.Linked,
		BlockSize: frame.BlockSize64KB,
	}
}

// Option configures a Config in place, following the functional-options
// idiom: there is no CLI/file-based configuration parser behind these, just
// plain Go.
type Option func(*Config)

func WithBlockMode(m frame.BlockMode) Option {
	return func(c *Config) { c.BlockMode = m }
}

func WithBlockSize(s frame.BlockSize) Option {
	return func(c *Config) { c.BlockSize = s }
}

func WithChecksums(flags frame.ChecksumFlags) Option {
	return func(c *Config) { c.Checksum = flags }
}

// WithHighCompression selects the HC block encoder at the given level. Has
// no effect on a Decoder.
func WithHighCompression(level int) Option {
	return func(c *Config) {
		c.HighCompression = true
		c.HCLevel = level
	}
}

func WithMaxBlocksPerFrame(n uint64) Option {
	return func(c *Config) { c.MaxBlocksPerFrame = n }
}

func WithLeaveInnerOpen(v bool) Option {
	return func(c *Config) { c.LeaveInnerOpen = v }
}

func WithLogger(l *logrus.Entry) Option {
	return func(c *Config) { c.Logger = l }
}

// WithUserDataHandler registers a callback a Decoder invokes whenever it
// passes over a skippable user-data frame.
func WithUserDataHandler(fn func(id int, data []byte)) Option {
	return func(c *Config) { c.OnUserData = fn }
}

func buildConfig(opts []Option) Config {
	cfg := DefaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}

func (c Config) toFrameConfig() frame.Config {
	return frame.Config{
		BlockMode:         c.BlockMode,
		BlockSize:         c.BlockSize,
		Checksum:          c.Checksum,
		HighCompression:   c.HighCompression,
		HCLevel:           c.HCLevel,
		MaxBlocksPerFrame: c.MaxBlocksPerFrame,
		Logger:            c.Logger,
		OnUserData:        c.OnUserData,
	}
}
