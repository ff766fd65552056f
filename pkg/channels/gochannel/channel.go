// Package gochannel provides the in-process event transport used when no
// broker is configured.
package gochannel

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// DefaultBuffer bounds the per-subscriber queue. A schedule run emits one
// event per job, so a small buffer absorbs a whole run.
const DefaultBuffer = 256

type Option func(*gochannel.Config)

// WithBuffer overrides DefaultBuffer.
func WithBuffer(size int64) Option {
	return func(c *gochannel.Config) {
		c.OutputChannelBuffer = size
	}
}

// WithReplay keeps published events so a subscriber that attaches after a
// run still receives them, and blocks publishing until each event is acked.
func WithReplay() Option {
	return func(c *gochannel.Config) {
		c.Persistent = true
		c.BlockPublishUntilSubscriberAck = true
	}
}

// CreateChannel returns one GoChannel acting as both publisher and subscriber.
func CreateChannel(logger watermill.LoggerAdapter, opts ...Option) (*gochannel.GoChannel, *gochannel.GoChannel, error) {
	config := gochannel.Config{OutputChannelBuffer: DefaultBuffer}
	for _, opt := range opts {
		opt(&config)
	}

	pubSub := gochannel.NewGoChannel(config, logger)

	return pubSub, pubSub, nil
}
