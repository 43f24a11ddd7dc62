package outbound

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// ErrRateLimited is returned when the outbound bucket has no token left.
var ErrRateLimited = errors.New("outbound rate limit reached")

const defaultSendTimeout = 10 * time.Second

// Message is one reply to deliver.
type Message struct {
	ChannelID   string `json:"channel_id"`
	RecipientID string `json:"recipient_id"`
	Text        string `json:"text"`
}

// Sender is the contract channel transports implement.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender records messages instead of delivering them. It stands in for a
// channel transport where none is configured.
type LogSender struct {
	Logger *zap.Logger
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.Logger.Info("outbound message",
		zap.String("channel_id", msg.ChannelID),
		zap.String("recipient_id", msg.RecipientID),
		zap.Int("length", len(msg.Text)))
	return nil
}

// ThrottledSender takes a bucket token before every send.
type ThrottledSender struct {
	next    Sender
	bucket  *TokenBucket
	timeout time.Duration
	now     func() time.Time
}

func NewThrottledSender(next Sender, bucket *TokenBucket) *ThrottledSender {
	return &ThrottledSender{next: next, bucket: bucket, timeout: defaultSendTimeout, now: time.Now}
}

func (s *ThrottledSender) Send(ctx context.Context, msg Message) error {
	if !s.bucket.Consume(s.now()) {
		return ErrRateLimited
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.Send(ctx, msg)
}
