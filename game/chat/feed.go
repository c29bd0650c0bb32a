package chat

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/spirittosoul/server/cache"
	"go.uber.org/zap"
)

// Pub/sub channels carrying feed messages.
const (
	ChannelNotify = "feed:notify"
	ChannelChat   = "feed:chat"
	ChannelCue    = "feed:cue"
)

const (
	historyKey     = "feed:history"
	historyLimit   = 200
	publishTimeout = 500 * time.Millisecond
	queueSize      = 1024
)

// Kind tells the three message families apart.
type Kind string

const (
	KindNotify Kind = "notify"
	KindChat   Kind = "chat"
	KindCue    Kind = "cue"
)

// Message is one line on the feed as published and stored.
type Message struct {
	Kind    Kind      `json:"kind"`
	Title   string    `json:"title,omitempty"`
	Speaker string    `json:"speaker,omitempty"`
	Text    string    `json:"text,omitempty"`
	Cue     string    `json:"cue,omitempty"`
	At      time.Time `json:"at"`
}

// Feed is the notification, chat and audio cue sink. Every message is
// published to its channel; notifications and chat lines are also kept in
// a bounded history list so late subscribers can catch up. Sends are
// queued and written by a background worker, so a slow or unreachable
// backend never stalls the caller.
type Feed struct {
	cache  cache.Cache
	pubsub cache.PubSub
	now    func() time.Time
	logger *zap.Logger

	ch       chan outgoing
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

type outgoing struct {
	channel string
	raw     string
	keep    bool
	done    chan struct{} // set on flush markers only
}

// NewFeed creates a Feed on the given cache and pub/sub backends and starts
// its writer.
func NewFeed(c cache.Cache, ps cache.PubSub, logger *zap.Logger) *Feed {
	f := &Feed{
		cache:  c,
		pubsub: ps,
		now:    time.Now,
		logger: logger,
		ch:     make(chan outgoing, queueSize),
		stopCh: make(chan struct{}),
	}
	f.wg.Add(1)
	go f.worker()
	return f
}

// Notify publishes a titled notification.
func (f *Feed) Notify(title, message string) {
	f.send(ChannelNotify, Message{Kind: KindNotify, Title: title, Text: message}, true)
}

// Chat publishes a chat line.
func (f *Feed) Chat(speaker, text string) {
	f.send(ChannelChat, Message{Kind: KindChat, Speaker: speaker, Text: text}, true)
}

// Cue publishes an audio cue. Cues are transient and not kept in history.
func (f *Feed) Cue(name string) {
	f.send(ChannelCue, Message{Kind: KindCue, Cue: name}, false)
}

func (f *Feed) send(channel string, msg Message, keep bool) {
	msg.At = f.now()
	raw, err := json.Marshal(msg)
	if err != nil {
		f.logger.Error("feed marshal failed", zap.Error(err))
		return
	}
	select {
	case <-f.stopCh:
		return
	default:
	}
	select {
	case f.ch <- outgoing{channel: channel, raw: string(raw), keep: keep}:
	default:
		f.logger.Warn("feed queue full, dropping message", zap.String("channel", channel))
	}
}

// Flush waits until every message queued before the call is written, or
// ctx ends.
func (f *Feed) Flush(ctx context.Context) error {
	done := make(chan struct{})
	select {
	case f.ch <- outgoing{done: done}:
	case <-f.stopCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-f.stopCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop drains the queue and stops the writer. It is idempotent.
func (f *Feed) Stop() {
	f.stopOnce.Do(func() { close(f.stopCh) })
	f.wg.Wait()
}

func (f *Feed) worker() {
	defer f.wg.Done()
	for {
		select {
		case out := <-f.ch:
			f.write(out)
		case <-f.stopCh:
			for {
				select {
				case out := <-f.ch:
					f.write(out)
				default:
					return
				}
			}
		}
	}
}

func (f *Feed) write(out outgoing) {
	if out.done != nil {
		close(out.done)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if out.keep {
		if err := f.cache.LPush(ctx, historyKey, out.raw); err != nil {
			f.logger.Warn("feed history push failed", zap.Error(err))
		} else if err := f.cache.LTrim(ctx, historyKey, 0, historyLimit-1); err != nil {
			f.logger.Warn("feed history trim failed", zap.Error(err))
		}
	}
	if err := f.pubsub.Publish(ctx, out.channel, out.raw); err != nil {
		f.logger.Warn("feed publish failed", zap.String("channel", out.channel), zap.Error(err))
	}
}

// History returns up to n of the most recent notifications and chat lines,
// oldest first. Messages queued before the call are included.
func (f *Feed) History(ctx context.Context, n int) ([]Message, error) {
	if n <= 0 || n > historyLimit {
		n = historyLimit
	}
	if err := f.Flush(ctx); err != nil {
		return nil, err
	}
	raw, err := f.cache.LRange(ctx, historyKey, 0, int64(n-1))
	if err != nil {
		if cache.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	out := make([]Message, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var m Message
		if err := json.Unmarshal([]byte(raw[i]), &m); err != nil {
			f.logger.Warn("feed history entry skipped", zap.Error(err))
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// Subscribe streams live feed messages until ctx ends or cancel is called.
func (f *Feed) Subscribe(ctx context.Context) (<-chan Message, func(), error) {
	in, cancel, err := f.pubsub.Subscribe(ctx, ChannelNotify, ChannelChat, ChannelCue)
	if err != nil {
		return nil, nil, err
	}
	out := make(chan Message, 64)
	go func() {
		defer close(out)
		for raw := range in {
			var m Message
			if err := json.Unmarshal([]byte(raw.Payload), &m); err != nil {
				continue
			}
			select {
			case out <- m:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, cancel, nil
}
