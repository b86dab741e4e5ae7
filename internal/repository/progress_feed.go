package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"launchpad_backend/internal/model"
	"launchpad_backend/pkg/logger"
	"launchpad_backend/pkg/monitoring"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// ProgressFeed 基于 Redis 发布/订阅的进度实时通道
// Every persisted snapshot is published on progress:{userId}:{projectId};
// subscribers receive full snapshots, not diffs. Malformed payloads are
// logged and dropped, never surfaced to subscribers.
type ProgressFeed struct {
	Redis *redis.Client
	ctx   context.Context

	mu   sync.Mutex
	subs map[*feedSubscription]struct{}
}

type feedSubscription struct {
	pubsub *redis.PubSub
	done   chan struct{}
}

func NewProgressFeed(rdb *redis.Client) *ProgressFeed {
	return &ProgressFeed{
		Redis: rdb,
		ctx:   context.Background(),
		subs:  make(map[*feedSubscription]struct{}),
	}
}

func progressChannel(userID uint, projectID string) string {
	return fmt.Sprintf("progress:%d:%s", userID, projectID)
}

// Publish broadcasts a snapshot to every subscriber of its key.
func (f *ProgressFeed) Publish(progress *model.UserProgress) error {
	if f.Redis == nil {
		return nil
	}
	payload, err := json.Marshal(progress)
	if err != nil {
		return err
	}
	return f.Redis.Publish(f.ctx, progressChannel(progress.UserID, progress.ProjectID), payload).Err()
}

// Subscribe registers fn for pushes on the key and returns a cancel func.
// fn runs on the feed's receive goroutine; subscribers must not block.
func (f *ProgressFeed) Subscribe(userID uint, projectID string, fn func(*model.UserProgress)) (func(), error) {
	if f.Redis == nil {
		return func() {}, nil
	}

	pubsub := f.Redis.Subscribe(f.ctx, progressChannel(userID, projectID))
	sub := &feedSubscription{pubsub: pubsub, done: make(chan struct{})}

	f.mu.Lock()
	f.subs[sub] = struct{}{}
	f.mu.Unlock()

	go func() {
		ch := pubsub.Channel()
		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var snapshot model.UserProgress
				if err := json.Unmarshal([]byte(msg.Payload), &snapshot); err != nil {
					monitoring.RealtimePushCounter.WithLabelValues("decode_error").Inc()
					logger.Log.Warn("progress feed: dropping malformed push",
						zap.Uint("userId", userID),
						zap.String("projectId", projectID),
						zap.Error(err))
					continue
				}
				snapshot.Normalize()
				monitoring.RealtimePushCounter.WithLabelValues("delivered").Inc()
				fn(&snapshot)
			case <-sub.done:
				return
			}
		}
	}()

	unsubscribe := func() {
		f.mu.Lock()
		if _, ok := f.subs[sub]; ok {
			delete(f.subs, sub)
			close(sub.done)
			sub.pubsub.Close()
		}
		f.mu.Unlock()
	}
	return unsubscribe, nil
}

// Close tears down every open subscription.
func (f *ProgressFeed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for sub := range f.subs {
		close(sub.done)
		sub.pubsub.Close()
		delete(f.subs, sub)
	}
}
