package cache

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/dugtrio-labs/dugtrio/internal/constants"
	"github.com/dugtrio-labs/dugtrio/internal/models"
)

// PubSubManager fans newly collected posts out over Redis Pub/Sub.
type PubSubManager struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewPubSubManager(addr string, logger *logrus.Logger) *PubSubManager {
	if logger == nil {
		logger = logrus.New()
	}
	return &PubSubManager{
		client: redis.NewClient(&redis.Options{
			Addr: addr,
			DB:   0,
		}),
		logger: logger,
	}
}

// PublishPost publishes a post to the firehose channel and its
// project-specific channel.
func (p *PubSubManager) PublishPost(ctx context.Context, post *models.Post) error {
	data, err := json.Marshal(post)
	if err != nil {
		return err
	}

	channels := []string{
		constants.PubSubChannelPosts,
		constants.PubSubChannelProjectPrefix + post.ProjectTag,
	}

	pipe := p.client.Pipeline()
	for _, channel := range channels {
		pipe.Publish(ctx, channel, data)
	}

	_, err = pipe.Exec(ctx)
	return err
}

// Subscribe consumes posts from a channel until the context is canceled.
func (p *PubSubManager) Subscribe(ctx context.Context, channel string, handler func(*models.Post)) error {
	pubsub := p.client.Subscribe(ctx, channel)
	defer pubsub.Close()

	p.logger.WithField("channel", channel).Info("subscribed")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var post models.Post
			if err := json.Unmarshal([]byte(msg.Payload), &post); err != nil {
				p.logger.WithError(err).Warn("error unmarshaling post")
				continue
			}
			handler(&post)
		}
	}
}

// PSubscribe consumes posts from all channels matching a pattern, e.g.
// "posts:project:*".
func (p *PubSubManager) PSubscribe(ctx context.Context, pattern string, handler func(*models.Post)) error {
	pubsub := p.client.PSubscribe(ctx, pattern)
	defer pubsub.Close()

	p.logger.WithField("pattern", pattern).Info("subscribed to pattern")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var post models.Post
			if err := json.Unmarshal([]byte(msg.Payload), &post); err != nil {
				p.logger.WithError(err).Warn("error unmarshaling post")
				continue
			}
			handler(&post)
		}
	}
}

func (p *PubSubManager) Close() error {
	return p.client.Close()
}
