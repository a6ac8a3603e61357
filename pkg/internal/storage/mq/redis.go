package mq

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"github.com/yeisme/mediavault/pkg/configs"
)

// DefaultChannelBufferSize 每个订阅的输出缓冲.
const DefaultChannelBufferSize = 100

// redisFrame Redis 频道上传输的消息，保留 watermill 的 UUID 与元数据.
type redisFrame struct {
	UUID     string            `json:"uuid"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Payload  []byte            `json:"payload"`
}

// RedisPubSub 基于 Redis PUBLISH/SUBSCRIBE 的 Publisher 与 Subscriber.
// Redis 频道不持久化，订阅建立之前发布的事件会丢失.
type RedisPubSub struct {
	client *redis.Client
	prefix string
	logger watermill.LoggerAdapter

	mu      sync.Mutex
	subs    []*redis.PubSub
	closeCh chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

func init() {
	RegisterFactory(configs.MQTypeRedis, redisFactory)
}

// redisFactory 连接 Redis 并返回同一个对象作为 Publisher 与 Subscriber.
func redisFactory(ctx context.Context, cfg *configs.MQConfig, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("ping redis %s: %w", cfg.Redis.Addr, err)
	}

	ps := &RedisPubSub{
		client:  rdb,
		prefix:  cfg.Redis.ChannelPrefix,
		logger:  logger,
		closeCh: make(chan struct{}),
	}

	return ps, ps, nil
}

// Publish 逐条发布消息.
func (p *RedisPubSub) Publish(topic string, msgs ...*message.Message) error {
	select {
	case <-p.closeCh:
		return errors.New("redis pubsub closed")
	default:
	}

	for _, msg := range msgs {
		data, err := sonic.Marshal(redisFrame{UUID: msg.UUID, Metadata: msg.Metadata, Payload: msg.Payload})
		if err != nil {
			return fmt.Errorf("encode message %s: %w", msg.UUID, err)
		}

		if err := p.client.Publish(msg.Context(), p.prefix+topic, data).Err(); err != nil {
			return fmt.Errorf("publish %s: %w", topic, err)
		}
	}

	return nil
}

// Subscribe 为每次调用建立独立的 Redis 订阅，ctx 结束或 Close 时关闭输出通道.
// 投递后等待 Ack/Nack；Nack 的消息记录日志后丢弃，Redis 频道不支持重投.
func (p *RedisPubSub) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	select {
	case <-p.closeCh:
		return nil, errors.New("redis pubsub closed")
	default:
	}

	sub := p.client.Subscribe(ctx, p.prefix+topic)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}

	p.mu.Lock()
	p.subs = append(p.subs, sub)
	p.mu.Unlock()

	out := make(chan *message.Message, DefaultChannelBufferSize)
	fields := watermill.LogFields{"topic": topic}

	p.wg.Add(1)

	go func() {
		defer p.wg.Done()
		defer close(out)

		in := sub.Channel()

		for {
			var raw *redis.Message

			select {
			case <-p.closeCh:
				return
			case <-ctx.Done():
				p.release(sub)
				return
			case m, ok := <-in:
				if !ok {
					return
				}

				raw = m
			}

			var frame redisFrame
			if err := sonic.UnmarshalString(raw.Payload, &frame); err != nil {
				p.logger.Error("drop undecodable redis message", err, fields)
				continue
			}

			msg := message.NewMessage(frame.UUID, frame.Payload)
			for k, v := range frame.Metadata {
				msg.Metadata.Set(k, v)
			}

			msg.SetContext(ctx)

			select {
			case out <- msg:
			case <-p.closeCh:
				return
			case <-ctx.Done():
				p.release(sub)
				return
			}

			select {
			case <-msg.Acked():
			case <-msg.Nacked():
				p.logger.Info("redis message nacked, not redelivered", fields.Add(watermill.LogFields{"uuid": msg.UUID}))
			case <-p.closeCh:
				return
			case <-ctx.Done():
				p.release(sub)
				return
			}
		}
	}()

	return out, nil
}

// release 关闭单个订阅并从列表移除.
func (p *RedisPubSub) release(sub *redis.PubSub) {
	p.mu.Lock()
	p.subs = slices.DeleteFunc(p.subs, func(s *redis.PubSub) bool { return s == sub })
	p.mu.Unlock()

	_ = sub.Close()
}

// Close 关闭全部订阅与连接，可重复调用.
func (p *RedisPubSub) Close() error {
	var err error

	p.once.Do(func() {
		close(p.closeCh)

		p.mu.Lock()
		for _, sub := range p.subs {
			_ = sub.Close()
		}
		p.subs = nil
		p.mu.Unlock()

		p.wg.Wait()

		err = p.client.Close()
	})

	return err
}
