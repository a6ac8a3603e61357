package mq

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	nc "github.com/nats-io/nats.go"

	"github.com/yeisme/mediavault/pkg/configs"
)

const (
	DefaultDrainTimeout   = 30 * time.Second
	DefaultFlusherTimeout = 10 * time.Second
)

func init() {
	RegisterFactory(configs.MQTypeNATS, natsFactory)
}

// buildNatsOptions 构建 NATS 连接选项.
func buildNatsOptions(cfg *configs.MQConfig) []nc.Option {
	opts := []nc.Option{
		nc.Name(cfg.Common.ClientID),
		nc.MaxReconnects(cfg.Common.MaxReconnects),
		nc.ReconnectWait(time.Duration(cfg.Common.ReconnectWait) * time.Second),
		nc.DrainTimeout(DefaultDrainTimeout),
		nc.FlusherTimeout(DefaultFlusherTimeout),
		nc.RetryOnFailedConnect(true),
	}

	if cfg.Common.User != "" {
		opts = append(opts, nc.UserInfo(cfg.Common.User, cfg.Common.Password))
	}

	return opts
}

// buildJetStreamConfig 构建 JetStream 配置.
func buildJetStreamConfig(cfg *configs.MQConfig) nats.JetStreamConfig {
	return nats.JetStreamConfig{
		Disabled:      !cfg.NATS.JetStreamEnabled,
		AutoProvision: cfg.NATS.JetStreamAutoProvision,
		TrackMsgId:    cfg.NATS.JetStreamTrackMsgID,
		DurablePrefix: cfg.NATS.JetStreamDurablePrefix,
	}
}

// subjectCalculator 在主题前加上配置的前缀，队列组按前缀加主题命名.
func subjectCalculator(cfg *configs.MQConfig) nats.SubjectCalculator {
	return func(queueGroupPrefix, topic string) *nats.SubjectDetail {
		detail := &nats.SubjectDetail{Primary: cfg.NATS.SubjectPrefix + topic}
		if queueGroupPrefix != "" {
			detail.QueueGroup = queueGroupPrefix + "-" + topic
		}

		return detail
	}
}

// natsFactory 创建 NATS Publisher & Subscriber.
func natsFactory(_ context.Context, cfg *configs.MQConfig, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error) {
	opts := buildNatsOptions(cfg)
	jsCfg := buildJetStreamConfig(cfg)
	marshaler := &nats.JSONMarshaler{}

	if !jsCfg.Disabled {
		logger.Info("JetStream 已启用", watermill.LogFields{
			"auto_provision": jsCfg.AutoProvision,
			"durable_prefix": jsCfg.DurablePrefix,
			"subject_prefix": cfg.NATS.SubjectPrefix,
		})
	}

	pub, err := nats.NewPublisher(nats.PublisherConfig{
		URL:               cfg.Common.URL,
		NatsOptions:       opts,
		JetStream:         jsCfg,
		Marshaler:         marshaler,
		SubjectCalculator: subjectCalculator(cfg),
	}, logger)
	if err != nil {
		return nil, nil, err
	}

	sub, err := nats.NewSubscriber(nats.SubscriberConfig{
		URL:               cfg.Common.URL,
		NatsOptions:       opts,
		JetStream:         jsCfg,
		Unmarshaler:       marshaler,
		QueueGroupPrefix:  cfg.NATS.QueueGroupPrefix,
		SubjectCalculator: subjectCalculator(cfg),
	}, logger)
	if err != nil {
		_ = pub.Close()
		return nil, nil, err
	}

	return pub, sub, nil
}
