// Package messaging 提供基于 Kafka 的领域事件发布
package messaging

import (
	"context"
	"log/slog"

	"github.com/wyfcoding/multichainorderbook/internal/orderbook/domain"
	"github.com/wyfcoding/multichainorderbook/pkg/mq"
)

// KafkaPublisher 实现 domain.EventPublisher
// 投递语义为 at-most-once：发布失败记录日志但不阻塞业务流程
type KafkaPublisher struct {
	producer *mq.KafkaProducer
	logger   *slog.Logger
}

// NewKafkaPublisher 创建事件发布器
func NewKafkaPublisher(producer *mq.KafkaProducer, logger *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		logger:   logger.With("module", "event_publisher"),
	}
}

// Publish 发布领域事件到对应主题
func (p *KafkaPublisher) Publish(ctx context.Context, topic string, key string, event any) error {
	if err := p.producer.SendMessage(ctx, topic, key, event); err != nil {
		p.logger.Error("failed to publish event",
			"topic", topic,
			"key", key,
			"error", err,
		)
		return err
	}
	return nil
}

// NoopPublisher 空实现，本地模式下使用
type NoopPublisher struct{}

// Publish 丢弃事件
func (NoopPublisher) Publish(context.Context, string, string, any) error { return nil }

var (
	_ domain.EventPublisher = (*KafkaPublisher)(nil)
	_ domain.EventPublisher = NoopPublisher{}
)
