// Package consumer 消费领域事件并维护读模型投影
package consumer

import (
	"context"
	"errors"
	"log/slog"

	"github.com/wyfcoding/multichainorderbook/internal/orderbook/application"
	"github.com/wyfcoding/multichainorderbook/internal/orderbook/domain"
	"github.com/wyfcoding/multichainorderbook/pkg/mq"
)

// 投影消费的主题集合
var ProjectionTopics = []string{
	domain.TopicOrderCreated,
	domain.TopicOrderFilled,
	domain.TopicTradeCompleted,
}

// ProjectionHandler 把订单事件投影为订单簿深度快照
// 消费失败只影响读模型新鲜度，不影响写路径
type ProjectionHandler struct {
	logger *slog.Logger
	query  *application.OrderBookQueryService
	orders domain.OrderRepository
	depth  int
}

// NewProjectionHandler 创建投影处理器
func NewProjectionHandler(
	query *application.OrderBookQueryService,
	orders domain.OrderRepository,
	log *slog.Logger,
) *ProjectionHandler {
	return &ProjectionHandler{
		logger: log.With("module", "projection_handler"),
		query:  query,
		orders: orders,
		depth:  50,
	}
}

// Handle 处理单条事件消息
func (h *ProjectionHandler) Handle(ctx context.Context, msg *mq.Message) error {
	switch msg.Topic {
	case domain.TopicOrderCreated:
		var event domain.OrderCreatedEvent
		if err := msg.UnmarshalPayload(&event); err != nil {
			h.logger.Error("malformed order.created event", "error", err)
			return nil
		}
		return h.refresh(ctx, event.Pair())

	case domain.TopicOrderFilled:
		var event domain.OrderFilledEvent
		if err := msg.UnmarshalPayload(&event); err != nil {
			h.logger.Error("malformed order.filled event", "error", err)
			return nil
		}
		order, err := h.orders.GetByOrderID(ctx, event.OrderID)
		if err != nil {
			h.logger.Warn("order for fill event not found", "order_id", event.OrderID, "error", err)
			return nil
		}
		return h.refresh(ctx, order.PairKey())

	case domain.TopicTradeCompleted:
		var event domain.TradeCompletedEvent
		if err := msg.UnmarshalPayload(&event); err != nil {
			h.logger.Error("malformed trade.completed event", "error", err)
			return nil
		}
		order, err := h.orders.GetByOrderID(ctx, event.TakerOrderID)
		if err != nil {
			h.logger.Warn("taker for trade event not found", "order_id", event.TakerOrderID, "error", err)
			return nil
		}
		return h.refresh(ctx, order.PairKey())
	}
	return nil
}

// Run 消费循环，直到 ctx 取消
func (h *ProjectionHandler) Run(ctx context.Context, consumer *mq.KafkaConsumer) error {
	for {
		msg, err := consumer.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			h.logger.Error("failed to read event message", "error", err)
			continue
		}
		if err := h.Handle(ctx, msg); err != nil {
			h.logger.Error("projection update failed",
				"topic", msg.Topic, "key", msg.Key, "error", err)
		}
	}
}

func (h *ProjectionHandler) refresh(ctx context.Context, pair domain.PairKey) error {
	_, err := h.query.RefreshPair(ctx, pair, h.depth)
	var unknown *domain.UnknownEntityError
	if errors.As(err, &unknown) {
		// 本实例尚未创建该订单簿，忽略
		return nil
	}
	return err
}
