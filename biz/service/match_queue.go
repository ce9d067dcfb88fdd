package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/segmentio/kafka-go"

	kafkaDal "spotex/biz/dal/kafka"
	"spotex/conf"
)

// MatchAttemptMsg 撮合任务消息：只带订单ID，撮合端自行查库
type MatchAttemptMsg struct {
	OrderID string `json:"order_id"`
}

func matchAttemptsTopic() string {
	topic, ok := conf.GetConf().Kafka.Topics["match_attempts"]
	if !ok {
		panic("kafka topic match_attempts not configured")
	}
	return topic
}

// 测试替换点
var enqueueMatchFn = EnqueueMatchAttempt

// publishTradeEvent 成交事件进 Kafka，供行情/清算等下游消费
var publishTradeEvent = func(ctx context.Context, tradeID string, msg []byte) {
	topic, ok := conf.GetConf().Kafka.Topics["trades"]
	if !ok {
		return
	}
	if err := kafkaDal.GetWriter(topic).WriteMessages(ctx, kafka.Message{Value: msg}); err != nil {
		hlog.Errorf("成交事件写入Kafka失败, trade_id=%s, err=%v", tradeID, err)
	}
}

// EnqueueMatchAttempt 下单事务提交后调用，同步写入保证任务落盘。
// 队列至少一次投递，撮合端靠订单状态复查实现幂等
func EnqueueMatchAttempt(ctx context.Context, orderID string) error {
	msg, err := json.Marshal(MatchAttemptMsg{OrderID: orderID})
	if err != nil {
		return err
	}
	return kafkaDal.GetWriter(matchAttemptsTopic()).WriteMessages(ctx, kafka.Message{
		Key:   []byte(orderID),
		Value: msg,
	})
}

var matchConsumerClose chan struct{}

// StartMatchConsumers 启动撮合消费组，worker 数量由配置决定
func StartMatchConsumers(m *MatchEngine) {
	matchConsumerClose = make(chan struct{})
	cfg := conf.GetConf().MatchEngine
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		go matchConsumerWorker(i, m, cfg)
	}
}

// ShutdownMatchConsumers 通知所有 worker 退出
func ShutdownMatchConsumers() {
	if matchConsumerClose != nil {
		close(matchConsumerClose)
	}
}

func matchConsumerWorker(idx int, m *MatchEngine, cfg conf.MatchEngine) {
	groupID := cfg.GroupID
	if groupID == "" {
		groupID = "spotex-match-engine"
	}
	r := kafkaDal.NewReader(matchAttemptsTopic(), groupID)
	defer func() { _ = r.Close() }()
	hlog.Infof("[MatchConsumer-%d] 启动, topic=%s, group=%s", idx, matchAttemptsTopic(), groupID)

	for {
		select {
		case <-matchConsumerClose:
			return
		default:
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		msg, err := r.FetchMessage(ctx)
		cancel()
		if err != nil {
			continue
		}

		var attempt MatchAttemptMsg
		if err := json.Unmarshal(msg.Value, &attempt); err != nil {
			hlog.Errorf("[MatchConsumer-%d] 非法消息, err=%v", idx, err)
		} else {
			processMatchAttempt(idx, m, attempt.OrderID, cfg)
		}

		// 处理完成后再提交偏移：崩溃时消息重投，订单状态复查兜底
		if err := r.CommitMessages(context.Background(), msg); err != nil {
			hlog.Errorf("[MatchConsumer-%d] 提交偏移失败, err=%v", idx, err)
		}
	}
}

// processMatchAttempt 执行一次撮合尝试，死锁/序列化冲突按配置重试
func processMatchAttempt(idx int, m *MatchEngine, orderID string, cfg conf.MatchEngine) {
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	backoff := time.Duration(cfg.RetryBackoffMs) * time.Millisecond
	if backoff <= 0 {
		backoff = 50 * time.Millisecond
	}

	for attempt := 0; ; attempt++ {
		_, err := m.MatchOrder(context.Background(), orderID)
		if err == nil {
			return
		}
		if !isRetryableTxError(err) || attempt >= maxRetries {
			hlog.Errorf("[MatchConsumer-%d] 撮合失败, order_id=%s, attempt=%d, err=%v", idx, orderID, attempt, err)
			return
		}
		hlog.Warnf("[MatchConsumer-%d] 锁冲突重试, order_id=%s, attempt=%d", idx, orderID, attempt+1)
		time.Sleep(backoff * time.Duration(attempt+1))
	}
}

// isRetryableTxError 死锁(40P01)与序列化失败(40001)可重试
func isRetryableTxError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40P01" || pgErr.Code == "40001"
	}
	return false
}
