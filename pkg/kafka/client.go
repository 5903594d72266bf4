// Package kafka 提供了与 Kafka 消息队列交互的功能。
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"chat-analysis-go/internal/config"
	"chat-analysis-go/pkg/log"
	"chat-analysis-go/pkg/tasks"

	"github.com/go-redis/redis/v8"
	"github.com/segmentio/kafka-go"
)

// MaxAttempts 是单个刷新任务的最大处理次数，达到后提交 offset 不再重试。
const MaxAttempts = 3

// TaskProcessor defines the interface for any service that can process a task.
// This decouples the Kafka consumer from the concrete pipeline implementation.
type TaskProcessor interface {
	Process(ctx context.Context, task tasks.RefreshTask) error
}

// AttemptCounter 记录任务失败次数。
type AttemptCounter interface {
	Incr(ctx context.Context, taskID string) (int64, error)
	Reset(ctx context.Context, taskID string) error
}

// retryBackoff 是同一任务两次处理之间的等待时间。
var retryBackoff = 2 * time.Second

var producer *kafka.Writer

func brokers(cfg config.KafkaConfig) []string {
	var out []string
	for _, b := range strings.Split(cfg.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// InitProducer 初始化 Kafka 生产者。
func InitProducer(cfg config.KafkaConfig) {
	producer = &kafka.Writer{
		Addr:     kafka.TCP(brokers(cfg)...),
		Topic:    cfg.Topic,
		Balancer: &kafka.LeastBytes{},
	}
	log.Info("Kafka 生产者初始化成功")
}

// CloseProducer 关闭生产者。
func CloseProducer() error {
	if producer == nil {
		return nil
	}
	return producer.Close()
}

// ProduceRefreshTask 发送一个刷新任务到 Kafka。
func ProduceRefreshTask(ctx context.Context, task tasks.RefreshTask) error {
	if producer == nil {
		return errors.New("kafka producer is not initialised")
	}
	taskBytes, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return producer.WriteMessages(ctx, kafka.Message{Key: []byte(task.ID), Value: taskBytes})
}

// Queue 将刷新任务投递到 Kafka。
type Queue struct{}

// Enqueue 投递刷新任务。
func (Queue) Enqueue(ctx context.Context, task tasks.RefreshTask) error {
	return ProduceRefreshTask(ctx, task)
}

// messageReader 是消费循环用到的 kafka.Reader 子集。
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// StartConsumer 启动一个 Kafka 消费者来处理刷新任务，ctx 取消时退出。
func StartConsumer(ctx context.Context, cfg config.KafkaConfig, processor TaskProcessor, attempts AttemptCounter) {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers(cfg),
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
	log.Infof("Kafka 消费者已启动，正在监听主题 '%s'", cfg.Topic)
	consume(ctx, r, processor, attempts)
}

func consume(ctx context.Context, r messageReader, processor TaskProcessor, attempts AttemptCounter) {
	defer func() {
		if err := r.Close(); err != nil {
			log.Errorf("关闭 Kafka 消费者失败: %v", err)
		}
	}()

	for {
		m, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() == nil {
				log.Error("从 Kafka 读取消息失败", err)
			}
			return
		}
		log.Infof("收到 Kafka 消息: offset %d", m.Offset)

		// FetchMessage 不会重投未提交的消息，失败的任务在这里原地重试
		for !handleMessage(ctx, m, processor, attempts) {
			select {
			case <-ctx.Done():
				return
			case <-time.After(retryBackoff):
			}
		}
		if err := r.CommitMessages(ctx, m); err != nil {
			log.Errorf("提交 Kafka 消息 offset 失败: %v", err)
		}
	}
}

// handleMessage 处理一条消息并返回是否应提交 offset。
func handleMessage(ctx context.Context, m kafka.Message, processor TaskProcessor, attempts AttemptCounter) bool {
	var task tasks.RefreshTask
	if err := json.Unmarshal(m.Value, &task); err != nil {
		// 消息格式错误，直接提交，避免阻塞队列
		log.Errorf("无法解析 Kafka 消息: %v, value: %s", err, string(m.Value))
		return true
	}

	log.Infof("开始处理刷新任务: ID=%s, RequestedBy=%s", task.ID, task.RequestedBy)
	if err := processor.Process(ctx, task); err != nil {
		log.Errorf("处理刷新任务失败: ID=%s, Error: %v", task.ID, err)
		n, incErr := attempts.Incr(ctx, task.ID)
		if incErr != nil {
			// Redis 异常时保守处理：不提交 offset，让 Kafka 重试
			log.Errorf("记录失败次数出错: %v", incErr)
			return false
		}
		if n >= MaxAttempts {
			log.Errorf("刷新任务多次失败(>=%d)，提交 offset 终止重试: ID=%s", MaxAttempts, task.ID)
			return true
		}
		return false
	}

	log.Infof("刷新任务处理成功: ID=%s", task.ID)
	if err := attempts.Reset(ctx, task.ID); err != nil {
		log.Warnf("清理失败计数出错: %v", err)
	}
	return true
}

// RedisAttempts 使用 Redis 计数失败次数。
type RedisAttempts struct {
	Client *redis.Client
	TTL    time.Duration
}

func attemptsKey(taskID string) string {
	return fmt.Sprintf("kafka:attempts:%s", taskID)
}

// Incr 增加并返回失败次数。
func (a RedisAttempts) Incr(ctx context.Context, taskID string) (int64, error) {
	key := attemptsKey(taskID)
	n, err := a.Client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	ttl := a.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	_ = a.Client.Expire(ctx, key, ttl).Err()
	return n, nil
}

// Reset 清理失败计数。
func (a RedisAttempts) Reset(ctx context.Context, taskID string) error {
	return a.Client.Del(ctx, attemptsKey(taskID)).Err()
}

// MemoryAttempts 是进程内的失败计数，未配置 Redis 时使用。
type MemoryAttempts struct {
	mu     sync.Mutex
	counts map[string]int64
}

// Incr 增加并返回失败次数。
func (a *MemoryAttempts) Incr(_ context.Context, taskID string) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.counts == nil {
		a.counts = make(map[string]int64)
	}
	a.counts[taskID]++
	return a.counts[taskID], nil
}

// Reset 清理失败计数。
func (a *MemoryAttempts) Reset(_ context.Context, taskID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.counts, taskID)
	return nil
}
