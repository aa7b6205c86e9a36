package mq

import (
	"encoding/json"
	"fmt"

	"github.com/3Eeeecho/go-datahub/internal/pkg/logger"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// Publisher 发布消息到指定队列
type Publisher interface {
	Publish(queueName string, body []byte) error
}

// Consumer 声明队列并注册消费回调
type Consumer interface {
	DeclareQueue(queueName string) (amqp.Queue, error)
	Consume(queueName string, handler func(msg amqp.Delivery)) error
}

// RabbitMQClient 封装了 RabbitMQ 的连接和通道
type RabbitMQClient struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

var (
	_ Publisher = (*RabbitMQClient)(nil)
	_ Consumer  = (*RabbitMQClient)(nil)
)

// NewRabbitMQClient 创建一个新的 RabbitMQ 客户端实例
// prefetch > 0 时限制每个消费者未确认的消息数
func NewRabbitMQClient(amqpURL string, prefetch int) (*RabbitMQClient, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	if prefetch > 0 {
		if err := ch.Qos(prefetch, 0, false); err != nil {
			ch.Close()
			conn.Close()
			return nil, fmt.Errorf("failed to set channel qos: %w", err)
		}
	}

	return &RabbitMQClient{
		conn:    conn,
		channel: ch,
	}, nil
}

// DeclareQueue 声明一个持久化队列
func (c *RabbitMQClient) DeclareQueue(queueName string) (amqp.Queue, error) {
	return c.channel.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
}

// Publish 通过默认交换机投递持久化消息
func (c *RabbitMQClient) Publish(queueName string, body []byte) error {
	return c.channel.Publish(
		"",        // exchange (default)
		queueName, // routing key (queue name)
		false,     // mandatory
		false,     // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
}

// Consume 注册消费者, 消息需要在 handler 中手动 ack
func (c *RabbitMQClient) Consume(queueName string, handler func(msg amqp.Delivery)) error {
	msgs, err := c.channel.Consume(
		queueName,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to register a consumer: %w", err)
	}

	go func() {
		for msg := range msgs {
			handler(msg)
		}
		logger.Warn("Delivery channel closed", zap.String("queue", queueName))
	}()

	logger.Info("Waiting for messages", zap.String("queue", queueName))
	return nil
}

// NotifyClose 连接断开时收到通知
func (c *RabbitMQClient) NotifyClose() <-chan *amqp.Error {
	return c.conn.NotifyClose(make(chan *amqp.Error, 1))
}

// Close the channel and connection
func (c *RabbitMQClient) Close() {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		c.conn.Close()
	}
}

// PublishJSON 序列化后投递
func PublishJSON(p Publisher, queueName string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	if err := p.Publish(queueName, body); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", queueName, err)
	}
	return nil
}
