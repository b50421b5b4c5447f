package messaging

import (
	"fmt"
	"sync"
	"time"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// Client owns the RabbitMQ connection and channel, reconnecting when the
// broker drops the connection.
type Client struct {
	config     *Config
	logger     *zap.Logger
	connection *amqp.Connection
	channel    *amqp.Channel
	mu         sync.RWMutex
	closing    bool
}

func NewClient(config *Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{config: config, logger: logger}
}

func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	for attempt := 1; attempt <= c.config.RetryCount; attempt++ {
		c.connection, err = amqp.Dial(c.config.ConnectionURL())
		if err != nil {
			c.logger.Warn("rabbitmq connection failed",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", c.config.RetryCount),
				zap.Error(err))
			if attempt < c.config.RetryCount {
				time.Sleep(c.config.RetryDelay)
				continue
			}
			return fmt.Errorf("connect to rabbitmq: %w", err)
		}

		c.channel, err = c.connection.Channel()
		if err != nil {
			c.connection.Close()
			return fmt.Errorf("open channel: %w", err)
		}

		err = c.channel.ExchangeDeclare(
			c.config.Exchange, // name
			"topic",           // type
			true,              // durable
			false,             // auto-deleted
			false,             // internal
			false,             // no-wait
			nil,               // arguments
		)
		if err != nil {
			c.channel.Close()
			c.connection.Close()
			return fmt.Errorf("declare exchange: %w", err)
		}

		c.logger.Info("connected to rabbitmq",
			zap.String("host", c.config.Host),
			zap.String("exchange", c.config.Exchange))

		go c.handleReconnection()
		return nil
	}
	return err
}

func (c *Client) handleReconnection() {
	notifyClose := make(chan *amqp.Error)
	c.connection.NotifyClose(notifyClose)

	if err := <-notifyClose; err != nil {
		c.mu.RLock()
		closing := c.closing
		c.mu.RUnlock()
		if closing {
			return
		}
		c.logger.Warn("rabbitmq connection lost, reconnecting", zap.Error(err))
		time.Sleep(time.Second * 2)
		if reconnectErr := c.Connect(); reconnectErr != nil {
			c.logger.Error("rabbitmq reconnect failed", zap.Error(reconnectErr))
		}
	}
}

func (c *Client) Channel() *amqp.Channel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.channel
}

func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connection != nil && !c.connection.IsClosed()
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closing {
		return nil
	}
	c.closing = true

	var closeErr error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			closeErr = fmt.Errorf("close channel: %w", err)
		}
	}
	if c.connection != nil {
		if err := c.connection.Close(); err != nil {
			if closeErr != nil {
				closeErr = fmt.Errorf("%v; close connection: %w", closeErr, err)
			} else {
				closeErr = fmt.Errorf("close connection: %w", err)
			}
		}
	}
	if closeErr == nil {
		c.logger.Info("rabbitmq connection closed")
	}
	return closeErr
}
