package rmq

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
	"text2phenotype.com/postagger/logger"
)

type Config struct {
	Host                    string `envconfig:"MDL_COMN_RMQ_HOST" required:"true"`
	Port                    string `envconfig:"MDL_COMN_RMQ_PORT" required:"true"`
	Username                string `envconfig:"MDL_COMN_RMQ_USERNAME" required:"true"`
	Password                string `envconfig:"MDL_COMN_RMQ_PASSWORD" required:"true"`
	Exchange                string `envconfig:"MDL_COMN_RMQ_DEFAULT_EXCHANGE" default:"text2phenotype-default-exchange"`
	MaxParallelRequestCount int    `envconfig:"POSTAGGER_MQ_MAX_PARALLEL_REQUESTS" default:"5"`
	TaskQueue               string `envconfig:"MDL_COMN_POS_TAGGER_TASK_QUEUE" required:"true"`
	SequencerTaskQueue      string `envconfig:"MDL_COMN_SEQUENCER_TASK_QUEUE" required:"true"`
}

func (config Config) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s", config.Username, config.Password, config.Host, config.Port)
}

// Client consumes the tagger queue on one connection and publishes to the
// sequencer on another.
type Client struct {
	Deliveries     <-chan amqp.Delivery
	ReqChanErrors  <-chan *amqp.Error
	RespChanErrors <-chan *amqp.Error
	config         Config
	reqConn        *amqp.Connection
	respConn       *amqp.Connection
	respChannel    *amqp.Channel
	posLogger      zerolog.Logger
}

func NewClient() (*Client, error) {
	posLogger := logger.NewLogger("RMQ client")
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		posLogger.Error().Err(err).Msg("Could not read env config")
		return nil, err
	}

	client := Client{config: config, posLogger: posLogger}
	if err := client.connect(); err != nil {
		client.Close()
		return nil, err
	}
	return &client, nil
}

func (c *Client) connect() error {
	var err error
	var reqChannel *amqp.Channel

	if c.respConn, c.respChannel, err = dial(c.config.URL()); err != nil {
		return fmt.Errorf("failed connection: %w", err)
	}
	if c.reqConn, reqChannel, err = dial(c.config.URL()); err != nil {
		return fmt.Errorf("failed connection: %w", err)
	}

	queue, err := reqChannel.QueueDeclarePassive(
		c.config.TaskQueue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("queue %s: %w", c.config.TaskQueue, err)
	}
	if err = reqChannel.QueueBind(queue.Name, queue.Name, c.config.Exchange, false, nil); err != nil {
		return fmt.Errorf("bind %s: %w", queue.Name, err)
	}
	if err = reqChannel.Qos(c.config.MaxParallelRequestCount, 0, false); err != nil {
		return fmt.Errorf("qos: %w", err)
	}

	c.Deliveries, err = reqChannel.Consume(queue.Name, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume deliveries: %w", err)
	}
	c.ReqChanErrors = reqChannel.NotifyClose(make(chan *amqp.Error))
	c.RespChanErrors = c.respChannel.NotifyClose(make(chan *amqp.Error))
	c.posLogger.Info().Str("queue", queue.Name).Msg("Consuming tagging tasks")
	return nil
}

func (c *Client) SendMessageToSequencer(msg amqp.Publishing) error {
	return c.respChannel.Publish(
		c.config.Exchange,
		c.config.SequencerTaskQueue,
		false,
		false,
		msg)
}

func (c *Client) Close() {
	for _, conn := range []*amqp.Connection{c.reqConn, c.respConn} {
		if conn != nil {
			_ = conn.Close()
		}
	}
}

func dial(url string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return conn, ch, nil
}
