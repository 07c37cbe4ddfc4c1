package mqtt

import (
	"context"
	"net"
	"net/url"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/dawnstudy/attendance/internal/conf"
	"github.com/dawnstudy/attendance/internal/errors"
	"github.com/dawnstudy/attendance/internal/logger"
	"github.com/dawnstudy/attendance/internal/observability/metrics"
	"github.com/dawnstudy/attendance/internal/privacy"
)

const (
	connectTimeout    = 30 * time.Second
	subscribeTimeout  = 10 * time.Second
	applyTimeout      = 10 * time.Second
	disconnectQuiesce = 250 // milliseconds
)

// Config holds the configuration for the presence subscriber.
type Config struct {
	Broker   string
	ClientID string
	Username string
	Password string
	Topic    string
	QoS      byte
}

// ConfigFromSettings maps the mqtt section of the settings.
func ConfigFromSettings(s conf.MQTTSettings) Config {
	return Config{
		Broker:   s.Broker,
		ClientID: s.ClientID,
		Username: s.Username,
		Password: s.Password,
		Topic:    s.Topic,
		QoS:      s.QoS,
	}
}

// Subscriber keeps the presence table in sync with the feed.
type Subscriber struct {
	config  Config
	store   PresenceStore
	metrics *metrics.MQTTMetrics
	log     logger.Logger
	now     func() time.Time

	mu     sync.Mutex
	client paho.Client
}

// NewSubscriber creates a subscriber. metrics may be nil.
func NewSubscriber(cfg Config, store PresenceStore, m *metrics.MQTTMetrics, log logger.Logger) *Subscriber {
	if log == nil {
		log = logger.Global().Module("mqtt")
	}
	return &Subscriber{config: cfg, store: store, metrics: m, log: log, now: time.Now}
}

// Connect resolves the broker, connects and subscribes. The subscription is
// renewed by the on-connect handler after every automatic reconnect.
func (s *Subscriber) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := url.Parse(s.config.Broker)
	if err != nil {
		return mqttError(privacy.WrapError(err), "parse_broker")
	}
	if host := u.Hostname(); net.ParseIP(host) == nil {
		if _, err := net.DefaultResolver.LookupHost(ctx, host); err != nil {
			return mqttError(err, "resolve_broker")
		}
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(s.config.Broker)
	opts.SetClientID(s.config.ClientID)
	opts.SetUsername(s.config.Username)
	opts.SetPassword(s.config.Password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(false)
	opts.SetOnConnectHandler(s.onConnect)
	opts.SetConnectionLostHandler(s.onConnectionLost)
	opts.SetReconnectingHandler(func(paho.Client, *paho.ClientOptions) {
		if s.metrics != nil {
			s.metrics.IncrementReconnectAttempts()
		}
	})

	s.client = paho.NewClient(opts)
	token := s.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return mqttError(errors.NewStd("connection timeout"), "connect")
	}
	if err := token.Error(); err != nil {
		return mqttError(privacy.WrapError(err), "connect")
	}
	return nil
}

// Run connects and processes events until ctx is done.
func (s *Subscriber) Run(ctx context.Context) error {
	if err := s.Connect(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	s.Disconnect()
	return nil
}

// IsConnected reports whether the broker connection is up.
func (s *Subscriber) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client != nil && s.client.IsConnected()
}

// Disconnect closes the connection to the broker.
func (s *Subscriber) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil && s.client.IsConnected() {
		s.client.Disconnect(disconnectQuiesce)
	}
	if s.metrics != nil {
		s.metrics.UpdateConnectionStatus(false)
	}
}

func (s *Subscriber) onConnect(c paho.Client) {
	s.log.Info("connected to MQTT broker", logger.String("topic", s.config.Topic))
	if s.metrics != nil {
		s.metrics.UpdateConnectionStatus(true)
	}

	token := c.Subscribe(s.config.Topic, s.config.QoS, s.onMessage)
	if !token.WaitTimeout(subscribeTimeout) || token.Error() != nil {
		s.log.Error("failed to subscribe to presence topic",
			logger.String("topic", s.config.Topic),
			logger.Error(privacy.WrapError(token.Error())))
		if s.metrics != nil {
			s.metrics.IncrementErrors()
		}
	}
}

func (s *Subscriber) onConnectionLost(_ paho.Client, err error) {
	s.log.Warn("connection to MQTT broker lost", logger.Error(privacy.WrapError(err)))
	if s.metrics != nil {
		s.metrics.UpdateConnectionStatus(false)
		s.metrics.IncrementErrors()
	}
}

func (s *Subscriber) onMessage(_ paho.Client, msg paho.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), applyTimeout)
	defer cancel()
	s.handle(ctx, msg.Payload())
}

// handle decodes and applies one payload. Failures are logged and counted;
// the feed keeps running.
func (s *Subscriber) handle(ctx context.Context, payload []byte) {
	ev, err := DecodeEvent(payload, s.now())
	if err != nil {
		s.log.Warn("dropping presence event", logger.Error(err))
		s.record("unknown", metrics.StatusError, len(payload))
		return
	}

	log := s.log.With(
		logger.String("event", ev.Event),
		logger.String("channel", ev.ChannelID),
		logger.String("member", ev.MemberID))
	if err := Apply(ctx, s.store, ev); err != nil {
		log.Error("failed to apply presence event", logger.Error(err))
		s.record(ev.Event, metrics.StatusError, len(payload))
		return
	}
	log.Debug("presence updated")
	s.record(ev.Event, metrics.StatusSuccess, len(payload))
}

func (s *Subscriber) record(event, status string, size int) {
	if s.metrics != nil {
		s.metrics.RecordMessage(event, status, size)
	}
}

func mqttError(err error, operation string) error {
	return errors.New(err).
		Component("mqtt").
		Category(errors.CategoryMQTT).
		Context("operation", operation).
		Build()
}
