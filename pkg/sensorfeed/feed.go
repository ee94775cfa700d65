package sensorfeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	dashboard "github.com/agrik/agrik-dashboard/components/dashboard"
)

const (
	defaultTopic          = "agrik/sensors/+"
	defaultWindow         = 24
	defaultMaxTemperature = 35
	defaultMinHumidity    = 20
	disconnectQuiesce     = 250
)

// ErrUnknownSensor reports a reading for a sensor the feed does not track.
var ErrUnknownSensor = errors.New("sensorfeed: unknown sensor")

// Config configures the MQTT feed.
type Config struct {
	Broker   string
	Topic    string
	ClientID string
	QoS      byte
	// Window bounds the number of series points kept.
	Window int
	// Readings above MaxTemperature or below MinHumidity count as alerts. Nil selects
	// 35°C and 20%; zero is a valid threshold.
	MaxTemperature *float64
	MinHumidity    *float64
	Logger         *slog.Logger
	Now            func() time.Time
}

// Reading is the JSON message published by field devices.
type Reading struct {
	SensorID    string    `json:"sensor_id"`
	Temperature *float64  `json:"temperature,omitempty"`
	Humidity    *float64  `json:"humidity,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

type latest struct {
	temperature *float64
	humidity    *float64
}

// Feed is a dashboard.SensorProvider kept current by MQTT readings. It starts from a base snapshot
// (usually the fixtures) and replaces the base series with live points on the first reading.
type Feed struct {
	cfg            Config
	logger         *slog.Logger
	maxTemperature float64
	minHumidity    float64

	mu       sync.RWMutex
	snapshot dashboard.FieldSnapshot
	times    []time.Time
	live     bool
	latest   map[string]latest

	client mqtt.Client
}

var _ dashboard.SensorProvider = (*Feed)(nil)

// New builds a feed seeded with base.
func New(cfg Config, base dashboard.FieldSnapshot) *Feed {
	if cfg.Topic == "" {
		cfg.Topic = defaultTopic
	}
	if cfg.Window <= 0 {
		cfg.Window = defaultWindow
	}
	maxTemperature, minHumidity := float64(defaultMaxTemperature), float64(defaultMinHumidity)
	if cfg.MaxTemperature != nil {
		maxTemperature = *cfg.MaxTemperature
	}
	if cfg.MinHumidity != nil {
		minHumidity = *cfg.MinHumidity
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Feed{
		cfg:            cfg,
		logger:         logger.With("component", "sensorfeed"),
		maxTemperature: maxTemperature,
		minHumidity:    minHumidity,
		snapshot:       dashboard.CloneSnapshot(base),
		latest:         make(map[string]latest),
	}
}

// Snapshot returns a copy of the current field state.
func (f *Feed) Snapshot(context.Context) (dashboard.FieldSnapshot, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return dashboard.CloneSnapshot(f.snapshot), nil
}

// Start connects to the broker and subscribes to the readings topic.
func (f *Feed) Start(ctx context.Context) error {
	if f.cfg.Broker == "" {
		return errors.New("sensorfeed: broker is required")
	}
	opts := mqtt.NewClientOptions().AddBroker(f.cfg.Broker)
	if f.cfg.ClientID != "" {
		opts.SetClientID(f.cfg.ClientID)
	}
	opts.SetAutoReconnect(true)
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		if token := c.Subscribe(f.cfg.Topic, f.cfg.QoS, f.HandleMessage); token.Wait() && token.Error() != nil {
			f.logger.Error("subscribe failed", "topic", f.cfg.Topic, "error", token.Error())
			return
		}
		f.logger.Info("subscribed", "topic", f.cfg.Topic)
	})
	client := mqtt.NewClient(opts)
	token := client.Connect()
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("sensorfeed: connect %s: %w", f.cfg.Broker, err)
	}
	f.mu.Lock()
	f.client = client
	f.mu.Unlock()
	return nil
}

// Stop unsubscribes and disconnects.
func (f *Feed) Stop() {
	f.mu.Lock()
	client := f.client
	f.client = nil
	f.mu.Unlock()
	if client == nil {
		return
	}
	client.Unsubscribe(f.cfg.Topic).Wait()
	client.Disconnect(disconnectQuiesce)
}

// HandleMessage is the MQTT message callback.
func (f *Feed) HandleMessage(_ mqtt.Client, msg mqtt.Message) {
	var reading Reading
	if err := json.Unmarshal(msg.Payload(), &reading); err != nil {
		f.logger.Warn("discarding malformed reading", "topic", msg.Topic(), "error", err)
		return
	}
	if err := f.Apply(reading); err != nil {
		f.logger.Warn("discarding reading", "topic", msg.Topic(), "sensor", reading.SensorID, "error", err)
	}
}

// Apply folds one reading into the snapshot: the sensor's marker value, the summary tiles,
// and the bounded chronological series.
func (f *Feed) Apply(reading Reading) error {
	if reading.SensorID == "" {
		return errors.New("sensorfeed: sensor_id is required")
	}
	if reading.Temperature == nil && reading.Humidity == nil {
		return errors.New("sensorfeed: reading carries no measurement")
	}
	if reading.Timestamp.IsZero() {
		reading.Timestamp = f.cfg.Now()
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	idx := -1
	for i, sensor := range f.snapshot.Sensors {
		if sensor.ID == reading.SensorID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownSensor, reading.SensorID)
	}

	prev := f.latest[reading.SensorID]
	if reading.Temperature != nil {
		prev.temperature = reading.Temperature
	}
	if reading.Humidity != nil {
		prev.humidity = reading.Humidity
	}
	f.latest[reading.SensorID] = prev

	sensor := &f.snapshot.Sensors[idx]
	if reading.Temperature != nil {
		sensor.DisplayValue = formatTemperature(*reading.Temperature)
		sensor.DisplayValueLocalized = nil
		f.snapshot.Summary.Temperature = sensor.DisplayValue
	} else {
		value := formatHumidity(*reading.Humidity)
		sensor.DisplayValue = "Humidité " + value
		sensor.DisplayValueLocalized = map[string]string{
			string(dashboard.LanguageFR): "Humidité " + value,
			string(dashboard.LanguageEN): "Humidity " + value,
		}
		f.snapshot.Summary.Humidity = value
	}
	if reading.Temperature != nil && reading.Humidity != nil {
		f.snapshot.Summary.Humidity = formatHumidity(*reading.Humidity)
	}
	f.snapshot.Summary.Alerts = f.countAlerts()
	f.appendPoint(reading)
	return nil
}

func (f *Feed) appendPoint(reading Reading) {
	if !f.live {
		f.snapshot.Series = nil
		f.times = nil
		f.live = true
	}
	pos := sort.Search(len(f.times), func(i int) bool { return f.times[i].After(reading.Timestamp) })
	// A reading carrying one measurement inherits the other from the point just before it.
	point := dashboard.SensorTimeSeriesPoint{Timestamp: reading.Timestamp.Format(time.DateTime)}
	if pos > 0 {
		prev := f.snapshot.Series[pos-1]
		point.Temperature, point.Humidity = prev.Temperature, prev.Humidity
	}
	if reading.Temperature != nil {
		point.Temperature = *reading.Temperature
	}
	if reading.Humidity != nil {
		point.Humidity = *reading.Humidity
	}
	f.times = append(f.times, time.Time{})
	copy(f.times[pos+1:], f.times[pos:])
	f.times[pos] = reading.Timestamp
	f.snapshot.Series = append(f.snapshot.Series, dashboard.SensorTimeSeriesPoint{})
	copy(f.snapshot.Series[pos+1:], f.snapshot.Series[pos:])
	f.snapshot.Series[pos] = point

	if over := len(f.times) - f.cfg.Window; over > 0 {
		f.times = append([]time.Time(nil), f.times[over:]...)
		f.snapshot.Series = append([]dashboard.SensorTimeSeriesPoint(nil), f.snapshot.Series[over:]...)
	}
}

func (f *Feed) countAlerts() int {
	alerts := 0
	for _, l := range f.latest {
		if l.temperature != nil && *l.temperature > f.maxTemperature {
			alerts++
		}
		if l.humidity != nil && *l.humidity < f.minHumidity {
			alerts++
		}
	}
	return alerts
}

func formatTemperature(v float64) string {
	return fmt.Sprintf("%.0f°C", v)
}

func formatHumidity(v float64) string {
	return fmt.Sprintf("%.0f%%", v)
}
