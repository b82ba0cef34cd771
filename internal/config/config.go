// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/relabs-tech/vitals_relay/internal/vitals"
)

// Config holds all application configuration values.
type Config struct {
	// Remote document store
	FirebaseBaseURL string
	FirebaseAPIKey  string
	RelayNodePath   string
	RelaySink       string // "rest", "firestore" or "mqtt"

	// Relay loop
	RelayInterval int // milliseconds
	RelayKind     vitals.Kind

	// Firestore
	FirestoreProjectID       string
	FirestoreCredentialsFile string
	FirestoreCollection      string

	// Sensor platform
	SensorSource       string // "mock", "mqtt", "serial" or "i2c"
	SensorKinds        []vitals.Kind
	SensorDeniedKinds  []vitals.Kind
	MockSampleInterval int // milliseconds
	MockBatchSize      int

	// MQTT
	MQTTBroker           string
	MQTTClientIDWatch    string
	MQTTClientIDProducer string
	MQTTClientIDConsole  string
	TopicReadings        string
	TopicRelayed         string

	// Serial
	SerialPort     string
	SerialBaudRate int

	// I2C
	I2CBus          string
	I2CAddr         uint16
	I2CPollInterval int // milliseconds

	// Display
	WebServerPort         int
	DisplayUpdateInterval int    // milliseconds
	DisplayI2CAddr        uint16 // 0 disables the OLED panel
}

// Interval helpers convert the millisecond settings.
func (c *Config) RelayEvery() time.Duration { return ms(c.RelayInterval) }
func (c *Config) MockEvery() time.Duration  { return ms(c.MockSampleInterval) }
func (c *Config) I2CEvery() time.Duration   { return ms(c.I2CPollInterval) }
func (c *Config) DisplayEvery() time.Duration {
	return ms(c.DisplayUpdateInterval)
}

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }

// defaults for every recognised key. A key missing from this table is
// rejected when it appears in the config file.
var defaults = map[string]any{
	"FIREBASE_BASE_URL": "",
	"FIREBASE_API_KEY":  "",
	"RELAY_NODE_PATH":   "heartRates",
	"RELAY_SINK":        "rest",

	"RELAY_INTERVAL": 3000,
	"RELAY_KIND":     string(vitals.Pulse),

	"FIRESTORE_PROJECT_ID":       "",
	"FIRESTORE_CREDENTIALS_FILE": "",
	"FIRESTORE_COLLECTION":       "heartRates",

	"SENSOR_SOURCE":        "mock",
	"SENSOR_KINDS":         "pulse,oxygenSaturation,respirationRate",
	"SENSOR_DENIED_KINDS":  "",
	"MOCK_SAMPLE_INTERVAL": 1000,
	"MOCK_BATCH_SIZE":      1,

	"MQTT_BROKER":             "tcp://localhost:1883",
	"MQTT_CLIENT_ID_WATCH":    "vitals-watch",
	"MQTT_CLIENT_ID_PRODUCER": "vitals-producer",
	"MQTT_CLIENT_ID_CONSOLE":  "vitals-console",
	"TOPIC_READINGS":          "vitals/readings",
	"TOPIC_RELAYED":           "vitals/relayed",

	"SERIAL_PORT":      "/dev/ttyUSB0",
	"SERIAL_BAUD_RATE": 9600,

	"I2C_BUS":           "1",
	"I2C_ADDR":          "0x50",
	"I2C_POLL_INTERVAL": 1000,

	"WEB_SERVER_PORT":         8080,
	"DISPLAY_UPDATE_INTERVAL": 500,
	"DISPLAY_I2C_ADDR":        "0",
}

// Package-level singleton: InitGlobal sets it
// once, Get reads it under a read lock.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the KEY=VALUE configuration file and returns a Config struct.
// Environment variables with the same key override file values. A missing
// file is not an error; defaults and the environment are used instead.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("env")
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if _, err := os.Stat(configPath); err == nil {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := checkKeys(v); err != nil {
			return nil, err
		}
	} else if errors.Is(err, os.ErrNotExist) {
		log.Printf("config: %s not found, using defaults and environment", configPath)
	} else {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	cfg, err := fromViper(v)
	if err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// checkKeys rejects keys that no setting reads, which are almost always typos.
func checkKeys(v *viper.Viper) error {
	for _, key := range v.AllKeys() {
		if _, ok := defaults[strings.ToUpper(key)]; !ok {
			return fmt.Errorf("unknown config key: %q", strings.ToUpper(key))
		}
	}
	return nil
}

func fromViper(v *viper.Viper) (*Config, error) {
	c := &Config{
		FirebaseBaseURL: v.GetString("FIREBASE_BASE_URL"),
		FirebaseAPIKey:  v.GetString("FIREBASE_API_KEY"),
		RelayNodePath:   v.GetString("RELAY_NODE_PATH"),
		RelaySink:       strings.ToLower(v.GetString("RELAY_SINK")),

		FirestoreProjectID:       v.GetString("FIRESTORE_PROJECT_ID"),
		FirestoreCredentialsFile: v.GetString("FIRESTORE_CREDENTIALS_FILE"),
		FirestoreCollection:      v.GetString("FIRESTORE_COLLECTION"),

		SensorSource: strings.ToLower(v.GetString("SENSOR_SOURCE")),

		MQTTBroker:           v.GetString("MQTT_BROKER"),
		MQTTClientIDWatch:    v.GetString("MQTT_CLIENT_ID_WATCH"),
		MQTTClientIDProducer: v.GetString("MQTT_CLIENT_ID_PRODUCER"),
		MQTTClientIDConsole:  v.GetString("MQTT_CLIENT_ID_CONSOLE"),
		TopicReadings:        v.GetString("TOPIC_READINGS"),
		TopicRelayed:         v.GetString("TOPIC_RELAYED"),

		SerialPort: v.GetString("SERIAL_PORT"),
		I2CBus:     v.GetString("I2C_BUS"),
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"RELAY_INTERVAL", &c.RelayInterval},
		{"MOCK_SAMPLE_INTERVAL", &c.MockSampleInterval},
		{"MOCK_BATCH_SIZE", &c.MockBatchSize},
		{"SERIAL_BAUD_RATE", &c.SerialBaudRate},
		{"I2C_POLL_INTERVAL", &c.I2CPollInterval},
		{"WEB_SERVER_PORT", &c.WebServerPort},
		{"DISPLAY_UPDATE_INTERVAL", &c.DisplayUpdateInterval},
	}
	for _, f := range ints {
		raw := strings.TrimSpace(v.GetString(f.key))
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", f.key, raw, err)
		}
		*f.dst = n
	}

	kind, err := vitals.ParseKind(v.GetString("RELAY_KIND"))
	if err != nil {
		return nil, fmt.Errorf("invalid RELAY_KIND: %w", err)
	}
	c.RelayKind = kind

	if c.SensorKinds, err = vitals.ParseKinds(v.GetString("SENSOR_KINDS")); err != nil {
		return nil, fmt.Errorf("invalid SENSOR_KINDS: %w", err)
	}
	if c.SensorDeniedKinds, err = vitals.ParseKinds(v.GetString("SENSOR_DENIED_KINDS")); err != nil {
		return nil, fmt.Errorf("invalid SENSOR_DENIED_KINDS: %w", err)
	}

	addrs := []struct {
		key string
		dst *uint16
	}{
		{"I2C_ADDR", &c.I2CAddr},
		{"DISPLAY_I2C_ADDR", &c.DisplayI2CAddr},
	}
	for _, f := range addrs {
		raw := strings.TrimSpace(v.GetString(f.key))
		addr, err := strconv.ParseUint(raw, 0, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", f.key, raw, err)
		}
		*f.dst = uint16(addr)
	}

	return c, nil
}

// ValidateSink checks the settings of the remote store selected by
// RELAY_SINK. Only binaries that submit records need them.
func (c *Config) ValidateSink() error {
	switch c.RelaySink {
	case "rest":
		if c.FirebaseBaseURL == "" {
			return fmt.Errorf("FIREBASE_BASE_URL is required")
		}
		if c.FirebaseAPIKey == "" {
			return fmt.Errorf("FIREBASE_API_KEY is required")
		}
	case "firestore":
		if c.FirestoreProjectID == "" {
			return fmt.Errorf("FIRESTORE_PROJECT_ID is required")
		}
	case "mqtt":
		if c.MQTTBroker == "" {
			return fmt.Errorf("MQTT_BROKER is required")
		}
	default:
		return fmt.Errorf("RELAY_SINK must be rest, firestore or mqtt, got %q", c.RelaySink)
	}
	return nil
}

// validate checks the settings every binary depends on.
func (c *Config) validate() error {
	switch c.SensorSource {
	case "mock", "serial", "i2c":
	case "mqtt":
		if c.MQTTBroker == "" {
			return fmt.Errorf("MQTT_BROKER is required")
		}
	default:
		return fmt.Errorf("SENSOR_SOURCE must be mock, mqtt, serial or i2c, got %q", c.SensorSource)
	}

	if c.RelayInterval <= 0 {
		return fmt.Errorf("RELAY_INTERVAL must be positive, got %d", c.RelayInterval)
	}
	if c.MockSampleInterval <= 0 {
		return fmt.Errorf("MOCK_SAMPLE_INTERVAL must be positive, got %d", c.MockSampleInterval)
	}
	if c.I2CPollInterval <= 0 {
		return fmt.Errorf("I2C_POLL_INTERVAL must be positive, got %d", c.I2CPollInterval)
	}
	if c.DisplayUpdateInterval <= 0 {
		return fmt.Errorf("DISPLAY_UPDATE_INTERVAL must be positive, got %d", c.DisplayUpdateInterval)
	}
	if c.MockBatchSize < 0 {
		return fmt.Errorf("MOCK_BATCH_SIZE must not be negative, got %d", c.MockBatchSize)
	}
	if len(c.SensorKinds) == 0 {
		return fmt.Errorf("SENSOR_KINDS must name at least one kind")
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Only the first call loads; later calls return the first call's error.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
