package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// Display modes for the live feed.
const (
	DisplayHTTP   = "http"
	DisplayWindow = "window"
	DisplayNone   = "none"
)

// Camera source kinds.
const (
	SourceDevice = "device"
	SourceFile   = "file"
	SourceUDP    = "udp"
)

// ClassRoles maps the model's class ids to the roles the classifier cares about.
type ClassRoles struct {
	Motorcycle   int `yaml:"motorcycle"`
	NoHelmet     int `yaml:"no_helmet"`
	ProperHelmet int `yaml:"proper_helmet"`
	WrongHelmet  int `yaml:"wrong_helmet"`
}

type Config struct {
	Port                 int        `yaml:"port"`
	ModelPath            string     `yaml:"model_path"`
	CameraSource         string     `yaml:"camera_source"`
	CameraIndex          int        `yaml:"camera_index"`
	CameraURI            string     `yaml:"camera_uri"`
	CameraUDPPort        int        `yaml:"camera_udp_port"`
	DefaultFPS           float64    `yaml:"default_fps"`  // Used when the device reports no frame rate
	PreSeconds           float64    `yaml:"pre_seconds"`  // Footage kept before a violation
	PostSeconds          float64    `yaml:"post_seconds"` // Footage captured after a violation
	MaxAllowedRiders     int        `yaml:"max_allowed_riders"`
	ConfidenceThreshold  float64    `yaml:"confidence_threshold"`
	ImageSize            int        `yaml:"image_size"`
	ClassLabels          []string   `yaml:"class_labels"`
	Classes              ClassRoles `yaml:"classes"`
	ViolationDirectory   string     `yaml:"violation_dir"`
	ClipExtension        string     `yaml:"clip_ext"`
	ClipCodec            string     `yaml:"clip_codec"`
	DatabasePath         string     `yaml:"database_path"`
	LogDirectory         string     `yaml:"log_dir"`
	DisplayMode          string     `yaml:"display_mode"`
	ViolationTail        int        `yaml:"violation_tail"`         // Labels returned by /violations
	ViolationLogCapacity int        `yaml:"violation_log_capacity"` // Labels kept in memory
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Port:                 5000,
		ModelPath:            filepath.Join(".", "models", "best.onnx"),
		CameraSource:         SourceDevice,
		CameraIndex:          0,
		CameraUDPPort:        9000,
		DefaultFPS:           30,
		PreSeconds:           5,
		PostSeconds:          5,
		MaxAllowedRiders:     2,
		ConfidenceThreshold:  0.25,
		ImageSize:            640,
		ClassLabels:          []string{"motorcycle", "no_helmet", "proper_helmet", "wrong_helmet"},
		Classes:              ClassRoles{Motorcycle: 0, NoHelmet: 1, ProperHelmet: 2, WrongHelmet: 3},
		ViolationDirectory:   filepath.Join(".", "violations"),
		ClipExtension:        ".avi",
		ClipCodec:            "XVID",
		DatabasePath:         filepath.Join(".", "data", "clips.db"),
		LogDirectory:         filepath.Join(".", "logs"),
		DisplayMode:          DisplayHTTP,
		ViolationTail:        10,
		ViolationLogCapacity: 1000,
	}
}

// Load builds the configuration from defaults, an optional .env file, an optional
// YAML file named by CONFIG_FILE and finally the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile overlays the YAML file at path onto cfg.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Port = getEnvAsInt("PORT", c.Port)
	c.ModelPath = getEnv("MODEL_PATH", c.ModelPath)
	c.CameraSource = strings.ToLower(getEnv("CAMERA_SOURCE", c.CameraSource))
	c.CameraIndex = getEnvAsInt("CAMERA_INDEX", c.CameraIndex)
	c.CameraURI = getEnv("CAMERA_URI", c.CameraURI)
	c.CameraUDPPort = getEnvAsInt("CAMERA_UDP_PORT", c.CameraUDPPort)
	c.DefaultFPS = getEnvAsFloat("DEFAULT_FPS", c.DefaultFPS)
	c.PreSeconds = getEnvAsFloat("PRE_SECONDS", c.PreSeconds)
	c.PostSeconds = getEnvAsFloat("POST_SECONDS", c.PostSeconds)
	c.MaxAllowedRiders = getEnvAsInt("MAX_ALLOWED_RIDERS", c.MaxAllowedRiders)
	c.ConfidenceThreshold = getEnvAsFloat("CONFIDENCE_THRESHOLD", c.ConfidenceThreshold)
	c.ImageSize = getEnvAsInt("IMAGE_SIZE", c.ImageSize)
	c.ClassLabels = getEnvAsList("CLASS_LABELS", c.ClassLabels)
	c.Classes.Motorcycle = getEnvAsInt("CLASS_MOTORCYCLE", c.Classes.Motorcycle)
	c.Classes.NoHelmet = getEnvAsInt("CLASS_NO_HELMET", c.Classes.NoHelmet)
	c.Classes.ProperHelmet = getEnvAsInt("CLASS_PROPER_HELMET", c.Classes.ProperHelmet)
	c.Classes.WrongHelmet = getEnvAsInt("CLASS_WRONG_HELMET", c.Classes.WrongHelmet)
	c.ViolationDirectory = getEnv("VIOLATION_DIR", c.ViolationDirectory)
	c.ClipExtension = getEnv("CLIP_EXT", c.ClipExtension)
	c.ClipCodec = getEnv("CLIP_CODEC", c.ClipCodec)
	c.DatabasePath = getEnv("DATABASE_PATH", c.DatabasePath)
	c.LogDirectory = getEnv("LOG_DIR", c.LogDirectory)
	c.DisplayMode = strings.ToLower(getEnv("DISPLAY_MODE", c.DisplayMode))
	c.ViolationTail = getEnvAsInt("VIOLATION_TAIL", c.ViolationTail)
	c.ViolationLogCapacity = getEnvAsInt("VIOLATION_LOG_CAPACITY", c.ViolationLogCapacity)

	if c.ClipExtension != "" && !strings.HasPrefix(c.ClipExtension, ".") {
		c.ClipExtension = "." + c.ClipExtension
	}
}

// Validate reports the first setting that would make the pipeline misbehave.
func (c *Config) Validate() error {
	switch {
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("invalid port: %d", c.Port)
	case c.DefaultFPS <= 0:
		return fmt.Errorf("default fps must be positive, got %v", c.DefaultFPS)
	case c.PreSeconds < 0 || c.PostSeconds < 0:
		return fmt.Errorf("pre/post windows must not be negative (pre=%v post=%v)", c.PreSeconds, c.PostSeconds)
	case c.MaxAllowedRiders < 0:
		return fmt.Errorf("max allowed riders must not be negative, got %d", c.MaxAllowedRiders)
	case c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1:
		return fmt.Errorf("confidence threshold must be within [0,1], got %v", c.ConfidenceThreshold)
	case c.ImageSize <= 0 || c.ImageSize%32 != 0:
		return fmt.Errorf("image size must be a positive multiple of 32, got %d", c.ImageSize)
	case len(c.ClassLabels) == 0:
		return errors.New("class labels must not be empty")
	case c.ViolationTail <= 0:
		return fmt.Errorf("violation tail must be positive, got %d", c.ViolationTail)
	case c.ViolationLogCapacity < c.ViolationTail:
		return fmt.Errorf("violation log capacity %d is smaller than tail %d", c.ViolationLogCapacity, c.ViolationTail)
	case len(c.ClipCodec) != 4:
		return fmt.Errorf("clip codec must be a 4-character code, got %q", c.ClipCodec)
	}

	switch c.CameraSource {
	case SourceDevice, SourceUDP:
	case SourceFile:
		if c.CameraURI == "" {
			return errors.New("camera uri is required for file source")
		}
	default:
		return fmt.Errorf("unknown camera source: %q", c.CameraSource)
	}

	switch c.DisplayMode {
	case DisplayHTTP, DisplayWindow, DisplayNone:
	default:
		return fmt.Errorf("unknown display mode: %q", c.DisplayMode)
	}

	roles := map[int]string{}
	for name, id := range map[string]int{
		"motorcycle":    c.Classes.Motorcycle,
		"no_helmet":     c.Classes.NoHelmet,
		"proper_helmet": c.Classes.ProperHelmet,
		"wrong_helmet":  c.Classes.WrongHelmet,
	} {
		if id < 0 || id >= len(c.ClassLabels) {
			return fmt.Errorf("class id %d for %s is outside the label table (%d labels)", id, name, len(c.ClassLabels))
		}
		if other, taken := roles[id]; taken {
			return fmt.Errorf("class id %d is assigned to both %s and %s", id, other, name)
		}
		roles[id] = name
	}

	return nil
}

// PreFrames is the pre-event buffer capacity for the given frame rate.
func (c *Config) PreFrames(fps float64) int {
	return int(math.Round(c.PreSeconds * fps))
}

// PostFrames is the number of live frames captured after a trigger.
func (c *Config) PostFrames(fps float64) int {
	return int(math.Round(c.PostSeconds * fps))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := cast.ToIntE(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := cast.ToFloat64E(value); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
