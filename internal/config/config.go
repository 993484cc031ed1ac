package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server  ServerConfig
	Shift   ShiftConfig
	Toolkit ToolkitConfig
	Storage StorageConfig
}

type ServerConfig struct {
	Host          string
	Port          string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	MaxUploadSize int64
}

// ShiftConfig holds the batch-wide defaults used when a request leaves them
// unset.
type ShiftConfig struct {
	DefaultTemplate string
	AlterHash       bool
	MaxDaysBack     int
	ImageWorkers    int
}

type ToolkitConfig struct {
	FFmpegPath   string
	WorkDir      string
	VideoCRF     int
	VideoPreset  string
	AudioBitrate string
}

type StorageConfig struct {
	OutputDir       string
	ResultTTL       time.Duration
	QueueSize       int
	CleanupSchedule string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:          getEnv("HOST", "127.0.0.1"),
			Port:          getEnv("PORT", "8080"),
			ReadTimeout:   getDuration("READ_TIMEOUT", 60*time.Second),
			WriteTimeout:  getDuration("WRITE_TIMEOUT", 10*time.Minute),
			MaxUploadSize: getEnvAsInt64("MAX_UPLOAD_SIZE", 512*1024*1024), // 512MB
		},
		Shift: ShiftConfig{
			DefaultTemplate: getEnv("DEFAULT_TEMPLATE", "random"),
			AlterHash:       getEnvAsBool("ALTER_HASH", true),
			MaxDaysBack:     getEnvAsInt("MAX_DAYS_BACK", 30),
			ImageWorkers:    getEnvAsInt("IMAGE_WORKERS", 1),
		},
		Toolkit: ToolkitConfig{
			FFmpegPath:   getEnv("FFMPEG_PATH", "ffmpeg"),
			WorkDir:      getEnv("TOOLKIT_WORK_DIR", os.TempDir()),
			VideoCRF:     getEnvAsInt("VIDEO_CRF", 18),
			VideoPreset:  getEnv("VIDEO_PRESET", "fast"),
			AudioBitrate: getEnv("AUDIO_BITRATE", "192k"),
		},
		Storage: StorageConfig{
			OutputDir:       getEnv("OUTPUT_DIR", "./shifted"),
			ResultTTL:       getDuration("RESULT_TTL", time.Hour),
			QueueSize:       getEnvAsInt("QUEUE_SIZE", 16),
			CleanupSchedule: getEnv("CLEANUP_SCHEDULE", "@every 5m"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

func (c *Config) Validate() error {
	if c.Shift.MaxDaysBack < 0 {
		return errors.New("MAX_DAYS_BACK must not be negative")
	}
	if c.Shift.ImageWorkers < 1 {
		return errors.New("IMAGE_WORKERS must be at least 1")
	}
	if strings.TrimSpace(c.Toolkit.FFmpegPath) == "" {
		return errors.New("FFMPEG_PATH must not be empty")
	}
	if c.Toolkit.VideoCRF < 0 || c.Toolkit.VideoCRF > 51 {
		return fmt.Errorf("VIDEO_CRF %d out of range 0-51", c.Toolkit.VideoCRF)
	}
	bitrate, err := normalizeAudioBitrate(c.Toolkit.AudioBitrate)
	if err != nil {
		return err
	}
	c.Toolkit.AudioBitrate = bitrate

	if c.Storage.OutputDir == "" {
		return errors.New("OUTPUT_DIR must not be empty")
	}
	if c.Storage.QueueSize < 1 {
		return errors.New("QUEUE_SIZE must be at least 1")
	}
	if c.Storage.ResultTTL <= 0 {
		return errors.New("RESULT_TTL must be positive")
	}
	if c.Server.MaxUploadSize <= 0 {
		return errors.New("MAX_UPLOAD_SIZE must be positive")
	}
	return nil
}

// normalizeAudioBitrate accepts "192", "192k", "192K" or "192kbps" and
// returns "<n>k".
func normalizeAudioBitrate(raw string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return "", errors.New("AUDIO_BITRATE must not be empty")
	}
	s = strings.TrimSuffix(s, "kbps")
	s = strings.TrimSuffix(s, "k")
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return "", fmt.Errorf("invalid AUDIO_BITRATE %q", raw)
	}
	return strconv.Itoa(n) + "k", nil
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsInt64(key string, defaultVal int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}
