package logging

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Level  string
	Format string
}

var (
	baseLogger *zap.Logger
	sugar      *zap.SugaredLogger
	sessionID  atomic.Value
	utterance  uint64
)

func init() {
	baseLogger = zap.NewNop()
	sugar = baseLogger.Sugar()
}

func InitFromEnv() error {
	return Init(Config{
		Level:  os.Getenv("LOG_LEVEL"),
		Format: os.Getenv("LOG_FORMAT"),
	})
}

func Init(cfg Config) error {
	logger, err := Build(cfg)
	if err != nil {
		return err
	}
	baseLogger = logger
	sugar = logger.Sugar()
	return nil
}

// Build 根据配置构建 zap logger，不替换全局 logger
func Build(cfg Config) (*zap.Logger, error) {
	level := strings.ToLower(strings.TrimSpace(cfg.Level))
	if level == "" {
		level = "info"
	}

	format := strings.ToLower(strings.TrimSpace(cfg.Format))
	if format == "" {
		format = "console"
	}

	var zapCfg zap.Config
	switch format {
	case "json":
		zapCfg = zap.NewProductionConfig()
	case "console":
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return nil, fmt.Errorf("invalid LOG_FORMAT: %s", cfg.Format)
	}

	atomLevel := zap.NewAtomicLevel()
	if err := atomLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %s", cfg.Level)
	}
	zapCfg.Level = atomLevel

	logger, err := zapCfg.Build(
		zap.AddCaller(),
		zap.AddCallerSkip(1),
	)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

// Replace 替换全局 logger，主要供测试使用
func Replace(logger *zap.Logger) {
	baseLogger = logger
	sugar = logger.Sugar()
}

func Sync() {
	if baseLogger != nil {
		_ = baseLogger.Sync()
	}
}

func SetSessionID(id string) {
	if strings.TrimSpace(id) == "" {
		return
	}
	sessionID.Store(id)
}

func NewSessionID() string {
	return uuid.NewString()
}

// StartUtterance 每次识别出最终结果时递增
func StartUtterance() uint64 {
	return atomic.AddUint64(&utterance, 1)
}

func Debugf(format string, args ...interface{}) {
	withFields().Debugf(format, args...)
}

func Infof(format string, args ...interface{}) {
	withFields().Infof(format, args...)
}

func Warnf(format string, args ...interface{}) {
	withFields().Warnf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	withFields().Errorf(format, args...)
}

func Fatalf(format string, args ...interface{}) {
	withFields().Fatalf(format, args...)
}

func withFields() *zap.SugaredLogger {
	sid, _ := sessionID.Load().(string)
	if sid == "" {
		sid = "session-unknown"
	}
	current := atomic.LoadUint64(&utterance)
	return sugar.With(
		"session_id", sid,
		"utterance", current,
		"log_id", fmt.Sprintf("%s-%d", sid, current),
	)
}
