package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger 结构化日志器（封装zap.SugaredLogger）
// 设计说明：
// 1. 统一封装zap，业务代码不直接依赖zap的API（便于以后替换实现）
// 2. 使用SugaredLogger的键值对风格：Info("msg", "key", value, ...)
// 3. 级别/格式来自配置文件的log段，启动时确定
type Logger struct {
	sugar *zap.SugaredLogger
}

// New 创建日志器
// 参数：
//   - level: debug/info/warn/error（空值按info处理）
//   - format: json（生产）或console（开发，带颜色时间戳）
//   - enableCaller: 是否记录调用位置（开发期有用，生产建议关闭）
func New(level, format string, enableCaller bool) (*Logger, error) {
	if level == "" {
		level = "info"
	}

	cfg := zap.NewProductionConfig()
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	cfg.Level = lvl
	cfg.DisableCaller = !enableCaller

	if format == "console" {
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapLogger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{sugar: zapLogger.Sugar()}, nil
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}

func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.sugar.Warnw(msg, keysAndValues...)
}

func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, keysAndValues...)
}

func (l *Logger) Fatal(msg string, keysAndValues ...interface{}) {
	l.sugar.Fatalw(msg, keysAndValues...)
}

// With 派生带固定字段的子日志器（如request_id）
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{sugar: l.sugar.With(keysAndValues...)}
}

// Sync 刷新缓冲区（进程退出前调用）
func (l *Logger) Sync() {
	_ = l.sugar.Sync()
}

// =========================================
// 进程级默认日志器
// =========================================
// 说明：pkg/response等通用包需要记录日志但不适合做构造注入，
// 提供一个进程级默认实例。main启动时调用Init，之前的日志丢弃（Nop）。

var std = &Logger{sugar: zap.NewNop().Sugar()}

// Init 初始化进程级默认日志器（仅在main启动时调用一次）
func Init(level, format string, enableCaller bool) error {
	l, err := New(level, format, enableCaller)
	if err != nil {
		return err
	}
	std = l
	return nil
}

// L 获取进程级默认日志器
func L() *Logger {
	return std
}
