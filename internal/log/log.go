package log

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger 全局日志对象，Init 之前为 no-op
var Logger = zap.NewNop().Sugar()

// LogConfig 日志配置
type LogConfig struct {
	Filename   string        // 日志文件路径，为空时写到 stderr
	MaxSize    int           // 单个日志文件最大大小，单位MB
	MaxBackups int           // 最大保留的旧日志文件数量
	MaxAge     int           // 旧日志文件保留的最大天数
	Compress   bool          // 是否压缩旧日志文件
	Level      zapcore.Level // 日志级别
	Console    bool          // 写文件时是否同时输出到 stderr
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		MaxSize:    10,
		MaxBackups: 10,
		MaxAge:     30,
		Compress:   true,
		Level:      zapcore.InfoLevel,
	}
}

// InitLogger 初始化日志系统
func InitLogger(config LogConfig) {
	var writeSyncers []zapcore.WriteSyncer

	// stdout 可能被 archive 命令用来输出 zip 流，日志只写 stderr 或文件
	if config.Filename == "" {
		writeSyncers = append(writeSyncers, zapcore.AddSync(os.Stderr))
	} else {
		writeSyncers = append(writeSyncers, getLogWriter(config))
		if config.Console {
			writeSyncers = append(writeSyncers, zapcore.AddSync(os.Stderr))
		}
	}

	core := zapcore.NewCore(getEncoder(), zapcore.NewMultiWriteSyncer(writeSyncers...), config.Level)
	Logger = zap.New(core, zap.AddCaller()).Sugar()
}

// Init 简化初始化，level 非法时返回错误
func Init(filename, level string) error {
	config := DefaultLogConfig()
	config.Filename = filename
	l, err := zapcore.ParseLevel(level)
	if err != nil {
		return err
	}
	config.Level = l
	InitLogger(config)
	return nil
}

// InitWriter 把日志写到给定 writer，主要用于测试
func InitWriter(w io.Writer, level zapcore.Level) {
	core := zapcore.NewCore(getEncoder(), zapcore.AddSync(w), level)
	Logger = zap.New(core).Sugar()
}

// Named 返回带组件名的子日志对象
func Named(component string) *zap.SugaredLogger {
	return Logger.Named(component)
}

// Close 关闭日志，确保所有日志都被写入
func Close() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}

func getEncoder() zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	return zapcore.NewConsoleEncoder(encoderConfig)
}

func getLogWriter(config LogConfig) zapcore.WriteSyncer {
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   config.Filename,
		MaxSize:    config.MaxSize,
		MaxBackups: config.MaxBackups,
		MaxAge:     config.MaxAge,
		Compress:   config.Compress,
	})
}
