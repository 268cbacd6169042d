package common

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var Log *logrus.Logger

// LogOption 日志初始化参数
type LogOption struct {
	Format     string // json / text
	LogDir     string // 为空时只输出到控制台
	Level      string
	MaxSizeMB  int
	MaxBackups int
	Compress   bool
	Caller     bool
}

func init() {
	Log = logrus.New()
	Log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
	})
	Log.SetOutput(os.Stderr)
	Log.SetLevel(logrus.InfoLevel)
}

// InitLogger 按配置初始化日志，文件输出由 lumberjack 负责切割
func InitLogger(opt LogOption) {
	if opt.Format == "text" {
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	} else {
		Log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}
	SetLogLevel(opt.Level)

	if opt.Caller {
		Log.AddHook(&CallerHook{})
	}

	if opt.LogDir == "" {
		return
	}
	if err := os.MkdirAll(opt.LogDir, 0755); err != nil {
		Log.Fatal("无法创建日志目录:", err)
	}

	maxSize := opt.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 100
	}
	// 同时输出到文件和控制台
	Log.SetOutput(&lumberjack.Logger{
		Filename:   filepath.Join(opt.LogDir, "app.log"),
		MaxSize:    maxSize,
		MaxBackups: opt.MaxBackups,
		Compress:   opt.Compress,
	})
	Log.AddHook(&ConsoleHook{})
}

// ConsoleHook 用于同时输出到控制台
type ConsoleHook struct{}

func (hook *ConsoleHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (hook *ConsoleHook) Fire(entry *logrus.Entry) error {
	line, err := entry.String()
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write([]byte(line))
	return err
}

// SetLogLevel 设置日志级别
func SetLogLevel(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)
}

// CallerHook 添加调用者信息
type CallerHook struct{}

func (hook *CallerHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (hook *CallerHook) Fire(entry *logrus.Entry) error {
	if pc, file, line, ok := runtime.Caller(6); ok {
		entry.Data["file"] = filepath.Base(file)
		entry.Data["line"] = line
		entry.Data["func"] = runtime.FuncForPC(pc).Name()
	}
	return nil
}
