// Copyright 2025 Alibaba Group Holding Ltd.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const logFileEnvKey = "ZXPING_LOG_FILE"

var (
	atomicLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	base        *zap.Logger
	sugar       *zap.SugaredLogger
)

func init() {
	logger, err := build(false, os.Getenv(logFileEnvKey))
	if err != nil {
		panic(fmt.Sprintf("failed to init logger: %v", err))
	}
	replace(logger)
}

// Configure rebuilds the logger. In quiet mode nothing is written to the
// console; records still go to $ZXPING_LOG_FILE when it is set.
func Configure(quiet bool) error {
	logger, err := build(quiet, os.Getenv(logFileEnvKey))
	if err != nil {
		return fmt.Errorf("configure logger: %w", err)
	}
	Sync()
	replace(logger)
	return nil
}

func build(quiet bool, logFile string) (*zap.Logger, error) {
	var outputs []string
	if !quiet {
		outputs = append(outputs, "stdout")
	}
	if logFile != "" {
		outputs = append(outputs, logFile)
	}
	if len(outputs) == 0 {
		return zap.NewNop(), nil
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = atomicLevel
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = outputs
	cfg.ErrorOutputPaths = outputs
	return cfg.Build(zap.AddCallerSkip(1))
}

func replace(logger *zap.Logger) {
	base = logger
	sugar = base.Sugar()
}

// SetLevel maps syslog-style levels to zap levels.
// 0/1/2 => Fatal, 3 => Error, 4 => Warn, 5/6 => Info, 7+ => Debug.
func SetLevel(level int) {
	atomicLevel.SetLevel(mapLevel(level))
}

func mapLevel(level int) zapcore.Level {
	switch {
	case level <= 2:
		return zapcore.FatalLevel
	case level == 3:
		return zapcore.ErrorLevel
	case level == 4:
		return zapcore.WarnLevel
	case level == 5 || level == 6:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}

func Sync() {
	_ = base.Sync()
}

func Debug(format string, args ...any) {
	sugar.Debugf(format, args...)
}

func Info(format string, args ...any) {
	sugar.Infof(format, args...)
}

func Warn(format string, args ...any) {
	sugar.Warnf(format, args...)
}

// Warning is an alias to Warn for compatibility.
func Warning(format string, args ...any) {
	Warn(format, args...)
}

func Error(format string, args ...any) {
	sugar.Errorf(format, args...)
}
