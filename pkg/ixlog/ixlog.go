/*
Copyright 2024 The searchcore Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package ixlog provides the core's structured logger, a thin wrapper
// around a zap.SugaredLogger so call sites log key/value pairs instead
// of building format strings.
package ixlog

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// l is the package-level logger every searchcore component uses.
// Replace it with Set before starting any append/GC/query path when
// embedding the core in a larger service that owns its own zap config.
var (
	mu sync.RWMutex
	l  = newDefault()
)

func newDefault() *zap.SugaredLogger {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	logger, err := cfg.Build()
	if err != nil {
		// zap.NewProductionConfig().Build() only fails on a malformed
		// config; ours is static, so this can't happen in practice.
		logger = zap.NewNop()
	}
	return logger.Sugar()
}

// Set replaces the package logger, returning a function that restores
// the previous one. Intended for embedders and tests.
func Set(logger *zap.SugaredLogger) func() {
	mu.Lock()
	prev := l
	l = logger
	mu.Unlock()
	return func() {
		mu.Lock()
		l = prev
		mu.Unlock()
	}
}

func current() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return l
}

// Debugw logs at debug level with key/value pairs.
func Debugw(msg string, kv ...interface{}) { current().Debugw(msg, kv...) }

// Infow logs at info level with key/value pairs.
func Infow(msg string, kv ...interface{}) { current().Infow(msg, kv...) }

// Warnw logs at warn level with key/value pairs.
func Warnw(msg string, kv ...interface{}) { current().Warnw(msg, kv...) }

// Errorw logs at error level with key/value pairs.
func Errorw(msg string, kv ...interface{}) { current().Errorw(msg, kv...) }

// Sync flushes any buffered log entries; callers should defer it from
// main after constructing the process-wide logger.
func Sync() error { return current().Sync() }
