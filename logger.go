// Copyright © 2024 Meroxa, Inc.
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


package cdk

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger returns the logger attached to ctx. It always returns a usable
// logger, if no logger is attached the default context logger is used.
//
// Destinations should use the logger for all output, stdout is reserved for
// protocol messages.
func Logger(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}

const envLogLevel = "LOG_LEVEL"

// initLogger creates the connector logger writing to w and makes it the
// default context logger.
func initLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	logger := zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    true,
		TimeFormat: time.RFC3339,
	}).With().Timestamp().Logger().Level(level)
	zerolog.DefaultContextLogger = &logger
	return logger
}

// connectorLogLevel returns the log level configured in the environment,
// INFO if it isn't set or invalid.
func connectorLogLevel() zerolog.Level {
	l, err := zerolog.ParseLevel(os.Getenv(envLogLevel))
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}
