// Package logging initializes the process-wide zerolog logger: a single
// global logger at a configured level, timestamped. This controller has
// no persistent filesystem requirement, so it targets stdout
// (console-formatted for a human operator, or plain JSON for capture by
// a supervisor) rather than a fixed log file path.
package logging

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init sets the global zerolog logger. When human is true, output is
// console-formatted for a terminal; otherwise it is newline-delimited
// JSON.
func Init(level zerolog.Level, human bool) {
	var writer zerolog.LevelWriter
	if human {
		writer = zerolog.MultiLevelWriter(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05.000"})
	} else {
		writer = zerolog.MultiLevelWriter(os.Stdout)
	}

	logger := zerolog.New(writer).Level(level).With().Timestamp().Logger()
	log.Logger = logger

	if level == zerolog.DebugLevel {
		log.Debug().Msg("log level set to debug")
	}
}
