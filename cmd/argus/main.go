// Package main is the Argus command line tool. It generates synthetic
// datasets, runs the detection pipeline over CSV files without a database
// and creates operator API keys for the server configuration.
package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if err := RootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
