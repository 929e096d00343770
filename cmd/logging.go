package cmd

import (
	"io"

	"github.com/achilleasa/bindless/config"
	"github.com/achilleasa/bindless/log"
	"github.com/urfave/cli"
)

var logger = log.New("bindless")

// Apply the configured log settings. The -v and -vv flags override the
// configured level.
func setupLogging(ctx *cli.Context, cfg *config.Config) (io.Closer, error) {
	var closer io.Closer
	if cfg.Log.File != "" {
		closer = log.SetFile(cfg.Log.File, cfg.Log.MaxSizeMB, cfg.Log.MaxBackups)
	}

	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return closer, err
	}
	log.SetLevel(level)

	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}

	return closer, nil
}
