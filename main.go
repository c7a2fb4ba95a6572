// Command nuxbus executes Uxn ROMs on a Varvara machine.
package main

import (
	"log"
	"os"
	"strconv"

	"github.com/alecthomas/kong"
	"github.com/go-faster/errors"
	"gopkg.in/Sirupsen/logrus.v0"
)

type CLI struct {
	Config   string `help:"Read configuration from FILE." type:"path" placeholder:"FILE"`
	LogLevel string `name:"log-level" help:"Device diagnostics level (debug, info, warn, error)." placeholder:"LEVEL"`

	Run RunCmd `cmd:"" default:"withargs" help:"Run a ROM, or assemble and run a .tal program."`
	Dev DevCmd `cmd:"" help:"Re-build and restart a .tal program whenever it changes."`
}

// env is shared by all commands.
type env struct {
	cfg Config
	log *logrus.Logger
}

// exitCode is returned by a command to set the process exit status.
type exitCode int

func (c exitCode) Error() string { return "exit status " + strconv.Itoa(int(c)) }

func main() {
	log.SetPrefix("nuxbus: ")
	log.SetFlags(0)

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("nuxbus"),
		kong.Description("Run Uxn programs on a Varvara machine."),
		kong.UsageOnError())

	cfg, err := loadConfig(cli.Config)
	if err != nil {
		log.Fatal(err)
	}
	if cli.LogLevel != "" {
		cfg.Log.Level = cli.LogLevel
	}
	logger, err := newLogger(cfg.Log)
	if err != nil {
		log.Fatal(err)
	}

	err = ctx.Run(&env{cfg: cfg, log: logger})
	var code exitCode
	switch {
	case err == nil:
	case errors.As(err, &code):
		os.Exit(int(code))
	default:
		log.Fatal(err)
	}
}
