package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"

	"github.com/ethereum/go-ethereum/log"

	"github.com/vidit21srivastava/cross-chain-ample/ample-service/cliapp"
)

const (
	LevelFlagName  = "log.level"
	FormatFlagName = "log.format"
	ColorFlagName  = "log.color"
)

type FormatType string

const (
	FormatText     FormatType = "text"
	FormatTerminal FormatType = "terminal"
	FormatLogFmt   FormatType = "logfmt"
	FormatJSON     FormatType = "json"
)

func (ft FormatType) String() string {
	return string(ft)
}

func (ft *FormatType) Set(value string) error {
	switch f := FormatType(strings.ToLower(value)); f {
	case FormatText, FormatTerminal, FormatLogFmt, FormatJSON:
		*ft = f
		return nil
	default:
		return fmt.Errorf("unrecognized log format: %q", value)
	}
}

func (ft *FormatType) Clone() any {
	cpy := *ft
	return &cpy
}

// LevelFlagValue wraps a slog.Level so it can be set from the CLI by name.
type LevelFlagValue slog.Level

func (v LevelFlagValue) String() string {
	return log.LevelString(slog.Level(v))
}

func (v *LevelFlagValue) Set(value string) error {
	lvl, err := LevelFromString(value)
	if err != nil {
		return err
	}
	*v = LevelFlagValue(lvl)
	return nil
}

func (v *LevelFlagValue) Clone() any {
	cpy := *v
	return &cpy
}

func (v LevelFlagValue) Level() slog.Level {
	return slog.Level(v)
}

// LevelFromString maps the geth level names onto slog levels.
func LevelFromString(value string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "trace", "trce":
		return log.LevelTrace, nil
	case "debug", "dbug":
		return log.LevelDebug, nil
	case "info":
		return log.LevelInfo, nil
	case "warn":
		return log.LevelWarn, nil
	case "error", "eror":
		return log.LevelError, nil
	case "crit":
		return log.LevelCrit, nil
	default:
		return 0, fmt.Errorf("unknown log level: %q", value)
	}
}

func CLIFlags(envPrefix string) []cli.Flag {
	lvl := LevelFlagValue(log.LevelInfo)
	format := FormatText
	return []cli.Flag{
		&cli.GenericFlag{
			Name:     LevelFlagName,
			Usage:    "The lowest log level that will be output",
			Value:    &lvl,
			EnvVars:  cliapp.PrefixEnvVar(envPrefix, "LOG_LEVEL"),
			Category: "LOGGING",
		},
		&cli.GenericFlag{
			Name:     FormatFlagName,
			Usage:    "Format the log output. Supported formats: 'text', 'terminal', 'logfmt', 'json'",
			Value:    &format,
			EnvVars:  cliapp.PrefixEnvVar(envPrefix, "LOG_FORMAT"),
			Category: "LOGGING",
		},
		&cli.BoolFlag{
			Name:     ColorFlagName,
			Usage:    "Color the log output if in terminal mode",
			EnvVars:  cliapp.PrefixEnvVar(envPrefix, "LOG_COLOR"),
			Category: "LOGGING",
		},
	}
}

type CLIConfig struct {
	Level  slog.Level
	Color  bool
	Format FormatType
}

func DefaultCLIConfig() CLIConfig {
	return CLIConfig{
		Level:  log.LevelInfo,
		Format: FormatText,
	}
}

// ReadCLIConfig reads the logging flags. Color defaults to on when stdout is a terminal.
func ReadCLIConfig(ctx *cli.Context) CLIConfig {
	cfg := DefaultCLIConfig()
	if v, ok := ctx.Generic(LevelFlagName).(*LevelFlagValue); ok {
		cfg.Level = v.Level()
	}
	if v, ok := ctx.Generic(FormatFlagName).(*FormatType); ok {
		cfg.Format = *v
	}
	cfg.Color = isatty.IsTerminal(os.Stdout.Fd())
	if ctx.IsSet(ColorFlagName) {
		cfg.Color = ctx.Bool(ColorFlagName)
	}
	return cfg
}

func NewLogHandler(wr io.Writer, cfg CLIConfig) slog.Handler {
	switch cfg.Format {
	case FormatJSON:
		return JSONMsHandlerWithLevel(wr, cfg.Level)
	case FormatLogFmt:
		return LogfmtMsHandlerWithLevel(wr, cfg.Level)
	default:
		return log.NewTerminalHandlerWithLevel(wr, cfg.Level, cfg.Color)
	}
}

func NewLogger(wr io.Writer, cfg CLIConfig) log.Logger {
	return log.NewLogger(NewLogHandler(wr, cfg))
}

// SetGlobalLogHandler routes the geth root logger, which libraries log through, to h.
func SetGlobalLogHandler(h slog.Handler) {
	log.SetDefault(log.NewLogger(h))
}

// AppOut returns the app writer, falling back to stdout.
func AppOut(ctx *cli.Context) io.Writer {
	if ctx != nil && ctx.App != nil && ctx.App.Writer != nil {
		return ctx.App.Writer
	}
	return os.Stdout
}
