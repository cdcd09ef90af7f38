package config

import (
	"errors"
	"time"

	flags "github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

type Options struct {
	RulesFile      string        `long:"rules" env:"PRINTWATCH_RULES" description:"Rules file (.yaml, .yml, .toml or .json)"`
	Rules          []string      `long:"rule" description:"Inline rule ROOT|.pdf,.docx|PRINTER, appended after file rules (repeatable)"`
	Archive        string        `long:"archive" env:"PRINTWATCH_ARCHIVE" description:"Directory processed files are moved into"`
	RecordDir      string        `long:"record-dir" env:"PRINTWATCH_RECORD_DIR" description:"Directory for the daily YYYY-MM-DD.txt record files (default: working directory)"`
	QueueSize      int           `long:"queue-size" env:"PRINTWATCH_QUEUE_SIZE" description:"Pending file events buffered before the watcher blocks"`
	SettleInterval time.Duration `long:"settle-interval" env:"PRINTWATCH_SETTLE_INTERVAL" description:"Gap between the two size checks of a new file"`
	SettleTimeout  time.Duration `long:"settle-timeout" env:"PRINTWATCH_SETTLE_TIMEOUT" description:"Give up on a file that is still changing after this long"`
	PrintTimeout   time.Duration `long:"print-timeout" env:"PRINTWATCH_PRINT_TIMEOUT" description:"Abort a print submission after this long (0 disables)"`
	PrintHold      time.Duration `long:"print-hold" env:"PRINTWATCH_PRINT_HOLD" description:"Wait this long after a print submission before moving the file (0 moves at once)"`
	PrintCommand   string        `long:"print-command" env:"PRINTWATCH_PRINT_COMMAND" description:"Custom print program, e.g. \"lp -d {printer} {file}\""`
	DryRun         bool          `long:"dry-run" env:"PRINTWATCH_DRY_RUN" description:"Log print submissions instead of sending them"`
	Headless       bool          `long:"headless" env:"PRINTWATCH_HEADLESS" description:"Run the terminal UI instead of the desktop window (GUI builds only)"`
	Daemon         bool          `long:"daemon" description:"Run without any UI until interrupted"`
	AutoStart      bool          `long:"auto-start" env:"PRINTWATCH_AUTO_START" description:"Start watching as soon as the UI opens"`
	Debug          bool          `long:"debug" env:"PRINTWATCH_DEBUG" description:"Enable verbose debug output"`
}

// ParseOptions loads .env from the working directory, then parses the
// command line. Environment values apply where a flag is absent.
func ParseOptions() (Options, error) {
	_ = godotenv.Load()
	return parseArgs(nil)
}

func parseArgs(args []string) (Options, error) {
	opts := Options{}
	parser := flags.NewParser(&opts, flags.Default)
	var err error
	if args == nil {
		_, err = parser.Parse()
	} else {
		_, err = parser.ParseArgs(args)
	}
	if err != nil {
		return Options{}, err
	}
	return opts, nil
}

// IsHelp reports whether err is go-flags' --help request, which callers
// treat as a clean exit.
func IsHelp(err error) bool {
	var flagsErr *flags.Error
	if !errors.As(err, &flagsErr) {
		return false
	}
	return flagsErr.Type == flags.ErrHelp
}
