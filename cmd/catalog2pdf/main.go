package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Sentinel errors for CLI operations.
var (
	ErrUsage              = errors.New("invalid usage")
	ErrUnknownCommand     = errors.New("unknown command")
	ErrReadInput          = errors.New("failed to read input file")
	ErrStorage            = errors.New("storage unavailable")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
)

// commandFunc runs one subcommand.
type commandFunc func(ctx context.Context, args []string, env *Environment) error

// commands maps names to their handlers. doctor, version and help are
// dispatched separately.
var commands = map[string]commandFunc{
	cmdExport:     runExport,
	cmdShare:      runShare,
	cmdPreview:    runPreview,
	cmdImport:     runImport,
	cmdAdd:        runAdd,
	cmdRemove:     runRemove,
	cmdMove:       runMove,
	cmdReorder:    runReorder,
	cmdCategories: runCategories,
	cmdList:       runList,
	cmdMigrate:    runMigrate,
	cmdImage:      runImage,
	cmdProfile:    runProfile,
	cmdClear:      runClear,
	cmdCompletion: func(_ context.Context, args []string, env *Environment) error { return runCompletion(args, env) },
}

func main() {
	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply and the program continues safely.
	if isVerbose(os.Args) {
		_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		}))
	} else {
		_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))
	}

	os.Exit(runMain(os.Args, DefaultEnv()))
}

// runMain dispatches args[1] and returns the process exit code.
func runMain(args []string, env *Environment) int {
	env = env.withDefaults()
	if len(args) < 2 {
		printUsage(env.Stderr)
		return ExitUsage
	}

	warnUnknownEnvVars(env.Stderr, env.Environ())

	ctx, stop := notifyContext(context.Background())
	defer stop()

	cmd, rest := args[1], args[2:]
	if !isCommand(cmd) && cmd != "-h" && cmd != "--help" {
		fmt.Fprintf(env.Stderr, "unknown command: %s\n\n", cmd)
		printUsage(env.Stderr)
		return ExitUsage
	}

	var err error
	switch cmd {
	case cmdVersion:
		fmt.Fprintf(env.Stdout, "catalog2pdf %s\n", Version)
		return ExitSuccess
	case cmdHelp, "-h", "--help":
		err = runHelp(rest, env)
	case cmdDoctor:
		return runDoctorCmd(ctx, rest, env)
	default:
		err = commands[cmd](ctx, rest, env)
	}

	if errors.Is(err, flag.ErrHelp) {
		return ExitSuccess
	}
	if err != nil {
		fmt.Fprintf(env.Stderr, "error: %v%s\n", err, hintFor(err))
		return exitCodeFor(err)
	}
	return ExitSuccess
}

// isCommand reports whether s names a subcommand.
func isCommand(s string) bool {
	switch s {
	case cmdVersion, cmdHelp, cmdDoctor:
		return true
	}
	_, ok := commands[s]
	return ok
}

// isVerbose reports whether -v or --verbose appears in args.
func isVerbose(args []string) bool {
	for _, a := range args {
		if a == "-v" || a == "--verbose" {
			return true
		}
	}
	return false
}

// usageError classifies a flag parsing error. Help requests pass through.
func usageError(err error) error {
	if err == nil || errors.Is(err, flag.ErrHelp) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUsage, err)
}

// resolveTimeout picks the flag value over the configured one. Zero means
// the library default.
func resolveTimeout(flagValue, configValue string) (time.Duration, error) {
	value := strings.TrimSpace(flagValue)
	if value == "" {
		value = strings.TrimSpace(configValue)
	}
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid timeout %q: %v", ErrUsage, value, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: timeout must be positive, got %s", ErrUsage, d)
	}
	return d, nil
}
