package main

import (
	"context"
	"fmt"
	"os"
	"slices"

	"go.uber.org/automaxprocs/maxprocs"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	verbose := slices.Contains(os.Args, "--verbose") || slices.Contains(os.Args, "-v")

	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply.
	if verbose {
		_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		}))
	} else {
		_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...any) {}))
	}

	os.Exit(runMain(os.Args, DefaultEnv()))
}

// runMain dispatches a command and returns the process exit code.
func runMain(args []string, env *Environment) int {
	if len(args) < 2 {
		printUsage(env.Stderr)
		return ExitUsage
	}

	warnUnknownEnvVars(env.Stderr, env.Environ())

	switch cmd := args[1]; cmd {
	case "convert":
		ctx, stop := notifyContext(context.Background())
		defer stop()
		return reportError(env, runConvertCmd(ctx, args[2:], env))
	case "doctor":
		return runDoctorCmd(args[2:], env)
	case "version", "--version":
		fmt.Fprintf(env.Stdout, "html2pdf %s\n", Version)
		return ExitSuccess
	case "help", "-h", "--help":
		runHelp(args[2:], env)
		return ExitSuccess
	case "completion":
		return reportError(env, runCompletion(args[2:], env))
	default:
		fmt.Fprintf(env.Stderr, "unknown command: %s\n\n", cmd)
		printUsage(env.Stderr)
		return ExitUsage
	}
}

// reportError prints err with its hint and returns the matching exit code.
func reportError(env *Environment, err error) int {
	if err == nil {
		return ExitSuccess
	}
	fmt.Fprintf(env.Stderr, "error: %v%s\n", err, hintFor(err))
	return exitCodeFor(err)
}
