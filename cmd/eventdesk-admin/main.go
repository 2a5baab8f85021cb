package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/target/eventdesk/config"
	redisstore "github.com/target/eventdesk/internal/adapters/redis"
	"github.com/target/eventdesk/internal/bootstrap"
	"github.com/target/eventdesk/internal/domain/route"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
	Stdin  io.Reader
	Stdout io.Writer
}

func main() {
	logger := bootstrap.InitLogger()

	if len(os.Args) < 2 {
		if err := printUsage(os.Stdout); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		if _, err := fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmdName); err != nil {
			logger.Error("print unknown command message failed", "error", err)
		}
		if err := printUsage(os.Stderr); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.ErrorContext(context.Background(), "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}

	cmdCtx := &commandContext{
		Ctx:    context.Background(),
		Logger: logger,
		Config: cfg,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
	}
	if runErr := cmd.run(cmdCtx, os.Args[2:]); runErr != nil {
		logger.ErrorContext(cmdCtx.Ctx, "command failed", "command", cmdName, "error", runErr)
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func commands() map[string]command {
	return map[string]command{
		"hash-password": {
			name:        "hash-password",
			description: "Print a bcrypt hash for a DEV_BACKEND_USERS entry",
			run:         runHashPassword,
		},
		"classify": {
			name:        "classify",
			description: "Print the route class of each path under the configured policy",
			run:         runClassify,
		},
		"clear-handoffs": {
			name:        "clear-handoffs",
			description: "Delete pending session handoff tickets from Redis",
			run:         runClearHandoffs,
		},
	}
}

func printUsage(w io.Writer) error {
	if _, err := fmt.Fprint(w, "Usage: eventdesk-admin <command> [flags]\n\nAvailable commands:\n"); err != nil {
		return err
	}
	cmds := commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := fmt.Fprintf(w, "  %-24s %s\n", name, cmds[name].description); err != nil {
			return err
		}
	}
	return nil
}

type hashOptions struct {
	Email string
	Role  string
	Cost  int
}

func parseHashFlags(args []string) (hashOptions, error) {
	fs := flag.NewFlagSet("hash-password", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts hashOptions
	fs.StringVar(&opts.Email, "email", "", "Print a full email:hash:role entry for this email")
	fs.StringVar(&opts.Role, "role", "user", "Role for the entry (with --email)")
	fs.IntVar(&opts.Cost, "cost", bcrypt.DefaultCost, "bcrypt cost")

	if err := fs.Parse(args); err != nil {
		return hashOptions{}, err
	}
	if opts.Cost < bcrypt.MinCost || opts.Cost > bcrypt.MaxCost {
		return hashOptions{}, fmt.Errorf("--cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	return opts, nil
}

// runHashPassword reads the password from stdin so it stays out of shell history.
func runHashPassword(cmdCtx *commandContext, args []string) error {
	opts, err := parseHashFlags(args)
	if err != nil {
		return err
	}

	line, err := bufio.NewReader(cmdCtx.Stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return errors.New("password is required on stdin")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), opts.Cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	out := string(hash)
	if email := strings.TrimSpace(opts.Email); email != "" {
		out = email + ":" + out + ":" + strings.ToUpper(strings.TrimSpace(opts.Role))
	}
	_, err = fmt.Fprintln(cmdCtx.Stdout, out)
	return err
}

func runClassify(cmdCtx *commandContext, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: eventdesk-admin classify <path>...")
	}
	classifier := route.NewClassifier(cmdCtx.Config.Routes.Policy())

	tw := tabwriter.NewWriter(cmdCtx.Stdout, 0, 4, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "PATH\tNORMALIZED\tCLASS\tEDGE"); err != nil {
		return err
	}
	for _, raw := range args {
		edge := "classified"
		if route.Exempt(raw) {
			edge = "exempt"
		}
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			raw, route.Normalize(raw), classifier.Classify(raw), edge); err != nil {
			return err
		}
	}
	return tw.Flush()
}

type clearHandoffOptions struct {
	Yes bool
}

func parseClearHandoffFlags(args []string) (clearHandoffOptions, error) {
	fs := flag.NewFlagSet("clear-handoffs", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts clearHandoffOptions
	fs.BoolVar(&opts.Yes, "yes", false, "Skip confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return clearHandoffOptions{}, err
	}
	return opts, nil
}

func runClearHandoffs(cmdCtx *commandContext, args []string) error {
	opts, err := parseClearHandoffFlags(args)
	if err != nil {
		return err
	}
	if !opts.Yes {
		if confirmErr := confirm(cmdCtx, "This signs nobody out, but any sign-in still mid-handoff will fail."); confirmErr != nil {
			return confirmErr
		}
	}

	client, err := bootstrap.ConnectRedis(bootstrap.RedisConnConfig{
		RedisConfig: cmdCtx.Config.Redis,
		Logger:      cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer func() {
		if closeErr := client.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("redis close failed", "error", closeErr)
		}
	}()

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, 2*time.Minute)
	defer cancel()

	store := redisstore.NewHandoffStore(client, redisstore.HandoffStoreOptions{Prefix: cmdCtx.Config.Redis.KeyPrefix})
	removed, err := store.Purge(ctx)
	if err != nil {
		return err
	}
	cmdCtx.Logger.Info("clear handoffs complete", "removed", removed)
	_, err = fmt.Fprintf(cmdCtx.Stdout, "removed %d pending handoff ticket(s)\n", removed)
	return err
}

var errAborted = errors.New("aborted")

func confirm(cmdCtx *commandContext, warning string) error {
	if _, err := fmt.Fprintf(cmdCtx.Stdout, "%s\nContinue? [y/N]: ", warning); err != nil {
		return fmt.Errorf("print confirmation prompt: %w", err)
	}
	answer, err := bufio.NewReader(cmdCtx.Stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read confirmation: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return nil
	default:
		return errAborted
	}
}
