package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"herd/cmd/internal/app"
	"herd/cmd/internal/operators"
	"herd/cmd/internal/schema"
	"herd/cmd/security/password"
)

// promptFunc reads a secret after printing prompt.
type promptFunc func(prompt string) (string, error)

// errMismatch makes verify exit with status 1 without an error message.
var errMismatch = errors.New("password does not match")

type cli struct {
	out    io.Writer
	errOut io.Writer
	prompt promptFunc
}

func newCLI(out, errOut io.Writer, prompt promptFunc) *cli {
	return &cli{out: out, errOut: errOut, prompt: prompt}
}

type command struct {
	summary string
	run     func(c *cli, args []string) error
}

var commands = map[string]command{
	"setup":  {summary: "create the schema and provision an operator", run: (*cli).setup},
	"passwd": {summary: "replace an operator's password", run: (*cli).passwd},
	"hash":   {summary: "print an encoded credential for a password", run: (*cli).hash},
	"verify": {summary: "check a password against an encoded credential", run: (*cli).verify},
}

var commandOrder = []string{"setup", "passwd", "hash", "verify"}

func (c *cli) run(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		c.usage()
		if len(args) == 0 {
			return 2
		}
		return 0
	}

	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(c.errOut, "herdctl: unknown command %q\n\n", args[0])
		c.usage()
		return 2
	}

	err := cmd.run(c, args[1:])
	switch {
	case err == nil:
		return 0
	case errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errMismatch):
		return 1
	default:
		fmt.Fprintf(c.errOut, "herdctl %s: %v\n", args[0], err)
		return 1
	}
}

func (c *cli) usage() {
	fmt.Fprintln(c.errOut, "Usage: herdctl <command> [options]")
	fmt.Fprintln(c.errOut, "\nCommands:")
	for _, name := range commandOrder {
		fmt.Fprintf(c.errOut, "  %-8s %s\n", name, commands[name].summary)
	}
	fmt.Fprintln(c.errOut, "\nRun 'herdctl <command> -h' for command options.")
}

func (c *cli) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.errOut)
	return fs
}

func (c *cli) setup(args []string) error {
	fs := c.flagSet("setup")
	user := fs.String("user", "admin", "operator username to provision")
	pw := fs.String("password", "", "operator password (prompted if empty)")
	schemaName := fs.String("schema", "", "database schema (default HERD_DB_SCHEMA)")
	if err := parseNoArgs(fs, args); err != nil {
		return err
	}

	cfg := app.LoadConfig()
	if *schemaName != "" {
		cfg.DBSchema = *schemaName
	}
	if cfg.DatabaseURL == "" {
		return errors.New("HERD_DATABASE_URL is not set")
	}

	pwCfg, err := password.FromEnv()
	if err != nil {
		return err
	}
	secret, err := c.passwordOrPrompt(*pw, true)
	if err != nil {
		return err
	}
	hash, err := pwCfg.Hash(secret)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg.DBApplySchema = false
	pool, err := app.NewDBPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer pool.Close()

	if err := schema.Apply(ctx, pool, cfg.DBSchema); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "schema %q ready\n", cfg.DBSchema)

	store, err := operators.NewPostgresStore(pool, operators.WithSchema(cfg.DBSchema))
	if err != nil {
		return err
	}
	op, created, err := store.CreateOperator(ctx, *user, hash)
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintf(c.out, "operator %q created (id %d)\n", op.Username, op.ID)
	} else {
		fmt.Fprintf(c.out, "operator %q already exists; password left unchanged\n", op.Username)
	}
	return nil
}

func (c *cli) passwd(args []string) error {
	fs := c.flagSet("passwd")
	user := fs.String("user", "", "operator username")
	pw := fs.String("password", "", "new password (prompted if empty)")
	if err := parseNoArgs(fs, args); err != nil {
		return err
	}
	if strings.TrimSpace(*user) == "" {
		return errors.New("-user is required")
	}

	cfg := app.LoadConfig()
	if cfg.DatabaseURL == "" {
		return errors.New("HERD_DATABASE_URL is not set")
	}
	pwCfg, err := password.FromEnv()
	if err != nil {
		return err
	}
	secret, err := c.passwordOrPrompt(*pw, true)
	if err != nil {
		return err
	}
	hash, err := pwCfg.Hash(secret)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg.DBApplySchema = false
	pool, err := app.NewDBPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer pool.Close()

	store, err := operators.NewPostgresStore(pool, operators.WithSchema(cfg.DBSchema))
	if err != nil {
		return err
	}
	if err := store.SetPassword(ctx, *user, hash); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "password updated for %q\n", operators.NormalizeUsername(*user))
	return nil
}

func (c *cli) hash(args []string) error {
	fs := c.flagSet("hash")
	pw := fs.String("password", "", "password to encode (prompted if empty)")
	if err := parseNoArgs(fs, args); err != nil {
		return err
	}

	pwCfg, err := password.FromEnv()
	if err != nil {
		return err
	}
	secret, err := c.passwordOrPrompt(*pw, true)
	if err != nil {
		return err
	}
	encoded, err := pwCfg.Hash(secret)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, encoded)
	return nil
}

func (c *cli) verify(args []string) error {
	fs := c.flagSet("verify")
	encoded := fs.String("hash", "", "encoded credential to check against")
	pw := fs.String("password", "", "candidate password (prompted if empty)")
	if err := parseNoArgs(fs, args); err != nil {
		return err
	}
	if *encoded == "" {
		return errors.New("-hash is required")
	}

	pwCfg, err := password.FromEnv()
	if err != nil {
		return err
	}
	secret, err := c.passwordOrPrompt(*pw, false)
	if err != nil {
		return err
	}

	log := slog.New(slog.NewTextHandler(c.errOut, &slog.HandlerOptions{Level: slog.LevelWarn}))
	if !password.NewVerifier(pwCfg, log).Verify(*encoded, secret) {
		fmt.Fprintln(c.out, "no match")
		return errMismatch
	}
	fmt.Fprintln(c.out, "match")
	return nil
}

func (c *cli) passwordOrPrompt(given string, confirm bool) (string, error) {
	if given != "" {
		return given, nil
	}
	if c.prompt == nil {
		return "", errors.New("no password given and no prompt available")
	}
	first, err := c.prompt("Password: ")
	if err != nil {
		return "", err
	}
	if !confirm {
		return first, nil
	}
	second, err := c.prompt("Confirm password: ")
	if err != nil {
		return "", err
	}
	if first != second {
		return "", errors.New("passwords don't match")
	}
	return first, nil
}

func parseNoArgs(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected argument(s): %s", strings.Join(fs.Args(), " "))
	}
	return nil
}

// terminalPrompt reads a secret from the terminal without echo.
func terminalPrompt(prompt string) (string, error) {
	if !term.IsTerminal(int(syscall.Stdin)) {
		return "", errors.New("stdin is not a terminal; pass -password")
	}
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}
