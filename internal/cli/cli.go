// Package cli implements consolectl, a command line client of the console API
// that keeps its token pair in a local file and refreshes it transparently.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/dtroode/agentconsole/internal/client"
	"github.com/dtroode/agentconsole/internal/config"
	"github.com/dtroode/agentconsole/internal/gateway"
	"github.com/dtroode/agentconsole/internal/identity"
	"github.com/dtroode/agentconsole/internal/logger"
	"github.com/dtroode/agentconsole/internal/model"
	"github.com/dtroode/agentconsole/internal/token"
	"github.com/dtroode/agentconsole/internal/tokenfile"
)

// ErrLoggedOut is returned when the stored session could not be renewed and
// the token file was removed.
var ErrLoggedOut = errors.New("session expired, log in again")

// StatusError reports a non-2xx console response. The body has already been
// written to stdout.
type StatusError struct {
	Status int
}

func (e StatusError) Error() string {
	return fmt.Sprintf("console answered %d %s", e.Status, http.StatusText(e.Status))
}

type UsageError struct {
	Program string
}

func (u UsageError) Error() string {
	if u.Program == "" {
		u.Program = "consolectl"
	}
	return fmt.Sprintf("Usage: %s <command> [options]", u.Program)
}

func (UsageError) UsageLines() []string {
	return []string{
		"Commands:",
		"  login     Store a token pair (-access, -refresh, or JSON on stdin)",
		"  logout    Remove the stored token pair",
		"  status    Show the stored session",
		"  get|post|put|patch|delete <path> [-d body|@file|-]",
		"            Call the console API",
	}
}

// IO bundles the streams a command works with.
type IO struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// Run executes one consolectl command.
func Run(ctx context.Context, cfg *config.Client, prog string, args []string, streams IO) error {
	if len(args) == 0 {
		return UsageError{Program: prog}
	}

	store := tokenfile.New(cfg.TokenFile)
	cmd, rest := args[0], args[1:]

	switch cmd {
	case "login":
		return runLogin(ctx, store, rest, streams)
	case "logout":
		if err := store.Remove(); err != nil {
			return err
		}
		fmt.Fprintln(streams.Out, "logged out")
		return nil
	case "status":
		return runStatus(store, streams)
	case "get", "post", "put", "patch", "delete":
		return runRequest(ctx, cfg, store, strings.ToUpper(cmd), rest, streams)
	case "help", "-h", "--help":
		return UsageError{Program: prog}
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func runLogin(ctx context.Context, store *tokenfile.Store, args []string, streams IO) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	access := fs.String("access", "", "access token")
	refresh := fs.String("refresh", "", "refresh token")
	if err := fs.Parse(args); err != nil {
		return err
	}

	pair := model.TokenPair{Access: *access, Refresh: *refresh}
	if pair.Access == "" && pair.Refresh == "" {
		if err := json.NewDecoder(streams.In).Decode(&pair); err != nil {
			return fmt.Errorf("failed to read token pair from stdin: %w", err)
		}
	}
	if err := store.UpdateTokens(ctx, pair); err != nil {
		return err
	}
	fmt.Fprintf(streams.Out, "tokens saved to %s\n", store.Path())
	return nil
}

func runStatus(store *tokenfile.Store, streams IO) error {
	pair, err := store.Load()
	if errors.Is(err, model.ErrNotFound) {
		fmt.Fprintln(streams.Out, "not logged in")
		return nil
	}
	if err != nil {
		return err
	}

	inspector := token.NewInspector()
	fmt.Fprintf(streams.Out, "token file: %s\n", store.Path())
	if sub, err := inspector.Subject(pair.Access); err == nil && sub != "" {
		fmt.Fprintf(streams.Out, "subject:    %s\n", sub)
	}
	fmt.Fprintf(streams.Out, "access:     %s\n", token.Fingerprint(pair.Access))
	if exp, err := inspector.ExpiresAt(pair.Access); err == nil {
		fmt.Fprintf(streams.Out, "expires:    %s\n", exp.Local().Format("2006-01-02 15:04:05"))
	}
	return nil
}

func runRequest(ctx context.Context, cfg *config.Client, store *tokenfile.Store, method string, args []string, streams IO) error {
	fs := flag.NewFlagSet(strings.ToLower(method), flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	data := fs.String("d", "", "request body, @file to read a file, - to read stdin")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%s needs exactly one path", strings.ToLower(method))
	}

	body, err := readBody(*data, streams.In)
	if err != nil {
		return err
	}

	pair, err := store.Load()
	if errors.Is(err, model.ErrNotFound) {
		return fmt.Errorf("not logged in, run login first")
	}
	if err != nil {
		return err
	}

	log := logger.NewWithWriter(streams.Err, cfg.LogLevel, "text")
	holder := client.NewHolder(pair, store)
	coord := gateway.NewCoordinator(identity.NewClient(cfg.RefreshURL, cfg.Timeout, log), holder, log).
		WithTimeout(cfg.Timeout)
	gw := gateway.New(&http.Client{Timeout: cfg.Timeout}, coord, log)
	c := client.New(cfg.URL, gw, holder)

	resp, err := c.Do(ctx, method, fs.Arg(0), body)
	if model.IsSessionExpired(err) {
		if rmErr := store.Remove(); rmErr != nil {
			log.Warn("CLI: failed to remove token file", "error", rmErr)
		}
		return fmt.Errorf("%w: %v", ErrLoggedOut, err)
	}
	if err != nil {
		return err
	}

	if _, err := streams.Out.Write(resp.Body); err != nil {
		return err
	}
	if len(resp.Body) > 0 && resp.Body[len(resp.Body)-1] != '\n' {
		fmt.Fprintln(streams.Out)
	}
	if resp.Status < 200 || resp.Status > 299 {
		return StatusError{Status: resp.Status}
	}
	return nil
}

func readBody(arg string, stdin io.Reader) ([]byte, error) {
	switch {
	case arg == "":
		return nil, nil
	case arg == "-":
		return io.ReadAll(stdin)
	case strings.HasPrefix(arg, "@"):
		b, err := os.ReadFile(arg[1:])
		if err != nil {
			return nil, fmt.Errorf("failed to read body file: %w", err)
		}
		return b, nil
	default:
		return []byte(arg), nil
	}
}
