// Command catalogctl runs catalog store operations in-process against the configured
// blob (the same settings the catalog server reads).
//
//	catalogctl [-path FILE] list
//	catalogctl [-path FILE] get ID
//	catalogctl [-path FILE] add '{"title":"...","code":"...",...}'
//	catalogctl [-path FILE] update ID '{"price":15}'
//	catalogctl [-path FILE] delete ID
//	catalogctl [-path FILE] seed FILE
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"MiniCatalog/internal/bootstrap"
	"MiniCatalog/internal/catalog"
	"MiniCatalog/internal/config"
	"MiniCatalog/pkg/kit"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2

	commandTimeout = 30 * time.Second
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("catalogctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	path := fs.String("path", "", "catalog blob path (overrides CATALOG_PATH)")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(stderr, "usage: catalogctl [-path FILE] list|get|add|update|delete|seed ...")
		return exitUsage
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, "config:", err)
		return exitError
	}
	if *path != "" {
		cfg.Path = *path
	}
	cfg.SeedFile = ""

	log := kit.NewLogger("catalogctl", cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	store, closeStore, err := bootstrap.OpenStore(ctx, cfg, log, nil)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	defer func() { _ = closeStore() }()

	cmd := &command{ctx: ctx, store: store, out: stdout}
	if err := cmd.dispatch(fs.Arg(0), fs.Args()[1:]); err != nil {
		fmt.Fprintln(stderr, err)
		if errors.Is(err, errUsage) {
			return exitUsage
		}
		return exitError
	}
	return exitOK
}

var errUsage = errors.New("bad usage")

type command struct {
	ctx   context.Context
	store *catalog.Store
	out   io.Writer
}

func (c *command) dispatch(name string, args []string) error {
	switch name {
	case "list":
		products, err := c.store.List(c.ctx)
		if err != nil {
			return err
		}
		return c.print(products)

	case "get":
		id, err := idArg(args, 1)
		if err != nil {
			return err
		}
		p, err := c.store.Get(c.ctx, id)
		if err != nil {
			return err
		}
		return c.print(p)

	case "add":
		if len(args) != 1 {
			return fmt.Errorf("%w: add JSON", errUsage)
		}
		var p catalog.Product
		if err := json.Unmarshal([]byte(args[0]), &p); err != nil {
			return fmt.Errorf("product json: %w", err)
		}
		added, err := c.store.Add(c.ctx, p)
		if err != nil {
			return err
		}
		return c.print(added)

	case "update":
		id, err := idArg(args, 2)
		if err != nil {
			return err
		}
		var patch catalog.Patch
		if err := json.Unmarshal([]byte(args[1]), &patch); err != nil {
			return fmt.Errorf("patch json: %w", err)
		}
		p, err := c.store.Update(c.ctx, id, patch)
		if err != nil {
			return err
		}
		return c.print(p)

	case "delete":
		id, err := idArg(args, 1)
		if err != nil {
			return err
		}
		removed, err := c.store.Delete(c.ctx, id)
		if err != nil {
			return err
		}
		return c.print(map[string]any{"id": id, "removed": removed})

	case "seed":
		if len(args) != 1 {
			return fmt.Errorf("%w: seed FILE", errUsage)
		}
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		rep, err := catalog.Seed(c.ctx, c.store, f)
		if err != nil {
			return err
		}
		return c.print(rep)

	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, name)
	}
}

func (c *command) print(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func idArg(args []string, want int) (int, error) {
	if len(args) != want {
		return 0, fmt.Errorf("%w: expected %d argument(s)", errUsage, want)
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("%w: id must be an integer", errUsage)
	}
	return id, nil
}
