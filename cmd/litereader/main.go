// Command litereader inspects and queries database files in the SQLite 3
// format without modifying them.
//
// Usage:
//
//	litereader dbinfo <db>
//	litereader tables <db>
//	litereader schema <db> [table]
//	litereader query <db> "SELECT name FROM users WHERE id = 2"
//	litereader digest <db>...
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/litereader/core/errors"
	"github.com/FocuswithJustin/litereader/core/sqlite"
	"github.com/FocuswithJustin/litereader/internal/config"
	"github.com/FocuswithJustin/litereader/internal/logging"
	"github.com/FocuswithJustin/litereader/internal/querytext"
	"github.com/FocuswithJustin/litereader/internal/validation"
)

const version = "0.1.0"

// Globals are flags shared by every command. Flags left unset fall back
// to the config file, then to built-in defaults.
type Globals struct {
	Config     string `name:"config" short:"c" help:"YAML config file" type:"existingfile"`
	LogLevel   string `name:"log-level" help:"Log level (debug, info, warn, error)"`
	LogFormat  string `name:"log-format" help:"Log format (text, json)"`
	CachePages int    `name:"cache-pages" help:"Page cache capacity, 0 disables" default:"-1"`
	Format     string `name:"format" short:"f" help:"Output format (table, csv, json)"`

	out io.Writer      `kong:"-"`
	cfg *config.Config `kong:"-"`
}

// CLI defines the command-line interface for litereader.
type CLI struct {
	Globals

	Dbinfo  DBInfoCmd  `cmd:"" help:"Print header fields and catalog counts"`
	Tables  TablesCmd  `cmd:"" help:"List user tables"`
	Schema  SchemaCmd  `cmd:"" help:"Print CREATE statements from the catalog"`
	Query   QueryCmd   `cmd:"" help:"Run a SELECT statement"`
	Digest  DigestCmd  `cmd:"" help:"Print the BLAKE3 digest of each database"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// setup merges flags over the config file and initializes logging.
func (g *Globals) setup() error {
	if g.out == nil {
		g.out = os.Stdout
	}
	cfg, err := config.LoadConfig(g.Config)
	if err != nil {
		return err
	}
	if g.LogLevel != "" {
		cfg.Log.Level = g.LogLevel
	}
	if g.LogFormat != "" {
		cfg.Log.Format = g.LogFormat
	}
	if g.CachePages >= 0 {
		cfg.Cache.Pages = g.CachePages
	}
	if g.Format != "" {
		cfg.Output.Format = g.Format
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, _ := logging.ParseLevel(cfg.Log.Level)
	format, _ := logging.ParseFormat(cfg.Log.Format)
	logging.InitLogger(level, format)
	g.cfg = cfg
	return nil
}

func (g *Globals) open(path string) (*sqlite.DB, error) {
	if g.cfg == nil {
		if err := g.setup(); err != nil {
			return nil, err
		}
	}
	if err := validation.ValidatePath(path); err != nil {
		return nil, errors.NewValidation("path", err.Error())
	}
	return sqlite.Open(path, sqlite.WithPageCache(g.cfg.Cache.Pages))
}

func (g *Globals) printer() *printer {
	return newPrinter(g.out, g.cfg.Output.Format)
}

// DBInfoCmd prints database information.
type DBInfoCmd struct {
	Path string `arg:"" help:"Database file" type:"path"`
}

func (c *DBInfoCmd) Run(g *Globals) error {
	db, err := g.open(c.Path)
	if err != nil {
		return err
	}
	defer db.Close()
	kind, err := validation.DetectFile(c.Path)
	if err != nil {
		return err
	}
	return g.printer().info(db.Info(), kind)
}

// TablesCmd lists user tables.
type TablesCmd struct {
	Path string `arg:"" help:"Database file" type:"path"`
}

func (c *TablesCmd) Run(g *Globals) error {
	db, err := g.open(c.Path)
	if err != nil {
		return err
	}
	defer db.Close()
	return g.printer().names(db.Schema().TableNames())
}

// SchemaCmd prints catalog SQL.
type SchemaCmd struct {
	Path  string `arg:"" help:"Database file" type:"path"`
	Table string `arg:"" optional:"" help:"Only objects belonging to this table"`
}

func (c *SchemaCmd) Run(g *Globals) error {
	db, err := g.open(c.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	var entries []sqlite.Entry
	for _, e := range db.Schema().Entries() {
		if e.SQL == "" {
			continue
		}
		if c.Table != "" && !strings.EqualFold(e.TblName, c.Table) {
			continue
		}
		entries = append(entries, e)
	}
	if c.Table != "" && len(entries) == 0 {
		if _, err := db.Schema().Lookup(c.Table); err != nil {
			return err
		}
	}
	return g.printer().schema(entries)
}

// QueryCmd runs a SELECT statement.
type QueryCmd struct {
	Path    string `arg:"" help:"Database file" type:"path"`
	SQL     string `arg:"" name:"sql" help:"SELECT statement"`
	Explain bool   `help:"Print the chosen plan instead of rows"`
	Stats   bool   `help:"Print page read counters to stderr afterwards"`
}

func (c *QueryCmd) Run(g *Globals) error {
	req, err := querytext.Parse(c.SQL)
	if err != nil {
		return err
	}
	db, err := g.open(c.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	if c.Explain {
		plan, err := db.Prepare(req)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(g.out, plan)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	rows, err := db.Execute(ctx, req)
	if err != nil {
		return err
	}
	defer rows.Close()
	if err := g.printer().rows(rows); err != nil {
		return err
	}
	if c.Stats {
		s := db.Stats()
		fmt.Fprintf(os.Stderr, "table pages: %d, index pages: %d, overflow pages: %d, cache hits: %d, misses: %d\n",
			s.TablePages, s.IndexPages, s.OverflowPages, s.Cache.Hits, s.Cache.Misses)
	}
	return nil
}

// DigestCmd prints content digests.
type DigestCmd struct {
	Paths []string `arg:"" help:"Database files" type:"path"`
}

func (c *DigestCmd) Run(g *Globals) error {
	for _, path := range c.Paths {
		db, err := g.open(path)
		if err != nil {
			return err
		}
		sum, err := db.Digest(context.Background())
		db.Close()
		if err != nil {
			return err
		}
		fmt.Fprintf(g.out, "%s  %s\n", sum, path)
	}
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(g *Globals) error {
	fmt.Fprintf(g.out, "litereader %s\n", version)
	return nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("litereader"),
		kong.Description("Read-only inspector for SQLite database files"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	ctx.FatalIfErrorf(cli.Globals.setup())
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
