package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/eringen/blockpress"
	"github.com/eringen/blockpress/storage"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "serve":
		err = runServe(args)
	case "migrate":
		err = runMigrate(args)
	case "import":
		err = runImport(args)
	case "delete":
		err = runDelete(args)
	case "init":
		if len(args) < 1 {
			fmt.Fprintln(os.Stderr, "Usage: blockpress init <directory>")
			os.Exit(1)
		}
		err = runInit(args[0])
	case "version":
		fmt.Printf("blockpress %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`blockpress - a block-based blog server built with Go and Echo

Usage:
  blockpress <command> [arguments]

Commands:
  serve   [-config file]           Serve the site
  migrate [-config file]           Create or update the database schema
  import  [-config file] file...   Upsert posts from JSON files
  delete  [-config file] slug...   Remove posts by slug
  init    <directory>              Create a starter site directory
  version                          Print the blockpress version
  help                             Show this help message

Configuration is read from the TOML file given by -config or
$BLOCKPRESS_CONFIG, then .env, then the environment.`)
}

// loadConfig parses the common -config flag and returns the remaining
// arguments.
func loadConfig(name string, args []string) (blockpress.SiteConfig, []string, error) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	path := fs.String("config", blockpress.EnvOr("BLOCKPRESS_CONFIG", ""), "TOML config file")
	if err := fs.Parse(args); err != nil {
		return blockpress.SiteConfig{}, nil, err
	}
	cfg, err := blockpress.LoadConfig(*path)
	return cfg, fs.Args(), err
}

func runServe(args []string) error {
	cfg, _, err := loadConfig("serve", args)
	if err != nil {
		return err
	}
	logger, closer := blockpress.NewLogger(cfg, os.Stderr)
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := blockpress.New(cfg, blockpress.WithLogger(logger))
	defer app.Close()
	if err := app.Start(ctx); err != nil {
		logger.Error("server stopped", "err", err)
		return err
	}
	return nil
}

func runMigrate(args []string) error {
	cfg, _, err := loadConfig("migrate", args)
	if err != nil {
		return err
	}
	repo, err := storage.Open(context.Background(), cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer repo.Close()
	fmt.Printf("schema up to date: %s\n", redactDSN(cfg.DatabaseURL))
	return nil
}

// redactDSN masks the password of a URL-style DSN so it can be printed.
func redactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	return u.Redacted()
}

func runImport(args []string) error {
	cfg, files, err := loadConfig("import", args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("import: no files given")
	}
	ctx := context.Background()
	repo, err := storage.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer repo.Close()

	blog := blockpress.NewBlog(repo, nil)
	for _, name := range files {
		n, err := importFile(ctx, blog, name)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		fmt.Printf("  imported %d post(s) from %s\n", n, name)
	}
	return nil
}

func runDelete(args []string) error {
	cfg, slugs, err := loadConfig("delete", args)
	if err != nil {
		return err
	}
	if len(slugs) == 0 {
		return fmt.Errorf("delete: no slugs given")
	}
	ctx := context.Background()
	repo, err := storage.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer repo.Close()

	blog := blockpress.NewBlog(repo, nil)
	for _, slug := range slugs {
		if err := blog.DeletePost(ctx, slug); err != nil {
			return fmt.Errorf("%s: %w", slug, err)
		}
		fmt.Printf("  deleted %s\n", slug)
	}
	return nil
}

func importFile(ctx context.Context, dst blockpress.PostSaver, name string) (int, error) {
	var r io.Reader = os.Stdin
	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return 0, err
		}
		defer f.Close()
		r = f
	}
	return blockpress.ImportPosts(ctx, dst, r)
}
