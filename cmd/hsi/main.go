package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/substratelabs/hsi/internal/config"
	"github.com/substratelabs/hsi/internal/graph"
	"github.com/substratelabs/hsi/internal/hierarchy"
	"github.com/substratelabs/hsi/internal/indexing"
	"github.com/substratelabs/hsi/internal/match"
	"github.com/substratelabs/hsi/internal/parser"
	"github.com/substratelabs/hsi/internal/types"
)

var Version = "0.1.0"

// session bundles everything a command needs after indexing the project.
type session struct {
	cfg     *config.Config
	graph   *graph.Graph
	cache   *hierarchy.SubtreeCache
	search  *hierarchy.Search
	indexer *indexing.Indexer
	scanner *indexing.FileScanner
	stats   indexing.IndexStats
}

// loadConfigWithOverrides loads .hsi.toml and applies CLI flag overrides.
func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	root := c.String("root")
	if root == "" {
		root = "."
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root path %q: %w", root, err)
	}

	cfg, err := config.Load(absRoot)
	if err != nil {
		return nil, err
	}
	if includeFlags := c.StringSlice("include"); len(includeFlags) > 0 {
		cfg.Include = includeFlags
	}
	if excludeFlags := c.StringSlice("exclude"); len(excludeFlags) > 0 {
		cfg.Exclude = append(cfg.Exclude, excludeFlags...)
	}
	if base := c.String("universal-base"); base != "" {
		cfg.Search.UniversalBase = base
	}
	return cfg, nil
}

// openSession indexes the project and returns ready-to-query components.
func openSession(ctx context.Context, c *cli.Context) (*session, error) {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return nil, err
	}

	g := graph.New()
	g.SetUniversalBase(cfg.Search.UniversalBase)
	cache := hierarchy.NewSubtreeCache(g)
	p := parser.NewTypeParser()
	indexer := indexing.NewIndexer(cfg, p, g, cache)
	scanner := indexing.NewFileScanner(cfg, p)

	stats, err := indexer.IndexAll(ctx)
	if err != nil {
		// Per-file failures still leave a usable index; report and continue.
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	return &session{
		cfg:     cfg,
		graph:   g,
		cache:   cache,
		search:  hierarchy.NewSearch(g, cache),
		indexer: indexer,
		scanner: scanner,
		stats:   stats,
	}, nil
}

func main() {
	app := &cli.App{
		Name:    "hsi",
		Usage:   "Type hierarchy search across source trees",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Project root directory (defaults to current directory)",
			},
			&cli.StringSliceFlag{
				Name:  "include",
				Usage: "Include files matching glob patterns (e.g., --include 'src/**/*.java')",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Exclude files matching glob patterns (e.g., --exclude '**/generated/**')",
			},
			&cli.StringFlag{
				Name:  "universal-base",
				Usage: "Type treated as the universal base (overrides config)",
			},
		},
		Commands: []*cli.Command{
			indexCommand(),
			descendantsCommand(),
			watchCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func indexCommand() *cli.Command {
	return &cli.Command{
		Name:  "index",
		Usage: "Index the project and report what was found",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "Emit JSON output"},
		},
		Action: func(c *cli.Context) error {
			ctx, cancel := signalContext()
			defer cancel()

			sess, err := openSession(ctx, c)
			if err != nil {
				return err
			}

			gs := sess.graph.Stats()
			if c.Bool("json") {
				out := struct {
					Index indexing.IndexStats `json:"index"`
					Graph graph.Stats         `json:"graph"`
				}{sess.stats, gs}
				return json.NewEncoder(os.Stdout).Encode(out)
			}
			fmt.Printf("Indexed %d files (%d unchanged, %d failed)\n",
				sess.stats.Indexed, sess.stats.Skipped, sess.stats.Failed)
			fmt.Printf("Graph: %d types, %d inheritance edges across %d files\n",
				gs.Types, gs.Edges, gs.Files)
			return nil
		},
	}
}

func descendantsCommand() *cli.Command {
	return &cli.Command{
		Name:      "descendants",
		Usage:     "List every transitive subtype of a type",
		ArgsUsage: "<type name>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "name",
				Usage: "Only report subtypes whose name matches",
			},
			&cli.StringFlag{
				Name:  "match",
				Usage: "Name matching mode: exact, insensitive, substring, fuzzy",
			},
			&cli.StringSliceFlag{
				Name:  "scope",
				Usage: "Restrict results to these files (repeatable)",
			},
			&cli.BoolFlag{
				Name:    "anonymous",
				Aliases: []string{"a"},
				Usage:   "Include anonymous and local types",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Stop after this many results (0 = unlimited)",
			},
			&cli.BoolFlag{Name: "json", Usage: "Emit JSON output"},
		},
		Action: runDescendants,
	}
}

func runDescendants(c *cli.Context) error {
	typeName := c.Args().First()
	if typeName == "" {
		return fmt.Errorf("missing type name argument")
	}

	ctx, cancel := signalContext()
	defer cancel()

	sess, err := openSession(ctx, c)
	if err != nil {
		return err
	}

	root, ok := sess.graph.LookupType(typeName)
	if !ok {
		return fmt.Errorf("type not found: %s", typeName)
	}

	mode := c.String("match")
	if mode == "" {
		mode = sess.cfg.Search.MatchMode
	}
	pred, err := match.Build(c.String("name"), mode, sess.cfg.Search.FuzzyThreshold)
	if err != nil {
		return err
	}

	scope, err := buildScope(sess, c.StringSlice("scope"))
	if err != nil {
		return err
	}

	includeAnonymous := c.Bool("anonymous") || sess.cfg.Search.IncludeAnonymous
	limit := c.Int("limit")
	asJSON := c.Bool("json")

	var results []*types.TypeNode
	complete, err := sess.search.FindDescendants(ctx, hierarchy.SearchParams{
		Root:             root,
		Scope:            scope,
		NamePredicate:    pred,
		IncludeAnonymous: includeAnonymous,
	}, func(node *types.TypeNode) bool {
		results = append(results, node)
		return limit == 0 || len(results) < limit
	})
	if err != nil {
		return err
	}

	if asJSON {
		out := struct {
			Root     string            `json:"root"`
			Complete bool              `json:"complete"`
			Results  []*types.TypeNode `json:"results"`
		}{typeName, complete, results}
		return json.NewEncoder(os.Stdout).Encode(out)
	}

	for _, node := range results {
		path, _ := sess.graph.PathForFileID(node.FileID)
		label := node.QualifiedName
		if node.IsAnonymous() {
			label = fmt.Sprintf("(anonymous %s)", node.QualifiedName)
		}
		fmt.Printf("%s  %s:%d\n", label, path, node.Line)
	}
	if !complete && limit > 0 && len(results) >= limit {
		fmt.Printf("... stopped at limit %d\n", limit)
	}
	return nil
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Index the project and keep the index current until interrupted",
		Action: func(c *cli.Context) error {
			ctx, cancel := signalContext()
			defer cancel()

			sess, err := openSession(ctx, c)
			if err != nil {
				return err
			}
			fmt.Printf("Indexed %d files, watching %s\n",
				sess.stats.Indexed, sess.cfg.Project.Root)

			watcher, err := indexing.NewFileWatcher(sess.cfg, sess.indexer, sess.scanner)
			if err != nil {
				return err
			}
			if err := watcher.Start(sess.cfg.Project.Root); err != nil {
				return err
			}
			defer watcher.Stop()

			<-ctx.Done()
			return nil
		},
	}
}

// buildScope converts --scope paths into a file scope. Paths must already
// be indexed; unknown paths are an error rather than silently empty.
func buildScope(sess *session, paths []string) (types.SearchScope, error) {
	if len(paths) == 0 {
		return types.EverythingScope(), nil
	}
	fileIDs := make([]types.FileID, 0, len(paths))
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return types.SearchScope{}, err
		}
		id, ok := sess.graph.FileIDForPath(abs)
		if !ok {
			return types.SearchScope{}, fmt.Errorf("scope file not indexed: %s", path)
		}
		fileIDs = append(fileIDs, id)
	}
	return types.FileScope(fileIDs...), nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
