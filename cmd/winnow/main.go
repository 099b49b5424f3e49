package main

import (
	"flag"
	"fmt"
	"os"
	"runtime/pprof"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/mwoudstra/winnow/pkg/config"
	"github.com/mwoudstra/winnow/pkg/debug"
	"github.com/mwoudstra/winnow/pkg/source"
	"github.com/mwoudstra/winnow/pkg/ui"
	"github.com/mwoudstra/winnow/pkg/version"
	"github.com/mwoudstra/winnow/pkg/watcher"
)

func main() {
	feedFlag := flag.String("feed", "", "Feed target: http(s) URL, .db path or .jsonl path (or a feed name from config)")
	pageSize := flag.Int("page-size", 0, "Records per fetch (overrides config)")
	poolSize := flag.Int("pool-size", 0, "Row-slot pool capacity (overrides config)")
	noWatch := flag.Bool("no-watch", false, "Do not watch local feed files for changes")
	cpuProfile := flag.String("cpu-profile", "", "Write CPU profile to file")
	versionFlag := flag.Bool("version", false, "Show version")
	help := flag.Bool("help", false, "Show help")
	flag.Parse()

	if *help {
		fmt.Println("Usage: winnow [options]")
		fmt.Println("\nA terminal browser for large paginated report feeds.")
		flag.PrintDefaults()
		os.Exit(0)
	}
	if *versionFlag {
		fmt.Printf("winnow %s\n", version.Version)
		os.Exit(0)
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not create CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Could not start CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "winnow is interactive; stdout must be a terminal")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
	}
	if *pageSize > 0 {
		cfg.List.PageSize = *pageSize
	}
	if *poolSize > 0 {
		cfg.List.PoolSize = *poolSize
	}

	target, feedName := resolveFeed(cfg, *feedFlag)
	if target == "" {
		fmt.Fprintln(os.Stderr, "No feed given. Use --feed or set default_feed in", config.Path())
		os.Exit(1)
	}

	src, err := source.Detect(target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	m := ui.New(ui.Options{
		Config:   cfg,
		Source:   src,
		FeedName: feedName,
	})
	p := tea.NewProgram(m, tea.WithAltScreen())

	// Local feed files reload through the same fresh-epoch path as a
	// filter change whenever they change on disk.
	if _, reloadable := src.(source.Reloadable); reloadable && !*noWatch {
		w, err := watcher.New(target,
			watcher.WithOnChange(func() {
				p.Send(ui.FeedChangedMsg{})
			}),
			watcher.WithOnError(func(err error) {
				debug.Warn("watcher: %v", err)
			}),
		)
		if err == nil && w.Start() == nil {
			defer w.Stop()
		}
	}

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// resolveFeed maps the --feed flag through the config: a registered feed
// name wins, then a literal target, then the configured default feed.
func resolveFeed(cfg config.Config, flagValue string) (target, name string) {
	if flagValue != "" {
		if feed := cfg.FindFeed(flagValue); feed != nil {
			return feed.Target, feed.Name
		}
		return flagValue, shortName(flagValue)
	}
	if cfg.DefaultFeed != "" {
		if feed := cfg.FindFeed(cfg.DefaultFeed); feed != nil {
			return feed.Target, feed.Name
		}
	}
	return "", ""
}

func shortName(target string) string {
	if i := strings.LastIndex(target, "/"); i >= 0 && i < len(target)-1 {
		return target[i+1:]
	}
	return target
}
