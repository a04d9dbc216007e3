package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"gopkg.in/yaml.v3"

	"github.com/thomazmoura/spotlight-dimmer-sub001/internal/config"
	"github.com/thomazmoura/spotlight-dimmer-sub001/internal/daemon"
	"github.com/thomazmoura/spotlight-dimmer-sub001/internal/ipc"
	"github.com/thomazmoura/spotlight-dimmer-sub001/internal/platform"
	"github.com/thomazmoura/spotlight-dimmer-sub001/internal/tui"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		os.Exit(runDaemon(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "displays":
		os.Exit(runDisplays(os.Args[2:]))
	case "pause", "resume", "toggle":
		os.Exit(runPause(os.Args[1], os.Args[2:]))
	case "mode":
		os.Exit(runMode(os.Args[2:]))
	case "profile":
		os.Exit(runProfile(os.Args[2:]))
	case "reload":
		os.Exit(runReload(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: spotlight-dimmer <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Start the dimmer daemon (foreground)")
	fmt.Fprintln(w, "  status              Show daemon status")
	fmt.Fprintln(w, "  displays            List displays covered by the daemon")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  pause               Hide all overlays")
	fmt.Fprintln(w, "  resume              Show overlays again")
	fmt.Fprintln(w, "  toggle              Toggle pause")
	fmt.Fprintln(w, "  mode <mode>         Set overlay mode (fullscreen, partial, partial-with-active)")
	fmt.Fprintln(w, "  reload              Reload configuration in the daemon")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  profile list        List profiles")
	fmt.Fprintln(w, "  profile apply       Apply a profile")
	fmt.Fprintln(w, "  profile save        Save current settings as a profile")
	fmt.Fprintln(w, "  profile delete      Delete a saved profile")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "  config path         Print the configuration file path")
	fmt.Fprintln(w, "  config explain      Explain a config value")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'spotlight-dimmer <command> --help' for command-specific options.")
}

func runDaemon(args []string) int {
	fs := flag.NewFlagSet("daemon", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("path", "", "Config file path (default: ~/.config/spotlight-dimmer/config.yaml)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: spotlight-dimmer daemon [--path PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Run the dimmer in the foreground. SIGHUP reloads the config.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "daemon takes no arguments")
		fs.Usage()
		return 2
	}

	level := new(slog.LevelVar)
	logger, closer, err := daemon.NewLogger(level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log: %v\n", err)
		return 1
	}
	defer closer.Close()

	res, err := loadConfig(*path)
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		return 1
	}
	level.Set(res.Config.SlogLevel())
	logger.Info("configuration loaded",
		"path", res.Config.Path(),
		"mode", res.Config.Mode,
		"paused", res.Config.Paused)

	backend, err := platform.NewLinuxBackendFromDisplay()
	if err != nil {
		logger.Error("failed to connect to display", "error", err)
		return 1
	}
	defer backend.Disconnect()

	d, err := daemon.New(daemon.Options{
		Backend:     backend,
		Config:      res.Config,
		ConfigFiles: res.Files,
		Logger:      logger,
		LogLevel:    level,
	})
	if err != nil {
		logger.Error("failed to create daemon", "error", err)
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-sigCh:
				if sig == syscall.SIGHUP {
					logger.Info("received SIGHUP, reloading config")
					if err := d.Reload(); err != nil {
						logger.Warn("config reload failed", "error", err)
					}
					continue
				}
				logger.Info("received signal, stopping", "signal", sig.String())
				cancel()
				return
			}
		}
	}()

	if err := d.Run(ctx); err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			fmt.Fprintln(os.Stderr, "spotlight-dimmer is already running")
		}
		logger.Error("daemon stopped", "error", err)
		return 1
	}
	return 0
}

func loadConfig(path string) (*config.LoadResult, error) {
	if path == "" {
		return config.LoadWithSources()
	}
	return config.LoadFromPath(path)
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	asJSON := fs.Bool("json", false, "Print status as JSON")
	watch := fs.Bool("watch", false, "Show a live status view")
	refresh := fs.Duration("refresh", tui.DefaultRefresh, "Refresh interval for --watch")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: spotlight-dimmer status [--json] [--watch [--refresh D]]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show daemon status via IPC.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	if *watch {
		if err := tui.Run(client, *refresh); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}

	status, err := client.GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *asJSON {
		return printJSON(os.Stdout, status)
	}
	printStatus(os.Stdout, status)
	return 0
}

func printStatus(w io.Writer, st *ipc.StatusData) {
	fmt.Fprintf(w, "daemon_running:   %v\n", st.DaemonRunning)
	fmt.Fprintf(w, "paused:           %v\n", st.Paused)
	fmt.Fprintf(w, "state:            %s\n", st.State)
	fmt.Fprintf(w, "mode:             %s\n", st.Mode)
	fmt.Fprintf(w, "inactive:         %s @ %.2f\n", st.InactiveColor, st.InactiveAlpha)
	fmt.Fprintf(w, "active:           %s @ %.2f\n", st.ActiveColor, st.ActiveAlpha)
	fmt.Fprintf(w, "focused_display:  %d\n", st.FocusedDisplay)
	fmt.Fprintf(w, "display_count:    %d\n", st.DisplayCount)
	fmt.Fprintf(w, "surfaces:         %d\n", st.Renderer.Surfaces)
	fmt.Fprintf(w, "render_failures:  %d\n", st.Renderer.Failures)
	fmt.Fprintf(w, "uptime_seconds:   %d\n", st.UptimeSeconds)
	if st.ConfigPath != "" {
		fmt.Fprintf(w, "config:           %s\n", st.ConfigPath)
	}
}

func runDisplays(args []string) int {
	fs := flag.NewFlagSet("displays", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	asJSON := fs.Bool("json", false, "Print displays as JSON")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	data, err := ipc.NewClient().GetDisplays()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *asJSON {
		return printJSON(os.Stdout, data)
	}
	for _, d := range data.Displays {
		fmt.Printf("%d\t%s\t%dx%d+%d+%d\n", d.ID, d.Name, d.Width, d.Height, d.X, d.Y)
	}
	return 0
}

func runPause(cmd string, args []string) int {
	if len(args) > 0 && (args[0] == "help" || args[0] == "-h" || args[0] == "--help") {
		fmt.Fprintf(os.Stdout, "Usage: spotlight-dimmer %s\n", cmd)
		return 0
	}
	if len(args) != 0 {
		fmt.Fprintf(os.Stderr, "%s takes no arguments\n", cmd)
		return 2
	}

	client := ipc.NewClient()
	var (
		paused bool
		err    error
	)
	switch cmd {
	case "pause":
		paused, err = client.Pause()
	case "resume":
		paused, err = client.Resume()
	default:
		paused, err = client.TogglePause()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("paused: %v\n", paused)
	return 0
}

func runMode(args []string) int {
	if len(args) != 1 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintln(os.Stderr, "Usage: spotlight-dimmer mode <fullscreen|partial|partial-with-active>")
		return 2
	}
	if err := ipc.NewClient().SetMode(args[0]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runReload(args []string) int {
	if len(args) != 0 {
		fmt.Fprintln(os.Stderr, "Usage: spotlight-dimmer reload")
		return 2
	}
	if err := ipc.NewClient().Reload(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println("config reloaded")
	return 0
}

func runConfig(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  spotlight-dimmer config validate [--path PATH]")
		fmt.Fprintln(os.Stderr, "  spotlight-dimmer config print [--path PATH] [--effective|--defaults]")
		fmt.Fprintln(os.Stderr, "  spotlight-dimmer config path")
		fmt.Fprintln(os.Stderr, "  spotlight-dimmer config explain [--path PATH] <yaml.path>")
		return 2
	}

	switch args[0] {
	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/spotlight-dimmer/config.yaml)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if _, err := loadConfig(*path); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println("config: ok")
		return 0

	case "print":
		fs := flag.NewFlagSet("print", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/spotlight-dimmer/config.yaml)")
		printDefaults := fs.Bool("defaults", false, "Print built-in defaults (no files)")
		_ = fs.Bool("effective", false, "Print effective config (default)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		cfg := config.DefaultConfig()
		if !*printDefaults {
			res, err := loadConfig(*path)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
			cfg = res.Config
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Print(string(data))
		return 0

	case "path":
		path, err := config.DefaultConfigPath()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println(path)
		return 0

	case "explain":
		fs := flag.NewFlagSet("explain", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/spotlight-dimmer/config.yaml)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if fs.NArg() < 1 {
			fmt.Fprintln(os.Stderr, "explain requires <yaml.path>")
			return 2
		}
		queryPath := fs.Arg(0)

		res, err := loadConfig(*path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		value, src, err := config.Explain(res, queryPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		out, err := yaml.Marshal(value)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}

		fmt.Printf("path: %s\n", queryPath)
		fmt.Printf("source: %s\n", formatSource(src))
		fmt.Printf("value:\n%s", string(out))
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown config subcommand: %s\n", args[0])
		return 2
	}
}

func formatSource(src config.Source) string {
	switch src.Kind {
	case config.SourceFile:
		if src.File == "" {
			return "file"
		}
		if src.Line > 0 {
			return fmt.Sprintf("file:%s:%d:%d", src.File, src.Line, src.Column)
		}
		return "file:" + src.File
	case config.SourceBuiltin:
		if src.Name != "" {
			return "builtin:" + src.Name
		}
		return "builtin"
	case config.SourceDefault:
		if src.Name != "" {
			return "default:" + src.Name
		}
		return "default"
	default:
		return string(src.Kind)
	}
}

func printJSON(w io.Writer, v any) int {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
