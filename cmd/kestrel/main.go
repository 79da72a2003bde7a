package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/kestrelbrowser/kestrel/internal/config"
	"github.com/kestrelbrowser/kestrel/internal/ipc"
	"github.com/kestrelbrowser/kestrel/internal/tui"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		os.Exit(runDaemonCmd(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "tab":
		os.Exit(runTab(os.Args[2:]))
	case "zoom":
		os.Exit(runZoom(os.Args[2:]))
	case "print":
		os.Exit(runPrint(os.Args[2:]))
	case "fullscreen":
		os.Exit(runFullscreen(os.Args[2:]))
	case "auth":
		os.Exit(runAuth(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "reload":
		os.Exit(runReload(os.Args[2:]))
	case "tui":
		os.Exit(runTUI(os.Args[2:]))
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
	fmt.Fprintln(w, "Usage: kestrel <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Start the kestrel shell daemon (foreground)")
	fmt.Fprintln(w, "  status              Show daemon status")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  tab open            Open a URL in a new tab")
	fmt.Fprintln(w, "  tab list            List tabs")
	fmt.Fprintln(w, "  tab select          Select a tab by ID")
	fmt.Fprintln(w, "  tab close           Close a tab")
	fmt.Fprintln(w, "  tab mute            Mute a tab's audio")
	fmt.Fprintln(w, "  tab unmute          Unmute a tab's audio")
	fmt.Fprintln(w, "  tab clear           Close all tabs")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  zoom in|out|reset   Adjust the selected tab's zoom")
	fmt.Fprintln(w, "  print               Print the selected tab")
	fmt.Fprintln(w, "  fullscreen on|off   Toggle fullscreen layout")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  auth request        Request credentials for a URL (blocks)")
	fmt.Fprintln(w, "  auth resolve        Deliver credentials to the pending request")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "  reload              Ask the daemon to reload its configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  tui                 Open the interactive tab switcher")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'kestrel <command> --help' for command-specific options.")
}

func runDaemonCmd(args []string) int {
	fs := flag.NewFlagSet("daemon", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	incognito := fs.Bool("incognito", false, "Run the window in incognito mode")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: kestrel daemon [--incognito]")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	runDaemon(*incognito)
	return 0
}

// windowClient builds a client from a parsed --window flag.
func windowClient(windowID uint) *ipc.Client {
	c := ipc.NewClient()
	c.SetWindow(uint32(windowID))
	return c
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	jsonOut := fs.Bool("json", false, "Output as JSON")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: kestrel status [--json]")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	status, err := ipc.NewClient().GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if *jsonOut {
		data, _ := json.MarshalIndent(status, "", "  ")
		fmt.Println(string(data))
		return 0
	}

	fmt.Printf("daemon: running\n")
	fmt.Printf("windows: %d\n", status.WindowCount)
	fmt.Printf("tabs: %d\n", status.ViewCount)
	fmt.Printf("uptime: %ds\n", status.UptimeSeconds)
	return 0
}

func runTab(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  kestrel tab open [--window ID] [--background] [--next] URL...")
		fmt.Fprintln(os.Stderr, "  kestrel tab list [--window ID] [--json]")
		fmt.Fprintln(os.Stderr, "  kestrel tab select [--window ID] [--no-focus] ID")
		fmt.Fprintln(os.Stderr, "  kestrel tab close [--window ID] ID")
		fmt.Fprintln(os.Stderr, "  kestrel tab mute [--window ID] ID")
		fmt.Fprintln(os.Stderr, "  kestrel tab unmute [--window ID] ID")
		fmt.Fprintln(os.Stderr, "  kestrel tab clear [--window ID]")
		return 2
	}

	switch args[0] {
	case "open":
		fs := flag.NewFlagSet("open", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		window := fs.Uint("window", 0, "Target window ID")
		background := fs.Bool("background", false, "Do not select the new tab")
		isNext := fs.Bool("next", false, "Place the tab next to the current one")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		urls := fs.Args()
		if len(urls) == 0 {
			fmt.Fprintln(os.Stderr, "tab open requires at least one URL")
			return 2
		}
		client := windowClient(*window)

		if len(urls) > 1 {
			ids, err := client.CreateViews(urls)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
			for _, id := range ids {
				fmt.Println(id)
			}
			return 0
		}

		var id int
		var err error
		if *background {
			id, err = client.CreateView(urls[0], *isNext)
		} else {
			id, err = client.AddTab(urls[0])
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println(id)
		return 0

	case "list":
		fs := flag.NewFlagSet("list", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		window := fs.Uint("window", 0, "Target window ID")
		jsonOut := fs.Bool("json", false, "Output as JSON")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		state, err := windowClient(*window).GetState()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}

		if *jsonOut {
			data, _ := json.MarshalIndent(state, "", "  ")
			fmt.Println(string(data))
			return 0
		}

		for _, v := range state.Views {
			mark := " "
			if v.ID == state.Selected {
				mark = "*"
			}
			label := v.Title
			if label == "" {
				label = v.URL
			}
			fmt.Printf("%s %3d  %s\n", mark, v.ID, label)
		}
		return 0

	case "select":
		fs := flag.NewFlagSet("select", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		window := fs.Uint("window", 0, "Target window ID")
		noFocus := fs.Bool("no-focus", false, "Keep keyboard focus on the toolbar")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		id, ok := parseID(fs.Args())
		if !ok {
			return 2
		}
		if err := windowClient(*window).SelectView(id, !*noFocus); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0

	case "close":
		fs := flag.NewFlagSet("close", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		window := fs.Uint("window", 0, "Target window ID")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		id, ok := parseID(fs.Args())
		if !ok {
			return 2
		}
		if err := windowClient(*window).DestroyView(id); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0

	case "mute", "unmute":
		fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		window := fs.Uint("window", 0, "Target window ID")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		id, ok := parseID(fs.Args())
		if !ok {
			return 2
		}
		if err := windowClient(*window).MuteView(id, args[0] == "mute"); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0

	case "clear":
		fs := flag.NewFlagSet("clear", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		window := fs.Uint("window", 0, "Target window ID")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if err := windowClient(*window).ClearViews(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown tab command: %s\n", args[0])
		return 2
	}
}

func parseID(args []string) (int, bool) {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "expected exactly one tab ID")
		return 0, false
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid tab ID %q\n", args[0])
		return 0, false
	}
	return id, true
}

func runZoom(args []string) int {
	fs := flag.NewFlagSet("zoom", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	window := fs.Uint("window", 0, "Target window ID")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: kestrel zoom [--window ID] in|out|reset")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}

	client := windowClient(*window)
	var data *ipc.ZoomData
	var err error
	switch fs.Arg(0) {
	case "in", "out":
		data, err = client.ChangeZoom(fs.Arg(0))
	case "reset":
		data, err = client.ResetZoom()
	default:
		fs.Usage()
		return 2
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if !data.Applied {
		fmt.Printf("zoom unchanged at %d%% (limit reached)\n", int(data.Factor*100))
		return 0
	}
	fmt.Printf("zoom %d%%\n", int(data.Factor*100))
	return 0
}

func runPrint(args []string) int {
	fs := flag.NewFlagSet("print", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	window := fs.Uint("window", 0, "Target window ID")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if err := windowClient(*window).Print(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runFullscreen(args []string) int {
	fs := flag.NewFlagSet("fullscreen", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	window := fs.Uint("window", 0, "Target window ID")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: kestrel fullscreen [--window ID] on|off")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	var on bool
	switch fs.Arg(0) {
	case "on":
		on = true
	case "off":
		on = false
	default:
		fs.Usage()
		return 2
	}
	if err := windowClient(*window).SetFullscreen(on); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runAuth(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  kestrel auth request [--window ID] URL")
		fmt.Fprintln(os.Stderr, "  kestrel auth resolve [--window ID] USERNAME PASSWORD")
		return 2
	}

	switch args[0] {
	case "request":
		fs := flag.NewFlagSet("request", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		window := fs.Uint("window", 0, "Target window ID")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if fs.NArg() != 1 {
			fmt.Fprintln(os.Stderr, "auth request requires a URL")
			return 2
		}
		data, err := windowClient(*window).RequestAuth(fs.Arg(0))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if data.Canceled {
			fmt.Println("canceled")
			return 1
		}
		fmt.Printf("%s\n", data.Username)
		return 0

	case "resolve":
		fs := flag.NewFlagSet("resolve", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		window := fs.Uint("window", 0, "Target window ID")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if fs.NArg() != 2 {
			fmt.Fprintln(os.Stderr, "auth resolve requires USERNAME and PASSWORD")
			return 2
		}
		if err := windowClient(*window).ResolveAuth(fs.Arg(0), fs.Arg(1)); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown auth command: %s\n", args[0])
		return 2
	}
}

func runConfig(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  kestrel config validate [--path PATH]")
		fmt.Fprintln(os.Stderr, "  kestrel config print [--path PATH] [--defaults]")
		return 2
	}

	switch args[0] {
	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/kestrel/config.yaml)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		var err error
		if *path == "" {
			_, err = config.Load()
		} else {
			_, err = config.LoadFromPath(*path)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println("config: ok")
		return 0

	case "print":
		fs := flag.NewFlagSet("print", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/kestrel/config.yaml)")
		printDefaults := fs.Bool("defaults", false, "Print built-in defaults (no files)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		var cfg *config.Config
		var err error
		if *printDefaults {
			cfg = config.DefaultConfig()
		} else if *path == "" {
			cfg, err = config.Load()
		} else {
			cfg, err = config.LoadFromPath(*path)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		os.Stdout.Write(data)
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown config command: %s\n", args[0])
		return 2
	}
}

func runReload(args []string) int {
	fs := flag.NewFlagSet("reload", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if err := ipc.NewClient().Reload(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println("reload requested")
	return 0
}

func runTUI(args []string) int {
	fs := flag.NewFlagSet("tui", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	window := fs.Uint("window", 0, "Target window ID")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: kestrel tui [--window ID]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Interactive tab switcher for the running daemon.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Keybindings:")
		fmt.Fprintln(os.Stderr, "  j/k, ↑/↓  Navigate tabs")
		fmt.Fprintln(os.Stderr, "  Enter     Select tab")
		fmt.Fprintln(os.Stderr, "  n         Open a new tab")
		fmt.Fprintln(os.Stderr, "  x         Close tab")
		fmt.Fprintln(os.Stderr, "  m         Toggle mute")
		fmt.Fprintln(os.Stderr, "  +/-/0     Zoom in / out / reset")
		fmt.Fprintln(os.Stderr, "  r         Refresh")
		fmt.Fprintln(os.Stderr, "  q, Ctrl+C Quit")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	if err := tui.Run(uint32(*window)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
