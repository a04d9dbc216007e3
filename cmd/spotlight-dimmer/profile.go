package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/thomazmoura/spotlight-dimmer-sub001/internal/ipc"
)

func printProfileUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  spotlight-dimmer profile list [--json]")
	fmt.Fprintln(w, "  spotlight-dimmer profile apply <name>")
	fmt.Fprintln(w, "  spotlight-dimmer profile save <name>")
	fmt.Fprintln(w, "  spotlight-dimmer profile delete <name>")
}

func runProfile(args []string) int {
	if len(args) == 0 {
		printProfileUsage(os.Stderr)
		return 2
	}

	switch args[0] {
	case "list":
		return runProfileList(args[1:])
	case "apply", "save", "delete":
		return runProfileNamed(args[0], args[1:])
	case "help", "-h", "--help":
		printProfileUsage(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown profile command: %s\n\n", args[0])
		printProfileUsage(os.Stderr)
		return 2
	}
}

func runProfileList(args []string) int {
	fs := flag.NewFlagSet("profile list", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	asJSON := fs.Bool("json", false, "Print profiles as JSON")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	data, err := ipc.NewClient().ListProfiles()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *asJSON {
		return printJSON(os.Stdout, data)
	}
	printProfiles(os.Stdout, data.Profiles)
	return 0
}

func printProfiles(w io.Writer, profiles []ipc.ProfileInfo) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tMODE\tINACTIVE\tACTIVE")
	for _, p := range profiles {
		fmt.Fprintf(tw, "%s\t%s\t%s @ %.2f\t%s @ %.2f\n",
			p.Name, p.Mode, p.InactiveColor, p.InactiveOpacity, p.ActiveColor, p.ActiveOpacity)
	}
	tw.Flush()
}

func runProfileNamed(cmd string, args []string) int {
	if len(args) != 1 || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintf(os.Stderr, "Usage: spotlight-dimmer profile %s <name>\n", cmd)
		return 2
	}
	name := args[0]

	client := ipc.NewClient()
	var err error
	switch cmd {
	case "apply":
		err = client.ApplyProfile(name)
	case "save":
		err = client.SaveProfile(name)
	case "delete":
		err = client.DeleteProfile(name)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
