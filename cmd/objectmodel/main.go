package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/livefir/objectmodel/cmd/objectmodel/commands"
)

// Version information (can be overridden at build time with -ldflags)
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error

	switch command {
	case "render":
		err = commands.Render(args)
	case "serve":
		err = commands.Serve(args)
	case "inspect":
		err = commands.Inspect(args)
	case "version", "--version", "-v":
		printVersion()
		return
	case "help", "--help", "-h":
		printUsage()
		return
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printVersion() {
	fmt.Printf("objectmodel version %s\n", version)

	if info, ok := debug.ReadBuildInfo(); ok {
		var vcsRevision, vcsModified string
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				vcsRevision = setting.Value
			case "vcs.modified":
				vcsModified = setting.Value
			}
		}

		if commit != "unknown" {
			fmt.Printf("commit: %s\n", commit)
		} else if vcsRevision != "" {
			if len(vcsRevision) > 12 {
				vcsRevision = vcsRevision[:12]
			}
			fmt.Printf("commit: %s\n", vcsRevision)
		}
		if vcsModified == "true" {
			fmt.Printf("modified: true (uncommitted changes)\n")
		}
		fmt.Printf("go: %s\n", info.GoVersion)
	}
}

func printUsage() {
	fmt.Println("objectmodel - declarative bindings for HTML documents")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  objectmodel render <scenario.yaml> [flags]   Play a scenario and print the document")
	fmt.Println("  objectmodel serve <scenario.yaml> [flags]    Serve the scenario page as a live app")
	fmt.Println("  objectmodel inspect <scenario.yaml> [flags]  Step through a scenario in the terminal")
	fmt.Println("  objectmodel version                          Show version information")
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  --config <path>     Config file (default: " + "objectmodel.yaml" + ")")
	fmt.Println("  --minify            Minify rendered HTML (render, serve)")
	fmt.Println("  --body              Print only the body (render)")
	fmt.Println("  --listen <addr>     Listen address (serve)")
	fmt.Println("  --verbose           Debug logging")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  objectmodel render app.yaml --minify")
	fmt.Println("  objectmodel serve app.yaml --listen :8080")
}
