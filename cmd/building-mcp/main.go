package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/ironsheep/building-recon-mcp/internal/config"
	"github.com/ironsheep/building-recon-mcp/internal/detection"
	"github.com/ironsheep/building-recon-mcp/internal/server"
	"github.com/ironsheep/building-recon-mcp/internal/units"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("%s %s\n", server.Name, Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printHelp()
			return
		}
	}

	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	if cfg.Debug {
		log.Printf("Building MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
		log.Printf("backend=%s workers=%d unit=%s ocr=%s", cfg.Backend, cfg.Workers, cfg.OutputUnit, cfg.OCRLanguage)
	}

	srv, err := server.New(cfg)
	if err != nil {
		log.Fatalf("Server setup failed: %v", err)
	}
	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func printHelp() {
	fmt.Printf("%s - MCP server that reconstructs 3D buildings from plan drawings\n", server.Name)
	fmt.Println()
	fmt.Printf("Usage: %s [options]\n", server.Name)
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables (also read from .env):")
	fmt.Printf("  %s=debug       Enable debug logging\n", config.EnvLogLevel)
	fmt.Printf("  %s=<file.json>     Tuning file overlaid on the defaults\n", config.EnvConfigFile)
	fmt.Printf("  %s=<n>            Images processed in parallel\n", config.EnvWorkers)
	fmt.Printf("  %s=<unit>     Unit for calibrated results (%s)\n", config.EnvOutputUnit, units.GetValidUnitsString())
	fmt.Printf("  %s=<lang>        Tesseract language for dimension labels\n", config.EnvOCRLanguage)
	fmt.Printf("  %s=<px>   Downscale drawings larger than this\n", config.EnvMaxDimension)
	fmt.Printf("  %s=<name>        Detection backend (%s)\n", config.EnvBackend, strings.Join(detection.BackendNames(), ", "))
	fmt.Println()
	fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
	fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
}
