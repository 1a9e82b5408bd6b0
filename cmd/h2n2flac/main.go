package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/handiism/h2n2flac/internal/config"
	"github.com/handiism/h2n2flac/internal/convert"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "0.3.0"

var (
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFE66D"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ECDC4"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#95E1D3"))
	verboseStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
)

func main() {
	program := filepath.Base(os.Args[0])

	// Command line flags
	var (
		configFlag  = flag.String("config", "", "Path to config file (.json, .yaml or .yml)")
		formatFlag  = flag.String("format", "", "Output format: flac or ogg (default chosen by program name)")
		outputFlag  = flag.String("output", "", "Output directory (overrides config)")
		skipFlag    = flag.Bool("skip-existing", false, "Skip recordings whose output already exists")
		keepGoing   = flag.Bool("keep-going", false, "Continue with the next recording after a failure")
		coverFlag   = flag.String("cover", "", "Image to embed as cover art (FLAC only)")
		verboseFlag = flag.Bool("verbose", false, "Show verbose output")
	)
	var normalize, showVersion, showHelp bool
	flag.BoolVar(&normalize, "n", false, "Normalize the output")
	flag.BoolVar(&normalize, "normalize", false, "Normalize the output")
	flag.BoolVar(&showVersion, "v", false, "Print the version info")
	flag.BoolVar(&showVersion, "version", false, "Print the version info")
	flag.BoolVar(&showHelp, "h", false, "Print this help menu")
	flag.BoolVar(&showHelp, "help", false, "Print this help menu")
	flag.Usage = func() { printUsage(program) }

	flag.Parse()

	if showHelp {
		printUsage(program)
		return
	}
	if showVersion {
		fmt.Printf("%s version %s\n", program, version)
		return
	}
	if flag.NArg() == 0 {
		printUsage(program)
		return
	}
	if err := checkInputs(flag.Args()); err != nil {
		fail(err)
	}

	// Load config
	settings := config.DefaultSettings()
	if *configFlag != "" {
		var err error
		settings, err = config.Load(*configFlag)
		if err != nil {
			fail(fmt.Errorf("loading config: %w", err))
		}
	}

	// Apply flags
	if normalize {
		settings.Normalize = true
	}
	if *formatFlag != "" {
		settings.OutputFormat = *formatFlag
	}
	if *outputFlag != "" {
		settings.OutputDir = *outputFlag
	}
	if *skipFlag {
		settings.SkipExisting = true
	}
	if *keepGoing {
		settings.ContinueOnError = true
	}
	if *coverFlag != "" {
		settings.CoverArtPath = *coverFlag
	}
	if err := settings.Validate(); err != nil {
		fail(err)
	}

	format, err := settings.ResolveFormat(program)
	if err != nil {
		fail(err)
	}

	// Handle interrupts
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nInterrupted, cancelling...")
		cancel()
	}()

	// Create manager with progress callback
	manager := convert.NewManager(settings, format, nil, func(event convert.ProgressEvent) {
		if event.Level == convert.LevelVerbose && !*verboseFlag {
			return
		}
		fmt.Println(renderEvent(event))
	})

	fmt.Println(titleStyle.Render(fmt.Sprintf("H2n converter (%s)", format)))
	fmt.Println()

	if err := manager.Initialize(ctx, flag.Args()); err != nil {
		if ctx.Err() != nil {
			os.Exit(130)
		}
		fail(err)
	}

	if err := manager.Run(ctx); err != nil {
		if ctx.Err() != nil {
			fmt.Println("\nConversion cancelled.")
			os.Exit(130)
		}
		fail(err)
	}

	_, _, done, total := manager.GetProgress()
	fmt.Println()
	fmt.Println(successStyle.Render(fmt.Sprintf("Complete! Converted %d/%d recordings", done, total)))
}

func renderEvent(event convert.ProgressEvent) string {
	switch event.Level {
	case convert.LevelError:
		return errorStyle.Render("✗ " + event.Message)
	case convert.LevelWarning:
		return warningStyle.Render("! " + event.Message)
	case convert.LevelSuccess:
		return successStyle.Render("✓ " + event.Message)
	case convert.LevelInfo:
		return infoStyle.Render("• " + event.Message)
	default:
		return verboseStyle.Render("  " + event.Message)
	}
}

func printUsage(program string) {
	fmt.Printf("Usage: %s [options] FILE|DIR ...\n", program)
	fmt.Println()
	fmt.Println("Each FILE is an H2n recording (...MS.WAV or ...XY.WAV) or a directory of them.")
	fmt.Println("Installed as h2n2flac the output is FLAC, under any other name Ogg Vorbis.")
	fmt.Println()
	fmt.Println("For interactive mode, use: h2n-tui")
	fmt.Println()
	flag.PrintDefaults()
}

// checkInputs rejects flags given after the first file. flag stops parsing
// there, so they would otherwise be taken as recording names.
func checkInputs(args []string) error {
	for _, arg := range args {
		if strings.HasPrefix(arg, "-") {
			return fmt.Errorf("option %q given after the files; put options before FILE|DIR", arg)
		}
	}
	return nil
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
