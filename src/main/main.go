package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"fyne.io/fyne/v2/app"
	"github.com/spf13/cobra"

	"screen-cleave/src/clipboard"
	"screen-cleave/src/config"
	"screen-cleave/src/eventloop"
	"screen-cleave/src/hotkey"
	"screen-cleave/src/logutil"
	"screen-cleave/src/output"
	"screen-cleave/src/overlay"
	"screen-cleave/src/screenshot"
	"screen-cleave/src/session"
	"screen-cleave/src/singleinstance"
	"screen-cleave/src/tray"
)

const (
	appID    = "io.github.screen-cleave"
	appTitle = "Screen Cleave"
)

const longHelp = `Captures every monitor, lets you select a region in a fullscreen overlay and
copies the result to the clipboard or saves it to a directory.

The overlay window covers the primary display only. To capture an area on
another display, or one spanning several, pass --region x,y,width,height
(see --monitor-list for display positions) or pick a display with --monitor.`

type mainOptions struct {
	outputDir   string
	format      string
	mode        string
	monitor     int
	region      string
	filename    string
	delayMS     uint64
	monitorList bool
	scale       float64
	filter      string
	hotkey      string
	persistent  bool
	sleepMS     uint64
	trigger     bool
}

// longFlags lists the long flag names accepted with a single dash.
var longFlags = map[string]bool{
	"output-dir": true, "format": true, "mode": true, "monitor": true,
	"region": true, "filename": true, "delay": true, "monitor-list": true,
	"scale": true, "filter": true, "daemon-hotkey": true, "persistent": true,
	"sleep": true, "trigger": true,
}

func init() {
	// fyne and the tray both need the main OS thread.
	runtime.LockOSThread()
}

func main() {
	if err := run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	args = normalizeLegacyArgs(args)
	if len(args) == 0 {
		args = []string{"screen-cleave"}
	}
	opts := &mainOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

// normalizeLegacyArgs maps Go-style -output-dir to --output-dir.
func normalizeLegacyArgs(args []string) []string {
	out := make([]string, len(args))
	copy(out, args)
	for i := 1; i < len(out); i++ {
		arg := out[i]
		if arg == "--" {
			break
		}
		if !strings.HasPrefix(arg, "-") || strings.HasPrefix(arg, "--") {
			continue
		}
		name, _, _ := strings.Cut(arg[1:], "=")
		if longFlags[name] {
			out[i] = "-" + arg
		}
	}
	return out
}

func newRootCmd(opts *mainOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "screen-cleave",
		Short:         "Select a region of the screen and copy or save it",
		Long:          longHelp,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.trigger {
				return triggerDaemon()
			}
			return runWithOptions(opts.loadOptions(cmd.Flags().Changed))
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.outputDir, "output-dir", "o", "", "Output directory; the capture goes to the clipboard when empty")
	f.StringVar(&opts.format, "format", "", "Output format: png, jpeg, gif, bmp, tiff (needs --output-dir)")
	f.StringVarP(&opts.mode, "mode", "m", "", "Arrow key mode: move, resize, inverse-resize (default move)")
	f.IntVar(&opts.monitor, "monitor", -1, "Capture only this monitor index")
	f.StringVarP(&opts.region, "region", "i", "", "Capture x,y,width,height without prompting; works across displays")
	f.StringVarP(&opts.filename, "filename", "f", "", "File name prefix (needs --output-dir)")
	f.Uint64VarP(&opts.delayMS, "delay", "d", 0, "Delay in milliseconds before capturing")
	f.BoolVarP(&opts.monitorList, "monitor-list", "l", false, "List monitors and exit")
	f.Float64VarP(&opts.scale, "scale", "r", 0, "Scale the captured image by a factor")
	f.StringVarP(&opts.filter, "filter", "q", "", "Scaling filter: Nearest, Triangle, CatmullRom, Gaussian, Lanczos3")
	f.StringVar(&opts.hotkey, "daemon-hotkey", "", "Run in the background and capture whenever this hotkey is pressed")
	f.BoolVarP(&opts.persistent, "persistent", "p", false, "Keep the daemon running after the first capture")
	f.Uint64VarP(&opts.sleepMS, "sleep", "s", uint64(config.DefaultSleep/time.Millisecond), "Milliseconds to wait before listening for the hotkey")
	f.BoolVarP(&opts.trigger, "trigger", "t", false, "Ask the running daemon to capture and exit")
	cmd.MarkFlagsMutuallyExclusive("trigger", "daemon-hotkey")
	cmd.MarkFlagsMutuallyExclusive("trigger", "monitor-list")

	return cmd
}

// loadOptions converts parsed flags; changed reports whether a flag was given.
func (o *mainOptions) loadOptions(changed func(string) bool) config.LoadOptions {
	lo := config.LoadOptions{
		OutputDir:      o.outputDir,
		Format:         o.format,
		Filename:       o.filename,
		ModeOverride:   o.mode,
		FilterOverride: o.filter,
		Region:         o.region,
		Delay:          time.Duration(o.delayMS) * time.Millisecond,
		Persistent:     o.persistent,
		MonitorList:    o.monitorList,
	}
	if changed("monitor") {
		m := o.monitor
		lo.Monitor = &m
	}
	if changed("scale") {
		s := o.scale
		lo.Scale = &s
	}
	if changed("daemon-hotkey") {
		h := o.hotkey
		lo.Hotkey = &h
	}
	if changed("sleep") {
		d := time.Duration(o.sleepMS) * time.Millisecond
		lo.Sleep = &d
	}
	return lo
}

func runWithOptions(lo config.LoadOptions) error {
	cfg, err := config.LoadWithOptions(lo)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logutil.Setup(cfg.EnableFileLogging)
	if err := cfg.Validate(); err != nil {
		return err
	}
	enableDPIAwareness()

	switch {
	case cfg.MonitorList:
		return listMonitors(os.Stdout)
	case cfg.Daemon():
		return runDaemon(cfg, childArgs(normalizeLegacyArgs(os.Args)[1:]))
	default:
		return runCapture(cfg)
	}
}

func listMonitors(w io.Writer) error {
	monitors, err := screenshot.ListMonitors()
	if err != nil {
		return err
	}
	for _, m := range monitors {
		fmt.Fprintln(w, m)
	}
	return nil
}

func runCapture(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	target := cfg.Target()
	if target.Kind == output.Clipboard {
		if err := clipboard.Init(); err != nil {
			return fmt.Errorf("failed to initialize clipboard: %w", err)
		}
	}

	style := cfg.Style()
	opts := session.Options{
		Grabber:   screenshot.NewGrabber(cfg.Monitor, cfg.Delay),
		Sink:      output.NewDispatcher(cfg.OutputOptions()),
		Target:    target,
		Input:     cfg.InputConfig(),
		Magnifier: cfg.Magnifier(),
		Style:     &style,
	}
	log.Printf("Capture: monitor=%d delay=%v target=%s", cfg.Monitor, cfg.Delay, target)

	if cfg.Region != "" {
		region, err := screenshot.ParseRegion(cfg.Region)
		if err != nil {
			return err
		}
		r := region.Rect()
		opts.Region = &r
		s, err := session.Start(ctx, opts)
		if err != nil {
			return err
		}
		res, _ := s.Result()
		return resultError(res)
	}

	host := overlay.New(app.NewWithID(appID), appTitle)
	opts.Surface = host
	s, err := session.Start(ctx, opts)
	if err != nil {
		return err
	}
	return resultError(host.Select(ctx, s))
}

// resultError maps a finished session onto the process exit status. A user
// cancel is not an error.
func resultError(res session.Result) error {
	switch {
	case res.Err == nil:
		log.Printf("Capture: %s %v", res.Phase, res.Desktop)
		return nil
	case errors.Is(res.Err, session.ErrSelectionCancelled):
		log.Printf("Capture: cancelled by user")
		return nil
	default:
		return res.Err
	}
}

func runDaemon(cfg *config.Config, args []string) error {
	combo, err := hotkey.Parse(cfg.Hotkey)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	tooltip := fmt.Sprintf("%s - press %s to capture", appTitle, combo)
	var trayIcon *tray.Tray
	loop := eventloop.New(eventloop.Options{
		Combo:      combo,
		Persistent: cfg.Persistent,
		Sleep:      cfg.Sleep,
		Args:       args,
		OnBusy: func(busy bool) {
			if trayIcon == nil {
				return
			}
			if busy {
				trayIcon.SetTooltip(appTitle + ": capturing...")
			} else {
				trayIcon.SetTooltip(tooltip)
			}
		},
	})
	srv, err := singleinstance.Listen(ctx, loop.Trigger)
	if err != nil {
		return err
	}
	defer srv.Close()
	log.Printf("Daemon: owning loopback port %d", srv.Port())
	fmt.Printf("Daemon started, press %s to capture the screen\n", combo)

	if !cfg.TrayEnabled {
		return daemonExit(loop.Run(ctx))
	}

	trayIcon = tray.New(tray.Config{
		Title:     appTitle,
		Tooltip:   tooltip,
		OnCapture: loop.Trigger,
		OnExit:    cancel,
	})
	errCh := make(chan error, 1)
	go func() {
		errCh <- loop.Run(ctx)
		trayIcon.Quit()
	}()
	trayIcon.Run()
	cancel()
	return daemonExit(<-errCh)
}

// triggerDaemon asks the resident daemon for a capture.
func triggerDaemon() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := singleinstance.Trigger(ctx); err != nil {
		return err
	}
	fmt.Println("Capture requested")
	return nil
}

func daemonExit(err error) error {
	if errors.Is(err, context.Canceled) {
		log.Printf("Daemon: stopped")
		return nil
	}
	return err
}

// childArgs drops the daemon flags so the spawned process runs one capture.
func childArgs(args []string) []string {
	var out []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return append(out, args[i:]...)
		}
		long := strings.HasPrefix(arg, "--")
		short := !long && strings.HasPrefix(arg, "-") && len(arg) > 1
		name, _, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		switch {
		case long && (name == "daemon-hotkey" || name == "sleep"), short && arg == "-s":
			if !hasValue {
				i++
			}
		case short && strings.HasPrefix(arg, "-s"):
			// -s250 or -s=250
		case long && name == "persistent", short && arg == "-p":
		default:
			out = append(out, arg)
		}
	}
	return out
}
