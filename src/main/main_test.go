package main

import (
	"errors"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"screen-cleave/src/config"
	"screen-cleave/src/session"
	"screen-cleave/src/singleinstance"
)

func TestNormalizeLegacyArgs(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		out  []string
	}{
		{
			name: "Normalizes long single dash flags",
			in:   []string{"screen-cleave", "-output-dir", "/tmp", "-monitor-list"},
			out:  []string{"screen-cleave", "--output-dir", "/tmp", "--monitor-list"},
		},
		{
			name: "Normalizes equals form",
			in:   []string{"screen-cleave", "-scale=2", "-filter=Lanczos3"},
			out:  []string{"screen-cleave", "--scale=2", "--filter=Lanczos3"},
		},
		{
			name: "Leaves short flags and values unchanged",
			in:   []string{"screen-cleave", "-o", "/tmp", "-d", "500", "--mode", "resize"},
			out:  []string{"screen-cleave", "-o", "/tmp", "-d", "500", "--mode", "resize"},
		},
		{
			name: "Stops at double dash",
			in:   []string{"screen-cleave", "--", "-scale"},
			out:  []string{"screen-cleave", "--", "-scale"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeLegacyArgs(tt.in)
			if len(got) != len(tt.out) {
				t.Fatalf("Expected len=%d, got %d", len(tt.out), len(got))
			}
			for i := range got {
				if got[i] != tt.out[i] {
					t.Fatalf("Expected arg[%d]=%q, got %q", i, tt.out[i], got[i])
				}
			}
		})
	}
}

func TestNewRootCmdParsesFlags(t *testing.T) {
	opts := &mainOptions{}
	cmd := newRootCmd(opts)
	args := []string{
		"-o", "/tmp/shots", "--format", "jpeg", "-m", "resize", "--monitor", "1",
		"-i", "10,20,300,200", "-f", "grab", "-d", "250", "-r", "0.5", "-q", "Lanczos3",
	}
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("ParseFlags failed: %v", err)
	}

	lo := opts.loadOptions(cmd.Flags().Changed)
	if lo.OutputDir != "/tmp/shots" || lo.Format != "jpeg" || lo.Filename != "grab" {
		t.Errorf("Unexpected output options %+v", lo)
	}
	if lo.ModeOverride != "resize" || lo.FilterOverride != "Lanczos3" || lo.Region != "10,20,300,200" {
		t.Errorf("Unexpected selection options %+v", lo)
	}
	if lo.Monitor == nil || *lo.Monitor != 1 {
		t.Errorf("Expected monitor 1, got %v", lo.Monitor)
	}
	if lo.Scale == nil || *lo.Scale != 0.5 {
		t.Errorf("Expected scale 0.5, got %v", lo.Scale)
	}
	if lo.Delay != 250*time.Millisecond {
		t.Errorf("Expected 250ms delay, got %v", lo.Delay)
	}
	if lo.Hotkey != nil || lo.Sleep != nil {
		t.Errorf("Expected daemon options unset, got hotkey=%v sleep=%v", lo.Hotkey, lo.Sleep)
	}
}

func TestHelpPointsToRegionForOtherDisplays(t *testing.T) {
	cmd := newRootCmd(&mainOptions{})
	if !strings.Contains(cmd.Long, "primary display only") || !strings.Contains(cmd.Long, "--region") {
		t.Errorf("Expected help to explain the single-display overlay, got %q", cmd.Long)
	}
	if usage := cmd.Flags().Lookup("region").Usage; !strings.Contains(usage, "across displays") {
		t.Errorf("Expected --region usage to mention displays, got %q", usage)
	}
}

func TestNewRootCmdDaemonFlags(t *testing.T) {
	opts := &mainOptions{}
	cmd := newRootCmd(opts)
	if err := cmd.ParseFlags([]string{"--daemon-hotkey", "Ctrl+Shift+S", "-p", "-s", "500"}); err != nil {
		t.Fatalf("ParseFlags failed: %v", err)
	}
	lo := opts.loadOptions(cmd.Flags().Changed)
	if lo.Hotkey == nil || *lo.Hotkey != "Ctrl+Shift+S" {
		t.Fatalf("Expected hotkey, got %v", lo.Hotkey)
	}
	if !lo.Persistent {
		t.Error("Expected persistent")
	}
	if lo.Sleep == nil || *lo.Sleep != 500*time.Millisecond {
		t.Errorf("Expected 500ms sleep, got %v", lo.Sleep)
	}

	cfg, _ := config.LoadWithOptions(lo)
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected valid daemon configuration, got %v", err)
	}
	if !cfg.Daemon() {
		t.Error("Expected daemon mode")
	}
}

func TestRunRejectsInvalidCombination(t *testing.T) {
	err := run([]string{"screen-cleave", "--monitor-list", "--output-dir", "/tmp"})
	if err == nil {
		t.Fatal("Expected validation error")
	}
}

func TestRunRejectsPositionalArgs(t *testing.T) {
	if err := run([]string{"screen-cleave", "extra"}); err == nil {
		t.Fatal("Expected error for positional arguments")
	}
}

func TestRunTriggerExclusiveWithDaemon(t *testing.T) {
	if err := run([]string{"screen-cleave", "--trigger", "--daemon-hotkey", "Ctrl+S"}); err == nil {
		t.Fatal("Expected error for --trigger with --daemon-hotkey")
	}
}

func TestRunTriggerWithoutDaemon(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("loopback unavailable: %v", err)
	}
	port := lis.Addr().(*net.TCPAddr).Port
	lis.Close()
	t.Setenv(singleinstance.PortEnv, strconv.Itoa(port))

	err = run([]string{"screen-cleave", "-trigger"})
	if !errors.Is(err, singleinstance.ErrNoResident) {
		t.Errorf("Expected ErrNoResident, got %v", err)
	}
}

func TestChildArgs(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		out  []string
	}{
		{
			name: "Drops daemon flags",
			in:   []string{"--daemon-hotkey", "Ctrl+S", "-p", "-o", "/tmp", "--sleep", "200"},
			out:  []string{"-o", "/tmp"},
		},
		{
			name: "Drops equals and attached forms",
			in:   []string{"--daemon-hotkey=Alt+X", "--persistent", "-s250", "--mode=resize"},
			out:  []string{"--mode=resize"},
		},
		{
			name: "Keeps other short flags",
			in:   []string{"--daemon-hotkey", "F9", "-d", "0", "-r", "2", "-q", "Nearest"},
			out:  []string{"-d", "0", "-r", "2", "-q", "Nearest"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := childArgs(tt.in)
			if len(got) != len(tt.out) {
				t.Fatalf("Expected %v, got %v", tt.out, got)
			}
			for i := range got {
				if got[i] != tt.out[i] {
					t.Fatalf("Expected arg[%d]=%q, got %q", i, tt.out[i], got[i])
				}
			}
		})
	}
}

func TestResultError(t *testing.T) {
	boom := errors.New("disk full")
	tests := []struct {
		name    string
		res     session.Result
		wantErr bool
	}{
		{"confirmed", session.Result{Phase: session.Confirmed}, false},
		{"user cancel", session.Result{Phase: session.Cancelled, Err: session.ErrSelectionCancelled}, false},
		{"capture failure", session.Result{Phase: session.Cancelled, Err: session.ErrCapture}, true},
		{"output failure", session.Result{Phase: session.Confirmed, Err: boom}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := resultError(tt.res); (err != nil) != tt.wantErr {
				t.Errorf("resultError() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
