// Command waytinier-demo is a small example program: it opens a connection,
// spawns one top-level window, and paints a solid color into it every
// frame, replacing the teacher's examples/ tree of virtual-input demos with
// one that exercises this repo's own surface/buffer/frame cycle. Grounded
// on helixml-helix's cmd/helix cobra command layout.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nuclearcodecat/waytinier-go/app"
	"github.com/nuclearcodecat/waytinier-go/applog"
	"github.com/nuclearcodecat/waytinier-go/window"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		title   string
		appID   string
		width   int32
		height  int32
		backend string
	)

	cmd := &cobra.Command{
		Use:   "waytinier-demo",
		Short: "Open a single window and paint a solid color into it",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(title, appID, width, height, backend)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&title, "title", "waytinier-demo", "window title")
	flags.StringVar(&appID, "app-id", "com.github.nuclearcodecat.waytinier-demo", "xdg_toplevel app id")
	flags.Int32Var(&width, "width", 800, "initial window width")
	flags.Int32Var(&height, "height", 600, "initial window height")
	flags.StringVar(&backend, "backend", "shm", "buffer backend: shm or dmabuf")

	return cmd
}

func run(title, appID string, width, height int32, backendFlag string) error {
	applog.Init()

	a, err := app.New()
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer a.Close()

	backend := window.BackendSharedMemory
	if backendFlag == "dmabuf" {
		backend = window.BackendDMABUF
	}

	_, err = window.NewBuilder(a).
		WithTitle(title).
		WithAppID(appID).
		WithWidth(width).
		WithHeight(height).
		WithBufferBackend(backend).
		Spawn(paintSolidColor)
	if err != nil {
		return fmt.Errorf("spawn window: %w", err)
	}

	for {
		finished, err := a.Work(nil)
		if err != nil {
			return fmt.Errorf("work: %w", err)
		}
		if finished {
			return nil
		}
	}
}

// paintSolidColor fills the snapshot with one color per frame: in the
// little-endian B, G, R, X/A byte order of xrgb8888/argb8888, green and red
// stay at 0x80, the fourth byte stays 0xff, and blue cycles with the frame
// counter so the compositor's damage tracking can be visibly confirmed.
func paintSolidColor(snap window.Snapshot) {
	if len(snap.Pixels) == 0 {
		return
	}
	shade := byte(snap.Frame % 256)
	for i := 0; i+3 < len(snap.Pixels); i += 4 {
		snap.Pixels[i+0] = shade
		snap.Pixels[i+1] = 0x80
		snap.Pixels[i+2] = 0x80
		snap.Pixels[i+3] = 0xff
	}
}
