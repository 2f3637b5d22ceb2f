package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/colorstring"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"photobooth/internal/capture"
	"photobooth/internal/countdown"
	"photobooth/internal/delivery"
	"photobooth/internal/frames"
	"photobooth/internal/render"
	"photobooth/internal/session"
)

var (
	frameID   string
	deviceSel string
	recipient string
	savePath  string
)

// run: the whole booth flow in one command — frame selection, 3-2-1
// countdown, capture, composite, email delivery.
func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full photobooth flow",
		Args:  cobra.NoArgs,
		RunE:  runFlow,
	}
	cmd.Flags().StringVar(&frameID, "frame", "", "frame id (empty to choose interactively, \"none\" for no frame)")
	cmd.Flags().StringVar(&deviceSel, "device", "", "capture device (default first available)")
	cmd.Flags().StringVar(&recipient, "email", "", "recipient address (empty to prompt)")
	cmd.Flags().StringVar(&savePath, "out", "", "also save the composite to this path")
	return cmd
}

func runFlow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	in := bufio.NewReader(os.Stdin)

	catalog, err := frames.Load(cfg.Server.FramesDir)
	if err != nil {
		return fmt.Errorf("load frame catalog: %w", err)
	}

	sess := session.New()
	frame, err := chooseFrame(in, catalog)
	if err != nil {
		return err
	}
	sess.SelectFrame(frame)

	src := newSource()
	handle, err := src.Open(ctx, deviceSel)
	switch {
	case errors.Is(err, capture.ErrPermissionDenied):
		colorstring.Println("[red]Camera access was denied. Grant access and run again.")
		return err
	case errors.Is(err, capture.ErrNoDevice):
		colorstring.Println("[red]No camera found. Plug one in, or use --stills <dir>.")
		return err
	case err != nil:
		return err
	}
	defer handle.Close()

	chooseCamera(ctx, in, handle)

	img, err := captureWithCountdown(ctx, in, handle)
	if err != nil {
		return err
	}
	if err := sess.AttachPhoto(img); err != nil {
		return err
	}

	renderer := render.New(cfg.Render.Width, cfg.Render.Height, cfg.Render.Quality)
	artifact, err := sess.Composite(renderer)
	if err != nil {
		return err
	}
	if savePath != "" {
		if err := os.WriteFile(savePath, artifact.Data, 0o644); err != nil {
			return fmt.Errorf("save composite: %w", err)
		}
		fmt.Println("Saved composite to", savePath)
	}

	return submitLoop(ctx, in, artifact)
}

func chooseFrame(in *bufio.Reader, catalog *frames.Catalog) (*frames.Frame, error) {
	if frameID == "none" {
		return nil, nil
	}
	if frameID != "" {
		return catalog.Get(frameID)
	}
	fmt.Println("Pick a frame:")
	for _, f := range catalog.List() {
		fmt.Printf("  %-4s %s\n", f.ID, f.Name)
	}
	for {
		choice := prompt(in, "Frame id (empty for none): ")
		if choice == "" {
			return nil, nil
		}
		f, err := catalog.Get(choice)
		if err != nil {
			colorstring.Printf("[red]%v\n", err)
			continue
		}
		return f, nil
	}
}

// chooseCamera lets the visitor flip between cameras before the
// countdown arms. An empty line (or EOF, for scripted runs) starts the
// shot with the current camera.
func chooseCamera(ctx context.Context, in *bufio.Reader, handle capture.Handle) {
	for {
		fmt.Printf("Camera: %s\n", handle.Device().Name)
		choice := strings.ToLower(prompt(in, "Press Enter to start, s to switch camera: "))
		if choice != "s" {
			return
		}
		if err := handle.Switch(ctx); err != nil {
			colorstring.Printf("[red]Couldn't switch camera: %v\n", err)
		}
	}
}

// captureWithCountdown arms the countdown and takes the picture when it
// fires. A failed capture offers a retry; the countdown controller
// itself guarantees at most one capture per completed count.
func captureWithCountdown(ctx context.Context, in *bufio.Reader, handle capture.Handle) (*capture.Image, error) {
	for {
		var (
			img    *capture.Image
			capErr error
			fired  = make(chan struct{})
		)
		ctrl := countdown.New(countdown.DefaultStart, time.Second)
		err := ctrl.Start(
			func(remaining int) {
				colorstring.Printf("[bold][yellow]  %d...\n", remaining)
			},
			func() {
				img, capErr = handle.Capture(ctx)
				close(fired)
			},
		)
		if err != nil {
			return nil, err
		}

		select {
		case <-fired:
		case <-ctx.Done():
			ctrl.Cancel()
			return nil, ctx.Err()
		}

		if capErr == nil {
			colorstring.Println("[green]Captured!")
			return img, nil
		}
		colorstring.Printf("[red]Capture failed: %v\n", capErr)
		if !confirm(in, "Try again? [Y/n]: ") {
			return nil, capErr
		}
	}
}

func submitLoop(ctx context.Context, in *bufio.Reader, artifact *render.Artifact) error {
	addr := recipient
	for addr == "" || delivery.ValidateAddress(addr) != nil {
		if addr != "" {
			colorstring.Println("[red]That doesn't look like an email address.")
		}
		addr = prompt(in, "Email address: ")
	}

	op := delivery.NewOperation(client)
	for {
		bar := progressbar.NewOptions64(int64(len(artifact.Data)),
			progressbar.OptionSetDescription("Uploading"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowBytes(true),
			progressbar.OptionClearOnFinish(),
		)
		client.Progress = bar

		outcome, err := op.Run(ctx, addr, artifact)
		_ = bar.Finish()
		if err == nil {
			colorstring.Printf("[green]%s\n", outcome.Message)
			fmt.Println("Thank you! Check your inbox.")
			return nil
		}

		if errors.Is(err, delivery.ErrInvalidRecipient) {
			colorstring.Println("[red]That doesn't look like an email address.")
			addr = prompt(in, "Email address: ")
			continue
		}
		if outcome != nil {
			colorstring.Printf("[red]%s\n", outcome.Message)
		} else {
			colorstring.Printf("[red]%v\n", err)
		}
		if !confirm(in, "Send again? [Y/n]: ") {
			return err
		}
	}
}

func prompt(in *bufio.Reader, label string) string {
	fmt.Print(label)
	line, _ := in.ReadString('\n')
	return strings.TrimSpace(line)
}

func confirm(in *bufio.Reader, label string) bool {
	answer := strings.ToLower(prompt(in, label))
	return answer == "" || answer == "y" || answer == "yes"
}
