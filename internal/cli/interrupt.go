package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// InterruptHandler tells the user what happened when a long-running command
// is interrupted.
type InterruptHandler struct {
	writer      io.Writer
	stop        chan struct{}
	operation   string
	note        string
	interrupted bool
	mu          sync.Mutex
	stopOnce    sync.Once
}

// NewInterruptHandler creates a new interrupt handler.
func NewInterruptHandler(writer io.Writer) *InterruptHandler {
	if writer == nil {
		writer = os.Stdout
	}
	return &InterruptHandler{
		writer: writer,
		stop:   make(chan struct{}),
	}
}

// HandleInterrupts returns a context canceled on SIGINT/SIGTERM or when ctx
// ends. The note is printed under the interrupt message. Call the returned
// stop function once the operation has finished.
func (h *InterruptHandler) HandleInterrupts(ctx context.Context, operation, note string) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	h.operation = operation
	h.note = note

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case <-sigChan:
		case <-ctx.Done():
			// stop closes h.stop before canceling
			select {
			case <-h.stop:
				return
			default:
			}
		case <-h.stop:
			return
		}
		h.mu.Lock()
		if !h.interrupted {
			h.interrupted = true
			h.showInterruptMessage()
		}
		h.mu.Unlock()
		cancel()
	}()

	stop := func() {
		h.stopOnce.Do(func() { close(h.stop) })
		cancel()
	}
	return ctx, stop
}

// showInterruptMessage displays a friendly interrupt message.
func (h *InterruptHandler) showInterruptMessage() {
	msg := "\n\n" + FormatWarning(h.operation+" interrupted!")
	if h.note != "" {
		msg += "\n" + FormatInfo(h.note)
	}
	msg += "\n"

	if _, err := fmt.Fprint(h.writer, msg); err != nil {
		// Best effort - we're shutting down anyway
		fmt.Fprintf(os.Stderr, "Failed to write interrupt message: %v\n", err)
	}
}

// WasInterrupted returns true if the operation was interrupted.
func (h *InterruptHandler) WasInterrupted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.interrupted
}
