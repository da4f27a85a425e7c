package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// Handler writes one line per record:
//
//	[2006/01/02 15:04:05] [WARN] [module] message key=value ...
//
// The level tag is left out for Info. The "module" attribute becomes the
// bracketed prefix, any other attribute is appended after the message.
type Handler struct {
	level  slog.Leveler
	mu     *sync.Mutex
	out    io.Writer
	module string
	group  string
	attrs  []string
}

func NewHandler(o io.Writer, opts *slog.HandlerOptions) *Handler {
	h := &Handler{out: o, mu: &sync.Mutex{}, level: slog.LevelInfo}
	if opts != nil && opts.Level != nil {
		h.level = opts.Level
	}
	return h
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append([]string(nil), h.attrs...)
	for _, a := range attrs {
		clone.add(a)
	}
	return &clone
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.group = h.group + name + "."
	return &clone
}

func (h *Handler) add(a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Key == "module" && h.group == "" {
		h.module = a.Value.String()
		return
	}
	h.attrs = append(h.attrs, fmt.Sprintf("%s%s=%s", h.group, a.Key, a.Value.String()))
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	line := *h
	line.attrs = append([]string(nil), h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		line.add(a)
		return true
	})

	strs := []string{r.Time.Format("[2006/01/02 15:04:05]")}
	if r.Level != slog.LevelInfo {
		strs = append(strs, fmt.Sprintf("[%s]", r.Level.String()))
	}
	if line.module != "" {
		strs = append(strs, fmt.Sprintf("[%s]", line.module))
	}
	strs = append(strs, r.Message)
	strs = append(strs, line.attrs...)

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, strings.Join(strs, " ")+"\n")
	return err
}
