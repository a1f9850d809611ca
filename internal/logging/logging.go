// Package logging owns the bridge's structured logging: a process-wide
// slog root that can be reconfigured after packages have already grabbed
// their loggers, plus an optional shipper that forwards batches to the
// controller hub for remote diagnosis of a workstation the operator may
// not be able to reach.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

// Field keys shared across components so hub-side queries can filter.
const (
	KeyComponent = "component"
	KeySession   = "sessionId"
	KeyMethod    = "rpcMethod"
	KeyError     = "error"
)

type contextKey struct{}

// root is the swappable sink behind every logger this package hands out.
// Packages call L() at init time, long before main has parsed the config;
// the indirection lets Init retarget all of them at once.
type root struct {
	sink atomic.Value // slog.Handler
}

func (r *root) load() slog.Handler { return r.sink.Load().(slog.Handler) }

// rootHandler adapts root to slog.Handler, carrying any attrs/groups the
// slog machinery accumulated so they survive a sink swap.
type rootHandler struct {
	root   *root
	attrs  []slog.Attr
	groups []string
}

func (h *rootHandler) resolved() slog.Handler {
	sink := h.root.load()
	for _, g := range h.groups {
		sink = sink.WithGroup(g)
	}
	if len(h.attrs) > 0 {
		sink = sink.WithAttrs(h.attrs)
	}
	return sink
}

func (h *rootHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.resolved().Enabled(ctx, level)
}

func (h *rootHandler) Handle(ctx context.Context, record slog.Record) error {
	return h.resolved().Handle(ctx, record)
}

func (h *rootHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &rootHandler{root: h.root, attrs: merged, groups: append([]string{}, h.groups...)}
}

func (h *rootHandler) WithGroup(name string) slog.Handler {
	return &rootHandler{
		root:   h.root,
		attrs:  append([]slog.Attr{}, h.attrs...),
		groups: append(append([]string{}, h.groups...), name),
	}
}

var (
	globalRoot    = &root{}
	defaultLogger *slog.Logger

	shipperMu sync.RWMutex
	shipper   *HubShipper
)

func init() {
	globalRoot.sink.Store(slog.Handler(&forwardingHandler{
		local: slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}),
	}))
	defaultLogger = slog.New(&rootHandler{root: globalRoot})
	slog.SetDefault(defaultLogger)
}

// Init retargets the root sink. format is "text" or "json"; level one of
// debug/info/warn/error (info when unrecognised); output defaults to
// stderr so the pairing code on stdout stays clean.
func Init(format, level string, output io.Writer) {
	if output == nil {
		output = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var local slog.Handler
	if strings.EqualFold(format, "json") {
		local = slog.NewJSONHandler(output, opts)
	} else {
		local = slog.NewTextHandler(output, opts)
	}

	globalRoot.sink.Store(slog.Handler(&forwardingHandler{local: local}))
}

// L returns a logger tagged with a component name.
func L(component string) *slog.Logger {
	return defaultLogger.With(slog.String(KeyComponent, component))
}

// WithMethod attaches RPC correlation to a logger so every line a handler
// emits can be traced back to the call that caused it.
func WithMethod(logger *slog.Logger, method string) *slog.Logger {
	return logger.With(slog.String(KeyMethod, method))
}

// NewContext returns a context carrying the given logger.
func NewContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext extracts the logger from ctx, falling back to the default.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(contextKey{}).(*slog.Logger); ok {
		return l
	}
	return defaultLogger
}

// StartShipping forwards log records at or above the shipper's level to
// the controller hub. Call after registration, when the hub URL is known.
func StartShipping(cfg HubShipperConfig) {
	shipperMu.Lock()
	defer shipperMu.Unlock()
	if shipper != nil {
		shipper.Stop()
	}
	shipper = NewHubShipper(cfg)
	shipper.Start()
}

// StopShipping drains and stops the hub shipper.
func StopShipping() {
	shipperMu.Lock()
	defer shipperMu.Unlock()
	if shipper != nil {
		shipper.Stop()
		shipper = nil
	}
}

// forwardingHandler writes every record locally and mirrors qualifying
// records to the hub shipper when one is running.
type forwardingHandler struct {
	local  slog.Handler
	attrs  []slog.Attr
	groups []string
}

func (h *forwardingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.local.Enabled(ctx, level)
}

func (h *forwardingHandler) Handle(ctx context.Context, record slog.Record) error {
	shipperMu.RLock()
	s := shipper
	shipperMu.RUnlock()

	if s != nil && s.wants(record.Level) {
		fields := make(map[string]any)
		for _, attr := range h.attrs {
			flatten(fields, h.groups, attr)
		}
		record.Attrs(func(a slog.Attr) bool {
			flatten(fields, h.groups, a)
			return true
		})
		s.enqueue(HubLogEntry{
			Timestamp: record.Time,
			Level:     strings.ToLower(record.Level.String()),
			Component: componentOf(fields),
			Message:   record.Message,
			Fields:    fields,
		})
	}

	return h.local.Handle(ctx, record)
}

func (h *forwardingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &forwardingHandler{
		local:  h.local.WithAttrs(attrs),
		attrs:  append(append([]slog.Attr{}, h.attrs...), attrs...),
		groups: append([]string{}, h.groups...),
	}
}

func (h *forwardingHandler) WithGroup(name string) slog.Handler {
	return &forwardingHandler{
		local:  h.local.WithGroup(name),
		attrs:  append([]slog.Attr{}, h.attrs...),
		groups: append(append([]string{}, h.groups...), name),
	}
}

// flatten renders nested groups as dotted keys so the shipped fields map
// is flat and queryable.
func flatten(fields map[string]any, groups []string, attr slog.Attr) {
	keyParts := append([]string{}, groups...)
	if attr.Key != "" {
		keyParts = append(keyParts, attr.Key)
	}
	if attr.Value.Kind() == slog.KindGroup {
		for _, nested := range attr.Value.Group() {
			flatten(fields, keyParts, nested)
		}
		return
	}
	if len(keyParts) == 0 {
		return
	}
	fields[strings.Join(keyParts, ".")] = attr.Value.Any()
}

func componentOf(fields map[string]any) string {
	if c, ok := fields[KeyComponent].(string); ok && c != "" {
		return c
	}
	suffix := "." + KeyComponent
	for key, value := range fields {
		if strings.HasSuffix(key, suffix) {
			if c, ok := value.(string); ok && c != "" {
				return c
			}
		}
	}
	return "unknown"
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
