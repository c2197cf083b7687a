package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"
)

// consoleHandler prints one header line per record followed by an indented
// field list. Info and above show a curated subset; debug shows everything
// plus the caller.
type consoleHandler struct {
	mu        *sync.Mutex
	out       io.Writer
	level     slog.Leveler
	preset    []slog.Attr
	groups    []string
	addSource bool
}

func newPrettyHandler(w io.Writer, lvl slog.Leveler, addSource bool) slog.Handler {
	return &consoleHandler{mu: new(sync.Mutex), out: w, level: lvl, addSource: addSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.preset = append(slices.Clip(h.preset), attrs...)
	return &next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	next := *h
	next.groups = append(slices.Clip(h.groups), name)
	return &next
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	if !h.Enabled(context.Background(), record.Level) {
		return nil
	}

	c := &collector{index: make(map[string]int)}
	for _, a := range h.preset {
		c.add(h.groups, a)
	}
	record.Attrs(func(a slog.Attr) bool {
		c.add(h.groups, a)
		return true
	})

	var sb strings.Builder
	h.writeHeader(&sb, record, c.fields)
	if record.Level < slog.LevelInfo {
		for _, f := range c.fields {
			if f.key == FieldComponent {
				continue
			}
			fmt.Fprintf(&sb, "    %s: %s\n", f.key, formatValue(f.value))
		}
	} else {
		shown, hidden := selectInfoFields(c.fields, false)
		for _, f := range shown {
			fmt.Fprintf(&sb, "    - %s: %s\n", f.label, f.value)
		}
		switch {
		case hidden == 1:
			sb.WriteString("    + 1 more field in run log\n")
		case hidden > 1:
			fmt.Fprintf(&sb, "    + %d more fields in run log\n", hidden)
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, sb.String())
	return err
}

func (h *consoleHandler) writeHeader(sb *strings.Builder, record slog.Record, fields []kv) {
	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	sb.WriteString(formatTimestamp(ts))
	sb.WriteByte(' ')
	sb.WriteString(levelLabel(record.Level))
	if component := attrValue(fields, FieldComponent); component != "" {
		sb.WriteString(" [" + component + "]")
	}
	subject := composeSubject(
		attrValue(fields, FieldSourceVersion),
		attrValue(fields, FieldTargetVersion),
		attrValue(fields, FieldStage),
	)
	if subject != "" {
		sb.WriteString(" " + subject)
	}
	msg := strings.TrimSpace(record.Message)
	if msg == "" {
		msg = "(no message)"
	}
	sb.WriteString(" – " + msg)
	if h.addSource {
		if record.PC != 0 {
			src, _ := runtime.CallersFrames([]uintptr{record.PC}).Next()
			if src.File != "" {
				fmt.Fprintf(sb, " [%s:%d]", filepath.Base(src.File), src.Line)
			}
		}
	}
	sb.WriteByte('\n')
}

// composeSubject renders "3.10.1 → 3.11 (group)" style subjects.
func composeSubject(source, target, stage string) string {
	var parts []string
	for _, s := range []string{source, target} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	pair := strings.Join(parts, " → ")
	stage = strings.TrimSpace(stage)
	if stage == "" {
		return pair
	}
	if pair == "" {
		return stage
	}
	return pair + " (" + stage + ")"
}

type kv struct {
	key   string
	value slog.Value
}

// collector flattens groups into dotted keys. A repeated key keeps its first
// position and takes the last value.
type collector struct {
	fields []kv
	index  map[string]int
}

func (c *collector) add(prefix []string, a slog.Attr) {
	if a.Equal(slog.Attr{}) {
		return
	}
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		inner := prefix
		if a.Key != "" {
			inner = append(slices.Clip(prefix), a.Key)
		}
		for _, member := range v.Group() {
			c.add(inner, member)
		}
		return
	}
	if a.Key == "" {
		return
	}
	key := a.Key
	if len(prefix) > 0 {
		key = strings.Join(prefix, ".") + "." + key
	}
	if i, ok := c.index[key]; ok {
		c.fields[i].value = v
		return
	}
	c.index[key] = len(c.fields)
	c.fields = append(c.fields, kv{key: key, value: v})
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	}
	return "DEBUG"
}
