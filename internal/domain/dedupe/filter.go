package dedupe

import (
	"context"

	"github.com/everworldlife-netizen/Live-Lox-Model/internal/domain/model"
	"github.com/everworldlife-netizen/Live-Lox-Model/pkg/metrics"
)

// Filter pairs the content and signal windows.
type Filter struct {
	content Deduper
	signal  Deduper
}

// NewFilter creates a Filter. Nil dedupers get in-memory defaults.
func NewFilter(content, signal Deduper) *Filter {
	if content == nil {
		content = NewInMemoryDeduper(WithName("content"), WithWindow(ContentWindow))
	}
	if signal == nil {
		signal = NewInMemoryDeduper(WithName("signal"), WithWindow(SignalWindow))
	}
	return &Filter{content: content, signal: signal}
}

// IsNewItem reports whether item was not ingested inside the content window,
// recording it if so.
func (f *Filter) IsNewItem(ctx context.Context, item model.RawItem) bool {
	if f.content.SeenAndRecord(ctx, ContentKey(item)) {
		metrics.RecordDuplicate("content")
		return false
	}
	return true
}

// ForgetItem releases an item recorded by IsNewItem.
func (f *Filter) ForgetItem(ctx context.Context, item model.RawItem) {
	f.content.Unrecord(ctx, ContentKey(item))
}

// IsNewSignal reports whether the same player, classification and source
// were not seen inside the signal window, recording them if so.
func (f *Filter) IsNewSignal(ctx context.Context, sig model.ResolvedSignal) bool {
	if f.signal.SeenAndRecord(ctx, SignalKey(sig)) {
		metrics.RecordDuplicate("signal")
		return false
	}
	return true
}

// ForgetSignal releases a signal recorded by IsNewSignal, so one whose
// assumption could not be written is not suppressed later.
func (f *Filter) ForgetSignal(ctx context.Context, sig model.ResolvedSignal) {
	f.signal.Unrecord(ctx, SignalKey(sig))
}

// Sizes returns the key counts of both windows.
func (f *Filter) Sizes() (content, signal int64) {
	return f.content.Size(), f.signal.Size()
}
