package core

import (
	"context"
	"errors"
	"sync"
)

type stubLogger struct {
	mu      *sync.Mutex
	entries *[]logEntry
}

type logEntry struct {
	level   string
	message string
	args    []any
}

func newStubLogger() stubLogger {
	return stubLogger{mu: &sync.Mutex{}, entries: &[]logEntry{}}
}

func (s stubLogger) record(level, message string, args ...any) {
	if s.mu == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	*s.entries = append(*s.entries, logEntry{level: level, message: message, args: args})
}

func (s stubLogger) Trace(msg string, args ...any) { s.record("trace", msg, args...) }
func (s stubLogger) Debug(msg string, args ...any) { s.record("debug", msg, args...) }
func (s stubLogger) Info(msg string, args ...any)  { s.record("info", msg, args...) }
func (s stubLogger) Warn(msg string, args ...any)  { s.record("warn", msg, args...) }
func (s stubLogger) Error(msg string, args ...any) { s.record("error", msg, args...) }
func (s stubLogger) Fatal(msg string, args ...any) { s.record("fatal", msg, args...) }
func (s stubLogger) WithContext(context.Context) Logger {
	return s
}

func (s stubLogger) snapshot() []logEntry {
	if s.mu == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]logEntry(nil), (*s.entries)...)
}

type metricPoint struct {
	name  string
	value float64
	tags  map[string]string
}

type captureMetrics struct {
	mu         sync.Mutex
	counters   []metricPoint
	histograms []metricPoint
}

func (c *captureMetrics) IncCounter(_ context.Context, name string, value int64, tags map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters = append(c.counters, metricPoint{name: name, value: float64(value), tags: tags})
}

func (c *captureMetrics) ObserveHistogram(_ context.Context, name string, value float64, tags map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.histograms = append(c.histograms, metricPoint{name: name, value: value, tags: tags})
}

type mapStore struct {
	mu     sync.Mutex
	values map[string][]byte
	err    error
}

func newMapStore() *mapStore {
	return &mapStore{values: map[string][]byte{}}
}

func (s *mapStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, false, s.err
	}
	value, ok := s.values[key]
	return value, ok, nil
}

func (s *mapStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.values[key] = append([]byte(nil), value...)
	return nil
}

func (s *mapStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	delete(s.values, key)
	return nil
}

var errStoreDown = errors.New("store down")
