package logging

import (
	"context"
	"sync"
)

type FakeRecord struct {
	Level   string
	Msg     string
	Entries []LogEntry
}

type FakeLogger struct {
	Records []FakeRecord
	lock    sync.Mutex
}

func NewFakeLogger() *FakeLogger {
	return &FakeLogger{}
}

func (l *FakeLogger) Debug(ctx context.Context, msg string, entries ...LogEntry) {
	l.append("debug", msg, entries)
}

func (l *FakeLogger) Info(ctx context.Context, msg string, entries ...LogEntry) {
	l.append("info", msg, entries)
}

func (l *FakeLogger) Warning(ctx context.Context, msg string, entries ...LogEntry) {
	l.append("warning", msg, entries)
}

func (l *FakeLogger) Error(ctx context.Context, msg string, entries ...LogEntry) {
	l.append("error", msg, entries)
}

func (l *FakeLogger) CountByLevel(level string) int {
	l.lock.Lock()
	defer l.lock.Unlock()
	count := 0
	for _, r := range l.Records {
		if r.Level == level {
			count++
		}
	}
	return count
}

func (l *FakeLogger) append(level string, msg string, entries []LogEntry) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.Records = append(l.Records, FakeRecord{Level: level, Msg: msg, Entries: entries})
}
