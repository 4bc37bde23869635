package events

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// FileWriter appends every event as one JSON line to a file. The topic is
// recorded as the "topic" extension of the event.
type FileWriter struct {
	lock sync.Mutex
	f    *os.File
	enc  *json.Encoder
}

func NewFileWriter(path string) (*FileWriter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open events file %s: %w", path, err)
	}
	return &FileWriter{f: f, enc: json.NewEncoder(f)}, nil
}

func (w *FileWriter) Write(_ context.Context, topic string, e cloudevents.Event) error {
	if err := e.Context.SetExtension("topic", topic); err != nil {
		return err
	}

	w.lock.Lock()
	defer w.lock.Unlock()
	return w.enc.Encode(e)
}

func (w *FileWriter) Close(_ context.Context) error {
	w.lock.Lock()
	defer w.lock.Unlock()

	if err := w.f.Sync(); err != nil {
		_ = w.f.Close()
		return err
	}
	return w.f.Close()
}
