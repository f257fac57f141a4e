package telemetry

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestNoopExporter(t *testing.T) {
	exp := NewNoopExporter()

	// Should not panic
	exp.LogEvent(EventTaskSubmitted, map[string]interface{}{"task": "abc"})

	if err := exp.Flush(); err != nil {
		t.Errorf("Flush() error = %v", err)
	}
	if err := exp.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestFileExporter(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "events.jsonl")

	exp, err := NewFileExporter(path)
	if err != nil {
		t.Fatalf("NewFileExporter() error = %v", err)
	}
	defer exp.Close()

	exp.LogEvent(EventTaskSubmitted, map[string]interface{}{"task": "deadbeef"})
	exp.LogEvent(EventTaskResolved, map[string]interface{}{"task": "deadbeef", "failed": false})

	exp.Flush()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}

	var first Event
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if first.Name != EventTaskSubmitted {
		t.Errorf("Name = %q, want %q", first.Name, EventTaskSubmitted)
	}
	if first.Data["task"] != "deadbeef" {
		t.Errorf("Data[task] = %v, want deadbeef", first.Data["task"])
	}
	if first.Timestamp.IsZero() {
		t.Error("expected a timestamp")
	}
}

func TestHTTPExporter_FlushPostsBatch(t *testing.T) {
	var mu sync.Mutex
	var received []Event
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var batch []Event
		if err := json.Unmarshal(body, &batch); err != nil {
			t.Errorf("bad batch payload: %v", err)
		}
		mu.Lock()
		received = append(received, batch...)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	exp := NewHTTPExporter(srv.URL)
	exp.LogEvent(EventTaskClaimed, map[string]interface{}{"task": "1"})
	exp.LogEvent(EventObjectSwept, map[string]interface{}{"object": "x"})

	if err := exp.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 2 {
		t.Fatalf("expected 2 events, got %d", len(received))
	}
	if received[0].Name != EventTaskClaimed || received[1].Name != EventObjectSwept {
		t.Errorf("events out of order: %v", received)
	}

	// Buffer is drained; a second flush posts nothing.
	if err := exp.Flush(); err != nil {
		t.Fatalf("empty Flush() error = %v", err)
	}
}

func TestHTTPExporter_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	exp := NewHTTPExporter(srv.URL)
	exp.LogEvent(EventTaskSubmitted, nil)

	if err := exp.Flush(); err == nil {
		t.Error("expected error for 500 response")
	}
}

func TestNewExporter(t *testing.T) {
	tests := []struct {
		protocol string
		wantErr  bool
	}{
		{"noop", false},
		{"", false},
		{"unknown", true},
	}

	for _, tt := range tests {
		t.Run(tt.protocol, func(t *testing.T) {
			exp, err := NewExporter(tt.protocol, "")
			if (err != nil) != tt.wantErr {
				t.Errorf("NewExporter() error = %v, wantErr %v", err, tt.wantErr)
			}
			if exp != nil {
				exp.Close()
			}
		})
	}
}
