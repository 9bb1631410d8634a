package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/cottontaildb/cottontail/pkg/txn"
)

func withCapture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	loggerMu.Lock()
	Logger = slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	isInited = true
	loggerMu.Unlock()
	return &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	return m
}

func TestWithTxAddsTxID(t *testing.T) {
	buf := withCapture(t)
	id := txn.New()
	WithTx(id).Info("opened")

	m := decodeLine(t, buf)
	got, ok := m["tx_id"].(float64)
	if !ok || int64(got) != id.Value() {
		t.Fatalf("tx_id = %v, want %d", m["tx_id"], id.Value())
	}
}

func TestWithEntityTxAddsBothFields(t *testing.T) {
	buf := withCapture(t)
	id := txn.New()
	WithEntityTx(id, "warehouse.products").Info("inserting")

	m := decodeLine(t, buf)
	if m["entity"] != "warehouse.products" {
		t.Fatalf("entity = %v, want warehouse.products", m["entity"])
	}
	if int64(m["tx_id"].(float64)) != id.Value() {
		t.Fatalf("tx_id = %v, want %d", m["tx_id"], id.Value())
	}
}

func TestWithPageAddsPageID(t *testing.T) {
	buf := withCapture(t)
	WithPage(7).Debug("pinned")

	m := decodeLine(t, buf)
	if int64(m["page_id"].(float64)) != 7 {
		t.Fatalf("page_id = %v, want 7", m["page_id"])
	}
}
