package toolexec_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ivanintech/agentic-assistant/internal/toolexec"
)

func TestLoadMappings_EmptyPathReturnsEmptyTable(t *testing.T) {
	m, err := toolexec.LoadMappings("")
	if err != nil {
		t.Fatalf("LoadMappings: %v", err)
	}
	if len(m) != 0 {
		t.Errorf("LoadMappings(\"\") = %+v, want empty", m)
	}
}

func TestLoadMappings_ParsesServerDotToolEntries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mapping.json")
	writeFile(t, path, `{"send_email": "mail-mcp.send_email"}`)

	m, err := toolexec.LoadMappings(path)
	if err != nil {
		t.Fatalf("LoadMappings: %v", err)
	}
	got, ok := m["send_email"]
	if !ok {
		t.Fatalf("LoadMappings: missing send_email entry, got %+v", m)
	}
	if got.ServerID != "mail-mcp" || got.ServerToolName != "send_email" {
		t.Errorf("LoadMappings: entry = %+v, want ServerID=mail-mcp ServerToolName=send_email", got)
	}
}

func TestLoadMappings_RejectsEntryWithoutDot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mapping.json")
	writeFile(t, path, `{"send_email": "mail-mcp"}`)

	if _, err := toolexec.LoadMappings(path); err == nil {
		t.Fatal("LoadMappings: expected an error for a malformed mapping target")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing fixture file: %v", err)
	}
}
