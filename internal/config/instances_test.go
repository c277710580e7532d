package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRegisterAndListInstances(t *testing.T) {
	t.Setenv(EnvHome, t.TempDir())

	inst := Instance{
		Type:      InstanceCollector,
		PID:       os.Getpid(),
		Port:      8786,
		Host:      "localhost",
		StartedAt: time.Now(),
	}
	if err := RegisterInstance(inst); err != nil {
		t.Fatalf("RegisterInstance failed: %v", err)
	}

	instances, err := ListInstances()
	if err != nil {
		t.Fatalf("ListInstances failed: %v", err)
	}
	if len(instances) != 1 || instances[0].Type != InstanceCollector || instances[0].Port != 8786 {
		t.Fatalf("instances = %+v", instances)
	}

	if err := UnregisterInstance(os.Getpid()); err != nil {
		t.Fatalf("UnregisterInstance failed: %v", err)
	}
	instances, _ = ListInstances()
	if len(instances) != 0 {
		t.Fatalf("Expected 0 instances after unregister, got %d", len(instances))
	}
}

func TestStalePIDCleanup(t *testing.T) {
	t.Setenv(EnvHome, t.TempDir())

	inst := Instance{
		Type:      InstanceViewer,
		PID:       999999999, // almost certainly not a real PID
		StartedAt: time.Now(),
	}
	if err := RegisterInstance(inst); err != nil {
		t.Fatalf("RegisterInstance failed: %v", err)
	}

	instances, err := ListInstances()
	if err != nil {
		t.Fatalf("ListInstances failed: %v", err)
	}
	if len(instances) != 0 {
		t.Fatalf("Expected 0 instances after stale cleanup, got %d", len(instances))
	}
}

func TestFindInstance(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvHome, dir)

	older := Instance{Type: InstanceCollector, PID: os.Getpid(), Port: 9001, Host: "0.0.0.0", StartedAt: time.Now().Add(-time.Hour)}
	newer := Instance{Type: InstanceCollector, PID: os.Getpid(), Port: 9002, Host: "127.0.0.1", StartedAt: time.Now()}
	viewer := Instance{Type: InstanceViewer, PID: os.Getpid(), URL: "http://127.0.0.1:9002", StartedAt: time.Now()}
	for _, inst := range []Instance{older, newer, viewer} {
		if err := RegisterInstance(inst); err != nil {
			t.Fatal(err)
		}
	}

	found := FindInstance(InstanceCollector)
	if found == nil || found.Port != 9002 {
		t.Fatalf("FindInstance = %+v, want port 9002", found)
	}
	if got := found.BaseURL(); got != "http://127.0.0.1:9002" {
		t.Errorf("BaseURL() = %q", got)
	}
	if got := older.BaseURL(); got != "http://localhost:9001" {
		t.Errorf("BaseURL() for wildcard host = %q", got)
	}
	if FindInstanceByPort(9001) == nil {
		t.Error("FindInstanceByPort(9001) = nil")
	}
	if _, err := os.Stat(filepath.Join(dir, "instances.json")); err != nil {
		t.Errorf("instances.json not created: %v", err)
	}
}
