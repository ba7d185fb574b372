package core

import (
	"testing"

	"github.com/DevDonzo/DigitalFTE/internal/observability"
	"github.com/DevDonzo/DigitalFTE/internal/vault"
	"github.com/DevDonzo/DigitalFTE/pkg/models"
)

func newTestVault(t *testing.T) vault.Store {
	t.Helper()
	store := vault.NewStore(t.TempDir())
	if err := store.EnsureLayout(); err != nil {
		t.Fatalf("ensuring vault layout: %v", err)
	}
	return store
}

func newTestAuditLog(t *testing.T) observability.AuditLog {
	t.Helper()
	log, err := observability.NewJSONLAuditLog(t.TempDir())
	if err != nil {
		t.Fatalf("creating audit log: %v", err)
	}
	t.Cleanup(func() { log.Close() })
	return log
}

func createItem(t *testing.T, store vault.Store, stage models.Stage, name string) {
	t.Helper()
	item := &models.Item{
		Name:   name,
		Header: map[string]string{"type": "email", "from": "a@b.com"},
		Body:   "## Current Message\n\nhello\n",
	}
	if err := store.Create(stage, item); err != nil {
		t.Fatalf("creating item %s: %v", name, err)
	}
}

func mustRead(t *testing.T, store vault.Store, stage models.Stage, name string) *models.Item {
	t.Helper()
	item, err := store.Read(stage, name)
	if err != nil {
		t.Fatalf("reading %s from %s: %v", name, stage, err)
	}
	return item
}

func listStage(t *testing.T, store vault.Store, stage models.Stage) []string {
	t.Helper()
	names, err := store.List(stage)
	if err != nil {
		t.Fatalf("listing %s: %v", stage, err)
	}
	return names
}
