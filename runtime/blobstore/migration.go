package blobstore

import (
	"fmt"

	"goa.design/convo/runtime/planerrors"
)

// Migration upgrades a StateDoc JSON tree (decoded as map[string]any) from
// FromVersion to FromVersion+1. Migrate receives and returns the generic
// JSON tree rather than a typed StateDoc so that a migration can rename or
// restructure fields that no longer exist in the current StateDoc shape.
type Migration struct {
	FromVersion uint16
	ToVersion   uint16
	Migrate     func(doc map[string]any) (map[string]any, error)
}

// MigrationRegistry holds at most one migration per FromVersion and knows
// the module's CurrentVersion. It is append-only after setup: Register
// calls are expected to happen once at startup, after which reads are
// lock-free (spec §5).
type MigrationRegistry struct {
	CurrentVersion uint16
	byFrom         map[uint16]Migration
}

// NewMigrationRegistry returns a registry whose current version is
// currentVersion. Pass 1 when the schema has never changed.
func NewMigrationRegistry(currentVersion uint16) *MigrationRegistry {
	return &MigrationRegistry{
		CurrentVersion: currentVersion,
		byFrom:         make(map[uint16]Migration),
	}
}

// Register adds m to the chain. It fails when a migration for
// m.FromVersion is already registered, or when m.ToVersion != m.FromVersion+1.
func (r *MigrationRegistry) Register(m Migration) error {
	if m.ToVersion != m.FromVersion+1 {
		return planerrors.Errorf(planerrors.KindMigration,
			"migration must target fromVersion+1: got %d -> %d", m.FromVersion, m.ToVersion)
	}
	if _, exists := r.byFrom[m.FromVersion]; exists {
		return planerrors.Errorf(planerrors.KindMigration,
			"migration already registered for version %d", m.FromVersion)
	}
	r.byFrom[m.FromVersion] = m
	return nil
}

// CanMigrate reports whether the full migration chain from `from` to
// CurrentVersion is present.
func (r *MigrationRegistry) CanMigrate(from uint16) bool {
	if from == r.CurrentVersion {
		return true
	}
	if from > r.CurrentVersion {
		return false
	}
	v := from
	for v < r.CurrentVersion {
		if _, ok := r.byFrom[v]; !ok {
			return false
		}
		v++
	}
	return true
}

// apply walks the chain from blobVersion to r.CurrentVersion, applying each
// migration's Migrate function to doc in order.
func (r *MigrationRegistry) apply(blobVersion uint16, doc map[string]any) (map[string]any, error) {
	v := blobVersion
	for v < r.CurrentVersion {
		m, ok := r.byFrom[v]
		if !ok {
			return nil, planerrors.Errorf(planerrors.KindMigration, "no migration for %d->%d", v, v+1)
		}
		migrated, err := m.Migrate(doc)
		if err != nil {
			return nil, planerrors.NewWithCause(planerrors.KindMigration,
				fmt.Sprintf("migration %d->%d failed", v, v+1), err)
		}
		doc = migrated
		v = m.ToVersion
	}
	return doc, nil
}
