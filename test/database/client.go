// Package database provides shared test database clients.
package database

import (
	"testing"

	dbpkg "github.com/codeready-toolchain/eolscout/pkg/database"
	"github.com/codeready-toolchain/eolscout/test/util"
)

// NewTestClient creates a test database client backed by an isolated
// per-test schema. In CI (CI_DATABASE_URL set) it targets the external
// PostgreSQL service container; locally it uses a shared testcontainer.
// Cleanup is registered automatically.
func NewTestClient(t *testing.T) *dbpkg.Client {
	db := util.SetupTestDatabase(t)
	return dbpkg.NewClientFromDB(db)
}
