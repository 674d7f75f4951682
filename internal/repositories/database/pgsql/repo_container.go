package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/ManishBastola/bank-app/internal/core/ports/repositories"
)

// NewRepositoryContainer bundles the pgsql repositories over one pool.
func NewRepositoryContainer(pool *pgxpool.Pool) *portsrepo.RepositoryContainer {
	return &portsrepo.RepositoryContainer{
		Ledger:   NewLedgerRepository(pool),
		Movement: NewMovementRepository(pool),
		User:     NewUserRepository(pool),
	}
}
