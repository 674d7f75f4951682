package repositories

// RepositoryContainer bundles the repository implementations for wiring.
// Both the pgsql and the in-memory adapters fill one of these.
type RepositoryContainer struct {
	Ledger   LedgerRepository
	Movement MovementRepository
	User     UserRepository
}
