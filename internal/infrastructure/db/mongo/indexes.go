package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

type indexer interface {
	EnsureIndexes(ctx context.Context) error
}

// EnsureIndexes creates every index the service depends on. Uniqueness of
// usernames, emails, provider identities and profile codes is enforced here,
// not in application code.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	repos := map[string]indexer{
		collectionAccounts:   NewAccountRepository(db),
		"patients":           NewPatientRepository(db),
		"doctors":            NewDoctorRepository(db),
		"admins":             NewAdminRepository(db),
		collectionAuthEvents: NewAuthEventRepository(db),
	}
	for name, repo := range repos {
		if err := repo.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("ensure %s indexes: %w", name, err)
		}
	}
	return nil
}
