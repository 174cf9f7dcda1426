package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/carepoint/identity-service/internal/core/domain"
	"github.com/carepoint/identity-service/internal/core/ports"
)

const (
	collectionAccounts = "accounts"
	collectionCounters = "counters"

	idxAccountsHandle          = "ux_accounts_handle"
	idxAccountsEmail           = "ux_accounts_email"
	idxAccountsProviderSubject = "ux_accounts_provider_subject"
)

// AccountRepository implements ports.AccountRepository. Account ids are
// sequential int64 values taken from the counters collection.
type AccountRepository struct {
	col      *mongo.Collection
	counters *mongo.Collection
}

func NewAccountRepository(db *mongo.Database) *AccountRepository {
	return &AccountRepository{
		col:      db.Collection(collectionAccounts),
		counters: db.Collection(collectionCounters),
	}
}

var _ ports.AccountRepository = (*AccountRepository)(nil)

type accountDocument struct {
	ID              int64     `bson:"_id"`
	Handle          string    `bson:"username"`
	Email           string    `bson:"email,omitempty"`
	PasswordHash    string    `bson:"password_hash,omitempty"`
	FirstName       string    `bson:"first_name,omitempty"`
	LastName        string    `bson:"last_name,omitempty"`
	Provider        string    `bson:"provider"`
	ProviderSubject string    `bson:"provider_subject,omitempty"`
	Roles           []string  `bson:"roles"`
	CreatedAt       time.Time `bson:"created_at"`
	UpdatedAt       time.Time `bson:"updated_at"`
}

func toAccountDocument(a *domain.Account) accountDocument {
	return accountDocument{
		ID:              a.ID,
		Handle:          a.Handle,
		Email:           a.Email,
		PasswordHash:    a.PasswordHash,
		FirstName:       a.FirstName,
		LastName:        a.LastName,
		Provider:        string(a.Provider),
		ProviderSubject: a.ProviderSubject,
		Roles:           a.RoleNames(),
		CreatedAt:       a.CreatedAt.UTC(),
		UpdatedAt:       a.UpdatedAt.UTC(),
	}
}

func (d accountDocument) toDomain() *domain.Account {
	roles := make([]domain.Role, len(d.Roles))
	for i, r := range d.Roles {
		roles[i] = domain.Role(r)
	}
	return &domain.Account{
		ID:              d.ID,
		Handle:          d.Handle,
		Email:           d.Email,
		PasswordHash:    d.PasswordHash,
		FirstName:       d.FirstName,
		LastName:        d.LastName,
		Provider:        domain.Provider(d.Provider),
		ProviderSubject: d.ProviderSubject,
		Roles:           roles,
		CreatedAt:       d.CreatedAt.UTC(),
		UpdatedAt:       d.UpdatedAt.UTC(),
	}
}

func (r *AccountRepository) FindByID(ctx context.Context, id int64) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *AccountRepository) FindByHandle(ctx context.Context, handle string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"username": handle})
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	if email == "" {
		return nil, domain.ErrAccountNotFound
	}
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *AccountRepository) FindByProvider(ctx context.Context, provider domain.Provider, subject string) (*domain.Account, error) {
	if subject == "" {
		return nil, domain.ErrAccountNotFound
	}
	return r.findOne(ctx, bson.M{"provider": string(provider), "provider_subject": subject})
}

func (r *AccountRepository) findOne(ctx context.Context, filter bson.M) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc accountDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return doc.toDomain(), nil
}

// Create allocates the next account id and inserts the account.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := r.nextID(ctx)
	if err != nil {
		return nil, err
	}

	doc := toAccountDocument(account)
	doc.ID = id
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if dup := duplicateAccountError(err); dup != nil {
			return nil, dup
		}
		return nil, fmt.Errorf("insert account: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *AccountRepository) Update(ctx context.Context, account *domain.Account) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": account.ID}, toAccountDocument(account))
	if err != nil {
		if dup := duplicateAccountError(err); dup != nil {
			return dup
		}
		return fmt.Errorf("update account: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepository) ExistsHandle(ctx context.Context, handle string) (bool, error) {
	return r.exists(ctx, bson.M{"username": handle})
}

func (r *AccountRepository) ExistsEmail(ctx context.Context, email string) (bool, error) {
	if email == "" {
		return false, nil
	}
	return r.exists(ctx, bson.M{"email": email})
}

func (r *AccountRepository) exists(ctx context.Context, filter bson.M) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count accounts: %w", err)
	}
	return n > 0, nil
}

func (r *AccountRepository) nextID(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": collectionAccounts},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("allocate account id: %w", err)
	}
	return counter.Seq, nil
}

// duplicateAccountError names the unique index a write collided with. A
// provider identity collision is reported as a username clash, which is what
// the losing side of a concurrent federated signup observes.
func duplicateAccountError(err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return nil
	}
	if strings.Contains(err.Error(), idxAccountsEmail) {
		return domain.ErrDuplicateEmail
	}
	return domain.ErrDuplicateHandle
}

// EnsureIndexes creates the unique indexes the reconciler relies on.
func (r *AccountRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetName(idxAccountsHandle).SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName(idxAccountsEmail).SetUnique(true).
				SetPartialFilterExpression(bson.M{"email": bson.M{"$type": "string"}}),
		},
		{
			Keys: bson.D{{Key: "provider", Value: 1}, {Key: "provider_subject", Value: 1}},
			Options: options.Index().SetName(idxAccountsProviderSubject).SetUnique(true).
				SetPartialFilterExpression(bson.M{"provider_subject": bson.M{"$type": "string"}}),
		},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
