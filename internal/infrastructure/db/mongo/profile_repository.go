package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/carepoint/identity-service/internal/core/domain"
	"github.com/carepoint/identity-service/internal/core/ports"
)

// ProfileRepository stores one kind of role-scoped profile. Each collection
// is unique on account_id and on the profile code.
type ProfileRepository[T any] struct {
	col       *mongo.Collection
	name      string
	codeField string
	accountID func(*T) int64
}

func NewPatientRepository(db *mongo.Database) *ProfileRepository[domain.PatientProfile] {
	return &ProfileRepository[domain.PatientProfile]{
		col:       db.Collection("patients"),
		name:      "patient",
		codeField: "patient_code",
		accountID: func(p *domain.PatientProfile) int64 { return p.AccountID },
	}
}

func NewDoctorRepository(db *mongo.Database) *ProfileRepository[domain.DoctorProfile] {
	return &ProfileRepository[domain.DoctorProfile]{
		col:       db.Collection("doctors"),
		name:      "doctor",
		codeField: "doctor_code",
		accountID: func(p *domain.DoctorProfile) int64 { return p.AccountID },
	}
}

func NewAdminRepository(db *mongo.Database) *ProfileRepository[domain.AdminProfile] {
	return &ProfileRepository[domain.AdminProfile]{
		col:       db.Collection("admins"),
		name:      "admin",
		codeField: "admin_code",
		accountID: func(p *domain.AdminProfile) int64 { return p.AccountID },
	}
}

var (
	_ ports.PatientStore = (*ProfileRepository[domain.PatientProfile])(nil)
	_ ports.DoctorStore  = (*ProfileRepository[domain.DoctorProfile])(nil)
	_ ports.AdminStore   = (*ProfileRepository[domain.AdminProfile])(nil)
)

func (r *ProfileRepository[T]) FindByAccountID(ctx context.Context, accountID int64) (*T, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var profile T
	err := r.col.FindOne(ctx, bson.M{"account_id": accountID}).Decode(&profile)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("find %s profile: %w", r.name, err)
	}
	return &profile, nil
}

// Create inserts the first profile of an account.
func (r *ProfileRepository[T]) Create(ctx context.Context, profile *T) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, profile); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", domain.ErrProfileConflict, r.name)
		}
		return fmt.Errorf("create %s profile: %w", r.name, err)
	}
	return nil
}

// Save replaces the existing profile of its account.
func (r *ProfileRepository[T]) Save(ctx context.Context, profile *T) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.ReplaceOne(ctx, bson.M{"account_id": r.accountID(profile)}, profile)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", domain.ErrProfileConflict, r.name)
		}
		return fmt.Errorf("save %s profile: %w", r.name, err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}

func (r *ProfileRepository[T]) List(ctx context.Context, f domain.ProfileFilter) ([]T, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	f = f.Normalized()
	opts := options.Find().
		SetSort(bson.D{{Key: "account_id", Value: 1}}).
		SetSkip(int64(f.Offset)).
		SetLimit(int64(f.Limit))

	cur, err := r.col.Find(ctx, profileQuery(f), opts)
	if err != nil {
		return nil, fmt.Errorf("list %s profiles: %w", r.name, err)
	}
	out := make([]T, 0, f.Limit)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode %s profiles: %w", r.name, err)
	}
	return out, nil
}

func profileQuery(f domain.ProfileFilter) bson.M {
	q := bson.M{}
	if f.ActiveOnly {
		q["active"] = true
	}
	if name := strings.TrimSpace(f.Name); name != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(name), Options: "i"}
		q["$or"] = bson.A{bson.M{"first_name": re}, bson.M{"last_name": re}}
	}
	if spec := strings.TrimSpace(f.Specialization); spec != "" {
		q["specialization"] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(spec) + "$", Options: "i"}
	}
	return q
}

func (r *ProfileRepository[T]) ExistsCode(ctx context.Context, code string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.M{r.codeField: code}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count %s codes: %w", r.name, err)
	}
	return n > 0, nil
}

func (r *ProfileRepository[T]) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "account_id", Value: 1}},
			Options: options.Index().SetName("ux_" + r.name + "_account").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: r.codeField, Value: 1}},
			Options: options.Index().SetName("ux_" + r.name + "_code").SetUnique(true),
		},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
