package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/savoria-pos/api/internal/database"
	"github.com/savoria-pos/api/internal/enum"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// Errors returned by tenant provisioning.
var (
	ErrEmailTaken   = errors.New("email already registered")
	ErrSlugTaken    = errors.New("restaurant slug already in use")
	ErrWeakPassword = errors.New("password must be at least 8 characters")
)

// Slugify lowercases a name and collapses anything non-alphanumeric to
// single hyphens.
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// ProvisionStore defines the DB methods needed to provision a tenant.
type ProvisionStore interface {
	CreateRestaurant(ctx context.Context, arg database.CreateRestaurantParams) (database.Restaurant, error)
	CreateUser(ctx context.Context, arg database.CreateUserParams) (database.User, error)
}

// NewProvisionStore creates a ProvisionStore from a DBTX (pool or tx).
type NewProvisionStore func(db database.DBTX) ProvisionStore

// ProvisionRequest creates a restaurant together with its owner account.
// A nil TaxRate gets the default; an explicit zero is a tax-free tenant.
type ProvisionRequest struct {
	Name          string
	Slug          string
	Currency      string
	TaxRate       *decimal.Decimal
	OwnerName     string
	OwnerEmail    string
	OwnerPassword string
}

// ProvisionResult is the new tenant and its owner (password hash omitted).
type ProvisionResult struct {
	Restaurant database.Restaurant
	Owner      database.User
}

// ProvisionService creates tenants atomically: either both the restaurant and
// its owner exist afterwards, or neither does.
type ProvisionService struct {
	pool     TxBeginner
	newStore NewProvisionStore
}

func NewProvisionService(pool TxBeginner, newStore NewProvisionStore) *ProvisionService {
	return &ProvisionService{pool: pool, newStore: newStore}
}

func (s *ProvisionService) Provision(ctx context.Context, req ProvisionRequest) (*ProvisionResult, error) {
	if len(req.OwnerPassword) < 8 {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.OwnerPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	taxRate := DefaultTaxRate
	if req.TaxRate != nil {
		taxRate = *req.TaxRate
	}
	slug := req.Slug
	if slug == "" {
		slug = Slugify(req.Name)
	}
	currency := req.Currency
	if currency == "" {
		currency = "INR"
	}

	restaurant, err := store.CreateRestaurant(ctx, database.CreateRestaurantParams{
		Name:     strings.TrimSpace(req.Name),
		Slug:     slug,
		TaxRate:  decimalToNumeric(taxRate),
		Currency: currency,
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("create restaurant: %w", err)
	}

	owner, err := store.CreateUser(ctx, database.CreateUserParams{
		RestaurantID: pgtype.UUID{Bytes: restaurant.ID, Valid: true},
		Name:         strings.TrimSpace(req.OwnerName),
		Email:        strings.ToLower(strings.TrimSpace(req.OwnerEmail)),
		PasswordHash: string(hash),
		Role:         enum.UserRoleOwner,
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create owner: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	owner.PasswordHash = ""
	return &ProvisionResult{Restaurant: restaurant, Owner: owner}, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
