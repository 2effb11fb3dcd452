package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/savoria-pos/api/internal/database"
	"github.com/savoria-pos/api/internal/enum"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

type mockProvisionStore struct {
	createRestaurantFn func(ctx context.Context, arg database.CreateRestaurantParams) (database.Restaurant, error)
	createUserFn       func(ctx context.Context, arg database.CreateUserParams) (database.User, error)
}

func (m *mockProvisionStore) CreateRestaurant(ctx context.Context, arg database.CreateRestaurantParams) (database.Restaurant, error) {
	return m.createRestaurantFn(ctx, arg)
}

func (m *mockProvisionStore) CreateUser(ctx context.Context, arg database.CreateUserParams) (database.User, error) {
	return m.createUserFn(ctx, arg)
}

func newProvisionService(store *mockProvisionStore, tx *mockTx) *ProvisionService {
	return NewProvisionService(
		&mockTxBeginner{tx: tx},
		func(db database.DBTX) ProvisionStore { return store },
	)
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"Tandoor & Tikka", "tandoor-tikka"},
		{"  Spice Route 21  ", "spice-route-21"},
		{"CAFE", "cafe"},
		{"--", ""},
	}
	for _, tc := range cases {
		if got := Slugify(tc.name); got != tc.want {
			t.Errorf("Slugify(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestProvision_CreatesRestaurantAndOwner(t *testing.T) {
	rid := uuid.New()
	var gotRestaurant database.CreateRestaurantParams
	var gotUser database.CreateUserParams

	store := &mockProvisionStore{
		createRestaurantFn: func(ctx context.Context, arg database.CreateRestaurantParams) (database.Restaurant, error) {
			gotRestaurant = arg
			return database.Restaurant{ID: rid, Name: arg.Name, Slug: arg.Slug, TaxRate: arg.TaxRate, Currency: arg.Currency, IsActive: true}, nil
		},
		createUserFn: func(ctx context.Context, arg database.CreateUserParams) (database.User, error) {
			gotUser = arg
			return database.User{ID: uuid.New(), RestaurantID: arg.RestaurantID, Email: arg.Email, PasswordHash: arg.PasswordHash, Name: arg.Name, Role: arg.Role, IsActive: true}, nil
		},
	}
	tx := &mockTx{}
	svc := newProvisionService(store, tx)

	result, err := svc.Provision(context.Background(), ProvisionRequest{
		Name:          "Tandoor & Tikka",
		OwnerName:     "Priya Nair",
		OwnerEmail:    "Priya@Savoria.IN",
		OwnerPassword: "trustno1!",
	})
	if err != nil {
		t.Fatalf("Provision failed: %v", err)
	}

	if gotRestaurant.Slug != "tandoor-tikka" {
		t.Errorf("expected derived slug tandoor-tikka, got %q", gotRestaurant.Slug)
	}
	if gotRestaurant.Currency != "INR" {
		t.Errorf("expected default currency INR, got %q", gotRestaurant.Currency)
	}
	if !numericToDecimal(gotRestaurant.TaxRate).Equal(DefaultTaxRate) {
		t.Errorf("expected default tax rate %s, got %s", DefaultTaxRate, numericToDecimal(gotRestaurant.TaxRate))
	}
	if gotUser.RestaurantID.Bytes != rid {
		t.Error("owner not scoped to the new restaurant")
	}
	if gotUser.Email != "priya@savoria.in" {
		t.Errorf("expected lowercased email, got %q", gotUser.Email)
	}
	if gotUser.Role != enum.UserRoleOwner {
		t.Errorf("expected role %s, got %s", enum.UserRoleOwner, gotUser.Role)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(gotUser.PasswordHash), []byte("trustno1!")); err != nil {
		t.Error("stored hash does not match the owner password")
	}
	if !tx.committed {
		t.Error("expected transaction commit")
	}
	if result.Owner.PasswordHash != "" {
		t.Error("password hash leaked into result")
	}
}

func TestProvision_ZeroTaxRateKept(t *testing.T) {
	var gotRestaurant database.CreateRestaurantParams
	store := &mockProvisionStore{
		createRestaurantFn: func(ctx context.Context, arg database.CreateRestaurantParams) (database.Restaurant, error) {
			gotRestaurant = arg
			return database.Restaurant{ID: uuid.New(), TaxRate: arg.TaxRate}, nil
		},
		createUserFn: func(ctx context.Context, arg database.CreateUserParams) (database.User, error) {
			return database.User{ID: uuid.New()}, nil
		},
	}
	svc := newProvisionService(store, &mockTx{})

	_, err := svc.Provision(context.Background(), ProvisionRequest{
		Name:          "Duty Free Cafe",
		TaxRate:       decPtr("0"),
		OwnerName:     "A",
		OwnerEmail:    "a@b.c",
		OwnerPassword: "password123",
	})
	if err != nil {
		t.Fatalf("Provision failed: %v", err)
	}
	if !numericToDecimal(gotRestaurant.TaxRate).IsZero() {
		t.Errorf("expected tax rate 0 to be kept, got %s", numericToDecimal(gotRestaurant.TaxRate))
	}
}

func TestProvision_WeakPassword(t *testing.T) {
	svc := newProvisionService(&mockProvisionStore{}, &mockTx{})

	_, err := svc.Provision(context.Background(), ProvisionRequest{
		Name:          "Cafe",
		OwnerName:     "A",
		OwnerEmail:    "a@b.c",
		OwnerPassword: "short",
	})
	if !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
}

func TestProvision_SlugTaken(t *testing.T) {
	store := &mockProvisionStore{
		createRestaurantFn: func(ctx context.Context, arg database.CreateRestaurantParams) (database.Restaurant, error) {
			return database.Restaurant{}, &pgconn.PgError{Code: "23505"}
		},
	}
	tx := &mockTx{}
	svc := newProvisionService(store, tx)

	_, err := svc.Provision(context.Background(), ProvisionRequest{
		Name:          "Cafe",
		Slug:          "cafe",
		OwnerName:     "A",
		OwnerEmail:    "a@b.c",
		OwnerPassword: "password123",
	})
	if !errors.Is(err, ErrSlugTaken) {
		t.Fatalf("expected ErrSlugTaken, got %v", err)
	}
	if tx.committed {
		t.Error("transaction must not commit on failure")
	}
}

func TestProvision_EmailTaken(t *testing.T) {
	store := &mockProvisionStore{
		createRestaurantFn: func(ctx context.Context, arg database.CreateRestaurantParams) (database.Restaurant, error) {
			return database.Restaurant{ID: uuid.New(), TaxRate: decimalToNumeric(decimal.NewFromInt(5))}, nil
		},
		createUserFn: func(ctx context.Context, arg database.CreateUserParams) (database.User, error) {
			return database.User{}, &pgconn.PgError{Code: "23505"}
		},
	}
	tx := &mockTx{}
	svc := newProvisionService(store, tx)

	_, err := svc.Provision(context.Background(), ProvisionRequest{
		Name:          "Cafe",
		OwnerName:     "A",
		OwnerEmail:    "taken@savoria.in",
		OwnerPassword: "password123",
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if tx.committed {
		t.Error("transaction must not commit on failure")
	}
}
