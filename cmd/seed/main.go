// Package main provides a tool to seed the database with demo marketplace data.
//
// This creates a small set of users and book listings so purchase and
// withdrawal flows can be exercised against a fresh database.
//
// Usage:
//
//	DB_PATH=~/Folio/data/folio.db go run ./cmd/seed
//	DB_PATH=~/Folio/data/folio.db go run ./cmd/seed --with-sales  # Also settle demo purchases
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/folioapp/folio-server/internal/auth"
	"github.com/folioapp/folio-server/internal/domain"
	"github.com/folioapp/folio-server/internal/id"
	"github.com/folioapp/folio-server/internal/ledger"
	"github.com/folioapp/folio-server/internal/library"
	"github.com/folioapp/folio-server/internal/notify"
	"github.com/folioapp/folio-server/internal/payment"
	"github.com/folioapp/folio-server/internal/store/sqlite"
)

var withSales = flag.Bool("with-sales", false, "Settle demo purchases so authors have balances")

func main() {
	flag.Parse()

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/Folio/data/folio.db")
	}

	fmt.Printf("Opening database at: %s\n", dbPath)

	s, err := sqlite.Open(dbPath, nil)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()

	users := seedUsers(ctx, s)
	books := seedBooks(ctx, s, users)

	if *withSales {
		seedSales(ctx, s, users, books)
	}

	fmt.Println("\nDone.")
}

type seedUser struct {
	email       string
	displayName string
	password    string
	admin       bool
}

var demoUsers = []seedUser{
	{"admin@folio.test", "Folio Admin", "admin-password", true},
	{"ursula@folio.test", "Ursula Vane", "author-password", false},
	{"marcus@folio.test", "Marcus Webb", "author-password", false},
	{"rita@folio.test", "Rita the Reader", "reader-password", false},
}

func seedUsers(ctx context.Context, s *sqlite.Store) map[string]*domain.User {
	users := make(map[string]*domain.User)

	for _, su := range demoUsers {
		if existing, err := s.GetUserByEmail(ctx, su.email); err == nil {
			fmt.Printf("User %s already exists, keeping\n", su.email)
			users[su.email] = existing
			continue
		}

		hash, err := auth.HashPassword(su.password)
		if err != nil {
			log.Fatalf("Failed to hash password: %v", err)
		}

		now := time.Now()
		user := &domain.User{
			ID:           id.MustGenerate("user"),
			Email:        su.email,
			DisplayName:  su.displayName,
			PasswordHash: hash,
			IsAdmin:      su.admin,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.CreateUser(ctx, user); err != nil {
			log.Fatalf("Failed to create user %s: %v", su.email, err)
		}
		fmt.Printf("Created user %s (%s)\n", su.displayName, user.ID)
		users[su.email] = user
	}

	return users
}

type seedBook struct {
	authorEmail string
	title       string
	description string
	price       string
}

var demoBooks = []seedBook{
	{"ursula@folio.test", "The Salt Road", "A coastal walking memoir.", "9.99"},
	{"ursula@folio.test", "Winter Harbors", "Short stories from the north.", "4.50"},
	{"marcus@folio.test", "Practical Sourdough", "Baking without the mystique.", "12.00"},
	{"marcus@folio.test", "Field Notes", "A free sampler of essays.", "0"},
}

func seedBooks(ctx context.Context, s *sqlite.Store, users map[string]*domain.User) []*domain.Book {
	var books []*domain.Book

	for _, sb := range demoBooks {
		author, ok := users[sb.authorEmail]
		if !ok {
			log.Fatalf("Missing author %s", sb.authorEmail)
		}

		price, err := decimal.NewFromString(sb.price)
		if err != nil {
			log.Fatalf("Bad price %q: %v", sb.price, err)
		}

		now := time.Now()
		book := &domain.Book{
			ID:          id.MustGenerate("book"),
			AuthorID:    author.ID,
			Title:       sb.title,
			Description: sb.description,
			Price:       price,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.CreateBook(ctx, book); err != nil {
			log.Fatalf("Failed to create book %q: %v", sb.title, err)
		}
		fmt.Printf("Created book %q at %s (%s)\n", book.Title, price.StringFixed(2), book.ID)
		books = append(books, book)
	}

	return books
}

// seedSales settles a purchase of every paid book by the demo reader, going
// through the real purchase service so grants and fee splits are exercised.
func seedSales(ctx context.Context, s *sqlite.Store, users map[string]*domain.User, books []*domain.Book) {
	logger := slog.New(slog.DiscardHandler)

	lib := library.NewService(s, logger)
	fees := ledger.NewFeeResolver(s, logger)
	dispatcher := notify.NewDispatcher(notify.NewStoreSink(s), logger)

	dctx, cancel := context.WithCancel(ctx)
	go dispatcher.Start(dctx)
	defer func() {
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = dispatcher.Shutdown(shutdownCtx)
	}()

	purchases := ledger.NewPurchaseService(s, lib, fees, payment.NewValidator(), dispatcher, logger)

	reader := users["rita@folio.test"]
	card := payment.Card{
		Number:     "4242424242424242",
		Expiry:     "12/2033",
		CVC:        "123",
		HolderName: "Rita the Reader",
	}

	for _, book := range books {
		if !book.Monetized() {
			continue
		}
		result, err := purchases.ConfirmPurchase(ctx, reader.ID, book.ID, card)
		if err != nil {
			log.Fatalf("Failed to purchase %q: %v", book.Title, err)
		}
		if result.Already {
			fmt.Printf("Purchase of %q already settled (%s)\n", book.Title, result.Transaction.ID)
			continue
		}
		fmt.Printf("Settled purchase of %q: amount=%s fee=%s net=%s\n",
			book.Title,
			result.Transaction.Amount.StringFixed(2),
			result.Transaction.AdminFee.StringFixed(2),
			result.Transaction.AuthorNet.StringFixed(2),
		)
	}
}
