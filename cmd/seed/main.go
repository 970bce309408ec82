// Command seed creates the clinic's owner accounts. Running it again is
// safe: existing accounts are promoted to owner, never recreated.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	"github.com/limbsorthopaedic/clinic-backend/internal/config"
	"github.com/limbsorthopaedic/clinic-backend/internal/docstore"
	"github.com/limbsorthopaedic/clinic-backend/internal/identity"
	"github.com/limbsorthopaedic/clinic-backend/internal/logging"
	"github.com/limbsorthopaedic/clinic-backend/internal/services"
)

type owner struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

func main() {
	path := flag.String("owners", "owners.json", "JSON file with a list of {email, password, displayName}")
	flag.Parse()

	cfg := config.Load()
	logging.Setup(logging.ParseLevel(cfg.LogLevel))

	if cfg.DocstoreBackend != config.BackendFirestore {
		slog.Error("seeding needs a persistent store, set DOCSTORE_BACKEND=firestore")
		os.Exit(1)
	}
	if problems := cfg.Validate(); len(problems) > 0 {
		for _, p := range problems {
			slog.Error("invalid configuration", "problem", p)
		}
		os.Exit(1)
	}

	owners, err := readOwners(*path)
	if err != nil {
		slog.Error("failed to read owners", "path", *path, "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var opts []option.ClientOption
	if cfg.FirebaseCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.FirebaseCredentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.FirebaseProjectID}, opts...)
	if err != nil {
		slog.Error("firebase init failed", "error", err)
		os.Exit(1)
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		slog.Error("firestore client init failed", "error", err)
		os.Exit(1)
	}
	store := docstore.NewFirestoreStore(client)
	defer store.Close()

	var provider identity.Provider
	if cfg.AuthProvider == config.AuthProviderLocal {
		provider = identity.NewLocalProvider(store, cfg.JWTSecret, cfg.JWTAccessExpiry, cfg.JWTRefreshExpiry)
	} else {
		authClient, err := app.Auth(ctx)
		if err != nil {
			slog.Error("firebase auth client init failed", "error", err)
			os.Exit(1)
		}
		provider = identity.NewFirebaseProvider(authClient)
	}

	accounts := services.NewAccountService(store, provider)
	failed := 0
	for _, o := range owners {
		created, err := accounts.EnsureOwner(ctx, o.Email, o.Password, o.DisplayName)
		switch {
		case err != nil:
			failed++
			slog.Error("owner seed failed", "email", o.Email, "error", err)
		case created:
			slog.Info("owner created", "email", o.Email)
		default:
			slog.Info("owner already present", "email", o.Email)
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func readOwners(path string) ([]owner, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var owners []owner
	if err := json.Unmarshal(raw, &owners); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(owners) == 0 {
		return nil, fmt.Errorf("%s lists no owners", path)
	}
	return owners, nil
}
