package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"carekorea/internal/infra"
	"carekorea/internal/infra/credentials"
)

func main() {
	_ = godotenv.Load()

	var (
		keyFlag      string
		providerFlag string
		revokeFlag   bool
	)
	flag.StringVar(&keyFlag, "key", "", "API key for the selected provider (falls back to the environment)")
	flag.StringVar(&providerFlag, "provider", credentials.ProviderGemini, "Provider to configure: "+strings.Join(credentials.Providers, ", "))
	flag.BoolVar(&revokeFlag, "revoke", false, "Revoke the stored key instead of setting one")
	flag.Parse()

	provider := strings.TrimSpace(strings.ToLower(providerFlag))
	if provider == "" {
		provider = credentials.ProviderGemini
	}

	key := strings.TrimSpace(keyFlag)
	if key == "" && !revokeFlag {
		key = strings.TrimSpace(os.Getenv(strings.ToUpper(provider) + "_API_KEY"))
	}
	if key == "" && !revokeFlag {
		fmt.Fprintf(os.Stderr, "%s API key is required via -key or %s_API_KEY\n", provider, strings.ToUpper(provider))
		os.Exit(1)
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create pool: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "apikey").Str("provider", provider).Logger()
	store := credentials.NewStore(infra.NewSQLRunner(pool, logger))

	if revokeFlag {
		revoked, err := store.Revoke(ctx, provider)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to revoke %s api key: %v\n", provider, err)
			os.Exit(1)
		}
		if !revoked {
			fmt.Printf("no active %s API key stored\n", strings.ToUpper(provider))
			return
		}
		fmt.Printf("%s API key revoked\n", strings.ToUpper(provider))
		return
	}

	if err := store.Set(ctx, provider, key); err != nil {
		fmt.Fprintf(os.Stderr, "failed to persist %s api key: %v\n", provider, err)
		os.Exit(1)
	}
	fmt.Printf("%s API key stored successfully\n", strings.ToUpper(provider))
}
