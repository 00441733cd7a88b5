// Dev tool for poking the Adzuna search API with real credentials.
// Credentials come from ADZUNA_APP_ID / ADZUNA_APP_KEY.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/jobhunterpro/jobhunter/internal/config"
	"github.com/jobhunterpro/jobhunter/pkg/adzuna"
)

func main() {
	_ = godotenv.Load()

	var (
		country = flag.String("country", "za", "country code (za, gb, us, ...)")
		what    = flag.String("what", "security analyst", "search keywords")
	)
	flag.Parse()

	cfg, err := config.LoadConfig("")
	if err != nil {
		log.Fatal(err)
	}

	client, err := adzuna.NewDefaultClient(cfg.Adzuna)
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	results, err := client.Search(ctx, *country, *what)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("%d results for %q in %s\n\n", len(results), *what, adzuna.CountryName(*country))
	for _, r := range results {
		fmt.Printf("%s — %s (%s)\n", r.Title, r.Company.DisplayName, r.Location.DisplayName)
		fmt.Printf("  %s\n", r.RedirectURL)
	}
}
