package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	_ "github.com/joho/godotenv/autoload"

	"github.com/octobees/desamiantage-leads/internal/database"
	"github.com/octobees/desamiantage-leads/migrations"
)

// Usage: migrate [up|down|force <version>]
func main() {
	databaseURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	command := database.DirectionUp
	if len(os.Args) >= 2 {
		command = os.Args[1]
	}

	if command == "force" {
		if len(os.Args) < 3 {
			log.Fatal("usage: migrate force <version>")
		}
		version, err := strconv.Atoi(os.Args[2])
		if err != nil {
			log.Fatalf("invalid version: %v", err)
		}
		if err := database.ForceVersion(databaseURL, migrations.FS, version); err != nil {
			log.Fatalf("%v", err)
		}
		fmt.Printf("forced version to %d\n", version)
		return
	}

	if err := database.Migrate(databaseURL, migrations.FS, command); err != nil {
		log.Fatalf("%v", err)
	}
	fmt.Printf("migrations %s complete\n", command)
}
