package main

import (
	"errors"
	"flag"
	"fmt"

	"github.com/golang-migrate/migrate/v4"

	"github.com/jnst/event-marketer-api/migrations"
)

const (
	migrationUp   = "up"
	migrationDown = "down"
)

func mustMigrateUp(m *migrate.Migrate, steps int) {
	var err error
	if steps > 0 {
		err = m.Steps(steps)
	} else {
		err = m.Up()
	}
	if err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			fmt.Println("no migrations to apply")
			return
		}

		panic(err)
	}

	fmt.Println("migrations applied successfully")
}

func mustMigrateDown(m *migrate.Migrate, steps int) {
	var err error
	if steps > 0 {
		err = m.Steps(-steps)
	} else {
		err = m.Down()
	}
	if err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			fmt.Println("no migrations to apply")
			return
		}

		panic(err)
	}

	fmt.Println("migrations downed successfully")
}

func main() {
	var driver, dsn, direction string
	var steps int
	flag.StringVar(&driver, "driver", migrations.DriverPostgres, "storage driver: postgres or sqlite")
	flag.StringVar(&dsn, "dsn", "", "postgres URL or sqlite file path")
	flag.StringVar(&direction, "direction", migrationUp, "migration direction: up or down")
	flag.IntVar(&steps, "steps", 0, "number of migrations to apply; 0 applies all")
	flag.Parse()

	if dsn == "" {
		panic("dsn is required")
	}
	if direction != migrationUp && direction != migrationDown {
		panic(fmt.Sprintf("unknown direction %q", direction))
	}
	if steps < 0 {
		panic("steps must not be negative")
	}

	m, err := migrations.New(driver, dsn)
	if err != nil {
		panic(err)
	}
	defer func() { _, _ = m.Close() }()

	if direction == migrationDown {
		mustMigrateDown(m, steps)
		return
	}

	mustMigrateUp(m, steps)
}
