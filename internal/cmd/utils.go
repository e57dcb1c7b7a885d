package cmd

import (
	"database/sql"
	"fmt"
	"net"
	"regexp"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/spf13/viper"
)

var tablePrefixRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// validateTablePrefix rejects prefixes that cannot be spliced into table
// names safely. Prefixes come from flags, not from the database, so this
// is the only gate they pass through.
func validateTablePrefix(prefix string) error {
	if prefix == "" {
		return fmt.Errorf("table prefix is empty")
	}
	if !tablePrefixRe.MatchString(prefix) {
		return fmt.Errorf("invalid table prefix %q: only letters, digits and underscores are allowed", prefix)
	}
	return nil
}

// openDB connects using either the full --dsn or the individual db-*
// flags/environment variables.
func openDB() (*sql.DB, error) {
	dsn := viper.GetString("dsn")
	if dsn == "" {
		cfg := mysql.NewConfig()
		cfg.User = viper.GetString("db-user")
		cfg.Passwd = viper.GetString("db-pass")
		cfg.Net = "tcp"
		cfg.Addr = net.JoinHostPort(viper.GetString("db-host"), viper.GetString("db-port"))
		cfg.DBName = viper.GetString("db-name")
		dsn = cfg.FormatDSN()
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database connection: %w", err)
	}
	db.SetConnMaxLifetime(3 * time.Minute)
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	return db, nil
}

// splitCSVFlag splits a comma-separated flag value, trimming whitespace
// and dropping empty entries.
func splitCSVFlag(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
