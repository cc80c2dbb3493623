package dealer

import (
	"context"
	"database/sql"
	"fmt"

	// Register the mysql driver with database/sql
	_ "github.com/go-sql-driver/mysql"
)

// Database is a wrapper for the dealer's MySQL order history database.
type Database struct {
	db *sql.DB
}

// NewDatabase opens a connection pool against the dealer database and
// creates the history tables if they do not exist yet.
func NewDatabase(ctx context.Context, host string, port int, dbName, user, password string) (*Database, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s", user, password, host, port, dbName)
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open dealer database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to dealer database: %w", err)
	}

	d := &Database{db: db}
	if err := d.initTables(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

// Close releases the connection pool.
func (d *Database) Close() error {
	return d.db.Close()
}

// AddExchangeOrder records an order placed on an external exchange.
func (d *Database) AddExchangeOrder(ctx context.Context, orderID, exchange, pair, side, size, price, timePlaced string) error {
	const stmt = "INSERT INTO `exchange_order_history` " +
		"(`order_id`, `exchange`, `pair`, `side`, `size`, `price`, `time_placed`) " +
		"VALUES (?, ?, ?, ?, ?, ?, ?)"

	if _, err := d.db.ExecContext(ctx, stmt, orderID, exchange, pair, side, size, price, timePlaced); err != nil {
		return fmt.Errorf("failed to add exchange order %s: %w", orderID, err)
	}
	return nil
}

// AddZeroExOrder records a 0x order and its settlement outcome.
func (d *Database) AddZeroExOrder(ctx context.Context, quoteID, side, pair, size, price, expiration, fee, status, transactionID string) error {
	const stmt = "INSERT INTO `zero_ex_order_history` " +
		"(`quote_id`, `side`, `pair`, `size`, `price`, `expiration`, `fee`, `status`, `transaction_id`) " +
		"VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)"

	if _, err := d.db.ExecContext(ctx, stmt, quoteID, side, pair, size, price, expiration, fee, status, transactionID); err != nil {
		return fmt.Errorf("failed to add 0x order %s: %w", quoteID, err)
	}
	return nil
}

// initTables creates the order history tables if they are missing.
func (d *Database) initTables(ctx context.Context) error {
	const exchangeOrderTable = "CREATE TABLE IF NOT EXISTS `exchange_order_history` (" +
		"`id` INT NOT NULL AUTO_INCREMENT, " +
		"`order_id` VARCHAR(45) NOT NULL, " +
		"`exchange` VARCHAR(45) NOT NULL, " +
		"`pair` VARCHAR(45) NULL, " +
		"`side` VARCHAR(45) NULL, " +
		"`size` VARCHAR(45) NULL, " +
		"`price` VARCHAR(45) NULL, " +
		"`time_placed` VARCHAR(45) NULL, " +
		"`filled_size` VARCHAR(45) NULL, " +
		"`status` VARCHAR(45) NULL, " +
		"PRIMARY KEY (`id`))"

	const zeroExOrderTable = "CREATE TABLE IF NOT EXISTS `zero_ex_order_history` (" +
		"`id` INT NOT NULL AUTO_INCREMENT, " +
		"`quote_id` VARCHAR(45) NOT NULL, " +
		"`side` VARCHAR(45) NULL, " +
		"`pair` VARCHAR(45) NULL, " +
		"`size` VARCHAR(45) NULL, " +
		"`price` VARCHAR(45) NULL, " +
		"`expiration` VARCHAR(45) NULL, " +
		"`fee` VARCHAR(45) NULL, " +
		"`status` VARCHAR(45) NULL, " +
		"`transaction_id` VARCHAR(66) NULL, " +
		"PRIMARY KEY (`id`))"

	for _, stmt := range []string{exchangeOrderTable, zeroExOrderTable} {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create order history tables: %w", err)
		}
	}
	return nil
}
