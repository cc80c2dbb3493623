// Package dealer provides shared access to the market maker's hot storage
// in Redis and its order history database in MySQL. Structured values are
// stored JSON-encoded and zlib-compressed, the format the other dealer
// services read and write.
package dealer

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis keys shared between the dealer services.
const (
	orderMarksKey       = "ORDER_MARKS"
	unhedgedPositionKey = "UNHEDGED_POSITION"
)

// Quote status codes
const (
	QuoteStatusGenerated = 0 // price quote generated
	QuoteStatusSubmitted = 1 // validated and submitted for settlement
	QuoteStatusFilled    = 2 // filled and forwarded to the hedger
)

// QuoteRecord is the envelope stored for each quote: the dealer's order
// mark plus its settlement status.
type QuoteRecord struct {
	Status int         `json:"status"`
	Quote  interface{} `json:"quote"`
}

// Cache is an abstraction over the Redis database holding the dealer's
// order marks, order books and unhedged positions.
//
// All methods are safe for concurrent use.
type Cache struct {
	db *redis.Client
}

// NewCache creates a cache backed by the Redis server at addr (host:port).
// password may be empty. The connection is established lazily on first use.
func NewCache(addr, password string) *Cache {
	return &Cache{
		db: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
	}
}

// Close releases the underlying Redis connections.
func (c *Cache) Close() error {
	return c.db.Close()
}

// SetUnhedgedPosition stores the dealer's unhedged position for an asset.
// Symbols are normalized to upper case.
func (c *Cache) SetUnhedgedPosition(ctx context.Context, symbol string, size float64) error {
	field := strings.ToUpper(symbol)
	value := strconv.FormatFloat(size, 'f', -1, 64)
	if err := c.db.HSet(ctx, unhedgedPositionKey, field, value).Err(); err != nil {
		return fmt.Errorf("failed to set unhedged position for %s: %w", field, err)
	}
	return nil
}

// GetUnhedgedPosition fetches the dealer's unhedged position for an asset.
// Assets with no stored position report zero.
func (c *Cache) GetUnhedgedPosition(ctx context.Context, symbol string) (float64, error) {
	field := strings.ToUpper(symbol)
	value, err := c.db.HGet(ctx, unhedgedPositionKey, field).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get unhedged position for %s: %w", field, err)
	}

	size, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed unhedged position for %s: %w", field, err)
	}
	return size, nil
}

// GetOrderBook fetches a full order book snapshot by exchange, symbol
// (BASE_TICKER/QUOTE_TICKER) and side. Arguments are case-insensitive: the
// canonical key carries an upper-case symbol and lower-case exchange/side.
//
// Books older than maxAge are rejected with ErrOutOfDate; a maxAge of zero
// or less disables the age check. Missing books report ErrNotFound.
func (c *Cache) GetOrderBook(ctx context.Context, exchange, symbol, side string, maxAge time.Duration) ([]interface{}, error) {
	if len(strings.Split(symbol, "/")) != 2 {
		return nil, fmt.Errorf("symbol must be formatted as BASE_TICKER/QUOTE_TICKER")
	}

	bookKey := fmt.Sprintf("%s_%s_%s", strings.ToUpper(symbol), strings.ToLower(exchange), strings.ToLower(side))
	timestampKey := bookKey + "_timestamp"

	rawTimestamp, err := c.db.Get(ctx, timestampKey).Result()
	if err == redis.Nil {
		return nil, fmt.Errorf("no order book for %s: %w", bookKey, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order book timestamp for %s: %w", bookKey, err)
	}

	bookTime, err := strconv.ParseFloat(rawTimestamp, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed order book timestamp for %s: %w", bookKey, err)
	}
	if maxAge > 0 {
		age := float64(time.Now().UnixNano())/1e9 - bookTime
		if age >= maxAge.Seconds() {
			return nil, fmt.Errorf("order book for %s is %.2fs out of date: %w", bookKey, age-maxAge.Seconds(), ErrOutOfDate)
		}
	}

	raw, err := c.db.Get(ctx, bookKey).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("no order book for %s: %w", bookKey, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order book for %s: %w", bookKey, err)
	}

	var book []interface{}
	if err := decodeFromBytes(raw, &book); err != nil {
		return nil, fmt.Errorf("failed to decode order book for %s: %w", bookKey, err)
	}
	return book, nil
}

// SetQuote stores the order mark for a quote under its UUID, wrapped in an
// envelope carrying the settlement status. Storing an existing ID
// overwrites the previous envelope.
func (c *Cache) SetQuote(ctx context.Context, quoteID string, quote interface{}, status int) error {
	raw, err := encodeToBytes(QuoteRecord{Status: status, Quote: quote})
	if err != nil {
		return fmt.Errorf("failed to encode order mark %s: %w", quoteID, err)
	}
	if err := c.db.HSet(ctx, orderMarksKey, quoteID, raw).Err(); err != nil {
		return fmt.Errorf("failed to store order mark %s: %w", quoteID, err)
	}
	return nil
}

// UpdateQuoteStatus overwrites the settlement status of a stored quote.
func (c *Cache) UpdateQuoteStatus(ctx context.Context, quoteID string, status int) error {
	raw, err := c.db.HGet(ctx, orderMarksKey, quoteID).Bytes()
	if err == redis.Nil {
		return fmt.Errorf("quote %s: %w", quoteID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to get order mark %s: %w", quoteID, err)
	}

	var record QuoteRecord
	if err := decodeFromBytes(raw, &record); err != nil {
		return fmt.Errorf("malformed order mark %s: %w", quoteID, err)
	}
	record.Status = status

	updated, err := encodeToBytes(record)
	if err != nil {
		return fmt.Errorf("failed to encode order mark %s: %w", quoteID, err)
	}
	if err := c.db.HSet(ctx, orderMarksKey, quoteID, updated).Err(); err != nil {
		return fmt.Errorf("failed to store order mark %s: %w", quoteID, err)
	}
	return nil
}

// GetQuote fetches the order mark stored for a quote UUID, without the
// status envelope.
func (c *Cache) GetQuote(ctx context.Context, quoteID string) (interface{}, error) {
	if !isValidUUID(quoteID) {
		return nil, fmt.Errorf("quote ID %q: %w", quoteID, ErrInvalidQuoteID)
	}

	raw, err := c.db.HGet(ctx, orderMarksKey, quoteID).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("quote %s: %w", quoteID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order mark %s: %w", quoteID, err)
	}

	var record QuoteRecord
	if err := decodeFromBytes(raw, &record); err != nil {
		return nil, fmt.Errorf("malformed order mark %s: %w", quoteID, err)
	}
	return record.Quote, nil
}

// GetAllOrderMarks fetches every stored order mark, keyed by quote ID.
// With onlyValid set, marks whose quote has already expired are skipped.
func (c *Cache) GetAllOrderMarks(ctx context.Context, onlyValid bool) (map[string]QuoteRecord, error) {
	raw, err := c.db.HGetAll(ctx, orderMarksKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list order marks: %w", err)
	}

	now := time.Now().Unix()
	marks := make(map[string]QuoteRecord, len(raw))
	for quoteID, value := range raw {
		var record QuoteRecord
		if err := decodeFromBytes([]byte(value), &record); err != nil {
			return nil, fmt.Errorf("malformed order mark %s: %w", quoteID, err)
		}
		if onlyValid && quoteExpired(record, now) {
			continue
		}
		marks[quoteID] = record
	}
	return marks, nil
}

// RemoveOrderMark deletes the order mark stored for a quote UUID. Removing
// an absent ID is not an error.
func (c *Cache) RemoveOrderMark(ctx context.Context, quoteID string) error {
	if err := c.db.HDel(ctx, orderMarksKey, quoteID).Err(); err != nil {
		return fmt.Errorf("failed to remove order mark %s: %w", quoteID, err)
	}
	return nil
}

// GetQuoteIDs lists the quote IDs of every stored order mark.
func (c *Cache) GetQuoteIDs(ctx context.Context) ([]string, error) {
	ids, err := c.db.HKeys(ctx, orderMarksKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list quote IDs: %w", err)
	}
	return ids, nil
}

// quoteExpired reports whether the quote inside a mark carries an
// expiration at or before now. Quotes without a readable expiration are
// treated as live.
func quoteExpired(record QuoteRecord, now int64) bool {
	quote, ok := record.Quote.(map[string]interface{})
	if !ok {
		return false
	}
	expiration, ok := quote["expiration"].(float64)
	if !ok {
		return false
	}
	return now >= int64(expiration)
}
