package dealer

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	cache := NewCache(mr.Addr(), "")
	t.Cleanup(func() { cache.Close() })
	return cache, mr
}

// seedOrderBook stores an encoded book and its timestamp the way the market
// data service writes them.
func seedOrderBook(t *testing.T, mr *miniredis.Miniredis, key string, book []interface{}, at time.Time) {
	t.Helper()

	raw, err := encodeToBytes(book)
	if err != nil {
		t.Fatalf("Failed to encode order book: %v", err)
	}
	if err := mr.Set(key, string(raw)); err != nil {
		t.Fatalf("Failed to seed order book: %v", err)
	}

	ts := strconv.FormatFloat(float64(at.UnixNano())/1e9, 'f', -1, 64)
	if err := mr.Set(key+"_timestamp", ts); err != nil {
		t.Fatalf("Failed to seed order book timestamp: %v", err)
	}
}

func TestUnhedgedPosition(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	if err := cache.SetUnhedgedPosition(ctx, "weth", 1.25); err != nil {
		t.Fatalf("SetUnhedgedPosition failed: %v", err)
	}

	// Symbol lookups are case-insensitive.
	size, err := cache.GetUnhedgedPosition(ctx, "WETH")
	if err != nil {
		t.Fatalf("GetUnhedgedPosition failed: %v", err)
	}
	if size != 1.25 {
		t.Errorf("Expected position 1.25, got %v", size)
	}

	// Assets with no stored position report zero.
	size, err = cache.GetUnhedgedPosition(ctx, "ZRX")
	if err != nil {
		t.Fatalf("GetUnhedgedPosition failed: %v", err)
	}
	if size != 0 {
		t.Errorf("Expected zero position for unknown asset, got %v", size)
	}
}

func TestGetOrderBook(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	book := []interface{}{
		[]interface{}{"102.5", "3.0"},
		[]interface{}{"102.6", "1.2"},
	}
	seedOrderBook(t, mr, "WETH/DAI_coinbase_bids", book, time.Now())

	got, err := cache.GetOrderBook(ctx, "coinbase", "weth/dai", "bids", 20*time.Second)
	if err != nil {
		t.Fatalf("GetOrderBook failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 book levels, got %d", len(got))
	}

	level, ok := got[0].([]interface{})
	if !ok || len(level) != 2 || level[0] != "102.5" {
		t.Errorf("Expected top bid [102.5 3.0], got %v", got[0])
	}

	// Exchange and side are case-insensitive too: mixed-case arguments must
	// resolve to the canonical key the market data service writes.
	got, err = cache.GetOrderBook(ctx, "Coinbase", "weth/dai", "Bids", 20*time.Second)
	if err != nil {
		t.Fatalf("GetOrderBook with mixed-case arguments failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Expected 2 book levels via mixed-case arguments, got %d", len(got))
	}
}

func TestGetOrderBookOutOfDate(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	book := []interface{}{[]interface{}{"102.5", "3.0"}}
	seedOrderBook(t, mr, "WETH/DAI_coinbase_asks", book, time.Now().Add(-30*time.Second))

	if _, err := cache.GetOrderBook(ctx, "coinbase", "WETH/DAI", "asks", 20*time.Second); !errors.Is(err, ErrOutOfDate) {
		t.Errorf("Expected ErrOutOfDate, got %v", err)
	}

	// A zero maxAge disables the age check.
	if _, err := cache.GetOrderBook(ctx, "coinbase", "WETH/DAI", "asks", 0); err != nil {
		t.Errorf("Expected the stale book without an age check, got error: %v", err)
	}
}

func TestGetOrderBookMissing(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	if _, err := cache.GetOrderBook(ctx, "coinbase", "WETH/DAI", "bids", 20*time.Second); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestGetOrderBookBadSymbol(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	if _, err := cache.GetOrderBook(ctx, "coinbase", "WETHDAI", "bids", 20*time.Second); err == nil {
		t.Errorf("Expected error for symbol without a pair separator, got nil")
	}
}

func TestQuoteLifecycle(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	quoteID := uuid.NewString()
	quote := map[string]interface{}{
		"price":      "102.5",
		"size":       "1.0",
		"expiration": float64(time.Now().Add(5 * time.Minute).Unix()),
	}

	if err := cache.SetQuote(ctx, quoteID, quote, QuoteStatusGenerated); err != nil {
		t.Fatalf("SetQuote failed: %v", err)
	}

	got, err := cache.GetQuote(ctx, quoteID)
	if err != nil {
		t.Fatalf("GetQuote failed: %v", err)
	}
	gotQuote, ok := got.(map[string]interface{})
	if !ok {
		t.Fatalf("Expected a quote object, got %T", got)
	}
	if gotQuote["price"] != "102.5" {
		t.Errorf("Expected price 102.5, got %v", gotQuote["price"])
	}

	if err := cache.UpdateQuoteStatus(ctx, quoteID, QuoteStatusSubmitted); err != nil {
		t.Fatalf("UpdateQuoteStatus failed: %v", err)
	}

	marks, err := cache.GetAllOrderMarks(ctx, false)
	if err != nil {
		t.Fatalf("GetAllOrderMarks failed: %v", err)
	}
	mark, ok := marks[quoteID]
	if !ok {
		t.Fatalf("Expected a mark for %s, got %v", quoteID, marks)
	}
	if mark.Status != QuoteStatusSubmitted {
		t.Errorf("Expected status %d after update, got %d", QuoteStatusSubmitted, mark.Status)
	}

	ids, err := cache.GetQuoteIDs(ctx)
	if err != nil {
		t.Fatalf("GetQuoteIDs failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != quoteID {
		t.Errorf("Expected quote IDs [%s], got %v", quoteID, ids)
	}

	if err := cache.RemoveOrderMark(ctx, quoteID); err != nil {
		t.Fatalf("RemoveOrderMark failed: %v", err)
	}
	if _, err := cache.GetQuote(ctx, quoteID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after removal, got %v", err)
	}
}

func TestGetQuoteValidation(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	if _, err := cache.GetQuote(ctx, "not-a-uuid"); !errors.Is(err, ErrInvalidQuoteID) {
		t.Errorf("Expected ErrInvalidQuoteID, got %v", err)
	}
	if _, err := cache.GetQuote(ctx, uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestUpdateQuoteStatusMissing(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	if err := cache.UpdateQuoteStatus(ctx, uuid.NewString(), QuoteStatusFilled); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestGetAllOrderMarksOnlyValid(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	liveID := uuid.NewString()
	expiredID := uuid.NewString()
	live := map[string]interface{}{"expiration": float64(time.Now().Add(5 * time.Minute).Unix())}
	expired := map[string]interface{}{"expiration": float64(time.Now().Add(-5 * time.Minute).Unix())}

	if err := cache.SetQuote(ctx, liveID, live, QuoteStatusGenerated); err != nil {
		t.Fatalf("SetQuote failed: %v", err)
	}
	if err := cache.SetQuote(ctx, expiredID, expired, QuoteStatusGenerated); err != nil {
		t.Fatalf("SetQuote failed: %v", err)
	}

	marks, err := cache.GetAllOrderMarks(ctx, true)
	if err != nil {
		t.Fatalf("GetAllOrderMarks failed: %v", err)
	}
	if len(marks) != 1 {
		t.Fatalf("Expected 1 valid mark, got %d", len(marks))
	}
	if _, ok := marks[liveID]; !ok {
		t.Errorf("Expected the live mark to survive the filter, got %v", marks)
	}

	all, err := cache.GetAllOrderMarks(ctx, false)
	if err != nil {
		t.Fatalf("GetAllOrderMarks failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Expected 2 marks without the filter, got %d", len(all))
	}
}
