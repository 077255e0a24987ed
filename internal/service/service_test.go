package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/game-store/internal/clock"
	"github.com/iliyamo/game-store/internal/model"
	"github.com/iliyamo/game-store/internal/queue"
	"github.com/iliyamo/game-store/internal/repository/memory"
)

var t0 = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

type fakePublisher struct {
	mu     sync.Mutex
	events []queue.PurchaseCompletedEvent
	calls  int
	err    error
}

func (f *fakePublisher) PublishPurchaseCompleted(_ context.Context, ev queue.PurchaseCompletedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, ev)
	return nil
}

type fixture struct {
	store    *memory.Store
	clock    *clock.Manual
	events   *fakePublisher
	catalog  *CatalogService
	carts    *CartService
	library  *LibraryService
	purchase *PurchaseService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memory.New()
	clk := clock.NewManual(t0)
	pub := &fakePublisher{}
	log := zerolog.Nop()
	return &fixture{
		store:    st,
		clock:    clk,
		events:   pub,
		catalog:  NewCatalogService(st, clk, log),
		carts:    NewCartService(st, clk, log),
		library:  NewLibraryService(st),
		purchase: NewPurchaseService(st, clk, pub, log),
	}
}

func (f *fixture) register(t *testing.T, ean string, price int64) uint64 {
	t.Helper()
	v, err := f.catalog.Register(context.Background(),
		model.GameInfo{EAN: ean, Title: "Game " + ean, Genre: "Action"}, decimal.NewFromInt(price))
	require.NoError(t, err)
	return v.ID
}

func (f *fixture) librarySize(t *testing.T, player uint64) int {
	t.Helper()
	lib, err := f.library.List(context.Background(), player)
	require.NoError(t, err)
	return len(lib)
}

func ptr(t time.Time) *time.Time { return &t }
