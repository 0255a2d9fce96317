package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/sweetworks/sweetshop-api/internal/core/domain"
)

func newCatalogFixture() (*SweetService, *memSweetRepo, *memPurchaseRepo) {
	sweets := newMemSweetRepo()
	purchases := newMemPurchaseRepo()
	svc := NewSweetService(sweets, purchases, nil, nil)
	return svc, sweets, purchases
}

func mustCreateSweet(t *testing.T, svc *SweetService, input SweetInput) *domain.Sweet {
	t.Helper()

	sweet, err := svc.Create(context.Background(), input)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return sweet
}

func TestSweetCreateValidation(t *testing.T) {
	svc, _, _ := newCatalogFixture()
	ctx := context.Background()

	cases := []struct {
		name  string
		input SweetInput
	}{
		{"empty name", SweetInput{Name: " ", Category: "candy", PriceCents: 100}},
		{"unknown category", SweetInput{Name: "Fudge", Category: "savory", PriceCents: 100}},
		{"negative price", SweetInput{Name: "Fudge", Category: "candy", PriceCents: -1}},
		{"negative quantity", SweetInput{Name: "Fudge", Category: "candy", PriceCents: 100, Quantity: -1}},
	}

	for _, tc := range cases {
		if _, err := svc.Create(ctx, tc.input); !errors.Is(err, ErrInvalidSweet) {
			t.Errorf("%s: err = %v, want ErrInvalidSweet", tc.name, err)
		}
	}

	mustCreateSweet(t, svc, SweetInput{Name: "Fudge", Category: "candy", PriceCents: 100, Quantity: 5})

	if _, err := svc.Create(ctx, SweetInput{Name: "Fudge", Category: "candy", PriceCents: 200}); !errors.Is(err, ErrSweetExists) {
		t.Errorf("duplicate name = %v, want ErrSweetExists", err)
	}
}

func TestSweetPurchaseDecrementsStock(t *testing.T) {
	svc, _, _ := newCatalogFixture()
	ctx := context.Background()

	sweet := mustCreateSweet(t, svc, SweetInput{Name: "Truffle", Category: "chocolate", PriceCents: 250, Quantity: 10})

	purchase, err := svc.Purchase(ctx, "user-1", sweet.ID, 3)
	if err != nil {
		t.Fatalf("Purchase: %v", err)
	}
	if purchase.TotalPriceCents != 750 {
		t.Errorf("total = %d, want 750", purchase.TotalPriceCents)
	}

	got, err := svc.Get(ctx, sweet.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Quantity != 7 {
		t.Errorf("quantity = %d, want 7", got.Quantity)
	}

	history, total, err := svc.PurchaseHistory(ctx, "user-1", domain.Page{})
	if err != nil {
		t.Fatalf("PurchaseHistory: %v", err)
	}
	if total != 1 || len(history) != 1 {
		t.Fatalf("history = %d entries, want 1", len(history))
	}
	if history[0].SweetName != "Truffle" {
		t.Errorf("sweet name = %q, want Truffle", history[0].SweetName)
	}
}

func TestSweetPurchaseRejectsOversell(t *testing.T) {
	svc, _, _ := newCatalogFixture()
	ctx := context.Background()

	sweet := mustCreateSweet(t, svc, SweetInput{Name: "Truffle", Category: "chocolate", PriceCents: 250, Quantity: 2})

	if _, err := svc.Purchase(ctx, "user-1", sweet.ID, 3); !errors.Is(err, ErrInsufficientStock) {
		t.Errorf("oversell = %v, want ErrInsufficientStock", err)
	}
	if _, err := svc.Purchase(ctx, "user-1", sweet.ID, 0); !errors.Is(err, ErrInvalidQuantity) {
		t.Errorf("zero quantity = %v, want ErrInvalidQuantity", err)
	}
	if _, err := svc.Purchase(ctx, "user-1", "missing-id", 1); !errors.Is(err, ErrSweetNotFound) {
		t.Errorf("unknown sweet = %v, want ErrSweetNotFound", err)
	}
}

func TestSweetPurchaseNeverOversellsUnderConcurrency(t *testing.T) {
	svc, _, _ := newCatalogFixture()
	ctx := context.Background()

	sweet := mustCreateSweet(t, svc, SweetInput{Name: "Truffle", Category: "chocolate", PriceCents: 250, Quantity: 5})

	const buyers = 20

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		sold int
	)

	start := make(chan struct{})
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start

			if _, err := svc.Purchase(ctx, "user-1", sweet.ID, 1); err == nil {
				mu.Lock()
				sold++
				mu.Unlock()
			}
		}()
	}

	close(start)
	wg.Wait()

	if sold != 5 {
		t.Errorf("sold = %d, want exactly 5", sold)
	}

	got, err := svc.Get(ctx, sweet.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Quantity != 0 {
		t.Errorf("final quantity = %d, want 0", got.Quantity)
	}
}

func TestSweetPurchaseRestoresStockOnHistoryFailure(t *testing.T) {
	svc, _, purchases := newCatalogFixture()
	ctx := context.Background()

	sweet := mustCreateSweet(t, svc, SweetInput{Name: "Truffle", Category: "chocolate", PriceCents: 250, Quantity: 5})

	purchases.failNext = true

	if _, err := svc.Purchase(ctx, "user-1", sweet.ID, 2); err == nil {
		t.Fatal("expected purchase to fail")
	}

	got, err := svc.Get(ctx, sweet.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Quantity != 5 {
		t.Errorf("quantity after failed purchase = %d, want 5", got.Quantity)
	}
}

func TestSweetRestock(t *testing.T) {
	svc, _, _ := newCatalogFixture()
	ctx := context.Background()

	sweet := mustCreateSweet(t, svc, SweetInput{Name: "Truffle", Category: "chocolate", PriceCents: 250, Quantity: 1})

	got, err := svc.Restock(ctx, sweet.ID, 9)
	if err != nil {
		t.Fatalf("Restock: %v", err)
	}
	if got.Quantity != 10 {
		t.Errorf("quantity = %d, want 10", got.Quantity)
	}

	if _, err := svc.Restock(ctx, sweet.ID, 0); !errors.Is(err, ErrInvalidQuantity) {
		t.Errorf("zero restock = %v, want ErrInvalidQuantity", err)
	}
	if _, err := svc.Restock(ctx, "missing-id", 5); !errors.Is(err, ErrSweetNotFound) {
		t.Errorf("unknown sweet = %v, want ErrSweetNotFound", err)
	}
}

func TestSweetSearchFilters(t *testing.T) {
	svc, _, _ := newCatalogFixture()
	ctx := context.Background()

	mustCreateSweet(t, svc, SweetInput{Name: "Dark Truffle", Category: "chocolate", PriceCents: 300, Quantity: 5})
	mustCreateSweet(t, svc, SweetInput{Name: "Lemon Drop", Category: "candy", PriceCents: 50, Quantity: 5})
	mustCreateSweet(t, svc, SweetInput{Name: "Milk Truffle", Category: "chocolate", PriceCents: 150, Quantity: 5})

	chocolate := domain.CategoryChocolate
	minPrice := int64(200)

	results, total, err := svc.Search(ctx, domain.SweetFilter{Name: "truffle", Category: &chocolate, MinPriceCents: &minPrice}, domain.Page{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if total != 1 || len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	if results[0].Name != "Dark Truffle" {
		t.Errorf("result = %q, want Dark Truffle", results[0].Name)
	}

	bogus := domain.SweetCategory("savory")
	if _, _, err := svc.Search(ctx, domain.SweetFilter{Category: &bogus}, domain.Page{}); !errors.Is(err, ErrInvalidSweet) {
		t.Errorf("bogus category = %v, want ErrInvalidSweet", err)
	}
}

func TestSweetUpdateAndDelete(t *testing.T) {
	svc, _, _ := newCatalogFixture()
	ctx := context.Background()

	sweet := mustCreateSweet(t, svc, SweetInput{Name: "Truffle", Category: "chocolate", PriceCents: 250, Quantity: 5})

	updated, err := svc.Update(ctx, sweet.ID, SweetInput{Name: "Dark Truffle", Category: "chocolate", PriceCents: 300, Quantity: 8})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Name != "Dark Truffle" || updated.PriceCents != 300 || updated.Quantity != 8 {
		t.Errorf("unexpected update result: %+v", updated)
	}

	if err := svc.Delete(ctx, sweet.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(ctx, sweet.ID); !errors.Is(err, ErrSweetNotFound) {
		t.Errorf("second delete = %v, want ErrSweetNotFound", err)
	}
	if _, err := svc.Get(ctx, sweet.ID); !errors.Is(err, ErrSweetNotFound) {
		t.Errorf("get after delete = %v, want ErrSweetNotFound", err)
	}
}
