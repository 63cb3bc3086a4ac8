package ukleg

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestValidationCache_SetGetInvalidate(t *testing.T) {
	cache := NewValidationCache(1 * time.Hour)

	if _, found := cache.Get("ukpga/2020/7"); found {
		t.Fatal("empty cache should miss")
	}

	cache.Set("ukpga/2020/7", ValidationResult{
		URI:        "https://www.legislation.gov.uk/ukpga/2020/7",
		Valid:      true,
		StatusCode: 200,
	})

	result, found := cache.Get("ukpga/2020/7")
	if !found {
		t.Fatal("expected cache hit")
	}
	if !result.Valid || result.StatusCode != 200 {
		t.Errorf("cached result: got %+v", result)
	}

	cache.Set("ukpga/2020/7", ValidationResult{URI: "updated", Valid: false})
	if result, _ := cache.Get("ukpga/2020/7"); result.URI != "updated" {
		t.Errorf("overwrite: got %q", result.URI)
	}
	if cache.Len() != 1 {
		t.Errorf("Len after overwrite: got %d, want 1", cache.Len())
	}

	cache.Invalidate("ukpga/2020/7")
	cache.Invalidate("never-set")
	if _, found := cache.Get("ukpga/2020/7"); found {
		t.Error("expected miss after invalidation")
	}
}

func TestValidationCache_TTLExpiration(t *testing.T) {
	cache := NewValidationCache(5 * time.Millisecond)
	cache.Set("short-lived", ValidationResult{Valid: true})

	if _, found := cache.Get("short-lived"); !found {
		t.Fatal("expected hit before expiration")
	}

	time.Sleep(20 * time.Millisecond)

	if _, found := cache.Get("short-lived"); found {
		t.Error("expected miss after TTL expiration")
	}
}

func TestValidationCache_SizeBound(t *testing.T) {
	cache := NewValidationCacheWithSize(2, time.Hour)

	cache.Set("ukpga/2020/1", ValidationResult{URI: "1"})
	cache.Set("ukpga/2020/2", ValidationResult{URI: "2"})
	cache.Set("ukpga/2020/3", ValidationResult{URI: "3"})

	if cache.Len() != 2 {
		t.Errorf("Len: got %d, want 2", cache.Len())
	}
	if _, found := cache.Get("ukpga/2020/1"); found {
		t.Error("oldest entry should have been evicted")
	}
	if _, found := cache.Get("ukpga/2020/3"); !found {
		t.Error("newest entry should be present")
	}
}

func TestValidationCache_ConcurrentAccess(t *testing.T) {
	cache := NewValidationCache(1 * time.Hour)

	var waitGroup sync.WaitGroup
	for worker := 0; worker < 50; worker++ {
		waitGroup.Add(1)
		go func(index int) {
			defer waitGroup.Done()
			key := fmt.Sprintf("ukpga/2020/%d", index%5+1)
			cache.Set(key, ValidationResult{URI: key, Valid: true})
			cache.Get(key)
			cache.Len()
		}(worker)
	}
	waitGroup.Wait()

	if cache.Len() != 5 {
		t.Errorf("Len after concurrent writes: got %d, want 5", cache.Len())
	}
}
