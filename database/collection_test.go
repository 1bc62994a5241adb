package database_test

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"pagedb/database"
)

func newTestCollection(t *testing.T, name string, order int) *database.Collection {
	t.Helper()

	dbID := fmt.Sprintf("test_db_%d", time.Now().UnixNano())
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), dbID), dbID)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.CreateCollection(name, order); err != nil {
		t.Fatalf("Failed to create collection: %v", err)
	}
	collection, err := db.GetCollection(name)
	if err != nil {
		t.Fatalf("Failed to get collection: %v", err)
	}
	return collection
}

// TestBenchmarkOperations times the basic operations over a populated
// collection and validates the data after each phase.
func TestBenchmarkOperations(t *testing.T) {
	collection := newTestCollection(t, "benchmark_collection", 8)

	benchmarkInsert(t, collection, 1000)
	benchmarkFind(t, collection, 1000)
	benchmarkUpdate(t, collection, 1000)
	benchmarkDelete(t, collection, 1000)
}

func benchmarkInsert(t *testing.T, collection *database.Collection, count int) {
	t.Logf("Running Insert benchmark with %d operations", count)

	keys := make([]string, count)
	values := make([]string, count)
	for i := 0; i < count; i++ {
		keys[i] = fmt.Sprintf("key_%d", i)
		values[i] = fmt.Sprintf("value_%d", i)
	}

	start := time.Now()
	for i := 0; i < count; i++ {
		if err := collection.InsertKV(keys[i], values[i]); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}
	duration := time.Since(start)

	for i := 0; i < count; i++ {
		value, found, err := collection.FindKey(keys[i])
		if err != nil {
			t.Fatalf("Find failed: %v", err)
		}
		if !found {
			t.Errorf("Validation failed: Key %s not found after insert", keys[i])
			continue
		}
		if value != values[i] {
			t.Errorf("Validation failed: Key %s has value %v, expected %s", keys[i], value, values[i])
		}
	}

	avgTime := float64(duration.Microseconds()) / float64(count)
	t.Logf("Insert benchmark completed: %d operations in %v (avg %.2f µs per operation)",
		count, duration, avgTime)
}

func benchmarkFind(t *testing.T, collection *database.Collection, count int) {
	t.Logf("Running Find benchmark with %d operations", count)

	indices := rand.Perm(count)

	start := time.Now()
	successCount := 0
	for i := 0; i < count; i++ {
		key := fmt.Sprintf("key_%d", indices[i])
		expectedValue := fmt.Sprintf("value_%d", indices[i])
		value, found, err := collection.FindKey(key)
		if err != nil {
			t.Fatalf("Find failed: %v", err)
		}
		if found {
			successCount++
			if value != expectedValue {
				t.Errorf("Found incorrect value for key %s: got %v, expected %s", key, value, expectedValue)
			}
		}
	}
	duration := time.Since(start)

	avgTime := float64(duration.Microseconds()) / float64(count)
	t.Logf("Find benchmark completed: %d operations in %v (avg %.2f µs per operation)",
		count, duration, avgTime)
	t.Logf("Find success rate: %d/%d (%.2f%%)",
		successCount, count, float64(successCount)*100/float64(count))
}

func benchmarkUpdate(t *testing.T, collection *database.Collection, count int) {
	t.Logf("Running Update benchmark with %d operations", count)

	updatedValues := make([]string, count)
	for i := 0; i < count; i++ {
		updatedValues[i] = fmt.Sprintf("updated_value_%d", i)
	}

	start := time.Now()
	for i := 0; i < count; i++ {
		key := fmt.Sprintf("key_%d", i)
		if err := collection.UpdateKV(key, updatedValues[i]); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
	}
	duration := time.Since(start)

	for i := 0; i < count; i++ {
		key := fmt.Sprintf("key_%d", i)
		value, found, err := collection.FindKey(key)
		if err != nil {
			t.Fatalf("Find failed: %v", err)
		}
		if !found {
			t.Errorf("Validation failed: Key %s not found after update", key)
			continue
		}
		if value != updatedValues[i] {
			t.Errorf("Validation failed: Key %s has value %v, expected %s", key, value, updatedValues[i])
		}
	}

	avgTime := float64(duration.Microseconds()) / float64(count)
	t.Logf("Update benchmark completed: %d operations in %v (avg %.2f µs per operation)",
		count, duration, avgTime)
}

func benchmarkDelete(t *testing.T, collection *database.Collection, count int) {
	t.Logf("Running Delete benchmark with %d operations", count)

	start := time.Now()
	for i := 0; i < count; i++ {
		key := fmt.Sprintf("key_%d", i)
		deleted, err := collection.DeleteKey(key)
		if err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if !deleted {
			t.Errorf("Key %s was not present at deletion", key)
		}
	}
	duration := time.Since(start)

	for i := 0; i < count; i++ {
		key := fmt.Sprintf("key_%d", i)
		_, found, err := collection.FindKey(key)
		if err != nil {
			t.Fatalf("Find failed: %v", err)
		}
		if found {
			t.Errorf("Validation failed: Key %s still exists after deletion", key)
		}
	}

	avgTime := float64(duration.Microseconds()) / float64(count)
	t.Logf("Delete benchmark completed: %d operations in %v (avg %.2f µs per operation)",
		count, duration, avgTime)
}

// TestBenchmarkWithRandomAccess simulates real-world mixed operations.
func TestBenchmarkWithRandomAccess(t *testing.T) {
	collection := newTestCollection(t, "random_benchmark", 8)
	benchmarkMixedOperations(t, collection, 1000)
}

func benchmarkMixedOperations(t *testing.T, collection *database.Collection, count int) {
	t.Logf("Running Mixed Operations benchmark with %d total operations", count)

	keyValues := make(map[string]string)

	const (
		opInsert = iota
		opFind
		opUpdate
		opDelete
		opCount
	)

	operationCounts := make([]int, opCount)
	operationTimes := make([]time.Duration, opCount)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	start := time.Now()
	for i := 0; i < count; i++ {
		// Keys are drawn from a range of count*2 to create collisions.
		key := fmt.Sprintf("random_key_%d", rng.Intn(count*2))

		// 40% inserts, 40% finds, 15% updates, 5% deletes
		op := rng.Intn(100)
		var operation int
		if op < 40 {
			operation = opInsert
		} else if op < 80 {
			operation = opFind
		} else if op < 95 {
			operation = opUpdate
		} else {
			operation = opDelete
		}

		opStart := time.Now()

		switch operation {
		case opInsert:
			value := fmt.Sprintf("random_value_%d", i)
			if err := collection.InsertKV(key, value); err != nil {
				t.Fatalf("Insert failed: %v", err)
			}
			keyValues[key] = value
			operationCounts[opInsert]++

		case opFind:
			value, found, err := collection.FindKey(key)
			if err != nil {
				t.Fatalf("Find failed: %v", err)
			}
			expected, exists := keyValues[key]
			if found && exists {
				if value != expected {
					t.Errorf("Find validation failed: Key %s has value %v, expected %s",
						key, value, expected)
				}
			} else if found && !exists {
				t.Errorf("Found key %s that should not exist", key)
			} else if !found && exists {
				t.Errorf("Key %s should exist but was not found", key)
			}
			operationCounts[opFind]++

		case opUpdate:
			if _, exists := keyValues[key]; exists {
				newValue := fmt.Sprintf("updated_value_%d", i)
				if err := collection.UpdateKV(key, newValue); err != nil {
					t.Fatalf("Update failed: %v", err)
				}
				keyValues[key] = newValue
			}
			operationCounts[opUpdate]++

		case opDelete:
			if _, exists := keyValues[key]; exists {
				if _, err := collection.DeleteKey(key); err != nil {
					t.Fatalf("Delete failed: %v", err)
				}
				delete(keyValues, key)
			}
			operationCounts[opDelete]++
		}

		operationTimes[operation] += time.Since(opStart)
	}
	totalDuration := time.Since(start)

	t.Logf("Mixed Operations benchmark completed: %d operations in %v", count, totalDuration)
	t.Logf("Average time per operation: %.2f µs", float64(totalDuration.Microseconds())/float64(count))

	operationNames := []string{"Insert", "Find", "Update", "Delete"}
	for i := 0; i < opCount; i++ {
		if operationCounts[i] > 0 {
			avgTime := float64(operationTimes[i].Microseconds()) / float64(operationCounts[i])
			t.Logf("  %s: %d operations, avg %.2f µs per operation",
				operationNames[i], operationCounts[i], avgTime)
		}
	}

	// Final state: a full scan must agree with the model exactly.
	pairs, err := collection.FindAllKV()
	if err != nil {
		t.Fatalf("FindAllKV failed: %v", err)
	}
	if len(pairs) != len(keyValues) {
		t.Errorf("Final state holds %d keys, expected %d", len(pairs), len(keyValues))
	}
	for _, pair := range pairs {
		if expected, exists := keyValues[pair.Key]; !exists || pair.Value != expected {
			t.Errorf("Final validation failed: Key %s has value %v, expected %s",
				pair.Key, pair.Value, expected)
		}
	}
	t.Logf("Final state: %d keys in database", len(pairs))
}

// TestDatabasePersistence closes a database and reloads it from the manifest.
func TestDatabasePersistence(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "persist_db")
	db, err := database.NewDatabase(dbPath, "persist_db")
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	if err := db.CreateCollection("animals", 4); err != nil {
		t.Fatalf("Failed to create collection: %v", err)
	}
	collection, err := db.GetCollection("animals")
	if err != nil {
		t.Fatalf("Failed to get collection: %v", err)
	}
	if err := collection.InsertKV("capuchin", "monkey"); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := collection.InsertKV("caracal", "cat"); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reloaded, err := database.LoadDatabase(dbPath)
	if err != nil {
		t.Fatalf("Failed to load database: %v", err)
	}
	defer reloaded.Close()

	names, err := reloaded.GetAllCollections()
	if err != nil {
		t.Fatalf("GetAllCollections failed: %v", err)
	}
	if len(names) != 1 || names[0] != "animals" {
		t.Fatalf("Reloaded collections = %v, expected [animals]", names)
	}

	collection, err = reloaded.GetCollection("animals")
	if err != nil {
		t.Fatalf("Failed to get collection after reload: %v", err)
	}
	if collection.Order() != 4 {
		t.Errorf("Reloaded collection order = %d, expected 4", collection.Order())
	}
	value, found, err := collection.FindKey("capuchin")
	if err != nil || !found || value != "monkey" {
		t.Errorf("Key capuchin after reload: found=%v value=%q err=%v", found, value, err)
	}
}

// TestCreateCollectionTwice rejects duplicate collection names.
func TestCreateCollectionTwice(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "dup_db")
	db, err := database.NewDatabase(dbPath, "dup_db")
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	if err := db.CreateCollection("users", 3); err != nil {
		t.Fatalf("Failed to create collection: %v", err)
	}
	if err := db.CreateCollection("users", 3); err == nil {
		t.Error("Creating a duplicate collection should fail")
	}
}

// TestListDatabases discovers database directories by their manifests.
func TestListDatabases(t *testing.T) {
	root := t.TempDir()

	ids, err := database.ListDatabases(filepath.Join(root, "missing"))
	if err != nil {
		t.Fatalf("ListDatabases on a missing root failed: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("ListDatabases on a missing root = %v, expected none", ids)
	}

	for _, id := range []string{"db_one", "db_two"} {
		db, err := database.NewDatabase(filepath.Join(root, id), id)
		if err != nil {
			t.Fatalf("Failed to create database %s: %v", id, err)
		}
		db.Close()
	}

	ids, err = database.ListDatabases(root)
	if err != nil {
		t.Fatalf("ListDatabases failed: %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("ListDatabases = %v, expected two entries", ids)
	}
}
