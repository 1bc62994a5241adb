package database

import (
	"fmt"

	"pagedb/btree"
)

// Collection is a wrapper around a single B-tree instance plus metadata
// like its name and base directory.
type Collection struct {
	name    string
	order   int
	tree    *btree.BTree
	baseDir string
}

func (c *Collection) Name() string { return c.name }

func (c *Collection) Order() int { return c.order }

// InsertKV wraps the btree insert. Inserting an existing key overwrites
// its value.
func (c *Collection) InsertKV(key string, value string) error {
	if err := c.tree.Insert(key, value); err != nil {
		return fmt.Errorf("failed to insert key %s into collection %s: %v", key, c.name, err)
	}
	return nil
}

// FindKey wraps the btree find.
func (c *Collection) FindKey(key string) (string, bool, error) {
	value, found, err := c.tree.Find(key)
	if err != nil {
		return "", false, fmt.Errorf("failed to find key %s in collection %s: %v", key, c.name, err)
	}
	return value, found, nil
}

// UpdateKV wraps the btree update, inserting the pair when the key is
// not present yet.
func (c *Collection) UpdateKV(key string, value string) error {
	updated, err := c.tree.Update(key, value)
	if err != nil {
		return fmt.Errorf("failed to update key %s in collection %s: %v", key, c.name, err)
	}
	if !updated {
		if err := c.tree.Insert(key, value); err != nil {
			return fmt.Errorf("failed to insert key %s after update attempt: %v", key, err)
		}
	}
	return nil
}

// DeleteKey wraps the btree delete. It reports whether the key was present.
func (c *Collection) DeleteKey(key string) (bool, error) {
	deleted, err := c.tree.Delete(key)
	if err != nil {
		return false, fmt.Errorf("failed to delete key %s in collection %s: %v", key, c.name, err)
	}
	return deleted, nil
}

// FindAllKV returns every pair in the collection in ascending key order.
func (c *Collection) FindAllKV() ([]btree.KeyValue, error) {
	pairs, err := c.tree.ListAll()
	if err != nil {
		return nil, fmt.Errorf("failed to scan collection %s: %v", c.name, err)
	}
	return pairs, nil
}
