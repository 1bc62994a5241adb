package btree

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
)

func TestLeafNodeRoundTrip(t *testing.T) {
	node := &Node{
		IsLeaf: true,
		IsRoot: true,
		Pairs: []KeyValue{
			{Key: "apple", Value: "red fruit"},
			{Key: "banana", Value: "yellow fruit"},
			{Key: "cherry", Value: "small red fruit"},
		},
	}
	page, err := node.ToPage()
	if err != nil {
		t.Fatalf("ToPage failed: %v", err)
	}
	decoded, err := NodeFromPage(page)
	if err != nil {
		t.Fatalf("NodeFromPage failed: %v", err)
	}
	if !reflect.DeepEqual(node, decoded) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", decoded, node)
	}
}

func TestEmptyLeafRoundTrip(t *testing.T) {
	node := &Node{IsLeaf: true, IsRoot: true, Pairs: []KeyValue{}}
	page, err := node.ToPage()
	if err != nil {
		t.Fatalf("ToPage failed: %v", err)
	}
	decoded, err := NodeFromPage(page)
	if err != nil {
		t.Fatalf("NodeFromPage failed: %v", err)
	}
	if !decoded.IsLeaf || !decoded.IsRoot || len(decoded.Pairs) != 0 {
		t.Errorf("empty leaf decoded as %+v", decoded)
	}
}

func TestInternalNodeRoundTrip(t *testing.T) {
	node := &Node{
		Parent:   PageSize,
		Children: []Offset{2 * PageSize, 3 * PageSize, 4 * PageSize},
		Keys:     []string{"grape", "mango"},
	}
	page, err := node.ToPage()
	if err != nil {
		t.Fatalf("ToPage failed: %v", err)
	}
	decoded, err := NodeFromPage(page)
	if err != nil {
		t.Fatalf("NodeFromPage failed: %v", err)
	}
	if !reflect.DeepEqual(node, decoded) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", decoded, node)
	}
}

func TestFullLeafRoundTrip(t *testing.T) {
	node := &Node{IsLeaf: true}
	for i := 0; i < maxLeafPairs; i++ {
		node.Pairs = append(node.Pairs, KeyValue{
			Key:   fmt.Sprintf("key_%03d", i),
			Value: strings.Repeat("v", ValueSize),
		})
	}
	page, err := node.ToPage()
	if err != nil {
		t.Fatalf("ToPage of a full leaf failed: %v", err)
	}
	decoded, err := NodeFromPage(page)
	if err != nil {
		t.Fatalf("NodeFromPage failed: %v", err)
	}
	if len(decoded.Pairs) != maxLeafPairs {
		t.Errorf("decoded %d pairs, want %d", len(decoded.Pairs), maxLeafPairs)
	}
	if decoded.Pairs[0] != node.Pairs[0] || decoded.Pairs[maxLeafPairs-1] != node.Pairs[maxLeafPairs-1] {
		t.Error("full leaf pairs did not survive the round trip")
	}
}

func TestEncodeOverCapacity(t *testing.T) {
	leaf := &Node{IsLeaf: true}
	for i := 0; i <= maxLeafPairs; i++ {
		leaf.Pairs = append(leaf.Pairs, KeyValue{Key: fmt.Sprintf("key_%03d", i)})
	}
	if _, err := leaf.ToPage(); !errors.Is(err, ErrInvariant) {
		t.Errorf("encoding %d pairs returned %v, want ErrInvariant", len(leaf.Pairs), err)
	}

	internal := &Node{}
	for i := 0; i <= maxInternalChildren; i++ {
		internal.Children = append(internal.Children, Offset(i)*PageSize)
	}
	for i := 0; i < maxInternalChildren; i++ {
		internal.Keys = append(internal.Keys, fmt.Sprintf("key_%03d", i))
	}
	if _, err := internal.ToPage(); !errors.Is(err, ErrInvariant) {
		t.Errorf("encoding %d children returned %v, want ErrInvariant", len(internal.Children), err)
	}
}

func TestEncodeOversizeKeyAndValue(t *testing.T) {
	node := &Node{IsLeaf: true, Pairs: []KeyValue{{Key: strings.Repeat("k", KeySize+1)}}}
	if _, err := node.ToPage(); !errors.Is(err, ErrKeyOverflow) {
		t.Errorf("oversize key returned %v, want ErrKeyOverflow", err)
	}

	node = &Node{IsLeaf: true, Pairs: []KeyValue{{Key: "k", Value: strings.Repeat("v", ValueSize+1)}}}
	if _, err := node.ToPage(); !errors.Is(err, ErrValueOverflow) {
		t.Errorf("oversize value returned %v, want ErrValueOverflow", err)
	}

	// NUL bytes cannot survive the null-padded cells, so they are rejected
	// rather than silently corrupted.
	node = &Node{IsLeaf: true, Pairs: []KeyValue{{Key: "k\x00k"}}}
	if _, err := node.ToPage(); !errors.Is(err, ErrKeyOverflow) {
		t.Errorf("NUL in key returned %v, want ErrKeyOverflow", err)
	}
}

func TestEncodeMismatchedInternal(t *testing.T) {
	node := &Node{
		Children: []Offset{PageSize, 2 * PageSize, 3 * PageSize},
		Keys:     []string{"only-one"},
	}
	if _, err := node.ToPage(); !errors.Is(err, ErrInvariant) {
		t.Errorf("children/keys mismatch returned %v, want ErrInvariant", err)
	}
}

func TestDecodeUnknownNodeType(t *testing.T) {
	p := &Page{}
	if err := p.WriteByteAt(nodeTypeOffset, 7); err != nil {
		t.Fatalf("WriteByteAt failed: %v", err)
	}
	if _, err := NodeFromPage(p); !errors.Is(err, ErrCorruptPage) {
		t.Errorf("unknown tag returned %v, want ErrCorruptPage", err)
	}
}

func TestDecodeCountOverflow(t *testing.T) {
	leaf := &Node{IsLeaf: true}
	page, err := leaf.ToPage()
	if err != nil {
		t.Fatalf("ToPage failed: %v", err)
	}
	if err := page.WriteUint16(leafNumPairsOffset, uint16(maxLeafPairs+1)); err != nil {
		t.Fatalf("WriteUint16 failed: %v", err)
	}
	if _, err := NodeFromPage(page); !errors.Is(err, ErrCorruptPage) {
		t.Errorf("overflowing pair count returned %v, want ErrCorruptPage", err)
	}

	internal := &Node{}
	page, err = internal.ToPage()
	if err != nil {
		t.Fatalf("ToPage failed: %v", err)
	}
	if err := page.WriteUint16(internalNumChildrenOffset, uint16(maxInternalChildren+1)); err != nil {
		t.Fatalf("WriteUint16 failed: %v", err)
	}
	if _, err := NodeFromPage(page); !errors.Is(err, ErrCorruptPage) {
		t.Errorf("overflowing child count returned %v, want ErrCorruptPage", err)
	}
}

func TestSplitLeaf(t *testing.T) {
	b := 3
	node := &Node{IsLeaf: true}
	for i := 0; i < 2*b-1; i++ {
		node.Pairs = append(node.Pairs, KeyValue{Key: fmt.Sprintf("key_%d", i), Value: fmt.Sprintf("value_%d", i)})
	}

	median, sibling, err := node.split(b)
	if err != nil {
		t.Fatalf("split failed: %v", err)
	}
	// The median pair stays in the left leaf; only its key is promoted.
	if median != "key_2" {
		t.Errorf("median is %q, want key_2", median)
	}
	if len(node.Pairs) != b {
		t.Errorf("left leaf has %d pairs, want %d", len(node.Pairs), b)
	}
	if node.Pairs[len(node.Pairs)-1].Key != median {
		t.Errorf("left leaf's last key is %q, want the median %q", node.Pairs[len(node.Pairs)-1].Key, median)
	}
	if len(sibling.Pairs) != b-1 {
		t.Errorf("sibling has %d pairs, want %d", len(sibling.Pairs), b-1)
	}
	if !sibling.IsLeaf {
		t.Error("sibling of a leaf should be a leaf")
	}
	if sibling.Pairs[0].Key != "key_3" {
		t.Errorf("sibling starts at %q, want key_3", sibling.Pairs[0].Key)
	}
}

func TestSplitInternal(t *testing.T) {
	b := 3
	node := &Node{}
	for i := 0; i < 2*b-1; i++ {
		node.Keys = append(node.Keys, fmt.Sprintf("key_%d", i))
	}
	for i := 0; i < 2*b; i++ {
		node.Children = append(node.Children, Offset(i+1)*PageSize)
	}

	median, sibling, err := node.split(b)
	if err != nil {
		t.Fatalf("split failed: %v", err)
	}
	// The median key is consumed: promoted alone, kept by neither half.
	if median != "key_2" {
		t.Errorf("median is %q, want key_2", median)
	}
	if len(node.Keys) != b-1 || len(node.Children) != b {
		t.Errorf("left half has %d keys / %d children, want %d / %d", len(node.Keys), len(node.Children), b-1, b)
	}
	if len(sibling.Keys) != b-1 || len(sibling.Children) != b {
		t.Errorf("sibling has %d keys / %d children, want %d / %d", len(sibling.Keys), len(sibling.Children), b-1, b)
	}
	for _, k := range append(append([]string{}, node.Keys...), sibling.Keys...) {
		if k == median {
			t.Errorf("median %q still present after split", median)
		}
	}
}

func TestSplitNotFull(t *testing.T) {
	node := &Node{IsLeaf: true, Pairs: []KeyValue{{Key: "a"}}}
	if _, _, err := node.split(3); !errors.Is(err, ErrInvariant) {
		t.Errorf("splitting a non-full node returned %v, want ErrInvariant", err)
	}
}
