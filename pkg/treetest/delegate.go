package treetest

import (
	"sync"
	"time"

	"github.com/go-drift/shadowtree/pkg/tree"
)

// Transaction is one recorded DidFinishTransaction call.
type Transaction struct {
	Surface   tree.SurfaceID
	Children  []tree.Tag
	Timestamp time.Time
}

// RecordingDelegate records every delegate notification. Safe for concurrent
// use.
type RecordingDelegate struct {
	mu           sync.Mutex
	created      []tree.Tag
	transactions []Transaction
}

// DidCreateShadowNode records the node's tag.
func (d *RecordingDelegate) DidCreateShadowNode(node *tree.Node) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.created = append(d.created, node.Tag())
}

// DidFinishTransaction records the transaction.
func (d *RecordingDelegate) DidFinishTransaction(surface tree.SurfaceID, rootChildren []*tree.Node, timestamp time.Time) {
	tags := make([]tree.Tag, len(rootChildren))
	for i, n := range rootChildren {
		tags[i] = n.Tag()
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.transactions = append(d.transactions, Transaction{Surface: surface, Children: tags, Timestamp: timestamp})
}

// Created returns the tags of created nodes in notification order.
func (d *RecordingDelegate) Created() []tree.Tag {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]tree.Tag(nil), d.created...)
}

// Transactions returns the recorded transactions in order.
func (d *RecordingDelegate) Transactions() []Transaction {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Transaction(nil), d.transactions...)
}
