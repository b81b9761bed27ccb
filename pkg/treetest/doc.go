// Package treetest provides helpers for testing code built on shadow trees:
// a controllable clock, a delegate that records notifications, and tree
// assertions.
package treetest
