// Package scheduler runs pipeline items with bounded concurrency.
package scheduler
