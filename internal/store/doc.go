// Package store keeps an optional SQLite copy of the final analysis table
// alongside a log of the runs that exported it.
package store
