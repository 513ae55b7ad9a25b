// Package database provides the TimescaleDB connection pool used for
// time-series persistence of live trades and market ticks.
package database
