// Copyright 2024 The accountdb Authors
// This file is part of the accountdb library.
//
// The accountdb library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The accountdb library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the accountdb library. If not, see <http://www.gnu.org/licenses/>.

// Package kvstore implements the buffered key-value store that backs every
// trie and account lookup: writes land in an in-memory overlay first and
// only reach the backing engine (pebbledb or memorydb) on Flush/Write, so a
// caller can stage many transactions before paying for a disk round-trip.
package kvstore

// CompactionProfile carries the file-size tuning knobs handed down to the
// backing engine's level geometry.
type CompactionProfile struct {
	// InitialFileSize is the L0-L1 target file size, in bytes.
	InitialFileSize int64
	// FileSizeMultiplier scales the target file size for each deeper level.
	FileSizeMultiplier int64
	// WriteRateLimit is the profile's background write-rate limit, in
	// bytes/sec (zero: none). OpenPebble does not pass it to the engine, so
	// it does not limit pebble's flush or compaction throughput.
	WriteRateLimit int64
}

// CompactionDefault is the profile suitable for most storage (SSD-class).
var CompactionDefault = CompactionProfile{
	InitialFileSize:    32 * 1024 * 1024,
	FileSizeMultiplier: 2,
}

// CompactionHDD trades write amplification for fewer, larger compactions,
// suitable for spinning disks.
var CompactionHDD = CompactionProfile{
	InitialFileSize:    192 * 1024 * 1024,
	FileSizeMultiplier: 1,
	WriteRateLimit:     8 * 1024 * 1024,
}

// DefaultColumn addresses the database's unnamed column, always present.
const DefaultColumn = -1

// Config configures a Database.
type Config struct {
	// MaxOpenFiles bounds the backing engine's open file-descriptor count.
	MaxOpenFiles int
	// CacheSizeMiB sizes the engine's block cache, in mebibytes.
	CacheSizeMiB int
	// Compaction selects the level geometry profile.
	Compaction CompactionProfile
	// Columns is the number of additional named columns beyond the
	// default column. Zero means only the default column exists.
	Columns int
	// WAL enables the write-ahead log. Disabling it trades durability
	// across crashes for write throughput.
	WAL bool
}

// WithColumns returns the default configuration with columns set.
func WithColumns(columns int) Config {
	c := DefaultConfig()
	c.Columns = columns
	return c
}

// DefaultConfig mirrors the original implementation's zero-value
// configuration: 512 open files, no explicit cache budget, the default
// compaction profile, no named columns, WAL enabled.
func DefaultConfig() Config {
	return Config{
		MaxOpenFiles: 512,
		Compaction:   CompactionDefault,
		WAL:          true,
	}
}
