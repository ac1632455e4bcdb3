// Package feeders provides configuration feeders for reading parameters from
// YAML files, TOML files and affixed environment variables.
package feeders

// Feeder fills a structure from one source.
type Feeder interface {
	Feed(structure any) error
}

// KeyFeeder fills a structure from one top-level key of its source.
type KeyFeeder interface {
	FeedKey(key string, target any) error
}
