package logging

import "github.com/oklog/ulid/v2"

// GenerateRunID returns a new ULID. IDs sort by creation time, which keeps log files
// named after them in chronological order.
func GenerateRunID() string {
	return ulid.Make().String()
}
