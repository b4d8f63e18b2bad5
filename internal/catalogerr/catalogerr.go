// Copyright 2024 LatentFS Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package catalogerr defines the error kinds surfaced by the catalog
// core (§7).
package catalogerr

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Sentinel kinds. Use errors.Is against these; Wrap below annotates one
// with a specific operation and path.
var (
	ErrNotFound       = errors.New("catalog: not found")
	ErrAlreadyExists  = errors.New("catalog: already exists")
	ErrNotEmpty       = errors.New("catalog: directory not empty")
	ErrSchemaMismatch = errors.New("catalog: schema version unsupported")
	ErrIoFailure      = errors.New("catalog: io failure")
)

// Wrap annotates a sentinel kind with the operation and path that failed,
// wrapping the underlying cause with %w so callers can still errors.Is
// against the kind.
func Wrap(kind error, op, path string, cause error) error {
	if cause == nil {
		return fmt.Errorf("%w: %s %q", kind, op, path)
	}
	return fmt.Errorf("%w: %s %q: %w", kind, op, path, cause)
}

// Invariant reports a violated invariant of §3.3. Per §7 this is fatal:
// the process terminates with a diagnostic rather than returning to the
// caller, because a violated catalog-tree invariant means the in-memory
// state can no longer be trusted to produce a correct manifest.
func Invariant(format string, args ...any) {
	log.WithField("component", "catalog").Fatalf("invariant violated: "+format, args...)
}
