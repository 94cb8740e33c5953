// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package files

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	stdinLock        sync.Mutex
	hasStdinBeenRead bool
)

// ReadStdin only read stdin once
func ReadStdin() ([]byte, error) {
	stdinLock.Lock()
	defer stdinLock.Unlock()

	if hasStdinBeenRead {
		return nil, fmt.Errorf("Standard input has already been read, has the '-' argument been used in more than one flag?")
	}
	hasStdinBeenRead = true
	return io.ReadAll(os.Stdin)
}
