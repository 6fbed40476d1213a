package yarp

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"

	"github.com/cespare/xxhash/v2"
)

// FileValue is a continuous Value whose payload survives process restarts.
// The payload is loaded from path at construction (a missing file means
// initial; a corrupt file is logged and ignored in favour of initial) and
// every subsequent notification is written back as JSON. Payloads must
// therefore be JSON-encodable; a NoValue payload writes nothing. A failed
// write-back surfaces from whichever Set triggered it. Changes made to the
// file while the program runs are not picked up.
func FileValue(path string, initial any) (*Value, error) {
	payload := initial
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		var decoded any
		if jerr := json.Unmarshal(raw, &decoded); jerr != nil {
			log.Printf("yarp: ignoring corrupt state in %s: %v", path, jerr)
		} else {
			payload = decoded
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("yarp: load %s: %w", path, err)
	}

	v := NewValue(payload)

	var lastSum uint64
	haveSum := false
	write := func(x any) error {
		if x == NoValue {
			return nil
		}
		enc, err := json.Marshal(x)
		if err != nil {
			return fmt.Errorf("yarp: encode %s: %w", path, err)
		}
		if sum := xxhash.Sum64(enc); !haveSum || sum != lastSum {
			if err := os.WriteFile(path, enc, 0o644); err != nil {
				return fmt.Errorf("yarp: store %s: %w", path, err)
			}
			lastSum, haveSum = sum, true
		}
		return nil
	}
	v.OnChange(write)

	// Store immediately in case the file did not exist yet.
	if err := write(v.Get()); err != nil {
		return nil, err
	}
	return v, nil
}
