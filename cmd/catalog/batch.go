package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/gofrs/flock"

	"github.com/alldopamine/catalog"
)

// withBatchLock runs fn while holding the batch lock file, so that two
// batch jobs never interleave on one host.
func withBatchLock(path string, fn func() error) error {
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire batch lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another batch job holds %s", path)
	}
	defer lock.Unlock()
	return fn()
}

// readEnvelopes accepts either a JSON array or one envelope per line.
func readEnvelopes(path string) ([]catalog.Envelope, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	br := bufio.NewReader(r)
	head, err := br.Peek(1)
	for err == nil && len(bytes.TrimSpace(head)) == 0 {
		br.ReadByte()
		head, err = br.Peek(1)
	}
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if head[0] == '[' {
		var envs []catalog.Envelope
		if err := json.NewDecoder(br).Decode(&envs); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		return envs, nil
	}

	var envs []catalog.Envelope
	dec := json.NewDecoder(br)
	for {
		var env catalog.Envelope
		err := dec.Decode(&env)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode %s record %d: %w", path, len(envs)+1, err)
		}
		envs = append(envs, env)
	}
	return envs, nil
}
