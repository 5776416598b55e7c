package collector

import (
	"bufio"
	"context"
	"io"

	"github.com/go-tangra/go-tangra-remote-admin/internal/remote"
)

const maxLine = 1 << 20

// streamLines runs script and calls fn for every non-empty output line as
// it arrives.
func streamLines(ctx context.Context, r remote.Runner, script string, fn func(line []byte)) error {
	pr, pw := io.Pipe()
	errc := make(chan error, 1)
	go func() {
		err := r.Stream(ctx, script, pw)
		pw.CloseWithError(err)
		errc <- err
	}()

	sc := bufio.NewScanner(pr)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	for sc.Scan() {
		if line := sc.Bytes(); len(line) > 0 {
			fn(line)
		}
	}
	scanErr := sc.Err()
	pr.CloseWithError(scanErr)

	if err := <-errc; err != nil {
		return err
	}
	return scanErr
}
