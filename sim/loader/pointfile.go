package loader

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ppsim/ppsim/sim/spatial"
)

// InputPoint is one `entity x y` record from an input point file.
type InputPoint struct {
	Entity spatial.EntityID
	X, Y   float64
}

// ReadPoints scans whitespace-separated `entity x y` records from r until
// EOF, returning an error describing the first malformed record.
func ReadPoints(r io.Reader) ([]InputPoint, error) {
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)

	var points []InputPoint
	for {
		entity, ok, err := nextField(scanner)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		x, ok, err := nextFloatField(scanner)
		if err != nil || !ok {
			return nil, fmt.Errorf("loader: malformed point file: expected x after entity %s: %w", entity, errOrEOF(err))
		}
		y, ok, err := nextFloatField(scanner)
		if err != nil || !ok {
			return nil, fmt.Errorf("loader: malformed point file: expected y after entity %s x %g: %w", entity, x, errOrEOF(err))
		}
		e, err := strconv.ParseUint(entity, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("loader: malformed point file: entity %q is not an integer: %w", entity, err)
		}
		points = append(points, InputPoint{Entity: spatial.EntityID(e), X: x, Y: y})
	}
	return points, nil
}

func nextField(scanner *bufio.Scanner) (string, bool, error) {
	if !scanner.Scan() {
		return "", false, scanner.Err()
	}
	return strings.TrimSpace(scanner.Text()), true, nil
}

func nextFloatField(scanner *bufio.Scanner) (float64, bool, error) {
	tok, ok, err := nextField(scanner)
	if err != nil || !ok {
		return 0, ok, err
	}
	v, perr := strconv.ParseFloat(tok, 64)
	if perr != nil {
		return 0, true, perr
	}
	return v, true, nil
}

func errOrEOF(err error) error {
	if err != nil {
		return err
	}
	return io.ErrUnexpectedEOF
}
