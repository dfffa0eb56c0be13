// Package loader reads request traces for the engine.
//
// A trace is a text file with one directive per line:
//
//	# comment
//	init <index> <value>    initial state of an item
//	<index> [aux]           one request
//
// Numbers are decimal, or hexadecimal with a 0x prefix.
package loader

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sarchlab/oooop/emu"
)

// Item is an initial memory value.
type Item struct {
	Index uint64
	Value uint64
}

// Trace is a loaded request trace.
type Trace struct {
	// Initial contains the items set before the first request.
	Initial []Item
	// Requests contains the requests in submission order.
	Requests []emu.Request
}

// Load reads a trace file.
func Load(path string) (*Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}
	defer func() { _ = f.Close() }()

	trace, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return trace, nil
}

// Parse reads a trace from r.
func Parse(r io.Reader) (*Trace, error) {
	trace := &Trace{}
	scanner := bufio.NewScanner(r)
	line := 0

	for scanner.Scan() {
		line++

		text := scanner.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}

		if fields[0] == "init" {
			item, err := parseInit(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			trace.Initial = append(trace.Initial, item)
			continue
		}

		req, err := parseRequest(fields)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		trace.Requests = append(trace.Requests, req)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read trace: %w", err)
	}

	return trace, nil
}

func parseInit(fields []string) (Item, error) {
	if len(fields) != 2 {
		return Item{}, fmt.Errorf("init takes an index and a value, got %d fields", len(fields))
	}

	index, err := parseNumber(fields[0])
	if err != nil {
		return Item{}, err
	}
	value, err := parseNumber(fields[1])
	if err != nil {
		return Item{}, err
	}

	return Item{Index: index, Value: value}, nil
}

func parseRequest(fields []string) (emu.Request, error) {
	if len(fields) > 2 {
		return emu.Request{}, fmt.Errorf("a request takes an index and an optional aux, got %d fields",
			len(fields))
	}

	var req emu.Request
	var err error

	if req.Index, err = parseNumber(fields[0]); err != nil {
		return emu.Request{}, err
	}
	if len(fields) == 2 {
		if req.Aux, err = parseNumber(fields[1]); err != nil {
			return emu.Request{}, err
		}
	}

	return req, nil
}

func parseNumber(s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}

// Apply writes the initial items to memory.
func (t *Trace) Apply(memory *emu.Memory) {
	for _, item := range t.Initial {
		memory.Write(item.Index, item.Value)
	}
}
