package builder

import (
	"bufio"
	"io"
	"strconv"
)

// Scanner splits an ASCII stream into whitespace separated tokens and keeps
// the byte offset of each. It supports one token of lookahead.
type Scanner struct {
	sc       *bufio.Scanner
	consumed int64
	start    int64

	peeked bool
	tok    string
	off    int64
	ok     bool
}

// NewScanner returns a Scanner reading from r.
func NewScanner(r io.Reader) *Scanner {
	s := &Scanner{sc: bufio.NewScanner(r)}
	s.sc.Split(s.split)
	return s
}

func (s *Scanner) split(data []byte, atEOF bool) (int, []byte, error) {
	advance, token, err := bufio.ScanWords(data, atEOF)
	if token != nil {
		// token is a subslice of data; the capacity difference is its start.
		s.start = s.consumed + int64(cap(data)-cap(token))
	}
	s.consumed += int64(advance)
	return advance, token, err
}

// Peek returns the next token without consuming it. ok is false at end of
// input.
func (s *Scanner) Peek() (tok string, offset int64, ok bool) {
	if !s.peeked {
		s.ok = s.sc.Scan()
		s.tok, s.off = "", s.consumed
		if s.ok {
			s.tok, s.off = s.sc.Text(), s.start
		}
		s.peeked = true
	}
	return s.tok, s.off, s.ok
}

// Next consumes and returns the next token.
func (s *Scanner) Next() (tok string, offset int64, ok bool) {
	tok, offset, ok = s.Peek()
	s.peeked = false
	return tok, offset, ok
}

// Err returns the first read error, if any.
func (s *Scanner) Err() error {
	return s.sc.Err()
}

// ParseNumber parses a decimal or exponent form floating point literal.
func ParseNumber(tok string) (float64, bool) {
	f, err := strconv.ParseFloat(tok, 64)
	return f, err == nil
}
