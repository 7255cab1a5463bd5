package catalogxml

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// CountItems counts the item end tags in r. The count is the progress
// denominator of a synchronisation pass, so it follows the parser's rules:
// the tag name must match exactly, whitespace may precede the closing '>',
// and text inside comments and CDATA sections is not markup.
func CountItems(r io.Reader, itemTag string) (int, error) {
	br := bufio.NewReaderSize(r, 64*1024)
	endTag := "/" + itemTag

	count := 0
	for {
		b, err := br.ReadByte()
		if err != nil {
			return count, countErr(err)
		}
		if b != '<' {
			continue
		}

		switch {
		case hasPrefix(br, "!--"):
			err = skipPast(br, "-->")
		case hasPrefix(br, "![CDATA["):
			err = skipPast(br, "]]>")
		case hasPrefix(br, endTag):
			_, _ = br.Discard(len(endTag))
			var closed bool
			closed, err = closesTag(br)
			if closed {
				count++
			}
		}
		if err != nil {
			return count, countErr(err)
		}
	}
}

func countErr(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return fmt.Errorf("counting items: %w", err)
}

func hasPrefix(br *bufio.Reader, s string) bool {
	buf, err := br.Peek(len(s))
	return err == nil && string(buf) == s
}

// closesTag consumes optional whitespace and reports whether a '>' follows.
// Any other byte is left unread.
func closesTag(br *bufio.Reader) (bool, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return false, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case '>':
			return true, nil
		default:
			return false, br.UnreadByte()
		}
	}
}

// skipPast consumes input up to and including term.
func skipPast(br *bufio.Reader, term string) error {
	window := make([]byte, 0, len(term))
	for {
		b, err := br.ReadByte()
		if err != nil {
			return err
		}
		if len(window) == len(term) {
			copy(window, window[1:])
			window = window[:len(term)-1]
		}
		window = append(window, b)
		if string(window) == term {
			return nil
		}
	}
}
