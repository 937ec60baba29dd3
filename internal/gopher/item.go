// Package gopher implements the Gopher protocol (RFC 1436) transaction:
// item model, gophermap parsing, response rendering, request handling and
// the connection supervisor that ties them together.
package gopher

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ItemType identifies the kind of a Gopher menu entry. The canonical RFC
// 1436 values are named below; any other byte is accepted on input and
// echoed back verbatim.
type ItemType byte

const (
	ItemTypeTextFile   ItemType = '0'
	ItemTypeDirectory  ItemType = '1'
	ItemTypeCSOServer  ItemType = '2'
	ItemTypeError      ItemType = '3'
	ItemTypeBinHex     ItemType = '4'
	ItemTypeDOSArchive ItemType = '5'
	ItemTypeUUEncoded  ItemType = '6'
	ItemTypeSearch     ItemType = '7'
	ItemTypeTelnet     ItemType = '8'
	ItemTypeBinary     ItemType = '9'
	ItemTypeGIF        ItemType = 'g'
	ItemTypeImage      ItemType = 'I'
	ItemTypeTelnet3270 ItemType = 'T'
	ItemTypeHTML       ItemType = 'h'
	ItemTypeInfo       ItemType = 'i'

	itemTypeUnset ItemType = 0
)

// NullHost is the sentinel hostname for entries that carry no real link
// target (info and error lines).
const NullHost = "null.host"

// NullPort is the sentinel port paired with NullHost. The source this
// protocol is derived from used two inconsistent sentinels (0 and 1); this
// implementation standardizes on 0, matching widespread Gopher client
// expectations.
const NullPort = 0

// ErrLineTooLong is returned by Serialize when the wire form of an item
// would exceed 255 bytes including its trailing CRLF.
var ErrLineTooLong = errors.New("gopher: serialized line exceeds 255 bytes")

// ParseError reports a malformed gophermap entry line.
type ParseError struct {
	Line string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("gopher: failed to parse item line %q", e.Line)
}

// GopherItem is one menu entry: a typed, selectable (or informational)
// line in a directory listing or gophermap response.
type GopherItem struct {
	Type     ItemType
	Name     string
	Selector string
	Hostname string
	Port     int
}

// NewItem returns a default item: unset type, empty name and selector, and
// the null-host/port sentinel pair.
func NewItem() *GopherItem {
	return &GopherItem{
		Type:     itemTypeUnset,
		Hostname: NullHost,
		Port:     NullPort,
	}
}

// NewLinkItem builds an item that points at a real selector on the given
// host and port.
func NewLinkItem(t ItemType, name, selector, host string, port int) *GopherItem {
	return &GopherItem{
		Type:     t,
		Name:     name,
		Selector: selector,
		Hostname: host,
		Port:     port,
	}
}

// NewSentinelItem builds an info/error-style item that carries no link
// target, using the null-host/port sentinel pair.
func NewSentinelItem(t ItemType, name string) *GopherItem {
	return &GopherItem{
		Type:     t,
		Name:     name,
		Selector: "",
		Hostname: NullHost,
		Port:     NullPort,
	}
}

// ParseItem parses one tab-separated gophermap record:
//
//	T<name>\t<selector>\t<hostname>\t<port>
//
// T is a single character (the type) immediately followed by the display
// name up to the first TAB. Selector, hostname and port are optional and
// default, in order, to "", defaultHost and defaultPort. Fields beyond the
// fourth are ignored; nothing is unescaped. A line with no TAB at all
// yields an item with only the type set, per the gophermap format's
// historical behavior.
//
// A non-empty port field that isn't a valid decimal integer is reported as
// a ParseError, since this implementation (unlike the C original it
// replaces) cannot silently coerce garbage into a number.
func ParseItem(line, defaultHost string, defaultPort int) (*GopherItem, error) {
	item := NewItem()
	if line == "" {
		return item, nil
	}

	parts := strings.Split(line, "\t")
	first := parts[0]
	if len(first) > 0 {
		item.Type = ItemType(first[0])
	}

	if len(parts) == 1 {
		// No TAB anywhere in the line: only the type is kept.
		return item, nil
	}

	if len(first) > 0 {
		item.Name = first[1:]
	}
	item.Selector = parts[1]

	item.Hostname = defaultHost
	if len(parts) >= 3 && parts[2] != "" {
		item.Hostname = parts[2]
	}

	item.Port = defaultPort
	if len(parts) >= 4 && parts[3] != "" {
		port, err := strconv.Atoi(parts[3])
		if err != nil {
			return nil, &ParseError{Line: line}
		}
		item.Port = port
	}

	return item, nil
}

// Serialize renders the item to its wire form:
//
//	<type><name>\t<selector>\t<hostname>\t<port>\r\n
//
// The result, CRLF included, must fit in 255 bytes; otherwise
// ErrLineTooLong is returned rather than truncating.
func (it *GopherItem) Serialize() (string, error) {
	line := fmt.Sprintf("%c%s\t%s\t%s\t%d\r\n", it.Type, it.Name, it.Selector, it.Hostname, it.Port)
	if len(line) > 255 {
		return "", ErrLineTooLong
	}
	return line, nil
}
