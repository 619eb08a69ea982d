package extract

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/image/font/sfnt"
)

// Magic tags at offset 0 of supported font files.
var (
	tagTrueType   = [4]byte{0x00, 0x01, 0x00, 0x00}
	tagOpenType   = [4]byte{'O', 'T', 'T', 'O'}
	tagApple      = [4]byte{'t', 'r', 'u', 'e'}
	tagCollection = [4]byte{'t', 't', 'c', 'f'}
)

// SFNT extracts names from TrueType, OpenType, and collection files.
// For collections, the first face is used.
type SFNT struct{}

// NewSFNT returns the default extractor.
func NewSFNT() *SFNT {
	return &SFNT{}
}

// Extract implements Extractor.
func (SFNT) Extract(path string) (Metadata, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, &UnrecognizedError{Path: path, Message: err.Error()}
	}
	if len(src) < 4 {
		return Metadata{}, &UnrecognizedError{Path: path, Message: "file too short to be a font"}
	}

	font, err := parse(src)
	if err != nil {
		var unrec *UnrecognizedError
		if errors.As(err, &unrec) {
			unrec.Path = path
			return Metadata{}, unrec
		}
		return Metadata{}, &ValidationError{Path: path, Message: err.Error(), Err: err}
	}

	var buf sfnt.Buffer
	md := Metadata{
		FullName:               name(font, &buf, sfnt.NameIDFull),
		FamilyName:             name(font, &buf, sfnt.NameIDFamily),
		Subfamily:              name(font, &buf, sfnt.NameIDSubfamily),
		PreferredFamilyName:    name(font, &buf, sfnt.NameIDTypographicFamily),
		PreferredSubfamilyName: name(font, &buf, sfnt.NameIDTypographicSubfamily),
	}

	return md, nil
}

func parse(src []byte) (*sfnt.Font, error) {
	var magic [4]byte
	copy(magic[:], src[:4])

	switch magic {
	case tagTrueType, tagOpenType, tagApple:
		return sfnt.Parse(src)
	case tagCollection:
		coll, err := sfnt.ParseCollection(src)
		if err != nil {
			return nil, err
		}
		if coll.NumFonts() == 0 {
			return nil, errors.New("empty font collection")
		}
		return coll.Font(0)
	default:
		return nil, &UnrecognizedError{Message: fmt.Sprintf("unknown magic %q", magic[:])}
	}
}

// name returns the named string, or "" when the record is absent or unreadable.
func name(font *sfnt.Font, buf *sfnt.Buffer, id sfnt.NameID) string {
	s, err := font.Name(buf, id)
	if err != nil {
		return ""
	}
	return s
}
