package asx

import (
	"errors"

	"github.com/shanehull/asxreport/internal/types"
)

// Parser turns raw listing rows into announcements using a RowSchema.
type Parser struct {
	schema RowSchema
}

func NewParser(schema RowSchema) *Parser {
	return &Parser{schema: schema}
}

// Parse decodes one row. Any failure is returned as a *ParseError.
func (p *Parser) Parse(row RawRow) (types.Announcement, error) {
	ann, err := p.schema.Decode(row)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			return types.Announcement{}, err
		}
		return types.Announcement{}, &ParseError{Cell: "row", Err: err}
	}

	switch {
	case ann.Symbol == "":
		return types.Announcement{}, &ParseError{Cell: "symbol", Err: errors.New("empty symbol")}
	case ann.DateTime.IsZero():
		return types.Announcement{}, &ParseError{Cell: "datetime", Err: errors.New("missing datetime")}
	case ann.Headline == "":
		return types.Announcement{}, &ParseError{Cell: "headline", Err: errors.New("empty headline")}
	case ann.Link == "":
		return types.Announcement{}, &ParseError{Cell: "link", Err: errors.New("missing link")}
	}

	return ann, nil
}
