// Package querytext turns the small SELECT dialect accepted by the CLI
// into a structured sqlite.QueryRequest:
//
//	SELECT * | COUNT(*) | col [, col]... FROM table [WHERE col = literal] [;]
//
// Keywords are case-insensitive. Literals are integers (decimal or 0x
// hex), reals, 'strings' or "strings", X'blobs' and NULL.
package querytext

import (
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/FocuswithJustin/litereader/core/errors"
	"github.com/FocuswithJustin/litereader/core/sqlite"
)

type selectStmt struct {
	Count   bool         `"SELECT" ( @( "COUNT" "(" "*" ")" )`
	Columns []*resultCol `         | @@ ( "," @@ )* )`
	Table   string       `"FROM" @( Ident | QuotedIdent )`
	Where   *condition   `( "WHERE" @@ )? ";"?`
}

type resultCol struct {
	Star bool   `  @"*"`
	Name string `| @( Ident | QuotedIdent )`
}

type condition struct {
	Column string   `@( Ident | QuotedIdent ) ( "=" | "==" )`
	Value  *literal `@@`
}

type literal struct {
	Null   bool    `  @"NULL"`
	Blob   *string `| @Blob`
	String *string `| @( String | QuotedIdent )`
	Number *string `| @( "-" | "+" )? @Number`
}

var selectLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "QuotedIdent", Pattern: `"(?:[^"]|"")*"|` + "`(?:[^`]|``)*`" + `|\[[^\]]*\]`},
	{Name: "Blob", Pattern: `[xX]'[0-9a-fA-F]*'`},
	{Name: "String", Pattern: `'(?:[^']|'')*'`},
	{Name: "Number", Pattern: `0[xX][0-9a-fA-F]+|(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`},
	{Name: "Ident", Pattern: `[\p{L}_][\p{L}\p{N}_$]*`},
	{Name: "Operator", Pattern: `==|[-+*=(),;]`},
})

var selectParser = participle.MustBuild[selectStmt](
	participle.Lexer(selectLexer),
	participle.Elide("Whitespace"),
	participle.CaseInsensitive("Ident"),
	participle.UseLookahead(4),
)

// Parse converts a SELECT statement into a request.
func Parse(query string) (sqlite.QueryRequest, error) {
	stmt, err := selectParser.ParseString("", query)
	if err != nil {
		return sqlite.QueryRequest{}, &errors.ParseError{Format: "SELECT", Message: err.Error()}
	}

	req := sqlite.QueryRequest{Table: unquote(stmt.Table), Count: stmt.Count}
	for _, c := range stmt.Columns {
		if c.Star {
			req.Columns = append(req.Columns, "*")
		} else {
			req.Columns = append(req.Columns, unquote(c.Name))
		}
	}
	if stmt.Where != nil {
		v, err := stmt.Where.Value.value()
		if err != nil {
			return sqlite.QueryRequest{}, err
		}
		req.Where = &sqlite.Filter{Column: unquote(stmt.Where.Column), Value: v}
	}
	return req, nil
}

func (l *literal) value() (sqlite.Value, error) {
	switch {
	case l.Null:
		return sqlite.Null(), nil
	case l.String != nil:
		return sqlite.Text(unquote(*l.String)), nil
	case l.Blob != nil:
		b, err := hex.DecodeString((*l.Blob)[2 : len(*l.Blob)-1])
		if err != nil {
			return sqlite.Value{}, &errors.ParseError{Format: "SELECT", Message: "blob literal: " + err.Error()}
		}
		return sqlite.Blob(b), nil
	}
	return parseNumber(*l.Number)
}

// parseNumber reads an integer or real literal. Integers too large for
// int64 become reals.
func parseNumber(s string) (sqlite.Value, error) {
	neg := strings.HasPrefix(s, "-")
	digits := strings.TrimLeft(s, "+-")

	if h := strings.TrimPrefix(strings.TrimPrefix(digits, "0x"), "0X"); h != digits {
		u, err := strconv.ParseUint(h, 16, 64)
		if err != nil {
			return sqlite.Value{}, &errors.ParseError{Format: "SELECT", Message: "hex literal " + s + " is too large"}
		}
		i := int64(u)
		if neg {
			i = -i
		}
		return sqlite.Int(i), nil
	}

	if !strings.ContainsAny(digits, ".eE") {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return sqlite.Int(i), nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return sqlite.Value{}, &errors.ParseError{Format: "SELECT", Message: "numeric literal " + s + ": " + err.Error()}
	}
	return sqlite.Float(f), nil
}

func unquote(s string) string {
	if len(s) < 2 {
		return s
	}
	switch q := s[0]; q {
	case '"', '\'', '`':
		if s[len(s)-1] == q {
			return strings.ReplaceAll(s[1:len(s)-1], string([]byte{q, q}), string(q))
		}
	case '[':
		if s[len(s)-1] == ']' {
			return s[1 : len(s)-1]
		}
	}
	return s
}
