package schema

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/FocuswithJustin/litereader/core/errors"
)

// ddlStatement is a CREATE TABLE or CREATE INDEX statement. Column
// definitions and index terms are kept as token lists and interpreted in
// Go, so the grammar only has to find their boundaries.
type ddlStatement struct {
	Table *tableDef `"CREATE" ( @@`
	Index *indexDef `         | @@ ) ";"?`
}

type tableDef struct {
	Temp        bool         `@("TEMP" | "TEMPORARY")?`
	Virtual     bool         `@"VIRTUAL"? "TABLE"`
	IfNotExists bool         `@("IF" "NOT" "EXISTS")?`
	Name        *objectName  `@@`
	Items       []*tableItem `( "(" @@ ( "," @@ )* ")"`
	Options     []string     `  ( @Ident ","? )*`
	Module      string       `| "USING" @Ident`
	ModuleArgs  *group       `  ( "(" @@ ")" )? )`
}

type indexDef struct {
	Unique      bool         `@"UNIQUE"? "INDEX"`
	IfNotExists bool         `@("IF" "NOT" "EXISTS")?`
	Name        *objectName  `@@ "ON"`
	Table       *objectName  `@@`
	Terms       []*tableItem `"(" @@ ( "," @@ )* ")"`
	Where       []*token     `( "WHERE" @@+ )?`
}

type objectName struct {
	Parts []string `@(Ident | QuotedIdent | String) ( "." @(Ident | QuotedIdent | String) )*`
}

// tableItem is one comma-separated element of a parenthesised list: a
// column definition, a table constraint or an index term.
type tableItem struct {
	Tokens []*token `@@+`
}

type token struct {
	Group  *group `  "(" @@ ")"`
	Ident  string `| @Ident`
	Quoted string `| @(QuotedIdent | String)`
	Other  string `| @(Blob | Number | Operator | ".")`
}

type group struct {
	Items []*groupItem `@@*`
}

type groupItem struct {
	Token *token `  @@`
	Comma bool   `| @","`
}

var ddlLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `--[^\n]*|/\*(?s:.*?)\*/`},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "QuotedIdent", Pattern: `"(?:[^"]|"")*"|` + "`(?:[^`]|``)*`" + `|\[[^\]]*\]`},
	{Name: "Blob", Pattern: `[xX]'[0-9a-fA-F]*'`},
	{Name: "String", Pattern: `'(?:[^']|'')*'`},
	{Name: "Number", Pattern: `0[xX][0-9a-fA-F]+|(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`},
	{Name: "Ident", Pattern: `[\p{L}_][\p{L}\p{N}_$]*`},
	{Name: "Punct", Pattern: `[(),;.]`},
	{Name: "Operator", Pattern: `\|\||<<|>>|<=|>=|==|!=|<>|[-+*/%&|~<>=!?:@$]`},
})

var ddlParser = participle.MustBuild[ddlStatement](
	participle.Lexer(ddlLexer),
	participle.Elide("Comment", "Whitespace"),
	participle.CaseInsensitive("Ident"),
	participle.UseLookahead(4),
)

func parseDDL(name, sql string) (*ddlStatement, error) {
	stmt, err := ddlParser.ParseString(name, sql)
	if err != nil {
		return nil, &errors.ParseError{Format: "CREATE statement", Path: name, Message: err.Error(), Err: errors.ErrUnparseableCreate}
	}
	return stmt, nil
}

// ParseColumns returns the columns declared by a CREATE TABLE statement, in
// declaration order. It is the only part of the package that reads SQL
// text.
func ParseColumns(createSQL string) ([]Column, error) {
	t, err := ParseTable("", createSQL)
	if err != nil {
		return nil, err
	}
	return t.Columns, nil
}

// ParseTable builds a Table from its CREATE TABLE statement. The root page
// is left for the caller to fill in.
func ParseTable(name, createSQL string) (*Table, error) {
	stmt, err := parseDDL(name, createSQL)
	if err != nil {
		return nil, err
	}
	def := stmt.Table
	if def == nil {
		return nil, &errors.ParseError{Format: "CREATE TABLE", Path: name, Message: "not a CREATE TABLE statement", Err: errors.ErrUnparseableCreate}
	}

	t := &Table{
		Name:       def.Name.last(),
		SQL:        createSQL,
		RowidAlias: -1,
		Virtual:    def.Module != "",
		Module:     def.Module,
	}
	for i, opt := range def.Options {
		switch strings.ToUpper(opt) {
		case "ROWID":
			if i > 0 && strings.EqualFold(def.Options[i-1], "WITHOUT") {
				t.WithoutRowID = true
			}
		case "STRICT":
			t.Strict = true
		}
	}
	if t.Virtual {
		return t, nil
	}

	var pk *key
	for _, item := range def.Items {
		if isTableConstraint(item.Tokens) {
			k := parseTableConstraint(item.Tokens)
			if k == nil {
				continue
			}
			if k.primary {
				pk = k
			}
			t.keys = append(t.keys, *k)
			continue
		}
		col, colKeys, err := parseColumnDef(item.Tokens, t.Strict)
		if err != nil {
			return nil, &errors.ParseError{Format: "CREATE TABLE", Path: t.Name, Message: err.Error(), Err: errors.ErrUnparseableCreate}
		}
		for _, k := range colKeys {
			if k.primary {
				kk := k
				pk = &kk
			}
		}
		t.Columns = append(t.Columns, col)
		t.keys = append(t.keys, colKeys...)
	}
	if len(t.Columns) == 0 {
		return nil, &errors.ParseError{Format: "CREATE TABLE", Path: t.Name, Message: "no column definitions", Err: errors.ErrUnparseableCreate}
	}

	if pk != nil {
		for _, c := range pk.columns {
			if i := t.ColumnIndex(c); i >= 0 {
				t.Columns[i].PrimaryKey = true
			}
		}
		if !t.WithoutRowID && len(pk.columns) == 1 {
			i := t.ColumnIndex(pk.columns[0])
			// A column-level PRIMARY KEY DESC keeps a separate rowid.
			if i >= 0 && strings.EqualFold(t.Columns[i].Type, "INTEGER") && !(pk.columnLevel && pk.desc[0]) {
				t.RowidAlias = i
				t.dropPrimaryKey()
			}
		}
	}
	return t, nil
}

// ParseIndex builds an Index from its CREATE INDEX statement.
func ParseIndex(name, createSQL string) (*Index, error) {
	stmt, err := parseDDL(name, createSQL)
	if err != nil {
		return nil, err
	}
	def := stmt.Index
	if def == nil {
		return nil, &errors.ParseError{Format: "CREATE INDEX", Path: name, Message: "not a CREATE INDEX statement", Err: errors.ErrUnparseableCreate}
	}

	idx := &Index{
		Name:    def.Name.last(),
		Table:   def.Table.last(),
		SQL:     createSQL,
		Unique:  def.Unique,
		Partial: len(def.Where) > 0,
	}
	for _, term := range def.Terms {
		col, coll, desc, ok := parseKeyTerm(term.Tokens)
		if !ok {
			col = ""
		}
		idx.Columns = append(idx.Columns, col)
		idx.Collations = append(idx.Collations, coll)
		idx.Desc = append(idx.Desc, desc)
	}
	return idx, nil
}

func (n *objectName) last() string {
	return unquote(n.Parts[len(n.Parts)-1])
}

// columnKeywords end the type name of a column definition.
var columnKeywords = map[string]bool{
	"CONSTRAINT": true, "PRIMARY": true, "NOT": true, "NULL": true,
	"UNIQUE": true, "CHECK": true, "DEFAULT": true, "COLLATE": true,
	"REFERENCES": true, "GENERATED": true, "AS": true,
}

func isTableConstraint(toks []*token) bool {
	switch strings.ToUpper(toks[0].Ident) {
	case "CONSTRAINT", "PRIMARY", "UNIQUE", "CHECK", "FOREIGN":
		return true
	}
	return false
}

func parseColumnDef(toks []*token, strict bool) (Column, []key, error) {
	var col Column
	name, ok := toks[0].name()
	if !ok {
		return col, nil, errors.NewValidation("column", "expected a column name")
	}
	col.Name = name

	i := 1
	var typ []string
	for ; i < len(toks); i++ {
		tk := toks[i]
		if tk.Ident != "" && !columnKeywords[strings.ToUpper(tk.Ident)] {
			typ = append(typ, tk.Ident)
			continue
		}
		if tk.Group != nil && len(typ) > 0 {
			typ[len(typ)-1] += "(" + tk.Group.text() + ")"
			continue
		}
		break
	}
	col.Type = strings.Join(typ, " ")
	if strict {
		col.Affinity = strictAffinity(col.Type)
	} else {
		col.Affinity = DetermineAffinity(col.Type)
	}

	var keys []key
	for ; i < len(toks); i++ {
		switch strings.ToUpper(toks[i].Ident) {
		case "PRIMARY":
			k := key{columns: []string{col.Name}, collations: []string{""}, desc: []bool{false}, primary: true, columnLevel: true}
			for j := i + 1; j < len(toks) && j <= i+2; j++ {
				if strings.EqualFold(toks[j].Ident, "DESC") {
					k.desc[0] = true
				}
			}
			keys = append(keys, k)
		case "UNIQUE":
			keys = append(keys, key{columns: []string{col.Name}, collations: []string{""}, desc: []bool{false}, columnLevel: true})
		case "NOT":
			if i+1 < len(toks) && strings.EqualFold(toks[i+1].Ident, "NULL") {
				col.NotNull = true
				i++
			}
		case "COLLATE":
			if i+1 < len(toks) {
				if c, ok := toks[i+1].name(); ok {
					col.Collation = strings.ToUpper(c)
				}
				i++
			}
		case "DEFAULT":
			i++
		case "GENERATED", "AS":
			col.Generated = true
		case "STORED":
			if col.Generated {
				col.Stored = true
			}
		}
	}
	return col, keys, nil
}

// parseTableConstraint returns the key a PRIMARY KEY or UNIQUE table
// constraint declares, or nil for other constraints.
func parseTableConstraint(toks []*token) *key {
	i := 0
	if strings.EqualFold(toks[0].Ident, "CONSTRAINT") {
		i = 2
	}
	if i >= len(toks) {
		return nil
	}
	k := &key{}
	switch strings.ToUpper(toks[i].Ident) {
	case "PRIMARY":
		k.primary = true
	case "UNIQUE":
	default:
		return nil
	}
	for ; i < len(toks); i++ {
		if toks[i].Group != nil {
			break
		}
	}
	if i == len(toks) {
		return nil
	}
	for _, term := range toks[i].Group.split() {
		col, coll, desc, ok := parseKeyTerm(term)
		if !ok {
			return nil
		}
		k.columns = append(k.columns, col)
		k.collations = append(k.collations, coll)
		k.desc = append(k.desc, desc)
	}
	if len(k.columns) == 0 {
		return nil
	}
	return k
}

// parseKeyTerm reads "name [COLLATE c] [ASC|DESC]". ok is false for
// expression terms.
func parseKeyTerm(toks []*token) (col, collation string, desc, ok bool) {
	if len(toks) == 0 {
		return "", "", false, false
	}
	col, ok = toks[0].name()
	if !ok {
		return "", "", false, false
	}
	for i := 1; i < len(toks); i++ {
		switch strings.ToUpper(toks[i].Ident) {
		case "COLLATE":
			if i+1 >= len(toks) {
				return "", "", false, false
			}
			c, cok := toks[i+1].name()
			if !cok {
				return "", "", false, false
			}
			collation = strings.ToUpper(c)
			i++
		case "ASC":
		case "DESC":
			desc = true
		default:
			return "", "", false, false
		}
	}
	return col, collation, desc, true
}

// name returns the identifier a token spells, unquoted.
func (t *token) name() (string, bool) {
	switch {
	case t.Ident != "":
		return t.Ident, true
	case t.Quoted != "":
		return unquote(t.Quoted), true
	}
	return "", false
}

func (t *token) text() string {
	switch {
	case t.Group != nil:
		return "(" + t.Group.text() + ")"
	case t.Ident != "":
		return t.Ident
	case t.Quoted != "":
		return t.Quoted
	}
	return t.Other
}

func (g *group) text() string {
	var b strings.Builder
	for i, it := range g.Items {
		if it.Comma {
			b.WriteByte(',')
			continue
		}
		if i > 0 && !g.Items[i-1].Comma {
			b.WriteByte(' ')
		}
		b.WriteString(it.Token.text())
	}
	return b.String()
}

// split returns the comma-separated token lists inside g.
func (g *group) split() [][]*token {
	var out [][]*token
	var cur []*token
	for _, it := range g.Items {
		if it.Comma {
			out = append(out, cur)
			cur = nil
			continue
		}
		cur = append(cur, it.Token)
	}
	return append(out, cur)
}

// unquote strips "double", `backtick`, [bracket] or 'single' quoting.
func unquote(s string) string {
	if len(s) < 2 {
		return s
	}
	switch q := s[0]; q {
	case '"', '\'', '`':
		if s[len(s)-1] == q {
			pair := string([]byte{q, q})
			return strings.ReplaceAll(s[1:len(s)-1], pair, string(q))
		}
	case '[':
		if s[len(s)-1] == ']' {
			return s[1 : len(s)-1]
		}
	}
	return s
}
