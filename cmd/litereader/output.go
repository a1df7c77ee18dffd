package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/FocuswithJustin/litereader/core/sqlite"
	"github.com/FocuswithJustin/litereader/internal/config"
	"github.com/FocuswithJustin/litereader/internal/validation"
)

// printer renders command results in one of the configured formats.
type printer struct {
	w      io.Writer
	format string
}

func newPrinter(w io.Writer, format string) *printer {
	return &printer{w: w, format: format}
}

func (p *printer) info(info sqlite.Info, kind validation.FileType) error {
	if p.format == config.OutputJSON {
		return p.json(struct {
			sqlite.Info
			FileType validation.FileType `json:"file_type"`
		}{info, kind})
	}
	fields := [][2]string{
		{"file type", string(kind)},
		{"database page size", fmt.Sprint(info.PageSize)},
		{"database page count", fmt.Sprint(info.PageCount)},
		{"text encoding", info.Encoding},
		{"reserved bytes", fmt.Sprint(info.ReservedBytes)},
		{"file change counter", fmt.Sprint(info.ChangeCounter)},
		{"schema cookie", fmt.Sprint(info.SchemaCookie)},
		{"schema format", fmt.Sprint(info.SchemaFormat)},
		{"user version", fmt.Sprint(info.UserVersion)},
		{"software version", fmt.Sprint(info.SQLiteVersion)},
		{"number of tables", fmt.Sprint(info.Tables)},
		{"number of indexes", fmt.Sprint(info.Indexes)},
	}
	if p.format == config.OutputCSV {
		cw := csv.NewWriter(p.w)
		cw.Write([]string{"field", "value"})
		for _, f := range fields {
			cw.Write(f[:])
		}
		cw.Flush()
		return cw.Error()
	}
	for _, f := range fields {
		if _, err := fmt.Fprintf(p.w, "%-20s %s\n", f[0]+":", f[1]); err != nil {
			return err
		}
	}
	return nil
}

func (p *printer) names(names []string) error {
	switch p.format {
	case config.OutputJSON:
		if names == nil {
			names = []string{}
		}
		return p.json(names)
	case config.OutputCSV:
		cw := csv.NewWriter(p.w)
		cw.Write([]string{"name"})
		for _, n := range names {
			cw.Write([]string{n})
		}
		cw.Flush()
		return cw.Error()
	}
	if len(names) == 0 {
		return nil
	}
	_, err := fmt.Fprintln(p.w, strings.Join(names, " "))
	return err
}

func (p *printer) schema(entries []sqlite.Entry) error {
	switch p.format {
	case config.OutputJSON:
		type entry struct {
			Type     string `json:"type"`
			Name     string `json:"name"`
			Table    string `json:"tbl_name"`
			RootPage uint32 `json:"rootpage"`
			SQL      string `json:"sql"`
		}
		out := make([]entry, 0, len(entries))
		for _, e := range entries {
			out = append(out, entry{e.Type, e.Name, e.TblName, e.RootPage, e.SQL})
		}
		return p.json(out)
	case config.OutputCSV:
		cw := csv.NewWriter(p.w)
		cw.Write([]string{"type", "name", "tbl_name", "rootpage", "sql"})
		for _, e := range entries {
			cw.Write([]string{e.Type, e.Name, e.TblName, fmt.Sprint(e.RootPage), e.SQL})
		}
		cw.Flush()
		return cw.Error()
	}
	for _, e := range entries {
		if _, err := fmt.Fprintf(p.w, "%s;\n", e.SQL); err != nil {
			return err
		}
	}
	return nil
}

// rows streams a result. Table output is column aligned; JSON output is
// an array of objects keyed by column name.
func (p *printer) rows(rows *sqlite.Rows) error {
	cols := rows.Columns()
	switch p.format {
	case config.OutputJSON:
		enc := json.NewEncoder(p.w)
		if _, err := io.WriteString(p.w, "["); err != nil {
			return err
		}
		n := 0
		for rows.Next() {
			obj := make(map[string]any, len(cols))
			for i, v := range rows.Row() {
				obj[cols[i]] = v.Interface()
			}
			if n > 0 {
				io.WriteString(p.w, ",")
			}
			if err := enc.Encode(obj); err != nil {
				return err
			}
			n++
		}
		if err := rows.Err(); err != nil {
			return err
		}
		_, err := io.WriteString(p.w, "]\n")
		return err

	case config.OutputCSV:
		cw := csv.NewWriter(p.w)
		cw.Write(cols)
		for rows.Next() {
			cw.Write(render(rows.Row()))
		}
		cw.Flush()
		if err := rows.Err(); err != nil {
			return err
		}
		return cw.Error()
	}

	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(cols, "\t"))
	for rows.Next() {
		fmt.Fprintln(tw, strings.Join(render(rows.Row()), "\t"))
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return tw.Flush()
}

func (p *printer) json(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func render(row []sqlite.Value) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = v.String()
	}
	return out
}
