// Package docxtest builds minimal in-memory DOCX fixtures for tests.
package docxtest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"strings"
)

const contentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

// Build produces a DOCX archive containing one table per element of
// tables, each table holding the given rows of cell text.
func Build(tables ...[][]string) []byte {
	var body strings.Builder
	for _, rows := range tables {
		body.WriteString("<w:tbl>")
		for _, row := range rows {
			body.WriteString("<w:tr>")
			for _, cell := range row {
				body.WriteString("<w:tc><w:p><w:r><w:t>")
				xml.EscapeText(&body, []byte(cell))
				body.WriteString("</w:t></w:r></w:p></w:tc>")
			}
			body.WriteString("</w:tr>")
		}
		body.WriteString("</w:tbl>")
	}
	return BuildRawBody(body.String())
}

// BuildRawBody produces a DOCX archive whose document body contains the
// given raw WordprocessingML markup.
func BuildRawBody(body string) []byte {
	document := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
		`<w:body>` + body + `</w:body></w:document>`

	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)

	files := map[string]string{
		"[Content_Types].xml": contentTypes,
		"word/document.xml":   document,
	}
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			panic(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			panic(err)
		}
	}
	if err := zw.Close(); err != nil {
		panic(err)
	}

	return buf.Bytes()
}
