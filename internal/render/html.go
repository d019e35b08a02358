package render

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/kingrea/batchlabel/internal/batch"
)

var sheetTemplate = template.Must(template.New("sheet").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>{{.Title}}</title>
<style>
@page{size:{{.Width}}mm {{.Height}}mm;margin:0}
*{box-sizing:border-box;margin:0;padding:0}
body{font-family:Helvetica,Arial,sans-serif;color:#000;background:#fff}
.label{width:{{.Width}}mm;height:{{.Height}}mm;padding:2mm;display:flex;flex-direction:column;justify-content:space-between;overflow:hidden;page-break-after:always;break-after:page}
.label:last-child{page-break-after:auto;break-after:auto}
.top{display:flex;justify-content:space-between;align-items:flex-start;border-bottom:2px solid #000;padding-bottom:1mm}
.cap{font-size:7pt;font-weight:700;text-transform:uppercase;color:#444;display:block}
.code{font-family:monospace;font-size:18pt;font-weight:900;letter-spacing:-0.5pt;line-height:1}
.useby{font-size:13pt;font-weight:700;text-align:right;line-height:1}
.mix{flex:1;display:flex;align-items:center;font-size:11pt;font-weight:700;line-height:1.2;margin:1mm 0}
.meta{border-top:1px solid #000;padding-top:1mm;display:grid;grid-template-columns:5fr 4fr 3fr;gap:1mm;font-size:7pt}
.copy{font-weight:900;border:1px solid #000;text-align:center}
.id{font-size:5pt;color:#666}
.r{text-align:right}
</style>
</head>
<body>
{{range .Labels}}<div class="label">
<div class="top"><div><span class="cap">Code</span><span class="code">{{.Code}}</span></div><div class="useby"><span class="cap">Use By</span>{{.UseBy}}</div></div>
<div class="mix">{{.MixName}}</div>
<div class="meta"><div><span class="cap">Prep Date</span>{{.PrepDate}}</div><div><span class="cap">Sup.</span>{{.Supervisor}}</div><div class="r"><div class="id">ID:{{.ShortID}}</div><div class="copy">{{.Copy}}</div></div></div>
</div>
{{end}}</body>
</html>
`))

type sheetData struct {
	Title  string
	Width  float64
	Height float64
	Labels []Fields
}

// HTML renders the label set as one page per label, sized to label stock.
func HTML(labels []batch.LabelDescriptor) (string, error) {
	data := sheetData{
		Title:  "Batch labels",
		Width:  StockWidthMM,
		Height: StockHeightMM,
		Labels: make([]Fields, 0, len(labels)),
	}
	if len(labels) > 0 {
		data.Title = fmt.Sprintf("%s batch %s", labels[0].WipCode, batch.ShortID(labels[0].BatchID))
	}
	for _, l := range labels {
		data.Labels = append(data.Labels, FieldsFor(l))
	}
	var buf bytes.Buffer
	if err := sheetTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render: label sheet: %w", err)
	}
	return buf.String(), nil
}
