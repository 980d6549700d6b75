package worker

// PDFTemplateString 是简历导出 PDF 的 Go HTML 模板。
const PDFTemplateString = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        @page {
            size: A4;
            margin: 36px;
        }
        body {
            margin: 0;
            padding: 0;
            font-family: 'Helvetica Neue', Arial, sans-serif;
            font-size: 11pt;
            color: #1f2933;
        }
        header {
            border-bottom: 2px solid #3388ff;
            padding-bottom: 12px;
            margin-bottom: 20px;
        }
        h1 {
            margin: 0;
            font-size: 22pt;
        }
        .owner {
            margin-top: 4px;
            font-size: 12pt;
            color: #52606d;
        }
        .state {
            display: inline-block;
            margin-top: 8px;
            padding: 2px 10px;
            border-radius: 10px;
            background: #e3f0ff;
            color: #1b64c4;
            font-size: 9pt;
            letter-spacing: 1px;
        }
        section h2 {
            font-size: 13pt;
            border-left: 4px solid #3388ff;
            padding-left: 8px;
        }
        .introduce {
            white-space: pre-wrap;
            line-height: 1.6;
        }
        table {
            width: 100%;
            border-collapse: collapse;
            font-size: 9pt;
        }
        th, td {
            border: 1px solid #d3dce6;
            padding: 6px 8px;
            text-align: left;
        }
        th {
            background: #f5f7fa;
        }
    </style>
</head>
<body>
    <header>
        <h1>{{.Title}}</h1>
        <div class="owner">{{.OwnerName}}</div>
        <div class="state">{{.State}}</div>
    </header>
    <section>
        <h2>自我介绍</h2>
        <div class="introduce">{{.Introduce}}</div>
    </section>
    {{if .History}}
    <section>
        <h2>状态变更记录</h2>
        <table>
            <tr><th>时间</th><th>变更</th><th>负责人</th><th>事由</th></tr>
            {{range .History}}
            <tr>
                <td>{{.CreatedAt}}</td>
                <td>{{.OldState}} → {{.NewState}}</td>
                <td>{{.Recruiter}}</td>
                <td>{{.Reason}}</td>
            </tr>
            {{end}}
        </table>
    </section>
    {{end}}
</body>
</html>
`

// pdfTemplateData 是模板渲染入参。
type pdfTemplateData struct {
	Title     string
	OwnerName string
	State     string
	Introduce string
	History   []pdfHistoryRow
}

type pdfHistoryRow struct {
	CreatedAt string
	OldState  string
	NewState  string
	Recruiter string
	Reason    string
}
