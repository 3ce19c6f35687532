package notify

import (
	"bytes"
	"fmt"
	"html/template"
)

// ApprovalRequest is the data for the email sent to a client.
type ApprovalRequest struct {
	To            string
	ClientName    string
	RequesterName string
	TaskTitle     string
	ProjectName   string
	Notes         string
	Link          string
}

// ApprovalResult is the data for the email sent back to the requester.
type ApprovalResult struct {
	To            string
	RequesterName string
	ClientName    string
	TaskTitle     string
	ProjectName   string
	Status        string
	Feedback      string
}

type statusStyle struct {
	Label string
	Color template.CSS
}

var statusStyles = map[string]statusStyle{
	"approved":          {Label: "Approved", Color: "#16a34a"},
	"changes_requested": {Label: "Changes requested", Color: "#ca8a04"},
	"rejected":          {Label: "Rejected", Color: "#dc2626"},
}

const layout = `<!DOCTYPE html>
<html><head><meta charset="utf-8"></head>
<body style="font-family:-apple-system,'Segoe UI',sans-serif;background:#f5f5f5;padding:40px 20px">
<div style="max-width:560px;margin:0 auto;background:#fff;border-radius:12px;padding:40px">
{{template "body" .}}
</div></body></html>`

var requestTmpl = template.Must(template.Must(template.New("request").Parse(layout)).Parse(`{{define "body"}}
<h2>Hello, {{.ClientName}}!</h2>
<p><strong>{{.RequesterName}}</strong> is waiting for your approval on:</p>
<div style="background:#f8f8f8;border-left:4px solid #D4A843;padding:20px">
<div style="font-size:17px;font-weight:600">{{.TaskTitle}}</div>
<div style="color:#888">Project: {{.ProjectName}}</div>
</div>
{{if .Notes}}<p style="background:#fffbf0;padding:16px"><strong>Notes:</strong><br>{{.Notes}}</p>{{end}}
<p><a href="{{.Link}}" style="background:#D4A843;color:#fff;padding:16px 40px;border-radius:8px;text-decoration:none">Review and respond</a></p>
<p style="font-size:13px;color:#999">This link is valid for 7 days.</p>
{{end}}`))

var resultTmpl = template.Must(template.Must(template.New("result").Parse(layout)).Parse(`{{define "body"}}
<h2>Hello, {{.RequesterName}}!</h2>
<p><strong>{{.ClientName}}</strong> answered the approval request for <strong>{{.TaskTitle}}</strong> ({{.ProjectName}}):</p>
<p style="color:{{.Style.Color}};font-weight:600">{{.Style.Label}}</p>
{{if .Feedback}}<div style="background:#f8f8f8;padding:20px"><strong>Client feedback:</strong><br>{{.Feedback}}</div>{{end}}
{{end}}`))

// Render builds the client-facing message.
func (r ApprovalRequest) Render() (Message, error) {
	var buf bytes.Buffer
	if err := requestTmpl.Execute(&buf, r); err != nil {
		return Message{}, fmt.Errorf("render approval request: %w", err)
	}
	return Message{
		To:      r.To,
		Subject: fmt.Sprintf("Approval needed: %s (%s)", r.TaskTitle, r.ProjectName),
		HTML:    buf.String(),
	}, nil
}

// Render builds the requester-facing message.
func (r ApprovalResult) Render() (Message, error) {
	style, ok := statusStyles[r.Status]
	if !ok {
		style = statusStyles["changes_requested"]
	}
	var buf bytes.Buffer
	err := resultTmpl.Execute(&buf, struct {
		ApprovalResult
		Style statusStyle
	}{r, style})
	if err != nil {
		return Message{}, fmt.Errorf("render approval result: %w", err)
	}
	return Message{
		To:      r.To,
		Subject: fmt.Sprintf("%s answered: %s (%s)", r.ClientName, r.TaskTitle, style.Label),
		HTML:    buf.String(),
	}, nil
}
