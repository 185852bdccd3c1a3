package server

import (
	"html/template"
	"strings"
)

var templateFuncs = template.FuncMap{
	"join": strings.Join,
}

const pagesTemplate = `{{define "index"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>SceneSage</title>
</head>
<body>
<h1>SceneSage</h1>
<p>Upload a subtitle file (.srt, .vtt, .ass) or a video with a text subtitle track.</p>

{{if .Error}}<p class="error"><strong>Error:</strong> {{.Error}}</p>{{end}}

<form method="post" action="/analyze" enctype="multipart/form-data">
<fieldset>
<legend>Input</legend>
<label>File <input type="file" name="file" required></label>
</fieldset>
<fieldset>
<legend>Model</legend>
<label>Model <input type="text" name="model" value="{{.Config.Model.Name}}"></label>
<label>API key <input type="password" name="api_key" autocomplete="off"></label>
<label>Temperature <input type="number" name="temperature" step="0.05" min="0" max="2" value="{{.Config.Model.Temperature}}"></label>
<label>Max tokens <input type="number" name="max_tokens" min="1" value="{{.Config.Model.MaxTokens}}"></label>
<label>Top P <input type="number" name="top_p" step="0.05" min="0" max="1" value="{{.Config.Model.TopP}}"></label>
<label>Frequency penalty <input type="number" name="frequency_penalty" step="0.1" min="-2" max="2" value="{{.Config.Model.FrequencyPenalty}}"></label>
<label>Presence penalty <input type="number" name="presence_penalty" step="0.1" min="-2" max="2" value="{{.Config.Model.PresencePenalty}}"></label>
</fieldset>
<fieldset>
<legend>Scenes</legend>
<label>Minimum pause (seconds) <input type="number" name="min_pause" min="0" value="{{.Config.Scenes.MinPause}}"></label>
<label>Chunk size <input type="number" name="chunk_size" min="2" value="{{.Config.Scenes.ChunkSize}}"></label>
<label>Overlap <input type="number" name="overlap" min="0" value="{{.Config.Scenes.Overlap}}"></label>
</fieldset>
<button type="submit">Analyze</button>
</form>

{{if .Scenes}}
<h2>{{len .Scenes}} scenes{{if .Filename}} from {{.Filename}}{{end}}</h2>
<table>
<thead>
<tr><th>Start</th><th>End</th><th>Summary</th><th>Characters</th><th>Mood</th><th>Cultural references</th></tr>
</thead>
<tbody>
{{range .Scenes}}<tr>
<td>{{.Start}}</td>
<td>{{.End}}</td>
<td>{{.Summary}}<details><summary>Transcript</summary>{{.Text}}</details></td>
<td>{{join .Characters ", "}}</td>
<td>{{.Mood}}</td>
<td>{{join .CulturalRefs ", "}}</td>
</tr>
{{end}}</tbody>
</table>
<h2>JSON</h2>
<pre>{{.JSON}}</pre>
{{end}}
{{if .RequestID}}<p><small>Request {{.RequestID}}</small></p>{{end}}
</body>
</html>
{{end}}`
