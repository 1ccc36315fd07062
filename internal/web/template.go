package web

import (
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/sweeney/judsound-box/internal/logic"
	"github.com/sweeney/judsound-box/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"since": func(from, now time.Time) string {
		return strings.TrimSpace(humanize.RelTime(from, now, "", ""))
	},
	"ago": func(at, now time.Time) string {
		return humanize.RelTime(at, now, "ago", "from now")
	},
	"clock": func(d logic.Digits) string { return d.Clock() },
	"comma": func(n int) string { return humanize.Comma(int64(n)) },
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Judsound</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.mode { font-weight: bold; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Judsound</h1>

<h2>Box</h2>
<table>
{{if .Started}}<tr><th>Mode</th><td id="mode" class="mode">{{.Box.Mode}}</td></tr>
<tr><th>Returns to</th><td>{{.Box.Fallback}}</td></tr>
{{if .Box.Mode.IsSubMode}}<tr><th>Editing</th><td>{{clock .Box.Editing}}</td></tr>{{end}}
<tr><th>Music volume</th><td>{{.Box.MusicVolume}}</td></tr>
<tr><th>System volume</th><td>{{.Box.SystemVolume}}</td></tr>
{{else}}<tr><th>Mode</th><td id="mode" class="unknown">UNKNOWN</td></tr>{{end}}
</table>

<h2>Alarms</h2>
<table>
{{range .Box.Alarms}}<tr><td class="alarm">{{clock .}}</td></tr>
{{else}}<tr><td>none</td></tr>
{{end}}{{if .Box.LastFired}}<tr><th>Last rang</th><td>{{clock .Box.LastFired}} ({{ago .Box.LastFiredAt .Now}})</td></tr>{{end}}
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Activity</h2>
<table>
<tr><th>Presses</th><td>{{comma .Box.Counts.Presses}}</td></tr>
<tr><th>Holds</th><td>{{comma .Box.Counts.Holds}}</td></tr>
<tr><th>Rotations</th><td>{{comma .Box.Counts.Rotations}}</td></tr>
<tr><th>Alarms set</th><td>{{comma .Box.Counts.AlarmsSet}}</td></tr>
<tr><th>Alarms rung</th><td>{{comma .Box.Counts.AlarmsFired}}</td></tr>
<tr><th>Mode changes</th><td>{{comma .Box.Counts.ModeChanges}}</td></tr>
<tr><th>Audio errors</th><td>{{comma .Box.Counts.AudioErrors}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td id="uptime">{{since .StartTime .Now}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Modes</th><td>{{range $i, $m := .Config.Modes}}{{if $i}}, {{end}}{{$m}}{{end}}</td></tr>
<tr><th>Tick</th><td>{{.Config.TickSec}}s</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatSec 0}}disabled{{else}}{{.Config.HeartbeatSec}}s{{end}}</td></tr>
<tr><th>Alarm file</th><td>{{.Config.AlarmFile}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	return indexTmpl.Execute(w, snap)
}
