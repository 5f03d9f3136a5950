package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/interval-timer/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"clock": func(seconds int) string {
		if seconds < 0 {
			seconds = 0
		}
		return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
	},
	"percent": func(f float64) string {
		return fmt.Sprintf("%.0f%%", f*100)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="1">
<title>Interval Timer</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.countdown { font-size: 3em; font-weight: bold; }
.work { color: #c0392b; }
.rest, .set_rest { color: green; }
.prepare { color: orange; }
.finished { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
form { display: inline; }
</style>
</head>
<body>
<h1>Interval Timer</h1>

<h2>Workout</h2>
{{with .Timer}}{{if .Running}}
<p class="countdown {{.Status.Phase}}">{{clock .Status.TimeLeftInPhase}}</p>
<table>
<tr><th>Workout</th><td>{{.Workout.Name}}{{if .Paused}} (paused){{end}}</td></tr>
<tr><th>Phase</th><td class="{{.Status.Phase}}">{{.Status.Phase}}</td></tr>
{{if $.Exercise}}<tr><th>Exercise</th><td>{{$.Exercise}}</td></tr>{{end}}
<tr><th>Set</th><td>{{.Status.CurrentSet}} / {{.Workout.Sets}}</td></tr>
<tr><th>Round</th><td>{{$.Round}} / {{len .Workout.Rounds}}</td></tr>
<tr><th>Total</th><td>{{clock .Workout.TotalDuration}}</td></tr>
</table>
{{else}}<p>No workout running.</p>{{end}}{{end}}

<h2>Listening Protection</h2>
<table>
{{if .Protection.Active}}<tr><th>Phase</th><td>{{.Protection.Phase}}</td></tr>
<tr><th>Time left</th><td>{{clock .Protection.TimeLeft}}</td></tr>
<tr><th>Cycle</th><td>{{.Protection.CycleCount}} / {{.ProtectionConfig.Cycles}}</td></tr>
{{else}}<tr><th>Status</th><td>off</td></tr>{{end}}
<tr><th>Sound level</th><td>{{if .Sampling}}{{percent .AmbientLevel}}{{else}}not sampling{{end}}</td></tr>
</table>
{{if .Controls}}
<p>
<form method="post" action="/control/pause"><button>Pause</button></form>
<form method="post" action="/control/resume"><button>Resume</button></form>
<form method="post" action="/control/stop"><button>Stop</button></form>
<form method="post" action="/control/protection-start"><button>Protection on</button></form>
<form method="post" action="/control/protection-stop"><button>Protection off</button></form>
</p>
{{end}}

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Cue gap</th><td>{{.Config.CueGapMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPPort}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot, controls bool) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime   time.Duration
		Exercise string
		Round    int
		Controls bool
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		Round:    snap.Timer.Status.CurrentRoundIndex + 1,
		Controls: controls,
	}
	if r, ok := snap.Timer.CurrentRound(); ok {
		data.Exercise = r.ExerciseName
	}
	indexTmpl.Execute(w, data)
}
