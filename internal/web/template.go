package web

import (
	"fmt"
	"html/template"
	"io"
	"log"
	"time"

	"github.com/sweeney/gate-controller/internal/logic"
	"github.com/sweeney/gate-controller/internal/status"
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
	"label": logic.Label,
	"stateClass": func(s logic.State) string {
		switch s {
		case logic.StateClosed, logic.StateOpen:
			return "settled"
		case logic.StateOpening, logic.StateClosing:
			return "moving"
		case logic.StateError, logic.StateStop:
			return "fault"
		}
		return "unknown"
	},
	"onOff": func(b bool) string {
		if b {
			return "on"
		}
		return "off"
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="2">
<title>Gate Controller</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.settled { color: green; font-weight: bold; }
.moving { color: orange; font-weight: bold; }
.fault { color: red; font-weight: bold; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Gate Controller</h1>

<h2>State</h2>
<table>
<tr><th>Gate</th><td id="gate-state" class="{{stateClass .State}}">{{label .State}}</td></tr>
<tr><th>Auto-close</th><td>{{if .Timer.Active}}{{.Timer.Remaining}}s{{else}}inactive{{end}}</td></tr>
{{with .LastEvent}}<tr><th>Last transition</th><td>{{label .From}} &rarr; {{label .To}} ({{.Reason}}) at {{.Timestamp.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>{{end}}
</table>

<h2>Inputs</h2>
<table>
<tr><th>Open button</th><td class="{{onOff .Inputs.OpenButton}}">{{onOff .Inputs.OpenButton}}</td></tr>
<tr><th>Close button</th><td class="{{onOff .Inputs.CloseButton}}">{{onOff .Inputs.CloseButton}}</td></tr>
<tr><th>Stop button</th><td class="{{onOff .Inputs.StopButton}}">{{onOff .Inputs.StopButton}}</td></tr>
<tr><th>Emergency button</th><td class="{{onOff .Inputs.EmergencyButton}}">{{onOff .Inputs.EmergencyButton}}</td></tr>
<tr><th>Reset button</th><td class="{{onOff .Inputs.ResetButton}}">{{onOff .Inputs.ResetButton}}</td></tr>
<tr><th>Open limit</th><td class="{{onOff .Inputs.OpenLimit}}">{{onOff .Inputs.OpenLimit}}</td></tr>
<tr><th>Close limit</th><td class="{{onOff .Inputs.CloseLimit}}">{{onOff .Inputs.CloseLimit}}</td></tr>
</table>

<h2>Outputs</h2>
<table>
<tr><th>Motor open</th><td class="{{onOff .Outputs.MotorOpen}}">{{onOff .Outputs.MotorOpen}}</td></tr>
<tr><th>Motor close</th><td class="{{onOff .Outputs.MotorClose}}">{{onOff .Outputs.MotorClose}}</td></tr>
<tr><th>Buzzer</th><td class="{{onOff .Outputs.Buzzer}}">{{onOff .Outputs.Buzzer}}</td></tr>
<tr><th>Lamp</th><td class="{{onOff .Outputs.Lamp}}">{{onOff .Outputs.Lamp}}</td></tr>
<tr><th>Fault LED</th><td class="{{onOff .Outputs.FaultLED}}">{{onOff .Outputs.FaultLED}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Counts</h2>
<table>
<tr><th>Transitions</th><td>{{.Counts.Transitions}}</td></tr>
<tr><th>Auto-closes</th><td>{{.Counts.AutoCloses}}</td></tr>
<tr><th>Resets</th><td>{{.Counts.Resets}}</td></tr>
<tr><th>Faults</th><td>{{.Counts.Faults}}</td></tr>
<tr><th>Stops</th><td>{{.Counts.Stops}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Period</th><td>{{.Config.PeriodMs}}ms</td></tr>
<tr><th>Timer tick</th><td>{{.Config.TickMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>GPIO chip</th><td>{{.Config.Chip}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	if err := indexTmpl.Execute(w, data); err != nil {
		log.Printf("web: render status page: %v", err)
	}
}
