package health

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"
)

// RenderDashboardHTML returns the status page served at GET /. It embeds the
// current snapshot and polls /health/json a few times.
func RenderDashboardHTML(health CollectResult) string {
	b, _ := json.Marshal(health)
	jsonStr := string(b)
	// Escape for embedding in a JS template literal: \ ` $
	jsonStr = strings.ReplaceAll(jsonStr, "\\", "\\\\")
	jsonStr = strings.ReplaceAll(jsonStr, "`", "\\`")
	jsonStr = strings.ReplaceAll(jsonStr, "$", "\\$")
	jsonStr = strings.ReplaceAll(jsonStr, "</", "<\\/")

	lastReqMethod, lastReqPath := "-", "-"
	if m, ok := health.Traffic.LastRequest.(map[string]interface{}); ok {
		if v, ok := m["method"].(string); ok {
			lastReqMethod = v
		}
		if v, ok := m["path"].(string); ok {
			lastReqPath = v
		}
	}

	headline := "Todos los sistemas operativos"
	if health.Status != "ok" {
		headline = "Se detectaron problemas"
	}

	return `<!DOCTYPE html>
<html lang="es">
<head>
  <meta charset="UTF-8">
  <title>IsaHouse · Estado del API</title>
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <style>
    :root { --brand: #B45309; --dark: #1F2937; --bg: #F8F9FA; --muted: #64748b; }
    body { background: var(--bg); color: var(--dark); font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; margin: 0; padding: 40px 20px; }
    .container { max-width: 960px; margin: 0 auto; }
    h1 { font-size: 40px; font-weight: 900; margin: 0 0 8px 0; }
    .subtext { color: var(--muted); font-weight: 700; margin-bottom: 30px; }
    .card { background: #fff; border-radius: 20px; box-shadow: 0 20px 60px -20px rgba(0,0,0,0.1); overflow: hidden; }
    .grid { display: grid; grid-template-columns: repeat(3, 1fr); }
    .col { padding: 32px; border-right: 1px solid #f1f5f9; }
    .col:last-child { border-right: none; }
    .label { text-transform: uppercase; font-size: 11px; font-weight: 900; letter-spacing: 2px; color: #94a3b8; margin-bottom: 20px; }
    .big { font-size: 36px; font-weight: 900; margin-bottom: 10px; }
    .row { display: flex; justify-content: space-between; padding: 8px 0; border-bottom: 1px solid #f8fafc; font-size: 14px; font-weight: 700; }
    .pill { padding: 4px 10px; border-radius: 8px; font-size: 11px; font-weight: 900; }
    .ok { background: rgba(180, 83, 9, 0.08); color: var(--brand); }
    .err { background: rgba(239, 68, 68, 0.08); color: #EF4444; }
    .footer { background: #f8fafc; padding: 16px 32px; display: flex; justify-content: space-between; font-family: monospace; font-size: 13px; }
    .links { margin-top: 20px; font-size: 13px; }
    .links a { color: var(--brand); font-weight: 800; margin-right: 16px; }
    @media (max-width: 800px) { .grid { grid-template-columns: 1fr; } .col { border-right: none; } }
  </style>
</head>
<body>
  <div class="container">
    <h1 id="headline">` + headline + `</h1>
    <p class="subtext">Monitoreo del API de propiedades y sus dependencias.</p>
    <div class="card">
      <div class="grid">
        <div class="col">
          <div class="label">Tráfico</div>
          <div class="big" id="total-req">` + fmt.Sprint(health.Traffic.TotalRequests) + `</div>
          <div class="row"><span>Exitosas</span><span id="success-count">` + fmt.Sprint(health.Traffic.SuccessCount) + `</span></div>
          <div class="row"><span>Fallidas</span><span id="failed-count">` + fmt.Sprint(health.Traffic.FailedCount) + `</span></div>
          <div class="row"><span>Tasa de éxito</span><span id="success-rate">` + health.Traffic.SuccessRate + `%</span></div>
          <div class="row"><span>Latencia media</span><span id="avg-time">` + fmt.Sprint(health.Traffic.AvgResponseTime) + `ms</span></div>
        </div>
        <div class="col">
          <div class="label">Recursos</div>
          <div class="big" id="uptime">--</div>
          <div class="row"><span>Heap</span><span id="mem-heap">` + fmt.Sprint(health.Runtime.Memory.HeapUsed) + ` MB</span></div>
          <div class="row"><span>Goroutines</span><span id="goroutines">` + fmt.Sprint(health.Runtime.Goroutines) + `</span></div>
          <div class="row"><span>Plataforma</span><span style="font-size:10px">` + html.EscapeString(health.Runtime.Platform) + `</span></div>
        </div>
        <div class="col">
          <div class="label">Conectividad</div>
          <div class="row"><span>Base de datos</span><span id="pill-database" class="pill ok">-- ms</span></div>
          <div class="row"><span>Redis</span><span id="pill-redis" class="pill ok">-- ms</span></div>
          <div class="row"><span>Almacenamiento</span><span id="pill-storage" class="pill ok">-- ms</span></div>
        </div>
      </div>
      <div class="footer">
        <span id="req-method">` + html.EscapeString(lastReqMethod) + `</span>
        <span id="req-path">` + html.EscapeString(lastReqPath) + `</span>
      </div>
    </div>
    <div class="links"><a href="/health/json">/health/json</a><a href="/health/errors">/health/errors</a></div>
  </div>
  <script>
    let left = 3;
    const fmt = (s) => { const h = Math.floor(s / 3600); const m = Math.floor((s % 3600) / 60); return h + 'h ' + m + 'm ' + Math.floor(s % 60) + 's'; };
    const text = (id, v) => { document.getElementById(id).textContent = v; };
    const updateUI = (d) => {
      text('total-req', d.traffic.totalRequests);
      text('success-count', d.traffic.successCount);
      text('failed-count', d.traffic.failedCount);
      text('success-rate', d.traffic.successRate + '%');
      text('avg-time', d.traffic.avgResponseTime + 'ms');
      text('uptime', fmt(d.runtime.uptimeSeconds));
      text('mem-heap', d.runtime.memory.heapUsed + ' MB');
      text('goroutines', d.runtime.goroutines);
      if (d.traffic.lastRequest) { text('req-method', d.traffic.lastRequest.method); text('req-path', d.traffic.lastRequest.path); }
      ['database', 'redis', 'storage'].forEach((id) => {
        const dep = d.dependencies[id]; const pill = document.getElementById('pill-' + id);
        pill.className = 'pill ' + (dep.status === 'connected' ? 'ok' : 'err');
        pill.textContent = dep.status === 'connected' ? dep.pingMs + ' ms' : dep.status;
      });
      text('headline', d.status === 'ok' ? 'Todos los sistemas operativos' : 'Se detectaron problemas');
    };
    async function tick() { if (left <= 0) return; left--; try { const r = await fetch('/health/json'); updateUI(await r.json()); } catch (e) {} }
    updateUI(JSON.parse(` + "`" + jsonStr + "`" + `));
    setInterval(tick, 10000);
  </script>
</body>
</html>`
}
