package view

import (
	"bytes"
	"html/template"
)

// TrackPageData provides the two values interpolated into the tracking page.
type TrackPageData struct {
	LinkID         int64
	DestinationURL string
}

// The tracking page collects client-side telemetry (screen, connection,
// battery, geolocation) with per-probe fallbacks, fire-and-forget submits it
// to /api/track-click, then navigates after a short fixed delay. Navigation
// never waits on the submission outcome.
var trackPageTmpl = template.Must(template.New("track_page").Parse(`
<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="utf-8" />
	<meta name="viewport" content="width=device-width, initial-scale=1" />
	<title>Redirecting...</title>
	<style>
		body {
			margin: 0;
			min-height: 100vh;
			display: flex;
			align-items: center;
			justify-content: center;
			background: #090a0f;
		}
		.loader {
			border: 3px solid rgba(255, 255, 255, 0.25);
			border-top: 3px solid #7dd3fc;
			border-radius: 50%;
			width: 40px;
			height: 40px;
			animation: spin 1s linear infinite;
		}
		@keyframes spin {
			0% { transform: rotate(0deg); }
			100% { transform: rotate(360deg); }
		}
	</style>
</head>
<body>
	<div class="loader"></div>
	<script>
		async function collectTelemetry() {
			const info = {
				screenResolution: screen.width + 'x' + screen.height,
				viewportSize: window.innerWidth + 'x' + window.innerHeight,
				devicePixelRatio: window.devicePixelRatio?.toString() || '',
				colorDepth: screen.colorDepth?.toString() || '',
				language: navigator.language || navigator.languages?.[0] || '',
				timezone: Intl.DateTimeFormat().resolvedOptions().timeZone || '',
				platform: navigator.platform || '',
				cpuCores: navigator.hardwareConcurrency?.toString() || '',
				deviceMemory: navigator.deviceMemory?.toString() || '',
				cookiesEnabled: navigator.cookieEnabled || false,
				javaScriptEnabled: true,
				doNotTrack: navigator.doNotTrack === '1',
				touchSupport: 'ontouchstart' in window || navigator.maxTouchPoints > 0,
				orientation: screen.orientation?.type || (window.innerHeight > window.innerWidth ? 'portrait' : 'landscape'),
				sessionId: Date.now().toString() + Math.random().toString(36).slice(2, 11)
			};

			if (navigator.connection) {
				info.connectionType = navigator.connection.effectiveType || navigator.connection.type || '';
				info.networkSpeed = navigator.connection.downlink ? navigator.connection.downlink.toString() + 'Mbps' : '';
			}

			if (navigator.getBattery) {
				try {
					const battery = await navigator.getBattery();
					info.batteryLevel = (battery.level * 100).toFixed(0) + '%';
					info.isCharging = battery.charging;
				} catch (e) {
					info.isCharging = false;
				}
			}

			if (navigator.geolocation) {
				return new Promise((resolve) => {
					navigator.geolocation.getCurrentPosition(
						(position) => {
							info.latitude = position.coords.latitude.toString();
							info.longitude = position.coords.longitude.toString();
							info.accuracy = position.coords.accuracy.toString();
							resolve(info);
						},
						() => resolve(info),
						{ timeout: 5000, enableHighAccuracy: false }
					);
				});
			}

			return info;
		}

		async function track() {
			const destination = {{.DestinationURL}};
			const info = await collectTelemetry();

			try {
				await fetch('/api/track-click', {
					method: 'POST',
					headers: { 'Content-Type': 'application/json' },
					body: JSON.stringify({ linkId:{{.LinkID}}, ...info })
				});
			} catch (e) {
				console.log('Failed to track click');
			}

			setTimeout(() => {
				window.location.href = destination;
			}, 100);
		}

		track();
	</script>
</body>
</html>
`))

// RenderTrackPage expands the tracking page template with the provided data.
func RenderTrackPage(data TrackPageData) (string, error) {
	var buf bytes.Buffer
	if err := trackPageTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
