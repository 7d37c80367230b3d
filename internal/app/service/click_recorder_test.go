package service

import (
	"context"
	"testing"

	"github.com/linktrail/linktrail/internal/app/model"
	"github.com/linktrail/linktrail/internal/app/repository"
	"github.com/linktrail/linktrail/internal/infra/geoip"
)

type stubResolver struct {
	calls    int
	location geoip.Location
}

func (s *stubResolver) Resolve(_ context.Context, _ string) geoip.Location {
	s.calls++
	return s.location
}

const recorderTestUA = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Mobile/15E148 Safari/604.1"

func TestClickRecorder_Record(t *testing.T) {
	store := repository.NewMemoryStore()
	resolver := &stubResolver{location: geoip.Location{
		Country: "Germany", City: "Berlin", Region: "Berlin", ISP: "Example ISP",
	}}
	recorder := NewClickRecorder(store, resolver, nil, nil)

	click, err := recorder.Record(context.Background(), ClickInput{
		LinkID:         7,
		IPAddress:      "203.0.113.9",
		UserAgent:      recorderTestUA,
		AcceptLanguage: "de-DE,de;q=0.9",
		Referrer:       "https://social.example.com/post/1",
		Telemetry: Telemetry{
			ScreenResolution: "390x844",
			Timezone:         "Europe/Berlin",
			TouchSupport:     true,
			JavaScriptOn:     true,
			SessionID:        "sess-1",
			Latitude:         "52.52",
			Longitude:        "13.40",
		},
	})
	if err != nil {
		t.Fatalf("Record returned error: %v", err)
	}

	if click.ID == 0 || click.ClickedAt.IsZero() {
		t.Fatal("expected persisted click with ID and timestamp")
	}
	if resolver.calls != 1 {
		t.Fatalf("expected exactly one origin lookup, got %d", resolver.calls)
	}

	if click.Country != "Germany" || click.City != "Berlin" || click.ISP != "Example ISP" {
		t.Fatalf("unexpected origin fields: %+v", click)
	}
	if click.DeviceType != "mobile" || click.OperatingSystem != "iOS 17.5" {
		t.Fatalf("unexpected device facts: type %q os %q", click.DeviceType, click.OperatingSystem)
	}
	if click.Browser != "Safari" || click.BrowserVersion != "17.5" {
		t.Fatalf("unexpected browser facts: %q %q", click.Browser, click.BrowserVersion)
	}
	if click.DeviceModel != "iPhone" {
		t.Fatalf("unexpected device model %q", click.DeviceModel)
	}
	if click.ScreenResolution != "390x844" || click.Timezone != "Europe/Berlin" {
		t.Fatalf("client telemetry lost: %+v", click)
	}
	if !click.TouchSupport || !click.JavaScriptEnabled {
		t.Fatal("expected client booleans carried through")
	}
	if click.SessionID != "sess-1" || click.Latitude != "52.52" {
		t.Fatalf("session and GPS fields lost: %+v", click)
	}
	if click.Referrer != "https://social.example.com/post/1" {
		t.Fatalf("unexpected referrer %q", click.Referrer)
	}

	n, err := store.ClickCount(context.Background(), 7)
	if err != nil || n != 1 {
		t.Fatalf("expected 1 stored click, got %d err %v", n, err)
	}
}

func TestClickRecorder_Record_Sentinels(t *testing.T) {
	store := repository.NewMemoryStore()
	resolver := &stubResolver{location: geoip.Location{
		Country: model.Unknown, City: model.Unknown, Region: model.Unknown, ISP: model.Unknown,
	}}
	recorder := NewClickRecorder(store, resolver, nil, nil)

	click, err := recorder.Record(context.Background(), ClickInput{LinkID: 1})
	if err != nil {
		t.Fatalf("Record returned error: %v", err)
	}

	for name, got := range map[string]string{
		"IPAddress":        click.IPAddress,
		"Country":          click.Country,
		"ConnectionType":   click.ConnectionType,
		"NetworkSpeed":     click.NetworkSpeed,
		"DeviceType":       click.DeviceType,
		"DeviceModel":      click.DeviceModel,
		"OperatingSystem":  click.OperatingSystem,
		"Platform":         click.Platform,
		"ScreenResolution": click.ScreenResolution,
		"Browser":          click.Browser,
		"UserAgent":        click.UserAgent,
		"Language":         click.Language,
		"Timezone":         click.Timezone,
		"Referrer":         click.Referrer,
		"BatteryLevel":     click.BatteryLevel,
	} {
		if got != model.Unknown {
			t.Errorf("%s = %q, want %q", name, got, model.Unknown)
		}
	}

	// GPS and session fields stay empty rather than "unknown".
	if click.Latitude != "" || click.Longitude != "" || click.Accuracy != "" || click.SessionID != "" {
		t.Fatalf("expected empty GPS and session fields, got %+v", click)
	}
	if click.TouchSupport || click.CookiesEnabled || click.JavaScriptEnabled || click.DoNotTrack || click.IsCharging {
		t.Fatal("expected boolean fields to default to false")
	}
}

func TestClickRecorder_Record_LanguageFallback(t *testing.T) {
	store := repository.NewMemoryStore()
	recorder := NewClickRecorder(store, &stubResolver{}, nil, nil)

	click, err := recorder.Record(context.Background(), ClickInput{
		LinkID:         1,
		AcceptLanguage: "fr-FR,fr;q=0.9",
	})
	if err != nil {
		t.Fatalf("Record returned error: %v", err)
	}
	if click.Language != "fr-FR" {
		t.Fatalf("expected Accept-Language fallback, got %q", click.Language)
	}

	click, err = recorder.Record(context.Background(), ClickInput{
		LinkID:         1,
		AcceptLanguage: "fr-FR,fr;q=0.9",
		Telemetry:      Telemetry{Language: "en-GB"},
	})
	if err != nil {
		t.Fatalf("Record returned error: %v", err)
	}
	if click.Language != "en-GB" {
		t.Fatalf("expected client language to win, got %q", click.Language)
	}
}

func TestClickRecorder_Record_PlatformFallback(t *testing.T) {
	store := repository.NewMemoryStore()
	recorder := NewClickRecorder(store, &stubResolver{}, nil, nil)

	click, err := recorder.Record(context.Background(), ClickInput{
		LinkID:    1,
		UserAgent: recorderTestUA,
	})
	if err != nil {
		t.Fatalf("Record returned error: %v", err)
	}
	if click.Platform != "iOS 17.5" {
		t.Fatalf("expected platform to fall back to OS, got %q", click.Platform)
	}

	click, err = recorder.Record(context.Background(), ClickInput{
		LinkID:    1,
		UserAgent: recorderTestUA,
		Telemetry: Telemetry{Platform: "iPhone"},
	})
	if err != nil {
		t.Fatalf("Record returned error: %v", err)
	}
	if click.Platform != "iPhone" {
		t.Fatalf("expected client platform to win, got %q", click.Platform)
	}
}
