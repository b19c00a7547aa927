package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		env  Envelope[Device]
	}{
		{"Create", Envelope[Device]{Event: Device{ID: "c0a8e4d2-0000-4000-8000-000000000001", FarmID: "c0a8e4d2-0000-4000-8000-000000000002"}, Status: StatusCreate}},
		{"Update", Envelope[Device]{Event: Device{ID: "c0a8e4d2-0000-4000-8000-000000000001", FarmID: "c0a8e4d2-0000-4000-8000-000000000003"}, Status: StatusUpdate}},
		{"Delete", Envelope[Device]{Event: Device{ID: "c0a8e4d2-0000-4000-8000-000000000001"}, Status: StatusDelete}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := tt.env.Marshal()
			if err != nil {
				t.Fatalf("marshal failed: %v", err)
			}

			var decoded Envelope[Device]
			if err := json.Unmarshal(data, &decoded); err != nil {
				t.Fatalf("unmarshal failed: %v", err)
			}

			if decoded != tt.env {
				t.Errorf("round trip mismatch: got %+v, want %+v", decoded, tt.env)
			}
		})
	}
}

func TestEnvelopeWireKeys(t *testing.T) {
	env := Envelope[Farm]{Event: Farm{ID: "c0a8e4d2-0000-4000-8000-000000000001", Name: "The Farm"}, Status: StatusCreate}

	data, err := env.Marshal()
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if _, ok := raw["Event"]; !ok {
		t.Error("expected top-level Event key")
	}
	if string(raw["Status"]) != `"Create"` {
		t.Errorf(`expected Status "Create", got %s`, raw["Status"])
	}
}

func TestStatusStrictDecode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"Create", `{"Event":{},"Status":"Create"}`, false},
		{"Update", `{"Event":{},"Status":"Update"}`, false},
		{"Delete", `{"Event":{},"Status":"Delete"}`, false},
		{"Unknown", `{"Event":{},"Status":"Upsert"}`, true},
		{"Empty", `{"Event":{},"Status":""}`, true},
		{"Numeric", `{"Event":{},"Status":2}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var env Envelope[Device]
			err := json.Unmarshal([]byte(tt.input), &env)
			if tt.wantErr && err == nil {
				t.Errorf("expected decode error for %s", tt.input)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected decode error: %v", err)
			}
		})
	}
}

func TestFarmValidate(t *testing.T) {
	longName := make([]byte, MaxFarmNameLen+1)
	for i := range longName {
		longName[i] = 'a'
	}

	tests := []struct {
		name    string
		farm    Farm
		wantErr bool
	}{
		{"Valid", Farm{ID: "c0a8e4d2-0000-4000-8000-000000000001", Name: "The Farm"}, false},
		{"MissingName", Farm{ID: "c0a8e4d2-0000-4000-8000-000000000001"}, true},
		{"NameTooLong", Farm{ID: "c0a8e4d2-0000-4000-8000-000000000001", Name: string(longName)}, true},
		{"BadID", Farm{ID: "not-a-uuid", Name: "The Farm"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.farm.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestTelemetryValidate(t *testing.T) {
	deviceID := "c0a8e4d2-0000-4000-8000-000000000001"

	valid := Telemetry{
		Temperature:     21.5,
		Humidity:        0.63,
		MeasurementDate: time.Now().UTC(),
		DeviceID:        deviceID,
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}

	missingDate := valid
	missingDate.MeasurementDate = time.Time{}
	if err := missingDate.Validate(); err == nil {
		t.Error("expected error for missing measurement date")
	}

	badDevice := valid
	badDevice.DeviceID = "nope"
	if err := badDevice.Validate(); err == nil {
		t.Error("expected error for malformed device id")
	}
}
