package quote

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRequest(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    Request
		wantErr error
	}{
		{
			name: "internal",
			body: `{"insuranceType":"internal","vehicleCode":"01a","category":"01","classification":"0","months":12}`,
			want: Internal{VehicleCode: "01a", Category: "01", Classification: "0", Months: 12},
		},
		{
			name: "border",
			body: `{"insuranceType":"border","borderVehicleType":"tourist","months":1}`,
			want: Border{BorderType: "tourist", Months: 1},
		},
		{
			name:    "mixed variants",
			body:    `{"insuranceType":"internal","vehicleCode":"01a","category":"01","classification":"0","borderVehicleType":"bus","months":12}`,
			wantErr: ErrInvalidRequest,
		},
		{
			name:    "border with internal fields",
			body:    `{"insuranceType":"border","borderVehicleType":"bus","vehicleCode":"01a","months":12}`,
			wantErr: ErrInvalidRequest,
		},
		{
			name:    "unknown insurance type",
			body:    `{"insuranceType":"marine","months":12}`,
			wantErr: ErrInvalidRequest,
		},
		{
			name:    "missing insurance type",
			body:    `{"borderVehicleType":"bus","months":12}`,
			wantErr: ErrInvalidRequest,
		},
		{
			name:    "missing internal field",
			body:    `{"insuranceType":"internal","vehicleCode":"01a","months":12}`,
			wantErr: ErrInvalidRequest,
		},
		{
			name:    "missing months",
			body:    `{"insuranceType":"border","borderVehicleType":"bus"}`,
			wantErr: ErrInvalidDuration,
		},
		{
			name:    "fractional months",
			body:    `{"insuranceType":"border","borderVehicleType":"bus","months":1.5}`,
			wantErr: ErrInvalidRequest,
		},
		{
			name:    "unknown field",
			body:    `{"insuranceType":"border","borderVehicleType":"bus","months":1,"discount":true}`,
			wantErr: ErrInvalidRequest,
		},
		{
			name:    "empty body",
			body:    ``,
			wantErr: ErrInvalidRequest,
		},
		{
			name:    "not json",
			body:    `insuranceType=border`,
			wantErr: ErrInvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := DecodeRequest(strings.NewReader(tt.body))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, req)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, req)
		})
	}
}

func TestEncodeRequest_RoundTripsThroughWire(t *testing.T) {
	for _, req := range []Request{
		Internal{VehicleCode: "02b", Category: "03", Classification: "1", Months: 3},
		Border{BorderType: "other", Months: 6},
	} {
		raw, err := json.Marshal(EncodeRequest(req))
		require.NoError(t, err)

		got, err := DecodeRequest(strings.NewReader(string(raw)))
		require.NoError(t, err)
		assert.Equal(t, req, got)
	}
}

func TestNewResponse(t *testing.T) {
	q, err := Compute(defaultTable(t), Internal{VehicleCode: "01a", Category: "private", Classification: "standard", Months: 12})
	require.NoError(t, err)

	raw, err := json.Marshal(NewResponse(q))
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"insuranceType": "internal",
		"inputs": {"insuranceType":"internal","vehicleCode":"01a","category":"01","classification":"0","months":12},
		"breakdown": {
			"netPremium": 90000,
			"stampFee": 4500,
			"warEffort": 4500,
			"martyrFund": 900,
			"localAdministration": 4500,
			"reconstruction": 9000
		},
		"total": 113400,
		"rateVersion": "2025.1",
		"currency": "SYP"
	}`, string(raw))
}

func TestNewResponse_Border(t *testing.T) {
	q, err := Compute(defaultTable(t), Border{BorderType: "tourist", Months: 1})
	require.NoError(t, err)

	raw, err := json.Marshal(NewResponse(q))
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "border", body["insuranceType"])
	assert.Equal(t, map[string]any{"insuranceType": "border", "borderVehicleType": "tourist", "months": float64(1)}, body["inputs"])
	assert.Equal(t, float64(37800), body["total"])
}

func TestAmount_FixedScale(t *testing.T) {
	assert.Equal(t, json.Number("4500.00"), Amount(dec("4500"), 2))
	assert.Equal(t, json.Number("12.35"), Amount(dec("12.345"), 2))
	assert.Equal(t, json.Number("90000"), Amount(dec("90000"), 0))
}
