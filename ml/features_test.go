package ml

import (
	"math"
	"reflect"
	"testing"
)

func scenarioSchema(t *testing.T) *Schema {
	t.Helper()
	schema, err := NewSchema([]string{"total_sqft", "bath", "bhk", "1st block", "other"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return schema
}

func TestEncodeScenarios(t *testing.T) {
	schema := scenarioSchema(t)

	tests := []struct {
		name string
		req  FeatureRequest
		want []float64
	}{
		{
			name: "known location any case",
			req:  FeatureRequest{Location: "1st Block", TotalSqft: 1000, BHK: 2, Bath: 2},
			want: []float64{1000, 2, 2, 1, 0},
		},
		{
			name: "unknown location",
			req:  FeatureRequest{Location: "Nowhere", TotalSqft: 1000, BHK: 2, Bath: 2},
			want: []float64{1000, 2, 2, 0, 0},
		},
		{
			name: "bath and bhk keep their slots",
			req:  FeatureRequest{Location: "", TotalSqft: 1200.5, BHK: 3, Bath: 1},
			want: []float64{1200.5, 1, 3, 0, 0},
		},
		{
			name: "no range validation",
			req:  FeatureRequest{Location: "other", TotalSqft: -5, BHK: 0, Bath: -1},
			want: []float64{-5, -1, 0, 0, 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := schema.Encode(tt.req)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Encode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEncodeSetsOneIndicatorPerKnownLocation(t *testing.T) {
	schema, err := NewSchema([]string{"total_sqft", "bath", "bhk", "hebbal", "indira nagar", "rajaji nagar", "whitefield"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, location := range schema.Locations() {
		vector := schema.Encode(FeatureRequest{Location: location, TotalSqft: 850, BHK: 2, Bath: 1})
		if len(vector) != schema.Len() {
			t.Fatalf("vector length %d, want %d", len(vector), schema.Len())
		}
		if vector[0] != 850 || vector[1] != 1 || vector[2] != 2 {
			t.Fatalf("numeric slots wrong for %s: %v", location, vector)
		}
		set := 0
		for j := 3; j < len(vector); j++ {
			if vector[j] == 1 {
				set++
				if j != i+3 {
					t.Fatalf("%s set index %d, want %d", location, j, i+3)
				}
			} else if vector[j] != 0 {
				t.Fatalf("unexpected indicator value %v", vector[j])
			}
		}
		if set != 1 {
			t.Fatalf("%s set %d indicators", location, set)
		}
	}

	vector := schema.Encode(FeatureRequest{Location: "Electronic City", TotalSqft: 850, BHK: 2, Bath: 1})
	for j := 3; j < len(vector); j++ {
		if vector[j] != 0 {
			t.Fatalf("unknown location set index %d", j)
		}
	}
}

func TestFeatureRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     FeatureRequest
		wantErr bool
	}{
		{name: "valid", req: FeatureRequest{TotalSqft: 1000, BHK: 2, Bath: 2}},
		{name: "zero sqft", req: FeatureRequest{TotalSqft: 0, BHK: 2, Bath: 2}, wantErr: true},
		{name: "nan sqft", req: FeatureRequest{TotalSqft: math.NaN(), BHK: 2, Bath: 2}, wantErr: true},
		{name: "zero bhk", req: FeatureRequest{TotalSqft: 1000, BHK: 0, Bath: 2}, wantErr: true},
		{name: "zero bath", req: FeatureRequest{TotalSqft: 1000, BHK: 2, Bath: 0}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.req.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
